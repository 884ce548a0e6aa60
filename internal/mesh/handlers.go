package mesh

import (
	"github.com/pi-messenger/messenger/internal/crew/store"
	"github.com/pi-messenger/messenger/internal/gitutil"
	"github.com/pi-messenger/messenger/internal/meshapi"
)

// wire registers every action group's handler. Grouping mirrors the
// router's split-at-first-dot convention: "swarm.claim" dispatches to
// the "swarm" handler with op == "claim".
func (c *Coordinator) wire() {
	c.Router.Register("join", c.handleJoin)
	c.Router.Register("leave", c.handleLeave)
	c.Router.Register("status", c.handleStatus)
	c.Router.Register("set_status", c.handleSetStatus)
	c.Router.Register("list", c.handleList)
	c.Router.Register("whois", c.handleWhois)
	c.Router.Register("feed", c.handleFeed)
	c.Router.Register("rename", c.handleRename)
	c.Router.Register("send", c.handleSend)
	c.Router.Register("broadcast", c.handleBroadcast)
	c.Router.Register("reserve", c.handleReserve)
	c.Router.Register("swarm", c.handleSwarm)
	c.Router.Register("spec", c.handleSpec)
	c.Router.Register("task", c.handleTask)
	c.Router.Register("crew", c.handleCrew)
	c.Router.Register("config", c.handleConfig)

	// Shorthand forms: the bare action is the common case in agent tool
	// calls, the dotted group form is the canonical one.
	c.Router.Register("release", func(op string, params map[string]any) (any, error) {
		return c.handleReserve("release", params)
	})
	for _, op := range []string{"plan", "work", "review", "interview", "sync"} {
		op := op
		c.Router.Register(op, func(_ string, params map[string]any) (any, error) {
			return c.handleCrew(op, params)
		})
	}
}

func (c *Coordinator) handleJoin(op string, params map[string]any) (any, error) {
	return c.Join(JoinParams{
		Name:        paramString(params, "name"),
		SessionID:   paramString(params, "sessionId"),
		Model:       paramString(params, "model"),
		SpecPath:    paramString(params, "specPath"),
		HumanDriven: paramBool(params, "humanDriven"),
	})
}

func (c *Coordinator) handleLeave(op string, params map[string]any) (any, error) {
	return nil, c.Leave()
}

func (c *Coordinator) handleStatus(op string, params map[string]any) (any, error) {
	return c.Status()
}

func (c *Coordinator) handleSetStatus(op string, params map[string]any) (any, error) {
	return nil, c.SetStatus(paramString(params, "message"))
}

func (c *Coordinator) handleList(op string, params map[string]any) (any, error) {
	return c.List()
}

func (c *Coordinator) handleWhois(op string, params map[string]any) (any, error) {
	return c.Whois(paramString(params, "name"))
}

func (c *Coordinator) handleFeed(op string, params map[string]any) (any, error) {
	limit := paramInt(params, "limit")
	if limit <= 0 {
		limit = 50
	}
	return c.RecentFeed(limit)
}

func (c *Coordinator) handleRename(op string, params map[string]any) (any, error) {
	return nil, c.Rename(paramString(params, "name"))
}

func (c *Coordinator) handleBroadcast(op string, params map[string]any) (any, error) {
	return c.Broadcast(paramString(params, "text"))
}

func (c *Coordinator) handleSpec(op string, params map[string]any) (any, error) {
	return nil, c.SetSpec(paramString(params, "path"))
}

func (c *Coordinator) handleSend(op string, params map[string]any) (any, error) {
	to := paramString(params, "to")
	text := paramString(params, "text")
	replyTo := paramString(params, "replyTo")
	return nil, c.Send(to, text, replyTo)
}

func (c *Coordinator) handleReserve(op string, params map[string]any) (any, error) {
	path := paramString(params, "path")
	switch op {
	case "declare":
		return nil, c.Declare(path, paramString(params, "reason"))
	case "release":
		return nil, c.Release(path)
	case "check":
		return c.CheckReservation(path)
	default:
		return nil, meshapi.New(meshapi.KindUnknownAction, "unknown reserve op %q", op)
	}
}

func (c *Coordinator) handleSwarm(op string, params map[string]any) (any, error) {
	spec := paramString(params, "spec")
	taskID := paramString(params, "taskId")
	switch op {
	case "claim":
		self, err := c.self()
		if err != nil {
			return nil, err
		}
		reason := paramString(params, "reason")
		if err := c.Swarm.Claim(spec, taskID, self.Name, self.SessionID, self.PID, reason); err != nil {
			return nil, err
		}
		return nil, nil
	case "unclaim":
		self, err := c.self()
		if err != nil {
			return nil, err
		}
		return nil, c.Swarm.Unclaim(spec, taskID, self.Name)
	case "complete":
		self, err := c.self()
		if err != nil {
			return nil, err
		}
		notes := paramString(params, "notes")
		return nil, c.Swarm.Complete(spec, taskID, self.Name, notes)
	case "list":
		return c.Swarm.ClaimsForSpec(spec)
	case "isComplete":
		return c.Swarm.IsComplete(spec, taskID), nil
	default:
		return nil, meshapi.New(meshapi.KindUnknownAction, "unknown swarm op %q", op)
	}
}

func (c *Coordinator) handleTask(op string, params map[string]any) (any, error) {
	s := c.crewStore()
	id := paramString(params, "id")
	switch op {
	case "create":
		return s.CreateTask(paramString(params, "title"), paramStringSlice(params, "dependsOn"), paramString(params, "spec"))
	case "start":
		self, err := c.self()
		if err != nil {
			return nil, err
		}
		return s.Start(id, self.Name, currentHead(c.Cwd))
	case "done":
		return s.Done(id, paramString(params, "summary"), store.Evidence{
			Commits: paramStringSlice(params, "commits"),
			Tests:   paramStringSlice(params, "tests"),
			PRs:     paramStringSlice(params, "prs"),
		})
	case "block":
		return s.Block(id, paramString(params, "reason"))
	case "unblock":
		return s.Unblock(id)
	case "reset":
		return s.Reset(id, paramBool(params, "cascade"))
	case "show", "get":
		t, ok := s.GetTask(id)
		if !ok {
			return nil, meshapi.New(meshapi.KindNotFound, "no task %q", id)
		}
		return t, nil
	case "list":
		return s.ListTasks()
	case "ready":
		return s.ReadyTasks()
	default:
		return nil, meshapi.New(meshapi.KindUnknownAction, "unknown task op %q", op)
	}
}

func (c *Coordinator) handleCrew(op string, params map[string]any) (any, error) {
	o := c.orchestrator()
	switch op {
	case "plan":
		return o.Plan(paramString(params, "prdPath"))
	case "work":
		self, err := c.self()
		if err != nil {
			return nil, err
		}
		return o.Work(paramBool(params, "autonomous"), self.Name)
	case "review":
		return o.Review(paramString(params, "target"))
	case "interview":
		return o.Interview()
	case "sync":
		return o.Sync(paramString(params, "taskId"))
	case "status":
		return c.CrewStatusReport()
	case "agents":
		return LoadRoster(c.Cwd), nil
	case "validate":
		return c.CrewValidate()
	case "install":
		return c.CrewInstall()
	case "uninstall":
		return nil, c.CrewUninstall()
	case "setRoster":
		roster := LoadRoster(c.Cwd)
		if v := paramString(params, "analyst"); v != "" {
			roster.Analyst = v
		}
		if v := paramString(params, "planner"); v != "" {
			roster.Planner = v
		}
		if v := paramString(params, "worker"); v != "" {
			roster.Worker = v
		}
		if v := paramString(params, "reviewer"); v != "" {
			roster.Reviewer = v
		}
		if v := paramString(params, "interviewer"); v != "" {
			roster.Interviewer = v
		}
		if v := paramString(params, "sync"); v != "" {
			roster.Sync = v
		}
		return nil, SaveRoster(c.Cwd, roster)
	default:
		return nil, meshapi.New(meshapi.KindUnknownAction, "unknown crew op %q", op)
	}
}

func (c *Coordinator) handleConfig(op string, params map[string]any) (any, error) {
	switch op {
	case "autoRegisterPath":
		return c.Cfg.MatchesAutoRegister(paramString(params, "cwd")), nil
	case "get":
		return c.Cfg, nil
	default:
		return nil, meshapi.New(meshapi.KindUnknownAction, "unknown config op %q", op)
	}
}

func currentHead(dir string) string {
	sha, err := gitutil.HeadCommit(dir)
	if err != nil {
		return ""
	}
	return sha
}
