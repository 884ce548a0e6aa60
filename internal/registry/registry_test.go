package registry

import (
	"os"
	"testing"

	"github.com/pi-messenger/messenger/internal/meshapi"
)

func TestRegisterAndGetActiveAgents(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)

	reg := Registration{Name: "SwiftFalcon", PID: os.Getpid(), SessionID: "sess-1", Cwd: "/work"}
	if err := s.Register(reg); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	agents, err := s.GetActiveAgents("", "")
	if err != nil {
		t.Fatalf("GetActiveAgents() error = %v", err)
	}
	if len(agents) != 1 || agents[0].Name != "SwiftFalcon" {
		t.Fatalf("GetActiveAgents() = %+v, want one entry named SwiftFalcon", agents)
	}
}

func TestGetActiveAgentsExcludesSelf(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)

	if err := s.Register(Registration{Name: "SwiftFalcon", PID: os.Getpid(), SessionID: "sess-1"}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	agents, err := s.GetActiveAgents("SwiftFalcon", "")
	if err != nil {
		t.Fatalf("GetActiveAgents() error = %v", err)
	}
	if len(agents) != 0 {
		t.Fatalf("GetActiveAgents() = %+v, want empty after excluding self", agents)
	}
}

func TestGetActiveAgentsDropsDeadPID(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)

	// A PID that almost certainly does not exist.
	if err := s.Register(Registration{Name: "DeadAgent", PID: 1 << 30, SessionID: "sess-dead"}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	agents, err := s.GetActiveAgents("", "")
	if err != nil {
		t.Fatalf("GetActiveAgents() error = %v", err)
	}
	if len(agents) != 0 {
		t.Fatalf("GetActiveAgents() = %+v, want dead-PID entry dropped", agents)
	}
	if _, err := os.Stat(s.path("DeadAgent")); !os.IsNotExist(err) {
		t.Fatalf("expected dead registration file to be removed")
	}
}

func TestRegisterNameTakenByLivePID(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)

	if err := s.Register(Registration{Name: "SwiftFalcon", PID: os.Getpid(), SessionID: "sess-1"}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	err := s.Register(Registration{Name: "SwiftFalcon", PID: os.Getpid() + 999999, SessionID: "sess-2"})
	if !isResultKind(err, "name_taken") {
		t.Fatalf("Register() error = %v, want name_taken", err)
	}
}

func TestRegisterInvalidName(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)

	err := s.Register(Registration{Name: "bad name!", PID: os.Getpid(), SessionID: "sess-1"})
	if !isResultKind(err, "invalid_name") {
		t.Fatalf("Register() error = %v, want invalid_name", err)
	}
}

func TestRenameAgentPreservesSessionID(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)

	if err := s.Register(Registration{Name: "SwiftFalcon", PID: os.Getpid(), SessionID: "sess-1"}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if err := s.RenameAgent("SwiftFalcon", "CalmOtter"); err != nil {
		t.Fatalf("RenameAgent() error = %v", err)
	}

	if _, ok := s.Get("SwiftFalcon"); ok {
		t.Fatalf("old registration still present after rename")
	}
	reg, ok := s.Get("CalmOtter")
	if !ok {
		t.Fatalf("new registration missing after rename")
	}
	if reg.SessionID != "sess-1" {
		t.Fatalf("RenameAgent() session id = %q, want preserved sess-1", reg.SessionID)
	}
}

func isResultKind(err error, kind string) bool {
	r, ok := err.(*meshapi.Result)
	return ok && string(r.Kind) == kind
}
