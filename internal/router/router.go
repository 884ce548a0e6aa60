// Package router implements the action-based dispatch the mesh tool
// surface exposes to agent callers: an action string split at its first
// "." into a group and an operation, dispatched to a registered
// handler, with a registration gate that exempts only join and the
// config-managing autoRegisterPath operation.
package router

import (
	"strings"

	"github.com/pi-messenger/messenger/internal/meshapi"
)

// Handler answers one action group's operations. op is "" when the
// caller passed a bare group with no "." (e.g. action: "join").
type Handler func(op string, params map[string]any) (any, error)

// Router dispatches action strings to registered group handlers.
type Router struct {
	handlers map[string]Handler
	exempt   map[string]bool // "group" or "group.op" — skip the registration gate
	isJoined func() bool
}

// New builds a Router. isJoined reports whether the caller has already
// registered; it gates every action except the exempt set.
func New(isJoined func() bool) *Router {
	return &Router{
		handlers: make(map[string]Handler),
		exempt:   make(map[string]bool),
		isJoined: isJoined,
	}
}

// Register binds group to h.
func (r *Router) Register(group string, h Handler) {
	r.handlers[group] = h
}

// Exempt marks group (or "group.op") as not requiring prior registration.
func (r *Router) Exempt(action string) {
	r.exempt[action] = true
}

// Dispatch splits action at its first ".", applies the registration
// gate, and calls the bound handler.
func (r *Router) Dispatch(action string, params map[string]any) (any, error) {
	if action == "" {
		return nil, meshapi.New(meshapi.KindUnknownAction, "empty action")
	}
	group, op := splitAction(action)

	if !r.isExempt(group, op) && r.isJoined != nil && !r.isJoined() {
		return nil, meshapi.New(meshapi.KindNotRegistered, "must join before calling %q", action)
	}

	h, ok := r.handlers[group]
	if !ok {
		return nil, meshapi.New(meshapi.KindUnknownAction, "unknown action group %q", group)
	}
	return h(op, params)
}

func (r *Router) isExempt(group, op string) bool {
	if r.exempt[group] {
		return true
	}
	if op != "" && r.exempt[group+"."+op] {
		return true
	}
	return false
}

func splitAction(action string) (group, op string) {
	if i := strings.IndexByte(action, '.'); i >= 0 {
		return action[:i], action[i+1:]
	}
	return action, ""
}
