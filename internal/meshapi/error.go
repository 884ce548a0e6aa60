// Package meshapi defines the typed, non-fatal result kind shared by
// every component that the action router exposes to callers. Most of
// the system's failure modes are semantic outcomes an agent should read
// and act on, not Go errors that abort a call chain — this type lets
// handlers return them uniformly while still satisfying the error
// interface for code paths that do want to treat them as faults.
package meshapi

import "fmt"

// Kind is a closed discriminator for the typed results named in the
// error handling design: registration, target-validation, swarm, crew,
// orchestration, and lock outcomes.
type Kind string

const (
	KindInvalidName         Kind = "invalid_name"
	KindNameTaken           Kind = "name_taken"
	KindRaceLost            Kind = "race_lost"
	KindRegistrationFailed  Kind = "registration_failed"

	KindNotFound            Kind = "not_found"
	KindNotActive           Kind = "not_active"
	KindInvalidRegistration Kind = "invalid_registration"
	KindNotRegistered       Kind = "not_registered"
	KindUnknownAction       Kind = "unknown_action"

	KindAlreadyHaveClaim Kind = "already_have_claim"
	KindAlreadyClaimed   Kind = "already_claimed"
	KindNotClaimed       Kind = "not_claimed"
	KindNotYourClaim     Kind = "not_your_claim"
	KindAlreadyCompleted Kind = "already_completed"
	KindNoSpec           Kind = "no_spec"

	KindPlanExists         Kind = "plan_exists"
	KindNoPlan             Kind = "no_plan"
	KindNoPRD              Kind = "no_prd"
	KindInvalidStatus      Kind = "invalid_status"
	KindUnmetDependencies  Kind = "unmet_dependencies"
	KindDependencyNotFound Kind = "dependency_not_found"
	KindNoPlanner          Kind = "no_planner"
	KindNoWorker           Kind = "no_worker"
	KindNoReviewer         Kind = "no_reviewer"
	KindNoAnalyst          Kind = "no_analyst"
	KindNoInterviewer      Kind = "no_interviewer"
	KindNoSyncAgent        Kind = "no_sync_agent"

	KindAnalystFailed    Kind = "analyst_failed"
	KindPlannerFailed    Kind = "planner_failed"
	KindAllScoutsFailed  Kind = "all_scouts_failed"

	KindLocked Kind = "locked"
)

// Result is a typed, semantic outcome. It is not necessarily a failure
// of the process — it is information the caller (often an LLM agent)
// should read and act on.
type Result struct {
	Kind    Kind
	Message string
	Details map[string]any
}

func (r *Result) Error() string {
	if r.Message != "" {
		return r.Message
	}
	return string(r.Kind)
}

// New builds a Result with the given kind and human-readable message.
func New(kind Kind, message string, args ...any) *Result {
	return &Result{Kind: kind, Message: fmt.Sprintf(message, args...)}
}

// WithDetails attaches structured details and returns the same Result
// for chaining at the call site.
func (r *Result) WithDetails(details map[string]any) *Result {
	r.Details = details
	return r
}

// As reports whether err is a *Result of the given kind.
func As(err error, kind Kind) bool {
	r, ok := err.(*Result)
	return ok && r.Kind == kind
}
