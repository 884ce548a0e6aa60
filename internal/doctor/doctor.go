// Package doctor runs read-only health checks against a mesh base
// directory: dead registrations, orphaned claims, stale locks, and
// misconfigured auto-register paths. Checks never mutate state — the
// mesh's on-disk files are the source of truth and doctor only reports
// on them.
package doctor

import "fmt"

// Status is a check's outcome severity.
type Status string

const (
	StatusOK      Status = "ok"
	StatusWarning Status = "warning"
	StatusError   Status = "error"
)

// Category groups related checks for display.
type Category string

const (
	CategoryRegistry     Category = "registry"
	CategorySwarm        Category = "swarm"
	CategoryLocks        Category = "locks"
	CategoryConfig       Category = "config"
)

// Result is one check's finding.
type Result struct {
	Name    string   `json:"name"`
	Status  Status   `json:"status"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

// Context carries the shared inputs every check needs.
type Context struct {
	BaseDir string
	Cwd     string
	Verbose bool
}

// Check is one diagnostic. Run must not mutate any file it inspects.
type Check interface {
	Name() string
	Description() string
	Category() Category
	Run(ctx *Context) *Result
}

// BaseCheck supplies the identity fields most checks embed.
type BaseCheck struct {
	CheckName        string
	CheckDescription string
	CheckCategory    Category
}

func (c BaseCheck) Name() string            { return c.CheckName }
func (c BaseCheck) Description() string     { return c.CheckDescription }
func (c BaseCheck) Category() Category      { return c.CheckCategory }

// Doctor runs a registered set of checks against one Context.
type Doctor struct {
	checks []Check
}

// NewDoctor returns an empty Doctor; call Register to add checks.
func NewDoctor() *Doctor {
	return &Doctor{}
}

// Register adds one check to the run list.
func (d *Doctor) Register(c Check) {
	d.checks = append(d.checks, c)
}

// RegisterAll adds every check in cs to the run list.
func (d *Doctor) RegisterAll(cs ...Check) {
	d.checks = append(d.checks, cs...)
}

// RunAll runs every registered check against ctx, in registration order.
func (d *Doctor) RunAll(ctx *Context) []*Result {
	results := make([]*Result, 0, len(d.checks))
	for _, c := range d.checks {
		results = append(results, c.Run(ctx))
	}
	return results
}

// DefaultChecks returns every built-in check in the order doctor runs
// them by default.
func DefaultChecks() []Check {
	return []Check{
		NewDeadRegistrationCheck(),
		NewOrphanClaimCheck(),
		NewStaleLockCheck(),
		NewAutoRegisterPathCheck(),
	}
}

func okResult(name, format string, args ...any) *Result {
	return &Result{Name: name, Status: StatusOK, Message: fmt.Sprintf(format, args...)}
}

func warnResult(name string, details []string, format string, args ...any) *Result {
	return &Result{Name: name, Status: StatusWarning, Message: fmt.Sprintf(format, args...), Details: details}
}
