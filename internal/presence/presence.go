// Package presence derives an agent's human-facing status from its
// registration's last-activity timestamp and whether it currently holds
// a claim or reservation.
package presence

import (
	"time"

	"github.com/pi-messenger/messenger/internal/constants"
	"github.com/pi-messenger/messenger/internal/registry"
)

// Status is one of the four presence states an agent can show.
type Status string

const (
	Active Status = "active"
	Idle   Status = "idle"
	Away   Status = "away"
	Stuck  Status = "stuck"
)

// Derive computes reg's status at now, given stuckAfter (the
// configurable threshold, default constants.DefaultStuckAfter) and
// whether reg currently holds a claim or a reservation.
func Derive(reg registry.Registration, now time.Time, stuckAfter time.Duration, hasClaimOrReservation bool) Status {
	if stuckAfter <= 0 {
		stuckAfter = constants.DefaultStuckAfter
	}
	elapsed := now.Sub(reg.Activity.LastActivityAt)

	switch {
	case elapsed < constants.ActiveWindow:
		return Active
	case elapsed < constants.IdleWindow:
		return Idle
	case elapsed >= stuckAfter:
		if hasClaimOrReservation {
			return Stuck
		}
		// No active claim/reservation past the stuck threshold reads the
		// same as being merely away — stuck is reserved for agents that
		// are holding something and not moving.
		return Away
	case hasClaimOrReservation:
		return Idle
	default:
		return Away
	}
}

// HasClaimOrReservation reports whether reg looks "busy" for presence
// purposes: it holds at least one reservation, or hasClaim is true (the
// caller looks claims up separately, since that's a swarm-store concern).
func HasClaimOrReservation(reg registry.Registration, hasClaim bool) bool {
	return hasClaim || len(reg.Reservations) > 0
}
