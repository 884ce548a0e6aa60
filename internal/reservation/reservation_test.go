package reservation

import (
	"testing"

	"github.com/pi-messenger/messenger/internal/registry"
)

func TestCheckDetectsDirectoryReservation(t *testing.T) {
	peer := registry.Registration{Name: "SwiftFalcon", Cwd: "/work/app"}
	Declare(&peer, "/work/app", "src/", "refactoring auth")

	conflict, err := Check([]registry.Registration{peer}, "/work/app", "src/auth/login.go")
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if conflict == nil {
		t.Fatalf("Check() = nil, want a conflict for nested path")
	}
	if conflict.PeerName != "SwiftFalcon" {
		t.Fatalf("conflict.PeerName = %q, want SwiftFalcon", conflict.PeerName)
	}
}

func TestCheckNoConflictOutsideReservation(t *testing.T) {
	peer := registry.Registration{Name: "SwiftFalcon", Cwd: "/work/app"}
	Declare(&peer, "/work/app", "src/auth.go", "")

	conflict, err := Check([]registry.Registration{peer}, "/work/app", "src/other.go")
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if conflict != nil {
		t.Fatalf("Check() = %+v, want no conflict", conflict)
	}
}

func TestReleaseRemovesReservation(t *testing.T) {
	reg := registry.Registration{Cwd: "/work/app"}
	Declare(&reg, "/work/app", "src/auth.go", "")
	if len(reg.Reservations) != 1 {
		t.Fatalf("len(Reservations) = %d, want 1", len(reg.Reservations))
	}
	Release(&reg, "/work/app", "src/auth.go")
	if len(reg.Reservations) != 0 {
		t.Fatalf("len(Reservations) = %d, want 0 after release", len(reg.Reservations))
	}
}
