package inbox

import (
	"strings"
	"testing"

	"github.com/pi-messenger/messenger/internal/registry"
)

func testLookup(regs map[string]registry.Registration) func(string) (registry.Registration, bool) {
	return func(name string) (registry.Registration, bool) {
		r, ok := regs[name]
		return r, ok
	}
}

func TestDecorateFirstContactIncludesSenderDetails(t *testing.T) {
	d := NewDecorator("", "Reply with: pi-messenger send", true, testLookup(map[string]registry.Registration{
		"SwiftFalcon": {Name: "SwiftFalcon", SessionID: "sess-1", Cwd: "/work/app", GitBranch: "main"},
	}))

	first := d.Decorate(New("SwiftFalcon", "CalmOtter", "hello", ""))
	if !strings.Contains(first, "SwiftFalcon is working in /work/app on main") {
		t.Fatalf("first Decorate() = %q, want sender details", first)
	}
	if !strings.Contains(first, "Reply with: pi-messenger send") {
		t.Fatalf("first Decorate() = %q, want reply hint", first)
	}

	second := d.Decorate(New("SwiftFalcon", "CalmOtter", "again", ""))
	if strings.Contains(second, "is working in") {
		t.Fatalf("second Decorate() = %q, want no sender details on repeat contact", second)
	}
	if !strings.Contains(second, "Reply with: pi-messenger send") {
		t.Fatalf("second Decorate() = %q, want reply hint on every message", second)
	}
}

func TestDecorateKeysFirstContactOnSessionID(t *testing.T) {
	regs := map[string]registry.Registration{
		"SwiftFalcon": {Name: "SwiftFalcon", SessionID: "sess-1", Cwd: "/work/a"},
	}
	d := NewDecorator("", "", true, testLookup(regs))

	_ = d.Decorate(New("SwiftFalcon", "CalmOtter", "hello", ""))

	// A different process takes over the same name: new session id means
	// a fresh first contact, not a suppressed one.
	regs["SwiftFalcon"] = registry.Registration{Name: "SwiftFalcon", SessionID: "sess-2", Cwd: "/work/b"}
	out := d.Decorate(New("SwiftFalcon", "CalmOtter", "hello again", ""))
	if !strings.Contains(out, "SwiftFalcon is working in /work/b") {
		t.Fatalf("Decorate() after session change = %q, want fresh sender details", out)
	}
}

func TestDecorateRegistrationContextOnlyOnce(t *testing.T) {
	d := NewDecorator("You are part of a mesh.", "", false, nil)

	first := d.Decorate(New("A", "B", "one", ""))
	if !strings.HasPrefix(first, "You are part of a mesh.") {
		t.Fatalf("first Decorate() = %q, want registration context prefix", first)
	}
	second := d.Decorate(New("A", "B", "two", ""))
	if strings.Contains(second, "You are part of a mesh.") {
		t.Fatalf("second Decorate() = %q, want context only on the first delivery", second)
	}
}
