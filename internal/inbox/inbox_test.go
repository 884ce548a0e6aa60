package inbox

import (
	"os"
	"testing"

	"github.com/pi-messenger/messenger/internal/registry"
)

func TestSendToAgentAndDrain(t *testing.T) {
	base := t.TempDir()
	reg := registry.NewStore(base)

	if err := reg.Register(registry.Registration{Name: "CalmOtter", PID: os.Getpid(), SessionID: "sess-otter"}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	msg := New("SwiftFalcon", "CalmOtter", "hi\x1b[31m there", "")
	if msg.Text != "hi there" {
		t.Fatalf("New() text = %q, want ANSI stripped", msg.Text)
	}

	if err := SendToAgent(reg, base, "CalmOtter", msg); err != nil {
		t.Fatalf("SendToAgent() error = %v", err)
	}

	var delivered []Message
	if err := Drain(base, "sess-otter", func(m Message) { delivered = append(delivered, m) }); err != nil {
		t.Fatalf("Drain() error = %v", err)
	}
	if len(delivered) != 1 || delivered[0].Text != "hi there" {
		t.Fatalf("Drain() = %+v, want one message with stripped text", delivered)
	}

	// Second drain should find nothing — exactly-once local delivery.
	delivered = nil
	if err := Drain(base, "sess-otter", func(m Message) { delivered = append(delivered, m) }); err != nil {
		t.Fatalf("Drain() error = %v", err)
	}
	if len(delivered) != 0 {
		t.Fatalf("second Drain() = %+v, want empty", delivered)
	}
}

func TestSendToAgentNotActive(t *testing.T) {
	base := t.TempDir()
	reg := registry.NewStore(base)

	if err := reg.Register(registry.Registration{Name: "DeadAgent", PID: 1 << 30, SessionID: "sess-dead"}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	err := SendToAgent(reg, base, "DeadAgent", New("SwiftFalcon", "DeadAgent", "hi", ""))
	if err == nil {
		t.Fatalf("SendToAgent() error = nil, want not_active")
	}
}

func TestDrainQuarantinesMalformed(t *testing.T) {
	base := t.TempDir()
	dir := Dir(base, "sess-bad")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	if err := os.WriteFile(dir+"/1-aaaa.json", []byte("{not json"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if err := Drain(base, "sess-bad", func(Message) {}); err != nil {
		t.Fatalf("Drain() error = %v", err)
	}

	entries, err := os.ReadDir(dir + "/.deadletter")
	if err != nil {
		t.Fatalf("reading deadletter dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("deadletter entries = %d, want 1", len(entries))
	}
}
