package feed

import (
	"testing"

	meshfeed "github.com/pi-messenger/messenger/internal/feed"
)

func TestTailerScanDeliversOnChange(t *testing.T) {
	baseDir := t.TempDir()
	log := meshfeed.Open(baseDir)
	if err := log.Append(meshfeed.New(meshfeed.KindJoin, "Atlas", "")); err != nil {
		t.Fatal(err)
	}

	var delivered [][]meshfeed.Event
	tl := &tailer{log: log, baseDir: baseDir, deliver: func(evs []meshfeed.Event) {
		delivered = append(delivered, evs)
	}}

	tl.scan()
	if len(delivered) != 1 {
		t.Fatalf("got %d deliveries, want 1", len(delivered))
	}

	tl.scan()
	if len(delivered) != 1 {
		t.Fatalf("scan with no new events delivered again: got %d, want 1", len(delivered))
	}

	if err := log.Append(meshfeed.New(meshfeed.KindLeave, "Atlas", "")); err != nil {
		t.Fatal(err)
	}
	tl.scan()
	if len(delivered) != 2 {
		t.Fatalf("got %d deliveries after append, want 2", len(delivered))
	}
}

func TestTailerScanMissingFileIsNoop(t *testing.T) {
	baseDir := t.TempDir()
	log := meshfeed.Open(baseDir)

	called := false
	tl := &tailer{log: log, baseDir: baseDir, deliver: func([]meshfeed.Event) { called = true }}
	tl.scan()
	if called {
		t.Error("deliver called for a feed with no events")
	}
}
