package feed

import (
	"strings"
	"testing"
	"time"

	meshfeed "github.com/pi-messenger/messenger/internal/feed"
)

func TestModelRenderFormatsEvents(t *testing.T) {
	ts := time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)
	m := &Model{
		events: []meshfeed.Event{
			meshfeed.New(meshfeed.KindJoin, "Atlas", ""),
		},
	}
	m.events[0].Timestamp = ts

	out := m.render()
	if !strings.Contains(out, "15:04:05") {
		t.Errorf("render() = %q, want timestamp", out)
	}
	if !strings.Contains(out, "Atlas joined the mesh") {
		t.Errorf("render() = %q, want event summary", out)
	}
}

func TestModelRenderEmpty(t *testing.T) {
	m := &Model{}
	if got := m.render(); got != "" {
		t.Errorf("render() = %q, want empty", got)
	}
}

func TestDefaultKeyMapBindsQuit(t *testing.T) {
	km := DefaultKeyMap()
	if len(km.Quit.Keys()) == 0 {
		t.Error("Quit binding has no keys")
	}
}
