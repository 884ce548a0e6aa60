package cli

import "testing"

func TestRootCommandGroups(t *testing.T) {
	ids := map[string]bool{}
	for _, g := range rootCmd.Groups() {
		ids[g.ID] = true
	}
	for _, want := range []string{GroupMesh, GroupCrew, GroupDiag} {
		if !ids[want] {
			t.Errorf("rootCmd missing group %q", want)
		}
	}
}

func TestRootCommandHasJSONFlag(t *testing.T) {
	if rootCmd.PersistentFlags().Lookup("json") == nil {
		t.Error("rootCmd missing persistent --json flag")
	}
}

func TestTopLevelCommandsRegistered(t *testing.T) {
	expected := []string{
		"join", "leave", "status", "set-status", "list", "whois", "send", "broadcast",
		"listen", "rename", "spec", "reserve", "swarm", "task", "crew", "config",
		"doctor", "feed",
	}
	for _, name := range expected {
		if !hasSubcommand(rootCmd.Commands(), name) {
			t.Errorf("%q command not found on rootCmd", name)
		}
	}
}
