package cli

import "testing"

func TestJoinCommandGroup(t *testing.T) {
	if joinCmd.GroupID != GroupMesh {
		t.Errorf("join command GroupID = %q, want %q", joinCmd.GroupID, GroupMesh)
	}
}

func TestJoinCommandFlags(t *testing.T) {
	for _, name := range []string{"name", "model", "spec", "human"} {
		if joinCmd.Flags().Lookup(name) == nil {
			t.Errorf("join command missing --%s flag", name)
		}
	}
}
