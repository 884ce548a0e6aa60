package cli

import "testing"

func TestSendRequiresTwoArgs(t *testing.T) {
	if err := sendCmd.Args(sendCmd, []string{"Atlas"}); err == nil {
		t.Error("send should require exactly 2 arguments")
	}
	if err := sendCmd.Args(sendCmd, []string{"Atlas", "hello"}); err != nil {
		t.Errorf("send should accept 2 arguments: %v", err)
	}
}

func TestSendReplyToFlag(t *testing.T) {
	if sendCmd.Flags().Lookup("reply-to") == nil {
		t.Error("send command missing --reply-to flag")
	}
}
