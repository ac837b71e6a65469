package main

import "testing"

func TestRootCmdFlags(t *testing.T) {
	cmd := newRootCmd()

	if err := cmd.ParseFlags([]string{"--session", "7", "--log", "/tmp/x.log"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	session, err := cmd.Flags().GetInt64("session")
	if err != nil || session != 7 {
		t.Fatalf("unexpected session: %d, %v", session, err)
	}

	logPath, err := cmd.Flags().GetString("log")
	if err != nil || logPath != "/tmp/x.log" {
		t.Fatalf("unexpected log path: %q, %v", logPath, err)
	}
}

func TestRootCmdRejectsArgs(t *testing.T) {
	cmd := newRootCmd()

	if err := cmd.Args(cmd, []string{"extra"}); err == nil {
		t.Fatalf("expected error for positional arguments")
	}
}
