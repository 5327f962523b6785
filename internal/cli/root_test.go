package cli

import (
	"bytes"
	"testing"
)

// executeCommand runs a command with the given args and captures output.
func executeCommand(args ...string) (string, error) {
	root := NewRootCmd()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestRootHelp(t *testing.T) {
	_, err := executeCommand("--help")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestGlobalFlags(t *testing.T) {
	root := NewRootCmd()

	formatFlag := root.PersistentFlags().Lookup("format")
	if formatFlag == nil {
		t.Fatal("expected --format flag to exist")
	}
	if formatFlag.DefValue != "text" {
		t.Errorf("expected --format default 'text', got %q", formatFlag.DefValue)
	}

	dbFlag := root.PersistentFlags().Lookup("db")
	if dbFlag == nil {
		t.Fatal("expected --db flag to exist")
	}
}

func TestInvalidIDArguments(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"show", []string{"show", "abc"}},
		{"track", []string{"track", "abc"}},
		{"untrack", []string{"untrack", "abc"}},
		{"todo", []string{"todo", "abc", "pack tent"}},
		{"expense", []string{"expense", "abc", "50", "fee"}},
		{"comment", []string{"comment", "abc", "nice"}},
		{"comments", []string{"comments", "abc"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := executeCommand(tt.args...); err == nil {
				t.Errorf("expected error for %v", tt.args)
			}
		})
	}
}

func TestExpenseRejectsBadAmount(t *testing.T) {
	if _, err := executeCommand("expense", "1", "free", "fee"); err == nil {
		t.Error("expected error for non-numeric amount")
	}
	if _, err := executeCommand("expense", "1", "-5", "fee"); err == nil {
		t.Error("expected error for negative amount")
	}
}
