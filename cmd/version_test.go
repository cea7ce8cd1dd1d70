package cmd

import (
	"bytes"
	"strings"
	"testing"
)

func TestVersionCommand(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		contains []string
	}{
		{
			name:     "version command shows version info",
			args:     []string{"version"},
			contains: []string{"diarist", "Version:      v" + Version, "Git Commit:"},
		},
		{
			name:     "version command with --short flag",
			args:     []string{"version", "--short"},
			contains: []string{"v" + Version},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := NewRootCmd()
			buf := new(bytes.Buffer)
			cmd.SetOut(buf)
			cmd.SetErr(buf)
			cmd.SetArgs(tt.args)

			if err := cmd.Execute(); err != nil {
				t.Errorf("Execute() error = %v", err)
			}

			for _, want := range tt.contains {
				if !strings.Contains(buf.String(), want) {
					t.Errorf("Expected output to contain %q, got %q", want, buf.String())
				}
			}
		})
	}
}

func TestVersionCommandFlags(t *testing.T) {
	cmd := NewRootCmd()
	versionCmd, _, err := cmd.Find([]string{"version"})
	if err != nil {
		t.Fatalf("Failed to find version command: %v", err)
	}

	shortFlag := versionCmd.Flags().Lookup("short")
	if shortFlag == nil {
		t.Error("Expected short flag to be registered")
	}
}
