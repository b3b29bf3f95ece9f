package cli

import (
	"errors"
	"testing"
)

func TestConfigErrorMessage(t *testing.T) {
	tests := []struct {
		name  string
		field string
		msg   string
		want  string
	}{
		{
			name:  "with section",
			field: "precedents.backend",
			msg:   `unsupported backend "redis"`,
			want:  `config error in precedents.backend: unsupported backend "redis"`,
		},
		{
			name:  "whole file",
			field: "",
			msg:   "failed to load config: open config.yaml: no such file",
			want:  "config error: failed to load config: open config.yaml: no such file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewConfigError(tt.field, tt.msg)
			if err.Error() != tt.want {
				t.Errorf("Error() = %q, want %q", err.Error(), tt.want)
			}
		})
	}
}

func TestCommandErrorWrapsCause(t *testing.T) {
	cause := errors.New("loading constitution: rules.yaml not found")
	err := NewCommandError("run", cause)

	want := "themis run failed: loading constitution: rules.yaml not found"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is does not reach the wrapped cause")
	}

	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatal("errors.As failed for *CommandError")
	}
	if cmdErr.Command != "run" {
		t.Errorf("Command = %q, want %q", cmdErr.Command, "run")
	}
}
