package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestPromptYesNo(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		defaultYes bool
		want       bool
	}{
		{name: "yes", input: "y\n", want: true},
		{name: "yes word", input: "yes\n", want: true},
		{name: "uppercase yes", input: "Y\n", want: true},
		{name: "no", input: "n\n", want: false},
		{name: "anything else is no", input: "maybe\n", want: false},
		{name: "empty uses default no", input: "\n", want: false},
		{name: "empty uses default yes", input: "\n", defaultYes: true, want: true},
		{name: "eof uses default", input: "", defaultYes: true, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			got, err := promptYesNo(strings.NewReader(tt.input), &out, "Proceed?", tt.defaultYes)
			if err != nil {
				t.Fatalf("promptYesNo: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
			if !strings.Contains(out.String(), "Proceed?") {
				t.Fatalf("prompt not written: %q", out.String())
			}
		})
	}
}

func TestPromptYesNoShowsDefault(t *testing.T) {
	var out bytes.Buffer
	if _, err := promptYesNo(strings.NewReader("\n"), &out, "Proceed?", false); err != nil {
		t.Fatalf("promptYesNo: %v", err)
	}
	if !strings.Contains(out.String(), "[y/N]") {
		t.Fatalf("expected no-default marker, got %q", out.String())
	}
}
