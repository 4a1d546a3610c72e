package cli

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{in: "", want: FormatText},
		{in: "text", want: FormatText},
		{in: "json", want: FormatJSON},
		{in: " JSON ", want: FormatJSON},
		{in: "yaml", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseFormat(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseFormat(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewFormatter(FormatJSON)
	if err := f.FormatTo(&buf, map[string]int{"version": 3}); err != nil {
		t.Fatalf("FormatTo: %v", err)
	}
	if !strings.Contains(buf.String(), `"version": 3`) {
		t.Errorf("output = %q, want indented JSON", buf.String())
	}
}

func TestRenderTable(t *testing.T) {
	var buf bytes.Buffer
	err := RenderTable(&buf, []string{"ID", "STATUS"}, [][]string{
		{"de-student", "success"},
		{"fr-work", "never"},
	})
	if err != nil {
		t.Fatalf("RenderTable: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"ID", "STATUS", "de-student", "fr-work"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q is missing %q", out, want)
		}
	}
}

func TestCommandErrorUnwraps(t *testing.T) {
	cause := errors.New("store unavailable")
	err := NewCommandError("approve", cause)
	if !errors.Is(err, cause) {
		t.Error("CommandError does not unwrap to its cause")
	}
	if !strings.Contains(err.Error(), "approve") {
		t.Errorf("error = %q, want command name included", err.Error())
	}
}
