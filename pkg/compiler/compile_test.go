package compiler

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestCompile(t *testing.T) {
	var buf bytes.Buffer
	prog, err := Compile("main.kt", "println(7)", &buf, LinuxAMD64)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if prog == nil || prog.File != "main.kt" {
		t.Fatalf("unexpected program %+v", prog)
	}
	if !strings.Contains(buf.String(), "  # println at main.kt:1:1\n") {
		t.Errorf("listing lacks the location comment:\n%s", buf.String())
	}
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		want    error
		hasProg bool
	}{
		{"lexer", "println(7) ?", ErrInvalidToken, false},
		{"parser", "fun main() {}", ErrUnexpectedToken, false},
		{"generator", "println(1)\nprintln(false)", ErrUnimplemented, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			prog, err := Compile("main.kt", tc.src, &buf, LinuxAMD64)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if (prog != nil) != tc.hasProg {
				t.Errorf("program returned = %v; want %v", prog != nil, tc.hasProg)
			}
			if buf.Len() != 0 {
				t.Errorf("%d bytes written on failure", buf.Len())
			}
		})
	}
}

func TestCompileLexErrorNamesFile(t *testing.T) {
	_, err := Compile("main.kt", "println(7) ?", &bytes.Buffer{}, LinuxAMD64)
	want := `main.kt:1:12: invalid token: unexpected character "?"`
	if err == nil || err.Error() != want {
		t.Errorf("error = %v; want %s", err, want)
	}
}
