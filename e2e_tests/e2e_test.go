package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"kotc/pkg/compiler"
	"kotc/pkg/driver"
)

// diagnostic renders err the way kotc prints it, without colour.
func diagnostic(err error) string {
	var se *compiler.SyntaxError
	if errors.As(err, &se) {
		var buf bytes.Buffer
		_ = se.Render(&buf, false)
		return buf.String()
	}
	return err.Error() + "\n"
}

// TestPrograms runs every testdata/*.kt program on the interpreter. A
// sibling .out file holds the expected stdout; a .err file the expected
// diagnostic.
func TestPrograms(t *testing.T) {
	sources, err := filepath.Glob(filepath.Join("testdata", "*.kt"))
	if err != nil || len(sources) == 0 {
		t.Fatalf("no test programs found: %v", err)
	}

	d := driver.New(driver.Options{Target: compiler.LinuxAMD64})

	for _, src := range sources {
		name := filepath.Base(src)
		stem := strings.TrimSuffix(src, ".kt")

		t.Run(name, func(t *testing.T) {
			code, err := os.ReadFile(src)
			if err != nil {
				t.Fatalf("failed to read %s: %v", src, err)
			}

			var out bytes.Buffer
			status, runErr := d.Run(context.Background(), name, string(code), &out)

			if want, err := os.ReadFile(stem + ".out"); err == nil {
				if runErr != nil {
					t.Fatalf("run failed: %v", runErr)
				}
				if status != 0 {
					t.Errorf("exit status %d; want 0", status)
				}
				if out.String() != string(want) {
					t.Errorf("stdout:\n%s\nwant:\n%s", out.String(), want)
				}
				return
			}

			want, err := os.ReadFile(stem + ".err")
			if err != nil {
				t.Fatalf("%s has neither .out nor .err", src)
			}
			if runErr == nil {
				t.Fatalf("expected a failure, program printed %q", out.String())
			}
			if got := diagnostic(runErr); got != string(want) {
				t.Errorf("diagnostic:\n%s\nwant:\n%s", got, want)
			}
			if out.Len() != 0 {
				t.Errorf("output written on failure: %q", out.String())
			}
		})
	}
}

// TestBuildListings compiles the passing programs to disk, as kotc build
// does, and checks the listings are self-contained.
func TestBuildListings(t *testing.T) {
	outDir := t.TempDir()
	d := driver.New(driver.Options{Target: compiler.LinuxAMD64, OutDir: outDir})

	sources := []string{filepath.Join("testdata", "hello.kt"), filepath.Join("testdata", "sequence.kt")}
	units, err := d.Build(context.Background(), sources)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	for _, u := range units {
		listing, err := os.ReadFile(u.AsmPath)
		if err != nil {
			t.Fatalf("listing for %s missing: %v", u.Source, err)
		}
		text := string(listing)
		if !strings.Contains(text, ".globl _start") || !strings.Contains(text, "print_int:") {
			t.Errorf("%s is not self-contained:\n%s", u.AsmPath, text)
		}
		if strings.Contains(text, "printf") {
			t.Errorf("%s references libc", u.AsmPath)
		}
	}
}
