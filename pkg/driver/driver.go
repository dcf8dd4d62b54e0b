// Package driver turns source files into listings, objects and programs.
// Units are compiled concurrently; each owns its own arenas.
package driver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"

	"golang.org/x/sync/errgroup"

	"kotc/pkg/asm"
	"kotc/pkg/compiler"
	"kotc/pkg/config"
	"kotc/pkg/cpu"
	"kotc/pkg/utils"
)

// ErrOutputConflict reports two units that would write the same files.
var ErrOutputConflict = errors.New("output paths collide")

type Options struct {
	Target    compiler.Target
	Toolchain config.ToolchainConfig
	OutDir    string // next to each source when empty
	Link      bool   // run the assembler and linker after writing the listing
	Jobs      int    // concurrent units, NumCPU when <= 0
	Logger    *slog.Logger
}

// Unit is the result of building one source file. Err holds the compile
// error, if any; the other fields are set as far as the build got.
type Unit struct {
	Source  string
	AsmPath string
	ObjPath string
	ExePath string
	Program *compiler.Program
	Err     error
}

type Driver struct {
	opts   Options
	runner Runner
	log    *slog.Logger
}

func New(opts Options) *Driver {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Driver{opts: opts, runner: execRunner{log: logger}, log: logger}
}

// WithRunner replaces the external command runner.
func (d *Driver) WithRunner(r Runner) *Driver {
	d.runner = r
	return d
}

// Build compiles every source. Compile errors do not stop the other units;
// they are joined into the returned error. I/O and toolchain failures
// cancel the whole build.
func (d *Driver) Build(ctx context.Context, sources []string) ([]*Unit, error) {
	if err := d.opts.Target.Validate(); err != nil {
		return nil, err
	}

	jobs := d.opts.Jobs
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}

	units := make([]*Unit, len(sources))
	for i, src := range sources {
		units[i] = &Unit{
			Source:  src,
			AsmPath: utils.AsmPath(src, d.opts.OutDir),
			ObjPath: utils.ObjectPath(src, d.opts.OutDir),
			ExePath: utils.ExecutablePath(src, d.opts.OutDir),
		}
	}
	if err := checkOutputs(units); err != nil {
		return nil, err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for _, u := range units {
		g.Go(func() error {
			return d.buildUnit(ctx, u)
		})
	}

	if err := g.Wait(); err != nil {
		return units, err
	}

	var errs []error
	for _, u := range units {
		if u.Err != nil {
			errs = append(errs, u.Err)
		}
	}
	return units, errors.Join(errs...)
}

// checkOutputs rejects a build in which two units share a listing path.
// Object and executable paths derive from the same stem and directory.
func checkOutputs(units []*Unit) error {
	owners := make(map[string]string, len(units))
	for _, u := range units {
		key, err := utils.ResolvePath(u.AsmPath)
		if err != nil {
			return err
		}
		if prev, ok := owners[key]; ok {
			return fmt.Errorf("%w: %s and %s both write %s", ErrOutputConflict, prev, u.Source, u.AsmPath)
		}
		owners[key] = u.Source
	}
	return nil
}

func (d *Driver) buildUnit(ctx context.Context, u *Unit) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	src, err := os.ReadFile(u.Source)
	if err != nil {
		return fmt.Errorf("failed to read source %s: %w", u.Source, err)
	}

	var listing bytes.Buffer
	prog, err := compiler.Compile(u.Source, string(src), &listing, d.opts.Target)
	u.Program = prog
	if err != nil {
		d.log.Debug("compile failed", "source", u.Source, "error", err)
		u.Err = err
		return nil
	}

	if d.opts.OutDir != "" {
		if err := os.MkdirAll(d.opts.OutDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(u.AsmPath, listing.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write listing %s: %w", u.AsmPath, err)
	}
	d.log.Info("wrote listing", "source", u.Source, "asm", u.AsmPath, "bytes", listing.Len())

	if !d.opts.Link {
		return nil
	}
	return d.link(ctx, u)
}

// link assembles the listing and links it, together with the configured
// runtime object, into an executable.
func (d *Driver) link(ctx context.Context, u *Unit) error {
	tc := d.opts.Toolchain
	if err := d.runner.Run(ctx, tc.Assembler, "-o", u.ObjPath, u.AsmPath); err != nil {
		return fmt.Errorf("assembling %s: %w", u.AsmPath, err)
	}

	args := []string{"-o", u.ExePath, "-e", d.opts.Target.Entry, u.ObjPath}
	if tc.Runtime != "" {
		args = append(args, tc.Runtime)
	}
	args = append(args, tc.LinkFlags...)
	if err := d.runner.Run(ctx, tc.Linker, args...); err != nil {
		return fmt.Errorf("linking %s: %w", u.ExePath, err)
	}
	d.log.Info("linked", "source", u.Source, "exe", u.ExePath)
	return nil
}

// Syscalls maps the target's system call numbers onto the interpreter.
func Syscalls(t compiler.Target) cpu.Syscalls {
	return cpu.Syscalls{Write: uint64(t.WriteSyscall), Exit: uint64(t.ExitSyscall)}
}

// Run compiles src in memory and executes it on the interpreter, with the
// program's standard output going to stdout. It returns the exit status.
func (d *Driver) Run(ctx context.Context, file, src string, stdout io.Writer) (int, error) {
	var listing bytes.Buffer
	if _, err := compiler.Compile(file, src, &listing, d.opts.Target); err != nil {
		return 0, err
	}

	code, err := asm.Assemble(listing.String())
	if err != nil {
		return 0, fmt.Errorf("reading generated listing: %w", err)
	}
	m, err := cpu.New(code)
	if err != nil {
		return 0, err
	}
	m.Output = stdout
	m.Syscalls = Syscalls(d.opts.Target)

	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := m.Run(d.opts.Target.Entry); err != nil {
		return 0, fmt.Errorf("%s: %w", file, err)
	}
	d.log.Debug("program exited", "file", file, "status", m.ExitCode, "steps", m.Steps)
	return m.ExitCode, nil
}
