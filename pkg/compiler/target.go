package compiler

import "fmt"

// Target describes the platform conventions the generated assembly relies
// on: the entry symbol, the size of the stack slab reserved by the
// prologue, and the raw syscall numbers used by the intrinsics.
type Target struct {
	Name         string
	Entry        string
	StackSize    int
	WriteSyscall int
	ExitSyscall  int
}

var (
	LinuxAMD64 = Target{
		Name:         "linux",
		Entry:        "_start",
		StackSize:    16,
		WriteSyscall: 1,
		ExitSyscall:  60,
	}

	// DarwinAMD64 uses the BSD syscall class prefix 0x2000000.
	DarwinAMD64 = Target{
		Name:         "darwin",
		Entry:        "_main",
		StackSize:    16,
		WriteSyscall: 0x2000004,
		ExitSyscall:  0x2000001,
	}
)

// TargetFor returns the preset for an operating system name.
func TargetFor(os string) (Target, error) {
	switch os {
	case "", "linux":
		return LinuxAMD64, nil
	case "darwin", "macos":
		return DarwinAMD64, nil
	}
	return Target{}, fmt.Errorf("unsupported target os %q", os)
}

// Validate checks the fields the generator depends on.
func (t Target) Validate() error {
	if t.Entry == "" {
		return fmt.Errorf("target %s: empty entry symbol", t.Name)
	}
	if t.StackSize < 0 || t.StackSize%16 != 0 {
		return fmt.Errorf("target %s: stack size %d must be a non-negative multiple of 16", t.Name, t.StackSize)
	}
	return nil
}
