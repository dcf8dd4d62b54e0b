package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"kotc/pkg/driver"
)

var runCmd = &cobra.Command{
	Use:   "run <file.kt>",
	Short: "Compile and execute a program in the built-in x86-64 interpreter",
	Args:  cobra.ExactArgs(1),
	RunE:  runRun,
}

// exitStatus carries a non-zero status of the interpreted program.
type exitStatus int

func (e exitStatus) Error() string { return fmt.Sprintf("program exited with status %d", int(e)) }

func runRun(cmd *cobra.Command, args []string) error {
	file := args[0]
	src, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("failed to read source: %w", err)
	}

	d := driver.New(driver.Options{Target: settings.target, Logger: settings.log})
	status, err := d.Run(commandContext(cmd), file, string(src), cmd.OutOrStdout())
	if err != nil {
		return err
	}
	if status != 0 {
		return exitStatus(status)
	}
	return nil
}
