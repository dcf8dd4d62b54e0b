package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"kotc/pkg/driver"
	"kotc/pkg/utils"
)

var (
	buildOutDir string
	buildLink   bool
	buildJobs   int
)

var buildCmd = &cobra.Command{
	Use:   "build <file.kt|dir>...",
	Short: "Compile source files to assembly",
	Long: `Compile each source file to an AT&T listing (.asm) next to it, or in --out-dir.
Directories are searched for .kt files, honouring a .kotcignore file at their root.
With --link the configured assembler and linker are run to produce executables.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().StringVarP(&buildOutDir, "out-dir", "o", "", "Directory for generated files")
	buildCmd.Flags().BoolVar(&buildLink, "link", false, "Assemble and link the listings")
	buildCmd.Flags().IntVarP(&buildJobs, "jobs", "j", 0, "Units compiled concurrently (default: number of CPUs)")
}

func runBuild(cmd *cobra.Command, args []string) error {
	sources, err := utils.CollectSources(args)
	if err != nil {
		return err
	}
	for _, src := range sources {
		if !utils.IsSource(src) {
			settings.log.Warn("unexpected source extension", "file", src, "want", utils.SourceExt)
		}
	}

	d := driver.New(driver.Options{
		Target:    settings.target,
		Toolchain: settings.cfg.Toolchain,
		OutDir:    buildOutDir,
		Link:      buildLink,
		Jobs:      buildJobs,
		Logger:    settings.log,
	})

	units, err := d.Build(commandContext(cmd), sources)
	out := cmd.OutOrStdout()
	for _, u := range units {
		if u == nil || u.Err != nil || u.Program == nil {
			continue
		}
		if buildLink {
			fmt.Fprintf(out, "%s -> %s\n", u.Source, u.ExePath)
		} else {
			fmt.Fprintf(out, "%s -> %s\n", u.Source, u.AsmPath)
		}
	}
	return err
}
