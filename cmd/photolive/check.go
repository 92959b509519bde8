package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/nerrad567/photolive/internal/infrastructure/config"
	"github.com/nerrad567/photolive/internal/supervisor"
	"github.com/nerrad567/photolive/internal/webapp"
)

func newCheckCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the web app and runtime without starting anything",
		Long: `Check loads the configuration, validates the web app directory, resolves
the Node.js runtime and prints what "photolive run" would launch.

Exits non-zero if the web server could not be started as configured.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, optional := opts.resolveConfigPath()
			cfg, err := config.Load(path, optional)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			return check(cmd.OutOrStdout(), cfg)
		},
	}
}

// check reports the resolved launch plan. Problems are printed as they are
// found and the first blocking one is returned.
func check(out io.Writer, cfg *config.Config) error {
	layout, err := webapp.NewLayout(cfg.WebApp.Root, cfg.WebApp.Manifest, cfg.WebApp.DependencyDir)
	if err != nil {
		return err
	}

	ports := supervisor.PortRange{Base: cfg.Server.BasePort, Count: cfg.Server.PortCount}
	fmt.Fprintf(out, "web app:      %s\n", layout.Root())
	fmt.Fprintf(out, "port range:   %s (%s)\n", ports, cfg.Server.PortEnv)

	var problems []error

	if err := layout.Validate(); err != nil {
		fmt.Fprintf(out, "environment:  MISSING (%v)\n", err)
		problems = append(problems, fmt.Errorf("%w: %w", supervisor.ErrEnvironmentMissing, err))
	} else {
		fmt.Fprintf(out, "environment:  ok\n")

		entry, err := layout.Entry(cfg.WebApp.Entry)
		if err != nil {
			fmt.Fprintf(out, "entry:        INVALID (%v)\n", err)
			problems = append(problems, err)
		} else {
			fmt.Fprintf(out, "entry:        %s\n", entry)
		}
	}

	if layout.DependenciesInstalled() {
		fmt.Fprintf(out, "dependencies: installed\n")
	} else {
		provisioner := webapp.NewCommandProvisioner(cfg.WebApp.Install.Command, cfg.WebApp.Install.Args)
		fmt.Fprintf(out, "dependencies: not installed, first start runs %v\n", provisioner.Command())
	}

	locator := webapp.NewLocator(cfg.Runtime.Path, cfg.Runtime.Candidates, cfg.Runtime.Fallback)
	if runtime, err := locator.Locate(); err != nil {
		fmt.Fprintf(out, "runtime:      NOT FOUND (%v)\n", err)
		problems = append(problems, fmt.Errorf("%w: %w", supervisor.ErrRuntimeNotFound, err))
	} else {
		fmt.Fprintf(out, "runtime:      %s\n", runtime)
	}

	if len(problems) > 0 {
		return problems[0]
	}
	return nil
}
