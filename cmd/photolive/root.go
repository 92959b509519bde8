package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// defaultConfigPath is used when neither --config nor PHOTOLIVE_CONFIG is set.
// A missing file at this path is not an error.
const defaultConfigPath = "configs/config.yaml"

// options are the persistent flags shared by all commands.
type options struct {
	configPath string
}

// newRootCmd builds the command tree.
func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "photolive",
		Short: "PhotoLive host - supervises the slideshow web server",
		Long: `PhotoLive host starts the PhotoLive web app under Node.js on the first free
port in its range, keeps track of it, and stops it on shutdown.

The slideshow is then reachable at http://localhost:<port> and the remote
control page at http://localhost:<port>/control.`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "",
		"config file (default $PHOTOLIVE_CONFIG or "+defaultConfigPath+")")

	root.AddCommand(
		newRunCmd(opts),
		newCheckCmd(opts),
		newVersionCmd(),
	)

	return root
}

// execute runs the CLI and returns the process exit code.
func execute(args []string) int {
	root := newRootCmd()
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// resolveConfigPath returns the config path and whether a missing file is
// acceptable. Only the implicit default may be missing.
func (o *options) resolveConfigPath() (string, bool) {
	if o.configPath != "" {
		return o.configPath, false
	}
	if path := os.Getenv("PHOTOLIVE_CONFIG"); path != "" {
		return path, false
	}
	return defaultConfigPath, true
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "photolive %s\ncommit: %s\nbuilt:  %s\n", version, commit, date)
		},
	}
}
