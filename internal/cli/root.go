package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var version = "dev"

// SetVersion overrides the version string, typically from ldflags.
func SetVersion(v string) {
	version = v
}

// Execute runs the upfetch CLI.
func Execute() error {
	var (
		verbose bool
		dir     string
	)

	var a *app

	root := &cobra.Command{
		Use:          "upfetch",
		Short:        "upfetch installs and upgrades binary releases from the web",
		Long:         "upfetch is a package manager for standalone binary releases: it fetches artifacts from GitHub, GitLab, Gitea, plain HTTP endpoints or HTML download pages, verifies and unpacks them, and keeps them upgraded.",
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			a, err = newApp(dir, verbose)
			return err
		},
	}
	root.SetVersionTemplate(fmt.Sprintf("upfetch %s\n", version))
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().StringVar(&dir, "dir", "", "override the metadata directory")

	appRef := func() *app { return a }
	root.AddCommand(newInstallCmd(appRef))
	root.AddCommand(newRemoveCmd(appRef))
	root.AddCommand(newUpgradeCmd(appRef))
	root.AddCommand(newListCmd(appRef))
	root.AddCommand(newPinCmd(appRef, true))
	root.AddCommand(newPinCmd(appRef, false))
	root.AddCommand(newConfigCmd(appRef))

	return root.ExecuteContext(context.Background())
}
