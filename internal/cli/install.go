package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/upfetch/upfetch/internal/model"
)

func newInstallCmd(appRef func() *app) *cobra.Command {
	var (
		kind        string
		name        string
		pattern     string
		exclude     string
		providerStr string
		channelStr  string
		baseURL     string
		tag         string
		withDesktop bool
	)

	cmd := &cobra.Command{
		Use:   "install <slug|url>",
		Short: "Install a package from a release source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appRef()
			source := strings.TrimSpace(args[0])

			if providerStr == "" {
				providerStr = "github"
				if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
					providerStr = "direct"
				}
			}
			prov, err := model.ParseProvider(providerStr)
			if err != nil {
				return err
			}
			channel, err := model.ParseChannel(channelStr)
			if err != nil {
				return err
			}
			filetype, err := model.ParseFiletype(kind)
			if err != nil {
				return err
			}
			if name == "" {
				name = defaultName(source)
			}

			pkg := model.NewPackage(name, source, filetype, channel, prov)
			pkg.BaseURL = baseURL
			pkg.MatchPattern = pattern
			pkg.ExcludePattern = exclude

			return a.withLock("install", func() error {
				orch, cleanup, err := a.newOrchestrator(cmd.Context())
				if err != nil {
					return err
				}
				defer cleanup()
				return orch.Install(cmd.Context(), pkg, tag, withDesktop)
			})
		},
	}

	cmd.Flags().StringVarP(&kind, "kind", "k", "auto", "filetype (auto, appimage, archive, compressed, binary)")
	cmd.Flags().StringVarP(&name, "name", "n", "", "package name (defaults to the source's last segment)")
	cmd.Flags().StringVarP(&pattern, "pattern", "p", "", "prefer assets whose name contains this substring")
	cmd.Flags().StringVar(&exclude, "exclude", "", "reject assets whose name contains this substring")
	cmd.Flags().StringVar(&providerStr, "provider", "", "release backend (github, gitlab, gitea, direct, scraper)")
	cmd.Flags().StringVar(&channelStr, "channel", "stable", "release channel (stable, preview, nightly)")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "backend base URL for self-hosted instances")
	cmd.Flags().StringVar(&tag, "tag", "", "install a specific release tag instead of the latest")
	cmd.Flags().BoolVar(&withDesktop, "desktop", false, "create a desktop entry and icon")

	return cmd
}
