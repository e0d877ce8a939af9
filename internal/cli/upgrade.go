package cli

import (
	"context"

	"github.com/spf13/cobra"
)

func newUpgradeCmd(appRef func() *app) *cobra.Command {
	var (
		force bool
		check bool
	)

	cmd := &cobra.Command{
		Use:   "upgrade [name...]",
		Short: "Upgrade installed packages (all of them when no names are given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appRef()

			// Check-only mode never mutates the layout, so it runs
			// without the lock.
			if check {
				return a.checkUpdates(cmd.Context(), args)
			}

			return a.withLock("upgrade", func() error {
				orch, cleanup, err := a.newOrchestrator(cmd.Context())
				if err != nil {
					return err
				}
				defer cleanup()

				_, err = orch.UpgradeAll(cmd.Context(), args, force)
				return err
			})
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "reinstall even when already up to date")
	cmd.Flags().BoolVar(&check, "check", false, "only report available updates, change nothing")
	return cmd
}

func (a *app) checkUpdates(ctx context.Context, names []string) error {
	orch, cleanup, err := a.newOrchestrator(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	pkgs, err := a.store.Load()
	if err != nil {
		return err
	}

	wanted := make(map[string]bool, len(names))
	for _, name := range names {
		wanted[name] = true
	}

	available := 0
	for _, pkg := range pkgs {
		if len(wanted) > 0 && !wanted[pkg.Name] {
			continue
		}
		rel, newer, err := orch.Check(ctx, pkg)
		switch {
		case err != nil:
			a.logger.Error("check failed", "package", pkg.Name, "err", err)
		case newer:
			available++
			a.printf("%s: %s -> %s\n", pkg.Name, pkg.Version, rel.Version)
		}
	}
	a.printf("%d update(s) available\n", available)
	return nil
}
