package cli

import (
	"github.com/spf13/cobra"

	"github.com/upfetch/upfetch/internal/install"
)

func newRemoveCmd(appRef func() *app) *cobra.Command {
	var purge bool

	cmd := &cobra.Command{
		Use:   "remove <name>...",
		Short: "Remove installed packages",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appRef()
			return a.withLock("remove", func() error {
				return a.removeMany(args, purge)
			})
		},
	}

	cmd.Flags().BoolVar(&purge, "purge", false, "also delete desktop entry and icon")
	return cmd
}

// removeMany removes each named package in turn. Per-item failures are
// counted and reported in the aggregate line, never propagated.
func (a *app) removeMany(names []string, purge bool) error {
	var cleaner install.DesktopCleaner
	if svc := a.desktopService(); svc != nil {
		cleaner = svc
	}
	remover := install.NewRemover(a.paths, cleaner, a.logger)

	removed, failed := 0, 0
	for _, name := range names {
		if err := a.removeOne(remover, name, purge); err != nil {
			a.logger.Error("remove failed", "package", name, "err", err)
			failed++
			continue
		}
		a.printf("Removed %s\n", name)
		removed++
	}
	a.printf("Completed: %d removed, %d failed\n", removed, failed)
	return nil
}

func (a *app) removeOne(remover *install.Remover, name string, purge bool) error {
	pkg, err := a.store.FindByName(name)
	if err != nil {
		return err
	}
	if err := remover.Remove(pkg, purge); err != nil {
		return err
	}
	return a.store.Remove(pkg.Name)
}
