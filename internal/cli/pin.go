package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newPinCmd builds either the pin or the unpin command; both flip the
// stored pinned flag under the lock.
func newPinCmd(appRef func() *app, pin bool) *cobra.Command {
	use, short := "pin <name>", "Exclude a package from upgrades"
	if !pin {
		use, short = "unpin <name>", "Re-enable upgrades for a pinned package"
	}

	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appRef()
			operation := "pin"
			if !pin {
				operation = "unpin"
			}
			return a.withLock(operation, func() error {
				pkg, err := a.store.FindByName(args[0])
				if err != nil {
					return err
				}
				if pkg.Pinned == pin {
					if pin {
						return fmt.Errorf("%s is already pinned", pkg.Name)
					}
					return fmt.Errorf("%s is not pinned", pkg.Name)
				}
				pkg.Pinned = pin
				if err := a.store.Update(pkg); err != nil {
					return err
				}
				if pin {
					a.printf("Pinned %s\n", pkg.Name)
				} else {
					a.printf("Unpinned %s\n", pkg.Name)
				}
				return nil
			})
		},
	}
}
