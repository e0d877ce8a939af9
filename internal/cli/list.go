package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newListCmd(appRef func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List installed packages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appRef()
			pkgs, err := a.store.Load()
			if err != nil {
				return err
			}
			if len(pkgs) == 0 {
				a.printf("no packages installed\n")
				return nil
			}

			w := tabwriter.NewWriter(a.out, 2, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tVERSION\tCHANNEL\tPROVIDER\tPINNED\tSOURCE")
			for _, pkg := range pkgs {
				pinned := ""
				if pkg.Pinned {
					pinned = "pinned"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					pkg.Name, pkg.Version, pkg.Channel, pkg.Provider, pinned, pkg.Source)
			}
			return w.Flush()
		},
	}
}
