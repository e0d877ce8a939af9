package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newConfigCmd(appRef func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Read and write settings such as provider tokens",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get <key>",
		Short: "Print the value of a settings key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appRef()
			value := a.settings.Get(args[0])
			if value == "" {
				return fmt.Errorf("key %s is not set", args[0])
			}
			a.printf("%s\n", value)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a settings key, for example providers.github.token",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appRef()
			return a.withLock("config", func() error {
				return a.settings.Set(args[0], args[1])
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List every settings key and its value",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appRef()
			for _, key := range a.settings.Keys() {
				a.printf("%s = %s\n", key, a.settings.Get(key))
			}
			return nil
		},
	})

	return cmd
}
