package app

import (
	"fmt"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/autopeer-io/association/cmd/association-notifier/app/options"
)

// newHandlersCommand prints the notification handlers in dispatch order.
func newHandlersCommand(opts *options.NotifierOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "handlers",
		Short: "Print the notification handlers in dispatch order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.Config()
			if err != nil {
				return err
			}

			table := uitable.New()
			table.MaxColWidth = 60
			table.AddRow("PRIORITY", "HANDLER", "POLICY")
			for _, reg := range cfg.NewRegistry(nil, nil, nil).Handlers() {
				table.AddRow(int(reg.Priority), reg.Handler.Name(), reg.Handler.FailurePolicy())
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), table)
			return err
		},
	}
}
