package cli

import (
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Fetch the price once and report whether an alert would fire",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Check(cmd.Context(), cmd.OutOrStdout())
	},
}
