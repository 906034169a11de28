package cli

import (
	"errors"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var simulatePrice string

var simulateCmd = &cobra.Command{
	Use:   "simulate-alert",
	Short: "Send one alert to the webhook for the given price",
	RunE: func(cmd *cobra.Command, args []string) error {
		if simulatePrice == "" {
			return errors.New("--price is required")
		}

		price, err := decimal.NewFromString(simulatePrice)
		if err != nil {
			return errors.New("--price must be a decimal number")
		}
		if price.IsNegative() {
			return errors.New("--price cannot be negative")
		}
		return getApp().SimulateAlert(cmd.Context(), price)
	},
}

func init() {
	simulateCmd.Flags().StringVar(&simulatePrice, "price", "", "Observed price to report, must be below the threshold")
}
