package cli

import (
	"errors"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	simulateNEMO  string
	simulateDelta float64
)

var simulateCmd = &cobra.Command{
	Use:   "simulate-alert",
	Short: "模拟一次价格变化并触发告警",
	RunE: func(cmd *cobra.Command, args []string) error {
		if simulateNEMO == "" {
			return errors.New("--nemo 必须提供")
		}

		delta := decimal.NewFromFloat(simulateDelta)
		return getApp().SimulateAlert(cmd.Context(), simulateNEMO, delta)
	},
}

func init() {
	simulateCmd.Flags().StringVar(&simulateNEMO, "nemo", "", "标的代码 (NEMO)")
	simulateCmd.Flags().Float64Var(&simulateDelta, "delta", 0, "模拟的变化百分比")
}
