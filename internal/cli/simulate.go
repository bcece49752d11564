package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"jackpot-alerts/internal/app"
)

var (
	simulatePowerball            float64
	simulateMegaMillions         float64
	simulatePreviousPowerball    float64
	simulatePreviousMegaMillions float64
)

var simulateCmd = &cobra.Command{
	Use:   "simulate-alert",
	Short: "模拟一次奖池越过阈值并发送告警邮件",
	RunE: func(cmd *cobra.Command, args []string) error {
		if simulatePowerball < 0 || simulateMegaMillions < 0 || simulatePreviousPowerball < 0 || simulatePreviousMegaMillions < 0 {
			return errors.New("金额不能为负数")
		}

		report, err := getApp().SimulateAlert(cmd.Context(), app.SimulateOptions{
			Powerball:            simulatePowerball,
			MegaMillions:         simulateMegaMillions,
			PreviousPowerball:    simulatePreviousPowerball,
			PreviousMegaMillions: simulatePreviousMegaMillions,
		})
		if err != nil {
			return err
		}

		if len(report.Notified) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no threshold crossing; nothing sent")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "alert sent for: %s\n", strings.Join(report.Notified, ", "))
		return nil
	},
}

func init() {
	simulateCmd.Flags().Float64Var(&simulatePowerball, "powerball", 0, "Powerball 当前奖池 (百万美元)")
	simulateCmd.Flags().Float64Var(&simulateMegaMillions, "mega-millions", 0, "Mega Millions 当前奖池 (百万美元)")
	simulateCmd.Flags().Float64Var(&simulatePreviousPowerball, "previous-powerball", 0, "Powerball 上一次记录 (百万美元)")
	simulateCmd.Flags().Float64Var(&simulatePreviousMegaMillions, "previous-mega-millions", 0, "Mega Millions 上一次记录 (百万美元)")
}
