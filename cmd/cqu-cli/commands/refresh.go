package commands

import (
	"log/slog"
	"time"

	"github.com/DL444/cqu-schedule/lib/serviceutil"
	"github.com/DL444/cqu-schedule/lib/telemetry"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(refreshCmd)
}

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Refetches every stored user's schedule from the portals.",
	Run: func(cmd *cobra.Command, args []string) {
		svc := loadService()
		defer svc.Close()

		ctx := cmd.Context()
		telemetry.InstrumentPerfStats(ctx)

		t1 := time.Now()
		err := svc.RefreshAll(ctx)
		t2 := time.Now()

		if err != nil {
			serviceutil.Fatal("refresh finished with failures", err)
		}
		slog.Info("refresh complete", "seconds", t2.Sub(t1).Seconds())
	},
}
