package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/DL444/cqu-schedule/lib/configutil"
	"github.com/DL444/cqu-schedule/lib/serviceutil"
	"github.com/DL444/cqu-schedule/services/subscription"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "cqu-cli",
	Short: "cqu-cli manages schedule subscriptions and serves calendar feeds for CQU students.",
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadService() subscription.Service {
	cfg, err := configutil.ReadConfig[subscription.Config]("config.json5")
	if err != nil {
		serviceutil.Fatal("failed to read config", err)
	}
	svc, err := subscription.NewService(cfg)
	if err != nil {
		serviceutil.Fatal("failed to initialize service", err)
	}
	return svc
}
