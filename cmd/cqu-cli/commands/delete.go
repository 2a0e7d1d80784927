package commands

import (
	"log/slog"

	"github.com/DL444/cqu-schedule/lib/serviceutil"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(deleteCmd)
}

var deleteCmd = &cobra.Command{
	Use:   "delete <username> <password>",
	Short: "Removes a subscription after re-authenticating against the portal.",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		svc := loadService()
		defer svc.Close()

		if err := svc.Delete(cmd.Context(), args[0], args[1]); err != nil {
			serviceutil.Fatal("failed to delete subscription", err)
		}
		slog.Info("subscription deleted", "username", args[0])
	},
}
