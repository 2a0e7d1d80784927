package commands

import (
	"log/slog"

	"github.com/DL444/cqu-schedule/lib/serviceutil"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(rotateCmd)
}

var rotateCmd = &cobra.Command{
	Use:   "rotate-keys",
	Short: "Re-seals every stored credential under the current key.",
	Run: func(cmd *cobra.Command, args []string) {
		svc := loadService()
		defer svc.Close()

		if err := svc.RotateCredentialKeys(cmd.Context()); err != nil {
			serviceutil.Fatal("rotation finished with failures", err)
		}
		slog.Info("credential keys rotated")
	},
}
