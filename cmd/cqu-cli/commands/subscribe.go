package commands

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/DL444/cqu-schedule/lib/portal"
	"github.com/DL444/cqu-schedule/lib/serviceutil"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(subscribeCmd)
}

var subscribeCmd = &cobra.Command{
	Use:   "subscribe <username> <password>",
	Short: "Signs in to the school portal and creates a calendar subscription.",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		svc := loadService()
		defer svc.Close()

		user, err := svc.Subscribe(cmd.Context(), args[0], args[1])
		if err != nil {
			var authErr portal.AuthenticationError
			if errors.As(err, &authErr) {
				fmt.Println(svc.Messages().ResultMessage(authErr.Result))
			}
			serviceutil.Fatal("failed to subscribe", err)
		}

		slog.Info("subscription created", "username", user.Username, "type", user.UserType.String())
		fmt.Println(svc.Messages().Get("subscribe_success"))
		fmt.Printf("subscription id: %s\n", user.SubscriptionId)
	},
}
