package main

import (
	"context"

	"github.com/DL444/cqu-schedule/cmd/cqu-cli/commands"
	"github.com/DL444/cqu-schedule/lib/telemetry"
)

func main() {
	telemetry.SetupFromEnv(context.Background(), "cqu-cli")
	telemetry.InitSlog(true)
	commands.ExecuteContext(context.Background())
}
