package commands

import (
	"fmt"
	"os"

	"github.com/DL444/cqu-schedule/lib/calendar"
	"github.com/DL444/cqu-schedule/lib/serviceutil"

	"github.com/spf13/cobra"
)

var calendarCategories *string
var calendarOutput *string

func init() {
	calendarCategories = calendarCmd.Flags().String("categories", "all", "Which events to include: courses, exams or all.")
	calendarOutput = calendarCmd.Flags().StringP("output", "o", "", "Write the feed to a file instead of stdout.")
	rootCmd.AddCommand(calendarCmd)
}

var calendarCmd = &cobra.Command{
	Use:   "calendar <username> <subscription-id>",
	Short: "Renders the iCalendar feed for a subscription.",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		var categories calendar.EventCategories
		switch *calendarCategories {
		case "courses":
			categories = calendar.Courses
		case "exams":
			categories = calendar.Exams
		case "all":
			categories = calendar.All
		default:
			serviceutil.Fatal("unknown category", fmt.Errorf("%q is not courses, exams or all", *calendarCategories))
		}

		svc := loadService()
		defer svc.Close()

		feed, err := svc.Calendar(cmd.Context(), args[0], args[1], categories)
		if err != nil {
			serviceutil.Fatal("failed to render calendar", err)
		}

		if *calendarOutput == "" {
			fmt.Print(feed)
			return
		}
		if err := os.WriteFile(*calendarOutput, []byte(feed), 0644); err != nil {
			serviceutil.Fatal("failed to write feed", err)
		}
	},
}
