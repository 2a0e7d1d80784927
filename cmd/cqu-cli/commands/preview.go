package commands

import (
	"fmt"
	"os"

	"github.com/DL444/cqu-schedule/lib/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(previewCmd)
}

var weekdayNames = []string{"", "周一", "周二", "周三", "周四", "周五", "周六", "周日"}

var previewCmd = &cobra.Command{
	Use:   "preview <username>",
	Short: "Prints the stored schedule as a table.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		svc := loadService()
		defer svc.Close()

		sched, err := svc.Store().GetSchedule(cmd.Context(), args[0])
		if err != nil {
			serviceutil.Fatal("failed to load schedule", err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Week", "Day", "Sessions", "Course", "Lecturer", "Room"})
		for _, week := range sched.Weeks {
			for _, entry := range week.Entries {
				day := ""
				if entry.DayOfWeek >= 1 && entry.DayOfWeek <= 7 {
					day = weekdayNames[entry.DayOfWeek]
				}
				t.AppendRow(table.Row{
					week.WeekNumber,
					day,
					fmt.Sprintf("%d-%d", entry.StartSession, entry.EndSession),
					entry.Name,
					entry.Lecturer,
					entry.Room,
				})
			}
		}
		t.Render()

		if len(sched.Exams) == 0 {
			return
		}
		e := table.NewWriter()
		e.SetOutputMirror(os.Stdout)
		e.AppendHeader(table.Row{"Exam", "Start", "End", "Room", "Seat"})
		for _, exam := range sched.Exams {
			e.AppendRow(table.Row{
				exam.Name,
				exam.StartTime.Format("2006-01-02 15:04"),
				exam.EndTime.Format("15:04"),
				exam.Room,
				exam.Seat,
			})
		}
		e.Render()
	},
}
