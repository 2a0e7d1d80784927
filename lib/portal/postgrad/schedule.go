package postgrad

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/DL444/cqu-schedule/lib/htmlutil"
	"github.com/DL444/cqu-schedule/lib/portal"
	"github.com/DL444/cqu-schedule/lib/redirect"
	"github.com/DL444/cqu-schedule/lib/schedule"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/codes"
)

const gridCells = 35 // 5 period bands by 7 weekdays

var (
	weekFieldPattern    = regexp.MustCompile(`周次:([\d\- ]+)`)
	sessionFieldPattern = regexp.MustCompile(`节次:([\d\-]+)`)
	lecturerFieldPattern = regexp.MustCompile(`教师:(\S+)`)
	roomFieldPattern    = regexp.MustCompile(`(?:教室|平台):(\S+)`)
)

// GetSchedule fetches the timetable grid and parses its 5x7 cell
// layout. The portal serves only the current term, termId is ignored.
func (c *Client) GetSchedule(ctx context.Context, username, termId string, sc portal.SignInContext) (schedule.Schedule, error) {
	ctx, span := tracer.Start(ctx, "GetSchedule")
	defer span.End()

	pc, ok := sc.(portal.PostgradContext)
	if !ok || !pc.IsValid() {
		return schedule.Schedule{}, portal.ErrForeignContext
	}

	res, err := redirect.Execute(ctx, c.http, pc.Jar, redirect.Request{
		Method: http.MethodGet,
		URL:    c.endpoints.timetable + "?stuSerial=" + pc.StudentSerial,
	}, redirect.Options{})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "timetable fetch failed")
		return schedule.Schedule{}, err
	}
	body, err := decodeGBK(res.Body)
	if err != nil {
		return schedule.Schedule{}, fmt.Errorf("failed to decode timetable: %w", err)
	}

	out, err := parseGrid(username, body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "grid parse failed")
		return schedule.Schedule{}, err
	}
	return out, nil
}

func parseGrid(username, body string) (schedule.Schedule, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return schedule.Schedule{}, fmt.Errorf("failed to parse timetable html: %w", err)
	}

	var cells []string
	doc.Find("table tr").Each(func(row int, tr *goquery.Selection) {
		if row == 0 {
			// weekday header
			return
		}
		tr.Find("td").Each(func(col int, td *goquery.Selection) {
			if col == 0 {
				// period band label
				return
			}
			cells = append(cells, cellText(td))
		})
	})
	if len(cells) != gridCells {
		return schedule.Schedule{}, portal.UpstreamError{
			Description: fmt.Sprintf("timetable grid has %d cells, want %d", len(cells), gridCells),
		}
	}

	out := schedule.New(username)
	for i, cell := range cells {
		day := i%7 + 1
		if err := parseCell(&out, day, cell); err != nil {
			return schedule.Schedule{}, err
		}
	}
	out.SortWeeks()
	return out, nil
}

// cellText flattens a cell to text with a space between text nodes.
// Fields in the grid are separated by <br> tags, so plain text
// extraction would run them together.
func cellText(td *goquery.Selection) string {
	var parts []string
	for _, node := range td.Nodes {
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			if text := strings.TrimSpace(htmlutil.GetText(child)); text != "" {
				parts = append(parts, text)
			}
		}
	}
	return htmlutil.CleanText(strings.Join(parts, " "))
}

// parseCell handles zero or more course blocks in one grid cell, each
// introduced by a 名称: label.
func parseCell(out *schedule.Schedule, day int, cell string) error {
	blocks := strings.Split(cell, "名称:")
	for _, block := range blocks[1:] {
		weekField := weekFieldPattern.FindStringSubmatch(block)
		sessionField := sessionFieldPattern.FindStringSubmatch(block)
		if weekField == nil || sessionField == nil {
			return fmt.Errorf("course block missing week or session field: %w", portal.ErrUnexpectedFormat)
		}

		name := block
		if idx := strings.Index(block, "周次:"); idx >= 0 {
			name = block[:idx]
		}
		name = strings.TrimSpace(name)

		weeks, err := schedule.ParseWeekRanges(strings.TrimSpace(weekField[1]))
		if err != nil {
			return err
		}
		start, end, err := schedule.ParseSessionRange(sessionField[1])
		if err != nil {
			return err
		}

		entry := schedule.Entry{
			Name:         name,
			DayOfWeek:    day,
			StartSession: start,
			EndSession:   end,
		}
		if m := lecturerFieldPattern.FindStringSubmatch(block); m != nil {
			entry.Lecturer = m[1]
		}
		if m := roomFieldPattern.FindStringSubmatch(block); m != nil {
			entry.Room = m[1]
			entry.SimplifiedRoom = schedule.SimplifyRoom(m[1])
		}
		for _, week := range weeks {
			out.AddEntry(week, entry)
		}
	}
	return nil
}
