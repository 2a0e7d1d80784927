package undergrad

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/DL444/cqu-schedule/lib/portal"
	"github.com/DL444/cqu-schedule/lib/portal/cipher"
	"github.com/DL444/cqu-schedule/lib/schedule"
	"github.com/DL444/cqu-schedule/lib/timezone"

	"go.opentelemetry.io/otel/codes"
)

const labMarker = "（实验）"

// GetSchedule fetches the timetable and exam list concurrently and
// merges both into the canonical model.
func (c *Client) GetSchedule(ctx context.Context, username, termId string, sc portal.SignInContext) (schedule.Schedule, error) {
	ctx, span := tracer.Start(ctx, "GetSchedule")
	defer span.End()

	uc, ok := sc.(portal.UndergradContext)
	if !ok || !uc.IsValid() {
		return schedule.Schedule{}, portal.ErrForeignContext
	}

	var wg sync.WaitGroup
	var classes []timetableEntry
	var exams []examEntry
	var classErr, examErr error

	wg.Add(2)
	go func() {
		defer wg.Done()
		classes, classErr = c.fetchTimetable(ctx, username, termId, uc.Token)
	}()
	go func() {
		defer wg.Done()
		exams, examErr = c.fetchExams(ctx, username, uc.Token)
	}()
	wg.Wait()

	if classErr != nil {
		span.RecordError(classErr)
		span.SetStatus(codes.Error, "timetable fetch failed")
		return schedule.Schedule{}, classErr
	}
	if examErr != nil {
		span.RecordError(examErr)
		span.SetStatus(codes.Error, "exam fetch failed")
		return schedule.Schedule{}, examErr
	}

	out := schedule.New(username)
	for _, class := range classes {
		if err := addClass(&out, class); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "bad timetable entry")
			return schedule.Schedule{}, err
		}
	}
	for _, exam := range exams {
		if err := addExam(&out, exam); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "bad exam entry")
			return schedule.Schedule{}, err
		}
	}
	out.SortWeeks()
	return out, nil
}

func (c *Client) fetchTimetable(ctx context.Context, username, termId, token string) ([]timetableEntry, error) {
	var model timetableResponse
	_, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetQueryParam("sessionId", termId).
		SetBody([]string{username}).
		SetResult(&model).
		Post(c.endpoints.tableDetail)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch timetable: %w", err)
	}
	if model.Status != "success" {
		return nil, portal.UpstreamError{
			Message:     model.Message,
			Description: "timetable request did not return success status",
		}
	}
	return model.Data, nil
}

func (c *Client) fetchExams(ctx context.Context, username, token string) ([]examEntry, error) {
	studentId, err := cipher.ExamStudentId(username)
	if err != nil {
		return nil, err
	}

	var model examListResponse
	_, err = c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetQueryParam("studentId", studentId).
		SetResult(&model).
		Get(c.endpoints.examList)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch exams: %w", err)
	}
	if model.Status != "success" {
		return nil, portal.UpstreamError{
			Message:     model.Message,
			Description: "exam request did not return success status",
		}
	}
	if model.Data.TotalPages > 1 {
		// a second page has never been observed, refusing beats
		// silently truncating
		return nil, portal.UpstreamError{
			Description: fmt.Sprintf("exam list is paginated: %d pages", model.Data.TotalPages),
		}
	}
	return model.Data.Content, nil
}

func addClass(out *schedule.Schedule, class timetableEntry) error {
	if class.Weeks == "" || class.DayOfWeek == "" || class.Session == "" {
		return nil
	}
	day, err := strconv.Atoi(class.DayOfWeek)
	if err != nil {
		return fmt.Errorf("bad weekday %q: %w", class.DayOfWeek, err)
	}
	start, end, ok := schedule.SessionBounds(class.Session)
	if !ok {
		return nil
	}

	name := class.Name
	if (class.ClassType == "实验" || class.ClassType == "实践") && !strings.Contains(name, labMarker) {
		name += labMarker
	}
	lecturer := ""
	if len(class.Lecturers) > 0 {
		lecturer = class.Lecturers[0].Lecturer
	}

	entry := schedule.Entry{
		Name:           name,
		Lecturer:       lecturer,
		Room:           class.Room,
		SimplifiedRoom: schedule.SimplifyRoom(class.Room),
		DayOfWeek:      day,
		StartSession:   start,
		EndSession:     end,
	}
	for _, week := range schedule.ParseBitmask(class.Weeks) {
		out.AddEntry(week, entry)
	}
	return nil
}

func addExam(out *schedule.Schedule, exam examEntry) error {
	start, err := time.ParseInLocation("2006-01-02 15:04", exam.Date+" "+exam.StartTime, timezone.Location)
	if err != nil {
		return fmt.Errorf("bad exam start time: %w", err)
	}
	end, err := time.ParseInLocation("2006-01-02 15:04", exam.Date+" "+exam.EndTime, timezone.Location)
	if err != nil {
		return fmt.Errorf("bad exam end time: %w", err)
	}

	out.AddExam(schedule.ExamEntry{
		Name:           exam.Name,
		Room:           exam.Room,
		SimplifiedRoom: schedule.SimplifyRoom(exam.Room),
		Seat:           exam.Seat,
		StartTime:      start,
		EndTime:        end,
	})
	return nil
}
