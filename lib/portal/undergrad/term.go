package undergrad

import (
	"context"
	"fmt"
	"time"

	"github.com/DL444/cqu-schedule/lib/portal"
	"github.com/DL444/cqu-schedule/lib/schedule"
	"github.com/DL444/cqu-schedule/lib/timezone"

	"go.opentelemetry.io/otel/codes"
)

type termFetcher func(ctx context.Context, termId string) (schedule.Term, error)

// GetTerm finds the term containing now, padded by graceDays on both
// sides so the previous term keeps serving through short breaks.
func (c *Client) GetTerm(ctx context.Context, sc portal.SignInContext, graceDays int) (schedule.Term, error) {
	ctx, span := tracer.Start(ctx, "GetTerm")
	defer span.End()

	uc, ok := sc.(portal.UndergradContext)
	if !ok || !uc.IsValid() {
		return schedule.Term{}, portal.ErrForeignContext
	}

	var model termListResponse
	_, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(uc.Token).
		SetResult(&model).
		Get(c.endpoints.termList)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "term list fetch failed")
		return schedule.Term{}, fmt.Errorf("failed to fetch term list: %w", err)
	}
	if model.CurrentTermId == "" || len(model.Terms) == 0 {
		span.SetStatus(codes.Error, "term list missing fields")
		return schedule.Term{}, fmt.Errorf("term list: %w", portal.ErrUnexpectedFormat)
	}

	ids := make([]string, len(model.Terms))
	for i, t := range model.Terms {
		ids[i] = t.Id
	}

	fetch := func(ctx context.Context, termId string) (schedule.Term, error) {
		return c.fetchTermDetail(ctx, uc.Token, termId)
	}
	term, err := resolveTerm(ctx, ids, model.CurrentTermId, timezone.Now(), graceDays, fetch)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "term resolution failed")
		return schedule.Term{}, err
	}
	return term, nil
}

func (c *Client) fetchTermDetail(ctx context.Context, token, termId string) (schedule.Term, error) {
	var model termDetailResponse
	_, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetResult(&model).
		Get(fmt.Sprintf(c.endpoints.termDetail, termId))
	if err != nil {
		return schedule.Term{}, fmt.Errorf("failed to fetch term %s: %w", termId, err)
	}
	if model.Status != "success" {
		return schedule.Term{}, portal.UpstreamError{
			Message:     model.Message,
			Description: fmt.Sprintf("term request for %s did not return success status", termId),
		}
	}

	start, err := time.ParseInLocation("2006-01-02", model.Data.StartDate, timezone.Location)
	if err != nil {
		return schedule.Term{}, fmt.Errorf("bad term start date: %w", err)
	}
	end, err := time.ParseInLocation("2006-01-02", model.Data.EndDate, timezone.Location)
	if err != nil {
		return schedule.Term{}, fmt.Errorf("bad term end date: %w", err)
	}
	return schedule.Term{
		SessionTermId: termId,
		StartDate:     start,
		// upstream's end date is inclusive
		EndDate: end.AddDate(0, 0, 1),
	}, nil
}

// resolveTerm walks the term list from the nominal term in the
// direction its hint points. The list is ordered newest first, so a +1
// hint (term already over) means walking toward index 0.
func resolveTerm(ctx context.Context, ids []string, nominalId string, now time.Time, graceDays int, fetch termFetcher) (schedule.Term, error) {
	idx := -1
	for i, id := range ids {
		if id == nominalId {
			idx = i
			break
		}
	}
	if idx < 0 {
		return schedule.Term{}, fmt.Errorf("nominal term %s not in term list: %w", nominalId, portal.ErrUnexpectedFormat)
	}

	prev, err := fetch(ctx, ids[idx])
	if err != nil {
		return schedule.Term{}, err
	}
	prevHint := prev.Hint(now, graceDays)
	if prevHint == 0 {
		return prev, nil
	}

	step := -prevHint
	for i := idx + step; i >= 0 && i < len(ids); i += step {
		cur, err := fetch(ctx, ids[i])
		if err != nil {
			return schedule.Term{}, err
		}
		hint := cur.Hint(now, graceDays)
		if hint == 0 {
			return cur, nil
		}
		if hint != prevHint {
			// overshot the boundary between two terms
			if hint > 0 {
				return cur, nil
			}
			return prev, nil
		}
		prev = cur
	}
	return prev, nil
}
