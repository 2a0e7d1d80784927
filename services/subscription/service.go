// Package subscription ties the portal clients, the sqlite store and
// the calendar projector into the user-facing subscription flows.
package subscription

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/DL444/cqu-schedule/lib/calendar"
	"github.com/DL444/cqu-schedule/lib/portal"
	"github.com/DL444/cqu-schedule/lib/portal/postgrad"
	"github.com/DL444/cqu-schedule/lib/portal/undergrad"
	"github.com/DL444/cqu-schedule/lib/schedule"

	random "github.com/mazen160/go-random"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("cquschedule.services.subscription")

const subscriptionIdLength = 22

type CredentialConfig struct {
	CurrentKeyId string `json:"current_key_id"`
	// key id to base64-encoded 32-byte key
	Keys map[string]string `json:"keys"`
}

type CalendarConfig struct {
	RemindBeforeMinutes int `json:"remind_before_minutes"`
	VacationServeDays   int `json:"vacation_serve_days"`
}

type Config struct {
	Database          string            `json:"database"`
	Credential        CredentialConfig  `json:"credential"`
	Calendar          CalendarConfig    `json:"calendar"`
	VacationGraceDays int               `json:"vacation_grace_days"`
	Messages          map[string]string `json:"messages"`
}

type Service struct {
	store     Store
	creds     CredentialCipher
	termCache *TermCache
	portals   map[schedule.UserType]portal.Portal
	projector calendar.Projector
	graceDays int
	messages  Messages
}

func NewService(config Config) (Service, error) {
	store, err := NewStore(config.Database)
	if err != nil {
		return Service{}, err
	}
	return newService(store, config, map[schedule.UserType]portal.Portal{
		schedule.UserTypeUndergraduate: undergrad.New(),
		schedule.UserTypePostgraduate:  postgrad.New(),
	})
}

func newService(store Store, config Config, portals map[schedule.UserType]portal.Portal) (Service, error) {
	creds, err := NewCredentialCipher(config.Credential.CurrentKeyId, config.Credential.Keys)
	if err != nil {
		return Service{}, err
	}

	messages := DefaultMessages()
	for k, v := range config.Messages {
		messages[k] = v
	}

	return Service{
		store:     store,
		creds:     creds,
		termCache: &TermCache{},
		portals:   portals,
		projector: calendar.Projector{
			RemindBefore:      time.Duration(config.Calendar.RemindBeforeMinutes) * time.Minute,
			VacationServeDays: config.Calendar.VacationServeDays,
		},
		graceDays: config.VacationGraceDays,
		messages:  messages,
	}, nil
}

func (s Service) Close() error {
	return s.store.Close()
}

func (s Service) Store() Store {
	return s.store
}

func (s Service) Messages() Messages {
	return s.messages
}

// Subscribe signs the user in, stores their current schedule and seals
// their credentials for future refreshes. The returned user carries the
// subscription id for the feed link, never the password.
func (s Service) Subscribe(ctx context.Context, username, password string) (schedule.User, error) {
	ctx, span := tracer.Start(ctx, "Subscribe")
	defer span.End()

	userType, err := schedule.ClassifyUsername(username)
	if err != nil {
		return schedule.User{}, err
	}
	p := s.portals[userType]

	sc, err := p.SignIn(ctx, username, password)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "sign in failed")
		return schedule.User{}, err
	}

	term, err := s.resolveTerm(ctx, p, sc)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "term resolution failed")
		return schedule.User{}, err
	}

	sched, err := p.GetSchedule(ctx, username, term.SessionTermId, sc)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "schedule fetch failed")
		return schedule.User{}, err
	}
	sched.RecordStatus = schedule.StatusUpToDate
	if err := s.store.SetSchedule(ctx, sched); err != nil {
		return schedule.User{}, err
	}

	subscriptionId, err := random.String(subscriptionIdLength)
	if err != nil {
		return schedule.User{}, err
	}
	// keep an existing id so previously shared feed links stay valid
	if existing, err := s.store.GetUser(ctx, username); err == nil {
		subscriptionId = existing.SubscriptionId
	} else if !errors.Is(err, ErrNotFound) {
		return schedule.User{}, err
	}

	user := schedule.User{
		Username:       username,
		Password:       password,
		SubscriptionId: subscriptionId,
		UserType:       userType,
	}
	sealed, err := s.creds.Encrypt(user)
	if err != nil {
		return schedule.User{}, err
	}
	if err := s.store.SetUser(ctx, sealed); err != nil {
		return schedule.User{}, err
	}

	user.Password = ""
	return user, nil
}

// Calendar serves the iCalendar feed for a subscription. An unknown
// username, a wrong subscription id and a schedule whose credential
// stopped working all serve an empty calendar, indistinguishable to
// the caller.
func (s Service) Calendar(ctx context.Context, username, subscriptionId string, categories calendar.EventCategories) (string, error) {
	ctx, span := tracer.Start(ctx, "Calendar")
	defer span.End()

	user, err := s.store.GetUser(ctx, username)
	if errors.Is(err, ErrNotFound) {
		return s.projector.Empty(), nil
	}
	if err != nil {
		return "", err
	}
	if subtle.ConstantTimeCompare([]byte(user.SubscriptionId), []byte(subscriptionId)) != 1 {
		return s.projector.Empty(), nil
	}

	sched, err := s.store.GetSchedule(ctx, username)
	if errors.Is(err, ErrNotFound) {
		return s.projector.Empty(), nil
	}
	if err != nil {
		return "", err
	}
	if sched.RecordStatus == schedule.StatusStaleAuthError {
		// the user must resubscribe, serving the old events would hide that
		return s.projector.Empty(), nil
	}
	term, err := s.store.GetTerm(ctx)
	if err != nil {
		return "", err
	}
	return s.projector.Calendar(username, term, sched, categories), nil
}

// Delete removes a subscription after re-authenticating the caller
// against the portal, proving they still own the account.
func (s Service) Delete(ctx context.Context, username, password string) error {
	ctx, span := tracer.Start(ctx, "Delete")
	defer span.End()

	userType, err := schedule.ClassifyUsername(username)
	if err != nil {
		return err
	}
	if _, err := s.portals[userType].SignIn(ctx, username, password); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "sign in failed")
		return err
	}
	return s.store.DeleteUser(ctx, username)
}

// RefreshAll refetches every stored user's schedule, resolving the term
// once and reusing it across the sweep. Per-user failures mark the
// stored schedule stale and the sweep continues.
func (s Service) RefreshAll(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "RefreshAll")
	defer span.End()

	usernames, err := s.store.ListUsernames(ctx)
	if err != nil {
		return err
	}

	var termId string
	var errs []error
	for _, username := range usernames {
		if err := s.refreshUser(ctx, username, &termId); err != nil {
			slog.ErrorContext(ctx, "failed to refresh user", "username", username, "err", err)
			errs = append(errs, fmt.Errorf("%s: %w", username, err))
		}
	}
	if errs != nil {
		span.SetStatus(codes.Error, "some users failed to refresh")
	}
	return errors.Join(errs...)
}

func (s Service) refreshUser(ctx context.Context, username string, termId *string) error {
	user, err := s.store.GetUser(ctx, username)
	if err != nil {
		return err
	}
	user, err = s.creds.Decrypt(user)
	if err != nil {
		return err
	}
	p := s.portals[user.UserType]

	sc, err := p.SignIn(ctx, user.Username, user.Password)
	if err != nil {
		status := schedule.StatusStaleUpstreamError
		var authErr portal.AuthenticationError
		if errors.As(err, &authErr) && authErr.Result != portal.ResultConnectionFailed {
			// the credential itself stopped working, retrying won't help
			status = schedule.StatusStaleAuthError
		}
		s.markStale(ctx, username, status)
		return err
	}

	if *termId == "" && p.SupportsMultiterm() {
		term, err := p.GetTerm(ctx, sc, s.graceDays)
		if err != nil {
			slog.ErrorContext(ctx, "failed to resolve term, keeping stored one", "err", err)
		} else {
			if err := s.store.SetTerm(ctx, term); err != nil {
				return err
			}
			s.termCache.Set(term)
			*termId = term.SessionTermId
		}
	}

	sched, err := p.GetSchedule(ctx, user.Username, *termId, sc)
	if err != nil {
		s.markStale(ctx, username, schedule.StatusStaleUpstreamError)
		return err
	}
	sched.RecordStatus = schedule.StatusUpToDate
	return s.store.SetSchedule(ctx, sched)
}

func (s Service) markStale(ctx context.Context, username string, status schedule.RecordStatus) {
	sched, err := s.store.GetSchedule(ctx, username)
	if err != nil {
		return
	}
	sched.RecordStatus = status
	if err := s.store.SetSchedule(ctx, sched); err != nil {
		slog.ErrorContext(ctx, "failed to mark schedule stale", "username", username, "err", err)
	}
}

// RotateCredentialKeys re-seals every stored credential under the
// current key. Individual failures are reported but don't stop the
// sweep.
func (s Service) RotateCredentialKeys(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "RotateCredentialKeys")
	defer span.End()

	usernames, err := s.store.ListUsernames(ctx)
	if err != nil {
		return err
	}

	var errs []error
	for _, username := range usernames {
		user, err := s.store.GetUser(ctx, username)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", username, err))
			continue
		}
		if user.KeyId == s.creds.CurrentKeyId() {
			continue
		}
		user, err = s.creds.Decrypt(user)
		if err == nil {
			user, err = s.creds.Encrypt(user)
		}
		if err == nil {
			err = s.store.SetUser(ctx, user)
		}
		if err != nil {
			slog.ErrorContext(ctx, "failed to rotate credential", "username", username, "err", err)
			errs = append(errs, fmt.Errorf("%s: %w", username, err))
		}
	}
	if errs != nil {
		span.SetStatus(codes.Error, "some credentials failed to rotate")
	}
	return errors.Join(errs...)
}

func (s Service) resolveTerm(ctx context.Context, p portal.Portal, sc portal.SignInContext) (schedule.Term, error) {
	if !p.SupportsMultiterm() {
		// the portal can't tell us, the stored record is all we have
		return s.termCache.Get(ctx, func(ctx context.Context) (schedule.Term, error) {
			return s.store.GetTerm(ctx)
		})
	}
	return s.termCache.Get(ctx, func(ctx context.Context) (schedule.Term, error) {
		term, err := p.GetTerm(ctx, sc, s.graceDays)
		if err != nil {
			// trade staleness for availability when the upstream is down
			stored, storeErr := s.store.GetTerm(ctx)
			if storeErr != nil {
				return schedule.Term{}, err
			}
			slog.ErrorContext(ctx, "failed to resolve term, serving stored one", "err", err)
			return stored, nil
		}
		if err := s.store.SetTerm(ctx, term); err != nil {
			return schedule.Term{}, err
		}
		return term, nil
	})
}
