// Package portal defines the contract shared by the undergraduate and
// postgraduate school portal clients, plus the failure taxonomy their
// login flows classify upstream behavior into.
package portal

import (
	"context"
	"errors"
	"fmt"

	"github.com/DL444/cqu-schedule/lib/cookiejar"
	"github.com/DL444/cqu-schedule/lib/schedule"
)

type Result int

const (
	ResultSuccess Result = iota
	// username or password rejected by the portal
	ResultIncorrectCredential
	// the portal wants a captcha solved before it will talk to us
	ResultCaptchaRequired
	// the portal demands profile completion before timetable access
	ResultInfoRequired
	// transport-level failure, some rejected logins surface this way
	ResultConnectionFailed
	ResultUnknownFailure
)

func (r Result) String() string {
	switch r {
	case ResultSuccess:
		return "Success"
	case ResultIncorrectCredential:
		return "IncorrectCredential"
	case ResultCaptchaRequired:
		return "CaptchaRequired"
	case ResultInfoRequired:
		return "InfoRequired"
	case ResultConnectionFailed:
		return "ConnectionFailed"
	default:
		return "UnknownFailure"
	}
}

// AuthenticationError is terminal for the current attempt. Callers must
// not retry IncorrectCredential, CaptchaRequired or InfoRequired.
type AuthenticationError struct {
	Result Result
	// raw upstream error string, for diagnostics only
	Description string
	Err         error
}

func (e AuthenticationError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("authentication failed: %s: %s", e.Result, e.Description)
	}
	return fmt.Sprintf("authentication failed: %s", e.Result)
}

func (e AuthenticationError) Unwrap() error {
	return e.Err
}

// UpstreamError means the portal answered but not in a shape we
// recognize, usually because it changed behavior.
type UpstreamError struct {
	Message     string
	Description string
}

func (e UpstreamError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("upstream request failed: %s: %s", e.Message, e.Description)
	}
	return fmt.Sprintf("upstream request failed: %s", e.Description)
}

// ErrUnexpectedFormat marks scraped pages missing a token we depend on.
var ErrUnexpectedFormat = errors.New("expected token not found in upstream response")

// ErrForeignContext is returned when a sign-in context produced by one
// portal is handed to the other.
var ErrForeignContext = errors.New("sign-in context does not belong to this portal")

// ErrMultitermUnsupported is returned by portals that only expose the
// current term.
var ErrMultitermUnsupported = errors.New("portal does not support multiple terms")

// SignInContext carries exactly the state one portal needs for its
// authenticated requests. Constructed only by a successful SignIn.
type SignInContext interface {
	IsValid() bool
}

type UndergradContext struct {
	Token string
}

func (c UndergradContext) IsValid() bool {
	return c.Token != ""
}

type PostgradContext struct {
	StudentSerial string
	Jar           *cookiejar.Jar
}

func (c PostgradContext) IsValid() bool {
	return c.StudentSerial != "" && c.Jar != nil
}

// Portal abstracts the two school systems behind one capability
// interface so callers never branch on user type.
type Portal interface {
	SignIn(ctx context.Context, username, password string) (SignInContext, error)
	GetSchedule(ctx context.Context, username, termId string, sc SignInContext) (schedule.Schedule, error)
	GetTerm(ctx context.Context, sc SignInContext, graceDays int) (schedule.Term, error)
	SupportsMultiterm() bool
}
