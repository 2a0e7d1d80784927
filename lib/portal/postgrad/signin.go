package postgrad

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"

	"github.com/DL444/cqu-schedule/lib/cookiejar"
	"github.com/DL444/cqu-schedule/lib/portal"
	"github.com/DL444/cqu-schedule/lib/portal/cipher"
	"github.com/DL444/cqu-schedule/lib/redirect"

	"go.opentelemetry.io/otel/codes"
)

var (
	saltPattern   = regexp.MustCompile(`input type="hidden" name="salt" value="(.*?)"`)
	urlPattern    = regexp.MustCompile(`url=([A-Za-z]+)\.jsp`)
	serialPattern = regexp.MustCompile(`stuSerial=(\d+)`)
)

func transportAuthError(err error) error {
	var connErr redirect.ConnectionError
	if errors.As(err, &connErr) {
		return portal.AuthenticationError{Result: portal.ResultConnectionFailed, Err: err}
	}
	return err
}

// SignIn posts DES-scrambled credentials to the login servlet and
// scrapes the student serial off the menu page. The context is the
// accumulated cookie jar plus that serial, this portal has no tokens.
func (c *Client) SignIn(ctx context.Context, username, password string) (portal.SignInContext, error) {
	ctx, span := tracer.Start(ctx, "SignIn")
	defer span.End()

	jar := cookiejar.New()
	res, err := redirect.Execute(ctx, c.http, jar, redirect.Request{
		Method: http.MethodGet,
		URL:    c.endpoints.loginPage,
	}, redirect.Options{})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to load login page")
		return nil, transportAuthError(err)
	}
	body, err := decodeGBK(res.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode login page: %w", err)
	}
	salt := saltPattern.FindStringSubmatch(body)
	if salt == nil {
		span.SetStatus(codes.Error, "login salt missing")
		return nil, fmt.Errorf("login salt: %w", portal.ErrUnexpectedFormat)
	}

	encryptedPassword, err := cipher.EncryptDES(password, salt[1])
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to encrypt password")
		return nil, err
	}

	res, err = redirect.Execute(ctx, c.http, jar, redirect.Request{
		Method: http.MethodPost,
		URL:    c.endpoints.loginServlet,
		FormData: map[string]string{
			"userId":   username,
			"password": encryptedPassword,
			"userType": "student",
		},
	}, redirect.Options{})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "login post failed")
		return nil, transportAuthError(err)
	}
	body, err = decodeGBK(res.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode login response: %w", err)
	}
	target := urlPattern.FindStringSubmatch(body)
	if target == nil {
		span.SetStatus(codes.Error, "login redirect target missing")
		return nil, fmt.Errorf("login redirect target: %w", portal.ErrUnexpectedFormat)
	}
	switch target[1] {
	case "STUDENT":
	case "WRONGPWD", "NULLUSER":
		span.SetStatus(codes.Error, "incorrect credential")
		return nil, portal.AuthenticationError{
			Result:      portal.ResultIncorrectCredential,
			Description: target[1],
		}
	default:
		span.SetStatus(codes.Error, "unknown login outcome")
		return nil, portal.AuthenticationError{
			Result:      portal.ResultUnknownFailure,
			Description: target[1],
		}
	}

	res, err = redirect.Execute(ctx, c.http, jar, redirect.Request{
		Method: http.MethodGet,
		URL:    c.endpoints.studentMenu,
	}, redirect.Options{})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to load student menu")
		return nil, transportAuthError(err)
	}
	body, err = decodeGBK(res.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode student menu: %w", err)
	}
	serial := serialPattern.FindStringSubmatch(body)
	if serial == nil {
		span.SetStatus(codes.Error, "student serial missing")
		return nil, fmt.Errorf("student serial: %w", portal.ErrUnexpectedFormat)
	}

	return portal.PostgradContext{StudentSerial: serial[1], Jar: jar}, nil
}
