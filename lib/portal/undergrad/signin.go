package undergrad

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/DL444/cqu-schedule/lib/cookiejar"
	"github.com/DL444/cqu-schedule/lib/portal"
	"github.com/DL444/cqu-schedule/lib/portal/cipher"
	"github.com/DL444/cqu-schedule/lib/redirect"

	"go.opentelemetry.io/otel/codes"
)

var (
	ltPattern        = regexp.MustCompile(`input type="hidden" name="lt" value="(.*?)"`)
	executionPattern = regexp.MustCompile(`input type="hidden" name="execution" value="(.*?)"`)
	saltPattern      = regexp.MustCompile(`var pwdDefaultEncryptSalt = "(.*?)"`)
	errorPattern     = regexp.MustCompile(`<span id="msg" class="login_auth_error">(.*?)</span>`)
	codePattern      = regexp.MustCompile(`code=(.{6})`)
	tokenPattern     = regexp.MustCompile(`"access_token":"(.*?)"`)
)

type signinInfo struct {
	lt        string
	execution string
	key       string
}

func extractSigninInfo(body string) (signinInfo, error) {
	lt := ltPattern.FindStringSubmatch(body)
	if lt == nil {
		return signinInfo{}, fmt.Errorf("lt token: %w", portal.ErrUnexpectedFormat)
	}
	execution := executionPattern.FindStringSubmatch(body)
	if execution == nil {
		return signinInfo{}, fmt.Errorf("execution token: %w", portal.ErrUnexpectedFormat)
	}
	salt := saltPattern.FindStringSubmatch(body)
	if salt == nil {
		return signinInfo{}, fmt.Errorf("encryption salt: %w", portal.ErrUnexpectedFormat)
	}
	return signinInfo{lt: lt[1], execution: execution[1], key: salt[1]}, nil
}

func classifyLoginError(description string) portal.Result {
	switch {
	case strings.Contains(description, "1030027"),
		strings.Contains(description, "1030031"),
		strings.Contains(description, "密码"),
		strings.Contains(description, "password"):
		return portal.ResultIncorrectCredential
	case strings.Contains(description, "验证码"),
		strings.Contains(description, "verification"):
		return portal.ResultCaptchaRequired
	case strings.Contains(description, "完善"),
		strings.Contains(description, "complete your information"):
		return portal.ResultInfoRequired
	default:
		return portal.ResultUnknownFailure
	}
}

func transportAuthError(err error) error {
	var connErr redirect.ConnectionError
	if errors.As(err, &connErr) {
		return portal.AuthenticationError{Result: portal.ResultConnectionFailed, Err: err}
	}
	return err
}

// SignIn drives the CAS login and OAuth token exchange, returning an
// UndergradContext holding the bearer token.
func (c *Client) SignIn(ctx context.Context, username, password string) (portal.SignInContext, error) {
	ctx, span := tracer.Start(ctx, "SignIn")
	defer span.End()

	jar := cookiejar.New()
	res, err := redirect.Execute(ctx, c.http, jar, redirect.Request{
		Method: http.MethodGet,
		URL:    c.endpoints.login,
	}, redirect.Options{})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to load login page")
		return nil, transportAuthError(err)
	}
	info, err := extractSigninInfo(res.Body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "login page missing expected tokens")
		return nil, err
	}

	encryptedPassword, err := cipher.EncryptAES(password, info.key)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to encrypt password")
		return nil, err
	}

	res, err = redirect.Execute(ctx, c.http, jar, redirect.Request{
		Method: http.MethodPost,
		URL:    c.endpoints.ssoLogin,
		FormData: map[string]string{
			"username":  username,
			"password":  encryptedPassword,
			"lt":        info.lt,
			"dllt":      "userNamePasswordLogin",
			"execution": info.execution,
			"_eventId":  "submit",
			"rmShown":   "1",
		},
	}, redirect.Options{Breakouts: c.endpoints.breakouts})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "login post failed")
		return nil, transportAuthError(err)
	}
	if strings.EqualFold(res.FinalURL.Host, c.endpoints.ssoHost) {
		// landed back on the SSO host, scrape and classify the error
		authErr := portal.AuthenticationError{Result: portal.ResultUnknownFailure}
		if m := errorPattern.FindStringSubmatch(res.Body); m != nil {
			authErr.Description = m[1]
			authErr.Result = classifyLoginError(m[1])
		}
		span.SetStatus(codes.Error, authErr.Result.String())
		return nil, authErr
	}

	res, err = redirect.Execute(ctx, c.http, jar, redirect.Request{
		Method: http.MethodGet,
		URL:    c.endpoints.authorize,
	}, redirect.Options{Breakouts: c.endpoints.breakouts})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "authorize request failed")
		return nil, transportAuthError(err)
	}
	code := codePattern.FindStringSubmatch(res.FinalURL.String())
	if code == nil {
		span.SetStatus(codes.Error, "authorization code missing")
		return nil, fmt.Errorf("authorization code: %w", portal.ErrUnexpectedFormat)
	}

	res, err = redirect.Execute(ctx, c.http, jar, redirect.Request{
		Method: http.MethodPost,
		URL:    c.endpoints.token,
		FormData: map[string]string{
			"client_id":     "enroll-prod",
			"client_secret": "app-a-1234",
			"code":          code[1],
			"redirect_uri":  c.endpoints.tokenRedirect,
			"grant_type":    "authorization_code",
		},
	}, redirect.Options{})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "token exchange failed")
		return nil, transportAuthError(err)
	}
	token := tokenPattern.FindStringSubmatch(res.Body)
	if token == nil {
		span.SetStatus(codes.Error, "access token missing")
		return nil, fmt.Errorf("access token: %w", portal.ErrUnexpectedFormat)
	}

	return portal.UndergradContext{Token: token[1]}, nil
}
