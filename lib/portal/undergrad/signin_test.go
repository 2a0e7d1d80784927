package undergrad

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/DL444/cqu-schedule/lib/portal"
	"github.com/DL444/cqu-schedule/lib/redirect"

	"github.com/stretchr/testify/require"
)

const loginPage = `<html><body>
<input type="hidden" name="lt" value="LT-12345"/>
<input type="hidden" name="execution" value="e1s1"/>
<script>var pwdDefaultEncryptSalt = "0123456789abcdef";</script>
</body></html>`

func TestExtractSigninInfo(t *testing.T) {
	info, err := extractSigninInfo(loginPage)
	require.NoError(t, err)
	require.Equal(t, "LT-12345", info.lt)
	require.Equal(t, "e1s1", info.execution)
	require.Equal(t, "0123456789abcdef", info.key)
}

func TestExtractSigninInfoMissingTokens(t *testing.T) {
	_, err := extractSigninInfo("<html></html>")
	require.ErrorIs(t, err, portal.ErrUnexpectedFormat)
}

func TestClassifyLoginError(t *testing.T) {
	cases := []struct {
		description string
		want        portal.Result
	}{
		{"您提供的用户名或者密码有误", portal.ResultIncorrectCredential},
		{"Invalid username or password (code 1030027)", portal.ResultIncorrectCredential},
		{"error 1030031", portal.ResultIncorrectCredential},
		{"请输入验证码", portal.ResultCaptchaRequired},
		{"verification code required", portal.ResultCaptchaRequired},
		{"请先完善个人信息", portal.ResultInfoRequired},
		{"please complete your information first", portal.ResultInfoRequired},
		{"something else entirely", portal.ResultUnknownFailure},
	}
	for _, c := range cases {
		require.Equal(t, c.want, classifyLoginError(c.description), c.description)
	}
}

func testClient(srvURL string) *Client {
	return &Client{
		http: redirect.NewClient(),
		endpoints: endpoints{
			login:         srvURL + "/authserver/casLogin",
			ssoLogin:      srvURL + "/authserver/login",
			ssoHost:       "authserver.cqu.edu.cn",
			authorize:     srvURL + "/authserver/oauth/authorize",
			token:         srvURL + "/authserver/oauth/token",
			tokenRedirect: srvURL + "/enroll/token-index",
			breakouts: []string{
				srvURL + "/enroll/cas",
				srvURL + "/enroll/token-index",
			},
			tableDetail: srvURL + "/api/timetable",
			examList:    srvURL + "/api/exams",
			termList:    srvURL + "/api/terms",
			termDetail:  srvURL + "/api/terms/%s",
		},
	}
}

func TestSignInSuccess(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/authserver/casLogin", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Set-Cookie", "route=sso1; Path=/")
		fmt.Fprint(w, loginPage)
	})
	mux.HandleFunc("/authserver/login", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		require.Equal(t, "20211234", r.PostFormValue("username"))
		require.NotEmpty(t, r.PostFormValue("password"))
		require.NotEqual(t, "hunter2", r.PostFormValue("password"))
		require.Equal(t, "LT-12345", r.PostFormValue("lt"))
		require.Equal(t, "e1s1", r.PostFormValue("execution"))
		require.Equal(t, "userNamePasswordLogin", r.PostFormValue("dllt"))
		require.Equal(t, "submit", r.PostFormValue("_eventId"))
		require.Equal(t, "sso1", func() string {
			c, _ := r.Cookie("route")
			if c == nil {
				return ""
			}
			return c.Value
		}())
		http.Redirect(w, r, "/enroll/cas", http.StatusFound)
	})
	mux.HandleFunc("/authserver/oauth/authorize", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/enroll/token-index?code=x7k2pq", http.StatusFound)
	})
	mux.HandleFunc("/authserver/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		require.Equal(t, "x7k2pq", r.PostFormValue("code"))
		require.Equal(t, "authorization_code", r.PostFormValue("grant_type"))
		fmt.Fprint(w, `{"access_token":"tok-abc","token_type":"bearer"}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	sc, err := testClient(srv.URL).SignIn(context.Background(), "20211234", "hunter2")
	require.NoError(t, err)
	require.True(t, sc.IsValid())
	require.Equal(t, portal.UndergradContext{Token: "tok-abc"}, sc)
}

func TestSignInIncorrectCredential(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/authserver/casLogin", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, loginPage)
	})
	mux.HandleFunc("/authserver/login", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<span id="msg" class="login_auth_error">您提供的用户名或者密码有误</span>`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := testClient(srv.URL)
	client.endpoints.ssoHost = mustHost(t, srv.URL)

	_, err := client.SignIn(context.Background(), "20211234", "wrong")
	var authErr portal.AuthenticationError
	require.ErrorAs(t, err, &authErr)
	require.Equal(t, portal.ResultIncorrectCredential, authErr.Result)
	require.Equal(t, "您提供的用户名或者密码有误", authErr.Description)
}

func TestSignInConnectionFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	_, err := testClient(srv.URL).SignIn(context.Background(), "20211234", "hunter2")
	var authErr portal.AuthenticationError
	require.ErrorAs(t, err, &authErr)
	require.Equal(t, portal.ResultConnectionFailed, authErr.Result)
}

func mustHost(t *testing.T, raw string) string {
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u.Host
}
