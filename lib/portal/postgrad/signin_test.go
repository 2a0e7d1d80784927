package postgrad

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DL444/cqu-schedule/lib/portal"
	"github.com/DL444/cqu-schedule/lib/redirect"

	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/simplifiedchinese"
)

func gbk(t *testing.T, s string) []byte {
	out, err := simplifiedchinese.GBK.NewEncoder().Bytes([]byte(s))
	require.NoError(t, err)
	return out
}

func testClient(srvURL string) *Client {
	return &Client{
		http: redirect.NewClient(),
		endpoints: endpoints{
			loginPage:    srvURL + "/mis/login.jsp",
			loginServlet: srvURL + "/mis/servlet/LoginServlet",
			studentMenu:  srvURL + "/mis/menu/student.jsp",
			timetable:    srvURL + "/mis/curricula/show_stu.jsp",
		},
	}
}

func loginPageBody(t *testing.T) []byte {
	salt := base64.StdEncoding.EncodeToString([]byte("8bytekey"))
	return gbk(t, fmt.Sprintf(
		`<html><form><input type="hidden" name="salt" value="%s"/></form></html>`, salt))
}

func TestSignInSuccess(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/mis/login.jsp", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Set-Cookie", "JSESSIONID=deadbeef; Path=/mis")
		w.Write(loginPageBody(t))
	})
	mux.HandleFunc("/mis/servlet/LoginServlet", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		require.Equal(t, "202112345678", r.PostFormValue("userId"))
		require.Equal(t, "student", r.PostFormValue("userType"))
		require.NotEmpty(t, r.PostFormValue("password"))
		require.NotEqual(t, "hunter2", r.PostFormValue("password"))
		require.Contains(t, r.Header.Get("Cookie"), "JSESSIONID=deadbeef")
		w.Write(gbk(t, `<meta http-equiv="refresh" content="0;url=STUDENT.jsp">`))
	})
	mux.HandleFunc("/mis/menu/student.jsp", func(w http.ResponseWriter, r *http.Request) {
		require.Contains(t, r.Header.Get("Cookie"), "JSESSIONID=deadbeef")
		w.Write(gbk(t, `<a href="/mis/curricula/show_stu.jsp?stuSerial=98765">课表</a>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	sc, err := testClient(srv.URL).SignIn(context.Background(), "202112345678", "hunter2")
	require.NoError(t, err)
	require.True(t, sc.IsValid())

	pc, ok := sc.(portal.PostgradContext)
	require.True(t, ok)
	require.Equal(t, "98765", pc.StudentSerial)
	require.NotZero(t, pc.Jar.Len())
}

func signInExpecting(t *testing.T, servletBody string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/mis/login.jsp", func(w http.ResponseWriter, r *http.Request) {
		w.Write(loginPageBody(t))
	})
	mux.HandleFunc("/mis/servlet/LoginServlet", func(w http.ResponseWriter, r *http.Request) {
		w.Write(gbk(t, servletBody))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	_, err := testClient(srv.URL).SignIn(context.Background(), "202112345678", "hunter2")
	return err
}

func TestSignInWrongPassword(t *testing.T) {
	err := signInExpecting(t, `url=WRONGPWD.jsp`)
	var authErr portal.AuthenticationError
	require.ErrorAs(t, err, &authErr)
	require.Equal(t, portal.ResultIncorrectCredential, authErr.Result)
	require.Equal(t, "WRONGPWD", authErr.Description)
}

func TestSignInUnknownUser(t *testing.T) {
	err := signInExpecting(t, `url=NULLUSER.jsp`)
	var authErr portal.AuthenticationError
	require.ErrorAs(t, err, &authErr)
	require.Equal(t, portal.ResultIncorrectCredential, authErr.Result)
}

func TestSignInUnknownOutcome(t *testing.T) {
	err := signInExpecting(t, `url=MAINTENANCE.jsp`)
	var authErr portal.AuthenticationError
	require.ErrorAs(t, err, &authErr)
	require.Equal(t, portal.ResultUnknownFailure, authErr.Result)
}

func TestSignInMalformedResponse(t *testing.T) {
	err := signInExpecting(t, `<html>nothing useful</html>`)
	require.ErrorIs(t, err, portal.ErrUnexpectedFormat)
}

func TestSignInMissingSalt(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/mis/login.jsp", func(w http.ResponseWriter, r *http.Request) {
		w.Write(gbk(t, `<html>no salt here</html>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	_, err := testClient(srv.URL).SignIn(context.Background(), "202112345678", "hunter2")
	require.ErrorIs(t, err, portal.ErrUnexpectedFormat)
}
