package cookiejar

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, raw string) *url.URL {
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestScopeMatching(t *testing.T) {
	jar := New()
	jar.SetCookies(mustParse(t, "http://authserver.cqu.edu.cn/authserver/login"), "route=abc123")

	// exact host and path prefix
	require.Equal(t, "route=abc123", jar.CookieHeader(mustParse(t, "http://authserver.cqu.edu.cn/authserver/login?service=x")))
	// domain matching is case-insensitive
	require.Equal(t, "route=abc123", jar.CookieHeader(mustParse(t, "http://AUTHSERVER.CQU.EDU.CN/authserver/login")))
	// path matching is case-sensitive
	require.Equal(t, "", jar.CookieHeader(mustParse(t, "http://authserver.cqu.edu.cn/AUTHSERVER/login")))
	// different path
	require.Equal(t, "", jar.CookieHeader(mustParse(t, "http://authserver.cqu.edu.cn/other")))
}

func TestDomainSuffix(t *testing.T) {
	jar := New()
	jar.SetCookies(mustParse(t, "http://my.cqu.edu.cn/"), "sid=1; Domain=cqu.edu.cn; Path=/")

	require.Equal(t, "sid=1", jar.CookieHeader(mustParse(t, "http://authserver.cqu.edu.cn/authserver/login")))
	require.Equal(t, "sid=1", jar.CookieHeader(mustParse(t, "http://my.cqu.edu.cn/enroll/cas")))
	require.Equal(t, "", jar.CookieHeader(mustParse(t, "http://example.com/")))
}

func TestFirstSeenOrder(t *testing.T) {
	jar := New()
	u := mustParse(t, "http://my.cqu.edu.cn/")
	jar.SetCookies(u, "a=1")
	jar.SetCookies(u, "b=2")
	jar.SetCookies(u, "a=3")

	// overwriting a cookie's value keeps its original position
	require.Equal(t, "a=3; b=2", jar.CookieHeader(u))
	require.Equal(t, 2, jar.Len())
}

func TestMultipleScopes(t *testing.T) {
	jar := New()
	jar.SetCookies(mustParse(t, "http://my.cqu.edu.cn/enroll"), "narrow=1")
	jar.SetCookies(mustParse(t, "http://my.cqu.edu.cn/"), "wide=2; Path=/")

	header := jar.CookieHeader(mustParse(t, "http://my.cqu.edu.cn/enroll/token-index"))
	require.Equal(t, "narrow=1; wide=2", header)
}

func TestClone(t *testing.T) {
	jar := New()
	u := mustParse(t, "http://mis.cqu.edu.cn/mis/login.jsp")
	jar.SetCookies(u, "JSESSIONID=xyz; Path=/mis")

	clone := jar.Clone()
	jar.SetCookies(u, "extra=1; Path=/mis")

	require.Equal(t, 1, clone.Len())
	require.Equal(t, 2, jar.Len())
	require.Equal(t, "JSESSIONID=xyz", clone.CookieHeader(u))
}

func TestIgnoresMalformed(t *testing.T) {
	jar := New()
	u := mustParse(t, "http://my.cqu.edu.cn/")
	jar.SetCookies(u, "")
	jar.SetCookies(u, "novalue")
	require.Equal(t, 0, jar.Len())
}
