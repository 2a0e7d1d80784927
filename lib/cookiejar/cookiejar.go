// Package cookiejar implements the simplified cookie model the school
// portals depend on. The stock net/http jar is unusable here because the
// login flows need exact control over the Cookie header and a
// domain-suffix/path-prefix scope model that RFC 6265 jars refuse to
// express.
package cookiejar

import (
	"net/url"
	"strings"
)

type scope struct {
	// uppercased, matched as a suffix of the request host
	domain string
	// matched case-sensitively as a prefix of the request path
	path string
}

type cookie struct {
	name  string
	value string
}

// Jar stores cookies keyed by (domain, path) scope. It is owned by a
// single login attempt and is not safe for concurrent mutation.
type Jar struct {
	scopes  []scope
	cookies map[scope][]cookie
}

func New() *Jar {
	return &Jar{
		cookies: map[scope][]cookie{},
	}
}

func (j *Jar) matches(s scope, u *url.URL) bool {
	host := strings.ToUpper(u.Hostname())
	if !strings.HasSuffix(host, s.domain) {
		return false
	}
	return strings.HasPrefix(u.Path, s.path)
}

// CookieHeader returns the Cookie header value applicable to the given
// uri, or an empty string. Cookies within a scope keep the order their
// names were first seen.
func (j *Jar) CookieHeader(u *url.URL) string {
	var pairs []string
	for _, s := range j.scopes {
		if !j.matches(s, u) {
			continue
		}
		for _, c := range j.cookies[s] {
			pairs = append(pairs, c.name+"="+c.value)
		}
	}
	return strings.Join(pairs, "; ")
}

// SetCookies folds a single Set-Cookie header value into the jar. The
// optional Domain/Path attributes override the scope, which otherwise
// defaults to the responding uri's host and path.
func (j *Jar) SetCookies(u *url.URL, setCookie string) {
	segments := strings.Split(setCookie, ";")
	if len(segments) == 0 {
		return
	}
	name, value, ok := strings.Cut(strings.TrimSpace(segments[0]), "=")
	if !ok || name == "" {
		return
	}

	domain := u.Hostname()
	path := u.Path
	for _, seg := range segments[1:] {
		k, v, ok := strings.Cut(strings.TrimSpace(seg), "=")
		if !ok {
			continue
		}
		switch strings.ToLower(k) {
		case "domain":
			domain = strings.TrimPrefix(v, ".")
		case "path":
			path = v
		}
	}

	s := scope{domain: strings.ToUpper(domain), path: path}
	existing, ok := j.cookies[s]
	if !ok {
		j.scopes = append(j.scopes, s)
	}
	for i, c := range existing {
		if c.name == name {
			existing[i].value = value
			return
		}
	}
	j.cookies[s] = append(existing, cookie{name: name, value: value})
}

// Len reports the total number of stored cookies across all scopes.
func (j *Jar) Len() int {
	n := 0
	for _, cs := range j.cookies {
		n += len(cs)
	}
	return n
}

// Clone returns an independent copy of the jar.
func (j *Jar) Clone() *Jar {
	out := New()
	out.scopes = append([]scope(nil), j.scopes...)
	for s, cs := range j.cookies {
		out.cookies[s] = append([]cookie(nil), cs...)
	}
	return out
}
