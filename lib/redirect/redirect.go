// Package redirect drives request/response cycles over a cookiejar.Jar
// with manual redirect handling. The portals' login flows require exact
// control of the Cookie header and interception of redirect chains to
// detect failure pages, so automatic client-side cookie and redirect
// handling is disabled entirely.
package redirect

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/DL444/cqu-schedule/lib/cookiejar"
	"github.com/DL444/cqu-schedule/lib/telemetry"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("cquschedule.lib.redirect")

const defaultMaxRedirects = 10

// ConnectionError marks transport-level failures. The portals tend to
// drop connections on some rejected logins, and callers must be able to
// tell that apart from a well-formed failure page.
type ConnectionError struct {
	Err error
}

func (e ConnectionError) Error() string {
	return fmt.Sprintf("connection failed: %v", e.Err)
}

func (e ConnectionError) Unwrap() error {
	return e.Err
}

type Request struct {
	Method string
	URL    string
	Header map[string]string
	// sent urlencoded when Method is POST
	FormData map[string]string
}

type Options struct {
	// urls that terminate the redirect chain without being requested,
	// matched on scheme+host+path ignoring case
	Breakouts []string
	// defaults to 10; exceeding the budget returns the last response
	// rather than an error, callers still validate what they got
	MaxRedirects int
}

type Response struct {
	StatusCode int
	Body       string
	Header     http.Header
	// the uri the chain ended on. When a breakout matched this is the
	// breakout target, which was never actually requested.
	FinalURL *url.URL
}

func NewClient() *resty.Client {
	client := resty.New().
		SetHeader("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36").
		SetTimeout(time.Second * 30).
		SetCookieJar(nil).
		SetRedirectPolicy(resty.NoRedirectPolicy())
	telemetry.InstrumentResty(client, "cquschedule.lib.redirect")
	return client
}

func normalizeURL(u *url.URL) string {
	return strings.ToUpper(u.Scheme + "://" + u.Host + u.Path)
}

// Execute sends the request, attaching the jar's cookies before each hop
// and folding Set-Cookie responses back in keyed by the uri that
// produced them. 301/302 responses are replaced with a GET to the
// Location target until a terminal response, the redirect budget or a
// breakout uri is reached.
func Execute(ctx context.Context, client *resty.Client, jar *cookiejar.Jar, req Request, opts Options) (Response, error) {
	ctx, span := tracer.Start(ctx, "Execute")
	defer span.End()
	span.SetAttributes(
		attribute.String("method", req.Method),
		attribute.String("url", req.URL),
	)

	breakouts := make(map[string]bool, len(opts.Breakouts))
	for _, b := range opts.Breakouts {
		u, err := url.Parse(b)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "invalid breakout url")
			return Response{}, err
		}
		breakouts[normalizeURL(u)] = true
	}
	maxRedirects := opts.MaxRedirects
	if maxRedirects <= 0 {
		maxRedirects = defaultMaxRedirects
	}

	target, err := url.Parse(req.URL)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid request url")
		return Response{}, err
	}

	method := req.Method
	formData := req.FormData
	var res *resty.Response
	for redirects := 0; ; redirects++ {
		r := client.R().SetContext(ctx)
		for k, v := range req.Header {
			r.SetHeader(k, v)
		}
		if header := jar.CookieHeader(target); header != "" {
			r.SetHeader("Cookie", header)
		}
		if method == http.MethodPost && formData != nil {
			r.SetFormData(formData)
		}

		res, err = r.Execute(method, target.String())
		if err != nil && !errors.Is(err, resty.ErrAutoRedirectDisabled) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "transport failure")
			return Response{}, ConnectionError{Err: err}
		}

		for _, setCookie := range res.Header().Values("Set-Cookie") {
			jar.SetCookies(target, setCookie)
		}

		status := res.StatusCode()
		if status != http.StatusMovedPermanently && status != http.StatusFound {
			break
		}
		location := res.Header().Get("Location")
		if location == "" {
			break
		}
		next, err := target.Parse(location)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "invalid redirect location")
			return Response{}, err
		}
		if breakouts[normalizeURL(next)] {
			span.AddEvent("breakout", trace.WithAttributes(
				attribute.String("url", next.String()),
			))
			return Response{
				StatusCode: status,
				Body:       res.String(),
				Header:     res.Header(),
				FinalURL:   next,
			}, nil
		}
		if redirects >= maxRedirects {
			break
		}
		target = next
		method = http.MethodGet
		formData = nil
	}

	return Response{
		StatusCode: res.StatusCode(),
		Body:       res.String(),
		Header:     res.Header(),
		FinalURL:   target,
	}, nil
}
