// Package postgrad implements the postgraduate portal: a legacy JSP
// system with session-cookie auth, GBK-encoded pages and an HTML grid
// timetable. It exposes no exam feed and only the current term.
package postgrad

import (
	"context"

	"github.com/DL444/cqu-schedule/lib/portal"
	"github.com/DL444/cqu-schedule/lib/redirect"
	"github.com/DL444/cqu-schedule/lib/schedule"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"golang.org/x/text/encoding/simplifiedchinese"
)

var tracer = otel.Tracer("cquschedule.lib.portal.postgrad")

type endpoints struct {
	loginPage    string
	loginServlet string
	studentMenu  string
	// takes the student serial as a stuSerial query parameter
	timetable string
}

func defaultEndpoints() endpoints {
	return endpoints{
		loginPage:    "http://mis.cqu.edu.cn/mis/login.jsp",
		loginServlet: "http://mis.cqu.edu.cn/mis/servlet/LoginServlet",
		studentMenu:  "http://mis.cqu.edu.cn/mis/menu/student.jsp",
		timetable:    "http://mis.cqu.edu.cn/mis/curricula/show_stu.jsp",
	}
}

type Client struct {
	http      *resty.Client
	endpoints endpoints
}

func New() *Client {
	return &Client{
		http:      redirect.NewClient(),
		endpoints: defaultEndpoints(),
	}
}

func (c *Client) SupportsMultiterm() bool {
	return false
}

// GetTerm is unsupported, the portal only ever serves the current term.
// Callers fall back to the stored term record.
func (c *Client) GetTerm(ctx context.Context, sc portal.SignInContext, graceDays int) (schedule.Term, error) {
	return schedule.Term{}, portal.ErrMultitermUnsupported
}

func decodeGBK(body string) (string, error) {
	return simplifiedchinese.GBK.NewDecoder().String(body)
}
