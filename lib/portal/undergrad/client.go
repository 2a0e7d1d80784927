// Package undergrad implements the undergraduate portal: a CAS/OAuth
// style login flow followed by authenticated JSON APIs for timetable,
// exams and term metadata.
package undergrad

import (
	"github.com/DL444/cqu-schedule/lib/redirect"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("cquschedule.lib.portal.undergrad")

type endpoints struct {
	login         string
	ssoLogin      string
	ssoHost       string
	authorize     string
	token         string
	tokenRedirect string
	// landing pages that end the login redirect chain without being
	// fetched, the portal 302s to these on success
	breakouts []string

	tableDetail string
	examList    string
	termList    string
	// takes the term id as its single format argument
	termDetail string
}

func defaultEndpoints() endpoints {
	return endpoints{
		login:         "http://my.cqu.edu.cn/authserver/casLogin?redirect_uri=http%3A%2F%2Fmy.cqu.edu.cn%2Fenroll%2Fcas",
		ssoLogin:      "http://authserver.cqu.edu.cn/authserver/login?service=http://my.cqu.edu.cn/authserver/authentication/cas",
		ssoHost:       "authserver.cqu.edu.cn",
		authorize:     "http://my.cqu.edu.cn/authserver/oauth/authorize?client_id=enroll-prod&response_type=code&scope=all&state=&redirect_uri=http%3A%2F%2Fmy.cqu.edu.cn%2Fenroll%2Ftoken-index",
		token:         "http://my.cqu.edu.cn/authserver/oauth/token",
		tokenRedirect: "http://my.cqu.edu.cn/enroll/token-index",
		breakouts: []string{
			"http://my.cqu.edu.cn/enroll/cas",
			"http://my.cqu.edu.cn/authserver/authentication/cas",
			"http://my.cqu.edu.cn/enroll/token-index",
		},
		tableDetail: "http://my.cqu.edu.cn/api/timetable/class/timetable/student/table-detail",
		examList:    "http://my.cqu.edu.cn/api/exam/examTask/get-student-exam-list-get",
		termList:    "http://my.cqu.edu.cn/api/resourceapi/session/timetable-session",
		termDetail:  "http://my.cqu.edu.cn/api/resourceapi/session/info/%s",
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
	return true
}
