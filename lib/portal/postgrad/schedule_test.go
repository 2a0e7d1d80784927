package postgrad

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/DL444/cqu-schedule/lib/cookiejar"
	"github.com/DL444/cqu-schedule/lib/portal"

	"github.com/stretchr/testify/require"
)

// builds a 6-row table: weekday header plus 5 period bands, each with a
// band label cell and 7 day cells
func gridPage(cells map[int]string) string {
	var b strings.Builder
	b.WriteString(`<html><body><table>`)
	b.WriteString(`<tr><th></th><th>一</th><th>二</th><th>三</th><th>四</th><th>五</th><th>六</th><th>日</th></tr>`)
	for row := 0; row < 5; row++ {
		b.WriteString(`<tr><td>band</td>`)
		for col := 0; col < 7; col++ {
			b.WriteString("<td>")
			b.WriteString(cells[row*7+col])
			b.WriteString("</td>")
		}
		b.WriteString("</tr>")
	}
	b.WriteString(`</table></body></html>`)
	return b.String()
}

func TestParseGrid(t *testing.T) {
	page := gridPage(map[int]string{
		// row 0, wednesday
		2: `名称:高级算法 周次:3-16 节次:3-4 教师:张三 教室:D1-3305`,
		// row 2, monday, two stacked courses, one on a platform
		14: `名称:矩阵论 周次:3-5 9 节次:5-6 教师:李四 平台:腾讯会议 名称:组合数学 周次:4 节次:5-6`,
	})

	out, err := parseGrid("202112345678", page)
	require.NoError(t, err)

	// 高级算法 runs weeks 3..16, 矩阵论 adds 3,4,5,9, 组合数学 adds 4
	require.Len(t, out.Weeks, 14)
	require.Equal(t, 3, out.Weeks[0].WeekNumber)

	var algo, matrix, comb int
	for _, week := range out.Weeks {
		for _, e := range week.Entries {
			switch e.Name {
			case "高级算法":
				algo++
				require.Equal(t, 3, e.DayOfWeek)
				require.Equal(t, 3, e.StartSession)
				require.Equal(t, 4, e.EndSession)
				require.Equal(t, "张三", e.Lecturer)
				require.Equal(t, "D1-3305", e.Room)
				require.Equal(t, "3305", e.SimplifiedRoom)
			case "矩阵论":
				matrix++
				require.Equal(t, 1, e.DayOfWeek)
				require.Equal(t, "李四", e.Lecturer)
				require.Equal(t, "腾讯会议", e.Room)
			case "组合数学":
				comb++
				require.Equal(t, 1, e.DayOfWeek)
				require.Equal(t, 5, e.StartSession)
				require.Equal(t, 6, e.EndSession)
				require.Empty(t, e.Lecturer)
			}
		}
	}
	require.Equal(t, 14, algo)
	require.Equal(t, 4, matrix)
	require.Equal(t, 1, comb)
}

func TestParseGridEmptyCells(t *testing.T) {
	out, err := parseGrid("202112345678", gridPage(nil))
	require.NoError(t, err)
	require.Empty(t, out.Weeks)
}

func TestParseGridWrongCellCount(t *testing.T) {
	page := `<html><table><tr><th>h</th></tr><tr><td>band</td><td>x</td></tr></table></html>`
	_, err := parseGrid("202112345678", page)
	var upErr portal.UpstreamError
	require.ErrorAs(t, err, &upErr)
}

func TestParseGridMissingFields(t *testing.T) {
	page := gridPage(map[int]string{0: `名称:残缺课程 教师:张三`})
	_, err := parseGrid("202112345678", page)
	require.ErrorIs(t, err, portal.ErrUnexpectedFormat)
}

func TestGetSchedule(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/mis/curricula/show_stu.jsp", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "98765", r.URL.Query().Get("stuSerial"))
		require.Contains(t, r.Header.Get("Cookie"), "JSESSIONID=deadbeef")
		w.Write(gbk(t, gridPage(map[int]string{
			6: `名称:随机过程 周次:1-8 节次:9-10 教师:王五`,
		})))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	jarURL, err := url.Parse(srv.URL + "/mis/curricula/show_stu.jsp")
	require.NoError(t, err)
	jar := cookiejar.New()
	jar.SetCookies(jarURL, "JSESSIONID=deadbeef; Path=/mis")

	sc := portal.PostgradContext{StudentSerial: "98765", Jar: jar}
	out, err := testClient(srv.URL).GetSchedule(context.Background(), "202112345678", "", sc)
	require.NoError(t, err)

	require.Len(t, out.Weeks, 8)
	entry := out.Weeks[0].Entries[0]
	require.Equal(t, "随机过程", entry.Name)
	require.Equal(t, 7, entry.DayOfWeek)
	require.Equal(t, 9, entry.StartSession)
	require.Equal(t, 10, entry.EndSession)
	require.Empty(t, out.Exams)
}

func TestGetScheduleRejectsForeignContext(t *testing.T) {
	_, err := New().GetSchedule(context.Background(), "202112345678", "", portal.UndergradContext{Token: "tok"})
	require.ErrorIs(t, err, portal.ErrForeignContext)
}

func TestGetTermUnsupported(t *testing.T) {
	_, err := New().GetTerm(context.Background(), portal.PostgradContext{}, 0)
	require.ErrorIs(t, err, portal.ErrMultitermUnsupported)
}
