package timezone

import "time"

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("Asia/Shanghai")
	if err != nil {
		panic(err)
	}
}

// force the timezone to Chongqing because the portals emit naive
// local dates and our servers are not guaranteed to run in UTC+8,
// which would skew everything derived from Year()/Month()/Day()
func Now() time.Time {
	return time.Now().In(Location)
}
