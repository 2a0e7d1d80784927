package undergrad

type timetableResponse struct {
	Status  string           `json:"status"`
	Message string           `json:"msg"`
	Data    []timetableEntry `json:"data"`
}

type timetableEntry struct {
	Name      string           `json:"courseName"`
	Room      string           `json:"roomName"`
	Weeks     string           `json:"teachingWeek"`
	DayOfWeek string           `json:"weekDay"`
	Session   string           `json:"period"`
	ClassType string           `json:"classType"`
	Lecturers []instructorInfo `json:"classTimetableInstrVOList"`
}

type instructorInfo struct {
	Lecturer string `json:"instructorName"`
}

type examListResponse struct {
	Status  string       `json:"status"`
	Message string       `json:"msg"`
	Data    examListData `json:"data"`
}

type examListData struct {
	Content    []examEntry `json:"content"`
	TotalPages int         `json:"totalPages"`
}

type examEntry struct {
	Name      string `json:"courseName"`
	Room      string `json:"roomName"`
	Seat      int    `json:"seatNum"`
	Date      string `json:"examDate"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

type termListResponse struct {
	CurrentTermId string          `json:"curSessionId"`
	Terms         []termListEntry `json:"sessionFinder"`
}

type termListEntry struct {
	Id string `json:"id"`
}

type termDetailResponse struct {
	Status  string         `json:"status"`
	Message string         `json:"msg"`
	Data    termDetailData `json:"data"`
}

type termDetailData struct {
	StartDate string `json:"beginDate"`
	EndDate   string `json:"endDate"`
}
