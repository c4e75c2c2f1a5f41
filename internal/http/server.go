package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"registro/attendance/internal/auth"
	"registro/attendance/internal/calendar"
	"registro/attendance/internal/config"
	"registro/attendance/internal/ledger"
	"registro/attendance/internal/model"
	"registro/attendance/internal/report"
	"registro/attendance/internal/visibility"
)

// Directory serves the reference data behind the visibility filter and the
// rosters that attendance sets are built from.
type Directory interface {
	ListClassrooms(ctx context.Context, activeOnly bool) ([]model.Classroom, error)
	ListMeetings(ctx context.Context) ([]model.Meeting, error)
	ListStudents(ctx context.Context, classroomID string) ([]model.Student, error)
	GetStaff(ctx context.Context, staffID string) (model.Staff, error)
}

// DailyStore is the daily attendance slice of the record store, including the
// marked-dates projection that drives retroactive navigation.
type DailyStore interface {
	ledger.Store[model.DailyStatus]
	MarkedDates(ctx context.Context, classroomID string, year int, month time.Month) ([]time.Time, error)
}

type Server struct {
	cfg           config.Config
	directory     Directory
	dailyStore    DailyStore
	daily         *ledger.Ledger[model.DailyStatus]
	meetings      *ledger.Ledger[model.MeetingStatus]
	dailyReport   *report.Engine[model.DailyStatus]
	meetingReport *report.Engine[model.MeetingStatus]
	now           func() time.Time
}

func NewServer(cfg config.Config, directory Directory, dailyStore DailyStore, meetingStore ledger.Store[model.MeetingStatus]) *Server {
	return NewServerWithClock(cfg, directory, dailyStore, meetingStore, time.Now)
}

func NewServerWithClock(cfg config.Config, directory Directory, dailyStore DailyStore, meetingStore ledger.Store[model.MeetingStatus], now func() time.Time) *Server {
	return &Server{
		cfg:           cfg,
		directory:     directory,
		dailyStore:    dailyStore,
		daily:         ledger.NewWithClock[model.DailyStatus](dailyStore, now),
		meetings:      ledger.NewWithClock[model.MeetingStatus](meetingStore, now),
		dailyReport:   report.NewWithClock[model.DailyStatus](dailyStore, now),
		meetingReport: report.NewWithClock[model.MeetingStatus](meetingStore, now),
		now:           now,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(s.metricsMiddleware, s.authMiddleware)
		r.Get("/classrooms", s.handleListClassrooms)
		r.Get("/classrooms/{classroomId}/students", s.handleListStudents)
		r.Get("/classrooms/{classroomId}/attendance", s.handleGetAttendance)
		r.Put("/classrooms/{classroomId}/attendance", s.handleSaveAttendance)
		r.Get("/classrooms/{classroomId}/attendance/dates", s.handleMarkedDates)
		r.Get("/classrooms/{classroomId}/report", s.handleClassroomReport)
		r.Get("/meetings", s.handleListMeetings)
		r.Get("/meetings/{meetingId}/attendance", s.handleGetMeetingAttendance)
		r.Put("/meetings/{meetingId}/attendance", s.handleSaveMeetingAttendance)
		r.Get("/meetings/{meetingId}/report", s.handleMeetingReport)
	})

	return r
}

// Auth

type claimsKey struct{}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r.Header.Get("Authorization"))
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing_token")
			return
		}
		claims, err := auth.ParseToken(s.cfg.JWTSecret, token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid_token")
			return
		}
		ctx := context.WithValue(r.Context(), claimsKey{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func claimsFromContext(ctx context.Context) *auth.Claims {
	value := ctx.Value(claimsKey{})
	claims, _ := value.(*auth.Claims)
	return claims
}

// staffFromRequest resolves the caller's staff identity from the store; role
// and assignments always come from the directory, never from the token.
func (s *Server) staffFromRequest(w http.ResponseWriter, r *http.Request) (model.Staff, bool) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return model.Staff{}, false
	}
	staff, err := s.directory.GetStaff(r.Context(), claims.UserID)
	if err != nil {
		s.writeDomainError(w, err)
		return model.Staff{}, false
	}
	return staff, true
}

// classroomFromRequest loads the classroom named in the route and enforces
// the visibility filter on it.
func (s *Server) classroomFromRequest(w http.ResponseWriter, r *http.Request, staff model.Staff) (model.Classroom, bool) {
	classroomID := chi.URLParam(r, "classroomId")
	if classroomID == "" {
		writeError(w, http.StatusBadRequest, "missing_classroom")
		return model.Classroom{}, false
	}
	classrooms, err := s.directory.ListClassrooms(r.Context(), false)
	if err != nil {
		s.writeDomainError(w, err)
		return model.Classroom{}, false
	}
	for _, classroom := range classrooms {
		if classroom.ID == classroomID {
			if !visibility.CanAccess(staff, classroom) {
				writeError(w, http.StatusForbidden, "not_authorized")
				return model.Classroom{}, false
			}
			return classroom, true
		}
	}
	writeError(w, http.StatusNotFound, "classroom_not_found")
	return model.Classroom{}, false
}

func (s *Server) meetingFromRequest(w http.ResponseWriter, r *http.Request, staff model.Staff) (model.Meeting, bool) {
	meetingID := chi.URLParam(r, "meetingId")
	if meetingID == "" {
		writeError(w, http.StatusBadRequest, "missing_meeting")
		return model.Meeting{}, false
	}
	meetings, err := s.directory.ListMeetings(r.Context())
	if err != nil {
		s.writeDomainError(w, err)
		return model.Meeting{}, false
	}
	for _, meeting := range meetings {
		if meeting.ID != meetingID {
			continue
		}
		classrooms, err := s.directory.ListClassrooms(r.Context(), false)
		if err != nil {
			s.writeDomainError(w, err)
			return model.Meeting{}, false
		}
		for _, classroom := range classrooms {
			if classroom.ID == meeting.ClassroomID {
				if !visibility.CanAccess(staff, classroom) {
					writeError(w, http.StatusForbidden, "not_authorized")
					return model.Meeting{}, false
				}
				return meeting, true
			}
		}
		writeError(w, http.StatusNotFound, "classroom_not_found")
		return model.Meeting{}, false
	}
	writeError(w, http.StatusNotFound, "meeting_not_found")
	return model.Meeting{}, false
}

// Models

type classroomResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Level    string `json:"level"`
	Enrolled int    `json:"enrolled"`
	Active   bool   `json:"active"`
}

type studentResponse struct {
	ID             string `json:"id"`
	DisplayName    string `json:"display_name"`
	IdentityNumber string `json:"identity_number"`
}

type attendanceEntry struct {
	StudentID string `json:"student_id"`
	Status    string `json:"status"`
	Note      string `json:"note,omitempty"`
}

type attendanceSetResponse struct {
	ClassroomID string            `json:"classroom_id"`
	Date        string            `json:"date"`
	Recorded    bool              `json:"recorded"`
	RecordedBy  string            `json:"recorded_by,omitempty"`
	RecordedAt  int64             `json:"recorded_at,omitempty"`
	Entries     []attendanceEntry `json:"entries"`
}

type saveAttendanceRequest struct {
	Date       string            `json:"date"`
	AllPresent bool              `json:"all_present"`
	Entries    []attendanceEntry `json:"entries"`
}

type meetingResponse struct {
	ID          string `json:"id"`
	ClassroomID string `json:"classroom_id"`
	Title       string `json:"title"`
	ScheduledOn string `json:"scheduled_on"`
}

type meetingEntry struct {
	StudentID    string `json:"student_id"`
	Attended     bool   `json:"attended"`
	FamilyMember string `json:"family_member,omitempty"`
	OtherName    string `json:"other_family_member_name,omitempty"`
}

type meetingSetResponse struct {
	MeetingID  string         `json:"meeting_id"`
	Date       string         `json:"date"`
	Recorded   bool           `json:"recorded"`
	RecordedBy string         `json:"recorded_by,omitempty"`
	RecordedAt int64          `json:"recorded_at,omitempty"`
	Entries    []meetingEntry `json:"entries"`
}

type saveMeetingRequest struct {
	Entries []meetingEntry `json:"entries"`
}

type dayReportResponse struct {
	SubjectID  string  `json:"subject_id"`
	Date       string  `json:"date"`
	Present    int     `json:"present"`
	Absent     int     `json:"absent"`
	Percentage float64 `json:"percentage"`
}

type personStatsResponse struct {
	StudentID   string  `json:"student_id"`
	DaysCounted int     `json:"days_counted"`
	DaysPresent int     `json:"days_present"`
	Completion  float64 `json:"completion"`
}

type rangeReportResponse struct {
	ClassroomID   string                `json:"classroom_id"`
	Range         string                `json:"range"`
	From          string                `json:"from"`
	To            string                `json:"to"`
	RecordedDates []string              `json:"recorded_dates"`
	Present       int                   `json:"present"`
	Absent        int                   `json:"absent"`
	Percentage    float64               `json:"percentage"`
	Students      []personStatsResponse `json:"students"`
	Weekdays      []string              `json:"weekdays,omitempty"`
}

// Handlers

func (s *Server) handleListClassrooms(w http.ResponseWriter, r *http.Request) {
	staff, ok := s.staffFromRequest(w, r)
	if !ok {
		return
	}
	classrooms, err := s.directory.ListClassrooms(r.Context(), true)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	visible := visibility.VisibleClassrooms(staff, classrooms)
	resp := make([]classroomResponse, 0, len(visible))
	for _, classroom := range visible {
		resp = append(resp, mapClassroom(classroom))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListStudents(w http.ResponseWriter, r *http.Request) {
	staff, ok := s.staffFromRequest(w, r)
	if !ok {
		return
	}
	classroom, ok := s.classroomFromRequest(w, r, staff)
	if !ok {
		return
	}
	students, err := s.directory.ListStudents(r.Context(), classroom.ID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	resp := make([]studentResponse, 0, len(students))
	for _, student := range students {
		resp = append(resp, studentResponse{
			ID:             student.ID,
			DisplayName:    student.DisplayName,
			IdentityNumber: student.IdentityNumber,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetAttendance(w http.ResponseWriter, r *http.Request) {
	staff, ok := s.staffFromRequest(w, r)
	if !ok {
		return
	}
	classroom, ok := s.classroomFromRequest(w, r, staff)
	if !ok {
		return
	}

	cursor := calendar.NewCursor(s.now())
	if raw := r.URL.Query().Get("date"); raw != "" {
		date, err := time.Parse(model.DayFormat, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date")
			return
		}
		if err := cursor.Pick(date); err != nil {
			s.writeDomainError(w, err)
			return
		}
	}

	set, err := s.daily.Load(r.Context(), classroom.ID, cursor.Current())
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapAttendanceSet(set))
}

func (s *Server) handleSaveAttendance(w http.ResponseWriter, r *http.Request) {
	staff, ok := s.staffFromRequest(w, r)
	if !ok {
		return
	}
	classroom, ok := s.classroomFromRequest(w, r, staff)
	if !ok {
		return
	}

	var req saveAttendanceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	date := model.Day(s.now())
	if req.Date != "" {
		parsed, err := time.Parse(model.DayFormat, req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date")
			return
		}
		date = model.Day(parsed)
	}

	set := model.NewObservationSet[model.DailyStatus](classroom.ID, date)
	if req.AllPresent {
		students, err := s.directory.ListStudents(r.Context(), classroom.ID)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		ids := make([]string, 0, len(students))
		for _, student := range students {
			ids = append(ids, student.ID)
		}
		s.daily.MarkAllPresent(set, ids, model.StatusPresent)
	}
	for _, entry := range req.Entries {
		if entry.StudentID == "" {
			writeError(w, http.StatusBadRequest, "missing_student_id")
			return
		}
		status, ok := model.ParseDailyStatus(entry.Status)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_status")
			return
		}
		s.daily.SetStatus(set, entry.StudentID, status, entry.Note)
	}

	saved, err := s.daily.Save(r.Context(), set, staff.Name)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapAttendanceSet(saved))
}

func (s *Server) handleMarkedDates(w http.ResponseWriter, r *http.Request) {
	staff, ok := s.staffFromRequest(w, r)
	if !ok {
		return
	}
	classroom, ok := s.classroomFromRequest(w, r, staff)
	if !ok {
		return
	}

	year, month, present, ok := parseYearMonth(r)
	if present && !ok {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if !present {
		// No explicit month requested: scope to the current month, the same
		// reset the "return to today" transition performs.
		cursor := calendar.NewCursor(s.now())
		year, month = cursor.MonthScope()
	}
	dates, err := s.dailyStore.MarkedDates(r.Context(), classroom.ID, year, month)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	resp := make([]string, 0, len(dates))
	for _, date := range dates {
		resp = append(resp, date.Format(model.DayFormat))
	}
	writeJSON(w, http.StatusOK, map[string]any{"dates": resp})
}

func (s *Server) handleClassroomReport(w http.ResponseWriter, r *http.Request) {
	staff, ok := s.staffFromRequest(w, r)
	if !ok {
		return
	}
	classroom, ok := s.classroomFromRequest(w, r, staff)
	if !ok {
		return
	}

	query, ok := parseReportQuery(w, r)
	if !ok {
		return
	}

	if query.Range == model.RangeDay {
		if _, _, err := report.Bounds(query, s.now()); err != nil {
			s.writeDomainError(w, err)
			return
		}
		stats, err := s.dailyReport.Day(r.Context(), classroom.ID, query.Start)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, dayReportResponse{
			SubjectID:  classroom.ID,
			Date:       model.Day(query.Start).Format(model.DayFormat),
			Present:    stats.Present,
			Absent:     stats.Absent,
			Percentage: stats.Percentage,
		})
		return
	}

	stats, err := s.dailyReport.Range(r.Context(), classroom.ID, query, classroom.Enrolled)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	resp := rangeReportResponse{
		ClassroomID:   classroom.ID,
		Range:         string(query.Range),
		From:          stats.From.Format(model.DayFormat),
		To:            stats.To.Format(model.DayFormat),
		RecordedDates: formatDates(stats.RecordedDates),
		Present:       stats.Present,
		Absent:        stats.Absent,
		Percentage:    stats.Percentage,
		Students:      make([]personStatsResponse, 0, len(stats.Persons)),
	}
	for _, person := range stats.Persons {
		resp.Students = append(resp.Students, personStatsResponse{
			StudentID:   person.PersonID,
			DaysCounted: person.DaysCounted,
			DaysPresent: person.DaysPresent,
			Completion:  person.Completion,
		})
	}
	if query.Range == model.RangeBimester {
		resp.Weekdays = formatDates(report.Weekdays(stats.From, stats.To))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListMeetings(w http.ResponseWriter, r *http.Request) {
	staff, ok := s.staffFromRequest(w, r)
	if !ok {
		return
	}
	meetings, err := s.directory.ListMeetings(r.Context())
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	classrooms, err := s.directory.ListClassrooms(r.Context(), false)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	visible := make(map[string]bool, len(classrooms))
	for _, classroom := range visibility.VisibleClassrooms(staff, classrooms) {
		visible[classroom.ID] = true
	}
	resp := make([]meetingResponse, 0, len(meetings))
	for _, meeting := range meetings {
		if !visible[meeting.ClassroomID] {
			continue
		}
		resp = append(resp, meetingResponse{
			ID:          meeting.ID,
			ClassroomID: meeting.ClassroomID,
			Title:       meeting.Title,
			ScheduledOn: meeting.ScheduledOn.Format(model.DayFormat),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetMeetingAttendance(w http.ResponseWriter, r *http.Request) {
	staff, ok := s.staffFromRequest(w, r)
	if !ok {
		return
	}
	meeting, ok := s.meetingFromRequest(w, r, staff)
	if !ok {
		return
	}
	set, err := s.meetings.Load(r.Context(), meeting.ID, meeting.ScheduledOn)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapMeetingSet(set))
}

func (s *Server) handleSaveMeetingAttendance(w http.ResponseWriter, r *http.Request) {
	staff, ok := s.staffFromRequest(w, r)
	if !ok {
		return
	}
	meeting, ok := s.meetingFromRequest(w, r, staff)
	if !ok {
		return
	}

	var req saveMeetingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	set := model.NewObservationSet[model.MeetingStatus](meeting.ID, meeting.ScheduledOn)
	for _, entry := range req.Entries {
		if entry.StudentID == "" {
			writeError(w, http.StatusBadRequest, "missing_student_id")
			return
		}
		status := model.MeetingStatus{Attended: entry.Attended}
		if entry.Attended {
			relation, ok := model.ParseFamilyRelation(entry.FamilyMember)
			if !ok {
				writeError(w, http.StatusBadRequest, "invalid_family_member")
				return
			}
			if relation == model.RelationOther && entry.OtherName == "" {
				writeError(w, http.StatusBadRequest, "missing_family_member_name")
				return
			}
			status.Relation = relation
			if relation == model.RelationOther {
				status.OtherName = entry.OtherName
			}
		}
		s.meetings.SetStatus(set, entry.StudentID, status, "")
	}

	saved, err := s.meetings.Save(r.Context(), set, staff.Name)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapMeetingSet(saved))
}

func (s *Server) handleMeetingReport(w http.ResponseWriter, r *http.Request) {
	staff, ok := s.staffFromRequest(w, r)
	if !ok {
		return
	}
	meeting, ok := s.meetingFromRequest(w, r, staff)
	if !ok {
		return
	}
	stats, err := s.meetingReport.Day(r.Context(), meeting.ID, meeting.ScheduledOn)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dayReportResponse{
		SubjectID:  meeting.ID,
		Date:       meeting.ScheduledOn.Format(model.DayFormat),
		Present:    stats.Present,
		Absent:     stats.Absent,
		Percentage: stats.Percentage,
	})
}

// Mapping

func mapClassroom(classroom model.Classroom) classroomResponse {
	return classroomResponse{
		ID:       classroom.ID,
		Name:     classroom.Name,
		Level:    string(classroom.Level),
		Enrolled: classroom.Enrolled,
		Active:   classroom.Active,
	}
}

func mapAttendanceSet(set *model.ObservationSet[model.DailyStatus]) attendanceSetResponse {
	resp := attendanceSetResponse{
		ClassroomID: set.SubjectID,
		Date:        set.Date.Format(model.DayFormat),
		Recorded:    set.Recorded(),
		RecordedBy:  set.RecordedBy,
		Entries:     make([]attendanceEntry, 0, len(set.Entries)),
	}
	if set.Recorded() {
		resp.RecordedAt = set.RecordedAt.Unix()
	}
	for _, personID := range sortedPersonIDs(set.Entries) {
		obs := set.Entries[personID]
		resp.Entries = append(resp.Entries, attendanceEntry{
			StudentID: obs.PersonID,
			Status:    string(obs.Status),
			Note:      obs.Note,
		})
	}
	return resp
}

func mapMeetingSet(set *model.ObservationSet[model.MeetingStatus]) meetingSetResponse {
	resp := meetingSetResponse{
		MeetingID:  set.SubjectID,
		Date:       set.Date.Format(model.DayFormat),
		Recorded:   set.Recorded(),
		RecordedBy: set.RecordedBy,
		Entries:    make([]meetingEntry, 0, len(set.Entries)),
	}
	if set.Recorded() {
		resp.RecordedAt = set.RecordedAt.Unix()
	}
	for _, personID := range sortedPersonIDs(set.Entries) {
		obs := set.Entries[personID]
		resp.Entries = append(resp.Entries, meetingEntry{
			StudentID:    obs.PersonID,
			Attended:     obs.Status.Attended,
			FamilyMember: string(obs.Status.Relation),
			OtherName:    obs.Status.OtherName,
		})
	}
	return resp
}

func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrEmptyObservationSet):
		writeError(w, http.StatusUnprocessableEntity, "empty_observation_set")
	case errors.Is(err, model.ErrInvalidDate):
		writeError(w, http.StatusUnprocessableEntity, "invalid_date")
	case errors.Is(err, model.ErrNotAuthorized):
		writeError(w, http.StatusForbidden, "not_authorized")
	case errors.Is(err, model.ErrStoreUnavailable):
		writeError(w, http.StatusServiceUnavailable, "store_unavailable")
	default:
		writeError(w, http.StatusInternalServerError, "server_error")
	}
}
