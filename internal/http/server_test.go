package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"registro/attendance/internal/auth"
	"registro/attendance/internal/config"
	"registro/attendance/internal/model"
)

var testNow = time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)

func fixedNow() time.Time { return testNow }

const testSecret = "test-secret"

// Fakes

type fakeDirectory struct {
	classrooms []model.Classroom
	meetings   []model.Meeting
	students   map[string][]model.Student
	staff      map[string]model.Staff
}

func (f *fakeDirectory) ListClassrooms(_ context.Context, activeOnly bool) ([]model.Classroom, error) {
	if !activeOnly {
		return f.classrooms, nil
	}
	var active []model.Classroom
	for _, classroom := range f.classrooms {
		if classroom.Active {
			active = append(active, classroom)
		}
	}
	return active, nil
}

func (f *fakeDirectory) ListMeetings(_ context.Context) ([]model.Meeting, error) {
	return f.meetings, nil
}

func (f *fakeDirectory) ListStudents(_ context.Context, classroomID string) ([]model.Student, error) {
	return f.students[classroomID], nil
}

func (f *fakeDirectory) GetStaff(_ context.Context, staffID string) (model.Staff, error) {
	staff, ok := f.staff[staffID]
	if !ok {
		return model.Staff{}, model.ErrNotAuthorized
	}
	return staff, nil
}

type fakeDailyStore struct {
	rows map[string]model.Observation[model.DailyStatus]
	err  error
}

func dailyKey(obs model.Observation[model.DailyStatus]) string {
	return obs.SubjectID + "|" + obs.PersonID + "|" + obs.Date.Format(model.DayFormat)
}

func (f *fakeDailyStore) Fetch(_ context.Context, subjectID string, from, to time.Time) ([]model.Observation[model.DailyStatus], error) {
	if f.err != nil {
		return nil, f.err
	}
	var result []model.Observation[model.DailyStatus]
	for _, obs := range f.rows {
		if obs.SubjectID == subjectID && !obs.Date.Before(from) && !obs.Date.After(to) {
			result = append(result, obs)
		}
	}
	return result, nil
}

func (f *fakeDailyStore) Upsert(_ context.Context, observations []model.Observation[model.DailyStatus]) error {
	if f.err != nil {
		return f.err
	}
	for _, obs := range observations {
		f.rows[dailyKey(obs)] = obs
	}
	return nil
}

func (f *fakeDailyStore) MarkedDates(_ context.Context, classroomID string, year int, month time.Month) ([]time.Time, error) {
	if f.err != nil {
		return nil, f.err
	}
	seen := make(map[time.Time]struct{})
	for _, obs := range f.rows {
		if obs.SubjectID == classroomID && obs.Date.Year() == year && obs.Date.Month() == month {
			seen[obs.Date] = struct{}{}
		}
	}
	var dates []time.Time
	for date := range seen {
		dates = append(dates, date)
	}
	return dates, nil
}

type fakeMeetingStore struct {
	rows map[string]model.Observation[model.MeetingStatus]
}

func (f *fakeMeetingStore) Fetch(_ context.Context, subjectID string, from, to time.Time) ([]model.Observation[model.MeetingStatus], error) {
	var result []model.Observation[model.MeetingStatus]
	for _, obs := range f.rows {
		if obs.SubjectID == subjectID && !obs.Date.Before(from) && !obs.Date.After(to) {
			result = append(result, obs)
		}
	}
	return result, nil
}

func (f *fakeMeetingStore) Upsert(_ context.Context, observations []model.Observation[model.MeetingStatus]) error {
	for _, obs := range observations {
		f.rows[obs.SubjectID+"|"+obs.PersonID] = obs
	}
	return nil
}

// Fixture

type testEnv struct {
	router       http.Handler
	dailyStore   *fakeDailyStore
	meetingStore *fakeMeetingStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	directory := &fakeDirectory{
		classrooms: []model.Classroom{
			{ID: "C1", Name: "3rd A", Level: model.LevelPrimary, Enrolled: 2, Active: true},
			{ID: "C2", Name: "3rd B", Level: model.LevelPrimary, Enrolled: 3, Active: true},
			{ID: "C3", Name: "1st A", Level: model.LevelSecondary, Enrolled: 4, Active: false},
		},
		meetings: []model.Meeting{
			{ID: "M1", ClassroomID: "C1", Title: "First bimester review", ScheduledOn: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)},
			{ID: "M2", ClassroomID: "C2", Title: "First bimester review", ScheduledOn: time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)},
		},
		students: map[string][]model.Student{
			"C1": {
				{ID: "S1", DisplayName: "Ana Quispe", IdentityNumber: "70011223"},
				{ID: "S2", DisplayName: "Luis Mamani", IdentityNumber: "70044556"},
			},
		},
		staff: map[string]model.Staff{
			"T1": {ID: "T1", Name: "Ms Rivera", Role: model.RoleTeacher, Assignments: []model.Assignment{{ClassroomID: "C1"}}},
			"A1": {ID: "A1", Name: "Mr Soto", Role: model.RoleAdmin},
		},
	}
	dailyStore := &fakeDailyStore{rows: make(map[string]model.Observation[model.DailyStatus])}
	meetingStore := &fakeMeetingStore{rows: make(map[string]model.Observation[model.MeetingStatus])}

	cfg := config.Config{JWTSecret: testSecret, JWTIssuer: "registro-auth"}
	server := NewServerWithClock(cfg, directory, dailyStore, meetingStore, fixedNow)
	return &testEnv{router: server.Router(), dailyStore: dailyStore, meetingStore: meetingStore}
}

func token(t *testing.T, userID, name, role string) string {
	t.Helper()
	signed, err := auth.NewAccessToken(testSecret, "registro-auth", time.Hour, auth.Claims{
		UserID:   userID,
		Name:     name,
		UserRole: role,
	})
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func (e *testEnv) do(t *testing.T, method, target, bearer string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var payload T
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v (%s)", err, rec.Body.String())
	}
	return payload
}

func expectError(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("expected %d, got %d (%s)", status, rec.Code, rec.Body.String())
	}
	payload := decodeBody[map[string]string](t, rec)
	if payload["error"] != code {
		t.Fatalf("expected error %q, got %q", code, payload["error"])
	}
}

// Tests

func TestMissingTokenRejected(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/classrooms", "", nil)
	expectError(t, rec, http.StatusUnauthorized, "missing_token")
}

func TestInvalidTokenRejected(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/classrooms", "not-a-jwt", nil)
	expectError(t, rec, http.StatusUnauthorized, "invalid_token")
}

func TestUnknownStaffRejected(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/classrooms", token(t, "GHOST", "Nobody", "teacher"), nil)
	expectError(t, rec, http.StatusForbidden, "not_authorized")
}

func TestTeacherSeesOnlyAssignedClassrooms(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/classrooms", token(t, "T1", "Ms Rivera", "teacher"), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	classrooms := decodeBody[[]classroomResponse](t, rec)
	if len(classrooms) != 1 || classrooms[0].ID != "C1" {
		t.Fatalf("expected only C1, got %+v", classrooms)
	}
}

func TestAdminSeesAllActiveClassrooms(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/classrooms", token(t, "A1", "Mr Soto", "admin"), nil)
	classrooms := decodeBody[[]classroomResponse](t, rec)
	if len(classrooms) != 2 {
		t.Fatalf("expected C1 and C2, got %+v", classrooms)
	}
}

func TestTeacherCannotTouchOtherClassroom(t *testing.T) {
	env := newTestEnv(t)
	bearer := token(t, "T1", "Ms Rivera", "teacher")
	rec := env.do(t, http.MethodGet, "/classrooms/C2/attendance", bearer, nil)
	expectError(t, rec, http.StatusForbidden, "not_authorized")
}

func TestUnknownClassroomIs404(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/classrooms/NOPE/attendance", token(t, "A1", "Mr Soto", "admin"), nil)
	expectError(t, rec, http.StatusNotFound, "classroom_not_found")
}

func TestUnrecordedDateYieldsEmptySet(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/classrooms/C1/attendance", token(t, "T1", "Ms Rivera", "teacher"), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	set := decodeBody[attendanceSetResponse](t, rec)
	if set.Recorded {
		t.Fatal("expected unrecorded set")
	}
	if set.Date != "2024-03-15" {
		t.Fatalf("expected today's date, got %s", set.Date)
	}
	if len(set.Entries) != 0 {
		t.Fatalf("expected no entries, got %+v", set.Entries)
	}
}

func TestSaveThenLoadAndDayReport(t *testing.T) {
	env := newTestEnv(t)
	bearer := token(t, "T1", "Ms Rivera", "teacher")

	rec := env.do(t, http.MethodPut, "/classrooms/C1/attendance", bearer, saveAttendanceRequest{
		Date: "2024-03-14",
		Entries: []attendanceEntry{
			{StudentID: "S1", Status: "present"},
			{StudentID: "S2", Status: "absent", Note: "sick"},
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	saved := decodeBody[attendanceSetResponse](t, rec)
	if !saved.Recorded || saved.RecordedBy != "Ms Rivera" {
		t.Fatalf("expected provenance stamped, got %+v", saved)
	}

	rec = env.do(t, http.MethodGet, "/classrooms/C1/attendance?date=2024-03-14", bearer, nil)
	set := decodeBody[attendanceSetResponse](t, rec)
	if len(set.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %+v", set.Entries)
	}
	if set.Entries[1].StudentID != "S2" || set.Entries[1].Note != "sick" {
		t.Fatalf("expected S2 note to survive, got %+v", set.Entries[1])
	}

	rec = env.do(t, http.MethodGet, "/classrooms/C1/report?range=day&start=2024-03-14", bearer, nil)
	report := decodeBody[dayReportResponse](t, rec)
	if report.Present != 1 || report.Absent != 1 || report.Percentage != 50.0 {
		t.Fatalf("expected 1/1 at 50.0, got %+v", report)
	}
}

func TestResaveOverwritesPriorRecord(t *testing.T) {
	env := newTestEnv(t)
	bearer := token(t, "T1", "Ms Rivera", "teacher")

	first := saveAttendanceRequest{Date: "2024-03-14", Entries: []attendanceEntry{
		{StudentID: "S1", Status: "absent"},
		{StudentID: "S2", Status: "absent"},
	}}
	if rec := env.do(t, http.MethodPut, "/classrooms/C1/attendance", bearer, first); rec.Code != http.StatusOK {
		t.Fatalf("first save failed: %d (%s)", rec.Code, rec.Body.String())
	}

	second := saveAttendanceRequest{Date: "2024-03-14", Entries: []attendanceEntry{
		{StudentID: "S1", Status: "justified", Note: "medical certificate"},
		{StudentID: "S2", Status: "present"},
	}}
	if rec := env.do(t, http.MethodPut, "/classrooms/C1/attendance", bearer, second); rec.Code != http.StatusOK {
		t.Fatalf("second save failed: %d (%s)", rec.Code, rec.Body.String())
	}

	if len(env.dailyStore.rows) != 2 {
		t.Fatalf("expected 2 rows after correction, got %d", len(env.dailyStore.rows))
	}
	rec := env.do(t, http.MethodGet, "/classrooms/C1/attendance?date=2024-03-14", bearer, nil)
	set := decodeBody[attendanceSetResponse](t, rec)
	if set.Entries[0].Status != "justified" || set.Entries[1].Status != "present" {
		t.Fatalf("expected corrected statuses, got %+v", set.Entries)
	}
}

func TestSaveEmptySetRejected(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPut, "/classrooms/C1/attendance", token(t, "T1", "Ms Rivera", "teacher"), saveAttendanceRequest{Date: "2024-03-14"})
	expectError(t, rec, http.StatusUnprocessableEntity, "empty_observation_set")
}

func TestSaveFutureDateRejected(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPut, "/classrooms/C1/attendance", token(t, "T1", "Ms Rivera", "teacher"), saveAttendanceRequest{
		Date:    "2024-03-16",
		Entries: []attendanceEntry{{StudentID: "S1", Status: "present"}},
	})
	expectError(t, rec, http.StatusUnprocessableEntity, "invalid_date")
}

func TestGetFutureDateRejected(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/classrooms/C1/attendance?date=2024-03-16", token(t, "T1", "Ms Rivera", "teacher"), nil)
	expectError(t, rec, http.StatusUnprocessableEntity, "invalid_date")
}

func TestSaveInvalidStatusRejected(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPut, "/classrooms/C1/attendance", token(t, "T1", "Ms Rivera", "teacher"), saveAttendanceRequest{
		Date:    "2024-03-14",
		Entries: []attendanceEntry{{StudentID: "S1", Status: "napping"}},
	})
	expectError(t, rec, http.StatusBadRequest, "invalid_status")
}

func TestAllPresentFillsRosterThenOverrides(t *testing.T) {
	env := newTestEnv(t)
	bearer := token(t, "T1", "Ms Rivera", "teacher")
	rec := env.do(t, http.MethodPut, "/classrooms/C1/attendance", bearer, saveAttendanceRequest{
		Date:       "2024-03-14",
		AllPresent: true,
		Entries:    []attendanceEntry{{StudentID: "S2", Status: "late"}},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	set := decodeBody[attendanceSetResponse](t, rec)
	if len(set.Entries) != 2 {
		t.Fatalf("expected full roster, got %+v", set.Entries)
	}
	if set.Entries[0].Status != "present" || set.Entries[1].Status != "late" {
		t.Fatalf("expected S1 present and S2 late, got %+v", set.Entries)
	}
}

func TestMarkedDatesListSavedDays(t *testing.T) {
	env := newTestEnv(t)
	bearer := token(t, "T1", "Ms Rivera", "teacher")
	for _, date := range []string{"2024-03-12", "2024-03-14"} {
		rec := env.do(t, http.MethodPut, "/classrooms/C1/attendance", bearer, saveAttendanceRequest{
			Date:    date,
			Entries: []attendanceEntry{{StudentID: "S1", Status: "present"}},
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("save %s failed: %d (%s)", date, rec.Code, rec.Body.String())
		}
	}

	rec := env.do(t, http.MethodGet, "/classrooms/C1/attendance/dates?year=2024&month=3", bearer, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	payload := decodeBody[map[string][]string](t, rec)
	if len(payload["dates"]) != 2 {
		t.Fatalf("expected 2 marked dates, got %+v", payload["dates"])
	}
}

func TestMarkedDatesDefaultToCurrentMonth(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/classrooms/C1/attendance/dates", token(t, "T1", "Ms Rivera", "teacher"), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
}

func TestMarkedDatesRejectMalformedMonth(t *testing.T) {
	env := newTestEnv(t)
	bearer := token(t, "T1", "Ms Rivera", "teacher")
	for _, target := range []string{
		"/classrooms/C1/attendance/dates?year=2024&month=13",
		"/classrooms/C1/attendance/dates?year=twenty&month=3",
		"/classrooms/C1/attendance/dates?month=3",
	} {
		rec := env.do(t, http.MethodGet, target, bearer, nil)
		expectError(t, rec, http.StatusBadRequest, "invalid_request")
	}
}

func TestStoreFailureMapsToServiceUnavailable(t *testing.T) {
	env := newTestEnv(t)
	env.dailyStore.err = fmt.Errorf("%w: fetch attendance: connection refused", model.ErrStoreUnavailable)
	bearer := token(t, "T1", "Ms Rivera", "teacher")

	rec := env.do(t, http.MethodGet, "/classrooms/C1/attendance", bearer, nil)
	expectError(t, rec, http.StatusServiceUnavailable, "store_unavailable")

	rec = env.do(t, http.MethodPut, "/classrooms/C1/attendance", bearer, saveAttendanceRequest{
		Date:    "2024-03-14",
		Entries: []attendanceEntry{{StudentID: "S1", Status: "present"}},
	})
	expectError(t, rec, http.StatusServiceUnavailable, "store_unavailable")
}

func TestClassroomRangeReport(t *testing.T) {
	env := newTestEnv(t)
	bearer := token(t, "T1", "Ms Rivera", "teacher")
	days := []string{"2024-03-11", "2024-03-12", "2024-03-13"}
	for i, date := range days {
		status := "present"
		if i == 2 {
			status = "absent"
		}
		rec := env.do(t, http.MethodPut, "/classrooms/C1/attendance", bearer, saveAttendanceRequest{
			Date: date,
			Entries: []attendanceEntry{
				{StudentID: "S1", Status: "present"},
				{StudentID: "S2", Status: status},
			},
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("save %s failed: %d (%s)", date, rec.Code, rec.Body.String())
		}
	}

	rec := env.do(t, http.MethodGet, "/classrooms/C1/report?range=week&start=2024-03-11", bearer, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	report := decodeBody[rangeReportResponse](t, rec)
	if report.From != "2024-03-11" || report.To != "2024-03-15" {
		t.Fatalf("expected window clamped to today, got %s..%s", report.From, report.To)
	}
	if len(report.RecordedDates) != 3 {
		t.Fatalf("expected 3 recorded dates, got %+v", report.RecordedDates)
	}
	// 5 present of 2 enrolled × 3 recorded dates.
	if report.Percentage != 83.3 {
		t.Fatalf("expected 83.3, got %v", report.Percentage)
	}
	if len(report.Students) != 2 {
		t.Fatalf("expected 2 students, got %+v", report.Students)
	}
	s2 := report.Students[1]
	if s2.StudentID != "S2" || s2.DaysCounted != 3 || s2.DaysPresent != 2 {
		t.Fatalf("expected S2 at 2/3, got %+v", s2)
	}
	if s2.Completion != 66.7 {
		t.Fatalf("expected completion 66.7, got %v", s2.Completion)
	}
}

func TestBimesterReportCarriesWeekdayAxis(t *testing.T) {
	env := newTestEnv(t)
	bearer := token(t, "A1", "Mr Soto", "admin")
	rec := env.do(t, http.MethodGet, "/classrooms/C1/report?range=bimester&start=2024-03-01", bearer, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	report := decodeBody[rangeReportResponse](t, rec)
	if len(report.Weekdays) == 0 {
		t.Fatal("expected weekday axis on bimester report")
	}
	for _, raw := range report.Weekdays {
		day, err := time.Parse(model.DayFormat, raw)
		if err != nil {
			t.Fatalf("bad weekday %q: %v", raw, err)
		}
		if day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
			t.Fatalf("weekend day %s in axis", raw)
		}
	}
}

func TestCustomReportRequiresEnd(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/classrooms/C1/report?range=custom&start=2024-03-01", token(t, "A1", "Mr Soto", "admin"), nil)
	expectError(t, rec, http.StatusBadRequest, "missing_end")
}

func TestReportRejectsUnknownRange(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/classrooms/C1/report?range=decade&start=2024-03-01", token(t, "A1", "Mr Soto", "admin"), nil)
	expectError(t, rec, http.StatusBadRequest, "invalid_range")
}

func TestMeetingsListFilteredByVisibility(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/meetings", token(t, "T1", "Ms Rivera", "teacher"), nil)
	meetings := decodeBody[[]meetingResponse](t, rec)
	if len(meetings) != 1 || meetings[0].ID != "M1" {
		t.Fatalf("expected only M1, got %+v", meetings)
	}
}

func TestMeetingSaveAndReport(t *testing.T) {
	env := newTestEnv(t)
	bearer := token(t, "T1", "Ms Rivera", "teacher")

	rec := env.do(t, http.MethodPut, "/meetings/M1/attendance", bearer, saveMeetingRequest{
		Entries: []meetingEntry{
			{StudentID: "S1", Attended: true, FamilyMember: "mother"},
			{StudentID: "S2", Attended: false},
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	set := decodeBody[meetingSetResponse](t, rec)
	if set.Date != "2024-03-10" {
		t.Fatalf("expected meeting date, got %s", set.Date)
	}
	if set.Entries[0].FamilyMember != "mother" || set.Entries[1].Attended {
		t.Fatalf("expected S1 mother and S2 absent, got %+v", set.Entries)
	}

	rec = env.do(t, http.MethodGet, "/meetings/M1/report", bearer, nil)
	report := decodeBody[dayReportResponse](t, rec)
	if report.Present != 1 || report.Absent != 1 || report.Percentage != 50.0 {
		t.Fatalf("expected 1/1 at 50.0, got %+v", report)
	}
}

func TestMeetingSaveValidatesFamilyMember(t *testing.T) {
	env := newTestEnv(t)
	bearer := token(t, "T1", "Ms Rivera", "teacher")

	rec := env.do(t, http.MethodPut, "/meetings/M1/attendance", bearer, saveMeetingRequest{
		Entries: []meetingEntry{{StudentID: "S1", Attended: true, FamilyMember: "uncle"}},
	})
	expectError(t, rec, http.StatusBadRequest, "invalid_family_member")

	rec = env.do(t, http.MethodPut, "/meetings/M1/attendance", bearer, saveMeetingRequest{
		Entries: []meetingEntry{{StudentID: "S1", Attended: true, FamilyMember: "other"}},
	})
	expectError(t, rec, http.StatusBadRequest, "missing_family_member_name")
}

func TestMeetingVisibilityEnforced(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/meetings/M2/attendance", token(t, "T1", "Ms Rivera", "teacher"), nil)
	expectError(t, rec, http.StatusForbidden, "not_authorized")
}

func TestHealthIsOpen(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestMetricsIsOpen(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/metrics", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
