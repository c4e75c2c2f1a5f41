package model

import "time"

type Level string

const (
	LevelInitial   Level = "initial"
	LevelPrimary   Level = "primary"
	LevelSecondary Level = "secondary"
)

type Role string

const (
	RoleAdmin      Role = "admin"
	RoleTeacher    Role = "teacher"
	RoleAuxiliary  Role = "auxiliary"
	RoleSupervisor Role = "supervisor"
	RoleSecretary  Role = "secretary"
)

type Classroom struct {
	ID       string
	Name     string
	Level    Level
	Enrolled int
	Active   bool
}

type Meeting struct {
	ID          string
	ClassroomID string
	Title       string
	ScheduledOn time.Time
}

type Student struct {
	ID             string
	DisplayName    string
	IdentityNumber string
}

// Assignment grants access to either one classroom or a whole level,
// never both at once.
type Assignment struct {
	ClassroomID string
	Level       Level
}

type Staff struct {
	ID          string
	Name        string
	Role        Role
	Assignments []Assignment
}

// Status is the per-kind presence value carried by an Observation. The two
// kinds (daily classroom attendance, parent meeting attendance) only need to
// agree on which bucket an entry falls into for percentage math.
type Status interface {
	PresentEquivalent() bool
}

type DailyStatus string

const (
	StatusPresent   DailyStatus = "present"
	StatusLate      DailyStatus = "late"
	StatusAbsent    DailyStatus = "absent"
	StatusJustified DailyStatus = "justified"
)

func (s DailyStatus) PresentEquivalent() bool {
	return s == StatusPresent || s == StatusLate
}

func ParseDailyStatus(value string) (DailyStatus, bool) {
	switch DailyStatus(value) {
	case StatusPresent, StatusLate, StatusAbsent, StatusJustified:
		return DailyStatus(value), true
	}
	return "", false
}

type FamilyRelation string

const (
	RelationFather FamilyRelation = "father"
	RelationMother FamilyRelation = "mother"
	RelationOther  FamilyRelation = "other"
)

func ParseFamilyRelation(value string) (FamilyRelation, bool) {
	switch FamilyRelation(value) {
	case RelationFather, RelationMother, RelationOther:
		return FamilyRelation(value), true
	}
	return "", false
}

// MeetingStatus records whether anyone attended on behalf of a student and
// who. OtherName is only meaningful when Relation is RelationOther.
type MeetingStatus struct {
	Attended  bool
	Relation  FamilyRelation
	OtherName string
}

func (s MeetingStatus) PresentEquivalent() bool {
	return s.Attended
}

type Observation[S Status] struct {
	SubjectID  string
	PersonID   string
	Date       time.Time
	Status     S
	Note       string
	RecordedBy string
	RecordedAt time.Time
}

// ObservationSet holds all observations for one (subject, date), keyed by
// person so the one-row-per-person invariant holds by construction.
// RecordedBy/RecordedAt carry the provenance of the most recent save.
type ObservationSet[S Status] struct {
	SubjectID  string
	Date       time.Time
	Entries    map[string]Observation[S]
	RecordedBy string
	RecordedAt time.Time
}

func NewObservationSet[S Status](subjectID string, date time.Time) *ObservationSet[S] {
	return &ObservationSet[S]{
		SubjectID: subjectID,
		Date:      Day(date),
		Entries:   make(map[string]Observation[S]),
	}
}

// Recorded reports whether the set existed in the store before this session.
func (s *ObservationSet[S]) Recorded() bool {
	return !s.RecordedAt.IsZero()
}

// Day truncates a timestamp to its calendar date in UTC.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

const DayFormat = "2006-01-02"

type Range string

const (
	RangeDay      Range = "day"
	RangeWeek     Range = "week"
	RangeBimester Range = "bimester"
	RangeSemester Range = "semester"
	RangeCustom   Range = "custom"
)

func ParseRange(value string) (Range, bool) {
	switch Range(value) {
	case RangeDay, RangeWeek, RangeBimester, RangeSemester, RangeCustom:
		return Range(value), true
	}
	return "", false
}

// ReportQuery scopes an aggregation request. End is only read for RangeCustom.
type ReportQuery struct {
	Range Range
	Start time.Time
	End   time.Time
}
