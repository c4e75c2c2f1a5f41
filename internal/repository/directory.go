package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"registro/attendance/internal/model"
)

// Directory queries cover the reference data the ledger and visibility filter
// operate over: classrooms, meetings, rosters and staff identities.

func (s *Store) ListClassrooms(ctx context.Context, activeOnly bool) ([]model.Classroom, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT c.id, c.name, c.level, c.active,
			(SELECT COUNT(*) FROM students st WHERE st.classroom_id = c.id) AS enrolled
		FROM classrooms c
		WHERE c.active OR NOT $1
		ORDER BY c.name
	`, activeOnly)
	if err != nil {
		return nil, storeErr("list classrooms", err)
	}
	defer rows.Close()

	var classrooms []model.Classroom
	for rows.Next() {
		var classroom model.Classroom
		if err := rows.Scan(&classroom.ID, &classroom.Name, &classroom.Level, &classroom.Active, &classroom.Enrolled); err != nil {
			return nil, storeErr("scan classroom", err)
		}
		classrooms = append(classrooms, classroom)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list classrooms", err)
	}
	return classrooms, nil
}

func (s *Store) ListMeetings(ctx context.Context) ([]model.Meeting, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, classroom_id, title, scheduled_on
		FROM meetings
		ORDER BY scheduled_on DESC
	`)
	if err != nil {
		return nil, storeErr("list meetings", err)
	}
	defer rows.Close()

	var meetings []model.Meeting
	for rows.Next() {
		var meeting model.Meeting
		if err := rows.Scan(&meeting.ID, &meeting.ClassroomID, &meeting.Title, &meeting.ScheduledOn); err != nil {
			return nil, storeErr("scan meeting", err)
		}
		meeting.ScheduledOn = model.Day(meeting.ScheduledOn)
		meetings = append(meetings, meeting)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list meetings", err)
	}
	return meetings, nil
}

func (s *Store) ListStudents(ctx context.Context, classroomID string) ([]model.Student, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, display_name, identity_number
		FROM students
		WHERE classroom_id = $1
		ORDER BY display_name
	`, classroomID)
	if err != nil {
		return nil, storeErr("list students", err)
	}
	defer rows.Close()

	var students []model.Student
	for rows.Next() {
		var student model.Student
		if err := rows.Scan(&student.ID, &student.DisplayName, &student.IdentityNumber); err != nil {
			return nil, storeErr("scan student", err)
		}
		students = append(students, student)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list students", err)
	}
	return students, nil
}

func (s *Store) GetStaff(ctx context.Context, staffID string) (model.Staff, error) {
	var staff model.Staff
	row := s.pool.QueryRow(ctx, `
		SELECT id, name, role
		FROM staff
		WHERE id = $1
	`, staffID)
	if err := row.Scan(&staff.ID, &staff.Name, &staff.Role); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Staff{}, model.ErrNotAuthorized
		}
		return model.Staff{}, storeErr("get staff", err)
	}

	// classroom_id is uuid; cast before COALESCE so the '' fallback stays text.
	rows, err := s.pool.Query(ctx, `
		SELECT COALESCE(classroom_id::text, ''), COALESCE(level, '')
		FROM staff_assignments
		WHERE staff_id = $1
	`, staffID)
	if err != nil {
		return model.Staff{}, storeErr("list assignments", err)
	}
	defer rows.Close()

	for rows.Next() {
		var assignment model.Assignment
		var level string
		if err := rows.Scan(&assignment.ClassroomID, &level); err != nil {
			return model.Staff{}, storeErr("scan assignment", err)
		}
		assignment.Level = model.Level(level)
		staff.Assignments = append(staff.Assignments, assignment)
	}
	if err := rows.Err(); err != nil {
		return model.Staff{}, storeErr("list assignments", err)
	}
	return staff, nil
}
