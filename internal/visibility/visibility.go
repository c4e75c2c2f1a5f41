// Package visibility decides which classrooms a staff member may see and act
// on. It is a pure function of the identity and the classroom list; no state
// is kept between calls.
package visibility

import "registro/attendance/internal/model"

// VisibleClassrooms filters classrooms down to the ones the staff member may
// touch. Admins and supervisors see everything; everyone else needs an
// assignment matching the classroom id or its whole level. An empty
// assignment list yields an empty result, not an error.
func VisibleClassrooms(staff model.Staff, classrooms []model.Classroom) []model.Classroom {
	if staff.Role == model.RoleAdmin || staff.Role == model.RoleSupervisor {
		return classrooms
	}
	visible := make([]model.Classroom, 0, len(classrooms))
	for _, classroom := range classrooms {
		if assigned(staff, classroom) {
			visible = append(visible, classroom)
		}
	}
	return visible
}

// CanAccess reports whether a single classroom is visible to the staff member.
func CanAccess(staff model.Staff, classroom model.Classroom) bool {
	if staff.Role == model.RoleAdmin || staff.Role == model.RoleSupervisor {
		return true
	}
	return assigned(staff, classroom)
}

func assigned(staff model.Staff, classroom model.Classroom) bool {
	for _, assignment := range staff.Assignments {
		if assignment.ClassroomID != "" && assignment.ClassroomID == classroom.ID {
			return true
		}
		if assignment.Level != "" && assignment.Level == classroom.Level {
			return true
		}
	}
	return false
}
