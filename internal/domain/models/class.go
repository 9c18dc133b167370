// internal/domain/models/class.go
package models

import "time"

// Class represents a cohort of students, optionally led by one teacher.
//
// Invariant: for every s in StudentIDs, the user with id s has this class's
// id in its ClassIDs, and vice versa. Membership is always written as a
// symmetric pair by the enrollment service and must never be asymmetric
// after any mutation.
type Class struct {
	ID         int64   `bson:"_id" json:"id"`
	Name       string  `bson:"name" json:"name"`
	Grade      string  `bson:"grade" json:"grade"`
	TeacherID  int64   `bson:"teacher_id,omitempty" json:"teacherId,omitempty"` // 0 = unassigned
	StudentIDs []int64 `bson:"student_ids,omitempty" json:"students"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// HasStudent reports whether studentID is enrolled in the class.
func (c Class) HasStudent(studentID int64) bool {
	for _, id := range c.StudentIDs {
		if id == studentID {
			return true
		}
	}
	return false
}
