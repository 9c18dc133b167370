// internal/domain/models/assignment.go
package models

import "time"

// FileRef is an opaque handle into the blob store.
type FileRef struct {
	Path        string `bson:"path" json:"path"`
	Name        string `bson:"name" json:"name"` // original upload filename
	Size        int64  `bson:"size" json:"size"`
	ContentType string `bson:"content_type" json:"contentType"`
}

// IsZero reports whether the ref points at nothing.
func (f FileRef) IsZero() bool { return f.Path == "" }

// Submission is one student's current hand-in for an assignment.
// At most one submission exists per (assignment, student); a resubmission
// replaces the previous record and schedules the old file for deletion.
type Submission struct {
	StudentID   int64     `bson:"student_id" json:"studentId"`
	StudentName string    `bson:"student_name" json:"studentName"`
	File        FileRef   `bson:"file" json:"file"`
	SubmittedAt time.Time `bson:"submitted_at" json:"submittedAt"`
}

// Assignment is a piece of work a teacher sets for exactly one class.
// Submissions is keyed by student id.
type Assignment struct {
	ID          int64                `bson:"_id" json:"id"`
	Title       string               `bson:"title" json:"title"`
	Description string               `bson:"description" json:"description"`
	DueDate     time.Time            `bson:"due_date" json:"dueDate"`
	TeacherID   int64                `bson:"teacher_id" json:"teacherId"`
	TeacherName string               `bson:"teacher_name" json:"teacherName"` // denormalized at creation
	ClassID     int64                `bson:"class_id" json:"classId"`
	Submissions map[int64]Submission `bson:"submissions,omitempty" json:"submissions,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
