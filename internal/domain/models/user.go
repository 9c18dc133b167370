// internal/domain/models/user.go
package models

import "time"

// MaxClassesPerStudent caps how many classes a single student may be
// enrolled in at once.
const MaxClassesPerStudent = 10

// User represents admins, teachers, and students.
//
// NOTE:
//   - ClassIDs is meaningful only for students; it is mutated exclusively
//     through the enrollment service, never assigned directly by handlers.
//   - PasswordHash is never serialized to JSON; hashing/verification happens
//     in the login and users features, not in the core services.
type User struct {
	ID           int64     `bson:"_id" json:"id"`
	FullName     string    `bson:"full_name" json:"fullname"`
	Email        string    `bson:"email" json:"email"`
	EmailCI      string    `bson:"email_ci" json:"-"` // lowercase, diacritics-stripped
	PasswordHash string    `bson:"password_hash" json:"-"`
	Role         Role      `bson:"role" json:"role"`
	ClassIDs     []int64   `bson:"class_ids,omitempty" json:"classIds,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// InClass reports whether the user is enrolled in classID.
func (u User) InClass(classID int64) bool {
	for _, id := range u.ClassIDs {
		if id == classID {
			return true
		}
	}
	return false
}
