// internal/domain/models/post.go
package models

import "time"

// Post is an announcement. An empty ClassIDs set means the post is public;
// a non-empty set scopes it to those classes. A class-scoped post with an
// empty class set is invalid and must be rejected at construction.
//
// Posts are immutable once created; they are only ever deleted.
type Post struct {
	ID         int64     `bson:"_id" json:"id"`
	Title      string    `bson:"title" json:"title"`
	Content    string    `bson:"content" json:"content"`
	AuthorID   int64     `bson:"author_id" json:"authorId"`
	AuthorName string    `bson:"author_name" json:"authorName"` // denormalized at creation
	Date       time.Time `bson:"date" json:"date"`
	ClassIDs   []int64   `bson:"class_ids,omitempty" json:"classIds,omitempty"`
}

// ClassScoped reports whether the post is restricted to specific classes.
func (p Post) ClassScoped() bool { return len(p.ClassIDs) > 0 }

// VisibleToClasses reports whether the post's scope intersects classIDs.
// Public posts are visible to everyone.
func (p Post) VisibleToClasses(classIDs []int64) bool {
	if !p.ClassScoped() {
		return true
	}
	for _, pc := range p.ClassIDs {
		for _, uc := range classIDs {
			if pc == uc {
				return true
			}
		}
	}
	return false
}
