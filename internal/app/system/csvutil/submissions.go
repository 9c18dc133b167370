// internal/app/system/csvutil/submissions.go

// Package csvutil renders CSV exports for teacher downloads.
package csvutil

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/schoolhub/schoolhub/internal/domain/models"
)

// WriteSubmissions writes a submission sheet with a header row. Rows
// keep the order of subs; callers sort before exporting.
func WriteSubmissions(w io.Writer, subs []models.Submission) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"student_id", "student_name", "file_name", "file_size", "submitted_at"}); err != nil {
		return err
	}
	for _, s := range subs {
		rec := []string{
			strconv.FormatInt(s.StudentID, 10),
			s.StudentName,
			s.File.Name,
			strconv.FormatInt(s.File.Size, 10),
			s.SubmittedAt.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
