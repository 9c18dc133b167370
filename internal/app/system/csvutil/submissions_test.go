package csvutil

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/schoolhub/schoolhub/internal/domain/models"
)

func TestWriteSubmissions(t *testing.T) {
	when := time.Date(2026, 3, 4, 12, 30, 0, 0, time.UTC)
	subs := []models.Submission{
		{
			StudentID:   3,
			StudentName: "Ada Lovelace",
			File:        models.FileRef{Name: "essay, final.pdf", Size: 2048},
			SubmittedAt: when,
		},
		{
			StudentID:   5,
			StudentName: "Alan Turing",
			File:        models.FileRef{Name: "essay.pdf", Size: 1024},
			SubmittedAt: when.Add(time.Hour),
		},
	}

	var buf bytes.Buffer
	if err := WriteSubmissions(&buf, subs); err != nil {
		t.Fatalf("WriteSubmissions: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(lines))
	}
	if lines[0] != "student_id,student_name,file_name,file_size,submitted_at" {
		t.Fatalf("unexpected header %q", lines[0])
	}
	// A comma inside the filename must be quoted.
	if lines[1] != `3,Ada Lovelace,"essay, final.pdf",2048,2026-03-04T12:30:00Z` {
		t.Fatalf("unexpected row %q", lines[1])
	}
	if !strings.HasPrefix(lines[2], "5,Alan Turing,essay.pdf,1024,") {
		t.Fatalf("unexpected row %q", lines[2])
	}
}

func TestWriteSubmissionsEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSubmissions(&buf, nil); err != nil {
		t.Fatalf("WriteSubmissions: %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != "student_id,student_name,file_name,file_size,submitted_at" {
		t.Fatalf("empty export should be header only, got %q", got)
	}
}
