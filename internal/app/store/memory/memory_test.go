package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/schoolhub/schoolhub/internal/domain/models"
)

func TestRunTxRollback(t *testing.T) {
	s := New()
	ctx := context.Background()

	err := s.RunTx(ctx, func(ctx context.Context) error {
		u := models.User{FullName: "Temp", Email: "temp@school.edu", Role: models.RoleStudent}
		if err := s.Create(ctx, &u); err != nil {
			return err
		}
		return errors.New("boom")
	})
	if err == nil {
		t.Fatal("expected the callback error to propagate")
	}
	if _, err := s.GetByEmail(ctx, "temp@school.edu"); err == nil {
		t.Fatal("rolled-back user still present")
	}
}

func TestRunTxSerializesConcurrentTransactions(t *testing.T) {
	s := New()
	ctx := context.Background()

	entered := make(chan struct{})
	release := make(chan struct{})
	failed := make(chan struct{})
	go func() {
		defer close(failed)
		_ = s.RunTx(ctx, func(ctx context.Context) error {
			u := models.User{FullName: "Temp", Email: "temp@school.edu", Role: models.RoleStudent}
			if err := s.Create(ctx, &u); err != nil {
				return err
			}
			close(entered)
			<-release
			return errors.New("boom")
		})
	}()
	<-entered

	// This transaction must wait for the failing one to finish, so its
	// committed write cannot be wiped by the other's rollback.
	committed := make(chan struct{})
	go func() {
		defer close(committed)
		_ = s.RunTx(ctx, func(ctx context.Context) error {
			c := models.Class{Name: "Math", Grade: "7"}
			return s.Classes().Create(ctx, &c)
		})
	}()

	close(release)
	<-failed
	<-committed

	if _, err := s.Classes().GetByID(ctx, 1); err != nil {
		t.Fatalf("committed class lost after concurrent rollback: %v", err)
	}
	if _, err := s.GetByEmail(ctx, "temp@school.edu"); err == nil {
		t.Fatal("rolled-back user still present")
	}
}
