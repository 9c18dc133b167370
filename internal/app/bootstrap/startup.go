// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/text"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	counterstore "github.com/schoolhub/schoolhub/internal/app/store/counters"
	userstore "github.com/schoolhub/schoolhub/internal/app/store/users"
	"github.com/schoolhub/schoolhub/internal/domain/apperr"
	"github.com/schoolhub/schoolhub/internal/domain/models"
)

// Startup runs one-time application initialization after DB connections
// and schema setup are complete, but before the HTTP handler is built.
// SchoolHub seeds the protected admin account here.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	return seedAdmin(ctx, appCfg, deps, logger)
}

// seedAdmin creates the protected admin account if it does not exist.
// An existing account is left untouched, so password changes made through
// the app survive restarts.
func seedAdmin(ctx context.Context, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	counters := counterstore.New(deps.MongoDatabase)
	users := userstore.New(deps.MongoDatabase, counters)

	_, err := users.GetByEmail(ctx, text.Fold(appCfg.SeedAdminEmail))
	if err == nil {
		return nil
	}
	if !apperr.IsNotFound(err) {
		return fmt.Errorf("looking up seed admin: %w", err)
	}

	if appCfg.SeedAdminPassword == "" {
		return fmt.Errorf("seed admin %q does not exist and seed_admin_password is not set", appCfg.SeedAdminEmail)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(appCfg.SeedAdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := models.User{
		FullName:     appCfg.SeedAdminName,
		Email:        appCfg.SeedAdminEmail,
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
	}
	if err := users.Create(ctx, &admin); err != nil {
		if apperr.IsConflict(err) {
			// Another instance won the race.
			return nil
		}
		return fmt.Errorf("creating seed admin: %w", err)
	}
	logger.Info("seed admin created",
		zap.Int64("user_id", admin.ID),
		zap.String("email", admin.Email))
	return nil
}
