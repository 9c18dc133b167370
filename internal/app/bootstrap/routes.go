// internal/app/bootstrap/routes.go
package bootstrap

import (
	"context"
	"net/http"

	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/schoolhub/schoolhub/internal/app/enrollment"
	assignmentsfeature "github.com/schoolhub/schoolhub/internal/app/features/assignments"
	classesfeature "github.com/schoolhub/schoolhub/internal/app/features/classes"
	healthfeature "github.com/schoolhub/schoolhub/internal/app/features/health"
	loginfeature "github.com/schoolhub/schoolhub/internal/app/features/login"
	postsfeature "github.com/schoolhub/schoolhub/internal/app/features/posts"
	profilefeature "github.com/schoolhub/schoolhub/internal/app/features/profile"
	usersfeature "github.com/schoolhub/schoolhub/internal/app/features/users"
	assignmentstore "github.com/schoolhub/schoolhub/internal/app/store/assignments"
	classstore "github.com/schoolhub/schoolhub/internal/app/store/classes"
	counterstore "github.com/schoolhub/schoolhub/internal/app/store/counters"
	poststore "github.com/schoolhub/schoolhub/internal/app/store/posts"
	userstore "github.com/schoolhub/schoolhub/internal/app/store/users"
	"github.com/schoolhub/schoolhub/internal/app/submissions"
	"github.com/schoolhub/schoolhub/internal/app/system/auditlog"
	"github.com/schoolhub/schoolhub/internal/app/system/auth"
	"github.com/schoolhub/schoolhub/internal/app/system/authz"
	"github.com/schoolhub/schoolhub/internal/app/system/ratelimit"
	"github.com/schoolhub/schoolhub/internal/app/system/txn"
	"github.com/schoolhub/schoolhub/internal/app/uploads"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connection, schema setup, and
// Startup have completed. It assembles the stores, the enrollment and
// submission services, the session manager, and the feature routers.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Session manager; secure cookies in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}
	loginLimiter := ratelimit.NewLoginLimiter()
	audit := auditlog.New(logger)

	// Stores.
	counters := counterstore.New(deps.MongoDatabase)
	users := userstore.New(deps.MongoDatabase, counters)
	classes := classstore.New(deps.MongoDatabase, counters)
	posts := poststore.New(deps.MongoDatabase, counters)
	assignments := assignmentstore.New(deps.MongoDatabase, counters)
	runner := txn.NewRunner(deps.MongoClient, logger)

	// Submission file storage.
	blobStore, err := buildStorage(appCfg)
	if err != nil {
		logger.Error("storage init failed", zap.Error(err))
		return nil, err
	}
	blobs := uploads.New(blobStore, logger)

	// Services. The submissions service doubles as the assignment purger
	// the enrollment service cascades through on class deletion.
	subSvc := submissions.NewService(assignments, blobs, logger)
	enrollSvc := enrollment.NewService(users, classes, posts, assignments, runner, subSvc, appCfg.SeedAdminEmail, logger)

	// Every request resolves a fresh principal, so role and enrollment
	// changes take effect immediately.
	sessionMgr.SetPrincipalFetcher(func(ctx context.Context, userID int64) (*authz.Principal, error) {
		return enrollSvc.Principal(ctx, userID)
	})

	r := chi.NewRouter()
	r.Use(sessionMgr.LoadPrincipal)

	// Health check endpoint for load balancers and orchestrators.
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Get("/health", healthHandler.Serve)

	r.Route("/api", func(api chi.Router) {
		loginfeature.NewHandler(users, sessionMgr, loginLimiter, audit, logger).MountRoutes(api)
		profilefeature.NewHandler(users, appCfg.SeedAdminEmail, logger).MountRoutes(api)
		usersfeature.NewHandler(users, enrollSvc, audit, logger).MountRoutes(api)
		classesfeature.NewHandler(classes, enrollSvc, audit, logger).MountRoutes(api)
		postsfeature.NewHandler(posts, classes, logger).MountRoutes(api)
		assignmentsfeature.NewHandler(assignments, subSvc, blobs, logger).MountRoutes(api)
	})

	return r, nil
}

// buildStorage creates the configured submission file backend.
func buildStorage(appCfg AppConfig) (storage.Store, error) {
	switch appCfg.StorageType {
	case "s3":
		return storage.NewS3(context.Background(), storage.S3Config{
			Region: appCfg.StorageS3Region,
			Bucket: appCfg.StorageS3Bucket,
			Prefix: appCfg.StorageS3Prefix,
		})
	default:
		return storage.NewLocal(storage.LocalConfig{
			BasePath: appCfg.StorageLocalPath,
			BaseURL:  appCfg.StorageLocalURL,
		})
	}
}
