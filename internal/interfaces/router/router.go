package router

import (
	"context"
	"errors"
	"fmt"
	"io"

	adminsvc "nexar-backend/internal/application/admin"
	authsvc "nexar-backend/internal/application/auth"
	emailsvc "nexar-backend/internal/application/emails"
	healthsvc "nexar-backend/internal/application/health"
	listsvc "nexar-backend/internal/application/listings"
	policies "nexar-backend/internal/application/policies/user"
	profilesvc "nexar-backend/internal/application/profiles"
	"nexar-backend/internal/application/tasks"
	uploadsvc "nexar-backend/internal/application/uploads"
	"nexar-backend/internal/config"
	"nexar-backend/internal/infrastructure/database"
	adminhandler "nexar-backend/internal/interfaces/handlers/admin"
	authhandler "nexar-backend/internal/interfaces/handlers/auth"
	healthhandler "nexar-backend/internal/interfaces/handlers/health"
	listhandler "nexar-backend/internal/interfaces/handlers/listings"
	profilehandler "nexar-backend/internal/interfaces/handlers/profiles"
	uploadhandler "nexar-backend/internal/interfaces/handlers/uploads"
	"nexar-backend/internal/middleware"
	"nexar-backend/internal/pkg/constants"

	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// CreateApp connects Postgres and Redis from cfg and builds the app on top of them.
func CreateApp(cfg *config.Config) (*fiber.App, *gorm.DB, *redis.Client, error) {
	if cfg.DatabaseURL == "" {
		return nil, nil, nil, errors.New("database url is not configured")
	}
	sessionHandler, rdb, err := middleware.Session(sessionConfig(cfg))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("parse redis url: %w", err)
	}

	db, err := database.Open(cfg.DatabaseURL, !cfg.IsProduction())
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open database: %w", err)
	}

	app, err := newApp(context.Background(), cfg, db, rdb, sessionHandler)
	if err != nil {
		return nil, nil, nil, err
	}
	return app, db, rdb, nil
}

// NewApp registers middleware and every route on already opened connections.
func NewApp(ctx context.Context, cfg *config.Config, db *gorm.DB, rdb *redis.Client) (*fiber.App, error) {
	return newApp(ctx, cfg, db, rdb, middleware.SessionStore(rdb))
}

func sessionConfig(cfg *config.Config) middleware.SessionConfig {
	return middleware.SessionConfig{
		Secret:            cfg.SessionSecret,
		RedisURL:          cfg.RedisURL,
		AllowCrossSiteDev: cfg.AllowCrossSiteDev,
		IsProduction:      cfg.IsProduction(),
	}
}

func newApp(ctx context.Context, cfg *config.Config, db *gorm.DB, rdb *redis.Client, sessionHandler fiber.Handler) (*fiber.App, error) {
	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.NewErrorHandler(rdb),
		EnableTrustedProxyCheck: true,
	})

	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffixes: cfg.FrontendURLEndsWith,
		DevPassword:     cfg.DevPassword,
		AllowLocalhost:  !cfg.IsProduction(),
	}))
	app.Use(sessionHandler)
	app.Use(middleware.HealthMarker(rdb))
	app.Use(middleware.Tracing())
	app.Use(middleware.RouteLogger())

	sessionCfg := sessionConfig(cfg)

	// Storage and outbound work
	uploads, err := NewUploadService(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var mailer emailsvc.Sender = &emailsvc.BrevoClient{APIKey: cfg.SendinblueAPIKey, MailFrom: cfg.MailFrom}
	var cleaner uploadsvc.ImageCleaner = uploads
	if cfg.TaskQueue {
		redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parse task queue redis url: %w", err)
		}
		client := asynq.NewClient(redisOpt)
		closeOnShutdown(app, client)
		dispatcher := &tasks.Dispatcher{Client: client}
		mailer, cleaner = dispatcher, dispatcher
		log.Info().Msg("router: emails and image cleanup go through the task queue")
	}

	resolver := &policies.ProfileRoleResolver{DB: db}
	guard := func(permission string) fiber.Handler {
		return middleware.AuthorizePermission(resolver, permission)
	}

	// Health
	var targets []healthsvc.PingTarget
	if cfg.StorageDriver != "s3" && cfg.SupabaseURL != "" {
		targets = append(targets, healthsvc.PingTarget{Name: "storage", URL: cfg.SupabaseURL + "/storage/v1/version"})
	}
	hh := &healthhandler.Handlers{
		Rdb:            rdb,
		Collector:      &healthsvc.Collector{Rdb: rdb, DB: &database.Pinger{DB: db}, Targets: targets},
		HealthAdminKey: cfg.HealthAdminKey,
	}
	app.Get("/", hh.Dashboard)
	app.Get("/reset", hh.Reset)
	app.Get("/health/json", hh.JSON)
	app.Get("/health/errors", hh.Errors)

	api := app.Group("/api/v1")

	// Auth
	as := &authsvc.Service{
		DB:          db,
		Rdb:         rdb,
		Tokens:      &authsvc.TokenIssuer{Secret: []byte(cfg.TokenSecret), TTL: cfg.TokenTTL, Rdb: rdb},
		Mailer:      mailer,
		AppBaseURL:  cfg.AppBaseURL,
		AdminEmails: cfg.AdminEmails,
	}
	ah := &authhandler.Handlers{Service: as, Rdb: rdb, Config: sessionCfg}
	var authLimit []fiber.Handler
	if cfg.AuthRateLimitRPS > 0 {
		authLimit = append(authLimit, middleware.NewRateLimiter(cfg.AuthRateLimitRPS, cfg.AuthRateLimitBurst).Limit())
	}
	ag := api.Group("/auth", authLimit...)
	ag.Post("/signup", ah.Signup)
	ag.Post("/confirm/resend", ah.ResendConfirmation)
	ag.Post("/confirm", ah.Confirm)
	ag.Post("/login", ah.Login)
	ag.Get("/me", ah.Me)
	ag.Delete("/logout", ah.Logout)
	ag.Post("/password-reset/request", ah.RequestPasswordReset)
	ag.Get("/password-reset/verify", ah.VerifyResetToken)
	ag.Post("/password-reset", ah.ResetPassword)

	// Profile
	ph := &profilehandler.Handlers{Service: &profilesvc.Service{DB: db}}
	pg := api.Group("/profile", middleware.RequireAuth())
	pg.Get("/", ph.GetProfile)
	pg.Put("/", ph.UpdateProfile)

	// Listings
	lh := &listhandler.Handlers{Service: &listsvc.Service{DB: db, Cleaner: cleaner, Images: uploads, RequireApproval: cfg.RequireApproval}}
	own := guard(constants.ManageOwnListings)
	lg := api.Group("/listings")
	lg.Get("/", lh.Browse)
	lg.Get("/options", lh.Options)
	lg.Get("/mine", own, lh.Mine)
	lg.Post("/", own, lh.Create)
	lg.Get("/:id", lh.GetListing)
	lg.Get("/:id/edit", own, lh.GetForEdit)
	lg.Put("/:id", own, lh.Edit)
	lg.Delete("/:id", own, lh.Delete)

	// Uploads
	uph := &uploadhandler.Handlers{Service: uploads}
	api.Post("/uploads/listing-image", guard(constants.UploadImages), uph.UploadListingImage)

	// Admin
	adh := &adminhandler.Handlers{Service: &adminsvc.Service{DB: db, Rdb: rdb, Mailer: mailer, Cleaner: cleaner}}
	moderate := guard(constants.ModerateListings)
	users := guard(constants.ManageUsers)
	dashboard := guard(constants.ViewDashboard)
	export := guard(constants.ExportData)
	adg := api.Group("/admin", middleware.RequireAuth())
	adg.Get("/check", adh.Check)
	adg.Get("/stats", dashboard, adh.Stats)
	adg.Get("/listings", moderate, adh.Listings)
	adg.Get("/listings/:id/events", dashboard, adh.ListingEvents)
	adg.Patch("/listings/:id/status", moderate, adh.UpdateListingStatus)
	adg.Put("/listings/:id", moderate, adh.UpdateListing)
	adg.Delete("/listings/:id", moderate, adh.DeleteListing)
	adg.Get("/users", users, adh.Users)
	adg.Patch("/users/:user_id/status", users, adh.ToggleUserStatus)
	adg.Delete("/users/:user_id", users, adh.DeleteUser)
	adg.Get("/export/listings.xlsx", export, adh.ExportListings)
	adg.Get("/export/users.xlsx", export, adh.ExportUsers)

	return app, nil
}

// closeOnShutdown releases c when the app shuts down.
func closeOnShutdown(app *fiber.App, c io.Closer) {
	app.Hooks().OnShutdown(func() error {
		if err := c.Close(); err != nil {
			log.Warn().Err(err).Msg("router: close on shutdown failed")
			return err
		}
		return nil
	})
}

// NewUploadService builds the uploads service on the storage backend named by STORAGE_DRIVER.
// The API and the task worker share it.
func NewUploadService(ctx context.Context, cfg *config.Config) (*uploadsvc.Service, error) {
	store, publicBase, err := newObjectStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &uploadsvc.Service{Store: store, Bucket: cfg.StorageBucket, PublicBaseURL: publicBase}, nil
}

func newObjectStore(ctx context.Context, cfg *config.Config) (uploadsvc.ObjectStore, string, error) {
	switch cfg.StorageDriver {
	case "s3":
		s3cfg := uploadsvc.S3Config{
			Region:          cfg.AWSRegion,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
			Endpoint:        cfg.AWSEndpoint,
		}
		client, err := uploadsvc.NewS3Client(ctx, s3cfg)
		if err != nil {
			return nil, "", fmt.Errorf("s3 client: %w", err)
		}
		return client, uploadsvc.S3PublicBase(s3cfg, cfg.StorageBucket), nil
	case "", "supabase":
		client := &uploadsvc.HTTPClient{BaseURL: cfg.SupabaseURL, SecretKey: cfg.SupabaseSecretKey}
		return client, uploadsvc.SupabasePublicBase(cfg.SupabaseURL, cfg.StorageBucket), nil
	default:
		return nil, "", fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}
