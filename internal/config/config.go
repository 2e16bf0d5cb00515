package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ErrMissingTokenSecret is returned in production when neither TOKEN_SECRET nor SESSION_SECRET is set.
var ErrMissingTokenSecret = errors.New("TOKEN_SECRET or SESSION_SECRET must be set in production")

// Config holds application configuration (env + Viper).
type Config struct {
	Env                 string
	Port                string
	SessionSecret       string
	DatabaseURL         string
	RedisURL            string
	TokenSecret         string
	TokenTTL            time.Duration
	AppBaseURL          string // links in confirmation and reset emails point here
	AdminEmails         []string
	SupabaseURL         string
	SupabaseSecretKey   string // service_role key, not the anon key
	StorageDriver       string // "supabase" (default) or "s3"
	StorageBucket       string
	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpoint         string // S3-compatible endpoint; empty means AWS
	FrontendURLEndsWith []string
	DevPassword         string
	AllowCrossSiteDev   bool
	HealthAdminKey      string
	SendinblueAPIKey    string
	MailFrom            string
	RequireApproval     bool
	AuthRateLimitRPS    float64
	AuthRateLimitBurst  int
	TaskQueue           bool // deliver emails and cleanups through asynq instead of inline
	WorkerConcurrency   int
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load loads config from env and optional .env file.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("TOKEN_TTL_MINUTES", 60)
	v.SetDefault("APP_BASE_URL", "http://localhost:5173")
	v.SetDefault("STORAGE_DRIVER", "supabase")
	v.SetDefault("STORAGE_BUCKET", "listing-images")
	v.SetDefault("AWS_REGION", "eu-central-1")
	v.SetDefault("MAIL_FROM", "noreply@nexar.ro")
	v.SetDefault("ADMIN_EMAILS", "admin@nexar.ro")
	v.SetDefault("AUTH_RATE_LIMIT_RPS", 1.0)
	v.SetDefault("AUTH_RATE_LIMIT_BURST", 10)
	v.SetDefault("WORKER_CONCURRENCY", 10)

	env := v.GetString("APP_ENV")
	dbURL := v.GetString("DATABASE_URL_DEV")
	switch env {
	case "production":
		dbURL = v.GetString("DATABASE_URL_PROD")
	case "test":
		dbURL = v.GetString("DATABASE_URL_TEST")
	}

	tokenSecret := v.GetString("TOKEN_SECRET")
	if tokenSecret == "" {
		tokenSecret = v.GetString("SESSION_SECRET")
	}
	if tokenSecret == "" && env == "production" {
		return nil, ErrMissingTokenSecret
	}

	return &Config{
		Env:                 env,
		Port:                v.GetString("PORT"),
		SessionSecret:       v.GetString("SESSION_SECRET"),
		DatabaseURL:         dbURL,
		RedisURL:            v.GetString("REDIS_URL"),
		TokenSecret:         tokenSecret,
		TokenTTL:            time.Duration(v.GetInt("TOKEN_TTL_MINUTES")) * time.Minute,
		AppBaseURL:          strings.TrimRight(strings.TrimSpace(v.GetString("APP_BASE_URL")), "/"),
		AdminEmails:         splitList(v.GetString("ADMIN_EMAILS")),
		SupabaseURL:         v.GetString("SUPABASE_URL"),
		SupabaseSecretKey:   v.GetString("SUPABASE_SECRET_KEY"),
		StorageDriver:       strings.ToLower(v.GetString("STORAGE_DRIVER")),
		StorageBucket:       v.GetString("STORAGE_BUCKET"),
		AWSRegion:           v.GetString("AWS_REGION"),
		AWSAccessKeyID:      v.GetString("AWS_ACCESS_KEY_ID"),
		AWSSecretAccessKey:  v.GetString("AWS_SECRET_ACCESS_KEY"),
		AWSEndpoint:         v.GetString("AWS_ENDPOINT_URL"),
		FrontendURLEndsWith: splitList(v.GetString("FRONTEND_URL_ENDS_WITH")),
		DevPassword:         v.GetString("DEV_PASSWORD"),
		AllowCrossSiteDev:   v.GetBool("ALLOW_CROSS_SITE_DEV"),
		HealthAdminKey:      v.GetString("HEALTH_ADMIN_KEY"),
		SendinblueAPIKey:    v.GetString("SENDINBLUE_API_KEY"),
		MailFrom:            v.GetString("MAIL_FROM"),
		RequireApproval:     v.GetBool("LISTINGS_REQUIRE_APPROVAL"),
		AuthRateLimitRPS:    v.GetFloat64("AUTH_RATE_LIMIT_RPS"),
		AuthRateLimitBurst:  v.GetInt("AUTH_RATE_LIMIT_BURST"),
		TaskQueue:           v.GetBool("TASK_QUEUE"),
		WorkerConcurrency:   v.GetInt("WORKER_CONCURRENCY"),
	}, nil
}

// splitList parses a comma-separated value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
