package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Port                    string
	Env                     string
	PublicBaseURL           string
	CORSAllowOrigins        []string
	DocStore                string
	DatabaseURL             string
	FirebaseProjectID       string
	FirebaseCredentialsJSON string
	ObjectStore             string
	LocalStoreDir           string
	AWSRegion               string
	S3Bucket                string
	S3Prefix                string
	SSEKMSKeyID             string
	GCSBucket               string
	LLMProvider             string
	LLMModel                string
	OpenAIAPIKey            string
	GeminiAPIKey            string
	LLMTimeout              time.Duration

	ExportSigningSecret string
	ExportURLTTL        time.Duration
	ChromePath          string

	RazorpayKeyID         string
	RazorpayKeySecret     string
	RazorpayWebhookSecret string
	RazorpayBaseURL       string

	DevAuthSecret      string
	RedisAddr          string
	RedisPassword      string
	RateLimitPerMinute int
	OTLPEndpoint       string
	LogJSON            bool
	LogDebug           bool
}

var defaults = map[string]any{
	"PORT":                  "8080",
	"ENV":                   "dev",
	"PUBLIC_BASE_URL":       "http://localhost:8080",
	"CORS_ALLOW_ORIGINS":    "http://localhost:5173",
	"DOC_STORE":             "",
	"OBJECT_STORE":          "local",
	"LOCAL_STORE_DIR":       "./data",
	"LLM_PROVIDER":          "openai",
	"LLM_MODEL":             "gpt-4o-mini",
	"LLM_TIMEOUT":           120 * time.Second,
	"EXPORT_URL_TTL":        120 * time.Second,
	"RAZORPAY_BASE_URL":     "https://api.razorpay.com",
	"RATE_LIMIT_PER_MINUTE": 30,
	"LOG_JSON":              false,
	"LOG_DEBUG":             false,
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	v := viper.New()
	v.AutomaticEnv()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}

	env := normalizeEnv(v.GetString("ENV"))
	cfg := Config{
		Port:                    v.GetString("PORT"),
		Env:                     env,
		PublicBaseURL:           strings.TrimRight(v.GetString("PUBLIC_BASE_URL"), "/"),
		CORSAllowOrigins:        splitAndTrim(v.GetString("CORS_ALLOW_ORIGINS")),
		DatabaseURL:             v.GetString("DATABASE_URL"),
		FirebaseProjectID:       v.GetString("FIREBASE_PROJECT_ID"),
		FirebaseCredentialsJSON: v.GetString("FIREBASE_CREDENTIALS_JSON"),
		ObjectStore:             normalizeStoreType(v.GetString("OBJECT_STORE")),
		LocalStoreDir:           v.GetString("LOCAL_STORE_DIR"),
		AWSRegion:               v.GetString("AWS_REGION"),
		S3Bucket:                v.GetString("S3_BUCKET"),
		S3Prefix:                v.GetString("S3_PREFIX"),
		SSEKMSKeyID:             v.GetString("SSE_KMS_KEY_ID"),
		GCSBucket:               v.GetString("GCS_BUCKET"),
		LLMProvider:             strings.ToLower(strings.TrimSpace(v.GetString("LLM_PROVIDER"))),
		LLMModel:                v.GetString("LLM_MODEL"),
		OpenAIAPIKey:            v.GetString("OPENAI_API_KEY"),
		GeminiAPIKey:            v.GetString("GEMINI_API_KEY"),
		LLMTimeout:              v.GetDuration("LLM_TIMEOUT"),
		ExportSigningSecret:     v.GetString("EXPORT_SIGNING_SECRET"),
		ExportURLTTL:            v.GetDuration("EXPORT_URL_TTL"),
		ChromePath:              v.GetString("CHROME_PATH"),
		RazorpayKeyID:           v.GetString("RAZORPAY_KEY_ID"),
		RazorpayKeySecret:       v.GetString("RAZORPAY_KEY_SECRET"),
		RazorpayWebhookSecret:   v.GetString("RAZORPAY_WEBHOOK_SECRET"),
		RazorpayBaseURL:         v.GetString("RAZORPAY_BASE_URL"),
		DevAuthSecret:           v.GetString("DEV_AUTH_SECRET"),
		RedisAddr:               v.GetString("REDIS_ADDR"),
		RedisPassword:           v.GetString("REDIS_PASSWORD"),
		RateLimitPerMinute:      v.GetInt("RATE_LIMIT_PER_MINUTE"),
		OTLPEndpoint:            v.GetString("OTLP_ENDPOINT"),
		LogJSON:                 v.GetBool("LOG_JSON") || env == "production",
		LogDebug:                v.GetBool("LOG_DEBUG"),
	}
	cfg.DocStore = normalizeDocStore(v.GetString("DOC_STORE"), cfg)
	return cfg
}

// Validate reports configuration that is unusable for the current environment.
func (c Config) Validate() error {
	if !c.IsProduction() {
		return nil
	}
	var errs []error
	if c.DocStore == "memory" {
		errs = append(errs, errors.New("DOC_STORE=memory is not allowed in production"))
	}
	if strings.TrimSpace(c.ExportSigningSecret) == "" {
		errs = append(errs, errors.New("EXPORT_SIGNING_SECRET is required in production"))
	}
	if strings.TrimSpace(c.FirebaseProjectID) == "" {
		errs = append(errs, errors.New("FIREBASE_PROJECT_ID is required in production"))
	}
	return errors.Join(errs...)
}

// IsDevLike reports whether dev-only fallbacks are allowed.
func (c Config) IsDevLike() bool {
	return c.Env == "dev" || c.Env == "local"
}

// IsProduction reports whether the service runs in production.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	case "gcs":
		return "gcs"
	default:
		return "local"
	}
}

// normalizeDocStore picks the document backend; an empty value is inferred
// from whichever connection settings are present.
func normalizeDocStore(raw string, cfg Config) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "firestore":
		return "firestore"
	case "postgres", "pg":
		return "postgres"
	case "memory":
		return "memory"
	}
	switch {
	case strings.TrimSpace(cfg.FirebaseProjectID) != "":
		return "firestore"
	case strings.TrimSpace(cfg.DatabaseURL) != "":
		return "postgres"
	default:
		return "memory"
	}
}
