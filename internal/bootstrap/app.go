package bootstrap

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"google.golang.org/api/option"

	"resumemind-api/internal/account"
	"resumemind-api/internal/audits"
	"resumemind-api/internal/builders"
	"resumemind-api/internal/exports"
	"resumemind-api/internal/generations"
	"resumemind-api/internal/llm"
	"resumemind-api/internal/llm/gemini"
	"resumemind-api/internal/llm/openai"
	"resumemind-api/internal/payments"
	"resumemind-api/internal/services/health"
	"resumemind-api/internal/shared/auth"
	"resumemind-api/internal/shared/config"
	"resumemind-api/internal/shared/gcp"
	"resumemind-api/internal/shared/metrics"
	"resumemind-api/internal/shared/server"
	"resumemind-api/internal/shared/server/middleware"
	"resumemind-api/internal/shared/storage/db"
	"resumemind-api/internal/shared/storage/docstore"
	"resumemind-api/internal/shared/storage/object"
	gcsstore "resumemind-api/internal/shared/storage/object/gcs"
	localstore "resumemind-api/internal/shared/storage/object/local"
	s3store "resumemind-api/internal/shared/storage/object/s3"
	"resumemind-api/internal/shared/telemetry"
	"resumemind-api/internal/users"
)

// App holds shared dependencies and the wired router.
type App struct {
	Config   config.Config
	Router   *gin.Engine
	DB       *sql.DB
	Firebase *firebase.App
	Redis    *redis.Client
	Docs     docstore.Store
	Objects  object.ObjectStore
	LLM      llm.Client
	Registry *prometheus.Registry
	Metrics  *metrics.Prom
	Health   *health.Service

	Users       *users.Service
	Audits      *audits.Service
	Builders    *builders.Service
	Generations *generations.Service
	Exports     *exports.Service
	Payments    *payments.Service
	Account     *account.Service

	closers []func() error
}

// Option overrides a dependency, mainly for tests.
type Option func(*overrides)

type overrides struct {
	llm      llm.Client
	renderer exports.Renderer
	gateway  payments.Gateway
}

// WithLLM replaces the provider client. The retry wrapper still applies.
func WithLLM(c llm.Client) Option {
	return func(o *overrides) { o.llm = c }
}

// WithRenderer replaces the headless Chromium renderer.
func WithRenderer(r exports.Renderer) Option {
	return func(o *overrides) { o.renderer = r }
}

// WithGateway replaces the Razorpay client.
func WithGateway(g payments.Gateway) Option {
	return func(o *overrides) { o.gateway = g }
}

// Build prepares every dependency and wires the router.
func Build(ctx context.Context, cfg config.Config, opts ...Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var ov overrides
	for _, opt := range opts {
		opt(&ov)
	}

	app := &App{Config: cfg, Health: health.NewService()}
	app.Registry = prometheus.NewRegistry()
	app.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	app.Metrics = metrics.NewProm(app.Registry)

	if err := app.buildFirebase(ctx); err != nil {
		return nil, err
	}
	if err := app.buildDocStore(ctx); err != nil {
		app.Close()
		return nil, err
	}
	if err := app.buildObjectStore(ctx); err != nil {
		app.Close()
		return nil, err
	}
	if err := app.buildLLM(ctx, ov.llm); err != nil {
		app.Close()
		return nil, err
	}
	verifier, err := app.buildVerifier(ctx)
	if err != nil {
		app.Close()
		return nil, err
	}
	limiter := app.buildLimiter()

	app.buildServices(ov)

	auditsHandler := audits.NewHandler(app.Audits, app.Objects)
	exportsHandler := exports.NewHandler(app.Exports)
	paymentsHandler := payments.NewHandler(app.Payments)

	app.Router = server.NewRouter(server.RouterDeps{
		Config: cfg,
		Auth: middleware.AuthOptions{
			Verifier:     verifier,
			SecureCookie: !cfg.IsDevLike(),
		},
		Limiter:  limiter,
		Metrics:  app.Metrics,
		Gatherer: app.Registry,
		Health:   app.Health,
		API: []server.Routes{
			users.NewHandler(app.Users),
			account.NewHandler(app.Account),
			auditsHandler,
			builders.NewHandler(app.Builders),
			generations.NewHandler(app.Generations),
			exportsHandler,
			paymentsHandler,
		},
		Public: func(r *gin.Engine, api *gin.RouterGroup) {
			exportsHandler.RegisterPrintRoutes(r)
			paymentsHandler.RegisterWebhookRoutes(api)
		},
	})

	telemetry.Info("bootstrap.ready", map[string]any{
		"env":          cfg.Env,
		"doc_store":    cfg.DocStore,
		"object_store": cfg.ObjectStore,
		"llm_provider": cfg.LLMProvider,
		"firebase":     app.Firebase != nil,
		"redis":        app.Redis != nil,
	})
	return app, nil
}

// Close releases every client opened by Build.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) googleOptions(ctx context.Context) ([]option.ClientOption, error) {
	return gcp.ClientOptions(ctx, a.Config.FirebaseCredentialsJSON)
}

func (a *App) buildFirebase(ctx context.Context) error {
	if strings.TrimSpace(a.Config.FirebaseProjectID) == "" {
		return nil
	}
	opts, err := a.googleOptions(ctx)
	if err != nil {
		return err
	}
	fb, err := gcp.NewFirebaseApp(ctx, a.Config.FirebaseProjectID, opts...)
	if err != nil {
		return err
	}
	a.Firebase = fb
	return nil
}

func (a *App) buildDocStore(ctx context.Context) error {
	switch a.Config.DocStore {
	case "postgres":
		conn, err := db.Connect(ctx, a.Config.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
		if err != nil {
			return err
		}
		a.closers = append(a.closers, conn.Close)
		if err := db.RunMigrations(ctx, conn); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		a.DB = conn
		a.Docs = &docstore.PGStore{DB: conn}
		a.Health.Add("postgres", conn.PingContext)
	case "firestore":
		if a.Firebase == nil {
			return errors.New("DOC_STORE=firestore requires FIREBASE_PROJECT_ID")
		}
		client, err := a.Firebase.Firestore(ctx)
		if err != nil {
			return fmt.Errorf("init firestore: %w", err)
		}
		a.closers = append(a.closers, client.Close)
		a.Docs = &docstore.FirestoreStore{Client: client}
		a.Health.Add("firestore", firestorePing(client))
	default:
		telemetry.Warn("bootstrap.memory_docstore", map[string]any{"env": a.Config.Env})
		a.Docs = docstore.NewMemoryStore()
	}
	return nil
}

func firestorePing(client *firestore.Client) health.Check {
	return func(ctx context.Context) error {
		_, err := client.Collection(users.Collection).Limit(1).Documents(ctx).GetAll()
		return err
	}
}

func (a *App) buildObjectStore(ctx context.Context) error {
	switch a.Config.ObjectStore {
	case "s3":
		store, err := s3store.New(ctx, a.Config.AWSRegion, a.Config.S3Bucket, a.Config.S3Prefix, a.Config.SSEKMSKeyID)
		if err != nil {
			return err
		}
		a.Objects = store
	case "gcs":
		opts, err := a.googleOptions(ctx)
		if err != nil {
			return err
		}
		store, err := gcsstore.New(ctx, a.Config.GCSBucket, "", opts...)
		if err != nil {
			return err
		}
		a.Objects = store
	default:
		a.Objects = localstore.New(a.Config.LocalStoreDir)
	}
	return nil
}

func (a *App) buildLLM(ctx context.Context, override llm.Client) error {
	provider := a.Config.LLMProvider
	var base llm.Client
	switch {
	case override != nil:
		base = override
	case provider == "gemini" && a.Config.GeminiAPIKey != "":
		c, err := gemini.NewClient(ctx, a.Config.GeminiAPIKey, a.Config.LLMModel)
		if err != nil {
			return err
		}
		base = c
	case provider == "openai" && a.Config.OpenAIAPIKey != "":
		c, err := openai.NewClient(a.Config.OpenAIAPIKey, a.Config.LLMModel, a.Config.LLMTimeout)
		if err != nil {
			return err
		}
		base = c
	default:
		telemetry.Warn("bootstrap.llm_not_configured", map[string]any{"provider": provider})
	}
	a.LLM = llm.NewRetrying(base, provider, a.Metrics)
	return nil
}

func (a *App) buildVerifier(ctx context.Context) (auth.TokenVerifier, error) {
	if a.Firebase != nil {
		client, err := a.Firebase.Auth(ctx)
		if err != nil {
			return nil, fmt.Errorf("init firebase auth: %w", err)
		}
		return &auth.FirebaseVerifier{Client: client}, nil
	}
	if a.Config.IsDevLike() && a.Config.DevAuthSecret != "" {
		telemetry.Warn("bootstrap.dev_auth", map[string]any{"env": a.Config.Env})
		return auth.NewDevVerifier(a.Config.DevAuthSecret), nil
	}
	telemetry.Warn("bootstrap.no_token_verifier", map[string]any{"env": a.Config.Env})
	return nil, nil
}

func (a *App) buildLimiter() middleware.Limiter {
	if a.Config.RedisAddr == "" {
		return middleware.NewRateLimiter(nil)
	}
	a.Redis = middleware.NewRedisClient(a.Config.RedisAddr, a.Config.RedisPassword)
	a.closers = append(a.closers, a.Redis.Close)
	a.Health.Add("redis", func(ctx context.Context) error {
		return a.Redis.Ping(ctx).Err()
	})
	return middleware.NewRedisLimiter(a.Redis, nil)
}

func (a *App) buildServices(ov overrides) {
	cfg := a.Config
	a.Users = users.NewService(a.Docs)
	a.Audits = audits.NewService(a.Docs, a.LLM)
	a.Builders = builders.NewService(a.Docs, a.Audits, a.LLM)
	a.Generations = generations.NewService(a.Docs, a.Builders, a.Audits, a.Users, a.LLM)

	collections := append([]string{audits.Collection, builders.Collection}, generations.Collections()...)
	a.Account = account.NewService(a.Docs, collections...)

	secret := cfg.ExportSigningSecret
	if secret == "" {
		secret = randomSecret()
		telemetry.Warn("bootstrap.export_secret_generated", map[string]any{"env": cfg.Env})
	}
	renderer := ov.renderer
	if renderer == nil {
		renderer = exports.NewChromeRenderer(cfg.ChromePath)
	}
	a.Exports = &exports.Service{
		Builders: a.Builders,
		Users:    a.Users,
		Signer:   exports.NewSigner(secret, cfg.ExportURLTTL),
		Renderer: renderer,
		Objects:  a.Objects,
		Metrics:  a.Metrics,
		BaseURL:  cfg.PublicBaseURL,
	}

	gateway := ov.gateway
	if gateway == nil && cfg.RazorpayKeyID != "" {
		gateway = payments.NewRazorpay(cfg.RazorpayBaseURL, cfg.RazorpayKeyID, cfg.RazorpayKeySecret, 0)
	}
	a.Payments = &payments.Service{
		Store:         a.Docs,
		Gateway:       gateway,
		Users:         a.Users,
		Metrics:       a.Metrics,
		KeyID:         cfg.RazorpayKeyID,
		KeySecret:     cfg.RazorpayKeySecret,
		WebhookSecret: cfg.RazorpayWebhookSecret,
	}
}

func randomSecret() string {
	var b [32]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(fmt.Sprintf("read random secret: %v", err))
	}
	return hex.EncodeToString(b[:])
}
