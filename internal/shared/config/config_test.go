package config

import "testing"

func TestNormalizeDocStore(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		cfg  Config
		want string
	}{
		{name: "explicit firestore", raw: "Firestore", want: "firestore"},
		{name: "pg alias", raw: "pg", want: "postgres"},
		{name: "inferred firestore", cfg: Config{FirebaseProjectID: "demo"}, want: "firestore"},
		{name: "inferred postgres", cfg: Config{DatabaseURL: "postgres://x"}, want: "postgres"},
		{name: "fallback memory", want: "memory"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeDocStore(tt.raw, tt.cfg); got != tt.want {
				t.Fatalf("normalizeDocStore(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestLoadReadsEnv(t *testing.T) {
	t.Setenv("ENV", "prod")
	t.Setenv("PORT", "9090")
	t.Setenv("EXPORT_URL_TTL", "45s")
	t.Setenv("CORS_ALLOW_ORIGINS", "https://a.example, https://b.example ,")

	cfg := Load()
	if cfg.Env != "production" {
		t.Fatalf("expected production env, got %q", cfg.Env)
	}
	if cfg.Port != "9090" {
		t.Fatalf("expected port 9090, got %q", cfg.Port)
	}
	if cfg.ExportURLTTL.Seconds() != 45 {
		t.Fatalf("expected 45s ttl, got %s", cfg.ExportURLTTL)
	}
	if len(cfg.CORSAllowOrigins) != 2 {
		t.Fatalf("expected 2 origins, got %v", cfg.CORSAllowOrigins)
	}
	if !cfg.LogJSON {
		t.Fatalf("expected json logs in production")
	}
}

func TestValidateProductionRequiresSecrets(t *testing.T) {
	cfg := Config{Env: "production", DocStore: "memory"}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
	cfg = Config{Env: "dev", DocStore: "memory"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("dev config should validate, got %v", err)
	}
}
