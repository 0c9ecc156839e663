package infra

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DESIGN_API_KEY", "test-key")
	t.Setenv("DESIGN_BASE_URL", "")
	t.Setenv("DESIGN_STATUS_URL", "")
	t.Setenv("PORT", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.DesignBaseURL != "https://homedesigns.ai/api/v2" {
		t.Fatalf("DesignBaseURL mismatch: %q", cfg.DesignBaseURL)
	}
	if cfg.DesignStatusURL != "https://homedesigns.ai/api/v2/requests" {
		t.Fatalf("DesignStatusURL mismatch: %q", cfg.DesignStatusURL)
	}
	if cfg.DesignPollInterval != 5*time.Second {
		t.Fatalf("DesignPollInterval mismatch: %v", cfg.DesignPollInterval)
	}
	if cfg.DesignPollAttempts != 60 {
		t.Fatalf("DesignPollAttempts mismatch: %d", cfg.DesignPollAttempts)
	}
	if cfg.SignedURLTTL != 24*time.Hour {
		t.Fatalf("SignedURLTTL mismatch: %v", cfg.SignedURLTTL)
	}
	if cfg.DBMaxConns != 10 || cfg.DBMinConns != 1 {
		t.Fatalf("pool sizing mismatch: max=%d min=%d", cfg.DBMaxConns, cfg.DBMinConns)
	}
}

func TestLoadConfigRequiresAPIKey(t *testing.T) {
	t.Setenv("DESIGN_API_KEY", "")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error when DESIGN_API_KEY is missing")
	}
}

func TestLoadConfigStatusURLDerivedFromBase(t *testing.T) {
	t.Setenv("DESIGN_API_KEY", "test-key")
	t.Setenv("DESIGN_BASE_URL", "https://design.example.com/api/")
	t.Setenv("DESIGN_STATUS_URL", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.DesignStatusURL != "https://design.example.com/api/requests" {
		t.Fatalf("DesignStatusURL mismatch: %q", cfg.DesignStatusURL)
	}
}

func TestLoadConfigRejectsUnknownStorageBackend(t *testing.T) {
	t.Setenv("DESIGN_API_KEY", "test-key")
	t.Setenv("STORAGE_BACKEND", "s3")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for unsupported storage backend")
	}
}

func TestLoadConfigMinioRequiresCredentials(t *testing.T) {
	t.Setenv("DESIGN_API_KEY", "test-key")
	t.Setenv("STORAGE_BACKEND", "minio")
	t.Setenv("MINIO_ACCESS_KEY", "")
	t.Setenv("MINIO_SECRET_KEY", "")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error when minio credentials are missing")
	}
}

func TestLoadConfigParsesOrigins(t *testing.T) {
	t.Setenv("DESIGN_API_KEY", "test-key")
	t.Setenv("ALLOWED_ORIGINS", "https://app.example.com, https://admin.example.com")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://admin.example.com" {
		t.Fatalf("AllowedOrigins mismatch: %#v", cfg.AllowedOrigins)
	}
}
