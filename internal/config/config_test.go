package config

import (
	"path/filepath"
	"testing"
	"time"
)

func TestFromEnv_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("COURSIZ_DATA_DIR", dir)
	t.Setenv("COURSIZ_DB", "")
	t.Setenv("COURSIZ_DB_DRIVER", "")
	t.Setenv("COURSIZ_GUEST_QUOTA", "")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.DBDriver != "sqlite" {
		t.Errorf("DBDriver = %q, want sqlite", cfg.DBDriver)
	}
	if cfg.DBDSN != filepath.Join(dir, "coursiz.db") {
		t.Errorf("DBDSN = %q", cfg.DBDSN)
	}
	if cfg.GuestQuota != 3 {
		t.Errorf("GuestQuota = %d, want 3", cfg.GuestQuota)
	}
	if cfg.QuizAdvanceDelay != 800*time.Millisecond {
		t.Errorf("QuizAdvanceDelay = %s", cfg.QuizAdvanceDelay)
	}
	if cfg.GuestProgressPath() != filepath.Join(dir, GuestProgressFile) {
		t.Errorf("GuestProgressPath = %q", cfg.GuestProgressPath())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("COURSIZ_DATA_DIR", t.TempDir())
	t.Setenv("COURSIZ_DB_DRIVER", "postgres")
	t.Setenv("COURSIZ_DB", "postgres://u:p@localhost/coursiz")
	t.Setenv("COURSIZ_GUEST_QUOTA", "5")
	t.Setenv("COURSIZ_CORS_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("COURSIZ_QUIZ_ADVANCE_DELAY", "2s")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.GuestQuota != 5 {
		t.Errorf("GuestQuota = %d, want 5", cfg.GuestQuota)
	}
	if len(cfg.CORSOrigins) != 2 {
		t.Errorf("CORSOrigins = %v, want 2 entries", cfg.CORSOrigins)
	}
	if cfg.QuizAdvanceDelay != 2*time.Second {
		t.Errorf("QuizAdvanceDelay = %s, want 2s", cfg.QuizAdvanceDelay)
	}
}

func TestFromEnv_BadQuota(t *testing.T) {
	t.Setenv("COURSIZ_DATA_DIR", t.TempDir())
	t.Setenv("COURSIZ_GUEST_QUOTA", "three")
	if _, err := FromEnv(); err == nil {
		t.Fatal("expected error for non-numeric quota")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"sqlite", Config{DBDriver: "sqlite", DBDSN: "x.db"}, false},
		{"postgres", Config{DBDriver: "postgres", DBDSN: "postgres://x"}, false},
		{"unknown driver", Config{DBDriver: "mysql", DBDSN: "x"}, true},
		{"missing dsn", Config{DBDriver: "postgres"}, true},
		{"negative quota", Config{DBDriver: "sqlite", DBDSN: "x", GuestQuota: -1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestUsesDevSecret(t *testing.T) {
	t.Setenv("COURSIZ_DATA_DIR", t.TempDir())

	t.Setenv("COURSIZ_JWT_SECRET", "")
	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if !cfg.UsesDevSecret() {
		t.Error("unset secret should report the development secret")
	}

	t.Setenv("COURSIZ_JWT_SECRET", "s3cret")
	cfg, err = FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.UsesDevSecret() {
		t.Error("configured secret reported as the development secret")
	}
}
