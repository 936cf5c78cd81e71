package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// validJWTSecret meets the 32-character minimum.
const validJWTSecret = "test-secret-key-at-least-32-chars!"

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func validConfig() *Config {
	cfg := defaultConfig()
	cfg.Security.JWT.Secret = validJWTSecret
	return cfg
}

func TestLoad_ValidConfig(t *testing.T) {
	path := writeConfig(t, `
server:
  id: "test-server"
database:
  path: "/tmp/test.db"
storage:
  driver: "badger"
  badger:
    dir: "/tmp/blobs"
    base_url: "http://localhost:3000/api/images"
devices:
  max_images: 5
  require_policy_agreement: true
api:
  port: 8080
security:
  jwt:
    secret: "test-secret-key-at-least-32-chars!"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.ID != "test-server" {
		t.Errorf("Server.ID = %q, want %q", cfg.Server.ID, "test-server")
	}
	if cfg.Storage.Driver != "badger" {
		t.Errorf("Storage.Driver = %q, want badger", cfg.Storage.Driver)
	}
	if cfg.Storage.Badger.Dir != "/tmp/blobs" {
		t.Errorf("Storage.Badger.Dir = %q, want /tmp/blobs", cfg.Storage.Badger.Dir)
	}
	if cfg.Devices.MaxImages != 5 {
		t.Errorf("Devices.MaxImages = %d, want 5", cfg.Devices.MaxImages)
	}
	if !cfg.Devices.RequirePolicyAgreement {
		t.Error("Devices.RequirePolicyAgreement = false, want true")
	}
	// Defaults survive for sections the file omits.
	if cfg.Storage.Timeout != 30 {
		t.Errorf("Storage.Timeout = %d, want default 30", cfg.Storage.Timeout)
	}
	if cfg.Devices.MaxUploadBytes != 50<<20 {
		t.Errorf("Devices.MaxUploadBytes = %d, want default", cfg.Devices.MaxUploadBytes)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "invalid: [yaml: content")

	_, err := Load(path)
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	path := writeConfig(t, `
server:
  id: ""
database:
  path: "/tmp/test.db"
`)

	_, err := Load(path)
	if err == nil {
		t.Error("Load() expected validation error, got nil")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, `
database:
  path: "/tmp/from-file.db"
`)

	t.Setenv("ECORENT_JWT_SECRET", validJWTSecret)
	t.Setenv("ECORENT_DATABASE_PATH", "/tmp/from-env.db")
	t.Setenv("ECORENT_STORAGE_S3_BUCKET", "env-bucket")
	t.Setenv("ECORENT_API_PORT", "9090")
	t.Setenv("ECORENT_DEVICES_REQUIRE_POLICY_AGREEMENT", "true")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database.Path != "/tmp/from-env.db" {
		t.Errorf("Database.Path = %q, want env override", cfg.Database.Path)
	}
	if cfg.Storage.S3.Bucket != "env-bucket" {
		t.Errorf("Storage.S3.Bucket = %q, want env-bucket", cfg.Storage.S3.Bucket)
	}
	if cfg.API.Port != 9090 {
		t.Errorf("API.Port = %d, want 9090", cfg.API.Port)
	}
	if !cfg.Devices.RequirePolicyAgreement {
		t.Error("Devices.RequirePolicyAgreement not overridden")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid config",
			mutate: func(*Config) {},
		},
		{
			name:    "missing server ID",
			mutate:  func(c *Config) { c.Server.ID = "" },
			wantErr: "server.id",
		},
		{
			name:    "missing database path",
			mutate:  func(c *Config) { c.Database.Path = "" },
			wantErr: "database.path",
		},
		{
			name:    "unknown storage driver",
			mutate:  func(c *Config) { c.Storage.Driver = "ftp" },
			wantErr: "storage.driver",
		},
		{
			name:    "s3 without bucket",
			mutate:  func(c *Config) { c.Storage.S3.Bucket = "" },
			wantErr: "storage.s3.bucket",
		},
		{
			name: "badger without dir",
			mutate: func(c *Config) {
				c.Storage.Driver = "badger"
				c.Storage.Badger.Dir = ""
			},
			wantErr: "storage.badger.dir",
		},
		{
			name:    "zero storage timeout",
			mutate:  func(c *Config) { c.Storage.Timeout = 0 },
			wantErr: "storage.timeout",
		},
		{
			name:    "zero max images",
			mutate:  func(c *Config) { c.Devices.MaxImages = 0 },
			wantErr: "devices.max_images",
		},
		{
			name:    "invalid QoS",
			mutate:  func(c *Config) { c.MQTT.QoS = 3 },
			wantErr: "mqtt.qos",
		},
		{
			name:    "invalid port",
			mutate:  func(c *Config) { c.API.Port = 70000 },
			wantErr: "api.port",
		},
		{
			name:    "missing JWT secret",
			mutate:  func(c *Config) { c.Security.JWT.Secret = "" },
			wantErr: "security.jwt.secret is required",
		},
		{
			name:    "short JWT secret",
			mutate:  func(c *Config) { c.Security.JWT.Secret = "short" },
			wantErr: "at least 32 characters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() error = nil, want error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %q, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_Durations(t *testing.T) {
	cfg := validConfig()

	if got := cfg.GetReadTimeout(); got != 30*time.Second {
		t.Errorf("GetReadTimeout() = %v, want 30s", got)
	}
	if got := cfg.GetWriteTimeout(); got != 60*time.Second {
		t.Errorf("GetWriteTimeout() = %v, want 60s", got)
	}
	if got := cfg.GetIdleTimeout(); got != 60*time.Second {
		t.Errorf("GetIdleTimeout() = %v, want 60s", got)
	}
	if got := cfg.GetStorageTimeout(); got != 30*time.Second {
		t.Errorf("GetStorageTimeout() = %v, want 30s", got)
	}
}
