package config

import (
	"os"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"GEYSER_ENDPOINT", "SHRED_ENDPOINT", "STREAMING_BEARER_TOKEN",
		"STREAMING_MAX_MESSAGE_SIZE_BYTES", "STREAMING_PING_INTERVAL",
		"STREAMING_CHANNEL_READY_TIMEOUT", "RPC_FALLBACK_URL", "RPC_STAKED_URL",
		"SIGNER_KEY_PATH", "RAYDIUM_POOLS_API_URL", "PRICE_API_URL", "AGGREGATOR_URL", "AGGREGATOR_API_KEY",
		"ORCA_SIDECAR_URL", "BUNDLE_RELAY_URL", "TIP_FLOOR_URL", "DB_DRIVER", "DB_HOST", "DB_PORT", "DB_NAME",
		"DB_USER", "DB_PASSWORD", "DB_SSL_MODE", "ENCRYPTION_KEY",
		"ALLOWED_ORIGINS", "AUTH_ENABLED", "IP_WHITELIST", "LOG_LEVEL",
		"LOG_FORMAT",
	}
	for _, k := range keys {
		os.Unsetenv(k)
	}
}

func requiredEnv(t *testing.T) {
	t.Helper()
	os.Setenv("GEYSER_ENDPOINT", "https://geyser.example.com:443")
	os.Setenv("SIGNER_KEY_PATH", "/etc/solexec/signer.key")
	os.Setenv("ENCRYPTION_KEY", "01234567890123456789012345678901")
}

func TestLoad_MissingGeyserEndpoint(t *testing.T) {
	clearEnv(t)
	os.Setenv("SIGNER_KEY_PATH", "/etc/solexec/signer.key")
	os.Setenv("ENCRYPTION_KEY", "01234567890123456789012345678901")
	defer clearEnv(t)

	if _, err := Load(); err == nil {
		t.Fatal("expected error when GEYSER_ENDPOINT is unset")
	}
}

func TestLoad_MissingSignerKeyPath(t *testing.T) {
	clearEnv(t)
	os.Setenv("GEYSER_ENDPOINT", "https://geyser.example.com:443")
	os.Setenv("ENCRYPTION_KEY", "01234567890123456789012345678901")
	defer clearEnv(t)

	if _, err := Load(); err == nil {
		t.Fatal("expected error when SIGNER_KEY_PATH is unset")
	}
}

func TestLoad_EncryptionKeyWrongLength(t *testing.T) {
	clearEnv(t)
	requiredEnv(t)
	os.Setenv("ENCRYPTION_KEY", "tooshort")
	defer clearEnv(t)

	if _, err := Load(); err == nil {
		t.Fatal("expected error for a non-32-byte ENCRYPTION_KEY")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	requiredEnv(t)
	defer clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.RPC.FallbackURL != "https://api.mainnet-beta.solana.com" {
		t.Errorf("RPC.FallbackURL default = %q", cfg.RPC.FallbackURL)
	}
	if cfg.Orca.SidecarURL != "http://127.0.0.1:5003" {
		t.Errorf("Orca.SidecarURL default = %q", cfg.Orca.SidecarURL)
	}
	if cfg.Streaming.MaxMessageSizeBytes != 64*1024*1024 {
		t.Errorf("Streaming.MaxMessageSizeBytes default = %d", cfg.Streaming.MaxMessageSizeBytes)
	}
	if cfg.Streaming.PingInterval != 30*time.Second {
		t.Errorf("Streaming.PingInterval default = %v", cfg.Streaming.PingInterval)
	}
	if cfg.Database.Driver != "postgres" {
		t.Errorf("Database.Driver default = %q", cfg.Database.Driver)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level default = %q", cfg.Logging.Level)
	}
	if cfg.Security.AuthEnabled {
		t.Error("Security.AuthEnabled default should be false")
	}
}

func TestLoad_OverridesFromEnv(t *testing.T) {
	clearEnv(t)
	requiredEnv(t)
	os.Setenv("SHRED_ENDPOINT", "https://shred.example.com:443")
	os.Setenv("STREAMING_MAX_MESSAGE_SIZE_BYTES", "1048576")
	os.Setenv("STREAMING_PING_INTERVAL", "5s")
	os.Setenv("DB_PORT", "6543")
	os.Setenv("AUTH_ENABLED", "true")
	defer clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Streaming.ShredEndpoint != "https://shred.example.com:443" {
		t.Errorf("Streaming.ShredEndpoint = %q", cfg.Streaming.ShredEndpoint)
	}
	if cfg.Streaming.MaxMessageSizeBytes != 1048576 {
		t.Errorf("Streaming.MaxMessageSizeBytes = %d", cfg.Streaming.MaxMessageSizeBytes)
	}
	if cfg.Streaming.PingInterval != 5*time.Second {
		t.Errorf("Streaming.PingInterval = %v", cfg.Streaming.PingInterval)
	}
	if cfg.Database.Port != 6543 {
		t.Errorf("Database.Port = %d", cfg.Database.Port)
	}
	if !cfg.Security.AuthEnabled {
		t.Error("Security.AuthEnabled should be true")
	}
}

func TestGetEnvAsInt_InvalidFallsBackToDefault(t *testing.T) {
	os.Setenv("TEST_INT_KEY", "not-a-number")
	defer os.Unsetenv("TEST_INT_KEY")

	if got := getEnvAsInt("TEST_INT_KEY", 42); got != 42 {
		t.Errorf("getEnvAsInt with invalid value = %d, want 42", got)
	}
}

func TestGetEnvAsDuration_InvalidFallsBackToDefault(t *testing.T) {
	os.Setenv("TEST_DURATION_KEY", "not-a-duration")
	defer os.Unsetenv("TEST_DURATION_KEY")

	if got := getEnvAsDuration("TEST_DURATION_KEY", 7*time.Second); got != 7*time.Second {
		t.Errorf("getEnvAsDuration with invalid value = %v, want 7s", got)
	}
}

func TestGetEnvAsBool_InvalidFallsBackToDefault(t *testing.T) {
	os.Setenv("TEST_BOOL_KEY", "not-a-bool")
	defer os.Unsetenv("TEST_BOOL_KEY")

	if got := getEnvAsBool("TEST_BOOL_KEY", true); !got {
		t.Error("getEnvAsBool with invalid value should fall back to default true")
	}
}
