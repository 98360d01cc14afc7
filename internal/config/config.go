package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the whole process's static, env-driven configuration
// (SPEC_FULL §10 "Configuration"). Restructured from the teacher's
// {Server,Database,Security,Bot,Logging} split into this domain's §6
// environment contract; Database/Security/Logging are kept, Server/Bot
// are replaced by Streaming/RPC/Signer/Aggregator/Orca.
type Config struct {
	Streaming  StreamingConfig
	RPC        RPCConfig
	Signer     SignerConfig
	Raydium    RaydiumConfig
	Sniper     SniperConfig
	Aggregator AggregatorConfig
	Orca       OrcaConfig
	Relay      RelayConfig
	Database   DatabaseConfig
	Security   SecurityConfig
	Logging    LoggingConfig
}

// RaydiumConfig names the pools-by-mint-pair vendor endpoint the
// registry's discovery path queries (spec §4.3 discovery step (a)).
type RaydiumConfig struct {
	PoolsAPIURL string
}

// SniperConfig names the sniper/HFT detector's own env-configured
// vendor endpoints and tuning knobs, on top of RuntimeSettings' hot
// fields (spec §4.6).
type SniperConfig struct {
	PriceAPIURL string
}

// StreamingConfig configures the dual Geyser/shred gRPC subscriptions
// (spec §4.1/§6).
type StreamingConfig struct {
	GeyserEndpoint      string
	ShredEndpoint       string
	BearerToken         string
	MaxMessageSizeBytes int
	PingInterval        time.Duration
	ChannelReadyTimeout time.Duration
}

// RPCConfig is the RPC fallback/staked-poll configuration (spec §6: "RPC
// URL (fallback only) and a staked-RPC URL (preferred for reserve
// polls)").
type RPCConfig struct {
	FallbackURL string
	StakedURL   string
}

// SignerConfig names the server's single signing key (spec §6 "Server
// signing key path").
type SignerConfig struct {
	KeyPath string
}

// AggregatorConfig is the last-resort aggregator fallback (spec §4.7/§6).
type AggregatorConfig struct {
	URL    string
	APIKey string
}

// OrcaConfig is the local DEX sidecar endpoint (spec §4.7/§6).
type OrcaConfig struct {
	SidecarURL string
}

// RelayConfig names the Jito-family block-builder bundle relay (spec
// §4.8/§6 "block-building relay"). Not itself listed among §6's env
// vars, which enumerate streaming/RPC/signer/aggregator/orca but are
// silent on the relay endpoint the bundle executor submits to; added
// here since §4.8 requires one.
type RelayConfig struct {
	URL         string
	TipFloorURL string
}

// DatabaseConfig - connection settings for the read/reload persistence
// boundary (internal/store). Kept verbatim from the teacher.
type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     int
	Name     string
	User     string
	Password string
	SSLMode  string
}

// SecurityConfig - kept as a pass-through for the out-of-scope API
// boundary (spec §6 "Allowed origins, auth enablement, IP whitelist"),
// plus EncryptionKey which this repo actually uses, to encrypt the
// signing key file at rest (pkg/crypto.Encrypt/Decrypt).
type SecurityConfig struct {
	EncryptionKey  string
	AllowedOrigins string
	AuthEnabled    bool
	IPWhitelist    string
}

// LoggingConfig - kept verbatim from the teacher.
type LoggingConfig struct {
	Level  string
	Format string
}

// Load reads Config from the environment.
func Load() (*Config, error) {
	cfg := &Config{
		Streaming: StreamingConfig{
			GeyserEndpoint:      getEnv("GEYSER_ENDPOINT", ""),
			ShredEndpoint:       getEnv("SHRED_ENDPOINT", ""),
			BearerToken:         getEnv("STREAMING_BEARER_TOKEN", ""),
			MaxMessageSizeBytes: getEnvAsInt("STREAMING_MAX_MESSAGE_SIZE_BYTES", 64*1024*1024),
			PingInterval:        getEnvAsDuration("STREAMING_PING_INTERVAL", 30*time.Second),
			ChannelReadyTimeout: getEnvAsDuration("STREAMING_CHANNEL_READY_TIMEOUT", 15*time.Second),
		},
		RPC: RPCConfig{
			FallbackURL: getEnv("RPC_FALLBACK_URL", "https://api.mainnet-beta.solana.com"),
			StakedURL:   getEnv("RPC_STAKED_URL", ""),
		},
		Signer: SignerConfig{
			KeyPath: getEnv("SIGNER_KEY_PATH", ""),
		},
		Raydium: RaydiumConfig{
			PoolsAPIURL: getEnv("RAYDIUM_POOLS_API_URL", "https://api-v3.raydium.io"),
		},
		Sniper: SniperConfig{
			PriceAPIURL: getEnv("PRICE_API_URL", "https://api.jup.ag/price/v2"),
		},
		Aggregator: AggregatorConfig{
			URL:    getEnv("AGGREGATOR_URL", ""),
			APIKey: getEnv("AGGREGATOR_API_KEY", ""),
		},
		Orca: OrcaConfig{
			SidecarURL: getEnv("ORCA_SIDECAR_URL", "http://127.0.0.1:5003"),
		},
		Relay: RelayConfig{
			URL:         getEnv("BUNDLE_RELAY_URL", ""),
			TipFloorURL: getEnv("TIP_FLOOR_URL", "https://bundles.jito.wtf/api/v1/bundles/tip_floor"),
		},
		Database: DatabaseConfig{
			Driver:   getEnv("DB_DRIVER", "postgres"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			Name:     getEnv("DB_NAME", "solexec"),
			User:     getEnv("DB_USER", "user"),
			Password: getEnv("DB_PASSWORD", "password"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		Security: SecurityConfig{
			EncryptionKey:  getEnv("ENCRYPTION_KEY", ""),
			AllowedOrigins: getEnv("ALLOWED_ORIGINS", ""),
			AuthEnabled:    getEnvAsBool("AUTH_ENABLED", false),
			IPWhitelist:    getEnv("IP_WHITELIST", ""),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if cfg.Streaming.GeyserEndpoint == "" {
		return nil, fmt.Errorf("GEYSER_ENDPOINT is required")
	}
	if cfg.Signer.KeyPath == "" {
		return nil, fmt.Errorf("SIGNER_KEY_PATH is required: the executor cannot sign bundles without it")
	}
	if cfg.Security.EncryptionKey == "" {
		return nil, fmt.Errorf("ENCRYPTION_KEY is required for encrypting the signing key at rest")
	}
	if len(cfg.Security.EncryptionKey) != 32 {
		return nil, fmt.Errorf("ENCRYPTION_KEY must be exactly 32 bytes for AES-256")
	}

	return cfg, nil
}

// Helper functions for reading environment variables, kept verbatim from
// the teacher.

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
