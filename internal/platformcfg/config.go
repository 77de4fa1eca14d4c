// Package platformcfg loads the platform's flat, env-driven configuration.
package platformcfg

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds every setting the platform reads from its environment.
type Config struct {
	// Auth
	JWTPubKey string

	// Secret store (Vault)
	VaultAddr      string
	VaultNamespace string
	Mount          string
	VPath          string
	VSocketPath    string
	ORoleID        string
	OSecretID      string

	// System DB / chain-indexer DB
	PlatformDBURL string
	DBSyncDBURL   string

	// Used-UTxO / raw-tx stores
	RedisDB            string
	RedisDBURLUtxoMind string
	RedisCluster       bool

	// Protocol parameters
	CardanoProtocolParameterPath string

	// HTTP gateway bind address
	PodHost string
	PodPort int

	// Dispatcher
	DispatcherAddr        string
	MaxDispatcherConns    int
	RequestDeadlineSecs   int
	ClaimRateLimitPerBurst int
	ClaimRateLimitWindowSecs int
}

// Load populates a Config from the environment, following the same
// os.Getenv-with-fallback idiom across every field.
func Load() (*Config, error) {
	cfg := &Config{
		JWTPubKey: getEnv("JWT_PUB_KEY", ""),

		VaultAddr:      getEnv("VAULT_ADDR", ""),
		VaultNamespace: getEnv("VAULT_NAMESPACE", ""),
		Mount:          getEnv("MOUNT", "secret"),
		VPath:          getEnv("VPATH", "platform"),
		VSocketPath:    getEnv("VSOCKET_PATH", "/tmp/drasil-vault.sock"),
		ORoleID:        getEnv("OROLE_ID", ""),
		OSecretID:      getEnv("OSECRET_ID", ""),

		PlatformDBURL: getEnv("PLATFORM_DB_URL", ""),
		DBSyncDBURL:   getEnv("DBSYNC_DB_URL", ""),

		RedisDB:            getEnv("REDIS_DB", ""),
		RedisDBURLUtxoMind: getEnv("REDIS_DB_URL_UTXOMIND", ""),
		RedisCluster:       getEnvBool("REDIS_CLUSTER", false),

		CardanoProtocolParameterPath: getEnv("CARDANO_PROTOCOL_PARAMETER_PATH", ""),

		PodHost: getEnv("POD_HOST", "0.0.0.0"),
		PodPort: getEnvInt("POD_PORT", 8080),

		DispatcherAddr:           getEnv("DISPATCHER_ADDR", "127.0.0.1:9010"),
		MaxDispatcherConns:       getEnvInt("MAX_DISPATCHER_CONNS", 1000),
		RequestDeadlineSecs:      getEnvInt("REQUEST_DEADLINE_SECS", 30),
		ClaimRateLimitPerBurst:   getEnvInt("CLAIM_RATE_LIMIT_BURST", 2),
		ClaimRateLimitWindowSecs: getEnvInt("CLAIM_RATE_LIMIT_WINDOW_SECS", 5),
	}

	if cfg.PlatformDBURL == "" {
		return nil, fmt.Errorf("platformcfg: PLATFORM_DB_URL is required")
	}
	if cfg.JWTPubKey == "" {
		return nil, fmt.Errorf("platformcfg: JWT_PUB_KEY is required")
	}

	return cfg, nil
}

// ProtocolParameterFile is the optional YAML-encoded protocol-parameter
// override loaded from CARDANO_PROTOCOL_PARAMETER_PATH. When the path is
// empty, callers fall back to live protocol parameters from L2.
type ProtocolParameterFile struct {
	MinFeeA            uint64  `yaml:"min_fee_a"`
	MinFeeB            uint64  `yaml:"min_fee_b"`
	CoinsPerUTXOByte   uint64  `yaml:"coins_per_utxo_byte"`
	PriceMem           float64 `yaml:"price_mem"`
	PriceStep          float64 `yaml:"price_step"`
	MaxTxSize          uint64  `yaml:"max_tx_size"`
	MaxValueSize       uint64  `yaml:"max_value_size"`
	PoolDeposit        uint64  `yaml:"pool_deposit"`
	KeyDeposit         uint64  `yaml:"key_deposit"`
}

// LoadProtocolParameterFile reads and decodes the YAML file at path. It
// returns (nil, nil) when path is empty so callers can treat "no override
// configured" distinctly from a read/parse error.
func LoadProtocolParameterFile(path string) (*ProtocolParameterFile, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("platformcfg: reading protocol parameter file: %w", err)
	}
	var pp ProtocolParameterFile
	if err := yaml.Unmarshal(raw, &pp); err != nil {
		return nil, fmt.Errorf("platformcfg: parsing protocol parameter file: %w", err)
	}
	return &pp, nil
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultValue
}
