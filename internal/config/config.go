package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Sunflower Land API
	BaseURL     string
	APIKey      string // x-api-key for /community/farms
	BearerToken string // Authorization for /marketplace/profile

	// Data layout
	DataDir        string
	RosterPath     string // farm_ids.txt: adaptive wait + farm IDs
	ItemMapPath    string // item_mapping.txt: item id -> display name
	PacingPath     string // pacing.yaml: wait bounds + retry budget
	LedgerDBPath   string
	IDMapCachePath string

	// Timing
	HTTPTimeout time.Duration

	// Telemetry
	LogLevel string
}

func Load() *Config {
	_ = godotenv.Load()

	dataDir := envStr("SFL_DATA_DIR", "data")

	return &Config{
		BaseURL:     envStr("SFL_BASE_URL", "https://api.sunflower-land.com"),
		APIKey:      envStr("SFL_API_KEY", ""),
		BearerToken: envStr("SFL_BEARER_TOKEN", ""),

		DataDir:        dataDir,
		RosterPath:     envStr("SFL_ROSTER_PATH", "farm_ids.txt"),
		ItemMapPath:    envStr("SFL_ITEM_MAP_PATH", "item_mapping.txt"),
		PacingPath:     envStr("SFL_PACING_PATH", "pacing.yaml"),
		LedgerDBPath:   envStr("SFL_LEDGER_DB_PATH", dataDir+"/ledger.db"),
		IDMapCachePath: envStr("SFL_ID_MAP_PATH", dataDir+"/farm_id_mapping.json"),

		HTTPTimeout: time.Duration(envInt("SFL_HTTP_TIMEOUT_SEC", 30)) * time.Second,

		LogLevel: envStr("LOG_LEVEL", "info"),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
