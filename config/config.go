package config

import (
	"flag"
	"os"
	"sync"
)

const (
	defaultServerAddress = ":8080"
	defaultDatabaseDSN   = ""
	defaultMomoAPIAddr   = "https://sandbox.momo.example.com"
	defaultLogLevel      = "debug"
)

type Config struct {
	ServerAddr    string
	DatabaseDSN   string
	MomoAPIAddr   string
	MomoAPIKey    string
	MomoAPISecret string
	LogLevel      string
}

var (
	once      sync.Once
	singleton *Config
)

// New returns new Config. It parses command line and environment variables only once.
func New() (*Config, error) {
	once.Do(func() {
		cfg := Config{}

		// initialize flags
		flag.StringVar(&cfg.ServerAddr, "a", defaultServerAddress, "payout server address")
		flag.StringVar(&cfg.DatabaseDSN, "d", defaultDatabaseDSN, "payout database DSN")
		flag.StringVar(&cfg.MomoAPIAddr, "m", defaultMomoAPIAddr, "mobile money API address")
		flag.StringVar(&cfg.LogLevel, "l", defaultLogLevel, "log level")

		flag.Parse()

		// if environment variable is set, then using it
		if runAddrEnv := os.Getenv("RUN_ADDRESS"); runAddrEnv != "" {
			cfg.ServerAddr = runAddrEnv
		}
		if dataBaseURIEnv := os.Getenv("DATABASE_URI"); dataBaseURIEnv != "" {
			cfg.DatabaseDSN = dataBaseURIEnv
		}
		if momoAddrEnv := os.Getenv("MOMO_API_ADDRESS"); momoAddrEnv != "" {
			cfg.MomoAPIAddr = momoAddrEnv
		}
		if logLevelEnv := os.Getenv("LOG_LEVEL"); logLevelEnv != "" {
			cfg.LogLevel = logLevelEnv
		}

		// provider credentials are environment only
		cfg.MomoAPIKey = os.Getenv("MOMO_API_KEY")
		cfg.MomoAPISecret = os.Getenv("MOMO_API_SECRET")

		singleton = &cfg
	})

	return singleton, nil
}
