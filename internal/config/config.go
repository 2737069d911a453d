package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type AppConfig struct {
	API      APIConfig
	Gin      GinConfig
	Postgres PostgresConfig
	Draw     DrawConfig

	mu sync.RWMutex
}

type APIConfig struct {
	Environment        string
	Port               string
	BaseURL            string
	AllowedCORSDomains []string
}

type GinConfig struct {
	Mode string
}

type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// GuaranteedTier is a fixed block of winner tickets created on every
// replenishment run, e.g. 10 tickets at 10.00.
type GuaranteedTier struct {
	Count int
	Prize float64
}

// DrawConfig holds the tunables of the ticket draw. The per-field values vary
// between deployments, so none of them are compile-time constants.
type DrawConfig struct {
	UnitPrice          float64
	MinQuantity        int
	MaxQuantity        int
	LowWaterMark       int64
	ReplenishBatches   int
	ReplenishBatchSize int
	GuaranteedWinners  []GuaranteedTier
	WinnerOdds         int64
	PrizeTiers         []float64
	CodePrefix         string
	CodeMaxAttempts    int
	WorkerCount        int
	QueueSize          int
	ClaimTimeout       time.Duration
	ReplenishInterval  time.Duration
	CleanupInterval    time.Duration
	DefaultPageSize    int
}

// DrawSettings returns a snapshot of the draw section. The snapshot stays
// valid after a config file reload swaps the live values.
func (c *AppConfig) DrawSettings() DrawConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.Draw
}

func Load(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("v.ReadInConfig -> %w", err)
	}

	conf := &AppConfig{}
	if err := v.Unmarshal(conf); err != nil {
		return nil, fmt.Errorf("v.Unmarshal -> %w", err)
	}

	// Only the draw section is hot-reloaded. Server, database and logging
	// settings require a restart.
	v.OnConfigChange(func(e fsnotify.Event) {
		var next AppConfig
		if err := v.Unmarshal(&next); err != nil {
			zap.L().Error("failed to reload config file", zap.String("file", e.Name), zap.Error(err))
			return
		}

		conf.mu.Lock()
		conf.Draw = next.Draw
		conf.mu.Unlock()

		zap.L().Info("draw settings reloaded", zap.String("file", e.Name))
	})
	v.WatchConfig()

	return conf, nil
}
