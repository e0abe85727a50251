package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	cleanenvport "github.com/wb-go/wbf/config/cleanenv-port"
	"github.com/wb-go/wbf/logger"
)

type Config struct {
	Logger    LoggerConfig    `yaml:"logger"    validate:"required"`
	Engine    EngineConfig    `yaml:"engine"    validate:"required"`
	Sweeper   SweeperConfig   `yaml:"sweeper"   validate:"required"`
	Notifier  NotifierConfig  `yaml:"notifier"`
	Redis     RedisConfig     `yaml:"redis"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Inventory InventoryConfig `yaml:"inventory"`
}

type LoggerConfig struct {
	Engine string `yaml:"engine" env:"LOG_ENGINE" env-default:"slog"    validate:"required,oneof=slog zap zerolog logrus"`
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"    validate:"required,oneof=debug info warn error"`
	Mode   string `yaml:"mode"   env:"LOG_MODE"   env-default:"release" validate:"required,oneof=debug release test"`
}

// LogLevel converts the configured level into a wbf logger.Level.
func (c LoggerConfig) LogLevel() logger.Level {
	switch c.Level {
	case "debug":
		return logger.DebugLevel
	case "warn":
		return logger.WarnLevel
	case "error":
		return logger.ErrorLevel
	default:
		return logger.InfoLevel
	}
}

func (c LoggerConfig) LogEngine() logger.Engine {
	return logger.Engine(c.Engine)
}

type EngineConfig struct {
	MinTTL                     time.Duration `yaml:"min_ttl"                       env:"ENGINE_MIN_TTL"       env-default:"1s"  validate:"gt=0"`
	MaxTTL                     time.Duration `yaml:"max_ttl"                       env:"ENGINE_MAX_TTL"       env-default:"15m" validate:"gt=0"`
	MaxResourcesPerReservation int           `yaml:"max_resources_per_reservation" env:"ENGINE_MAX_RESOURCES" env-default:"16"  validate:"min=1"`
}

type SweeperConfig struct {
	Interval time.Duration `yaml:"interval" env:"SWEEP_INTERVAL" env-default:"1s" validate:"required,gt=0"`
}

type NotifierConfig struct {
	Buffer        int    `yaml:"buffer"         env:"NOTIFIER_BUFFER"         env-default:"64" validate:"min=1"`
	ChannelPrefix string `yaml:"channel_prefix" env:"NOTIFIER_CHANNEL_PREFIX" env-default:"reskeeper:events"`
}

// RedisConfig is optional: an empty Addr disables the Redis event sink.
type RedisConfig struct {
	Addr     string `yaml:"addr"     env:"REDIS_ADDR"     env-default:""`
	Password string `yaml:"password" env:"REDIS_PASSWORD" env-default:""`
	DB       int    `yaml:"db"       env:"REDIS_DB"       env-default:"0"`
}

// MetricsConfig is optional: an empty Addr disables the metrics endpoint.
type MetricsConfig struct {
	Addr string `yaml:"addr" env:"METRICS_ADDR" env-default:":9090"`
}

// InventoryConfig seeds the registry at startup. Spec is a comma-separated
// list of category:count pairs, e.g. "vip:16,standard:128".
type InventoryConfig struct {
	Spec string `yaml:"spec" env:"INVENTORY" env-default:""`
}

type CategorySpec struct {
	Category string
	Count    int
}

func (c InventoryConfig) Parse() ([]CategorySpec, error) {
	if strings.TrimSpace(c.Spec) == "" {
		return nil, nil
	}

	var out []CategorySpec
	for _, part := range strings.Split(c.Spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		category, countStr, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("invalid inventory entry %q: want category:count", part)
		}
		category = strings.TrimSpace(category)
		count, err := strconv.Atoi(strings.TrimSpace(countStr))
		if err != nil || count <= 0 || category == "" {
			return nil, fmt.Errorf("invalid inventory entry %q: want category:count", part)
		}
		out = append(out, CategorySpec{Category: category, Count: count})
	}
	return out, nil
}

func MustLoad() *Config {
	var cfg Config
	if err := cleanenvport.Load(&cfg); err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return &cfg
}
