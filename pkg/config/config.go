package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/muhammadchandra19/market-gateway/pkg/questdb"
	"github.com/muhammadchandra19/market-gateway/pkg/redis"
)

// Config represents the application configuration.
type Config struct {
	App        AppConfig        `envPrefix:"APP_"`
	Feed       FeedConfig       `envPrefix:"FEED_"`
	Shm        ShmConfig        `envPrefix:"SHM_"`
	Book       BookConfig       `envPrefix:"BOOK_"`
	Aggregator AggregatorConfig `envPrefix:"AGGREGATOR_"`
	Server     ServerConfig     `envPrefix:"SERVER_"`
	Kafka      KafkaConfig      `envPrefix:"KAFKA_"`
	Redis      RedisConfig      `envPrefix:"REDIS_"`
	QuestDB    QuestDBConfig    `envPrefix:"QUESTDB_"`
}

// AppConfig represents the application identity and logging configuration.
type AppConfig struct {
	Name        string `env:"NAME" envDefault:"market-gateway"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	ProductID   string `env:"PRODUCT_ID" envDefault:"BTC-USD"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
}

// FeedConfig configures the TCP market-data listener.
type FeedConfig struct {
	Addr string `env:"ADDR" envDefault:":9999"`
}

// ShmConfig configures the shared-memory transport. Disabled unless a region
// path is set.
type ShmConfig struct {
	BookPath     string        `env:"BOOK_PATH"`
	MarketPath   string        `env:"MARKET_PATH"`
	RegionSize   int           `env:"REGION_SIZE" envDefault:"4096"`
	BookPoll     time.Duration `env:"BOOK_POLL" envDefault:"1s"`
	MarketPoll   time.Duration `env:"MARKET_POLL" envDefault:"10ms"`
	InitAttempts int           `env:"INIT_ATTEMPTS" envDefault:"20"`
	InitDelay    time.Duration `env:"INIT_DELAY" envDefault:"500ms"`
}

// BookConfig configures the in-memory market state.
type BookConfig struct {
	PriceCapacity int `env:"PRICE_CAPACITY" envDefault:"10000"`
	MaxCandles    int `env:"MAX_CANDLES" envDefault:"500"`
}

// AggregatorConfig configures the candle aggregation loop.
type AggregatorConfig struct {
	Interval time.Duration `env:"INTERVAL" envDefault:"500ms"`
}

// ServerConfig configures the presentation-facing HTTP/websocket server.
type ServerConfig struct {
	Addr string `env:"ADDR" envDefault:":8080"`
}

// KafkaConfig configures the trade publisher.
type KafkaConfig struct {
	Enabled bool     `env:"ENABLED" envDefault:"false"`
	Brokers []string `env:"BROKERS" envSeparator:"," envDefault:"localhost:9092"`
	Topic   string   `env:"TOPIC" envDefault:"trades"`
}

// RedisConfig configures the live-market cache.
type RedisConfig struct {
	Enabled bool `env:"ENABLED" envDefault:"false"`
	redis.Config
}

// QuestDBConfig configures the sealed-candle history writer.
type QuestDBConfig struct {
	Enabled bool `env:"ENABLED" envDefault:"false"`
	questdb.Config
}

// Load loads the configuration from the environment.
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}
