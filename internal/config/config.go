package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const (
	defaultRunAddress        = "localhost:8080"
	defaultMigrationsDir     = "internal/db/migrations"
	defaultKafkaTopic        = "order.settled"
	defaultOutboxWorkers     = 3
	defaultOutboxMaxAttempts = 5
)

type Config struct {
	RunAddress    string `env:"RUN_ADDRESS"`
	DatabaseDSN   string `env:"DATABASE_URI"`
	MigrationsDir string `env:"MIGRATIONS_DIR"`

	// RedisAddress пустое значение - блокировки пользователей держатся в памяти процесса.
	RedisAddress  string `env:"REDIS_ADDRESS"`
	RedisPassword string `env:"REDIS_PASSWORD"`

	// KafkaBrokers пустой список отключает outbox и публикацию событий.
	KafkaBrokers      []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopic        string   `env:"KAFKA_TOPIC"`
	OutboxWorkers     int      `env:"OUTBOX_WORKERS"`
	OutboxMaxAttempts int      `env:"OUTBOX_MAX_ATTEMPTS"`

	LogLevel string `env:"LOG_LEVEL"`
}

// LoadConfig читает конфигурацию из .env (если есть), переменных окружения и флагов.
// Переменные окружения имеют приоритет над флагами.
func LoadConfig() (*Config, error) {
	return loadConfig(os.Args[1:])
}

func MustLoadConfig() *Config {
	config, err := LoadConfig()
	if err != nil {
		panic(err)
	}
	return config
}

func loadConfig(args []string) (*Config, error) {
	// .env файл не обязателен.
	_ = godotenv.Load()

	var flagsConfig, envConfig Config

	if envParseErr := env.Parse(&envConfig); envParseErr != nil {
		return nil, fmt.Errorf("parse env config: %s", envParseErr.Error())
	}

	if flagsErr := loadFlags(args, &flagsConfig); flagsErr != nil {
		return nil, fmt.Errorf("parse flags: %w", flagsErr)
	}

	conf := mergeConfig(&envConfig, &flagsConfig)
	if err := conf.validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

// Level уровень логирования. Пустое значение - logrus.InfoLevel.
func (c *Config) Level() logrus.Level {
	if c.LogLevel == "" {
		return logrus.InfoLevel
	}
	level, _ := logrus.ParseLevel(c.LogLevel)
	return level
}

// OutboxEnabled true, если заданы брокеры kafka.
func (c *Config) OutboxEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func (c *Config) validate() error {
	if c.DatabaseDSN == "" {
		return errors.New("database DSN is not set")
	}
	if c.LogLevel != "" {
		if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
			return fmt.Errorf("invalid log level: %w", err)
		}
	}
	if c.OutboxEnabled() && c.KafkaTopic == "" {
		return errors.New("kafka topic is not set")
	}
	return nil
}

func loadFlags(args []string, flagConfig *Config) error {
	fs := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)

	var brokers string
	fs.StringVar(&flagConfig.RunAddress, "a", defaultRunAddress, "Run address in format host:port")
	fs.StringVar(&flagConfig.DatabaseDSN, "d", "", "Database DSN")
	fs.StringVar(&flagConfig.MigrationsDir, "m", defaultMigrationsDir, "Database migrations directory")
	fs.StringVar(&flagConfig.RedisAddress, "r", "", "Redis address for user locks, host:port")
	fs.StringVar(&brokers, "k", "", "Kafka brokers, comma separated")
	fs.StringVar(&flagConfig.KafkaTopic, "t", defaultKafkaTopic, "Kafka topic for settled orders")
	fs.IntVar(&flagConfig.OutboxWorkers, "w", defaultOutboxWorkers, "Outbox relay workers")
	fs.IntVar(&flagConfig.OutboxMaxAttempts, "outbox-attempts", defaultOutboxMaxAttempts, "Outbox delivery attempts")
	fs.StringVar(&flagConfig.LogLevel, "l", "", "Log level")

	if err := fs.Parse(args); err != nil {
		return err //nolint:wrapcheck
	}
	flagConfig.KafkaBrokers = splitList(brokers)
	return nil
}

func mergeConfig(envConfig, flagsConfig *Config) *Config {
	return &Config{
		RunAddress:        defaultIfBlank(envConfig.RunAddress, flagsConfig.RunAddress),
		DatabaseDSN:       defaultIfBlank(envConfig.DatabaseDSN, flagsConfig.DatabaseDSN),
		MigrationsDir:     defaultIfBlank(envConfig.MigrationsDir, flagsConfig.MigrationsDir),
		RedisAddress:      defaultIfBlank(envConfig.RedisAddress, flagsConfig.RedisAddress),
		RedisPassword:     envConfig.RedisPassword,
		KafkaBrokers:      defaultIfEmpty(splitList(strings.Join(envConfig.KafkaBrokers, ",")), flagsConfig.KafkaBrokers),
		KafkaTopic:        defaultIfBlank(envConfig.KafkaTopic, flagsConfig.KafkaTopic),
		OutboxWorkers:     defaultIfZero(envConfig.OutboxWorkers, flagsConfig.OutboxWorkers),
		OutboxMaxAttempts: defaultIfZero(envConfig.OutboxMaxAttempts, flagsConfig.OutboxMaxAttempts),
		LogLevel:          defaultIfBlank(envConfig.LogLevel, flagsConfig.LogLevel),
	}
}

// splitList разбивает строку по запятым, отбрасывая пустые элементы.
func splitList(value string) []string {
	var res []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			res = append(res, item)
		}
	}
	return res
}

func defaultIfBlank(value string, defaultValue string) string {
	if value == "" {
		return defaultValue
	}
	return value
}

func defaultIfZero(value int, defaultValue int) int {
	if value <= 0 {
		return defaultValue
	}
	return value
}

func defaultIfEmpty(value []string, defaultValue []string) []string {
	if len(value) == 0 {
		return defaultValue
	}
	return value
}
