package config

import (
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	RunAddress    string `env:"RUN_ADDRESS"`
	DatabaseDSN   string `env:"DATABASE_URI"`
	MigrationsDir string `env:"MIGRATIONS_DIR"`

	// AppURL публичный адрес сервиса. Используется keep-alive пингером и как база
	// для URL вебхука платежного шлюза.
	AppURL       string        `env:"APP_URL"`
	PingInterval time.Duration `env:"PING_INTERVAL" envDefault:"10m"`

	ClerkSecretKey string `env:"CLERK_SECRET_KEY"`

	S3Bucket string `env:"S3_BUCKET"`

	PesapalBaseURL        string `env:"PESAPAL_BASE_URL"        envDefault:"https://cybqa.pesapal.com/pesapalv3/api"`
	PesapalConsumerKey    string `env:"PESAPAL_CONSUMER_KEY"`
	PesapalConsumerSecret string `env:"PESAPAL_CONSUMER_SECRET"`
	PesapalCurrency       string `env:"PESAPAL_CURRENCY"        envDefault:"UGX"`
	// PaymentRedirectURL страница, на которую шлюз вернет плательщика после оплаты.
	PaymentRedirectURL string `env:"PAYMENT_REDIRECT_URL"`
}

func LoadConfig() (*Config, error) {
	// .env не обязателен, его отсутствие не является ошибкой.
	_ = godotenv.Load()

	var flagsConfig, envConfig Config

	if envParseErr := env.Parse(&envConfig); envParseErr != nil {
		return nil, fmt.Errorf("parse env config: %s", envParseErr.Error())
	}

	loadFlags(&flagsConfig)

	conf := mergeConfig(&envConfig, &flagsConfig)
	if conf.DatabaseDSN == "" {
		return nil, errors.New("database DSN is not set")
	}
	return conf, nil
}

func MustLoadConfig() *Config {
	config, err := LoadConfig()
	if err != nil {
		panic(err)
	}
	return config
}

func loadFlags(flagConfig *Config) {
	flag.StringVar(&flagConfig.RunAddress, "a", "localhost:8080", "Run address in format host:port")
	flag.StringVar(&flagConfig.DatabaseDSN, "d", "", "Database DSN")
	flag.StringVar(&flagConfig.MigrationsDir, "m", "db/migrations", "Database migrations directory")
	flag.StringVar(&flagConfig.AppURL, "u", "http://localhost:8080", "Public application URL")

	flag.Parse()
}

func mergeConfig(envConfig, flagsConfig *Config) *Config {
	merged := *envConfig
	merged.RunAddress = defaultIfBlank(envConfig.RunAddress, flagsConfig.RunAddress)
	merged.DatabaseDSN = defaultIfBlank(envConfig.DatabaseDSN, flagsConfig.DatabaseDSN)
	merged.MigrationsDir = defaultIfBlank(envConfig.MigrationsDir, flagsConfig.MigrationsDir)
	merged.AppURL = defaultIfBlank(envConfig.AppURL, flagsConfig.AppURL)
	return &merged
}

func defaultIfBlank(value string, defaultValue string) string {
	if value == "" {
		return defaultValue
	}
	return value
}
