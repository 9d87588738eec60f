// Package config предоставялет структуры и функцию для парсинга и загрузки конфига
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config общая структура для хранения настроек
type Config struct {
	Env                     string        `yaml:"env" env:"APP_ENV" env-default:"local"`
	StorageConnectionString string        `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING"`
	MigrationsPath          string        `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"./migrations"`
	IdempotencyTTL          time.Duration `yaml:"idempotency_ttl" env-default:"24h"`
	RedisConnection         `yaml:"redis_connection"`
	HTTPServer              `yaml:"http_server"`
	JWTToken                `yaml:"jwttoken"`
	PaymentGateway          `yaml:"payment_gateway"`
	RabbitMQ                `yaml:"rabbitmq"`
	SMTP                    `yaml:"smtp"`
	RateLimit               `yaml:"rate_limit"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env:"HTTP_ADDRESS" env-default:":8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"10s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis" env:"REDIS_ADDRESS"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	TimeoutRedis time.Duration `yaml:"timeoutredis"`
}

// JWTToken структура для работы с jwt-токеном
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env:"JWT_SECRET_KEY"`
	TokenTTL     time.Duration `yaml:"token_ttl" env-default:"24h"`
}

// PaymentGateway настройки платежного шлюза
type PaymentGateway struct {
	Provider       string        `yaml:"provider" env-default:"stripe"`
	APIURL         string        `yaml:"api_url" env:"GATEWAY_API_URL"`
	SecretKey      string        `yaml:"secret_key" env:"GATEWAY_SECRET_KEY"`
	GatewayTimeout time.Duration `yaml:"timeout" env-default:"10s"`
}

// RabbitMQ настройки подключения к брокеру
type RabbitMQ struct {
	RabbitMQURL        string        `yaml:"url" env:"RABBITMQ_URL"`
	RabbitMQMaxRetries int           `yaml:"max_retries" env-default:"5"`
	RabbitMQRetryDelay time.Duration `yaml:"retry_delay" env-default:"2s"`
}

// SMTP настройки почтового сервера для отправки чеков
type SMTP struct {
	SMTPHost      string `yaml:"host" env:"SMTP_HOST"`
	SMTPPort      string `yaml:"port" env:"SMTP_PORT" env-default:"587"`
	SMTPUser      string `yaml:"user" env:"SMTP_USER"`
	SMTPPass      string `yaml:"pass" env:"SMTP_PASS"`
	OperatorEmail string `yaml:"operator_email" env:"OPERATOR_EMAIL"`
}

// RateLimit настройки ограничителя запросов
type RateLimit struct {
	RPS   float64 `yaml:"rps" env-default:"5"`
	Burst int     `yaml:"burst" env-default:"10"`
}

// MustLoad функция для загрузки конфига, завершает процесс при ошибке
func MustLoad() *Config {
	cfg, err := Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatal(err)
	}
	return cfg
}

// Load читает .env (если есть) и YAML-файл по указанному пути.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("cannot read .env: %w", err)
	}
	if configPath == "" {
		return nil, errors.New("CONFIG_PATH is not set")
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("file: %s - does not exist", configPath)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("cannot read config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"MigrationsPath: %s\n"+
			"IdempotencyTTL: %s\n"+
			"RedisConnection:\n"+
			"  Addr: %s\n"+
			"  DB: %d\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  IdleTimeout: %s\n"+
			"PaymentGateway:\n"+
			"  Provider: %s\n"+
			"  APIURL: %s\n"+
			"  Timeout: %s\n"+
			"RabbitMQ:\n"+
			"  MaxRetries: %d\n"+
			"  RetryDelay: %s\n"+
			"SMTP:\n"+
			"  Host: %s\n"+
			"  Port: %s\n",
		c.Env,
		c.MigrationsPath,
		c.IdempotencyTTL,
		c.AddressRedis,
		c.DB,
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.IdleTimeout,
		c.Provider,
		c.APIURL,
		c.GatewayTimeout,
		c.RabbitMQMaxRetries,
		c.RabbitMQRetryDelay,
		c.SMTPHost,
		c.SMTPPort,
	)
}
