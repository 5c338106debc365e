package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
)

type Config struct {
	Database *Database
	HTTP     *HTTP
	Auth     *Auth
	Notify   *Notify
	Order    *Order
	Admin    *Admin
	App      *App
}

const AppModeProduction = "PROD"
const AppModeDevelop = "DEV"

type App struct {
	LogLevel string `env:"LOG_LEVEL"`
	Mode     string `env:"APP_MODE"`
}

type Database struct {
	// DSN empty selects the in-memory store.
	DSN string `env:"DATABASE_URI"`
}

type HTTP struct {
	HostString string `env:"RUN_ADDRESS"`
}

type Auth struct {
	// SymmetricKey is a hex encoded paseto v4 key; empty generates one per run.
	SymmetricKey string        `env:"TOKEN_KEY"`
	TokenTTL     time.Duration `env:"TOKEN_TTL" envDefault:"24h"`
}

type Notify struct {
	Brokers    string `env:"KAFKA_BROKERS"`
	Topic      string `env:"NOTIFY_TOPIC" envDefault:"novacart.notifications"`
	AdminEmail string `env:"ADMIN_EMAIL"`
	Workers    int    `env:"NOTIFY_WORKERS" envDefault:"2"`
	QueueSize  int    `env:"NOTIFY_QUEUE" envDefault:"64"`
}

type Order struct {
	NumberAttempts  int  `env:"ORDER_NUMBER_ATTEMPTS" envDefault:"5"`
	RestockOnCancel bool `env:"RESTOCK_ON_CANCEL" envDefault:"true"`
}

// Admin seeds the first administrator on startup when Email is set.
type Admin struct {
	Name     string `env:"BOOTSTRAP_ADMIN_NAME" envDefault:"Administrator"`
	Email    string `env:"BOOTSTRAP_ADMIN_EMAIL"`
	Password string `env:"BOOTSTRAP_ADMIN_PASSWORD"`
}

func NewConfig() (*Config, error) {
	var db Database
	var http HTTP
	var auth Auth
	var notify Notify
	var order Order
	var admin Admin
	var app App

	flag.StringVar(&db.DSN, "d", "", "Database string")
	flag.StringVar(&http.HostString, "a", `localhost:8080`, "HTTP server endpoint")
	flag.StringVar(&auth.SymmetricKey, "k", "", "Token key (hex)")
	flag.StringVar(&app.LogLevel, "l", `error`, "Log level")
	flag.StringVar(&app.Mode, "m", `DEV`, "PROD / DEV")
	flag.Parse()

	err := env.Parse(&db)
	if err != nil {
		return nil, fmt.Errorf("error parsing env database config: %w", err)
	}
	err = env.Parse(&http)
	if err != nil {
		return nil, fmt.Errorf("error parsing http config: %w", err)
	}
	err = env.Parse(&auth)
	if err != nil {
		return nil, fmt.Errorf("error parsing auth config: %w", err)
	}
	err = env.Parse(&notify)
	if err != nil {
		return nil, fmt.Errorf("error parsing notify config: %w", err)
	}
	err = env.Parse(&order)
	if err != nil {
		return nil, fmt.Errorf("error parsing order config: %w", err)
	}
	err = env.Parse(&admin)
	if err != nil {
		return nil, fmt.Errorf("error parsing admin config: %w", err)
	}
	err = env.Parse(&app)
	if err != nil {
		return nil, fmt.Errorf("error parsing app config: %w", err)
	}

	config := Config{
		Database: &db,
		HTTP:     &http,
		Auth:     &auth,
		Notify:   &notify,
		Order:    &order,
		Admin:    &admin,
		App:      &app,
	}

	return &config, nil
}
