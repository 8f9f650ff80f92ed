package config

import "time"

type Config struct {
	Web     Web
	Cors    Cors
	Backend Backend
	Session Session
	Auth    Auth
	DB      DB
	Redis   Redis
	Payment Payment
	Stripe  Stripe
	Paypal  Paypal
}

type Web struct {
	Address         string        `conf:"default:0.0.0.0:8000"`
	ReadTimeout     time.Duration `conf:"default:5s"`
	WriteTimeout    time.Duration `conf:"default:15s"`
	IdleTimeout     time.Duration `conf:"default:120s"`
	ShutdownTimeout time.Duration `conf:"default:20s"`
}

type Cors struct {
	Origin string
}

type Backend struct {
	URL     string        `conf:"default:http://localhost:8080/api"`
	Timeout time.Duration `conf:"default:10s"`
}

type Session struct {
	// Lifetime of the browser-session scope. The cookie itself dies with the browser.
	Lifetime time.Duration `conf:"default:24h"`
	// Lifetime of the "remember me" scope.
	RememberLifetime time.Duration `conf:"default:720h"`
	SecureCookie     bool          `conf:"default:false"`
	LoginPath        string        `conf:"default:/login"`
}

type Auth struct {
	LoginBurst    int           `conf:"default:5"`
	LoginInterval time.Duration `conf:"default:12s"`
	LimiterExpiry time.Duration `conf:"default:10m"`
}

// DB backs the durable session scope. Empty Host keeps it in memory.
type DB struct {
	User         string `conf:"default:postgres"`
	Password     string `conf:"default:postgres,mask"`
	Host         string
	Name         string `conf:"default:govod"`
	MaxIdleConns int    `conf:"default:2"`
	MaxOpenConns int    `conf:"default:10"`
	DisableTLS   bool   `conf:"default:true"`
}

// Redis backs the browser-session scope. Empty Address keeps it in memory.
type Redis struct {
	Address  string
	Password string `conf:"mask"`
	DB       int    `conf:"default:0"`
}

type Payment struct {
	Provider string `conf:"default:stripe"`
	Currency string `conf:"default:usd"`
}

type Stripe struct {
	APISecret string `conf:"mask"`
	URL       string
}

type Paypal struct {
	ClientID string
	Secret   string `conf:"mask"`
	URL      string `conf:"default:https://api-m.sandbox.paypal.com"`
}
