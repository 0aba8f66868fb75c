package config // package config loads application configuration from environment variables

import (
	"errors"  // errors.Join reports every missing key at once
	"fmt"     // fmt formats validation errors
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"strings" // strings splits list-valued variables
	"time"    // time expresses token and notification lifetimes
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  A Config is built once at startup and passed to
// the components that need it; nothing reads the environment afterwards.
type Config struct {
	Env    string // application environment (e.g. "dev", "prod")
	Port   string // HTTP port to listen on
	DBUser string // database username
	DBPass string // database password (optional)
	DBHost string // database host address
	DBPort string // database port number
	DBName string // database name

	JWTSecret     string        // secret used to sign session tokens
	AccessTTL     time.Duration // session token lifetime
	BcryptCost    int           // bcrypt cost for password hashing
	ClientURL     string        // base URL of the web client, used in verification links
	CORSOrigins   []string      // allowed browser origins
	LogLevel      string        // debug | info | warn | error
	LogFormat     string        // text | json
	RabbitURL     string        // AMQP broker URL; empty disables the queue notifier
	VerifyQueue   string        // queue carrying verification mail requests
	NotifyTimeout time.Duration // upper bound for one notification attempt

	SMTPHost string // SMTP relay host; empty means log-only delivery
	SMTPPort string // SMTP relay port
	SMTPUser string // SMTP username
	SMTPPass string // SMTP password
	MailFrom string // From address for outgoing mail

	StripeWebhookSecret string // signing secret for billing webhooks; empty disables the route
}

// Defaults applied when the variable is unset.
const (
	defaultAccessTTLMin = 60
	defaultBcryptCost   = 10
	defaultVerifyQueue  = "auth.verification"
)

// Load reads configuration values from environment variables and returns a
// Config.  Every missing required variable is reported in the returned
// error; callers treat a non-nil error as fatal.
func Load() (Config, error) {
	l := &loader{}
	cfg := Config{
		Env:    l.str("APP_ENV", "dev"),
		Port:   l.str("APP_PORT", "3000"),
		DBUser: l.must("DB_USER"),
		DBPass: os.Getenv("DB_PASS"), // empty allowed
		DBHost: l.str("DB_HOST", "localhost"),
		DBPort: l.str("DB_PORT", "3306"),
		DBName: l.must("DB_NAME"),

		JWTSecret:   l.must("JWT_SECRET"),
		AccessTTL:   time.Duration(l.int("ACCESS_TOKEN_TTL_MIN", defaultAccessTTLMin)) * time.Minute,
		BcryptCost:  l.int("BCRYPT_COST", defaultBcryptCost),
		ClientURL:   strings.TrimRight(l.str("CLIENT_URL", "http://localhost:5173"), "/"),
		CORSOrigins: splitList(l.str("CORS_ORIGINS", "http://localhost:5173")),

		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
	}
	l.shared(&cfg)
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		l.errs = append(l.errs, fmt.Errorf("BCRYPT_COST out of range: %d", cfg.BcryptCost))
	}
	if cfg.AccessTTL <= 0 {
		l.errs = append(l.errs, errors.New("ACCESS_TOKEN_TTL_MIN must be positive"))
	}
	if len(l.errs) > 0 {
		return Config{}, errors.Join(l.errs...)
	}
	return cfg, nil
}

// LoadMailer reads the settings the mailer process needs.  Only the broker
// URL is required; database and token settings are left empty.
func LoadMailer() (Config, error) {
	l := &loader{}
	cfg := Config{Env: l.str("APP_ENV", "dev")}
	l.shared(&cfg)
	if cfg.RabbitURL == "" {
		l.errs = append(l.errs, errors.New("missing required env var: RABBITMQ_URL (or AMQP_URL)"))
	}
	if len(l.errs) > 0 {
		return Config{}, errors.Join(l.errs...)
	}
	return cfg, nil
}

// shared fills the logging, queue and mail settings common to both
// processes.
func (l *loader) shared(cfg *Config) {
	cfg.LogLevel = l.str("LOG_LEVEL", "info")
	cfg.LogFormat = l.str("LOG_FORMAT", "text")
	cfg.RabbitURL = firstNonEmpty(os.Getenv("RABBITMQ_URL"), os.Getenv("AMQP_URL"))
	cfg.VerifyQueue = l.str("VERIFICATION_QUEUE", defaultVerifyQueue)
	cfg.NotifyTimeout = l.dur("NOTIFY_TIMEOUT", 10*time.Second)

	cfg.SMTPHost = os.Getenv("SMTP_HOST")
	cfg.SMTPPort = l.str("SMTP_PORT", "587")
	cfg.SMTPUser = os.Getenv("SMTP_USER")
	cfg.SMTPPass = os.Getenv("SMTP_PASS")
	cfg.MailFrom = l.str("MAIL_FROM", "no-reply@localhost")
}

// loader accumulates errors so a misconfigured deployment learns about every
// missing variable in one run.
type loader struct {
	errs []error
}

// must retrieves the value of a required environment variable.
func (l *loader) must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		l.errs = append(l.errs, fmt.Errorf("missing required env var: %s", key))
		return ""
	}
	return v
}

func (l *loader) str(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// int is like str but converts the value; malformed numbers are errors, not defaults.
func (l *loader) int(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		l.errs = append(l.errs, fmt.Errorf("invalid int for %s: %q", key, s))
		return def
	}
	return n
}

func (l *loader) dur(key string, def time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		l.errs = append(l.errs, fmt.Errorf("invalid duration for %s: %q", key, s))
		return def
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
