package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	EnvDev  = "dev"
	EnvProd = "prod"

	PolicyOverlap   = "overlap"
	PolicyExclusive = "exclusive"

	CounterMongo = "mongo"
	CounterRedis = "redis"
)

// Source is the read side of *apt.Config.
type Source interface {
	GetString(key string) (string, bool)
}

type AppConfig struct {
	Env      string
	LogLevel string

	MongoURL  string
	MongoName string

	NATSEnabled       bool
	NATSURL           string
	NATSStreamEnabled bool

	RedisEnabled bool
	RedisAddr    string
	RedisDB      int

	SessionTTL           time.Duration
	SessionPolicy        string
	SessionSweepInterval time.Duration

	JWTSecret      string
	MaintenanceKey string

	PublicRateLimit  int
	PublicRateWindow time.Duration

	OrderCounter   string
	StockQueueSize int

	SeedDemo bool
}

// IsDev reports whether the service runs in a development environment.
func (c AppConfig) IsDev() bool {
	return c.Env == EnvDev
}

// Load reads every key the service understands, applies defaults and validates.
func Load(src Source) (AppConfig, error) {
	var err error
	cfg := AppConfig{
		Env:       strings.ToLower(getString(src, "app.env", EnvDev)),
		LogLevel:  getString(src, "log.level", "info"),
		MongoURL:  getString(src, "db.mongo.url", "mongodb://localhost:27017"),
		MongoName: getString(src, "db.mongo.name", "tableside"),
		NATSURL:   getString(src, "nats.url", "nats://localhost:4222"),
		RedisAddr: getString(src, "redis.addr", ""),

		SessionPolicy:  strings.ToLower(getString(src, "session.policy", PolicyOverlap)),
		JWTSecret:      getString(src, "auth.jwt.secret", ""),
		MaintenanceKey: getString(src, "maintenance.key", ""),
		OrderCounter:   strings.ToLower(getString(src, "order.counter", CounterMongo)),
	}

	if cfg.NATSEnabled, err = getBool(src, "nats.enabled", false); err != nil {
		return AppConfig{}, err
	}
	if cfg.NATSStreamEnabled, err = getBool(src, "nats.stream.enabled", false); err != nil {
		return AppConfig{}, err
	}
	if cfg.SeedDemo, err = getBool(src, "seeding.demo", false); err != nil {
		return AppConfig{}, err
	}
	if cfg.RedisDB, err = getInt(src, "redis.db", 0); err != nil {
		return AppConfig{}, err
	}
	if cfg.SessionTTL, err = getDuration(src, "session.ttl", 15*time.Minute); err != nil {
		return AppConfig{}, err
	}
	if cfg.SessionSweepInterval, err = getDuration(src, "session.sweep.interval", 5*time.Minute); err != nil {
		return AppConfig{}, err
	}
	if cfg.PublicRateLimit, err = getInt(src, "ratelimit.public.limit", 30); err != nil {
		return AppConfig{}, err
	}
	if cfg.PublicRateWindow, err = getDuration(src, "ratelimit.public.window", time.Minute); err != nil {
		return AppConfig{}, err
	}
	if cfg.StockQueueSize, err = getInt(src, "stock.queue.size", 256); err != nil {
		return AppConfig{}, err
	}
	cfg.RedisEnabled = cfg.RedisAddr != ""

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

func (c AppConfig) validate() error {
	if c.Env != EnvDev && c.Env != EnvProd {
		return fmt.Errorf("app.env must be %q or %q, got %q", EnvDev, EnvProd, c.Env)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("session.ttl must be > 0")
	}
	if c.SessionSweepInterval < 0 {
		return fmt.Errorf("session.sweep.interval must be >= 0")
	}
	if c.SessionPolicy != PolicyOverlap && c.SessionPolicy != PolicyExclusive {
		return fmt.Errorf("session.policy must be %q or %q, got %q", PolicyOverlap, PolicyExclusive, c.SessionPolicy)
	}
	if c.OrderCounter != CounterMongo && c.OrderCounter != CounterRedis {
		return fmt.Errorf("order.counter must be %q or %q, got %q", CounterMongo, CounterRedis, c.OrderCounter)
	}
	if c.OrderCounter == CounterRedis && !c.RedisEnabled {
		return fmt.Errorf("order.counter=redis requires redis.addr")
	}
	if c.NATSStreamEnabled && !c.NATSEnabled {
		return fmt.Errorf("nats.stream.enabled requires nats.enabled")
	}
	if c.PublicRateLimit <= 0 || c.PublicRateWindow <= 0 {
		return fmt.Errorf("ratelimit.public.limit and ratelimit.public.window must be > 0")
	}
	if c.StockQueueSize <= 0 {
		return fmt.Errorf("stock.queue.size must be > 0")
	}
	if c.JWTSecret == "" && !c.IsDev() {
		return fmt.Errorf("auth.jwt.secret is required outside dev")
	}
	if c.MaintenanceKey == "" && !c.IsDev() {
		return fmt.Errorf("maintenance.key is required outside dev")
	}
	return nil
}

func getString(src Source, key, def string) string {
	if v, ok := src.GetString(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func getInt(src Source, key string, def int) (int, error) {
	v, ok := src.GetString(key)
	if !ok || strings.TrimSpace(v) == "" {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("invalid int for %s: %w", key, err)
	}
	return n, nil
}

func getBool(src Source, key string, def bool) (bool, error) {
	v, ok := src.GetString(key)
	if !ok || strings.TrimSpace(v) == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return false, fmt.Errorf("invalid bool for %s: %w", key, err)
	}
	return b, nil
}

func getDuration(src Source, key string, def time.Duration) (time.Duration, error) {
	v, ok := src.GetString(key)
	if !ok || strings.TrimSpace(v) == "" {
		return def, nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %w", key, err)
	}
	return d, nil
}
