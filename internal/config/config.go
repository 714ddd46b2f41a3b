package config

import (
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Port   string
	AppEnv string

	DatabaseDriver string
	DatabaseURL    string
	SQLitePath     string

	Location       *time.Location
	OpenTime       time.Duration // offset from local midnight
	CloseTime      time.Duration
	BookingHorizon time.Duration
	CarSlots       []string
	BikeSlots      []string

	LockRetryAttempts int
	LockRetryBackoff  time.Duration

	RedisAddr            string
	RedisPassword        string
	RedisDB              int
	AvailabilityCacheTTL time.Duration

	JWTSecret string

	KafkaBrokers []string
	KafkaTopic   string

	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string

	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string

	ReminderSchedule string
	ReminderLead     time.Duration

	RateLimitRPS   float64
	RateLimitBurst int
	TrustedProxies []netip.Prefix

	CORSAllowedOrigins []string
}

// Load loads configuration from environment variables only.
func Load() (*Config, error) {
	return LoadWithFile("")
}

// LoadWithFile loads configuration from an optional .env file and environment variables.
func LoadWithFile(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	p := &parser{}
	cfg := &Config{
		Port:   getEnv("PORT", "8080"),
		AppEnv: getEnv("APP_ENV", "development"),

		DatabaseDriver: strings.ToLower(getEnv("DATABASE_DRIVER", DriverMemory)),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		SQLitePath:     getEnv("SQLITE_PATH", "data/parking.db"),

		OpenTime:       p.clock("OPEN_TIME", "08:00"),
		CloseTime:      p.clock("CLOSE_TIME", "22:00"),
		BookingHorizon: p.duration("BOOKING_HORIZON", "48h"),
		CarSlots:       splitList(getEnv("CAR_SLOTS", "A1,A2,A3,A4")),
		BikeSlots:      splitList(getEnv("BIKE_SLOTS", "B1,B2")),

		LockRetryAttempts: p.integer("LOCK_RETRY_ATTEMPTS", "5"),
		LockRetryBackoff:  p.duration("LOCK_RETRY_BACKOFF", "20ms"),

		RedisAddr:            os.Getenv("REDIS_ADDR"),
		RedisPassword:        os.Getenv("REDIS_PASSWORD"),
		RedisDB:              p.integer("REDIS_DB", "0"),
		AvailabilityCacheTTL: p.duration("AVAILABILITY_CACHE_TTL", "5s"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		KafkaBrokers: splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "parking.bookings"),

		SendGridAPIKey:    os.Getenv("SENDGRID_API_KEY"),
		SendGridFromEmail: os.Getenv("SENDGRID_FROM_EMAIL"),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "ParkEase"),

		TwilioAccountSID: os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:  os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioFromNumber: os.Getenv("TWILIO_FROM_NUMBER"),

		ReminderSchedule: getEnv("REMINDER_SCHEDULE", "@every 5m"),
		ReminderLead:     p.duration("REMINDER_LEAD", "30m"),

		RateLimitRPS:   p.float("RATE_LIMIT_RPS", "10"),
		RateLimitBurst: p.integer("RATE_LIMIT_BURST", "20"),
		TrustedProxies: p.prefixes("TRUSTED_PROXIES"),

		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
	}
	if p.err != nil {
		return nil, p.err
	}

	loc, err := time.LoadLocation(getEnv("PARKING_TIMEZONE", "UTC"))
	if err != nil {
		return nil, fmt.Errorf("PARKING_TIMEZONE is invalid: %w", err)
	}
	cfg.Location = loc

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks if all required fields are set and consistent.
func (c *Config) Validate() error {
	switch c.DatabaseDriver {
	case DriverMemory, DriverSQLite:
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required")
		}
	default:
		return fmt.Errorf("DATABASE_DRIVER is invalid: %q", c.DatabaseDriver)
	}
	if c.DatabaseDriver == DriverSQLite && c.SQLitePath == "" {
		return fmt.Errorf("SQLITE_PATH is required")
	}
	if c.OpenTime >= c.CloseTime {
		return fmt.Errorf("OPEN_TIME must be before CLOSE_TIME")
	}
	if c.BookingHorizon <= 0 {
		return fmt.Errorf("BOOKING_HORIZON must be positive")
	}
	if len(c.CarSlots)+len(c.BikeSlots) == 0 {
		return fmt.Errorf("CAR_SLOTS or BIKE_SLOTS is required")
	}
	seen := map[string]bool{}
	for _, name := range append(append([]string{}, c.CarSlots...), c.BikeSlots...) {
		if seen[name] {
			return fmt.Errorf("slot name %q is duplicated", name)
		}
		seen[name] = true
	}
	if c.LockRetryAttempts < 1 {
		return fmt.Errorf("LOCK_RETRY_ATTEMPTS must be at least 1")
	}
	return nil
}

// IsProduction reports whether production logging and defaults apply.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parser keeps the first conversion error so Load can report it after reading every variable.
type parser struct {
	err error
}

func (p *parser) fail(key string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("%s is invalid: %w", key, err)
	}
}

func (p *parser) duration(key, fallback string) time.Duration {
	d, err := time.ParseDuration(getEnv(key, fallback))
	if err != nil {
		p.fail(key, err)
	}
	return d
}

func (p *parser) integer(key, fallback string) int {
	n, err := strconv.Atoi(getEnv(key, fallback))
	if err != nil {
		p.fail(key, err)
	}
	return n
}

// prefixes parses a comma separated list of CIDRs or bare addresses.
func (p *parser) prefixes(key string) []netip.Prefix {
	var out []netip.Prefix
	for _, item := range splitList(os.Getenv(key)) {
		if strings.Contains(item, "/") {
			prefix, err := netip.ParsePrefix(item)
			if err != nil {
				p.fail(key, err)
				continue
			}
			out = append(out, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(item)
		if err != nil {
			p.fail(key, err)
			continue
		}
		addr = addr.Unmap()
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out
}

func (p *parser) float(key, fallback string) float64 {
	f, err := strconv.ParseFloat(getEnv(key, fallback), 64)
	if err != nil {
		p.fail(key, err)
	}
	return f
}

// clock parses "HH:MM" into an offset from midnight. "24:00" is accepted as end of day.
func (p *parser) clock(key, fallback string) time.Duration {
	raw := getEnv(key, fallback)
	t, err := time.Parse("15:04", raw)
	if err != nil {
		if raw == "24:00" {
			return 24 * time.Hour
		}
		p.fail(key, err)
		return 0
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute
}
