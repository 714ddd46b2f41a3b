package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the service logger: JSON at info level in production, colored console at
// debug level everywhere else.
func New(production bool) (*zap.Logger, error) {
	var cfg zap.Config
	if production {
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}

// Common field constructors
func SlotID(id int64) zap.Field     { return zap.Int64("slot_id", id) }
func BookingID(id int64) zap.Field  { return zap.Int64("booking_id", id) }
func UserID(id string) zap.Field    { return zap.String("user_id", id) }
func Kind(kind string) zap.Field    { return zap.String("kind", kind) }
func RequestID(id string) zap.Field { return zap.String("request_id", id) }
func Vehicle(v string) zap.Field    { return zap.String("vehicle_type", v) }
func Attempt(n int) zap.Field       { return zap.Int("attempt", n) }
