// Package logging provides zap logger helpers.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"bookhub/internal/middleware"
)

// New builds a zap.Logger configured for development or production.
func New(development bool) (*zap.Logger, error) {
	if development {
		cfg := zap.NewDevelopmentConfig()
		cfg.EncoderConfig.TimeKey = "ts"
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		logger, err := cfg.Build()
		if err != nil {
			return nil, fmt.Errorf("build dev logger: %w", err)
		}
		return logger, nil
	}
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "ts"
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build prod logger: %w", err)
	}
	return logger, nil
}

// RequestSink writes one structured line per HTTP request.
type RequestSink struct {
	Logger *zap.Logger
}

func (s RequestSink) Record(rec middleware.RequestRecord) {
	if s.Logger == nil {
		return
	}
	fields := []zap.Field{
		zap.String("request_id", rec.RequestID),
		zap.String("method", rec.Method),
		zap.String("route", rec.Route),
		zap.String("path", rec.Path),
		zap.Int("status", rec.Status),
		zap.Float64("latency_ms", rec.LatencyMillis()),
		zap.String("client_ip", rec.ClientIP),
	}
	switch {
	case rec.Status >= 500:
		s.Logger.Error("request", fields...)
	case rec.Status >= 400:
		s.Logger.Warn("request", fields...)
	default:
		s.Logger.Info("request", fields...)
	}
}
