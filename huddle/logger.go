package huddle

import "github.com/rs/zerolog"

// Logger is a minimal logging interface accepted by the SDK.
type Logger interface {
	Debug(msg string, fields map[string]any)
	Info(msg string, fields map[string]any)
	Warn(msg string, fields map[string]any)
	Error(msg string, fields map[string]any)
}

// noopLogger discards all logs.
type noopLogger struct{}

func (noopLogger) Debug(string, map[string]any) {}
func (noopLogger) Info(string, map[string]any)  {}
func (noopLogger) Warn(string, map[string]any)  {}
func (noopLogger) Error(string, map[string]any) {}

// ZerologLogger adapts a zerolog.Logger to the SDK Logger interface.
type ZerologLogger struct {
	log zerolog.Logger
}

// NewZerologLogger wraps an existing zerolog logger.
func NewZerologLogger(l zerolog.Logger) *ZerologLogger {
	return &ZerologLogger{log: l}
}

func (z *ZerologLogger) Debug(msg string, fields map[string]any) {
	z.log.Debug().Fields(fields).Msg(msg)
}

func (z *ZerologLogger) Info(msg string, fields map[string]any) {
	z.log.Info().Fields(fields).Msg(msg)
}

func (z *ZerologLogger) Warn(msg string, fields map[string]any) {
	z.log.Warn().Fields(fields).Msg(msg)
}

func (z *ZerologLogger) Error(msg string, fields map[string]any) {
	z.log.Error().Fields(fields).Msg(msg)
}
