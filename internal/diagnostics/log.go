package diagnostics

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogRecorder writes fallback events as structured log lines. Successes are
// logged at info, failures and skips at warn.
type LogRecorder struct {
	log *zap.Logger
}

func NewLogRecorder(log *zap.Logger) *LogRecorder {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogRecorder{log: log.Named("fallback")}
}

func (r *LogRecorder) Record(e Event) {
	fields := []zap.Field{
		zap.String("request_id", e.RequestID),
		zap.String("provider", e.Provider),
		zap.Int("tier", e.Tier),
		zap.Int("attempt", e.Attempt),
		zap.String("outcome", string(e.Outcome)),
		zap.Duration("elapsed", e.Elapsed),
		zap.Int("keys", e.Keys),
		zap.String("target_language", e.TargetLanguage),
	}
	if e.Chunks > 0 {
		fields = append(fields, zap.Int("chunks", e.Chunks))
	}

	level := zapcore.InfoLevel
	msg := "provider succeeded"
	switch e.Outcome {
	case OutcomeFailure:
		level = zapcore.WarnLevel
		msg = "provider failed, falling back"
		fields = append(fields, zap.String("error_kind", e.ErrorKind()), zap.Error(e.Err))
	case OutcomeSkipped:
		level = zapcore.WarnLevel
		msg = "provider skipped"
		if e.Err != nil {
			fields = append(fields, zap.Error(e.Err))
		}
	}

	if ce := r.log.Check(level, msg); ce != nil {
		ce.Write(fields...)
	}
}
