package diag

import "go.uber.org/zap"

// zapSink adapts a constructor-injected *zap.Logger to Sink, rather than
// reaching for a package-level logger.
type zapSink struct {
	logger *zap.Logger
}

// NewZapSink wraps logger as a Sink. Every event is logged at warn level
// with its code under the "code" key and its fields passed through as
// zap.Any pairs.
func NewZapSink(logger *zap.Logger) Sink {
	return &zapSink{logger: logger}
}

func (s *zapSink) Warn(code string, msg string, fields ...Field) {
	zfields := make([]zap.Field, 0, len(fields)+1)
	zfields = append(zfields, zap.String("code", code))
	for _, f := range fields {
		zfields = append(zfields, zap.Any(f.Key, f.Value))
	}
	s.logger.Warn(msg, zfields...)
}
