package telemetry

import "go.uber.org/zap"

// ZapSink forwards bridge status messages to a zap logger. Messages
// are fire-and-forget and never affect control flow.
type ZapSink struct {
	logger *zap.Logger
}

// NewZapSink wraps a logger as a status sink.
func NewZapSink(logger *zap.Logger) *ZapSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZapSink{logger: logger.Named("bridge")}
}

func (s *ZapSink) Log(msg string) {
	s.logger.Info(msg)
}

func (s *ZapSink) Status(msg string) {
	s.logger.Info(msg, zap.Bool("status", true))
}
