package annotate

import "time"

// LogEvent describes a store operation or rule evaluation for logging.
type LogEvent struct {
	Op       string
	GroupID  int
	CropID   string
	Rule     string
	Engine   string
	Changed  bool
	Duration time.Duration
	Err      error
}

// Logger records store events.
type Logger interface {
	LogEvent(LogEvent)
}

// LoggerFunc adapts a function to Logger.
type LoggerFunc func(LogEvent)

// LogEvent implements Logger.
func (f LoggerFunc) LogEvent(event LogEvent) {
	if f != nil {
		f(event)
	}
}

type noopLogger struct{}

func (noopLogger) LogEvent(LogEvent) {}

// WithLogger attaches a logger to the store.
func WithLogger(logger Logger) Option {
	return func(cfg *storeConfig) {
		if logger == nil {
			cfg.logger = noopLogger{}
			return
		}
		cfg.logger = logger
	}
}
