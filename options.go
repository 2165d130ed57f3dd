package annotate

import (
	"strings"
	"time"

	"github.com/goliatone/go-annotate/pkg/activity"
	"github.com/google/uuid"
)

// DefaultHistoryCap bounds the undo stack when WithHistoryCap is not used.
const DefaultHistoryCap = 50

// Option configures a Store.
type Option func(*storeConfig)

type storeConfig struct {
	palette      *Palette
	historyCap   int
	logger       Logger
	hooks        activity.Hooks
	activity     activity.Config
	actorID      string
	documentID   string
	evaluator    Evaluator
	programCache ProgramCache
	functions    *FunctionRegistry
	cropID       func() string
	now          func() time.Time
	errs         []error
}

func applyOptions(opts []Option) storeConfig {
	cfg := storeConfig{
		historyCap: DefaultHistoryCap,
		activity:   activity.Config{Enabled: true},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.logger == nil {
		cfg.logger = noopLogger{}
	}
	if cfg.cropID == nil {
		cfg.cropID = newCropID
	}
	if cfg.now == nil {
		cfg.now = time.Now
	}
	return cfg
}

// WithPalette replaces the default palette.
func WithPalette(palette Palette) Option {
	return func(cfg *storeConfig) {
		p := palette.clone()
		cfg.palette = &p
	}
}

// WithHistoryCap bounds the undo stack. New rejects values below 1.
func WithHistoryCap(limit int) Option {
	return func(cfg *storeConfig) {
		cfg.historyCap = limit
	}
}

// WithActivityHooks attaches activity hooks. Nil entries are dropped.
func WithActivityHooks(hooks activity.Hooks) Option {
	normalized := cloneActivityHooks(hooks)
	return func(cfg *storeConfig) {
		cfg.hooks = normalized
	}
}

// WithActivityConfig controls whether activity is emitted and on which channel.
func WithActivityConfig(config activity.Config) Option {
	return func(cfg *storeConfig) {
		cfg.activity = config
	}
}

// WithActor stamps emitted activity events with the operator id.
func WithActor(actorID string) Option {
	return func(cfg *storeConfig) {
		cfg.actorID = strings.TrimSpace(actorID)
	}
}

// WithDocumentID stamps emitted activity events with the scanned document id.
func WithDocumentID(documentID string) Option {
	return func(cfg *storeConfig) {
		cfg.documentID = strings.TrimSpace(documentID)
	}
}

// WithEvaluator configures the rule evaluator used by FindGroups and
// RemoveGroupsWhere. The expr evaluator is used when unset.
func WithEvaluator(e Evaluator) Option {
	return func(cfg *storeConfig) {
		cfg.evaluator = e
	}
}

// WithProgramCache registers a program cache on the default evaluator.
func WithProgramCache(cache ProgramCache) Option {
	return func(cfg *storeConfig) {
		cfg.programCache = cache
	}
}

// WithCropIDGenerator replaces the crop id source. Generated ids must be
// unique for the lifetime of the process.
func WithCropIDGenerator(next func() string) Option {
	return func(cfg *storeConfig) {
		cfg.cropID = next
	}
}

// WithClock replaces time.Now for durations and activity timestamps.
func WithClock(now func() time.Time) Option {
	return func(cfg *storeConfig) {
		cfg.now = now
	}
}

func newCropID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func cloneActivityHooks(hooks activity.Hooks) activity.Hooks {
	if len(hooks) == 0 {
		return nil
	}
	normalized := make([]activity.ActivityHook, 0, len(hooks))
	for _, hook := range hooks {
		if hook == nil {
			continue
		}
		normalized = append(normalized, hook)
	}
	if len(normalized) == 0 {
		return nil
	}
	return activity.Hooks(normalized)
}
