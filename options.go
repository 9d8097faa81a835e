package docukit

import (
	"time"

	"github.com/rs/zerolog"
)

type settings struct {
	log   zerolog.Logger
	clock func() time.Time
}

// Option customizes a Pager or Repository at construction time.
type Option func(*settings)

// WithLogger attaches a zerolog logger. The default discards everything.
func WithLogger(log zerolog.Logger) Option {
	return func(s *settings) {
		s.log = log
	}
}

func newSettings(opts ...Option) settings {
	s := settings{
		log:   zerolog.Nop(),
		clock: func() time.Time { return time.Now().UTC() },
	}

	for _, opt := range opts {
		opt(&s)
	}

	return s
}
