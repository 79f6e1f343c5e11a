package transform

import "github.com/rs/zerolog"

// Option is a configuration function for a Transformer.
type Option func(*Transformer)

// WithLogger sets the logger used to trace transformation. Transformation is
// silent by default.
func WithLogger(logger zerolog.Logger) Option {
	return func(t *Transformer) {
		t.logger = logger
	}
}
