package accessor

import (
	"github.com/ilkit/ilexpr/decoder"
	"github.com/rs/zerolog"
)

// Option is a configuration function for a Matcher.
type Option func(*Matcher)

// WithLogger sets the logger that records why a property did not match.
func WithLogger(logger zerolog.Logger) Option {
	return func(m *Matcher) {
		m.logger = logger
	}
}

// WithDecoderOptions passes options through to the decoder used for accessor
// bodies.
func WithDecoderOptions(opts ...decoder.Option) Option {
	return func(m *Matcher) {
		m.decoderOpts = append(m.decoderOpts, opts...)
	}
}
