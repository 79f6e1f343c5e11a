package decoder

import (
	"github.com/ilkit/ilexpr/metadata"
	"github.com/rs/zerolog"
)

// Option is a configuration function for a Decoder.
type Option func(*Decoder)

// WithLogger sets the logger used to trace decoding. Decoding is silent by
// default.
func WithLogger(logger zerolog.Logger) Option {
	return func(d *Decoder) {
		d.logger = logger
	}
}

// WithSignatures sets the resolver used for stand-alone signature tokens.
// When not set, the symbol resolver is used if it implements
// metadata.SignatureResolver.
func WithSignatures(sigs metadata.SignatureResolver) Option {
	return func(d *Decoder) {
		d.signatures = sigs
	}
}
