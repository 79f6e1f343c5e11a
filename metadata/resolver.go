package metadata

// Resolver looks up the symbols named by metadata tokens. A miss is reported
// through the boolean result and is not an error; the caller decides whether
// the missing value matters.
//
// Implementations must be safe for concurrent use.
type Resolver interface {
	ResolveField(tok Token) (*Field, bool)
	ResolveMethod(tok Token) (*Method, bool)
	ResolveType(tok Token) (*Type, bool)
	ResolveString(tok Token) (string, bool)
}

// SignatureResolver is implemented by resolvers that can return the raw
// signature blob for a StandAloneSig token.
type SignatureResolver interface {
	ResolveSignature(tok Token) ([]byte, bool)
}
