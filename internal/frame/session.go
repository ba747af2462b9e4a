package frame

// Session is the root construction context for frames.
//
// It owns the AliasAllocator that names tables and the Generator that
// materializes trees. Frames derived from a session's tables share both.
type Session struct {
	aliases   *AliasAllocator
	generator Generator
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithGenerator sets the collaborator used by materializing calls.
func WithGenerator(g Generator) SessionOption {
	return func(s *Session) { s.generator = g }
}

// WithAliasAllocator shares an existing allocator, e.g. to keep aliases
// unique across sessions.
func WithAliasAllocator(a *AliasAllocator) SessionOption {
	return func(s *Session) { s.aliases = a }
}

// NewSession creates a session with a fresh allocator and no generator.
func NewSession(opts ...SessionOption) *Session {
	s := &Session{}
	for _, opt := range opts {
		opt(s)
	}
	if s.aliases == nil {
		s.aliases = NewAliasAllocator()
	}
	return s
}

// Table starts a chain over the named relation. With no columns the table is
// a wildcard: HasColumn answers true for every name. Declared columns make
// HasColumn and Validate strict.
func (s *Session) Table(name string, columns ...string) *DataFrame {
	return &DataFrame{node: newTable(name, s.aliases.Next(), columns), session: s}
}

// Frame wraps an existing node in a handle bound to this session.
func (s *Session) Frame(n Node) *DataFrame {
	return &DataFrame{node: n, session: s}
}

// Generator returns the session's collaborator, or nil.
func (s *Session) Generator() Generator {
	return s.generator
}

// Aliases returns the session's allocator.
func (s *Session) Aliases() *AliasAllocator {
	return s.aliases
}
