package logging

// nopLogger discards everything. Used as a safe default in tests and before
// the real logger is constructed.
type nopLogger struct{}

// NewNop returns a logger that discards all output.
func NewNop() Logger {
	return &nopLogger{}
}

func (n *nopLogger) Debug(_ string, _ ...any) {}
func (n *nopLogger) Info(_ string, _ ...any)  {}
func (n *nopLogger) Warn(_ string, _ ...any)  {}
func (n *nopLogger) Error(_ string, _ ...any) {}
func (n *nopLogger) With(_ ...any) Logger     { return n }
func (n *nopLogger) Sync() error              { return nil }
