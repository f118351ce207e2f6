package indicator

// ReadInfo describes a processed card read for display purposes.
type ReadInfo struct {
	Token   string // canonical card identifier, e.g. "04:A3:2F:9C"
	Outcome string // "delivered", "rejected", "unreachable" or "suppressed"
}
