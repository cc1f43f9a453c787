package llm

import "time"

// Shared client defaults.
const (
	defaultTimeout   = 120 * time.Second
	defaultMaxTokens = 4096
)
