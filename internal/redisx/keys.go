package redisx

import "time"

const (
	// Cached stock-level listing, invalidated on every committed stock mutation.
	KeyStockLevels = "stock:levels"
)

var (
	TTLStockLevels = 30 * time.Second
)
