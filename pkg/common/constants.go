package common

const (
	APIKeyHeader    = "X-API-Key"
	SourceIDHeader  = "X-Source-ID"
	RequestIDHeader = "X-Request-ID"

	DefaultStatsWindowDays = 7
	DefaultRecentLimit     = 100
	DefaultMinCount        = 3
)
