package common

type contextKey string

const (
	RequestIDContextKey contextKey = "request_id"
	SubjectContextKey   contextKey = "subject"
	LatencyContextKey   contextKey = "__execution_time"
)
