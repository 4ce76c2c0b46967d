package logging

import "context"

// LogEntry represents a structured log record with fields particularly relevant
// to long-running search sessions.
type LogEntry struct {
	// Standard fields
	Time     int64
	Severity Severity
	Message  string
	File     string
	Line     int
	Function string

	// Search-specific fields
	RunID      string // The active search session
	Generation int    // Generation index at the time of logging, -1 outside a run

	// General structured data
	Fields map[string]interface{}
}

type contextKey string

const (
	runIDKey      contextKey = "lagrangia-run-id"
	generationKey contextKey = "lagrangia-generation"
)

// WithRunID attaches a search session ID to the context for log enrichment.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// GetRunID returns the search session ID carried by the context, if any.
func GetRunID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(runIDKey).(string)
	return id, ok
}

// WithGeneration attaches the current generation index to the context.
func WithGeneration(ctx context.Context, generation int) context.Context {
	return context.WithValue(ctx, generationKey, generation)
}

// GetGeneration returns the generation index carried by the context, if any.
func GetGeneration(ctx context.Context) (int, bool) {
	g, ok := ctx.Value(generationKey).(int)
	return g, ok
}
