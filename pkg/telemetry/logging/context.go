package logging

import (
	"context"
)

// Context keys for common log fields.
type contextKey string

const (
	// RequestIDKey is the context key for request IDs.
	RequestIDKey contextKey = "request_id"

	// SourceIDKey is the context key for source identifiers.
	SourceIDKey contextKey = "source_id"

	// CountryKey is the context key for country codes.
	CountryKey contextKey = "country"

	// CategoryKey is the context key for visa categories.
	CategoryKey contextKey = "category"

	// CandidateIDKey is the context key for review candidate identifiers.
	CandidateIDKey contextKey = "candidate_id"

	// ActorKey is the context key for the reviewer or system actor.
	ActorKey contextKey = "actor"
)

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// WithSourceID adds a source identifier to the context.
func WithSourceID(ctx context.Context, sourceID string) context.Context {
	return context.WithValue(ctx, SourceIDKey, sourceID)
}

// GetSourceID retrieves the source identifier from the context.
func GetSourceID(ctx context.Context) string {
	if sourceID, ok := ctx.Value(SourceIDKey).(string); ok {
		return sourceID
	}
	return ""
}

// WithCountry adds a country code to the context.
func WithCountry(ctx context.Context, country string) context.Context {
	return context.WithValue(ctx, CountryKey, country)
}

// GetCountry retrieves the country code from the context.
func GetCountry(ctx context.Context) string {
	if country, ok := ctx.Value(CountryKey).(string); ok {
		return country
	}
	return ""
}

// WithCategory adds a visa category to the context.
func WithCategory(ctx context.Context, category string) context.Context {
	return context.WithValue(ctx, CategoryKey, category)
}

// GetCategory retrieves the visa category from the context.
func GetCategory(ctx context.Context) string {
	if category, ok := ctx.Value(CategoryKey).(string); ok {
		return category
	}
	return ""
}

// WithCandidateID adds a candidate identifier to the context.
func WithCandidateID(ctx context.Context, candidateID string) context.Context {
	return context.WithValue(ctx, CandidateIDKey, candidateID)
}

// GetCandidateID retrieves the candidate identifier from the context.
func GetCandidateID(ctx context.Context) string {
	if candidateID, ok := ctx.Value(CandidateIDKey).(string); ok {
		return candidateID
	}
	return ""
}

// WithActor adds a reviewer or system actor to the context.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, ActorKey, actor)
}

// GetActor retrieves the actor from the context.
func GetActor(ctx context.Context) string {
	if actor, ok := ctx.Value(ActorKey).(string); ok {
		return actor
	}
	return ""
}

// extractContextFields extracts common fields from context for logging.
// Returns a slice of key-value pairs suitable for logger.With().
func extractContextFields(ctx context.Context) []any {
	var fields []any

	if requestID := GetRequestID(ctx); requestID != "" {
		fields = append(fields, "request_id", requestID)
	}
	if sourceID := GetSourceID(ctx); sourceID != "" {
		fields = append(fields, "source_id", sourceID)
	}
	if country := GetCountry(ctx); country != "" {
		fields = append(fields, "country", country)
	}
	if category := GetCategory(ctx); category != "" {
		fields = append(fields, "category", category)
	}
	if candidateID := GetCandidateID(ctx); candidateID != "" {
		fields = append(fields, "candidate_id", candidateID)
	}
	if actor := GetActor(ctx); actor != "" {
		fields = append(fields, "actor", actor)
	}

	return fields
}
