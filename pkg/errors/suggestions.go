package errors

import "strings"

// SuggestionGenerator generates actionable suggestions based on error category.
type SuggestionGenerator interface {
	Generate(category ErrorCategory) []string
}

// NewSuggestionGenerator creates a new SuggestionGenerator.
func NewSuggestionGenerator() SuggestionGenerator {
	return &suggestionGenerator{}
}

// FormatSuggestions formats suggestions for an error as a bulleted list
// for display. Returns empty string if there are no suggestions.
func FormatSuggestions(err error) string {
	if err == nil {
		return ""
	}

	suggestions := NewSuggestionGenerator().Generate(CategoryOf(err))
	if len(suggestions) == 0 {
		return ""
	}

	var builder strings.Builder
	for i, suggestion := range suggestions {
		if i > 0 {
			builder.WriteString("\n")
		}
		builder.WriteString("  • ")
		builder.WriteString(suggestion)
	}

	return builder.String()
}

// suggestionGenerator is the concrete implementation of SuggestionGenerator.
type suggestionGenerator struct{}

// Generate returns actionable suggestions for the given error category.
func (g *suggestionGenerator) Generate(category ErrorCategory) []string {
	switch category {
	case CategoryNetwork:
		return []string{
			"Check your network connection",
			"Verify the server address is correct and reachable",
			"Try again once connectivity is restored - failed files retry automatically",
		}
	case CategoryTimeout:
		return []string{
			"The server took too long to respond",
			"Try again later or on a faster connection",
		}
	case CategoryHTTPStatus:
		return []string{
			"The server rejected the request",
			"If this persists, the remote library may be down for maintenance",
		}
	case CategoryFormat:
		return []string{
			"The server returned an unexpected manifest format",
			"A newer client version may be required",
		}
	case CategoryWriteVerification:
		return []string{
			"Check available disk space with 'df -h'",
			"Verify you have write permission for the documents directory",
		}
	case CategoryPersistence:
		return []string{
			"Check permissions on the cache file and its directory",
			"Delete the cache file to rebuild it on the next sync",
		}
	case CategoryUnknown:
		return []string{
			"Check the error message for more details",
		}
	default:
		return nil
	}
}
