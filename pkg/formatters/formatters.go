// Package formatters provides display formatting for sizes, titles, and dates.
package formatters

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Exported constants.
const (
	// BytesPerKilobyte is the number of bytes in a kilobyte
	BytesPerKilobyte = 1024
	// BytesPerMegabyte is the number of bytes in a megabyte
	BytesPerMegabyte = BytesPerKilobyte * BytesPerKilobyte
	// DateLayout is the layout used for local file dates
	DateLayout = "2006-01-02"
)

// HumanSize formats a byte count as a human-readable string.
// Bytes below 1 KB are shown as-is; KB and MB values get one decimal place.
func HumanSize(bytes int64) string {
	switch {
	case bytes >= BytesPerMegabyte:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(BytesPerMegabyte))
	case bytes >= BytesPerKilobyte:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(BytesPerKilobyte))
	default:
		return fmt.Sprintf("%d bytes", bytes)
	}
}

// TitleFromFilename derives a display title from a filename:
// the extension is stripped, separators become spaces, and each word
// is title-cased. "annual-report_2025.pdf" -> "Annual Report 2025".
func TitleFromFilename(name string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	base = strings.NewReplacer("-", " ", "_", " ", ".", " ").Replace(base)

	words := strings.Fields(base)
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}

	return strings.Join(words, " ")
}

// LocalDate formats a timestamp as a local YYYY-MM-DD date string.
func LocalDate(t time.Time) string {
	return t.Format(DateLayout)
}

// DocumentID derives a stable identity key from a category and filename.
// The result is deterministic: lowercase, extension stripped, with runs
// of non-alphanumeric characters collapsed to single dashes.
func DocumentID(category, name string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	base = strings.ToLower(base)

	var builder strings.Builder
	lastDash := false

	for _, r := range base {
		isAlnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if isAlnum {
			builder.WriteRune(r)
			lastDash = false
		} else if !lastDash {
			builder.WriteByte('-')
			lastDash = true
		}
	}

	slug := strings.Trim(builder.String(), "-")

	return category + "-" + slug
}
