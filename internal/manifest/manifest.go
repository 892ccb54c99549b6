// Package manifest retrieves and validates the remote file listing.
package manifest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/joe/docsync/internal/cache"
	syncerrors "github.com/joe/docsync/pkg/errors"
)

// DefaultTimeout bounds every manifest request.
const DefaultTimeout = 30 * time.Second

// Entry describes one remote file. Entries are ephemeral and never persisted.
type Entry struct {
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	Modified string `json:"modified"` // ISO-8601
}

// Manifest is the remote file listing for both categories.
type Manifest struct {
	GCF    []Entry `json:"gcf"`
	Policy []Entry `json:"policy"`
}

// Entries returns the entry slice for a category.
func (m *Manifest) Entries(category cache.Category) []Entry {
	if category == cache.CategoryPolicy {
		return m.Policy
	}

	return m.GCF
}

// TotalCount returns the number of entries across both categories.
func (m *Manifest) TotalCount() int {
	return len(m.GCF) + len(m.Policy)
}

// Fetcher retrieves the manifest from a configured URL with a bounded timeout.
type Fetcher struct {
	URL     string
	Timeout time.Duration
	client  *http.Client
}

// NewFetcher creates a fetcher for the given manifest URL. A zero timeout
// defaults to DefaultTimeout.
func NewFetcher(url string, timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Fetcher{
		URL:     url,
		Timeout: timeout,
		client:  &http.Client{Timeout: timeout},
	}
}

// Fetch performs the GET request and returns the parsed manifest unchanged
// (no normalization). Failures map onto the sync error taxonomy: transport
// errors become NetworkError/TimeoutError, non-success responses become
// HTTPStatusError, and unparseable bodies become FormatError.
func (f *Fetcher) Fetch() (*Manifest, error) {
	resp, err := f.client.Get(f.URL)
	if err != nil {
		return nil, syncerrors.ClassifyTransport(err, f.URL, f.Timeout)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &syncerrors.HTTPStatusError{
			URL:        f.URL,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, syncerrors.ClassifyTransport(err, f.URL, f.Timeout)
	}

	return parse(body)
}

// parse validates the manifest shape. Each category field is checked
// independently so a malformed gcf list is reported as such even when
// policy is fine, and vice versa.
func parse(body []byte) (*Manifest, error) {
	var raw struct {
		GCF    json.RawMessage `json:"gcf"`
		Policy json.RawMessage `json:"policy"`
	}

	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &syncerrors.FormatError{Reason: "body is not a JSON object", Err: err}
	}

	gcf, err := parseEntries(raw.GCF, cache.CategoryGCF)
	if err != nil {
		return nil, err
	}

	policy, err := parseEntries(raw.Policy, cache.CategoryPolicy)
	if err != nil {
		return nil, err
	}

	return &Manifest{GCF: gcf, Policy: policy}, nil
}

func parseEntries(raw json.RawMessage, category cache.Category) ([]Entry, error) {
	reason := fmt.Sprintf("field %q is not a list of entries", string(category))

	if len(raw) == 0 {
		return nil, &syncerrors.FormatError{Reason: reason}
	}

	var entries []Entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, &syncerrors.FormatError{Reason: reason, Err: err}
	}

	if entries == nil {
		// JSON null passes unmarshal but is not a sequence
		return nil, &syncerrors.FormatError{Reason: reason}
	}

	return entries, nil
}
