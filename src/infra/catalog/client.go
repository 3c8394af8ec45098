package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultBaseURL     = "https://api.openalex.org"
	DefaultDataVersion = "2"
	DefaultTimeout     = 10 * time.Second

	// maxIDsPerFilter is the number of OR-ed values the filter endpoint accepts.
	maxIDsPerFilter = 50
)

var ErrExternalFetch = errors.New("catalog fetch failed")

// FetchError describes a failed or malformed catalog response.
type FetchError struct {
	Entity     string
	ID         string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	target := e.Entity
	if e.ID != "" {
		target = e.Entity + "/" + e.ID
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("catalog fetch %s: status %d", target, e.StatusCode)
	}
	return fmt.Sprintf("catalog fetch %s: %v", target, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

func (e *FetchError) Is(target error) bool {
	return target == ErrExternalFetch
}

// IsNotFound reports a 404 from the catalog.
func IsNotFound(err error) bool {
	var fetchErr *FetchError
	return errors.As(err, &fetchErr) && fetchErr.StatusCode == http.StatusNotFound
}

// Record is a catalog object as returned by the read API. Numbers are kept as json.Number.
type Record map[string]any

// Client reads entities from the catalog API. It is safe for concurrent use.
type Client struct {
	baseURL     string
	dataVersion string
	mailto      string
	http        *http.Client
}

func NewClient(baseURL string, dataVersion string, mailto string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if dataVersion == "" {
		dataVersion = DefaultDataVersion
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		dataVersion: dataVersion,
		mailto:      mailto,
		http:        &http.Client{Timeout: timeout},
	}
}

// EntityURL is the versioned read URL of one entity.
func (c *Client) EntityURL(entity string, id string) string {
	return c.buildURL("/"+url.PathEscape(entity)+"/"+url.PathEscape(id), nil)
}

// GetEntity fetches GET /{entity}/{id}.
func (c *Client) GetEntity(ctx context.Context, entity string, id string) (Record, error) {
	var record Record
	if err := c.getJSON(ctx, c.EntityURL(entity, id), &record); err != nil {
		return nil, annotate(err, entity, id)
	}
	if record == nil {
		return nil, &FetchError{Entity: entity, ID: id, Err: errors.New("empty response body")}
	}
	return record, nil
}

// GetEntitiesByIDs fetches many entities of the same type through the filter endpoint.
// The result is keyed by bare id; ids the catalog does not return are simply absent.
func (c *Client) GetEntitiesByIDs(ctx context.Context, entity string, ids []string) (map[string]Record, error) {
	records := make(map[string]Record, len(ids))

	for start := 0; start < len(ids); start += maxIDsPerFilter {
		end := start + maxIDsPerFilter
		if end > len(ids) {
			end = len(ids)
		}
		chunk := ids[start:end]

		query := url.Values{}
		query.Set("filter", "ids.openalex:"+strings.Join(chunk, "|"))
		query.Set("per-page", fmt.Sprintf("%d", len(chunk)))

		var page struct {
			Results []Record `json:"results"`
		}
		if err := c.getJSON(ctx, c.buildURL("/"+url.PathEscape(entity), query), &page); err != nil {
			return nil, annotate(err, entity, "")
		}

		for _, record := range page.Results {
			if id := BareID(record["id"]); id != "" {
				records[id] = record
			}
		}
	}

	return records, nil
}

func (c *Client) buildURL(path string, query url.Values) string {
	if query == nil {
		query = url.Values{}
	}
	query.Set("data-version", c.dataVersion)
	if c.mailto != "" {
		query.Set("mailto", c.mailto)
	}
	return c.baseURL + path + "?" + query.Encode()
}

func (c *Client) getJSON(ctx context.Context, rawURL string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return &FetchError{Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return &FetchError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return &FetchError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &FetchError{Err: err}
	}

	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()
	if err := decoder.Decode(target); err != nil {
		return &FetchError{Err: fmt.Errorf("malformed response: %w", err)}
	}

	return nil
}

func annotate(err error, entity string, id string) error {
	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		fetchErr.Entity = entity
		fetchErr.ID = id
	}
	return err
}

// BareID returns the trailing path segment of a catalog id URI ("https://openalex.org/W1" -> "W1").
func BareID(raw any) string {
	id, ok := raw.(string)
	if !ok {
		return ""
	}
	id = strings.TrimRight(id, "/")
	if idx := strings.LastIndex(id, "/"); idx >= 0 {
		return id[idx+1:]
	}
	return id
}
