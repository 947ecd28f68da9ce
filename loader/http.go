package loader

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gofhir/jsonld/value"
)

// Media types understood by the loaders.
const (
	MediaTypeJSONLD = "application/ld+json"
	MediaTypeJSON   = "application/json"
	MediaTypeYAML   = "application/yaml"
)

const (
	// DefaultTimeout for HTTP requests.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxBytes bounds the size of a fetched context document.
	DefaultMaxBytes int64 = 4 << 20

	// DefaultUserAgent identifies the loader to servers.
	DefaultUserAgent = "gofhir-jsonld"

	acceptHeader = "application/ld+json, application/json;q=0.9, */*;q=0.1"
	contextRel   = "http://www.w3.org/ns/json-ld#context"
)

// HTTP fetches context documents over HTTP(S).
type HTTP struct {
	httpClient *http.Client
	maxBytes   int64
	userAgent  string
}

// HTTPOption configures the HTTP loader.
type HTTPOption func(*HTTP)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(h *HTTP) {
		h.httpClient = client
	}
}

// WithTimeout sets the HTTP timeout.
func WithTimeout(timeout time.Duration) HTTPOption {
	return func(h *HTTP) {
		h.httpClient.Timeout = timeout
	}
}

// WithMaxBytes bounds the size of fetched documents.
func WithMaxBytes(n int64) HTTPOption {
	return func(h *HTTP) {
		if n > 0 {
			h.maxBytes = n
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) HTTPOption {
	return func(h *HTTP) {
		h.userAgent = ua
	}
}

// NewHTTP creates a new HTTP loader.
func NewHTTP(opts ...HTTPOption) *HTTP {
	h := &HTTP{
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		maxBytes:  DefaultMaxBytes,
		userAgent: DefaultUserAgent,
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// Load implements Loader. Only http and https URLs are handled; anything
// else fails with ErrNotSupported so that a Chain can try other loaders.
func (h *HTTP) Load(ctx context.Context, url string) (*RemoteDocument, error) {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return nil, fmt.Errorf("%w: %s", ErrNotSupported, url)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", acceptHeader)
	if h.userAgent != "" {
		req.Header.Set("User-Agent", h.userAgent)
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return nil, fmt.Errorf("%w: %s (status %d)", ErrNotFound, url, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("failed to fetch %s: status %d", url, resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	mediaType, _, _ := mime.ParseMediaType(contentType)
	if !isJSONMediaType(mediaType) {
		return nil, fmt.Errorf("failed to fetch %s: unexpected content type %q", url, contentType)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, h.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", url, err)
	}
	if int64(len(data)) > h.maxBytes {
		return nil, fmt.Errorf("failed to read %s: document exceeds %d bytes", url, h.maxBytes)
	}

	doc, err := value.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", url, err)
	}

	final := url
	if resp.Request != nil && resp.Request.URL != nil {
		final = resp.Request.URL.String()
	}

	rd := &RemoteDocument{
		URL:         final,
		Document:    doc,
		ContentType: mediaType,
	}
	if mediaType != MediaTypeJSONLD {
		rd.ContextURL = contextLink(resp.Header.Values("Link"))
	}
	return rd, nil
}

func isJSONMediaType(mt string) bool {
	return mt == MediaTypeJSONLD || mt == MediaTypeJSON || strings.HasSuffix(mt, "+json")
}

var linkPattern = regexp.MustCompile(`<([^>]*)>\s*((?:;\s*[^;,]+)*)`)

// contextLink extracts the target of a Link header with the JSON-LD context
// relation.
func contextLink(headers []string) string {
	for _, h := range headers {
		for _, m := range linkPattern.FindAllStringSubmatch(h, -1) {
			for _, param := range strings.Split(m[2], ";") {
				k, v, ok := strings.Cut(strings.TrimSpace(param), "=")
				if !ok || !strings.EqualFold(strings.TrimSpace(k), "rel") {
					continue
				}
				if strings.Trim(strings.TrimSpace(v), `"`) == contextRel {
					return m[1]
				}
			}
		}
	}
	return ""
}
