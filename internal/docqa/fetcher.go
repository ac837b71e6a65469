package docqa

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"mvdan.cc/xurls/v2"

	"github.com/Dipta-Banik/Multimodal-Chatbot/internal/domain"
)

const (
	fetchClientTimeout = 20 * time.Second
	maxFetchBodySize   = 20 << 20
	userAgent          = "Mozilla/5.0 (compatible; MultimodalChatbot/1.0)"
)

// Fetcher downloads documents linked in a message.
type Fetcher struct {
	client *http.Client
	log    *slog.Logger
}

func NewFetcher(log *slog.Logger) *Fetcher {
	return &Fetcher{
		client: &http.Client{Timeout: fetchClientTimeout},
		log:    log,
	}
}

// FindURLs returns the distinct https links of text in order of appearance.
func FindURLs(text string) ([]string, error) {
	httpsURLRe, err := xurls.StrictMatchingScheme("https://")
	if err != nil {
		return nil, fmt.Errorf("create regexp: %w", err)
	}

	var urls []string
	seen := make(map[string]struct{})

	for _, u := range httpsURLRe.FindAllString(text, -1) {
		u = strings.TrimSpace(u)
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		urls = append(urls, u)
	}

	return urls, nil
}

func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (domain.Upload, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return domain.Upload{}, fmt.Errorf("parse URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return domain.Upload{}, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req) //nolint:gosec // User supplied https URL
	if err != nil {
		return domain.Upload{}, fmt.Errorf("do request: %w", err)
	}
	defer func() {
		if err = resp.Body.Close(); err != nil {
			f.log.ErrorContext(ctx, "Failed to close response body",
				"error", err,
				"url", rawURL,
				"operation", "Fetch")
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return domain.Upload{}, fmt.Errorf("do request: unexpected status: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBodySize+1))
	if err != nil {
		return domain.Upload{}, fmt.Errorf("read body: %w", err)
	}

	if len(data) > maxFetchBodySize {
		return domain.Upload{}, errors.New("document is too large")
	}

	name := path.Base(parsed.Path)
	if name == "" || name == "/" || name == "." {
		name = parsed.Host
	}

	return domain.Upload{
		Name:     name,
		MIMEType: resp.Header.Get("Content-Type"),
		Data:     data,
	}, nil
}
