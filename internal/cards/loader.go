package cards

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/klabast/wb-services/groupie-dates/internal/dates"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// ErrUnexpectedStatus is returned for non-2xx responses from the dates endpoint
var ErrUnexpectedStatus = errors.New("unexpected status")

// Fetch requests url and decodes the JSON array of records it returns
func Fetch(ctx context.Context, client *http.Client, url string) ([]dates.DateRecord, error) {
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("get %s: %w: %d", url, ErrUnexpectedStatus, resp.StatusCode)
	}

	records, err := dates.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", url, err)
	}
	return records, nil
}

// Loader fills a container with cards for the records at URL
type Loader struct {
	Client *http.Client
	URL    string
	Logger *zap.Logger
}

// Load fetches the records and appends their cards to container.
// Any failure is logged once and leaves container untouched.
func (l *Loader) Load(ctx context.Context, container *html.Node) {
	logger := l.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	records, err := Fetch(ctx, l.Client, l.URL)
	if err != nil {
		logger.Error("Error fetching dates", zap.String("url", l.URL), zap.Error(err))
		return
	}

	n := Append(container, records)
	logger.Debug("Rendered date cards", zap.String("url", l.URL), zap.Int("count", n))
}
