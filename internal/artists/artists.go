// Package artists reads band data from the Groupie Tracker API and renders
// it as HTML nodes.
package artists

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// DefaultBaseURL is the public Groupie Tracker API
const DefaultBaseURL = "https://groupietrackers.herokuapp.com/api"

var (
	// ErrNotFound is returned when the API has no artist for an id
	ErrNotFound = errors.New("artist not found")
	// ErrUnexpectedStatus is returned for non-2xx responses other than 404
	ErrUnexpectedStatus = errors.New("unexpected status")
)

// Artist is one band as the API publishes it
type Artist struct {
	ID           int      `json:"id"`
	Name         string   `json:"name"`
	Image        string   `json:"image"`
	Members      []string `json:"members"`
	CreationDate int      `json:"creationDate"`
	FirstAlbum   string   `json:"firstAlbum"`
}

// Client talks to the artists endpoints below BaseURL
type Client struct {
	HTTP    *http.Client
	BaseURL string
}

// List returns every artist in API order
func (c *Client) List(ctx context.Context) ([]Artist, error) {
	var out []Artist
	if err := c.get(ctx, "/artists", &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []Artist{}
	}
	return out, nil
}

// Get returns the artist with id. The API answers unknown ids with an
// empty object, which is reported as ErrNotFound.
func (c *Client) Get(ctx context.Context, id int) (Artist, error) {
	var a Artist
	if err := c.get(ctx, fmt.Sprintf("/artists/%d", id), &a); err != nil {
		return Artist{}, err
	}
	if a.ID == 0 {
		return Artist{}, fmt.Errorf("artist %d: %w", id, ErrNotFound)
	}
	return a, nil
}

func (c *Client) get(ctx context.Context, path string, v any) error {
	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	base := c.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	url := strings.TrimSuffix(base, "/") + path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("get %s: %w", url, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("get %s: %w", url, ErrNotFound)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return fmt.Errorf("get %s: %w: %d", url, ErrUnexpectedStatus, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}
