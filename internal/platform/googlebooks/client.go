// Package googlebooks looks up volumes by ISBN on the Google Books API.
package googlebooks

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

const DefaultBaseURL = "https://www.googleapis.com/books/v1"

var (
	ErrMissingAPIKey = errors.New("google books API key not configured")
	ErrNoVolume      = errors.New("no google books volume for isbn")
)

type Getter interface {
	GetJSON(ctx context.Context, url string, target any) error
}

type Client struct {
	http    Getter
	apiKey  string
	baseURL string
}

func NewClient(getter Getter, apiKey string) *Client {
	return &Client{http: getter, apiKey: apiKey, baseURL: DefaultBaseURL}
}

// WithBaseURL points the client at another host, for tests.
func (c *Client) WithBaseURL(u string) *Client {
	c.baseURL = strings.TrimRight(u, "/")
	return c
}

type IndustryIdentifier struct {
	Type       string `json:"type"`
	Identifier string `json:"identifier"`
}

type VolumeInfo struct {
	Title               string               `json:"title"`
	Authors             []string             `json:"authors"`
	Description         string               `json:"description"`
	Categories          []string             `json:"categories"`
	IndustryIdentifiers []IndustryIdentifier `json:"industryIdentifiers"`
	ImageLinks          struct {
		Thumbnail string `json:"thumbnail"`
	} `json:"imageLinks"`
	Dimensions struct {
		Height    string `json:"height"`
		Width     string `json:"width"`
		Thickness string `json:"thickness"`
	} `json:"dimensions"`
}

type Volume struct {
	VolumeInfo VolumeInfo `json:"volumeInfo"`
	SearchInfo struct {
		TextSnippet string `json:"textSnippet"`
	} `json:"searchInfo"`
}

// VolumesResponse matches volumes?q=isbn:
type VolumesResponse struct {
	TotalItems int      `json:"totalItems"`
	Items      []Volume `json:"items"`
}

// Identifier returns the first identifier of the given type.
func (v VolumeInfo) Identifier(typ string) string {
	for _, id := range v.IndustryIdentifiers {
		if id.Type == typ {
			return id.Identifier
		}
	}
	return ""
}

// ASIN is the 10-character OTHER identifier, when Google lists one.
func (v VolumeInfo) ASIN() string {
	for _, id := range v.IndustryIdentifiers {
		if id.Type == "OTHER" && len(id.Identifier) == 10 {
			return id.Identifier
		}
	}
	return ""
}

// VolumeByISBN returns the first volume matching isbn.
func (c *Client) VolumeByISBN(ctx context.Context, isbn string) (*Volume, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	q := url.Values{}
	q.Set("q", "isbn:"+isbn)
	q.Set("key", c.apiKey)
	q.Set("country", "US")

	var res VolumesResponse
	if err := c.http.GetJSON(ctx, c.baseURL+"/volumes?"+q.Encode(), &res); err != nil {
		return nil, fmt.Errorf("google books %s: %w", isbn, err)
	}
	if len(res.Items) == 0 {
		return nil, fmt.Errorf("%w %s", ErrNoVolume, isbn)
	}
	return &res.Items[0], nil
}
