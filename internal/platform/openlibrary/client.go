package openlibrary

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

const DefaultBaseURL = "https://openlibrary.org"

var ErrNoEdition = errors.New("no open library edition for isbn")

type Getter interface {
	GetJSON(ctx context.Context, url string, target any) error
}

type Client struct {
	http    Getter
	baseURL string
}

func NewClient(getter Getter) *Client {
	return &Client{http: getter, baseURL: DefaultBaseURL}
}

// WithBaseURL points the client at another host, for tests.
func (c *Client) WithBaseURL(u string) *Client {
	c.baseURL = strings.TrimRight(u, "/")
	return c
}

type Named struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// BookDetails matches api/books?jscmd=data
type BookDetails struct {
	Title       string  `json:"title"`
	Subtitle    string  `json:"subtitle"`
	Publishers  []Named `json:"publishers"`
	PublishDate string  `json:"publish_date"`
	Cover       struct {
		Small  string `json:"small"`
		Medium string `json:"medium"`
		Large  string `json:"large"`
	} `json:"cover"`
	Authors     []Named `json:"authors"`
	Subjects    []Named `json:"subjects"`
	Identifiers struct {
		ISBN10 []string `json:"isbn_10"`
		ISBN13 []string `json:"isbn_13"`
		Amazon []string `json:"amazon"`
	} `json:"identifiers"`
	Excerpts []struct {
		Text string `json:"text"`
	} `json:"excerpts"`
	Weight        string `json:"weight"`
	NumberOfPages int    `json:"number_of_pages"`
	Notes         string `json:"notes"`
}

// GetBooksByISBN fetches edition data for several ISBNs in one request.
// ISBNs Open Library does not know are absent from the map.
func (c *Client) GetBooksByISBN(ctx context.Context, isbns []string) (map[string]BookDetails, error) {
	if len(isbns) == 0 {
		return nil, nil
	}

	bibkeys := make([]string, len(isbns))
	for i, isbn := range isbns {
		bibkeys[i] = "ISBN:" + isbn
	}

	q := url.Values{}
	q.Set("bibkeys", strings.Join(bibkeys, ","))
	q.Set("jscmd", "data")
	q.Set("format", "json")

	var res map[string]BookDetails
	if err := c.http.GetJSON(ctx, c.baseURL+"/api/books?"+q.Encode(), &res); err != nil {
		return nil, fmt.Errorf("open library: %w", err)
	}

	out := make(map[string]BookDetails, len(res))
	for key, details := range res {
		out[strings.TrimPrefix(key, "ISBN:")] = details
	}
	return out, nil
}

// GetBookByISBN fetches a single edition.
func (c *Client) GetBookByISBN(ctx context.Context, isbn string) (*BookDetails, error) {
	res, err := c.GetBooksByISBN(ctx, []string{isbn})
	if err != nil {
		return nil, err
	}
	details, ok := res[isbn]
	if !ok {
		return nil, fmt.Errorf("%w %s", ErrNoEdition, isbn)
	}
	return &details, nil
}
