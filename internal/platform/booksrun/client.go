// Package booksrun quotes resale prices from the BooksRun buy API.
package booksrun

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
)

const DefaultBaseURL = "https://booksrun.com"

const (
	ConditionNew  = "New"
	ConditionUsed = "Used"
)

var (
	ErrMissingAPIKey = errors.New("booksrun API key not configured")
	ErrNoPrice       = errors.New("booksrun has no price for isbn")
)

type Getter interface {
	GetJSON(ctx context.Context, url string, target any) error
}

// Offer is a single price. BooksRun sends the string "none" instead of an
// object when there is no offer, which decodes as an absent Offer.
type Offer struct {
	Price   decimal.NullDecimal
	CartURL string
}

func (o *Offer) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || b[0] != '{' {
		*o = Offer{}
		return nil
	}
	var raw struct {
		Price   decimal.NullDecimal `json:"price"`
		CartURL string              `json:"cart_url"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*o = Offer{Price: raw.Price, CartURL: raw.CartURL}
	return nil
}

// Present reports whether the offer carries a price.
func (o Offer) Present() bool {
	return o.Price.Valid
}

type MarketplaceOffer struct {
	Used Offer `json:"used"`
	New  Offer `json:"new"`
}

type marketplace []MarketplaceOffer

func (m *marketplace) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || b[0] != '[' {
		*m = nil
		return nil
	}
	var list []MarketplaceOffer
	if err := json.Unmarshal(b, &list); err != nil {
		return err
	}
	*m = list
	return nil
}

type Offers struct {
	BooksRun struct {
		New  Offer `json:"new"`
		Used Offer `json:"used"`
	} `json:"booksrun"`
	Marketplace marketplace `json:"marketplace"`
}

// PriceResponse matches api/v3/price/buy/{isbn}
type PriceResponse struct {
	Result struct {
		Status string `json:"status"`
		Offers Offers `json:"offers"`
	} `json:"result"`
}

// Quote is the price chosen for a book and the condition it was quoted for.
type Quote struct {
	Price     decimal.Decimal
	Condition string
}

// Policy turns BooksRun offers into a single quote.
type Policy struct {
	// Fallback is used when BooksRun itself has neither a used nor a new
	// offer. Zero disables it.
	Fallback decimal.Decimal
	// MinMarketplace is the lowest marketplace used price considered.
	MinMarketplace decimal.Decimal
}

func DefaultPolicy() Policy {
	return Policy{
		Fallback:       decimal.RequireFromString("9.99"),
		MinMarketplace: decimal.RequireFromString("3.99"),
	}
}

// Select prefers BooksRun's used offer, then its new offer, then the
// fallback. A cheaper marketplace used offer at or above MinMarketplace
// then replaces the price.
func (p Policy) Select(o Offers) (Quote, bool) {
	var (
		q  Quote
		ok bool
	)
	switch {
	case o.BooksRun.Used.Present():
		q, ok = Quote{Price: o.BooksRun.Used.Price.Decimal, Condition: ConditionUsed}, true
	case o.BooksRun.New.Present():
		q, ok = Quote{Price: o.BooksRun.New.Price.Decimal, Condition: ConditionNew}, true
	case p.Fallback.IsPositive():
		q, ok = Quote{Price: p.Fallback, Condition: ConditionUsed}, true
	}

	for _, m := range o.Marketplace {
		if !m.Used.Present() {
			continue
		}
		price := m.Used.Price.Decimal
		if price.LessThan(p.MinMarketplace) {
			continue
		}
		if !ok || price.LessThan(q.Price) {
			q, ok = Quote{Price: price, Condition: ConditionUsed}, true
		}
	}
	return q, ok
}

type Client struct {
	http    Getter
	apiKey  string
	baseURL string
	policy  Policy
}

func NewClient(getter Getter, apiKey string, policy Policy) *Client {
	return &Client{http: getter, apiKey: apiKey, baseURL: DefaultBaseURL, policy: policy}
}

// WithBaseURL points the client at another host, for tests.
func (c *Client) WithBaseURL(u string) *Client {
	c.baseURL = strings.TrimRight(u, "/")
	return c
}

// Offers returns the raw offers for isbn.
func (c *Client) Offers(ctx context.Context, isbn string) (Offers, error) {
	if c.apiKey == "" {
		return Offers{}, ErrMissingAPIKey
	}
	u := fmt.Sprintf("%s/api/v3/price/buy/%s?key=%s", c.baseURL, url.PathEscape(isbn), url.QueryEscape(c.apiKey))

	var res PriceResponse
	if err := c.http.GetJSON(ctx, u, &res); err != nil {
		return Offers{}, fmt.Errorf("booksrun %s: %w", isbn, err)
	}
	if res.Result.Status != "success" {
		return Offers{}, fmt.Errorf("%w %s: status %q", ErrNoPrice, isbn, res.Result.Status)
	}
	return res.Result.Offers, nil
}

// PriceFor quotes isbn under the client's policy.
func (c *Client) PriceFor(ctx context.Context, isbn string) (Quote, error) {
	offers, err := c.Offers(ctx, isbn)
	if err != nil {
		return Quote{}, err
	}
	q, ok := c.policy.Select(offers)
	if !ok {
		return Quote{}, fmt.Errorf("%w %s", ErrNoPrice, isbn)
	}
	return q, nil
}
