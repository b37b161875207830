// Package fetcher retrieves paginated listing pages from the upstream
// product search API.
package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/salewatch/salewatch/internal/domain"
	"github.com/salewatch/salewatch/internal/logger"
)

// PageSize is the fixed page size shared by count discovery and every
// paginated call. Offsets must be consecutive multiples of this value.
const PageSize = 199

// queryTail is the fixed query suffix required by the upstream API.
const queryTail = "&range=sale&store=ROE&lang=en-GB&currency=GBP&rowlength=4" +
	"&channel=desktop-web&country=TR&keyStoreDataversion=h7g0xmn-38"

// ErrUnexpectedStatus is returned when the upstream responds with a
// non-200 status.
var ErrUnexpectedStatus = errors.New("unexpected upstream status")

// ErrMalformedBody is returned when the upstream response body cannot be
// decoded as a listing envelope.
var ErrMalformedBody = errors.New("malformed upstream body")

// envelope is the upstream listing response shape.
type envelope struct {
	ItemCount int       `json:"itemCount"`
	Products  []RawItem `json:"products"`
}

// RawItem is one raw product entry as returned by the upstream API.
type RawItem struct {
	ID                  int64    `json:"id"`
	Name                string   `json:"name"`
	BrandName           string   `json:"brandName"`
	URL                 string   `json:"url"`
	ImageURL            string   `json:"imageUrl"`
	AdditionalImageURLs []string `json:"additionalImageUrls"`
	ProductCode         int64    `json:"productCode"`
	IsSellingFast       bool     `json:"isSellingFast"`
	Price               RawPrice `json:"price"`
}

// RawPrice is the nested price block of a raw item.
type RawPrice struct {
	Current  RawPriceValue `json:"current"`
	Previous RawPriceValue `json:"previous"`
	RRP      RawPriceValue `json:"rrp"`
	Currency string        `json:"currency"`
}

// RawPriceValue wraps a single price amount.
type RawPriceValue struct {
	Value float64 `json:"value"`
}

// Page is one decoded listing page.
type Page struct {
	// Total is the feed-wide item count reported by the upstream.
	Total int
	// Items are the raw entries on this page.
	Items []RawItem
}

// Config holds client settings.
type Config struct {
	// BaseURL is the upstream API origin.
	BaseURL string
	// UserAgent and Cookie are required request metadata; the upstream
	// rejects requests without them.
	UserAgent string
	Cookie    string
	// RequestsPerSecond caps the outbound request rate. Zero disables
	// client-side limiting.
	RequestsPerSecond float64
}

// Client fetches listing pages over HTTP.
type Client struct {
	httpClient *http.Client
	cfg        Config
	limiter    *rate.Limiter
	log        logger.Interface
}

// NewClient creates a fetcher client.
func NewClient(httpClient *http.Client, cfg Config, log logger.Interface) *Client {
	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	return &Client{
		httpClient: httpClient,
		cfg:        cfg,
		limiter:    limiter,
		log:        log,
	}
}

// FetchPage issues one paginated request for the feed at the given
// zero-based offset and decodes the envelope. A non-200 response yields
// ErrUnexpectedStatus; an undecodable body yields ErrMalformedBody. The
// caller decides whether either is fatal for the feed or only for the
// page.
func (c *Client) FetchPage(ctx context.Context, feed domain.Feed, offset int) (*Page, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("fetch page rate limit: %w", err)
		}
	}

	url := c.pageURL(feed, offset)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("fetch page new request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Cookie", c.cfg.Cookie)

	resp, doErr := c.httpClient.Do(req)
	if doErr != nil {
		return nil, fmt.Errorf("fetch page do request: %w", doErr)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d for %s offset %d",
			ErrUnexpectedStatus, resp.StatusCode, feed.Name, offset)
	}

	body, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return nil, fmt.Errorf("fetch page read body: %w", readErr)
	}

	var env envelope
	if decodeErr := json.Unmarshal(body, &env); decodeErr != nil {
		return nil, fmt.Errorf("%w: %s offset %d: %v",
			ErrMalformedBody, feed.Name, offset, decodeErr)
	}

	c.log.Debug("fetched listing page",
		"feed", feed.Name,
		"offset", offset,
		"items", len(env.Products),
		"total", env.ItemCount,
	)

	return &Page{Total: env.ItemCount, Items: env.Products}, nil
}

// pageURL builds the templated listing URL for a feed and offset.
func (c *Client) pageURL(feed domain.Feed, offset int) string {
	return fmt.Sprintf("%s/api/product/search/v2/categories/%soffset=%d&limit=%d%s",
		c.cfg.BaseURL, feed.Path, offset, PageSize, queryTail)
}
