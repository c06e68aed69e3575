// Package pricing looks up current retail prices for product codes and
// writes them back to the order summary.
package pricing

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/order-tracker/internal/entity"
	"github.com/joseph-ayodele/order-tracker/internal/normalize"
)

var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:125.0) Gecko/20100101 Firefox/125.0",
}

// maxBody caps how much of a product page is read.
const maxBody = 8 << 20

type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client fetches product pages from the retailer site.
type Client struct {
	http    *http.Client
	baseURL string
	logger  *slog.Logger
}

// NewClient builds a Client; httpClient may be nil.
func NewClient(cfg Config, httpClient *http.Client, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{http: httpClient, baseURL: strings.TrimRight(cfg.BaseURL, "/"), logger: logger}
}

// CandidateURLs lists the pages tried for a code, in order: search by the
// dotted code, search by digits, then the product page.
func CandidateURLs(base, code string) []string {
	base = strings.TrimRight(base, "/")
	dotted := strings.TrimSpace(code)
	digits := normalize.CodeDigits(dotted)
	return []string{
		fmt.Sprintf("%s/search/products/?q=%s&qtype=search_keywords", base, url.QueryEscape(dotted)),
		fmt.Sprintf("%s/search/products/?q=%s&qtype=search_keywords", base, digits),
		fmt.Sprintf("%s/p/-%s/", base, digits),
	}
}

// Lookup returns the prices for code. It never fails: network and parse
// problems are logged and yield details without prices.
func (c *Client) Lookup(ctx context.Context, code string) entity.PriceDetails {
	empty := entity.PriceDetails{ProductCode: code}
	if normalize.CodeDigits(code) == "" {
		c.logger.Error("pricing.invalid_code", "product_code", code)
		return empty
	}

	ua := userAgents[rand.Intn(len(userAgents))]
	for _, u := range CandidateURLs(c.baseURL, code) {
		body, status, err := c.get(ctx, u, ua)
		if err != nil {
			c.logger.Warn("pricing.http.failed", "product_code", code, "url", u, "error", err)
			if ctx.Err() != nil {
				return empty
			}
			continue
		}
		if status != http.StatusOK {
			continue
		}
		details := ParsePage(code, body, c.logger)
		details.SourceURL = u
		return details
	}
	c.logger.Warn("pricing.page_not_found", "product_code", code)
	return empty
}

func (c *Client) get(ctx context.Context, u, userAgent string) ([]byte, int, error) {
	reqID := uuid.New().String()
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml")
	req.Header.Set("Accept-Language", "zh-CN,zh;q=0.9,en;q=0.8")

	c.logger.Debug("pricing.http.request", "req_id", reqID, "url", u)
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("pricing.http.send_error", "req_id", reqID, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, 0, err
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			c.logger.Warn("pricing.http.response_body_close_error", "req_id", reqID, "error", err)
		}
	}(resp.Body)

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read body: %w", err)
	}
	c.logger.Info("pricing.http.response",
		"req_id", reqID,
		"url", u,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return raw, resp.StatusCode, nil
}
