// Package esi is a rate-limited client for the EVE Swagger Interface.
package esi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

const (
	baseURL   = "https://esi.evetech.net/latest"
	userAgent = "eve-tradeworks/1.0 (evemail Your Ozuwara)"

	// retries is how many times a transient failure (5xx, 429, network)
	// is retried before giving up on a request.
	retries = 3
)

// Client is a rate-limited ESI HTTP client. Concurrency is bounded by a
// semaphore channel; ESI allows up to 150 error-free requests per second.
type Client struct {
	http       *http.Client
	sem        chan struct{}
	token      string
	orderCache *OrderCache
}

// NewClient creates an ESI client with rate limiting.
func NewClient() *Client {
	return &Client{
		http:       &http.Client{Timeout: 30 * time.Second},
		sem:        make(chan struct{}, 16),
		orderCache: NewOrderCache(),
	}
}

// SetToken attaches an SSO access token used by authenticated endpoints
// (structure markets, character search).
func (c *Client) SetToken(token string) {
	c.token = token
}

// HealthCheck pings ESI to verify connectivity.
func (c *Client) HealthCheck() bool {
	req, err := c.newRequest(baseURL + "/status/?datasource=tranquility")
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == 200
}

func (c *Client) newRequest(url string) (*http.Request, error) {
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

// GetJSON fetches a URL and decodes JSON into dst, retrying transient errors.
func (c *Client) GetJSON(url string, dst interface{}) error {
	c.sem <- struct{}{}
	defer func() { <-c.sem }()
	return c.getJSONLocked(url, dst)
}

func (c *Client) getJSONLocked(url string, dst interface{}) error {
	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			time.Sleep(time.Duration(attempt) * time.Second)
		}
		req, err := c.newRequest(url)
		if err != nil {
			return err
		}
		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode == 200 {
			err = json.NewDecoder(resp.Body).Decode(dst)
			resp.Body.Close()
			return err
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		lastErr = fmt.Errorf("ESI %d: %s", resp.StatusCode, string(body))
		if resp.StatusCode < 500 && resp.StatusCode != 429 {
			return lastErr
		}
	}
	return lastErr
}

// getPaginated fetches every page of a paginated endpoint, decoding each page
// into a fresh slice of T. Page 1 is fetched first to learn X-Pages; the rest
// are fetched concurrently and merged in arrival order.
func getPaginated[T any](c *Client, url string) ([]T, error) {
	page1, totalPages, _, _, err := fetchPage[T](c, url, 1, "")
	if err != nil {
		return nil, err
	}
	if totalPages <= 1 {
		return page1, nil
	}

	type pageResult struct {
		data []T
		err  error
	}
	results := make(chan pageResult, totalPages-1)
	for p := 2; p <= totalPages; p++ {
		go func(pageNum int) {
			data, _, _, _, err := fetchPage[T](c, url, pageNum, "")
			results <- pageResult{data: data, err: err}
		}(p)
	}

	all := make([]T, 0, len(page1)*totalPages)
	all = append(all, page1...)
	for i := 0; i < totalPages-1; i++ {
		r := <-results
		if r.err != nil {
			return nil, r.err
		}
		all = append(all, r.data...)
	}
	return all, nil
}

// fetchPage fetches one page and returns (data, totalPages, etag, expires).
func fetchPage[T any](c *Client, url string, page int, ifNoneMatch string) ([]T, int, string, time.Time, error) {
	c.sem <- struct{}{}
	defer func() { <-c.sem }()

	pageURL := fmt.Sprintf("%s&page=%d", url, page)
	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			time.Sleep(time.Duration(attempt) * time.Second)
		}
		req, err := c.newRequest(pageURL)
		if err != nil {
			return nil, 0, "", time.Time{}, err
		}
		if ifNoneMatch != "" {
			req.Header.Set("If-None-Match", ifNoneMatch)
		}
		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		totalPages := 1
		if p := resp.Header.Get("X-Pages"); p != "" {
			totalPages, _ = strconv.Atoi(p)
		}
		etag := resp.Header.Get("ETag")
		expires := parseExpires(resp)

		switch {
		case resp.StatusCode == 200:
			var data []T
			err = json.NewDecoder(resp.Body).Decode(&data)
			resp.Body.Close()
			return data, totalPages, etag, expires, err
		case resp.StatusCode == 304:
			resp.Body.Close()
			return nil, totalPages, etag, expires, errNotModified
		default:
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			lastErr = fmt.Errorf("ESI %d: %s", resp.StatusCode, string(body))
			if resp.StatusCode < 500 && resp.StatusCode != 429 {
				return nil, 0, "", time.Time{}, lastErr
			}
		}
	}
	return nil, 0, "", time.Time{}, lastErr
}

// parseExpires reads the Expires header from an ESI response.
// Falls back to 5-minute TTL if the header is missing or unparseable.
func parseExpires(resp *http.Response) time.Time {
	if exp := resp.Header.Get("Expires"); exp != "" {
		if t, err := time.Parse(time.RFC1123, exp); err == nil {
			return t
		}
	}
	return time.Now().Add(5 * time.Minute)
}
