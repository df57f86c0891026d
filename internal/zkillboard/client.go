// Package zkillboard fetches item-loss statistics used by the loss-weighted
// strategy as a replenishment-demand signal.
package zkillboard

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"eve-tradeworks/internal/config"
	"eve-tradeworks/internal/logger"
)

const (
	baseURL = "https://zkillboard.com/api"

	// retries bounds how often a rate-limited request is reattempted.
	retries = 3
)

// Client is a rate-limited zKillboard API client.
// zKillboard enforces strict limits: at most 10 requests per second.
type Client struct {
	http      *http.Client
	sem       chan struct{}
	retryWait time.Duration
	mu        sync.Mutex
	lastReq   time.Time
}

// NewClient creates a zKillboard client with rate limiting.
func NewClient() *Client {
	return &Client{
		http:      &http.Client{Timeout: 60 * time.Second}, // zKillboard can be slow
		sem:       make(chan struct{}, 5),
		retryWait: 10 * time.Second,
	}
}

// KillmailRef is one entry of the zKillboard feed: a killmail id plus the
// hash needed to fetch the full body from ESI.
type KillmailRef struct {
	KillmailID int64 `json:"killmail_id"`
	ZKB        struct {
		Hash           string  `json:"hash"`
		TotalValue     float64 `json:"totalValue"`
		DroppedValue   float64 `json:"droppedValue"`
		DestroyedValue float64 `json:"destroyedValue"`
		NPC            bool    `json:"npc"`
	} `json:"zkb"`
}

// FetchLosses fetches up to maxPages pages of loss references for the
// configured entity. zKillboard pages hold 200 killmails each and stop
// returning data past the available history.
func (c *Client) FetchLosses(entity config.ZkillEntity, maxPages int) ([]KillmailRef, error) {
	var all []KillmailRef
	for page := 1; page <= maxPages; page++ {
		url := fmt.Sprintf("%s/losses/%s/%d/page/%d/", baseURL, entity.FilterPath(), entity.ID, page)

		var refs []KillmailRef
		if err := c.getJSON(url, &refs); err != nil {
			return nil, fmt.Errorf("losses page %d: %w", page, err)
		}
		if len(refs) == 0 {
			break
		}
		all = append(all, refs...)
	}
	return all, nil
}

// getJSON fetches a URL and decodes JSON with rate limiting.
func (c *Client) getJSON(url string, dst interface{}) error {
	c.sem <- struct{}{}
	defer func() { <-c.sem }()

	// Minimum 200ms between requests keeps us well under 10 req/s.
	c.mu.Lock()
	elapsed := time.Since(c.lastReq)
	if elapsed < 200*time.Millisecond {
		time.Sleep(200*time.Millisecond - elapsed)
	}
	c.lastReq = time.Now()
	c.mu.Unlock()

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		req, err := http.NewRequest("GET", url, nil)
		if err != nil {
			return err
		}
		req.Header.Set("User-Agent", "eve-tradeworks/1.0 (evemail Your Ozuwara)")
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}

		if resp.StatusCode == 429 {
			resp.Body.Close()
			lastErr = fmt.Errorf("zkillboard rate limited")
			logger.Warn("Zkillboard", "Rate limited, backing off...")
			time.Sleep(c.retryWait)
			continue
		}

		if resp.StatusCode != 200 {
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return fmt.Errorf("zkillboard %d: %s", resp.StatusCode, string(body))
		}

		err = json.NewDecoder(resp.Body).Decode(dst)
		resp.Body.Close()
		return err
	}
	return lastErr
}
