package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"
)

// StoreSettings is the public configuration the storefront reads before
// checkout.
type StoreSettings struct {
	StoreName           string  `json:"storeName"`
	StoreNameAr         string  `json:"storeNameAr"`
	ShippingPrice       float64 `json:"shippingPrice"`
	InstaPayNumber      string  `json:"instaPayNumber"`
	InstaPayAccountName string  `json:"instaPayAccountName"`
	VodafoneNumber      string  `json:"vodafoneNumber"`
}

// FetchStoreSettings retrieves the public store settings.
func (c *Client) FetchStoreSettings(ctx context.Context) (StoreSettings, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/api/settings/store", nil)
	if err != nil {
		return StoreSettings{}, err
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return StoreSettings{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return StoreSettings{}, fmt.Errorf("settings fetch failed: %s", resp.Status)
	}

	var body struct {
		StoreSettings StoreSettings `json:"storeSettings"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return StoreSettings{}, err
	}
	return body.StoreSettings, nil
}

// SettingsService caches store settings for every consuming component
// instead of each one fetching independently. An optional background
// refresh loop is tied to the context passed to Start; an interval of zero
// disables polling and leaves Refresh as the only update path.
type SettingsService struct {
	client   *Client
	interval time.Duration

	mu       sync.RWMutex
	settings StoreSettings
	loaded   bool
}

func NewSettingsService(client *Client, refreshInterval time.Duration) *SettingsService {
	return &SettingsService{client: client, interval: refreshInterval}
}

// Get returns the cached settings, fetching once if nothing is cached yet.
func (s *SettingsService) Get(ctx context.Context) (StoreSettings, error) {
	s.mu.RLock()
	if s.loaded {
		defer s.mu.RUnlock()
		return s.settings, nil
	}
	s.mu.RUnlock()

	return s.Refresh(ctx)
}

// Refresh fetches the settings and replaces the cache.
func (s *SettingsService) Refresh(ctx context.Context) (StoreSettings, error) {
	settings, err := s.client.FetchStoreSettings(ctx)
	if err != nil {
		return StoreSettings{}, err
	}

	s.mu.Lock()
	s.settings = settings
	s.loaded = true
	s.mu.Unlock()
	return settings, nil
}

// Start launches the refresh loop. It returns immediately; the loop stops
// when ctx is canceled. With a zero interval Start does nothing.
func (s *SettingsService) Start(ctx context.Context) {
	if s.interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := s.Refresh(ctx); err != nil {
					log.Println("[SETTINGS] refresh failed:", err)
				}
			}
		}
	}()
}
