// Package schoolcal fetches the household's school calendar feed and answers
// which dates are school days. The schedule engine consumes it through the
// SchoolCalendar port when evaluating SCHOOL_DAY rules.
package schoolcal

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"
)

const (
	cacheTTL  = 6 * time.Hour
	dayLayout = "2006-01-02"
)

// Config holds school calendar configuration from environment variables.
type Config struct {
	// FeedURL points at a JSON feed of school days. Empty means no calendar
	// is configured and every date reads as a non-school day.
	FeedURL string
}

// Service fetches and caches the school day feed.
type Service struct {
	config  Config
	client  *http.Client
	backoff func() retry.Backoff

	mu        sync.RWMutex
	cached    map[string]struct{}
	lastFetch time.Time
}

// NewService creates a school calendar service with the given configuration.
func NewService(cfg Config) *Service {
	return &Service{
		config: cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		backoff: func() retry.Backoff {
			return retry.WithMaxRetries(3, retry.NewExponential(500*time.Millisecond))
		},
	}
}

// Configured reports whether a feed URL is set.
func (s *Service) Configured() bool {
	return s.config.FeedURL != ""
}

// SchoolDays returns the school days inside [from, to], refreshing the feed
// when the cache is stale. An unconfigured service returns no days.
func (s *Service) SchoolDays(ctx context.Context, from, to time.Time) ([]time.Time, error) {
	if !s.Configured() {
		return nil, nil
	}

	set, err := s.daySet(ctx)
	if err != nil {
		return nil, err
	}

	from = startOfDay(from)
	to = startOfDay(to)

	var out []time.Time
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if _, ok := set[d.Format(dayLayout)]; ok {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *Service) daySet(ctx context.Context) (map[string]struct{}, error) {
	s.mu.RLock()
	if time.Since(s.lastFetch) < cacheTTL && s.cached != nil {
		set := s.cached
		s.mu.RUnlock()
		return set, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Double-check after acquiring write lock.
	if time.Since(s.lastFetch) < cacheTTL && s.cached != nil {
		return s.cached, nil
	}

	set, err := s.fetch(ctx)
	if err != nil {
		// Serve stale data on error rather than dropping it.
		if s.cached != nil {
			return s.cached, nil
		}
		return nil, err
	}

	s.cached = set
	s.lastFetch = time.Now()
	return s.cached, nil
}

type feedResponse struct {
	SchoolDays []string `json:"school_days"`
}

func (s *Service) fetch(ctx context.Context) (map[string]struct{}, error) {
	var feed feedResponse
	err := retry.Do(ctx, s.backoff(), func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.config.FeedURL, nil)
		if err != nil {
			return err
		}
		resp, err := s.client.Do(req)
		if err != nil {
			return retry.RetryableError(fmt.Errorf("school feed request: %w", err))
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return retry.RetryableError(fmt.Errorf("school feed returned status %d", resp.StatusCode))
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("school feed returned status %d", resp.StatusCode)
		}
		return json.NewDecoder(resp.Body).Decode(&feed)
	})
	if err != nil {
		return nil, err
	}

	set := make(map[string]struct{}, len(feed.SchoolDays))
	for _, raw := range feed.SchoolDays {
		d, err := time.Parse(dayLayout, raw)
		if err != nil {
			return nil, fmt.Errorf("school feed date %q: %w", raw, err)
		}
		set[d.Format(dayLayout)] = struct{}{}
	}
	return set, nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
