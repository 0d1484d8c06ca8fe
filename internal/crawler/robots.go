package crawler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	cache "github.com/patrickmn/go-cache"
	"github.com/temoto/robotstxt"
)

const (
	robotsCacheTTL = time.Hour
	maxRobotsBytes = 512 * 1024
	maxRobotsDelay = 10 * time.Second
)

// RobotsChecker fetches and caches robots.txt per origin. A missing or
// unreadable robots.txt allows everything.
type RobotsChecker struct {
	cache     *cache.Cache
	userAgent string
	client    *http.Client
}

// NewRobotsChecker creates a new robots.txt checker.
func NewRobotsChecker(userAgent string, client *http.Client) *RobotsChecker {
	return &RobotsChecker{
		cache:     cache.New(robotsCacheTTL, 2*robotsCacheTTL),
		userAgent: userAgent,
		client:    client,
	}
}

// CanFetch reports whether the URL may be fetched and the crawl delay the
// site asks for, zero when it names none.
func (rc *RobotsChecker) CanFetch(ctx context.Context, rawURL string) (bool, time.Duration, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false, 0, fmt.Errorf("invalid URL: %w", err)
	}

	origin := u.Scheme + "://" + u.Host
	data, found := rc.cachedRobots(origin)
	if !found {
		data = rc.fetch(ctx, origin)
		rc.cache.SetDefault(origin, data)
	}
	if data == nil {
		return true, 0, nil
	}

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}

	group := data.FindGroup(rc.userAgent)
	return group.Test(path), crawlDelay(group), nil
}

func (rc *RobotsChecker) cachedRobots(origin string) (*robotstxt.RobotsData, bool) {
	cached, found := rc.cache.Get(origin)
	if !found {
		return nil, false
	}
	return cached.(*robotstxt.RobotsData), true
}

// fetch returns nil when robots.txt is absent or unusable.
func (rc *RobotsChecker) fetch(ctx context.Context, origin string) *robotstxt.RobotsData {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, origin+"/robots.txt", nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", rc.userAgent)

	resp, err := rc.client.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRobotsBytes))
	if err != nil {
		return nil
	}

	data, err := robotstxt.FromBytes(body)
	if err != nil {
		return nil
	}
	return data
}

func crawlDelay(group *robotstxt.Group) time.Duration {
	if group == nil || group.CrawlDelay <= 0 {
		return 0
	}
	if group.CrawlDelay > maxRobotsDelay {
		return maxRobotsDelay
	}
	return group.CrawlDelay
}
