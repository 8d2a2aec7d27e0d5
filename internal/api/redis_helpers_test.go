package api

import (
	"strings"
	"testing"
	"time"
)

func TestRateExceeded(t *testing.T) {
	cases := []struct {
		name  string
		count int64
		limit int
		want  bool
	}{
		{"under limit", 5, 10, false},
		{"at limit", 10, 10, false},
		{"over limit", 11, 10, true},
		{"limit zero disables", 100, 0, false},
		{"negative limit disables", 100, -1, false},
	}
	for _, tc := range cases {
		if got := rateExceeded(tc.count, tc.limit); got != tc.want {
			t.Errorf("%s: rateExceeded(%d, %d) = %v, want %v", tc.name, tc.count, tc.limit, got, tc.want)
		}
	}
}

func TestHourWindowIsUTC(t *testing.T) {
	loc := time.FixedZone("UTC+8", 8*3600)
	at := time.Date(2026, 3, 1, 2, 30, 0, 0, loc)
	if got := hourWindow(at); got != "2026022818" {
		t.Errorf("hourWindow = %q, want %q", got, "2026022818")
	}
}

func TestScrapeCacheKeyIsStable(t *testing.T) {
	first := scrapeCacheKey("https://example.com/jobs/1")
	second := scrapeCacheKey("https://example.com/jobs/1")
	other := scrapeCacheKey("https://example.com/jobs/2")

	if first != second {
		t.Error("same url must produce the same cache key")
	}
	if first == other {
		t.Error("different urls must produce different cache keys")
	}
	if !strings.HasPrefix(first, "cache:scrape:") {
		t.Errorf("key = %q, missing namespace prefix", first)
	}
}
