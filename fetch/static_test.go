package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"cayman-scraper/config"
	"cayman-scraper/utils"
)

func newStaticTestConfig() *config.Config {
	return &config.Config{
		FetchBatchSize: 2,
		RateLimitMs:    0,
		MaxRetries:     1,
	}
}

func TestStaticFetcherSendsBrowserUserAgent(t *testing.T) {
	var mu sync.Mutex
	var agents []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		agents = append(agents, r.UserAgent())
		mu.Unlock()
		w.Write([]byte("<html><body>detail page</body></html>"))
	}))
	defer srv.Close()

	f, err := NewStaticFetcher(newStaticTestConfig(), utils.NewTestLogger())
	if err != nil {
		t.Fatalf("building fetcher: %v", err)
	}

	for i := 0; i < 3; i++ {
		content, err := f.Fetch(context.Background(), srv.URL)
		if err != nil {
			t.Fatalf("fetch %d: %v", i, err)
		}
		if !strings.Contains(content, "detail page") {
			t.Errorf("fetch %d returned unexpected content %q", i, content)
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if len(agents) != 3 {
		t.Fatalf("server saw %d requests; want 3", len(agents))
	}
	for i, ua := range agents {
		if ua == "" {
			t.Errorf("request %d carried no user agent", i)
		}
		if strings.Contains(strings.ToLower(ua), "colly") {
			t.Errorf("request %d carried the default library user agent %q", i, ua)
		}
	}
}

func TestStaticFetcherEmptyBodyIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	f, err := NewStaticFetcher(newStaticTestConfig(), utils.NewTestLogger())
	if err != nil {
		t.Fatalf("building fetcher: %v", err)
	}

	if _, err := f.Fetch(context.Background(), srv.URL); err == nil {
		t.Fatal("expected error for empty response body")
	}
}
