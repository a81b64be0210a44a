package fetch

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/chromedp/chromedp"

	"cayman-scraper/config"
	"cayman-scraper/utils"
)

// BrowserFetcher renders a page in headless Chrome and serializes the
// listing container to markdown-like text (anchors as [text](href), images
// as ![alt](src)), the format the per-source parsers consume. The container
// selector differs per marketplace, so every source gets its own fetcher.
type BrowserFetcher struct {
	selector    string
	logger      *utils.Logger
	retry       *utils.RetryConfig
	allocCtx    context.Context
	cancelAlloc context.CancelFunc
}

// NewBrowserFetcher starts a shared Chrome allocator for the given container
// selector. Close must be called when the fetcher is no longer needed.
func NewBrowserFetcher(cfg *config.Config, selector string, logger *utils.Logger) *BrowserFetcher {
	chromeBin := findChromeBinary(cfg.ChromeBin)
	logger.Info("[fetch] Using browser binary: %s", chromeBin)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent("Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 "+
			"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)

	// Suppress chromedp log noise
	silentCtx, cancelSilent := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(string, ...interface{}) {}))

	return &BrowserFetcher{
		selector: selector,
		logger:   logger,
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		},
		allocCtx: silentCtx,
		cancelAlloc: func() {
			cancelSilent()
			cancelAlloc()
		},
	}
}

// Close shuts the shared browser allocator down.
func (f *BrowserFetcher) Close() {
	f.cancelAlloc()
}

// Fetch navigates to url, scrolls the full page so lazy cards load, and
// returns the serialized container content. A missing container is an error:
// it means the site markup drifted, and skipping the page silently is
// disallowed.
func (f *BrowserFetcher) Fetch(ctx context.Context, url string) (string, error) {
	var content string

	err := f.retry.Do(ctx, fmt.Sprintf("fetch %s", url), func() error {
		tabCtx, cancel := chromedp.NewContext(f.allocCtx)
		defer cancel()

		tabCtx, cancelTimeout := context.WithTimeout(tabCtx, 90*time.Second)
		defer cancelTimeout()

		// Honor cancellation of the run context, not just the tab timeout.
		go func() {
			select {
			case <-ctx.Done():
				cancel()
			case <-tabCtx.Done():
			}
		}()

		var found bool
		var text string

		err := chromedp.Run(tabCtx,
			chromedp.Navigate(url),
			chromedp.Sleep(4*time.Second),
			chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight / 2)`, nil),
			chromedp.Sleep(1*time.Second),
			chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil),
			chromedp.Sleep(1*time.Second),
			chromedp.Evaluate(`!!document.querySelector(`+jsString(f.selector)+`)`, &found),
			chromedp.Evaluate(serializeScript(f.selector), &text),
		)
		if err != nil {
			return fmt.Errorf("chromedp run: %w", err)
		}
		if !found {
			return fmt.Errorf("container %q not present on page", f.selector)
		}

		content = text
		return nil
	})
	if err != nil {
		return "", err
	}

	return content, nil
}

// serializeScript builds the JS that walks the container DOM and emits the
// markdown-like serialization the parsers expect.
func serializeScript(selector string) string {
	return `
		(function() {
			var root = document.querySelector(` + jsString(selector) + `);
			if (!root) return '';

			function serialize(node) {
				if (node.nodeType === Node.TEXT_NODE) {
					return node.textContent;
				}
				if (node.nodeType !== Node.ELEMENT_NODE) {
					return '';
				}
				var tag = node.tagName.toLowerCase();
				if (tag === 'script' || tag === 'style' || tag === 'noscript') {
					return '';
				}
				if (tag === 'img') {
					return '![' + (node.getAttribute('alt') || '') + '](' + (node.src || '') + ')';
				}
				var inner = '';
				var children = node.childNodes;
				for (var i = 0; i < children.length; i++) {
					inner += serialize(children[i]);
				}
				if (tag === 'a') {
					var title = node.getAttribute('title');
					var suffix = title ? ' "' + title + '"' : ' ""';
					return '[ ' + inner.trim() + ' ](' + node.href + suffix + ')';
				}
				if (tag === 'li') {
					return '  * ' + inner.trim() + '\n';
				}
				if (tag === 'strong' || tag === 'b') {
					return '__' + inner.trim() + '__';
				}
				if (/^(div|p|section|article|ul|ol|h1|h2|h3|h4|br)$/.test(tag)) {
					return inner + '\n';
				}
				return inner;
			}

			return serialize(root);
		})()
	`
}

// jsString quotes s as a JS string literal.
func jsString(s string) string {
	out := make([]byte, 0, len(s)+2)
	out = append(out, '\'')
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\'', '\\':
			out = append(out, '\\', s[i])
		case '\n':
			out = append(out, '\\', 'n')
		default:
			out = append(out, s[i])
		}
	}
	return string(append(out, '\''))
}

// findChromeBinary locates a Chrome/Chromium binary.
func findChromeBinary(configured string) string {
	if configured != "" {
		return configured
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
