package vocab

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"hablago/pkg/request"
)

// Fetcher downloads remote vocabulary files.
var Fetcher = request.New(request.WithMaxBody(16 << 20))

// Load reads entries from a local file or an http(s) URL.
func Load(ctx context.Context, path string, timeout time.Duration) ([]Entry, error) {
	var (
		data []byte
		err  error
	)
	if IsURL(path) {
		data, err = fetch(ctx, path, timeout)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("load vocabulary %s: %w", path, err)
	}

	entries, err := Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("parse vocabulary %s: %w", path, err)
	}
	return entries, nil
}

// IsURL reports whether path should be fetched over HTTP.
func IsURL(path string) bool {
	return strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://")
}

func fetch(ctx context.Context, url string, timeout time.Duration) ([]byte, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return Fetcher.GetWithHeaders(ctx, url, map[string]string{"Accept": "text/csv, text/plain"})
}
