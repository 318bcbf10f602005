package network

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/vidra-player/vidra/constant"
	"github.com/vidra-player/vidra/filesystem"
)

// MaxDownloadSize caps a single download.
const MaxDownloadSize = 32 << 20

// Download fetches url into dst within timeout. dst only appears once the body was read completely.
func Download(ctx context.Context, client *http.Client, url, dst string, timeout time.Duration) error {
	if client == nil {
		client = Client
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", constant.UserAgent)
	req.Header.Set("Accept", "image/avif,image/webp,image/*,*/*;q=0.8")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("download %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download %s: unexpected status %s", url, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxDownloadSize+1))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if len(data) > MaxDownloadSize {
		return fmt.Errorf("download %s: larger than %d bytes", url, MaxDownloadSize)
	}
	if len(data) == 0 {
		return fmt.Errorf("download %s: empty body", url)
	}

	return filesystem.WriteAtomic(dst, data)
}
