package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"curator/internal/catalog"
	"curator/internal/config"
	"curator/internal/fetcher/unsplash"
)

// MinFreeBytes is the free space the asset directory needs for fetched files.
const MinFreeBytes = 64 << 20

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckFreeSpace verifies the filesystem holding path has at least minBytes
// available to unprivileged users.
func CheckFreeSpace(name, path string, minBytes uint64) Result {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", path, err)}
	}
	available := uint64(st.Bavail) * uint64(st.Bsize)
	detail := fmt.Sprintf("%s (%s free)", path, humanBytes(available))
	if available < minBytes {
		return Result{Name: name, Detail: detail + fmt.Sprintf(", need %s", humanBytes(minBytes))}
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

// CheckCatalog verifies the catalog answers a listing.
func CheckCatalog(ctx context.Context, adapter catalog.Adapter) Result {
	const name = "Catalog"
	if adapter == nil {
		return Result{Name: name, Detail: "not configured"}
	}
	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	entries, err := adapter.List(checkCtx)
	if err != nil {
		return Result{Name: name, Detail: summarizeError(err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("reachable (%d entries)", len(entries))}
}

// CheckUnsplash verifies the access key with one live search request. The
// request counts toward the hourly quota, so reconcile does not run it;
// record, when set, is told when the request goes out.
func CheckUnsplash(ctx context.Context, cfg config.Unsplash, record func(at time.Time)) Result {
	const name = "Unsplash"
	if !cfg.Enabled {
		return Result{Name: name, Passed: true, Detail: "Disabled"}
	}
	if cfg.AccessKey == "" {
		return Result{Name: name, Passed: true, Detail: "Disabled (no access key)"}
	}
	client, err := unsplash.New(cfg.AccessKey, cfg.BaseURL, cfg.Orientation, unsplash.WithTimeout(5*time.Second))
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if record != nil {
		record(time.Now())
	}
	_, err = client.Search(checkCtx, "landscape", 1)
	var statusErr *unsplash.StatusError
	switch {
	case err == nil, errors.Is(err, unsplash.ErrNoResults):
		return Result{Name: name, Passed: true, Detail: "API reachable"}
	case errors.As(err, &statusErr) && statusErr.Status == 401:
		return Result{Name: name, Detail: "auth failed (invalid access key)"}
	case errors.As(err, &statusErr) && statusErr.RateLimited():
		return Result{Name: name, Detail: "rate limited (hourly quota exhausted)"}
	default:
		return Result{Name: name, Detail: summarizeError(err)}
	}
}

func summarizeError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "timed out"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timed out (unreachable)"
	}
	return err.Error()
}

func humanBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
