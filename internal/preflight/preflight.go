package preflight

import (
	"context"

	"curator/internal/catalog"
	"curator/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the checks a reconciliation run needs: asset and state
// directories, free space for fetched files, and catalog reachability.
func RunAll(ctx context.Context, cfg *config.Config, adapter catalog.Adapter) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Asset directory", cfg.Paths.AssetDir),
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
	}
	if cfg.FetchEnabled() {
		results = append(results, CheckFreeSpace("Asset free space", cfg.Paths.AssetDir, MinFreeBytes))
	}
	results = append(results, CheckCatalog(ctx, adapter))
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}
