// Package unsplash is the minimal Unsplash API client used by the fetcher.
//
// Search asks /search/photos for exactly one photo per page so callers can
// walk result pages one candidate at a time. Download retrieves the photo
// bytes with a size ceiling. Rate limiting and budgets are the caller's job.
package unsplash
