package fetcher

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

var extensions = map[string]string{
	"jpeg": ".jpg",
	"png":  ".png",
	"gif":  ".gif",
	"webp": ".webp",
}

// inspect checks that data is a decodable image of at least minBytes and
// returns the file extension for its format.
func inspect(data []byte, minBytes int64) (string, *FetchError) {
	if int64(len(data)) < minBytes {
		return "", &FetchError{Kind: KindTooSmall, Err: fmt.Errorf("%d bytes, want at least %d", len(data), minBytes)}
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", &FetchError{Kind: KindNotImage, Err: err}
	}
	ext, ok := extensions[format]
	if !ok {
		return "", &FetchError{Kind: KindNotImage, Err: fmt.Errorf("unsupported format %q", format)}
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return "", &FetchError{Kind: KindNotImage, Err: fmt.Errorf("empty dimensions %dx%d", cfg.Width, cfg.Height)}
	}
	return ext, nil
}
