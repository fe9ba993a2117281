// Package digest computes content digests for media assets.
//
// A Digest is the lowercase hex SHA-256 of a file's bytes. Two assets with the
// same digest are the same asset regardless of name or location. Files are
// streamed, never loaded whole.
package digest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// Digest is a lowercase hex SHA-256 content hash.
type Digest string

// Short returns the first 12 characters, enough to identify an asset in logs
// and filenames.
func (d Digest) Short() string {
	if len(d) <= 12 {
		return string(d)
	}
	return string(d[:12])
}

func (d Digest) String() string { return string(d) }

// ReadError reports a file that could not be opened or fully read.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// File hashes the file at path.
func File(path string) (Digest, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", &ReadError{Path: path, Err: err}
	}
	defer f.Close()

	d, _, err := Reader(f)
	if err != nil {
		return "", &ReadError{Path: path, Err: err}
	}
	return d, nil
}

// Reader hashes r until EOF and returns the digest with the number of bytes read.
func Reader(r io.Reader) (Digest, int64, error) {
	h := sha256.New()
	n, err := io.Copy(h, r)
	if err != nil {
		return "", n, err
	}
	return Digest(hex.EncodeToString(h.Sum(nil))), n, nil
}

// Bytes hashes an in-memory payload.
func Bytes(data []byte) Digest {
	sum := sha256.Sum256(data)
	return Digest(hex.EncodeToString(sum[:]))
}
