// Package assets maps catalog references onto files under the asset root and
// writes new assets there.
package assets

import (
	"net/url"
	"path/filepath"
	"strings"
)

// Reason explains why a reference does not point at a usable local asset.
type Reason string

const (
	ReasonNone        Reason = ""
	ReasonEmpty       Reason = "empty"
	ReasonRemote      Reason = "remote"
	ReasonOutsideRoot Reason = "outside_root"
	ReasonNotFound    Reason = "not_found"
	ReasonUnreadable  Reason = "unreadable"
)

// Resolver turns references such as "/static/images/a.jpg?v=2" into paths
// under Root.
type Resolver struct {
	Root         string
	PublicPrefix string
}

// NewResolver returns a resolver for the given asset root and URL prefix.
func NewResolver(root, publicPrefix string) Resolver {
	root = filepath.Clean(root)
	if publicPrefix != "" && !strings.HasSuffix(publicPrefix, "/") {
		publicPrefix += "/"
	}
	return Resolver{Root: root, PublicPrefix: publicPrefix}
}

// StripDecoration removes query and fragment suffixes. Cache busters like
// "?v=3" do not change which asset a reference names.
func StripDecoration(reference string) string {
	reference = strings.TrimSpace(reference)
	if idx := strings.IndexAny(reference, "?#"); idx >= 0 {
		reference = reference[:idx]
	}
	return reference
}

// Resolve returns the absolute path a reference names, or the reason it
// names no local file. It does not touch the filesystem.
func (r Resolver) Resolve(reference string) (string, Reason) {
	ref := StripDecoration(reference)
	if ref == "" {
		return "", ReasonEmpty
	}
	if isRemote(ref) {
		return "", ReasonRemote
	}
	if unescaped, err := url.PathUnescape(ref); err == nil {
		ref = unescaped
	}

	var candidate string
	switch {
	case r.PublicPrefix != "" && strings.HasPrefix(ref, r.PublicPrefix):
		candidate = filepath.Join(r.Root, filepath.FromSlash(strings.TrimPrefix(ref, r.PublicPrefix)))
	case filepath.IsAbs(ref):
		candidate = filepath.Clean(ref)
	default:
		candidate = filepath.Join(r.Root, filepath.FromSlash(ref))
	}

	if !r.contains(candidate) {
		return "", ReasonOutsideRoot
	}
	return candidate, ReasonNone
}

// Reference builds the catalog reference for a file name under Root.
func (r Resolver) Reference(name string) string {
	return r.PublicPrefix + filepath.ToSlash(name)
}

// Name returns the path of an absolute file relative to Root in slash form.
func (r Resolver) Name(path string) string {
	rel, err := filepath.Rel(r.Root, path)
	if err != nil {
		return filepath.Base(path)
	}
	return filepath.ToSlash(rel)
}

func (r Resolver) contains(path string) bool {
	rel, err := filepath.Rel(r.Root, path)
	if err != nil {
		return false
	}
	if rel == "." {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func isRemote(ref string) bool {
	lower := strings.ToLower(ref)
	if strings.HasPrefix(lower, "//") || strings.HasPrefix(lower, "data:") {
		return true
	}
	if idx := strings.Index(lower, "://"); idx > 0 {
		return true
	}
	return false
}
