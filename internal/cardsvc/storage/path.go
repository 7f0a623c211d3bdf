// Package storage keeps card photos in a GridFS bucket and derives their
// object paths and public URLs.
package storage

import (
	"fmt"
	"mime"
	"net/url"
	"path"
	"strings"
	"time"
)

// ObjectPath builds "{identity}/{scope}/{unix-millis}-{index}.{ext}", where
// scope is the card id (or a temporary id before the card exists).
func ObjectPath(identity, scope string, at time.Time, index int, ext string) string {
	ext = strings.TrimPrefix(strings.ToLower(ext), ".")
	if ext == "" {
		ext = "jpg"
	}
	return fmt.Sprintf("%s/%s/%d-%d.%s", identity, scope, at.UnixMilli(), index, ext)
}

// Extension picks the file extension for an upload: the filename's own
// extension wins, then the content type, then "jpg".
func Extension(filename, contentType string) string {
	if ext := strings.TrimPrefix(strings.ToLower(path.Ext(filename)), "."); ext != "" {
		return ext
	}
	if ct, _, err := mime.ParseMediaType(contentType); err == nil {
		if _, sub, ok := strings.Cut(ct, "/"); ok && strings.HasPrefix(ct, "image/") && sub != "" {
			if sub == "jpeg" {
				return "jpg"
			}
			return sub
		}
	}
	return "jpg"
}

// PublicURL derives the download URL of an object. The mapping is
// deterministic, so URLs are never stored.
func PublicURL(baseURL, objectPath string) string {
	segments := strings.Split(objectPath, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.TrimRight(baseURL, "/") + "/v1/images/" + strings.Join(segments, "/")
}

// CleanPath validates an object path taken from a request.
func CleanPath(p string) (string, error) {
	p = strings.TrimPrefix(p, "/")
	if p == "" || strings.Contains(p, "..") || strings.Contains(p, "\\") {
		return "", fmt.Errorf("invalid object path %q", p)
	}
	return path.Clean(p), nil
}
