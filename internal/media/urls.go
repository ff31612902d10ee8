package media

import (
	"fmt"
	"net/url"
	"strings"
)

// Variant is an image transformation requested from the CDN through the
// "tr" query parameter.
type Variant struct {
	Width   int
	Height  int
	Quality int
}

var DefaultThumbnail = Variant{Width: 400, Height: 400, Quality: 80}

func (v Variant) String() string {
	var parts []string
	if v.Width > 0 {
		parts = append(parts, fmt.Sprintf("w-%d", v.Width))
	}
	if v.Height > 0 {
		parts = append(parts, fmt.Sprintf("h-%d", v.Height))
	}
	if v.Quality > 0 {
		parts = append(parts, fmt.Sprintf("q-%d", v.Quality))
	}
	return strings.Join(parts, ",")
}

// URLs builds public links to stored objects.
type URLs struct {
	Base      string
	Thumbnail Variant
}

func (u URLs) URL(key string) string {
	segs := strings.Split(key, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.TrimRight(u.Base, "/") + "/" + strings.Join(segs, "/")
}

func (u URLs) VariantURL(key string, v Variant) string {
	tr := v.String()
	if tr == "" {
		return u.URL(key)
	}
	return u.URL(key) + "?tr=" + tr
}

func (u URLs) ThumbnailURL(key string) string {
	return u.VariantURL(key, u.Thumbnail)
}
