package hls

import (
	"net/http"
	"path"
)

const (
	PlaylistContentType = "application/vnd.apple.mpegurl"
	SegmentContentType  = "video/MP2T"
)

// FileServer serves the output root with HLS content types and no caching;
// live playlists change every segment.
func FileServer(root string) http.Handler {
	fs := http.FileServer(http.Dir(root))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch path.Ext(r.URL.Path) {
		case ".m3u8":
			w.Header().Set("Content-Type", PlaylistContentType)
			w.Header().Set("Cache-Control", "no-cache")
		case ".ts":
			w.Header().Set("Content-Type", SegmentContentType)
			w.Header().Set("Cache-Control", "no-cache")
		}
		fs.ServeHTTP(w, r)
	})
}
