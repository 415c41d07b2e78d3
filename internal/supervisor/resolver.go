package supervisor

import (
	"fmt"
	"path/filepath"
)

// PlaylistFile is the playlist name inside every stream directory.
const PlaylistFile = "output.m3u8"

// ResolveAll returns the configuration of streams 1..streamCount, in order.
func ResolveAll(streamCount int, sourceURL string, params HLSParams) []StreamConfig {
	if streamCount < 0 {
		streamCount = 0
	}
	configs := make([]StreamConfig, 0, streamCount)
	for i := 1; i <= streamCount; i++ {
		configs = append(configs, StreamConfig{
			ID:              StreamID(i),
			SourceURL:       sourceURL,
			OutputPath:      filepath.Join(params.OutputRoot, StreamDir(StreamID(i)), PlaylistFile),
			SegmentDuration: params.SegmentDuration,
			PlaylistSize:    params.PlaylistSize,
		})
	}
	return configs
}

// StreamDir is the directory name of id under the output root.
func StreamDir(id StreamID) string {
	return fmt.Sprintf("stream%d", id)
}

// OutputURL is the public URL of id's playlist.
func OutputURL(id StreamID) string {
	return "/streams/" + StreamDir(id) + "/" + PlaylistFile
}
