package hls

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"
)

// PlaylistName is the playlist file ffmpeg writes in each stream directory.
const PlaylistName = "output.m3u8"

// PlaylistSummary is the part of a parsed playlist worth reporting.
type PlaylistSummary struct {
	MediaSequence  int64 `json:"mediaSequence"`
	TargetDuration int   `json:"targetDuration"`
	Segments       int   `json:"segments"`
	Contiguous     bool  `json:"contiguous"`
	Ended          bool  `json:"ended"`
}

// DirReport describes one stream's output directory. Only names relative
// to the output root are reported.
type DirReport struct {
	StreamID      int              `json:"streamId"`
	Dir           string           `json:"dir"`
	Exists        bool             `json:"exists"`
	Files         []string         `json:"files"`
	Playlist      *PlaylistSummary `json:"playlist,omitempty"`
	PlaylistError string           `json:"playlistError,omitempty"`
	LastSegmentAt *time.Time       `json:"lastSegmentAt,omitempty"`
}

// StreamDirName is the directory name of stream id under the output root.
func StreamDirName(id int) string {
	return "stream" + strconv.Itoa(id)
}

// Inspect reports on the output directories of ids under root. last, if
// not nil, supplies the time the most recent segment was seen.
func Inspect(root string, ids []int, last func(id int) (time.Time, bool)) []DirReport {
	reports := make([]DirReport, 0, len(ids))
	for _, id := range ids {
		name := StreamDirName(id)
		rep := DirReport{StreamID: id, Dir: name, Files: []string{}}
		dir := filepath.Join(root, name)

		entries, err := os.ReadDir(dir)
		if err == nil {
			rep.Exists = true
			for _, e := range entries {
				if !e.IsDir() {
					rep.Files = append(rep.Files, e.Name())
				}
			}
			sort.Strings(rep.Files)
		} else if !errors.Is(err, fs.ErrNotExist) {
			rep.Exists = true
		}

		if rep.Exists {
			pl, err := ReadPlaylist(filepath.Join(dir, PlaylistName))
			switch {
			case err == nil:
				rep.Playlist = &PlaylistSummary{
					MediaSequence:  pl.MediaSequence,
					TargetDuration: pl.TargetDuration,
					Segments:       len(pl.Segments),
					Contiguous:     pl.Contiguous(),
					Ended:          pl.Ended,
				}
			case errors.Is(err, fs.ErrNotExist):
			default:
				rep.PlaylistError = "unreadable playlist"
			}
		}

		if last != nil {
			if t, ok := last(id); ok {
				rep.LastSegmentAt = &t
			}
		}
		reports = append(reports, rep)
	}
	return reports
}
