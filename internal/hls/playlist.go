// Package hls covers the filesystem side of the HLS outputs: serving the
// files, watching the output directories for new segments and reading back
// the playlists ffmpeg writes.
package hls

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// Segment is one media segment entry of a playlist.
type Segment struct {
	Sequence int64   `json:"sequence"`
	Duration float64 `json:"duration"`
	URI      string  `json:"uri"`
}

// Playlist is the parsed form of a media playlist.
type Playlist struct {
	Version        int       `json:"version"`
	TargetDuration int       `json:"targetDuration"`
	MediaSequence  int64     `json:"mediaSequence"`
	Segments       []Segment `json:"segments"`
	Ended          bool      `json:"ended"`
}

// ParsePlaylist reads a media playlist. Tags it does not know are skipped.
func ParsePlaylist(r io.Reader) (*Playlist, error) {
	scanner := bufio.NewScanner(r)
	p := &Playlist{}
	seenHeader := false
	pending := -1.0
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !seenHeader {
			if line != "#EXTM3U" {
				return nil, fmt.Errorf("line %d: missing #EXTM3U header", lineNo)
			}
			seenHeader = true
			continue
		}

		tag, value, _ := strings.Cut(line, ":")
		switch tag {
		case "#EXT-X-VERSION":
			n, err := strconv.Atoi(value)
			if err != nil {
				return nil, fmt.Errorf("line %d: version: %w", lineNo, err)
			}
			p.Version = n
		case "#EXT-X-TARGETDURATION":
			n, err := strconv.Atoi(value)
			if err != nil {
				return nil, fmt.Errorf("line %d: target duration: %w", lineNo, err)
			}
			p.TargetDuration = n
		case "#EXT-X-MEDIA-SEQUENCE":
			n, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: media sequence: %w", lineNo, err)
			}
			p.MediaSequence = n
		case "#EXTINF":
			durStr, _, _ := strings.Cut(value, ",")
			d, err := strconv.ParseFloat(durStr, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: segment duration: %w", lineNo, err)
			}
			pending = d
		case "#EXT-X-ENDLIST":
			p.Ended = true
		default:
			if strings.HasPrefix(line, "#") {
				continue
			}
			if pending < 0 {
				return nil, fmt.Errorf("line %d: segment %q without #EXTINF", lineNo, line)
			}
			p.Segments = append(p.Segments, Segment{
				Sequence: p.MediaSequence + int64(len(p.Segments)),
				Duration: pending,
				URI:      line,
			})
			pending = -1
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if !seenHeader {
		return nil, fmt.Errorf("empty playlist")
	}
	return p, nil
}

// ReadPlaylist parses the playlist file at path.
func ReadPlaylist(path string) (*Playlist, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParsePlaylist(f)
}

// ObservedTargetDuration is the ceiling of the longest segment, which is
// what #EXT-X-TARGETDURATION must be at least.
func (p *Playlist) ObservedTargetDuration() int {
	max := 0.0
	for _, seg := range p.Segments {
		if seg.Duration > max {
			max = seg.Duration
		}
	}
	if max <= 0 {
		return 0
	}
	return int(math.Ceil(max))
}

// Contiguous reports whether the segment URIs follow ffmpeg's numbered
// pattern without gaps. Unnumbered URIs are treated as contiguous.
func (p *Playlist) Contiguous() bool {
	prev := int64(-1)
	for _, seg := range p.Segments {
		n, ok := segmentNumber(seg.URI)
		if !ok {
			return true
		}
		if prev >= 0 && n != prev+1 {
			return false
		}
		prev = n
	}
	return true
}

// segmentNumber extracts N from "segmentN.ts".
func segmentNumber(uri string) (int64, bool) {
	name := uri
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	if !strings.HasPrefix(name, "segment") || !strings.HasSuffix(name, ".ts") {
		return 0, false
	}
	n, err := strconv.ParseInt(strings.TrimSuffix(strings.TrimPrefix(name, "segment"), ".ts"), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
