package transcoder

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// SourceKind classifies an input locator.
type SourceKind int

const (
	// SourceFile is a finite local asset; it is looped forever.
	SourceFile SourceKind = iota
	// SourceRTSP is a network camera stream; it is pulled over TCP.
	SourceRTSP
	// SourceHTTP is a remote URL.
	SourceHTTP
)

func (k SourceKind) String() string {
	switch k {
	case SourceRTSP:
		return "rtsp"
	case SourceHTTP:
		return "http"
	default:
		return "file"
	}
}

// SegmentPattern is the segment filename template handed to ffmpeg.
const SegmentPattern = "segment%03d.ts"

// ClassifySource reports what kind of input locator is.
func ClassifySource(locator string) SourceKind {
	l := strings.ToLower(strings.TrimSpace(locator))
	switch {
	case strings.HasPrefix(l, "rtsp://"), strings.HasPrefix(l, "rtsps://"):
		return SourceRTSP
	case strings.HasPrefix(l, "http://"), strings.HasPrefix(l, "https://"):
		return SourceHTTP
	default:
		return SourceFile
	}
}

// Job is everything needed to build one HLS transcoding invocation.
type Job struct {
	Input           string
	OutputPath      string
	SegmentDuration int
	PlaylistSize    int
}

// Command is a ready-to-spawn program invocation.
type Command struct {
	Path string
	Args []string
}

func (c Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, c.Path)
	for _, a := range c.Args {
		if strings.ContainsAny(a, " \t\"'") {
			a = strconv.Quote(a)
		}
		parts = append(parts, a)
	}
	return strings.Join(parts, " ")
}

// BuildCommand resolves local paths to absolute ones and returns the ffmpeg
// invocation for job using the binary at ffmpegPath.
func BuildCommand(ffmpegPath string, job Job) (Command, error) {
	kind := ClassifySource(job.Input)

	input := job.Input
	if kind == SourceFile {
		abs, err := filepath.Abs(job.Input)
		if err != nil {
			return Command{}, fmt.Errorf("resolve input %q: %w", job.Input, err)
		}
		input = abs
	}

	output, err := filepath.Abs(job.OutputPath)
	if err != nil {
		return Command{}, fmt.Errorf("resolve output %q: %w", job.OutputPath, err)
	}

	return Command{
		Path: ffmpegPath,
		Args: BuildArgs(kind, input, output, job.SegmentDuration, job.PlaylistSize),
	}, nil
}

// BuildArgs returns the ffmpeg argument list. input and output are used
// as given.
func BuildArgs(kind SourceKind, input, output string, segmentDuration, playlistSize int) []string {
	args := []string{
		"-hide_banner",
		"-loglevel", "level+info",
		"-re",
	}
	if kind == SourceFile {
		args = append(args, "-stream_loop", "-1")
	}
	if kind == SourceRTSP {
		args = append(args, "-rtsp_transport", "tcp")
	}
	args = append(args,
		"-i", input,
		"-c:v", "libx264",
		"-preset", "ultrafast",
		"-tune", "zerolatency",
		"-c:a", "aac",
		"-b:a", "128k",
		"-f", "hls",
		"-hls_time", strconv.Itoa(segmentDuration),
		"-hls_list_size", strconv.Itoa(playlistSize),
		"-hls_flags", "delete_segments+append_list",
		"-hls_segment_filename", filepath.Join(filepath.Dir(output), SegmentPattern),
		"-start_number", "0",
		output,
	)
	return args
}
