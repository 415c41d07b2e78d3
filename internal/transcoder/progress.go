package transcoder

import (
	"strconv"
	"strings"
)

// Progress is the subset of an ffmpeg stats line the supervisor cares about.
type Progress struct {
	Frame int64
	FPS   float64
	Speed float64
}

// ParseProgress extracts the figures from a line such as
//
//	frame=  120 fps= 25 q=28.0 size=N/A time=00:00:04.80 bitrate=N/A speed=1.01x
//
// It reports false for lines that are not progress lines.
func ParseProgress(line string) (Progress, bool) {
	idx := strings.Index(line, "frame=")
	if idx < 0 {
		return Progress{}, false
	}
	fields := progressFields(line[idx:])

	var p Progress
	frame, err := strconv.ParseInt(fields["frame"], 10, 64)
	if err != nil {
		return Progress{}, false
	}
	p.Frame = frame
	if v, err := strconv.ParseFloat(fields["fps"], 64); err == nil {
		p.FPS = v
	}
	if v, err := strconv.ParseFloat(strings.TrimSuffix(fields["speed"], "x"), 64); err == nil {
		p.Speed = v
	}
	return p, true
}

// progressFields splits "key= value key=value" pairs. ffmpeg pads values
// with spaces after the '=' so a value may start on the next token.
func progressFields(s string) map[string]string {
	out := make(map[string]string)
	tokens := strings.Fields(s)
	for i := 0; i < len(tokens); i++ {
		key, value, ok := strings.Cut(tokens[i], "=")
		if !ok {
			continue
		}
		if value == "" && i+1 < len(tokens) && !strings.Contains(tokens[i+1], "=") {
			i++
			value = tokens[i]
		}
		out[key] = value
	}
	return out
}
