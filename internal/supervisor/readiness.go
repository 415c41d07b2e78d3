package supervisor

import "strings"

// DefaultReadinessMarkers are ffmpeg output fragments that show a worker
// has opened its input and started producing output.
var DefaultReadinessMarkers = []string{
	"Opening",
	"muxer",
	"Output #0",
	"Stream mapping",
	"frame=",
}

// ReadinessDetector decides from one diagnostic line whether a worker is
// serving. It is a heuristic: a false negative only delays the Running
// status.
type ReadinessDetector interface {
	Ready(line string) bool
}

// MarkerDetector matches lines against an ordered list of substrings.
type MarkerDetector struct {
	markers []string
}

// NewMarkerDetector returns a detector for markers, or for
// DefaultReadinessMarkers when none are given.
func NewMarkerDetector(markers ...string) MarkerDetector {
	if len(markers) == 0 {
		markers = DefaultReadinessMarkers
	}
	return MarkerDetector{markers: append([]string(nil), markers...)}
}

// Match returns the first marker contained in line.
func (d MarkerDetector) Match(line string) (string, bool) {
	for _, m := range d.markers {
		if strings.Contains(line, m) {
			return m, true
		}
	}
	return "", false
}

// Ready implements ReadinessDetector.
func (d MarkerDetector) Ready(line string) bool {
	_, ok := d.Match(line)
	return ok
}
