package transcoder

import (
	"log/slog"
	"strings"
)

// ffmpegLevels maps the tags printed with -loglevel level+info onto slog.
var ffmpegLevels = map[string]slog.Level{
	"panic":   slog.LevelError,
	"fatal":   slog.LevelError,
	"error":   slog.LevelError,
	"warning": slog.LevelWarn,
	"info":    slog.LevelInfo,
	"verbose": slog.LevelDebug,
	"debug":   slog.LevelDebug,
	"trace":   slog.LevelDebug,
}

// ParseLogLevel returns the slog level of an ffmpeg output line and the line
// without its level tag. ffmpeg writes "[level] msg" or, for messages from a
// muxer or protocol, "[component @ 0x...] [level] msg"; the component prefix
// is kept. Untagged lines are info.
func ParseLogLevel(line string) (slog.Level, string) {
	prefix, rest := "", line
	for i := 0; i < 2; i++ {
		if !strings.HasPrefix(rest, "[") {
			break
		}
		tag, after, ok := strings.Cut(rest[1:], "] ")
		if !ok {
			break
		}
		if level, known := ffmpegLevels[tag]; known {
			return level, prefix + after
		}
		prefix += "[" + tag + "] "
		rest = after
	}
	return slog.LevelInfo, line
}
