package config

import "github.com/spf13/pflag"

// Flags holds the values bound to command-line flags. Only flags the user
// actually set are applied by Overlay.
type Flags struct {
	ConfigFile string
	EnvFile    string
	values     Settings
}

// BindFlags registers the settings flags on fs.
func BindFlags(fs *pflag.FlagSet) *Flags {
	f := &Flags{}
	d := Defaults()

	fs.StringVarP(&f.ConfigFile, "config", "c", DefaultFile, "path to the TOML settings file")
	fs.StringVar(&f.EnvFile, "env-file", ".env", "path to a .env file")
	fs.StringVarP(&f.values.Port, "port", "p", d.Port, "HTTP listen port")
	fs.StringVar(&f.values.SourceURL, "source", d.SourceURL, "input source locator (rtsp://, http(s)://, or a local path)")
	fs.IntVar(&f.values.StreamCount, "streams", d.StreamCount, "number of transcoding pipelines")
	fs.IntVar(&f.values.SegmentDuration, "segment-duration", d.SegmentDuration, "HLS segment duration in seconds")
	fs.IntVar(&f.values.PlaylistSize, "playlist-size", d.PlaylistSize, "maximum segments kept in the live playlist")
	fs.StringVar(&f.values.OutputDir, "output-dir", d.OutputDir, "root directory for HLS output")
	fs.StringVar(&f.values.FFmpegPath, "ffmpeg", d.FFmpegPath, "path to the ffmpeg binary")
	fs.IntVar(&f.values.RestartDelayMs, "restart-delay-ms", d.RestartDelayMs, "delay before a restarted worker is relaunched")
	fs.StringVar(&f.values.CORSOrigin, "cors-origin", d.CORSOrigin, "value of Access-Control-Allow-Origin")
	fs.StringVar(&f.values.LogLevel, "log-level", d.LogLevel, "log level: debug, info, warn, error")
	fs.StringVar(&f.values.LogFormat, "log-format", d.LogFormat, "log format: json or text")
	return f
}

// Overlay copies every flag explicitly set on fs into s.
func (f *Flags) Overlay(fs *pflag.FlagSet, s *Settings) {
	set := func(name string, apply func()) {
		if fs.Changed(name) {
			apply()
		}
	}
	set("port", func() { s.Port = f.values.Port })
	set("source", func() { s.SourceURL = f.values.SourceURL })
	set("streams", func() { s.StreamCount = f.values.StreamCount })
	set("segment-duration", func() { s.SegmentDuration = f.values.SegmentDuration })
	set("playlist-size", func() { s.PlaylistSize = f.values.PlaylistSize })
	set("output-dir", func() { s.OutputDir = f.values.OutputDir })
	set("ffmpeg", func() { s.FFmpegPath = f.values.FFmpegPath })
	set("restart-delay-ms", func() { s.RestartDelayMs = f.values.RestartDelayMs })
	set("cors-origin", func() { s.CORSOrigin = f.values.CORSOrigin })
	set("log-level", func() { s.LogLevel = f.values.LogLevel })
	set("log-format", func() { s.LogFormat = f.values.LogFormat })
}

// Resolve builds the effective settings: defaults, then the TOML file, then
// the environment, then explicitly set flags. The .env file is loaded first
// so it can also select the production defaults.
func (f *Flags) Resolve(fs *pflag.FlagSet) (Settings, error) {
	if err := LoadDotEnv(f.EnvFile); err != nil {
		return Settings{}, err
	}
	s := Defaults()
	if _, err := LoadFile(f.ConfigFile, &s); err != nil {
		return s, err
	}
	ApplyEnv(&s)
	f.Overlay(fs, &s)
	return s, s.Validate()
}
