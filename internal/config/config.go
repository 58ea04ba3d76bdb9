package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration, loaded from environment variables.
type Config struct {
	// Server
	Port int

	// Radio behavior
	Music             string        // music directory, or comma separated files and URLs
	Shuffle           bool          // randomise playlist order at startup
	CrossfadeDuration time.Duration // crossfade length
	BufferAhead       int           // tracks to keep queued
	FFmpeg            string        // ffmpeg binary used for decoding and MP3 encoding

	// Beat analysis
	WindowSize   int           // samples per peak window
	SampleRate   int           // analysis sample rate
	MaxDuration  time.Duration // analysed prefix of each track
	LowHz        float64       // band-pass lower edge
	HighHz       float64       // band-pass upper edge
	FilterQ      float64       // band-pass filter quality
	FrameRate    int           // beat polls per second
	FetchTimeout time.Duration // per-request fetch timeout
	CacheTTL     time.Duration // how long beat summaries stay in /api/beats
}

// Load reads configuration from environment variables with sane defaults.
func Load() Config {
	return Config{
		Port: envInt("RADIO_PORT", 8080),

		Music:             envStr("RADIO_MUSIC", "./music"),
		Shuffle:           envBool("RADIO_SHUFFLE", true),
		CrossfadeDuration: envDuration("RADIO_CROSSFADE_DURATION", 8*time.Second),
		BufferAhead:       envInt("RADIO_BUFFER_AHEAD", 2),
		FFmpeg:            envStr("BEAT_FFMPEG", "ffmpeg"),

		WindowSize:   envInt("BEAT_WINDOW_SIZE", 22050),
		SampleRate:   envInt("BEAT_SAMPLE_RATE", 44100),
		MaxDuration:  envDuration("BEAT_MAX_DURATION", 30*time.Second),
		LowHz:        envFloat("BEAT_LOW_HZ", 100),
		HighHz:       envFloat("BEAT_HIGH_HZ", 150),
		FilterQ:      envFloat("BEAT_FILTER_Q", 1.0),
		FrameRate:    envInt("BEAT_FRAME_RATE", 60),
		FetchTimeout: envDuration("BEAT_FETCH_TIMEOUT", 30*time.Second),
		CacheTTL:     envDuration("BEAT_CACHE_TTL", 30*time.Minute),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

// envDuration accepts Go durations ("90s", "5m") or a bare number of seconds.
func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return fallback
}
