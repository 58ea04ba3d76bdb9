package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/satindergrewal/beatsync/internal/audio"
	"github.com/satindergrewal/beatsync/internal/beat"
	"github.com/satindergrewal/beatsync/internal/beatcache"
	"github.com/satindergrewal/beatsync/internal/config"
	"github.com/satindergrewal/beatsync/internal/playlist"
	"github.com/satindergrewal/beatsync/internal/stream"
	"github.com/satindergrewal/beatsync/internal/visual"
	"github.com/satindergrewal/beatsync/internal/web"
)

// radio bundles everything the HTTP routes talk to.
type radio struct {
	cfg         config.Config
	pipeline    *audio.Pipeline
	playlist    *playlist.Playlist
	coordinator *beat.Coordinator
	driver      *visual.Driver
	summaries   *beatcache.Cache
	frames      *stream.Broadcaster[[]int16]
	beats       *stream.Broadcaster[visual.Event]
	webrtc      *stream.WebRTCHandler
	gatherer    prometheus.Gatherer
}

func (rd *radio) routes() *http.ServeMux {
	mux := http.NewServeMux()

	// Web UI
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(web.IndexHTML)
	})

	// Audio and beat streams
	mux.Handle("/stream", stream.NewHTTPHandler(rd.frames, rd.cfg.FFmpeg))
	mux.Handle("/offer", rd.webrtc)
	mux.Handle("/beats", stream.NewSSEHandler(rd.beats, "beat"))
	mux.Handle("/metrics", promhttp.HandlerFor(rd.gatherer, promhttp.HandlerOpts{}))

	// API endpoints
	mux.HandleFunc("/api/status", rd.handleStatus)
	mux.HandleFunc("/api/next", rd.handleNext)
	mux.HandleFunc("/api/skip", rd.handleNext)
	mux.HandleFunc("/api/prev", rd.handlePrev)
	mux.HandleFunc("/api/shuffle", rd.handleShuffle)
	mux.HandleFunc("/api/beats", rd.handleBeats)
	mux.HandleFunc("/api/config", rd.handleConfig)
	mux.HandleFunc("/api/save", rd.handleSave)

	return mux
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	json.NewEncoder(w).Encode(v)
}

func (rd *radio) handleStatus(w http.ResponseWriter, r *http.Request) {
	track, pos, dur := rd.pipeline.Status()
	active, analyzing := rd.coordinator.Active()

	writeJSON(w, map[string]any{
		"track_id":         track.ID,
		"track_name":       track.Name,
		"track_path":       track.Path,
		"position":         pos.Seconds(),
		"duration":         dur.Seconds(),
		"playlist":         rd.playlist.Status(),
		"http_listeners":   rd.frames.ListenerCount(),
		"webrtc_listeners": rd.webrtc.PeerCount(),
		"beat_listeners":   rd.beats.ListenerCount(),
		"beats": map[string]any{
			"timeline":  rd.driver.Status(),
			"requested": active,
			"analyzing": analyzing,
		},
		"config": map[string]any{
			"crossfade":    rd.pipeline.CrossfadeDuration().Seconds(),
			"window_size":  rd.cfg.WindowSize,
			"sample_rate":  rd.cfg.SampleRate,
			"max_duration": rd.cfg.MaxDuration.Seconds(),
			"low_hz":       rd.cfg.LowHz,
			"high_hz":      rd.cfg.HighHz,
			"frame_rate":   rd.cfg.FrameRate,
		},
	})
}

func (rd *radio) handleNext(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}
	rd.pipeline.Skip()
	writeJSON(w, map[string]any{"ok": true})
}

func (rd *radio) handlePrev(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}
	current, _, _ := rd.pipeline.Status()
	t, ok := rd.playlist.Previous(current)
	if !ok {
		http.Error(w, "playlist is empty", http.StatusConflict)
		return
	}
	writeJSON(w, map[string]any{"ok": true, "track_name": t.Name})
}

func (rd *radio) handleShuffle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}
	rd.playlist.Reshuffle()
	writeJSON(w, map[string]any{"ok": true})
}

// handleBeats lists cached analysis summaries, or one with ?source=.
func (rd *radio) handleBeats(w http.ResponseWriter, r *http.Request) {
	if src := r.URL.Query().Get("source"); src != "" {
		s, ok := rd.summaries.Get(beat.SourceID(src))
		if !ok {
			http.Error(w, "no beats for source", http.StatusNotFound)
			return
		}
		writeJSON(w, s)
		return
	}
	writeJSON(w, rd.summaries.List())
}

func (rd *radio) handleConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Crossfade *float64 `json:"crossfade"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if req.Crossfade != nil {
		v := *req.Crossfade
		if v < 0 || v > 30 {
			http.Error(w, "crossfade must be 0-30", http.StatusBadRequest)
			return
		}
		rd.pipeline.SetCrossfade(time.Duration(v * float64(time.Second)))
	}
	writeJSON(w, map[string]any{
		"ok":        true,
		"crossfade": rd.pipeline.CrossfadeDuration().Seconds(),
	})
}

func (rd *radio) handleSave(w http.ResponseWriter, r *http.Request) {
	track, _, _ := rd.pipeline.Status()
	if track.Path == "" {
		http.Error(w, "no track playing", http.StatusNotFound)
		return
	}
	if strings.HasPrefix(track.Path, "http://") || strings.HasPrefix(track.Path, "https://") {
		http.Redirect(w, r, track.Path, http.StatusFound)
		return
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s%s"`, track.Name, filepath.Ext(track.Path)))
	w.Header().Set("Content-Type", "application/octet-stream")
	http.ServeFile(w, r, track.Path)
}
