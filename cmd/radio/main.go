package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/satindergrewal/beatsync/internal/audio"
	"github.com/satindergrewal/beatsync/internal/beat"
	"github.com/satindergrewal/beatsync/internal/beatcache"
	"github.com/satindergrewal/beatsync/internal/config"
	"github.com/satindergrewal/beatsync/internal/decode"
	"github.com/satindergrewal/beatsync/internal/fetch"
	"github.com/satindergrewal/beatsync/internal/playlist"
	"github.com/satindergrewal/beatsync/internal/stream"
	"github.com/satindergrewal/beatsync/internal/visual"
)

func main() {
	cfg := config.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Println("beatsync starting up...")

	tracks, err := playlist.Load(cfg.Music)
	if err != nil {
		log.Fatalf("Load music: %v", err)
	}
	log.Printf("Loaded %d tracks from %s", len(tracks), cfg.Music)

	// Audio pipeline
	audio.FFmpegPath = cfg.FFmpeg
	pipeline := audio.NewPipeline(cfg.CrossfadeDuration)
	go pipeline.Run(ctx)

	// Broadcaster: fan-out PCM frames to all listeners
	frames := stream.NewBroadcaster[[]int16](stream.FrameBuffer)
	go frames.Run(ctx, pipeline.Frames())

	// Playlist keeps the pipeline fed
	pl := playlist.New(pipeline, tracks, playlist.Config{
		Shuffle:     cfg.Shuffle,
		BufferAhead: cfg.BufferAhead,
	})
	go pl.Run(ctx)

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := beat.NewMetrics(reg)
	if err != nil {
		log.Fatalf("Register metrics: %v", err)
	}

	// Beat analysis: pipeline is the authority on what is playing
	coordinator := beat.NewCoordinator(
		pipeline,
		fetch.NewClient(cfg.FetchTimeout),
		decode.New(decode.Config{
			LowHz:  cfg.LowHz,
			HighHz: cfg.HighHz,
			Q:      cfg.FilterQ,
			FFmpeg: cfg.FFmpeg,
		}),
		beat.WithMetrics(metrics),
		beat.WithSampleRate(cfg.SampleRate),
		beat.WithMaxDuration(cfg.MaxDuration),
		beat.WithWindowSize(cfg.WindowSize),
	)

	summaries := beatcache.New(cfg.CacheTTL)
	beats := stream.NewBroadcaster[visual.Event](stream.EventBuffer)

	driver := visual.NewDriver(pipeline, coordinator, beats.Publish,
		visual.WithFrameRate(cfg.FrameRate),
		visual.WithResultHook(func(res beat.Result) {
			summaries.Put(beatcache.FromResult(res, time.Now()))
		}),
	)
	go driver.Run(ctx)

	rd := &radio{
		cfg:         cfg,
		pipeline:    pipeline,
		playlist:    pl,
		coordinator: coordinator,
		driver:      driver,
		summaries:   summaries,
		frames:      frames,
		beats:       beats,
		webrtc:      stream.NewWebRTCHandler(frames, beats),
		gatherer:    reg,
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{Addr: addr, Handler: rd.routes()}

	go func() {
		<-ctx.Done()
		log.Println("Shutting down...")
		server.Close()
	}()

	log.Printf("beatsync live on %s", addr)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("HTTP server error: %v", err)
	}
	coordinator.Wait()
}
