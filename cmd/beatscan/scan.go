package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/satindergrewal/beatsync/internal/beat"
	"github.com/satindergrewal/beatsync/internal/decode"
	"github.com/satindergrewal/beatsync/internal/fetch"
	"github.com/satindergrewal/beatsync/internal/playlist"
)

// Report is the JSON written for each analysed file.
type Report struct {
	FileName   string                `json:"file_name"`
	SampleRate int                   `json:"sample_rate"`
	WindowSize int                   `json:"window_size"`
	DurationMs int64                 `json:"duration_ms"` // analysed length
	BPM        int                   `json:"bpm,omitempty"`
	Tempo      []beat.TempoCandidate `json:"tempo"`
	Peaks      []ReportPeak          `json:"peaks"`
}

// ReportPeak locates one peak in samples and milliseconds.
type ReportPeak struct {
	Offset    int     `json:"offset"`
	MsOffset  int64   `json:"ms_offset"`
	Amplitude float64 `json:"amplitude"`
}

func buildReport(name string, s beat.Samples, window, sampleRate int) Report {
	peaks := beat.Analyse(s, window, sampleRate)
	tempo := beat.RankTempo(beat.ClusterTempo(peaks, sampleRate))

	r := Report{
		FileName:   name,
		SampleRate: sampleRate,
		WindowSize: window,
		DurationMs: s.Duration.Milliseconds(),
		Tempo:      tempo,
		Peaks:      make([]ReportPeak, len(peaks)),
	}
	if tempo == nil {
		r.Tempo = []beat.TempoCandidate{}
	}
	if best, ok := beat.DominantTempo(tempo); ok {
		r.BPM = best.BPM
	}
	for i, p := range peaks {
		r.Peaks[i] = ReportPeak{Offset: p.Position, MsOffset: p.Time.Milliseconds(), Amplitude: p.Amplitude}
	}
	return r
}

// reportPath places the report next to the input, or in outDir.
func reportPath(input, outDir string) string {
	base := playlist.Title(input) + ".beat.json"
	if outDir != "" {
		return filepath.Join(outDir, base)
	}
	if strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://") {
		return base
	}
	return filepath.Join(filepath.Dir(input), base)
}

// scan analyses every file with at most cli.Jobs in flight. A file that
// fails is logged and counted; only I/O on the output aborts the run.
func scan(ctx context.Context, cli *CLI, stdout io.Writer) (int, error) {
	fetcher := fetch.NewClient(cli.Timeout)
	dec := decode.New(decode.Config{
		LowHz:  cli.LowHz,
		HighHz: cli.HighHz,
		Q:      cli.Q,
		FFmpeg: cli.FFmpeg,
	})
	opts := beat.DecodeOptions{MaxDuration: cli.MaxDuration, SampleRate: cli.SampleRate}

	if cli.Out != "" && !cli.Stdout {
		if err := os.MkdirAll(cli.Out, 0o755); err != nil {
			return 0, fmt.Errorf("create output dir: %w", err)
		}
	}

	var failed atomic.Int32
	var outMu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(cli.Jobs, 1))

	for _, file := range cli.Files {
		g.Go(func() error {
			data, err := fetcher.Fetch(gctx, beat.SourceID(file))
			if err != nil {
				log.Printf("Fetch %s: %v", file, err)
				failed.Add(1)
				return nil
			}
			samples, err := dec.DecodeAndFilter(gctx, data, opts)
			if err != nil {
				log.Printf("Decode %s: %v", file, err)
				failed.Add(1)
				return nil
			}

			r := buildReport(file, samples, cli.Window, cli.SampleRate)
			buf, err := json.MarshalIndent(r, "", "  ")
			if err != nil {
				return fmt.Errorf("encode report for %s: %w", file, err)
			}

			if cli.Stdout {
				outMu.Lock()
				defer outMu.Unlock()
				_, err := fmt.Fprintf(stdout, "%s\n", buf)
				return err
			}
			out := reportPath(file, cli.Out)
			if err := os.WriteFile(out, buf, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			log.Printf("%s: %d peaks, %d BPM -> %s", file, len(r.Peaks), r.BPM, out)
			return nil
		})
	}

	err := g.Wait()
	return int(failed.Load()), err
}
