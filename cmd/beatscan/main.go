package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
)

var version = "0.1.0"

// CLI defines the command-line interface
type CLI struct {
	Version     bool          `short:"v" help:"Show version information"`
	Out         string        `short:"o" type:"path" help:"Directory for reports (default: next to each input)"`
	Stdout      bool          `help:"Print reports to stdout instead of writing files"`
	Jobs        int           `short:"j" default:"4" help:"Files analysed in parallel"`
	Window      int           `default:"22050" help:"Peak window in samples"`
	SampleRate  int           `default:"44100" help:"Analysis sample rate in Hz"`
	MaxDuration time.Duration `default:"30s" help:"Analyse at most this much of each file"`
	LowHz       float64       `default:"100" help:"Band-pass lower edge in Hz"`
	HighHz      float64       `default:"150" help:"Band-pass upper edge in Hz"`
	Q           float64       `default:"1.0" help:"Band-pass filter quality"`
	FFmpeg      string        `default:"ffmpeg" help:"FFmpeg binary for formats without a native decoder"`
	Timeout     time.Duration `default:"30s" help:"Download timeout for URLs"`
	Files       []string      `arg:"" name:"files" help:"Audio files or URLs to analyse" optional:""`
}

func main() {
	cliArgs := &CLI{}
	ctx := kong.Parse(cliArgs,
		kong.Name("beatscan"),
		kong.Description("Write beat and tempo reports for audio files"),
		kong.UsageOnError(),
	)

	if cliArgs.Version {
		fmt.Printf("beatscan %s\n", version)
		os.Exit(0)
	}

	if len(cliArgs.Files) == 0 {
		fmt.Fprintln(os.Stderr, "No input files specified")
		ctx.PrintUsage(false)
		os.Exit(1)
	}

	runCtx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	start := time.Now()
	failed, err := scan(runCtx, cliArgs, os.Stdout)
	if err != nil {
		log.Fatalf("beatscan: %v", err)
	}
	log.Printf("Scanned %d files in %v (%d failed)", len(cliArgs.Files), time.Since(start).Round(time.Millisecond), failed)
	if failed > 0 {
		os.Exit(1)
	}
}
