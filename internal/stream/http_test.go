package stream

import (
	"context"
	"encoding/binary"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncoderArgs(t *testing.T) {
	h := NewHTTPHandler(NewBroadcaster[[]int16](FrameBuffer), "")
	args := h.encoderArgs()

	assert.Equal(t, "ffmpeg", h.ffmpeg)
	i := slices.Index(args, "-ar")
	require.GreaterOrEqual(t, i, 0)
	assert.Equal(t, "48000", args[i+1])
	i = slices.Index(args, "-b:a")
	require.GreaterOrEqual(t, i, 0)
	assert.Equal(t, "192k", args[i+1])
}

func TestHTTPHandlerMissingEncoder(t *testing.T) {
	b := NewBroadcaster[[]int16](FrameBuffer)
	h := NewHTTPHandler(b, "/nonexistent/ffmpeg")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stream", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Zero(t, b.ListenerCount())
}

type pipeCloser struct {
	io.Writer
	closed chan struct{}
}

func (p pipeCloser) Close() error {
	close(p.closed)
	return nil
}

func TestFeedPCM(t *testing.T) {
	b := NewBroadcaster[[]int16](FrameBuffer)
	l := b.Subscribe()

	pr, pw := io.Pipe()
	sink := pipeCloser{Writer: pw, closed: make(chan struct{})}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go feedPCM(ctx, sink, l)

	b.Publish([]int16{1, -2})
	got := make([]byte, 4)
	_, err := io.ReadFull(pr, got)
	require.NoError(t, err)
	assert.Equal(t, int16(1), int16(binary.LittleEndian.Uint16(got[0:])))
	assert.Equal(t, int16(-2), int16(binary.LittleEndian.Uint16(got[2:])))

	b.Unsubscribe(l)
	select {
	case <-sink.closed:
	case <-time.After(time.Second):
		t.Fatal("feedPCM did not close stdin after unsubscribe")
	}
}
