package cli

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/faceoff/internal/session"
	"github.com/roach88/faceoff/internal/store"
	"github.com/roach88/faceoff/internal/testutil"
)

// writeFile writes content to name inside a fresh temp dir and returns the path.
func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// testPNG encodes a w x h opaque image.
func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{G: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// seedDatabase creates a database with one finished and one active session.
// The finished session "game-1" has frames 0 and 1 (PNG) and 2 (raw bytes).
func seedDatabase(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "faceoff.db")

	st, err := store.Open(path)
	require.NoError(t, err)
	defer st.Close()

	finished := session.State{
		SessionID:      "game-1",
		StartedAt:      testutil.Epoch,
		EndedAt:        testutil.Epoch.Add(40 * time.Second),
		CurrentPoints:  27,
		TotalShown:     6,
		TotalSucceeded: 3,
		FramesSaved:    3,
	}
	require.NoError(t, st.StartSession(ctx, finished))
	require.NoError(t, st.EndSession(ctx, finished))
	require.NoError(t, st.SaveFrame(ctx, "game-1", 0, testPNG(t, 2, 2)))
	require.NoError(t, st.SaveFrame(ctx, "game-1", 1, testPNG(t, 3, 3)))
	require.NoError(t, st.SaveFrame(ctx, "game-1", 2, []byte("raw")))

	active := session.State{SessionID: "game-2", StartedAt: testutil.Epoch.Add(time.Minute)}
	require.NoError(t, st.StartSession(ctx, active))

	return path
}
