package feed

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/faceoff/internal/expression"
	"github.com/roach88/faceoff/internal/session"
	"github.com/roach88/faceoff/internal/testutil"
)

type fakeTarget struct {
	samples []session.Sample
	starts  int
	limit   int
}

func (f *fakeTarget) SubmitSample(s session.Sample) bool {
	if f.limit > 0 && len(f.samples) >= f.limit {
		return false
	}
	f.samples = append(f.samples, s)
	return true
}

func (f *fakeTarget) RequestStart() bool {
	f.starts++
	return true
}

func run(t *testing.T, input string, opts ...Option) (*fakeTarget, Stats) {
	t.Helper()
	target := &fakeTarget{}
	opts = append([]Option{WithBaseTime(testutil.Epoch)}, opts...)
	stats, err := NewReader(strings.NewReader(input), opts...).Run(context.Background(), target)
	require.NoError(t, err)
	return target, stats
}

func TestReader_SamplesAndCommands(t *testing.T) {
	frame := base64.StdEncoding.EncodeToString([]byte("png-bytes"))
	input := `{"command":"start"}
{"t_ms": 1300, "channels": {"jawOpen": 0.8}}
{"t_ms": 2200, "channels": {"mouthSmileLeft": 0.9, "mouthSmileRight": 0.9}, "frame": "` + frame + `"}
`
	target, stats := run(t, input)

	assert.Equal(t, 1, target.starts)
	require.Len(t, target.samples, 2)

	assert.Equal(t, testutil.Epoch.Add(1300*time.Millisecond), target.samples[0].At)
	assert.Equal(t, 0.8, target.samples[0].Signal[expression.ChannelJawOpen])
	assert.Empty(t, target.samples[0].Frame)

	assert.Equal(t, testutil.Epoch.Add(2200*time.Millisecond), target.samples[1].At)
	assert.Equal(t, []byte("png-bytes"), target.samples[1].Frame)

	assert.Equal(t, Stats{Lines: 3, Samples: 2, Commands: 1}, stats)
}

func TestReader_MissingTimeLeftForLoop(t *testing.T) {
	target, _ := run(t, `{"channels": {"jawOpen": 0.1}}`)

	require.Len(t, target.samples, 1)
	assert.True(t, target.samples[0].At.IsZero(), "loop stamps arrival time")
}

func TestReader_SkipsBadLines(t *testing.T) {
	input := strings.Join([]string{
		`not json`,
		``,
		`{"command":"jump"}`,
		`{"t_ms": 10, "channels": {"jawOpen": 1.7}}`,
		`{"t_ms": -5, "channels": {"jawOpen": 0.2}}`,
		`{"t_ms": 20, "channels": {"jawOpen": 0.2}}`,
	}, "\n")

	target, stats := run(t, input)

	require.Len(t, target.samples, 1)
	assert.Equal(t, testutil.Epoch.Add(20*time.Millisecond), target.samples[0].At)
	assert.Equal(t, 4, stats.Skipped)
	assert.Equal(t, 6, stats.Lines)
}

func TestReader_EmptyChannelsIsValid(t *testing.T) {
	target, _ := run(t, `{"t_ms": 5}`)

	require.Len(t, target.samples, 1)
	assert.NotNil(t, target.samples[0].Signal)
	assert.Empty(t, target.samples[0].Signal)
}

func TestReader_StopsWhenTargetCloses(t *testing.T) {
	target := &fakeTarget{limit: 1}
	input := `{"t_ms": 1}
{"t_ms": 2}
{"t_ms": 3}`

	stats, err := NewReader(strings.NewReader(input)).Run(context.Background(), target)
	require.NoError(t, err)
	assert.Len(t, target.samples, 1)
	assert.Equal(t, 2, stats.Lines)
}

func TestReader_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewReader(strings.NewReader(`{"t_ms": 1}`)).Run(ctx, &fakeTarget{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReader_DefaultBaseIsNow(t *testing.T) {
	clock := testutil.NewManualClock()
	clock.Advance(time.Minute)

	target := &fakeTarget{}
	_, err := NewReader(strings.NewReader(`{"t_ms": 100}`), WithNow(clock.Now)).Run(context.Background(), target)
	require.NoError(t, err)

	require.Len(t, target.samples, 1)
	assert.Equal(t, testutil.Epoch.Add(time.Minute+100*time.Millisecond), target.samples[0].At)
}

func TestReader_PacingPastSamplesDoNotWait(t *testing.T) {
	// Clock already beyond every sample time, so pacing returns immediately.
	now := func() time.Time { return testutil.Epoch.Add(time.Hour) }

	target, _ := run(t, `{"t_ms": 10}
{"t_ms": 20}`, WithPacing(true), WithNow(now))
	assert.Len(t, target.samples, 2)
}

func TestReader_PacingCancelled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	now := func() time.Time { return testutil.Epoch }
	rd := NewReader(strings.NewReader(`{"t_ms": 60000}`),
		WithBaseTime(testutil.Epoch), WithPacing(true), WithNow(now))

	target := &fakeTarget{}
	_, err := rd.Run(ctx, target)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, target.samples)
}
