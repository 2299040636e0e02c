package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonical(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"sorted keys", map[string]any{"b": 1, "a": 2}, `{"a":2,"b":1}`},
		{"nested", map[string]any{"z": []any{map[string]any{"y": true, "x": false}}}, `{"z":[{"x":false,"y":true}]}`},
		{"int64", int64(-42), `-42`},
		{"no html escaping", "<a & b>", `"<a & b>"`},
		{"escapes", "q\"b\\n\nt\tc\x01", `"q\"b\\n\nt\tc\u0001"`},
		{"line separators stay literal", "a\u2028b\u2029", "\"a\u2028b\u2029\""},
		{"nfc", "Souri\u0065\u0301", "\"Souri\u00e9\""},
		{"utf16 key order", map[string]any{"\uff61": 1, "\U0001F600": 2}, "{\"\U0001F600\":2,\"\uff61\":1}"},
		{"empty", []any{}, `[]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MarshalCanonical(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestMarshalCanonical_Rejects(t *testing.T) {
	for _, v := range []any{nil, 0.5, float32(1), map[string]any{"a": nil}, []any{1.5}, struct{}{}} {
		_, err := MarshalCanonical(v)
		assert.Error(t, err, "%#v", v)
	}
}

func TestTraceDigest(t *testing.T) {
	a, err := TraceDigest(sampleTrace)
	require.NoError(t, err)
	assert.Len(t, a, 64)

	b, err := TraceDigest(append([]TraceEvent(nil), sampleTrace...))
	require.NoError(t, err)
	assert.Equal(t, a, b)

	changed := append([]TraceEvent(nil), sampleTrace...)
	changed[2].Points = 7
	c, err := TraceDigest(changed)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)

	empty, err := TraceDigest(nil)
	require.NoError(t, err)
	assert.NotEqual(t, a, empty)
}

func TestRun_DigestStableAcrossRuns(t *testing.T) {
	scenario := loadTestScenario(t, "game_over")

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)

	assert.NotEmpty(t, first.Digest)
	assert.Equal(t, first.Digest, second.Digest)
}
