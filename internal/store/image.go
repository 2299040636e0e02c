package store

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
)

// RotateClockwise decodes a frame, turns it 90 degrees clockwise and
// re-encodes it as PNG. Camera frames arrive in sensor orientation;
// playback wants them upright.
func RotateClockwise(frame []byte) ([]byte, error) {
	src, err := imaging.Decode(bytes.NewReader(frame))
	if err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}

	// imaging rotates counter-clockwise.
	dst := imaging.Rotate270(src)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, dst, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	return buf.Bytes(), nil
}
