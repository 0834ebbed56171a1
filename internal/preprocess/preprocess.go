package preprocess

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/nfnt/resize"
)

const (
	// TargetSize is the height and width the classifier expects.
	TargetSize = 224
	// Channels is the RGB channel count.
	Channels = 3
)

// ErrDecode marks malformed or unsupported image bytes.
var ErrDecode = errors.New("image decode failed")

// Shape is the tensor layout produced by FromImageBytes: batch, height,
// width, channels.
func Shape() []int64 {
	return []int64{1, TargetSize, TargetSize, Channels}
}

// FromImageBytes decodes data into a flat NHWC float tensor of Shape(),
// resized to 224x224 with nearest-neighbor interpolation and normalized
// to [0,1] by dividing the 8-bit channel values by 255.
func FromImageBytes(data []byte) ([]float32, error) {
	mtype := mimetype.Detect(data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return nil, fmt.Errorf("%w: unsupported content type %s", ErrDecode, mtype.String())
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	resized := resize.Resize(TargetSize, TargetSize, img, resize.NearestNeighbor)

	bounds := resized.Bounds()
	tensor := make([]float32, TargetSize*TargetSize*Channels)
	for y := 0; y < TargetSize; y++ {
		for x := 0; x < TargetSize; x++ {
			r, g, b, _ := resized.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			idx := (y*TargetSize + x) * Channels
			tensor[idx] = float32(r>>8) / 255.0
			tensor[idx+1] = float32(g>>8) / 255.0
			tensor[idx+2] = float32(b>>8) / 255.0
		}
	}

	return tensor, nil
}
