package image

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"math"

	_ "image/gif"
	_ "image/png"

	xdraw "golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"food-analyzer-go/internal/platform/errors"
)

const (
	DefaultMaxDimension = 1024
	DefaultJPEGQuality  = 75
)

// Normalizer turns any decodable image into an opaque RGB JPEG whose longest
// side is at most MaxDimension. Smaller images keep their size.
type Normalizer struct {
	MaxDimension int
	Quality      int
}

func NewNormalizer(maxDimension, quality int) *Normalizer {
	if maxDimension <= 0 {
		maxDimension = DefaultMaxDimension
	}
	if quality <= 0 || quality > 100 {
		quality = DefaultJPEGQuality
	}
	return &Normalizer{MaxDimension: maxDimension, Quality: quality}
}

// Normalize decodes data and re-encodes it. Decode failures are KindInvalidImage.
func (n *Normalizer) Normalize(data []byte) (*NormalizedImage, error) {
	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(errors.KindInvalidImage, "image.normalize", "cannot decode image", err)
	}

	bounds := src.Bounds()
	if bounds.Empty() {
		return nil, errors.New(errors.KindInvalidImage, "image.normalize", "image has no pixels")
	}

	w, h := TargetSize(bounds.Dx(), bounds.Dy(), n.MaxDimension)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	// Transparent regions end up white.
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	if w == bounds.Dx() && h == bounds.Dy() {
		draw.Draw(dst, dst.Bounds(), src, bounds.Min, draw.Over)
	} else {
		xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: n.Quality}); err != nil {
		return nil, errors.Wrap(errors.KindInvalidImage, "image.normalize", "cannot encode jpeg", err)
	}

	out := buf.Bytes()
	sum := sha256.Sum256(out)
	return &NormalizedImage{
		Data:         out,
		Width:        w,
		Height:       h,
		SourceFormat: format,
		SourceWidth:  bounds.Dx(),
		SourceHeight: bounds.Dy(),
		Digest:       hex.EncodeToString(sum[:]),
	}, nil
}

// TargetSize scales (w, h) so the longest side fits max, preserving aspect
// ratio. It never enlarges and never returns a side below 1.
func TargetSize(w, h, max int) (int, int) {
	if w <= max && h <= max {
		return w, h
	}
	scale := math.Min(float64(max)/float64(w), float64(max)/float64(h))
	return clampSide(int(math.Round(float64(w)*scale)), max), clampSide(int(math.Round(float64(h)*scale)), max)
}

func clampSide(v, max int) int {
	if v < 1 {
		return 1
	}
	if v > max {
		return max
	}
	return v
}

func (n *Normalizer) String() string {
	return fmt.Sprintf("jpeg q=%d max=%dpx", n.Quality, n.MaxDimension)
}
