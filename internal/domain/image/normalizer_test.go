package image

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"food-analyzer-go/internal/platform/errors"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func solidRGBA(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func decodeJPEG(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return img
}

func TestTargetSize(t *testing.T) {
	tests := []struct {
		name         string
		w, h         int
		wantW, wantH int
	}{
		{"landscape downscale", 2048, 1024, 1024, 512},
		{"portrait downscale", 500, 3000, 171, 1024},
		{"small untouched", 300, 200, 300, 200},
		{"exact bound", 1024, 1024, 1024, 1024},
		{"one side over", 1025, 10, 1024, 10},
		{"extreme strip clamps to one", 5000, 1, 1024, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := TargetSize(tt.w, tt.h, 1024)
			assert.Equal(t, tt.wantW, w)
			assert.Equal(t, tt.wantH, h)
		})
	}
}

func TestNormalize_DownscalesPNG(t *testing.T) {
	n := NewNormalizer(1024, 75)
	out, err := n.Normalize(encodePNG(t, solidRGBA(2048, 1024, color.RGBA{200, 30, 30, 255})))
	require.NoError(t, err)

	assert.Equal(t, 1024, out.Width)
	assert.Equal(t, 512, out.Height)
	assert.Equal(t, "png", out.SourceFormat)
	assert.Equal(t, 2048, out.SourceWidth)
	assert.Len(t, out.Digest, 64)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(out.Data))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 1024, cfg.Width)
	assert.Equal(t, 512, cfg.Height)
}

func TestNormalize_NeverUpscales(t *testing.T) {
	n := NewNormalizer(1024, 75)
	out, err := n.Normalize(encodePNG(t, solidRGBA(300, 200, color.RGBA{0, 128, 0, 255})))
	require.NoError(t, err)

	assert.Equal(t, 300, out.Width)
	assert.Equal(t, 200, out.Height)
}

func TestNormalize_GrayscaleBecomesRGB(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 64, 64))
	for i := range gray.Pix {
		gray.Pix[i] = 128
	}

	out, err := NewNormalizer(1024, 75).Normalize(encodePNG(t, gray))
	require.NoError(t, err)

	cfg, _, err := image.DecodeConfig(bytes.NewReader(out.Data))
	require.NoError(t, err)
	assert.Equal(t, color.YCbCrModel, cfg.ColorModel, "three-component JPEG expected")
}

func TestNormalize_TransparencyOnWhite(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 32, 32))
	// fully transparent everywhere

	out, err := NewNormalizer(1024, 90).Normalize(encodePNG(t, img))
	require.NoError(t, err)

	r, g, b, _ := decodeJPEG(t, out.Data).At(16, 16).RGBA()
	assert.Greater(t, r>>8, uint32(245))
	assert.Greater(t, g>>8, uint32(245))
	assert.Greater(t, b>>8, uint32(245))
}

func TestNormalize_PalettedGIF(t *testing.T) {
	palette := color.Palette{color.Black, color.RGBA{0, 0, 255, 255}}
	img := image.NewPaletted(image.Rect(0, 0, 40, 20), palette)
	for i := range img.Pix {
		img.Pix[i] = 1
	}
	var buf bytes.Buffer
	require.NoError(t, gif.Encode(&buf, img, nil))

	out, err := NewNormalizer(1024, 75).Normalize(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "gif", out.SourceFormat)
	assert.Equal(t, 40, out.Width)

	r, _, b, _ := decodeJPEG(t, out.Data).At(20, 10).RGBA()
	assert.Greater(t, b>>8, r>>8)
}

func TestNormalize_Undecodable(t *testing.T) {
	_, err := NewNormalizer(1024, 75).Normalize([]byte("definitely not an image"))
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindInvalidImage))
}

func TestNormalize_Deterministic(t *testing.T) {
	data := encodePNG(t, solidRGBA(1500, 700, color.RGBA{10, 20, 30, 255}))
	n := NewNormalizer(1024, 75)

	a, err := n.Normalize(data)
	require.NoError(t, err)
	b, err := n.Normalize(data)
	require.NoError(t, err)
	assert.Equal(t, a.Digest, b.Digest)
}

func TestNewNormalizer_Defaults(t *testing.T) {
	n := NewNormalizer(0, 0)
	assert.Equal(t, DefaultMaxDimension, n.MaxDimension)
	assert.Equal(t, DefaultJPEGQuality, n.Quality)
}

func TestNormalizedImage_DataURI(t *testing.T) {
	img := &NormalizedImage{Data: []byte{0xFF, 0xD8}}
	assert.Equal(t, "data:image/jpeg;base64,/9g=", img.DataURI())
}

func TestFormatFromMIME(t *testing.T) {
	assert.Equal(t, "png", FormatFromMIME("image/png"))
	assert.Equal(t, "jpeg", FormatFromMIME("image/jpg"))
	assert.Equal(t, "jpeg", FormatFromMIME("Image/JPEG; charset=binary"))
	assert.Equal(t, "", FormatFromMIME("text/plain"))
	assert.Equal(t, "", FormatFromMIME(""))
}
