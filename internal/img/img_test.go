package img

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(w, h int, c color.Color) image.Image {
	im := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			im.Set(x, y, c)
		}
	}
	return im
}

func encodePNG(t *testing.T, im image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, im))
	return buf.Bytes()
}

func TestDecode(t *testing.T) {
	t.Run("valid png", func(t *testing.T) {
		im, err := Decode(encodePNG(t, solid(40, 30, color.White)))
		require.NoError(t, err)
		assert.Equal(t, 40, im.Bounds().Dx())
		assert.Equal(t, 30, im.Bounds().Dy())
	})

	t.Run("empty buffer", func(t *testing.T) {
		_, err := Decode(nil)
		assert.ErrorIs(t, err, ErrEmpty)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := Decode([]byte("definitely not an image"))
		assert.Error(t, err)
	})
}

func TestFaceTensorStandardizes(t *testing.T) {
	white := FaceTensor(solid(300, 200, color.White), 160)
	require.Equal(t, 160, white.Size)
	require.Len(t, white.Data, 3*160*160)
	for _, v := range []float32{white.Data[0], white.Data[160*160], white.Data[len(white.Data)-1]} {
		assert.InDelta(t, 0.99609375, v, 1e-6)
	}

	black := FaceTensor(solid(50, 50, color.Black), 160)
	assert.InDelta(t, -0.99609375, black.Data[123], 1e-6)
}

func TestFaceTensorIsPlanar(t *testing.T) {
	red := FaceTensor(solid(10, 10, color.NRGBA{R: 255, A: 255}), 4)
	plane := 16
	assert.InDelta(t, 0.99609375, red.Data[0], 1e-6)
	assert.InDelta(t, -0.99609375, red.Data[plane], 1e-6)
	assert.InDelta(t, -0.99609375, red.Data[2*plane], 1e-6)
}

func TestCrop(t *testing.T) {
	src := solid(100, 100, color.White)

	c, ok := Crop(src, image.Rect(10, 10, 60, 40))
	require.True(t, ok)
	assert.Equal(t, 50, c.Bounds().Dx())
	assert.Equal(t, 30, c.Bounds().Dy())

	c, ok = Crop(src, image.Rect(90, 90, 200, 200))
	require.True(t, ok)
	assert.Equal(t, 10, c.Bounds().Dx())

	_, ok = Crop(src, image.Rect(150, 150, 200, 200))
	assert.False(t, ok)
}

func TestPrepareForOCR(t *testing.T) {
	raw := encodePNG(t, solid(2000, 1000, color.NRGBA{R: 10, G: 200, B: 10, A: 255}))

	p, err := PrepareForOCR(raw, 800, 70, true)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", p.MIME)

	im, err := Decode(p.Bytes)
	require.NoError(t, err)
	assert.Equal(t, 800, im.Bounds().Dx())
	assert.Equal(t, 400, im.Bounds().Dy())
}

func TestFingerprintIsStable(t *testing.T) {
	a := Fingerprint([]byte("abc"))
	assert.Equal(t, a, Fingerprint([]byte("abc")))
	assert.NotEqual(t, a, Fingerprint([]byte("abd")))
	assert.Len(t, a, 64)
}
