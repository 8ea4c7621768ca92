package img

import (
	"image"

	"github.com/disintegration/imaging"
)

// Tensor is a planar RGB (CHW) float image, Size x Size per channel.
type Tensor struct {
	Size int
	Data []float32
}

// Crop cuts r out of src. ok is false when r does not overlap src.
func Crop(src image.Image, r image.Rectangle) (image.Image, bool) {
	r = r.Intersect(src.Bounds())
	if r.Empty() {
		return nil, false
	}
	return imaging.Crop(src, r), true
}

// FaceTensor resizes src to size x size and standardizes every channel with
// (v - 127.5) / 128, the input distribution the embedding model was trained on.
func FaceTensor(src image.Image, size int) Tensor {
	dst := imaging.Resize(src, size, size, imaging.Linear)

	plane := size * size
	data := make([]float32, 3*plane)
	for y := 0; y < size; y++ {
		row := dst.Pix[y*dst.Stride:]
		for x := 0; x < size; x++ {
			px := row[x*4:]
			p := y*size + x
			data[p] = standardize(px[0])
			data[plane+p] = standardize(px[1])
			data[2*plane+p] = standardize(px[2])
		}
	}
	return Tensor{Size: size, Data: data}
}

func standardize(v uint8) float32 {
	return (float32(v) - 127.5) / 128.0
}
