package img

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

var ErrEmpty = errors.New("img: empty image buffer")

// Decode reads a JPEG/PNG buffer, applying EXIF orientation so phone
// selfies come out upright.
func Decode(b []byte) (image.Image, error) {
	if len(b) == 0 {
		return nil, ErrEmpty
	}
	im, err := imaging.Decode(bytes.NewReader(b), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	if im.Bounds().Empty() {
		return nil, ErrEmpty
	}
	return im, nil
}

// Fingerprint is the hex sha256 of the raw upload; used as cache key.
func Fingerprint(b []byte) string {
	h := sha256.Sum256(b)
	return hex.EncodeToString(h[:])
}
