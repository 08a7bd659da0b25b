// Package testutil builds in-memory image fixtures for tests.
package testutil

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"image"
	"image/color"
	"image/color/palette"
	"image/gif"
	"image/jpeg"
	"image/png"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

// Noise returns a w x h opaque image filled with seeded random pixels.
func Noise(w, h int, seed int64) *image.NRGBA {
	rng := rand.New(rand.NewSource(seed))
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	rng.Read(img.Pix)
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0xff
	}
	return img
}

// Gradient returns a smooth opaque image, which compresses well.
func Gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(x * 255 / max(w-1, 1)),
				G: uint8(y * 255 / max(h-1, 1)),
				B: 128,
				A: 0xff,
			})
		}
	}
	return img
}

// JPEG encodes img at the given quality.
func JPEG(t testing.TB, img image.Image, quality int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}))
	return buf.Bytes()
}

// PNG encodes img losslessly.
func PNG(t testing.TB, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// BMP encodes img as an uncompressed bitmap.
func BMP(t testing.TB, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, bmp.Encode(&buf, img))
	return buf.Bytes()
}

// GIF encodes img with the Plan 9 palette.
func GIF(t testing.TB, img image.Image) []byte {
	t.Helper()
	paletted := image.NewPaletted(img.Bounds(), palette.Plan9)
	for y := img.Bounds().Min.Y; y < img.Bounds().Max.Y; y++ {
		for x := img.Bounds().Min.X; x < img.Bounds().Max.X; x++ {
			paletted.Set(x, y, img.At(x, y))
		}
	}
	var buf bytes.Buffer
	require.NoError(t, gif.Encode(&buf, paletted, nil))
	return buf.Bytes()
}

// PaddedPNG returns a PNG of img exactly size bytes long.
func PaddedPNG(t testing.TB, img image.Image, size int) []byte {
	t.Helper()
	return Pad(t, PNG(t, img), size)
}

// PaddedJPEG returns a JPEG of img at quality exactly size bytes long.
func PaddedJPEG(t testing.TB, img image.Image, quality, size int) []byte {
	t.Helper()
	return Pad(t, JPEG(t, img, quality), size)
}

// Pad appends zero bytes to data until it is exactly size bytes long.
// Decoders stop at the end-of-image marker, so the image stays valid.
func Pad(t testing.TB, data []byte, size int) []byte {
	t.Helper()
	require.LessOrEqual(t, len(data), size, "fixture larger than requested size")
	return append(data, make([]byte, size-len(data))...)
}

// WithOrientation inserts an EXIF APP1 segment carrying orientation right
// after the SOI marker of a JPEG.
func WithOrientation(t testing.TB, jpegData []byte, orientation uint16) []byte {
	t.Helper()
	require.True(t, len(jpegData) > 2 && jpegData[0] == 0xff && jpegData[1] == 0xd8, "not a JPEG")

	var exif bytes.Buffer
	exif.WriteString("Exif\x00\x00")
	// Big-endian TIFF header, IFD0 at offset 8 holding only the orientation tag
	exif.WriteString("MM\x00\x2a")
	binary.Write(&exif, binary.BigEndian, uint32(8))
	binary.Write(&exif, binary.BigEndian, uint16(1))
	binary.Write(&exif, binary.BigEndian, uint16(0x0112))
	binary.Write(&exif, binary.BigEndian, uint16(3))
	binary.Write(&exif, binary.BigEndian, uint32(1))
	binary.Write(&exif, binary.BigEndian, orientation)
	binary.Write(&exif, binary.BigEndian, uint16(0))
	binary.Write(&exif, binary.BigEndian, uint32(0))

	var out bytes.Buffer
	out.Write(jpegData[:2])
	out.Write([]byte{0xff, 0xe1})
	binary.Write(&out, binary.BigEndian, uint16(exif.Len()+2))
	out.Write(exif.Bytes())
	out.Write(jpegData[2:])
	return out.Bytes()
}

// tinyWebP is a 1x1 lossless WebP.
const tinyWebP = "UklGRhoAAABXRUJQVlA4TA0AAAAvAAAAEAcQERGIiP4HAA=="

// WebP returns a 1x1 lossless WebP. The standard library has no WebP encoder.
func WebP(t testing.TB) []byte {
	t.Helper()
	data, err := base64.StdEncoding.DecodeString(tinyWebP)
	require.NoError(t, err)
	return data
}
