// Package normalize turns submitted bytes into opaque RGB rasters that can be
// embedded as PDF pages.
package normalize

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"log/slog"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	"golang.org/x/image/webp"

	"imagepress/internal/common"
)

// Format is the detected container format of a submission.
type Format string

const (
	FormatJPEG Format = "JPEG"
	FormatPNG  Format = "PNG"
	FormatBMP  Format = "BMP"
	FormatWebP Format = "WEBP"
	FormatGIF  Format = "GIF"
	FormatTIFF Format = "TIFF"
)

// ColorMode describes the pixel layout of the submission before normalization.
type ColorMode string

const (
	ModeRGB      ColorMode = "RGB"
	ModeRGBA     ColorMode = "RGBA"
	ModePaletted ColorMode = "P"
	ModeGray     ColorMode = "L"
	ModeCMYK     ColorMode = "CMYK"
)

// DefaultMaxPixels bounds width*height of a single submission.
const DefaultMaxPixels = 100_000_000

type decodeFunc func(io.Reader) (image.Image, error)

var (
	baseFormats = map[string]Format{
		"image/jpeg": FormatJPEG,
		"image/png":  FormatPNG,
		"image/bmp":  FormatBMP,
		"image/webp": FormatWebP,
	}
	extendedFormats = map[string]Format{
		"image/gif":  FormatGIF,
		"image/tiff": FormatTIFF,
	}
	decoders = map[Format]decodeFunc{
		FormatJPEG: decodeOriented,
		FormatPNG:  png.Decode,
		FormatBMP:  bmp.Decode,
		FormatWebP: webp.Decode,
		FormatGIF:  gif.Decode,
		FormatTIFF: decodeOriented,
	}
	orderedFormats = []Format{FormatJPEG, FormatPNG, FormatBMP, FormatWebP, FormatGIF, FormatTIFF}
)

// Image is a decoded submission. Pixels is always fully opaque.
type Image struct {
	Pixels       *image.NRGBA
	Width        int
	Height       int
	Format       Format
	OriginalSize int
	ColorMode    ColorMode
}

// Normalizer validates and decodes raw image bytes.
type Normalizer struct {
	formats   map[string]Format
	maxPixels int
	logger    *slog.Logger
}

// Option configures a Normalizer
type Option func(*Normalizer)

// WithExtendedFormats additionally accepts GIF and TIFF.
func WithExtendedFormats() Option {
	return func(n *Normalizer) {
		for mime, format := range extendedFormats {
			n.formats[mime] = format
		}
	}
}

// WithMaxPixels overrides DefaultMaxPixels.
func WithMaxPixels(limit int) Option {
	return func(n *Normalizer) {
		if limit > 0 {
			n.maxPixels = limit
		}
	}
}

// NewNormalizer creates a normalizer for the base format set plus any options
func NewNormalizer(logger *slog.Logger, opts ...Option) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}

	n := &Normalizer{
		formats:   make(map[string]Format, len(baseFormats)+len(extendedFormats)),
		maxPixels: DefaultMaxPixels,
		logger:    logger,
	}
	for mime, format := range baseFormats {
		n.formats[mime] = format
	}
	for _, opt := range opts {
		opt(n)
	}

	return n
}

// SupportedFormats lists the accepted formats in a stable order.
func (n *Normalizer) SupportedFormats() []Format {
	var formats []Format
	for _, format := range orderedFormats {
		for _, accepted := range n.formats {
			if accepted == format {
				formats = append(formats, format)
				break
			}
		}
	}
	return formats
}

// Detect identifies the format from content alone.
func (n *Normalizer) Detect(raw []byte) (Format, error) {
	for mime := mimetype.Detect(raw); mime != nil; mime = mime.Parent() {
		if format, ok := n.formats[mime.String()]; ok {
			return format, nil
		}
	}
	return "", common.ErrUnsupportedFormat
}

// Normalize decodes raw into an opaque NRGBA raster.
func (n *Normalizer) Normalize(raw []byte) (*Image, error) {
	format, err := n.Detect(raw)
	if err != nil {
		n.logger.Debug("Rejected submission", "bytes", len(raw), "detected", mimetype.Detect(raw).String())
		return nil, err
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err == nil && cfg.Width*cfg.Height > n.maxPixels {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", common.ErrCorruptData, cfg.Width, cfg.Height, n.maxPixels)
	}

	decoded, err := decode(decoders[format], raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", common.ErrCorruptData, format, err)
	}

	bounds := decoded.Bounds()
	if bounds.Empty() {
		return nil, fmt.Errorf("%w: %s has no pixels", common.ErrCorruptData, format)
	}

	img := &Image{
		Pixels:       flatten(decoded),
		Width:        bounds.Dx(),
		Height:       bounds.Dy(),
		Format:       format,
		OriginalSize: len(raw),
		ColorMode:    colorModeOf(decoded),
	}

	n.logger.Debug("Normalized image",
		"format", img.Format,
		"width", img.Width,
		"height", img.Height,
		"mode", img.ColorMode,
		"bytes", img.OriginalSize)

	return img, nil
}

func decode(fn decodeFunc, raw []byte) (img image.Image, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("decoder panic: %v", r)
		}
	}()
	return fn(bytes.NewReader(raw))
}

// decodeOriented applies the EXIF orientation tag so camera photos come out
// upright. Width and Height then describe the rotated raster.
func decodeOriented(r io.Reader) (image.Image, error) {
	return imaging.Decode(r, imaging.AutoOrientation(true))
}

func colorModeOf(img image.Image) ColorMode {
	switch img.(type) {
	case *image.Paletted:
		return ModePaletted
	case *image.Gray, *image.Gray16:
		return ModeGray
	case *image.CMYK:
		return ModeCMYK
	case *image.YCbCr:
		return ModeRGB
	}

	if o, ok := img.(interface{ Opaque() bool }); ok && o.Opaque() {
		return ModeRGB
	}
	return ModeRGBA
}

// flatten composites anything that may carry transparency onto white.
func flatten(img image.Image) *image.NRGBA {
	if o, ok := img.(interface{ Opaque() bool }); ok && o.Opaque() {
		return imaging.Clone(img)
	}

	bounds := img.Bounds()
	background := imaging.New(bounds.Dx(), bounds.Dy(), color.White)
	return imaging.Overlay(background, imaging.Clone(img), image.Pt(0, 0), 1.0)
}
