package compression

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"log/slog"

	"github.com/disintegration/imaging"

	"imagepress/internal/common"
	compressionDomain "imagepress/internal/domain/compression"
)

// Compressor re-encodes page images at a quality factor
type Compressor struct {
	pngCompression png.CompressionLevel
	logger         *slog.Logger
}

// NewCompressor creates a new compressor instance
func NewCompressor(logger *slog.Logger) *Compressor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Compressor{
		pngCompression: png.BestCompression,
		logger:         logger,
	}
}

// Resolve returns the quality factor for level, falling back to the default level
func (c *Compressor) Resolve(level compressionDomain.Level) int {
	if !level.Valid() {
		c.logger.Warn("Unknown compression level, using default", "level", int(level))
		return compressionDomain.DefaultLevel.Quality()
	}
	return level.Quality()
}

// Apply encodes img as JPEG at quality, or losslessly as PNG at the ceiling
func (c *Compressor) Apply(img image.Image, quality int) (compressionDomain.EncodedPage, error) {
	if quality < 0 || quality > compressionDomain.LosslessQuality {
		return compressionDomain.EncodedPage{}, fmt.Errorf("%w: quality %d outside [0,100]", common.ErrInvalidCompressionLevel, quality)
	}

	bounds := img.Bounds()
	page := compressionDomain.EncodedPage{
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}

	var buf bytes.Buffer
	var err error
	if quality == compressionDomain.LosslessQuality {
		page.Encoding = compressionDomain.EncodingPNG
		err = imaging.Encode(&buf, img, imaging.PNG, imaging.PNGCompressionLevel(c.pngCompression))
	} else {
		page.Encoding = compressionDomain.EncodingJPEG
		err = imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(max(quality, 1)))
	}
	if err != nil {
		return compressionDomain.EncodedPage{}, fmt.Errorf("encode %s at quality %d: %w", page.Encoding, quality, err)
	}

	page.Data = buf.Bytes()
	return page, nil
}
