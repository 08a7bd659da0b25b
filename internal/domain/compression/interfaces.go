package compression

import (
	"context"
	"image"
)

// Policy maps levels to quality factors and re-encodes images at a factor.
type Policy interface {
	Resolve(level Level) int
	Apply(img image.Image, quality int) (EncodedPage, error)
}

// Assembler composes ordered images into a single PDF.
type Assembler interface {
	Assemble(ctx context.Context, images []image.Image, quality int) ([]byte, error)
}
