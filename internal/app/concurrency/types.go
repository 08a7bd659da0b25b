package concurrency

import (
	"image"

	compressionDomain "imagepress/internal/domain/compression"
)

// PageJob is a single page waiting to be encoded
type PageJob struct {
	Index int
	Image image.Image
}

// PageResult is the outcome of encoding one page
type PageResult struct {
	Index int
	Page  compressionDomain.EncodedPage
	Err   error
}

// EncodeFunc encodes the page at a given position
type EncodeFunc func(job PageJob) (compressionDomain.EncodedPage, error)
