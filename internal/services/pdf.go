package services

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/go-pdf/fpdf"

	"imagepress/internal/app/concurrency"
	"imagepress/internal/common"
	compressionDomain "imagepress/internal/domain/compression"
)

// documentDate is stamped on every document so identical input gives identical output.
var documentDate = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// PDFService assembles ordered images into a multi-page PDF
type PDFService struct {
	policy compressionDomain.Policy
	pool   *concurrency.WorkerPool
	logger *slog.Logger
}

// NewPDFService creates a new PDF service
func NewPDFService(policy compressionDomain.Policy, pool *concurrency.WorkerPool, logger *slog.Logger) *PDFService {
	if logger == nil {
		logger = slog.Default()
	}
	if pool == nil {
		pool = concurrency.NewWorkerPool(0, logger)
	}
	return &PDFService{policy: policy, pool: pool, logger: logger}
}

// Assemble encodes every image at quality and lays them out one per page, in
// order, each page sized to the image's pixel dimensions.
func (s *PDFService) Assemble(ctx context.Context, images []image.Image, quality int) ([]byte, error) {
	if len(images) == 0 {
		return nil, common.ErrEmptyInput
	}

	pages, err := s.pool.EncodePages(ctx, images, quality, s.policy)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrAssembly, err)
	}

	data, err := s.write(pages)
	if err != nil {
		s.logger.Error("PDF assembly failed", "pages", len(pages), "quality", quality, "error", err)
		return nil, fmt.Errorf("%w: %v", common.ErrAssembly, err)
	}

	s.logger.Debug("Assembled PDF", "pages", len(pages), "quality", quality, "bytes", len(data))
	return data, nil
}

func (s *PDFService) write(pages []compressionDomain.EncodedPage) ([]byte, error) {
	for i, page := range pages {
		if page.Width <= 0 || page.Height <= 0 {
			return nil, fmt.Errorf("page %d has no pixels", i+1)
		}
	}

	first := pages[0]
	orientation, size := pageFormat(first.Width, first.Height)

	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: orientation,
		UnitStr:        "pt",
		Size:           size,
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreationDate(documentDate)
	pdf.SetModificationDate(documentDate)
	pdf.SetCatalogSort(true)
	pdf.SetProducer("imagepress", false)

	for i, page := range pages {
		name := fmt.Sprintf("page-%d", i)
		opts := fpdf.ImageOptions{ImageType: string(page.Encoding)}
		pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(page.Data))

		orientation, size := pageFormat(page.Width, page.Height)
		pdf.AddPageFormat(orientation, size)
		pdf.ImageOptions(name, 0, 0, float64(page.Width), float64(page.Height), false, opts, 0, "")

		if pdf.Err() {
			return nil, fmt.Errorf("page %d: %w", i+1, pdf.Error())
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// pageFormat returns an fpdf orientation and size for a w x h point page.
// fpdf swaps width and height for landscape pages.
func pageFormat(w, h int) (string, fpdf.SizeType) {
	if w > h {
		return "L", fpdf.SizeType{Wd: float64(h), Ht: float64(w)}
	}
	return "P", fpdf.SizeType{Wd: float64(w), Ht: float64(h)}
}
