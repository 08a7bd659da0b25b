// Package report computes the size summary returned with every conversion.
package report

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"imagepress/internal/common"
)

// ImageMeta describes one submitted image
type ImageMeta struct {
	Format string `json:"format"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Bytes  int64  `json:"bytes"`
}

// Ratio is the size reduction in percent, rounded to one decimal.
// A negative value means the output grew. It is unavailable when there was
// no input to compare against.
type Ratio struct {
	Percent float64
	Valid   bool
}

// NewRatio computes (1 - final/original) * 100
func NewRatio(original, final int64) Ratio {
	if original <= 0 {
		return Ratio{}
	}
	percent := (1 - float64(final)/float64(original)) * 100
	return Ratio{Percent: math.Round(percent*10) / 10, Valid: true}
}

// Increase reports whether the output is larger than the input
func (r Ratio) Increase() bool {
	return r.Valid && r.Percent < 0
}

func (r Ratio) String() string {
	switch {
	case !r.Valid:
		return "n/a"
	case r.Increase():
		return fmt.Sprintf("%.1f%% larger", -r.Percent)
	default:
		return fmt.Sprintf("%.1f%% smaller", r.Percent)
	}
}

// MarshalJSON encodes the percentage, or "n/a" when unavailable
func (r Ratio) MarshalJSON() ([]byte, error) {
	if !r.Valid {
		return json.Marshal("n/a")
	}
	return json.Marshal(r.Percent)
}

// UnmarshalJSON accepts a number or "n/a"
func (r *Ratio) UnmarshalJSON(data []byte) error {
	var percent float64
	if err := json.Unmarshal(data, &percent); err == nil {
		*r = Ratio{Percent: percent, Valid: true}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil || s != "n/a" {
		return fmt.Errorf("invalid ratio %s", data)
	}
	*r = Ratio{}
	return nil
}

// Report summarizes one conversion
type Report struct {
	OriginalTotalBytes int64       `json:"original_total_bytes"`
	FinalBytes         int64       `json:"final_bytes"`
	Ratio              Ratio       `json:"ratio_percent"`
	ImageCount         int         `json:"image_count"`
	PerImage           []ImageMeta `json:"per_image"`
}

// Calculate builds a report. The original total is the sum of originalSizes,
// the raw submission lengths, not anything re-measured after decoding.
func Calculate(originalSizes []int64, finalSize int64, perImage []ImageMeta) Report {
	var total int64
	for _, size := range originalSizes {
		total += size
	}

	return Report{
		OriginalTotalBytes: total,
		FinalBytes:         finalSize,
		Ratio:              NewRatio(total, finalSize),
		ImageCount:         len(originalSizes),
		PerImage:           append([]ImageMeta(nil), perImage...),
	}
}

// Single returns the only image of a one-image conversion
func (r Report) Single() (ImageMeta, bool) {
	if r.ImageCount != 1 || len(r.PerImage) != 1 {
		return ImageMeta{}, false
	}
	return r.PerImage[0], true
}

// Summary renders the report as plain text. A single image shows its format
// and dimensions; several images show the count and a per-image list.
func (r Report) Summary() string {
	var b strings.Builder

	if meta, ok := r.Single(); ok {
		fmt.Fprintf(&b, "Image: %s %dx%d\n", meta.Format, meta.Width, meta.Height)
		fmt.Fprintf(&b, "Original: %s\n", common.FormatBytes(r.OriginalTotalBytes))
	} else {
		fmt.Fprintf(&b, "Images: %d\n", r.ImageCount)
		for i, meta := range r.PerImage {
			fmt.Fprintf(&b, "  %d. %s %dx%d, %s\n", i+1, meta.Format, meta.Width, meta.Height, common.FormatBytes(meta.Bytes))
		}
		fmt.Fprintf(&b, "Total original: %s\n", common.FormatBytes(r.OriginalTotalBytes))
	}

	fmt.Fprintf(&b, "PDF: %s\n", common.FormatBytes(r.FinalBytes))
	fmt.Fprintf(&b, "Compression: %s", r.Ratio)
	return b.String()
}
