// Package imaging crops uploaded card photos on the server.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // decoder registration
	_ "image/png"
	"io"
	"strconv"
	"strings"

	dimaging "github.com/disintegration/imaging"
)

// JPEG quality used for every re-encoded crop.
const Quality = 90

// MaxPixels bounds the decoded size of an image that gets cropped.
const MaxPixels = 50_000_000

var (
	ErrEmptyCrop = errors.New("crop rectangle is empty")
	ErrTooLarge  = errors.New("image exceeds the pixel limit")
)

// Rect is a crop rectangle in displayed (orientation-corrected) pixels.
type Rect struct {
	X, Y, Width, Height int
}

// ParseRect reads "x,y,width,height". An empty string yields a nil rect.
func ParseRect(s string) (*Rect, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return nil, fmt.Errorf("crop %q: want x,y,width,height", s)
	}
	var v [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("crop %q: %w", s, err)
		}
		v[i] = n
	}
	if v[2] <= 0 || v[3] <= 0 {
		return nil, ErrEmptyCrop
	}
	return &Rect{X: v[0], Y: v[1], Width: v[2], Height: v[3]}, nil
}

// CheckSize reads only the image header and rejects images whose decoded
// frame would exceed MaxPixels.
func CheckSize(r io.Reader) error {
	cfg, _, err := image.DecodeConfig(r)
	if err != nil {
		return fmt.Errorf("decode image: %w", err)
	}
	if px := int64(cfg.Width) * int64(cfg.Height); px > MaxPixels {
		return fmt.Errorf("%w: %dx%d", ErrTooLarge, cfg.Width, cfg.Height)
	}
	return nil
}

// Crop decodes a JPEG or PNG, applies its EXIF orientation, cuts rect out
// of the displayed frame (clamped to the image bounds) and re-encodes the
// result as JPEG.
func Crop(r io.Reader, rect Rect) ([]byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if err := CheckSize(bytes.NewReader(data)); err != nil {
		return nil, err
	}

	src, err := dimaging.Decode(bytes.NewReader(data), dimaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	b := src.Bounds()
	want := image.Rect(b.Min.X+rect.X, b.Min.Y+rect.Y, b.Min.X+rect.X+rect.Width, b.Min.Y+rect.Y+rect.Height)
	area := want.Intersect(b)
	if area.Empty() {
		return nil, ErrEmptyCrop
	}

	var buf bytes.Buffer
	if err := dimaging.Encode(&buf, dimaging.Crop(src, area), dimaging.JPEG, dimaging.JPEGQuality(Quality)); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
