package common

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mdouchement/hdr"
	"github.com/mdouchement/hdr/codec/rgbe"
)

// DecodeHDR decodes a Radiance RGBE (.hdr) image with the standard "-Y height +X width" orientation.
// Both flat and run-length encoded scanlines are accepted, and XYZE images are converted to RGB.
//
// Parameters:
//   - r: reader positioned at the start of the file
//
// Returns:
//   - *HDRImageData: linear RGB pixels, top row first
//   - error: ErrUnsupportedFormat for files that are not Radiance images or use another orientation,
//     or a read error
func DecodeHDR(r io.Reader) (*HDRImageData, error) {
	br := bufio.NewReader(r)
	if magic, err := br.Peek(2); err != nil || string(magic) != "#?" {
		return nil, fmt.Errorf("%w: missing radiance header", ErrUnsupportedFormat)
	}

	decoded, err := rgbe.Decode(br)
	if err != nil {
		var formatErr rgbe.FormatError
		var unsupportedErr rgbe.UnsupportedError
		if errors.As(err, &formatErr) || errors.As(err, &unsupportedErr) {
			return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
		}
		return nil, fmt.Errorf("hdr: %w", err)
	}
	m, ok := decoded.(hdr.Image)
	if !ok {
		return nil, fmt.Errorf("%w: hdr color model %T", ErrUnsupportedFormat, decoded)
	}
	return hdrImageData(m)
}

// DecodeHDRFile opens path and decodes it with DecodeHDR.
func DecodeHDRFile(path string) (*HDRImageData, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open hdr file %s: %w", path, err)
	}
	defer file.Close()

	img, err := DecodeHDR(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

// hdrImageData copies a decoded image into tightly packed RGB floats.
func hdrImageData(m hdr.Image) (*HDRImageData, error) {
	b := m.Bounds()
	width, height := b.Dx(), b.Dy()
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: hdr size %dx%d", ErrInvalidDescriptor, width, height)
	}
	out := &HDRImageData{
		Pixels: make([]float32, width*height*3),
		Width:  uint32(width),
		Height: uint32(height),
	}

	if rgb, ok := m.(*hdr.RGB); ok && rgb.Stride == width*3 {
		copy(out.Pixels, rgb.Pix)
		return out, nil
	}
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := m.HDRAt(x, y).HDRRGBA()
			out.Pixels[i], out.Pixels[i+1], out.Pixels[i+2] = float32(r), float32(g), float32(bl)
			i += 3
		}
	}
	return out, nil
}
