// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

import (
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// TextureStagingData holds RGBA pixel data for a texture pending GPU upload.
type TextureStagingData struct {
	// Pixels is the byte slice representing the actual pixel data for the texture. It should be in RGBA format, with 4 bytes per pixel.
	Pixels []byte
	// Width is the width of the texture in pixels.
	Width uint32
	// Height is the height of the texture in pixels.
	Height uint32
}

// HDRImageData holds linear floating point RGB pixels of an equirectangular environment image.
type HDRImageData struct {
	// Pixels holds Width*Height*3 floats, row-major from the top-left texel.
	Pixels []float32
	// Width is the image width in pixels.
	Width uint32
	// Height is the image height in pixels.
	Height uint32
}

// RGBA16F packs the image into rgba16float texels (alpha = 1) ready for a texture upload.
//
// Returns:
//   - []byte: 8 bytes per texel, little-endian half floats
//   - error: ErrInvalidDescriptor if the pixel count does not match the dimensions
func (h *HDRImageData) RGBA16F() ([]byte, error) {
	texels := int(h.Width) * int(h.Height)
	if texels == 0 || len(h.Pixels) != texels*3 {
		return nil, fmt.Errorf("%w: hdr image %dx%d has %d floats", ErrInvalidDescriptor, h.Width, h.Height, len(h.Pixels))
	}

	out := make([]byte, texels*8)
	one := Float32ToFloat16(1)
	for i := 0; i < texels; i++ {
		for c := 0; c < 4; c++ {
			v := one
			if c < 3 {
				v = Float32ToFloat16(h.Pixels[i*3+c])
			}
			out[i*8+c*2] = byte(v)
			out[i*8+c*2+1] = byte(v >> 8)
		}
	}
	return out, nil
}

// DecodeTexture decodes an encoded image (PNG, JPEG, BMP, TIFF or WebP) into RGBA staging data.
// Reference: https://pkg.go.dev/image
//
// Parameters:
//   - r: reader positioned at the start of the encoded image
//
// Returns:
//   - TextureStagingData: the decoded RGBA pixels and dimensions
//   - error: error if decoding fails
func DecodeTexture(r io.Reader) (TextureStagingData, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return TextureStagingData{}, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)

	return TextureStagingData{
		Pixels: rgba.Pix,
		Width:  uint32(bounds.Dx()),
		Height: uint32(bounds.Dy()),
	}, nil
}

// DecodeTextureFile opens path and decodes it with DecodeTexture.
func DecodeTextureFile(path string) (TextureStagingData, error) {
	file, err := os.Open(path)
	if err != nil {
		return TextureStagingData{}, fmt.Errorf("failed to open texture file %s: %w", path, err)
	}
	defer file.Close()

	data, err := DecodeTexture(file)
	if err != nil {
		return TextureStagingData{}, fmt.Errorf("%s: %w", path, err)
	}
	return data, nil
}
