// package common contains helpers that are used throughout this engine. They are not interface-wrapped structs, just plain
// functions and structs that express commonly used data-types.
package common

import (
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"io"
)

// TextureData holds decoded RGBA pixel data ready to be handed to the GPU backend.
type TextureData struct {
	// Pixels is tightly packed RGBA8 data, 4 bytes per pixel, row-major from the top row.
	Pixels []byte
	// Width is the width of the texture in pixels.
	Width int
	// Height is the height of the texture in pixels.
	Height int
}

// DecodeImage decodes a PNG or JPEG stream into RGBA pixel data.
// Reference: https://pkg.go.dev/image
//
// Parameters:
//   - r: the encoded image stream
//
// Returns:
//   - TextureData: the decoded pixels and dimensions
//   - error: error if decoding fails
func DecodeImage(r io.Reader) (TextureData, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return TextureData{}, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)

	return TextureData{
		Pixels: rgba.Pix,
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}, nil
}
