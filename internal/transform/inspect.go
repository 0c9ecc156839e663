package transform

import (
	"bytes"
	"fmt"
	"image"
	"image/color"

	// Header decoding for the formats the provider accepts.
	_ "image/jpeg"
	_ "image/png"
)

// MinDimension is the provider's minimum width and height in pixels.
const MinDimension = 512

// Inspection holds what the constraint check needs from a decoded image
// header: measured dimensions and whether the pixel format carries alpha.
type Inspection struct {
	Width    int
	Height   int
	HasAlpha bool
	Format   string
}

// InspectImage decodes only the image header. A decode failure here is not
// fatal to the pipeline; callers downgrade it to a warning and let the
// provider run its own validation.
func InspectImage(data []byte) (*Inspection, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("transform: decode image header: %w", err)
	}
	return &Inspection{
		Width:    cfg.Width,
		Height:   cfg.Height,
		HasAlpha: modelHasAlpha(cfg.ColorModel),
		Format:   format,
	}, nil
}

// CheckConstraints enforces the provider minimums on a successful
// inspection. Insufficient dimensions and a missing alpha channel (when one
// is required) are terminal.
func CheckConstraints(insp *Inspection, requireAlpha bool) error {
	if insp.Width < MinDimension || insp.Height < MinDimension {
		return &TooSmallError{Width: insp.Width, Height: insp.Height, Min: MinDimension}
	}
	if requireAlpha && !insp.HasAlpha {
		return fmt.Errorf("%w (%s %dx%d)", ErrMissingTransparency, insp.Format, insp.Width, insp.Height)
	}
	return nil
}

func modelHasAlpha(model color.Model) bool {
	// The PNG decoder reports truecolor images without an alpha channel as
	// RGBA; only the NRGBA models indicate a stored alpha channel.
	switch model {
	case color.NRGBAModel, color.NRGBA64Model, color.AlphaModel, color.Alpha16Model:
		return true
	}
	// Paletted images may carry alpha in individual palette entries.
	if palette, ok := model.(color.Palette); ok {
		for _, entry := range palette {
			if _, _, _, a := entry.RGBA(); a < 0xffff {
				return true
			}
		}
	}
	return false
}
