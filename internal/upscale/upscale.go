// Package upscale defines the upscaling backend capability and the frame
// post-processing applied after it.
package upscale

import (
	"image"
	"math"
	"strings"
)

// Enhancer maps a lower-resolution frame to a higher-resolution frame.
// outscale is the user-intended final resolution multiplier; it is
// independent of the backend's native integer scale, and the backend
// internally upscales then resizes to the target.
type Enhancer interface {
	Enhance(img image.Image, outscale float64) (image.Image, error)
}

// Options configures a backend for one run.
type Options struct {
	WeightPath string
	Scale      int  // native integer model scale
	GPU        bool // reduced-precision accelerated mode
}

// Weight file names for the two supported model variants.
const (
	GeneralWeight = "RealESRGAN_x4plus.pth"
	AnimeWeight   = "realesr-animevideov3.pth"
)

// WeightFor selects the weight set for a configured model name. An
// "Anime"-tagged name selects the anime-optimized weights; everything
// else gets the general-purpose set.
func WeightFor(modelName string) string {
	if strings.Contains(modelName, "Anime") {
		return AnimeWeight
	}
	return GeneralWeight
}

// NativeScale derives the backend's integer scale from the upscale factor
// selector: "4x" -> 4, "custom" -> max(2, round(customScale)), anything
// else -> 2.
func NativeScale(factor string, customScale float64) int {
	switch factor {
	case "4x":
		return 4
	case "custom":
		scale := int(math.Round(customScale))
		if scale < 2 {
			scale = 2
		}
		return scale
	default:
		return 2
	}
}

// OutputScale derives the final resolution multiplier from the upscale
// factor selector: "2x" -> 2.0, "4x" -> 4.0, "custom" ->
// max(1.0, customScale). Distinct from NativeScale; the two are never
// interchangeable.
func OutputScale(factor string, customScale float64) float64 {
	switch factor {
	case "2x":
		return 2.0
	case "4x":
		return 4.0
	default:
		return math.Max(1.0, customScale)
	}
}
