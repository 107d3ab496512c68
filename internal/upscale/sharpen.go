package upscale

import (
	"image"
	"image/draw"
)

// KernelCenter returns the center weight of the sharpening kernel for a
// strength in [0,100]: 5 + strength/100, linear over [5,6]. Out-of-range
// strengths are clamped.
func KernelCenter(strength int) float64 {
	if strength < 0 {
		strength = 0
	}
	if strength > 100 {
		strength = 100
	}
	return 5 + float64(strength)/100
}

// Sharpen applies the fixed 3x3 unsharp-style kernel: center
// KernelCenter(strength), orthogonal neighbors -1, corners 0. Applied per
// channel with edge clamping; alpha is copied through. Strength <= 0 is
// the identity.
func Sharpen(img image.Image, strength int) image.Image {
	if strength <= 0 {
		return img
	}

	src := toNRGBA(img)
	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	center := KernelCenter(strength)

	sample := func(x, y, c int) float64 {
		if x < 0 {
			x = 0
		} else if x >= width {
			x = width - 1
		}
		if y < 0 {
			y = 0
		} else if y >= height {
			y = height - 1
		}
		return float64(src.Pix[src.PixOffset(x, y)+c])
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			offset := dst.PixOffset(x, y)
			for c := 0; c < 3; c++ {
				value := center*sample(x, y, c) -
					sample(x-1, y, c) - sample(x+1, y, c) -
					sample(x, y-1, c) - sample(x, y+1, c)
				dst.Pix[offset+c] = clampByte(value)
			}
			dst.Pix[offset+3] = src.Pix[src.PixOffset(x, y)+3]
		}
	}
	return dst
}

func clampByte(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}

func toNRGBA(img image.Image) *image.NRGBA {
	if nrgba, ok := img.(*image.NRGBA); ok && nrgba.Bounds().Min == (image.Point{}) {
		return nrgba
	}
	bounds := img.Bounds()
	nrgba := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(nrgba, nrgba.Bounds(), img, bounds.Min, draw.Src)
	return nrgba
}
