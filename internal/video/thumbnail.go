package video

import (
	"bytes"
	"image"
	"image/png"

	xdraw "golang.org/x/image/draw"
)

// Thumbnail decodes the first readable frame of the video as a preview
// image, downscaled so its width does not exceed maxWidth (0 keeps the
// original size). This is advisory UI data: any failure yields a 1x1
// placeholder, never an error.
func (p *Prober) Thumbnail(path string, maxWidth int) image.Image {
	out, err := p.runner.Output("ffmpeg",
		"-v", "error",
		"-i", path,
		"-frames:v", "1",
		"-f", "image2pipe",
		"-c:v", "png",
		"-")
	if err != nil {
		return placeholderImage()
	}

	img, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		return placeholderImage()
	}

	if maxWidth > 0 && img.Bounds().Dx() > maxWidth {
		img = shrinkToWidth(img, maxWidth)
	}
	return img
}

func placeholderImage() image.Image {
	return image.NewNRGBA(image.Rect(0, 0, 1, 1))
}

func shrinkToWidth(img image.Image, width int) image.Image {
	bounds := img.Bounds()
	height := bounds.Dy() * width / bounds.Dx()
	if height < 1 {
		height = 1
	}
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, bounds, xdraw.Src, nil)
	return dst
}
