package upscale

import (
	"fmt"
	"image"
	"image/png"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	xdraw "golang.org/x/image/draw"
)

// DefaultBinary is the Real-ESRGAN executable looked up on PATH.
const DefaultBinary = "realesrgan-ncnn-vulkan"

// RealESRGAN runs the external Real-ESRGAN binary once per frame. The
// binary upscales by the model's native integer scale; Enhance then
// resizes to the requested output scale when the two differ.
type RealESRGAN struct {
	opts    Options
	binary  string
	workDir string
}

// NewRealESRGAN resolves a backend for one run. The returned backend owns
// a scratch directory for frame handoff; callers release it with Close.
func NewRealESRGAN(opts Options) (*RealESRGAN, error) {
	binary, err := exec.LookPath(DefaultBinary)
	if err != nil {
		return nil, fmt.Errorf("upscaling backend not found: %w", err)
	}
	workDir, err := os.MkdirTemp("", "realesrgan_io_")
	if err != nil {
		return nil, fmt.Errorf("create backend scratch directory: %w", err)
	}
	return &RealESRGAN{opts: opts, binary: binary, workDir: workDir}, nil
}

// Close removes the backend's scratch directory.
func (r *RealESRGAN) Close() error {
	return os.RemoveAll(r.workDir)
}

// Enhance upscales one frame. Blocking for the duration of the external
// invocation.
func (r *RealESRGAN) Enhance(img image.Image, outscale float64) (image.Image, error) {
	inPath := filepath.Join(r.workDir, "in.png")
	outPath := filepath.Join(r.workDir, "out.png")

	if err := writePNG(inPath, img); err != nil {
		return nil, fmt.Errorf("stage frame for backend: %w", err)
	}

	modelDir := filepath.Dir(r.opts.WeightPath)
	modelName := strings.TrimSuffix(filepath.Base(r.opts.WeightPath), filepath.Ext(r.opts.WeightPath))

	args := []string{
		"-i", inPath,
		"-o", outPath,
		"-s", strconv.Itoa(r.opts.Scale),
		"-m", modelDir,
		"-n", modelName,
	}
	if r.opts.GPU {
		args = append(args, "-g", "0")
	} else {
		args = append(args, "-g", "-1")
	}

	cmd := exec.Command(r.binary, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("upscaling failed: %w: %s", err, lastLine(out))
	}

	enhanced, err := readPNG(outPath)
	if err != nil {
		return nil, fmt.Errorf("read backend output: %w", err)
	}

	return ResizeToScale(enhanced, img.Bounds(), outscale), nil
}

// ResizeToScale resizes enhanced so its dimensions equal the original
// bounds multiplied by outscale. A match is returned as-is.
func ResizeToScale(enhanced image.Image, original image.Rectangle, outscale float64) image.Image {
	targetW := int(math.Round(float64(original.Dx()) * outscale))
	targetH := int(math.Round(float64(original.Dy()) * outscale))
	if targetW < 1 {
		targetW = 1
	}
	if targetH < 1 {
		targetH = 1
	}
	bounds := enhanced.Bounds()
	if bounds.Dx() == targetW && bounds.Dy() == targetH {
		return enhanced
	}
	dst := image.NewNRGBA(image.Rect(0, 0, targetW, targetH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), enhanced, bounds, xdraw.Src, nil)
	return dst
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	encoder := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := encoder.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func readPNG(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return png.Decode(f)
}

func lastLine(out []byte) string {
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	return lines[len(lines)-1]
}
