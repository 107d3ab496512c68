// Package ffmpeg wraps the external FFmpeg tool invocations used by the
// processing pipeline: frame extraction and final encoding.
package ffmpeg

import (
	"bytes"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// FramePattern is the fixed-width sequential frame naming shared by
// extraction and encoding, so enumeration stays in presentation order.
const FramePattern = "%08d.png"

// IsAvailable reports whether the ffmpeg binary is on PATH.
func IsAvailable() bool {
	_, err := exec.LookPath("ffmpeg")
	return err == nil
}

// Runner executes external tool invocations. Production uses exec; tests
// substitute a recording fake.
type Runner interface {
	Run(name string, args ...string) error
	Output(name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands through os/exec, folding the tool's last
// stderr line into the error for a readable failure message.
type ExecRunner struct{}

// Run executes the command and waits for completion.
func (ExecRunner) Run(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if line := lastLine(stderr.Bytes()); line != "" {
			return fmt.Errorf("%s: %w: %s", name, err, line)
		}
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// Output executes the command and returns its stdout.
func (ExecRunner) Output(name string, args ...string) ([]byte, error) {
	return exec.Command(name, args...).Output()
}

// ExtractFrames writes one still image per source frame into framesDir
// using the fixed-width sequential naming.
func ExtractFrames(r Runner, input, framesDir string) error {
	pattern := filepath.Join(framesDir, FramePattern)
	if err := r.Run("ffmpeg", "-y", "-i", input, pattern); err != nil {
		return fmt.Errorf("extract frames: %w", err)
	}
	return nil
}

// EncodeParams describes one encoding invocation.
type EncodeParams struct {
	FramesDir  string  // directory of upscaled frames named by FramePattern
	FPS        float64 // input frame rate
	Encoder    string  // mapped encoder identifier, e.g. libx264
	Bitrate    string  // mapped bitrate argument, e.g. 8M
	OutputPath string
}

// Encode re-assembles the frames in p.FramesDir into the output video.
func Encode(r Runner, p EncodeParams) error {
	pattern := filepath.Join(p.FramesDir, FramePattern)
	err := r.Run("ffmpeg",
		"-y",
		"-framerate", formatFPS(p.FPS),
		"-i", pattern,
		"-c:v", p.Encoder,
		"-b:v", p.Bitrate,
		"-pix_fmt", "yuv420p",
		p.OutputPath)
	if err != nil {
		return fmt.Errorf("encode video: %w", err)
	}
	return nil
}

// codecMap maps the configuration codec selector to FFmpeg encoders.
var codecMap = map[string]string{
	"H264": "libx264",
	"H265": "libx265",
	"AV1":  "libaom-av1",
}

// MapCodec resolves a codec selector to its encoder identifier.
func MapCodec(codec string) (string, error) {
	encoder, ok := codecMap[codec]
	if !ok {
		return "", fmt.Errorf("unsupported codec %q", codec)
	}
	return encoder, nil
}

// CodecNames lists the selectable codecs in presentation order.
func CodecNames() []string {
	return []string{"H264", "H265", "AV1"}
}

// MapBitrate resolves a bitrate tier to the tool-level bitrate argument.
// The Custom tier uses the raw kbps value. Unknown tiers fall back to
// Medium; tier correctness is a presentation-layer concern.
func MapBitrate(tier string, customKbps int) string {
	switch tier {
	case "Low":
		return "4M"
	case "High":
		return "16M"
	case "Custom":
		return strconv.Itoa(customKbps) + "k"
	default:
		return "8M"
	}
}

func formatFPS(fps float64) string {
	return strconv.FormatFloat(fps, 'f', -1, 64)
}

func lastLine(out []byte) string {
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
