// Package video probes source files for the structural metadata the
// pipeline needs to plan a run.
package video

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// Info is an immutable snapshot of a source file's measured properties.
type Info struct {
	Path            string
	Width           int
	Height          int
	DurationSeconds float64
	FPS             float64
	FileSizeBytes   int64
	TotalFrames     int
}

// ProbeError reports a failed probe: tool failure, no video stream, or
// unparseable output.
type ProbeError struct {
	Path  string
	Cause error
}

func (e *ProbeError) Error() string {
	return fmt.Sprintf("probe %s: %v", e.Path, e.Cause)
}

func (e *ProbeError) Unwrap() error {
	return e.Cause
}

// Runner executes external media tools. Production uses exec; tests
// substitute canned output.
type Runner interface {
	Output(name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Output(name string, args ...string) ([]byte, error) {
	return exec.Command(name, args...).Output()
}

// Prober extracts video metadata through ffprobe.
type Prober struct {
	runner Runner
}

// NewProber creates a prober backed by the real ffprobe binary.
func NewProber() *Prober {
	return &Prober{runner: execRunner{}}
}

// NewProberWithRunner creates a prober with a custom command runner.
func NewProberWithRunner(r Runner) *Prober {
	return &Prober{runner: r}
}

type ffprobeOutput struct {
	Streams []struct {
		Width      int    `json:"width"`
		Height     int    `json:"height"`
		RFrameRate string `json:"r_frame_rate"`
		NBFrames   string `json:"nb_frames"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
		Size     string `json:"size"`
	} `json:"format"`
}

// Probe runs one ffprobe invocation against path and derives the metadata
// snapshot. Blocking; no retries.
func (p *Prober) Probe(path string) (*Info, error) {
	out, err := p.runner.Output("ffprobe",
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height,r_frame_rate,nb_frames",
		"-show_entries", "format=duration,size",
		"-of", "json",
		path)
	if err != nil {
		return nil, &ProbeError{Path: path, Cause: fmt.Errorf("ffprobe failed: %w", err)}
	}

	var payload ffprobeOutput
	if err := json.Unmarshal(out, &payload); err != nil {
		return nil, &ProbeError{Path: path, Cause: fmt.Errorf("parse ffprobe output: %w", err)}
	}
	if len(payload.Streams) == 0 {
		return nil, &ProbeError{Path: path, Cause: fmt.Errorf("no video stream")}
	}

	stream := payload.Streams[0]
	fps, err := parseFrameRate(stream.RFrameRate)
	if err != nil {
		return nil, &ProbeError{Path: path, Cause: err}
	}

	duration := 0.0
	if payload.Format.Duration != "" {
		if d, err := strconv.ParseFloat(payload.Format.Duration, 64); err == nil {
			duration = d
		}
	}

	size := int64(0)
	if payload.Format.Size != "" {
		if s, err := strconv.ParseInt(payload.Format.Size, 10, 64); err == nil {
			size = s
		}
	}
	if size == 0 {
		if stat, err := os.Stat(path); err == nil {
			size = stat.Size()
		}
	}

	totalFrames := 0
	if stream.NBFrames != "" && stream.NBFrames != "N/A" {
		totalFrames, _ = strconv.Atoi(stream.NBFrames)
	}
	if totalFrames == 0 {
		totalFrames = int(math.Round(duration * fps))
	}

	return &Info{
		Path:            path,
		Width:           stream.Width,
		Height:          stream.Height,
		DurationSeconds: duration,
		FPS:             fps,
		FileSizeBytes:   size,
		TotalFrames:     totalFrames,
	}, nil
}

// parseFrameRate derives fps from ffprobe's rational "num/den" form,
// falling back to a plain decimal.
func parseFrameRate(raw string) (float64, error) {
	parts := strings.Split(raw, "/")
	if len(parts) == 2 {
		num, errN := strconv.ParseFloat(parts[0], 64)
		den, errD := strconv.ParseFloat(parts[1], 64)
		if errN != nil || errD != nil || den == 0 {
			return 0, fmt.Errorf("invalid frame rate %q", raw)
		}
		return num / den, nil
	}
	fps, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid frame rate %q", raw)
	}
	return fps, nil
}
