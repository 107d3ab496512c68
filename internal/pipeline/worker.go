package pipeline

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ahmad66-rgb/upscaler/internal/config"
	"github.com/ahmad66-rgb/upscaler/internal/events"
	"github.com/ahmad66-rgb/upscaler/internal/ffmpeg"
	"github.com/ahmad66-rgb/upscaler/internal/hardware"
	"github.com/ahmad66-rgb/upscaler/internal/upscale"
	"github.com/ahmad66-rgb/upscaler/internal/video"
	"github.com/ahmad66-rgb/upscaler/internal/weights"
)

// pausePollInterval bounds how long a paused run sleeps between checks of
// the pause and cancel flags.
const pausePollInterval = 200 * time.Millisecond

// defaultWeightsDir is where model weights are provisioned.
const defaultWeightsDir = "models/weights"

// errCancelled signals a user-requested stop through the run's error path.
var errCancelled = errors.New("processing cancelled")

// EnhancerFactory resolves the upscaling backend for one run. Production
// builds the external Real-ESRGAN backend; tests substitute a stub.
type EnhancerFactory func(opts upscale.Options) (upscale.Enhancer, error)

// Worker executes one processing run: extract frames, upscale each frame,
// optionally sharpen, re-encode, emitting progress over the event bus.
// All file I/O stays inside a run-scoped working area until the final
// encode, and the working area is removed on every exit path.
type Worker struct {
	cfg         config.Config
	info        *video.Info
	bus         *events.Bus
	runner      ffmpeg.Runner
	monitor     *hardware.Monitor
	provisioner *weights.Provisioner
	weightsDir  string
	factory     EnhancerFactory
	tempRoot    string
	logger      *slog.Logger

	cancelled atomic.Bool
	pauseMu   sync.Mutex
	paused    bool

	stateMu sync.Mutex
	state   State
}

// Cancel requests a cooperative stop. One-way: a cancelled run never
// resumes. The flag is checked once per frame and once per pause poll, so
// an in-flight upscale or tool invocation completes first.
func (w *Worker) Cancel() {
	w.cancelled.Store(true)
}

// TogglePause flips the pause flag. Pausing suspends the frame loop
// without consuming frames; resuming picks up where it left off.
func (w *Worker) TogglePause() {
	w.pauseMu.Lock()
	w.paused = !w.paused
	w.pauseMu.Unlock()
}

// Paused reports the current pause flag.
func (w *Worker) Paused() bool {
	w.pauseMu.Lock()
	defer w.pauseMu.Unlock()
	return w.paused
}

// State returns the worker's current lifecycle state.
func (w *Worker) State() State {
	w.stateMu.Lock()
	defer w.stateMu.Unlock()
	return w.state
}

func (w *Worker) setState(s State) {
	w.stateMu.Lock()
	w.state = s
	w.stateMu.Unlock()
	w.bus.Publish(events.StateEvent{State: string(s)})
}

func (w *Worker) logf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	w.logger.Info(msg)
	w.bus.Publish(events.LogEvent{Message: msg})
}

// Run drives the state machine to a terminal state. It never panics
// across this boundary and always removes the working area.
func (w *Worker) Run() {
	defer func() {
		if r := recover(); r != nil {
			w.fail(fmt.Sprintf("internal error: %v", r))
		}
	}()

	workDir, err := os.MkdirTemp(w.tempRoot, "ignition_upscale_")
	if err != nil {
		w.fail(newError(ErrCodeWorkspace, "create working area", err).Error())
		return
	}
	defer os.RemoveAll(workDir)

	framesDir := filepath.Join(workDir, "frames")
	upscaledDir := filepath.Join(workDir, "upscaled")
	for _, dir := range []string{framesDir, upscaledDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			w.fail(newError(ErrCodeWorkspace, "create staging directory", err).Error())
			return
		}
	}

	outputPath, err := w.process(framesDir, upscaledDir)
	switch {
	case err == nil:
		w.setState(StateCompleted)
		w.bus.Publish(events.CompletedEvent{OutputPath: outputPath})
	case errors.Is(err, errCancelled):
		w.setState(StateCancelled)
	default:
		w.fail(err.Error())
	}
}

func (w *Worker) fail(message string) {
	w.logger.Error("processing failed", "error", message)
	w.setState(StateFailed)
	w.bus.Publish(events.FailedEvent{Message: message})
}

func (w *Worker) process(framesDir, upscaledDir string) (string, error) {
	w.setState(StateExtracting)
	w.logf("Extracting frames with FFmpeg...")
	if err := ffmpeg.ExtractFrames(w.runner, w.info.Path, framesDir); err != nil {
		return "", newError(ErrCodeExtraction, "frame extraction failed", err)
	}

	frames, err := filepath.Glob(filepath.Join(framesDir, "*.png"))
	if err != nil || len(frames) == 0 {
		return "", newError(ErrCodeExtraction,
			"no frames extracted; check video source and ffmpeg installation", err)
	}
	sort.Strings(frames)

	w.setState(StateLoadingModel)
	w.logf("Loading Real-ESRGAN model...")
	enhancer, accelerated, err := w.loadBackend()
	if err != nil {
		return "", err
	}
	if closer, ok := enhancer.(io.Closer); ok {
		defer closer.Close()
	}
	outscale := upscale.OutputScale(w.cfg.Video.UpscaleFactor, w.cfg.Video.CustomScale)

	w.setState(StateRunning)
	start := time.Now()
	total := len(frames)

	for i, framePath := range frames {
		for w.Paused() && !w.cancelled.Load() {
			time.Sleep(pausePollInterval)
		}
		if w.cancelled.Load() {
			w.logf("Processing cancelled by user.")
			return "", errCancelled
		}

		img, err := readFrame(framePath)
		if err != nil {
			return "", newError(ErrCodeFrameRead,
				fmt.Sprintf("unable to read frame %s", filepath.Base(framePath)), err)
		}

		enhanced, err := enhancer.Enhance(img, outscale)
		if err != nil {
			return "", newError(ErrCodeUpscale,
				fmt.Sprintf("upscaling frame %s failed", filepath.Base(framePath)), err)
		}
		if w.cfg.AI.Sharpening > 0 {
			enhanced = upscale.Sharpen(enhanced, w.cfg.AI.Sharpening)
		}

		outFrame := filepath.Join(upscaledDir, filepath.Base(framePath))
		if err := writeFrame(outFrame, enhanced); err != nil {
			return "", newError(ErrCodeFrameWrite,
				fmt.Sprintf("writing frame %s failed", filepath.Base(framePath)), err)
		}

		idx := i + 1
		elapsed := time.Since(start).Seconds()
		rate := 0.1
		if elapsed > 0 {
			rate = float64(idx) / elapsed
		}
		w.bus.Publish(events.ProgressEvent{
			CurrentFrame: idx,
			TotalFrames:  total,
			ETASeconds:   float64(total-idx) / math.Max(rate, 0.1),
			UsagePercent: w.monitor.Usage(accelerated),
			Message:      fmt.Sprintf("Upscaled frame %d/%d", idx, total),
		})
	}

	return w.render(upscaledDir)
}

// loadBackend resolves the model variant, ensures its weights are present,
// and builds the enhancer. The second return reports whether the run is in
// reduced-precision accelerated mode.
func (w *Worker) loadBackend() (upscale.Enhancer, bool, error) {
	weightName := upscale.WeightFor(w.cfg.AI.ModelName)
	weightPath, err := w.provisioner.Ensure(weightName, w.weightsDir)
	if err != nil {
		return nil, false, err
	}

	hw := w.monitor.Detect()
	accelerated := hw.Available && w.cfg.Performance.ProcessingMode == "GPU"

	enhancer, err := w.factory(upscale.Options{
		WeightPath: weightPath,
		Scale:      upscale.NativeScale(w.cfg.Video.UpscaleFactor, w.cfg.Video.CustomScale),
		GPU:        accelerated,
	})
	if err != nil {
		return nil, false, newError(ErrCodeModelLoad, "resolving upscaling backend failed", err)
	}
	return enhancer, accelerated, nil
}

func (w *Worker) render(upscaledDir string) (string, error) {
	outputPath, err := resolveOutputPath(w.cfg, w.info.Path, time.Now())
	if err != nil {
		return "", newError(ErrCodeEncoding, "preparing output location failed", err)
	}

	encoder, err := ffmpeg.MapCodec(w.cfg.Video.Codec)
	if err != nil {
		return "", newError(ErrCodeUnsupportedCodec, "codec selection failed", err)
	}

	fps := w.info.FPS
	if w.cfg.Video.FrameRateMode == "custom" {
		fps = w.cfg.Video.CustomFPS
	}

	w.logf("Rendering upscaled video...")
	err = ffmpeg.Encode(w.runner, ffmpeg.EncodeParams{
		FramesDir:  upscaledDir,
		FPS:        fps,
		Encoder:    encoder,
		Bitrate:    ffmpeg.MapBitrate(w.cfg.Video.Bitrate, w.cfg.Video.CustomBitrate),
		OutputPath: outputPath,
	})
	if err != nil {
		return "", newError(ErrCodeEncoding, "video encoding failed", err)
	}
	return outputPath, nil
}

func readFrame(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return png.Decode(f)
}

func writeFrame(path string, img image.Image) error {
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
