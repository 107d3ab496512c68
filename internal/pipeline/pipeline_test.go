package pipeline

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ahmad66-rgb/upscaler/internal/config"
	"github.com/ahmad66-rgb/upscaler/internal/events"
	"github.com/ahmad66-rgb/upscaler/internal/hardware"
	"github.com/ahmad66-rgb/upscaler/internal/upscale"
	"github.com/ahmad66-rgb/upscaler/internal/video"
	"github.com/ahmad66-rgb/upscaler/internal/weights"
)

// fakeToolRunner stands in for the external ffmpeg binary: extraction
// writes frameCount synthetic frames, encoding writes the output file.
type fakeToolRunner struct {
	mu           sync.Mutex
	frameCount   int
	corruptFrame int // 1-based; that frame is written as garbage
	calls        [][]string
	encodeErr    error
	extractErr   error
}

func (f *fakeToolRunner) Run(name string, args ...string) error {
	f.mu.Lock()
	f.calls = append(f.calls, append([]string{name}, args...))
	f.mu.Unlock()

	last := args[len(args)-1]
	switch {
	case len(args) > 1 && args[1] == "-i": // ffmpeg -y -i src pattern
		if f.extractErr != nil {
			return f.extractErr
		}
		dir := filepath.Dir(last)
		for i := 1; i <= f.frameCount; i++ {
			path := filepath.Join(dir, fmt.Sprintf("%08d.png", i))
			if i == f.corruptFrame {
				if err := os.WriteFile(path, []byte("not a png"), 0o644); err != nil {
					return err
				}
				continue
			}
			if err := writeTestFrame(path); err != nil {
				return err
			}
		}
		return nil
	default: // encode
		if f.encodeErr != nil {
			return f.encodeErr
		}
		return os.WriteFile(last, []byte("video"), 0o644)
	}
}

func (f *fakeToolRunner) Output(name string, args ...string) ([]byte, error) {
	return nil, errors.New("not used")
}

func (f *fakeToolRunner) encodeCall() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, call := range f.calls {
		for _, arg := range call {
			if arg == "-framerate" {
				return call
			}
		}
	}
	return nil
}

// stubEnhancer echoes frames back, optionally running a hook per call.
type stubEnhancer struct {
	mu       sync.Mutex
	calls    int
	onFrame  func(call int)
	frameErr error
}

func (s *stubEnhancer) Enhance(img image.Image, outscale float64) (image.Image, error) {
	s.mu.Lock()
	s.calls++
	n := s.calls
	hook := s.onFrame
	s.mu.Unlock()
	if hook != nil {
		hook(n)
	}
	if s.frameErr != nil {
		return nil, s.frameErr
	}
	return img, nil
}

func (s *stubEnhancer) setHook(h func(call int)) {
	s.mu.Lock()
	s.onFrame = h
	s.mu.Unlock()
}

func (s *stubEnhancer) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func writeTestFrame(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, image.NewNRGBA(image.Rect(0, 0, 4, 4)))
}

// noToolRunner fails every hardware query, forcing CPU-only detection.
type noToolRunner struct{}

func (noToolRunner) Output(name string, args ...string) ([]byte, error) {
	return nil, errors.New("tool not found")
}

type fixture struct {
	cfg        config.Config
	info       *video.Info
	bus        *events.Bus
	runner     *fakeToolRunner
	enhancer   *stubEnhancer
	tempRoot   string
	weightsDir string
}

func newFixture(t *testing.T, frameCount int) *fixture {
	t.Helper()

	cfg := config.Default()
	cfg.Export.OutputFolder = t.TempDir()

	weightsDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(weightsDir, upscale.GeneralWeight), []byte("w"), 0o644); err != nil {
		t.Fatal(err)
	}

	srcDir := t.TempDir()
	src := filepath.Join(srcDir, "clip.mp4")
	if err := os.WriteFile(src, []byte("source"), 0o644); err != nil {
		t.Fatal(err)
	}

	fx := &fixture{
		cfg:      cfg,
		info:     &video.Info{Path: src, Width: 4, Height: 4, FPS: 30, TotalFrames: frameCount},
		bus:      events.New(),
		runner:   &fakeToolRunner{frameCount: frameCount},
		enhancer: &stubEnhancer{},
		tempRoot: t.TempDir(),
	}
	fx.weightsDir = weightsDir
	return fx
}

func (fx *fixture) controller(t *testing.T) *Controller {
	t.Helper()
	return NewController(fx.cfg, fx.info, fx.bus,
		WithRunner(fx.runner),
		WithEnhancerFactory(func(opts upscale.Options) (upscale.Enhancer, error) {
			return fx.enhancer, nil
		}),
		WithWeights(weights.NewProvisioner(), fx.weightsDir),
		WithMonitor(hardware.NewMonitorWithRunner(noToolRunner{})),
		WithTempRoot(fx.tempRoot),
	)
}

func waitDone(t *testing.T, c *Controller) {
	t.Helper()
	select {
	case <-c.Done():
	case <-time.After(10 * time.Second):
		t.Fatal("run did not finish in time")
	}
}

// waitUntil polls cond until it holds or the deadline passes. Event
// delivery is asynchronous, so assertions on received events poll.
func waitUntil(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	if !cond() {
		t.Fatal("condition not reached in time")
	}
}

func TestRunCompletesEndToEnd(t *testing.T) {
	fx := newFixture(t, 10)

	var mu sync.Mutex
	var progress []events.ProgressEvent
	var completed []events.CompletedEvent
	defer fx.bus.Subscribe(func(e events.ProgressEvent) {
		mu.Lock()
		progress = append(progress, e)
		mu.Unlock()
	})()
	defer fx.bus.Subscribe(func(e events.CompletedEvent) {
		mu.Lock()
		completed = append(completed, e)
		mu.Unlock()
	})()

	c := fx.controller(t)
	if err := c.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitDone(t, c)

	if got := c.State(); got != StateCompleted {
		t.Fatalf("state = %v, want %v", got, StateCompleted)
	}

	waitUntil(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(progress) == 10 && len(completed) == 1
	})

	mu.Lock()
	defer mu.Unlock()
	for i, e := range progress {
		if e.CurrentFrame != i+1 {
			t.Errorf("progress[%d].CurrentFrame = %d, want %d", i, e.CurrentFrame, i+1)
		}
		if e.TotalFrames != 10 {
			t.Errorf("progress[%d].TotalFrames = %d, want 10", i, e.TotalFrames)
		}
		if e.ETASeconds < 0 {
			t.Errorf("progress[%d].ETASeconds = %f, want >= 0", i, e.ETASeconds)
		}
	}

	wantOut := filepath.Join(fx.cfg.Export.OutputFolder, "clip_upscaled.mp4")
	if completed[0].OutputPath != wantOut {
		t.Errorf("output path = %q, want %q", completed[0].OutputPath, wantOut)
	}
	if _, err := os.Stat(wantOut); err != nil {
		t.Errorf("output file missing: %v", err)
	}

	encode := fx.runner.encodeCall()
	if encode == nil {
		t.Fatal("no encode invocation recorded")
	}
	joined := strings.Join(encode, " ")
	for _, want := range []string{"libx264", "8M", "yuv420p", "-framerate 30"} {
		if !strings.Contains(joined, want) {
			t.Errorf("encode args missing %q: %v", want, encode)
		}
	}
}

func TestRunCleansUpWorkingArea(t *testing.T) {
	fx := newFixture(t, 3)
	c := fx.controller(t)
	if err := c.Start(); err != nil {
		t.Fatal(err)
	}
	waitDone(t, c)

	entries, err := os.ReadDir(fx.tempRoot)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("working area not removed: %d entries remain", len(entries))
	}
}

func TestCancelStopsBeforeEncoding(t *testing.T) {
	fx := newFixture(t, 10)
	c := fx.controller(t)
	fx.enhancer.onFrame = func(call int) {
		if call == 3 {
			c.Stop()
		}
	}

	if err := c.Start(); err != nil {
		t.Fatal(err)
	}
	waitDone(t, c)

	if got := c.State(); got != StateCancelled {
		t.Fatalf("state = %v, want %v", got, StateCancelled)
	}
	if n := fx.enhancer.callCount(); n > 4 {
		t.Errorf("enhancer ran %d frames after cancellation", n)
	}
	if fx.runner.encodeCall() != nil {
		t.Error("encode ran despite cancellation")
	}

	entries, err := os.ReadDir(fx.tempRoot)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Error("working area not removed after cancellation")
	}
}

func TestUnsupportedCodecFails(t *testing.T) {
	fx := newFixture(t, 2)
	fx.cfg.Video.Codec = "VP9"

	var mu sync.Mutex
	var failures []events.FailedEvent
	defer fx.bus.Subscribe(func(e events.FailedEvent) {
		mu.Lock()
		failures = append(failures, e)
		mu.Unlock()
	})()

	c := fx.controller(t)
	if err := c.Start(); err != nil {
		t.Fatal(err)
	}
	waitDone(t, c)

	if got := c.State(); got != StateFailed {
		t.Fatalf("state = %v, want %v", got, StateFailed)
	}
	waitUntil(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(failures) == 1
	})
	mu.Lock()
	defer mu.Unlock()
	if !strings.Contains(failures[0].Message, ErrCodeUnsupportedCodec) {
		t.Errorf("failure message %q missing code %s", failures[0].Message, ErrCodeUnsupportedCodec)
	}
}

func TestExtractionFailureFails(t *testing.T) {
	fx := newFixture(t, 5)
	fx.runner.extractErr = errors.New("no such file")

	c := fx.controller(t)
	if err := c.Start(); err != nil {
		t.Fatal(err)
	}
	waitDone(t, c)

	if got := c.State(); got != StateFailed {
		t.Fatalf("state = %v, want %v", got, StateFailed)
	}
}

func TestUpscaleFailureFails(t *testing.T) {
	fx := newFixture(t, 5)
	fx.enhancer.frameErr = errors.New("backend crashed")

	c := fx.controller(t)
	if err := c.Start(); err != nil {
		t.Fatal(err)
	}
	waitDone(t, c)

	if got := c.State(); got != StateFailed {
		t.Fatalf("state = %v, want %v", got, StateFailed)
	}
	if fx.runner.encodeCall() != nil {
		t.Error("encode ran despite upscale failure")
	}
}

func TestStartIsOneShot(t *testing.T) {
	fx := newFixture(t, 1)
	c := fx.controller(t)
	if err := c.Start(); err != nil {
		t.Fatal(err)
	}
	if err := c.Start(); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("second Start = %v, want ErrAlreadyStarted", err)
	}
	waitDone(t, c)
}

func TestPauseSuspendsFrameConsumption(t *testing.T) {
	fx := newFixture(t, 10)
	c := fx.controller(t)
	fx.enhancer.onFrame = func(call int) {
		if call == 2 {
			c.PauseResume()
		}
	}

	if err := c.Start(); err != nil {
		t.Fatal(err)
	}

	// Frame 2 finishes, then the loop parks before frame 3.
	waitUntil(t, func() bool { return fx.enhancer.callCount() == 2 && c.Paused() })
	time.Sleep(3 * pausePollInterval)
	if n := fx.enhancer.callCount(); n != 2 {
		t.Fatalf("enhancer advanced to frame %d while paused, want 2", n)
	}

	fx.enhancer.setHook(nil)
	c.PauseResume()
	waitDone(t, c)
	if got := c.State(); got != StateCompleted {
		t.Fatalf("state = %v, want %v", got, StateCompleted)
	}
	if n := fx.enhancer.callCount(); n != 10 {
		t.Errorf("enhancer processed %d frames after resume, want 10", n)
	}
}

func TestCancelWhilePausedUnblocks(t *testing.T) {
	fx := newFixture(t, 10)
	c := fx.controller(t)
	fx.enhancer.onFrame = func(call int) {
		if call == 2 {
			c.PauseResume()
		}
	}

	if err := c.Start(); err != nil {
		t.Fatal(err)
	}
	waitUntil(t, func() bool { return fx.enhancer.callCount() == 2 && c.Paused() })

	c.Stop()
	waitDone(t, c)

	if got := c.State(); got != StateCancelled {
		t.Fatalf("state = %v, want %v", got, StateCancelled)
	}
	if n := fx.enhancer.callCount(); n != 2 {
		t.Errorf("enhancer processed %d frames, want 2", n)
	}
	if fx.runner.encodeCall() != nil {
		t.Error("encode ran despite cancellation")
	}
}

func TestUnreadableFrameFailsWithReadCode(t *testing.T) {
	fx := newFixture(t, 5)
	fx.runner.corruptFrame = 3

	var mu sync.Mutex
	var failures []events.FailedEvent
	defer fx.bus.Subscribe(func(e events.FailedEvent) {
		mu.Lock()
		failures = append(failures, e)
		mu.Unlock()
	})()

	c := fx.controller(t)
	if err := c.Start(); err != nil {
		t.Fatal(err)
	}
	waitDone(t, c)

	if got := c.State(); got != StateFailed {
		t.Fatalf("state = %v, want %v", got, StateFailed)
	}
	waitUntil(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(failures) == 1
	})
	mu.Lock()
	defer mu.Unlock()
	if !strings.Contains(failures[0].Message, ErrCodeFrameRead) {
		t.Errorf("failure message %q missing code %s", failures[0].Message, ErrCodeFrameRead)
	}
	if fx.runner.encodeCall() != nil {
		t.Error("encode ran despite frame read failure")
	}
}

func TestPauseResumeToggles(t *testing.T) {
	fx := newFixture(t, 1)
	c := fx.controller(t)
	if c.Paused() {
		t.Fatal("new controller reports paused")
	}
	c.PauseResume()
	if !c.Paused() {
		t.Error("pause toggle did not take")
	}
	c.PauseResume()
	if c.Paused() {
		t.Error("resume toggle did not take")
	}
}

func TestCustomFrameRateUsedInEncode(t *testing.T) {
	fx := newFixture(t, 2)
	fx.cfg.Video.FrameRateMode = "custom"
	fx.cfg.Video.CustomFPS = 23.976

	c := fx.controller(t)
	if err := c.Start(); err != nil {
		t.Fatal(err)
	}
	waitDone(t, c)

	encode := fx.runner.encodeCall()
	if encode == nil {
		t.Fatal("no encode invocation recorded")
	}
	if !strings.Contains(strings.Join(encode, " "), "23.976") {
		t.Errorf("encode args missing custom frame rate: %v", encode)
	}
}

func TestResolveOutputPath(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Export.OutputFolder = dir
	cfg.Export.FileFormat = "MP4"
	now := time.Unix(1700000000, 0)

	path, err := resolveOutputPath(cfg, "/videos/clip.mkv", now)
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "clip_upscaled.mp4"); path != want {
		t.Fatalf("path = %q, want %q", path, want)
	}

	// Collision without overwrite: a timestamp suffix keeps both files.
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	second, err := resolveOutputPath(cfg, "/videos/clip.mkv", now)
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "clip_upscaled_1700000000.mp4"); second != want {
		t.Errorf("collision path = %q, want %q", second, want)
	}

	// Overwrite enabled: same path comes back.
	cfg.Export.AutoOverwrite = true
	third, err := resolveOutputPath(cfg, "/videos/clip.mkv", now)
	if err != nil {
		t.Fatal(err)
	}
	if third != path {
		t.Errorf("overwrite path = %q, want %q", third, path)
	}

	// Explicit rename wins over the derived stem.
	cfg.Export.RenameFile = "  final cut "
	renamed, err := resolveOutputPath(cfg, "/videos/clip.mkv", now)
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "final cut.mp4"); renamed != want {
		t.Errorf("renamed path = %q, want %q", renamed, want)
	}
}
