package pipeline

import (
	"errors"
	"sync"

	"github.com/ahmad66-rgb/upscaler/internal/config"
	"github.com/ahmad66-rgb/upscaler/internal/events"
	"github.com/ahmad66-rgb/upscaler/internal/ffmpeg"
	"github.com/ahmad66-rgb/upscaler/internal/hardware"
	"github.com/ahmad66-rgb/upscaler/internal/logging"
	"github.com/ahmad66-rgb/upscaler/internal/upscale"
	"github.com/ahmad66-rgb/upscaler/internal/video"
	"github.com/ahmad66-rgb/upscaler/internal/weights"
)

// ErrAlreadyStarted is returned by Start on a controller that has already
// launched its run. Controllers are single-use.
var ErrAlreadyStarted = errors.New("pipeline already started")

// Option customizes a Controller, mainly to substitute external tools in
// tests.
type Option func(*Worker)

// WithRunner replaces the command runner used for ffmpeg invocations.
func WithRunner(r ffmpeg.Runner) Option {
	return func(w *Worker) { w.runner = r }
}

// WithEnhancerFactory replaces the upscaling backend constructor.
func WithEnhancerFactory(f EnhancerFactory) Option {
	return func(w *Worker) { w.factory = f }
}

// WithWeights replaces the weight provisioner and its target directory.
func WithWeights(p *weights.Provisioner, dir string) Option {
	return func(w *Worker) {
		w.provisioner = p
		w.weightsDir = dir
	}
}

// WithMonitor replaces the hardware monitor.
func WithMonitor(m *hardware.Monitor) Option {
	return func(w *Worker) { w.monitor = m }
}

// WithTempRoot places the run's working area under dir instead of the
// system temp directory.
func WithTempRoot(dir string) Option {
	return func(w *Worker) { w.tempRoot = dir }
}

// Controller owns one processing run of one video. Start launches the run
// on its own goroutine; Stop and PauseResume steer it; Done signals the
// terminal state.
type Controller struct {
	worker *Worker

	mu      sync.Mutex
	started bool
	done    chan struct{}
}

// NewController builds a controller for the given settings and probed
// video.
func NewController(cfg config.Config, info *video.Info, bus *events.Bus, opts ...Option) *Controller {
	w := &Worker{
		cfg:         cfg,
		info:        info,
		bus:         bus,
		runner:      ffmpeg.ExecRunner{},
		monitor:     hardware.NewMonitor(),
		provisioner: weights.NewProvisioner(),
		weightsDir:  defaultWeightsDir,
		factory:     defaultFactory,
		logger:      logging.GetLogger("pipeline"),
		state:       StateIdle,
	}
	for _, opt := range opts {
		opt(w)
	}
	return &Controller{
		worker: w,
		done:   make(chan struct{}),
	}
}

func defaultFactory(opts upscale.Options) (upscale.Enhancer, error) {
	return upscale.NewRealESRGAN(opts)
}

// Start launches the run. A controller runs at most once; further calls
// return ErrAlreadyStarted.
func (c *Controller) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return ErrAlreadyStarted
	}
	c.started = true

	go func() {
		defer close(c.done)
		c.worker.Run()
	}()
	return nil
}

// Stop requests cancellation. The run winds down after the current frame
// and reports StateCancelled.
func (c *Controller) Stop() {
	c.worker.Cancel()
}

// PauseResume toggles the run between paused and running.
func (c *Controller) PauseResume() {
	c.worker.TogglePause()
}

// Paused reports whether the run is currently paused.
func (c *Controller) Paused() bool {
	return c.worker.Paused()
}

// Done returns a channel closed once the run reaches a terminal state.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// State returns the run's current lifecycle state.
func (c *Controller) State() State {
	return c.worker.State()
}
