package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/ahmad66-rgb/upscaler/internal/config"
	"github.com/ahmad66-rgb/upscaler/internal/events"
	"github.com/ahmad66-rgb/upscaler/internal/ffmpeg"
	"github.com/ahmad66-rgb/upscaler/internal/hardware"
	"github.com/ahmad66-rgb/upscaler/internal/logging"
	"github.com/ahmad66-rgb/upscaler/internal/pipeline"
	"github.com/ahmad66-rgb/upscaler/internal/ui"
	"github.com/ahmad66-rgb/upscaler/internal/update"
	"github.com/ahmad66-rgb/upscaler/internal/validation"
	"github.com/ahmad66-rgb/upscaler/internal/video"
)

const appVersion = "1.0.0"

const settingsPath = "config/settings.toml"

func main() {
	logging.Initialize(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))

	store := config.NewStore(settingsPath)
	if err := store.Load(); err != nil {
		logging.GetLogger("main").Warn("settings not loaded, using defaults", "error", err)
	}
	if _, err := os.Stat(settingsPath); os.IsNotExist(err) {
		// The watcher needs an existing file to attach to.
		if err := store.Save(); err != nil {
			logging.GetLogger("main").Warn("settings not saved", "error", err)
		}
	}
	watcher := config.NewWatcher(store, nil)
	if err := watcher.Start(); err != nil {
		logging.GetLogger("main").Warn("settings watcher not started", "error", err)
	}
	theme := ui.NewTheme(store.Config().Theme)

	fmt.Println(theme.Title.Render("🔥 Ignition AI Upscaler"))
	fmt.Println("AI-powered video upscaling from your terminal.")
	fmt.Println()

	if !ffmpeg.IsAvailable() {
		fmt.Println(theme.Error.Render("❌ FFmpeg is not installed or not in PATH"))
		fmt.Println("Please install FFmpeg and try again.")
		os.Exit(1)
	}

	if latest, available := update.NewChecker().Check(appVersion); available {
		fmt.Println(theme.Prompt.Render(
			fmt.Sprintf("⬆️  Version %s is available (you have %s)", latest, appVersion)))
	}

	monitor := hardware.NewMonitor()
	scanner := bufio.NewScanner(os.Stdin)

	inputPath := getInputPath(scanner, theme)

	info, err := video.NewProber().Probe(inputPath)
	if err != nil {
		fmt.Println(theme.Error.Render(fmt.Sprintf("❌ Error reading video: %v", err)))
		os.Exit(1)
	}

	hw := monitor.Detect()
	theme.DisplayVideoInfo(info, hw)
	if thumb := video.NewProber().Thumbnail(inputPath, 64); thumb.Bounds().Dx() > 1 {
		fmt.Println(ui.RenderThumbnail(thumb))
	}

	wizard := ui.NewWizard(store, monitor)
	for {
		// External edits to the settings file land between iterations.
		theme = ui.NewTheme(store.Config().Theme)

		action, err := wizard.RunMainMenu()
		if err != nil {
			fmt.Println(theme.Error.Render(fmt.Sprintf("❌ %v", err)))
			os.Exit(1)
		}

		switch action {
		case ui.ActionToggleTheme:
			store.Update(func(c *config.Config) {
				if c.Theme == "dark" {
					c.Theme = "light"
				} else {
					c.Theme = "dark"
				}
			})
			theme = ui.NewTheme(store.Config().Theme)
			fmt.Println(theme.Prompt.Render("Theme: " + store.Config().Theme))

		case ui.ActionStart:
			// The run works from an immutable snapshot; stop watching
			// before taking it so a reload cannot land mid-copy.
			watcher.Stop()
			if err := store.Save(); err != nil {
				logging.GetLogger("main").Warn("settings not saved", "error", err)
			}
			runPipeline(store.Config(), info, theme)
			return

		case ui.ActionQuit:
			watcher.Stop()
			if err := store.Save(); err != nil {
				logging.GetLogger("main").Warn("settings not saved", "error", err)
			}
			return

		default:
			if err := wizard.RunPage(action); err != nil {
				fmt.Println(theme.Error.Render(fmt.Sprintf("❌ %v", err)))
			}
		}
	}
}

func getInputPath(scanner *bufio.Scanner, theme ui.Theme) string {
	for {
		fmt.Print(theme.Prompt.Render("📁 Enter video file path: "))
		if !scanner.Scan() {
			os.Exit(1)
		}
		input := scanner.Text()

		if err := validation.ValidateInputPath(input); err != nil {
			fmt.Println(theme.Error.Render(fmt.Sprintf("❌ %v", err)))
			continue
		}
		return validation.CleanPath(input)
	}
}

func runPipeline(cfg config.Config, info *video.Info, theme ui.Theme) {
	bus := events.New()
	bar := ui.NewProgressBar(info.TotalFrames)

	defer bus.Subscribe(func(e events.ProgressEvent) {
		bar.Set(e.CurrentFrame)
		bar.Describe(fmt.Sprintf("Upscaling (ETA %s, load %.0f%%)",
			ui.FormatETA(e.ETASeconds), e.UsagePercent))
	})()
	defer bus.Subscribe(func(e events.LogEvent) {
		fmt.Println("\n" + theme.Prompt.Render("🔄 "+e.Message))
	})()
	defer bus.Subscribe(func(e events.CompletedEvent) {
		bar.Finish()
		fmt.Println("\n" + theme.Success.Render("✅ Upscaling completed successfully!"))
		fmt.Printf("Video saved to: %s\n", e.OutputPath)
	})()
	defer bus.Subscribe(func(e events.FailedEvent) {
		fmt.Println("\n" + theme.Error.Render(fmt.Sprintf("❌ Upscaling failed: %s", e.Message)))
	})()

	controller := pipeline.NewController(cfg, info, bus)
	if err := controller.Start(); err != nil {
		fmt.Println(theme.Error.Render(fmt.Sprintf("❌ %v", err)))
		return
	}

	fmt.Println(theme.Prompt.Render("Type p+Enter to pause/resume, c+Enter to cancel."))
	go readRunCommands(controller, theme)

	<-controller.Done()
	if controller.State() == pipeline.StateFailed {
		os.Exit(1)
	}
}

// readRunCommands consumes pause/cancel keystrokes while the run is live.
// The goroutine leaks a blocked Read at process exit, which is harmless.
func readRunCommands(controller *pipeline.Controller, theme ui.Theme) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "p":
			controller.PauseResume()
			if controller.Paused() {
				fmt.Println(theme.Prompt.Render("⏸  Paused. Type p+Enter to resume."))
			} else {
				fmt.Println(theme.Prompt.Render("▶️  Resumed."))
			}
		case "c":
			controller.Stop()
			fmt.Println(theme.Prompt.Render("⏹  Cancelling after the current frame..."))
			return
		}
	}
}
