package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"

	"github.com/ahmad66-rgb/upscaler/internal/config"
	"github.com/ahmad66-rgb/upscaler/internal/ffmpeg"
	"github.com/ahmad66-rgb/upscaler/internal/hardware"
)

// Menu actions returned by RunMainMenu.
const (
	ActionVideoSettings       = "Video settings"
	ActionAISettings          = "AI settings"
	ActionPerformanceSettings = "Performance settings"
	ActionExportSettings      = "Export settings"
	ActionToggleTheme         = "Toggle theme"
	ActionStart               = "Start upscaling"
	ActionQuit                = "Quit"
)

// Wizard drives the settings pages over the shared store.
type Wizard struct {
	store   *config.Store
	monitor *hardware.Monitor
}

// NewWizard creates the settings wizard.
func NewWizard(store *config.Store, monitor *hardware.Monitor) *Wizard {
	return &Wizard{store: store, monitor: monitor}
}

// RunMainMenu shows the top-level menu and returns the chosen action.
func (w *Wizard) RunMainMenu() (string, error) {
	items := []string{
		ActionVideoSettings,
		ActionAISettings,
		ActionPerformanceSettings,
		ActionExportSettings,
		ActionToggleTheme,
		ActionStart,
		ActionQuit,
	}
	sel := promptui.Select{
		Label: "What would you like to do",
		Items: items,
		Size:  len(items),
	}
	_, choice, err := sel.Run()
	return choice, err
}

// RunPage dispatches the settings page for a main-menu action.
func (w *Wizard) RunPage(action string) error {
	switch action {
	case ActionVideoSettings:
		return w.videoPage()
	case ActionAISettings:
		return w.aiPage()
	case ActionPerformanceSettings:
		return w.performancePage()
	case ActionExportSettings:
		return w.exportPage()
	default:
		return fmt.Errorf("no settings page for %q", action)
	}
}

func (w *Wizard) videoPage() error {
	cfg := w.store.Config()

	factor, err := selectString("Upscale factor", []string{"2x", "4x", "custom"}, cfg.Video.UpscaleFactor)
	if err != nil {
		return err
	}
	cfg.Video.UpscaleFactor = factor
	if factor == "custom" {
		scale, err := promptFloat("Custom scale multiplier", cfg.Video.CustomScale, 1.0, 8.0)
		if err != nil {
			return err
		}
		cfg.Video.CustomScale = scale
	}

	mode, err := selectString("Frame rate", []string{"keep", "custom"}, cfg.Video.FrameRateMode)
	if err != nil {
		return err
	}
	cfg.Video.FrameRateMode = mode
	if mode == "custom" {
		fps, err := promptFloat("Output frame rate (fps)", cfg.Video.CustomFPS, 1.0, 240.0)
		if err != nil {
			return err
		}
		cfg.Video.CustomFPS = fps
	}

	codec, err := selectString("Codec", ffmpeg.CodecNames(), cfg.Video.Codec)
	if err != nil {
		return err
	}
	cfg.Video.Codec = codec

	bitrate, err := selectString("Bitrate", []string{"Low", "Medium", "High", "Custom"}, cfg.Video.Bitrate)
	if err != nil {
		return err
	}
	cfg.Video.Bitrate = bitrate
	if bitrate == "Custom" {
		kbps, err := promptInt("Bitrate (kbps)", cfg.Video.CustomBitrate, 500, 100000)
		if err != nil {
			return err
		}
		cfg.Video.CustomBitrate = kbps
	}

	w.store.Update(func(c *config.Config) { c.Video = cfg.Video })
	return nil
}

func (w *Wizard) aiPage() error {
	cfg := w.store.Config()

	model, err := selectString("AI model",
		[]string{"Real-ESRGAN General", "Real-ESRGAN Anime", "Real-ESRGAN Fast"},
		cfg.AI.ModelName)
	if err != nil {
		return err
	}
	cfg.AI.ModelName = model

	denoise, err := promptInt("Denoise strength (0-100)", cfg.AI.DenoiseStrength, 0, 100)
	if err != nil {
		return err
	}
	cfg.AI.DenoiseStrength = denoise

	sharpen, err := promptInt("Sharpening (0-100)", cfg.AI.Sharpening, 0, 100)
	if err != nil {
		return err
	}
	cfg.AI.Sharpening = sharpen

	cfg.AI.ArtifactReduction, err = promptBool("Artifact reduction", cfg.AI.ArtifactReduction)
	if err != nil {
		return err
	}
	cfg.AI.FaceEnhancement, err = promptBool("Face enhancement", cfg.AI.FaceEnhancement)
	if err != nil {
		return err
	}

	w.store.Update(func(c *config.Config) { c.AI = cfg.AI })
	return nil
}

func (w *Wizard) performancePage() error {
	cfg := w.store.Config()

	hw := w.monitor.Detect()
	memGB := hardware.AvailableMemoryGB()
	fmt.Printf("Detected hardware: %s (%.1f GB memory available)\n", hw.Name, memGB)

	mode, err := selectString("Processing mode", []string{"GPU", "CPU"}, cfg.Performance.ProcessingMode)
	if err != nil {
		return err
	}
	cfg.Performance.ProcessingMode = mode

	vram, err := promptInt("VRAM limit (GB)", cfg.Performance.VRAMLimitGB, 1, 64)
	if err != nil {
		return err
	}
	cfg.Performance.VRAMLimitGB = vram

	cfg.Performance.Multithreading, err = promptBool("Multithreading", cfg.Performance.Multithreading)
	if err != nil {
		return err
	}
	cfg.Performance.BatchMode, err = promptBool("Batch mode", cfg.Performance.BatchMode)
	if err != nil {
		return err
	}

	w.store.Update(func(c *config.Config) { c.Performance = cfg.Performance })
	return nil
}

func (w *Wizard) exportPage() error {
	cfg := w.store.Config()

	preset, err := selectString("Export preset", config.PresetNames(), cfg.Export.Preset)
	if err != nil {
		return err
	}
	cfg.ApplyPreset(preset)

	folder, err := promptString("Output folder", cfg.Export.OutputFolder, false)
	if err != nil {
		return err
	}
	cfg.Export.OutputFolder = folder

	format, err := selectString("Container format", []string{"MP4", "MKV", "MOV"}, cfg.Export.FileFormat)
	if err != nil {
		return err
	}
	cfg.Export.FileFormat = format

	rename, err := promptString("Output name (blank keeps \"<source>_upscaled\")", cfg.Export.RenameFile, true)
	if err != nil {
		return err
	}
	cfg.Export.RenameFile = rename

	cfg.Export.AutoOverwrite, err = promptBool("Overwrite existing output", cfg.Export.AutoOverwrite)
	if err != nil {
		return err
	}

	w.store.Update(func(c *config.Config) {
		c.Export = cfg.Export
		c.Video.OutputResolution = cfg.Video.OutputResolution
		c.Video.Codec = cfg.Video.Codec
		c.Video.Bitrate = cfg.Video.Bitrate
	})
	return nil
}

// selectString runs a selection with the current value preselected.
func selectString(label string, items []string, current string) (string, error) {
	cursor := 0
	for i, item := range items {
		if item == current {
			cursor = i
			break
		}
	}
	sel := promptui.Select{
		Label:     label,
		Items:     items,
		CursorPos: cursor,
		Size:      len(items),
	}
	_, choice, err := sel.Run()
	return choice, err
}

func promptString(label, current string, allowEmpty bool) (string, error) {
	prompt := promptui.Prompt{
		Label:     label,
		Default:   current,
		AllowEdit: true,
		Validate: func(input string) error {
			if !allowEmpty && strings.TrimSpace(input) == "" {
				return fmt.Errorf("value cannot be empty")
			}
			return nil
		},
	}
	out, err := prompt.Run()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func promptFloat(label string, current, min, max float64) (float64, error) {
	prompt := promptui.Prompt{
		Label:     label,
		Default:   strconv.FormatFloat(current, 'f', -1, 64),
		AllowEdit: true,
		Validate: func(input string) error {
			v, err := strconv.ParseFloat(strings.TrimSpace(input), 64)
			if err != nil {
				return fmt.Errorf("enter a number")
			}
			if v < min || v > max {
				return fmt.Errorf("must be between %g and %g", min, max)
			}
			return nil
		},
	}
	out, err := prompt.Run()
	if err != nil {
		return 0, err
	}
	return strconv.ParseFloat(strings.TrimSpace(out), 64)
}

func promptInt(label string, current, min, max int) (int, error) {
	prompt := promptui.Prompt{
		Label:     label,
		Default:   strconv.Itoa(current),
		AllowEdit: true,
		Validate: func(input string) error {
			v, err := strconv.Atoi(strings.TrimSpace(input))
			if err != nil {
				return fmt.Errorf("enter a whole number")
			}
			if v < min || v > max {
				return fmt.Errorf("must be between %d and %d", min, max)
			}
			return nil
		},
	}
	out, err := prompt.Run()
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(out))
}

func promptBool(label string, current bool) (bool, error) {
	def := "Off"
	if current {
		def = "On"
	}
	choice, err := selectString(label, []string{"On", "Off"}, def)
	if err != nil {
		return false, err
	}
	return choice == "On", nil
}
