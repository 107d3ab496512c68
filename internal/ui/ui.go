// Package ui renders the interactive terminal surface: the info panels,
// prompts, progress bar, and the low-resolution preview image.
package ui

import (
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/schollz/progressbar/v3"

	"github.com/ahmad66-rgb/upscaler/internal/hardware"
	"github.com/ahmad66-rgb/upscaler/internal/video"
)

// Palette holds the theme's colors. Both themes use the same accent so
// branding stays stable; only text and border contrast changes.
type Palette struct {
	Accent lipgloss.Color
	Label  lipgloss.Color
	Value  lipgloss.Color
	Border lipgloss.Color
	Error  lipgloss.Color
	OK     lipgloss.Color
}

var palettes = map[string]Palette{
	"dark": {
		Accent: lipgloss.Color("#F97316"),
		Label:  lipgloss.Color("#9CA3AF"),
		Value:  lipgloss.Color("#F9FAFB"),
		Border: lipgloss.Color("#F97316"),
		Error:  lipgloss.Color("#EF4444"),
		OK:     lipgloss.Color("#10B981"),
	},
	"light": {
		Accent: lipgloss.Color("#EA580C"),
		Label:  lipgloss.Color("#6B7280"),
		Value:  lipgloss.Color("#111827"),
		Border: lipgloss.Color("#EA580C"),
		Error:  lipgloss.Color("#DC2626"),
		OK:     lipgloss.Color("#059669"),
	},
}

// Theme bundles the styled renderers for one theme selection.
type Theme struct {
	Title   lipgloss.Style
	Panel   lipgloss.Style
	Label   lipgloss.Style
	Value   lipgloss.Style
	Prompt  lipgloss.Style
	Error   lipgloss.Style
	Success lipgloss.Style
}

// NewTheme builds the style set for the named theme. Unknown names fall
// back to dark.
func NewTheme(name string) Theme {
	p, ok := palettes[name]
	if !ok {
		p = palettes["dark"]
	}
	return Theme{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.Accent).
			MarginBottom(1),
		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.Border).
			Padding(1, 2).
			MarginTop(1).
			MarginBottom(1),
		Label: lipgloss.NewStyle().
			Foreground(p.Label).
			Bold(true),
		Value: lipgloss.NewStyle().
			Foreground(p.Value),
		Prompt: lipgloss.NewStyle().
			Foreground(p.Accent).
			Bold(true),
		Error: lipgloss.NewStyle().
			Foreground(p.Error).
			Bold(true),
		Success: lipgloss.NewStyle().
			Foreground(p.OK).
			Bold(true),
	}
}

// DisplayVideoInfo prints the source summary panel shown after probing.
func (t Theme) DisplayVideoInfo(info *video.Info, hw hardware.Info) {
	content := fmt.Sprintf(
		"%s %s\n"+
			"%s %s\n"+
			"%s %dx%d\n"+
			"%s %.2f fps\n"+
			"%s %d\n"+
			"%s %s\n"+
			"%s %s",
		t.Label.Render("📁 File:"), t.Value.Render(filepath.Base(info.Path)),
		t.Label.Render("📊 Size:"), t.Value.Render(FormatFileSize(info.FileSizeBytes)),
		t.Label.Render("📐 Dimensions:"), info.Width, info.Height,
		t.Label.Render("🎞️  Frame rate:"), info.FPS,
		t.Label.Render("🎬 Frames:"), info.TotalFrames,
		t.Label.Render("⏱️  Duration:"), t.Value.Render(FormatDuration(info.DurationSeconds)),
		t.Label.Render("🖥️  Hardware:"), t.Value.Render(hw.Name),
	)
	fmt.Println(t.Panel.Render(content))
}

// FormatFileSize converts bytes to human-readable format
func FormatFileSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// FormatDuration converts seconds to MM:SS format
func FormatDuration(seconds float64) string {
	totalSeconds := int(seconds)
	minutes := totalSeconds / 60
	remainingSeconds := totalSeconds % 60

	return fmt.Sprintf("%02d:%02d", minutes, remainingSeconds)
}

// FormatETA renders a remaining-time estimate for the progress line.
func FormatETA(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds + 0.5)
	if total < 60 {
		return fmt.Sprintf("%ds", total)
	}
	return fmt.Sprintf("%dm %02ds", total/60, total%60)
}

// NewProgressBar builds the frame-progress bar.
func NewProgressBar(totalFrames int) *progressbar.ProgressBar {
	return progressbar.NewOptions(totalFrames,
		progressbar.OptionSetDescription("Upscaling"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "▐",
			BarEnd:        "▌",
		}),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetWidth(50),
		progressbar.OptionSetRenderBlankState(true),
	)
}

// RenderThumbnail converts a preview image to terminal half-block art,
// two pixel rows per text row. The image should already be shrunk to
// terminal width; rendering is pixel-for-pixel.
func RenderThumbnail(img image.Image) string {
	bounds := img.Bounds()
	var b strings.Builder
	for y := bounds.Min.Y; y+1 < bounds.Max.Y; y += 2 {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			top := hexColor(img.At(x, y).RGBA())
			bottom := hexColor(img.At(x, y+1).RGBA())
			cell := lipgloss.NewStyle().
				Foreground(lipgloss.Color(top)).
				Background(lipgloss.Color(bottom))
			b.WriteString(cell.Render("▀"))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func hexColor(r, g, b, _ uint32) string {
	return fmt.Sprintf("#%02x%02x%02x", r>>8, g>>8, b>>8)
}
