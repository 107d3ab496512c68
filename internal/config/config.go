// Package config holds the application configuration model and its
// persistence. A Config is always fully populated: deserializing a partial
// document substitutes defaults for anything missing, so no component ever
// observes a half-built configuration. Range and enum validation is a
// presentation-layer concern; consumers tolerate out-of-range values.
package config

import (
	"github.com/pelletier/go-toml/v2"
)

// VideoSettings controls scaling and encoding of the output video.
type VideoSettings struct {
	UpscaleFactor    string  `toml:"upscale_factor"`
	CustomScale      float64 `toml:"custom_scale"`
	OutputResolution string  `toml:"output_resolution"`
	FrameRateMode    string  `toml:"frame_rate_mode"`
	CustomFPS        float64 `toml:"custom_fps"`
	Codec            string  `toml:"codec"`
	Bitrate          string  `toml:"bitrate"`
	CustomBitrate    int     `toml:"custom_bitrate"`
}

// AISettings selects and tunes the upscaling model.
type AISettings struct {
	ModelName         string `toml:"model_name"`
	DenoiseStrength   int    `toml:"denoise_strength"`
	Sharpening        int    `toml:"sharpening"`
	ArtifactReduction bool   `toml:"artifact_reduction"`
	FaceEnhancement   bool   `toml:"face_enhancement"`
}

// PerformanceSettings controls how hard the pipeline pushes the machine.
type PerformanceSettings struct {
	ProcessingMode string `toml:"processing_mode"`
	VRAMLimitGB    int    `toml:"vram_limit_gb"`
	Multithreading bool   `toml:"multithreading"`
	BatchMode      bool   `toml:"batch_mode"`
}

// ExportSettings controls where and how the result is written.
type ExportSettings struct {
	OutputFolder  string `toml:"output_folder"`
	FileFormat    string `toml:"file_format"`
	RenameFile    string `toml:"rename_file"`
	AutoOverwrite bool   `toml:"auto_overwrite"`
	Preset        string `toml:"preset"`
}

// Config is the complete application configuration.
type Config struct {
	Video       VideoSettings       `toml:"video"`
	AI          AISettings          `toml:"ai"`
	Performance PerformanceSettings `toml:"performance"`
	Export      ExportSettings      `toml:"export"`
	Theme       string              `toml:"theme"`
}

// Default returns a configuration with every field populated.
func Default() Config {
	return Config{
		Video: VideoSettings{
			UpscaleFactor:    "2x",
			CustomScale:      2.0,
			OutputResolution: "",
			FrameRateMode:    "keep",
			CustomFPS:        30.0,
			Codec:            "H264",
			Bitrate:          "Medium",
			CustomBitrate:    8000,
		},
		AI: AISettings{
			ModelName:         "Real-ESRGAN General",
			DenoiseStrength:   30,
			Sharpening:        20,
			ArtifactReduction: true,
			FaceEnhancement:   false,
		},
		Performance: PerformanceSettings{
			ProcessingMode: "GPU",
			VRAMLimitGB:    4,
			Multithreading: true,
			BatchMode:      false,
		},
		Export: ExportSettings{
			OutputFolder:  "output",
			FileFormat:    "MP4",
			RenameFile:    "",
			AutoOverwrite: false,
			Preset:        "Custom",
		},
		Theme: "dark",
	}
}

// ToDocument serializes the configuration to a TOML document.
func (c Config) ToDocument() ([]byte, error) {
	return toml.Marshal(c)
}

// FromDocument reconstructs a configuration from a TOML document. Missing
// keys or tables fall back to defaults and are never an error. A malformed
// document returns the error alongside a fully defaulted configuration, so
// the result is usable either way.
func FromDocument(data []byte) (Config, error) {
	cfg := Default()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Default(), err
	}
	return cfg, nil
}

// ExportPreset is a named bundle of export overrides applied atomically.
type ExportPreset struct {
	Resolution string
	Codec      string
	Bitrate    string
}

var exportPresets = map[string]ExportPreset{
	"YouTube 4K": {Resolution: "3840x2160", Codec: "H265", Bitrate: "High"},
	"TikTok HD":  {Resolution: "1080x1920", Codec: "H264", Bitrate: "Medium"},
	"Cinema 4K":  {Resolution: "4096x2160", Codec: "AV1", Bitrate: "High"},
}

// PresetNames lists the selectable export presets, "Custom" first.
func PresetNames() []string {
	return []string{"Custom", "YouTube 4K", "TikTok HD", "Cinema 4K"}
}

// ApplyPreset records the preset selection and, for a named preset, applies
// its resolution/codec/bitrate overrides in one step. "Custom" and unknown
// names leave the overridable fields untouched.
func (c *Config) ApplyPreset(name string) {
	c.Export.Preset = name
	preset, ok := exportPresets[name]
	if !ok {
		return
	}
	c.Video.OutputResolution = preset.Resolution
	c.Video.Codec = preset.Codec
	c.Video.Bitrate = preset.Bitrate
}
