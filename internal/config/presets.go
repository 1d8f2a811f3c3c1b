package config

import "sort"

var Presets = map[string]*Config{
	"test": {
		Output: "test.mp4", Width: 64, Height: 64, FPS: 30, Frames: 5,
		Scene: DefaultScene, Motion: "static",
	},
	"preview": {
		Output: "preview.mp4", Width: 320, Height: 320, FPS: 30, Frames: 90,
		Scene: DefaultScene, Motion: "orbit", Amplitude: 4, Turns: 1,
	},
	"hd": {
		Output: "caffeine.mp4", Width: 1080, Height: 1080, FPS: 60, Frames: 600,
		Scene: DefaultScene, Motion: "orbit", Amplitude: 6, Turns: 2,
	},
	"dolly": {
		Output: "dolly.mp4", Width: 480, Height: 480, FPS: 30, Frames: 120,
		Scene: DefaultScene, Motion: "dolly", Amplitude: 12,
	},
}

// GetPreset returns a copy of the named preset with the default camera, or
// nil if there is no such preset.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := *p
	if cfg.Camera == (CameraConfig{}) {
		cfg.Camera = DefaultConfig().Camera
	}
	return &cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
