package settings

import (
	"fmt"
	"os"

	"github.com/spf13/viper"

	"gridlock/server/internal/geom"
)

// Quality is the recognized graphics preset set.
type Quality string

const (
	QualityLow    Quality = "Low"
	QualityMedium Quality = "Medium"
	QualityHigh   Quality = "High"
	QualityUltra  Quality = "Ultra"
)

// Settings mirrors the client-facing options surface. Only gameplay
// sensitivity/invertY feed the simulation core; the rest is forwarded to the
// presentation layer untouched.
type Settings struct {
	Audio    AudioSettings    `json:"audio" mapstructure:"audio"`
	Graphics GraphicsSettings `json:"graphics" mapstructure:"graphics"`
	Gameplay GameplaySettings `json:"gameplay" mapstructure:"gameplay"`
}

type AudioSettings struct {
	Master float64 `json:"master" mapstructure:"master"`
	Music  float64 `json:"music" mapstructure:"music"`
	SFX    float64 `json:"sfx" mapstructure:"sfx"`
}

type GraphicsSettings struct {
	Resolution       string  `json:"resolution" mapstructure:"resolution"`
	Quality          Quality `json:"quality" mapstructure:"quality"`
	VSync            bool    `json:"vsync" mapstructure:"vsync"`
	AmbientOcclusion bool    `json:"ambientOcclusion" mapstructure:"ambientOcclusion"`
	Bloom            bool    `json:"bloom" mapstructure:"bloom"`
}

type GameplaySettings struct {
	Sensitivity float64 `json:"sensitivity" mapstructure:"sensitivity"`
	InvertY     bool    `json:"invertY" mapstructure:"invertY"`
	ShowHUD     bool    `json:"showHud" mapstructure:"showHud"`
}

// Default returns the settings applied before any file or client override.
func Default() Settings {
	return Settings{
		Audio: AudioSettings{Master: 0.8, Music: 0.6, SFX: 0.8},
		Graphics: GraphicsSettings{
			Resolution: "1920x1080",
			Quality:    QualityHigh,
			VSync:      true,
			Bloom:      true,
		},
		Gameplay: GameplaySettings{Sensitivity: 50, InvertY: false, ShowHUD: true},
	}
}

// Normalized clamps every numeric field into its valid range and falls back
// to defaults for unrecognized enum values. Callers never trust raw values.
func (s Settings) Normalized() Settings {
	s.Audio.Master = geom.Clamp(s.Audio.Master, 0, 1)
	s.Audio.Music = geom.Clamp(s.Audio.Music, 0, 1)
	s.Audio.SFX = geom.Clamp(s.Audio.SFX, 0, 1)

	switch s.Graphics.Quality {
	case QualityLow, QualityMedium, QualityHigh, QualityUltra:
	default:
		s.Graphics.Quality = QualityHigh
	}
	if s.Graphics.Resolution == "" {
		s.Graphics.Resolution = Default().Graphics.Resolution
	}

	s.Gameplay.Sensitivity = geom.Clamp(s.Gameplay.Sensitivity, 1, 100)
	return s
}

// Load reads settings from the named file, merging over defaults. A missing
// file is not an error; malformed values are clamped by Normalized.
func Load(path string) (Settings, error) {
	settings := Default()
	if path == "" {
		return settings, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")

	if err := v.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			return settings, nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return settings, nil
		}
		return settings, fmt.Errorf("read settings file: %w", err)
	}

	if err := v.Unmarshal(&settings); err != nil {
		return Default(), fmt.Errorf("decode settings file: %w", err)
	}

	return settings.Normalized(), nil
}
