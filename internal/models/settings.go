// internal/models/settings.go
package models

import (
	"errors"
	"fmt"
)

type Theme string

const (
	ThemeDefault Theme = "default"
	ThemeOcean   Theme = "ocean"
	ThemeForest  Theme = "forest"
	ThemeSunrise Theme = "sunrise"
)

type FontSize string

const (
	FontSizeSmall  FontSize = "sm"
	FontSizeMedium FontSize = "md"
	FontSizeLarge  FontSize = "lg"
)

// Settings applies to whichever account is active.
type Settings struct {
	Theme           Theme    `json:"theme"`
	FontSize        FontSize `json:"font_size"`
	BackgroundImage string   `json:"background_image"`
}

// ErrInvalidSettings wraps every validation failure.
var ErrInvalidSettings = errors.New("invalid settings")

func DefaultSettings() Settings {
	return Settings{Theme: ThemeDefault, FontSize: FontSizeMedium}
}

func (s Settings) Validate() error {
	switch s.Theme {
	case ThemeDefault, ThemeOcean, ThemeForest, ThemeSunrise:
	default:
		return fmt.Errorf("%w: unknown theme %q", ErrInvalidSettings, s.Theme)
	}
	switch s.FontSize {
	case FontSizeSmall, FontSizeMedium, FontSizeLarge:
	default:
		return fmt.Errorf("%w: unknown font size %q", ErrInvalidSettings, s.FontSize)
	}
	return nil
}
