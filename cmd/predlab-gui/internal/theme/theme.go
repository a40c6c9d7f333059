package theme

import (
	"image/color"

	"gioui.org/unit"
	"gioui.org/widget/material"
)

// Palette defines the experiment screen colors. Behavioral tasks run on a
// plain high-contrast surface; nothing here should draw the eye away from
// the stimulus text.
type Palette struct {
	Background color.NRGBA
	Surface    color.NRGBA
	Primary    color.NRGBA
	Text       color.NRGBA
	TextMuted  color.NRGBA
	Border     color.NRGBA
	Error      color.NRGBA
}

// Config defines the layout metrics.
type Config struct {
	CornerRadius unit.Dp
	Spacing      unit.Dp
	Padding      unit.Dp
	FontStimulus unit.Sp
	FontBody     unit.Sp
	FontCaption  unit.Sp
}

// Theme wraps the material theme with experiment styling.
type Theme struct {
	*material.Theme
	Palette Palette
	Config  Config
}

// NewTheme creates the experiment theme.
func NewTheme(mtheme *material.Theme) *Theme {
	return &Theme{
		Theme: mtheme,
		Palette: Palette{
			Background: color.NRGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF},
			Surface:    color.NRGBA{R: 0xF2, G: 0xF2, B: 0xF2, A: 0xFF},
			Primary:    color.NRGBA{R: 0x2E, G: 0x7D, B: 0x32, A: 0xFF},
			Text:       color.NRGBA{R: 0x11, G: 0x11, B: 0x11, A: 0xFF},
			TextMuted:  color.NRGBA{R: 0x66, G: 0x66, B: 0x66, A: 0xFF},
			Border:     color.NRGBA{R: 0x88, G: 0x88, B: 0x88, A: 0xFF},
			Error:      color.NRGBA{R: 0xC6, G: 0x28, B: 0x28, A: 0xFF},
		},
		Config: Config{
			CornerRadius: unit.Dp(6),
			Spacing:      unit.Dp(12),
			Padding:      unit.Dp(24),
			FontStimulus: unit.Sp(32),
			FontBody:     unit.Sp(18),
			FontCaption:  unit.Sp(13),
		},
	}
}
