package gui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"
)

type Theme struct {
	Background  rl.Color
	Panel       rl.Color
	PanelRaised rl.Color
	Border      rl.Color
	Text        rl.Color
	TextDim     rl.Color
	Accent      rl.Color
	Warning     rl.Color
	Danger      rl.Color

	Edge        rl.Color
	CoolantEdge rl.Color
	Water       rl.Color
	Steam       rl.Color
	Rod         rl.Color
	Xenon       rl.Color
	Neutron     rl.Color

	// Fonts are tried in order under assets/fonts; the raylib default font
	// is the fallback.
	Fonts      []string
	FontSize   int32
	Type       typeScaleSet
	LineFactor float32
}

const (
	spaceS = 8
	spaceM = 14
	spaceL = 20
)

// Control-room green on near-black, with the core in water blue.
var AppTheme = Theme{
	Background:  rl.NewColor(6, 12, 10, 255),
	Panel:       rl.NewColor(12, 24, 18, 255),
	PanelRaised: rl.NewColor(18, 34, 26, 255),
	Border:      rl.NewColor(25, 200, 120, 255),
	Text:        rl.NewColor(175, 245, 195, 255),
	TextDim:     rl.NewColor(108, 165, 124, 255),
	Accent:      rl.NewColor(60, 255, 145, 255),
	Warning:     rl.NewColor(255, 198, 96, 255),
	Danger:      rl.NewColor(242, 84, 84, 255),

	Edge:        rl.NewColor(60, 90, 76, 255),
	CoolantEdge: rl.NewColor(80, 160, 240, 255),
	Water:       rl.NewColor(40, 110, 200, 255),
	Steam:       rl.NewColor(225, 232, 240, 255),
	Rod:         rl.NewColor(150, 150, 165, 255),
	Xenon:       rl.NewColor(150, 90, 210, 255),
	Neutron:     rl.NewColor(255, 255, 190, 255),

	Fonts:    []string{"JetBrainsMono-Regular.ttf", "IBMPlexMono-Regular.ttf", "DejaVuSansMono.ttf"},
	FontSize: 36,
	Type: typeScaleSet{
		Title:   32,
		Header:  20,
		Body:    18,
		Small:   15,
		Log:     16,
		Readout: 22,
	},
	LineFactor: 1.34,
}

var (
	colorBG          = AppTheme.Background
	colorPanel       = AppTheme.Panel
	colorBorder      = AppTheme.Border
	colorText        = AppTheme.Text
	colorDim         = AppTheme.TextDim
	colorAccent      = AppTheme.Accent
	colorWarn        = AppTheme.Warning
	colorDanger      = AppTheme.Danger
	colorEdge        = AppTheme.Edge
	colorCoolantEdge = AppTheme.CoolantEdge
	colorWater       = AppTheme.Water
	colorSteam       = AppTheme.Steam
	colorRod         = AppTheme.Rod
	colorXenon       = AppTheme.Xenon
	colorNeutron     = AppTheme.Neutron
)

func drawPanel(rect rl.Rectangle, title string) {
	rl.DrawRectangleRounded(rect, 0.04, 8, colorPanel)
	rl.DrawRectangleRoundedLinesEx(rect, 0.04, 8, 2, colorBorder)
	if title != "" {
		drawText(title, int32(rect.X)+12, int32(rect.Y)+8, typeScale.Header, colorAccent)
	}
}

func drawTextCentered(text string, rect rl.Rectangle, yOffset int32, fontSize int32, clr rl.Color) {
	width := measureText(text, fontSize)
	x := int32(rect.X + (rect.Width-float32(width))/2)
	drawText(text, x, int32(rect.Y)+yOffset, fontSize, clr)
}

func drawUILine(x1 float32, y1 float32, x2 float32, y2 float32, thickness float32, clr rl.Color) {
	rl.DrawLineEx(rl.Vector2{X: x1, Y: y1}, rl.Vector2{X: x2, Y: y2}, thickness, clr)
}

// drawStatBar draws a labelled percentage bar. With danger set, a high
// value is bad rather than good.
func drawStatBar(rect rl.Rectangle, label string, value int, danger bool) {
	v := clampInt(value, 0, 100)
	fillWidth := (rect.Width - 2) * float32(v) / 100
	if fillWidth < 0 {
		fillWidth = 0
	}
	drawText(fmt.Sprintf("%s %d%%", label, v), int32(rect.X)+2, int32(rect.Y)-16, typeScale.Small, colorText)
	rl.DrawRectangleRec(rect, rl.NewColor(8, 16, 12, 255))
	if fillWidth > 0 {
		fill := rl.NewRectangle(rect.X+1, rect.Y+1, fillWidth, rect.Height-2)
		rl.DrawRectangleRec(fill, barColor(v, danger))
	}
	rl.DrawRectangleLinesEx(rect, 1.4, rl.Fade(colorBorder, 0.75))
}

func barColor(value int, danger bool) rl.Color {
	v := clampInt(value, 0, 100)
	if danger {
		v = 100 - v
	}
	if v >= 70 {
		return rl.NewColor(60, 236, 136, 230)
	}
	if v >= 40 {
		return rl.NewColor(255, 190, 92, 235)
	}
	return rl.NewColor(242, 84, 84, 230)
}

// percent maps value within [0, max] onto 0..100.
func percent(value, max float64) int {
	if max <= 0 {
		return 0
	}
	return clampInt(int(value/max*100+0.5), 0, 100)
}
