package gui

import (
	"math"
	"os"
	"path/filepath"

	rl "github.com/gen2brain/raylib-go/raylib"
)

var fontDir = filepath.Join("assets", "fonts")

type typeScaleSet struct {
	Title   int32
	Header  int32
	Body    int32
	Small   int32
	Log     int32
	Readout int32
}

// fontState holds the loaded face. owned is false while the raylib default
// font is in use, which must not be unloaded.
type fontState struct {
	face       rl.Font
	owned      bool
	lineFactor float32
}

var (
	typeScale = AppTheme.Type
	uiFont    = fontState{lineFactor: AppTheme.LineFactor}
)

func initTypography(theme Theme) {
	typeScale = theme.Type
	uiFont = fontState{face: rl.GetFontDefault(), lineFactor: theme.LineFactor}
	if path, ok := firstFont(fontDir, theme.Fonts); ok {
		if f := rl.LoadFontEx(path, theme.FontSize, nil, 0); f.Texture.ID != 0 {
			uiFont.face = f
			uiFont.owned = true
		}
	}
	rl.SetTextureFilter(uiFont.face.Texture, rl.FilterBilinear)
}

func shutdownTypography() {
	if uiFont.owned && uiFont.face.Texture.ID != 0 {
		rl.UnloadFont(uiFont.face)
	}
	uiFont = fontState{lineFactor: AppTheme.LineFactor}
}

func firstFont(dir string, names []string) (string, bool) {
	for _, name := range names {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
	}
	return "", false
}

// labelSize scales cell labels with the on-screen cell so dense lattices stay
// legible. Zero means the label should be skipped.
func labelSize(cellSize float32, scale typeScaleSet) int32 {
	size := int32(cellSize * 0.22)
	if size < 9 {
		return 0
	}
	if size > scale.Readout {
		return scale.Readout
	}
	return size
}

func drawText(text string, x, y, fontSize int32, clr rl.Color) {
	if uiFont.face.Texture.ID == 0 {
		rl.DrawText(text, x, y, fontSize, clr)
		return
	}
	rl.DrawTextEx(uiFont.face, text, rl.Vector2{X: float32(x), Y: float32(y)}, float32(fontSize), 1, clr)
}

func measureText(text string, fontSize int32) int32 {
	if uiFont.face.Texture.ID == 0 {
		return int32(rl.MeasureText(text, fontSize))
	}
	return int32(math.Round(float64(rl.MeasureTextEx(uiFont.face, text, float32(fontSize), 1).X)))
}

func textLineHeight(size int32) int32 {
	if size < 1 {
		size = 1
	}
	return int32(math.Round(float64(size) * float64(uiFont.lineFactor)))
}
