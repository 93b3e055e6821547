package gui

import (
	"math"
	"strconv"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/appengine-ltd/reactor/internal/reactor"
)

// coreGeometry maps lattice world units onto a screen rectangle. CellSize
// is the on-screen size of one lattice step.
type coreGeometry struct {
	OriginX  float32
	OriginY  float32
	CellSize float32
	Cols     int
	Rows     int
	DrawRect rl.Rectangle
	spacing  float64
}

func computeCoreGeometry(area rl.Rectangle, cols, rows int, spacing float64) (coreGeometry, bool) {
	if cols <= 0 || rows <= 0 || spacing <= 0 || area.Width <= 1 || area.Height <= 1 {
		return coreGeometry{}, false
	}
	cellSize := float32(math.Min(float64(area.Width/float32(cols)), float64(area.Height/float32(rows))))
	if cellSize < 1 {
		cellSize = 1
	}
	drawWidth := cellSize * float32(cols)
	drawHeight := cellSize * float32(rows)
	originX := area.X + (area.Width-drawWidth)/2
	originY := area.Y + (area.Height-drawHeight)/2
	return coreGeometry{
		OriginX:  originX,
		OriginY:  originY,
		CellSize: cellSize,
		Cols:     cols,
		Rows:     rows,
		DrawRect: rl.NewRectangle(originX, originY, drawWidth, drawHeight),
		spacing:  spacing,
	}, true
}

func (g coreGeometry) scale() float32 {
	return g.CellSize / float32(g.spacing)
}

func (g coreGeometry) centre() rl.Vector2 {
	return rl.Vector2{X: g.DrawRect.X + g.DrawRect.Width/2, Y: g.DrawRect.Y + g.DrawRect.Height/2}
}

func (g coreGeometry) worldToScreen(x, y float64) rl.Vector2 {
	c := g.centre()
	s := g.scale()
	return rl.Vector2{X: c.X + float32(x)*s, Y: c.Y + float32(y)*s}
}

func (g coreGeometry) screenToWorld(p rl.Vector2) (float64, float64) {
	c := g.centre()
	s := g.scale()
	return float64((p.X - c.X) / s), float64((p.Y - c.Y) / s)
}

func (g coreGeometry) positionToScreen(pos reactor.Position) rl.Vector2 {
	return g.worldToScreen(float64(pos.X)*g.spacing, float64(pos.Y)*g.spacing)
}

// pickCell returns the cell whose centre lies within radius world units of
// the screen point.
func pickCell(g coreGeometry, cells []reactor.Cell, p rl.Vector2, radius float64) (reactor.CellID, bool) {
	wx, wy := g.screenToWorld(p)
	best := reactor.CellID(-1)
	bestDist := radius
	for _, cell := range cells {
		dx := wx - float64(cell.Pos.X)*g.spacing
		dy := wy - float64(cell.Pos.Y)*g.spacing
		if d := math.Hypot(dx, dy); d <= bestDist {
			best = cell.ID
			bestDist = d
		}
	}
	return best, best >= 0
}

var (
	tempCold = rl.NewColor(70, 130, 220, 255)
	tempWarm = rl.NewColor(255, 190, 92, 255)
	tempHot  = rl.NewColor(242, 84, 84, 255)
)

func temperatureColor(t float64) rl.Color {
	switch {
	case t <= reactor.DefaultTemperature:
		return tempCold
	case t <= 150:
		return lerpColor(tempCold, tempWarm, (t-reactor.DefaultTemperature)/(150-reactor.DefaultTemperature))
	case t <= 300:
		return lerpColor(tempWarm, tempHot, (t-150)/150)
	default:
		return tempHot
	}
}

func lerpColor(a, b rl.Color, t float64) rl.Color {
	t = math.Max(0, math.Min(1, t))
	mix := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x) + (float64(y)-float64(x))*t))
	}
	return rl.NewColor(mix(a.R, b.R), mix(a.G, b.G), mix(a.B, b.B), mix(a.A, b.A))
}

func (ui *gameUI) drawCore(area rl.Rectangle, snap reactor.Snapshot) {
	cfg := ui.session.Config()
	geo, ok := computeCoreGeometry(area, snap.Columns, snap.Rows, snap.Spacing)
	if !ok {
		return
	}
	ui.geometry = geo
	s := geo.scale()

	for _, e := range snap.Edges {
		a, okA := snap.Cell(e.A)
		b, okB := snap.Cell(e.B)
		if !okA || !okB {
			continue
		}
		clr := colorEdge
		thick := float32(1.5)
		if e.Coolant {
			clr = colorCoolantEdge
			thick = 4
		}
		glow := float32(math.Min(1, math.Max(0.25, e.Reactivity)))
		rl.DrawLineEx(geo.positionToScreen(a.Pos), geo.positionToScreen(b.Pos), thick, rl.Fade(clr, glow))
	}

	for _, rod := range snap.Rods {
		p := geo.positionToScreen(rod.Pos)
		size := float32(cfg.RodRadius) * s * 1.4
		rect := rl.NewRectangle(p.X-size/2, p.Y-size/2, size, size)
		rl.DrawRectangleRec(rect, rl.Fade(colorRod, 0.25+0.75*float32(rod.Insertion)))
		rl.DrawRectangleLinesEx(rect, 1, colorBorder)
	}

	for _, cell := range snap.Cells {
		p := geo.positionToScreen(cell.Pos)
		water := float32(cfg.WaterRadius) * s
		rl.DrawCircleV(p, water, rl.Fade(colorWater, 0.15+0.7*float32(cell.CoolantLevel)))
		if cell.SteamLevel > 0 {
			rl.DrawCircleV(p, water*0.85, rl.Fade(colorSteam, float32(cell.SteamLevel)*0.8))
		}
		fuel := temperatureColor(cell.Temperature)
		if cell.Fuel == reactor.FuelXenon {
			fuel = lerpColor(fuel, colorXenon, 0.6)
		}
		rl.DrawCircleV(p, float32(cfg.FuelRadius)*s, fuel)
		if int(cell.ID)+1 == ui.console.Selected() {
			rl.DrawCircleLines(int32(p.X), int32(p.Y), water+3, colorAccent)
		}
		if size := labelSize(geo.CellSize, typeScale); size > 0 {
			label := strconv.Itoa(int(cell.ID) + 1)
			drawText(label, int32(p.X)-measureText(label, size)/2, int32(p.Y)-size/2, size, colorBG)
		}
	}

	for _, n := range snap.Neutrons {
		alpha := float32(1)
		if n.Dying {
			alpha = float32(n.Fade)
		}
		rl.DrawCircleV(geo.worldToScreen(n.X, n.Y), 2.5, rl.Fade(colorNeutron, alpha))
	}
}
