package gui

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/appengine-ltd/reactor/internal/autopilot"
	"github.com/appengine-ltd/reactor/internal/config"
	"github.com/appengine-ltd/reactor/internal/console"
	"github.com/appengine-ltd/reactor/internal/logging"
	"github.com/appengine-ltd/reactor/internal/parser"
	"github.com/appengine-ltd/reactor/internal/reactor"
	"github.com/appengine-ltd/reactor/internal/scoreboard"
)

type AppConfig struct {
	Version   string
	Commit    string
	BuildDate string
	Config    *config.Config
	Logger    *slog.Logger
	// Scores is optional; without it finished shifts are not recorded.
	Scores    *scoreboard.Store
	Autopilot bool
}

type App struct {
	cfg AppConfig
}

func NewApp(cfg AppConfig) *App {
	return &App{cfg: cfg}
}

type screen int

const (
	screenMenu screen = iota
	screenRun
	screenGameOver
	screenScores
)

type menuAction int

const (
	actionStart menuAction = iota
	actionResume
	actionScores
	actionQuit
)

type menuItem struct {
	Label  string
	Action menuAction
}

const (
	maxRunMessages   = 260
	maxInputLen      = 120
	maxLinesPerFrame = 8
	scoreRows        = 12
)

type gameUI struct {
	cfg      AppConfig
	settings *config.Config
	log      *slog.Logger

	width    int32
	height   int32
	screen   screen
	quit     bool
	lastTick time.Time

	menuCursor int
	status     string

	session  *reactor.Session
	console  *console.Console
	parser   *parser.Parser
	pilot    *autopilot.Pilot
	lines    *consoleQueue
	snap     reactor.Snapshot
	geometry coreGeometry

	runInput    string
	runMessages []string

	over       *reactor.GameOver
	overEntry  *scoreboard.Entry
	scores     []scoreboard.Entry
	scoresNote string
}

func (a *App) Run() error {
	ui := newGameUI(a.cfg)
	return ui.Run()
}

func newGameUI(cfg AppConfig) *gameUI {
	settings := cfg.Config
	if settings == nil {
		settings = config.Default()
	}
	log := cfg.Logger
	if log == nil {
		log = logging.Discard()
	}
	ui := &gameUI{
		cfg:      cfg,
		settings: settings,
		log:      log,
		width:    1366,
		height:   768,
		screen:   screenMenu,
		parser:   parser.New(),
		lines:    newConsoleQueue(32),
		pilot:    autopilot.New(settings.Autopilot.Settings(), log),
	}
	ui.lastTick = time.Now()
	return ui
}

func (ui *gameUI) Run() error {
	rl.SetConfigFlags(rl.FlagWindowResizable | rl.FlagMsaa4xHint)
	rl.InitWindow(ui.width, ui.height, "reactor")
	rl.SetExitKey(0)
	rl.SetTargetFPS(60)
	initTypography(AppTheme)
	defer shutdownTypography()

	for !ui.quit && !rl.WindowShouldClose() {
		now := time.Now()
		delta := now.Sub(ui.lastTick)
		if delta < 0 {
			delta = 0
		}
		ui.lastTick = now

		ui.width = int32(rl.GetScreenWidth())
		ui.height = int32(rl.GetScreenHeight())

		ui.update(delta)

		rl.BeginDrawing()
		rl.ClearBackground(colorBG)
		ui.draw()
		rl.EndDrawing()
	}

	// Closing the window mid-shift still counts as walking away.
	if ui.session != nil && ui.over == nil {
		ui.session.Abandon()
	}
	rl.CloseWindow()
	return nil
}

func (ui *gameUI) update(delta time.Duration) {
	switch ui.screen {
	case screenMenu:
		ui.updateMenu()
	case screenRun:
		ui.updateRun(delta)
	case screenGameOver:
		ui.updateGameOver()
	case screenScores:
		ui.updateScores()
	}
}

func (ui *gameUI) draw() {
	switch ui.screen {
	case screenMenu:
		ui.drawMenu()
	case screenRun:
		ui.drawRun()
	case screenGameOver:
		ui.drawRun()
		ui.drawGameOver()
	case screenScores:
		ui.drawScores()
	}
}

func (ui *gameUI) menuItems() []menuItem {
	items := make([]menuItem, 0, 4)
	if ui.session != nil && ui.over == nil {
		items = append(items, menuItem{Label: "Resume Shift", Action: actionResume})
	}
	items = append(items, menuItem{Label: "New Shift", Action: actionStart})
	if ui.cfg.Scores != nil {
		items = append(items, menuItem{Label: "Scoreboard", Action: actionScores})
	}
	return append(items, menuItem{Label: "Quit", Action: actionQuit})
}

func (ui *gameUI) updateMenu() {
	items := ui.menuItems()
	ui.menuCursor = clampInt(ui.menuCursor, 0, len(items)-1)
	if rl.IsKeyPressed(rl.KeyDown) {
		ui.menuCursor = wrapIndex(ui.menuCursor+1, len(items))
	}
	if rl.IsKeyPressed(rl.KeyUp) {
		ui.menuCursor = wrapIndex(ui.menuCursor-1, len(items))
	}
	if rl.IsKeyPressed(rl.KeyEnter) {
		switch items[ui.menuCursor].Action {
		case actionStart:
			if ui.session != nil && ui.over == nil {
				ui.session.Abandon()
			}
			ui.startRun()
		case actionResume:
			ui.session.SetPaused(false)
			ui.screen = screenRun
		case actionScores:
			ui.openScores()
		case actionQuit:
			ui.quit = true
		}
	}
	if rl.IsKeyPressed(rl.KeyQ) {
		ui.quit = true
	}
}

func (ui *gameUI) drawMenu() {
	titleRect := rl.NewRectangle(20, 20, float32(ui.width-40), 120)
	drawPanel(titleRect, "REACTOR")
	drawTextCentered(fmt.Sprintf("v%s (%s) %s", ui.cfg.Version, ui.cfg.Commit, ui.cfg.BuildDate), titleRect, 42, typeScale.Body, colorDim)
	if ui.status != "" {
		drawTextCentered(ui.status, titleRect, 74, typeScale.Small, colorWarn)
	}

	items := ui.menuItems()
	menuRect := rl.NewRectangle(float32(ui.width/2-230), 185, 460, float32(110+len(items)*72))
	drawPanel(menuRect, "Control Room")
	for i, item := range items {
		y := int32(menuRect.Y) + 60 + int32(i*72)
		r := rl.NewRectangle(menuRect.X+36, float32(y), menuRect.Width-72, 52)
		clr := colorText
		if i == ui.menuCursor {
			rl.DrawRectangleRounded(r, 0.3, 8, rl.Fade(colorAccent, 0.2))
			rl.DrawRectangleRoundedLinesEx(r, 0.3, 8, 2, colorAccent)
			clr = colorAccent
		} else {
			rl.DrawRectangleRounded(r, 0.3, 8, rl.Fade(colorPanel, 0.7))
			rl.DrawRectangleRoundedLinesEx(r, 0.3, 8, 1.5, colorBorder)
		}
		drawText(item.Label, int32(r.X)+18, y+14, typeScale.Title-6, clr)
	}

	hintRect := rl.NewRectangle(20, float32(ui.height-64), float32(ui.width-40), 40)
	drawTextCentered("Up/Down to move, Enter to select, Q to quit", hintRect, 8, typeScale.Small, colorDim)
}

func (ui *gameUI) startRun() {
	session, err := reactor.NewSession(ui.settings.Simulation, reactor.WithLogger(ui.log))
	if err != nil {
		ui.status = "Reactor failed to start: " + err.Error()
		ui.log.Error("start session", "err", err)
		return
	}
	ui.session = session
	ui.console = console.New()
	ui.console.SetAutopilot(ui.cfg.Autopilot)
	ui.over = nil
	ui.overEntry = nil
	ui.runInput = ""
	ui.runMessages = nil
	ui.status = ""
	session.OnGameOver(ui.gameOver)
	ui.snap = session.Snapshot()
	ui.appendRunMessage(fmt.Sprintf("Reactor online, seed %d. Type help for commands.", session.Seed()))
	if ui.cfg.Autopilot {
		ui.appendRunMessage("Autopilot engaged.")
	}
	ui.screen = screenRun
}

func (ui *gameUI) gameOver(over reactor.GameOver) {
	ui.over = &over
	ui.appendRunMessage(over.Summary())
	if ui.cfg.Scores != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		entry, err := ui.cfg.Scores.Record(ctx, over)
		if err != nil {
			ui.log.Error("record score", "session", over.SessionID, "err", err)
			ui.status = "Score not saved: " + err.Error()
		} else {
			ui.overEntry = &entry
		}
	}
	ui.screen = screenGameOver
}

func (ui *gameUI) updateRun(delta time.Duration) {
	if ui.session == nil {
		ui.screen = screenMenu
		return
	}
	if rl.IsKeyPressed(rl.KeyEscape) {
		ui.session.SetPaused(true)
		ui.screen = screenMenu
		return
	}

	if rl.IsMouseButtonPressed(rl.MouseButtonLeft) {
		cfg := ui.session.Config()
		if id, ok := pickCell(ui.geometry, ui.snap.Cells, rl.GetMousePosition(), cfg.WaterRadius); ok {
			ui.submitLine(fmt.Sprintf("select %d", id+1), sourceClick)
		}
	}

	if HotkeysEnabled(ui) {
		if rl.IsKeyPressed(rl.KeyTab) {
			ui.console.Select(cycleSelection(ui.console.Selected(), len(ui.snap.Cells), shiftDown()))
		}
		for _, hk := range runHotkeys {
			if !rl.IsKeyPressed(hk.Key) {
				continue
			}
			if line := hk.Line(ui); line != "" {
				ui.submitLine(line, sourceHotkey)
			}
		}
	}

	captureTextInput(&ui.runInput, maxInputLen)
	if rl.IsKeyPressed(rl.KeyEnter) {
		ui.submitRunInput()
	}

	for _, line := range ui.lines.drain(maxLinesPerFrame) {
		if line.Source == sourceHotkey {
			ui.appendRunMessage("> " + line.Raw)
		}
		ui.applyResult(ui.console.Translate(ui.snap, line.Intent))
	}

	if ui.console.Autopilot() && !ui.session.Paused() {
		for _, cmd := range ui.pilot.Plan(ui.snap) {
			ui.session.Enqueue(cmd)
		}
	}
	ui.session.Advance(delta)
	ui.snap = ui.session.Snapshot()
}

func (ui *gameUI) submitRunInput() {
	line := strings.TrimSpace(ui.runInput)
	ui.runInput = ""
	if line == "" {
		ui.status = "Enter a command."
		return
	}
	ui.appendRunMessage("> " + line)
	ui.submitLine(line, sourceTyped)
}

func (ui *gameUI) submitLine(raw string, source lineSource) {
	line := consoleLine{
		Raw:    raw,
		Intent: ui.parser.Parse(ui.console.Context(ui.snap), raw),
		Source: source,
	}
	if !ui.lines.push(line) {
		ui.status = "Console busy, input dropped."
		ui.log.Warn("console queue full, dropping input", "line", raw, "dropped", ui.lines.Dropped())
	}
}

func (ui *gameUI) applyResult(res console.Result) {
	if !res.Handled {
		ui.status = res.Message
		return
	}
	ui.status = ""
	ui.appendRunMessage(res.Message)
	for _, cmd := range res.Commands {
		if !ui.session.Enqueue(cmd) {
			ui.status = "Command queue full, try again."
		}
	}
	switch res.Action {
	case console.ActionPause:
		ui.session.SetPaused(true)
	case console.ActionResume:
		ui.session.SetPaused(false)
	case console.ActionAbandon:
		ui.session.Abandon()
	}
	ui.log.Debug("console input", "verb", res.Intent.Verb, "commands", len(res.Commands), "action", res.Action)
}

// selectedValve returns the 1-based valve of the selected cell, or 0.
func (ui *gameUI) selectedValve() int {
	if ui.console == nil {
		return 0
	}
	cell, ok := ui.snap.Cell(reactor.CellID(ui.console.Selected() - 1))
	if !ok {
		return 0
	}
	return int(cell.Valve) + 1
}

type runLayout struct {
	core  rl.Rectangle
	hud   rl.Rectangle
	log   rl.Rectangle
	input rl.Rectangle
}

func computeRunLayout(width, height int32) runLayout {
	outer := rl.NewRectangle(20, 20, float32(width-40), float32(height-40))
	inputH := float32(44)
	logH := float32(150)
	if outer.Height < 560 {
		logH = 110
	}
	splitX := outer.X + outer.Width*0.62
	bodyH := outer.Height - logH - inputH - 2*spaceS
	return runLayout{
		core:  rl.NewRectangle(outer.X, outer.Y, splitX-outer.X-spaceS, bodyH),
		hud:   rl.NewRectangle(splitX, outer.Y, outer.X+outer.Width-splitX, bodyH),
		log:   rl.NewRectangle(outer.X, outer.Y+bodyH+spaceS, outer.Width, logH),
		input: rl.NewRectangle(outer.X, outer.Y+bodyH+logH+2*spaceS, outer.Width, inputH),
	}
}

func (ui *gameUI) drawRun() {
	if ui.session == nil {
		return
	}
	layout := computeRunLayout(ui.width, ui.height)
	snap := ui.snap

	title := fmt.Sprintf("Core  |  tick %d  |  %s", snap.Tick, snap.Phase)
	if snap.Paused {
		title += "  |  PAUSED"
	}
	drawPanel(layout.core, title)
	coreArea := rl.NewRectangle(layout.core.X+spaceM, layout.core.Y+40, layout.core.Width-2*spaceM, layout.core.Height-40-spaceM)
	ui.drawCore(coreArea, snap)
	if snap.Warnings.Overpressure {
		alarm := rl.Fade(colorDanger, float32(0.15+0.6*snap.Warnings.Pulse))
		rl.DrawRectangleRoundedLinesEx(layout.core, 0.04, 8, 6, alarm)
	}

	ui.drawHUD(layout.hud, snap)
	ui.drawMessageLog(layout.log)

	drawPanel(layout.input, "")
	prompt := "> " + ui.runInput
	if (time.Now().UnixMilli()/500)%2 == 0 {
		prompt += "_"
	}
	drawText(prompt, int32(layout.input.X)+spaceM, int32(layout.input.Y)+12, typeScale.Body, colorAccent)
	if ui.status != "" {
		w := measureText(ui.status, typeScale.Small)
		drawText(ui.status, int32(layout.input.X+layout.input.Width)-w-spaceM, int32(layout.input.Y)+14, typeScale.Small, colorWarn)
	}
}

func (ui *gameUI) drawHUD(rect rl.Rectangle, snap reactor.Snapshot) {
	cfg := ui.session.Config()
	drawPanel(rect, "Grid")
	x := int32(rect.X) + spaceM
	y := int32(rect.Y) + 44
	line := func(text string, clr rl.Color) {
		drawText(text, x, y, typeScale.Body, clr)
		y += textLineHeight(typeScale.Body)
	}

	if snap.Warnings.Tutorial {
		line("Grid not yet connected", colorDim)
	} else {
		line(fmt.Sprintf("Demand   %.2f", snap.Power.Demand), colorText)
	}
	line(fmt.Sprintf("Buffer   %.2f", snap.Power.Buffer), colorText)
	line(fmt.Sprintf("Steam    %.2f", snap.Power.StoredSteam), colorText)
	line(fmt.Sprintf("Neutrons %d", len(snap.Neutrons)), colorText)
	powerColor := colorText
	switch snap.Warnings.Power {
	case reactor.PowerLow:
		powerColor = colorWarn
	case reactor.PowerOutage:
		powerColor = colorDanger
	}
	line("Power    "+snap.Warnings.Power.String(), powerColor)
	auto := "off"
	if ui.console.Autopilot() {
		auto = "on"
	}
	line("Autopilot "+auto, colorDim)

	barW := rect.Width - 2*spaceM
	y += spaceL
	drawStatBar(rl.NewRectangle(float32(x), float32(y), barW, 14), "Pressure", percent(snap.Warnings.PeakPressure, cfg.ExplosionPressure), true)
	y += 40
	drawStatBar(rl.NewRectangle(float32(x), float32(y), barW, 14), "Shortfall", percent(float64(snap.Power.TicksWithoutPower), float64(cfg.OutageTicks)), true)
	y += 40
	drawStatBar(rl.NewRectangle(float32(x), float32(y), barW, 14), "Coolant", percent(snap.StoredWater, float64(len(snap.Cells))), false)
	y += 36

	if sel := ui.console.Selected(); sel > 0 {
		if cell, ok := snap.Cell(reactor.CellID(sel - 1)); ok {
			drawUILine(float32(x), float32(y), float32(x)+barW, float32(y), 1, rl.Fade(colorBorder, 0.5))
			y += spaceS
			line(fmt.Sprintf("Cell %d  valve %d  %s", sel, cell.Valve+1, cell.Fuel), colorAccent)
			line(fmt.Sprintf("Temp %.1fC  pressure %.2f", cell.Temperature, cell.Pressure), temperatureColor(cell.Temperature))
			y += spaceS
			drawStatBar(rl.NewRectangle(float32(x), float32(y+16), barW, 12), "Rod", int(math.Round(cell.Insertion*100)), false)
			y += 36
		}
	}

	hints := wrapText(hotkeyHint(), typeScale.Small, int32(barW))
	hy := int32(rect.Y+rect.Height) - spaceM - int32(len(hints))*textLineHeight(typeScale.Small)
	if hy > y {
		for i, h := range hints {
			drawText(h, x, hy+int32(i)*textLineHeight(typeScale.Small), typeScale.Small, colorDim)
		}
	}
}

func (ui *gameUI) drawMessageLog(rect rl.Rectangle) {
	drawPanel(rect, "")
	lh := textLineHeight(typeScale.Log)
	maxW := int32(rect.Width) - 2*spaceM
	var lines []string
	for _, msg := range ui.runMessages {
		lines = append(lines, wrapText(msg, typeScale.Log, maxW)...)
	}
	visible := int((rect.Height - 2*spaceS) / float32(lh))
	if visible < 1 {
		return
	}
	if len(lines) > visible {
		lines = lines[len(lines)-visible:]
	}
	for i, l := range lines {
		drawText(l, int32(rect.X)+spaceM, int32(rect.Y)+spaceS+int32(i)*lh, typeScale.Log, colorText)
	}
}

func (ui *gameUI) updateGameOver() {
	if rl.IsKeyPressed(rl.KeyEnter) {
		ui.startRun()
		return
	}
	if rl.IsKeyPressed(rl.KeyS) && ui.cfg.Scores != nil {
		ui.openScores()
		return
	}
	if rl.IsKeyPressed(rl.KeyEscape) {
		ui.session = nil
		ui.screen = screenMenu
	}
}

func (ui *gameUI) drawGameOver() {
	if ui.over == nil {
		return
	}
	rl.DrawRectangle(0, 0, ui.width, ui.height, rl.Fade(colorBG, 0.75))
	rect := rl.NewRectangle(float32(ui.width/2-320), float32(ui.height/2-140), 640, 280)
	drawPanel(rect, "Shift Over")
	clr := colorText
	if ui.over.Cause == reactor.CauseExplosion {
		clr = colorDanger
	}
	lines := wrapText(ui.over.Summary(), typeScale.Body, int32(rect.Width)-2*spaceL)
	for i, l := range lines {
		drawText(l, int32(rect.X)+spaceL, int32(rect.Y)+56+int32(i)*textLineHeight(typeScale.Body), typeScale.Body, clr)
	}
	detail := fmt.Sprintf("Seed %d, %d ticks, %s simulated.", ui.over.Seed, ui.over.Tick, ui.over.SimTime.Round(time.Second))
	drawText(detail, int32(rect.X)+spaceL, int32(rect.Y+rect.Height)-96, typeScale.Small, colorDim)
	if ui.overEntry != nil {
		drawText(fmt.Sprintf("Recorded as run #%d.", ui.overEntry.ID), int32(rect.X)+spaceL, int32(rect.Y+rect.Height)-72, typeScale.Small, colorDim)
	}
	hint := "Enter new shift, Esc menu"
	if ui.cfg.Scores != nil {
		hint += ", S scoreboard"
	}
	drawTextCentered(hint, rect, int32(rect.Height)-36, typeScale.Small, colorAccent)
}

func (ui *gameUI) openScores() {
	ui.scores = nil
	ui.scoresNote = ""
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	entries, err := ui.cfg.Scores.Top(ctx, scoreRows)
	if err != nil {
		ui.log.Error("load scoreboard", "err", err)
		ui.scoresNote = "Scoreboard unavailable: " + err.Error()
	} else if len(entries) == 0 {
		ui.scoresNote = "No shifts recorded yet."
	}
	ui.scores = entries
	ui.screen = screenScores
}

func (ui *gameUI) updateScores() {
	if rl.IsKeyPressed(rl.KeyEscape) || rl.IsKeyPressed(rl.KeyEnter) {
		if ui.over != nil && ui.session != nil {
			ui.screen = screenGameOver
			return
		}
		ui.screen = screenMenu
	}
}

func (ui *gameUI) drawScores() {
	rect := rl.NewRectangle(20, 20, float32(ui.width-40), float32(ui.height-40))
	drawPanel(rect, "Scoreboard")
	x := int32(rect.X) + spaceL
	y := int32(rect.Y) + 56
	if ui.scoresNote != "" {
		drawText(ui.scoresNote, x, y, typeScale.Body, colorDim)
	}
	lh := textLineHeight(typeScale.Body) + 4
	for i, e := range ui.scores {
		row := fmt.Sprintf("%2d. %-12s %12.1f  %-18s seed %d", i+1, e.RecordedAt.Format("2006-01-02"), e.PowerGenerated, e.Cause, e.Seed)
		clr := colorText
		if ui.overEntry != nil && e.SessionID == ui.overEntry.SessionID {
			clr = colorAccent
		}
		drawText(row, x, y+int32(i)*lh, typeScale.Body, clr)
	}
	drawTextCentered("Esc or Enter to return", rect, int32(rect.Height)-36, typeScale.Small, colorDim)
}

func (ui *gameUI) appendRunMessage(message string) {
	line := strings.TrimSpace(message)
	if line == "" {
		return
	}
	formatted := fmt.Sprintf("[%s] %s", time.Now().Format("15:04:05"), line)
	ui.runMessages = append(ui.runMessages, formatted)
	if len(ui.runMessages) > maxRunMessages {
		ui.runMessages = append([]string(nil), ui.runMessages[len(ui.runMessages)-maxRunMessages:]...)
	}
}

func wrapText(text string, size int32, maxWidth int32) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{""}
	}
	lines := make([]string, 0, 8)
	current := words[0]
	for _, word := range words[1:] {
		candidate := current + " " + word
		if measureText(candidate, size) <= maxWidth {
			current = candidate
			continue
		}
		lines = append(lines, current)
		current = word
	}
	lines = append(lines, current)
	return lines
}

func captureTextInput(target *string, maxLen int) {
	for ch := rl.GetCharPressed(); ch > 0; ch = rl.GetCharPressed() {
		if ch >= 32 && ch <= 126 && len(*target) < maxLen {
			*target += string(rune(ch))
		}
	}
	if rl.IsKeyPressed(rl.KeyBackspace) && len(*target) > 0 {
		*target = (*target)[:len(*target)-1]
	}
}

func wrapIndex(i int, size int) int {
	if size <= 0 {
		return 0
	}
	for i < 0 {
		i += size
	}
	for i >= size {
		i -= size
	}
	return i
}

func clampInt(v int, min int, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
