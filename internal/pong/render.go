package pong

import (
	"fmt"
	"math"

	"github.com/vovakirdan/neuropong/internal/config"
	"github.com/vovakirdan/neuropong/internal/core"
)

// Visual characters for rendering
const (
	PaddleChar = '█'
	BallChar   = '●'
	NetChar    = '│'
)

// hudRows is the number of screen rows reserved above the board.
const hudRows = 1

// Render draws a snapshot scaled into dst. Row 0 carries the scores; the
// board fills the rest of the screen.
func Render(snap Snapshot, dst *core.Screen) {
	dst.Clear()
	w, h := dst.Width(), dst.Height()-hudRows
	if w <= 0 || h <= 0 || snap.Width <= 0 || snap.Height <= 0 {
		return
	}
	sx := float64(w) / snap.Width
	sy := float64(h) / snap.Height
	col := func(x float64) int { return int(math.Floor(x * sx)) }
	row := func(y float64) int { return hudRows + int(math.Floor(y*sy)) }

	netX := col(snap.Net.X)
	for y := hudRows; y < dst.Height(); y += 2 {
		dst.SetColored(netX, y, NetChar, core.ColorGray)
	}

	drawPaddle := func(b core.Box, c core.Color) {
		top := row(b.Y)
		length := max(1, int(math.Round(b.H*sy)))
		dst.DrawVLine(col(b.X), top, length, PaddleChar, c)
	}

	// Dead agents are skipped; live ones all share the left column.
	for _, a := range snap.Agents {
		if !a.Dead {
			drawPaddle(a.Paddle, core.ColorBrightCyan)
		}
	}
	drawPaddle(snap.Opponent.Box, snap.Opponent.Color)

	bx := core.Clamp(col(snap.Ball.Pos.X), 0, w-1)
	by := core.Clamp(row(snap.Ball.Pos.Y), hudRows, dst.Height()-1)
	dst.SetColored(bx, by, BallChar, snap.Ball.Color)

	drawHUD(snap, dst)
}

func drawHUD(snap Snapshot, dst *core.Screen) {
	score := 0
	if leader, ok := snap.Leader(); ok {
		score = leader.Score
	}
	centerX := dst.Width() / 2
	dst.DrawText(centerX-5, 0, fmt.Sprintf("%d", score))
	dst.DrawText(centerX+4, 0, fmt.Sprintf("%d", snap.Opponent.Score))

	if snap.Mode.Versus() {
		dst.DrawText(1, 0, "AI")
		label := "YOU"
		if snap.Mode == config.OpponentLearned {
			label = "AI2"
		}
		dst.DrawText(dst.Width()-len(label)-1, 0, label)
		return
	}

	dst.DrawText(1, 0, fmt.Sprintf("gen %d  alive %d/%d", snap.Generation, snap.Alive, len(snap.Agents)))
	best := fmt.Sprintf("best %.2f", snap.BestFitness)
	dst.DrawText(dst.Width()-len(best)-1, 0, best)
}
