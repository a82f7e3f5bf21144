package render

import (
	"fmt"
	"strings"

	"github.com/lguibr/keypass/game"
	"github.com/lguibr/keypass/utils"
)

// Glyphs used on the board.
const (
	KeyGlyph   = "K"
	SelfGlyph  = "@"
	OtherGlyph = "o"
	EmptyGlyph = "."
)

const (
	reset    = "\033[0m"
	keyColor = "\033[1;33m"
	dimColor = "\033[2m"
)

// rgbToAnsi converts an RGB colour to an ANSI escape code for that colour
func rgbToAnsi(r, g, b uint8) string {
	return fmt.Sprintf("\033[38;2;%d;%d;%dm", r, g, b)
}

// hexToAnsi converts a "#rrggbb" player colour. Malformed colours render uncoloured.
func hexToAnsi(hex string) string {
	var r, g, b uint8
	if n, err := fmt.Sscanf(hex, "#%02x%02x%02x", &r, &g, &b); err != nil || n != 3 {
		return ""
	}
	return rgbToAnsi(r, g, b)
}

// Viewport returns the top-left corner of a size×size window centred on
// (cx, cy) and kept inside the board.
func Viewport(cx, cy, size, gridSize int) (x, y int) {
	if size >= gridSize {
		return 0, 0
	}
	return utils.Clamp(cx-size/2, 0, gridSize-size), utils.Clamp(cy-size/2, 0, gridSize-size)
}

// RenderGrid draws a size×size window of the board around player selfID, or
// around the centre when selfID is not playing. Cells are separated by a space
// so the board keeps a square aspect in a terminal.
func RenderGrid(state game.GameState, selfID string, size, gridSize int) string {
	if size <= 0 || size > gridSize {
		size = gridSize
	}
	cx, cy := gridSize/2, gridSize/2
	if self, ok := state.Players[selfID]; ok {
		cx, cy = self.Pos.X, self.Pos.Y
	}
	ox, oy := Viewport(cx, cy, size, gridSize)

	occupants := make(map[game.Position]*game.Player, len(state.Players))
	for id, p := range state.Players {
		if _, taken := occupants[p.Pos]; taken && id != selfID {
			continue
		}
		occupants[p.Pos] = p
	}

	var b strings.Builder
	for y := oy; y < oy+size; y++ {
		for x := ox; x < ox+size; x++ {
			pos := game.Position{X: x, Y: y}
			if state.Key != nil && *state.Key == pos {
				b.WriteString(keyColor + KeyGlyph + reset)
			} else if p, ok := occupants[pos]; ok {
				glyph := OtherGlyph
				if p.ID == selfID {
					glyph = SelfGlyph
				}
				b.WriteString(hexToAnsi(p.Color) + glyph + reset)
			} else {
				b.WriteString(dimColor + EmptyGlyph + reset)
			}
			if x < ox+size-1 {
				b.WriteByte(' ')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// Frame is a full client screen: a status line, the board and the newest
// announcements.
func Frame(state game.GameState, roomID, selfID string, size, gridSize, announcements int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "room %s | %s | %d players", roomID, state.Phase(), len(state.Players))
	if self, ok := state.Players[selfID]; ok {
		fmt.Fprintf(&b, " | you: %s (%d,%d)", self.Name, self.Pos.X, self.Pos.Y)
		if !self.Ready {
			b.WriteString(" | press r when ready")
		}
	} else if selfID != "" {
		b.WriteString(" | you are out")
	}
	b.WriteString("\n\n")

	b.WriteString(RenderGrid(state, selfID, size, gridSize))
	b.WriteByte('\n')

	for i, a := range state.Announcements {
		if i >= announcements {
			break
		}
		b.WriteString(a)
		b.WriteByte('\n')
	}
	return b.String()
}
