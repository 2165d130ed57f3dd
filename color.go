package annotate

import (
	"fmt"
	"image/color"
	"strconv"

	"golang.org/x/image/colornames"
)

// PaletteSize is the number of colors a palette must hold.
const PaletteSize = 16

// Palette maps groups to display colors.
type Palette struct {
	colors []color.RGBA
	slot   color.RGBA
}

// NewPalette validates colors (exactly PaletteSize distinct values) and pairs
// them with the override used for slot-mode groups.
func NewPalette(colors []color.RGBA, slot color.RGBA) (Palette, error) {
	if len(colors) != PaletteSize {
		return Palette{}, fmt.Errorf("%w: got %d", ErrPaletteSize, len(colors))
	}
	seen := make(map[color.RGBA]struct{}, len(colors))
	for _, c := range colors {
		if _, ok := seen[c]; ok {
			return Palette{}, fmt.Errorf("%w: %s", ErrPaletteDuplicate, Hex(c))
		}
		seen[c] = struct{}{}
	}
	return Palette{
		colors: append([]color.RGBA(nil), colors...),
		slot:   slot,
	}, nil
}

// DefaultPalette returns the built in sixteen color palette.
func DefaultPalette() Palette {
	return Palette{
		colors: []color.RGBA{
			colornames.Crimson,
			colornames.Royalblue,
			colornames.Forestgreen,
			colornames.Darkorange,
			colornames.Mediumpurple,
			colornames.Teal,
			colornames.Deeppink,
			colornames.Goldenrod,
			colornames.Steelblue,
			colornames.Olivedrab,
			colornames.Chocolate,
			colornames.Slateblue,
			colornames.Lightseagreen,
			colornames.Indianred,
			colornames.Darkcyan,
			colornames.Orchid,
		},
		slot: colornames.Magenta,
	}
}

// Colors returns a copy of the ordered palette.
func (p Palette) Colors() []color.RGBA {
	return append([]color.RGBA(nil), p.colors...)
}

// SlotColor returns the slot-mode override.
func (p Palette) SlotColor() color.RGBA {
	return p.slot
}

// ColorOf returns the display color of g.
//
// Numeric external ids drive the index so AI question numbers keep their color
// across sessions; otherwise the internal id is used. Indexes are one based
// ("Questão 1" maps to slot 0).
func (p Palette) ColorOf(g *Group) color.RGBA {
	if len(p.colors) == 0 {
		return color.RGBA{}
	}
	if g == nil {
		return p.colors[0]
	}
	if g.Mode == ModeSlot {
		return p.slot
	}
	index := g.ID
	if isDigits(g.ExternalID) {
		if n, err := strconv.Atoi(g.ExternalID); err == nil {
			index = n
		}
	}
	if index > 0 {
		index--
	}
	index %= len(p.colors)
	if index < 0 {
		index += len(p.colors)
	}
	return p.colors[index]
}

func (p Palette) clone() Palette {
	return Palette{colors: append([]color.RGBA(nil), p.colors...), slot: p.slot}
}

// Hex formats c as #rrggbb.
func Hex(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
