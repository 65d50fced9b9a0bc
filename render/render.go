// Package render draws a stage and the entities on it to an image. It is a
// debugging view: tiles are flat colours, players are their collision boxes.
package render

import (
	"image"
	"io"
	"math"

	"github.com/fogleman/gg"

	"platformparty/game"
)

// MaxImageSide caps the width and height of a rendered image in pixels. Larger
// stages are drawn at a reduced scale.
const MaxImageSide = 4096

// Options control the output image.
type Options struct {
	Scale    float64 // pixels per world unit; 0 means 2
	ShowGrid bool
}

var characterColors = map[game.Character]string{
	game.CharacterOrange: "#f39c12",
	game.CharacterGreen:  "#27ae60",
	game.CharacterBlue:   "#2980b9",
}

func (o Options) scale() float64 {
	if o.Scale <= 0 {
		return 2
	}
	return o.Scale
}

// Draw renders the stage and entities. A nil stage draws entities on a 320x240 field.
func Draw(stage *game.Stage, entities []game.EntityMetadata, opts Options) image.Image {
	return draw(stage, entities, opts).Image()
}

// WritePNG renders like Draw and encodes the result as PNG.
func WritePNG(w io.Writer, stage *game.Stage, entities []game.EntityMetadata, opts Options) error {
	return draw(stage, entities, opts).EncodePNG(w)
}

func draw(stage *game.Stage, entities []game.EntityMetadata, opts Options) *gg.Context {
	s := opts.scale()
	width, height := 320.0, 240.0
	if stage != nil {
		width, height = stage.Width(), stage.Height()
	}
	if side := math.Max(width, height) * s; side > MaxImageSide {
		s *= MaxImageSide / side
	}
	dc := gg.NewContext(int(width*s), int(height*s))
	dc.SetHexColor("#101018")
	dc.Clear()
	dc.Scale(s, s)

	if stage != nil {
		drawStage(dc, stage, opts)
	}
	for _, e := range entities {
		drawEntity(dc, e)
	}
	return dc
}

func drawStage(dc *gg.Context, stage *game.Stage, opts Options) {
	m := stage.Map()
	const l = float64(game.SpriteLength)
	for row := 0; row < m.Rows; row++ {
		for col := 0; col < m.Columns; col++ {
			i := row*m.Columns + col
			x, y := float64(col)*l, float64(row)*l
			switch {
			case m.SolidIndices.Has(i):
				dc.SetHexColor("#5d6d7e")
				dc.DrawRectangle(x, y, l, l)
				dc.Fill()
			case m.PlatformIndices.Has(i):
				dc.SetHexColor("#a0522d")
				dc.DrawRectangle(x, y, l, l/4)
				dc.Fill()
			case m.SpriteData[i] == game.HazardSprite:
				dc.SetHexColor("#c0392b")
				dc.DrawRectangle(x, y+l/2, l, l/2)
				dc.Fill()
			case m.SpriteData[i] != 0:
				dc.SetHexColor("#1f2a36")
				dc.DrawRectangle(x, y, l, l)
				dc.Fill()
			}
			if opts.ShowGrid {
				dc.SetRGBA(1, 1, 1, 0.08)
				dc.SetLineWidth(0.25)
				dc.DrawRectangle(x, y, l, l)
				dc.Stroke()
			}
		}
	}
}

func drawEntity(dc *gg.Context, e game.EntityMetadata) {
	color, ok := characterColors[e.Character]
	if !ok {
		color = characterColors[game.CharacterBlue]
	}
	box := e.CollisionBox
	x, y := e.Position.X+box.Offset.X, e.Position.Y+box.Offset.Y
	dc.SetHexColor(color)
	dc.DrawRectangle(x, y, box.Width, box.Height)
	dc.Fill()

	// facing marker
	dc.SetHexColor("#ffffff")
	eyeX := x + box.Width*0.75
	if e.IsFlipped {
		eyeX = x + box.Width*0.25
	}
	dc.DrawCircle(eyeX, y+box.Height*0.3, box.Width/8)
	dc.Fill()
}
