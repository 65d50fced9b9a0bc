package render

import (
	"bytes"
	"image/png"
	"testing"

	"platformparty/game"
)

func TestDrawSizesToStage(t *testing.T) {
	stage, err := game.NewStage(game.StageMap{
		Rows:            2,
		Columns:         3,
		SpriteData:      []int{0, game.HazardSprite, 0, 1, 1, 5},
		SolidIndices:    game.NewIndexSet(3, 4),
		PlatformIndices: game.NewIndexSet(5),
	})
	if err != nil {
		t.Fatal(err)
	}
	player := game.EntityMetadata{
		Character:    game.CharacterGreen,
		Position:     game.Vector{X: 16, Y: 1},
		CollisionBox: game.CollisionBox{Width: 14, Height: 14},
	}

	img := Draw(stage, []game.EntityMetadata{player}, Options{Scale: 2, ShowGrid: true})
	if b := img.Bounds(); b.Dx() != 96 || b.Dy() != 64 {
		t.Fatalf("bounds = %v, want 96x64", b)
	}

	// A pixel inside the player box carries the character colour.
	r, g, b, _ := img.At(2*20, 2*10).RGBA()
	if r>>8 != 0x27 || g>>8 != 0xae || b>>8 != 0x60 {
		t.Fatalf("player pixel = %x %x %x", r>>8, g>>8, b>>8)
	}
}

func TestWritePNG(t *testing.T) {
	var buf bytes.Buffer
	if err := WritePNG(&buf, nil, nil, Options{}); err != nil {
		t.Fatalf("WritePNG: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 640 || b.Dy() != 480 {
		t.Fatalf("bounds = %v, want 640x480", b)
	}
}

func TestDrawCapsImageSize(t *testing.T) {
	const rows, cols = game.MaxStageDimension, 8
	stage, err := game.NewStage(game.StageMap{Rows: rows, Columns: cols, SpriteData: make([]int, rows*cols)})
	if err != nil {
		t.Fatal(err)
	}
	img := Draw(stage, nil, Options{Scale: 4})
	b := img.Bounds()
	if b.Dy() > MaxImageSide || b.Dx() > MaxImageSide {
		t.Fatalf("bounds = %v, want each side <= %d", b, MaxImageSide)
	}
	// 512 rows * 16 units * scale 0.5 = 4096; 8 columns keep the aspect ratio.
	if b.Dy() != MaxImageSide || b.Dx() != 64 {
		t.Fatalf("bounds = %v, want 64x%d", b, MaxImageSide)
	}
}
