package watermark

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"math"
	"sync"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

const (
	// Label repeated across unpaid previews
	Label = "PAWTRAIT STUDIO PREVIEW"

	tiltDegrees   = -30.0
	labelOpacity  = 0.30
	minFontSize   = 10.0
	fontSizeRatio = 14.0 // label height = shorter dimension / ratio
)

var (
	fontOnce   sync.Once
	parsedFont *opentype.Font
	fontErr    error
)

func labelFont() (*opentype.Font, error) {
	fontOnce.Do(func() {
		parsedFont, fontErr = opentype.Parse(goregular.TTF)
	})
	return parsedFont, fontErr
}

// Apply composites a semi-transparent tiled label over the image and
// re-encodes it losslessly as PNG. Pure and deterministic: identical
// input bytes produce identical output bytes. The only failure mode is a
// malformed input image.
func Apply(src []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	short := w
	if h < short {
		short = h
	}
	fontSize := float64(short) / fontSizeRatio
	if fontSize < minFontSize {
		fontSize = minFontSize
	}

	fnt, err := labelFont()
	if err != nil {
		return nil, fmt.Errorf("failed to load label font: %w", err)
	}
	face, err := opentype.NewFace(fnt, &opentype.FaceOptions{Size: fontSize, DPI: 72})
	if err != nil {
		return nil, fmt.Errorf("failed to create font face: %w", err)
	}
	defer face.Close()

	dc := gg.NewContext(w, h)
	dc.DrawImage(img, 0, 0)
	dc.SetFontFace(face)

	labelWidth, _ := dc.MeasureString(Label)
	cellW := labelWidth * 1.5
	cellH := fontSize * 4

	// The grid is sized to the diagonal, not the width/height, so the
	// rotated layer still covers every corner.
	diag := math.Hypot(float64(w), float64(h))
	positions := TilePositions(diag, cellW, cellH)

	cx, cy := float64(w)/2, float64(h)/2
	dc.RotateAbout(gg.Radians(tiltDegrees), cx, cy)
	dc.SetRGBA(1, 1, 1, labelOpacity)

	for _, p := range positions {
		dc.DrawStringAnchored(Label, cx+p.X, cy+p.Y, 0.5, 0.5)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, dc.Image()); err != nil {
		return nil, fmt.Errorf("failed to encode watermarked image: %w", err)
	}

	return buf.Bytes(), nil
}

// Position is a label anchor relative to the image center.
type Position struct {
	X, Y float64
}

// TilePositions lays the label out on a regular grid spanning the given
// diagonal, with every other row offset by half a column so repeats never
// form visually aligned seams. Cells are sized so adjacent repeats cannot
// overlap; no two positions share a cell.
func TilePositions(span, cellW, cellH float64) []Position {
	cols := int(math.Ceil(span/cellW))/2 + 1
	rows := int(math.Ceil(span/cellH))/2 + 1

	positions := make([]Position, 0, (2*rows+1)*(2*cols+1))
	for row := -rows; row <= rows; row++ {
		offset := 0.0
		if row%2 != 0 {
			offset = cellW / 2
		}
		for col := -cols; col <= cols; col++ {
			positions = append(positions, Position{
				X: float64(col)*cellW + offset,
				Y: float64(row) * cellH,
			})
		}
	}

	return positions
}
