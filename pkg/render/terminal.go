package render

import (
	"image"
	"image/color"

	uv "github.com/charmbracelet/ultraviolet"
	"golang.org/x/image/draw"
)

// Draw paints the framebuffer onto a terminal screen inside area. Each cell
// shows two pixels with an upper half block (fg = top, bg = bottom). The
// image is scaled to fit the area, keeping its aspect ratio.
func (fb *Framebuffer) Draw(scr uv.Screen, area uv.Rectangle) {
	cols := area.Max.X - area.Min.X
	rows := area.Max.Y - area.Min.Y
	if cols <= 0 || rows <= 0 || fb.Width == 0 || fb.Height == 0 {
		return
	}

	scaled := image.NewRGBA(image.Rect(0, 0, cols, rows*2))
	src := fb.ToImage()
	draw.ApproxBiLinear.Scale(scaled, fitRect(src.Bounds(), scaled.Bounds()), src, src.Bounds(), draw.Src, nil)

	for row := range rows {
		for col := range cols {
			top := scaled.RGBAAt(col, row*2)
			bot := scaled.RGBAAt(col, row*2+1)
			scr.SetCell(area.Min.X+col, area.Min.Y+row, &uv.Cell{
				Content: "▀",
				Width:   1,
				Style: uv.Style{
					Fg: rgbaToColor(top),
					Bg: rgbaToColor(bot),
				},
			})
		}
	}
}

// fitRect returns the largest rectangle with src's aspect ratio centered in
// dst.
func fitRect(src, dst image.Rectangle) image.Rectangle {
	sw, sh := float64(src.Dx()), float64(src.Dy())
	dw, dh := float64(dst.Dx()), float64(dst.Dy())
	s := min(dw/sw, dh/sh)
	w, h := int(sw*s), int(sh*s)
	x := dst.Min.X + (dst.Dx()-w)/2
	y := dst.Min.Y + (dst.Dy()-h)/2
	return image.Rect(x, y, x+w, y+h)
}

// rgbaToColor converts color.RGBA to Go's color.Color interface.
func rgbaToColor(c color.RGBA) color.Color {
	if c.A == 0 {
		return nil // Transparent = no color
	}
	return c
}
