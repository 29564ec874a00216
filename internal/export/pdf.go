// Package export renders a document snapshot to PDF.
package export

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"SharedBoard/internal/state"
)

const (
	pageWidth  = 297.0
	pageHeight = 210.0
	pageMargin = 10.0
)

// PDF draws the snapshot onto one landscape A4 page, scaled to fit, in the
// same layer order a screen renderer uses.
func PDF(w io.Writer, snap state.Snapshot) error {
	p := gofpdf.New("L", "mm", "A4", "")
	p.AddPage()

	scale := fitScale(snap.Size)
	at := func(v float64) float64 { return pageMargin + v*scale }

	r, g, b := parseColor(snap.BackgroundColor)
	p.SetFillColor(r, g, b)
	p.Rect(pageMargin, pageMargin, snap.Size.Width*scale, snap.Size.Height*scale, "F")

	for _, img := range snap.Images {
		// raster content is an opaque handle here; mark the frame
		p.SetDrawColor(160, 160, 160)
		p.SetLineWidth(0.2)
		p.Rect(at(img.X), at(img.Y), img.Width*scale, img.Height*scale, "D")
	}

	for _, s := range snap.Shapes {
		r, g, b := parseColor(s.Color)
		p.SetDrawColor(r, g, b)
		p.SetLineWidth(math.Max(0.1, s.Width*scale))
		box := s.Bounds()
		x, y, bw, bh := at(box.X), at(box.Y), box.Width*scale, box.Height*scale
		switch s.Type {
		case state.ShapeRectangle:
			p.Rect(x, y, bw, bh, "D")
		case state.ShapeCircle:
			p.Ellipse(x+bw/2, y+bh/2, bw/2, bh/2, 0, "D")
		case state.ShapeLine:
			p.Line(at(s.X), at(s.Y), at(s.X2), at(s.Y2))
		case state.ShapeDiamond:
			p.Polygon([]gofpdf.PointType{
				{X: x + bw/2, Y: y}, {X: x + bw, Y: y + bh/2},
				{X: x + bw/2, Y: y + bh}, {X: x, Y: y + bh/2},
			}, "D")
		case state.ShapeTriangle:
			p.Polygon([]gofpdf.PointType{
				{X: x + bw/2, Y: y}, {X: x + bw, Y: y + bh}, {X: x, Y: y + bh},
			}, "D")
		case state.ShapeCurve:
			p.Curve(at(s.X), at(s.Y), x+bw/2, y, at(s.X2), at(s.Y2), "D")
		}
	}

	p.SetLineCapStyle("round")
	p.SetLineJoinStyle("round")
	for _, st := range snap.Strokes {
		r, g, b := parseColor(st.Color)
		p.SetDrawColor(r, g, b)
		p.SetLineWidth(math.Max(0.1, st.Width*scale))
		for i := 1; i < len(st.Points); i++ {
			p.Line(at(st.Points[i-1].X), at(st.Points[i-1].Y), at(st.Points[i].X), at(st.Points[i].Y))
		}
	}

	for _, t := range snap.TextBoxes {
		r, g, b := parseColor(t.Color)
		p.SetTextColor(r, g, b)
		// font size is in points; 1pt = 0.3528mm
		p.SetFont("Helvetica", "", math.Max(4, t.FontSize*scale/0.3528))
		p.SetXY(at(t.X), at(t.Y))
		p.MultiCell(math.Max(1, t.Width*scale), t.FontSize*scale, t.Text, "", "L", false)
	}

	if err := p.Output(w); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}

func fitScale(size state.Size) float64 {
	if size.Width <= 0 || size.Height <= 0 {
		return 1
	}
	return math.Min((pageWidth-2*pageMargin)/size.Width, (pageHeight-2*pageMargin)/size.Height)
}

// parseColor reads #rgb and #rrggbb. Anything else is black.
func parseColor(c string) (int, int, int) {
	c = strings.TrimPrefix(c, "#")
	if len(c) == 3 {
		c = string([]byte{c[0], c[0], c[1], c[1], c[2], c[2]})
	}
	if len(c) != 6 {
		return 0, 0, 0
	}
	v, err := strconv.ParseUint(c, 16, 32)
	if err != nil {
		return 0, 0, 0
	}
	return int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff)
}
