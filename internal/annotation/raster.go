package annotation

import (
	"image"
	"log"
	"sync"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/rasterizer"
)

// ptPerUnit converts canvas units (1 unit = 1 px at our resolution) to the
// point sizes the font API expects.
const ptPerUnit = 72.0 / 25.4

// fontCandidates are tried in order when text rendering first needs a face.
var fontCandidates = []string{
	"DejaVu Sans",
	"Liberation Sans",
	"Noto Sans",
	"Arial",
	"Helvetica",
}

// Rasterizer draws a scene onto a transparent surface sized to the scene's
// pixel dimensions. Geometry stays pure; this is the only place annotation
// objects meet a rendering library.
type Rasterizer struct {
	fontOnce   sync.Once
	fontFamily *canvas.FontFamily
}

// NewRasterizer creates a scene rasterizer.
func NewRasterizer() *Rasterizer {
	return &Rasterizer{}
}

// RasterizeSnapshot decodes and draws a serialized scene.
func (r *Rasterizer) RasterizeSnapshot(snap *Snapshot) (*image.RGBA, error) {
	objects, err := snap.DecodeObjects()
	if err != nil {
		return nil, err
	}
	return r.rasterize(objects, snap.Width, snap.Height), nil
}

// RasterizeScene draws a live scene.
func (r *Rasterizer) RasterizeScene(scene *Scene) *image.RGBA {
	return r.rasterize(scene.Objects(), scene.Width(), scene.Height())
}

func (r *Rasterizer) rasterize(objects []Object, width, height int) *image.RGBA {
	c := canvas.New(float64(width), float64(height))
	ctx := canvas.NewContext(c)
	ctx.SetStrokeCapper(canvas.RoundCap)
	ctx.SetStrokeJoiner(canvas.RoundJoin)

	// Scene coordinates use a top-left origin with y growing down; the
	// canvas origin is bottom-left.
	fy := func(y float64) float64 { return float64(height) - y }

	for _, obj := range objects {
		switch o := obj.(type) {
		case *Stroke:
			r.drawPolyline(ctx, o.Points, o.Color, o.Width, fy)
		case *HighlightStroke:
			r.drawPolyline(ctx, o.Points, o.Color, o.Width, fy)
		case *TextBox:
			r.drawText(ctx, o, fy)
		case *Circle:
			ctx.SetFillColor(canvas.Transparent)
			ctx.SetStrokeColor(o.Color.NRGBA())
			ctx.SetStrokeWidth(o.StrokeWidth)
			ctx.DrawPath(o.CenterX, fy(o.CenterY), canvas.Ellipse(o.RadiusX, o.RadiusY))
		case *Arrow:
			p := &canvas.Path{}
			p.MoveTo(o.X1, fy(o.Y1))
			p.LineTo(o.X2, fy(o.Y2))
			for _, h := range o.Heads {
				p.MoveTo(h.X1, fy(h.Y1))
				p.LineTo(h.X2, fy(h.Y2))
			}
			ctx.SetFillColor(canvas.Transparent)
			ctx.SetStrokeColor(o.Color.NRGBA())
			ctx.SetStrokeWidth(o.StrokeWidth)
			ctx.DrawPath(0, 0, p)
		}
	}

	return rasterizer.Draw(c, canvas.DPMM(1.0), canvas.DefaultColorSpace)
}

func (r *Rasterizer) drawPolyline(ctx *canvas.Context, points []Point, col Color, width float64, fy func(float64) float64) {
	if len(points) == 0 {
		return
	}
	p := &canvas.Path{}
	p.MoveTo(points[0].X, fy(points[0].Y))
	for _, pt := range points[1:] {
		p.LineTo(pt.X, fy(pt.Y))
	}
	if len(points) == 1 {
		// A tap renders as a dot.
		p.LineTo(points[0].X+0.1, fy(points[0].Y))
	}
	ctx.SetFillColor(canvas.Transparent)
	ctx.SetStrokeColor(col.NRGBA())
	ctx.SetStrokeWidth(width)
	ctx.DrawPath(0, 0, p)
}

func (r *Rasterizer) drawText(ctx *canvas.Context, box *TextBox, fy func(float64) float64) {
	if box.Text == "" {
		return
	}
	ff := r.loadFontFamily()
	if ff == nil {
		return
	}
	face := ff.Face(box.FontSize*ptPerUnit, box.Color.NRGBA(), canvas.FontRegular, canvas.FontNormal)
	text := canvas.NewTextBox(face, box.Text, box.Width, 0, canvas.Left, canvas.Top, nil)
	ctx.DrawText(box.X, fy(box.Y), text)
}

func (r *Rasterizer) loadFontFamily() *canvas.FontFamily {
	r.fontOnce.Do(func() {
		ff := canvas.NewFontFamily("annotation")
		for _, name := range fontCandidates {
			if err := ff.LoadSystemFont(name, canvas.FontRegular); err == nil {
				r.fontFamily = ff
				return
			}
		}
		log.Printf("no system font available, text annotations will not render")
	})
	return r.fontFamily
}
