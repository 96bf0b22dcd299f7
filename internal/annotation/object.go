package annotation

import (
	"encoding/json"
	"fmt"
	"image/color"

	"github.com/google/uuid"
)

// Kind tags the concrete type of an annotation object in serialized form.
type Kind string

const (
	KindStroke    Kind = "stroke"
	KindHighlight Kind = "highlight"
	KindTextBox   Kind = "text"
	KindCircle    Kind = "circle"
	KindArrow     Kind = "arrow"
)

// Point is a position in page pixel space (top-left origin, y grows down).
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Segment is a line segment in page pixel space.
type Segment struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Color is an RGBA color serialized as #rrggbbaa.
type Color struct {
	R, G, B, A uint8
}

// NRGBA converts to the stdlib color type used by the rasterizer.
func (c Color) NRGBA() color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}
}

// WithAlpha returns the same color with a replaced alpha channel.
func (c Color) WithAlpha(a uint8) Color {
	c.A = a
	return c
}

// MarshalJSON implements json.Marshaler.
func (c Color) MarshalJSON() ([]byte, error) {
	return json.Marshal(fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A))
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Color) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseColor(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseColor parses #rrggbb or #rrggbbaa.
func ParseColor(s string) (Color, error) {
	var c Color
	switch len(s) {
	case 7:
		if _, err := fmt.Sscanf(s, "#%02x%02x%02x", &c.R, &c.G, &c.B); err != nil {
			return Color{}, fmt.Errorf("invalid color %q: %w", s, err)
		}
		c.A = 0xff
	case 9:
		if _, err := fmt.Sscanf(s, "#%02x%02x%02x%02x", &c.R, &c.G, &c.B, &c.A); err != nil {
			return Color{}, fmt.Errorf("invalid color %q: %w", s, err)
		}
	default:
		return Color{}, fmt.Errorf("invalid color %q: want #rrggbb or #rrggbbaa", s)
	}
	return c, nil
}

// Object is one annotation in a scene. The concrete types below form a
// closed union; serialization tags each object with its Kind.
type Object interface {
	// ID returns the stable object identifier.
	ID() string
	// Kind returns the serialization tag.
	Kind() Kind

	isObject()
}

// Stroke is a freehand pen gesture.
type Stroke struct {
	ObjectID string  `json:"id"`
	Points   []Point `json:"points"`
	Color    Color   `json:"color"`
	Width    float64 `json:"width"`
}

func (s *Stroke) ID() string { return s.ObjectID }
func (s *Stroke) Kind() Kind { return KindStroke }
func (s *Stroke) isObject()  {}

// HighlightStroke captures like a pen stroke but always renders translucent
// and wide; the tool controller forces color and width on construction.
type HighlightStroke struct {
	ObjectID string  `json:"id"`
	Points   []Point `json:"points"`
	Color    Color   `json:"color"`
	Width    float64 `json:"width"`
}

func (s *HighlightStroke) ID() string { return s.ObjectID }
func (s *HighlightStroke) Kind() Kind { return KindHighlight }
func (s *HighlightStroke) isObject()  {}

// TextBox is an editable text annotation anchored at its top-left corner.
type TextBox struct {
	ObjectID string  `json:"id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Text     string  `json:"text"`
	FontSize float64 `json:"font_size"`
	Color    Color   `json:"color"`
}

func (t *TextBox) ID() string { return t.ObjectID }
func (t *TextBox) Kind() Kind { return KindTextBox }
func (t *TextBox) isObject()  {}

// Circle is an ellipse built from a drag gesture. Radius holds the dominant
// radius; ScaleX/ScaleY carry the independent axis factors so the shape can
// be elliptical.
type Circle struct {
	ObjectID    string  `json:"id"`
	CenterX     float64 `json:"center_x"`
	CenterY     float64 `json:"center_y"`
	RadiusX     float64 `json:"radius_x"`
	RadiusY     float64 `json:"radius_y"`
	Radius      float64 `json:"radius"`
	ScaleX      float64 `json:"scale_x"`
	ScaleY      float64 `json:"scale_y"`
	Color       Color   `json:"color"`
	StrokeWidth float64 `json:"stroke_width"`
}

func (c *Circle) ID() string { return c.ObjectID }
func (c *Circle) Kind() Kind { return KindCircle }
func (c *Circle) isObject()  {}

// Arrow is a main segment plus two head segments computed from the main
// segment's angle at finalize time. Heads are persisted so replay needs no
// recomputation.
type Arrow struct {
	ObjectID    string     `json:"id"`
	X1          float64    `json:"x1"`
	Y1          float64    `json:"y1"`
	X2          float64    `json:"x2"`
	Y2          float64    `json:"y2"`
	Heads       [2]Segment `json:"heads"`
	Color       Color      `json:"color"`
	StrokeWidth float64    `json:"stroke_width"`
}

func (a *Arrow) ID() string { return a.ObjectID }
func (a *Arrow) Kind() Kind { return KindArrow }
func (a *Arrow) isObject()  {}

// NewObjectID mints a unique object identifier.
func NewObjectID() string {
	return uuid.New().String()
}
