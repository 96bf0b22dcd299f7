package annotation

import (
	"github.com/sarabun/docflow/internal/faults"
)

// Tool selects the active input behavior of the editor.
type Tool string

const (
	ToolPen         Tool = "pen"
	ToolHighlighter Tool = "highlighter"
	ToolText        Tool = "text"
	ToolCircle      Tool = "circle"
	ToolArrow       Tool = "arrow"
	ToolEraser      Tool = "eraser"
)

// Device identifies the input device of a single pointer event. The device
// policy is evaluated per event, not per session: touch scrolls the page
// while pen or mouse drives the active tool, and one session may mix both.
type Device string

const (
	DeviceMouse Device = "mouse"
	DevicePen   Device = "pen"
	DeviceTouch Device = "touch"
)

const (
	// HighlightAlpha is the forced alpha of highlighter strokes.
	HighlightAlpha = 0x60
	// HighlightWidth is the fixed wide stroke width of the highlighter,
	// applied regardless of the configured width.
	HighlightWidth = 20.0
	// DefaultTextBoxWidth is the initial width of a placed text box.
	DefaultTextBoxWidth = 160.0
	// DefaultFontSize is the font size of a placed text box.
	DefaultFontSize = 16.0
)

// Controller dispatches pointer events to the geometry-construction routine
// of the active tool and records undo snapshots for every committed
// mutation. Exactly one tool is active at a time.
type Controller struct {
	scene   *Scene
	history *History

	tool  Tool
	color Color
	width float64

	drawing   bool
	anchor    Point
	points    []Point
	textArmed bool
}

// NewController creates a controller bound to a scene and its undo history.
func NewController(scene *Scene, history *History) *Controller {
	return &Controller{
		scene:   scene,
		history: history,
		tool:    ToolPen,
		color:   Color{A: 0xff},
		width:   2,
	}
}

// Rebind points the controller at a different live scene, aborting any
// in-flight gesture. Called on page switch.
func (c *Controller) Rebind(scene *Scene, history *History) {
	c.scene = scene
	c.history = history
	c.drawing = false
	c.points = nil
	c.textArmed = c.tool == ToolText
}

// SetTool reconfigures the active input behavior. Selecting the text tool
// arms a single placement; the placement listener disarms after one box
// until the tool is reselected.
func (c *Controller) SetTool(tool Tool, color Color, width float64) {
	c.tool = tool
	c.color = color
	c.width = width
	c.drawing = false
	c.points = nil
	c.textArmed = tool == ToolText
}

// Tool returns the active tool.
func (c *Controller) Tool() Tool { return c.tool }

// PointerDown starts or performs a gesture. It returns the object placed or
// removed immediately (text placement, eraser deletion), if any.
func (c *Controller) PointerDown(device Device, x, y float64) (Object, error) {
	if device == DeviceTouch {
		// Touch scrolls the page; the tool stays untouched for this event.
		return nil, nil
	}
	p := Point{X: x, Y: y}

	switch c.tool {
	case ToolPen, ToolHighlighter:
		c.drawing = true
		c.points = []Point{p}
		return nil, nil

	case ToolText:
		if !c.textArmed {
			return nil, nil
		}
		c.textArmed = false
		box := &TextBox{
			ObjectID: NewObjectID(),
			X:        x,
			Y:        y,
			Width:    DefaultTextBoxWidth,
			FontSize: DefaultFontSize,
			Color:    c.color,
		}
		c.scene.Add(box)
		if err := c.commit(); err != nil {
			return nil, err
		}
		return box, nil

	case ToolCircle:
		c.drawing = true
		c.anchor = p
		g := CircleFromDrag(p, p)
		c.scene.Add(circleFromGeometry(NewObjectID(), g, c.color, c.width))
		return nil, nil

	case ToolArrow:
		c.drawing = true
		c.anchor = p
		c.scene.Add(&Arrow{
			ObjectID:    NewObjectID(),
			X1:          x,
			Y1:          y,
			X2:          x,
			Y2:          y,
			Color:       c.color,
			StrokeWidth: c.width,
		})
		return nil, nil

	case ToolEraser:
		removed, ok := c.scene.RemoveTopmostAt(p)
		if !ok {
			return nil, nil
		}
		if err := c.commit(); err != nil {
			return nil, err
		}
		return removed, nil
	}
	return nil, nil
}

// PointerMove continues an in-flight gesture.
func (c *Controller) PointerMove(device Device, x, y float64) {
	if device == DeviceTouch || !c.drawing {
		return
	}
	p := Point{X: x, Y: y}

	switch c.tool {
	case ToolPen, ToolHighlighter:
		c.points = append(c.points, p)

	case ToolCircle:
		last := c.scene.Objects()
		if len(last) == 0 {
			return
		}
		live, ok := last[len(last)-1].(*Circle)
		if !ok {
			return
		}
		g := CircleFromDrag(c.anchor, p)
		c.scene.ReplaceLast(circleFromGeometry(live.ObjectID, g, live.Color, live.StrokeWidth))

	case ToolArrow:
		last := c.scene.Objects()
		if len(last) == 0 {
			return
		}
		live, ok := last[len(last)-1].(*Arrow)
		if !ok {
			return
		}
		updated := *live
		updated.X2 = x
		updated.Y2 = y
		c.scene.ReplaceLast(&updated)
	}
}

// PointerUp finalizes an in-flight gesture and records an undo snapshot.
// It returns the finalized object, if any.
func (c *Controller) PointerUp(device Device, x, y float64) (Object, error) {
	if device == DeviceTouch || !c.drawing {
		return nil, nil
	}
	c.drawing = false
	p := Point{X: x, Y: y}

	switch c.tool {
	case ToolPen:
		points := append(c.points, p)
		c.points = nil
		stroke := &Stroke{ObjectID: NewObjectID(), Points: points, Color: c.color, Width: c.width}
		c.scene.Add(stroke)
		return stroke, c.commit()

	case ToolHighlighter:
		points := append(c.points, p)
		c.points = nil
		stroke := &HighlightStroke{
			ObjectID: NewObjectID(),
			Points:   points,
			Color:    c.color.WithAlpha(HighlightAlpha),
			Width:    HighlightWidth,
		}
		c.scene.Add(stroke)
		return stroke, c.commit()

	case ToolCircle:
		objects := c.scene.Objects()
		if len(objects) == 0 {
			return nil, nil
		}
		live, ok := objects[len(objects)-1].(*Circle)
		if !ok {
			return nil, nil
		}
		g := CircleFromDrag(c.anchor, p)
		final := circleFromGeometry(live.ObjectID, g, live.Color, live.StrokeWidth)
		c.scene.ReplaceLast(final)
		return final, c.commit()

	case ToolArrow:
		objects := c.scene.Objects()
		if len(objects) == 0 {
			return nil, nil
		}
		live, ok := objects[len(objects)-1].(*Arrow)
		if !ok {
			return nil, nil
		}
		final := *live
		final.X2 = x
		final.Y2 = y
		final.Heads = ArrowHeads(final.X1, final.Y1, final.X2, final.Y2)
		c.scene.ReplaceLast(&final)
		return &final, c.commit()
	}
	return nil, nil
}

// SetText updates the content of a placed text box and records an undo
// snapshot.
func (c *Controller) SetText(id, text string) error {
	obj, ok := c.scene.FindByID(id)
	if !ok {
		return faults.Input("tool.set_text", "no text box with id %s", id)
	}
	box, ok := obj.(*TextBox)
	if !ok {
		return faults.Input("tool.set_text", "object %s is not a text box", id)
	}
	box.Text = text
	return c.commit()
}

// commit appends the current full-scene state to the undo history.
func (c *Controller) commit() error {
	snap, err := c.scene.Snapshot()
	if err != nil {
		return err
	}
	c.history.Push(snap)
	return nil
}

func circleFromGeometry(id string, g CircleGeometry, col Color, width float64) *Circle {
	return &Circle{
		ObjectID:    id,
		CenterX:     g.CenterX,
		CenterY:     g.CenterY,
		RadiusX:     g.RadiusX,
		RadiusY:     g.RadiusY,
		Radius:      g.Radius,
		ScaleX:      g.ScaleX,
		ScaleY:      g.ScaleY,
		Color:       col,
		StrokeWidth: width,
	}
}
