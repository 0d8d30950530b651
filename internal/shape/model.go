package shape

import (
	"fmt"

	"doccanvas/internal/geom"
)

// Kind tags the geometry variant a Shape carries.
type Kind string

const (
	KindRect    Kind = "rect"
	KindEllipse Kind = "ellipse"
	KindLine    Kind = "line"
	KindArrow   Kind = "arrow"
	KindPolygon Kind = "polygon"
	KindText    Kind = "text"
	KindImage   Kind = "image"
	KindCard    Kind = "card"
	KindDiagram Kind = "diagram"
)

// Style is the paint description shared by all shape kinds.
type Style struct {
	Fill        string  `json:"fill,omitempty"`
	Stroke      string  `json:"stroke,omitempty"`
	StrokeWidth float64 `json:"strokeWidth,omitempty"`
}

// TextPayload carries the content of a text shape.
type TextPayload struct {
	Content    string  `json:"content"`
	FontFamily string  `json:"fontFamily,omitempty"`
	FontSize   float64 `json:"fontSize,omitempty"`
	FontWeight string  `json:"fontWeight,omitempty"`
	LineHeight float64 `json:"lineHeight,omitempty"`
}

// ImagePayload carries an image source and an optional crop rectangle.
type ImagePayload struct {
	Source string     `json:"source"`
	Crop   *geom.Rect `json:"crop,omitempty"`
}

// CardPayload binds a shape to an external entity for data display.
type CardPayload struct {
	EntityType string            `json:"entityType"`
	EntityID   string            `json:"entityId"`
	Display    map[string]string `json:"display,omitempty"`
}

// DiagramPayload holds diagram-by-code source plus its last rendered output.
type DiagramPayload struct {
	Source   string `json:"source"`
	Rendered string `json:"rendered,omitempty"`
}

// Shape is one object on the canvas. Exactly one payload field matching
// Kind may be set; Validate enforces that.
type Shape struct {
	ID       string  `json:"id"`
	Kind     Kind    `json:"kind"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width,omitempty"`
	Height   float64 `json:"height,omitempty"`
	Rotation float64 `json:"rotation,omitempty"`
	ScaleX   float64 `json:"scaleX"`
	ScaleY   float64 `json:"scaleY"`
	ZIndex   int     `json:"zIndex"`
	Visible  bool    `json:"visible"`
	Locked   bool    `json:"locked,omitempty"`
	Opacity  float64 `json:"opacity"`
	Style    Style   `json:"style,omitempty"`

	Text    *TextPayload    `json:"text,omitempty"`
	Image   *ImagePayload   `json:"image,omitempty"`
	Points  []geom.Point    `json:"points,omitempty"`
	Card    *CardPayload    `json:"card,omitempty"`
	Diagram *DiagramPayload `json:"diagram,omitempty"`
}

// New returns a shape of the given kind with the defaults every creation
// path uses: unit scale, fully opaque, visible.
func New(id string, kind Kind) Shape {
	return Shape{
		ID:      id,
		Kind:    kind,
		ScaleX:  1,
		ScaleY:  1,
		Visible: true,
		Opacity: 1,
	}
}

// Bounds returns the shape's unrotated axis-aligned bounding box.
// Point-based kinds derive it from their points.
func (s Shape) Bounds() geom.Rect {
	if len(s.Points) > 0 {
		minX, minY := s.Points[0].X, s.Points[0].Y
		maxX, maxY := minX, minY
		for _, p := range s.Points[1:] {
			if p.X < minX {
				minX = p.X
			}
			if p.X > maxX {
				maxX = p.X
			}
			if p.Y < minY {
				minY = p.Y
			}
			if p.Y > maxY {
				maxY = p.Y
			}
		}
		return geom.Rect{X: s.X + minX, Y: s.Y + minY, Width: maxX - minX, Height: maxY - minY}
	}
	return geom.Rect{X: s.X, Y: s.Y, Width: s.Width, Height: s.Height}
}

// DisplayBounds is the rotation-aware bounding box used for hit testing
// and lasso intersection.
func (s Shape) DisplayBounds() geom.Rect {
	return geom.RotatedAABB(s.Bounds(), s.Rotation)
}

// Validate checks the kind/payload pairing and that the geometry is finite.
func (s Shape) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("shape has no id")
	}
	if !geom.Finite(s.X, s.Y, s.Width, s.Height, s.Rotation, s.ScaleX, s.ScaleY, s.Opacity) {
		return fmt.Errorf("shape %s: non-finite geometry", s.ID)
	}
	switch s.Kind {
	case KindRect, KindEllipse:
		if s.Text != nil || s.Image != nil || s.Card != nil || s.Diagram != nil || len(s.Points) > 0 {
			return fmt.Errorf("shape %s: %s carries a foreign payload", s.ID, s.Kind)
		}
	case KindLine, KindArrow, KindPolygon:
		if len(s.Points) < 2 {
			return fmt.Errorf("shape %s: %s needs at least 2 points", s.ID, s.Kind)
		}
		if s.Text != nil || s.Image != nil || s.Card != nil || s.Diagram != nil {
			return fmt.Errorf("shape %s: %s carries a foreign payload", s.ID, s.Kind)
		}
	case KindText:
		if s.Text == nil {
			return fmt.Errorf("shape %s: text shape without text payload", s.ID)
		}
		if s.Image != nil || s.Card != nil || s.Diagram != nil || len(s.Points) > 0 {
			return fmt.Errorf("shape %s: text carries a foreign payload", s.ID)
		}
	case KindImage:
		if s.Image == nil {
			return fmt.Errorf("shape %s: image shape without image payload", s.ID)
		}
		if s.Text != nil || s.Card != nil || s.Diagram != nil || len(s.Points) > 0 {
			return fmt.Errorf("shape %s: image carries a foreign payload", s.ID)
		}
	case KindCard:
		if s.Card == nil {
			return fmt.Errorf("shape %s: card shape without card payload", s.ID)
		}
		if s.Text != nil || s.Image != nil || s.Diagram != nil || len(s.Points) > 0 {
			return fmt.Errorf("shape %s: card carries a foreign payload", s.ID)
		}
	case KindDiagram:
		if s.Diagram == nil {
			return fmt.Errorf("shape %s: diagram shape without diagram payload", s.ID)
		}
		if s.Text != nil || s.Image != nil || s.Card != nil || len(s.Points) > 0 {
			return fmt.Errorf("shape %s: diagram carries a foreign payload", s.ID)
		}
	default:
		return fmt.Errorf("shape %s: unknown kind %q", s.ID, s.Kind)
	}
	return nil
}

// Clone returns a deep copy, payloads included.
func (s Shape) Clone() Shape {
	c := s
	if s.Text != nil {
		t := *s.Text
		c.Text = &t
	}
	if s.Image != nil {
		img := *s.Image
		if s.Image.Crop != nil {
			crop := *s.Image.Crop
			img.Crop = &crop
		}
		c.Image = &img
	}
	if s.Points != nil {
		c.Points = make([]geom.Point, len(s.Points))
		copy(c.Points, s.Points)
	}
	if s.Card != nil {
		card := *s.Card
		if s.Card.Display != nil {
			card.Display = make(map[string]string, len(s.Card.Display))
			for k, v := range s.Card.Display {
				card.Display[k] = v
			}
		}
		c.Card = &card
	}
	if s.Diagram != nil {
		d := *s.Diagram
		c.Diagram = &d
	}
	return c
}
