package shape

import "encoding/json"

// CanvasSettings is the page-level configuration persisted with a document.
type CanvasSettings struct {
	PageWidth     float64 `json:"pageWidth"`  // mm
	PageHeight    float64 `json:"pageHeight"` // mm
	Background    string  `json:"background,omitempty"`
	GridSize      float64 `json:"gridSize,omitempty"`
	GridVisible   bool    `json:"gridVisible,omitempty"`
	SnapTolerance float64 `json:"snapTolerance,omitempty"`
}

// DefaultCanvasSettings matches an A4 portrait page.
func DefaultCanvasSettings() CanvasSettings {
	return CanvasSettings{
		PageWidth:     210,
		PageHeight:    297,
		Background:    "#ffffff",
		GridSize:      10,
		GridVisible:   true,
		SnapTolerance: 5,
	}
}

// Document is the persisted form of one template: canvas settings plus the
// ordered shape array.
type Document struct {
	Name   string         `json:"name"`
	Canvas CanvasSettings `json:"canvas"`
	Shapes []Shape        `json:"shapes"`
}

// Marshal serializes the document. Shape order and z-indexes survive a
// round trip unchanged.
func (d Document) Marshal() ([]byte, error) {
	return json.Marshal(d)
}

// UnmarshalDocument parses a persisted document and validates every shape.
func UnmarshalDocument(data []byte) (Document, error) {
	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return Document{}, err
	}
	for _, s := range d.Shapes {
		if err := s.Validate(); err != nil {
			return Document{}, err
		}
	}
	return d, nil
}

// Clone deep-copies the document, shapes included.
func (d Document) Clone() Document {
	c := d
	c.Shapes = make([]Shape, len(d.Shapes))
	for i, s := range d.Shapes {
		c.Shapes[i] = s.Clone()
	}
	return c
}
