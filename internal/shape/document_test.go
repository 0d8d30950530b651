package shape

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doccanvas/internal/geom"
)

func sampleDocument() Document {
	text := New("t1", KindText)
	text.X, text.Y, text.Width, text.Height = 10, 20, 100, 30
	text.ZIndex = 2
	text.Text = &TextPayload{Content: "Invoice", FontFamily: "Inter", FontSize: 14}

	line := New("l1", KindLine)
	line.X, line.Y = 0, 60
	line.ZIndex = 1
	line.Points = []geom.Point{{X: 0, Y: 0}, {X: 180, Y: 0}}

	card := New("c1", KindCard)
	card.X, card.Y, card.Width, card.Height = 10, 80, 90, 50
	card.ZIndex = 3
	card.Card = &CardPayload{EntityType: "customer", EntityID: "42", Display: map[string]string{"field": "name"}}

	return Document{
		Name:   "invoice-template",
		Canvas: DefaultCanvasSettings(),
		Shapes: []Shape{text, line, card},
	}
}

func TestDocumentRoundTrip_PreservesOrderAndFields(t *testing.T) {
	doc := sampleDocument()

	data, err := doc.Marshal()
	require.NoError(t, err)

	loaded, err := UnmarshalDocument(data)
	require.NoError(t, err)
	assert.Equal(t, doc, loaded)

	// Re-serializing produces an identical array.
	again, err := loaded.Marshal()
	require.NoError(t, err)
	assert.Equal(t, string(data), string(again))
}

func TestUnmarshalDocument_RejectsInvalidShape(t *testing.T) {
	// A text shape carrying image-only fields must not load.
	raw := []byte(`{"name":"x","canvas":{"pageWidth":210,"pageHeight":297},"shapes":[
		{"id":"bad","kind":"text","x":0,"y":0,"scaleX":1,"scaleY":1,"zIndex":0,"visible":true,"opacity":1,
		 "text":{"content":"hi"},"image":{"source":"a.png"}}]}`)
	_, err := UnmarshalDocument(raw)
	assert.Error(t, err)
}

func TestDocumentClone_IsDeep(t *testing.T) {
	doc := sampleDocument()
	c := doc.Clone()
	c.Shapes[0].Text.Content = "changed"
	c.Shapes[2].Card.Display["field"] = "email"

	assert.Equal(t, "Invoice", doc.Shapes[0].Text.Content)
	assert.Equal(t, "name", doc.Shapes[2].Card.Display["field"])
}

func TestShapeValidate_KindPayloadPairs(t *testing.T) {
	ok := New("r", KindRect)
	assert.NoError(t, ok.Validate())

	img := New("i", KindImage)
	assert.Error(t, img.Validate(), "image without payload")
	img.Image = &ImagePayload{Source: "logo.png"}
	assert.NoError(t, img.Validate())

	poly := New("p", KindPolygon)
	poly.Points = []geom.Point{{X: 0, Y: 0}}
	assert.Error(t, poly.Validate(), "polygon needs at least 2 points")
	poly.Points = append(poly.Points, geom.Point{X: 5, Y: 5})
	assert.NoError(t, poly.Validate())

	unknown := New("u", Kind("blob"))
	assert.Error(t, unknown.Validate())
}

func TestShapeBounds_PointShapes(t *testing.T) {
	line := New("l", KindLine)
	line.X, line.Y = 100, 200
	line.Points = []geom.Point{{X: -10, Y: 0}, {X: 30, Y: 20}}

	b := line.Bounds()
	assert.Equal(t, geom.Rect{X: 90, Y: 200, Width: 40, Height: 20}, b)
}
