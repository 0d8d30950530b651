package align

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doccanvas/internal/shape"
)

func guidesOf(gs []Guide, typ GuideType, or Orientation) []Guide {
	var out []Guide
	for _, g := range gs {
		if g.Type == typ && g.Orientation == or {
			out = append(out, g)
		}
	}
	return out
}

func TestGetSmartGuides_CenterAlignment(t *testing.T) {
	ref := rect("ref", 100, 100, 40, 40) // center (120,120)
	dragged := rect("drag", 98, 300, 40, 40)

	gs := GetSmartGuides(dragged, []shape.Shape{ref, dragged}, nil, 5)

	centers := guidesOf(gs, GuideCenter, Vertical)
	require.Len(t, centers, 1)
	assert.Equal(t, 120.0, centers[0].Position)
	assert.Equal(t, []string{"ref"}, centers[0].RefIDs)

	// Centers 22px apart on y: no horizontal center guide.
	assert.Empty(t, guidesOf(gs, GuideCenter, Horizontal))
}

func TestGetSmartGuides_EdgeAlignment(t *testing.T) {
	ref := rect("ref", 100, 100, 40, 40)
	dragged := rect("drag", 142, 300, 40, 40) // left edge within 5px of ref's right edge (140)

	gs := GetSmartGuides(dragged, []shape.Shape{ref, dragged}, nil, 5)

	edges := guidesOf(gs, GuideEdge, Vertical)
	require.NotEmpty(t, edges)
	assert.Equal(t, 140.0, edges[0].Position)
}

func TestGetSmartGuides_ToleranceBoundary(t *testing.T) {
	ref := rect("ref", 0, 0, 40, 40)
	dragged := rect("drag", 0, 100, 40, 40)
	dragged.X = 5 // left edges exactly tolerance apart

	gs := GetSmartGuides(dragged, []shape.Shape{ref, dragged}, nil, 5)
	assert.Empty(t, guidesOf(gs, GuideEdge, Vertical),
		"differences equal to tolerance do not produce guides")
}

func TestGetSmartGuides_ExcludesSelfSelectionAndHidden(t *testing.T) {
	dragged := rect("drag", 0, 0, 40, 40)
	grouped := rect("grouped", 0, 100, 40, 40)
	hidden := rect("hidden", 0, 200, 40, 40)
	hidden.Visible = false

	gs := GetSmartGuides(dragged, []shape.Shape{dragged, grouped, hidden}, []string{"grouped"}, 5)
	assert.Empty(t, gs)
}

func TestGetSmartGuides_EqualSpacing(t *testing.T) {
	// o at 0..40, ref at 60..100 (gap 20); dragged near ref.right+20.
	o := rect("o", 0, 0, 40, 40)
	ref := rect("ref", 60, 0, 40, 40)
	dragged := rect("drag", 122, 0, 40, 40) // actual gap 22, within tolerance of 20

	gs := GetSmartGuides(dragged, []shape.Shape{o, ref, dragged}, nil, 5)

	spacing := guidesOf(gs, GuideSpacing, Vertical)
	require.NotEmpty(t, spacing)
	assert.Equal(t, 120.0, spacing[0].Position, "snap target is ref.right + gap")
	assert.Equal(t, []string{"o", "ref"}, spacing[0].RefIDs)
}

func TestGetSmartGuides_EqualSpacingFromLeft(t *testing.T) {
	// ref at 60..100, o at 120..160 (gap 20); dragged approaches the pair
	// from the left with an actual gap of 22.
	ref := rect("ref", 60, 0, 40, 40)
	o := rect("o", 120, 0, 40, 40)
	dragged := rect("drag", -2, 0, 40, 40)

	gs := GetSmartGuides(dragged, []shape.Shape{ref, o, dragged}, nil, 5)

	spacing := guidesOf(gs, GuideSpacing, Vertical)
	require.NotEmpty(t, spacing)
	assert.Equal(t, 0.0, spacing[0].Position, "snap target keeps ref.left - gap - width")
	assert.Equal(t, []string{"ref", "o"}, spacing[0].RefIDs)
}

func TestGetSmartGuides_EqualSpacingFromAbove(t *testing.T) {
	ref := rect("ref", 0, 60, 40, 40)
	o := rect("o", 0, 120, 40, 40)
	dragged := rect("drag", 0, -1, 40, 40) // gap 21 vs 20

	gs := GetSmartGuides(dragged, []shape.Shape{ref, o, dragged}, nil, 5)

	spacing := guidesOf(gs, GuideSpacing, Horizontal)
	require.NotEmpty(t, spacing)
	assert.Equal(t, 0.0, spacing[0].Position)
}

func TestSnapToGuides_CenterSnapsCenter(t *testing.T) {
	s := rect("s", 98, 0, 40, 40) // center x 118
	snapped := SnapToGuides(s, []Guide{
		{Type: GuideCenter, Orientation: Vertical, Position: 120},
	})
	assert.Equal(t, 100.0, snapped.X)
	assert.Equal(t, 0.0, snapped.Y)
}

func TestSnapToGuides_EdgeSnapsLeftOrTop(t *testing.T) {
	s := rect("s", 98, 203, 40, 40)
	snapped := SnapToGuides(s, []Guide{
		{Type: GuideEdge, Orientation: Vertical, Position: 100},
		{Type: GuideEdge, Orientation: Horizontal, Position: 200},
	})
	assert.Equal(t, 100.0, snapped.X)
	assert.Equal(t, 200.0, snapped.Y)
}

func TestSnapToGuides_NearestGuidePerOrientationWins(t *testing.T) {
	s := rect("s", 98, 0, 40, 40)
	snapped := SnapToGuides(s, []Guide{
		{Type: GuideEdge, Orientation: Vertical, Position: 50},
		{Type: GuideEdge, Orientation: Vertical, Position: 99},
	})
	assert.Equal(t, 99.0, snapped.X)
}

func TestSnapToGuides_NoGuidesNoMove(t *testing.T) {
	s := rect("s", 7, 9, 10, 10)
	snapped := SnapToGuides(s, nil)
	assert.Equal(t, 7.0, snapped.X)
	assert.Equal(t, 9.0, snapped.Y)
}
