package align

import (
	"math"

	"doccanvas/internal/shape"
)

// DefaultTolerance is the snap distance in pixels below which a guide is
// produced.
const DefaultTolerance = 5.0

// GuideType classifies what a smart guide is aligning.
type GuideType string

const (
	GuideCenter  GuideType = "center"
	GuideEdge    GuideType = "edge"
	GuideSpacing GuideType = "spacing"
)

// Orientation is the direction of the guide line itself.
type Orientation string

const (
	// Vertical guides constrain x; Horizontal guides constrain y.
	Vertical   Orientation = "vertical"
	Horizontal Orientation = "horizontal"
)

// Guide is an ephemeral snap hint produced during a drag. It is never
// persisted.
type Guide struct {
	Type        GuideType
	Orientation Orientation
	Position    float64
	RefIDs      []string
}

// GetSmartGuides compares the dragged shape's center and edges against
// every other shape within tolerance, and additionally looks for equal
// spacing relative to a shared reference shape. Shapes named in excludeIDs
// (normally the rest of the current selection) and hidden shapes are
// skipped. The scan is linear in the number of shapes on the page.
func GetSmartGuides(dragged shape.Shape, all []shape.Shape, excludeIDs []string, tolerance float64) []Guide {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	skip := map[string]struct{}{dragged.ID: {}}
	for _, id := range excludeIDs {
		skip[id] = struct{}{}
	}

	var others []shape.Shape
	for _, s := range all {
		if _, off := skip[s.ID]; off || !s.Visible {
			continue
		}
		others = append(others, s)
	}

	db := dragged.Bounds()
	var guides []Guide

	for _, o := range others {
		ob := o.Bounds()

		// Center alignment.
		if math.Abs(db.CenterX()-ob.CenterX()) < tolerance {
			guides = append(guides, Guide{GuideCenter, Vertical, ob.CenterX(), []string{o.ID}})
		}
		if math.Abs(db.CenterY()-ob.CenterY()) < tolerance {
			guides = append(guides, Guide{GuideCenter, Horizontal, ob.CenterY(), []string{o.ID}})
		}

		// Edge alignment, either edge of the dragged shape against either
		// edge of the other.
		for _, edge := range []float64{ob.X, ob.Right()} {
			if math.Abs(db.X-edge) < tolerance || math.Abs(db.Right()-edge) < tolerance {
				guides = append(guides, Guide{GuideEdge, Vertical, edge, []string{o.ID}})
			}
		}
		for _, edge := range []float64{ob.Y, ob.Bottom()} {
			if math.Abs(db.Y-edge) < tolerance || math.Abs(db.Bottom()-edge) < tolerance {
				guides = append(guides, Guide{GuideEdge, Horizontal, edge, []string{o.ID}})
			}
		}
	}

	guides = append(guides, spacingGuides(dragged, others, tolerance)...)
	return guides
}

// spacingGuides detects the "equal spacing" case: the gap between the
// dragged shape and a reference matches the gap between that reference and
// some other shape. The dragged shape may approach the pair from either
// side on either axis.
func spacingGuides(dragged shape.Shape, others []shape.Shape, tolerance float64) []Guide {
	db := dragged.Bounds()
	var guides []Guide

	for _, ref := range others {
		rb := ref.Bounds()
		for _, o := range others {
			if o.ID == ref.ID {
				continue
			}
			ob := o.Bounds()

			// Horizontal run: o | ref | dragged, left to right.
			if ob.Right() <= rb.X && rb.Right() <= db.X {
				refGap := rb.X - ob.Right()
				dragGap := db.X - rb.Right()
				if math.Abs(dragGap-refGap) < tolerance {
					guides = append(guides, Guide{
						Type:        GuideSpacing,
						Orientation: Vertical,
						Position:    rb.Right() + refGap,
						RefIDs:      []string{o.ID, ref.ID},
					})
				}
			}

			// Mirrored horizontal run: dragged | ref | o.
			if db.Right() <= rb.X && rb.Right() <= ob.X {
				refGap := ob.X - rb.Right()
				dragGap := rb.X - db.Right()
				if math.Abs(dragGap-refGap) < tolerance {
					guides = append(guides, Guide{
						Type:        GuideSpacing,
						Orientation: Vertical,
						Position:    rb.X - refGap - db.Width,
						RefIDs:      []string{ref.ID, o.ID},
					})
				}
			}

			// Vertical run: o above ref above dragged.
			if ob.Bottom() <= rb.Y && rb.Bottom() <= db.Y {
				refGap := rb.Y - ob.Bottom()
				dragGap := db.Y - rb.Bottom()
				if math.Abs(dragGap-refGap) < tolerance {
					guides = append(guides, Guide{
						Type:        GuideSpacing,
						Orientation: Horizontal,
						Position:    rb.Bottom() + refGap,
						RefIDs:      []string{o.ID, ref.ID},
					})
				}
			}

			// Mirrored vertical run: dragged above ref above o.
			if db.Bottom() <= rb.Y && rb.Bottom() <= ob.Y {
				refGap := ob.Y - rb.Bottom()
				dragGap := rb.Y - db.Bottom()
				if math.Abs(dragGap-refGap) < tolerance {
					guides = append(guides, Guide{
						Type:        GuideSpacing,
						Orientation: Horizontal,
						Position:    rb.Y - refGap - db.Height,
						RefIDs:      []string{ref.ID, o.ID},
					})
				}
			}
		}
	}
	return guides
}

// SnapToGuides moves the shape onto its guides: center guides snap the
// shape's center, edge and spacing guides snap its top/left edge. When
// several guides share an orientation the one nearest the shape wins.
func SnapToGuides(s shape.Shape, guides []Guide) shape.Shape {
	out := s.Clone()
	b := out.Bounds()

	var bestV, bestH *Guide
	bestVDist, bestHDist := math.Inf(1), math.Inf(1)
	for i := range guides {
		g := guides[i]
		switch g.Orientation {
		case Vertical:
			d := math.Abs(guideDelta(b.CenterX(), b.X, g))
			if d < bestVDist {
				bestVDist, bestV = d, &guides[i]
			}
		case Horizontal:
			d := math.Abs(guideDelta(b.CenterY(), b.Y, g))
			if d < bestHDist {
				bestHDist, bestH = d, &guides[i]
			}
		}
	}

	if bestV != nil {
		out.X += guideDelta(b.CenterX(), b.X, *bestV)
	}
	if bestH != nil {
		out.Y += guideDelta(b.CenterY(), b.Y, *bestH)
	}
	return out
}

func guideDelta(center, edge float64, g Guide) float64 {
	if g.Type == GuideCenter {
		return g.Position - center
	}
	return g.Position - edge
}
