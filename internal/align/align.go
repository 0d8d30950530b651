// Package align moves groups of shapes into alignment and computes the
// smart guides shown while a shape is dragged. All functions are pure:
// inputs are never mutated, adjusted copies are returned.
package align

import (
	"sort"

	"doccanvas/internal/geom"
	"doccanvas/internal/shape"
)

// MinAlignShapes and MinDistributeShapes are the group sizes below which
// alignment and distribution are no-ops.
const (
	MinAlignShapes      = 2
	MinDistributeShapes = 3
)

func cloneAll(shapes []shape.Shape) []shape.Shape {
	out := make([]shape.Shape, len(shapes))
	for i, s := range shapes {
		out[i] = s.Clone()
	}
	return out
}

// AlignLeft moves every shape so its left edge sits on the group's
// leftmost edge. Fewer than two shapes returns the input unchanged.
func AlignLeft(shapes []shape.Shape) []shape.Shape {
	if len(shapes) < MinAlignShapes {
		return cloneAll(shapes)
	}
	target := shapes[0].Bounds().X
	for _, s := range shapes[1:] {
		if b := s.Bounds(); b.X < target {
			target = b.X
		}
	}
	out := cloneAll(shapes)
	for i := range out {
		out[i].X += target - out[i].Bounds().X
	}
	return out
}

// AlignRight moves every shape so its right edge sits on the group's
// rightmost edge.
func AlignRight(shapes []shape.Shape) []shape.Shape {
	if len(shapes) < MinAlignShapes {
		return cloneAll(shapes)
	}
	target := shapes[0].Bounds().Right()
	for _, s := range shapes[1:] {
		if b := s.Bounds(); b.Right() > target {
			target = b.Right()
		}
	}
	out := cloneAll(shapes)
	for i := range out {
		out[i].X += target - out[i].Bounds().Right()
	}
	return out
}

// AlignTop moves every shape so its top edge sits on the group's topmost
// edge.
func AlignTop(shapes []shape.Shape) []shape.Shape {
	if len(shapes) < MinAlignShapes {
		return cloneAll(shapes)
	}
	target := shapes[0].Bounds().Y
	for _, s := range shapes[1:] {
		if b := s.Bounds(); b.Y < target {
			target = b.Y
		}
	}
	out := cloneAll(shapes)
	for i := range out {
		out[i].Y += target - out[i].Bounds().Y
	}
	return out
}

// AlignBottom moves every shape so its bottom edge sits on the group's
// bottommost edge.
func AlignBottom(shapes []shape.Shape) []shape.Shape {
	if len(shapes) < MinAlignShapes {
		return cloneAll(shapes)
	}
	target := shapes[0].Bounds().Bottom()
	for _, s := range shapes[1:] {
		if b := s.Bounds(); b.Bottom() > target {
			target = b.Bottom()
		}
	}
	out := cloneAll(shapes)
	for i := range out {
		out[i].Y += target - out[i].Bounds().Bottom()
	}
	return out
}

// AlignCenterHorizontal centers every shape on the group bounding box's
// vertical center line (x axis movement).
func AlignCenterHorizontal(shapes []shape.Shape) []shape.Shape {
	if len(shapes) < MinAlignShapes {
		return cloneAll(shapes)
	}
	group := groupBounds(shapes)
	target := group.CenterX()
	out := cloneAll(shapes)
	for i := range out {
		out[i].X += target - out[i].Bounds().CenterX()
	}
	return out
}

// AlignCenterVertical centers every shape on the group bounding box's
// horizontal center line (y axis movement).
func AlignCenterVertical(shapes []shape.Shape) []shape.Shape {
	if len(shapes) < MinAlignShapes {
		return cloneAll(shapes)
	}
	group := groupBounds(shapes)
	target := group.CenterY()
	out := cloneAll(shapes)
	for i := range out {
		out[i].Y += target - out[i].Bounds().CenterY()
	}
	return out
}

// DistributeHorizontally spaces the shapes so the gaps between neighbours
// are equal. The leftmost and rightmost shapes stay put; the uniform gap
// is what remains of the span once every width is accounted for, divided
// over the gap count. Fewer than three shapes returns the input unchanged.
func DistributeHorizontally(shapes []shape.Shape) []shape.Shape {
	if len(shapes) < MinDistributeShapes {
		return cloneAll(shapes)
	}
	out := cloneAll(shapes)
	order := make([]int, len(out))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return out[order[a]].Bounds().X < out[order[b]].Bounds().X
	})

	first := out[order[0]].Bounds()
	last := out[order[len(order)-1]].Bounds()
	span := last.Right() - first.X
	total := 0.0
	for _, i := range order {
		total += out[i].Bounds().Width
	}
	gap := (span - total) / float64(len(out)-1)

	cursor := first.Right()
	for _, i := range order[1 : len(order)-1] {
		b := out[i].Bounds()
		out[i].X += cursor + gap - b.X
		cursor += gap + b.Width
	}
	return out
}

// DistributeVertically spaces the shapes with equal vertical gaps; the
// topmost and bottommost shapes stay put.
func DistributeVertically(shapes []shape.Shape) []shape.Shape {
	if len(shapes) < MinDistributeShapes {
		return cloneAll(shapes)
	}
	out := cloneAll(shapes)
	order := make([]int, len(out))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return out[order[a]].Bounds().Y < out[order[b]].Bounds().Y
	})

	first := out[order[0]].Bounds()
	last := out[order[len(order)-1]].Bounds()
	span := last.Bottom() - first.Y
	total := 0.0
	for _, i := range order {
		total += out[i].Bounds().Height
	}
	gap := (span - total) / float64(len(out)-1)

	cursor := first.Bottom()
	for _, i := range order[1 : len(order)-1] {
		b := out[i].Bounds()
		out[i].Y += cursor + gap - b.Y
		cursor += gap + b.Height
	}
	return out
}

// MakeSameWidth copies the reference shape's width onto every shape.
// An unknown reference id falls back to the first shape.
func MakeSameWidth(shapes []shape.Shape, refID string) []shape.Shape {
	out := cloneAll(shapes)
	ref, ok := findRef(out, refID)
	if !ok {
		return out
	}
	for i := range out {
		out[i].Width = ref.Width
	}
	return out
}

// MakeSameHeight copies the reference shape's height onto every shape.
func MakeSameHeight(shapes []shape.Shape, refID string) []shape.Shape {
	out := cloneAll(shapes)
	ref, ok := findRef(out, refID)
	if !ok {
		return out
	}
	for i := range out {
		out[i].Height = ref.Height
	}
	return out
}

// MakeSameSize copies both of the reference shape's dimensions onto every
// shape.
func MakeSameSize(shapes []shape.Shape, refID string) []shape.Shape {
	out := cloneAll(shapes)
	ref, ok := findRef(out, refID)
	if !ok {
		return out
	}
	for i := range out {
		out[i].Width = ref.Width
		out[i].Height = ref.Height
	}
	return out
}

func findRef(shapes []shape.Shape, refID string) (shape.Shape, bool) {
	if len(shapes) == 0 {
		return shape.Shape{}, false
	}
	for _, s := range shapes {
		if s.ID == refID {
			return s, true
		}
	}
	return shapes[0], true
}

func groupBounds(shapes []shape.Shape) geom.Rect {
	b := shapes[0].Bounds()
	for _, s := range shapes[1:] {
		b = b.Union(s.Bounds())
	}
	return b
}
