package genotype

import "fmt"

// SlotKind names one mutable part of a gene.
type SlotKind uint8

const (
	SlotColor SlotKind = iota
	SlotAlpha
	SlotDepth
	SlotVertex
	SlotCenter
	SlotAngle
	SlotRadius
	SlotRotation
)

var slotKindNames = [...]string{
	SlotColor:    "color",
	SlotAlpha:    "alpha",
	SlotDepth:    "depth",
	SlotVertex:   "vertex",
	SlotCenter:   "center",
	SlotAngle:    "angle",
	SlotRadius:   "radius",
	SlotRotation: "rotation",
}

func (k SlotKind) String() string {
	if int(k) < len(slotKindNames) {
		return slotKindNames[k]
	}
	return fmt.Sprintf("slot(%d)", uint8(k))
}

// Slot is a field or field group that a single mutation redraws. Index
// selects the channel, vertex or angle for indexed kinds.
type Slot struct {
	Kind  SlotKind
	Index int
}

func (s Slot) String() string {
	switch s.Kind {
	case SlotColor, SlotVertex, SlotAngle:
		return fmt.Sprintf("%s[%d]", s.Kind, s.Index)
	default:
		return s.Kind.String()
	}
}

var triangleSlots = []Slot{
	{Kind: SlotColor, Index: 0},
	{Kind: SlotColor, Index: 1},
	{Kind: SlotColor, Index: 2},
	{Kind: SlotAlpha},
	{Kind: SlotDepth},
	{Kind: SlotVertex, Index: 0},
	{Kind: SlotVertex, Index: 1},
	{Kind: SlotVertex, Index: 2},
}

var polarSlots = []Slot{
	{Kind: SlotColor, Index: 0},
	{Kind: SlotColor, Index: 1},
	{Kind: SlotColor, Index: 2},
	{Kind: SlotAlpha},
	{Kind: SlotDepth},
	{Kind: SlotCenter},
	{Kind: SlotAngle, Index: 0},
	{Kind: SlotAngle, Index: 1},
	{Kind: SlotAngle, Index: 2},
	{Kind: SlotRadius},
	{Kind: SlotRotation},
}
