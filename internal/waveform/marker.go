package waveform

// Flag marker colors, hex values matching the review palette.
var markerColors = map[string]string{
	"red":    "#ef4444",
	"green":  "#10b981",
	"blue":   "#3b82f6",
	"purple": "#a855f7",
	"orange": "#f97316",
}

const defaultMarkerColor = "#10b981" // green

const defaultTooltip = "Flagged Moment"

// MarkerColor maps a palette name to its hex value. Unknown names fall back
// to green.
func MarkerColor(name string) string {
	if hex, ok := markerColors[name]; ok {
		return hex
	}
	return defaultMarkerColor
}

// Marker is one rendered flag marker on the waveform surface.
type Marker struct {
	ID       uint
	Position float64 // px from the left edge of the surface
	Color    string  // hex
	Tooltip  string
}

// MarkerOpKind distinguishes diff instructions.
type MarkerOpKind int

const (
	MarkerAdd MarkerOpKind = iota
	MarkerUpdate
	MarkerRemove
)

// MarkerOp is one render instruction produced by DiffMarkers.
type MarkerOp struct {
	Kind   MarkerOpKind
	Marker Marker
}

// Position changes below this threshold are not worth a reflow.
const repositionThreshold = 0.1

// DiffMarkers compares the markers currently on the surface with the
// desired set, keyed by id. It returns update-in-place instructions: new ids
// are added, existing ids are updated only when position (beyond a small
// threshold), color, or tooltip changed, and stale ids are removed. The
// function is pure; callers apply the ops and record the new state.
func DiffMarkers(current map[uint]Marker, desired []Marker) []MarkerOp {
	var ops []MarkerOp
	seen := make(map[uint]struct{}, len(desired))

	for _, want := range desired {
		seen[want.ID] = struct{}{}
		have, ok := current[want.ID]
		if !ok {
			ops = append(ops, MarkerOp{Kind: MarkerAdd, Marker: want})
			continue
		}
		moved := want.Position-have.Position > repositionThreshold ||
			have.Position-want.Position > repositionThreshold
		if moved || want.Color != have.Color || want.Tooltip != have.Tooltip {
			ops = append(ops, MarkerOp{Kind: MarkerUpdate, Marker: want})
		}
	}

	for id, have := range current {
		if _, ok := seen[id]; !ok {
			ops = append(ops, MarkerOp{Kind: MarkerRemove, Marker: have})
		}
	}
	return ops
}
