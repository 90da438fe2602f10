// Package model defines the stowage data model: containers, cargo items,
// placements and the geometry primitives they are built on. All dimensions
// are centimeters, all masses kilograms, all coordinates in the owning
// container's local frame.
package model

// CoordEpsilonScale sets the coordinate comparison tolerance: the epsilon is
// this factor times the container's largest extent, and that one value is
// used on every axis. There is no separate tolerance per axis.
const CoordEpsilonScale = 1e-6

// Container is a rigid storage volume with a single open face at D=0.
// Containers are immutable after creation.
type Container struct {
	ContainerID string  `json:"containerId"`
	Zone        string  `json:"zone"`
	Width       float64 `json:"width"`
	Depth       float64 `json:"depth"`
	Height      float64 `json:"height"`
}

// Eps returns the coordinate tolerance for this container: the epsilon scale
// applied to its largest extent, so one value is safe on any axis.
func (c Container) Eps() float64 {
	ext := c.Width
	if c.Height > ext {
		ext = c.Height
	}
	if c.Depth > ext {
		ext = c.Depth
	}
	return CoordEpsilonScale * ext
}

// Interior returns the container's interior as a box at the origin.
func (c Container) Interior() Box {
	return Box{W: c.Width, H: c.Height, D: c.Depth}
}

// Coord is a point expressed in the external (width, depth, height) key
// order used by the request/response surface and the CSV formats.
type Coord struct {
	Width  float64 `json:"width"`
	Depth  float64 `json:"depth"`
	Height float64 `json:"height"`
}

// Position is an occupied box in external form: start and end corners with
// end strictly greater than start on every axis.
type Position struct {
	Start Coord `json:"startCoordinates"`
	End   Coord `json:"endCoordinates"`
}

// Box converts the external form to the internal Box representation.
func (p Position) Box() Box {
	return Box{
		X: p.Start.Width,
		Y: p.Start.Height,
		Z: p.Start.Depth,
		W: p.End.Width - p.Start.Width,
		H: p.End.Height - p.Start.Height,
		D: p.End.Depth - p.Start.Depth,
	}
}

// PositionFromBox converts an internal Box to the external form.
func PositionFromBox(b Box) Position {
	end := b.End()
	return Position{
		Start: Coord{Width: b.X, Depth: b.Z, Height: b.Y},
		End:   Coord{Width: end.X, Depth: end.Z, Height: end.Y},
	}
}

// Waste reasons. These strings appear in manifests and API responses.
const (
	ReasonExpired   = "Expired"
	ReasonOutOfUses = "Out of Uses"
)

// Item is a cargo item. An unplaced item has an empty ContainerID and a nil
// Position. Once IsWaste is set it stays set until the item leaves the
// system at undocking.
type Item struct {
	ItemID        string    `json:"itemId"`
	Name          string    `json:"name"`
	Width         float64   `json:"width"`
	Depth         float64   `json:"depth"`
	Height        float64   `json:"height"`
	Mass          float64   `json:"mass"`
	Priority      int       `json:"priority"`
	ExpiryDate    Date      `json:"expiryDate,omitempty"`
	UsageLimit    *int      `json:"usageLimit,omitempty"`
	RemainingUses *int      `json:"remainingUses,omitempty"`
	PreferredZone string    `json:"preferredZone"`
	ContainerID   string    `json:"containerId,omitempty"`
	Position      *Position `json:"position,omitempty"`
	IsWaste       bool      `json:"isWaste"`
	WasteReason   string    `json:"wasteReason,omitempty"`
}

// Volume returns the item's bounding-box volume in cubic cm.
func (i Item) Volume() float64 {
	return i.Width * i.Depth * i.Height
}

// Placed reports whether the item currently occupies a container.
func (i Item) Placed() bool {
	return i.ContainerID != "" && i.Position != nil
}

// Expired reports whether the item's expiry is set and falls on or before
// the given day.
func (i Item) Expired(today Date) bool {
	return !i.ExpiryDate.IsZero() && i.ExpiryDate.OnOrBefore(today)
}

// Depleted reports whether the item tracks usage and has no uses left.
func (i Item) Depleted() bool {
	return i.UsageLimit != nil && i.RemainingUses != nil && *i.RemainingUses <= 0
}

// IntPtr returns a pointer to v. Convenience for the optional usage fields.
func IntPtr(v int) *int { return &v }
