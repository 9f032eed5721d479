// Package mpcdi defines the data handed over by an MPCDI profile reader: profile
// types, geometry units, geometry warp files and alpha/beta data maps.
//
// Parsing the MPCDI container itself happens elsewhere; this package only describes
// and validates the already-parsed payload.
package mpcdi

import (
	"errors"
	"fmt"
	"strings"
)

// Validation errors.
var (
	ErrInvalidDimensions = errors.New("invalid dimensions")
	ErrTruncatedNodes    = errors.New("node count does not match dimensions")
	ErrTruncatedData     = errors.New("data map payload does not match dimensions")
	ErrUnknownProfile    = errors.New("unknown profile type")
	ErrUnknownUnit       = errors.New("unknown geometry unit")
)

// ProfileType is the MPCDI calibration profile of a region.
type ProfileType uint8

// Profile types.
const (
	Profile2D  ProfileType = iota // Flat 2D warp in UV space
	Profile3D                     // Stereoscopic 3D
	ProfileA3D                    // Advanced 3D
	ProfileSL                     // Shader lamp
)

// String returns the profile name as written in MPCDI files.
func (p ProfileType) String() string {
	switch p {
	case Profile2D:
		return "2d"
	case Profile3D:
		return "3d"
	case ProfileA3D:
		return "a3d"
	case ProfileSL:
		return "sl"
	default:
		return fmt.Sprintf("Unknown(%d)", p)
	}
}

// Is3D reports whether warp nodes carry world-space positions.
func (p ProfileType) Is3D() bool {
	return p != Profile2D
}

// ParseProfileType parses a profile name such as "a3d".
func ParseProfileType(s string) (ProfileType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "2d":
		return Profile2D, nil
	case "3d":
		return Profile3D, nil
	case "a3d", "advanced3d":
		return ProfileA3D, nil
	case "sl", "shaderlamp":
		return ProfileSL, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownProfile, s)
}

// GeometryUnit is the declared unit of geometry warp file positions.
type GeometryUnit uint8

// Geometry units.
const (
	UnitMillimeter GeometryUnit = iota
	UnitCentimeter
	UnitDecimeter
	UnitMeter
	UnitInch
	UnitFoot
	UnitYard
)

var unitNames = [...]string{"mm", "cm", "dm", "m", "in", "ft", "yd"}

// centimeters per unit, indexed by GeometryUnit.
var unitScale = [...]float64{0.1, 1, 10, 100, 2.54, 30.48, 91.44}

// String returns the unit abbreviation.
func (u GeometryUnit) String() string {
	if int(u) < len(unitNames) {
		return unitNames[u]
	}
	return fmt.Sprintf("Unknown(%d)", u)
}

// Centimeters returns how many centimeters one unit spans.
// Unknown units are treated as centimeters.
func (u GeometryUnit) Centimeters() float64 {
	if int(u) < len(unitScale) {
		return unitScale[u]
	}
	return 1
}

// ParseGeometryUnit parses a unit abbreviation such as "mm".
func ParseGeometryUnit(s string) (GeometryUnit, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range unitNames {
		if s == name {
			return GeometryUnit(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownUnit, s)
}

// Node is one NODE(r,g,b) entry of a geometry warp file.
type Node struct {
	R, G, B float32
}

// GeometryWarpFile is a parsed row-major grid of warp nodes.
type GeometryWarpFile struct {
	Width  int
	Height int
	Unit   GeometryUnit
	Nodes  []Node
}

// Validate checks that the node grid matches the declared dimensions.
func (f *GeometryWarpFile) Validate() error {
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, f.Width, f.Height)
	}
	if len(f.Nodes) != f.Width*f.Height {
		return fmt.Errorf("%w: %d nodes for %dx%d", ErrTruncatedNodes, len(f.Nodes), f.Width, f.Height)
	}
	return nil
}

// DataMap is an alpha or beta blend image as stored in the profile.
type DataMap struct {
	Width          int
	Height         int
	ComponentDepth int // Channels per pixel
	BitDepth       int // Bits per channel
	Data           []byte
	Gamma          float32
}

// Validate checks that the payload size matches the declared layout.
func (m *DataMap) Validate() error {
	if m.Width <= 0 || m.Height <= 0 || m.ComponentDepth <= 0 || m.BitDepth <= 0 || m.BitDepth%8 != 0 {
		return fmt.Errorf("%w: %dx%d, %d components at %d bits",
			ErrInvalidDimensions, m.Width, m.Height, m.ComponentDepth, m.BitDepth)
	}
	want := m.Width * m.Height * m.ComponentDepth * (m.BitDepth / 8)
	if len(m.Data) != want {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrTruncatedData, len(m.Data), want)
	}
	return nil
}
