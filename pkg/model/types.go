// Package model defines the piping network entities the audit engine runs
// against: segments, fittings, connectors and their named parameters, plus
// the accessor contract (snapshot reads, atomic units, run grouping) and a
// reference in-memory implementation.
package model

import (
	"github.com/mheijden/fitfix/pkg/geometry"
)

// ElementID is the stable identity of a segment or fitting. Identities are
// opaque to the engine; they survive parameter mutation and orientation
// flips within a run.
type ElementID uint64

// IDSet is a set of element identities, scoped to one run.
type IDSet map[ElementID]struct{}

// NewIDSet creates an empty identity set.
func NewIDSet() IDSet {
	return make(IDSet)
}

// Add inserts id and reports whether it was newly added.
func (s IDSet) Add(id ElementID) bool {
	if _, seen := s[id]; seen {
		return false
	}
	s[id] = struct{}{}
	return true
}

// Has reports whether id is in the set.
func (s IDSet) Has(id ElementID) bool {
	_, seen := s[id]
	return seen
}

// Len returns the number of identities in the set.
func (s IDSet) Len() int {
	return len(s)
}

// OwnerKind tells what kind of element owns a connector reference.
type OwnerKind uint8

const (
	OwnerSegment OwnerKind = iota
	OwnerFitting
)

// String returns the string representation of an owner kind
func (k OwnerKind) String() string {
	switch k {
	case OwnerSegment:
		return "segment"
	case OwnerFitting:
		return "fitting"
	default:
		return "unknown"
	}
}

// ParamStorage represents the storage kind backing a named parameter.
type ParamStorage uint8

const (
	StorageBool ParamStorage = iota
	StorageInteger
	StorageDouble
	StorageText
)

// String returns the string representation of a parameter storage kind
func (s ParamStorage) String() string {
	switch s {
	case StorageBool:
		return "bool"
	case StorageInteger:
		return "integer"
	case StorageDouble:
		return "double"
	case StorageText:
		return "text"
	default:
		return "unknown"
	}
}

// Param is one named configuration value on a fitting. Yes/no parameters
// may be backed by bool or integer storage; host models differ. IsSet
// distinguishes a parameter that merely exists from one that has been
// given a value.
type Param struct {
	Storage ParamStorage
	Bool    bool
	Int     int64
	Float   float64
	Text    string
	IsSet   bool
}

// Helper functions to create typed parameters
func BoolParam(v bool) *Param {
	return &Param{Storage: StorageBool, Bool: v, IsSet: true}
}

func IntParam(v int64) *Param {
	return &Param{Storage: StorageInteger, Int: v, IsSet: true}
}

func DoubleParam(v float64) *Param {
	return &Param{Storage: StorageDouble, Float: v, IsSet: true}
}

func TextParam(v string) *Param {
	return &Param{Storage: StorageText, Text: v, IsSet: true}
}

// UnsetBoolParam creates a bool-backed parameter that exists but has no
// assigned value yet.
func UnsetBoolParam() *Param {
	return &Param{Storage: StorageBool}
}

// UnsetIntParam creates an integer-backed parameter with no assigned value.
func UnsetIntParam() *Param {
	return &Param{Storage: StorageInteger}
}

// AsBool reads the parameter as a yes/no value. The second return is false
// when the storage kind cannot carry a boolean or no value was assigned.
func (p *Param) AsBool() (bool, bool) {
	if !p.IsSet {
		return false, false
	}
	switch p.Storage {
	case StorageBool:
		return p.Bool, true
	case StorageInteger:
		return p.Int != 0, true
	default:
		return false, false
	}
}

// setBool assigns a yes/no value in the parameter's own storage kind.
// Only bool and integer storage can carry one.
func (p *Param) setBool(v bool) error {
	switch p.Storage {
	case StorageBool:
		p.Bool = v
	case StorageInteger:
		if v {
			p.Int = 1
		} else {
			p.Int = 0
		}
	default:
		return ErrParamMismatch
	}
	p.IsSet = true
	return nil
}

// Clone returns a deep copy of the parameter.
func (p *Param) Clone() *Param {
	cp := *p
	return &cp
}

// Segment is a linear pipe run with two endpoint connectors.
type Segment struct {
	ID         ElementID
	TypeName   string
	DiameterMM float64
	Start      geometry.Vec3
	End        geometry.Vec3

	// NoCenterline marks a segment whose geometry could not be retrieved
	// from the host model; such segments have no direction.
	NoCenterline bool
}

// Direction returns the segment's normalized direction vector, pointing
// from the first endpoint to the second. The second return is false when
// the centerline is missing or degenerate; that is an expected condition,
// not an error.
func (s *Segment) Direction() (geometry.Vec3, bool) {
	if s.NoCenterline {
		return geometry.Vec3{}, false
	}
	return geometry.Direction(s.Start, s.End)
}

// Fitting is a non-linear network component carrying named configuration
// parameters and an optional flippable orientation.
type Fitting struct {
	ID        ElementID
	Family    string
	Params    map[string]*Param
	Flippable bool
	Flipped   bool
}

// CanFlip reports whether the fitting's orientation can be flipped.
func (f *Fitting) CanFlip() bool {
	return f.Flippable
}

// Param returns the named parameter, or nil when the fitting does not
// carry it.
func (f *Fitting) Param(name string) *Param {
	return f.Params[name]
}
