// Package store persists piping models to disk. A model travels as a
// Document, a flat serializable form holding segments, fittings and their
// connector joints; backends differ only in how the document is encoded
// (plain JSON, snappy-compressed JSON, or SQLite tables).
package store

import (
	"fmt"
	"sort"

	"github.com/mheijden/fitfix/pkg/geometry"
	"github.com/mheijden/fitfix/pkg/model"
)

// DocumentVersion is the current on-disk document format version.
const DocumentVersion = 1

// Document is the serializable form of a piping model.
type Document struct {
	Version  int             `json:"version"`
	Segments []SegmentRecord `json:"segments"`
	Fittings []FittingRecord `json:"fittings"`
	Joints   []JointRecord   `json:"joints"`
}

// SegmentRecord is one pipe segment row.
type SegmentRecord struct {
	ID           uint64        `json:"id"`
	TypeName     string        `json:"type_name"`
	DiameterMM   float64       `json:"diameter_mm"`
	Start        geometry.Vec3 `json:"start"`
	End          geometry.Vec3 `json:"end"`
	NoCenterline bool          `json:"no_centerline,omitempty"`
}

// FittingRecord is one fitting row with its named parameters.
type FittingRecord struct {
	ID         uint64                 `json:"id"`
	Family     string                 `json:"family"`
	Connectors int                    `json:"connectors"`
	Flippable  bool                   `json:"flippable,omitempty"`
	Flipped    bool                   `json:"flipped,omitempty"`
	Params     map[string]ParamRecord `json:"params,omitempty"`
}

// ParamRecord is one named parameter value. Storage names match
// model.ParamStorage.String.
type ParamRecord struct {
	Storage string  `json:"storage"`
	Bool    bool    `json:"bool,omitempty"`
	Int     int64   `json:"int,omitempty"`
	Float   float64 `json:"float,omitempty"`
	Text    string  `json:"text,omitempty"`
	IsSet   bool    `json:"is_set"`
}

// JointRecord connects connector AConnector of element A with connector
// BConnector of element B.
type JointRecord struct {
	A          uint64 `json:"a"`
	AConnector int    `json:"a_connector"`
	B          uint64 `json:"b"`
	BConnector int    `json:"b_connector"`
}

// Capture serializes the live contents of a model into a document.
// Elements invalidated out-of-band are dropped, along with any joints
// referencing them.
func Capture(m *model.PipingModel) (*Document, error) {
	segments, err := m.Segments()
	if err != nil {
		return nil, fmt.Errorf("capture segments: %w", err)
	}
	fittings, err := m.Fittings()
	if err != nil {
		return nil, fmt.Errorf("capture fittings: %w", err)
	}

	doc := &Document{Version: DocumentVersion}
	ids := make([]model.ElementID, 0, len(segments)+len(fittings))

	for _, s := range segments {
		doc.Segments = append(doc.Segments, SegmentRecord{
			ID:           uint64(s.ID),
			TypeName:     s.TypeName,
			DiameterMM:   s.DiameterMM,
			Start:        s.Start,
			End:          s.End,
			NoCenterline: s.NoCenterline,
		})
		ids = append(ids, s.ID)
	}

	for _, f := range fittings {
		rec := FittingRecord{
			ID:         uint64(f.ID),
			Family:     f.Family,
			Connectors: len(m.ConnectorRefs(f.ID)),
			Flippable:  f.Flippable,
			Flipped:    f.Flipped,
		}
		if len(f.Params) > 0 {
			rec.Params = make(map[string]ParamRecord, len(f.Params))
			for name, p := range f.Params {
				rec.Params[name] = paramRecord(p)
			}
		}
		doc.Fittings = append(doc.Fittings, rec)
		ids = append(ids, f.ID)
	}

	doc.Joints = captureJoints(m, ids)
	return doc, nil
}

// captureJoints reconstructs joint pairs from the bidirectional connector
// references. Each join is emitted once, from the side with the smaller
// identity, in a deterministic order.
func captureJoints(m *model.PipingModel, ids []model.ElementID) []JointRecord {
	// occ[a][b] lists the connector indices of a referencing b, in
	// connector order.
	occ := make(map[model.ElementID]map[model.ElementID][]int, len(ids))
	for _, id := range ids {
		for ci, refs := range m.ConnectorRefs(id) {
			for _, other := range refs {
				if occ[id] == nil {
					occ[id] = make(map[model.ElementID][]int)
				}
				occ[id][other] = append(occ[id][other], ci)
			}
		}
	}

	sorted := append([]model.ElementID(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var joints []JointRecord
	for _, a := range sorted {
		others := make([]model.ElementID, 0, len(occ[a]))
		for b := range occ[a] {
			if b > a {
				others = append(others, b)
			}
		}
		sort.Slice(others, func(i, j int) bool { return others[i] < others[j] })

		for _, b := range others {
			aConns := occ[a][b]
			bConns := occ[b][a]
			// A dead or scrubbed counterpart has no reverse references;
			// such joints are dropped.
			n := min(len(aConns), len(bConns))
			for i := 0; i < n; i++ {
				joints = append(joints, JointRecord{
					A:          uint64(a),
					AConnector: aConns[i],
					B:          uint64(b),
					BConnector: bConns[i],
				})
			}
		}
	}
	return joints
}

// Restore rebuilds an in-memory model from a document. Document element
// identities are remapped to fresh model identities; joints follow the
// remapping.
func Restore(doc *Document) (*model.PipingModel, error) {
	if doc == nil {
		return nil, fmt.Errorf("nil document")
	}
	if doc.Version > DocumentVersion {
		return nil, fmt.Errorf("unsupported document version %d", doc.Version)
	}

	m := model.NewPipingModel()
	idMap := make(map[uint64]model.ElementID, len(doc.Segments)+len(doc.Fittings))

	for _, sr := range doc.Segments {
		if _, dup := idMap[sr.ID]; dup {
			return nil, fmt.Errorf("duplicate element id %d", sr.ID)
		}
		s := m.AddSegment(sr.TypeName, sr.DiameterMM, sr.Start, sr.End)
		s.NoCenterline = sr.NoCenterline
		idMap[sr.ID] = s.ID
	}

	for _, fr := range doc.Fittings {
		if _, dup := idMap[fr.ID]; dup {
			return nil, fmt.Errorf("duplicate element id %d", fr.ID)
		}
		var params map[string]*model.Param
		if len(fr.Params) > 0 {
			params = make(map[string]*model.Param, len(fr.Params))
			for name, pr := range fr.Params {
				p, err := pr.toParam()
				if err != nil {
					return nil, fmt.Errorf("fitting %d parameter %q: %w", fr.ID, name, err)
				}
				params[name] = p
			}
		}
		f := m.AddFitting(fr.Family, fr.Connectors, fr.Flippable, params)
		f.Flipped = fr.Flipped
		idMap[fr.ID] = f.ID
	}

	for _, j := range doc.Joints {
		a, ok := idMap[j.A]
		if !ok {
			return nil, fmt.Errorf("joint references unknown element %d", j.A)
		}
		b, ok := idMap[j.B]
		if !ok {
			return nil, fmt.Errorf("joint references unknown element %d", j.B)
		}
		if err := m.Join(a, j.AConnector, b, j.BConnector); err != nil {
			return nil, fmt.Errorf("restore joint %d-%d: %w", j.A, j.B, err)
		}
	}

	return m, nil
}

func paramRecord(p *model.Param) ParamRecord {
	return ParamRecord{
		Storage: p.Storage.String(),
		Bool:    p.Bool,
		Int:     p.Int,
		Float:   p.Float,
		Text:    p.Text,
		IsSet:   p.IsSet,
	}
}

func (pr ParamRecord) toParam() (*model.Param, error) {
	storage, err := parseStorage(pr.Storage)
	if err != nil {
		return nil, err
	}
	return &model.Param{
		Storage: storage,
		Bool:    pr.Bool,
		Int:     pr.Int,
		Float:   pr.Float,
		Text:    pr.Text,
		IsSet:   pr.IsSet,
	}, nil
}

func parseStorage(s string) (model.ParamStorage, error) {
	switch s {
	case "bool":
		return model.StorageBool, nil
	case "integer":
		return model.StorageInteger, nil
	case "double":
		return model.StorageDouble, nil
	case "text":
		return model.StorageText, nil
	}
	return 0, fmt.Errorf("unknown parameter storage %q", s)
}
