package format

import (
	"slices"

	"github.com/wippyai/nrbf/errors"
)

// RecordMap resolves object ids to records within one stream. A map is
// owned by a single parse and is never shared between parses.
type RecordMap struct {
	records map[ObjectID]Record
}

// NewRecordMap creates an empty map.
func NewRecordMap() *RecordMap {
	return &RecordMap{records: make(map[ObjectID]Record)}
}

// Register binds id to r. A second registration of a positive id fails
// with duplicate_id; for ids <= 0 the first registration wins.
func (m *RecordMap) Register(id ObjectID, r Record) error {
	if _, exists := m.records[id]; exists {
		if id > 0 {
			return errors.DuplicateID(errors.PhaseDecode, int32(id))
		}
		return nil
	}
	m.records[id] = r
	return nil
}

// Lookup returns the record registered under id.
func (m *RecordMap) Lookup(id ObjectID) (Record, error) {
	r, ok := m.records[id]
	if !ok {
		return nil, errors.NotFound(errors.PhaseDecode, "object", int32(id))
	}
	return r, nil
}

// Len returns the number of registered ids.
func (m *RecordMap) Len() int {
	return len(m.records)
}

// IDs returns the registered ids in ascending order.
func (m *RecordMap) IDs() []ObjectID {
	ids := make([]ObjectID, 0, len(m.records))
	for id := range m.records {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Resolve follows a MemberReference to its target. Any other value is
// returned unchanged.
func (m *RecordMap) Resolve(v any) (any, error) {
	ref, ok := v.(*MemberReference)
	if !ok {
		return v, nil
	}
	target, err := m.Lookup(ref.IDRef)
	if err != nil {
		return nil, errors.DanglingReference(errors.PhaseDecode, int32(ref.IDRef), "reference target not registered")
	}
	return target, nil
}
