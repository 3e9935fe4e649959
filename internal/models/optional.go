package models

import (
	"bytes"
	"encoding/json"
)

// Optional marks whether a field was supplied in a request, separately from its value.
// A missing field and an explicit JSON null both decode to an absent Optional.
type Optional[T any] struct {
	Value   T
	Present bool
}

// Some returns a present Optional holding v
func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Present: true}
}

// Get returns the value and whether it was present
func (o Optional[T]) Get() (T, bool) {
	return o.Value, o.Present
}

// UnmarshalJSON implements json.Unmarshaler
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*o = Optional[T]{}
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Some(v)
	return nil
}

// MarshalJSON implements json.Marshaler. Absent values encode as null.
func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Present {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// ItemPatch is a field-level partial update of an Item
type ItemPatch struct {
	Name    Optional[string] `json:"name"`
	Desc    Optional[string] `json:"desc"`
	Checked Optional[bool]   `json:"checked"`
}

// IsEmpty reports whether the patch carries no field at all
func (p ItemPatch) IsEmpty() bool {
	return !p.Name.Present && !p.Desc.Present && !p.Checked.Present
}

// Apply merges the present fields into item; absent fields stay untouched
func (p ItemPatch) Apply(item *Item) {
	if v, ok := p.Name.Get(); ok {
		item.Name = v
	}
	if v, ok := p.Desc.Get(); ok {
		item.Desc = v
	}
	if v, ok := p.Checked.Get(); ok {
		item.Checked = v
	}
}
