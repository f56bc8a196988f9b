package series

import (
	"encoding/json"
	"fmt"
)

type wireDataset map[string]json.RawMessage

// UnmarshalJSON decodes the solver's object-of-arrays form. Columns are kept
// in catalogue order; unknown keys are ignored whatever their type.
func (d *Dataset) UnmarshalJSON(data []byte) error {
	var w wireDataset
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("%w: %v", ErrDataIntegrity, err)
	}
	timeVals, ok := w["time"]
	if !ok {
		return integrity("time", -1, "missing column")
	}
	t, err := unwrapFloats("time", timeVals)
	if err != nil {
		return err
	}
	out := Dataset{Time: t}
	for _, v := range Variables() {
		raw, ok := w[string(v)]
		if !ok {
			continue
		}
		vals, err := unwrapFloats(string(v), raw)
		if err != nil {
			return err
		}
		out.Columns = append(out.Columns, Column{Variable: v, Values: vals})
	}
	*d = out
	return nil
}

// MarshalJSON encodes the dataset in the same object-of-arrays form.
func (d Dataset) MarshalJSON() ([]byte, error) {
	m := make(map[string][]float64, len(d.Columns)+1)
	m["time"] = d.Time
	for _, c := range d.Columns {
		m[string(c.Variable)] = c.Values
	}
	return json.Marshal(m)
}

func unwrapFloats(column string, msg json.RawMessage) ([]float64, error) {
	var raw []*float64
	if err := json.Unmarshal(msg, &raw); err != nil {
		return nil, fmt.Errorf("%w: column %s: %v", ErrDataIntegrity, column, err)
	}
	if raw == nil {
		return []float64{}, nil
	}
	vals := make([]float64, len(raw))
	for i, p := range raw {
		if p == nil {
			return nil, integrity(column, i, "null value")
		}
		vals[i] = *p
	}
	return vals, nil
}
