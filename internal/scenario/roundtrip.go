package scenario

import "encoding/json"

func unmarshalStrict(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

var metadataKnownFields = map[string]bool{
	"description": true, "tags": true, "entry_url": true, "exit_url": true,
	"parameters": true, "outputs": true, "dependencies": true,
}

// UnmarshalJSON preserves unknown top-level metadata fields for round-tripping.
func (m *Metadata) UnmarshalJSON(data []byte) error {
	type alias Metadata
	var shadow alias
	if err := json.Unmarshal(data, &shadow); err != nil {
		return err
	}
	*m = Metadata(shadow)

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for k, v := range raw {
		if metadataKnownFields[k] {
			continue
		}
		if m.extra == nil {
			m.extra = map[string]json.RawMessage{}
		}
		m.extra[k] = v
	}
	return nil
}

// MarshalJSON re-emits preserved unknown metadata fields.
func (m Metadata) MarshalJSON() ([]byte, error) {
	type alias Metadata
	base, err := json.Marshal(alias(m))
	if err != nil {
		return nil, err
	}
	if len(m.extra) == 0 {
		return base, nil
	}
	var merged map[string]json.RawMessage
	if err := json.Unmarshal(base, &merged); err != nil {
		return nil, err
	}
	for k, v := range m.extra {
		merged[k] = v
	}
	return json.Marshal(merged)
}

var scenarioKnownFields = map[string]bool{
	"name": true, "version": true, "created_at": true, "updated_at": true,
	"metadata": true, "chain": true,
}

// UnmarshalJSON preserves unknown top-level scenario fields for round-tripping
// (spec.md §8: "a scenario loaded with unknown extra fields round-trips them
// unchanged").
func (s *Scenario) UnmarshalJSON(data []byte) error {
	type alias Scenario
	var shadow alias
	if err := json.Unmarshal(data, &shadow); err != nil {
		return err
	}
	*s = Scenario(shadow)

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for k, v := range raw {
		if scenarioKnownFields[k] {
			continue
		}
		if s.extra == nil {
			s.extra = map[string]json.RawMessage{}
		}
		s.extra[k] = v
	}
	return nil
}

// MarshalJSON re-emits preserved unknown scenario fields.
func (s Scenario) MarshalJSON() ([]byte, error) {
	type alias Scenario
	base, err := json.Marshal(alias(s))
	if err != nil {
		return nil, err
	}
	if len(s.extra) == 0 {
		return base, nil
	}
	var merged map[string]json.RawMessage
	if err := json.Unmarshal(base, &merged); err != nil {
		return nil, err
	}
	for k, v := range s.extra {
		merged[k] = v
	}
	return json.Marshal(merged)
}
