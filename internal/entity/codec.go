package entity

import (
	"encoding/json"
	"fmt"

	"github.com/mesh-intelligence/sdctrack/pkg/types"
)

// idMember is the JSON member that carries an entity's id.
const idMember = "id"

// decodeObject parses raw as a JSON object.
func decodeObject(raw []byte) (map[string]json.RawMessage, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return nil, fmt.Errorf("%w: state must encode to a JSON object", types.ErrInvalidArgument)
	}
	return obj, nil
}

// encodeState marshals state with its id member forced to id. The key wins
// over whatever id the state carried.
func encodeState[T any](state T, id string) ([]byte, error) {
	raw, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("%w: encoding state: %v", types.ErrInvalidArgument, err)
	}
	obj, err := decodeObject(raw)
	if err != nil {
		return nil, err
	}
	return encodeObject(obj, id)
}

func encodeObject(obj map[string]json.RawMessage, id string) ([]byte, error) {
	idJSON, err := json.Marshal(id)
	if err != nil {
		return nil, fmt.Errorf("encoding id: %w", err)
	}
	obj[idMember] = idJSON
	return json.Marshal(obj)
}

// decodeState unmarshals a stored blob into T.
func decodeState[T any](data []byte) (T, error) {
	var state T
	if err := json.Unmarshal(data, &state); err != nil {
		return state, fmt.Errorf("decoding state: %w", err)
	}
	return state, nil
}

// stateID returns the id member of state, or "" when it is absent or null.
func stateID[T any](state T) (string, error) {
	raw, err := json.Marshal(state)
	if err != nil {
		return "", fmt.Errorf("%w: encoding state: %v", types.ErrInvalidArgument, err)
	}
	obj, err := decodeObject(raw)
	if err != nil {
		return "", err
	}
	member, ok := obj[idMember]
	if !ok || string(member) == "null" {
		return "", nil
	}
	var id string
	if err := json.Unmarshal(member, &id); err != nil {
		return "", fmt.Errorf("%w: id member is not a string", types.ErrInvalidArgument)
	}
	return id, nil
}

// requireIDMember checks that state encodes to an object with an id member.
func requireIDMember[T any](state T) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("%w: encoding state: %v", types.ErrInvalidArgument, err)
	}
	obj, err := decodeObject(raw)
	if err != nil {
		return err
	}
	if _, ok := obj[idMember]; !ok {
		return fmt.Errorf("%w: state has no %q member", types.ErrInvalidArgument, idMember)
	}
	if _, err := stateID(state); err != nil {
		return err
	}
	return nil
}

// mergePatch overwrites the top-level members of current named in partial.
// An id in partial is ignored. The result is round-tripped through T so the
// stored blob only carries T's fields and type mismatches are rejected.
func mergePatch[T any](current []byte, partial map[string]any, id string) (T, []byte, error) {
	var zero T

	obj, err := decodeObject(current)
	if err != nil {
		return zero, nil, err
	}
	for name, value := range partial {
		if name == idMember {
			continue
		}
		enc, err := json.Marshal(value)
		if err != nil {
			return zero, nil, fmt.Errorf("%w: encoding field %q: %v", types.ErrInvalidArgument, name, err)
		}
		obj[name] = enc
	}
	merged, err := encodeObject(obj, id)
	if err != nil {
		return zero, nil, err
	}

	state, err := decodeState[T](merged)
	if err != nil {
		return zero, nil, fmt.Errorf("%w: %v", types.ErrInvalidArgument, err)
	}
	data, err := encodeState(state, id)
	if err != nil {
		return zero, nil, err
	}
	return state, data, nil
}
