package protocol

import (
	"encoding/json"
	"fmt"
)

// encodeTagged marshals v and splices the type tag in as the first field.
// v must marshal to a JSON object.
func encodeTagged(tag string, v any) ([]byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if len(body) < 2 || body[0] != '{' {
		return nil, fmt.Errorf("tagged message %q did not marshal to an object", tag)
	}
	if len(body) == 2 { // "{}"
		return []byte(`{"type":"` + tag + `"}`), nil
	}

	out := make([]byte, 0, len(body)+len(tag)+11)
	out = append(out, `{"type":"`...)
	out = append(out, tag...)
	out = append(out, `",`...)
	out = append(out, body[1:]...)
	return out, nil
}

// peekTag extracts the "type" discriminator without decoding the rest.
func peekTag(data []byte) (string, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return "", err
	}
	if probe.Type == "" {
		return "", fmt.Errorf("message missing type discriminator")
	}
	return probe.Type, nil
}
