package ml

import (
	"encoding/json"
	"fmt"
)

// Model bundles the fitted scaler, the isolation forest, and the
// clustering parameters for one (user, segment) pair. It is what the
// model store serializes as the opaque risk-model artifact.
type Model struct {
	Scaler     *StandardScaler  `json:"scaler"`
	Forest     *IsolationForest `json:"forest"`
	Clustering DBSCANParams     `json:"clustering"`
}

// Marshal serializes the model for persistence.
func (m *Model) Marshal() ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize model: %w", err)
	}
	return data, nil
}

// UnmarshalModel deserializes a stored model artifact.
func UnmarshalModel(data []byte) (*Model, error) {
	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to deserialize model: %w", err)
	}
	if m.Scaler == nil || m.Forest == nil {
		return nil, fmt.Errorf("model artifact is incomplete")
	}
	return &m, nil
}
