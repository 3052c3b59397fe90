package eligibility

import (
	"encoding/json"
	"fmt"
)

type Encoder struct {
	outputPrefix string
}

func NewEncoder(outputPrefix string) *Encoder {
	return &Encoder{outputPrefix: outputPrefix}
}

func (e *Encoder) Topic(id string) string {
	return e.outputPrefix + id
}

// Encode returns the destination topic and compact JSON body for out.
func (e *Encoder) Encode(id string, out OutputRecord) (string, []byte, error) {
	body, err := json.Marshal(out)
	if err != nil {
		return "", nil, fmt.Errorf("failed to marshal output record: %w", err)
	}
	return e.Topic(id), body, nil
}
