package simulator

import (
	"encoding/json"

	"supplement/internal/constants"
)

// Case is one message the simulator publishes. ExpectResult is false for
// inputs the engine is expected to drop.
type Case struct {
	Name         string
	Topic        string
	Payload      []byte
	ExpectResult bool
}

func basePayload(id string) map[string]interface{} {
	return map[string]interface{}{
		"id":                         id,
		"numberOfChildren":           0,
		"familyComposition":          "single",
		"familyUnitInPayForDecember": true,
	}
}

func mustJSON(v interface{}) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

// Cases returns the canonical sequence: seven records keyed by id followed
// by a bare-prefix topic and a non-object payload.
func Cases(inputPrefix string) []Case {
	notEligible := basePayload("not-eligible")
	notEligible["familyUnitInPayForDecember"] = false

	singleNoChildren := basePayload("single-no-children")

	coupleNoChildren := basePayload("couple-no-children")
	coupleNoChildren["familyComposition"] = "couple"

	coupleWithChildren := basePayload("couple-with-children")
	coupleWithChildren["familyComposition"] = "couple"
	coupleWithChildren["numberOfChildren"] = 2

	singleWithChildren := basePayload("single-with-children")
	singleWithChildren["numberOfChildren"] = 3

	missingFields := map[string]interface{}{
		"id":               "missing-fields",
		"numberOfChildren": 3,
	}

	invalidValue := basePayload("invalid-input-value")
	invalidValue["numberOfChildren"] = 3
	invalidValue["familyComposition"] = "Christmas"

	records := []struct {
		payload map[string]interface{}
		valid   bool
	}{
		{notEligible, true},
		{singleNoChildren, true},
		{coupleNoChildren, true},
		{coupleWithChildren, true},
		{singleWithChildren, true},
		{missingFields, false},
		{invalidValue, false},
	}

	cases := make([]Case, 0, len(records)+2)
	for _, r := range records {
		id := r.payload["id"].(string)
		cases = append(cases, Case{
			Name:         id,
			Topic:        inputPrefix + constants.SimulatorTopicIDPrefix + id,
			Payload:      mustJSON(r.payload),
			ExpectResult: r.valid,
		})
	}

	cases = append(cases,
		Case{
			Name:  "invalid-topic-id",
			Topic: inputPrefix,
		},
		Case{
			Name:    "invalid-payload",
			Topic:   inputPrefix + constants.SimulatorTopicIDPrefix + "invalid-payload",
			Payload: mustJSON("123"),
		},
	)

	return cases
}
