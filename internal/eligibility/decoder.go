package eligibility

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/tidwall/gjson"

	"supplement/internal/constants"
	"supplement/pkg/errors"
)

const (
	FieldID                         = "id"
	FieldNumberOfChildren           = "numberOfChildren"
	FieldFamilyComposition          = "familyComposition"
	FieldFamilyUnitInPayForDecember = "familyUnitInPayForDecember"
)

// FieldViolation describes why a single input field was rejected.
type FieldViolation struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

type Decoder struct {
	inputPrefix string
}

func NewDecoder(inputPrefix string) *Decoder {
	return &Decoder{inputPrefix: inputPrefix}
}

// SubscriptionFilter matches every topic below the input prefix.
func (d *Decoder) SubscriptionFilter() string {
	return d.inputPrefix + constants.MultiLevelWildcard
}

// Decode extracts the topic identifier and validates the payload. The topic
// is checked first so a bad topic is reported even when the payload is also
// bad.
func (d *Decoder) Decode(topic string, payload []byte) (string, InputRecord, error) {
	id, err := d.TopicID(topic)
	if err != nil {
		return "", InputRecord{}, err
	}

	record, err := d.DecodePayload(payload)
	if err != nil {
		return id, InputRecord{}, err
	}

	return id, record, nil
}

// TopicID returns the single topic level that follows the input prefix.
func (d *Decoder) TopicID(topic string) (string, error) {
	id, ok := strings.CutPrefix(topic, d.inputPrefix)
	if !ok || id == "" || strings.Contains(id, constants.TopicLevelSeparator) {
		return "", errors.ErrInvalidTopic.
			WithDetail("message", fmt.Sprintf("invalid topic: %s", topic)).
			WithDetail("topic", topic)
	}
	return id, nil
}

// DecodePayload parses payload as a JSON object and validates every field
// without coercion. All violations are reported together.
func (d *Decoder) DecodePayload(payload []byte) (InputRecord, error) {
	if !utf8.Valid(payload) {
		return InputRecord{}, errors.ErrMalformedPayload.
			WithDetail("message", "payload is not valid UTF-8")
	}

	if !gjson.ValidBytes(payload) {
		return InputRecord{}, errors.ErrMalformedPayload.
			WithDetail("message", "payload is not valid JSON")
	}

	root := gjson.ParseBytes(payload)
	if !root.IsObject() {
		return InputRecord{}, errors.ErrMalformedPayload.
			WithDetail("message", fmt.Sprintf("payload must be a JSON object, got %s", jsonKind(root)))
	}

	// the last occurrence of a repeated key wins, as with most JSON decoders
	fields := make(map[string]gjson.Result)
	root.ForEach(func(key, value gjson.Result) bool {
		fields[key.String()] = value
		return true
	})

	var (
		record     InputRecord
		violations []FieldViolation
	)

	reject := func(field, reason string) {
		violations = append(violations, FieldViolation{Field: field, Reason: reason})
	}

	if v := fields[FieldID]; !v.Exists() {
		reject(FieldID, "field required")
	} else if v.Type != gjson.String {
		reject(FieldID, "input should be a valid string, got "+jsonKind(v))
	} else {
		record.ID = v.Str
	}

	if v := fields[FieldNumberOfChildren]; !v.Exists() {
		reject(FieldNumberOfChildren, "field required")
	} else if n, reason := integerValue(v); reason != "" {
		reject(FieldNumberOfChildren, reason)
	} else if n < 0 {
		reject(FieldNumberOfChildren, "input should be greater than or equal to 0")
	} else {
		record.NumberOfChildren = n
	}

	if v := fields[FieldFamilyComposition]; !v.Exists() {
		reject(FieldFamilyComposition, "field required")
	} else if v.Type != gjson.String {
		reject(FieldFamilyComposition, "input should be a valid string, got "+jsonKind(v))
	} else if c := FamilyComposition(v.Str); !c.Valid() {
		reject(FieldFamilyComposition, fmt.Sprintf("input should be 'single' or 'couple', got %q", v.Str))
	} else {
		record.FamilyComposition = c
	}

	if v := fields[FieldFamilyUnitInPayForDecember]; !v.Exists() {
		reject(FieldFamilyUnitInPayForDecember, "field required")
	} else if v.Type != gjson.True && v.Type != gjson.False {
		reject(FieldFamilyUnitInPayForDecember, "input should be a valid boolean, got "+jsonKind(v))
	} else {
		record.FamilyUnitInPayForDecember = v.Type == gjson.True
	}

	if len(violations) > 0 {
		fields := make([]string, len(violations))
		for i, v := range violations {
			fields[i] = v.Field
		}
		return InputRecord{}, errors.ErrValidation.
			WithDetail("fields", fields).
			WithDetail("violations", violations)
	}

	return record, nil
}

// integerValue accepts only JSON integer literals; 1.0 and 1e0 are rejected
// like any other non-integer.
func integerValue(v gjson.Result) (int, string) {
	if v.Type != gjson.Number {
		return 0, "input should be a valid integer, got " + jsonKind(v)
	}
	if strings.ContainsAny(v.Raw, ".eE") {
		return 0, "input should be a valid integer, got a number with a fractional part"
	}
	n, err := strconv.Atoi(v.Raw)
	if err != nil {
		return 0, "input should be a valid integer, value out of range"
	}
	return n, ""
}

func jsonKind(v gjson.Result) string {
	switch v.Type {
	case gjson.Null:
		return "null"
	case gjson.False, gjson.True:
		return "boolean"
	case gjson.Number:
		return "number"
	case gjson.String:
		return "string"
	}
	if v.IsArray() {
		return "array"
	}
	return "object"
}
