package eligibility

import (
	"strconv"
	"strings"
)

type FamilyComposition string

const (
	CompositionSingle FamilyComposition = "single"
	CompositionCouple FamilyComposition = "couple"
)

func (c FamilyComposition) Valid() bool {
	switch c {
	case CompositionSingle, CompositionCouple:
		return true
	}
	return false
}

// InputRecord is a validated family unit. Only Decoder produces them from
// wire data.
type InputRecord struct {
	ID                         string            `json:"id"`
	NumberOfChildren           int               `json:"numberOfChildren"`
	FamilyComposition          FamilyComposition `json:"familyComposition"`
	FamilyUnitInPayForDecember bool              `json:"familyUnitInPayForDecember"`
}

// OutputRecord field order is the wire order.
type OutputRecord struct {
	ID               string `json:"id"`
	IsEligible       bool   `json:"isEligible"`
	ChildrenAmount   Amount `json:"childrenAmount"`
	BaseAmount       Amount `json:"baseAmount"`
	SupplementAmount Amount `json:"supplementAmount"`
}

// Amount is a monetary value that always serialises with a fractional part
// (0.0, 160.0) so consumers never see an integer literal.
type Amount float64

func (a Amount) MarshalJSON() ([]byte, error) {
	s := strconv.FormatFloat(float64(a), 'f', -1, 64)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return []byte(s), nil
}
