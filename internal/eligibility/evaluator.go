package eligibility

import "fmt"

const (
	ChildAmount      Amount = 20.0
	SingleBaseAmount Amount = 60.0
	FamilyBaseAmount Amount = 120.0
)

// Evaluate applies the winter supplement rules to a validated record. It is
// pure: the result depends only on r.
func Evaluate(r InputRecord) OutputRecord {
	out := OutputRecord{
		ID:             r.ID,
		IsEligible:     r.FamilyUnitInPayForDecember,
		ChildrenAmount: childrenAmount(r.NumberOfChildren),
	}

	if !out.IsEligible {
		return out
	}

	out.BaseAmount = baseAmount(r.FamilyComposition, r.NumberOfChildren)
	out.SupplementAmount = out.BaseAmount + out.ChildrenAmount
	return out
}

func childrenAmount(children int) Amount {
	return Amount(children) * ChildAmount
}

// baseAmount covers every (composition, children) pair the decoder can
// produce.
func baseAmount(c FamilyComposition, children int) Amount {
	switch c {
	case CompositionSingle:
		if children == 0 {
			return SingleBaseAmount
		}
		return FamilyBaseAmount
	case CompositionCouple:
		return FamilyBaseAmount
	default:
		panic(fmt.Sprintf("eligibility: unhandled family composition %q", c))
	}
}
