package cel

// ResultInvariants hold for every result the rule engine publishes for a
// valid input record.
var ResultInvariants = map[string]string{
	"id_echoed":            `result.id == input.id`,
	"eligibility_matches":  `result.isEligible == input.familyUnitInPayForDecember`,
	"children_amount":      `result.childrenAmount == 20.0 * double(input.numberOfChildren)`,
	"ineligible_zeroed":    `result.isEligible || (result.baseAmount == 0.0 && result.supplementAmount == 0.0)`,
	"base_amount_known":    `!result.isEligible || result.baseAmount == (input.familyComposition == "single" && double(input.numberOfChildren) == 0.0 ? 60.0 : 120.0)`,
	"supplement_is_sum":    `!result.isEligible || result.supplementAmount == result.baseAmount + result.childrenAmount`,
	"amounts_non_negative": `result.childrenAmount >= 0.0 && result.baseAmount >= 0.0 && result.supplementAmount >= 0.0`,
}
