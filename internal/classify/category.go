package classify

import "encoding/json"

// Category is one of the eight review comment topics.
type Category string

const (
	CategoryBugCorrectness             Category = "bug_correctness"
	CategorySecurity                   Category = "security"
	CategoryPerformance                Category = "performance"
	CategoryReadabilityMaintainability Category = "readability_maintainability"
	CategoryNitpickStyle               Category = "nitpick_style"
	CategoryArchitectureDesign         Category = "architecture_design"
	CategoryMissingTestCoverage        Category = "missing_test_coverage"
	CategoryQuestionClarification      Category = "question_clarification"
)

// Categories lists every category in prompt order.
var Categories = []Category{
	CategoryBugCorrectness,
	CategorySecurity,
	CategoryPerformance,
	CategoryReadabilityMaintainability,
	CategoryNitpickStyle,
	CategoryArchitectureDesign,
	CategoryMissingTestCoverage,
	CategoryQuestionClarification,
}

var categoryDescriptions = map[Category]string{
	CategoryBugCorrectness:             "Points out a logic error, incorrect behavior, crash, or edge case that produces wrong results.",
	CategorySecurity:                   "Raises a vulnerability, unsafe input handling, secret exposure, or authorization gap.",
	CategoryPerformance:                "Flags inefficient algorithms, unnecessary work, memory pressure, or latency concerns.",
	CategoryReadabilityMaintainability: "Asks for clearer naming, structure, duplication removal, or documentation.",
	CategoryNitpickStyle:               "Formatting, whitespace, import order, or personal style preferences.",
	CategoryArchitectureDesign:         "Questions module boundaries, abstractions, data flow, or long-term design.",
	CategoryMissingTestCoverage:        "Requests tests or points out untested behavior.",
	CategoryQuestionClarification:      "Asks the author a question or requests an explanation without proposing a change.",
}

// Valid reports whether c is one of the eight known categories.
func (c Category) Valid() bool {
	_, ok := categoryDescriptions[c]
	return ok
}

// Description returns the prompt description of c.
func (c Category) Description() string {
	return categoryDescriptions[c]
}

func categoryNames() []any {
	out := make([]any, 0, len(Categories))
	for _, c := range Categories {
		out = append(out, string(c))
	}
	return out
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(b)
}
