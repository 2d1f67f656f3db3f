package models

// OverallScoreIndeterminate is used when the model response carried no usable score.
const OverallScoreIndeterminate = "Indeterminate"

// SharedInterest is one area where the two users align.
type SharedInterest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// CompatibilityReport is the structured result of one analysis.
// RawMarkdown always holds the unmodified model output, so consumers have a
// displayable value even when the structured fields could not be parsed.
type CompatibilityReport struct {
	OverallScore             string           `json:"overallScore"`
	SharedInterests          []SharedInterest `json:"sharedInterests"`
	ComplementaryDifferences string           `json:"complementaryDifferences"`
	CommunicationStyle       string           `json:"communicationStyle"`
	RelationshipPotential    string           `json:"relationshipPotential"`
	ConversationStarters     []string         `json:"conversationStarters"`
	RawMarkdown              string           `json:"rawMarkdown"`
}

// IsStructured reports whether the model output parsed into usable sections.
// A report with no shared interests should be rendered from RawMarkdown.
func (r *CompatibilityReport) IsStructured() bool {
	return len(r.SharedInterests) > 0
}
