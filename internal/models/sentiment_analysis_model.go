package models

// SentimentScores is what the sentiment collaborator hands back for a piece of text.
//   - Polarity is in [-1, 1]; the sign is the direction, the magnitude the strength
//   - Subjectivity is in [0, 1]; 0 is fully objective
type SentimentScores struct {
	Polarity     float64 `json:"polarity"`
	Subjectivity float64 `json:"subjectivity"`
}
