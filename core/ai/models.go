package ai

// Modes
const (
	ModeSummary    = "summary"
	ModeFlashcards = "flashcards"
	ModeChat       = "chat"
)

// Flashcard is a single question/answer study card.
type Flashcard struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}
