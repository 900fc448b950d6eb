package domain

import (
	"fmt"
	"strings"
	"time"
)

// OptionCount is the fixed number of options every catalog question carries.
const OptionCount = 7

// Note is one ordered study note inside a topic.
type Note struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Order   int    `json:"order"`
}

// Topic is study-mode content. Quiz categories share their id with a topic.
type Topic struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Notes       []Note `json:"notes"`
}

// Question is a seven-option MCQ. Text fields are opaque bilingual strings.
type Question struct {
	ID                 string   `json:"id"`
	Text               string   `json:"question"`
	Options            []string `json:"options"`
	CorrectAnswerIndex int      `json:"correctAnswer"`
	Explanation        string   `json:"explanation"`
}

// IsCorrect reports whether optionIndex selects the correct answer.
func (q Question) IsCorrect(optionIndex int) bool {
	return optionIndex == q.CorrectAnswerIndex
}

// Category groups quiz questions.
type Category struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Questions   []Question `json:"questions"`
}

// SessionType distinguishes a category-scoped quiz from a cross-category test.
type SessionType string

const (
	SessionQuiz SessionType = "quiz"
	SessionTest SessionType = "test"
)

// ParseSessionType accepts "quiz" or "test" (case-insensitive).
func ParseSessionType(raw string) (SessionType, error) {
	switch SessionType(strings.ToLower(strings.TrimSpace(raw))) {
	case SessionQuiz:
		return SessionQuiz, nil
	case SessionTest:
		return SessionTest, nil
	}
	return "", fmt.Errorf("%w: session type %q", ErrInvalidInput, raw)
}

// ScoreRecord is the immutable result of a completed attempt.
type ScoreRecord struct {
	ID           string      `json:"id" validate:"required"`
	UserID       string      `json:"userId" validate:"required"`
	UserName     string      `json:"userName,omitempty"`
	Type         SessionType `json:"type" validate:"required,oneof=quiz test"`
	CategoryID   string      `json:"categoryId,omitempty" validate:"required_if=Type quiz"`
	CategoryName string      `json:"categoryName,omitempty"`
	Score        int         `json:"score" validate:"gte=0,ltefield=Total"`
	Total        int         `json:"total" validate:"gt=0"`
	Percentage   int         `json:"percentage" validate:"gte=0,lte=100"`
	Grade        string      `json:"grade,omitempty"`
	TimeSpentMs  int64       `json:"timeSpentMs" validate:"gte=0"`
	CompletedAt  time.Time   `json:"completedAt"`
}

// Filter selects score records by type for leaderboard queries.
type Filter string

const (
	FilterAll  Filter = "all"
	FilterQuiz Filter = "quiz"
	FilterTest Filter = "test"
)

// ParseFilter maps a raw filter value; empty means all.
func ParseFilter(raw string) (Filter, error) {
	switch Filter(strings.ToLower(strings.TrimSpace(raw))) {
	case "", FilterAll:
		return FilterAll, nil
	case FilterQuiz:
		return FilterQuiz, nil
	case FilterTest:
		return FilterTest, nil
	}
	return "", fmt.Errorf("%w: leaderboard filter %q", ErrInvalidInput, raw)
}

// Matches reports whether a record passes the filter.
func (f Filter) Matches(rec ScoreRecord) bool {
	switch f {
	case FilterQuiz:
		return rec.Type == SessionQuiz
	case FilterTest:
		return rec.Type == SessionTest
	}
	return true
}

// LeaderboardEntry is a ranked, annotated view of a score record.
type LeaderboardEntry struct {
	Rank              int         `json:"rank"`
	Record            ScoreRecord `json:"record"`
	UserDisplayName   string      `json:"userDisplayName"`
	IsCurrentUser     bool        `json:"isCurrentUser"`
	RelativeDateLabel string      `json:"relativeDateLabel"`
}

// LeaderboardStats are the attempt counters shown above the table.
type LeaderboardStats struct {
	Total     int `json:"total"`
	QuizCount int `json:"quizCount"`
	TestCount int `json:"testCount"`
}

// Leaderboard is the computed view for one filter and one viewer.
type Leaderboard struct {
	Filter      Filter             `json:"filter"`
	Entries     []LeaderboardEntry `json:"entries"`
	Stats       LeaderboardStats   `json:"stats"`
	Empty       bool               `json:"empty"`
	GeneratedAt time.Time          `json:"generatedAt"`
}

// AttemptStats summarizes percentages over a set of attempts.
type AttemptStats struct {
	Attempts int `json:"attempts"`
	Average  int `json:"average"`
	Highest  int `json:"highest"`
	Lowest   int `json:"lowest"`
}

// AnswerFeedback is returned immediately after an answer is recorded.
type AnswerFeedback struct {
	QuestionIndex   int  `json:"questionIndex"`
	SelectedIndex   int  `json:"selectedIndex"`
	CorrectIndex    int  `json:"correctIndex"`
	Correct         bool `json:"correct"`
	AlreadyAnswered bool `json:"alreadyAnswered"`
}

// QuestionReview is one line of the post-assessment review.
type QuestionReview struct {
	Question      Question `json:"question"`
	SelectedIndex int      `json:"selectedIndex"`
	CorrectIndex  int      `json:"correctIndex"`
	IsCorrect     bool     `json:"isCorrect"`
	Explanation   string   `json:"explanation"`
}

// Performance is the tiered message shown with results.
type Performance struct {
	Tier    string `json:"tier"`
	Message string `json:"message"`
}

// Results is the payload produced when an assessment is finished.
type Results struct {
	Record      ScoreRecord      `json:"record"`
	Score       int              `json:"score"`
	Total       int              `json:"total"`
	Percentage  int              `json:"percentage"`
	Grade       string           `json:"grade,omitempty"`
	Performance Performance      `json:"performance"`
	TimeSpent   string           `json:"timeSpent"`
	Review      []QuestionReview `json:"review"`
}
