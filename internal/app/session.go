package app

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"akhlak-learning-service/internal/catalog"
	"akhlak-learning-service/internal/domain"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// DefaultTestSize is the number of questions sampled for a test.
const DefaultTestSize = 30

// StartRequest describes a new attempt.
type StartRequest struct {
	Type       domain.SessionType
	CategoryID string // quiz only
	UserID     string
	UserName   string
	Seed       int64 // test sampling seed
	TestSize   int   // defaults to DefaultTestSize
}

// QuestionView is a question without its answer key.
type QuestionView struct {
	ID      string   `json:"id"`
	Text    string   `json:"question"`
	Options []string `json:"options"`
}

// SessionState is a read-only projection of a session for the presentation layer.
type SessionState struct {
	ID              string       `json:"id"`
	Type            string       `json:"type"`
	CategoryID      string       `json:"categoryId,omitempty"`
	CurrentIndex    int          `json:"currentIndex"`
	Total           int          `json:"total"`
	Question        QuestionView `json:"question"`
	SelectedIndex   *int         `json:"selectedIndex,omitempty"`
	CorrectIndex    *int         `json:"correctIndex,omitempty"`
	Answered        bool         `json:"answered"`
	AnsweredCount   int          `json:"answeredCount"`
	ProgressPercent int          `json:"progressPercent"`
	CanGoNext       bool         `json:"canGoNext"`
	CanGoPrevious   bool         `json:"canGoPrevious"`
	ElapsedMs       int64        `json:"elapsedMs"`
	Finished        bool         `json:"finished"`
}

// Session is one assessment attempt. It owns a frozen snapshot of its questions;
// once finished it no longer changes.
type Session struct {
	id           string
	kind         domain.SessionType
	categoryID   string
	categoryName string
	userID       string
	userName     string
	now          func() time.Time

	mu         sync.RWMutex
	questions  []domain.Question
	answers    map[int]int
	current    int
	startedAt  time.Time
	lastActive time.Time
	finishedAt time.Time
	results    *domain.Results
}

// StartSession draws the questions for req from c and returns an in-progress session.
func StartSession(c *catalog.Catalog, req StartRequest, now func() time.Time) (*Session, error) {
	if req.UserID == "" {
		return nil, fmt.Errorf("%w: empty user id", domain.ErrInvalidInput)
	}
	if now == nil {
		now = time.Now
	}

	s := &Session{
		id:       uuid.NewString(),
		kind:     req.Type,
		userID:   req.UserID,
		userName: req.UserName,
		now:      now,
		answers:  make(map[int]int),
	}

	switch req.Type {
	case domain.SessionQuiz:
		cat, err := c.Category(req.CategoryID)
		if err != nil {
			return nil, err
		}
		s.categoryID = cat.ID
		s.categoryName = cat.Name
		s.questions = cat.Questions
	case domain.SessionTest:
		size := req.TestSize
		if size <= 0 {
			size = DefaultTestSize
		}
		s.questions = sampleQuestions(c.Pool(), size, req.Seed)
	default:
		return nil, fmt.Errorf("%w: session type %q", domain.ErrInvalidInput, req.Type)
	}
	if len(s.questions) == 0 {
		return nil, fmt.Errorf("%w: no questions available", domain.ErrNotFound)
	}

	s.startedAt = now()
	s.lastActive = s.startedAt
	return s, nil
}

// sampleQuestions shuffles pool with a seeded source and keeps the first size items.
func sampleQuestions(pool []domain.Question, size int, seed int64) []domain.Question {
	rnd := rand.New(rand.NewSource(seed))
	rnd.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	if size < len(pool) {
		pool = pool[:size]
	}
	return pool
}

func (s *Session) ID() string               { return s.id }
func (s *Session) UserID() string           { return s.userID }
func (s *Session) Type() domain.SessionType { return s.kind }
func (s *Session) CategoryID() string       { return s.categoryID }

// Len is the number of questions in the snapshot.
func (s *Session) Len() int { return len(s.questions) }

// Question returns the snapshot question at index i.
func (s *Session) Question(i int) domain.Question {
	q := s.questions[i]
	q.Options = append([]string(nil), q.Options...)
	return q
}

// Answer records optionIndex for the current question. The first answer wins;
// later calls for the same question return the recorded feedback unchanged.
func (s *Session) Answer(optionIndex int) (domain.AnswerFeedback, error) {
	if optionIndex < 0 || optionIndex >= domain.OptionCount {
		return domain.AnswerFeedback{}, fmt.Errorf("%w: option %d not in [0,%d)", domain.ErrInvalidInput, optionIndex, domain.OptionCount)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.finishedLocked() {
		return domain.AnswerFeedback{}, domain.ErrSessionFinished
	}
	s.lastActive = s.now()

	q := s.questions[s.current]
	if prev, ok := s.answers[s.current]; ok {
		return domain.AnswerFeedback{
			QuestionIndex:   s.current,
			SelectedIndex:   prev,
			CorrectIndex:    q.CorrectAnswerIndex,
			Correct:         q.IsCorrect(prev),
			AlreadyAnswered: true,
		}, nil
	}

	s.answers[s.current] = optionIndex
	return domain.AnswerFeedback{
		QuestionIndex: s.current,
		SelectedIndex: optionIndex,
		CorrectIndex:  q.CorrectAnswerIndex,
		Correct:       q.IsCorrect(optionIndex),
	}, nil
}

// Next moves forward one question; no-op on the last question.
func (s *Session) Next() int { return s.move(1) }

// Previous moves back one question; no-op on the first question.
func (s *Session) Previous() int { return s.move(-1) }

func (s *Session) move(delta int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finishedLocked() {
		return s.current
	}
	s.lastActive = s.now()
	next := s.current + delta
	if next >= 0 && next < len(s.questions) {
		s.current = next
	}
	return s.current
}

// ProgressPercent is round(100 * answered / total).
func (s *Session) ProgressPercent() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Percentage(len(s.answers), len(s.questions))
}

// Finish scores a fully answered session and freezes it. Calling Finish again
// returns the same results, including the same record id.
func (s *Session) Finish() (domain.Results, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.results != nil {
		return *s.results, nil
	}
	if len(s.answers) < len(s.questions) {
		return domain.Results{}, fmt.Errorf("%w: %d of %d questions answered",
			domain.ErrIncompleteAssessment, len(s.answers), len(s.questions))
	}

	// Millisecond precision survives every store and matches the record id's timestamp.
	s.finishedAt = s.now().Truncate(time.Millisecond)
	s.lastActive = s.finishedAt
	results := s.resultsLocked()
	s.results = &results
	return results, nil
}

// Finished reports whether the session is terminal.
func (s *Session) Finished() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.finishedLocked()
}

// IsIdle reports whether nothing happened on an unfinished session for longer than ttl.
// A finished session still held by a store is waiting for its record to be
// submitted and is never idle.
func (s *Session) IsIdle(now time.Time, ttl time.Duration) bool {
	if ttl <= 0 {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.finishedLocked() {
		return false
	}
	return now.Sub(s.lastActive) > ttl
}

// State projects the session for clients. The correct index is only revealed
// for answered questions.
func (s *Session) State() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q := s.questions[s.current]
	st := SessionState{
		ID:         s.id,
		Type:       string(s.kind),
		CategoryID: s.categoryID,

		CurrentIndex: s.current,
		Total:        len(s.questions),
		Question: QuestionView{
			ID:      q.ID,
			Text:    q.Text,
			Options: append([]string(nil), q.Options...),
		},
		AnsweredCount:   len(s.answers),
		ProgressPercent: Percentage(len(s.answers), len(s.questions)),
		CanGoNext:       s.current < len(s.questions)-1,
		CanGoPrevious:   s.current > 0,
		Finished:        s.finishedLocked(),
	}
	if sel, ok := s.answers[s.current]; ok {
		correct := q.CorrectAnswerIndex
		st.SelectedIndex = &sel
		st.CorrectIndex = &correct
		st.Answered = true
	}
	end := s.now()
	if s.finishedLocked() {
		end = s.finishedAt
	}
	st.ElapsedMs = end.Sub(s.startedAt).Milliseconds()
	return st
}

func (s *Session) finishedLocked() bool {
	return !s.finishedAt.IsZero()
}

func (s *Session) resultsLocked() domain.Results {
	review := make([]domain.QuestionReview, len(s.questions))
	score := 0
	for i, q := range s.questions {
		sel := s.answers[i]
		ok := q.IsCorrect(sel)
		if ok {
			score++
		}
		review[i] = domain.QuestionReview{
			Question:      q,
			SelectedIndex: sel,
			CorrectIndex:  q.CorrectAnswerIndex,
			IsCorrect:     ok,
			Explanation:   q.Explanation,
		}
	}

	total := len(s.questions)
	pct := Percentage(score, total)
	elapsed := s.finishedAt.Sub(s.startedAt)
	if elapsed < 0 {
		elapsed = 0
	}

	rec := domain.ScoreRecord{
		ID:           ulid.MustNew(ulid.Timestamp(s.finishedAt), ulid.DefaultEntropy()).String(),
		UserID:       s.userID,
		UserName:     s.userName,
		Type:         s.kind,
		CategoryID:   s.categoryID,
		CategoryName: s.categoryName,
		Score:        score,
		Total:        total,
		Percentage:   pct,
		TimeSpentMs:  elapsed.Milliseconds(),
		CompletedAt:  s.finishedAt,
	}
	if s.kind == domain.SessionTest {
		rec.Grade = Grade(pct)
	}

	return domain.Results{
		Record:      rec,
		Score:       score,
		Total:       total,
		Percentage:  pct,
		Grade:       rec.Grade,
		Performance: PerformanceFor(pct),
		TimeSpent:   FormatDuration(elapsed),
		Review:      review,
	}
}
