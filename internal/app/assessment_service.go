package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"akhlak-learning-service/internal/catalog"
	"akhlak-learning-service/internal/domain"
	"go.uber.org/zap"
)

// SessionRepository abstracts where active sessions live (in-memory, Redis-backed, etc).
// Sessions are keyed by user: a user has at most one active attempt.
type SessionRepository interface {
	// Put stores s for userID, replacing any previous session.
	Put(userID string, s *Session) (replaced bool)
	Get(userID string) (*Session, bool)
	Delete(userID string)
	// CompareAndDelete removes the user's session only if it is still s.
	CompareAndDelete(userID string, s *Session) bool
	// Sweep drops sessions for which idle reports true and returns their user ids.
	Sweep(idle func(*Session) bool) []string
}

// CatalogRepository loads the validated content catalog.
type CatalogRepository interface {
	GetCatalog(ctx context.Context) (*catalog.Catalog, error)
}

// ScoreSubmitter persists finished attempts.
type ScoreSubmitter interface {
	Submit(ctx context.Context, rec domain.ScoreRecord) error
}

// AssessmentService contains the quiz and test use cases.
type AssessmentService struct {
	sessions SessionRepository
	catalogs CatalogRepository
	scores   ScoreSubmitter
	log      *zap.Logger

	testSize int
	idleTTL  time.Duration
	now      func() time.Time
	seed     func() int64
}

// AssessmentOption customizes an AssessmentService.
type AssessmentOption func(*AssessmentService)

// WithTestSize overrides the number of questions drawn for a test.
func WithTestSize(n int) AssessmentOption {
	return func(s *AssessmentService) { s.testSize = n }
}

// WithIdleTTL sets how long an untouched session survives a sweep.
func WithIdleTTL(ttl time.Duration) AssessmentOption {
	return func(s *AssessmentService) { s.idleTTL = ttl }
}

// WithClock is for deterministic timestamps and seeds in tests.
func WithClock(now func() time.Time, seed func() int64) AssessmentOption {
	return func(s *AssessmentService) {
		s.now = now
		if seed != nil {
			s.seed = seed
		}
	}
}

func NewAssessmentService(sessions SessionRepository, catalogs CatalogRepository, scores ScoreSubmitter, log *zap.Logger, opts ...AssessmentOption) *AssessmentService {
	s := &AssessmentService{
		sessions: sessions,
		catalogs: catalogs,
		scores:   scores,
		log:      log,
		testSize: DefaultTestSize,
		now:      time.Now,
	}
	s.seed = func() int64 { return s.now().UnixNano() }
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	return s
}

// Start begins a new attempt for the user, discarding any unfinished one.
func (s *AssessmentService) Start(ctx context.Context, req StartRequest) (SessionState, error) {
	cat, err := s.catalogs.GetCatalog(ctx)
	if err != nil {
		return SessionState{}, err
	}
	if req.Type == domain.SessionTest {
		if req.TestSize <= 0 {
			req.TestSize = s.testSize
		}
		if req.Seed == 0 {
			req.Seed = s.seed()
		}
	}

	session, err := StartSession(cat, req, s.now)
	if err != nil {
		return SessionState{}, err
	}
	if replaced := s.sessions.Put(req.UserID, session); replaced {
		s.log.Info("discarded unfinished session", zap.String("user_id", req.UserID))
	}
	s.log.Info("assessment started",
		zap.String("user_id", req.UserID),
		zap.String("session_id", session.ID()),
		zap.String("type", string(req.Type)),
		zap.String("category_id", session.CategoryID()),
		zap.Int("questions", session.Len()),
	)
	return session.State(), nil
}

// Answer records an answer for the user's current question.
func (s *AssessmentService) Answer(_ context.Context, userID string, optionIndex int) (domain.AnswerFeedback, SessionState, error) {
	session, err := s.active(userID)
	if err != nil {
		return domain.AnswerFeedback{}, SessionState{}, err
	}
	fb, err := session.Answer(optionIndex)
	if err != nil {
		return domain.AnswerFeedback{}, session.State(), err
	}
	return fb, session.State(), nil
}

// Next moves the user's session forward.
func (s *AssessmentService) Next(_ context.Context, userID string) (SessionState, error) {
	session, err := s.active(userID)
	if err != nil {
		return SessionState{}, err
	}
	session.Next()
	return session.State(), nil
}

// Previous moves the user's session back.
func (s *AssessmentService) Previous(_ context.Context, userID string) (SessionState, error) {
	session, err := s.active(userID)
	if err != nil {
		return SessionState{}, err
	}
	session.Previous()
	return session.State(), nil
}

// State returns the projection of the user's active session.
func (s *AssessmentService) State(_ context.Context, userID string) (SessionState, error) {
	session, err := s.active(userID)
	if err != nil {
		return SessionState{}, err
	}
	return session.State(), nil
}

// Finish scores the session, submits the record and releases the session.
// The session is kept when submission fails so the caller can retry; the retry
// reuses the record id and lands as a no-op if the first write went through.
func (s *AssessmentService) Finish(ctx context.Context, userID string) (domain.Results, error) {
	session, err := s.active(userID)
	if err != nil {
		return domain.Results{}, err
	}
	results, err := session.Finish()
	if err != nil {
		return domain.Results{}, err
	}
	if err := s.scores.Submit(ctx, results.Record); err != nil {
		return domain.Results{}, fmt.Errorf("submit score: %w", err)
	}
	s.sessions.CompareAndDelete(userID, session)

	s.log.Info("assessment finished",
		zap.String("user_id", userID),
		zap.String("record_id", results.Record.ID),
		zap.Int("score", results.Score),
		zap.Int("total", results.Total),
		zap.Int("percentage", results.Percentage),
	)
	return results, nil
}

// AbandonSession discards the user's session only if it is still the one
// identified by sessionID and it has not been finished. It reports whether a
// session was dropped.
func (s *AssessmentService) AbandonSession(_ context.Context, userID, sessionID string) bool {
	session, ok := s.sessions.Get(userID)
	if !ok || session.ID() != sessionID || session.Finished() {
		return false
	}
	return s.sessions.CompareAndDelete(userID, session)
}

// SweepIdle discards sessions untouched for longer than the idle TTL.
func (s *AssessmentService) SweepIdle(now time.Time) int {
	dropped := s.sessions.Sweep(func(session *Session) bool {
		return session.IsIdle(now, s.idleTTL)
	})
	if len(dropped) > 0 {
		s.log.Info("swept idle sessions", zap.Int("count", len(dropped)))
	}
	return len(dropped)
}

// RunSweeper calls SweepIdle every interval until ctx is done.
func (s *AssessmentService) RunSweeper(ctx context.Context, interval time.Duration) error {
	if interval <= 0 || s.idleTTL <= 0 {
		<-ctx.Done()
		return nil
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.SweepIdle(s.now())
		}
	}
}

func (s *AssessmentService) active(userID string) (*Session, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: empty user id", domain.ErrInvalidInput)
	}
	session, ok := s.sessions.Get(userID)
	if !ok {
		return nil, domain.ErrNoActiveSession
	}
	return session, nil
}

// IsRecoverable reports whether err is a per-session error the user can retry after.
func IsRecoverable(err error) bool {
	return errors.Is(err, domain.ErrInvalidInput) ||
		errors.Is(err, domain.ErrIncompleteAssessment) ||
		errors.Is(err, domain.ErrNoActiveSession) ||
		errors.Is(err, domain.ErrSessionFinished) ||
		errors.Is(err, domain.ErrNotFound)
}
