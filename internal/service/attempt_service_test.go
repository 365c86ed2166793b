package service

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"testing"
	"time"

	"nurseprep_backend/internal/model"
	"nurseprep_backend/internal/repository"
	"nurseprep_backend/internal/util"
	"nurseprep_backend/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// fakeStore 内存实现，模拟数据库语义：读出的是副本，Save 写回
type fakeStore struct {
	mu       sync.Mutex
	nextID   uint
	attempts map[uint]model.TestAttempt
	details  []model.QuestionDetail
}

func newFakeStore() *fakeStore {
	return &fakeStore{attempts: map[uint]model.TestAttempt{}}
}

func (s *fakeStore) CreateAttempt(attempt *model.TestAttempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	attempt.ID = s.nextID
	s.attempts[attempt.ID] = *attempt
	return nil
}

func (s *fakeStore) SaveAttempt(attempt *model.TestAttempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts[attempt.ID] = *attempt
	return nil
}

func (s *fakeStore) FindAttemptByID(id uint) (*model.TestAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.attempts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &a, nil
}

func (s *fakeStore) FindAttemptsByUser(userID uint, page, limit int) ([]model.TestAttempt, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.TestAttempt
	for _, a := range s.attempts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (s *fakeStore) FindIdleAttempts(cutoff time.Time) ([]model.TestAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.TestAttempt
	for _, a := range s.attempts {
		if a.IsTerminal() {
			continue
		}
		if a.LastActivityAt.Before(cutoff) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *fakeStore) FindExpiredAttempts(now time.Time) ([]model.TestAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.TestAttempt
	for _, a := range s.attempts {
		if a.Status == model.AttemptInProgress && a.Expired(now) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *fakeStore) CreateDetails(details []model.QuestionDetail) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range details {
		s.nextID++
		details[i].ID = s.nextID
		s.details = append(s.details, details[i])
	}
	return nil
}

func (s *fakeStore) SaveDetail(detail *model.QuestionDetail) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveDetailLocked(detail)
}

func (s *fakeStore) saveDetailLocked(detail *model.QuestionDetail) error {
	for i := range s.details {
		if s.details[i].AttemptID == detail.AttemptID && s.details[i].QuestionID == detail.QuestionID {
			s.details[i] = *detail
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (s *fakeStore) SaveDetails(details []model.QuestionDetail) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range details {
		if err := s.saveDetailLocked(&details[i]); err != nil {
			return err
		}
	}
	return nil
}

func (s *fakeStore) FindDetail(attemptID, questionID uint) (*model.QuestionDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.details {
		if s.details[i].AttemptID == attemptID && s.details[i].QuestionID == questionID {
			d := s.details[i]
			return &d, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *fakeStore) FindDetails(attemptID uint) ([]model.QuestionDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.QuestionDetail
	for i := range s.details {
		if s.details[i].AttemptID == attemptID {
			out = append(out, s.details[i])
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

type fakeQuestions struct {
	byID    map[uint]model.Question
	pickIDs []uint
}

func (f *fakeQuestions) GetQuestions(_ context.Context, ids []uint) (map[uint]model.Question, error) {
	out := make(map[uint]model.Question, len(ids))
	for _, id := range ids {
		if q, ok := f.byID[id]; ok {
			out[id] = q
		}
	}
	return out, nil
}

func (f *fakeQuestions) PickIDs(_ repository.QuestionFilter, count int) ([]uint, error) {
	if count > len(f.pickIDs) {
		count = len(f.pickIDs)
	}
	return f.pickIDs[:count], nil
}

type fakeArchiver struct {
	calls int
}

func (f *fakeArchiver) ArchiveAttempt(_ context.Context, attempt *model.TestAttempt, _ []model.QuestionDetail) (string, error) {
	f.calls++
	return "attempts/test-object.json", nil
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func testQuestions() []model.Question {
	return []model.Question{
		{
			BaseModel:     model.BaseModel{ID: 101},
			QuestionType:  model.TypeMultipleChoice,
			Stem:          "Initial nursing action for suspected hypoglycemia?",
			CorrectAnswer: `"b"`,
			Explanation:   "Check the blood glucose before treating.",
			Subject:       "endocrine",
			Difficulty:    "medium",
			Points:        1,
		},
		{
			BaseModel:     model.BaseModel{ID: 102},
			QuestionType:  model.TypeSATA,
			Stem:          "Select all findings consistent with left-sided heart failure.",
			CorrectAnswer: `["a","c"]`,
			Subject:       "cardiac",
			Difficulty:    "hard",
			Points:        2,
		},
		{
			BaseModel:     model.BaseModel{ID: 103},
			QuestionType:  model.TypeTrueFalse,
			Stem:          "Morphine is contraindicated in pancreatitis.",
			CorrectAnswer: `"false"`,
			Subject:       "pharmacology",
			Difficulty:    "easy",
			Points:        1,
		},
	}
}

func newEngine(questions ...model.Question) (*AttemptService, *fakeStore, *fakeClock) {
	logger.Log = zap.NewNop()

	store := newFakeStore()
	qs := &fakeQuestions{byID: map[uint]model.Question{}}
	for _, q := range questions {
		qs.byID[q.ID] = q
	}
	svc := NewAttemptService(store, qs, nil)

	clock := &fakeClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	svc.now = clock.Now
	return svc, store, clock
}

func createAttempt(t *testing.T, svc *AttemptService, mode model.TestMode, limit *int) *model.TestAttempt {
	t.Helper()
	attempt, err := svc.CreateAttempt(context.Background(), 7, CreateAttemptRequest{
		QBankID:          1,
		Mode:             mode,
		QuestionIDs:      []uint{101, 102, 103},
		TimeLimitSeconds: limit,
	})
	require.NoError(t, err)
	return attempt
}

func TestCreateAttemptBuildsQuestionMap(t *testing.T) {
	svc, store, _ := newEngine(testQuestions()...)

	attempt := createAttempt(t, svc, model.ModeTimed, nil)
	assert.Equal(t, model.AttemptPending, attempt.Status)
	assert.Equal(t, []uint{101, 102, 103}, attempt.QuestionIDList())

	details, err := store.FindDetails(attempt.ID)
	require.NoError(t, err)
	require.Len(t, details, 3)
	for i, d := range details {
		assert.Equal(t, i+1, d.Order)
		assert.Equal(t, model.DetailUnvisited, d.Status)
		assert.Nil(t, d.IsCorrect)
		assert.Nil(t, d.PointsEarned)
	}
	assert.Equal(t, 2, details[1].MaxPoints) // SATA 题 2 分
}

func TestCreateAttemptEmptySet(t *testing.T) {
	svc, _, _ := newEngine(testQuestions()...)

	_, err := svc.CreateAttempt(context.Background(), 7, CreateAttemptRequest{
		QBankID: 1,
		Mode:    model.ModeTutorial,
	})
	assert.ErrorIs(t, err, util.ErrEmptyQuestionSet)
}

func TestCreateAttemptPicksByFilter(t *testing.T) {
	svc, _, _ := newEngine(testQuestions()...)
	svc.Questions.(*fakeQuestions).pickIDs = []uint{103, 101}

	attempt, err := svc.CreateAttempt(context.Background(), 7, CreateAttemptRequest{
		QBankID:       1,
		Mode:          model.ModeAssessment,
		Subject:       "pharmacology",
		QuestionCount: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, []uint{103, 101}, attempt.QuestionIDList())
}

func TestCreateAttemptDefaultTimeLimit(t *testing.T) {
	svc, _, _ := newEngine(testQuestions()...)
	svc.DefaultTimePerQuestionSec = 90

	attempt := createAttempt(t, svc, model.ModeTimed, nil)
	require.NotNil(t, attempt.TimeLimitSeconds)
	assert.Equal(t, 270, *attempt.TimeLimitSeconds)

	// 仅计时模式推算时限
	tut := createAttempt(t, svc, model.ModeTutorial, nil)
	assert.Nil(t, tut.TimeLimitSeconds)
}

func TestStartAttemptIdempotent(t *testing.T) {
	svc, _, clock := newEngine(testQuestions()...)
	attempt := createAttempt(t, svc, model.ModeTimed, nil)

	state, err := svc.StartAttempt(7, attempt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AttemptInProgress, state.Attempt.Status)
	require.NotNil(t, state.Attempt.StartedAt)
	started := *state.Attempt.StartedAt

	clock.Advance(30 * time.Second)
	again, err := svc.StartAttempt(7, attempt.ID)
	require.NoError(t, err)
	assert.Equal(t, started, *again.Attempt.StartedAt)
	assert.Len(t, again.Details, 3)
}

func TestVisitTransitionsAreMonotonic(t *testing.T) {
	svc, store, clock := newEngine(testQuestions()...)
	attempt := createAttempt(t, svc, model.ModeTimed, nil)
	_, err := svc.StartAttempt(7, attempt.ID)
	require.NoError(t, err)

	d, err := svc.RecordVisit(7, attempt.ID, 101)
	require.NoError(t, err)
	assert.Equal(t, model.DetailVisited, d.Status)
	require.NotNil(t, d.VisitedAt)
	firstVisit := *d.VisitedAt

	clock.Advance(10 * time.Second)
	_, err = svc.RecordAnswer(context.Background(), 7, attempt.ID, 101, json.RawMessage(`"a"`))
	require.NoError(t, err)

	// 再次访问不会把 answered 拉回 visited
	clock.Advance(5 * time.Second)
	d, err = svc.RecordVisit(7, attempt.ID, 101)
	require.NoError(t, err)
	assert.Equal(t, model.DetailAnswered, d.Status)
	assert.Equal(t, firstVisit, *d.VisitedAt)

	saved, err := store.FindDetail(attempt.ID, 101)
	require.NoError(t, err)
	assert.Equal(t, model.DetailAnswered, saved.Status)
}

func TestAnswerImplicitVisitAndStart(t *testing.T) {
	svc, store, _ := newEngine(testQuestions()...)
	attempt := createAttempt(t, svc, model.ModeAssessment, nil)

	// 未显式 start 也未访问，直接作答
	result, err := svc.RecordAnswer(context.Background(), 7, attempt.ID, 101, json.RawMessage(`"b"`))
	require.NoError(t, err)
	assert.Equal(t, model.DetailAnswered, result.Status)

	saved, err := store.FindAttemptByID(attempt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AttemptInProgress, saved.Status)
	require.NotNil(t, saved.StartedAt)

	d, err := store.FindDetail(attempt.ID, 101)
	require.NoError(t, err)
	require.NotNil(t, d.VisitedAt)
	require.NotNil(t, d.AnsweredAt)
}

func TestTutorialModeScoresEagerly(t *testing.T) {
	svc, _, clock := newEngine(testQuestions()...)
	attempt := createAttempt(t, svc, model.ModeTutorial, nil)
	_, err := svc.StartAttempt(7, attempt.ID)
	require.NoError(t, err)

	result, err := svc.RecordAnswer(context.Background(), 7, attempt.ID, 101, json.RawMessage(`"b"`))
	require.NoError(t, err)
	require.NotNil(t, result.IsCorrect)
	assert.True(t, *result.IsCorrect)
	assert.JSONEq(t, `"b"`, string(result.CorrectAnswer))
	assert.Equal(t, "Check the blood glucose before treating.", result.Explanation)
	assert.Equal(t, 0, result.AnswerChangeCount)

	// 改答案：计数累加，判定按新答案重算
	clock.Advance(20 * time.Second)
	result, err = svc.RecordAnswer(context.Background(), 7, attempt.ID, 101, json.RawMessage(`"a"`))
	require.NoError(t, err)
	assert.Equal(t, 1, result.AnswerChangeCount)
	require.NotNil(t, result.IsCorrect)
	assert.False(t, *result.IsCorrect)
}

func TestDeferredModeLeaksNothing(t *testing.T) {
	svc, store, _ := newEngine(testQuestions()...)

	for _, mode := range []model.TestMode{model.ModeTimed, model.ModeAssessment} {
		attempt := createAttempt(t, svc, mode, nil)
		result, err := svc.RecordAnswer(context.Background(), 7, attempt.ID, 101, json.RawMessage(`"b"`))
		require.NoError(t, err)

		assert.Nil(t, result.IsCorrect, "mode %s", mode)
		assert.Nil(t, result.IsPartiallyCorrect, "mode %s", mode)
		assert.Empty(t, result.CorrectAnswer, "mode %s", mode)
		assert.Empty(t, result.Explanation, "mode %s", mode)

		d, err := store.FindDetail(attempt.ID, 101)
		require.NoError(t, err)
		assert.Nil(t, d.IsCorrect)
		assert.Nil(t, d.PointsEarned)
	}
}

func TestMarkersIndependentOfAnswerState(t *testing.T) {
	svc, _, _ := newEngine(testQuestions()...)
	attempt := createAttempt(t, svc, model.ModeTimed, nil)

	// 未访问的题打旗标：隐式转 visited
	d, err := svc.SetFlag(7, attempt.ID, 102, true)
	require.NoError(t, err)
	assert.True(t, d.IsFlagged)
	assert.Equal(t, model.DetailVisited, d.Status)

	_, err = svc.RecordAnswer(context.Background(), 7, attempt.ID, 102, json.RawMessage(`["a","c"]`))
	require.NoError(t, err)

	// 作答后旗标保留，复查标记独立切换
	d, err = svc.SetMarkForReview(7, attempt.ID, 102, true)
	require.NoError(t, err)
	assert.True(t, d.IsFlagged)
	assert.True(t, d.IsMarkedForReview)
	assert.Equal(t, model.DetailAnswered, d.Status)

	d, err = svc.SetFlag(7, attempt.ID, 102, false)
	require.NoError(t, err)
	assert.False(t, d.IsFlagged)
	assert.True(t, d.IsMarkedForReview)
}

func TestFinishScoresAndSkipsUnanswered(t *testing.T) {
	svc, store, clock := newEngine(testQuestions()...)
	limit := 600
	attempt := createAttempt(t, svc, model.ModeTimed, &limit)
	_, err := svc.StartAttempt(7, attempt.ID)
	require.NoError(t, err)

	_, err = svc.RecordAnswer(context.Background(), 7, attempt.ID, 101, json.RawMessage(`"b"`))
	require.NoError(t, err)
	clock.Advance(40 * time.Second)
	_, err = svc.RecordAnswer(context.Background(), 7, attempt.ID, 102, json.RawMessage(`["a","b"]`))
	require.NoError(t, err)

	clock.Advance(30 * time.Second)
	result, err := svc.FinishAttempt(context.Background(), 7, attempt.ID, 0)
	require.NoError(t, err)

	assert.Equal(t, 1, result.CorrectCount)
	assert.Equal(t, 1, result.IncorrectCount)
	assert.Equal(t, 1, result.UnansweredCount)
	// 满分 4，得 1 分 → 25
	assert.Equal(t, 25, result.Score)
	assert.Equal(t, 70, result.TotalTimeSeconds)

	details, err := store.FindDetails(attempt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.DetailSkipped, details[2].Status)
	require.NotNil(t, details[2].PointsEarned)
	assert.Equal(t, 0, *details[2].PointsEarned)

	bySubject := result.PerformanceBreakdown.BySubject
	assert.Equal(t, BreakdownBucket{Attempted: 1, Correct: 1, Accuracy: 100}, bySubject["endocrine"])
	assert.Equal(t, BreakdownBucket{Attempted: 1, Correct: 0, Accuracy: 0}, bySubject["cardiac"])
}

func TestFinishIsIdempotent(t *testing.T) {
	svc, _, clock := newEngine(testQuestions()...)
	attempt := createAttempt(t, svc, model.ModeAssessment, nil)
	_, err := svc.RecordAnswer(context.Background(), 7, attempt.ID, 101, json.RawMessage(`"b"`))
	require.NoError(t, err)

	first, err := svc.FinishAttempt(context.Background(), 7, attempt.ID, 0)
	require.NoError(t, err)

	// 重复交卷返回存储结果，不重新评分
	clock.Advance(time.Hour)
	second, err := svc.FinishAttempt(context.Background(), 7, attempt.ID, 9999)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestFinishPendingRejectedWithoutStateChange(t *testing.T) {
	svc, store, _ := newEngine(testQuestions()...)
	attempt := createAttempt(t, svc, model.ModeTimed, nil)

	// 从未开始的会话拒绝交卷，状态保持 pending 不动
	_, err := svc.FinishAttempt(context.Background(), 7, attempt.ID, 0)
	assert.ErrorIs(t, err, util.ErrAttemptNotStarted)

	saved, err := store.FindAttemptByID(attempt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AttemptPending, saved.Status)
	assert.Nil(t, saved.CompletedAt)
}

func TestSweepAbandonsStalePendingAttempt(t *testing.T) {
	svc, store, clock := newEngine(testQuestions()...)
	attempt := createAttempt(t, svc, model.ModeTutorial, nil)

	clock.Advance(5 * time.Hour)
	swept, err := svc.SweepIdleAttempts(context.Background(), 4*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, swept)

	saved, err := store.FindAttemptByID(attempt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AttemptAbandoned, saved.Status)
	assert.Nil(t, saved.CompletedAt)
}

func TestExpiredAttemptRejectsLateAnswers(t *testing.T) {
	svc, _, clock := newEngine(testQuestions()...)
	limit := 300
	attempt := createAttempt(t, svc, model.ModeTimed, &limit)
	_, err := svc.StartAttempt(7, attempt.ID)
	require.NoError(t, err)

	_, err = svc.RecordAnswer(context.Background(), 7, attempt.ID, 101, json.RawMessage(`"b"`))
	require.NoError(t, err)

	clock.Advance(301 * time.Second)
	_, err = svc.RecordAnswer(context.Background(), 7, attempt.ID, 102, json.RawMessage(`["a","c"]`))
	assert.ErrorIs(t, err, util.ErrAttemptExpired)

	// 超时后交卷仍正常定稿，未答题按 skipped
	result, err := svc.FinishAttempt(context.Background(), 7, attempt.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, result.UnansweredCount)
	assert.Equal(t, 1, result.CorrectCount)
}

func TestQuestionNotInAttempt(t *testing.T) {
	svc, _, _ := newEngine(testQuestions()...)
	attempt := createAttempt(t, svc, model.ModeTimed, nil)

	_, err := svc.RecordAnswer(context.Background(), 7, attempt.ID, 999, json.RawMessage(`"a"`))
	assert.ErrorIs(t, err, util.ErrQuestionNotInAttempt)

	_, err = svc.RecordVisit(7, attempt.ID, 999)
	assert.ErrorIs(t, err, util.ErrQuestionNotInAttempt)
}

func TestOwnershipEnforced(t *testing.T) {
	svc, _, _ := newEngine(testQuestions()...)
	attempt := createAttempt(t, svc, model.ModeTimed, nil)

	_, err := svc.StartAttempt(8, attempt.ID)
	assert.ErrorIs(t, err, util.ErrPermissionDenied)

	_, err = svc.StartAttempt(7, 424242)
	assert.ErrorIs(t, err, util.ErrAttemptNotFound)
}

func TestForceAbandonIdempotent(t *testing.T) {
	svc, store, _ := newEngine(testQuestions()...)
	attempt := createAttempt(t, svc, model.ModeTimed, nil)
	_, err := svc.StartAttempt(7, attempt.ID)
	require.NoError(t, err)

	require.NoError(t, svc.ForceAbandon(7, attempt.ID))
	require.NoError(t, svc.ForceAbandon(7, attempt.ID))

	other := createAttempt(t, svc, model.ModeTimed, nil)
	assert.ErrorIs(t, svc.ForceAbandon(8, other.ID), util.ErrPermissionDenied)

	saved, err := store.FindAttemptByID(attempt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AttemptAbandoned, saved.Status)
}

func TestSweepIdleAttempts(t *testing.T) {
	svc, store, clock := newEngine(testQuestions()...)

	// 有作答的静默会话：替学生交卷
	answered := createAttempt(t, svc, model.ModeTimed, nil)
	_, err := svc.RecordAnswer(context.Background(), 7, answered.ID, 101, json.RawMessage(`"b"`))
	require.NoError(t, err)

	// 无任何作答的静默会话：直接放弃
	idle := createAttempt(t, svc, model.ModeTimed, nil)
	_, err = svc.StartAttempt(7, idle.ID)
	require.NoError(t, err)

	clock.Advance(5 * time.Hour)
	swept, err := svc.SweepIdleAttempts(context.Background(), 4*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 2, swept)

	savedAnswered, err := store.FindAttemptByID(answered.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AttemptCompleted, savedAnswered.Status)
	assert.Equal(t, 1, savedAnswered.CorrectCount)

	savedIdle, err := store.FindAttemptByID(idle.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AttemptAbandoned, savedIdle.Status)

	// 再扫一遍：终态会话不再命中
	swept, err = svc.SweepIdleAttempts(context.Background(), 4*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 0, swept)
}

func TestSweepFinalizesExpiredTimedAttempt(t *testing.T) {
	svc, store, clock := newEngine(testQuestions()...)
	limit := 300
	attempt := createAttempt(t, svc, model.ModeTimed, &limit)
	_, err := svc.RecordAnswer(context.Background(), 7, attempt.ID, 101, json.RawMessage(`"b"`))
	require.NoError(t, err)

	// 远未到静默窗口，但计时已超
	clock.Advance(10 * time.Minute)
	swept, err := svc.SweepIdleAttempts(context.Background(), 4*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, swept)

	saved, err := store.FindAttemptByID(attempt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AttemptCompleted, saved.Status)
	assert.Equal(t, 2, saved.UnansweredCount)
}

func TestFinishArchivesSnapshot(t *testing.T) {
	svc, store, _ := newEngine(testQuestions()...)
	archiver := &fakeArchiver{}
	svc.Archive = archiver

	attempt := createAttempt(t, svc, model.ModeTimed, nil)
	_, err := svc.RecordAnswer(context.Background(), 7, attempt.ID, 101, json.RawMessage(`"b"`))
	require.NoError(t, err)
	_, err = svc.FinishAttempt(context.Background(), 7, attempt.ID, 0)
	require.NoError(t, err)

	assert.Equal(t, 1, archiver.calls)
	saved, err := store.FindAttemptByID(attempt.ID)
	require.NoError(t, err)
	assert.Equal(t, "attempts/test-object.json", saved.ArchiveObject)
}

func TestReviewOnlyAfterCompletion(t *testing.T) {
	svc, _, _ := newEngine(testQuestions()...)
	attempt := createAttempt(t, svc, model.ModeAssessment, nil)
	_, err := svc.RecordAnswer(context.Background(), 7, attempt.ID, 101, json.RawMessage(`"b"`))
	require.NoError(t, err)

	_, _, err = svc.GetReview(context.Background(), 7, attempt.ID)
	assert.ErrorIs(t, err, util.ErrPermissionDenied)

	_, err = svc.FinishAttempt(context.Background(), 7, attempt.ID, 0)
	require.NoError(t, err)

	saved, review, err := svc.GetReview(context.Background(), 7, attempt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AttemptCompleted, saved.Status)
	require.Len(t, review, 3)
	assert.JSONEq(t, `"b"`, string(review[0].CorrectAnswer))
	assert.Equal(t, model.TypeSATA, review[1].QuestionType)
}

func TestTimeSpentAccumulates(t *testing.T) {
	svc, store, clock := newEngine(testQuestions()...)
	attempt := createAttempt(t, svc, model.ModeTimed, nil)

	_, err := svc.RecordVisit(7, attempt.ID, 101)
	require.NoError(t, err)
	clock.Advance(25 * time.Second)
	_, err = svc.RecordAnswer(context.Background(), 7, attempt.ID, 101, json.RawMessage(`"b"`))
	require.NoError(t, err)

	// 回到该题再停留 15 秒后改答案
	clock.Advance(time.Minute)
	_, err = svc.RecordVisit(7, attempt.ID, 101)
	require.NoError(t, err)
	clock.Advance(15 * time.Second)
	_, err = svc.RecordAnswer(context.Background(), 7, attempt.ID, 101, json.RawMessage(`"c"`))
	require.NoError(t, err)

	d, err := store.FindDetail(attempt.ID, 101)
	require.NoError(t, err)
	assert.Equal(t, 40, d.TimeSpentSeconds)
	assert.Equal(t, 1, d.AnswerChangeCount)
}
