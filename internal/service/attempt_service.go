package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"nurseprep_backend/internal/model"
	"nurseprep_backend/internal/repository"
	"nurseprep_backend/internal/scoring"
	"nurseprep_backend/internal/util"
	"nurseprep_backend/pkg/logger"
	"nurseprep_backend/pkg/monitoring"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AttemptStore 会话与单题明细的持久化接口，由 repository.AttemptRepository 实现
type AttemptStore interface {
	CreateAttempt(attempt *model.TestAttempt) error
	SaveAttempt(attempt *model.TestAttempt) error
	FindAttemptByID(id uint) (*model.TestAttempt, error)
	FindAttemptsByUser(userID uint, page, limit int) ([]model.TestAttempt, int64, error)
	FindIdleAttempts(cutoff time.Time) ([]model.TestAttempt, error)
	FindExpiredAttempts(now time.Time) ([]model.TestAttempt, error)
	CreateDetails(details []model.QuestionDetail) error
	SaveDetail(detail *model.QuestionDetail) error
	SaveDetails(details []model.QuestionDetail) error
	FindDetail(attemptID, questionID uint) (*model.QuestionDetail, error)
	FindDetails(attemptID uint) ([]model.QuestionDetail, error)
}

// QuestionSource 只读题目查询（外部协作方，引擎不负责题目内容管理）
type QuestionSource interface {
	GetQuestions(ctx context.Context, ids []uint) (map[uint]model.Question, error)
	PickIDs(f repository.QuestionFilter, count int) ([]uint, error)
}

// Archiver 完成的会话快照归档（仅分析用途，失败不阻塞交卷）
type Archiver interface {
	ArchiveAttempt(ctx context.Context, attempt *model.TestAttempt, details []model.QuestionDetail) (string, error)
}

// AttemptService 测试会话编排：开卷、访问、作答、标记、交卷。
// 同一会话上的读-改-写序列由按 id 的互斥锁串行化。
type AttemptService struct {
	Store     AttemptStore
	Questions QuestionSource
	Archive   Archiver

	// 计时模式未显式给出时限时，按每题秒数推算
	DefaultTimePerQuestionSec int

	locks *attemptLocks
	now   func() time.Time
}

func NewAttemptService(store AttemptStore, questions QuestionSource, archive Archiver) *AttemptService {
	return &AttemptService{
		Store:     store,
		Questions: questions,
		Archive:   archive,
		locks:     newAttemptLocks(),
		now:       time.Now,
	}
}

type CreateAttemptRequest struct {
	QBankID          uint           `json:"qbankId" binding:"required"`
	Mode             model.TestMode `json:"mode" binding:"required,oneof=tutorial timed assessment"`
	TestType         model.TestType `json:"testType" binding:"omitempty,oneof=classic ngn mixed"`
	QuestionIDs      []uint         `json:"questionIds"`
	TimeLimitSeconds *int           `json:"timeLimitSeconds"`

	// 未显式给出题目时按静态条件抽题
	Subject       string `json:"subject"`
	Difficulty    string `json:"difficulty"`
	QuestionType  string `json:"questionType"`
	QuestionCount int    `json:"questionCount"`
}

// CreateAttempt 创建会话：题目顺序在此固定，每题建一条 unvisited 明细
func (s *AttemptService) CreateAttempt(ctx context.Context, userID uint, req CreateAttemptRequest) (*model.TestAttempt, error) {
	ids := req.QuestionIDs
	if len(ids) == 0 && req.QuestionCount > 0 {
		picked, err := s.Questions.PickIDs(repository.QuestionFilter{
			QBankID:      req.QBankID,
			Subject:      req.Subject,
			Difficulty:   req.Difficulty,
			QuestionType: req.QuestionType,
		}, req.QuestionCount)
		if err != nil {
			return nil, err
		}
		ids = picked
	}
	if len(ids) == 0 {
		return nil, util.ErrEmptyQuestionSet
	}

	questions, err := s.Questions.GetQuestions(ctx, ids)
	if err != nil {
		return nil, err
	}

	testType := req.TestType
	if testType == "" {
		testType = model.TestMixed
	}

	timeLimit := req.TimeLimitSeconds
	if timeLimit == nil && req.Mode == model.ModeTimed && s.DefaultTimePerQuestionSec > 0 {
		limit := s.DefaultTimePerQuestionSec * len(ids)
		timeLimit = &limit
	}

	idsJSON, _ := json.Marshal(ids)
	attempt := &model.TestAttempt{
		UserID:           userID,
		QBankID:          req.QBankID,
		Mode:             req.Mode,
		TestType:         testType,
		QuestionIDs:      string(idsJSON),
		TimeLimitSeconds: timeLimit,
		Status:           model.AttemptPending,
		LastActivityAt:   s.now(),
	}
	if err := s.Store.CreateAttempt(attempt); err != nil {
		return nil, err
	}

	details := make([]model.QuestionDetail, 0, len(ids))
	for i, qid := range ids {
		maxPoints := 1
		if q, ok := questions[qid]; ok {
			maxPoints = q.MaxPoints()
		}
		details = append(details, model.QuestionDetail{
			AttemptID:  attempt.ID,
			QuestionID: qid,
			Order:      i + 1,
			Status:     model.DetailUnvisited,
			MaxPoints:  maxPoints,
		})
	}
	if err := s.Store.CreateDetails(details); err != nil {
		return nil, err
	}
	return attempt, nil
}

// AttemptState 会话及其题目地图
type AttemptState struct {
	Attempt *model.TestAttempt     `json:"attempt"`
	Details []model.QuestionDetail `json:"details"`
}

// StartAttempt pending→in_progress。对已开始的会话幂等，不会重建明细。
func (s *AttemptService) StartAttempt(userID, attemptID uint) (*AttemptState, error) {
	unlock := s.locks.Lock(attemptID)
	defer unlock()

	attempt, err := s.loadOwned(userID, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.IsTerminal() {
		return nil, util.ErrAttemptAlreadyFinalized
	}

	if attempt.Status == model.AttemptPending {
		now := s.now()
		attempt.Status = model.AttemptInProgress
		attempt.StartedAt = &now
		attempt.LastActivityAt = now
		if err := s.Store.SaveAttempt(attempt); err != nil {
			return nil, err
		}
		monitoring.AttemptsStarted.WithLabelValues(string(attempt.Mode)).Inc()
	}

	details, err := s.Store.FindDetails(attemptID)
	if err != nil {
		return nil, err
	}
	return &AttemptState{Attempt: attempt, Details: details}, nil
}

// RecordVisit 记录导航到某题。首次访问置 visitedAt，重复访问只刷新计时起点。
func (s *AttemptService) RecordVisit(userID, attemptID, questionID uint) (*model.QuestionDetail, error) {
	unlock := s.locks.Lock(attemptID)
	defer unlock()

	attempt, err := s.loadOwned(userID, attemptID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if err := s.ensureMutable(attempt, now); err != nil {
		return nil, err
	}
	s.ensureStarted(attempt, now)

	detail, err := s.loadDetail(attemptID, questionID)
	if err != nil {
		return nil, err
	}

	if detail.Status == model.DetailUnvisited {
		detail.Status = model.DetailVisited
		detail.VisitedAt = &now
	}
	detail.LastStateAt = &now

	if err := s.Store.SaveDetail(detail); err != nil {
		return nil, err
	}
	attempt.LastActivityAt = now
	if err := s.Store.SaveAttempt(attempt); err != nil {
		return nil, err
	}
	return detail, nil
}

// AnswerResult 作答回执。判定字段仅 tutorial 模式填充，其余模式
// 在交卷前不泄露任何正确性信号。
type AnswerResult struct {
	Status             model.DetailStatus `json:"status"`
	AnswerChangeCount  int                `json:"answerChangeCount"`
	IsCorrect          *bool              `json:"isCorrect,omitempty"`
	IsPartiallyCorrect *bool              `json:"isPartiallyCorrect,omitempty"`
	CorrectAnswer      json.RawMessage    `json:"correctAnswer,omitempty"`
	Explanation        string             `json:"explanation,omitempty"`
}

// RecordAnswer 提交答案。已作答的题重复提交累计 answerChangeCount；
// 过期会话拒绝（防止截止后注入答案）。
func (s *AttemptService) RecordAnswer(ctx context.Context, userID, attemptID, questionID uint, answer json.RawMessage) (*AnswerResult, error) {
	unlock := s.locks.Lock(attemptID)
	defer unlock()

	attempt, err := s.loadOwned(userID, attemptID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if err := s.ensureMutable(attempt, now); err != nil {
		return nil, err
	}
	s.ensureStarted(attempt, now)

	detail, err := s.loadDetail(attemptID, questionID)
	if err != nil {
		return nil, err
	}

	switch detail.Status {
	case model.DetailUnvisited:
		// 直接作答视为隐式访问，状态序列保持单调
		detail.VisitedAt = &now
		detail.Status = model.DetailAnswered
		detail.AnsweredAt = &now
	case model.DetailAnswered:
		detail.AnswerChangeCount++
	default:
		detail.Status = model.DetailAnswered
		detail.AnsweredAt = &now
	}

	if detail.LastStateAt != nil {
		if delta := int(now.Sub(*detail.LastStateAt).Seconds()); delta > 0 {
			detail.TimeSpentSeconds += delta
		}
	}
	detail.LastStateAt = &now
	detail.UserAnswer = string(answer)

	result := &AnswerResult{AnswerChangeCount: detail.AnswerChangeCount}

	if attempt.Mode == model.ModeTutorial {
		questions, err := s.Questions.GetQuestions(ctx, []uint{questionID})
		if err != nil {
			return nil, err
		}
		q, ok := questions[questionID]
		if !ok {
			return nil, util.ErrQuestionNotFound
		}
		s.scoreDetail(detail, &q, answer)
		result.IsCorrect = detail.IsCorrect
		result.IsPartiallyCorrect = detail.IsPartiallyCorrect
		result.CorrectAnswer = json.RawMessage(q.CorrectAnswer)
		result.Explanation = q.Explanation
		monitoring.AnswersScored.WithLabelValues(string(attempt.Mode)).Inc()
	}

	if err := s.Store.SaveDetail(detail); err != nil {
		return nil, err
	}
	attempt.LastActivityAt = now
	if err := s.Store.SaveAttempt(attempt); err != nil {
		return nil, err
	}

	result.Status = detail.Status
	return result, nil
}

// SetFlag 切换旗标。旗标与复查标记独立于作答状态。
func (s *AttemptService) SetFlag(userID, attemptID, questionID uint, flagged bool) (*model.QuestionDetail, error) {
	return s.setMarker(userID, attemptID, questionID, func(d *model.QuestionDetail) {
		d.IsFlagged = flagged
	})
}

func (s *AttemptService) SetMarkForReview(userID, attemptID, questionID uint, marked bool) (*model.QuestionDetail, error) {
	return s.setMarker(userID, attemptID, questionID, func(d *model.QuestionDetail) {
		d.IsMarkedForReview = marked
	})
}

func (s *AttemptService) setMarker(userID, attemptID, questionID uint, apply func(*model.QuestionDetail)) (*model.QuestionDetail, error) {
	unlock := s.locks.Lock(attemptID)
	defer unlock()

	attempt, err := s.loadOwned(userID, attemptID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if err := s.ensureMutable(attempt, now); err != nil {
		return nil, err
	}
	s.ensureStarted(attempt, now)

	detail, err := s.loadDetail(attemptID, questionID)
	if err != nil {
		return nil, err
	}
	if detail.Status == model.DetailUnvisited {
		detail.Status = model.DetailVisited
		detail.VisitedAt = &now
		detail.LastStateAt = &now
	}
	apply(detail)

	if err := s.Store.SaveDetail(detail); err != nil {
		return nil, err
	}
	attempt.LastActivityAt = now
	if err := s.Store.SaveAttempt(attempt); err != nil {
		return nil, err
	}
	return detail, nil
}

// BreakdownBucket 分组成绩
type BreakdownBucket struct {
	Attempted int `json:"attempted"`
	Correct   int `json:"correct"`
	Accuracy  int `json:"accuracy"` // 百分比
}

// PerformanceBreakdown 按学科/难度/题型分组的表现
type PerformanceBreakdown struct {
	BySubject      map[string]BreakdownBucket `json:"bySubject"`
	ByDifficulty   map[string]BreakdownBucket `json:"byDifficulty"`
	ByQuestionType map[string]BreakdownBucket `json:"byQuestionType"`
}

// FinishResult 交卷结果
type FinishResult struct {
	AttemptID            uint                 `json:"attemptId"`
	Score                int                  `json:"score"`
	CorrectCount         int                  `json:"correctCount"`
	IncorrectCount       int                  `json:"incorrectCount"`
	UnansweredCount      int                  `json:"unansweredCount"`
	FlaggedCount         int                  `json:"flaggedCount"`
	TotalTimeSeconds     int                  `json:"totalTimeSeconds"`
	PerformanceBreakdown PerformanceBreakdown `json:"performanceBreakdown"`
}

// FinishAttempt 交卷。对已完成的会话幂等：返回存储结果，绝不重新评分。
// 计时模式超时后交卷正常进行，未作答的题按 skipped 计零分。
func (s *AttemptService) FinishAttempt(ctx context.Context, userID, attemptID uint, elapsedSeconds int) (*FinishResult, error) {
	unlock := s.locks.Lock(attemptID)
	defer unlock()

	attempt, err := s.loadOwned(userID, attemptID)
	if err != nil {
		return nil, err
	}

	switch attempt.Status {
	case model.AttemptCompleted:
		return s.storedResult(attempt), nil
	case model.AttemptAbandoned:
		return nil, util.ErrAttemptAlreadyFinalized
	case model.AttemptPending:
		// 从未开始的会话不接受交卷。abandoned 只由放弃接口和
		// 后台清扫触发，静置的 pending 交给清扫处理。
		return nil, util.ErrAttemptNotStarted
	}

	return s.finishLocked(ctx, attempt, elapsedSeconds)
}

// finishLocked 执行最终定稿，调用方必须已持有该会话的锁
func (s *AttemptService) finishLocked(ctx context.Context, attempt *model.TestAttempt, elapsedSeconds int) (*FinishResult, error) {
	now := s.now()

	details, err := s.Store.FindDetails(attempt.ID)
	if err != nil {
		return nil, err
	}

	questions, err := s.Questions.GetQuestions(ctx, attempt.QuestionIDList())
	if err != nil {
		return nil, err
	}

	breakdown := PerformanceBreakdown{
		BySubject:      map[string]BreakdownBucket{},
		ByDifficulty:   map[string]BreakdownBucket{},
		ByQuestionType: map[string]BreakdownBucket{},
	}
	var correct, incorrect, unanswered, flagged int
	var earned, maxTotal int

	for i := range details {
		d := &details[i]

		if d.Status != model.DetailAnswered {
			// 未作答（含从未访问）的题定稿为 skipped，零分无部分得分
			d.Status = model.DetailSkipped
			zero := 0
			d.PointsEarned = &zero
			unanswered++
		} else {
			q, ok := questions[d.QuestionID]
			if !d.Scored() {
				if ok {
					s.scoreDetail(d, &q, json.RawMessage(d.UserAnswer))
					monitoring.AnswersScored.WithLabelValues(string(attempt.Mode)).Inc()
				} else {
					// 题目缺失或题型未注册：降级为零分，不阻塞交卷
					f := false
					zero := 0
					d.IsCorrect = &f
					d.IsPartiallyCorrect = &f
					d.PointsEarned = &zero
				}
			}
			if d.IsCorrect != nil && *d.IsCorrect {
				correct++
			} else {
				incorrect++
			}
			if ok {
				bucketAdd(breakdown.BySubject, q.Subject, d)
				bucketAdd(breakdown.ByDifficulty, q.Difficulty, d)
				bucketAdd(breakdown.ByQuestionType, q.QuestionType, d)
			}
		}

		if d.IsFlagged {
			flagged++
		}
		if d.PointsEarned != nil {
			earned += *d.PointsEarned
		}
		maxTotal += d.MaxPoints
	}

	finalizeBuckets(breakdown.BySubject)
	finalizeBuckets(breakdown.ByDifficulty)
	finalizeBuckets(breakdown.ByQuestionType)

	score := 0
	if maxTotal > 0 {
		score = scoring.Points(float64(earned)/float64(maxTotal), 100)
	}

	total := elapsedSeconds
	if total <= 0 && attempt.StartedAt != nil {
		total = int(now.Sub(*attempt.StartedAt).Seconds())
	}

	attempt.Status = model.AttemptCompleted
	attempt.CompletedAt = &now
	attempt.LastActivityAt = now
	attempt.Score = score
	attempt.CorrectCount = correct
	attempt.IncorrectCount = incorrect
	attempt.UnansweredCount = unanswered
	attempt.FlaggedCount = flagged
	attempt.TotalTimeSeconds = total
	if data, err := json.Marshal(breakdown); err == nil {
		attempt.PerformanceBreakdown = string(data)
	}

	if s.Archive != nil {
		object, err := s.Archive.ArchiveAttempt(ctx, attempt, details)
		if err != nil {
			logger.Log.Warn("attempt archive failed", zap.Uint("attemptId", attempt.ID), zap.Error(err))
		} else {
			attempt.ArchiveObject = object
		}
	}

	if err := s.Store.SaveDetails(details); err != nil {
		return nil, err
	}
	if err := s.Store.SaveAttempt(attempt); err != nil {
		return nil, err
	}
	monitoring.AttemptsFinished.WithLabelValues(string(attempt.Mode), "completed").Inc()

	return s.storedResult(attempt), nil
}

// ForceAbandon 主动放弃会话。终态幂等。userID 为 0 走后台路径，跳过归属校验。
func (s *AttemptService) ForceAbandon(userID, attemptID uint) error {
	unlock := s.locks.Lock(attemptID)
	defer unlock()

	attempt, err := s.loadOwned(userID, attemptID)
	if err != nil {
		return err
	}
	if attempt.IsTerminal() {
		return nil
	}
	attempt.Status = model.AttemptAbandoned
	attempt.LastActivityAt = s.now()
	if err := s.Store.SaveAttempt(attempt); err != nil {
		return err
	}
	monitoring.AttemptsFinished.WithLabelValues(string(attempt.Mode), "abandoned").Inc()
	return nil
}

// SweepIdleAttempts 后台清扫：超时的计时会话自动交卷，
// 静默超窗且无任何作答的会话置 abandoned，有作答的替学生交卷。
func (s *AttemptService) SweepIdleAttempts(ctx context.Context, inactivityWindow time.Duration) (int, error) {
	now := s.now()
	idle, err := s.Store.FindIdleAttempts(now.Add(-inactivityWindow))
	if err != nil {
		return 0, err
	}
	expired, err := s.Store.FindExpiredAttempts(now)
	if err != nil {
		return 0, err
	}

	seen := make(map[uint]struct{}, len(idle)+len(expired))
	swept := 0
	for _, batch := range [][]model.TestAttempt{idle, expired} {
		for i := range batch {
			id := batch[i].ID
			if _, done := seen[id]; done {
				continue
			}
			seen[id] = struct{}{}
			if err := s.sweepOne(ctx, id); err != nil {
				logger.Log.Error("sweep attempt failed", zap.Uint("attemptId", id), zap.Error(err))
				continue
			}
			swept++
		}
	}
	monitoring.SweepRuns.Inc()
	return swept, nil
}

func (s *AttemptService) sweepOne(ctx context.Context, attemptID uint) error {
	unlock := s.locks.Lock(attemptID)
	defer unlock()

	attempt, err := s.Store.FindAttemptByID(attemptID)
	if err != nil {
		return err
	}
	if attempt.IsTerminal() {
		return nil
	}

	details, err := s.Store.FindDetails(attempt.ID)
	if err != nil {
		return err
	}
	answered := false
	for i := range details {
		if details[i].Status == model.DetailAnswered {
			answered = true
			break
		}
	}

	if !answered {
		attempt.Status = model.AttemptAbandoned
		attempt.LastActivityAt = s.now()
		if err := s.Store.SaveAttempt(attempt); err != nil {
			return err
		}
		monitoring.AttemptsFinished.WithLabelValues(string(attempt.Mode), "abandoned").Inc()
		return nil
	}

	_, err = s.finishLocked(ctx, attempt, 0)
	return err
}

// GetAttempt 当前会话状态（UI 刷新用）
func (s *AttemptService) GetAttempt(userID, attemptID uint) (*AttemptState, error) {
	attempt, err := s.loadOwned(userID, attemptID)
	if err != nil {
		return nil, err
	}
	details, err := s.Store.FindDetails(attemptID)
	if err != nil {
		return nil, err
	}
	return &AttemptState{Attempt: attempt, Details: details}, nil
}

func (s *AttemptService) ListAttempts(userID uint, page, limit int) ([]model.TestAttempt, int64, error) {
	return s.Store.FindAttemptsByUser(userID, page, limit)
}

// ReviewQuestion 复盘条目：完成后才携带正确答案与解析
type ReviewQuestion struct {
	Detail        model.QuestionDetail `json:"detail"`
	Stem          string               `json:"stem"`
	QuestionType  string               `json:"questionType"`
	Options       json.RawMessage      `json:"options,omitempty"`
	CorrectAnswer json.RawMessage      `json:"correctAnswer,omitempty"`
	Explanation   string               `json:"explanation,omitempty"`
}

// GetReview 完成后的逐题复盘。进行中的会话拒绝，防止泄露答案。
func (s *AttemptService) GetReview(ctx context.Context, userID, attemptID uint) (*model.TestAttempt, []ReviewQuestion, error) {
	attempt, err := s.loadOwned(userID, attemptID)
	if err != nil {
		return nil, nil, err
	}
	if attempt.Status != model.AttemptCompleted {
		return nil, nil, util.ErrPermissionDenied
	}

	details, err := s.Store.FindDetails(attemptID)
	if err != nil {
		return nil, nil, err
	}
	questions, err := s.Questions.GetQuestions(ctx, attempt.QuestionIDList())
	if err != nil {
		return nil, nil, err
	}

	review := make([]ReviewQuestion, 0, len(details))
	for _, d := range details {
		item := ReviewQuestion{Detail: d}
		if q, ok := questions[d.QuestionID]; ok {
			item.Stem = q.Stem
			item.QuestionType = q.QuestionType
			item.Options = json.RawMessage(q.Options)
			item.CorrectAnswer = json.RawMessage(q.CorrectAnswer)
			item.Explanation = q.Explanation
		}
		review = append(review, item)
	}
	return attempt, review, nil
}

// scoreDetail 调用校验器并落盘判定。未注册题型降级为零分，不向上抛错。
func (s *AttemptService) scoreDetail(d *model.QuestionDetail, q *model.Question, answer json.RawMessage) {
	verdict, err := scoring.Validate(q.QuestionType, answer, json.RawMessage(q.CorrectAnswer), json.RawMessage(q.Options))
	if err != nil {
		logger.Log.Warn("unknown question type, scoring zero",
			zap.Uint("questionId", q.ID), zap.String("questionType", q.QuestionType))
		verdict = scoring.Verdict{}
	}

	points := scoring.Points(verdict.Fraction, d.MaxPoints)
	d.IsCorrect = &verdict.IsCorrect
	d.IsPartiallyCorrect = &verdict.IsPartiallyCorrect
	d.PointsEarned = &points
}

func (s *AttemptService) storedResult(attempt *model.TestAttempt) *FinishResult {
	var breakdown PerformanceBreakdown
	if attempt.PerformanceBreakdown != "" {
		_ = json.Unmarshal([]byte(attempt.PerformanceBreakdown), &breakdown)
	}
	return &FinishResult{
		AttemptID:            attempt.ID,
		Score:                attempt.Score,
		CorrectCount:         attempt.CorrectCount,
		IncorrectCount:       attempt.IncorrectCount,
		UnansweredCount:      attempt.UnansweredCount,
		FlaggedCount:         attempt.FlaggedCount,
		TotalTimeSeconds:     attempt.TotalTimeSeconds,
		PerformanceBreakdown: breakdown,
	}
}

// loadOwned 加载会话并校验归属（userID 为 0 时跳过，供后台路径使用）
func (s *AttemptService) loadOwned(userID, attemptID uint) (*model.TestAttempt, error) {
	attempt, err := s.Store.FindAttemptByID(attemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrAttemptNotFound
		}
		return nil, err
	}
	if userID != 0 && attempt.UserID != userID {
		return nil, util.ErrPermissionDenied
	}
	return attempt, nil
}

func (s *AttemptService) loadDetail(attemptID, questionID uint) (*model.QuestionDetail, error) {
	detail, err := s.Store.FindDetail(attemptID, questionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuestionNotInAttempt
		}
		return nil, err
	}
	return detail, nil
}

// ensureMutable 终态拒绝一切变更；计时超时后的迟到请求同样拒绝
func (s *AttemptService) ensureMutable(attempt *model.TestAttempt, now time.Time) error {
	if attempt.IsTerminal() {
		return util.ErrAttemptAlreadyFinalized
	}
	if attempt.Expired(now) {
		return util.ErrAttemptExpired
	}
	return nil
}

// ensureStarted pending 会话被首个动作隐式开卷
func (s *AttemptService) ensureStarted(attempt *model.TestAttempt, now time.Time) {
	if attempt.Status != model.AttemptPending {
		return
	}
	attempt.Status = model.AttemptInProgress
	attempt.StartedAt = &now
	monitoring.AttemptsStarted.WithLabelValues(string(attempt.Mode)).Inc()
}

func bucketAdd(buckets map[string]BreakdownBucket, key string, d *model.QuestionDetail) {
	if key == "" {
		key = "uncategorized"
	}
	b := buckets[key]
	b.Attempted++
	if d.IsCorrect != nil && *d.IsCorrect {
		b.Correct++
	}
	buckets[key] = b
}

func finalizeBuckets(buckets map[string]BreakdownBucket) {
	for k, b := range buckets {
		if b.Attempted > 0 {
			b.Accuracy = scoring.Points(float64(b.Correct)/float64(b.Attempted), 100)
		}
		buckets[k] = b
	}
}
