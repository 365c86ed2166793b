package service

import (
	"context"
	"errors"
	"fmt"

	"nurseprep_backend/internal/model"
	"nurseprep_backend/internal/repository"
	"nurseprep_backend/internal/scoring"
	"nurseprep_backend/internal/util"

	"gorm.io/gorm"
)

// 通过率按 NCLEX 常用基准分计算
const passingScore = 65

// QBankService 题库与题目管理（教师/管理员侧）
type QBankService struct {
	QBankRepo    *repository.QBankRepository
	QuestionRepo *repository.QuestionRepository
	AttemptRepo  *repository.AttemptRepository
	Questions    *QuestionService
}

func NewQBankService(qbankRepo *repository.QBankRepository, questionRepo *repository.QuestionRepository, attemptRepo *repository.AttemptRepository, questions *QuestionService) *QBankService {
	return &QBankService{
		QBankRepo:    qbankRepo,
		QuestionRepo: questionRepo,
		AttemptRepo:  attemptRepo,
		Questions:    questions,
	}
}

func (s *QBankService) ListQBanks(page, limit int) ([]model.QBank, int64, error) {
	return s.QBankRepo.ListPublished(page, limit)
}

func (s *QBankService) GetQBank(id uint) (*model.QBank, error) {
	qb, err := s.QBankRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQBankNotFound
		}
		return nil, err
	}
	return qb, nil
}

func (s *QBankService) CreateQBank(qb *model.QBank) error {
	return s.QBankRepo.Create(qb)
}

func (s *QBankService) UpdateQBank(qb *model.QBank) error {
	if _, err := s.GetQBank(qb.ID); err != nil {
		return err
	}
	return s.QBankRepo.Update(qb)
}

func (s *QBankService) ListQuestions(f repository.QuestionFilter, page, limit int) ([]model.Question, int64, error) {
	return s.QuestionRepo.List(f, page, limit)
}

func (s *QBankService) GetQuestion(id uint) (*model.Question, error) {
	q, err := s.QuestionRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuestionNotFound
		}
		return nil, err
	}
	return q, nil
}

func validDifficulty(d string) bool {
	switch d {
	case "", util.DifficultyEasy, util.DifficultyMedium, util.DifficultyHard:
		return true
	}
	return false
}

// CreateQuestion 入库前校验题型已注册，未知题型直接拒绝
func (s *QBankService) CreateQuestion(q *model.Question) error {
	if _, err := scoring.Resolve(q.QuestionType); err != nil {
		return err
	}
	if !validDifficulty(q.Difficulty) {
		return fmt.Errorf("%w: %q", util.ErrInvalidDifficulty, q.Difficulty)
	}
	if _, err := s.GetQBank(q.QBankID); err != nil {
		return err
	}
	return s.QuestionRepo.Create(q)
}

// UpdateQuestion 更新后清除缓存，避免进行中的会话读到旧版本
func (s *QBankService) UpdateQuestion(ctx context.Context, q *model.Question) error {
	if _, err := scoring.Resolve(q.QuestionType); err != nil {
		return err
	}
	if !validDifficulty(q.Difficulty) {
		return fmt.Errorf("%w: %q", util.ErrInvalidDifficulty, q.Difficulty)
	}
	if err := s.QuestionRepo.Update(q); err != nil {
		return err
	}
	s.Questions.Invalidate(ctx, q.ID)
	return nil
}

func (s *QBankService) GetStats(qbankID uint) (*repository.QBankStats, error) {
	if _, err := s.GetQBank(qbankID); err != nil {
		return nil, err
	}
	return s.AttemptRepo.GetQBankStats(qbankID, passingScore)
}
