package repository

import (
	"time"

	"nurseprep_backend/internal/model"

	"gorm.io/gorm"
)

type AttemptRepository struct {
	DB *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) *AttemptRepository {
	return &AttemptRepository{DB: db}
}

func (r *AttemptRepository) CreateAttempt(attempt *model.TestAttempt) error {
	return r.DB.Create(attempt).Error
}

func (r *AttemptRepository) SaveAttempt(attempt *model.TestAttempt) error {
	return r.DB.Save(attempt).Error
}

func (r *AttemptRepository) FindAttemptByID(id uint) (*model.TestAttempt, error) {
	var a model.TestAttempt
	if err := r.DB.First(&a, id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AttemptRepository) FindAttemptsByUser(userID uint, page, limit int) ([]model.TestAttempt, int64, error) {
	var attempts []model.TestAttempt
	var total int64

	q := r.DB.Model(&model.TestAttempt{}).Where("user_id = ?", userID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Offset((page - 1) * limit).Limit(limit).Order("id DESC").Find(&attempts).Error
	return attempts, total, err
}

// FindIdleAttempts 返回超过静默窗口仍未定稿的会话（pending 和
// in_progress），供后台清扫
func (r *AttemptRepository) FindIdleAttempts(cutoff time.Time) ([]model.TestAttempt, error) {
	var attempts []model.TestAttempt
	statuses := []model.AttemptStatus{model.AttemptPending, model.AttemptInProgress}
	err := r.DB.Where("status IN ? AND last_activity_at < ?", statuses, cutoff).Find(&attempts).Error
	return attempts, err
}

// FindExpiredAttempts 计时超时但仍 in_progress 的会话
func (r *AttemptRepository) FindExpiredAttempts(now time.Time) ([]model.TestAttempt, error) {
	var attempts []model.TestAttempt
	err := r.DB.Where(
		"status = ? AND time_limit_seconds IS NOT NULL AND started_at IS NOT NULL AND DATE_ADD(started_at, INTERVAL time_limit_seconds SECOND) < ?",
		model.AttemptInProgress, now,
	).Find(&attempts).Error
	return attempts, err
}

func (r *AttemptRepository) CreateDetails(details []model.QuestionDetail) error {
	if len(details) == 0 {
		return nil
	}
	return r.DB.Create(&details).Error
}

func (r *AttemptRepository) SaveDetail(detail *model.QuestionDetail) error {
	return r.DB.Save(detail).Error
}

func (r *AttemptRepository) SaveDetails(details []model.QuestionDetail) error {
	for i := range details {
		if err := r.DB.Save(&details[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *AttemptRepository) FindDetail(attemptID, questionID uint) (*model.QuestionDetail, error) {
	var d model.QuestionDetail
	err := r.DB.Where("attempt_id = ? AND question_id = ?", attemptID, questionID).First(&d).Error
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *AttemptRepository) FindDetails(attemptID uint) ([]model.QuestionDetail, error) {
	var details []model.QuestionDetail
	err := r.DB.Where("attempt_id = ?", attemptID).Order("sequence").Find(&details).Error
	return details, err
}

// QBankStats 题库维度的会话统计
type QBankStats struct {
	TotalAttempts int64   `json:"totalAttempts"`
	AvgScore      float64 `json:"avgScore"`
	AvgTime       float64 `json:"avgTime"`
	PassRate      float64 `json:"passRate"`
}

func (r *AttemptRepository) GetQBankStats(qbankID uint, passingScore int) (*QBankStats, error) {
	stats := &QBankStats{}
	q := r.DB.Model(&model.TestAttempt{}).Where("qbank_id = ? AND status = ?", qbankID, model.AttemptCompleted)

	if err := q.Count(&stats.TotalAttempts).Error; err != nil {
		return nil, err
	}
	if stats.TotalAttempts == 0 {
		return stats, nil
	}

	if err := q.Select("AVG(score)").Scan(&stats.AvgScore).Error; err != nil {
		return nil, err
	}
	if err := q.Select("AVG(total_time_seconds)").Scan(&stats.AvgTime).Error; err != nil {
		return nil, err
	}
	var passed int64
	if err := q.Where("score >= ?", passingScore).Count(&passed).Error; err != nil {
		return nil, err
	}
	stats.PassRate = float64(passed) / float64(stats.TotalAttempts)
	return stats, nil
}
