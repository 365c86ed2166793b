package repository

import (
	"nurseprep_backend/internal/model"

	"gorm.io/gorm"
)

type QuestionRepository struct {
	DB *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) *QuestionRepository {
	return &QuestionRepository{DB: db}
}

func (r *QuestionRepository) Create(q *model.Question) error {
	return r.DB.Create(q).Error
}

func (r *QuestionRepository) Update(q *model.Question) error {
	return r.DB.Save(q).Error
}

func (r *QuestionRepository) FindByID(id uint) (*model.Question, error) {
	var q model.Question
	if err := r.DB.First(&q, id).Error; err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *QuestionRepository) FindByIDs(ids []uint) ([]model.Question, error) {
	var qs []model.Question
	if len(ids) == 0 {
		return qs, nil
	}
	err := r.DB.Where("id IN ?", ids).Find(&qs).Error
	return qs, err
}

// QuestionFilter 静态筛选条件（题目选取不做自适应抽题）
type QuestionFilter struct {
	QBankID      uint
	Subject      string
	Difficulty   string
	QuestionType string
}

func (r *QuestionRepository) query(f QuestionFilter) *gorm.DB {
	q := r.DB.Model(&model.Question{}).Where("is_active = ?", true)
	if f.QBankID > 0 {
		q = q.Where("qbank_id = ?", f.QBankID)
	}
	if f.Subject != "" {
		q = q.Where("subject = ?", f.Subject)
	}
	if f.Difficulty != "" {
		q = q.Where("difficulty = ?", f.Difficulty)
	}
	if f.QuestionType != "" {
		q = q.Where("question_type = ?", f.QuestionType)
	}
	return q
}

func (r *QuestionRepository) List(f QuestionFilter, page, limit int) ([]model.Question, int64, error) {
	var qs []model.Question
	var total int64

	q := r.query(f)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Offset((page - 1) * limit).Limit(limit).Order("id").Find(&qs).Error
	return qs, total, err
}

// PickIDs 随机抽取 count 道符合筛选条件的题目 id
func (r *QuestionRepository) PickIDs(f QuestionFilter, count int) ([]uint, error) {
	var ids []uint
	err := r.query(f).Order("RAND()").Limit(count).Pluck("id", &ids).Error
	return ids, err
}
