package repository

import (
	"nurseprep_backend/internal/model"

	"gorm.io/gorm"
)

type QBankRepository struct {
	DB *gorm.DB
}

func NewQBankRepository(db *gorm.DB) *QBankRepository {
	return &QBankRepository{DB: db}
}

func (r *QBankRepository) Create(qb *model.QBank) error {
	return r.DB.Create(qb).Error
}

func (r *QBankRepository) Update(qb *model.QBank) error {
	return r.DB.Save(qb).Error
}

func (r *QBankRepository) FindByID(id uint) (*model.QBank, error) {
	var qb model.QBank
	if err := r.DB.First(&qb, id).Error; err != nil {
		return nil, err
	}
	return &qb, nil
}

func (r *QBankRepository) ListPublished(page, limit int) ([]model.QBank, int64, error) {
	var qbs []model.QBank
	var total int64

	q := r.DB.Model(&model.QBank{}).Where("is_published = ?", true)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Offset((page - 1) * limit).Limit(limit).Order("id").Find(&qbs).Error
	return qbs, total, err
}
