package database

import (
	"fmt"
	"log"

	"nurseprep_backend/internal/config"
	"nurseprep_backend/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})

	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	err = db.AutoMigrate(
		&model.User{},
		&model.QBank{},
		&model.Question{},
		&model.TestAttempt{},
		&model.QuestionDetail{},
	)

	if err != nil {
		return nil, err
	}

	log.Println("Database migration completed")

	// 默认题库（空库时插入演示数据，方便本地联调）
	var qbCount int64
	db.Model(&model.QBank{}).Count(&qbCount)
	if qbCount == 0 {
		defaultQBanks := []model.QBank{
			{Name: "NCLEX-RN Fundamentals", Description: "Foundational nursing practice questions", Category: "fundamentals", IsPublished: true},
			{Name: "Pharmacology Q-Bank", Description: "Medication administration and dosage calculation", Category: "pharmacology", IsPublished: true},
			{Name: "Next Generation NCLEX", Description: "NGN item types: bow-tie, trend, case studies", Category: "ngn", IsPublished: true},
		}
		for _, qb := range defaultQBanks {
			db.Create(&qb)
		}
	}

	return db, nil
}
