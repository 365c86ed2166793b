package model

import (
	"encoding/json"
	"time"
)

type TestMode string

const (
	ModeTutorial   TestMode = "tutorial"
	ModeTimed      TestMode = "timed"
	ModeAssessment TestMode = "assessment"
)

type TestType string

const (
	TestClassic TestType = "classic"
	TestNGN     TestType = "ngn"
	TestMixed   TestType = "mixed"
)

type AttemptStatus string

const (
	AttemptPending    AttemptStatus = "pending"
	AttemptInProgress AttemptStatus = "in_progress"
	AttemptCompleted  AttemptStatus = "completed"
	AttemptAbandoned  AttemptStatus = "abandoned"
)

// TestAttempt 一次练习/考试会话
// swagger:model TestAttempt
type TestAttempt struct {
	BaseModel

	UserID   uint     `gorm:"index;type:bigint unsigned" json:"userId"`
	QBankID  uint     `gorm:"index;type:bigint unsigned" json:"qbankId"`
	Mode     TestMode `gorm:"type:enum('tutorial','timed','assessment');default:'tutorial'" json:"mode"`
	TestType TestType `gorm:"type:enum('classic','ngn','mixed');default:'mixed'" json:"testType"`

	// 题目顺序在创建时固定，之后不可变（JSON array of question ids）
	QuestionIDs      string `gorm:"type:json" json:"questionIds"`
	TimeLimitSeconds *int   `json:"timeLimitSeconds,omitempty"`

	Status         AttemptStatus `gorm:"type:enum('pending','in_progress','completed','abandoned');default:'pending';index" json:"status"`
	StartedAt      *time.Time    `json:"startedAt,omitempty"`
	CompletedAt    *time.Time    `json:"completedAt,omitempty"`
	LastActivityAt time.Time     `gorm:"index" json:"lastActivityAt"`

	Score                int    `json:"score"`
	CorrectCount         int    `json:"correctCount"`
	IncorrectCount       int    `json:"incorrectCount"`
	UnansweredCount      int    `json:"unansweredCount"`
	FlaggedCount         int    `json:"flaggedCount"`
	TotalTimeSeconds     int    `json:"totalTimeSeconds"`
	PerformanceBreakdown string `gorm:"type:json" json:"performanceBreakdown,omitempty"`

	// 归档对象名（完成后写入 MinIO）
	ArchiveObject string `gorm:"size:255" json:"-"`
}

func (TestAttempt) TableName() string {
	return "test_attempts"
}

// IsTerminal completed/abandoned 为吸收态，不允许继续变更
func (a *TestAttempt) IsTerminal() bool {
	return a.Status == AttemptCompleted || a.Status == AttemptAbandoned
}

// QuestionIDList 解析固定题目顺序
func (a *TestAttempt) QuestionIDList() []uint {
	var ids []uint
	if a.QuestionIDs == "" {
		return ids
	}
	_ = json.Unmarshal([]byte(a.QuestionIDs), &ids)
	return ids
}

// Expired 判断计时模式是否超过时限
func (a *TestAttempt) Expired(now time.Time) bool {
	if a.TimeLimitSeconds == nil || a.StartedAt == nil {
		return false
	}
	return now.Sub(*a.StartedAt) > time.Duration(*a.TimeLimitSeconds)*time.Second
}
