package model

import "time"

type DetailStatus string

const (
	DetailUnvisited DetailStatus = "unvisited"
	DetailVisited   DetailStatus = "visited"
	DetailAnswered  DetailStatus = "answered"
	DetailSkipped   DetailStatus = "skipped"
)

// QuestionDetail 每个 (attempt, question) 对一行，记录单题状态机与计时
// swagger:model QuestionDetail
type QuestionDetail struct {
	BaseModel

	AttemptID  uint `gorm:"uniqueIndex:idx_attempt_question;type:bigint unsigned" json:"attemptId"`
	QuestionID uint `gorm:"uniqueIndex:idx_attempt_question;type:bigint unsigned" json:"questionId"`
	Order      int  `gorm:"column:sequence" json:"order"` // 固定顺序中的位置（1 起）

	Status            DetailStatus `gorm:"type:enum('unvisited','visited','answered','skipped');default:'unvisited'" json:"status"`
	IsFlagged         bool         `gorm:"default:false" json:"isFlagged"`
	IsMarkedForReview bool         `gorm:"default:false" json:"isMarkedForReview"`

	UserAnswer string `gorm:"type:json" json:"userAnswer,omitempty"`

	// 评分字段在最终定稿前为 null（tutorial 模式即时评分例外）
	IsCorrect          *bool `json:"isCorrect,omitempty"`
	IsPartiallyCorrect *bool `json:"isPartiallyCorrect,omitempty"`
	PointsEarned       *int  `json:"pointsEarned,omitempty"`
	MaxPoints          int   `gorm:"default:1" json:"maxPoints"`

	TimeSpentSeconds  int        `json:"timeSpentSeconds"`
	VisitedAt         *time.Time `json:"visitedAt,omitempty"`
	AnsweredAt        *time.Time `json:"answeredAt,omitempty"`
	LastStateAt       *time.Time `json:"-"` // 最近一次状态进入时间，用于累计用时
	AnswerChangeCount int        `gorm:"default:0" json:"answerChangeCount"`
}

func (QuestionDetail) TableName() string {
	return "question_details"
}

// Scored 是否已有评分结果
func (d *QuestionDetail) Scored() bool {
	return d.IsCorrect != nil
}
