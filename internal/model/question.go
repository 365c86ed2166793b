package model

// 支持的题型标签。classic 为传统 NCLEX 题型，其余为 NGN 题型。
const (
	TypeMultipleChoice   = "multiple_choice"
	TypeTrueFalse        = "true_false"
	TypeSATA             = "sata"
	TypeSelectN          = "select_n"
	TypeOrdering         = "ordering"
	TypeBowtie           = "bowtie"
	TypeDosageCalc       = "dosage_calculation"
	TypeHighlightText    = "highlight_text"
	TypeExtendedDragDrop = "extended_drag_drop"
	TypeClozeDropdown    = "cloze_dropdown"
	TypeMatrixMultiResp  = "matrix_multiple_response"
	TypeTrendItem        = "trend_item"
)

// ClassicTypes 传统题型；其余归为 NGN
var ClassicTypes = map[string]bool{
	TypeMultipleChoice: true,
	TypeTrueFalse:      true,
	TypeSATA:           true,
	TypeOrdering:       true,
	TypeDosageCalc:     true,
}

// swagger:model Question
type Question struct {
	BaseModel

	QBankID       uint   `gorm:"index;type:bigint unsigned" json:"qbankId"`
	QuestionType  string `gorm:"size:50;index" json:"questionType"`
	Stem          string `gorm:"type:text" json:"stem"`
	Options       string `gorm:"type:json" json:"options"`       // 选项结构（JSON，形状依题型）
	CorrectAnswer string `gorm:"type:json" json:"correctAnswer"` // 正确答案（JSON，形状依题型）
	Explanation   string `gorm:"type:text" json:"explanation"`
	Subject       string `gorm:"size:100;index" json:"subject"`
	Difficulty    string `gorm:"size:20;index" json:"difficulty"`
	Points        int    `gorm:"default:1" json:"points"`
	IsActive      bool   `gorm:"default:true" json:"isActive"`
}

func (Question) TableName() string {
	return "questions"
}

// MaxPoints 题目满分，未设置时按 1 分
func (q *Question) MaxPoints() int {
	if q.Points <= 0 {
		return 1
	}
	return q.Points
}
