package model

// QBank 独立于课程结构的练习题库
// swagger:model QBank
type QBank struct {
	BaseModel

	Name        string `gorm:"size:200;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	Category    string `gorm:"size:100;index" json:"category"`
	IsPublished bool   `gorm:"default:false" json:"isPublished"`
}

func (QBank) TableName() string {
	return "qbanks"
}
