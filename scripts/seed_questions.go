// 手动导入演示题目脚本
//
// 向第一个已发布题库写入覆盖全部题型的示例题目，
// 用于首次部署后的本地联调和前端调试。
//
// 用法: go run scripts/seed_questions.go

package main

import (
	"log"
	"os"

	"nurseprep_backend/internal/config"
	"nurseprep_backend/internal/model"
	"nurseprep_backend/pkg/database"
	"nurseprep_backend/pkg/logger"

	"gopkg.in/yaml.v3"
)

func main() {
	data, err := os.ReadFile("configs/config.yaml")
	if err != nil {
		log.Fatalf("无法读取配置文件: %v", err)
	}

	var cfg config.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		log.Fatalf("解析配置文件失败: %v", err)
	}

	logger.InitLogger(&cfg)

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}

	var qbank model.QBank
	if err := db.Where("is_published = ?", true).First(&qbank).Error; err != nil {
		log.Fatalf("没有已发布的题库: %v", err)
	}

	questions := []model.Question{
		{
			QBankID:       qbank.ID,
			QuestionType:  model.TypeMultipleChoice,
			Stem:          "A client with type 1 diabetes reports shakiness and sweating. What should the nurse do first?",
			Options:       `[{"id":"a","text":"Administer insulin"},{"id":"b","text":"Check blood glucose"},{"id":"c","text":"Give orange juice"},{"id":"d","text":"Call the provider"}]`,
			CorrectAnswer: `"b"`,
			Explanation:   "Assessment precedes intervention: confirm hypoglycemia before treating.",
			Subject:       "endocrine",
			Difficulty:    "medium",
			Points:        1,
		},
		{
			QBankID:       qbank.ID,
			QuestionType:  model.TypeTrueFalse,
			Stem:          "Morphine is contraindicated in acute pancreatitis.",
			CorrectAnswer: `"false"`,
			Subject:       "pharmacology",
			Difficulty:    "easy",
			Points:        1,
		},
		{
			QBankID:       qbank.ID,
			QuestionType:  model.TypeSATA,
			Stem:          "Select all findings consistent with left-sided heart failure.",
			Options:       `[{"id":"a","text":"Crackles"},{"id":"b","text":"Peripheral edema"},{"id":"c","text":"Orthopnea"},{"id":"d","text":"JVD"}]`,
			CorrectAnswer: `["a","c"]`,
			Subject:       "cardiac",
			Difficulty:    "hard",
			Points:        2,
		},
		{
			QBankID:       qbank.ID,
			QuestionType:  model.TypeSelectN,
			Stem:          "Select the 2 priority assessments after a fall.",
			Options:       `{"n":2,"choices":[{"id":"a","text":"Level of consciousness"},{"id":"b","text":"Diet history"},{"id":"c","text":"Range of motion"},{"id":"d","text":"Pain"}]}`,
			CorrectAnswer: `["a","d"]`,
			Subject:       "fundamentals",
			Difficulty:    "medium",
			Points:        2,
		},
		{
			QBankID:       qbank.ID,
			QuestionType:  model.TypeOrdering,
			Stem:          "Place the steps of donning sterile gloves in order.",
			Options:       `[{"id":"1","text":"Perform hand hygiene"},{"id":"2","text":"Open the package"},{"id":"3","text":"Glove dominant hand"},{"id":"4","text":"Glove non-dominant hand"}]`,
			CorrectAnswer: `["1","2","3","4"]`,
			Subject:       "fundamentals",
			Difficulty:    "easy",
			Points:        1,
		},
		{
			QBankID:       qbank.ID,
			QuestionType:  model.TypeDosageCalc,
			Stem:          "Ordered: heparin 5,000 units SC. Available: 10,000 units/mL. How many mL?",
			CorrectAnswer: `{"value":0.5,"tolerance":0.01}`,
			Subject:       "pharmacology",
			Difficulty:    "medium",
			Points:        1,
		},
		{
			QBankID:       qbank.ID,
			QuestionType:  model.TypeHighlightText,
			Stem:          "Highlight the findings that require immediate follow-up.",
			Options:       `[{"id":"s1","text":"RR 28"},{"id":"s2","text":"Temp 37.0"},{"id":"s3","text":"SpO2 88%"},{"id":"s4","text":"HR 80"}]`,
			CorrectAnswer: `["s1","s3"]`,
			Subject:       "respiratory",
			Difficulty:    "medium",
			Points:        2,
		},
		{
			QBankID:       qbank.ID,
			QuestionType:  model.TypeBowtie,
			Stem:          "Complete the diagram for a client with suspected sepsis.",
			Options:       `{"findings":[{"id":"f1"},{"id":"f2"},{"id":"f3"}],"conditions":[{"id":"c1"},{"id":"c2"}],"actions":[{"id":"a1"},{"id":"a2"},{"id":"a3"}]}`,
			CorrectAnswer: `{"findings":["f1","f3"],"condition":"c1","actions":["a1","a2"]}`,
			Subject:       "med-surg",
			Difficulty:    "hard",
			Points:        3,
		},
		{
			QBankID:       qbank.ID,
			QuestionType:  model.TypeExtendedDragDrop,
			Stem:          "Drag each medication to its drug class.",
			Options:       `{"targets":[{"id":"t1","label":"Beta blocker"},{"id":"t2","label":"ACE inhibitor"}],"tokens":[{"id":"m1","text":"Metoprolol"},{"id":"m2","text":"Lisinopril"}]}`,
			CorrectAnswer: `{"t1":"m1","t2":"m2"}`,
			Subject:       "pharmacology",
			Difficulty:    "medium",
			Points:        2,
		},
		{
			QBankID:       qbank.ID,
			QuestionType:  model.TypeClozeDropdown,
			Stem:          "The nurse should position the client [blank1] and administer oxygen via [blank2].",
			Options:       `{"blank1":[{"id":"o1","text":"high Fowler's"},{"id":"o2","text":"supine"}],"blank2":[{"id":"o3","text":"non-rebreather"},{"id":"o4","text":"nasal cannula"}]}`,
			CorrectAnswer: `{"blank1":"o1","blank2":"o3"}`,
			Subject:       "respiratory",
			Difficulty:    "medium",
			Points:        2,
		},
		{
			QBankID:       qbank.ID,
			QuestionType:  model.TypeMatrixMultiResp,
			Stem:          "For each finding, mark whether it is expected or requires follow-up.",
			Options:       `{"rows":["Lochia amount","Fundal height","Temperature"],"columns":["Expected","Requires follow-up"]}`,
			CorrectAnswer: `["0-0","1-1","2-1"]`,
			Subject:       "maternity",
			Difficulty:    "hard",
			Points:        3,
		},
		{
			QBankID:       qbank.ID,
			QuestionType:  model.TypeTrendItem,
			Stem:          "Based on the vital sign trend over 4 hours, which complication is developing?",
			Options:       `[{"id":"a","text":"Hypovolemic shock"},{"id":"b","text":"Fluid overload"},{"id":"c","text":"Sepsis"},{"id":"d","text":"Pulmonary embolism"}]`,
			CorrectAnswer: `"a"`,
			Subject:       "med-surg",
			Difficulty:    "hard",
			Points:        1,
		},
	}

	inserted := 0
	for i := range questions {
		questions[i].IsActive = true
		var count int64
		db.Model(&model.Question{}).
			Where("qbank_id = ? AND stem = ?", qbank.ID, questions[i].Stem).
			Count(&count)
		if count > 0 {
			continue
		}
		if err := db.Create(&questions[i]).Error; err != nil {
			log.Fatalf("题目写入失败: %v", err)
		}
		inserted++
	}

	log.Printf("导入完成: 题库 %q 新增 %d 道题目", qbank.Name, inserted)
}
