// Package scoring holds the question type registry and the per-type answer
// validators. Everything here is pure: validators take the submitted answer,
// the correct-answer spec and the options spec as raw JSON and return a
// verdict. Malformed submissions are never an error, they score zero, so a
// student can always submit and move on.
package scoring

import (
	"encoding/json"
	"errors"
	"math"
)

var ErrUnknownQuestionType = errors.New("unknown question type")

// Verdict 单题判定结果
type Verdict struct {
	IsCorrect          bool    `json:"isCorrect"`
	IsPartiallyCorrect bool    `json:"isPartiallyCorrect"`
	Fraction           float64 `json:"fraction"`
}

// ValidatorFunc 按题型校验答案。三个参数均为原始 JSON。
type ValidatorFunc func(userAnswer, correctAnswer, options json.RawMessage) Verdict

// Entry 题型注册项
type Entry struct {
	Validate      ValidatorFunc
	DefaultAnswer json.RawMessage
}

var registry = map[string]Entry{
	"multiple_choice":          {Validate: validateExactMatch, DefaultAnswer: json.RawMessage(`null`)},
	"true_false":               {Validate: validateExactMatch, DefaultAnswer: json.RawMessage(`null`)},
	"trend_item":               {Validate: validateExactMatch, DefaultAnswer: json.RawMessage(`null`)},
	"sata":                     {Validate: validateSetMatch, DefaultAnswer: json.RawMessage(`[]`)},
	"select_n":                 {Validate: validateSetMatch, DefaultAnswer: json.RawMessage(`[]`)},
	"highlight_text":           {Validate: validateSetMatch, DefaultAnswer: json.RawMessage(`[]`)},
	"ordering":                 {Validate: validateOrdering, DefaultAnswer: json.RawMessage(`[]`)},
	"dosage_calculation":       {Validate: validateDosage, DefaultAnswer: json.RawMessage(`null`)},
	"bowtie":                   {Validate: validateBowtie, DefaultAnswer: json.RawMessage(`{}`)},
	"extended_drag_drop":       {Validate: validateMapping, DefaultAnswer: json.RawMessage(`{}`)},
	"cloze_dropdown":           {Validate: validateMapping, DefaultAnswer: json.RawMessage(`{}`)},
	"matrix_multiple_response": {Validate: validateMatrix, DefaultAnswer: json.RawMessage(`{}`)},
}

// Resolve 查找题型注册项，未注册时返回 ErrUnknownQuestionType
func Resolve(typeTag string) (Entry, error) {
	e, ok := registry[typeTag]
	if !ok {
		return Entry{}, ErrUnknownQuestionType
	}
	return e, nil
}

// Validate 按题型分发校验
func Validate(typeTag string, userAnswer, correctAnswer, options json.RawMessage) (Verdict, error) {
	e, err := Resolve(typeTag)
	if err != nil {
		return Verdict{}, err
	}
	return e.Validate(userAnswer, correctAnswer, options), nil
}

// Points 按得分比例折算分数，四舍五入取整（round-half-up），避免系统性压分
func Points(fraction float64, maxPoints int) int {
	if fraction <= 0 || maxPoints <= 0 {
		return 0
	}
	if fraction > 1 {
		fraction = 1
	}
	return int(math.Floor(fraction*float64(maxPoints) + 0.5))
}

// verdictFor 根据正确占比生成判定。部分得分只出现在 0 与 1 之间。
func verdictFor(fraction float64) Verdict {
	switch {
	case fraction >= 1:
		return Verdict{IsCorrect: true, Fraction: 1}
	case fraction <= 0:
		return Verdict{Fraction: 0}
	default:
		return Verdict{IsPartiallyCorrect: true, Fraction: fraction}
	}
}

var incorrect = Verdict{}
