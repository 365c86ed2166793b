package controller

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"nurseprep_backend/internal/model"
	"nurseprep_backend/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listingQuestions() []model.Question {
	return []model.Question{
		{
			BaseModel:     model.BaseModel{ID: 101},
			QBankID:       1,
			QuestionType:  model.TypeMultipleChoice,
			Stem:          "胰岛素过量最先出现的症状是？",
			Options:       `{"a":"多尿","b":"出汗心悸","c":"皮肤干燥","d":"口渴"}`,
			CorrectAnswer: `"b"`,
			Explanation:   "低血糖早期表现为交感神经兴奋症状。",
			Subject:       "endocrine",
			Difficulty:    util.DifficultyMedium,
			Points:        1,
		},
		{
			BaseModel:     model.BaseModel{ID: 102},
			QBankID:       1,
			QuestionType:  model.TypeSATA,
			Stem:          "下列哪些属于洋地黄中毒表现？",
			Options:       `{"a":"黄视","b":"心动过速","c":"恶心呕吐","d":"高血钾"}`,
			CorrectAnswer: `["a","c"]`,
			Explanation:   "黄视与胃肠道反应是典型中毒征象。",
			Subject:       "cardiac",
			Difficulty:    util.DifficultyHard,
			Points:        2,
		},
	}
}

// 题目浏览对学生开放，响应里绝不能出现正确答案或解析。
func TestListQuestionsResponseOmitsAnswerKey(t *testing.T) {
	gin.SetMode(gin.TestMode)

	questions := listingQuestions()
	router := gin.New()
	router.GET("/api/qbanks/:id/questions", func(ctx *gin.Context) {
		util.Success(ctx, util.PageResponse{List: questionSummaries(questions), Total: 2, Page: 1, Limit: 20})
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/qbanks/1/questions", nil))
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, "胰岛素过量最先出现的症状是？")
	assert.Contains(t, body, `"options"`)

	assert.NotContains(t, body, "correctAnswer")
	assert.NotContains(t, body, "explanation")
	assert.NotContains(t, body, "交感神经兴奋")
	assert.NotContains(t, body, `["a","c"]`)
}

func TestQuestionSummariesKeepStudentFields(t *testing.T) {
	summaries := questionSummaries(listingQuestions())
	require.Len(t, summaries, 2)

	assert.Equal(t, uint(101), summaries[0].ID)
	assert.Equal(t, model.TypeMultipleChoice, summaries[0].QuestionType)
	assert.Equal(t, "endocrine", summaries[0].Subject)
	assert.Equal(t, 2, summaries[1].Points)
	assert.NotEmpty(t, summaries[1].Options)
}
