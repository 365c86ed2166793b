package controller

import (
	"errors"
	"strconv"

	"nurseprep_backend/internal/model"
	"nurseprep_backend/internal/repository"
	"nurseprep_backend/internal/scoring"
	"nurseprep_backend/internal/service"
	"nurseprep_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type QBankController struct {
	QBankService *service.QBankService
}

func NewQBankController(qbankService *service.QBankService) *QBankController {
	return &QBankController{QBankService: qbankService}
}

func qbankError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrQBankNotFound), errors.Is(err, util.ErrQuestionNotFound):
		util.NotFound(ctx)
	case errors.Is(err, scoring.ErrUnknownQuestionType):
		util.BadRequest(ctx, "不支持的题型")
	case errors.Is(err, util.ErrInvalidDifficulty):
		util.BadRequest(ctx, "难度取值无效")
	default:
		util.LogInternalError(ctx, err)
	}
}

func pagination(ctx *gin.Context) (int, int) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}

// ListQBanks godoc
// @Summary 已发布题库列表
// @Tags 题库
// @Produce  json
// @Security BearerAuth
// @Param   page query int false "页码"
// @Param   limit query int false "每页数量"
// @Success 200 {object} util.Response{data=util.PageResponse} "成功"
// @Router /api/qbanks [get]
func (c *QBankController) ListQBanks(ctx *gin.Context) {
	page, limit := pagination(ctx)
	qbanks, total, err := c.QBankService.ListQBanks(page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: qbanks, Total: total, Page: page, Limit: limit})
}

// GetQBank godoc
// @Summary 题库详情
// @Tags 题库
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "题库 ID"
// @Success 200 {object} util.Response{data=model.QBank} "成功"
// @Failure 404 {object} util.Response "题库不存在"
// @Router /api/qbanks/{id} [get]
func (c *QBankController) GetQBank(ctx *gin.Context) {
	qb, err := c.QBankService.GetQBank(util.MustParseUint(ctx.Param("id")))
	if err != nil {
		qbankError(ctx, err)
		return
	}
	util.Success(ctx, qb)
}

// QBankRequest 题库创建/更新请求
type QBankRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Category    string `json:"category"`
	IsPublished bool   `json:"isPublished"`
}

// CreateQBank godoc
// @Summary 创建题库
// @Tags 题库
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   body body QBankRequest true "题库信息"
// @Success 201 {object} util.Response{data=model.QBank} "创建成功"
// @Router /api/qbanks [post]
func (c *QBankController) CreateQBank(ctx *gin.Context) {
	var req QBankRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	qb := &model.QBank{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		IsPublished: req.IsPublished,
	}
	if err := c.QBankService.CreateQBank(qb); err != nil {
		qbankError(ctx, err)
		return
	}
	util.Created(ctx, qb)
}

// UpdateQBank godoc
// @Summary 更新题库
// @Tags 题库
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "题库 ID"
// @Param   body body QBankRequest true "题库信息"
// @Success 200 {object} util.Response{data=model.QBank} "成功"
// @Failure 404 {object} util.Response "题库不存在"
// @Router /api/qbanks/{id} [put]
func (c *QBankController) UpdateQBank(ctx *gin.Context) {
	var req QBankRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	qb, err := c.QBankService.GetQBank(util.MustParseUint(ctx.Param("id")))
	if err != nil {
		qbankError(ctx, err)
		return
	}
	qb.Name = req.Name
	qb.Description = req.Description
	qb.Category = req.Category
	qb.IsPublished = req.IsPublished

	if err := c.QBankService.UpdateQBank(qb); err != nil {
		qbankError(ctx, err)
		return
	}
	util.Success(ctx, qb)
}

// QuestionSummary 学生侧题目视图。浏览接口对学生开放，
// 正确答案与解析只能经完成后的复盘接口获取，这里一律不下发。
type QuestionSummary struct {
	ID           uint   `json:"id"`
	QBankID      uint   `json:"qbankId"`
	QuestionType string `json:"questionType"`
	Stem         string `json:"stem"`
	Options      string `json:"options"`
	Subject      string `json:"subject"`
	Difficulty   string `json:"difficulty"`
	Points       int    `json:"points"`
}

func questionSummaries(questions []model.Question) []QuestionSummary {
	out := make([]QuestionSummary, 0, len(questions))
	for _, q := range questions {
		out = append(out, QuestionSummary{
			ID:           q.ID,
			QBankID:      q.QBankID,
			QuestionType: q.QuestionType,
			Stem:         q.Stem,
			Options:      q.Options,
			Subject:      q.Subject,
			Difficulty:   q.Difficulty,
			Points:       q.Points,
		})
	}
	return out
}

// ListQuestions godoc
// @Summary 题目列表
// @Description 按题库/学科/难度/题型筛选，不含答案与解析
// @Tags 题库
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "题库 ID"
// @Param   subject query string false "学科"
// @Param   difficulty query string false "难度"
// @Param   questionType query string false "题型"
// @Success 200 {object} util.Response{data=util.PageResponse} "成功"
// @Router /api/qbanks/{id}/questions [get]
func (c *QBankController) ListQuestions(ctx *gin.Context) {
	page, limit := pagination(ctx)
	f := repository.QuestionFilter{
		QBankID:      util.MustParseUint(ctx.Param("id")),
		Subject:      ctx.Query("subject"),
		Difficulty:   ctx.Query("difficulty"),
		QuestionType: ctx.Query("questionType"),
	}
	questions, total, err := c.QBankService.ListQuestions(f, page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: questionSummaries(questions), Total: total, Page: page, Limit: limit})
}

// QuestionRequest 题目创建/更新请求
type QuestionRequest struct {
	QuestionType  string `json:"questionType" binding:"required"`
	Stem          string `json:"stem" binding:"required"`
	Options       string `json:"options"`
	CorrectAnswer string `json:"correctAnswer" binding:"required"`
	Explanation   string `json:"explanation"`
	Subject       string `json:"subject"`
	Difficulty    string `json:"difficulty"`
	Points        int    `json:"points"`
	IsActive      *bool  `json:"isActive"`
}

// CreateQuestion godoc
// @Summary 新增题目
// @Description 题型必须是注册过的标签，否则拒绝入库
// @Tags 题库
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "题库 ID"
// @Param   body body QuestionRequest true "题目信息"
// @Success 201 {object} util.Response{data=model.Question} "创建成功"
// @Failure 400 {object} util.Response "不支持的题型"
// @Router /api/qbanks/{id}/questions [post]
func (c *QBankController) CreateQuestion(ctx *gin.Context) {
	var req QuestionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	q := &model.Question{
		QBankID:       util.MustParseUint(ctx.Param("id")),
		QuestionType:  req.QuestionType,
		Stem:          req.Stem,
		Options:       req.Options,
		CorrectAnswer: req.CorrectAnswer,
		Explanation:   req.Explanation,
		Subject:       req.Subject,
		Difficulty:    req.Difficulty,
		Points:        req.Points,
		IsActive:      true,
	}
	if req.IsActive != nil {
		q.IsActive = *req.IsActive
	}
	if err := c.QBankService.CreateQuestion(q); err != nil {
		qbankError(ctx, err)
		return
	}
	util.Created(ctx, q)
}

// UpdateQuestion godoc
// @Summary 更新题目
// @Description 更新后失效缓存，题型/难度校验同新增
// @Tags 题库
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "题目 ID"
// @Param   body body QuestionRequest true "题目信息"
// @Success 200 {object} util.Response{data=model.Question} "成功"
// @Failure 404 {object} util.Response "题目不存在"
// @Router /api/questions/{id} [put]
func (c *QBankController) UpdateQuestion(ctx *gin.Context) {
	var req QuestionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	q, err := c.QBankService.GetQuestion(util.MustParseUint(ctx.Param("id")))
	if err != nil {
		qbankError(ctx, err)
		return
	}
	q.QuestionType = req.QuestionType
	q.Stem = req.Stem
	q.Options = req.Options
	q.CorrectAnswer = req.CorrectAnswer
	q.Explanation = req.Explanation
	q.Subject = req.Subject
	q.Difficulty = req.Difficulty
	q.Points = req.Points
	if req.IsActive != nil {
		q.IsActive = *req.IsActive
	}

	if err := c.QBankService.UpdateQuestion(ctx.Request.Context(), q); err != nil {
		qbankError(ctx, err)
		return
	}
	util.Success(ctx, q)
}

// GetStats godoc
// @Summary 题库统计
// @Description 完成会话数、平均分、平均用时、通过率
// @Tags 题库
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "题库 ID"
// @Success 200 {object} util.Response{data=repository.QBankStats} "成功"
// @Failure 404 {object} util.Response "题库不存在"
// @Router /api/qbanks/{id}/stats [get]
func (c *QBankController) GetStats(ctx *gin.Context) {
	stats, err := c.QBankService.GetStats(util.MustParseUint(ctx.Param("id")))
	if err != nil {
		qbankError(ctx, err)
		return
	}
	util.Success(ctx, stats)
}
