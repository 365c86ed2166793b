package controller

import (
	"encoding/json"
	"errors"

	"nurseprep_backend/internal/model"
	"nurseprep_backend/internal/service"
	"nurseprep_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AttemptController struct {
	AttemptService *service.AttemptService
}

func NewAttemptController(attemptService *service.AttemptService) *AttemptController {
	return &AttemptController{AttemptService: attemptService}
}

// attemptError 会话编排错误到 HTTP 状态码的统一映射
func attemptError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrAttemptNotFound):
		util.NotFound(ctx)
	case errors.Is(err, util.ErrQuestionNotInAttempt):
		util.Error(ctx, 404, "题目不在本次会话中")
	case errors.Is(err, util.ErrAttemptNotStarted):
		util.Error(ctx, 409, "会话尚未开始")
	case errors.Is(err, util.ErrAttemptAlreadyFinalized):
		util.Error(ctx, 409, "会话已结束")
	case errors.Is(err, util.ErrAttemptExpired):
		util.Error(ctx, 410, "会话已超时")
	case errors.Is(err, util.ErrEmptyQuestionSet):
		util.BadRequest(ctx, "没有符合条件的题目")
	case errors.Is(err, util.ErrQuestionNotFound):
		util.Error(ctx, 404, "题目不存在")
	case errors.Is(err, util.ErrPermissionDenied):
		util.Forbidden(ctx)
	default:
		util.LogInternalError(ctx, err)
	}
}

// CreateAttempt godoc
// @Summary 创建测试会话
// @Description 指定题目或按条件抽题，创建 pending 会话
// @Tags 测试会话
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   body body service.CreateAttemptRequest true "会话配置"
// @Success 201 {object} util.Response{data=model.TestAttempt} "创建成功"
// @Failure 400 {object} util.Response "请求参数错误或题目集为空"
// @Router /api/attempts [post]
func (c *AttemptController) CreateAttempt(ctx *gin.Context) {
	var req service.CreateAttemptRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	attempt, err := c.AttemptService.CreateAttempt(ctx.Request.Context(), user.UserID, req)
	if err != nil {
		attemptError(ctx, err)
		return
	}
	util.Created(ctx, attempt)
}

// StartAttempt godoc
// @Summary 开始测试会话
// @Description pending→in_progress，重复调用幂等
// @Tags 测试会话
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "会话 ID"
// @Success 200 {object} util.Response{data=service.AttemptState} "成功"
// @Failure 409 {object} util.Response "会话已结束"
// @Router /api/attempts/{id}/start [post]
func (c *AttemptController) StartAttempt(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	state, err := c.AttemptService.StartAttempt(user.UserID, util.MustParseUint(ctx.Param("id")))
	if err != nil {
		attemptError(ctx, err)
		return
	}
	util.Success(ctx, state)
}

// GetAttempt godoc
// @Summary 会话当前状态
// @Tags 测试会话
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "会话 ID"
// @Success 200 {object} util.Response{data=service.AttemptState} "成功"
// @Failure 404 {object} util.Response "会话不存在"
// @Router /api/attempts/{id} [get]
func (c *AttemptController) GetAttempt(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	state, err := c.AttemptService.GetAttempt(user.UserID, util.MustParseUint(ctx.Param("id")))
	if err != nil {
		attemptError(ctx, err)
		return
	}
	util.Success(ctx, state)
}

// ListAttempts godoc
// @Summary 当前用户的历史会话
// @Tags 测试会话
// @Produce  json
// @Security BearerAuth
// @Param   page query int false "页码"
// @Param   limit query int false "每页数量"
// @Success 200 {object} util.Response{data=util.PageResponse} "成功"
// @Router /api/attempts [get]
func (c *AttemptController) ListAttempts(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	page, limit := pagination(ctx)

	attempts, total, err := c.AttemptService.ListAttempts(user.UserID, page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: attempts, Total: total, Page: page, Limit: limit})
}

// VisitQuestion godoc
// @Summary 记录题目访问
// @Description 导航到某题时调用，unvisited→visited
// @Tags 测试会话
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "会话 ID"
// @Param   questionId path int true "题目 ID"
// @Success 200 {object} util.Response{data=model.QuestionDetail} "成功"
// @Failure 410 {object} util.Response "会话已超时"
// @Router /api/attempts/{id}/questions/{questionId}/visit [post]
func (c *AttemptController) VisitQuestion(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	detail, err := c.AttemptService.RecordVisit(user.UserID, util.MustParseUint(ctx.Param("id")), util.MustParseUint(ctx.Param("questionId")))
	if err != nil {
		attemptError(ctx, err)
		return
	}
	util.Success(ctx, detail)
}

// AnswerRequest 作答请求，answer 形状依题型
type AnswerRequest struct {
	Answer json.RawMessage `json:"answer" binding:"required"`
}

// AnswerQuestion godoc
// @Summary 提交答案
// @Description tutorial 模式立即返回判定，其余模式只确认记录
// @Tags 测试会话
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "会话 ID"
// @Param   questionId path int true "题目 ID"
// @Param   body body AnswerRequest true "答案"
// @Success 200 {object} util.Response{data=service.AnswerResult} "成功"
// @Failure 409 {object} util.Response "会话已结束"
// @Failure 410 {object} util.Response "会话已超时"
// @Router /api/attempts/{id}/questions/{questionId}/answer [post]
func (c *AttemptController) AnswerQuestion(ctx *gin.Context) {
	var req AnswerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	user := util.GetUserFromContext(ctx)
	result, err := c.AttemptService.RecordAnswer(ctx.Request.Context(), user.UserID,
		util.MustParseUint(ctx.Param("id")), util.MustParseUint(ctx.Param("questionId")), req.Answer)
	if err != nil {
		attemptError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// MarkerRequest 旗标/复查标记请求
type MarkerRequest struct {
	Value *bool `json:"value" binding:"required"`
}

// FlagQuestion godoc
// @Summary 设置/取消旗标
// @Tags 测试会话
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "会话 ID"
// @Param   questionId path int true "题目 ID"
// @Param   body body MarkerRequest true "旗标值"
// @Success 200 {object} util.Response{data=model.QuestionDetail} "成功"
// @Router /api/attempts/{id}/questions/{questionId}/flag [put]
func (c *AttemptController) FlagQuestion(ctx *gin.Context) {
	c.setMarker(ctx, c.AttemptService.SetFlag)
}

// MarkForReview godoc
// @Summary 设置/取消复查标记
// @Tags 测试会话
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "会话 ID"
// @Param   questionId path int true "题目 ID"
// @Param   body body MarkerRequest true "标记值"
// @Success 200 {object} util.Response{data=model.QuestionDetail} "成功"
// @Router /api/attempts/{id}/questions/{questionId}/review-mark [put]
func (c *AttemptController) MarkForReview(ctx *gin.Context) {
	c.setMarker(ctx, c.AttemptService.SetMarkForReview)
}

func (c *AttemptController) setMarker(ctx *gin.Context, apply func(userID, attemptID, questionID uint, value bool) (*model.QuestionDetail, error)) {
	var req MarkerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	user := util.GetUserFromContext(ctx)
	detail, err := apply(user.UserID, util.MustParseUint(ctx.Param("id")), util.MustParseUint(ctx.Param("questionId")), *req.Value)
	if err != nil {
		attemptError(ctx, err)
		return
	}
	util.Success(ctx, detail)
}

// FinishRequest 交卷请求，前端可上报实际用时
type FinishRequest struct {
	ElapsedSeconds int `json:"elapsedSeconds"`
}

// FinishAttempt godoc
// @Summary 交卷
// @Description 定稿评分并返回成绩单，重复调用返回存储结果
// @Tags 测试会话
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "会话 ID"
// @Param   body body FinishRequest false "用时上报"
// @Success 200 {object} util.Response{data=service.FinishResult} "成功"
// @Failure 409 {object} util.Response "会话已放弃"
// @Router /api/attempts/{id}/finish [post]
func (c *AttemptController) FinishAttempt(ctx *gin.Context) {
	var req FinishRequest
	_ = ctx.ShouldBindJSON(&req)

	user := util.GetUserFromContext(ctx)
	result, err := c.AttemptService.FinishAttempt(ctx.Request.Context(), user.UserID, util.MustParseUint(ctx.Param("id")), req.ElapsedSeconds)
	if err != nil {
		attemptError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// AbandonAttempt godoc
// @Summary 放弃会话
// @Description 主动退出不交卷，会话进入 abandoned 终态，重复调用幂等
// @Tags 测试会话
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "会话 ID"
// @Success 200 {object} util.Response "成功"
// @Router /api/attempts/{id}/abandon [post]
func (c *AttemptController) AbandonAttempt(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if err := c.AttemptService.ForceAbandon(user.UserID, util.MustParseUint(ctx.Param("id"))); err != nil {
		attemptError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// ReviewResponse 复盘响应
type ReviewResponse struct {
	Attempt   interface{}              `json:"attempt"`
	Questions []service.ReviewQuestion `json:"questions"`
}

// ReviewAttempt godoc
// @Summary 逐题复盘
// @Description 仅 completed 会话可复盘，携带正确答案与解析
// @Tags 测试会话
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "会话 ID"
// @Success 200 {object} util.Response{data=ReviewResponse} "成功"
// @Failure 403 {object} util.Response "会话未完成"
// @Router /api/attempts/{id}/review [get]
func (c *AttemptController) ReviewAttempt(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	attempt, questions, err := c.AttemptService.GetReview(ctx.Request.Context(), user.UserID, util.MustParseUint(ctx.Param("id")))
	if err != nil {
		attemptError(ctx, err)
		return
	}
	util.Success(ctx, ReviewResponse{Attempt: attempt, Questions: questions})
}
