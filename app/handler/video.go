package handler

import (
	"kling-studio/app/kling"
	"kling-studio/app/logger"
	"kling-studio/app/middleware"
	"kling-studio/app/model"
	"kling-studio/app/service"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

const pageTitle = "可灵 AI 视频生成"

// VideoHandler 视频生成处理器
type VideoHandler struct {
	service       *service.GenerationService
	logger        *logger.Logger
	hasCredential bool
}

// NewVideoHandler 创建视频生成处理器
func NewVideoHandler(svc *service.GenerationService, log *logger.Logger, hasCredential bool) *VideoHandler {
	return &VideoHandler{
		service:       svc,
		logger:        log,
		hasCredential: hasCredential,
	}
}

// GenerateForm 页面表单
type GenerateForm struct {
	Prompt      string `form:"prompt" json:"prompt"`
	Duration    string `form:"duration" json:"duration"`
	AspectRatio string `form:"aspect_ratio" json:"aspect_ratio"`
}

// GenerateResponse 生成接口响应
type GenerateResponse struct {
	TaskID   string `json:"task_id"`
	Status   string `json:"status"`
	VideoURL string `json:"video_url"`
	Polls    int    `json:"polls"`
}

// pageData 首页渲染数据
type pageData struct {
	Title         string
	Username      string
	HasCredential bool
	Durations     []kling.Duration
	AspectRatios  []kling.AspectRatio
	Form          GenerateForm
	Result        *model.VideoGeneration
	Error         string
	History       []model.VideoGeneration
}

func (h *VideoHandler) newPage(c *gin.Context) pageData {
	history, err := h.service.Recent(10)
	if err != nil {
		h.logger.Errorf("读取生成记录失败: %v", err)
	}
	return pageData{
		Title:         pageTitle,
		Username:      c.GetString("username"),
		HasCredential: h.hasCredential,
		Durations:     kling.Durations(),
		AspectRatios:  kling.AspectRatios(),
		Form: GenerateForm{
			Duration:    string(kling.DefaultDuration),
			AspectRatio: string(kling.DefaultAspectRatio),
		},
		History: history,
	}
}

// Index 生成页面
func (h *VideoHandler) Index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", h.newPage(c))
}

// GeneratePage 表单提交，阻塞直到视频生成结束后渲染结果
func (h *VideoHandler) GeneratePage(c *gin.Context) {
	var form GenerateForm
	if err := c.ShouldBind(&form); err != nil {
		page := h.newPage(c)
		page.Error = "请求参数错误: " + err.Error()
		c.HTML(http.StatusBadRequest, "index.html", page)
		return
	}

	record, err := h.service.Generate(c.Request.Context(), service.GenerateInput{
		Prompt:      form.Prompt,
		Duration:    form.Duration,
		AspectRatio: form.AspectRatio,
		RequestID:   middleware.GetRequestID(c),
		Source:      model.SourceWeb,
	})

	page := h.newPage(c)
	page.Form = form
	if err != nil {
		status, _, msg := describeError(err)
		page.Error = msg
		c.HTML(status, "index.html", page)
		return
	}

	page.Result = record
	c.HTML(http.StatusOK, "index.html", page)
}

// CreateVideo JSON 接口，阻塞直到视频生成结束
func (h *VideoHandler) CreateVideo(c *gin.Context) {
	var req GenerateForm
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, 400, "请求参数错误: "+err.Error())
		return
	}

	record, err := h.service.Generate(c.Request.Context(), service.GenerateInput{
		Prompt:      req.Prompt,
		Duration:    req.Duration,
		AspectRatio: req.AspectRatio,
		RequestID:   middleware.GetRequestID(c),
		Source:      model.SourceAPI,
	})
	if err != nil {
		status, code, msg := describeError(err)
		c.JSON(status, ApiResponse{
			Code:    code,
			Message: msg,
			Data:    toResponse(record),
		})
		return
	}

	success(c, toResponse(record), "视频生成成功")
}

// GetVideo 查询一次远端任务状态
func (h *VideoHandler) GetVideo(c *gin.Context) {
	result, err := h.service.Status(c.Request.Context(), c.Param("task_id"))
	if err != nil {
		status, code, msg := describeError(err)
		fail(c, status, code, msg)
		return
	}

	success(c, GenerateResponse{
		TaskID:   string(result.TaskID),
		Status:   string(result.Status),
		VideoURL: result.VideoURL,
	}, "success")
}

// History 最近的生成记录
func (h *VideoHandler) History(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	records, err := h.service.Recent(limit)
	if err != nil {
		fail(c, http.StatusInternalServerError, 500, "获取生成记录失败: "+err.Error())
		return
	}

	success(c, gin.H{
		"list":  records,
		"total": len(records),
	}, "获取生成记录成功")
}

func toResponse(record *model.VideoGeneration) *GenerateResponse {
	if record == nil {
		return nil
	}
	return &GenerateResponse{
		TaskID:   record.TaskID,
		Status:   string(record.Status),
		VideoURL: record.VideoURL,
		Polls:    record.Polls,
	}
}
