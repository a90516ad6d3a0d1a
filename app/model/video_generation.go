package model

import (
	"time"
)

// GenerationStatus 生成记录状态
type GenerationStatus string

const (
	GenerationStatusSubmitting GenerationStatus = "submitting" // 提交中
	GenerationStatusProcessing GenerationStatus = "processing" // 远端生成中
	GenerationStatusSucceed    GenerationStatus = "succeed"    // 成功
	GenerationStatusFailed     GenerationStatus = "failed"     // 失败
	GenerationStatusAbandoned  GenerationStatus = "abandoned"  // 本地停止等待，远端任务可能仍在运行
)

// 记录来源
const (
	SourceWeb = "web"
	SourceAPI = "api"
)

// VideoGeneration 视频生成记录，仅用于展示历史，不参与任务轮询
type VideoGeneration struct {
	ID          uint             `json:"id" gorm:"primarykey"`
	RequestID   string           `json:"request_id" gorm:"size:64;index;comment:请求ID"`
	TaskID      string           `json:"task_id" gorm:"size:128;index;comment:远端任务ID"`
	Prompt      string           `json:"prompt" gorm:"type:text;not null;comment:提示词"`
	Duration    string           `json:"duration" gorm:"size:4;comment:时长(秒)"`
	AspectRatio string           `json:"aspect_ratio" gorm:"size:8;comment:画面比例"`
	Model       string           `json:"model" gorm:"size:64;comment:模型"`
	Source      string           `json:"source" gorm:"size:8;comment:来源"`
	Status      GenerationStatus `json:"status" gorm:"size:20;default:submitting;index;comment:状态"`
	VideoURL    string           `json:"video_url" gorm:"type:text;comment:视频地址"`
	ErrorMsg    string           `json:"error_msg" gorm:"type:text;comment:错误信息"`
	Polls       int              `json:"polls" gorm:"default:0;comment:查询次数"`
	CreatedAt   time.Time        `json:"created_at" gorm:"index"`
	UpdatedAt   time.Time        `json:"updated_at"`
	CompletedAt *time.Time       `json:"completed_at"`
}

// TableName 指定表名
func (VideoGeneration) TableName() string {
	return "video_generations"
}

// SetProcessing 已拿到远端任务ID
func (g *VideoGeneration) SetProcessing(taskID string) {
	g.TaskID = taskID
	g.Status = GenerationStatusProcessing
}

// SetSucceed 设置为成功状态
func (g *VideoGeneration) SetSucceed(videoURL string) {
	now := time.Now()
	g.Status = GenerationStatusSucceed
	g.VideoURL = videoURL
	g.ErrorMsg = ""
	g.CompletedAt = &now
}

// SetFailed 设置为失败状态
func (g *VideoGeneration) SetFailed(err error) {
	now := time.Now()
	g.Status = GenerationStatusFailed
	if err != nil {
		g.ErrorMsg = err.Error()
	}
	g.CompletedAt = &now
}

// SetAbandoned 超时或请求取消后不再等待，保留任务ID以便之后手动查询
func (g *VideoGeneration) SetAbandoned(err error) {
	g.Status = GenerationStatusAbandoned
	if err != nil {
		g.ErrorMsg = err.Error()
	}
}
