package service

import (
	"context"
	"errors"
	"kling-studio/app/config"
	"kling-studio/app/kling"
	"kling-studio/app/logger"
	"kling-studio/app/model"

	"gorm.io/gorm"
)

// GenerateInput 一次生成请求
type GenerateInput struct {
	Prompt      string
	Duration    string
	AspectRatio string
	RequestID   string
	Source      string
}

// GenerationService 提交任务、阻塞等待结果，并写入生成记录
type GenerationService struct {
	generator kling.Generator
	db        *gorm.DB // 为 nil 时不记录历史
	log       *logger.Logger
	model     string
	wait      kling.WaitOptions
}

// NewGenerationService 创建生成服务
func NewGenerationService(gen kling.Generator, db *gorm.DB, cfg *config.Config, log *logger.Logger) *GenerationService {
	return &GenerationService{
		generator: gen,
		db:        db,
		log:       log,
		model:     cfg.Kling.Model,
		wait: kling.WaitOptions{
			Interval: cfg.Kling.PollInterval,
			Timeout:  cfg.Kling.WaitTimeout,
		},
	}
}

// BuildRequest 解析表单或接口传入的参数
func (s *GenerationService) BuildRequest(in GenerateInput) (kling.SubmitRequest, error) {
	duration, err := kling.ParseDuration(in.Duration)
	if err != nil {
		return kling.SubmitRequest{}, err
	}
	ratio, err := kling.ParseAspectRatio(in.AspectRatio)
	if err != nil {
		return kling.SubmitRequest{}, err
	}
	return kling.SubmitRequest{
		Prompt:      in.Prompt,
		Duration:    duration,
		AspectRatio: ratio,
		Model:       s.model,
	}.WithDefaults(), nil
}

// Generate 提交任务并等待完成。返回的记录在出错时也不为 nil，便于页面展示。
func (s *GenerationService) Generate(ctx context.Context, in GenerateInput) (*model.VideoGeneration, error) {
	record := &model.VideoGeneration{
		RequestID:   in.RequestID,
		Prompt:      in.Prompt,
		Duration:    in.Duration,
		AspectRatio: in.AspectRatio,
		Model:       s.model,
		Source:      in.Source,
		Status:      model.GenerationStatusSubmitting,
	}

	req, err := s.BuildRequest(in)
	if err != nil {
		record.SetFailed(err)
		return record, err
	}
	record.Prompt = req.Prompt
	record.Duration = string(req.Duration)
	record.AspectRatio = string(req.AspectRatio)
	record.Model = req.Model

	taskID, err := s.generator.Submit(ctx, req)
	if err != nil {
		s.log.Warnf("提交视频任务失败: request_id=%s, 错误: %v", in.RequestID, err)
		record.SetFailed(err)
		s.save(record)
		return record, err
	}

	record.SetProcessing(string(taskID))
	s.save(record)
	s.log.Infof("视频任务已创建: task_id=%s, duration=%s, aspect_ratio=%s", taskID, req.Duration, req.AspectRatio)

	opts := s.wait
	opts.OnPoll = func(attempt int, res *kling.TaskResult) {
		record.Polls = attempt
		s.log.Debugf("查询任务状态: task_id=%s, 第 %d 次, 状态=%s", taskID, attempt, res.Status)
	}

	videoURL, err := kling.WaitForCompletion(ctx, s.generator, taskID, opts)
	if err != nil {
		var jobErr *kling.JobFailedError
		switch {
		case errors.As(err, &jobErr):
			s.log.Warnf("视频生成失败: task_id=%s, 原因: %s", taskID, jobErr.Message)
			record.SetFailed(err)
		case stoppedWaiting(err):
			s.log.Warnf("停止等待视频任务: task_id=%s, 原因: %v", taskID, err)
			record.SetAbandoned(err)
		default:
			s.log.Errorf("等待视频生成出错: task_id=%s, 错误: %v", taskID, err)
			record.SetFailed(err)
		}
		s.save(record)
		return record, err
	}

	record.SetSucceed(videoURL)
	s.save(record)
	s.log.Infof("视频生成完成: task_id=%s, 查询 %d 次", taskID, record.Polls)

	return record, nil
}

// Status 单次查询远端任务状态
func (s *GenerationService) Status(ctx context.Context, taskID string) (*kling.TaskResult, error) {
	return s.generator.PollStatus(ctx, kling.TaskID(taskID))
}

// Recent 最近的生成记录，未启用历史时返回空列表
func (s *GenerationService) Recent(limit int) ([]model.VideoGeneration, error) {
	if s.db == nil {
		return []model.VideoGeneration{}, nil
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var records []model.VideoGeneration
	if err := s.db.Order("created_at DESC").Limit(limit).Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// stoppedWaiting 本地超时或请求被取消，远端任务的结果未知
func stoppedWaiting(err error) bool {
	return errors.Is(err, kling.ErrWaitTimeout) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// save 写入记录失败只记日志，不影响生成结果
func (s *GenerationService) save(record *model.VideoGeneration) {
	if s.db == nil {
		return
	}
	if err := s.db.Save(record).Error; err != nil {
		s.log.Errorf("保存生成记录失败: task_id=%s, 错误: %v", record.TaskID, err)
	}
}
