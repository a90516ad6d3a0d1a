package service

import (
	"fmt"
	"kling-studio/app/logger"
	"kling-studio/app/model"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// HistoryCleanupService 按 cron 表达式定期删除过期的生成记录
type HistoryCleanupService struct {
	db        *gorm.DB
	log       *logger.Logger
	cron      *cron.Cron
	spec      string
	retention time.Duration
}

// NewHistoryCleanupService 创建清理服务
func NewHistoryCleanupService(db *gorm.DB, log *logger.Logger, spec string, retentionDays int) *HistoryCleanupService {
	return &HistoryCleanupService{
		db:        db,
		log:       log,
		cron:      cron.New(),
		spec:      spec,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
	}
}

// Start 注册定时任务并启动，启动时先清理一次
func (s *HistoryCleanupService) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.run); err != nil {
		return fmt.Errorf("无效的清理计划 %q: %w", s.spec, err)
	}

	s.run()
	s.cron.Start()
	s.log.Infof("生成记录清理服务已启动: %s, 保留 %s", s.spec, s.retention)
	return nil
}

// Stop 停止定时任务并等待正在执行的清理结束
func (s *HistoryCleanupService) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("生成记录清理服务已停止")
}

func (s *HistoryCleanupService) run() {
	if _, err := s.Cleanup(time.Now()); err != nil {
		s.log.Errorf("清理生成记录失败: %v", err)
	}
}

// Cleanup 删除 now 之前超过保留期的记录，返回删除条数
func (s *HistoryCleanupService) Cleanup(now time.Time) (int64, error) {
	cutoff := now.Add(-s.retention)

	result := s.db.Where("created_at < ?", cutoff).Delete(&model.VideoGeneration{})
	if result.Error != nil {
		return 0, result.Error
	}

	if result.RowsAffected > 0 {
		s.log.Infof("清理了 %d 条生成记录（早于 %s）", result.RowsAffected, cutoff.Format("2006-01-02 15:04:05"))
	}
	return result.RowsAffected, nil
}
