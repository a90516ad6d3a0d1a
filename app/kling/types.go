package kling

import (
	"fmt"
	"strings"
)

// TaskID 远端服务分配的任务标识
type TaskID string

// TaskStatus 远端服务上报的任务状态
type TaskStatus string

const (
	StatusSubmitted  TaskStatus = "submitted"  // 已提交
	StatusProcessing TaskStatus = "processing" // 生成中
	StatusSucceed    TaskStatus = "succeed"    // 成功
	StatusFailed     TaskStatus = "failed"     // 失败
)

// IsTerminal 是否为终态，未知状态按非终态处理
func (s TaskStatus) IsTerminal() bool {
	return s == StatusSucceed || s == StatusFailed
}

// Duration 视频时长（秒），接口要求以字符串传递
type Duration string

const (
	Duration5  Duration = "5"
	Duration10 Duration = "10"
)

// AspectRatio 视频画面比例
type AspectRatio string

const (
	AspectRatio16x9 AspectRatio = "16:9"
	AspectRatio9x16 AspectRatio = "9:16"
	AspectRatio1x1  AspectRatio = "1:1"
)

const (
	DefaultModel       = "kling-v1"
	DefaultDuration    = Duration5
	DefaultAspectRatio = AspectRatio16x9
)

// Durations 返回所有可选时长，顺序即界面展示顺序
func Durations() []Duration {
	return []Duration{Duration5, Duration10}
}

// AspectRatios 返回所有可选画面比例
func AspectRatios() []AspectRatio {
	return []AspectRatio{AspectRatio16x9, AspectRatio9x16, AspectRatio1x1}
}

// ParseDuration 解析时长，空字符串返回默认值
func ParseDuration(s string) (Duration, error) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "s"))
	if s == "" {
		return DefaultDuration, nil
	}
	for _, d := range Durations() {
		if string(d) == s {
			return d, nil
		}
	}
	return "", fmt.Errorf("%w: 时长 %q 仅支持 5 或 10", ErrInvalidOption, s)
}

// ParseAspectRatio 解析画面比例，空字符串返回默认值
func ParseAspectRatio(s string) (AspectRatio, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultAspectRatio, nil
	}
	for _, ar := range AspectRatios() {
		if string(ar) == s {
			return ar, nil
		}
	}
	return "", fmt.Errorf("%w: 画面比例 %q 仅支持 16:9、9:16、1:1", ErrInvalidOption, s)
}

// SubmitRequest 文生视频提交参数
type SubmitRequest struct {
	Prompt      string
	Duration    Duration
	AspectRatio AspectRatio
	Model       string
}

// WithDefaults 补全未填写的可选参数
func (r SubmitRequest) WithDefaults() SubmitRequest {
	r.Prompt = strings.TrimSpace(r.Prompt)
	if r.Duration == "" {
		r.Duration = DefaultDuration
	}
	if r.AspectRatio == "" {
		r.AspectRatio = DefaultAspectRatio
	}
	if strings.TrimSpace(r.Model) == "" {
		r.Model = DefaultModel
	}
	return r
}

// Validate 校验提交参数
func (r SubmitRequest) Validate() error {
	if strings.TrimSpace(r.Prompt) == "" {
		return ErrEmptyPrompt
	}
	if _, err := ParseDuration(string(r.Duration)); err != nil {
		return err
	}
	if _, err := ParseAspectRatio(string(r.AspectRatio)); err != nil {
		return err
	}
	return nil
}

// TaskResult 单次状态查询的结果
type TaskResult struct {
	TaskID        TaskID
	Status        TaskStatus
	StatusMessage string
	VideoURL      string
}
