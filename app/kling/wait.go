package kling

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultPollInterval 两次状态查询之间的间隔
const DefaultPollInterval = 8 * time.Second

// Poller 查询任务状态
type Poller interface {
	PollStatus(ctx context.Context, taskID TaskID) (*TaskResult, error)
}

// WaitOptions 轮询参数
type WaitOptions struct {
	Interval time.Duration // <= 0 时使用 DefaultPollInterval
	Timeout  time.Duration // 0 表示不限时
	// OnPoll 每次查询成功后回调，attempt 从 1 开始
	OnPoll func(attempt int, result *TaskResult)
}

// WaitForCompletion 立即查询一次，之后按固定间隔查询，直到 succeed 返回视频地址，
// 或 failed 返回 *JobFailedError。查询出错时直接返回，不重试。
func WaitForCompletion(ctx context.Context, p Poller, taskID TaskID, opts WaitOptions) (string, error) {
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	waitCtx := ctx
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	timer := time.NewTimer(interval)
	defer timer.Stop()

	for attempt := 1; ; attempt++ {
		result, err := p.PollStatus(waitCtx, taskID)
		if err != nil {
			if timedOut(ctx, waitCtx) {
				return "", timeoutError(taskID, attempt, opts.Timeout)
			}
			return "", err
		}

		if opts.OnPoll != nil {
			opts.OnPoll(attempt, result)
		}

		switch result.Status {
		case StatusSucceed:
			if result.VideoURL == "" {
				return "", &ResponseFormatError{Op: opQuery, Field: "data.video"}
			}
			return result.VideoURL, nil
		case StatusFailed:
			return "", &JobFailedError{TaskID: taskID, Message: result.StatusMessage}
		}

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(interval)

		select {
		case <-waitCtx.Done():
			if timedOut(ctx, waitCtx) {
				return "", timeoutError(taskID, attempt, opts.Timeout)
			}
			return "", waitCtx.Err()
		case <-timer.C:
		}
	}
}

// timedOut 区分轮询自身超时和调用方取消
func timedOut(parent, waitCtx context.Context) bool {
	return parent.Err() == nil && errors.Is(waitCtx.Err(), context.DeadlineExceeded)
}

func timeoutError(taskID TaskID, attempts int, timeout time.Duration) error {
	return fmt.Errorf("%w: 任务 %s, 已查询 %d 次, 超时时间 %s", ErrWaitTimeout, taskID, attempts, timeout)
}
