package kling

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DownloadVideo 将生成好的视频保存到本地文件，返回写入字节数。
// 视频地址是公开的 CDN 链接，不携带 API 密钥。
// 下载不受 Options.Timeout 限制，只由 ctx 控制。
func (c *Client) DownloadVideo(ctx context.Context, videoURL, savePath string) (int64, error) {
	if strings.TrimSpace(videoURL) == "" {
		return 0, fmt.Errorf("%w: 视频地址为空", ErrInvalidOption)
	}

	if dir := filepath.Dir(savePath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return 0, fmt.Errorf("创建目录失败: %w", err)
		}
	}

	tmpPath := savePath + ".part"
	resp, err := c.client.R().
		SetContext(ctx).
		SetTimeout(0).
		SetOutputFileName(tmpPath).
		Get(videoURL)
	if err != nil {
		_ = os.Remove(tmpPath)
		return 0, &RequestError{Op: opDownload, Err: err}
	}

	if !resp.IsSuccess() {
		_ = os.Remove(tmpPath)
		return 0, &RequestError{Op: opDownload, StatusCode: resp.StatusCode(), Message: resp.Status()}
	}

	if err := os.Rename(tmpPath, savePath); err != nil {
		_ = os.Remove(tmpPath)
		return 0, fmt.Errorf("保存视频失败: %w", err)
	}

	return resp.Size(), nil
}

// Generate 提交任务并等待完成
func Generate(ctx context.Context, g Generator, req SubmitRequest, opts WaitOptions) (*TaskResult, error) {
	taskID, err := g.Submit(ctx, req)
	if err != nil {
		return nil, err
	}

	videoURL, err := WaitForCompletion(ctx, g, taskID, opts)
	if err != nil {
		res := &TaskResult{TaskID: taskID, StatusMessage: err.Error()}
		var jobErr *JobFailedError
		if errors.As(err, &jobErr) {
			res.Status = StatusFailed
			res.StatusMessage = jobErr.Message
		}
		return res, err
	}

	return &TaskResult{TaskID: taskID, Status: StatusSucceed, VideoURL: videoURL}, nil
}
