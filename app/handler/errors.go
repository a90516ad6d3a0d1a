package handler

import (
	"context"
	"errors"
	"kling-studio/app/kling"
	"net/http"
)

// describeError 把生成过程中的错误映射为 HTTP 状态码、业务码和用户可读的提示
func describeError(err error) (int, int, string) {
	var (
		authErr   *kling.AuthError
		reqErr    *kling.RequestError
		formatErr *kling.ResponseFormatError
		jobErr    *kling.JobFailedError
	)

	switch {
	case errors.Is(err, kling.ErrMissingAPIKey):
		return http.StatusServiceUnavailable, 1001, "未设置 API 密钥，请在配置文件或环境变量 KLING_API_KEY 中设置"
	case errors.As(err, &authErr):
		return http.StatusBadGateway, 1002, "API 密钥被拒绝: " + authErr.Message
	case errors.Is(err, kling.ErrEmptyPrompt):
		return http.StatusBadRequest, 400, "请填写视频描述"
	case errors.Is(err, kling.ErrInvalidOption), errors.Is(err, kling.ErrEmptyTaskID):
		return http.StatusBadRequest, 400, err.Error()
	case errors.As(err, &jobErr):
		return http.StatusUnprocessableEntity, 1003, jobErr.Error()
	case errors.Is(err, kling.ErrWaitTimeout):
		return http.StatusGatewayTimeout, 1004, err.Error()
	case errors.As(err, &formatErr):
		return http.StatusBadGateway, 1005, "视频服务返回了无法识别的响应: " + formatErr.Error()
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, 1006, "请求已取消"
	case errors.As(err, &reqErr):
		return http.StatusBadGateway, 1006, "请求视频服务失败: " + reqErr.Error()
	default:
		return http.StatusInternalServerError, 500, "错误: " + err.Error()
	}
}
