package kling

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

var (
	// ErrAuth 凭证缺失或被远端拒绝，可用 errors.Is 匹配所有 *AuthError
	ErrAuth = errors.New("认证失败")
	// ErrMissingAPIKey 未配置 API 密钥，在发起任何网络请求前返回
	ErrMissingAPIKey = &AuthError{Message: "未设置 API 密钥 (KLING_API_KEY)"}

	ErrEmptyPrompt   = errors.New("提示词不能为空")
	ErrEmptyTaskID   = errors.New("任务ID不能为空")
	ErrInvalidOption = errors.New("参数不合法")
	ErrWaitTimeout   = errors.New("等待视频生成超时")
)

// AuthError 认证错误
type AuthError struct {
	StatusCode int    // 远端返回的 HTTP 状态码，凭证缺失时为 0
	Message    string // 错误描述
}

func (e *AuthError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: %s", ErrAuth, e.Message)
	}
	return fmt.Sprintf("%s: 状态码 %d: %s", ErrAuth, e.StatusCode, e.Message)
}

func (e *AuthError) Is(target error) bool {
	return target == ErrAuth
}

// RequestError 网络错误或非 2xx 响应
type RequestError struct {
	Op         string // submit / query / download
	StatusCode int    // 网络错误时为 0
	Code       int    // 远端业务错误码
	Message    string
	Err        error
}

func (e *RequestError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s 请求失败: %v", e.Op, e.Err)
	case e.StatusCode != 0 && e.Code != 0:
		return fmt.Sprintf("%s 请求失败，状态码: %d, 错误码: %d, 响应: %s", e.Op, e.StatusCode, e.Code, e.Message)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s 请求失败，状态码: %d, 响应: %s", e.Op, e.StatusCode, e.Message)
	default:
		return fmt.Sprintf("%s 请求失败，错误码: %d, 响应: %s", e.Op, e.Code, e.Message)
	}
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// ResponseFormatError 响应体不是预期格式
type ResponseFormatError struct {
	Op    string
	Field string // 缺失或无法解析的字段
	Body  string // 截断后的原始响应
	Err   error
}

func (e *ResponseFormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s 响应格式错误: %v, 响应: %s", e.Op, e.Err, e.Body)
	}
	return fmt.Sprintf("%s 响应缺少字段 %s, 响应: %s", e.Op, e.Field, e.Body)
}

func (e *ResponseFormatError) Unwrap() error {
	return e.Err
}

// JobFailedError 远端报告任务失败
type JobFailedError struct {
	TaskID  TaskID
	Message string
}

func (e *JobFailedError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("视频生成失败: 任务 %s", e.TaskID)
	}
	return fmt.Sprintf("视频生成失败: 任务 %s: %s", e.TaskID, e.Message)
}

const maxBodySnippet = 512

// snippet 截断响应体用于错误信息，截断点落在 UTF-8 字符边界上
func snippet(body []byte) string {
	if len(body) <= maxBodySnippet {
		return string(body)
	}
	cut := maxBodySnippet
	for cut > 0 && !utf8.RuneStart(body[cut]) {
		cut--
	}
	return string(body[:cut]) + "..."
}
