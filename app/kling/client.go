package kling

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"resty.dev/v3"
)

const (
	DefaultBaseURL        = "https://api.klingai.com"
	DefaultRequestTimeout = 30 * time.Second

	submitPath = "/v1/videos/text2video"
	queryPath  = "/v1/videos/{task_id}"

	opSubmit   = "submit"
	opQuery    = "query"
	opDownload = "download"
)

// Generator 提交任务并查询状态，Web 和命令行都依赖这个接口
type Generator interface {
	Poller
	Submit(ctx context.Context, req SubmitRequest) (TaskID, error)
}

// Options 客户端配置
type Options struct {
	APIKey     string
	BaseURL    string
	Timeout    time.Duration // 单次请求超时，不影响轮询总时长
	HTTPClient *http.Client
}

// Client 可灵文生视频 API 客户端
type Client struct {
	apiKey string
	client *resty.Client
}

// New 创建客户端，APIKey 为空时所有请求都返回 ErrMissingAPIKey
func New(opts Options) *Client {
	var client *resty.Client
	if opts.HTTPClient != nil {
		client = resty.NewWithClient(opts.HTTPClient)
	} else {
		client = resty.New()
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	client.SetBaseURL(baseURL)
	client.SetTimeout(timeout)

	return &Client{
		apiKey: strings.TrimSpace(opts.APIKey),
		client: client,
	}
}

// Close 释放底层连接
func (c *Client) Close() error {
	return c.client.Close()
}

// HasCredential 是否配置了 API 密钥
func (c *Client) HasCredential() bool {
	return c.apiKey != ""
}

// envelope 可灵接口统一响应外层
type envelope struct {
	Code      int             `json:"code"`
	Message   string          `json:"message"`
	RequestID string          `json:"request_id"`
	Data      json.RawMessage `json:"data"`
}

type submitBody struct {
	Prompt      string      `json:"prompt"`
	Duration    Duration    `json:"duration"`
	AspectRatio AspectRatio `json:"aspect_ratio"`
	Model       string      `json:"model"`
}

type submitData struct {
	TaskID string `json:"task_id"`
}

type queryData struct {
	TaskID        string          `json:"task_id"`
	TaskStatus    *string         `json:"task_status"`
	TaskStatusMsg string          `json:"task_status_msg"`
	Video         json.RawMessage `json:"video"`
	TaskResult    *struct {
		Videos []struct {
			ID       string `json:"id"`
			URL      string `json:"url"`
			Duration string `json:"duration"`
		} `json:"videos"`
	} `json:"task_result"`
}

// Submit 提交文生视频任务，返回远端分配的任务ID
func (c *Client) Submit(ctx context.Context, req SubmitRequest) (TaskID, error) {
	if !c.HasCredential() {
		return "", ErrMissingAPIKey
	}

	req = req.WithDefaults()
	if err := req.Validate(); err != nil {
		return "", err
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetAuthToken(c.apiKey).
		SetHeader("Content-Type", "application/json").
		SetBody(submitBody{
			Prompt:      req.Prompt,
			Duration:    req.Duration,
			AspectRatio: req.AspectRatio,
			Model:       req.Model,
		}).
		Post(submitPath)
	if err != nil {
		return "", &RequestError{Op: opSubmit, Err: err}
	}

	data, err := decodeEnvelope(opSubmit, resp)
	if err != nil {
		return "", err
	}

	var out submitData
	if err := json.Unmarshal(data, &out); err != nil {
		return "", &ResponseFormatError{Op: opSubmit, Field: "data", Body: snippet(resp.Bytes()), Err: err}
	}
	if out.TaskID == "" {
		return "", &ResponseFormatError{Op: opSubmit, Field: "data.task_id", Body: snippet(resp.Bytes())}
	}

	return TaskID(out.TaskID), nil
}

// PollStatus 查询一次任务状态
func (c *Client) PollStatus(ctx context.Context, taskID TaskID) (*TaskResult, error) {
	if !c.HasCredential() {
		return nil, ErrMissingAPIKey
	}
	if strings.TrimSpace(string(taskID)) == "" {
		return nil, ErrEmptyTaskID
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetAuthToken(c.apiKey).
		SetPathParam("task_id", string(taskID)).
		Get(queryPath)
	if err != nil {
		return nil, &RequestError{Op: opQuery, Err: err}
	}

	data, err := decodeEnvelope(opQuery, resp)
	if err != nil {
		return nil, err
	}

	var out queryData
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, &ResponseFormatError{Op: opQuery, Field: "data", Body: snippet(resp.Bytes()), Err: err}
	}
	if out.TaskStatus == nil || *out.TaskStatus == "" {
		return nil, &ResponseFormatError{Op: opQuery, Field: "data.task_status", Body: snippet(resp.Bytes())}
	}

	result := &TaskResult{
		TaskID:        taskID,
		Status:        TaskStatus(*out.TaskStatus),
		StatusMessage: out.TaskStatusMsg,
	}
	if result.Status == StatusSucceed {
		result.VideoURL = out.videoURL()
	}

	return result, nil
}

// WaitForCompletion 轮询直到任务进入终态
func (c *Client) WaitForCompletion(ctx context.Context, taskID TaskID, opts WaitOptions) (string, error) {
	return WaitForCompletion(ctx, c, taskID, opts)
}

// videoURL 兼容 video 为字符串、对象以及 task_result.videos 三种返回形态
func (d *queryData) videoURL() string {
	if len(d.Video) > 0 && string(d.Video) != "null" {
		var s string
		if err := json.Unmarshal(d.Video, &s); err == nil && s != "" {
			return s
		}
		var obj struct {
			URL string `json:"url"`
		}
		if err := json.Unmarshal(d.Video, &obj); err == nil && obj.URL != "" {
			return obj.URL
		}
	}
	if d.TaskResult != nil {
		for _, v := range d.TaskResult.Videos {
			if v.URL != "" {
				return v.URL
			}
		}
	}
	return ""
}

// decodeEnvelope 校验状态码和业务码，返回 data 字段
func decodeEnvelope(op string, resp *resty.Response) (json.RawMessage, error) {
	body := resp.Bytes()

	var env envelope
	parseErr := json.Unmarshal(body, &env)

	if resp.StatusCode() == http.StatusUnauthorized || resp.StatusCode() == http.StatusForbidden {
		msg := env.Message
		if parseErr != nil || msg == "" {
			msg = snippet(body)
		}
		return nil, &AuthError{StatusCode: resp.StatusCode(), Message: msg}
	}

	if !resp.IsSuccess() {
		msg := env.Message
		if parseErr != nil || msg == "" {
			msg = snippet(body)
		}
		return nil, &RequestError{Op: op, StatusCode: resp.StatusCode(), Code: env.Code, Message: msg}
	}

	if parseErr != nil {
		return nil, &ResponseFormatError{Op: op, Body: snippet(body), Err: parseErr}
	}

	if env.Code != 0 {
		if isAuthCode(env.Code) {
			return nil, &AuthError{StatusCode: resp.StatusCode(), Message: env.Message}
		}
		return nil, &RequestError{Op: op, StatusCode: resp.StatusCode(), Code: env.Code, Message: env.Message}
	}

	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil, &ResponseFormatError{Op: op, Field: "data", Body: snippet(body)}
	}

	return env.Data, nil
}

// isAuthCode 1000-1004 为可灵的鉴权类错误码
func isAuthCode(code int) bool {
	return code >= 1000 && code <= 1004
}
