package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"kling-studio/app/kling"
)

func TestDescribeError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		status   int
		code     int
		contains string
	}{
		{
			name:     "missing credential before auth rejection",
			err:      kling.ErrMissingAPIKey,
			status:   http.StatusServiceUnavailable,
			code:     1001,
			contains: "KLING_API_KEY",
		},
		{
			name:     "rejected credential",
			err:      &kling.AuthError{StatusCode: http.StatusUnauthorized, Message: "invalid token"},
			status:   http.StatusBadGateway,
			code:     1002,
			contains: "invalid token",
		},
		{
			name:     "empty prompt",
			err:      kling.ErrEmptyPrompt,
			status:   http.StatusBadRequest,
			code:     400,
			contains: "请填写视频描述",
		},
		{
			name:     "invalid option",
			err:      fmt.Errorf("%w: 时长 7", kling.ErrInvalidOption),
			status:   http.StatusBadRequest,
			code:     400,
			contains: "时长 7",
		},
		{
			name:     "job failed",
			err:      &kling.JobFailedError{TaskID: "t1", Message: "内容审核未通过"},
			status:   http.StatusUnprocessableEntity,
			code:     1003,
			contains: "内容审核未通过",
		},
		{
			name:     "wait timeout",
			err:      fmt.Errorf("%w: 任务 t1 已查询 3 次", kling.ErrWaitTimeout),
			status:   http.StatusGatewayTimeout,
			code:     1004,
			contains: "超时",
		},
		{
			name:     "malformed response",
			err:      &kling.ResponseFormatError{Op: "query", Field: "data.task_status", Body: "{}"},
			status:   http.StatusBadGateway,
			code:     1005,
			contains: "data.task_status",
		},
		{
			name:     "canceled transport before request error",
			err:      &kling.RequestError{Op: "query", Err: context.Canceled},
			status:   http.StatusServiceUnavailable,
			code:     1006,
			contains: "已取消",
		},
		{
			name:     "http failure",
			err:      &kling.RequestError{Op: "submit", StatusCode: http.StatusInternalServerError, Message: "boom"},
			status:   http.StatusBadGateway,
			code:     1006,
			contains: "boom",
		},
		{
			name:     "unknown",
			err:      errors.New("disk full"),
			status:   http.StatusInternalServerError,
			code:     500,
			contains: "disk full",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, code, msg := describeError(tt.err)
			if status != tt.status || code != tt.code {
				t.Fatalf("describeError() = %d/%d, want %d/%d", status, code, tt.status, tt.code)
			}
			if !strings.Contains(msg, tt.contains) {
				t.Fatalf("describeError() message = %q, want it to contain %q", msg, tt.contains)
			}
		})
	}
}
