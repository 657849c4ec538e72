package generator

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/genai"
)

// 生成APIの失敗を分類するセンチネルエラーです。呼び出し側は errors.Is で判定します。
var (
	ErrRateLimited       = errors.New("image generation rate limited")
	ErrSafetyBlocked     = errors.New("image blocked by safety filter")
	ErrMalformedResponse = errors.New("malformed image generation response")
	ErrNetwork           = errors.New("image generation network error")
	ErrServer            = errors.New("image generation server error")
	ErrClient            = errors.New("image generation request rejected")
)

// classifyError は SDK から返ったエラーをセンチネルで包み直します。
// コンテキストの取り消しはそのまま返すのだ。
func classifyError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%w: %w", kindForStatus(apiErr.Code), err)
	}

	// APIError 以外は HTTP 応答に届く前の失敗（DNS、接続断など）なのだ
	return fmt.Errorf("%w: %w", ErrNetwork, err)
}

func kindForStatus(code int) error {
	switch {
	case code == http.StatusTooManyRequests:
		return ErrRateLimited
	case code >= http.StatusInternalServerError:
		return ErrServer
	default:
		return ErrClient
	}
}

// IsRetryable はリトライで回復し得る失敗かどうかを返します。
// 429 と 5xx と通信エラーだけが対象で、その他の 4xx は再試行しません。
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRateLimited) ||
		errors.Is(err, ErrServer) ||
		errors.Is(err, ErrNetwork)
}
