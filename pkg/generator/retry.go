package generator

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryingGenerator は一時的な失敗に対して指数バックオフで再試行するデコレーターです。
// 待機中もコンテキストの取り消しで即座に中断します。
type RetryingGenerator struct {
	Next        ImageGenerator
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Jitter      time.Duration
}

// NewRetryingGenerator は maxRetries 回までの再試行を行う RetryingGenerator を生成します。
func NewRetryingGenerator(next ImageGenerator, maxRetries int, base, maxDelay, jitter time.Duration) *RetryingGenerator {
	return &RetryingGenerator{
		Next:        next,
		MaxAttempts: maxRetries + 1,
		BaseDelay:   base,
		MaxDelay:    maxDelay,
		Jitter:      jitter,
	}
}

// GenerateImage は ImageGenerator を実装します。
func (r *RetryingGenerator) GenerateImage(ctx context.Context, req ImageRequest) (*ImageResponse, error) {
	attempts := max(r.MaxAttempts, 1)
	policy := backoff.WithContext(
		backoff.WithMaxRetries(&jitterBackOff{r: r}, uint64(attempts-1)),
		ctx,
	)

	var resp *ImageResponse
	attempt := 0
	op := func() error {
		attempt++
		out, err := r.Next.GenerateImage(ctx, req)
		if err != nil {
			if !IsRetryable(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		resp = out
		return nil
	}
	notify := func(err error, delay time.Duration) {
		slog.Warn("画像生成に失敗したため再試行するのだ",
			"attempt", attempt,
			"maxAttempts", attempts,
			"delay", delay,
			"error", err,
		)
	}

	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		return nil, err
	}
	return resp, nil
}

// backoff は base * 2^attempt を MaxDelay で頭打ちにし、[0, Jitter) の揺らぎを足します。
func (r *RetryingGenerator) backoff(attempt int) time.Duration {
	delay := r.BaseDelay << attempt
	if delay < 0 || (r.MaxDelay > 0 && delay > r.MaxDelay) {
		delay = r.MaxDelay
	}
	if r.Jitter > 0 {
		delay += rand.N(r.Jitter)
	}
	return delay
}

// jitterBackOff は RetryingGenerator の待ち時間計算を backoff.BackOff として提供するのだ。
type jitterBackOff struct {
	r       *RetryingGenerator
	attempt int
}

func (b *jitterBackOff) NextBackOff() time.Duration {
	d := b.r.backoff(b.attempt)
	b.attempt++
	return d
}

func (b *jitterBackOff) Reset() { b.attempt = 0 }
