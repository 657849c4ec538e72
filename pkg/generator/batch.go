package generator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// DefaultBatchInterval はバッチ生成でリクエストの間に挟む既定の待ち時間です。
const DefaultBatchInterval = 1 * time.Second

// progressCompleted は全件終了時に進捗コールバックへ渡す ID です。
const progressCompleted = "completed"

// BatchItem はバッチ生成の1件分の入力です。ID が空なら UUID を採番します。
type BatchItem struct {
	ID      string
	Request ImageRequest
}

// BatchResult はバッチ生成の1件分の結果です。Err が nil でなければ Image は nil なのだ。
type BatchResult struct {
	ID    string
	Image *ImageResponse
	Err   error
}

// ProgressFunc は (完了件数, 総件数, 処理中のID) を受け取る進捗コールバックです。
type ProgressFunc func(completed, total int, currentID string)

// BatchRunner は複数の生成リクエストを1件ずつ順番に処理します。
// 途中で失敗しても残りの処理を続けます。
type BatchRunner struct {
	gen     ImageGenerator
	limiter *rate.Limiter
}

// NewBatchRunner は interval ごとに1件ずつ生成する BatchRunner を生成します。
// interval が 0 以下なら待機しません。
func NewBatchRunner(gen ImageGenerator, interval time.Duration) *BatchRunner {
	var limiter *rate.Limiter
	if interval > 0 {
		limiter = rate.NewLimiter(rate.Every(interval), 1)
	}
	return &BatchRunner{gen: gen, limiter: limiter}
}

// Run は items を順に生成し、入力と同じ順序で結果を返します。
// コンテキストが取り消された場合、未処理の項目にはそのエラーが入ります。
func (b *BatchRunner) Run(ctx context.Context, items []BatchItem, onProgress ProgressFunc) []BatchResult {
	total := len(items)
	results := make([]BatchResult, total)

	for i, item := range items {
		id := item.ID
		if id == "" {
			id = uuid.NewString()
		}
		results[i].ID = id

		if onProgress != nil {
			onProgress(i, total, id)
		}

		if err := b.wait(ctx); err != nil {
			for j := i; j < total; j++ {
				if results[j].ID == "" {
					results[j].ID = items[j].ID
				}
				results[j].Err = err
			}
			slog.Warn("バッチ生成を中断しました", "processed", i, "total", total, "error", err)
			break
		}

		img, err := b.gen.GenerateImage(ctx, item.Request)
		if err != nil {
			slog.Error("画像生成に失敗しました", "id", id, "error", err)
			results[i].Err = fmt.Errorf("failed to generate image for %s: %w", id, err)
			continue
		}
		results[i].Image = img
		slog.Info("画像を生成しました", "id", id, "index", i+1, "total", total)
	}

	if onProgress != nil {
		onProgress(total, total, progressCompleted)
	}
	return results
}

func (b *BatchRunner) wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if b.limiter == nil {
		return nil
	}
	return b.limiter.Wait(ctx)
}
