package generator

import (
	"context"
	"fmt"

	"github.com/shouni/go-claymation-kit/pkg/config"
)

// NewImageGenerator は Config から Gemini 生成器を初期化し、リトライとキャッシュで包んで返すのだ。
func NewImageGenerator(ctx context.Context, cfg config.Config) (ImageGenerator, error) {
	client, err := NewGenAIClient(ctx, cfg.GeminiAPIKey)
	if err != nil {
		return nil, err
	}

	core, err := NewGeminiGenerator(client, cfg.ImageModel, cfg.RequestTimeout)
	if err != nil {
		return nil, fmt.Errorf("GeminiGeneratorの初期化に失敗しました: %w", err)
	}
	return Decorate(core, cfg), nil
}

// Decorate は生成器の内側からリトライ、キャッシュの順に包みます。
func Decorate(core ImageGenerator, cfg config.Config) ImageGenerator {
	var gen ImageGenerator = core
	if cfg.MaxRetries > 0 {
		gen = NewRetryingGenerator(gen, cfg.MaxRetries, cfg.RetryBaseDelay, cfg.RetryMaxDelay, cfg.RetryJitter)
	}
	if cfg.CacheTTL > 0 {
		gen = NewCachedGenerator(gen, cfg.CacheTTL)
	}
	return gen
}
