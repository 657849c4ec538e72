package builder

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shouni/go-remote-io/remoteio/gcs"

	"github.com/shouni/go-claymation-kit/examples"
	"github.com/shouni/go-claymation-kit/internal/config"
	"github.com/shouni/go-claymation-kit/pkg/asset"
	"github.com/shouni/go-claymation-kit/pkg/generator"
	"github.com/shouni/go-claymation-kit/pkg/prompts"
)

// BuildAppContext は名簿と合成器を用意し、withGenerator が true なら画像生成器も初期化します。
func BuildAppContext(ctx context.Context, cfg *config.Config, withGenerator bool) (*AppContext, error) {
	path := cfg.CharactersFile
	if cfg.Options.CharactersFile != "" {
		path = cfg.Options.CharactersFile
	}
	roster, err := examples.LoadCharacters(path)
	if err != nil {
		return nil, fmt.Errorf("キャラクター情報の取得に失敗しました: %w", err)
	}

	composer := prompts.NewComposer(cfg.Kit.Style())

	var gen generator.ImageGenerator
	if withGenerator {
		gen, err = InitializeImageGenerator(ctx, cfg)
		if err != nil {
			return nil, err
		}
	}

	appCtx := NewAppContext(cfg, roster, composer, gen, nil)
	slog.Debug("AppContext を構築したのだ", "characters", len(roster), "generator", withGenerator)
	return &appCtx, nil
}

// InitializeImageGenerator は ImageGenerator を初期化します。
func InitializeImageGenerator(ctx context.Context, cfg *config.Config) (generator.ImageGenerator, error) {
	kit := cfg.Kit
	if cfg.Options.ImageModel != "" {
		kit.ImageModel = cfg.Options.ImageModel
	}
	imgGen, err := generator.NewImageGenerator(ctx, kit)
	if err != nil {
		return nil, fmt.Errorf("GeminiGeneratorの初期化に失敗したのだ: %w", err)
	}
	return imgGen, nil
}

// InitializeOutputWriter は go-remote-io のファクトリから、ローカルと GCS の両方に書ける Writer を作るのだ。
// 画像を保存するコマンドだけが呼び出します。
func InitializeOutputWriter(ctx context.Context) (asset.OutputWriter, error) {
	gcsFactory, err := gcs.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client factory: %w", err)
	}
	writer, err := gcsFactory.OutputWriter()
	if err != nil {
		return nil, fmt.Errorf("OutputWriter の初期化に失敗したのだ: %w", err)
	}
	return writer, nil
}
