package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/shouni/go-claymation-kit/internal/pipeline"
)

// generateCmd は、プロンプトを合成して画像を1枚生成し、ファイルに保存するのだ。
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "プロンプトを合成して画像を1枚生成するのだ。",
	Long: `指定したキャラクターとシーン設定からプロンプトを合成し、Gemini API で画像を生成するのだ。
生成した画像は --output-dir に保存されるのだよ。`,
	RunE: generateCommand,
}

func generateCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := requireAPIKey(cfg); err != nil {
		return err
	}

	slog.Info("画像生成を開始するのだ！",
		"characters", cfg.Options.CharacterIDs,
		"image_model", cfg.Kit.ImageModel,
		"output_dir", cfg.Options.OutputDir)

	ctx, stop := signalContext(cmd)
	defer stop()

	path, err := pipeline.ExecuteGenerate(ctx, cfg)
	if err != nil {
		return fmt.Errorf("画像生成中にエラーが発生したのだ: %w", err)
	}

	slog.Info("画像を保存したのだ！", "path", path)
	return nil
}
