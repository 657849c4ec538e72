package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/shouni/go-claymation-kit/internal/pipeline"
)

// batchCmd は、選択したキャラクターの全ポーズを順番に生成するのだ。
var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "選択したキャラクターの全ポーズを一括生成するのだ。",
	Long: `キャラクターごとに登録された全ポーズの単体画像を、レート制限を守りながら1枚ずつ生成するのだ。
途中で失敗しても残りの生成は続けるのだよ。`,
	RunE: batchCommand,
}

func batchCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := requireAPIKey(cfg); err != nil {
		return err
	}

	slog.Info("バッチ生成を開始するのだ！",
		"characters", cfg.Options.CharacterIDs,
		"interval", cfg.Kit.RateInterval)

	ctx, stop := signalContext(cmd)
	defer stop()

	if err := pipeline.ExecuteBatch(ctx, cfg); err != nil {
		return err
	}
	slog.Info("バッチ生成がすべて完了したのだ！")
	return nil
}
