package cmd

import (
	"github.com/spf13/cobra"

	"github.com/shouni/go-claymation-kit/internal/pipeline"
)

// promptCmd は、画像生成を行わずに合成したプロンプトだけを表示するのだ。
var promptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "合成したプロンプトを標準出力に表示するのだ。",
	Long: `キャラクター、ポーズ、シーン設定から画像生成用のプロンプトを合成して表示するのだ。
APIキーは不要なので、プロンプトの調整に便利なのだよ。`,
	RunE: promptCommand,
}

func promptCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	return pipeline.ExecutePrompt(cmd.Context(), cfg, cmd.OutOrStdout())
}
