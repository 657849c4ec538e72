package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	clibase "github.com/shouni/go-cli-base"
	"github.com/spf13/cobra"

	"github.com/shouni/go-claymation-kit/internal/config"
	kitconfig "github.com/shouni/go-claymation-kit/pkg/config"
)

// opts は全サブコマンドで共有する CLI フラグの受け皿なのだ。
var opts config.GenerateOptions

// addAppFlags は、アプリケーション全般に適用されるグローバルフラグを定義するのだ。
func addAppFlags(rootCmd *cobra.Command) {
	// --- キャラクターとシーン ---
	rootCmd.PersistentFlags().StringSliceVarP(&opts.CharacterIDs, "characters", "c", nil, "登場させるキャラクターIDをカンマ区切りで指定するのだ。")
	rootCmd.PersistentFlags().StringToStringVarP(&opts.Poses, "pose", "p", nil, "キャラクターごとのポーズ（id=説明）なのだ。")
	rootCmd.PersistentFlags().StringVar(&opts.DefaultPose, "default-pose", "", "ポーズ未指定のキャラクターに使う共通のポーズなのだ。")
	rootCmd.PersistentFlags().StringVar(&opts.Interaction, "interaction", "", "複数人シーンでの関係性の説明なのだ。")

	// --- 生成設定 ---
	rootCmd.PersistentFlags().StringVar(&opts.Preset, "preset", "", "品質プリセット名（例: \"Educational Print\"）なのだ。")
	rootCmd.PersistentFlags().StringVar(&opts.OutputFormat, "format", "", "出力形式（png / jpeg）なのだ。")
	rootCmd.PersistentFlags().StringVar(&opts.Background, "background", "", "背景（transparent / illustrated / solid_white）なのだ。")
	rootCmd.PersistentFlags().StringVar(&opts.Quality, "quality", "", "品質（web / print / high_res）なのだ。")
	rootCmd.PersistentFlags().StringVar(&opts.AspectRatio, "aspect-ratio", "", "アスペクト比（1:1 / 16:9 / 4:3）なのだ。")
	rootCmd.PersistentFlags().StringVar(&opts.CustomBackground, "custom-background", "", "illustrated 背景の説明なのだ。")

	// --- 合成戦略 ---
	rootCmd.PersistentFlags().BoolVar(&opts.Legacy, "legacy", false, "構造化形式を使わず、カンマ区切りの1文で合成するのだ。")
	rootCmd.PersistentFlags().BoolVar(&opts.NoHeight, "no-height", false, "身長関係の指示を省くのだ。")

	// --- 出力と接続先 ---
	rootCmd.PersistentFlags().StringVarP(&opts.OutputDir, "output-dir", "o", config.DefaultOutputDir, "生成された画像を保存するディレクトリ（ローカル or gs://...）なのだ。")
	rootCmd.PersistentFlags().StringVar(&opts.ImageModel, "image-model", "", fmt.Sprintf("使用する画像生成モデル名なのだ（既定: %s）。", kitconfig.DefaultImageModel))
	rootCmd.PersistentFlags().StringVar(&opts.CharactersFile, "characters-file", "", "キャラクター名簿のJSONパスなのだ（未指定なら組み込み名簿）。")
}

// loadConfig は環境変数から設定を読み込み、CLI フラグを反映するのだ。
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	cfg.Options = opts
	// .env の LOG_LEVEL も反映させるため、読み込み後にロガーを差し替えるのだ
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})))
	return cfg, nil
}

// requireAPIKey は、画像生成を行うコマンドの前に APIキーの存在をチェックするのだ。
func requireAPIKey(cfg *config.Config) error {
	if cfg.Kit.GeminiAPIKey == "" {
		return fmt.Errorf("エラー: 環境変数 GEMINI_API_KEY（または API_KEY）が設定されていません。画像生成には必須なのだ")
	}
	return nil
}

// preRunAppE は、コマンド実行前の共通チェックを行うのだ。
// APIキーが要るのは画像を生成するコマンドだけなので、その確認は各コマンドの requireAPIKey に任せるのだ。
func preRunAppE(cmd *cobra.Command, args []string) error {
	slog.Debug("コマンドを開始するのだ", "command", cmd.Name())
	return nil
}

// signalContext は Ctrl+C と SIGTERM で取り消されるコンテキストを返すのだ。
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
}

// Execute は、アプリケーションのメインエントリポイントなのだ。
// main.go から呼び出されて、cobra のコマンドライン解析を開始するのだよ。
func Execute() {
	clibase.Execute(
		"claymation",
		addAppFlags,
		preRunAppE,
		promptCmd,
		generateCmd,
		batchCmd,
		serveCmd,
		charactersCmd,
	)
}
