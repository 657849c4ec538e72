package cmd

import (
	"github.com/spf13/cobra"

	"github.com/shouni/go-claymation-kit/internal/pipeline"
)

// serveCmd は、プロンプト合成と画像生成を HTTP API として公開するのだ。
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "HTTP API サーバーを起動するのだ。",
	RunE:  serveCommand,
}

func init() {
	serveCmd.Flags().StringVar(&opts.ListenAddr, "addr", "", "待ち受けアドレスなのだ（未指定なら LISTEN_ADDR）。")
}

func serveCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := requireAPIKey(cfg); err != nil {
		return err
	}
	ctx, stop := signalContext(cmd)
	defer stop()

	return pipeline.ExecuteServe(ctx, cfg)
}
