package builder

import (
	"github.com/shouni/go-claymation-kit/internal/config"
	"github.com/shouni/go-claymation-kit/pkg/asset"
	"github.com/shouni/go-claymation-kit/pkg/domain"
	"github.com/shouni/go-claymation-kit/pkg/generator"
	"github.com/shouni/go-claymation-kit/pkg/prompts"
)

// AppContext は、アプリケーション実行に必要な共通コンテキストを保持する
// これを各 Execute 関数に渡すことで、依存関係の注入を簡素化します。
type AppContext struct {
	Config    *config.Config           // Configは、環境変数から読み込まれたグローバルな設定です（APIキー、モデル名など）。
	Options   config.GenerateOptions   // Optionsは、コマンドラインから渡された実行時の設定です。
	Roster    domain.CharactersMap     // Rosterは、読み込み済みのキャラクター名簿です。
	Composer  *prompts.Composer        // Composerは、画風を注入済みのプロンプト合成器です。
	Generator generator.ImageGenerator // Generatorは、リトライとキャッシュで包まれた画像生成器です。プロンプトだけを扱うコマンドでは nil なのだ。
	Writer    asset.OutputWriter       // Writerは、生成された画像を保存するための出力先です（ローカル or gs://）。
}

// NewAppContext は AppContext の新しいインスタンスを生成する
func NewAppContext(
	cfg *config.Config,
	roster domain.CharactersMap,
	composer *prompts.Composer,
	gen generator.ImageGenerator,
	writer asset.OutputWriter,
) AppContext {
	return AppContext{
		Config:    cfg,
		Options:   cfg.Options,
		Roster:    roster,
		Composer:  composer,
		Generator: gen,
		Writer:    writer,
	}
}
