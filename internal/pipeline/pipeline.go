package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/shouni/go-claymation-kit/internal/builder"
	"github.com/shouni/go-claymation-kit/internal/config"
	"github.com/shouni/go-claymation-kit/pkg/asset"
	"github.com/shouni/go-claymation-kit/pkg/domain"
	"github.com/shouni/go-claymation-kit/pkg/generator"
	"github.com/shouni/go-claymation-kit/pkg/prompts"
	"github.com/shouni/go-claymation-kit/pkg/server"
)

const shutdownTimeout = 10 * time.Second

// ErrBatchIncomplete はバッチ生成で1件以上が失敗したことを示します。
var ErrBatchIncomplete = errors.New("batch finished with failures")

// ExecutePrompt は合成したプロンプトを w に書き出すだけで、画像生成は行わないのだ。
func ExecutePrompt(ctx context.Context, cfg *config.Config, w io.Writer) error {
	appCtx, err := builder.BuildAppContext(ctx, cfg, false)
	if err != nil {
		return err
	}
	composed, err := appCtx.Composer.Compose(appCtx.Roster, ComposeRequestFromOptions(appCtx.Options))
	if err != nil {
		return fmt.Errorf("プロンプトの合成に失敗したのだ: %w", err)
	}
	_, err = fmt.Fprintln(w, composed.Prompt)
	return err
}

// ExecuteGenerate はプロンプトを合成して画像を1枚生成し、出力ディレクトリに保存するのだ。
// 保存先のパスを返します。
func ExecuteGenerate(ctx context.Context, cfg *config.Config) (string, error) {
	appCtx, err := setupSavingAppContext(ctx, cfg)
	if err != nil {
		return "", err
	}
	return generateOne(ctx, appCtx)
}

// setupSavingAppContext は画像生成器と保存先の Writer を備えた AppContext を組み立てるのだ。
func setupSavingAppContext(ctx context.Context, cfg *config.Config) (*builder.AppContext, error) {
	appCtx, err := builder.BuildAppContext(ctx, cfg, true)
	if err != nil {
		return nil, err
	}
	writer, err := builder.InitializeOutputWriter(ctx)
	if err != nil {
		return nil, err
	}
	appCtx.Writer = writer
	return appCtx, nil
}

func generateOne(ctx context.Context, appCtx *builder.AppContext) (string, error) {
	req := ComposeRequestFromOptions(appCtx.Options)
	composed, err := appCtx.Composer.Compose(appCtx.Roster, req)
	if err != nil {
		return "", fmt.Errorf("プロンプトの合成に失敗したのだ: %w", err)
	}
	slog.Debug("プロンプトを合成したのだ", "prompt", composed.Prompt)

	img, err := appCtx.Generator.GenerateImage(ctx, generator.RequestFromConfig(composed.Prompt, composed.Config))
	if err != nil {
		return "", fmt.Errorf("画像生成に失敗したのだ: %w", err)
	}

	name := fmt.Sprintf("%s_%s", strings.Join(req.CharacterIDs, "_"), uuid.NewString()[:8])
	return saveImage(ctx, appCtx, name, composed.Config, img)
}

// ExecuteBatch は選択したキャラクターの全ポーズを1件ずつ生成し、成功した画像を保存するのだ。
func ExecuteBatch(ctx context.Context, cfg *config.Config) error {
	appCtx, err := setupSavingAppContext(ctx, cfg)
	if err != nil {
		return err
	}
	return runBatch(ctx, appCtx)
}

func runBatch(ctx context.Context, appCtx *builder.AppContext) error {
	items, configs, err := batchItems(appCtx)
	if err != nil {
		return err
	}

	runner := generator.NewBatchRunner(appCtx.Generator, appCtx.Config.Kit.RateInterval)
	results := runner.Run(ctx, items, func(completed, total int, currentID string) {
		slog.Info("バッチ生成の進捗", "completed", completed, "total", total, "current", currentID)
	})

	// 生成か保存のどちらかに失敗した項目を数え、残りの保存は続けるのだ
	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
			continue
		}
		path, err := saveImage(ctx, appCtx, res.ID, configs[res.ID], res.Image)
		if err != nil {
			failed++
			slog.Error("画像の保存に失敗したのだ", "id", res.ID, "error", err)
			continue
		}
		slog.Info("画像を保存したのだ", "id", res.ID, "path", path)
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d/%d", ErrBatchIncomplete, failed, len(results))
	}
	return nil
}

// batchItems は選択キャラクター×ポーズごとの単体プロンプトを組み立てます。
func batchItems(appCtx *builder.AppContext) ([]generator.BatchItem, map[string]domain.GenerationConfig, error) {
	base := ComposeRequestFromOptions(appCtx.Options)
	if len(base.CharacterIDs) == 0 {
		return nil, nil, fmt.Errorf("%w: no characters selected", prompts.ErrInvalidInput)
	}
	views, err := appCtx.Roster.Select(base.CharacterIDs)
	if err != nil {
		return nil, nil, err
	}

	var items []generator.BatchItem
	configs := make(map[string]domain.GenerationConfig)
	for _, v := range views {
		for _, key := range v.PoseKeys() {
			req := base
			req.CharacterIDs = []string{v.ID}
			req.Poses = map[string]string{v.ID: v.Poses[key]}
			composed, err := appCtx.Composer.Compose(appCtx.Roster, req)
			if err != nil {
				return nil, nil, fmt.Errorf("%s/%s のプロンプト合成に失敗したのだ: %w", v.ID, key, err)
			}
			id := v.ID + "_" + key
			items = append(items, generator.BatchItem{
				ID:      id,
				Request: generator.RequestFromConfig(composed.Prompt, composed.Config),
			})
			configs[id] = composed.Config
		}
	}
	return items, configs, nil
}

// ExecuteServe は HTTP API を起動し、ctx が取り消されたら猶予付きで停止するのだ。
func ExecuteServe(ctx context.Context, cfg *config.Config) error {
	appCtx, err := builder.BuildAppContext(ctx, cfg, true)
	if err != nil {
		return err
	}

	addr := cfg.ListenAddr
	if appCtx.Options.ListenAddr != "" {
		addr = appCtx.Options.ListenAddr
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           server.New(appCtx.Composer, appCtx.Roster, appCtx.Generator).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		slog.Info("HTTP サーバーを起動したのだ", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP サーバーが異常終了したのだ: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		<-egCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		slog.Info("HTTP サーバーを停止するのだ")
		return srv.Shutdown(shutdownCtx)
	})
	return eg.Wait()
}

// ExecuteCharacters は名簿の一覧を表形式で w に書き出すのだ。
func ExecuteCharacters(ctx context.Context, cfg *config.Config, w io.Writer) error {
	appCtx, err := builder.BuildAppContext(ctx, cfg, false)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tHEIGHT\tDESCRIPTION\tPOSES")
	for _, id := range appCtx.Roster.SortedIDs() {
		c := appCtx.Roster[id]
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", id, c.Name, c.HeightCategory, c.ShortDescription, strings.Join(c.PoseKeys(), ","))
	}
	return tw.Flush()
}

// ComposeRequestFromOptions は CLI フラグを合成リクエストに変換します。
// 未指定のフラグは空のまま残し、プリセットと正規化に任せるのだ。
func ComposeRequestFromOptions(opts config.GenerateOptions) prompts.ComposeRequest {
	req := prompts.ComposeRequest{
		CharacterIDs: opts.CharacterIDs,
		Poses:        opts.Poses,
		DefaultPose:  opts.DefaultPose,
		Interaction:  opts.Interaction,
		Preset:       opts.Preset,
		Config: domain.GenerationConfig{
			OutputFormat:     domain.OutputFormat(opts.OutputFormat),
			BackgroundOption: domain.BackgroundOption(opts.Background),
			QualityLevel:     domain.QualityLevel(opts.Quality),
			AspectRatio:      domain.AspectRatio(opts.AspectRatio),
			CustomBackground: opts.CustomBackground,
		},
	}
	if opts.Legacy || opts.NoHeight {
		o := prompts.DefaultOptions()
		if opts.Preset != "" {
			if preset, ok := domain.FindPreset(opts.Preset); ok {
				o = preset.Options
			}
		}
		o.UseStructuredFormat = o.UseStructuredFormat && !opts.Legacy
		o.IncludeHeightCalculations = o.IncludeHeightCalculations && !opts.NoHeight
		req.Options = &o
	}
	return req
}

// saveImage は AssetManager を通じて画像を <出力先>/name.<拡張子> に書き出し、そのパスを返すのだ。
func saveImage(ctx context.Context, appCtx *builder.AppContext, name string, cfg domain.GenerationConfig, img *generator.ImageResponse) (string, error) {
	am := asset.NewAssetManager(appCtx.Writer, appCtx.Options.OutputDir)
	return am.SaveImage(ctx, name, img.MIMEType, cfg.Extension(), img.Data)
}
