package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/genai"

	"github.com/shouni/go-claymation-kit/pkg/domain"
)

// imagesAPI は genai の Models のうち、画像生成に必要な部分だけを切り出したものです。
type imagesAPI interface {
	GenerateImages(ctx context.Context, model, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error)
}

// GeminiGenerator は Gemini API (Imagen) を呼び出して画像を1枚生成します。
// timeout が正なら1回の API 呼び出しごとに期限を設けます。
type GeminiGenerator struct {
	api     imagesAPI
	model   string
	timeout time.Duration
}

// NewGeminiGenerator は初期化済みの genai クライアントから GeminiGenerator を生成します。
func NewGeminiGenerator(client *genai.Client, model string, timeout time.Duration) (*GeminiGenerator, error) {
	if client == nil {
		return nil, errors.New("genai client は必須です")
	}
	return newGeminiGenerator(client.Models, model, timeout), nil
}

func newGeminiGenerator(api imagesAPI, model string, timeout time.Duration) *GeminiGenerator {
	return &GeminiGenerator{api: api, model: model, timeout: timeout}
}

// NewGenAIClient は APIキーで Gemini API バックエンドのクライアントを作るのだ。
func NewGenAIClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	if apiKey == "" {
		return nil, errors.New("GEMINI_API_KEY (or legacy API_KEY) が設定されていません")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("genai クライアントの初期化に失敗しました: %w", err)
	}
	return client, nil
}

// GenerateImage は ImageGenerator を実装します。
func (g *GeminiGenerator) GenerateImage(ctx context.Context, req ImageRequest) (*ImageResponse, error) {
	mimeType := req.MIMEType
	if mimeType == "" {
		mimeType = domain.DefaultMIMEType
	}

	callCtx := ctx
	if g.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	resp, err := g.api.GenerateImages(callCtx, g.model, req.Prompt, &genai.GenerateImagesConfig{
		NumberOfImages: 1,
		OutputMIMEType: mimeType,
		AspectRatio:    req.AspectRatio,
	})
	if err != nil {
		// 呼び出し側がまだ待っているなら、期限切れは再試行できる通信エラーとして扱うのだ
		if ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("gemini api error: %w: no response within %s: %w", ErrNetwork, g.timeout, err)
		}
		return nil, fmt.Errorf("gemini api error: %w", classifyError(err))
	}
	if resp == nil || len(resp.GeneratedImages) == 0 {
		return nil, fmt.Errorf("%w: no images were returned", ErrMalformedResponse)
	}

	var filtered string
	for _, img := range resp.GeneratedImages {
		if img == nil {
			continue
		}
		if img.Image != nil && len(img.Image.ImageBytes) > 0 {
			out := &ImageResponse{Data: img.Image.ImageBytes, MIMEType: img.Image.MIMEType}
			if out.MIMEType == "" {
				out.MIMEType = mimeType
			}
			slog.Debug("画像を生成しました", "model", g.model, "bytes", len(out.Data), "mime", out.MIMEType)
			return out, nil
		}
		if img.RAIFilteredReason != "" {
			filtered = img.RAIFilteredReason
		}
	}

	if filtered != "" {
		return nil, fmt.Errorf("%w: %s", ErrSafetyBlocked, filtered)
	}
	return nil, fmt.Errorf("%w: image bytes are empty", ErrMalformedResponse)
}
