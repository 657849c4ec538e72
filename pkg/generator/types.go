package generator

import (
	"context"
	"encoding/base64"

	"github.com/shouni/go-claymation-kit/pkg/domain"
)

// ImageGenerator は、プロンプトから1枚の画像を生成する外部サービスの抽象なのだ。
// 生成器本体とリトライやキャッシュのデコレーターはすべてこのインターフェースを満たします。
type ImageGenerator interface {
	GenerateImage(ctx context.Context, req ImageRequest) (*ImageResponse, error)
}

// ImageRequest は画像生成1回分の入力です。
type ImageRequest struct {
	Prompt      string
	MIMEType    string
	AspectRatio string
}

// ImageResponse は生成された画像のバイト列と、その MIME タイプです。
type ImageResponse struct {
	Data     []byte
	MIMEType string
}

// Base64 は画像データを標準の base64 文字列で返します。
func (r *ImageResponse) Base64() string {
	return base64.StdEncoding.EncodeToString(r.Data)
}

// RequestFromConfig は正規化済みの GenerationConfig から生成APIへのヒントを組み立てるのだ。
func RequestFromConfig(prompt string, cfg domain.GenerationConfig) ImageRequest {
	return ImageRequest{
		Prompt:      prompt,
		MIMEType:    cfg.MIMEType(),
		AspectRatio: string(cfg.AspectRatio),
	}
}
