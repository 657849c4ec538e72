package config

import (
	"time"

	"github.com/shouni/go-claymation-kit/pkg/domain"
)

// デフォルト値の定義
const (
	DefaultImageModel     = "imagen-3.0-generate-002"
	DefaultRateInterval   = 1 * time.Second
	DefaultMaxRetries     = 3
	DefaultRetryBaseDelay = 2 * time.Second
	DefaultRetryMaxDelay  = 30 * time.Second
	DefaultRetryJitter    = 500 * time.Millisecond
	DefaultCacheTTL       = 30 * time.Minute
	DefaultRequestTimeout = 2 * time.Minute
	DefaultStylePrefix    = "Masterpiece 3D claymation style character"
	DefaultStyleSuffix    = ", full body shot, dynamic expressive pose, perfect composition, soft even studio lighting, solid white background, no text, no logos, no patterns on clothing, high quality 3D render, child-friendly proportions with slightly larger head, educational cartoon style, detailed clay-like texture, clear silhouette, isolated character"
)

// Config は Claymation Kit の合成器と画像生成器を動作させるための基本設定です。
type Config struct {
	// --- AI Model Settings ---
	ImageModel string

	// --- Google AI (Gemini API) Settings ---
	GeminiAPIKey string

	// --- Style Settings ---
	StylePrefix string
	StyleSuffix string

	// --- Generation Settings ---
	RateInterval time.Duration // バッチ生成のリクエスト間隔
	CacheTTL     time.Duration // 0 以下ならキャッシュしない

	// --- Timeout & Retries ---
	MaxRetries     int
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration
	RetryJitter    time.Duration
	RequestTimeout time.Duration // 1回の API 呼び出しの期限。0 以下なら無制限
}

// DefaultConfig は推奨されるデフォルト設定を返すヘルパー関数です。
func DefaultConfig() Config {
	return Config{
		ImageModel:     DefaultImageModel,
		StylePrefix:    DefaultStylePrefix,
		StyleSuffix:    DefaultStyleSuffix,
		RateInterval:   DefaultRateInterval,
		CacheTTL:       DefaultCacheTTL,
		MaxRetries:     DefaultMaxRetries,
		RetryBaseDelay: DefaultRetryBaseDelay,
		RetryMaxDelay:  DefaultRetryMaxDelay,
		RetryJitter:    DefaultRetryJitter,
		RequestTimeout: DefaultRequestTimeout,
	}
}

// Style は合成器へ注入する画風設定を返します。
func (c Config) Style() domain.StyleConfig {
	return domain.StyleConfig{Prefix: c.StylePrefix, Suffix: c.StyleSuffix}
}
