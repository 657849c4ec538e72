package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig は生成設定に未知の列挙値が含まれていることを示します。
var ErrInvalidConfig = errors.New("invalid generation config")

type OutputFormat string

const (
	FormatPNG  OutputFormat = "png"
	FormatJPEG OutputFormat = "jpeg"
)

type BackgroundOption string

const (
	BackgroundTransparent BackgroundOption = "transparent"
	BackgroundIllustrated BackgroundOption = "illustrated"
	BackgroundSolidWhite  BackgroundOption = "solid_white"
)

type QualityLevel string

const (
	QualityWeb     QualityLevel = "web"
	QualityPrint   QualityLevel = "print"
	QualityHighRes QualityLevel = "high_res"
)

type AspectRatio string

const (
	AspectSquare  AspectRatio = "1:1"
	AspectWide    AspectRatio = "16:9"
	AspectClassic AspectRatio = "4:3"
)

// DefaultMIMEType は出力形式が png（既定）のときの MIME タイプです。
const DefaultMIMEType = "image/png"

// GenerationConfig は1回の生成リクエストの出力設定です。
// CustomBackground は BackgroundOption が illustrated のときだけ意味を持ちます。
type GenerationConfig struct {
	OutputFormat     OutputFormat     `json:"output_format"`
	BackgroundOption BackgroundOption `json:"background_option"`
	QualityLevel     QualityLevel     `json:"quality_level"`
	AspectRatio      AspectRatio      `json:"aspect_ratio"`
	CustomBackground string           `json:"custom_background,omitempty"`
}

// PromptGenerationOptions はプロンプトの合成戦略を切り替えます。
type PromptGenerationOptions struct {
	UseStructuredFormat       bool `json:"use_structured_format"`
	IncludeHeightCalculations bool `json:"include_height_calculations"`
	// EducationalOptimization は将来の品質調整用のフックで、現在は出力に影響しません。
	EducationalOptimization bool `json:"educational_optimization"`
}

// StyleConfig は全プロンプトの前後に付与される画風テキストです。
// 起動時に一度だけ読み込み、合成器へ注入して使うのだ。
type StyleConfig struct {
	Prefix string
	Suffix string
}

// NormalizeConfig は空のフィールドにデフォルト値を埋めた完全な設定を返します。
// 列挙値の検証は行いません。
func NormalizeConfig(partial GenerationConfig) GenerationConfig {
	cfg := partial
	if cfg.OutputFormat == "" {
		cfg.OutputFormat = FormatPNG
	}
	if cfg.BackgroundOption == "" {
		cfg.BackgroundOption = BackgroundTransparent
	}
	if cfg.QualityLevel == "" {
		cfg.QualityLevel = QualityPrint
	}
	if cfg.AspectRatio == "" {
		cfg.AspectRatio = AspectSquare
	}
	return cfg
}

// Validate は HTTP や CLI の入口で未知の列挙値を弾くための任意の検査です。
func (c GenerationConfig) Validate() error {
	switch c.OutputFormat {
	case FormatPNG, FormatJPEG:
	default:
		return fmt.Errorf("%w: output_format %q", ErrInvalidConfig, c.OutputFormat)
	}
	switch c.BackgroundOption {
	case BackgroundTransparent, BackgroundIllustrated, BackgroundSolidWhite:
	default:
		return fmt.Errorf("%w: background_option %q", ErrInvalidConfig, c.BackgroundOption)
	}
	switch c.QualityLevel {
	case QualityWeb, QualityPrint, QualityHighRes:
	default:
		return fmt.Errorf("%w: quality_level %q", ErrInvalidConfig, c.QualityLevel)
	}
	switch c.AspectRatio {
	case AspectSquare, AspectWide, AspectClassic:
	default:
		return fmt.Errorf("%w: aspect_ratio %q", ErrInvalidConfig, c.AspectRatio)
	}
	return nil
}

// MIMEType は出力形式に対応する MIME タイプを返します。
func (c GenerationConfig) MIMEType() string {
	if c.OutputFormat == FormatJPEG {
		return "image/jpeg"
	}
	return DefaultMIMEType
}

// Extension は保存時のファイル拡張子を返します。
func (c GenerationConfig) Extension() string {
	if c.OutputFormat == FormatJPEG {
		return ".jpg"
	}
	return ".png"
}
