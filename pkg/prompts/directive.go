package prompts

import (
	"fmt"
	"strings"

	"github.com/shouni/go-claymation-kit/pkg/domain"
)

const (
	transparentBackground = "The image must have a transparent background."
	solidWhiteBackground  = "The image has a solid white background, perfect for educational materials and print use."
	// illustratedFallback は CustomBackground が空のときに使う背景の説明なのだ。
	illustratedFallback = "a simple, aesthetically pleasing background that complements the character's pose"
)

// BackgroundInstruction は背景設定に対応する指示文を返します。
// 未知の値は透過背景として扱います。
func BackgroundInstruction(cfg domain.GenerationConfig) string {
	switch cfg.BackgroundOption {
	case domain.BackgroundTransparent:
		return transparentBackground
	case domain.BackgroundSolidWhite:
		return solidWhiteBackground
	case domain.BackgroundIllustrated:
		bg := cfg.CustomBackground
		if bg == "" {
			bg = illustratedFallback
		}
		return fmt.Sprintf("The character is in a scene with a full illustrated background. The background is described as: \"%s\". The art style should apply to the character and the background.", bg)
	default:
		return transparentBackground
	}
}

// QualitySpecs は品質レベルと出力形式から品質指定の句を組み立てます。
func QualitySpecs(cfg domain.GenerationConfig) string {
	var specs []string

	switch cfg.QualityLevel {
	case domain.QualityHighRes:
		specs = append(specs, "ultra-high resolution", "professional quality", "suitable for large format printing")
	case domain.QualityPrint:
		specs = append(specs, "high resolution", "print-ready quality", "crisp details")
	case domain.QualityWeb:
		specs = append(specs, "web-optimized resolution", "balanced quality and file size")
	}

	if cfg.OutputFormat == domain.FormatPNG {
		specs = append(specs, "PNG format with transparency support")
	} else {
		specs = append(specs, "JPEG format optimized for file size")
	}

	return strings.Join(specs, ", ")
}
