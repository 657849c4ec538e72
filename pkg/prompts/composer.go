package prompts

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shouni/go-claymation-kit/pkg/domain"
)

// ErrInvalidInput は合成できる入力が無いこと（キャラクター0人）を示します。
var ErrInvalidInput = errors.New("invalid prompt input")

const (
	// neutralPose は複数人シーンでポーズ未指定のキャラクターに使う文言です。
	// 単体シーンには適用しません。
	neutralPose = "a neutral pose"
	// defaultInteraction は複数人シーンで関係性の記述が空のときの文言です。
	defaultInteraction = "The characters are positioned near each other."
	scalePreamble      = "For realistic scale, remember that "
)

// Composer はキャラクター定義とユーザー入力から画像生成プロンプトを組み立てます。
// 状態を持たないため、複数のゴルーチンから同時に呼び出せます。
type Composer struct {
	style domain.StyleConfig
}

// NewComposer は全プロンプト共通の画風を注入した Composer を生成します。
func NewComposer(style domain.StyleConfig) *Composer {
	return &Composer{style: style}
}

// GeneratePrompt はメインのプロンプト構築フローを管理します。
// poses はキャラクターIDからポーズ文へのマップ、interaction は複数人シーンでの関係性の記述です。
// 同じ入力からは常に同じ文字列が返ります。
func (c *Composer) GeneratePrompt(
	characters []domain.CharacterView,
	poses map[string]string,
	interaction string,
	cfg domain.GenerationConfig,
	opts domain.PromptGenerationOptions,
) (string, error) {
	if len(characters) == 0 {
		return "", fmt.Errorf("%w: at least one character must be provided", ErrInvalidInput)
	}

	background := BackgroundInstruction(cfg)
	quality := QualitySpecs(cfg)
	style := c.styleFor(characters[0])

	if len(characters) == 1 {
		char := characters[0]
		// 単体シーンではポーズのフォールバックを行わないのだ
		pose := poses[char.ID]
		if opts.UseStructuredFormat {
			return buildSingleStructured(char, pose, background, quality, style), nil
		}
		return fmt.Sprintf("%s, %s, %s%s", style.Prefix, char.BaseDescription, pose, style.Suffix), nil
	}

	var heightInstruction string
	if opts.IncludeHeightCalculations {
		heightInstruction = CalculateHeightRelationships(characters)
	}

	if opts.UseStructuredFormat {
		return buildMultiStructured(characters, poses, interaction, background, quality, heightInstruction, style), nil
	}
	return buildMultiLegacy(characters, poses, interaction, heightInstruction, style), nil
}

// styleFor は先頭キャラクター固有の画風があればそれを、無ければ注入された画風を返すのだ。
func (c *Composer) styleFor(char domain.CharacterView) domain.StyleConfig {
	if char.StylePrefix != "" || char.StyleSuffix != "" {
		return domain.StyleConfig{Prefix: char.StylePrefix, Suffix: char.StyleSuffix}
	}
	return c.style
}

func buildSingleStructured(char domain.CharacterView, pose, background, quality string, style domain.StyleConfig) string {
	var w strings.Builder
	w.WriteString("Generate a single full-body character image.\n\n")

	w.WriteString("**CRITICAL INSTRUCTIONS:**\n")
	w.WriteString("1. The final image must contain ONLY ONE character.\n")
	w.WriteString("2. Do not include multiple versions or poses of the character.\n")
	w.WriteString("3. Do not generate any text, letters, or numbers in the image.\n")
	fmt.Fprintf(&w, "4. %s.\n\n", quality)

	w.WriteString("**SCENE DESCRIPTION:**\n")
	fmt.Fprintf(&w, "- %s\n\n", background)

	w.WriteString("**CHARACTER DETAILS:**\n")
	fmt.Fprintf(&w, "- **Appearance:** %s.\n", char.AppearanceText())
	fmt.Fprintf(&w, "- **Pose & Expression:** %s.\n\n", pose)

	fmt.Fprintf(&w, "**ART STYLE:** %s", styleLine(style))
	return w.String()
}

func buildMultiStructured(chars []domain.CharacterView, poses map[string]string, interaction, background, quality, height string, style domain.StyleConfig) string {
	n := len(chars)
	var w strings.Builder
	fmt.Fprintf(&w, "Generate a single image with %d characters interacting.\n\n", n)

	w.WriteString("**CRITICAL INSTRUCTIONS:**\n")
	fmt.Fprintf(&w, "1. The final image must contain EXACTLY %d characters as described.\n", n)
	w.WriteString("2. All characters must be visible and interacting as described.\n")
	w.WriteString("3. The art style must be consistent for all characters.\n")
	w.WriteString("4. Do not generate any text, letters, or numbers in the image.\n")
	fmt.Fprintf(&w, "5. %s.\n\n", quality)

	w.WriteString("**CHARACTERS & POSES:**\n")
	for i, char := range chars {
		fmt.Fprintf(&w, "**CHARACTER %d: %s**\n", i+1, char.Name)
		fmt.Fprintf(&w, "- **Appearance:** %s.\n", char.AppearanceText())
		fmt.Fprintf(&w, "- **Pose & Expression:** %s.\n", poseOrNeutral(poses, char.ID))
	}
	w.WriteString("\n")

	if interaction == "" {
		interaction = defaultInteraction
	}
	w.WriteString("**SCENE & INTERACTION:**\n")
	fmt.Fprintf(&w, "- **Interaction Description:** %s\n", interaction)
	fmt.Fprintf(&w, "- **Background:** %s\n", background)
	if height != "" {
		fmt.Fprintf(&w, "- **Relative Scale:** %s%s\n", scalePreamble, height)
	}
	fmt.Fprintf(&w, "- **Overall Art Style:** %s", styleLine(style))
	return w.String()
}

func buildMultiLegacy(chars []domain.CharacterView, poses map[string]string, interaction, height string, style domain.StyleConfig) string {
	defs := make([]string, len(chars))
	for i, char := range chars {
		defs[i] = fmt.Sprintf("%s is %s in pose %s", char.Name, char.BaseDescription, poseOrNeutral(poses, char.ID))
	}

	var w strings.Builder
	fmt.Fprintf(&w, "%s, %s. The scene features: %s.", style.Prefix, interaction, strings.Join(defs, ". "))
	if height != "" {
		fmt.Fprintf(&w, " %s%s", scalePreamble, height)
	}
	fmt.Fprintf(&w, " %s", style.Suffix)
	return w.String()
}

func poseOrNeutral(poses map[string]string, id string) string {
	if pose := poses[id]; pose != "" {
		return pose
	}
	return neutralPose
}

// styleLine は画風の前置きと後置きを空白1つで連結して1行にするのだ。
func styleLine(style domain.StyleConfig) string {
	return style.Prefix + " " + style.Suffix
}
