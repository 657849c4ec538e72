package prompts

import (
	"fmt"

	"github.com/shouni/go-claymation-kit/pkg/domain"
)

// ComposeRequest は CLI や HTTP から受け取る、IDベースの合成リクエストです。
type ComposeRequest struct {
	CharacterIDs []string          `json:"character_ids"`
	Poses        map[string]string `json:"poses,omitempty"`
	// DefaultPose はポーズ未入力のキャラクターへ入口側で補う共通のポーズ文です。
	DefaultPose string                          `json:"default_pose,omitempty"`
	Interaction string                          `json:"interaction,omitempty"`
	Config      domain.GenerationConfig         `json:"config"`
	Options     *domain.PromptGenerationOptions `json:"options,omitempty"`
	Preset      string                          `json:"preset,omitempty"`
}

// Composed は合成結果と、生成APIへ渡す正規化済みの設定の組なのだ。
type Composed struct {
	Prompt string                  `json:"prompt"`
	Config domain.GenerationConfig `json:"config"`
}

// DefaultOptions はオプション未指定時の合成戦略です。
func DefaultOptions() domain.PromptGenerationOptions {
	return domain.PromptGenerationOptions{
		UseStructuredFormat:       true,
		IncludeHeightCalculations: true,
		EducationalOptimization:   true,
	}
}

// Compose はプリセットの適用、設定の正規化と検証、名簿からのキャラクター解決を行ってから GeneratePrompt を呼びます。
func (c *Composer) Compose(roster domain.CharactersMap, req ComposeRequest) (Composed, error) {
	if len(req.CharacterIDs) == 0 {
		return Composed{}, fmt.Errorf("%w: no character_ids", ErrInvalidInput)
	}

	cfg, opts, err := resolveSettings(req)
	if err != nil {
		return Composed{}, err
	}

	chars, err := roster.Select(req.CharacterIDs)
	if err != nil {
		return Composed{}, err
	}

	poses := make(map[string]string, len(chars))
	for _, char := range chars {
		pose := req.Poses[char.ID]
		if pose == "" {
			pose = req.DefaultPose
		}
		if pose != "" {
			poses[char.ID] = pose
		}
	}

	prompt, err := c.GeneratePrompt(chars, poses, req.Interaction, cfg, opts)
	if err != nil {
		return Composed{}, err
	}
	return Composed{Prompt: prompt, Config: cfg}, nil
}

// resolveSettings はプリセットを土台にリクエストの明示値を重ね、正規化と検証を行うのだ。
func resolveSettings(req ComposeRequest) (domain.GenerationConfig, domain.PromptGenerationOptions, error) {
	cfg := req.Config
	opts := DefaultOptions()

	if req.Preset != "" {
		preset, ok := domain.FindPreset(req.Preset)
		if !ok {
			return domain.GenerationConfig{}, opts, fmt.Errorf("%w: unknown preset %q", domain.ErrInvalidConfig, req.Preset)
		}
		cfg = overlayConfig(preset.Config, req.Config)
		opts = preset.Options
	}
	if req.Options != nil {
		opts = *req.Options
	}

	cfg = domain.NormalizeConfig(cfg)
	if err := cfg.Validate(); err != nil {
		return domain.GenerationConfig{}, opts, err
	}
	return cfg, opts, nil
}

func overlayConfig(base, override domain.GenerationConfig) domain.GenerationConfig {
	if override.OutputFormat != "" {
		base.OutputFormat = override.OutputFormat
	}
	if override.BackgroundOption != "" {
		base.BackgroundOption = override.BackgroundOption
	}
	if override.QualityLevel != "" {
		base.QualityLevel = override.QualityLevel
	}
	if override.AspectRatio != "" {
		base.AspectRatio = override.AspectRatio
	}
	if override.CustomBackground != "" {
		base.CustomBackground = override.CustomBackground
	}
	return base
}
