package domain

// QualityPreset は用途ごとの生成設定と合成オプションの組み合わせです。
type QualityPreset struct {
	Name        string                  `json:"name"`
	Description string                  `json:"description"`
	Config      GenerationConfig        `json:"config"`
	Options     PromptGenerationOptions `json:"options"`
}

// DefaultPresetName は UI の初期選択に使うプリセット名です。
const DefaultPresetName = "Educational Print"

// QualityPresets は組み込みのプリセット一覧を返します。呼び出しごとに新しいスライスなのだ。
func QualityPresets() []QualityPreset {
	return []QualityPreset{
		{
			Name:        "Educational Print",
			Description: "High-resolution PNG for printing in educational materials",
			Config: GenerationConfig{
				OutputFormat:     FormatPNG,
				BackgroundOption: BackgroundTransparent,
				QualityLevel:     QualityHighRes,
				AspectRatio:      AspectSquare,
			},
			Options: PromptGenerationOptions{
				UseStructuredFormat:       true,
				IncludeHeightCalculations: true,
				EducationalOptimization:   true,
			},
		},
		{
			Name:        "Online Learning",
			Description: "Optimized for web display and fast loading",
			Config: GenerationConfig{
				OutputFormat:     FormatJPEG,
				BackgroundOption: BackgroundSolidWhite,
				QualityLevel:     QualityWeb,
				AspectRatio:      AspectSquare,
			},
			Options: PromptGenerationOptions{
				UseStructuredFormat:       true,
				IncludeHeightCalculations: false,
				EducationalOptimization:   true,
			},
		},
		{
			Name:        "Interactive Scenes",
			Description: "Transparent backgrounds for overlay in interactive content",
			Config: GenerationConfig{
				OutputFormat:     FormatPNG,
				BackgroundOption: BackgroundTransparent,
				QualityLevel:     QualityPrint,
				AspectRatio:      AspectSquare,
			},
			Options: PromptGenerationOptions{
				UseStructuredFormat:       true,
				IncludeHeightCalculations: true,
				EducationalOptimization:   true,
			},
		},
	}
}

// FindPreset は名前からプリセットを探します。
func FindPreset(name string) (QualityPreset, bool) {
	for _, p := range QualityPresets() {
		if p.Name == name {
			return p, true
		}
	}
	return QualityPreset{}, false
}
