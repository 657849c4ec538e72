package cmd

import (
	"testing"

	"github.com/spf13/cobra"

	"github.com/shouni/go-claymation-kit/internal/config"
)

func TestAddAppFlags(t *testing.T) {
	root := &cobra.Command{Use: "claymation"}
	addAppFlags(root)

	for _, name := range []string{"characters", "pose", "preset", "format", "background", "output-dir", "image-model", "characters-file", "legacy", "no-height"} {
		if root.PersistentFlags().Lookup(name) == nil {
			t.Errorf("--%s が登録されていません", name)
		}
	}
	if got := root.PersistentFlags().Lookup("output-dir").DefValue; got != config.DefaultOutputDir {
		t.Errorf("--output-dir の既定値 %q, 期待値 %q", got, config.DefaultOutputDir)
	}
}

func TestPreRunAppE(t *testing.T) {
	// APIキー不要のコマンドも通す必要があるのだ
	if err := preRunAppE(charactersCmd, nil); err != nil {
		t.Errorf("エラーは期待していません: %v", err)
	}
}

func TestRequireAPIKey(t *testing.T) {
	if err := requireAPIKey(&config.Config{}); err == nil {
		t.Error("APIキーが無ければエラーのはずです")
	}
	cfg := &config.Config{}
	cfg.Kit.GeminiAPIKey = "key"
	if err := requireAPIKey(cfg); err != nil {
		t.Errorf("エラーは期待していません: %v", err)
	}
}
