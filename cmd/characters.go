package cmd

import (
	"github.com/spf13/cobra"

	"github.com/shouni/go-claymation-kit/internal/pipeline"
)

var charactersCmd = &cobra.Command{
	Use:   "characters",
	Short: "名簿に登録されたキャラクターの一覧を表示するのだ。",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return pipeline.ExecuteCharacters(cmd.Context(), cfg, cmd.OutOrStdout())
	},
}
