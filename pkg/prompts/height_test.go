package prompts

import (
	"strings"
	"testing"

	"github.com/shouni/go-claymation-kit/pkg/domain"
)

func view(id, name string, h domain.HeightCategory) domain.CharacterView {
	return domain.Enhance(id, domain.Character{
		Name:            name,
		BaseDescription: name + " description",
		HeightCategory:  h,
	})
}

func TestCalculateHeightRelationships(t *testing.T) {
	alex := view("alex", "Alex", domain.HeightShortChild)
	zoe := view("zoe", "Zoe", domain.HeightShortChild)
	marcus := view("marcus", "Marcus", domain.HeightMediumChild)
	teen := view("sam", "Sam", domain.HeightTeenager)
	teacher := view("ms_rodriguez", "Ms. Rodriguez", domain.HeightAdult)

	t.Run("大人と子どもの組では強い表現になること", func(t *testing.T) {
		got := CalculateHeightRelationships([]domain.CharacterView{alex, teacher})
		want := "Ms. Rodriguez is an adult and must be drawn significantly taller than Alex, with clearly adult body proportions next to the child."
		if got != want {
			t.Errorf("期待値 %q, 実際の値 %q", want, got)
		}
	})

	t.Run("大人と teenager の組も強い表現になること", func(t *testing.T) {
		got := CalculateHeightRelationships([]domain.CharacterView{teacher, teen})
		if !strings.HasPrefix(got, "Ms. Rodriguez is an adult") || !strings.Contains(got, "significantly taller than Sam") {
			t.Errorf("想定外の出力: %q", got)
		}
	})

	t.Run("子ども同士は一般的な表現になること", func(t *testing.T) {
		got := CalculateHeightRelationships([]domain.CharacterView{marcus, alex})
		if got != "Marcus is visibly taller than Alex." {
			t.Errorf("想定外の出力: %q", got)
		}
	})

	t.Run("同じ分類だけなら空文字列", func(t *testing.T) {
		if got := CalculateHeightRelationships([]domain.CharacterView{alex, zoe}); got != "" {
			t.Errorf("空文字列を期待しましたが %q", got)
		}
	})

	t.Run("1人以下なら空文字列", func(t *testing.T) {
		if got := CalculateHeightRelationships([]domain.CharacterView{teacher}); got != "" {
			t.Errorf("空文字列を期待しましたが %q", got)
		}
		if got := CalculateHeightRelationships(nil); got != "" {
			t.Errorf("空文字列を期待しましたが %q", got)
		}
	})

	t.Run("隣接する組だけを比較し、同順位は入力順を保つこと", func(t *testing.T) {
		got := CalculateHeightRelationships([]domain.CharacterView{teacher, zoe, marcus, alex})
		want := "Marcus is visibly taller than Alex. " +
			"Ms. Rodriguez is an adult and must be drawn significantly taller than Marcus, with clearly adult body proportions next to the child."
		if got != want {
			t.Errorf("期待値 %q, 実際の値 %q", want, got)
		}
	})
}
