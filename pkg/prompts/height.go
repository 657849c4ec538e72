package prompts

import (
	"fmt"
	"slices"
	"strings"

	"github.com/shouni/go-claymation-kit/pkg/domain"
)

type heightEntry struct {
	name     string
	category domain.HeightCategory
}

// CalculateHeightRelationships は複数キャラクターの相対的な大きさを説明する文を返します。
//
// 身長分類の昇順に安定ソートし、隣り合う組で分類が異なる場合だけ「高い方 → 低い方」の順に1文を出力します。
// 大人と子ども（teenager 以下）の組では、大人の体格を明示させる強い表現を使います。
// 2人未満、または全員が同じ分類の場合は空文字列です。
func CalculateHeightRelationships(characters []domain.CharacterView) string {
	if len(characters) < 2 {
		return ""
	}

	entries := make([]heightEntry, len(characters))
	for i, c := range characters {
		entries[i] = heightEntry{name: c.Name, category: c.HeightCategory}
	}
	slices.SortStableFunc(entries, func(a, b heightEntry) int {
		return a.category.Rank() - b.category.Rank()
	})

	var phrases []string
	for i := 1; i < len(entries); i++ {
		shorter, taller := entries[i-1], entries[i]
		if shorter.category == taller.category {
			continue
		}
		phrases = append(phrases, heightPhrase(taller, shorter))
	}

	return strings.TrimSpace(strings.Join(phrases, " "))
}

func heightPhrase(taller, shorter heightEntry) string {
	if taller.category.IsAdult() {
		return fmt.Sprintf("%s is an adult and must be drawn significantly taller than %s, with clearly adult body proportions next to the child.", taller.name, shorter.name)
	}
	return fmt.Sprintf("%s is visibly taller than %s.", taller.name, shorter.name)
}
