package domain

import "fmt"

// HeightCategory はキャラクター同士の相対的な大きさを比べるための順序付き分類です。
// 絶対的な身長を表すものではありません。
type HeightCategory string

const (
	HeightShortChild  HeightCategory = "short_child"
	HeightMediumChild HeightCategory = "medium_child"
	HeightTeenager    HeightCategory = "teenager"
	HeightAdult       HeightCategory = "adult"
)

var heightRanks = map[HeightCategory]int{
	HeightShortChild:  0,
	HeightMediumChild: 1,
	HeightTeenager:    2,
	HeightAdult:       3,
}

// Rank は分類の順位を返します。未知の値は -1 なのだ。
func (h HeightCategory) Rank() int {
	if r, ok := heightRanks[h]; ok {
		return r
	}
	return -1
}

// Valid は定義済みの分類かどうかを返します。
func (h HeightCategory) Valid() bool {
	_, ok := heightRanks[h]
	return ok
}

// IsAdult は大人の分類かどうかを返します。
func (h HeightCategory) IsAdult() bool {
	return h == HeightAdult
}

// UnmarshalText は読み込み時点で分類を確定させ、任意の文字列を拒否するのだ。
func (h *HeightCategory) UnmarshalText(text []byte) error {
	v := HeightCategory(text)
	if !v.Valid() {
		return fmt.Errorf("%w: unsupported height_category %q", ErrInvalidCharacter, string(text))
	}
	*h = v
	return nil
}
