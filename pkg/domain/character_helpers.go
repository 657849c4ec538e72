package domain

import (
	"fmt"
	"sort"
	"strings"
)

// CharacterView はプロンプト合成器が扱う平坦化されたキャラクター表現です。
// Character を埋め込み、派生値（Appearance, PlaceholderImage）を追加します。
type CharacterView struct {
	Character
	Appearance       string `json:"appearance"`
	PlaceholderImage string `json:"placeholder_image,omitempty"`
}

// Enhance はキャラクター定義から CharacterView を作る純粋関数なのだ。
// 元の Character は変更せず、Poses マップも複製するのだ。
func Enhance(id string, c Character) CharacterView {
	c.ID = id
	if c.Poses != nil {
		poses := make(map[string]string, len(c.Poses))
		for k, v := range c.Poses {
			poses[k] = v
		}
		c.Poses = poses
	}
	return CharacterView{
		Character:        c,
		Appearance:       c.BaseDescription,
		PlaceholderImage: fmt.Sprintf("/models/%s.png", id),
	}
}

// AppearanceText は Appearance が空なら BaseDescription を返します。
func (v CharacterView) AppearanceText() string {
	if v.Appearance != "" {
		return v.Appearance
	}
	return v.BaseDescription
}

// lookup は完全一致、次に小文字化した ID の順で検索し、見つかったキーも返すのだ。
func (m CharactersMap) lookup(id string) (string, Character, bool) {
	if m == nil {
		return "", Character{}, false
	}
	if char, ok := m[id]; ok {
		return id, char, true
	}
	key := strings.ToLower(strings.TrimSpace(id))
	if char, ok := m[key]; ok {
		return key, char, true
	}
	return "", Character{}, false
}

// SortedIDs は常に同じ順序で走査できるよう、IDをソートして返します。
func (m CharactersMap) SortedIDs() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Select は選択順を保ったまま、指定IDのキャラクターを CharacterView に変換します。
// 1件でも名簿に無いIDがあれば ErrUnknownCharacter を返します。
func (m CharactersMap) Select(ids []string) ([]CharacterView, error) {
	views := make([]CharacterView, 0, len(ids))
	for _, id := range ids {
		key, char, ok := m.lookup(id)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownCharacter, id)
		}
		views = append(views, Enhance(key, char))
	}
	return views, nil
}
