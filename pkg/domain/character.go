package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
)

var (
	// ErrUnknownCharacter は名簿に存在しないキャラクターIDが指定されたことを示します。
	ErrUnknownCharacter = errors.New("unknown character")
	// ErrInvalidCharacter はキャラクター定義が必須項目を満たしていないことを示します。
	ErrInvalidCharacter = errors.New("invalid character")
)

// Character は画像に描かれるキャラクター1人分の静的な定義を保持します。
type Character struct {
	ID               string            `json:"id"`
	Name             string            `json:"character_name"`
	ShortDescription string            `json:"character_short_description"` // 表示用の分類ラベル。身長の推定には使わないのだ
	BaseDescription  string            `json:"base_description"`            // プロンプトにそのまま埋め込む外見の記述
	Poses            map[string]string `json:"poses"`
	HeightCategory   HeightCategory    `json:"height_category"`

	// キャラクター固有の画風。空なら StyleConfig が使われます。
	StylePrefix string `json:"style_prefix,omitempty"`
	StyleSuffix string `json:"style_suffix,omitempty"`
}

// CharactersMap はIDをキーとしたキャラクターの検索用マップなのだ。
type CharactersMap map[string]Character

// rosterFile は元データの {"characters": {...}} 形式を受け付けるための包みなのだ。
type rosterFile struct {
	Characters CharactersMap `json:"characters"`
}

// LoadCharacters は指定されたファイルパスからJSONを読み込み、キャラクターマップを返すのだ。
func LoadCharacters(path string) (CharactersMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("キャラクターファイルの読み込みに失敗したのだ: %w", err)
	}
	return GetCharacters(data)
}

// GetCharacters はJSONバイト列からキャラクターマップをパースして返します。
// トップレベルが "characters" キーを持つ包み形式と、IDをキーにした素のマップ形式の両方を受け付けます。
// 読み込み時に ID をマップのキーで補完し、全件を Validate で検査します。
// この関数はステートレスであり、キャッシュを行いません。
func GetCharacters(charactersJSON []byte) (CharactersMap, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(charactersJSON, &top); err != nil {
		return nil, fmt.Errorf("キャラクター情報のJSONパースに失敗しました: %w", err)
	}

	var chars CharactersMap
	if _, wrapped := top["characters"]; wrapped && len(top) == 1 {
		var rf rosterFile
		if err := json.Unmarshal(charactersJSON, &rf); err != nil {
			return nil, fmt.Errorf("キャラクター情報のJSONパースに失敗しました: %w", err)
		}
		chars = rf.Characters
	} else if err := json.Unmarshal(charactersJSON, &chars); err != nil {
		return nil, fmt.Errorf("キャラクター情報のJSONパースに失敗しました: %w", err)
	}

	normalized := make(CharactersMap, len(chars))
	for key, c := range chars {
		c.ID = key
		if err := c.Validate(); err != nil {
			return nil, err
		}
		normalized[key] = c
	}
	return normalized, nil
}

// Validate はプロンプト合成器が前提とする不変条件を検査します。
func (c Character) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: %q has no character_name", ErrInvalidCharacter, c.ID)
	}
	if strings.TrimSpace(c.BaseDescription) == "" {
		return fmt.Errorf("%w: %q has no base_description", ErrInvalidCharacter, c.ID)
	}
	if !c.HeightCategory.Valid() {
		return fmt.Errorf("%w: %q has height_category %q", ErrInvalidCharacter, c.ID, c.HeightCategory)
	}
	return nil
}

// String はキャラクターの情報を文字列で返すのだ。
func (c Character) String() string {
	return fmt.Sprintf("%s (%s)", c.Name, c.ID)
}

// PoseKeys はポーズのキーをソート済みで返します。
func (c Character) PoseKeys() []string {
	keys := make([]string, 0, len(c.Poses))
	for k := range c.Poses {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
