package asset

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/shouni/go-utils/urlpath"
)

// DefaultImageDir は生成された画像を格納するデフォルトのディレクトリ名です。
const DefaultImageDir = "output"

// OutputWriter はデータを保存先に書き出すためのインターフェースです。
// remoteio.OutputWriter がこれを満たすので、ローカルでも gs:// でも同じように保存できるのだ。
type OutputWriter interface {
	Write(ctx context.Context, path string, r io.Reader, contentType string) error
}

// AssetManager は生成物の保存パスと永続化を管理します。
type AssetManager struct {
	writer  OutputWriter
	baseDir string
}

// NewAssetManager は baseDir 配下へ保存する AssetManager を生成します。baseDir が空なら DefaultImageDir です。
func NewAssetManager(writer OutputWriter, baseDir string) *AssetManager {
	if baseDir == "" {
		baseDir = DefaultImageDir
	}
	return &AssetManager{writer: writer, baseDir: baseDir}
}

// SaveImage は画像データを name + MIME タイプに応じた拡張子で保存し、その保存先のパスを返します。
func (am *AssetManager) SaveImage(ctx context.Context, name, mimeType, fallbackExt string, data []byte) (string, error) {
	ext := ExtensionFor(mimeType, fallbackExt)
	fullPath, err := urlpath.ResolvePath(am.baseDir, name+ext)
	if err != nil {
		return "", fmt.Errorf("asset_manager: 保存先の解決に失敗しました: %w", err)
	}
	if mimeType == "" {
		mimeType = contentTypeFor(ext)
	}
	if err := am.writer.Write(ctx, fullPath, bytes.NewReader(data), mimeType); err != nil {
		return "", fmt.Errorf("asset_manager: 画像の保存に失敗しました: %w", err)
	}
	return fullPath, nil
}

// ExtensionFor は MIME タイプから拡張子を決め、未知なら fallback を返します。
func ExtensionFor(mimeType, fallback string) string {
	switch mimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	default:
		return fallback
	}
}

func contentTypeFor(ext string) string {
	if ext == ".jpg" {
		return "image/jpeg"
	}
	return "image/png"
}
