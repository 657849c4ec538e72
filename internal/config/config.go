package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shouni/go-utils/envutil"

	kitconfig "github.com/shouni/go-claymation-kit/pkg/config"
)

// デフォルト値の定義なのだ
const (
	DefaultCharactersFile = ""       // 空なら組み込みの名簿を使うのだ
	DefaultListenAddr     = ":8080"  // serve コマンドの待ち受けアドレス
	DefaultOutputDir      = "output" // 生成画像の保存先なのだ
	DefaultLogLevel       = "info"
)

// Config はアプリケーション全体の環境設定（APIキーや生成パラメータ）を保持する構造体なのだ。
type Config struct {
	Kit            kitconfig.Config
	CharactersFile string
	ListenAddr     string
	LogLevel       slog.Level

	Options GenerateOptions
}

// LoadConfig は .env と環境変数から設定を読み込み、構造体を返すのだ！
func LoadConfig() (*Config, error) {
	// .env は任意なので、存在しない場合は無視するのだ
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf(".env の読み込みに失敗しました: %w", err)
	}

	kit := kitconfig.DefaultConfig()
	kit.GeminiAPIKey = envutil.GetEnv("GEMINI_API_KEY", envutil.GetEnv("API_KEY", ""))
	kit.ImageModel = envutil.GetEnv("IMAGE_MODEL", kitconfig.DefaultImageModel)
	kit.StylePrefix = envutil.GetEnv("IMAGE_STYLE_PREFIX", kitconfig.DefaultStylePrefix)
	kit.StyleSuffix = envutil.GetEnv("IMAGE_STYLE_SUFFIX", kitconfig.DefaultStyleSuffix)

	interval, err := time.ParseDuration(envutil.GetEnv("RATE_INTERVAL", kitconfig.DefaultRateInterval.String()))
	if err != nil {
		return nil, fmt.Errorf("RATE_INTERVAL の解析に失敗しました: %w", err)
	}
	kit.RateInterval = interval

	timeout, err := time.ParseDuration(envutil.GetEnv("REQUEST_TIMEOUT", kitconfig.DefaultRequestTimeout.String()))
	if err != nil {
		return nil, fmt.Errorf("REQUEST_TIMEOUT の解析に失敗しました: %w", err)
	}
	kit.RequestTimeout = timeout

	retries, err := strconv.Atoi(envutil.GetEnv("MAX_RETRIES", strconv.Itoa(kitconfig.DefaultMaxRetries)))
	if err != nil || retries < 0 {
		return nil, fmt.Errorf("MAX_RETRIES は 0 以上の整数で指定してほしいのだ: %q", envutil.GetEnv("MAX_RETRIES", ""))
	}
	kit.MaxRetries = retries

	level, err := ParseLogLevel(envutil.GetEnv("LOG_LEVEL", DefaultLogLevel))
	if err != nil {
		return nil, err
	}

	return &Config{
		Kit:            kit,
		CharactersFile: envutil.GetEnv("CHARACTERS_FILE", DefaultCharactersFile),
		ListenAddr:     envutil.GetEnv("LISTEN_ADDR", DefaultListenAddr),
		LogLevel:       level,
	}, nil
}

// ParseLogLevel は debug / info / warn / error を slog.Level に変換します。
func ParseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("LOG_LEVEL の解析に失敗しました: %w", err)
	}
	return level, nil
}

// GenerateOptions は CLI フラグから渡される実行時のパラメータなのだ。
type GenerateOptions struct {
	// キャラクターとシーン
	CharacterIDs []string          // --characters
	Poses        map[string]string // --pose id=text
	DefaultPose  string            // --default-pose
	Interaction  string            // --interaction

	// 生成設定
	Preset           string // --preset
	OutputFormat     string // --format
	Background       string // --background
	Quality          string // --quality
	AspectRatio      string // --aspect-ratio
	CustomBackground string // --custom-background

	// 合成戦略
	Legacy   bool // --legacy: 構造化形式を使わない
	NoHeight bool // --no-height: 身長関係の指示を省く

	// 出力と接続先
	OutputDir      string // --output-dir
	ImageModel     string // --image-model
	CharactersFile string // --characters-file
	ListenAddr     string // --addr
}
