package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/shouni/go-claymation-kit/pkg/domain"
	"github.com/shouni/go-claymation-kit/pkg/generator"
	"github.com/shouni/go-claymation-kit/pkg/prompts"
)

const requestIDHeader = "X-Request-ID"

// Server はプロンプト合成と画像生成を HTTP API として公開します。
type Server struct {
	composer *prompts.Composer
	roster   domain.CharactersMap
	gen      generator.ImageGenerator
}

// New は Server を生成します。gen が nil の場合、/api/generate は 503 を返すのだ。
func New(composer *prompts.Composer, roster domain.CharactersMap, gen generator.ImageGenerator) *Server {
	return &Server{composer: composer, roster: roster, gen: gen}
}

// Handler はルーティング済みの http.Handler を返します。
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP, middleware.Recoverer, requestLogger)

	r.Get("/healthz", s.health)
	r.Route("/api", func(r chi.Router) {
		r.Get("/characters", s.listCharacters)
		r.Get("/presets", s.listPresets)
		r.Post("/prompt", s.composePrompt)
		r.Post("/generate", s.generateImage)
	})
	return r
}

type characterSummary struct {
	ID               string                `json:"id"`
	Name             string                `json:"name"`
	ShortDescription string                `json:"short_description"`
	HeightCategory   domain.HeightCategory `json:"height_category"`
	Poses            []string              `json:"poses"`
	PlaceholderImage string                `json:"placeholder_image"`
}

type generateResponse struct {
	Prompt      string                  `json:"prompt"`
	Config      domain.GenerationConfig `json:"config"`
	MIMEType    string                  `json:"mime_type"`
	ImageBase64 string                  `json:"image_base64"`
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listCharacters(w http.ResponseWriter, _ *http.Request) {
	ids := s.roster.SortedIDs()
	out := make([]characterSummary, 0, len(ids))
	for _, id := range ids {
		v := domain.Enhance(id, s.roster[id])
		out = append(out, characterSummary{
			ID:               id,
			Name:             v.Name,
			ShortDescription: v.ShortDescription,
			HeightCategory:   v.HeightCategory,
			Poses:            v.PoseKeys(),
			PlaceholderImage: v.PlaceholderImage,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) listPresets(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, domain.QualityPresets())
}

func (s *Server) composePrompt(w http.ResponseWriter, r *http.Request) {
	composed, ok := s.compose(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, composed)
}

func (s *Server) generateImage(w http.ResponseWriter, r *http.Request) {
	if s.gen == nil {
		writeError(w, http.StatusServiceUnavailable, "image generation is not configured")
		return
	}
	composed, ok := s.compose(w, r)
	if !ok {
		return
	}

	img, err := s.gen.GenerateImage(r.Context(), generator.RequestFromConfig(composed.Prompt, composed.Config))
	if err != nil {
		slog.Error("画像生成に失敗しました", "requestID", w.Header().Get(requestIDHeader), "error", err)
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, generateResponse{
		Prompt:      composed.Prompt,
		Config:      composed.Config,
		MIMEType:    img.MIMEType,
		ImageBase64: img.Base64(),
	})
}

// compose はリクエストボディを読み取ってプロンプトを合成するのだ。失敗時はレスポンスを書き込み false を返します。
func (s *Server) compose(w http.ResponseWriter, r *http.Request) (prompts.Composed, bool) {
	var req prompts.ComposeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return prompts.Composed{}, false
	}
	composed, err := s.composer.Compose(s.roster, req)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return prompts.Composed{}, false
	}
	return composed, true
}

// statusFor はドメインと生成器のエラーを HTTP ステータスに対応付けます。
func statusFor(err error) int {
	switch {
	case errors.Is(err, prompts.ErrInvalidInput),
		errors.Is(err, domain.ErrInvalidConfig),
		errors.Is(err, domain.ErrUnknownCharacter),
		errors.Is(err, generator.ErrSafetyBlocked):
		return http.StatusBadRequest
	case errors.Is(err, generator.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, generator.ErrServer),
		errors.Is(err, generator.ErrNetwork),
		errors.Is(err, generator.ErrMalformedResponse),
		errors.Is(err, generator.ErrClient):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("レスポンスの書き込みに失敗しました", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// requestLogger はリクエストIDを採番し、処理結果を slog に記録するミドルウェアなのだ。
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		slog.Info("HTTP リクエスト",
			"requestID", id,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
		)
	})
}
