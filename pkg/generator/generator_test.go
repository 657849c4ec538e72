package generator

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"google.golang.org/genai"

	"github.com/shouni/go-claymation-kit/pkg/domain"
)

// funcGenerator は関数で振る舞いを差し替えられるテスト用の生成器なのだ。
type funcGenerator struct {
	calls atomic.Int32
	fn    func(call int, req ImageRequest) (*ImageResponse, error)
}

func (f *funcGenerator) GenerateImage(ctx context.Context, req ImageRequest) (*ImageResponse, error) {
	n := int(f.calls.Add(1))
	return f.fn(n, req)
}

type fakeImagesAPI struct {
	gotModel  string
	gotPrompt string
	gotConfig *genai.GenerateImagesConfig
	resp      *genai.GenerateImagesResponse
	err       error
}

func (f *fakeImagesAPI) GenerateImages(ctx context.Context, model, prompt string, cfg *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error) {
	f.gotModel, f.gotPrompt, f.gotConfig = model, prompt, cfg
	return f.resp, f.err
}

// hangingImagesAPI は ctx が終わるまで応答しない API なのだ。
type hangingImagesAPI struct{}

func (hangingImagesAPI) GenerateImages(ctx context.Context, _, _ string, _ *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

// gatedGenerator は release が閉じられるか ctx が終わるまで生成を止めておくのだ。
type gatedGenerator struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
}

func (g *gatedGenerator) GenerateImage(ctx context.Context, _ ImageRequest) (*ImageResponse, error) {
	if g.calls.Add(1) == 1 {
		close(g.started)
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-g.release:
		return &ImageResponse{Data: []byte("shared")}, nil
	}
}

func TestRequestFromConfig(t *testing.T) {
	cfg := domain.NormalizeConfig(domain.GenerationConfig{OutputFormat: domain.FormatJPEG, AspectRatio: domain.AspectWide})
	req := RequestFromConfig("hello", cfg)
	if req.Prompt != "hello" || req.MIMEType != "image/jpeg" || req.AspectRatio != "16:9" {
		t.Errorf("想定外のリクエスト: %+v", req)
	}

	resp := &ImageResponse{Data: []byte("abc")}
	if got := resp.Base64(); got != "YWJj" {
		t.Errorf("Base64 の期待値 %q, 実際の値 %q", "YWJj", got)
	}
}

func TestGeminiGenerator(t *testing.T) {
	ctx := context.Background()
	req := ImageRequest{Prompt: "a clay boy", AspectRatio: "1:1"}

	t.Run("画像が返ること", func(t *testing.T) {
		api := &fakeImagesAPI{resp: &genai.GenerateImagesResponse{
			GeneratedImages: []*genai.GeneratedImage{{Image: &genai.Image{ImageBytes: []byte{1, 2, 3}}}},
		}}
		g := newGeminiGenerator(api, "imagen-test", 0)
		got, err := g.GenerateImage(ctx, req)
		if err != nil {
			t.Fatalf("エラー: %v", err)
		}
		if len(got.Data) != 3 || got.MIMEType != domain.DefaultMIMEType {
			t.Errorf("想定外のレスポンス: %+v", got)
		}
		if api.gotModel != "imagen-test" || api.gotPrompt != "a clay boy" {
			t.Errorf("モデルかプロンプトが渡っていません: %q %q", api.gotModel, api.gotPrompt)
		}
		if api.gotConfig.NumberOfImages != 1 || api.gotConfig.OutputMIMEType != "image/png" || api.gotConfig.AspectRatio != "1:1" {
			t.Errorf("想定外の設定: %+v", api.gotConfig)
		}
	})

	tests := []struct {
		name string
		api  *fakeImagesAPI
		want error
	}{
		{"画像なし", &fakeImagesAPI{resp: &genai.GenerateImagesResponse{}}, ErrMalformedResponse},
		{"nil レスポンス", &fakeImagesAPI{}, ErrMalformedResponse},
		{"安全フィルタ", &fakeImagesAPI{resp: &genai.GenerateImagesResponse{
			GeneratedImages: []*genai.GeneratedImage{{RAIFilteredReason: "blocked"}},
		}}, ErrSafetyBlocked},
		{"429", &fakeImagesAPI{err: genai.APIError{Code: 429, Message: "quota"}}, ErrRateLimited},
		{"503", &fakeImagesAPI{err: genai.APIError{Code: 503, Message: "unavailable"}}, ErrServer},
		{"400", &fakeImagesAPI{err: genai.APIError{Code: 400, Message: "bad"}}, ErrClient},
		{"通信エラー", &fakeImagesAPI{err: errors.New("connection reset")}, ErrNetwork},
		{"取り消し", &fakeImagesAPI{err: context.Canceled}, context.Canceled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newGeminiGenerator(tt.api, "m", 0).GenerateImage(ctx, req)
			if !errors.Is(err, tt.want) {
				t.Errorf("%v を期待しましたが %v", tt.want, err)
			}
		})
	}
}

func TestGeminiGenerator_Timeout(t *testing.T) {
	t.Run("呼び出しごとの期限切れは再試行できる通信エラーになること", func(t *testing.T) {
		g := newGeminiGenerator(hangingImagesAPI{}, "m", 20*time.Millisecond)
		_, err := g.GenerateImage(context.Background(), ImageRequest{Prompt: "p"})
		if !errors.Is(err, ErrNetwork) || !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("ErrNetwork と DeadlineExceeded を期待しましたが %v", err)
		}
		if !IsRetryable(err) {
			t.Error("期限切れは再試行対象のはずです")
		}
	})

	t.Run("呼び出し元の取り消しはそのまま返ること", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		g := newGeminiGenerator(hangingImagesAPI{}, "m", time.Minute)
		_, err := g.GenerateImage(ctx, ImageRequest{Prompt: "p"})
		if !errors.Is(err, context.Canceled) || errors.Is(err, ErrNetwork) {
			t.Errorf("context.Canceled のみを期待しましたが %v", err)
		}
	})
}

func TestIsRetryable(t *testing.T) {
	if !IsRetryable(classifyError(genai.APIError{Code: 500})) {
		t.Error("5xx は再試行対象のはずです")
	}
	if IsRetryable(classifyError(genai.APIError{Code: 403})) {
		t.Error("403 は再試行対象外のはずです")
	}
	if IsRetryable(classifyError(context.DeadlineExceeded)) {
		t.Error("期限切れは再試行対象外のはずです")
	}
}

func TestRetryingGenerator(t *testing.T) {
	ctx := context.Background()
	ok := &ImageResponse{Data: []byte("ok")}

	t.Run("429 の後に成功すること", func(t *testing.T) {
		inner := &funcGenerator{fn: func(call int, _ ImageRequest) (*ImageResponse, error) {
			if call < 3 {
				return nil, ErrRateLimited
			}
			return ok, nil
		}}
		r := &RetryingGenerator{Next: inner, MaxAttempts: 4, BaseDelay: time.Millisecond}
		got, err := r.GenerateImage(ctx, ImageRequest{})
		if err != nil || got != ok {
			t.Fatalf("成功を期待しましたが %v", err)
		}
		if inner.calls.Load() != 3 {
			t.Errorf("呼び出し回数 3 を期待しましたが %d", inner.calls.Load())
		}
	})

	t.Run("4xx は再試行しないこと", func(t *testing.T) {
		inner := &funcGenerator{fn: func(int, ImageRequest) (*ImageResponse, error) { return nil, ErrClient }}
		r := &RetryingGenerator{Next: inner, MaxAttempts: 4, BaseDelay: time.Millisecond}
		if _, err := r.GenerateImage(ctx, ImageRequest{}); !errors.Is(err, ErrClient) {
			t.Errorf("ErrClient を期待しましたが %v", err)
		}
		if inner.calls.Load() != 1 {
			t.Errorf("呼び出し回数 1 を期待しましたが %d", inner.calls.Load())
		}
	})

	t.Run("上限回数で諦めること", func(t *testing.T) {
		inner := &funcGenerator{fn: func(int, ImageRequest) (*ImageResponse, error) { return nil, ErrServer }}
		r := NewRetryingGenerator(inner, 2, time.Millisecond, time.Millisecond, 0)
		if _, err := r.GenerateImage(ctx, ImageRequest{}); !errors.Is(err, ErrServer) {
			t.Errorf("ErrServer を期待しましたが %v", err)
		}
		if inner.calls.Load() != 3 {
			t.Errorf("呼び出し回数 3 を期待しましたが %d", inner.calls.Load())
		}
	})

	t.Run("待機中の取り消しで中断すること", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		inner := &funcGenerator{fn: func(int, ImageRequest) (*ImageResponse, error) {
			cancel()
			return nil, ErrRateLimited
		}}
		r := &RetryingGenerator{Next: inner, MaxAttempts: 5, BaseDelay: time.Hour}

		start := time.Now()
		_, err := r.GenerateImage(cctx, ImageRequest{})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("context.Canceled を期待しましたが %v", err)
		}
		if time.Since(start) > time.Second {
			t.Error("取り消し後も待機が続きました")
		}
	})

	t.Run("バックオフが上限で頭打ちになること", func(t *testing.T) {
		r := &RetryingGenerator{BaseDelay: time.Second, MaxDelay: 5 * time.Second}
		want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 5 * time.Second, 5 * time.Second}
		for i, w := range want {
			if got := r.backoff(i); got != w {
				t.Errorf("attempt %d: 期待値 %v, 実際の値 %v", i, w, got)
			}
		}

		r.Jitter = 100 * time.Millisecond
		if got := r.backoff(0); got < time.Second || got >= time.Second+r.Jitter {
			t.Errorf("揺らぎが範囲外です: %v", got)
		}
	})
}

func TestCachedGenerator(t *testing.T) {
	ctx := context.Background()

	t.Run("同じリクエストは1回しか生成しないこと", func(t *testing.T) {
		inner := &funcGenerator{fn: func(call int, req ImageRequest) (*ImageResponse, error) {
			return &ImageResponse{Data: []byte(req.Prompt)}, nil
		}}
		c := NewCachedGenerator(inner, time.Minute)
		req := ImageRequest{Prompt: "p", MIMEType: "image/png", AspectRatio: "1:1"}

		for range 3 {
			if _, err := c.GenerateImage(ctx, req); err != nil {
				t.Fatalf("エラー: %v", err)
			}
		}
		other := req
		other.AspectRatio = "16:9"
		if _, err := c.GenerateImage(ctx, other); err != nil {
			t.Fatalf("エラー: %v", err)
		}
		if inner.calls.Load() != 2 {
			t.Errorf("呼び出し回数 2 を期待しましたが %d", inner.calls.Load())
		}
	})

	t.Run("同時リクエストがまとめられること", func(t *testing.T) {
		release := make(chan struct{})
		inner := &funcGenerator{fn: func(int, ImageRequest) (*ImageResponse, error) {
			<-release
			return &ImageResponse{Data: []byte("x")}, nil
		}}
		c := NewCachedGenerator(inner, time.Minute)

		var wg sync.WaitGroup
		for range 5 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := c.GenerateImage(ctx, ImageRequest{Prompt: "same"}); err != nil {
					t.Errorf("エラー: %v", err)
				}
			}()
		}
		time.Sleep(50 * time.Millisecond)
		close(release)
		wg.Wait()

		if inner.calls.Load() != 1 {
			t.Errorf("呼び出し回数 1 を期待しましたが %d", inner.calls.Load())
		}
	})

	t.Run("先に待っていた呼び出し元が取り消しても他の呼び出し元は結果を受け取ること", func(t *testing.T) {
		inner := &gatedGenerator{started: make(chan struct{}), release: make(chan struct{})}
		c := NewCachedGenerator(inner, time.Minute)
		req := ImageRequest{Prompt: "same"}

		firstCtx, cancelFirst := context.WithCancel(context.Background())
		firstErr := make(chan error, 1)
		go func() {
			_, err := c.GenerateImage(firstCtx, req)
			firstErr <- err
		}()
		<-inner.started

		type result struct {
			resp *ImageResponse
			err  error
		}
		second := make(chan result, 1)
		go func() {
			resp, err := c.GenerateImage(ctx, req)
			second <- result{resp, err}
		}()
		time.Sleep(50 * time.Millisecond)

		cancelFirst()
		if err := <-firstErr; !errors.Is(err, context.Canceled) {
			t.Errorf("取り消した呼び出し元は context.Canceled のはずですが %v", err)
		}

		close(inner.release)
		got := <-second
		if got.err != nil || string(got.resp.Data) != "shared" {
			t.Fatalf("生きている呼び出し元は成功するはずですが %v", got.err)
		}
		if inner.calls.Load() != 1 {
			t.Errorf("呼び出し回数 1 を期待しましたが %d", inner.calls.Load())
		}
	})

	t.Run("失敗はキャッシュしないこと", func(t *testing.T) {
		inner := &funcGenerator{fn: func(call int, _ ImageRequest) (*ImageResponse, error) {
			if call == 1 {
				return nil, ErrServer
			}
			return &ImageResponse{}, nil
		}}
		c := NewCachedGenerator(inner, time.Minute)
		if _, err := c.GenerateImage(ctx, ImageRequest{Prompt: "p"}); !errors.Is(err, ErrServer) {
			t.Fatalf("ErrServer を期待しましたが %v", err)
		}
		if _, err := c.GenerateImage(ctx, ImageRequest{Prompt: "p"}); err != nil {
			t.Errorf("2回目は成功するはずです: %v", err)
		}
	})
}

func TestBatchRunner(t *testing.T) {
	ctx := context.Background()
	inner := &funcGenerator{fn: func(_ int, req ImageRequest) (*ImageResponse, error) {
		if req.Prompt == "bad" {
			return nil, ErrSafetyBlocked
		}
		return &ImageResponse{Data: []byte(req.Prompt)}, nil
	}}

	t.Run("失敗しても続行し、進捗を通知すること", func(t *testing.T) {
		items := []BatchItem{
			{ID: "a", Request: ImageRequest{Prompt: "one"}},
			{ID: "b", Request: ImageRequest{Prompt: "bad"}},
			{ID: "c", Request: ImageRequest{Prompt: "three"}},
		}
		type progress struct {
			completed, total int
			id               string
		}
		var got []progress
		results := NewBatchRunner(inner, time.Millisecond).Run(ctx, items, func(c, n int, id string) {
			got = append(got, progress{c, n, id})
		})

		if len(results) != 3 {
			t.Fatalf("結果 3 件を期待しましたが %d 件", len(results))
		}
		if results[0].Err != nil || string(results[0].Image.Data) != "one" {
			t.Errorf("1件目: %+v", results[0])
		}
		if !errors.Is(results[1].Err, ErrSafetyBlocked) || results[1].Image != nil {
			t.Errorf("2件目は失敗のはずです: %+v", results[1])
		}
		if results[2].Err != nil || results[2].ID != "c" {
			t.Errorf("3件目: %+v", results[2])
		}

		want := []progress{{0, 3, "a"}, {1, 3, "b"}, {2, 3, "c"}, {3, 3, "completed"}}
		if len(got) != len(want) {
			t.Fatalf("進捗の期待値 %v, 実際の値 %v", want, got)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("進捗 %d: 期待値 %v, 実際の値 %v", i, want[i], got[i])
			}
		}
	})

	t.Run("ID が空なら採番されること", func(t *testing.T) {
		results := NewBatchRunner(inner, 0).Run(ctx, []BatchItem{{Request: ImageRequest{Prompt: "x"}}}, nil)
		if results[0].ID == "" {
			t.Error("ID が採番されていません")
		}
	})

	t.Run("取り消し後の項目はエラーになること", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		results := NewBatchRunner(inner, 0).Run(cctx, []BatchItem{{ID: "a"}, {ID: "b"}}, nil)
		for _, r := range results {
			if !errors.Is(r.Err, context.Canceled) {
				t.Errorf("%s: context.Canceled を期待しましたが %v", r.ID, r.Err)
			}
		}
	})
}
