package generator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

const cacheCleanupInterval = 15 * time.Minute

// CachedGenerator は同じリクエストの結果を一定時間再利用するデコレーターです。
// 同時に届いた同一リクエストは singleflight で1回の呼び出しにまとめます。
type CachedGenerator struct {
	next  ImageGenerator
	store *cache.Cache
	ttl   time.Duration
	group singleflight.Group
}

// NewCachedGenerator は ttl の間だけ生成結果を保持する CachedGenerator を生成します。
func NewCachedGenerator(next ImageGenerator, ttl time.Duration) *CachedGenerator {
	return &CachedGenerator{
		next:  next,
		store: cache.New(ttl, cacheCleanupInterval),
		ttl:   ttl,
	}
}

// GenerateImage は ImageGenerator を実装します。失敗した結果はキャッシュしません。
// 共有される生成は最初の呼び出し元の取り消しに巻き込まれず、各呼び出し元は自分の ctx でだけ待つのをやめるのだ。
func (c *CachedGenerator) GenerateImage(ctx context.Context, req ImageRequest) (*ImageResponse, error) {
	key := cacheKey(req)
	if v, ok := c.store.Get(key); ok {
		if resp, ok := v.(*ImageResponse); ok {
			return resp, nil
		}
	}

	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (interface{}, error) {
		// 待機中に他のゴルーチンが生成を終えている可能性があるため、再度確認するのだ
		if v, ok := c.store.Get(key); ok {
			return v, nil
		}
		resp, err := c.next.GenerateImage(shared, req)
		if err != nil {
			return nil, err
		}
		c.store.Set(key, resp, c.ttl)
		return resp, nil
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		return nil, res.Err
	}

	resp, ok := res.Val.(*ImageResponse)
	if !ok {
		return nil, fmt.Errorf("unexpected return type from singleflight: %T", res.Val)
	}
	return resp, nil
}

// cacheKey はプロンプト、MIME タイプ、アスペクト比から SHA-256 のキーを作ります。
func cacheKey(req ImageRequest) string {
	h := sha256.New()
	for _, part := range []string{req.Prompt, req.MIMEType, req.AspectRatio} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
