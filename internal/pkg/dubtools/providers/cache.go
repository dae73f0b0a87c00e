package providers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"mango/internal/pkg/cache"
	"mango/internal/pkg/dubtools"
)

// cachedRender 缓存中的一条渲染结果
type cachedRender struct {
	SampleRate int    `json:"sample_rate"`
	PCM        []byte `json:"pcm"`
}

// CachedSynthesisProvider 带 Redis 缓存的合成提供者装饰器
// 相同文本+音色+语速的请求命中缓存时跳过外呼
type CachedSynthesisProvider struct {
	inner dubtools.SynthesisProvider
	cache *cache.RedisCache
	ttl   time.Duration
}

// NewCachedSynthesisProvider 包装一个合成提供者
// ttl 为 0 时使用默认缓存时长
func NewCachedSynthesisProvider(
	inner dubtools.SynthesisProvider,
	redisCache *cache.RedisCache,
	ttl time.Duration,
) *CachedSynthesisProvider {
	if ttl <= 0 {
		ttl = cache.RenderCacheTTL
	}
	return &CachedSynthesisProvider{
		inner: inner,
		cache: redisCache,
		ttl:   ttl,
	}
}

// Synthesize 先查缓存，未命中时调用被包装的提供者并回写
func (p *CachedSynthesisProvider) Synthesize(
	ctx context.Context,
	req dubtools.SynthesisRequest,
) (*dubtools.AudioBuffer, error) {
	key := cache.RenderCacheKey(renderDigest(req))

	var cached cachedRender
	if err := p.cache.Get(ctx, key, &cached); err == nil && len(cached.PCM) > 0 {
		audio, decErr := dubtools.DecodeRawPCM(cached.PCM, cached.SampleRate)
		if decErr == nil {
			log.Debug().Str("key", key).Msg("render cache hit")
			return audio, nil
		}
		log.Warn().Err(decErr).Str("key", key).Msg("corrupt render cache entry, re-synthesizing")
	}

	audio, err := p.inner.Synthesize(ctx, req)
	if err != nil {
		return nil, err
	}

	if setErr := p.cache.Set(ctx, key, cachedRender{
		SampleRate: audio.SampleRate,
		PCM:        dubtools.EncodeRawPCM(audio.Samples),
	}, p.ttl); setErr != nil {
		// 缓存写失败不影响本次结果
		log.Warn().Err(setErr).Str("key", key).Msg("failed to write render cache")
	}

	return audio, nil
}

// renderDigest 计算请求的缓存摘要
func renderDigest(req dubtools.SynthesisRequest) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%.3f|%s", req.VoiceID, req.Emotion, req.Speed, req.Text)
	return hex.EncodeToString(h.Sum(nil))
}
