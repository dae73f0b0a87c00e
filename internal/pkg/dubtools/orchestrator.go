package dubtools

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

// 合成编排器
// 固定批次限制并发外呼，单片段失败用静音占位，协作式取消

// ErrSoundEffectNotFound 音效库中找不到指定音效
var ErrSoundEffectNotFound = errors.New("sound effect not found")

// SynthesisRequest 一次外部合成调用的参数
type SynthesisRequest struct {
	Text    string
	VoiceID string
	Speed   float64
	Emotion Emotion
}

// SynthesisProvider 外部语音合成能力
// 实现方可以在内部按模型优先级重试，最终失败才返回错误
type SynthesisProvider interface {
	Synthesize(ctx context.Context, req SynthesisRequest) (*AudioBuffer, error)
}

// SoundEffectProvider 预渲染音效库查询能力
// 未命中返回 ErrSoundEffectNotFound
type SoundEffectProvider interface {
	Fetch(ctx context.Context, nameOrID string) (*AudioBuffer, error)
}

// SynthesisSettings 合成参数
type SynthesisSettings struct {
	Speed      float64 // 语速比例，默认 1.0
	BatchSize  int     // 批大小，限制并发外呼数量，默认 3（允许 2-4）
	ToneHints  bool    // 引擎支持行内语气提示时在文本前加情绪指令
	SampleRate int     // 静音占位缓冲的采样率
}

const (
	defaultBatchSize = 3
	minBatchSize     = 2
	maxBatchSize     = 4

	// 静音占位时长估算：字符数 / 15，至少 1 秒
	silenceCharsPerSecond = 15
)

func (s SynthesisSettings) normalized() SynthesisSettings {
	if s.Speed <= 0 {
		s.Speed = 1.0
	}
	if s.BatchSize == 0 {
		s.BatchSize = defaultBatchSize
	}
	if s.BatchSize < minBatchSize {
		s.BatchSize = minBatchSize
	}
	if s.BatchSize > maxBatchSize {
		s.BatchSize = maxBatchSize
	}
	if s.SampleRate <= 0 {
		s.SampleRate = RawPCMSampleRate
	}
	return s
}

// Orchestrator 驱动全部片段的合成
type Orchestrator struct {
	synth SynthesisProvider
	sfx   SoundEffectProvider
}

// NewOrchestrator 创建合成编排器
func NewOrchestrator(synth SynthesisProvider, sfx SoundEffectProvider) *Orchestrator {
	return &Orchestrator{synth: synth, sfx: sfx}
}

// SynthesizeAll 合成全部片段并按剧本原始顺序返回
//
// 保证：除取消外，输出数量恒等于过滤后（文本非空或音效）的输入数量；
// 取消时不返回部分结果，已产出的片段全部丢弃
func (o *Orchestrator) SynthesizeAll(
	ctx context.Context,
	segments []Segment,
	settings SynthesisSettings,
) ([]RenderedSegment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	settings = settings.normalized()

	var filtered []Segment
	for _, seg := range segments {
		// 舞台指示只服务阅读与编辑，不进合成
		if seg.Kind == SegmentDirection {
			continue
		}
		if strings.TrimSpace(seg.Text) != "" || seg.Kind == SegmentSoundEffect {
			filtered = append(filtered, seg)
		}
	}
	if len(filtered) == 0 {
		return nil, nil
	}

	results := make([]RenderedSegment, len(filtered))
	errs := make([]error, len(filtered))

	for start := 0; start < len(filtered); start += settings.BatchSize {
		// 每批开始前检查取消；一旦触发不再派发新批次
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		end := start + settings.BatchSize
		if end > len(filtered) {
			end = len(filtered)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()
				results[idx], errs[idx] = o.renderOne(ctx, filtered[idx], settings)
			}(i)
		}
		wg.Wait()

		for i := start; i < end; i++ {
			if errs[i] != nil {
				// renderOne 只会因取消返回错误
				return nil, errs[i]
			}
		}
	}

	// 批次可能乱序完成，按原始剧本序号恢复顺序
	sort.Slice(results, func(i, j int) bool {
		return results[i].Segment.OrderIndex < results[j].Segment.OrderIndex
	})

	return results, nil
}

// renderOne 合成单个片段；非取消类失败一律静音占位，不向上传播
func (o *Orchestrator) renderOne(
	ctx context.Context,
	seg Segment,
	settings SynthesisSettings,
) (RenderedSegment, error) {
	if seg.Kind == SegmentSoundEffect {
		return o.renderSoundEffect(ctx, seg, settings)
	}

	text := seg.Text
	if settings.ToneHints && seg.Emotion != "" && seg.Emotion != EmotionNeutral {
		text = fmt.Sprintf("(%s) %s", seg.Emotion, text)
	}

	audio, err := o.synthesize(ctx, SynthesisRequest{
		Text:    text,
		VoiceID: seg.VoiceID,
		Speed:   settings.Speed,
		Emotion: seg.Emotion,
	})
	if err != nil {
		if isCancellation(ctx, err) {
			return RenderedSegment{}, err
		}
		log.Warn().
			Err(err).
			Int("order_index", seg.OrderIndex).
			Str("speaker", seg.Speaker).
			Msg("segment synthesis failed, substituting silence")
		return RenderedSegment{
			Segment:     seg,
			Audio:       silenceForText(seg.Text, settings.SampleRate),
			Substituted: true,
		}, nil
	}

	return RenderedSegment{Segment: seg, Audio: audio}, nil
}

func (o *Orchestrator) synthesize(ctx context.Context, req SynthesisRequest) (*AudioBuffer, error) {
	if o.synth == nil {
		return nil, errors.New("no synthesis provider configured")
	}
	return o.synth.Synthesize(ctx, req)
}

// renderSoundEffect 音效查找失败不阻塞流水线，固定 1 秒静音占位
func (o *Orchestrator) renderSoundEffect(
	ctx context.Context,
	seg Segment,
	settings SynthesisSettings,
) (RenderedSegment, error) {
	if o.sfx != nil {
		audio, err := o.sfx.Fetch(ctx, seg.Text)
		if err == nil {
			return RenderedSegment{Segment: seg, Audio: audio}, nil
		}
		if isCancellation(ctx, err) {
			return RenderedSegment{}, err
		}
		if !errors.Is(err, ErrSoundEffectNotFound) {
			log.Warn().Err(err).Str("effect", seg.Text).Msg("sound effect fetch failed")
		}
	}
	return RenderedSegment{
		Segment:     seg,
		Audio:       Silence(1, settings.SampleRate),
		Substituted: true,
	}, nil
}

// silenceForText 按文本长度估算占位静音时长
func silenceForText(text string, sampleRate int) *AudioBuffer {
	seconds := float64(len([]rune(text))) / silenceCharsPerSecond
	if seconds < 1 {
		seconds = 1
	}
	return Silence(seconds, sampleRate)
}

func isCancellation(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return true
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
