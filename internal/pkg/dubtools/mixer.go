package dubtools

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog/log"
)

// 时间轴适配与离线混音
// 片段对齐目标时间窗（限幅变速），背景闪避与人声频段抑制走断点自动化，
// 最终离线求和渲染为单条输出缓冲

// ErrMixRender 最终渲染步骤失败（致命，无重试路径）
var ErrMixRender = errors.New("mix render failed")

// MixSettings 混音参数
type MixSettings struct {
	SpeechGain     float64 `json:"speech_gain"`      // 语音片段增益
	BackgroundGain float64 `json:"background_gain"`  // 背景基准增益
	DuckLevelVoice float64 `json:"duck_level_voice"` // 对白/旁白期间背景压到的比例（低于音效）
	DuckLevelSFX   float64 `json:"duck_level_sfx"`   // 音效期间背景压到的比例
	FadeTime       float64 `json:"fade_time"`        // 闪避过渡时间（秒）
	VocalSuppress  float64 `json:"vocal_suppress"`   // 人声频段抑制量（dB，负值）
	VocalCenterHz  float64 `json:"vocal_center_hz"`  // 抑制滤波器中心频率
	VocalQ         float64 `json:"vocal_q"`          // 抑制滤波器 Q 值
	SampleRate     int     `json:"sample_rate"`      // 无背景轨时的输出采样率
}

// DefaultMixSettings 默认混音参数
func DefaultMixSettings() MixSettings {
	return MixSettings{
		SpeechGain:     1.0,
		BackgroundGain: 1.0,
		DuckLevelVoice: 0.25,
		DuckLevelSFX:   0.55,
		FadeTime:       0.15,
		VocalSuppress:  -12,
		VocalCenterHz:  1600,
		VocalQ:         1.0,
		SampleRate:     44100,
	}
}

func (s MixSettings) normalized() MixSettings {
	if s.SpeechGain <= 0 {
		s.SpeechGain = 1.0
	}
	if s.BackgroundGain <= 0 {
		s.BackgroundGain = 1.0
	}
	if s.DuckLevelVoice <= 0 {
		s.DuckLevelVoice = 0.25
	}
	if s.DuckLevelSFX <= 0 {
		s.DuckLevelSFX = 0.55
	}
	if s.FadeTime <= 0 {
		s.FadeTime = 0.15
	}
	if s.VocalSuppress >= 0 {
		s.VocalSuppress = -12
	}
	if s.VocalCenterHz <= 0 {
		s.VocalCenterHz = 1600
	}
	if s.VocalQ <= 0 {
		s.VocalQ = 1.0
	}
	if s.SampleRate <= 0 {
		s.SampleRate = 44100
	}
	return s
}

// 变速比例上限：任一方向最多 40%，避免可闻伪影
const maxFitRatio = 1.4

// PlanEntry 单个片段的摆放计划
type PlanEntry struct {
	Segment     Segment
	Audio       *AudioBuffer
	Substituted bool

	Rate  float64 // 播放速率（时间拉伸系数），音效恒为 1
	Start float64 // 实际摆放起点（秒）
	End   float64 // 实际摆放终点（秒），不超过时间轴总长
}

// MixPlan 一次渲染的临时摆放与自动化计划
// 只在单次渲染内存在；所有条目满足 Start < End <= Duration
type MixPlan struct {
	Entries  []PlanEntry
	Duration float64 // 输出时间轴总长（秒）
}

// BuildMixPlan 计算每个片段的摆放与变速
//
// 片段不带时间窗时按顺序零间隔拼接（自由创作模式）；
// 带窗时按窗起点摆放：渲染时长超窗则压缩，比例限幅 [1/1.4, 1.4]，
// 音效永不变速；起点越过背景总长的片段整体丢弃
func BuildMixPlan(rendered []RenderedSegment, backgroundDuration float64, settings MixSettings) *MixPlan {
	settings = settings.normalized()

	plan := &MixPlan{}
	cursor := 0.0

	for _, r := range rendered {
		natural := r.ActualDuration()
		if natural <= 0 {
			continue
		}

		seg := r.Segment
		start := cursor
		rate := 1.0

		if seg.HasWindow() {
			// 负起点夹到 0，保证计划条目落在 [0, D] 内
			start = math.Max(0, *seg.StartTime)
			target := seg.WindowDuration()
			if seg.Kind != SegmentSoundEffect && natural > target {
				rate = clampFloat(natural/target, 1/maxFitRatio, maxFitRatio)
			}
		}

		if backgroundDuration > 0 && start >= backgroundDuration {
			log.Debug().
				Int("order_index", seg.OrderIndex).
				Float64("start", start).
				Msg("segment starts beyond background, dropped")
			continue
		}

		end := start + natural/rate
		if backgroundDuration > 0 && end > backgroundDuration {
			end = backgroundDuration
		}
		if end <= start {
			continue
		}

		plan.Entries = append(plan.Entries, PlanEntry{
			Segment:     seg,
			Audio:       r.Audio,
			Substituted: r.Substituted,
			Rate:        rate,
			Start:       start,
			End:         end,
		})
		cursor = end
	}

	sort.SliceStable(plan.Entries, func(i, j int) bool {
		return plan.Entries[i].Start < plan.Entries[j].Start
	})

	plan.Duration = backgroundDuration
	for _, e := range plan.Entries {
		if e.End > plan.Duration {
			plan.Duration = e.End
		}
	}

	return plan
}

// buildAutomation 为计划生成两条控制信号的断点包络
// 背景增益从 1.0 出发，人声抑制滤波器增益从 0dB 出发；
// 过渡时间 FadeTime，重叠窗口按先后顺序叠加断点（同刻后写覆盖）
func buildAutomation(plan *MixPlan, settings MixSettings) (bg, filter *envelope) {
	bg = newEnvelope(1.0)
	filter = newEnvelope(0)

	for _, e := range plan.Entries {
		duck := settings.DuckLevelVoice
		if e.Segment.Kind == SegmentSoundEffect {
			duck = settings.DuckLevelSFX
		}

		fadeStart := math.Max(0, e.Start-settings.FadeTime)
		fadeEnd := math.Min(plan.Duration, e.End+settings.FadeTime)

		bg.add(fadeStart, 1.0)
		bg.add(e.Start, duck)
		bg.add(e.End, duck)
		bg.add(fadeEnd, 1.0)

		// 人声片段才压背景轨的人声频段，避免原声对白与配音抢同一频带
		if e.Segment.Kind != SegmentSoundEffect {
			filter.add(fadeStart, 0)
			filter.add(e.Start, settings.VocalSuppress)
			filter.add(e.End, settings.VocalSuppress)
			filter.add(fadeEnd, 0)
		}
	}

	bg.finalize()
	filter.finalize()
	return bg, filter
}

// 最长可渲染时间轴（秒），超过按分配失败处理
const maxRenderSeconds = 4 * 3600

// RenderMix 将背景轨与全部已摆放片段离线求和为单条输出缓冲
//
// 背景轨只读共享；人声抑制滤波与增益自动化只作用于背景；
// 片段按 SpeechGain 缩放叠加，静音占位片段照常占据时间轴
func RenderMix(background *AudioBuffer, plan *MixPlan, settings MixSettings) (*AudioBuffer, error) {
	settings = settings.normalized()

	sampleRate := settings.SampleRate
	if background != nil && background.SampleRate > 0 {
		sampleRate = background.SampleRate
	}

	if plan.Duration <= 0 {
		return nil, fmt.Errorf("%w: empty timeline", ErrMixRender)
	}
	if plan.Duration > maxRenderSeconds {
		return nil, fmt.Errorf("%w: timeline too long (%.1fs)", ErrMixRender, plan.Duration)
	}

	total := int(math.Ceil(plan.Duration * float64(sampleRate)))
	out := make([]float64, total)

	if background != nil {
		renderBackground(out, background, plan, settings)
	}

	for _, e := range plan.Entries {
		mixSegment(out, e, sampleRate, settings.SpeechGain)
	}

	for i, v := range out {
		out[i] = clampFloat(v, -1, 1)
	}

	return &AudioBuffer{Samples: out, SampleRate: sampleRate}, nil
}

// 滤波器系数按小块重算，块内增益视为常数
const filterBlockSize = 64

func renderBackground(out []float64, background *AudioBuffer, plan *MixPlan, settings MixSettings) {
	bgEnv, filterEnv := buildAutomation(plan, settings)
	bgCursor := bgEnv.cursor()
	filterCursor := filterEnv.cursor()

	sampleRate := background.SampleRate
	var f biquad

	n := len(out)
	if len(background.Samples) < n {
		n = len(background.Samples)
	}

	for block := 0; block < n; block += filterBlockSize {
		t := float64(block) / float64(sampleRate)
		f.setPeaking(float64(sampleRate), settings.VocalCenterHz, settings.VocalQ, filterCursor.valueAt(t))

		blockEnd := block + filterBlockSize
		if blockEnd > n {
			blockEnd = n
		}
		for i := block; i < blockEnd; i++ {
			gain := bgCursor.valueAt(float64(i)/float64(sampleRate)) * settings.BackgroundGain
			out[i] = f.process(background.Samples[i]) * gain
		}
	}
}

// mixSegment 以 entry.Rate 的播放速率线性重采样叠加到输出
func mixSegment(out []float64, e PlanEntry, outRate int, gain float64) {
	src := e.Audio
	if src == nil || len(src.Samples) == 0 || src.SampleRate <= 0 {
		return
	}

	offset := int(math.Round(e.Start * float64(outRate)))
	limit := int(math.Round(e.End * float64(outRate)))
	if limit > len(out) {
		limit = len(out)
	}

	// 源采样步长 = 播放速率 × 采样率换算
	step := e.Rate * float64(src.SampleRate) / float64(outRate)

	for i := offset; i < limit; i++ {
		pos := float64(i-offset) * step
		idx := int(pos)
		if idx >= len(src.Samples)-1 {
			break
		}
		frac := pos - float64(idx)
		sample := src.Samples[idx]*(1-frac) + src.Samples[idx+1]*frac
		out[i] += sample * gain
	}
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
