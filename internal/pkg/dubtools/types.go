package dubtools

// SegmentKind 片段类型
type SegmentKind string

const (
	SegmentDialogue    SegmentKind = "dialogue"     // 对白
	SegmentSoundEffect SegmentKind = "sound_effect" // 音效
	SegmentNarration   SegmentKind = "narration"    // 旁白
	SegmentDirection   SegmentKind = "direction"    // 舞台提示
)

// DefaultSpeaker 未出现角色名时的默认说话人
const DefaultSpeaker = "Narrator"

// Segment 剧本解析后的一个原子片段
// 解析阶段创建后不再修改；任何变更（改情绪、绑定音色）都生成新的 Segment
type Segment struct {
	Kind       SegmentKind `json:"kind"`
	Speaker    string      `json:"speaker,omitempty"` // 对白/旁白必填，音效为空
	Text       string      `json:"text"`              // 待合成文本或音效描述
	Emotion    Emotion     `json:"emotion,omitempty"`
	OrderIndex int         `json:"order_index"` // 剧本中的原始序号（解析时分配）
	VoiceID    string      `json:"voice_id,omitempty"`

	// 目标时间窗（配音模式下由源脚本携带，自由创作模式下为空）
	StartTime *float64 `json:"start_time,omitempty"`
	EndTime   *float64 `json:"end_time,omitempty"`
}

// HasWindow 是否携带目标时间窗
func (s Segment) HasWindow() bool {
	return s.StartTime != nil && s.EndTime != nil && *s.EndTime > *s.StartTime
}

// WindowDuration 目标时间窗长度（秒），无窗口时为 0
func (s Segment) WindowDuration() float64 {
	if !s.HasWindow() {
		return 0
	}
	return *s.EndTime - *s.StartTime
}

// WithVoice 绑定音色，返回新片段
func (s Segment) WithVoice(voiceID string) Segment {
	s.VoiceID = voiceID
	return s
}

// AudioBuffer 单声道浮点采样缓冲
type AudioBuffer struct {
	Samples    []float64
	SampleRate int
}

// Duration 时长（秒）
func (b *AudioBuffer) Duration() float64 {
	if b == nil || b.SampleRate <= 0 {
		return 0
	}
	return float64(len(b.Samples)) / float64(b.SampleRate)
}

// RenderedSegment 片段与其合成音频的配对
// 由编排器独占持有，交给混音引擎后只读
type RenderedSegment struct {
	Segment Segment
	Audio   *AudioBuffer

	// Substituted 表示合成失败后用静音占位（时间轴对齐仍然成立）
	Substituted bool
}

// ActualDuration 合成音频的实际时长（秒）
func (r *RenderedSegment) ActualDuration() float64 {
	return r.Audio.Duration()
}
