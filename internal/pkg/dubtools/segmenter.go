package dubtools

import (
	"fmt"
	"strings"
)

// 剧本切分器
// 逐行消费词法 token，说话人/情绪作为显式累加器状态随单次遍历传递

// parseState 单次解析的折叠状态
type parseState struct {
	speaker    string
	emotion    Emotion
	hasEmotion bool
}

// currentEmotion 当前情绪，未设置时回落到 Neutral
func (st parseState) currentEmotion() Emotion {
	if !st.hasEmotion {
		return EmotionNeutral
	}
	return st.emotion
}

// ParseScript 将带标注的自由文本解析为有序片段列表
//
// 规则：
//  1. 空行跳过
//  2. 音效行发射 SoundEffect 片段，不改变说话人/情绪状态
//  3. 其余方括号整包裹行发射 Direction 片段（舞台指示，不进合成）
//  4. 说话人行更新状态；冒号后有文本时发射 Dialogue 片段
//  5. 其余行为续行：整行圆括号包裹发射 Narration（情绪 Neutral），
//     否则发射携带当前说话人/情绪的 Dialogue（每行独立成段，不合并）
func ParseScript(raw string) []Segment {
	st := parseState{speaker: DefaultSpeaker}
	var segments []Segment

	emit := func(seg Segment) {
		seg.OrderIndex = len(segments)
		segments = append(segments, seg)
	}

	for _, line := range strings.Split(raw, "\n") {
		tok := lexLine(line)

		switch tok.kind {
		case lineBlank:
			continue

		case lineSoundEffect:
			emit(Segment{
				Kind:    SegmentSoundEffect,
				Text:    tok.desc,
				Emotion: EmotionNeutral,
			})

		case lineDirection:
			emit(Segment{
				Kind:    SegmentDirection,
				Text:    tok.desc,
				Emotion: EmotionNeutral,
			})

		case lineSpeaker:
			st.speaker = tok.speaker
			if tok.tag != "" {
				primary, _, _ := ExtractEmotionAndCrewTags(tok.tag)
				st.emotion = primary
				st.hasEmotion = true
			}
			if tok.text != "" {
				emit(Segment{
					Kind:    SegmentDialogue,
					Speaker: st.speaker,
					Text:    tok.text,
					Emotion: st.currentEmotion(),
				})
			}

		case linePlain:
			if tok.parenWrapped {
				emit(Segment{
					Kind:    SegmentNarration,
					Speaker: st.speaker,
					Text:    tok.inner,
					Emotion: EmotionNeutral,
				})
				continue
			}
			emit(Segment{
				Kind:    SegmentDialogue,
				Speaker: st.speaker,
				Text:    strings.TrimSpace(tok.raw),
				Emotion: st.currentEmotion(),
			})
		}
	}

	return segments
}

// castIgnoreWords 选角扫描排除的结构性词（小写）
var castIgnoreWords = map[string]struct{}{
	"chapter":   {},
	"scene":     {},
	"narrator":  {},
	"sfx":       {},
	"sound":     {},
	"music":     {},
	"act":       {},
	"note":      {},
	"title":     {},
	"int":       {},
	"ext":       {},
	"cut":       {},
	"fade":      {},
	"prologue":  {},
	"epilogue":  {},
	"the end":   {},
	"everyone":  {},
	"all":       {},
	"voiceover": {},
}

const (
	castMaxNameLength = 40
	castMaxNameWords  = 5
)

// DetectCast 扫描全文收集出现过的说话人名（去重，保留首次出现顺序）
// 与片段发射无关，先于生成流程运行，用于角色自动注册
func DetectCast(raw string) []string {
	seen := make(map[string]struct{})
	var cast []string

	for _, line := range strings.Split(raw, "\n") {
		name := matchSpeakerName(line)
		if name == "" {
			continue
		}
		if !validCastName(name) {
			continue
		}
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		cast = append(cast, name)
	}

	return cast
}

func validCastName(name string) bool {
	if len([]rune(name)) > castMaxNameLength {
		return false
	}
	if _, ignored := castIgnoreWords[strings.ToLower(name)]; ignored {
		return false
	}
	if isAllDigits(name) {
		return false
	}
	if len(strings.Fields(name)) > castMaxNameWords {
		return false
	}
	return true
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// SerializeBlocks 把片段列表序列化回剧本文本
// 结构化编辑的无损往返保证：序列化后再解析得到等价片段列表
// （类型、说话人、情绪、文本、顺序一致），撤销/重做与外部编辑合并依赖这一点
func SerializeBlocks(segments []Segment) string {
	var b strings.Builder
	for i, seg := range segments {
		if i > 0 {
			b.WriteByte('\n')
		}
		switch seg.Kind {
		case SegmentSoundEffect:
			fmt.Fprintf(&b, "[SFX: %s]", seg.Text)
		case SegmentNarration:
			fmt.Fprintf(&b, "(%s)", seg.Text)
		case SegmentDirection:
			fmt.Fprintf(&b, "[%s]", seg.Text)
		default:
			fmt.Fprintf(&b, "%s (%s): %s", seg.Speaker, seg.Emotion, seg.Text)
		}
	}
	return b.String()
}
