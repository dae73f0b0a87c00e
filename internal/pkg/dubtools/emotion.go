package dubtools

import (
	"strings"
	"unicode"
)

// Emotion 规范情绪标签（封闭集合）
type Emotion string

const (
	EmotionNeutral    Emotion = "Neutral"
	EmotionHappy      Emotion = "Happy"
	EmotionSad        Emotion = "Sad"
	EmotionAngry      Emotion = "Angry"
	EmotionExcited    Emotion = "Excited"
	EmotionWhispering Emotion = "Whispering"
	EmotionShouting   Emotion = "Shouting"
	EmotionFearful    Emotion = "Fearful"
	EmotionSurprised  Emotion = "Surprised"
	EmotionSighing    Emotion = "Sighing"
	EmotionTaunting   Emotion = "Taunting"
	EmotionSarcastic  Emotion = "Sarcastic"
	EmotionSerious    Emotion = "Serious"
	EmotionCrying     Emotion = "Crying"
	EmotionLaughing   Emotion = "Laughing"
	EmotionTender     Emotion = "Tender"
)

// emotionAliases 精确名与历史别名表（键为 normalizeTagKey 归一化后的形式）
var emotionAliases = map[string]Emotion{
	"neutral":    EmotionNeutral,
	"calm":       EmotionNeutral,
	"normal":     EmotionNeutral,
	"happy":      EmotionHappy,
	"joyful":     EmotionHappy,
	"cheerful":   EmotionHappy,
	"glad":       EmotionHappy,
	"sad":        EmotionSad,
	"melancholy": EmotionSad,
	"sorrowful":  EmotionSad,
	"gloomy":     EmotionSad,
	"upset":      EmotionSad,
	"angry":      EmotionAngry,
	"furious":    EmotionAngry,
	"mad":        EmotionAngry,
	"irritated":  EmotionAngry,
	"excited":    EmotionExcited,
	"thrilled":   EmotionExcited,
	"eager":      EmotionExcited,
	"whispering": EmotionWhispering,
	"whisper":    EmotionWhispering,
	"murmuring":  EmotionWhispering,
	"hushed":     EmotionWhispering,
	"shouting":   EmotionShouting,
	"yelling":    EmotionShouting,
	"screaming":  EmotionShouting,
	"fearful":    EmotionFearful,
	"afraid":     EmotionFearful,
	"scared":     EmotionFearful,
	"terrified":  EmotionFearful,
	"nervous":    EmotionFearful,
	"surprised":  EmotionSurprised,
	"shocked":    EmotionSurprised,
	"amazed":     EmotionSurprised,
	"sighing":    EmotionSighing,
	"sigh":       EmotionSighing,
	"tired":      EmotionSighing,
	"exhausted":  EmotionSighing,
	"weary":      EmotionSighing,
	"taunting":   EmotionTaunting,
	"mocking":    EmotionTaunting,
	"teasing":    EmotionTaunting,
	"sneering":   EmotionTaunting,
	"sarcastic":  EmotionSarcastic,
	"ironic":     EmotionSarcastic,
	"dry":        EmotionSarcastic,
	"serious":    EmotionSerious,
	"stern":      EmotionSerious,
	"grave":      EmotionSerious,
	"solemn":     EmotionSerious,
	"crying":     EmotionCrying,
	"sobbing":    EmotionCrying,
	"weeping":    EmotionCrying,
	"tearful":    EmotionCrying,
	"laughing":   EmotionLaughing,
	"giggling":   EmotionLaughing,
	"chuckling":  EmotionLaughing,
	"tender":     EmotionTender,
	"gentle":     EmotionTender,
	"soft":       EmotionTender,
	"warm":       EmotionTender,
}

// emotionHeuristics 子串启发式，按优先级排列，首个命中生效
var emotionHeuristics = []struct {
	substr  string
	emotion Emotion
}{
	{"whisper", EmotionWhispering},
	{"shout", EmotionShouting},
	{"yell", EmotionShouting},
	{"scream", EmotionShouting},
	{"laugh", EmotionLaughing},
	{"giggl", EmotionLaughing},
	{"cry", EmotionCrying},
	{"sob", EmotionCrying},
	{"sigh", EmotionSighing},
	{"taunt", EmotionTaunting},
	{"mock", EmotionTaunting},
	{"sneer", EmotionTaunting},
	{"sarcas", EmotionSarcastic},
	{"angr", EmotionAngry},
	{"rage", EmotionAngry},
	{"fear", EmotionFearful},
	{"afraid", EmotionFearful},
	{"panic", EmotionFearful},
	{"surpris", EmotionSurprised},
	{"shock", EmotionSurprised},
	{"excit", EmotionExcited},
	{"happ", EmotionHappy},
	{"joy", EmotionHappy},
	{"sad", EmotionSad},
	{"sorrow", EmotionSad},
	{"tender", EmotionTender},
	{"gentle", EmotionTender},
}

// normalizeTagKey 大小写/标点无关的归一化键
func normalizeTagKey(raw string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(raw) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizeEmotion 将自由文本情绪标记映射为规范情绪
// 未命中返回 ("", false)，表示这是一个非情绪标注（如制作组标记）
func NormalizeEmotion(raw string) (Emotion, bool) {
	key := normalizeTagKey(raw)
	if key == "" {
		return "", false
	}
	if e, ok := emotionAliases[key]; ok {
		return e, true
	}
	for _, h := range emotionHeuristics {
		if strings.Contains(key, h.substr) {
			return h.emotion, true
		}
	}
	return "", false
}

// bulletGlyphs 标签块中允许剥离的首尾符号
const bulletGlyphs = "•·*->–—~ \t"

// SplitTagBlock 将标签块切分为有序去重的标记列表
// 分隔符为 , | / ; 任意一种；剥离首尾符号，丢弃空标记
// 去重按大小写无关键，保留首次出现顺序
func SplitTagBlock(raw string) []string {
	parts := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == '|' || r == '/' || r == ';' || r == '，' || r == '；'
	})

	seen := make(map[string]struct{}, len(parts))
	var out []string
	for _, p := range parts {
		token := strings.Trim(p, bulletGlyphs)
		if token == "" {
			continue
		}
		key := strings.ToLower(token)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, token)
	}
	return out
}

// ExtractEmotionAndCrewTags 将标签块拆分为主情绪、全部识别情绪与剩余制作组标记
// 主情绪为首个被识别的情绪，无命中时为 Neutral
// 三个输出均保留首次出现顺序并按归一化键去重
func ExtractEmotionAndCrewTags(raw string) (Emotion, []Emotion, []string) {
	primary := EmotionNeutral
	var emotions []Emotion
	var crew []string

	seenEmotion := make(map[Emotion]struct{})
	found := false

	for _, token := range SplitTagBlock(raw) {
		if e, ok := NormalizeEmotion(token); ok {
			if !found {
				primary = e
				found = true
			}
			if _, dup := seenEmotion[e]; !dup {
				seenEmotion[e] = struct{}{}
				emotions = append(emotions, e)
			}
			continue
		}
		crew = append(crew, token)
	}

	return primary, emotions, crew
}
