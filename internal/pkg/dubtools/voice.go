package dubtools

import (
	"strings"
)

// 音色解析
// 显式映射 > 角色库记忆 > 按推断性别过滤音色池后的稳定哈希回退
// 解析永不阻塞、永不失败

// Gender 从角色名推断出的性别
type Gender int

const (
	GenderUnknown Gender = iota
	GenderFemale
	GenderMale
)

func (g Gender) String() string {
	switch g {
	case GenderFemale:
		return "female"
	case GenderMale:
		return "male"
	default:
		return "unknown"
	}
}

// Voice 一个可选音色
type Voice struct {
	ID     string
	Gender Gender
}

// VoicePool 某个合成引擎可用音色集合的抽象
type VoicePool interface {
	// Engine 引擎标识
	Engine() string

	// Voices 返回指定性别的候选音色；GenderUnknown 返回全部；
	// 过滤结果为空时同样回落到全部
	Voices(g Gender) []Voice

	// Default 兜底默认音色
	Default() Voice
}

// StaticPool 静态音色池
type StaticPool struct {
	engine string
	voices []Voice
	def    Voice
}

// NewStaticPool 创建静态音色池（def 必须属于 voices）
func NewStaticPool(engine string, voices []Voice, def Voice) *StaticPool {
	return &StaticPool{engine: engine, voices: voices, def: def}
}

func (p *StaticPool) Engine() string { return p.engine }

func (p *StaticPool) Default() Voice { return p.def }

func (p *StaticPool) Voices(g Gender) []Voice {
	if g == GenderUnknown {
		return p.voices
	}
	var out []Voice
	for _, v := range p.voices {
		if v.Gender == g {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return p.voices
	}
	return out
}

// NewBytedancePool 火山引擎 openspeech 音色池
func NewBytedancePool() *StaticPool {
	voices := []Voice{
		{ID: "BV001_streaming", Gender: GenderFemale},
		{ID: "BV002_streaming", Gender: GenderMale},
		{ID: "BV005_streaming", Gender: GenderFemale},
		{ID: "BV007_streaming", Gender: GenderFemale},
		{ID: "BV033_streaming", Gender: GenderFemale},
		{ID: "BV056_streaming", Gender: GenderMale},
		{ID: "BV102_streaming", Gender: GenderMale},
		{ID: "BV113_streaming", Gender: GenderMale},
		{ID: "BV115_streaming", Gender: GenderFemale},
		{ID: "BV700_streaming", Gender: GenderFemale},
	}
	return NewStaticPool("bytedance", voices, Voice{ID: "BV115_streaming", Gender: GenderFemale})
}

// NewOpenAIPool OpenAI TTS 音色池
func NewOpenAIPool() *StaticPool {
	voices := []Voice{
		{ID: "alloy", Gender: GenderFemale},
		{ID: "echo", Gender: GenderMale},
		{ID: "fable", Gender: GenderMale},
		{ID: "onyx", Gender: GenderMale},
		{ID: "nova", Gender: GenderFemale},
		{ID: "shimmer", Gender: GenderFemale},
	}
	return NewStaticPool("openai", voices, Voice{ID: "alloy", Gender: GenderFemale})
}

// VoiceLookup 注入的角色库查询能力（按名字大小写无关）
type VoiceLookup func(speaker string) (string, bool)

// FallbackVoiceID 没有任何音色池可用时的最终兜底
const FallbackVoiceID = "BV115_streaming"

// ResolveVoice 为说话人解析音色
// 优先级：本次生成的显式映射 > 角色库记忆 > 性别过滤池内稳定哈希
func ResolveVoice(speaker string, pool VoicePool, explicit map[string]string, lookup VoiceLookup) string {
	if explicit != nil {
		if v, ok := explicit[speaker]; ok && v != "" {
			return v
		}
		for k, v := range explicit {
			if v != "" && strings.EqualFold(k, speaker) {
				return v
			}
		}
	}

	if lookup != nil {
		if v, ok := lookup(speaker); ok && v != "" {
			return v
		}
	}

	if pool == nil {
		return FallbackVoiceID
	}

	candidates := pool.Voices(InferGender(speaker))
	if len(candidates) == 0 {
		return pool.Default().ID
	}

	h := nameHash(speaker)
	if h < 0 {
		h = -h
	}
	return candidates[h%len(candidates)].ID
}

// femaleIndicators / maleIndicators 拉丁性别指示词（整词，小写）
var femaleIndicators = map[string]struct{}{
	"mrs": {}, "ms": {}, "miss": {}, "lady": {}, "madam": {}, "queen": {},
	"princess": {}, "aunt": {}, "girl": {}, "woman": {}, "mother": {},
	"mom": {}, "sister": {}, "grandma": {}, "daughter": {},
}

var maleIndicators = map[string]struct{}{
	"mr": {}, "sir": {}, "lord": {}, "king": {}, "prince": {}, "uncle": {},
	"boy": {}, "man": {}, "father": {}, "dad": {}, "brother": {},
	"grandpa": {}, "son": {}, "captain": {},
}

// 中文称谓没有分词边界，按子串匹配整个名字
var femaleCJKIndicators = []string{
	"小姐", "夫人", "姑娘", "女士", "阿姨", "奶奶",
	"妈妈", "姐姐", "妹妹", "女王", "公主",
}

var maleCJKIndicators = []string{
	"先生", "大叔", "爷爷", "爸爸", "哥哥", "弟弟",
	"国王", "王子", "老爷",
}

// 中文名字常见性别尾字
var (
	femaleNameRunes = "娜丽莉芳婷雪梅兰娟燕婉妍琳莹菲霞芬媛姗"
	maleNameRunes   = "强伟军刚龙涛峰磊勇斌杰鹏飞虎彪"
)

// InferGender 从说话人名推断性别
// 先查双语指示词（拉丁整词、中文子串），再看词尾的元音/辅音及中文尾字模式
func InferGender(name string) Gender {
	lowered := strings.ToLower(strings.TrimSpace(name))
	if lowered == "" {
		return GenderUnknown
	}

	for _, word := range strings.FieldsFunc(lowered, func(r rune) bool {
		return r == ' ' || r == '.' || r == '_' || r == '-'
	}) {
		if _, ok := femaleIndicators[word]; ok {
			return GenderFemale
		}
		if _, ok := maleIndicators[word]; ok {
			return GenderMale
		}
	}

	for _, ind := range femaleCJKIndicators {
		if strings.Contains(lowered, ind) {
			return GenderFemale
		}
	}
	for _, ind := range maleCJKIndicators {
		if strings.Contains(lowered, ind) {
			return GenderMale
		}
	}

	runes := []rune(lowered)
	last := runes[len(runes)-1]

	if strings.ContainsRune(femaleNameRunes, last) {
		return GenderFemale
	}
	if strings.ContainsRune(maleNameRunes, last) {
		return GenderMale
	}

	// 拉丁名词尾启发：元音结尾多为女性名（Priya/Sona/Julie），
	// 辅音结尾多为男性名（Rahul/Tom）
	switch last {
	case 'a', 'e', 'i':
		return GenderFemale
	}
	if last >= 'b' && last <= 'z' {
		return GenderMale
	}

	return GenderUnknown
}

// nameHash 说话人名的稳定非加密哈希
// 字符码累加，左移减自身组合；同名在同一音色池内永远得到同一回退音色
func nameHash(name string) int {
	var h int32
	for _, r := range name {
		h = int32(r) + (h << 5) - h
	}
	return int(h)
}
