package dubtools

import (
	"regexp"
	"strings"
)

// 行级词法分析
// 将剧本的每一行归类为一个 token，匹配规则集中在这里，独立于解析状态机可测

// lineKind 行 token 类型
type lineKind int

const (
	lineBlank lineKind = iota
	lineSoundEffect
	lineDirection
	lineSpeaker
	linePlain
)

// lineToken 一行的词法结果
type lineToken struct {
	kind lineKind

	// lineSoundEffect / lineDirection
	desc string

	// lineSpeaker
	speaker string
	tag     string // 括号内的情绪/标注块，可能为空
	text    string // 冒号后的对白，可能为空

	// linePlain
	parenWrapped bool   // 整行被圆括号包裹
	inner        string // parenWrapped 时去掉括号后的内容

	raw string
}

var (
	// 音效行：括号/方括号包裹，SFX/Sound/Music 前缀（大小写无关）
	soundEffectPattern = regexp.MustCompile(
		`(?i)^\s*[\[(（【]\s*(?:SFX|SOUND|MUSIC|音效|音乐)\s*[:：-]?\s*(.+?)\s*[\])）】]\s*$`)

	// 说话人行：可选前置方括号标注，可选强调符号，大写开头的 1-25 字符名字
	// （字母/数字/空格/./_/-），可选括号情绪块，半角或全角冒号，对白文本
	speakerPattern = regexp.MustCompile(
		`^\s*(?:\[[^\]]*\]\s*)?[*_]{0,2}([A-Z][A-Za-z0-9 ._-]{0,24})[*_]{0,2}\s*(?:[(（]([^)）]*)[)）])?\s*[:：](.*)$`)
)

// lexLine 对单行做词法归类
func lexLine(raw string) lineToken {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return lineToken{kind: lineBlank, raw: raw}
	}

	if m := soundEffectPattern.FindStringSubmatch(trimmed); m != nil {
		return lineToken{kind: lineSoundEffect, desc: strings.TrimSpace(m[1]), raw: raw}
	}

	// 非音效的方括号整包裹行是舞台指示
	if inner, ok := stripBracketWrap(trimmed); ok {
		return lineToken{kind: lineDirection, desc: inner, raw: raw}
	}

	if m := speakerPattern.FindStringSubmatch(trimmed); m != nil {
		return lineToken{
			kind:    lineSpeaker,
			speaker: strings.TrimSpace(m[1]),
			tag:     strings.TrimSpace(m[2]),
			text:    strings.TrimSpace(m[3]),
			raw:     raw,
		}
	}

	tok := lineToken{kind: linePlain, raw: raw}
	if inner, ok := stripParenWrap(trimmed); ok {
		tok.parenWrapped = true
		tok.inner = inner
	}
	return tok
}

// stripParenWrap 整行被一对圆括号完整包裹时返回内部文本
func stripParenWrap(s string) (string, bool) {
	r := []rune(s)
	if len(r) < 2 {
		return "", false
	}
	opened := r[0] == '(' || r[0] == '（'
	closed := r[len(r)-1] == ')' || r[len(r)-1] == '）'
	if !opened || !closed {
		return "", false
	}
	inner := strings.TrimSpace(string(r[1 : len(r)-1]))
	// 内部再出现闭括号说明不是完整包裹（如 "(aside) he said"）
	if strings.ContainsAny(inner, ")）") {
		return "", false
	}
	return inner, true
}

// stripBracketWrap 整行被一对方括号完整包裹时返回内部文本
func stripBracketWrap(s string) (string, bool) {
	r := []rune(s)
	if len(r) < 2 {
		return "", false
	}
	opened := r[0] == '[' || r[0] == '【'
	closed := r[len(r)-1] == ']' || r[len(r)-1] == '】'
	if !opened || !closed {
		return "", false
	}
	inner := strings.TrimSpace(string(r[1 : len(r)-1]))
	if strings.ContainsAny(inner, "]】") {
		return "", false
	}
	return inner, true
}

// matchSpeakerName 返回该行匹配到的说话人名（无匹配时为空串）
// 供选角扫描使用，与片段发射逻辑解耦
func matchSpeakerName(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	if soundEffectPattern.MatchString(trimmed) {
		return ""
	}
	if m := speakerPattern.FindStringSubmatch(trimmed); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}
