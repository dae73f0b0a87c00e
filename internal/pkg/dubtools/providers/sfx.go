package providers

import (
	"context"
	"strings"
	"unicode"

	"mango/internal/pkg/dubtools"
	"mango/internal/pkg/storage"
	"mango/internal/pkg/track"
)

// StorageSoundEffectProvider 存储后端的预渲染音效库
// 按规范化的音效名在固定前缀下查找 wav 文件
// 实现了 dubtools.SoundEffectProvider 接口
type StorageSoundEffectProvider struct {
	source *track.Source
	store  storage.Storage
	prefix string
}

// NewStorageSoundEffectProvider 创建存储音效提供者
//
// Args:
//   - store: 存储实例
//   - prefix: 音效文件的 key 前缀，如 "sfx/"
func NewStorageSoundEffectProvider(store storage.Storage, prefix string) *StorageSoundEffectProvider {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &StorageSoundEffectProvider{
		source: track.NewSource(store),
		store:  store,
		prefix: prefix,
	}
}

// Fetch 查找并解码一条音效，未命中返回 dubtools.ErrSoundEffectNotFound
func (p *StorageSoundEffectProvider) Fetch(
	ctx context.Context,
	nameOrID string,
) (*dubtools.AudioBuffer, error) {
	key := p.prefix + normalizeEffectName(nameOrID) + ".wav"

	exists, err := p.store.Exists(ctx, key)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, dubtools.ErrSoundEffectNotFound
	}

	return p.source.Load(ctx, key)
}

// normalizeEffectName 把音效描述归一为存储 key 片段
// 小写化，连续的非字母数字折叠为单个下划线
func normalizeEffectName(name string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
		} else {
			pendingSep = true
		}
	}
	return b.String()
}
