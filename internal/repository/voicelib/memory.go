package voicelib

import (
	"context"
	"sort"
	"sync"
	"time"

	"mango/internal/model/voicelib"
	"mango/internal/pkg/id"
)

// MemoryRepo 内存角色库（测试与未配置 MongoDB 的部署）
// 键为 (speaker_key, engine)，与 mongo 实现的唯一索引一致
type MemoryRepo struct {
	mu       sync.RWMutex
	bindings map[bindingKey]*voicelib.VoiceBinding
}

type bindingKey struct {
	speakerKey string
	engine     string
}

// NewMemoryRepo 创建内存角色库
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{bindings: make(map[bindingKey]*voicelib.VoiceBinding)}
}

func (r *MemoryRepo) Lookup(ctx context.Context, speaker, engine string) (string, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	key := bindingKey{voicelib.NormalizeSpeakerKey(speaker), engine}
	if b, ok := r.bindings[key]; ok {
		return b.VoiceID, true, nil
	}
	return "", false, nil
}

func (r *MemoryRepo) Upsert(ctx context.Context, speaker, voiceID, engine string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	key := bindingKey{voicelib.NormalizeSpeakerKey(speaker), engine}
	if b, ok := r.bindings[key]; ok {
		b.VoiceID = voiceID
		b.UpdatedAt = now
		return nil
	}
	r.bindings[key] = &voicelib.VoiceBinding{
		ID:         id.New(),
		Speaker:    speaker,
		SpeakerKey: key.speakerKey,
		VoiceID:    voiceID,
		Engine:     engine,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	return nil
}

func (r *MemoryRepo) List(ctx context.Context) ([]*voicelib.VoiceBinding, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*voicelib.VoiceBinding, 0, len(r.bindings))
	for _, b := range r.bindings {
		copied := *b
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}
