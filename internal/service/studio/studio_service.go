package studio

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"mango/internal/config"
	"mango/internal/pkg/dubtools"
	"mango/internal/pkg/storage"
	"mango/internal/pkg/track"
	mixdownRepo "mango/internal/repository/mixdown"
	voicelibRepo "mango/internal/repository/voicelib"
)

// Service 配音工作台服务
// 用途：剧本切分、角色音色分配、批量合成与离线混音
type Service struct {
	voiceRepo    voicelibRepo.Repository
	mixdownRepo  mixdownRepo.Repository
	orchestrator *dubtools.Orchestrator
	pool         dubtools.VoicePool
	tracks       *track.Source
	storage      storage.Storage
	cfg          *config.StudioConfig
}

// NewService 创建配音工作台服务
// voiceRepo 与 mixdownRepo 可为 nil（未配置 MongoDB 时退化为无持久化）
func NewService(
	voiceRepo voicelibRepo.Repository,
	mixdownRepo mixdownRepo.Repository,
	orchestrator *dubtools.Orchestrator,
	pool dubtools.VoicePool,
	store storage.Storage,
	cfg *config.StudioConfig,
) *Service {
	return &Service{
		voiceRepo:    voiceRepo,
		mixdownRepo:  mixdownRepo,
		orchestrator: orchestrator,
		pool:         pool,
		tracks:       track.NewSource(store),
		storage:      store,
		cfg:          cfg,
	}
}

// SegmentScript 将原始剧本切分为结构化片段
// 同时返回规范化的块文本，便于前端预览
func (s *Service) SegmentScript(ctx context.Context, script string) ([]dubtools.Segment, string, error) {
	if strings.TrimSpace(script) == "" {
		return nil, "", fmt.Errorf("script is required")
	}
	segments := dubtools.ParseScript(script)
	return segments, dubtools.SerializeBlocks(segments), nil
}

// CastMember 检出的一个角色及其分配结果
type CastMember struct {
	Speaker string `json:"speaker"`
	Gender  string `json:"gender"`
	VoiceID string `json:"voice_id"`
}

// DetectCast 扫描剧本角色表并为每个角色分配音色
// 配置了音色库时把分配结果落库，后续生成保持一致
func (s *Service) DetectCast(ctx context.Context, script string) ([]CastMember, error) {
	if strings.TrimSpace(script) == "" {
		return nil, fmt.Errorf("script is required")
	}

	names := dubtools.DetectCast(script)
	members := make([]CastMember, 0, len(names))

	for _, name := range names {
		voiceID := dubtools.ResolveVoice(name, s.pool, nil, s.voiceLookup(ctx))
		members = append(members, CastMember{
			Speaker: name,
			Gender:  dubtools.InferGender(name).String(),
			VoiceID: voiceID,
		})

		if s.voiceRepo != nil {
			if err := s.voiceRepo.Upsert(ctx, name, voiceID, s.pool.Engine()); err != nil {
				log.Warn().Err(err).Str("speaker", name).Msg("failed to persist voice binding")
			}
		}
	}

	return members, nil
}

// ResolveVoices 为片段填充音色ID
// 优先级：请求内显式映射 > 音色库 > 角色名哈希兜底
func (s *Service) ResolveVoices(
	ctx context.Context,
	segments []dubtools.Segment,
	overrides map[string]string,
) []dubtools.Segment {
	lookup := s.voiceLookup(ctx)

	out := make([]dubtools.Segment, len(segments))
	for i, seg := range segments {
		if seg.Kind == dubtools.SegmentSoundEffect || seg.Kind == dubtools.SegmentDirection {
			out[i] = seg
			continue
		}
		out[i] = seg.WithVoice(dubtools.ResolveVoice(seg.Speaker, s.pool, overrides, lookup))
	}
	return out
}

// ListVoices 返回当前引擎音色池的全部候选
func (s *Service) ListVoices(ctx context.Context) []CastMember {
	voices := s.pool.Voices(dubtools.GenderUnknown)
	out := make([]CastMember, 0, len(voices))
	for _, v := range voices {
		out = append(out, CastMember{
			Gender:  v.Gender.String(),
			VoiceID: v.ID,
		})
	}
	return out
}

// BindVoice 手工绑定角色到指定音色（压过自动分配）
func (s *Service) BindVoice(ctx context.Context, speaker, voiceID string) error {
	if strings.TrimSpace(speaker) == "" || strings.TrimSpace(voiceID) == "" {
		return fmt.Errorf("speaker and voice_id are required")
	}
	if s.voiceRepo == nil {
		return fmt.Errorf("voice library is not configured")
	}
	return s.voiceRepo.Upsert(ctx, speaker, voiceID, s.pool.Engine())
}

// voiceLookup 把音色库仓储适配成 dubtools.VoiceLookup
// 查询限定在当前引擎的绑定内；未配置仓储时返回 nil，解析器跳过这一层
func (s *Service) voiceLookup(ctx context.Context) dubtools.VoiceLookup {
	if s.voiceRepo == nil {
		return nil
	}
	return func(speaker string) (string, bool) {
		voiceID, ok, err := s.voiceRepo.Lookup(ctx, speaker, s.pool.Engine())
		if err != nil {
			log.Warn().Err(err).Str("speaker", speaker).Msg("voice library lookup failed")
			return "", false
		}
		return voiceID, ok
	}
}
