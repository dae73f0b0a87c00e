package studio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	studioModel "mango/internal/model/studio"
	"mango/internal/pkg/dubtools"
	"mango/internal/pkg/id"
)

// ErrGenerationCancelled 调用方在合成过程中取消了请求
var ErrGenerationCancelled = errors.New("generation cancelled")

// GenerateRequest 一次完整混音生成的参数
type GenerateRequest struct {
	Script        string                `json:"script"`
	BackgroundKey string                `json:"background_key,omitempty"` // 背景轨在存储中的 key，可选
	VoiceMap      map[string]string     `json:"voice_map,omitempty"`      // 角色名到音色ID的显式映射
	Speed         float64               `json:"speed,omitempty"`          // 语速比例，默认取配置
	BatchSize     int                   `json:"batch_size,omitempty"`     // 合成批大小，默认取配置
	Mix           *dubtools.MixSettings `json:"mix,omitempty"`            // 混音参数，省略时用默认值
}

// GenerateResult 混音生成结果
type GenerateResult struct {
	MixdownID    string   `json:"mixdown_id"`
	ResourceKey  string   `json:"resource_key"`
	DownloadURL  string   `json:"download_url,omitempty"`
	Duration     float64  `json:"duration"`
	SampleRate   int      `json:"sample_rate"`
	SegmentCount int      `json:"segment_count"`
	CastSize     int      `json:"cast_size"`
	Warnings     []string `json:"warnings,omitempty"`
}

// Generate 执行完整流水线：切分 -> 分配音色 -> 批量合成 -> 时间轴拟合 -> 离线混音 -> 落库
func (s *Service) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResult, error) {
	segments, _, err := s.SegmentScript(ctx, req.Script)
	if err != nil {
		return nil, err
	}
	if len(segments) == 0 {
		return nil, fmt.Errorf("script produced no segments")
	}

	cast, err := s.DetectCast(ctx, req.Script)
	if err != nil {
		return nil, err
	}

	segments = s.ResolveVoices(ctx, segments, req.VoiceMap)

	speed := req.Speed
	if speed <= 0 {
		speed = s.cfg.Speed
	}
	batchSize := req.BatchSize
	if batchSize == 0 {
		batchSize = s.cfg.BatchSize
	}

	rendered, err := s.orchestrator.SynthesizeAll(ctx, segments, dubtools.SynthesisSettings{
		Speed:     speed,
		BatchSize: batchSize,
		ToneHints: s.cfg.ToneHints,
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", ErrGenerationCancelled, err)
		}
		return nil, err
	}

	var warnings []string
	substituted := 0
	for _, r := range rendered {
		if r.Substituted {
			substituted++
		}
	}
	if substituted > 0 {
		warnings = append(warnings, fmt.Sprintf("%d of %d segments fell back to silence", substituted, len(rendered)))
	}

	var background *dubtools.AudioBuffer
	backgroundDuration := 0.0
	if req.BackgroundKey != "" {
		background, err = s.tracks.Load(ctx, req.BackgroundKey)
		if err != nil {
			return nil, err
		}
		backgroundDuration = background.Duration()
	}

	mixSettings := dubtools.DefaultMixSettings()
	if req.Mix != nil {
		mixSettings = *req.Mix
	}

	plan := dubtools.BuildMixPlan(rendered, backgroundDuration, mixSettings)
	if len(plan.Entries) == 0 {
		if background == nil {
			return nil, fmt.Errorf("nothing to mix: no renderable segments and no background track")
		}
		warnings = append(warnings, "no segments placed on timeline, output is background only")
	}

	mixed, err := dubtools.RenderMix(background, plan, mixSettings)
	if err != nil {
		return nil, err
	}

	wavData, err := dubtools.EncodeWAV(mixed.Samples, mixed.SampleRate)
	if err != nil {
		return nil, err
	}

	mixdownID := id.New()
	resourceKey := fmt.Sprintf("%s%s.wav", s.cfg.OutputPath, mixdownID)
	if _, err := s.storage.Upload(ctx, resourceKey, bytes.NewReader(wavData), "audio/wav"); err != nil {
		return nil, fmt.Errorf("failed to upload mixdown: %w", err)
	}

	downloadURL, urlErr := s.storage.GetPresignedDownloadURL(ctx, resourceKey, 24*time.Hour)
	if urlErr != nil {
		log.Warn().Err(urlErr).Str("key", resourceKey).Msg("failed to presign mixdown url")
	}

	result := &GenerateResult{
		MixdownID:    mixdownID,
		ResourceKey:  resourceKey,
		DownloadURL:  downloadURL,
		Duration:     mixed.Duration(),
		SampleRate:   mixed.SampleRate,
		SegmentCount: len(plan.Entries),
		CastSize:     len(cast),
		Warnings:     warnings,
	}

	if s.mixdownRepo != nil {
		record := &studioModel.Mixdown{
			ID:           mixdownID,
			ResourceKey:  resourceKey,
			Duration:     result.Duration,
			SampleRate:   result.SampleRate,
			SegmentCount: result.SegmentCount,
			CastSize:     result.CastSize,
			Engine:       s.pool.Engine(),
			Warnings:     warnings,
			CreatedAt:    time.Now(),
		}
		if err := s.mixdownRepo.Create(ctx, record); err != nil {
			log.Warn().Err(err).Str("mixdown_id", mixdownID).Msg("failed to persist mixdown record")
		}
	}

	log.Info().
		Str("mixdown_id", mixdownID).
		Float64("duration", result.Duration).
		Int("segments", result.SegmentCount).
		Int("substituted", substituted).
		Msg("mixdown generated")

	return result, nil
}

// GetMixdown 查询历史混音记录
func (s *Service) GetMixdown(ctx context.Context, mixdownID string) (*studioModel.Mixdown, error) {
	if s.mixdownRepo == nil {
		return nil, fmt.Errorf("mixdown repository is not configured")
	}
	return s.mixdownRepo.FindByID(ctx, mixdownID)
}

// ListMixdowns 按时间倒序列出历史混音记录
func (s *Service) ListMixdowns(ctx context.Context, limit int64) ([]*studioModel.Mixdown, error) {
	if s.mixdownRepo == nil {
		return nil, fmt.Errorf("mixdown repository is not configured")
	}
	return s.mixdownRepo.List(ctx, limit)
}
