package providers

import (
	"context"
	"fmt"

	"mango/internal/pkg/dubtools"
	"mango/internal/pkg/track"
	"mango/internal/pkg/tts"
)

// ByteDanceTTSProvider 字节跳动 TTS 提供者（使用 pkg/tts 的 Client）
// 实现了 dubtools.SynthesisProvider 接口
type ByteDanceTTSProvider struct {
	client *tts.Client
}

// NewByteDanceTTSProvider 创建基于 TTS 的提供者
//
// Args:
//   - client: TTS 客户端实例（通过 tts.NewClient 创建）
//
// Returns:
//   - *ByteDanceTTSProvider: TTS 提供者实例
func NewByteDanceTTSProvider(client *tts.Client) *ByteDanceTTSProvider {
	return &ByteDanceTTSProvider{
		client: client,
	}
}

// Synthesize 合成一段文本并解码为单声道采样
// 实现了 dubtools.SynthesisProvider 接口
func (p *ByteDanceTTSProvider) Synthesize(
	ctx context.Context,
	req dubtools.SynthesisRequest,
) (*dubtools.AudioBuffer, error) {
	if p.client == nil {
		return nil, fmt.Errorf("TTS client is required")
	}

	result, err := p.client.Synthesize(ctx, req.Text, req.VoiceID, req.Speed)
	if err != nil {
		return nil, err
	}

	switch result.Encoding {
	case "pcm":
		return dubtools.DecodeRawPCM(result.AudioData, result.SampleRate)
	case "mp3":
		return track.DecodeMP3(result.AudioData)
	default:
		return nil, fmt.Errorf("unsupported TTS encoding: %s", result.Encoding)
	}
}
