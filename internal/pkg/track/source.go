package track

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/rs/zerolog/log"

	"mango/internal/pkg/dubtools"
	"mango/internal/pkg/storage"
)

// Source 音轨加载器，从存储读取背景/音效素材并解码为单声道采样
type Source struct {
	store storage.Storage
}

// NewSource 创建音轨加载器
func NewSource(store storage.Storage) *Source {
	return &Source{store: store}
}

// Load 下载并解码指定 key 的音频文件
func (s *Source) Load(ctx context.Context, key string) (*dubtools.AudioBuffer, error) {
	reader, err := s.store.Download(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to download track %s: %w", key, err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read track %s: %w", key, err)
	}

	buf, err := DecodeBytes(data, path.Ext(key))
	if err != nil {
		return nil, fmt.Errorf("failed to decode track %s: %w", key, err)
	}

	log.Debug().
		Str("key", key).
		Float64("duration", buf.Duration()).
		Int("sample_rate", buf.SampleRate).
		Msg("track loaded")
	return buf, nil
}

// DecodeBytes 按扩展名解码音频数据，多声道折叠为单声道
// 未识别的扩展名按裸 16bit PCM 处理
func DecodeBytes(data []byte, ext string) (*dubtools.AudioBuffer, error) {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "wav", "wave":
		return decodeWAV(data)
	case "mp3":
		return DecodeMP3(data)
	default:
		return dubtools.DecodeRawPCM(data, dubtools.RawPCMSampleRate)
	}
}

// decodeWAV 解码 WAV 文件
func decodeWAV(data []byte) (*dubtools.AudioBuffer, error) {
	decoder := wav.NewDecoder(bytes.NewReader(data))
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("invalid wav file")
	}

	pcm, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to read wav pcm: %w", err)
	}
	if pcm.Format == nil || pcm.Format.NumChannels == 0 {
		return nil, fmt.Errorf("wav file has no format info")
	}

	return &dubtools.AudioBuffer{
		Samples:    foldToMono(pcm),
		SampleRate: pcm.Format.SampleRate,
	}, nil
}

// foldToMono 把多声道整型缓冲折叠为归一化单声道采样
func foldToMono(pcm *audio.IntBuffer) []float64 {
	channels := pcm.Format.NumChannels
	scale := 1.0 / float64(int64(1)<<(uint(pcm.SourceBitDepth)-1))
	frames := len(pcm.Data) / channels

	samples := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for ch := 0; ch < channels; ch++ {
			sum += float64(pcm.Data[i*channels+ch]) * scale
		}
		samples[i] = sum / float64(channels)
	}
	return samples
}

// DecodeMP3 解码 MP3 数据（go-mp3 固定输出双声道 16bit 小端）
func DecodeMP3(data []byte) (*dubtools.AudioBuffer, error) {
	decoder, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open mp3: %w", err)
	}

	raw, err := io.ReadAll(decoder)
	if err != nil {
		return nil, fmt.Errorf("failed to decode mp3: %w", err)
	}

	// 每帧 4 字节: 左右声道各一个 int16
	frames := len(raw) / 4
	samples := make([]float64, frames)
	for i := 0; i < frames; i++ {
		left := int16(uint16(raw[i*4]) | uint16(raw[i*4+1])<<8)
		right := int16(uint16(raw[i*4+2]) | uint16(raw[i*4+3])<<8)
		samples[i] = (float64(left) + float64(right)) / 2.0 / 32767.0
	}

	return &dubtools.AudioBuffer{
		Samples:    samples,
		SampleRate: decoder.SampleRate(),
	}, nil
}
