package dubtools

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// WAV 编解码
// 编码产出标准单声道 16bit PCM 容器（44 字节头 + 小端采样）
// 解码只保留裸 PCM 回退路径，容器解析由外部协作方负责

const (
	wavHeaderSize = 44

	// RawPCMSampleRate 裸 PCM 回退路径的默认采样率（未另行协商时）
	RawPCMSampleRate = 24000
)

// EncodeWAV 将 [-1,1] 浮点采样编码为单声道 16bit PCM WAV
func EncodeWAV(samples []float64, sampleRate int) ([]byte, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("wav encode: invalid sample rate %d", sampleRate)
	}

	dataLen := len(samples) * 2
	buf := bytes.NewBuffer(make([]byte, 0, wavHeaderSize+dataLen))

	// RIFF 头
	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(36+dataLen))
	buf.WriteString("WAVE")

	// fmt 块
	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(16))
	binary.Write(buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(buf, binary.LittleEndian, uint16(1)) // 单声道
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate*2)) // byte rate
	binary.Write(buf, binary.LittleEndian, uint16(2))            // block align
	binary.Write(buf, binary.LittleEndian, uint16(16))           // bit depth

	// data 块
	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, uint32(dataLen))

	for _, s := range samples {
		// 对称裁剪后缩放到 16bit
		clamped := math.Max(-1.0, math.Min(1.0, s))
		binary.Write(buf, binary.LittleEndian, int16(clamped*32767))
	}

	return buf.Bytes(), nil
}

// DecodeRawPCM 将裸小端 16bit PCM 字节流解释为采样缓冲
// 字节数必须为偶数；sampleRate <= 0 时使用 RawPCMSampleRate
func DecodeRawPCM(data []byte, sampleRate int) (*AudioBuffer, error) {
	if len(data)%2 != 0 {
		return nil, fmt.Errorf("raw pcm decode: odd byte length %d", len(data))
	}
	if sampleRate <= 0 {
		sampleRate = RawPCMSampleRate
	}

	samples := make([]float64, len(data)/2)
	for i := range samples {
		v := int16(binary.LittleEndian.Uint16(data[i*2:]))
		samples[i] = float64(v) / 32767.0
	}

	return &AudioBuffer{Samples: samples, SampleRate: sampleRate}, nil
}

// EncodeRawPCM 将采样缓冲编码为裸小端 16bit PCM 字节流
// 与 DecodeRawPCM 互逆（量化精度内）
func EncodeRawPCM(samples []float64) []byte {
	data := make([]byte, len(samples)*2)
	for i, v := range samples {
		if v > 1.0 {
			v = 1.0
		} else if v < -1.0 {
			v = -1.0
		}
		binary.LittleEndian.PutUint16(data[i*2:], uint16(int16(v*32767.0)))
	}
	return data
}

// Silence 生成指定时长的静音缓冲
// 所有失败回退路径统一使用这个构造器
func Silence(seconds float64, sampleRate int) *AudioBuffer {
	if seconds < 0 {
		seconds = 0
	}
	if sampleRate <= 0 {
		sampleRate = RawPCMSampleRate
	}
	n := int(math.Round(seconds * float64(sampleRate)))
	return &AudioBuffer{Samples: make([]float64, n), SampleRate: sampleRate}
}
