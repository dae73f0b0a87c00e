package tts

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"mango/internal/config"
	"mango/internal/pkg/id"
)

// Client 火山引擎 openspeech TTS 客户端封装
// 参考: https://openspeech.bytedance.com/api/v1/tts
type Client struct {
	apiURL      string
	accessToken string
	appID       string
	cluster     string
	encoding    string
	sampleRate  int
	httpClient  *http.Client
}

// SynthesisError 合成后端最终失败（配额/超时/网络/模型故障）
// 后端可能已在内部按模型优先级重试过
type SynthesisError struct {
	Code    int
	Message string
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("synthesis failed: %s (code: %d)", e.Message, e.Code)
}

// NewClient 创建 TTS 客户端
func NewClient(cfg *config.TTSConfig) (*Client, error) {
	if cfg.AccessToken == "" {
		return nil, fmt.Errorf("TTS access token is required")
	}

	apiURL := cfg.APIURL
	if apiURL == "" {
		apiURL = "https://openspeech.bytedance.com/api/v1/tts"
	}

	cluster := cfg.Cluster
	if cluster == "" {
		cluster = "volcano_tts"
	}

	encoding := cfg.Encoding
	if encoding == "" {
		encoding = "mp3"
	}

	sampleRate := cfg.SampleRate
	if sampleRate == 0 {
		sampleRate = 24000
	}

	return &Client{
		apiURL:      apiURL,
		accessToken: cfg.AccessToken,
		appID:       cfg.AppID,
		cluster:     cluster,
		encoding:    encoding,
		sampleRate:  sampleRate,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}, nil
}

// Result 一次合成的原始返回
type Result struct {
	AudioData  []byte  // 音频数据（按 Encoding 编码）
	Encoding   string  // mp3 或 pcm（裸 16bit 小端）
	SampleRate int     // 请求时协商的采样率
	Duration   float64 // 后端报告的音频时长（秒），可能为 0
}

// Synthesize 合成一段文本
// voiceType 为本次调用使用的音色；speedRatio 为语速比例（1.0 为原速）
func (c *Client) Synthesize(
	ctx context.Context,
	text string,
	voiceType string,
	speedRatio float64,
) (*Result, error) {
	requestID := id.New()
	reqBody, err := json.Marshal(c.buildRequestConfig(text, voiceType, requestID, speedRatio))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer; %s", c.accessToken))
	req.Header.Set("Content-Type", "application/json")

	log.Debug().
		Str("request_id", requestID).
		Str("voice_type", voiceType).
		Int("text_len", len(text)).
		Msg("sending TTS request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &SynthesisError{
			Code:    resp.StatusCode,
			Message: fmt.Sprintf("API request failed, body: %s", truncate(respBody, 200)),
		}
	}

	var apiResp map[string]interface{}
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w", err)
	}

	// code 3000 表示成功
	code, _ := apiResp["code"].(float64)
	if code != 3000 {
		message, _ := apiResp["message"].(string)
		if message == "" {
			message = "unknown error"
		}
		return nil, &SynthesisError{Code: int(code), Message: message}
	}

	audioDataBase64, ok := apiResp["data"].(string)
	if !ok {
		return nil, &SynthesisError{Code: int(code), Message: "audio data not found in response"}
	}

	audioData, err := base64.StdEncoding.DecodeString(audioDataBase64)
	if err != nil {
		return nil, fmt.Errorf("failed to decode audio data: %w", err)
	}

	return &Result{
		AudioData:  audioData,
		Encoding:   c.encoding,
		SampleRate: c.sampleRate,
		Duration:   parseDuration(apiResp),
	}, nil
}

// buildRequestConfig 构建请求配置
func (c *Client) buildRequestConfig(
	text, voiceType, requestID string,
	speedRatio float64,
) map[string]interface{} {
	appConfig := map[string]interface{}{
		"token":   c.accessToken,
		"cluster": c.cluster,
	}
	if c.appID != "" {
		appConfig["appid"] = c.appID
	}

	audioConfig := map[string]interface{}{
		"voice_type":   voiceType,
		"encoding":     c.encoding,
		"rate":         c.sampleRate,
		"speed_ratio":  speedRatio,
		"volume_ratio": 1.0,
		"pitch_ratio":  1.0,
	}

	requestConfig := map[string]interface{}{
		"reqid":     requestID,
		"text":      text,
		"text_type": "plain",
		"operation": "query",
	}

	return map[string]interface{}{
		"app":     appConfig,
		"user":    map[string]interface{}{"uid": requestID},
		"audio":   audioConfig,
		"request": requestConfig,
	}
}

// parseDuration 从 addition 字段读取后端报告的时长（毫秒转秒）
func parseDuration(apiResp map[string]interface{}) float64 {
	addition, ok := apiResp["addition"].(map[string]interface{})
	if !ok {
		return 0
	}
	if s, ok := addition["duration"].(string); ok {
		if parsed, err := strconv.ParseFloat(s, 64); err == nil {
			return parsed / 1000.0
		}
	}
	if n, ok := addition["duration"].(float64); ok {
		return n / 1000.0
	}
	return 0
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
