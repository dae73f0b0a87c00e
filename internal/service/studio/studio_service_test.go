package studio

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"mango/internal/config"
	"mango/internal/pkg/dubtools"
	"mango/internal/pkg/storage/local"
	voicelibRepo "mango/internal/repository/voicelib"
)

const testScript = `[SFX: thunder]
Rahul (angry): Get out of my house!
(He slams the door)
Priya (sad): Please, just listen to me.
Narrator: And so the storm began.`

// stubSynth 固定时长的合成桩
type stubSynth struct {
	fail bool
}

func (s *stubSynth) Synthesize(ctx context.Context, req dubtools.SynthesisRequest) (*dubtools.AudioBuffer, error) {
	if s.fail {
		return nil, errors.New("backend down")
	}
	return dubtools.Silence(1.5, dubtools.RawPCMSampleRate), nil
}

type stubSFX struct{}

func (s *stubSFX) Fetch(ctx context.Context, nameOrID string) (*dubtools.AudioBuffer, error) {
	return nil, dubtools.ErrSoundEffectNotFound
}

func newTestService(t *testing.T, synth dubtools.SynthesisProvider) *Service {
	t.Helper()

	store, err := local.NewLocalStorage(t.TempDir(), "http://localhost:8080/storage", 3600)
	if err != nil {
		t.Fatalf("failed to create local storage: %v", err)
	}

	cfg := &config.StudioConfig{
		Engine:     "bytedance",
		BatchSize:  3,
		Speed:      1.0,
		OutputPath: "mixdowns/",
	}

	return NewService(
		voicelibRepo.NewMemoryRepo(),
		nil,
		dubtools.NewOrchestrator(synth, &stubSFX{}),
		dubtools.NewBytedancePool(),
		store,
		cfg,
	)
}

func TestServiceSegmentAndCast(t *testing.T) {
	Convey("剧本切分与角色检出服务测试", t, func() {
		svc := newTestService(t, &stubSynth{})
		ctx := context.Background()

		Convey("切分返回片段与规范化块文本", func() {
			segments, blocks, err := svc.SegmentScript(ctx, testScript)
			So(err, ShouldBeNil)
			So(len(segments), ShouldEqual, 5)
			So(blocks, ShouldContainSubstring, "[SFX: thunder]")
			So(blocks, ShouldContainSubstring, "Rahul (Angry):")
		})

		Convey("空剧本返回错误", func() {
			_, _, err := svc.SegmentScript(ctx, "   ")
			So(err, ShouldNotBeNil)
		})

		Convey("角色检出并分配音色", func() {
			cast, err := svc.DetectCast(ctx, testScript)
			So(err, ShouldBeNil)
			// Narrator 是结构性词，不计入角色表
			So(len(cast), ShouldEqual, 2)
			So(cast[0].Speaker, ShouldEqual, "Rahul")
			So(cast[1].Speaker, ShouldEqual, "Priya")
			for _, m := range cast {
				So(m.VoiceID, ShouldNotBeEmpty)
			}

			Convey("再次检出时角色库返回相同分配", func() {
				again, err := svc.DetectCast(ctx, testScript)
				So(err, ShouldBeNil)
				So(again, ShouldResemble, cast)
			})
		})

		Convey("手工绑定压过自动分配", func() {
			So(svc.BindVoice(ctx, "Priya", "BV001_streaming"), ShouldBeNil)

			segments, _, err := svc.SegmentScript(ctx, testScript)
			So(err, ShouldBeNil)

			resolved := svc.ResolveVoices(ctx, segments, nil)
			for _, seg := range resolved {
				if seg.Speaker == "Priya" {
					So(seg.VoiceID, ShouldEqual, "BV001_streaming")
				}
			}

			Convey("空参数绑定被拒绝", func() {
				So(svc.BindVoice(ctx, "", "BV001_streaming"), ShouldNotBeNil)
				So(svc.BindVoice(ctx, "Priya", " "), ShouldNotBeNil)
			})
		})

		Convey("音色解析优先使用显式映射", func() {
			segments, _, err := svc.SegmentScript(ctx, testScript)
			So(err, ShouldBeNil)

			resolved := svc.ResolveVoices(ctx, segments, map[string]string{"Rahul": "BV056_streaming"})
			for _, seg := range resolved {
				if seg.Speaker == "Rahul" {
					So(seg.VoiceID, ShouldEqual, "BV056_streaming")
				}
				if seg.Kind != dubtools.SegmentSoundEffect {
					So(seg.VoiceID, ShouldNotBeEmpty)
				}
			}
		})
	})
}

func TestServiceGenerate(t *testing.T) {
	Convey("混音生成服务测试", t, func() {
		ctx := context.Background()

		Convey("完整流水线产出 WAV 并返回结果", func() {
			svc := newTestService(t, &stubSynth{})

			result, err := svc.Generate(ctx, &GenerateRequest{Script: testScript})
			So(err, ShouldBeNil)
			So(result.MixdownID, ShouldNotBeEmpty)
			So(strings.HasPrefix(result.ResourceKey, "mixdowns/"), ShouldBeTrue)
			So(result.Duration, ShouldBeGreaterThan, 0)
			So(result.SegmentCount, ShouldBeGreaterThan, 0)
			So(result.CastSize, ShouldEqual, 2)

			// 音效未命中会占位，产生告警
			So(len(result.Warnings), ShouldBeGreaterThan, 0)
		})

		Convey("产物是合法的 WAV 文件", func() {
			tmpDir := t.TempDir()
			store, err := local.NewLocalStorage(tmpDir, "http://localhost:8080/storage", 3600)
			So(err, ShouldBeNil)

			svc := NewService(
				voicelibRepo.NewMemoryRepo(),
				nil,
				dubtools.NewOrchestrator(&stubSynth{}, &stubSFX{}),
				dubtools.NewBytedancePool(),
				store,
				&config.StudioConfig{Engine: "bytedance", BatchSize: 3, Speed: 1.0, OutputPath: "mixdowns/"},
			)

			result, err := svc.Generate(ctx, &GenerateRequest{Script: "Rahul: Hello there."})
			So(err, ShouldBeNil)

			data, err := os.ReadFile(filepath.Join(tmpDir, result.ResourceKey))
			So(err, ShouldBeNil)
			So(len(data), ShouldBeGreaterThan, 44)
			So(string(data[0:4]), ShouldEqual, "RIFF")
			So(string(data[8:12]), ShouldEqual, "WAVE")
		})

		Convey("全部合成失败时静音占位并告警", func() {
			svc := newTestService(t, &stubSynth{fail: true})

			result, err := svc.Generate(ctx, &GenerateRequest{Script: "Rahul: Hello there."})
			So(err, ShouldBeNil)
			So(result.Warnings, ShouldNotBeEmpty)
			So(result.Duration, ShouldBeGreaterThan, 0)
		})

		Convey("取消的请求映射为取消错误", func() {
			svc := newTestService(t, &stubSynth{})

			cancelled, cancel := context.WithCancel(ctx)
			cancel()

			_, err := svc.Generate(cancelled, &GenerateRequest{Script: testScript})
			So(err, ShouldNotBeNil)
			So(errors.Is(err, ErrGenerationCancelled), ShouldBeTrue)
		})

		Convey("空剧本直接拒绝", func() {
			svc := newTestService(t, &stubSynth{})
			_, err := svc.Generate(ctx, &GenerateRequest{Script: ""})
			So(err, ShouldNotBeNil)
		})
	})
}
