package dubtools

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func window(start, end float64) (*float64, *float64) {
	return &start, &end
}

func constantBuffer(seconds float64, sampleRate int, v float64) *AudioBuffer {
	buf := Silence(seconds, sampleRate)
	for i := range buf.Samples {
		buf.Samples[i] = v
	}
	return buf
}

func renderedDialogue(order int, audio *AudioBuffer, start, end *float64) RenderedSegment {
	return RenderedSegment{
		Segment: Segment{
			Kind:       SegmentDialogue,
			Speaker:    "Rahul",
			OrderIndex: order,
			StartTime:  start,
			EndTime:    end,
		},
		Audio: audio,
	}
}

func TestBuildMixPlan(t *testing.T) {
	Convey("混音计划测试", t, func() {
		settings := DefaultMixSettings()

		Convey("不带时间窗时按顺序零间隔拼接", func() {
			rendered := []RenderedSegment{
				renderedDialogue(0, Silence(2, 24000), nil, nil),
				renderedDialogue(1, Silence(3, 24000), nil, nil),
			}

			plan := BuildMixPlan(rendered, 0, settings)
			So(len(plan.Entries), ShouldEqual, 2)

			So(plan.Entries[0].Start, ShouldAlmostEqual, 0, 1e-9)
			So(plan.Entries[0].End, ShouldAlmostEqual, 2, 1e-9)
			So(plan.Entries[1].Start, ShouldAlmostEqual, 2, 1e-9)
			So(plan.Entries[1].End, ShouldAlmostEqual, 5, 1e-9)
			So(plan.Duration, ShouldAlmostEqual, 5, 1e-9)
		})

		Convey("渲染时长超窗时压缩，比例限幅到 1.4", func() {
			start, end := window(0, 6)
			rendered := []RenderedSegment{
				renderedDialogue(0, Silence(10, 24000), start, end),
			}

			plan := BuildMixPlan(rendered, 10, settings)
			So(len(plan.Entries), ShouldEqual, 1)

			// 10s 压进 6s 需要 1.667 倍速，被限幅为 1.4，实际落位 7.14s
			So(plan.Entries[0].Rate, ShouldAlmostEqual, 1.4, 1e-9)
			So(plan.Entries[0].End, ShouldAlmostEqual, 10.0/1.4, 1e-6)
		})

		Convey("渲染时长在窗内时不做任何变速", func() {
			start, end := window(1, 6)
			rendered := []RenderedSegment{
				renderedDialogue(0, Silence(2, 24000), start, end),
			}

			plan := BuildMixPlan(rendered, 10, settings)
			So(plan.Entries[0].Rate, ShouldAlmostEqual, 1.0, 1e-9)
			So(plan.Entries[0].Start, ShouldAlmostEqual, 1, 1e-9)
			So(plan.Entries[0].End, ShouldAlmostEqual, 3, 1e-9)
		})

		Convey("音效永不变速", func() {
			start, end := window(0, 1)
			rendered := []RenderedSegment{
				{
					Segment: Segment{
						Kind:       SegmentSoundEffect,
						OrderIndex: 0,
						StartTime:  start,
						EndTime:    end,
					},
					Audio: Silence(3, 24000),
				},
			}

			plan := BuildMixPlan(rendered, 10, settings)
			So(plan.Entries[0].Rate, ShouldAlmostEqual, 1.0, 1e-9)
			So(plan.Entries[0].End, ShouldAlmostEqual, 3, 1e-9)
		})

		Convey("起点越过背景总长的片段整体丢弃", func() {
			start, end := window(12, 14)
			rendered := []RenderedSegment{
				renderedDialogue(0, Silence(2, 24000), start, end),
			}

			plan := BuildMixPlan(rendered, 10, settings)
			So(len(plan.Entries), ShouldEqual, 0)
			So(plan.Duration, ShouldAlmostEqual, 10, 1e-9)
		})

		Convey("负起点夹到 0 后照常摆放与渲染", func() {
			background := constantBuffer(5, 8000, 0.5)
			start, end := window(-1, 1)
			rendered := []RenderedSegment{
				renderedDialogue(0, Silence(2, 8000), start, end),
			}

			plan := BuildMixPlan(rendered, background.Duration(), settings)
			So(len(plan.Entries), ShouldEqual, 1)
			So(plan.Entries[0].Start, ShouldAlmostEqual, 0, 1e-9)
			So(plan.Entries[0].End, ShouldAlmostEqual, 2, 1e-9)

			out, err := RenderMix(background, plan, settings)
			So(err, ShouldBeNil)
			So(out.Duration(), ShouldAlmostEqual, 5, 0.01)
		})

		Convey("终点超出背景总长时裁剪到背景末尾", func() {
			start, end := window(8, 9)
			rendered := []RenderedSegment{
				renderedDialogue(0, Silence(5, 24000), start, end),
			}

			plan := BuildMixPlan(rendered, 10, settings)
			So(plan.Entries[0].End, ShouldAlmostEqual, 10, 1e-9)
		})

		Convey("空音频片段跳过", func() {
			rendered := []RenderedSegment{
				renderedDialogue(0, &AudioBuffer{SampleRate: 24000}, nil, nil),
			}
			plan := BuildMixPlan(rendered, 0, settings)
			So(len(plan.Entries), ShouldEqual, 0)
		})
	})
}

func TestRenderMix(t *testing.T) {
	Convey("离线混音渲染测试", t, func() {
		settings := DefaultMixSettings()

		Convey("空时间轴返回错误", func() {
			_, err := RenderMix(nil, &MixPlan{}, settings)
			So(err, ShouldNotBeNil)
		})

		Convey("超长时间轴返回错误", func() {
			plan := BuildMixPlan(nil, 20000, settings)
			_, err := RenderMix(nil, plan, settings)
			So(err, ShouldNotBeNil)
		})

		Convey("输出采样率跟随背景轨", func() {
			background := constantBuffer(5, 8000, 0.5)
			rendered := []RenderedSegment{
				renderedDialogue(0, Silence(1, 24000), nil, nil),
			}

			plan := BuildMixPlan(rendered, background.Duration(), settings)
			out, err := RenderMix(background, plan, settings)
			So(err, ShouldBeNil)
			So(out.SampleRate, ShouldEqual, 8000)
			So(out.Duration(), ShouldAlmostEqual, 5, 0.01)
		})

		Convey("无背景轨时使用设置中的采样率", func() {
			rendered := []RenderedSegment{
				renderedDialogue(0, Silence(2, 24000), nil, nil),
			}
			plan := BuildMixPlan(rendered, 0, settings)

			out, err := RenderMix(nil, plan, settings)
			So(err, ShouldBeNil)
			So(out.SampleRate, ShouldEqual, 44100)
			So(out.Duration(), ShouldAlmostEqual, 2, 0.01)
		})

		Convey("人声片段期间背景被闪避", func() {
			background := constantBuffer(10, 8000, 0.8)
			start, end := window(3, 5)
			rendered := []RenderedSegment{
				renderedDialogue(0, Silence(2, 8000), start, end),
			}

			plan := BuildMixPlan(rendered, background.Duration(), settings)
			out, err := RenderMix(background, plan, settings)
			So(err, ShouldBeNil)

			// 片段中部：背景压到 DuckLevelVoice
			mid := out.Samples[4*8000]
			So(mid, ShouldAlmostEqual, 0.8*settings.DuckLevelVoice, 0.05)

			// 远离片段处：背景保持原增益
			far := out.Samples[8*8000]
			So(far, ShouldAlmostEqual, 0.8, 0.05)
		})

		Convey("音效片段的闪避比人声浅", func() {
			background := constantBuffer(10, 8000, 0.8)
			start, end := window(3, 5)
			rendered := []RenderedSegment{
				{
					Segment: Segment{
						Kind:       SegmentSoundEffect,
						OrderIndex: 0,
						StartTime:  start,
						EndTime:    end,
					},
					Audio: Silence(2, 8000),
				},
			}

			plan := BuildMixPlan(rendered, background.Duration(), settings)
			out, err := RenderMix(background, plan, settings)
			So(err, ShouldBeNil)

			mid := out.Samples[4*8000]
			So(mid, ShouldAlmostEqual, 0.8*settings.DuckLevelSFX, 0.05)
		})

		Convey("叠加后的输出被裁剪到 [-1,1]", func() {
			background := constantBuffer(4, 8000, 0.9)
			rendered := []RenderedSegment{
				renderedDialogue(0, constantBuffer(4, 8000, 0.9), nil, nil),
			}

			plan := BuildMixPlan(rendered, background.Duration(), settings)
			out, err := RenderMix(background, plan, settings)
			So(err, ShouldBeNil)

			for _, v := range out.Samples {
				if v > 1.0 || v < -1.0 {
					t.Fatalf("sample out of range: %f", v)
				}
			}
		})

		Convey("静音占位片段照常占据时间轴", func() {
			rendered := []RenderedSegment{
				{
					Segment:     Segment{Kind: SegmentDialogue, Speaker: "Rahul", OrderIndex: 0},
					Audio:       Silence(3, 24000),
					Substituted: true,
				},
			}
			plan := BuildMixPlan(rendered, 0, settings)
			So(plan.Entries[0].End, ShouldAlmostEqual, 3, 1e-9)

			out, err := RenderMix(nil, plan, settings)
			So(err, ShouldBeNil)
			So(out.Duration(), ShouldAlmostEqual, 3, 0.01)
		})
	})
}
