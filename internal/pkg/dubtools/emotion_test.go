package dubtools

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestNormalizeEmotion(t *testing.T) {
	Convey("情绪标签归一化测试", t, func() {
		Convey("精确名与别名映射到规范情绪", func() {
			cases := map[string]Emotion{
				"angry":     EmotionAngry,
				"Furious":   EmotionAngry,
				"JOYFUL":    EmotionHappy,
				"whisper":   EmotionWhispering,
				"sobbing":   EmotionCrying,
				"gentle":    EmotionTender,
				"calm":      EmotionNeutral,
				"mocking":   EmotionTaunting,
				"shocked":   EmotionSurprised,
				"screaming": EmotionShouting,
			}
			for raw, want := range cases {
				got, ok := NormalizeEmotion(raw)
				So(ok, ShouldBeTrue)
				So(got, ShouldEqual, want)
			}
		})

		Convey("大小写和标点不影响匹配", func() {
			got, ok := NormalizeEmotion("  Whispering!! ")
			So(ok, ShouldBeTrue)
			So(got, ShouldEqual, EmotionWhispering)
		})

		Convey("子串启发式按优先级命中", func() {
			// whisper 优先级高于其它规则
			got, ok := NormalizeEmotion("whispered-softly")
			So(ok, ShouldBeTrue)
			So(got, ShouldEqual, EmotionWhispering)

			got, ok = NormalizeEmotion("half-laughing")
			So(ok, ShouldBeTrue)
			So(got, ShouldEqual, EmotionLaughing)
		})

		Convey("非情绪标注返回未命中", func() {
			_, ok := NormalizeEmotion("camera pans left")
			So(ok, ShouldBeFalse)

			_, ok = NormalizeEmotion("")
			So(ok, ShouldBeFalse)

			_, ok = NormalizeEmotion("!!!")
			So(ok, ShouldBeFalse)
		})
	})
}

func TestSplitTagBlock(t *testing.T) {
	Convey("标签块切分测试", t, func() {
		Convey("支持多种分隔符", func() {
			So(SplitTagBlock("angry, tired"), ShouldResemble, []string{"angry", "tired"})
			So(SplitTagBlock("angry|tired/slow;fast"), ShouldResemble, []string{"angry", "tired", "slow", "fast"})
			So(SplitTagBlock("生气，疲惫；缓慢"), ShouldResemble, []string{"生气", "疲惫", "缓慢"})
		})

		Convey("剥离首尾符号并丢弃空标记", func() {
			So(SplitTagBlock("• angry, * tired, ~"), ShouldResemble, []string{"angry", "tired"})
			So(SplitTagBlock(",,,"), ShouldBeNil)
		})

		Convey("大小写无关去重并保留首次出现顺序", func() {
			So(SplitTagBlock("Angry, tired, ANGRY, Tired"), ShouldResemble, []string{"Angry", "tired"})
		})
	})
}

func TestExtractEmotionAndCrewTags(t *testing.T) {
	Convey("情绪与制作组标记拆分测试", t, func() {
		Convey("首个识别到的情绪为主情绪", func() {
			primary, emotions, crew := ExtractEmotionAndCrewTags("v2-final, angry, tired")
			So(primary, ShouldEqual, EmotionAngry)
			So(emotions, ShouldResemble, []Emotion{EmotionAngry, EmotionSighing})
			So(crew, ShouldResemble, []string{"v2-final"})
		})

		Convey("无情绪命中时主情绪为 Neutral", func() {
			primary, emotions, crew := ExtractEmotionAndCrewTags("take-3, revised")
			So(primary, ShouldEqual, EmotionNeutral)
			So(emotions, ShouldBeNil)
			So(crew, ShouldResemble, []string{"take-3", "revised"})
		})

		Convey("同义词折叠到同一规范情绪后去重", func() {
			primary, emotions, _ := ExtractEmotionAndCrewTags("furious, mad, angry")
			So(primary, ShouldEqual, EmotionAngry)
			So(emotions, ShouldResemble, []Emotion{EmotionAngry})
		})
	})
}
