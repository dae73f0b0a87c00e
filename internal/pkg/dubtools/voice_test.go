package dubtools

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestInferGender(t *testing.T) {
	Convey("说话人性别推断测试", t, func() {
		Convey("双语指示词整词命中", func() {
			So(InferGender("Mrs Sharma"), ShouldEqual, GenderFemale)
			So(InferGender("Lady Macbeth"), ShouldEqual, GenderFemale)
			So(InferGender("Mr. Kapoor"), ShouldEqual, GenderMale)
			So(InferGender("Captain Nair"), ShouldEqual, GenderMale)
		})

		Convey("中文称谓无分词边界也能命中", func() {
			So(InferGender("王夫人"), ShouldEqual, GenderFemale)
			So(InferGender("张小姐"), ShouldEqual, GenderFemale)
			So(InferGender("李先生"), ShouldEqual, GenderMale)
			So(InferGender("刘老爷"), ShouldEqual, GenderMale)
		})

		Convey("拉丁名词尾启发", func() {
			So(InferGender("Priya"), ShouldEqual, GenderFemale)
			So(InferGender("Julie"), ShouldEqual, GenderFemale)
			So(InferGender("Rahul"), ShouldEqual, GenderMale)
			So(InferGender("Tom"), ShouldEqual, GenderMale)
		})

		Convey("中文名常见尾字", func() {
			So(InferGender("小娜"), ShouldEqual, GenderFemale)
			So(InferGender("建军"), ShouldEqual, GenderMale)
		})

		Convey("空名返回未知", func() {
			So(InferGender(""), ShouldEqual, GenderUnknown)
			So(InferGender("   "), ShouldEqual, GenderUnknown)
		})
	})
}

func TestResolveVoice(t *testing.T) {
	Convey("音色解析测试", t, func() {
		pool := NewBytedancePool()

		Convey("同名说话人永远解析到同一音色", func() {
			first := ResolveVoice("Rahul", pool, nil, nil)
			for i := 0; i < 10; i++ {
				So(ResolveVoice("Rahul", pool, nil, nil), ShouldEqual, first)
			}
		})

		Convey("不同性别的说话人从对应子池选取", func() {
			femaleVoice := ResolveVoice("Priya", pool, nil, nil)
			maleVoice := ResolveVoice("Rahul", pool, nil, nil)

			femaleIDs := make(map[string]bool)
			for _, v := range pool.Voices(GenderFemale) {
				femaleIDs[v.ID] = true
			}
			maleIDs := make(map[string]bool)
			for _, v := range pool.Voices(GenderMale) {
				maleIDs[v.ID] = true
			}

			So(femaleIDs[femaleVoice], ShouldBeTrue)
			So(maleIDs[maleVoice], ShouldBeTrue)
		})

		Convey("显式映射优先于一切", func() {
			explicit := map[string]string{"Rahul": "BV056_streaming"}
			So(ResolveVoice("Rahul", pool, explicit, nil), ShouldEqual, "BV056_streaming")

			// 大小写无关兜底匹配
			So(ResolveVoice("RAHUL", pool, explicit, nil), ShouldEqual, "BV056_streaming")
		})

		Convey("角色库记忆优先于哈希兜底", func() {
			lookup := func(speaker string) (string, bool) {
				if speaker == "Priya" {
					return "BV405_streaming", true
				}
				return "", false
			}
			So(ResolveVoice("Priya", pool, nil, lookup), ShouldEqual, "BV405_streaming")

			hashed := ResolveVoice("Rahul", pool, nil, nil)
			So(ResolveVoice("Rahul", pool, nil, lookup), ShouldEqual, hashed)
		})

		Convey("显式映射压过角色库", func() {
			explicit := map[string]string{"Priya": "BV007_streaming"}
			lookup := func(speaker string) (string, bool) { return "BV405_streaming", true }
			So(ResolveVoice("Priya", pool, explicit, lookup), ShouldEqual, "BV007_streaming")
		})

		Convey("没有音色池时使用最终兜底", func() {
			So(ResolveVoice("Rahul", nil, nil, nil), ShouldEqual, FallbackVoiceID)
		})
	})
}
