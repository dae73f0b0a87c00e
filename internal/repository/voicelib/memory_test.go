package voicelib

import (
	"context"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestMemoryRepo(t *testing.T) {
	Convey("内存角色库测试", t, func() {
		ctx := context.Background()
		repo := NewMemoryRepo()

		Convey("查询限定在绑定时的引擎内", func() {
			So(repo.Upsert(ctx, "Rahul", "BV056_streaming", "bytedance"), ShouldBeNil)

			voiceID, ok, err := repo.Lookup(ctx, "Rahul", "bytedance")
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)
			So(voiceID, ShouldEqual, "BV056_streaming")

			// 切换引擎后不能拿到另一个引擎池的音色 id
			_, ok, err = repo.Lookup(ctx, "Rahul", "openai")
			So(err, ShouldBeNil)
			So(ok, ShouldBeFalse)
		})

		Convey("同名角色在不同引擎下各自独立绑定", func() {
			So(repo.Upsert(ctx, "Priya", "BV405_streaming", "bytedance"), ShouldBeNil)
			So(repo.Upsert(ctx, "Priya", "nova", "openai"), ShouldBeNil)

			voiceID, ok, _ := repo.Lookup(ctx, "Priya", "bytedance")
			So(ok, ShouldBeTrue)
			So(voiceID, ShouldEqual, "BV405_streaming")

			voiceID, ok, _ = repo.Lookup(ctx, "priya", "openai")
			So(ok, ShouldBeTrue)
			So(voiceID, ShouldEqual, "nova")

			bindings, err := repo.List(ctx)
			So(err, ShouldBeNil)
			So(len(bindings), ShouldEqual, 2)
		})

		Convey("重复绑定只更新音色不产生新记录", func() {
			So(repo.Upsert(ctx, "Rahul", "BV056_streaming", "bytedance"), ShouldBeNil)
			So(repo.Upsert(ctx, "rahul", "BV007_streaming", "bytedance"), ShouldBeNil)

			voiceID, ok, _ := repo.Lookup(ctx, "Rahul", "bytedance")
			So(ok, ShouldBeTrue)
			So(voiceID, ShouldEqual, "BV007_streaming")

			bindings, err := repo.List(ctx)
			So(err, ShouldBeNil)
			So(len(bindings), ShouldEqual, 1)
		})
	})
}
