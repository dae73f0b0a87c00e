package dubtools

import (
	"encoding/binary"
	"math"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestEncodeWAV(t *testing.T) {
	Convey("WAV 编码测试", t, func() {
		samples := []float64{0, 0.5, -0.5, 1.0, -1.0}

		Convey("产出 44 字节头加小端采样数据", func() {
			data, err := EncodeWAV(samples, 44100)
			So(err, ShouldBeNil)
			So(len(data), ShouldEqual, 44+len(samples)*2)

			So(string(data[0:4]), ShouldEqual, "RIFF")
			So(string(data[8:12]), ShouldEqual, "WAVE")
			So(string(data[12:16]), ShouldEqual, "fmt ")
			So(string(data[36:40]), ShouldEqual, "data")

			So(binary.LittleEndian.Uint16(data[20:]), ShouldEqual, 1)  // PCM
			So(binary.LittleEndian.Uint16(data[22:]), ShouldEqual, 1)  // 单声道
			So(binary.LittleEndian.Uint32(data[24:]), ShouldEqual, 44100)
			So(binary.LittleEndian.Uint32(data[28:]), ShouldEqual, 88200) // byte rate
			So(binary.LittleEndian.Uint16(data[32:]), ShouldEqual, 2)     // block align
			So(binary.LittleEndian.Uint16(data[34:]), ShouldEqual, 16)    // bit depth
			So(binary.LittleEndian.Uint32(data[40:]), ShouldEqual, uint32(len(samples)*2))
			So(binary.LittleEndian.Uint32(data[4:]), ShouldEqual, uint32(36+len(samples)*2))
		})

		Convey("编码再解码误差不超过量化步长", func() {
			data, err := EncodeWAV(samples, 24000)
			So(err, ShouldBeNil)

			decoded, err := DecodeRawPCM(data[44:], 24000)
			So(err, ShouldBeNil)
			So(len(decoded.Samples), ShouldEqual, len(samples))

			for i := range samples {
				So(math.Abs(decoded.Samples[i]-samples[i]), ShouldBeLessThan, 1.0/32768)
			}
		})

		Convey("超出范围的采样被对称裁剪", func() {
			data, err := EncodeWAV([]float64{2.0, -2.0}, 24000)
			So(err, ShouldBeNil)

			So(int16(binary.LittleEndian.Uint16(data[44:])), ShouldEqual, int16(32767))
			So(int16(binary.LittleEndian.Uint16(data[46:])), ShouldEqual, int16(-32767))
		})

		Convey("非法采样率返回错误", func() {
			_, err := EncodeWAV(samples, 0)
			So(err, ShouldNotBeNil)
			_, err = EncodeWAV(samples, -1)
			So(err, ShouldNotBeNil)
		})
	})
}

func TestDecodeRawPCM(t *testing.T) {
	Convey("裸 PCM 解码测试", t, func() {
		Convey("与 EncodeRawPCM 互逆", func() {
			samples := []float64{0, 0.25, -0.25, 0.99, -0.99}
			decoded, err := DecodeRawPCM(EncodeRawPCM(samples), 24000)
			So(err, ShouldBeNil)
			So(decoded.SampleRate, ShouldEqual, 24000)

			for i := range samples {
				So(math.Abs(decoded.Samples[i]-samples[i]), ShouldBeLessThan, 1.0/32768)
			}
		})

		Convey("奇数字节长度返回错误", func() {
			_, err := DecodeRawPCM([]byte{0x01, 0x02, 0x03}, 24000)
			So(err, ShouldNotBeNil)
		})

		Convey("未指定采样率时使用默认裸 PCM 采样率", func() {
			decoded, err := DecodeRawPCM([]byte{0x00, 0x00}, 0)
			So(err, ShouldBeNil)
			So(decoded.SampleRate, ShouldEqual, RawPCMSampleRate)
		})
	})
}

func TestSilence(t *testing.T) {
	Convey("静音构造器测试", t, func() {
		Convey("按时长和采样率生成全零缓冲", func() {
			buf := Silence(2.5, 24000)
			So(len(buf.Samples), ShouldEqual, 60000)
			So(buf.Duration(), ShouldAlmostEqual, 2.5, 1e-9)

			sum := 0.0
			for _, v := range buf.Samples {
				sum += math.Abs(v)
			}
			So(sum, ShouldEqual, 0)
		})

		Convey("负时长按零处理", func() {
			So(len(Silence(-1, 24000).Samples), ShouldEqual, 0)
		})
	})
}
