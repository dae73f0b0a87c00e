package dubtools

import (
	"math"
	"sort"
)

// 控制信号自动化：断点包络与峰值滤波器

// breakpoint 一个自动化断点
type breakpoint struct {
	t, v float64
}

// envelope 分段线性断点包络
// 断点按加入顺序收集，finalize 后按时间稳定排序：同一时刻后加入的断点生效
// （后写覆盖），这意味着紧挨的片段会自然串联闪避而不留空隙
type envelope struct {
	points []breakpoint
}

func newEnvelope(initial float64) *envelope {
	return &envelope{points: []breakpoint{{t: 0, v: initial}}}
}

func (e *envelope) add(t, v float64) {
	e.points = append(e.points, breakpoint{t: t, v: v})
}

func (e *envelope) finalize() {
	sort.SliceStable(e.points, func(i, j int) bool {
		return e.points[i].t < e.points[j].t
	})
	// 同刻断点只留最后一个
	out := e.points[:0]
	for i, p := range e.points {
		if i+1 < len(e.points) && e.points[i+1].t == p.t {
			continue
		}
		out = append(out, p)
	}
	e.points = out
}

// cursor 顺序采样游标；渲染循环时间单调递增，整体 O(n+m)
func (e *envelope) cursor() *envelopeCursor {
	return &envelopeCursor{env: e}
}

type envelopeCursor struct {
	env *envelope
	idx int
}

// valueAt 包络在 t 时刻的值（断点间线性插值）
// 要求调用方 t 单调不减
func (c *envelopeCursor) valueAt(t float64) float64 {
	pts := c.env.points
	for c.idx+1 < len(pts) && pts[c.idx+1].t <= t {
		c.idx++
	}
	cur := pts[c.idx]
	if c.idx+1 >= len(pts) || t <= cur.t {
		return cur.v
	}
	next := pts[c.idx+1]
	span := next.t - cur.t
	if span <= 0 {
		return next.v
	}
	frac := (t - cur.t) / span
	return cur.v + (next.v-cur.v)*frac
}

// biquad 双二阶滤波器（转置直接 II 型）
type biquad struct {
	b0, b1, b2, a1, a2 float64
	z1, z2             float64
}

// setPeaking 配置为峰值均衡（RBJ cookbook），dbGain 为 0 时近似直通
// 只更新系数，滤波器内部状态保留，块间无爆音
func (f *biquad) setPeaking(sampleRate, centerHz, q, dbGain float64) {
	a := math.Pow(10, dbGain/40)
	w0 := 2 * math.Pi * centerHz / sampleRate
	alpha := math.Sin(w0) / (2 * q)
	cosW0 := math.Cos(w0)

	b0 := 1 + alpha*a
	b1 := -2 * cosW0
	b2 := 1 - alpha*a
	a0 := 1 + alpha/a
	a1 := -2 * cosW0
	a2 := 1 - alpha/a

	f.b0 = b0 / a0
	f.b1 = b1 / a0
	f.b2 = b2 / a0
	f.a1 = a1 / a0
	f.a2 = a2 / a0
}

func (f *biquad) process(x float64) float64 {
	y := f.b0*x + f.z1
	f.z1 = f.b1*x - f.a1*y + f.z2
	f.z2 = f.b2*x - f.a2*y
	return y
}
