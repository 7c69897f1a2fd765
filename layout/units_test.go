package layout

import (
	"math"
	"testing"
)

// TestPtMmRoundTrip 验证 pt↔mm 换算的往返精度（允许极小的浮点误差）。
func TestPtMmRoundTrip(t *testing.T) {
	samples := []float64{0, 0.001, 1, 12, 14.4, 72, 96, 144, 1000}
	for _, pt := range samples {
		mm := pt * PtToMm
		back := mm * MmToPt
		if diff := math.Abs(back - pt); diff > 1e-9 {
			t.Fatalf("pt→mm→pt 往返误差过大: in=%gpt mm=%g back=%g diff=%g", pt, mm, back, diff)
		}
	}
}

// TestLengthToConversions 覆盖 Length 在常见单位上的转换正确性。
func TestLengthToConversions(t *testing.T) {
	s := PageScale{PointsPerPixel: 2}
	in := Length{Value: 1, Unit: UnitIN}
	if got := in.ToMM(s); math.Abs(got-25.4) > 1e-9 {
		t.Fatalf("1in 转 mm 期望 25.4，实际 %g", got)
	}
	cm := Length{Value: 2.54, Unit: UnitCM}
	if got := cm.ToMM(s); math.Abs(got-25.4) > 1e-9 {
		t.Fatalf("2.54cm 转 mm 期望 25.4，实际 %g", got)
	}
	px := Length{Value: 10, Unit: UnitPX}
	if got := px.ToPT(s); math.Abs(got-20) > 1e-9 {
		t.Fatalf("10px 在 2pt/px 下期望 20pt，实际 %g", got)
	}
	if got := (PageScale{}).Points(1); got != DefaultPointsPerPixel {
		t.Fatalf("默认比例期望 %g，实际 %g", DefaultPointsPerPixel, got)
	}
}

// TestParseLength 验证带单位与不带单位的长度解析。
func TestParseLength(t *testing.T) {
	cases := map[string]Length{
		"210mm":  {210, UnitMM},
		" 8.5in": {8.5, UnitIN},
		"595pt":  {595, UnitPT},
		"640":    {640, UnitPX},
		"12px":   {12, UnitPX},
	}
	for in, want := range cases {
		got, err := ParseLength(in)
		if err != nil {
			t.Fatalf("解析 %q 失败: %v", in, err)
		}
		if got != want {
			t.Fatalf("解析 %q: got=%+v want=%+v", in, got, want)
		}
	}
	for _, in := range []string{"210mm", "8.5in", "595pt", "2.5cm", "640px"} {
		l, err := ParseLength(in)
		if err != nil {
			t.Fatalf("解析 %q 失败: %v", in, err)
		}
		if l.String() != in {
			t.Fatalf("格式化 %q 得到 %q", in, l.String())
		}
	}
	if _, err := ParseLength("abc mm"); err == nil {
		t.Fatalf("非法长度应当报错")
	}
}

// TestFitWidth 验证按页面宽度反推每像素点数。
func TestFitWidth(t *testing.T) {
	s := FitWidth(100, Length{Value: 200, Unit: UnitPT})
	if math.Abs(s.PointsPerPixel-2) > 1e-12 {
		t.Fatalf("期望 2pt/px，实际 %g", s.PointsPerPixel)
	}
	if math.Abs(s.DotsPerMM()-1/(2*PtToMm)) > 1e-9 {
		t.Fatalf("DotsPerMM 计算错误: %g", s.DotsPerMM())
	}
}
