package layout

import (
	"math"
	"testing"
)

// TestPtMmRoundTrip 验证 pt↔mm 换算的往返精度。
func TestPtMmRoundTrip(t *testing.T) {
	samples := []float64{0, 0.001, 1, 12, 14.4, 72, 96, 144, 1000}
	for _, pt := range samples {
		back := pt * PtToMm * MmToPt
		if diff := math.Abs(back - pt); diff > 1e-9 {
			t.Fatalf("pt→mm→pt 往返误差过大: in=%gpt back=%g diff=%g", pt, back, diff)
		}
	}
}

func TestParseLength(t *testing.T) {
	cases := []struct {
		in     string
		want   Length
		wantMM float64
	}{
		{"10mm", Length{10, UnitMM}, 10},
		{"2.54cm", Length{2.54, UnitCM}, 25.4},
		{"1in", Length{1, UnitIN}, 25.4},
		{"12pt", Length{12, UnitPT}, 12 * PtToMm},
		{" 12PT ", Length{12, UnitPT}, 12 * PtToMm},
		{"7", Length{7, UnitNone}, 7},
		{"", Length{}, 0},
		{"abc", Length{}, 0},
		{"mm", Length{}, 0},
	}
	for _, c := range cases {
		got := ParseLength(c.in)
		if got != c.want {
			t.Errorf("ParseLength(%q) = %#v，期望 %#v", c.in, got, c.want)
		}
		if mm := got.ToMM(); math.Abs(mm-c.wantMM) > 1e-9 {
			t.Errorf("ParseLength(%q).ToMM() = %g，期望 %g", c.in, mm, c.wantMM)
		}
	}
	if got := (Length{Value: 10, Unit: UnitMM}).ToPT(); math.Abs(got-10*MmToPt) > 1e-9 {
		t.Fatalf("10mm 转 pt 期望 %g，实际 %g", 10*MmToPt, got)
	}
}

func TestUnitString(t *testing.T) {
	for u, want := range map[Unit]string{UnitNone: "", UnitMM: "mm", UnitCM: "cm", UnitIN: "in", UnitPT: "pt"} {
		if got := u.String(); got != want {
			t.Errorf("Unit(%d).String() = %q，期望 %q", int(u), got, want)
		}
	}
}

// TestLineHeightResolve 验证倍数与绝对值两种行高在 mm 下的解析结果。
func TestLineHeightResolve(t *testing.T) {
	fontSize := 12 * PtToMm
	cases := []struct {
		in   string
		kind LineHeightKind
		want float64
	}{
		{"1.2x", LineHeightFactor, fontSize * 1.2},
		{"18pt", LineHeightAbsolute, 18 * PtToMm},
		{"6mm", LineHeightAbsolute, 6},
		{"5", LineHeightAbsolute, 5},
	}
	for _, c := range cases {
		spec, ok := ParseLineHeight(c.in)
		if !ok {
			t.Fatalf("ParseLineHeight(%q) 失败", c.in)
		}
		if spec.Kind != c.kind {
			t.Errorf("%q 的行高类型为 %d，期望 %d", c.in, spec.Kind, c.kind)
		}
		if got := spec.Resolve(fontSize); math.Abs(got-c.want) > 1e-9 {
			t.Errorf("%q 解析为 %g mm，期望 %g", c.in, got, c.want)
		}
	}
	for _, bad := range []string{"", "0x", "-1x", "ax", "0mm", "wide"} {
		if _, ok := ParseLineHeight(bad); ok {
			t.Errorf("ParseLineHeight(%q) 应当失败", bad)
		}
	}
}

func TestParseDimension(t *testing.T) {
	if got := parseDimension("50%", 170); got != 85 {
		t.Fatalf("50%% of 170 = %g", got)
	}
	if got := parseDimension("1cm", 170); got != 10 {
		t.Fatalf("1cm = %g mm", got)
	}
	if got := parseDimension("x%", 170); got != 0 {
		t.Fatalf("非法百分比应为 0，实际 %g", got)
	}
}
