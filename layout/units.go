package layout

import (
	"strconv"
	"strings"
)

// 长度与行高的解析和换算。
// 文档中的长度可带 mm/cm/in/pt 后缀，不带后缀时按毫米处理；布局内部统一使用毫米。
// 调试输出需要作者书写的原始单位，所以解析结果同时保留数值与单位。

// Unit 是长度的原始单位。
type Unit int

const (
	UnitNone Unit = iota // 无单位，按毫米处理
	UnitMM
	UnitCM
	UnitIN
	UnitPT
)

// pt 与 mm 的换算系数。
const (
	PtToMm = 0.352777
	MmToPt = 1.0 / PtToMm
)

var unitSuffixes = []struct {
	suffix string
	unit   Unit
	mm     float64
}{
	{"mm", UnitMM, 1},
	{"cm", UnitCM, 10},
	{"in", UnitIN, 25.4},
	{"pt", UnitPT, PtToMm},
}

// String 返回单位后缀，UnitNone 返回空串。
func (u Unit) String() string {
	for _, s := range unitSuffixes {
		if s.unit == u {
			return s.suffix
		}
	}
	return ""
}

func (u Unit) mm() float64 {
	for _, s := range unitSuffixes {
		if s.unit == u {
			return s.mm
		}
	}
	return 1
}

// Length 保存数值及其原始单位。
type Length struct {
	Value float64 `json:"value"`
	Unit  Unit    `json:"unit"`
}

func (l Length) IsZero() bool { return l.Value == 0 }

func (l Length) ToMM() float64 { return l.Value * l.Unit.mm() }

func (l Length) ToPT() float64 { return l.ToMM() * MmToPt }

func (l Length) raw() RawLengthJSON {
	unit := l.Unit
	if unit == UnitNone {
		unit = UnitMM
	}
	return RawLengthJSON{Value: l.Value, Unit: unit.String()}
}

// ParseLength 解析长度字符串并保留单位；无法解析时返回零值。
func ParseLength(value string) Length {
	v := strings.ToLower(strings.TrimSpace(value))
	unit := UnitNone
	for _, s := range unitSuffixes {
		if num, ok := strings.CutSuffix(v, s.suffix); ok {
			v, unit = strings.TrimSpace(num), s.unit
			break
		}
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return Length{}
	}
	return Length{Value: f, Unit: unit}
}

// LineHeightKind 区分倍数行高与绝对行高。
type LineHeightKind int

const (
	LineHeightFactor LineHeightKind = iota
	LineHeightAbsolute
)

// LineHeightSpec 记录行高的书写方式：倍数（1.2x）或绝对长度（18pt）。
type LineHeightSpec struct {
	Kind   LineHeightKind `json:"kind"`
	Factor float64        `json:"factor,omitempty"`
	Len    Length         `json:"len,omitempty"`
}

// ParseLineHeight 解析 line-height 属性，空值或非正数返回 false。
func ParseLineHeight(value string) (LineHeightSpec, bool) {
	v := strings.TrimSpace(value)
	if num, ok := strings.CutSuffix(v, "x"); ok {
		f, err := strconv.ParseFloat(num, 64)
		if err != nil || f <= 0 {
			return LineHeightSpec{}, false
		}
		return LineHeightSpec{Kind: LineHeightFactor, Factor: f}, true
	}
	l := ParseLength(v)
	if l.Value <= 0 {
		return LineHeightSpec{}, false
	}
	return LineHeightSpec{Kind: LineHeightAbsolute, Len: l}, true
}

// Resolve 按字号（mm）计算行高（mm）。
func (s LineHeightSpec) Resolve(fontSize float64) float64 {
	if s.Kind == LineHeightAbsolute {
		return s.Len.ToMM()
	}
	return fontSize * s.Factor
}

func (s LineHeightSpec) raw() RawLineHeightJSON {
	if s.Kind == LineHeightAbsolute {
		l := s.Len.raw()
		return RawLineHeightJSON{Kind: "absolute", Value: l.Value, Unit: l.Unit}
	}
	return RawLineHeightJSON{Kind: "factor", Factor: s.Factor}
}

// lengthMM 将长度字符串换算为毫米。
func lengthMM(value string) float64 {
	if value == "" {
		return 0
	}
	return ParseLength(value).ToMM()
}

// parseDimension 与 lengthMM 相同，但额外支持相对 reference 的百分比。
func parseDimension(value string, reference float64) float64 {
	if num, ok := strings.CutSuffix(value, "%"); ok {
		if f, err := strconv.ParseFloat(num, 64); err == nil {
			return reference * f / 100
		}
		return 0
	}
	return lengthMM(value)
}

func trimUnit(value string) string {
	for _, suffix := range []string{"pt", "mm", "cm", "in", "%"} {
		if num, ok := strings.CutSuffix(value, suffix); ok {
			return num
		}
	}
	return value
}
