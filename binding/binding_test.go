package binding

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInterpolate(t *testing.T) {
	data := map[string]any{
		"user": map[string]any{"name": "Ada"},
		"items": []any{
			map[string]any{"sku": "A-1"},
			map[string]any{"sku": "B-2"},
		},
		"total": 42.5,
	}

	tests := []struct {
		in, want string
	}{
		{"Hello, ${user.name}!", "Hello, Ada!"},
		{"${items[1].sku}", "B-2"},
		{"sum ${ total }", "sum 42.5"},
		{"${missing.path}", "${missing.path}"},
		{"${items[9].sku}", "${items[9].sku}"},
		{"no placeholders", "no placeholders"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Interpolate(tt.in, data), tt.in)
	}
	assert.Equal(t, "${x}", Interpolate("${x}", nil))
}

func TestScopeBuiltinsShadowData(t *testing.T) {
	s := NewScope(map[string]any{"today": "data wins?", "name": "Grace"}).
		Define("today", "1970-01-01")

	assert.Equal(t, "1970-01-01 Grace", s.Interpolate("${today} ${name}"))
}

func TestScopeNestedBuiltin(t *testing.T) {
	s := NewScope(nil).Define("doc", map[string]any{"pages": []any{"a", "b"}})

	v, ok := s.Lookup("doc.pages[1]")
	assert.True(t, ok)
	assert.Equal(t, "b", v)
}

func TestUnresolved(t *testing.T) {
	s := NewScope(map[string]any{"a": 1}).Define("today", "2024-01-01")

	assert.Equal(t, []string{"b", "c.d"}, s.Unresolved("${a} ${b} ${today} ${ c.d }"))
	assert.Empty(t, s.Unresolved("plain"))
}
