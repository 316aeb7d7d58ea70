package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParamsNormalize(t *testing.T) {
	p := Params{}.Normalize()
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 20, p.Limit)

	assert.Equal(t, MaxLimit, Params{Limit: 5000}.Normalize().Limit)
	assert.Equal(t, 40, Params{Page: 3, Limit: 20}.Offset())
	assert.Equal(t, 0, Params{Page: -2}.Offset())
}

func TestNewMeta(t *testing.T) {
	meta := NewMeta(Params{Page: 2, Limit: 10}, 21)
	assert.Equal(t, Meta{Page: 2, Limit: 10, Total: 21, TotalPages: 3}, meta)
	assert.Equal(t, 0, NewMeta(Params{}, 0).TotalPages)
}
