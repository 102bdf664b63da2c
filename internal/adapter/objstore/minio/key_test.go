package minio

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSource_Key(t *testing.T) {
	t.Parallel()

	tests := []struct {
		prefix, name, want string
	}{
		{"", "img/a.png", "img/a.png"},
		{"", "/abs/img.png", "abs/img.png"},
		{"images", "/abs/img.png", "images/abs/img.png"},
		{"images/", "a.png", "images/a.png"},
	}
	for _, tt := range tests {
		src := New(nil, "hasy", tt.prefix)
		assert.Equal(t, tt.want, src.key(tt.name), "prefix %q name %q", tt.prefix, tt.name)
	}
}
