package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsAllowedImageExtension(t *testing.T) {
	tests := []struct {
		filename string
		want     bool
	}{
		{"avatar.png", true},
		{"avatar.JPG", true},
		{"cover.jpeg", true},
		{"cover.webp", true},
		{"anim.gif", true},
		{"script.svg", false},
		{"noext", false},
		{"archive.png.exe", false},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			assert.Equal(t, tt.want, IsAllowedImageExtension(tt.filename))
		})
	}
}

func TestIsAllowedFileType(t *testing.T) {
	t.Run("无限制时全部允许", func(t *testing.T) {
		assert.True(t, IsAllowedFileType("application/pdf", nil))
	})

	t.Run("精确匹配和通配符", func(t *testing.T) {
		assert.True(t, IsAllowedFileType("image/png", []string{"image/png"}))
		assert.True(t, IsAllowedFileType("image/webp", []string{"image/*"}))
		assert.False(t, IsAllowedFileType("text/plain", []string{"image/*"}))
	})
}

func TestInferMimeType(t *testing.T) {
	assert.Equal(t, "image/png", InferMimeType("a.PNG"))
	assert.Equal(t, "application/octet-stream", InferMimeType("a.unknownext"))
}

func TestGenerateFileKey(t *testing.T) {
	key := GenerateFileKey("avatars", "me.JPG")

	assert.True(t, strings.HasPrefix(key, "avatars/"))
	assert.True(t, strings.HasSuffix(key, ".jpg"))
	assert.Len(t, strings.Split(key, "/"), 5)
	assert.NotEqual(t, key, GenerateFileKey("avatars", "me.JPG"))
}

func TestGenerateFileKeyWithConfig_KeepName(t *testing.T) {
	key := GenerateFileKeyWithConfig("../etc/passwd", FileKeyGenerationConfig{Prefix: "covers"})

	assert.Equal(t, "covers/passwd", key)
}
