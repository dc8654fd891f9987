package naming

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOutputPath(t *testing.T) {
	tests := []struct {
		input string
		dir   string
		want  string
	}{
		{"/footage/DJI_0001.MP4", "/out", "/out/DJI_0001_rec709.mp4"},
		{"/footage/day 2/clip.mov", "/out/graded", "/out/graded/clip_rec709.mp4"},
		{"noext", "/out", "/out/noext_rec709.mp4"},
		{"/footage/a.b.c.mkv", "/out", "/out/a.b.c_rec709.mp4"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, filepath.FromSlash(tt.want), OutputPath(tt.input, filepath.FromSlash(tt.dir)))
		})
	}
}

func TestIsConverted(t *testing.T) {
	assert.True(t, IsConverted("/out/DJI_0001_rec709.mp4"))
	assert.True(t, IsConverted("/out/clip_rec709 - dup2.mp4"))
	assert.False(t, IsConverted("/footage/DJI_0001.MP4"))
	assert.False(t, IsConverted("/footage/rec709_notes.mp4"))
	assert.False(t, IsConverted("/footage/clip - dup1.mp4"))
}

func TestCollisionResolver(t *testing.T) {
	cr := NewCollisionResolver()
	out := "/out/clip_rec709.mp4"

	assert.Equal(t, out, cr.Resolve("/a/clip.mov", out))
	assert.Equal(t, out, cr.Resolve("/a/clip.mov", out), "owner keeps its path")
	assert.Equal(t, filepath.FromSlash("/out/clip_rec709 - dup1.mp4"), cr.Resolve("/b/clip.mp4", out))
	assert.Equal(t, filepath.FromSlash("/out/clip_rec709 - dup2.mp4"), cr.Resolve("/c/clip.mkv", out))
	assert.Equal(t, filepath.FromSlash("/out/clip_rec709 - dup1.mp4"), cr.Resolve("/b/clip.mp4", out), "repeat resolve is stable")
}

func TestCollisionResolver_CaseInsensitive(t *testing.T) {
	cr := NewCollisionResolver()
	cr.Resolve("/a/Clip.mov", "/out/Clip_rec709.mp4")
	got := cr.Resolve("/b/clip.mov", "/out/clip_rec709.mp4")
	assert.Equal(t, filepath.FromSlash("/out/clip_rec709 - dup1.mp4"), got)
}
