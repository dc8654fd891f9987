package probe

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ffprobe JSON for a DJI D-Log M clip: cover art, 10-bit HEVC, AAC audio.
const sampleDLogM = `{
  "streams": [
    {
      "index": 0,
      "codec_name": "mjpeg",
      "codec_type": "video",
      "width": 320,
      "height": 240,
      "pix_fmt": "yuvj420p",
      "disposition": { "default": 0, "attached_pic": 1 }
    },
    {
      "index": 1,
      "codec_name": "hevc",
      "codec_type": "video",
      "profile": "Main 10",
      "pix_fmt": "yuv420p10le",
      "width": 3840,
      "height": 2160,
      "bit_rate": "130000000",
      "field_order": "progressive",
      "color_range": "tv",
      "color_transfer": "bt709",
      "color_primaries": "bt709",
      "color_space": "bt709",
      "avg_frame_rate": "30000/1001",
      "disposition": { "default": 1, "attached_pic": 0 }
    },
    {
      "index": 2,
      "codec_name": "aac",
      "codec_type": "audio",
      "channels": 2,
      "sample_rate": "48000",
      "bit_rate": "128000",
      "disposition": { "default": 1, "attached_pic": 0 }
    }
  ],
  "format": {
    "filename": "/footage/DJI_0001.MP4",
    "format_name": "mov,mp4,m4a,3gp,3g2,mj2",
    "duration": "62.562500",
    "size": "1017000000",
    "bit_rate": "130050000",
    "tags": { "encoder": "DJI Mini4 Pro" }
  }
}`

// 8-bit H.264 Rec.709 clip, no audio.
const sampleRec709 = `{
  "streams": [
    {
      "index": 0,
      "codec_name": "h264",
      "codec_type": "video",
      "pix_fmt": "yuv420p",
      "width": 1920,
      "height": 1080,
      "field_order": "tt",
      "color_transfer": "bt709",
      "avg_frame_rate": "25/1"
    }
  ],
  "format": { "filename": "a_rec709.mp4", "duration": "10.000" }
}`

func TestParseJSON_DLogClip(t *testing.T) {
	res, err := ParseJSON([]byte(sampleDLogM))
	require.NoError(t, err)

	assert.Equal(t, "/footage/DJI_0001.MP4", res.Format.Filename)
	assert.InDelta(t, 62.5625, res.Format.Duration, 1e-9)
	assert.Equal(t, int64(1017000000), res.Format.Size)
	assert.Equal(t, "DJI Mini4 Pro", res.Format.Tags["encoder"])

	require.NotNil(t, res.Video, "cover art must not become the primary video")
	assert.Equal(t, 1, res.Video.Index)
	assert.Equal(t, "hevc", res.Video.Codec)
	assert.Equal(t, "yuv420p10le", res.Video.PixFmt)
	assert.Equal(t, int64(130000000), res.Video.BitRate)

	require.Len(t, res.Audio, 1)
	assert.Equal(t, "aac", res.Audio[0].Codec)
	assert.Equal(t, 48000, res.Audio[0].SampleRate)
}

func TestParseJSON_Invalid(t *testing.T) {
	_, err := ParseJSON([]byte("not json"))
	assert.Error(t, err)
}

func TestResultHelpers(t *testing.T) {
	dlog, err := ParseJSON([]byte(sampleDLogM))
	require.NoError(t, err)
	rec, err := ParseJSON([]byte(sampleRec709))
	require.NoError(t, err)

	assert.Equal(t, "3840x2160", dlog.Resolution())
	assert.InDelta(t, 29.97, dlog.FrameRate(), 0.01)
	assert.True(t, dlog.IsLogEncoded())
	assert.False(t, dlog.IsInterlaced())

	assert.Equal(t, "1920x1080", rec.Resolution())
	assert.InDelta(t, 25.0, rec.FrameRate(), 1e-9)
	assert.False(t, rec.IsLogEncoded())
	assert.True(t, rec.IsInterlaced())

	empty := &Result{}
	assert.Equal(t, "unknown", empty.Resolution())
	assert.Zero(t, empty.FrameRate())
	assert.False(t, empty.IsLogEncoded())
}

func TestFrameRate_ZeroDenominator(t *testing.T) {
	r := &Result{Video: &VideoStream{AvgFrameRate: "0/0"}}
	assert.Zero(t, r.FrameRate())
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    float64
		wantErr bool
	}{
		{"plain", "62.562500", 62.5625, false},
		{"trailing newline", "10.000\n", 10, false},
		{"crlf", "  3.5\r\n", 3.5, false},
		{"not available", "N/A\n", 0, true},
		{"empty", "", 0, true},
		{"negative", "-1", 0, true},
		{"nan", "nan\n", 0, true},
		{"inf", "inf", 0, true},
		{"negative inf", "-Inf", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDuration([]byte(tt.in))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

// fakeFFprobe writes an executable shell script standing in for ffprobe.
func fakeFFprobe(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script stand-ins need a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "ffprobe")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func TestClientDuration(t *testing.T) {
	c := NewClient(fakeFFprobe(t, `echo "12.480000"`))
	d, err := c.Duration(context.Background(), "/footage/a.mp4")
	require.NoError(t, err)
	assert.InDelta(t, 12.48, d, 1e-9)
}

func TestClientDuration_Failure(t *testing.T) {
	c := NewClient(fakeFFprobe(t, `echo "a.mp4: No such file or directory" >&2; exit 1`))
	_, err := c.Duration(context.Background(), "a.mp4")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrProbe))

	var pe *Error
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "a.mp4", pe.Path)
	assert.Contains(t, pe.Stderr, "No such file")
}

func TestClientDuration_Unparseable(t *testing.T) {
	c := NewClient(fakeFFprobe(t, `echo "N/A"`))
	_, err := c.Duration(context.Background(), "a.mp4")
	assert.ErrorIs(t, err, ErrProbe)
}

func TestClientDuration_MissingBinary(t *testing.T) {
	c := NewClient(filepath.Join(t.TempDir(), "no-such-ffprobe"))
	_, err := c.Duration(context.Background(), "a.mp4")
	assert.ErrorIs(t, err, ErrProbe)
}

func TestClientMetadata(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "out.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(sampleDLogM), 0o644))

	c := NewClient(fakeFFprobe(t, `cat "`+jsonPath+`"`))
	res, err := c.Metadata(context.Background(), "/footage/DJI_0001.MP4")
	require.NoError(t, err)
	assert.Equal(t, "3840x2160", res.Resolution())
}

func TestClientZeroValueUsesPath(t *testing.T) {
	var c *Client
	assert.Equal(t, "ffprobe", c.bin())
	assert.Equal(t, "ffprobe", (&Client{}).bin())
}
