package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
)

// ErrProbe is matched by every error returned from [Client].
var ErrProbe = errors.New("probe failed")

// Error describes a failed ffprobe call.
type Error struct {
	Path   string
	Err    error
	Stderr string // trimmed ffprobe diagnostics, if any
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("ffprobe %q: %v", e.Path, e.Err)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports ErrProbe so callers can test with errors.Is.
func (e *Error) Is(target error) bool { return target == ErrProbe }

// Client runs ffprobe. The zero value uses "ffprobe" from PATH.
type Client struct {
	FFprobePath string
}

// NewClient returns a Client for the given ffprobe executable.
func NewClient(ffprobePath string) *Client {
	return &Client{FFprobePath: ffprobePath}
}

func (c *Client) bin() string {
	if c == nil || c.FFprobePath == "" {
		return "ffprobe"
	}
	return c.FFprobePath
}

// Duration returns the container duration of path in seconds.
func (c *Client) Duration(ctx context.Context, path string) (float64, error) {
	out, err := c.run(ctx, path,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	if err != nil {
		return 0, err
	}
	d, err := ParseDuration(out)
	if err != nil {
		return 0, &Error{Path: path, Err: err}
	}
	return d, nil
}

// Metadata runs a single ffprobe JSON call against path and returns the
// parsed result.
func (c *Client) Metadata(ctx context.Context, path string) (*Result, error) {
	out, err := c.run(ctx, path,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format", "-show_streams",
		path,
	)
	if err != nil {
		return nil, err
	}
	res, err := ParseJSON(out)
	if err != nil {
		return nil, &Error{Path: path, Err: err}
	}
	return res, nil
}

func (c *Client) run(ctx context.Context, path string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, c.bin(), args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, &Error{Path: path, Err: err, Stderr: strings.TrimSpace(stderr.String())}
	}
	return out, nil
}

// ParseDuration parses the single-value output of a format=duration query.
func ParseDuration(out []byte) (float64, error) {
	s := strings.TrimSpace(string(out))
	d, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", s, err)
	}
	if math.IsNaN(d) || math.IsInf(d, 0) {
		return 0, fmt.Errorf("duration %q is not finite", s)
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %q", s)
	}
	return d, nil
}

// ParseJSON converts raw ffprobe JSON output into a Result. Cover-art
// video streams are skipped; the first remaining video stream wins.
func ParseJSON(data []byte) (*Result, error) {
	var raw wireOutput
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse ffprobe JSON: %w", err)
	}
	return buildResult(&raw), nil
}

// wire types mirror ffprobe -print_format json; numbers arrive as strings.

type wireOutput struct {
	Format  wireFormat   `json:"format"`
	Streams []wireStream `json:"streams"`
}

type wireFormat struct {
	Filename   string            `json:"filename"`
	FormatName string            `json:"format_name"`
	Duration   string            `json:"duration"`
	Size       string            `json:"size"`
	BitRate    string            `json:"bit_rate"`
	Tags       map[string]string `json:"tags"`
}

type wireStream struct {
	Index          int               `json:"index"`
	CodecName      string            `json:"codec_name"`
	CodecType      string            `json:"codec_type"`
	Profile        string            `json:"profile"`
	PixFmt         string            `json:"pix_fmt"`
	Width          int               `json:"width"`
	Height         int               `json:"height"`
	BitRate        string            `json:"bit_rate"`
	FieldOrder     string            `json:"field_order"`
	ColorRange     string            `json:"color_range"`
	ColorTransfer  string            `json:"color_transfer"`
	ColorPrimaries string            `json:"color_primaries"`
	ColorSpace     string            `json:"color_space"`
	AvgFrameRate   string            `json:"avg_frame_rate"`
	Channels       int               `json:"channels"`
	SampleRate     string            `json:"sample_rate"`
	Disposition    map[string]int    `json:"disposition"`
	Tags           map[string]string `json:"tags"`
}

func buildResult(raw *wireOutput) *Result {
	res := &Result{
		Format: FormatInfo{
			Filename:   raw.Format.Filename,
			FormatName: raw.Format.FormatName,
			Duration:   parseFloat(raw.Format.Duration),
			Size:       parseInt64(raw.Format.Size),
			BitRate:    parseInt64(raw.Format.BitRate),
			Tags:       raw.Format.Tags,
		},
	}
	for i := range raw.Streams {
		s := &raw.Streams[i]
		switch s.CodecType {
		case "video":
			// Skip cover art and thumbnails embedded as video streams.
			if s.Disposition["attached_pic"] == 1 || res.Video != nil {
				continue
			}
			res.Video = &VideoStream{
				Index:          s.Index,
				Codec:          s.CodecName,
				Profile:        s.Profile,
				PixFmt:         s.PixFmt,
				Width:          s.Width,
				Height:         s.Height,
				BitRate:        parseInt64(s.BitRate),
				FieldOrder:     s.FieldOrder,
				ColorRange:     s.ColorRange,
				ColorTransfer:  s.ColorTransfer,
				ColorPrimaries: s.ColorPrimaries,
				ColorSpace:     s.ColorSpace,
				AvgFrameRate:   s.AvgFrameRate,
			}
		case "audio":
			res.Audio = append(res.Audio, AudioStream{
				Index:      s.Index,
				Codec:      s.CodecName,
				Channels:   s.Channels,
				SampleRate: parseInt(s.SampleRate),
				BitRate:    parseInt64(s.BitRate),
			})
		}
	}
	return res
}

func parseInt64(s string) int64 {
	n, _ := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	return n
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f
}

func parseInt(s string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(s))
	return n
}
