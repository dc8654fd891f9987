package probe

import (
	"strconv"
	"strings"
)

// FormatInfo holds container-level metadata from ffprobe's format section.
type FormatInfo struct {
	Filename   string            `json:"filename"`
	FormatName string            `json:"formatName"`
	Duration   float64           `json:"duration"`
	Size       int64             `json:"size"`
	BitRate    int64             `json:"bitRate"`
	Tags       map[string]string `json:"tags,omitempty"`
}

// VideoStream holds the parsed properties of the primary video stream.
type VideoStream struct {
	Index          int    `json:"index"`
	Codec          string `json:"codec"`
	Profile        string `json:"profile,omitempty"`
	PixFmt         string `json:"pixFmt"`
	Width          int    `json:"width"`
	Height         int    `json:"height"`
	BitRate        int64  `json:"bitRate,omitempty"`
	FieldOrder     string `json:"fieldOrder,omitempty"`
	ColorRange     string `json:"colorRange,omitempty"`
	ColorTransfer  string `json:"colorTransfer,omitempty"`
	ColorPrimaries string `json:"colorPrimaries,omitempty"`
	ColorSpace     string `json:"colorSpace,omitempty"`
	AvgFrameRate   string `json:"avgFrameRate,omitempty"`
}

// AudioStream holds the parsed properties of a single audio stream.
type AudioStream struct {
	Index      int    `json:"index"`
	Codec      string `json:"codec"`
	Channels   int    `json:"channels"`
	SampleRate int    `json:"sampleRate"`
	BitRate    int64  `json:"bitRate,omitempty"`
}

// Result is the parsed output of a single ffprobe JSON call. Video is the
// first non-attached-pic video stream (nil if none).
type Result struct {
	Format FormatInfo    `json:"format"`
	Video  *VideoStream  `json:"video,omitempty"`
	Audio  []AudioStream `json:"audio,omitempty"`
}

// Resolution returns "WxH" for the primary video stream, or "unknown".
func (r *Result) Resolution() string {
	if r.Video == nil || r.Video.Width <= 0 || r.Video.Height <= 0 {
		return "unknown"
	}
	return strconv.Itoa(r.Video.Width) + "x" + strconv.Itoa(r.Video.Height)
}

// FrameRate returns the average frame rate of the primary video stream, or
// 0 when it is missing or malformed ("0/0" is common for still images).
func (r *Result) FrameRate() float64 {
	if r.Video == nil {
		return 0
	}
	num, den, ok := strings.Cut(r.Video.AvgFrameRate, "/")
	if !ok {
		return parseFloat(num)
	}
	d := parseFloat(den)
	if d == 0 {
		return 0
	}
	return parseFloat(num) / d
}

// IsInterlaced reports whether field_order indicates interlaced content.
func (r *Result) IsInterlaced() bool {
	if r.Video == nil {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(r.Video.FieldOrder)) {
	case "tt", "bb", "tb", "bt":
		return true
	}
	return false
}

// IsLogEncoded guesses whether the primary video looks like camera log
// footage: 10-bit samples with an unspecified or Rec.709 transfer tag, which
// is how D-Log and D-Log M clips are usually flagged. Display only.
func (r *Result) IsLogEncoded() bool {
	if r.Video == nil || !strings.Contains(r.Video.PixFmt, "10") {
		return false
	}
	switch r.Video.ColorTransfer {
	case "", "unknown", "bt709":
		return true
	}
	return false
}
