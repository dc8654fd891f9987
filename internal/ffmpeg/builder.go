package ffmpeg

import (
	"strconv"

	"github.com/backmassage/dlogconv/internal/planner"
)

// Fixed encoder settings: H.264 video, 192k AAC audio, MP4 with the index
// up front for progressive playback.
const (
	VideoCodec   = "libx264"
	AudioCodec   = "aac"
	audioBitrate = "192k"
)

// BuildArgs returns the ffmpeg arguments (without the executable) that
// convert j.Input to j.Output:
//
//	-hide_banner -nostdin -y|-n -i <in> -vf <filter> -c:v libx264
//	-preset <p> -crf <n> -c:a aac -b:a 192k -movflags +faststart <out>
func BuildArgs(j planner.Job) []string {
	args := make([]string, 0, 24)
	args = append(args, "-hide_banner", "-nostdin")
	if j.Config.Overwrite {
		args = append(args, "-y")
	} else {
		args = append(args, "-n")
	}

	args = append(args, "-i", j.Input)
	args = append(args, "-vf", planner.VideoFilter(j))

	args = append(args,
		"-c:v", VideoCodec,
		"-preset", j.Config.Preset,
		"-crf", strconv.Itoa(j.Config.CRF),
	)
	args = append(args,
		"-c:a", AudioCodec,
		"-b:a", audioBitrate,
	)
	args = append(args, "-movflags", "+faststart")

	return append(args, j.Output)
}
