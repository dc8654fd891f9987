package ffmpeg

import (
	"bytes"
	"regexp"
	"strconv"
)

// reProgressTime matches the elapsed output time in ffmpeg's status line,
// e.g. "frame=  240 fps= 48 ... time=00:00:08.00 bitrate=...".
var reProgressTime = regexp.MustCompile(`time=(\d{2,}):(\d{2}):(\d{2})\.(\d{2})`)

// ParseProgressTime extracts the elapsed time in seconds from one status
// line. ok is false when the line carries no time (or "time=N/A").
func ParseProgressTime(line string) (seconds float64, ok bool) {
	m := reProgressTime.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	h, _ := strconv.Atoi(m[1])
	mi, _ := strconv.Atoi(m[2])
	s, _ := strconv.Atoi(m[3])
	cs, _ := strconv.Atoi(m[4])
	return float64(h*3600+mi*60+s) + float64(cs)/100, true
}

// scanStatusLines is a bufio.SplitFunc that splits on '\r' as well as '\n'.
// ffmpeg rewrites its status line in place with carriage returns.
func scanStatusLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
