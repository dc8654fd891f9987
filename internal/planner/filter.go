package planner

import (
	"strings"

	"github.com/backmassage/dlogconv/internal/config"
)

// DownstreamChain is appended to every color transform.
const DownstreamChain = "scale=iw:ih,format=yuv420p"

// transform holds the filter strings for one source profile.
type transform struct {
	simple   string
	advanced string
}

// Rec.709 tagging without touching pixel values.
const simpleRec709 = "setparams=range=tv:color_primaries=bt709:color_trc=bt709:colorspace=bt709"

// Linearize, then re-encode with the BT.709 transfer and matrix.
const advancedRec709 = "zscale=transfer=linear:primaries=bt709:npl=100," +
	"format=gbrpf32le," +
	"zscale=transfer=bt709:primaries=bt709:matrix=bt709"

// transforms is keyed by source profile. D-Log and D-Log M currently share
// the same chains; the table is where a profile-specific curve would go.
var transforms = map[config.DLogVariant]transform{
	config.DLog:  {simple: simpleRec709, advanced: advancedRec709},
	config.DLogM: {simple: simpleRec709, advanced: advancedRec709},
}

// BuildFilter returns the color transform for the given settings. A
// non-empty lut wins over method and variant. Unknown variants use the
// D-Log entry; any method other than simple is treated as advanced.
func BuildFilter(method config.Method, variant config.DLogVariant, lut string) string {
	if lut != "" {
		return "lut3d=file='" + EscapeLUTPath(lut) + "'"
	}
	tr, ok := transforms[variant]
	if !ok {
		tr = transforms[config.DLog]
	}
	if method == config.MethodSimple {
		return tr.simple
	}
	return tr.advanced
}

// VideoFilter returns the complete -vf value for j: its color transform
// followed by [DownstreamChain].
func VideoFilter(j Job) string {
	c := j.Config
	return BuildFilter(c.Method, c.DLogVariant, c.LUT) + "," + DownstreamChain
}

// EscapeLUTPath prepares a file path for use inside a quoted lut3d option:
// backslashes become forward slashes (Windows paths), every colon is
// escaped so the filtergraph parser does not split on it, and each single
// quote becomes quote, backslash-quote, quote: it ends the quoted value,
// emits an escaped quote and reopens.
func EscapeLUTPath(path string) string {
	p := strings.ReplaceAll(path, `\`, "/")
	p = strings.ReplaceAll(p, ":", `\:`)
	return strings.ReplaceAll(p, "'", `'\''`)
}

// UnescapeLUTPath reverses the quote and colon escaping of [EscapeLUTPath].
// Separator normalization is not reversed.
func UnescapeLUTPath(escaped string) string {
	p := strings.ReplaceAll(escaped, `'\''`, "'")
	return strings.ReplaceAll(p, `\:`, ":")
}
