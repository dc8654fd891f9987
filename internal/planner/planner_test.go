package planner

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/backmassage/dlogconv/internal/config"
)

var (
	allMethods  = []config.Method{config.MethodAdvanced, config.MethodSimple, "unknown"}
	allVariants = []config.DLogVariant{config.DLog, config.DLogM, "hlg", ""}
)

func TestBuildFilter_NoLUT(t *testing.T) {
	for _, m := range allMethods {
		for _, v := range allVariants {
			f := BuildFilter(m, v, "")
			assert.NotEmpty(t, f, "method=%s variant=%s", m, v)
			assert.NotContains(t, f, "lut3d", "method=%s variant=%s", m, v)
		}
	}
}

func TestBuildFilter_Methods(t *testing.T) {
	simple := BuildFilter(config.MethodSimple, config.DLogM, "")
	assert.True(t, strings.HasPrefix(simple, "setparams="), simple)
	assert.Contains(t, simple, "color_trc=bt709")

	advanced := BuildFilter(config.MethodAdvanced, config.DLogM, "")
	assert.Equal(t, 2, strings.Count(advanced, "zscale="), advanced)
	assert.Contains(t, advanced, "transfer=linear")
	assert.Contains(t, advanced, "matrix=bt709")
}

func TestBuildFilter_UnknownFallsBackToDLog(t *testing.T) {
	for _, m := range allMethods {
		assert.Equal(t, BuildFilter(m, config.DLog, ""), BuildFilter(m, "hlg", ""))
	}
	assert.Equal(t,
		BuildFilter(config.MethodAdvanced, config.DLog, ""),
		BuildFilter("bogus", config.DLog, ""),
		"unknown method is treated as advanced")
}

func TestBuildFilter_LUTOverrides(t *testing.T) {
	const lut = "/luts/dji_dlogm_to_rec709.cube"
	want := "lut3d=file='/luts/dji_dlogm_to_rec709.cube'"
	for _, m := range allMethods {
		for _, v := range allVariants {
			assert.Equal(t, want, BuildFilter(m, v, lut))
		}
	}
}

func TestEscapeLUTPath(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"posix", "/luts/a.cube", "/luts/a.cube"},
		{"windows drive", `C:\luts\a.cube`, `C\:/luts/a.cube`},
		{"colon in name", "/luts/v1:2.cube", `/luts/v1\:2.cube`},
		{"single quote", "/luts/Director's Cut.cube", `/luts/Director'\''s Cut.cube`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EscapeLUTPath(tt.in))
		})
	}
}

func TestLUTPathRoundTrip(t *testing.T) {
	paths := []string{"/luts/a.cube", "C:/luts/a.cube", "/x:y:z/lut.cube", "::", "/luts/Director's Cut.cube", "'a':'b'"}
	for _, p := range paths {
		escaped := EscapeLUTPath(p)
		assert.Equal(t, p, UnescapeLUTPath(escaped))
		assert.NotRegexp(t, `(^|[^\\]):`, escaped, "unescaped colon in %q", escaped)
		// Every quote in the path is emitted as a closed, escaped, reopened quote.
		assert.Equal(t, strings.Count(p, "'"), strings.Count(escaped, `'\''`))
	}
}

func TestBuildFilter_LUTWithQuote(t *testing.T) {
	got := BuildFilter(config.MethodAdvanced, config.DLogM, "/luts/Director's Cut.cube")
	assert.Equal(t, `lut3d=file='/luts/Director'\''s Cut.cube'`, got)
}

func TestVideoFilter(t *testing.T) {
	j := NewJob("/in/a.mp4", "/out/a_rec709.mp4", JobConfig{Method: config.MethodSimple})
	assert.Equal(t, simpleRec709+",scale=iw:ih,format=yuv420p", VideoFilter(j))
}

func TestNewJob_Defaults(t *testing.T) {
	j := NewJob("in.mp4", "out.mp4", JobConfig{CRF: 20})
	assert.Equal(t, config.MethodAdvanced, j.Config.Method)
	assert.Equal(t, config.DLogM, j.Config.DLogVariant)
	assert.Equal(t, "slow", j.Config.Preset)
	assert.Equal(t, 20, j.Config.CRF)
}

func TestJobConfigFrom(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.LUT = "/l.cube"
	jc := JobConfigFrom(&cfg)
	assert.Equal(t, "/l.cube", jc.LUT)
	assert.Equal(t, 18, jc.CRF)
	assert.True(t, jc.Overwrite)
}
