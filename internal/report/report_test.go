package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/backmassage/dlogconv/internal/batch"
	"github.com/backmassage/dlogconv/internal/pipeline"
)

func sampleResponse() pipeline.Response {
	return pipeline.NewResponse([]batch.Result{
		{Input: "/in/a.mp4", Output: "/out/a_rec709.mp4", Success: true},
		{Input: "/in/b.mp4", Output: "/out/b_rec709.mp4", Error: "input file does not exist: /in/b.mp4"},
	})
}

func TestWrite_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "batch.json")
	require.NoError(t, Write(path, sampleResponse()))

	b, err := os.ReadFile(path)
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, false, got["success"])
	assert.Equal(t, map[string]interface{}{"total": 2.0, "success": 1.0, "failed": 1.0}, got["summary"])
	assert.Len(t, got["results"], 2)
}

func TestWrite_YAML(t *testing.T) {
	for _, name := range []string{"batch.yaml", "batch.YML"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			require.NoError(t, Write(path, sampleResponse()))

			b, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Contains(t, string(b), "success: false")

			var got pipeline.Response
			require.NoError(t, yaml.Unmarshal(b, &got))
			assert.Equal(t, batch.Summary{Total: 2, Success: 1, Failed: 1}, got.Summary)
			assert.Equal(t, "/out/a_rec709.mp4", got.Results[0].Output)
		})
	}
}

func TestMarshal_UnknownExtensionIsJSON(t *testing.T) {
	b, err := Marshal("report.txt", sampleResponse())
	require.NoError(t, err)
	assert.True(t, json.Valid(b))
}
