package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeScripts records AppleScript statements and answers with output.
func fakeScripts(t *testing.T, output string, err error) *[]string {
	t.Helper()
	var scripts []string
	orig := runScript
	runScript = func(script string) (string, error) {
		scripts = append(scripts, script)
		return output, err
	}
	t.Cleanup(func() { runScript = orig })
	return &scripts
}

func serve(t *testing.T, request string) Response {
	t.Helper()
	var out bytes.Buffer
	handle(strings.NewReader(request), &out)

	var resp Response
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp), "output: %s", out.String())
	return resp
}

func TestVolumeSet_Params(t *testing.T) {
	tests := []struct {
		name       string
		params     string
		wantErr    string
		wantScript string
	}{
		{name: "malformed json", params: `{"level":`, wantErr: "invalid params"},
		{name: "wrong type", params: `{"level":"loud"}`, wantErr: "invalid params"},
		{name: "missing level", params: `{}`, wantErr: "missing level"},
		{name: "null level", params: `{"level":null}`, wantErr: "missing level"},
		{name: "rounds", params: `{"level":42.6}`, wantScript: "set volume output volume 43"},
		{name: "zero", params: `{"level":0}`, wantScript: "set volume output volume 0"},
		{name: "clamps above", params: `{"level":140}`, wantScript: "set volume output volume 100"},
		{name: "clamps below", params: `{"level":-3}`, wantScript: "set volume output volume 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scripts := fakeScripts(t, "", nil)

			_, err := volumeSet(json.RawMessage(tt.params))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Empty(t, *scripts, "no script may run for bad params")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, []string{tt.wantScript}, *scripts)
		})
	}
}

func TestVolumeGet(t *testing.T) {
	t.Run("parses level", func(t *testing.T) {
		fakeScripts(t, "37", nil)
		data, err := volumeGet(nil)
		require.NoError(t, err)
		assert.Equal(t, map[string]float64{"level": 37}, data)
	})

	t.Run("device without volume", func(t *testing.T) {
		fakeScripts(t, "missing value", nil)
		_, err := volumeGet(nil)
		assert.ErrorContains(t, err, "no volume control")
	})
}

func TestHandle(t *testing.T) {
	t.Run("volume range", func(t *testing.T) {
		resp := serve(t, `{"action":"volume-range"}`)
		require.True(t, resp.Success, resp.Error)
		assert.JSONEq(t, `{"min":0,"max":100}`, string(resp.Data))
	})

	t.Run("volume set", func(t *testing.T) {
		scripts := fakeScripts(t, "", nil)
		resp := serve(t, `{"action":"volume-set","params":{"level":55}}`)
		require.True(t, resp.Success, resp.Error)
		assert.Empty(t, resp.Data)
		assert.Equal(t, []string{"set volume output volume 55"}, *scripts)
	})

	t.Run("script failure", func(t *testing.T) {
		fakeScripts(t, "", errors.New("osascript: not allowed"))
		resp := serve(t, `{"action":"volume-set","params":{"level":55}}`)
		assert.False(t, resp.Success)
		assert.Contains(t, resp.Error, "action volume-set failed")
	})

	t.Run("unknown action", func(t *testing.T) {
		resp := serve(t, `{"action":"volume-mute"}`)
		assert.False(t, resp.Success)
		assert.Equal(t, "unknown action: volume-mute", resp.Error)
	})

	t.Run("bad request", func(t *testing.T) {
		resp := serve(t, `not json`)
		assert.False(t, resp.Success)
		assert.Contains(t, resp.Error, "failed to decode request")
	})
}
