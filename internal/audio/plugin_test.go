package audio

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/pinchvol/internal/plugin"
	"github.com/ayusman/pinchvol/internal/volume"
)

// endpointScript emulates a dB endpoint. It stores the last level in a file
// next to the script.
const endpointScript = `#!/bin/sh
INPUT=$(cat)
case "$INPUT" in
  *'"volume-range"'*)
    echo '{"success":true,"data":{"min":-65,"max":0}}' ;;
  *'"volume-get"'*)
    LEVEL=$(cat level 2>/dev/null || echo 0)
    echo "{\"success\":true,\"data\":{\"level\":$LEVEL}}" ;;
  *'"volume-set"'*)
    echo "$INPUT" | sed 's/.*"level":\([-0-9.e]*\).*/\1/' > level
    echo '{"success":true}' ;;
  *)
    echo '{"success":false,"error":"unknown action"}' ;;
esac
`

func installPlugin(t *testing.T, name, script string, actions []string) *plugin.Manager {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("skipping test on Windows")
	}

	root := t.TempDir()
	dir := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "run.sh"), []byte(script), 0755))

	manifest, err := json.Marshal(plugin.Manifest{
		Name:       name,
		Version:    "1.0.0",
		Executable: "run.sh",
		Actions:    actions,
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, plugin.ManifestFile), manifest, 0644))

	mgr := plugin.NewManager(root)
	require.NoError(t, mgr.Discover())
	return mgr
}

var mixerActions = []string{plugin.ActionVolumeRange, plugin.ActionVolumeGet, plugin.ActionVolumeSet}

func TestPluginMixer(t *testing.T) {
	mgr := installPlugin(t, "endpoint", endpointScript, mixerActions)

	m, err := NewPluginMixer(mgr, "endpoint", plugin.NewExecutor(5*time.Second))
	require.NoError(t, err)
	assert.Equal(t, "endpoint", m.Name())

	ctx := context.Background()

	rng, err := m.Range(ctx)
	require.NoError(t, err)
	assert.Equal(t, volume.Range{Min: -65, Max: 0}, rng)

	require.NoError(t, m.SetLevel(ctx, -21.25))

	level, err := m.Level(ctx)
	require.NoError(t, err)
	assert.InDelta(t, -21.25, level, 1e-9)

	assert.NoError(t, m.Close())
}

func TestPluginMixer_ErrorResponse(t *testing.T) {
	mgr := installPlugin(t, "busy", `#!/bin/sh
cat >/dev/null
echo '{"success":false,"error":"device busy"}'
`, mixerActions)

	m, err := NewPluginMixer(mgr, "busy", plugin.NewExecutor(5*time.Second))
	require.NoError(t, err)

	err = m.SetLevel(context.Background(), -5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "device busy")

	_, err = m.Range(context.Background())
	assert.Error(t, err)
}

func TestPluginMixer_MissingData(t *testing.T) {
	mgr := installPlugin(t, "quiet", `#!/bin/sh
cat >/dev/null
echo '{"success":true}'
`, mixerActions)

	m, err := NewPluginMixer(mgr, "quiet", plugin.NewExecutor(5*time.Second))
	require.NoError(t, err)

	_, err = m.Range(context.Background())
	assert.ErrorContains(t, err, "empty response data")
}

func TestNewPluginMixer_Lookup(t *testing.T) {
	mgr := installPlugin(t, "partial", "#!/bin/sh\n", []string{plugin.ActionVolumeRange})

	_, err := NewPluginMixer(mgr, "partial", plugin.NewExecutor(time.Second))
	assert.ErrorIs(t, err, plugin.ErrActionNotSupported)

	_, err = NewPluginMixer(mgr, "absent", plugin.NewExecutor(time.Second))
	assert.ErrorIs(t, err, plugin.ErrPluginNotFound)
}
