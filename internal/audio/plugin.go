package audio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ayusman/pinchvol/internal/plugin"
	"github.com/ayusman/pinchvol/internal/volume"
)

// PluginMixer forwards mixer calls to an external plugin. Plugins report
// levels in their device's native units.
type PluginMixer struct {
	plugin   *plugin.Plugin
	executor *plugin.Executor
}

type levelData struct {
	Level float64 `json:"level"`
}

// NewPluginMixer looks up name in the manager and checks that it provides
// the mixer actions.
func NewPluginMixer(mgr *plugin.Manager, name string, executor *plugin.Executor) (*PluginMixer, error) {
	p, err := mgr.Lookup(name, plugin.ActionVolumeRange, plugin.ActionVolumeGet, plugin.ActionVolumeSet)
	if err != nil {
		return nil, err
	}
	return &PluginMixer{plugin: p, executor: executor}, nil
}

// Name returns the plugin name.
func (m *PluginMixer) Name() string {
	return m.plugin.Manifest.Name
}

// Range asks the plugin for the device range.
func (m *PluginMixer) Range(ctx context.Context) (volume.Range, error) {
	var rng volume.Range
	if err := m.call(ctx, plugin.ActionVolumeRange, nil, &rng); err != nil {
		return volume.Range{}, err
	}
	return rng, nil
}

// Level asks the plugin for the current level.
func (m *PluginMixer) Level(ctx context.Context) (float64, error) {
	var data levelData
	if err := m.call(ctx, plugin.ActionVolumeGet, nil, &data); err != nil {
		return 0, err
	}
	return data.Level, nil
}

// SetLevel sends the level to the plugin.
func (m *PluginMixer) SetLevel(ctx context.Context, level float64) error {
	return m.call(ctx, plugin.ActionVolumeSet, levelData{Level: level}, nil)
}

// Close is a no-op; plugins run once per request.
func (m *PluginMixer) Close() error {
	return nil
}

func (m *PluginMixer) call(ctx context.Context, action string, params, out any) error {
	req := &plugin.Request{Action: action}
	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return fmt.Errorf("marshal %s params: %w", action, err)
		}
		req.Params = raw
	}

	resp, err := m.executor.Execute(ctx, m.plugin, req)
	if err != nil {
		return err
	}
	if !resp.Success {
		msg := resp.Error
		if msg == "" {
			msg = "unknown error"
		}
		return fmt.Errorf("%s %s: %w", m.plugin.Manifest.Name, action, errors.New(msg))
	}

	if out == nil {
		return nil
	}
	if len(resp.Data) == 0 {
		return fmt.Errorf("%s %s: empty response data", m.plugin.Manifest.Name, action)
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("%s %s: decode data: %w", m.plugin.Manifest.Name, action, err)
	}
	return nil
}
