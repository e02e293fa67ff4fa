//go:build !windows

package audio

import (
	"fmt"
	"os/exec"
	"time"
)

func newSystemMixer(timeout time.Duration) (SystemMixer, error) {
	commands, err := systemCommands()
	if err != nil {
		return nil, err
	}
	if _, err := exec.LookPath(commands.Get[0]); err != nil {
		return nil, fmt.Errorf("%s mixer: %w", commands.Name, err)
	}
	return NewCommandMixer(commands, nil, timeout), nil
}
