//go:build !darwin && !linux && !windows

package audio

import (
	"fmt"
	"runtime"
)

func systemCommands() (CommandSet, error) {
	return CommandSet{}, fmt.Errorf("%w: %s", ErrUnsupportedPlatform, runtime.GOOS)
}
