package audio

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ayusman/pinchvol/internal/volume"
)

// DefaultCommandTimeout bounds a single mixer command.
const DefaultCommandTimeout = 2 * time.Second

// Runner executes a command and returns its combined output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// ExecRunner runs commands with os/exec.
func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return output, fmt.Errorf("%w: %s", err, strings.TrimSpace(string(output)))
	}
	return output, nil
}

// CommandSet describes how to drive a mixer through command line tools.
// Levels are whole percentages.
type CommandSet struct {
	Name       string
	Range      volume.Range
	Get        []string // argv that prints the current level
	Set        func(level int) []string
	ParseLevel func(output []byte) (float64, error)
}

// OSAScriptCommands drives the macOS output volume through osascript.
func OSAScriptCommands() CommandSet {
	return CommandSet{
		Name:  "osascript",
		Range: volume.Range{Min: 0, Max: 100},
		Get:   []string{"osascript", "-e", "output volume of (get volume settings)"},
		Set: func(level int) []string {
			return []string{"osascript", "-e", fmt.Sprintf("set volume output volume %d", level)}
		},
		ParseLevel: parsePlainLevel,
	}
}

// PactlCommands drives the default PulseAudio/PipeWire sink through pactl.
func PactlCommands() CommandSet {
	return CommandSet{
		Name:  "pactl",
		Range: volume.Range{Min: 0, Max: 100},
		Get:   []string{"pactl", "get-sink-volume", "@DEFAULT_SINK@"},
		Set: func(level int) []string {
			return []string{"pactl", "set-sink-volume", "@DEFAULT_SINK@", fmt.Sprintf("%d%%", level)}
		},
		ParseLevel: parsePercentLevel,
	}
}

func parsePlainLevel(output []byte) (float64, error) {
	s := strings.TrimSpace(string(output))
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse level %q: %w", s, err)
	}
	return v, nil
}

var percentPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)%`)

// parsePercentLevel reads the first "NN%" in the output (the first channel).
func parsePercentLevel(output []byte) (float64, error) {
	m := percentPattern.FindSubmatch(output)
	if m == nil {
		return 0, fmt.Errorf("parse level: no percentage in %q", strings.TrimSpace(string(output)))
	}
	return strconv.ParseFloat(string(m[1]), 64)
}

// CommandMixer implements Mixer with external commands.
type CommandMixer struct {
	commands CommandSet
	run      Runner
	timeout  time.Duration

	mu      sync.Mutex
	last    int
	hasLast bool
}

// NewCommandMixer creates a mixer for the given command set. A nil runner
// uses ExecRunner.
func NewCommandMixer(commands CommandSet, run Runner, timeout time.Duration) *CommandMixer {
	if run == nil {
		run = ExecRunner
	}
	if timeout <= 0 {
		timeout = DefaultCommandTimeout
	}
	return &CommandMixer{
		commands: commands,
		run:      run,
		timeout:  timeout,
	}
}

// Name returns the command set name.
func (m *CommandMixer) Name() string {
	return m.commands.Name
}

// Range checks the endpoint is reachable and returns the command set's range.
func (m *CommandMixer) Range(ctx context.Context) (volume.Range, error) {
	if _, err := m.Level(ctx); err != nil {
		return volume.Range{}, fmt.Errorf("%s mixer unavailable: %w", m.commands.Name, err)
	}
	return m.commands.Range, nil
}

// Level returns the current output level.
func (m *CommandMixer) Level(ctx context.Context) (float64, error) {
	out, err := m.exec(ctx, m.commands.Get)
	if err != nil {
		return 0, err
	}
	return m.commands.ParseLevel(out)
}

// SetLevel rounds level to a whole percentage and writes it. Writes equal
// to the last successful one are skipped.
func (m *CommandMixer) SetLevel(ctx context.Context, level float64) error {
	r := m.commands.Range
	level = math.Max(r.Min, math.Min(r.Max, level))
	target := int(math.Round(level))

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.hasLast && m.last == target {
		return nil
	}

	if _, err := m.exec(ctx, m.commands.Set(target)); err != nil {
		m.hasLast = false
		return err
	}

	m.last = target
	m.hasLast = true
	return nil
}

// Close is a no-op; each command holds the endpoint only while it runs.
func (m *CommandMixer) Close() error {
	return nil
}

func (m *CommandMixer) exec(ctx context.Context, argv []string) ([]byte, error) {
	if len(argv) == 0 {
		return nil, errors.New("empty mixer command")
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	out, err := m.run(ctx, argv[0], argv[1:]...)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%s timed out after %s", argv[0], m.timeout)
		}
		return nil, fmt.Errorf("%s: %w", argv[0], err)
	}
	return out, nil
}
