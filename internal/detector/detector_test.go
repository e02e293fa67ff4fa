package detector

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"gocv.io/x/gocv"
)

func TestHandLandmarks_Pixel(t *testing.T) {
	hand := HandLandmarks{
		Points: []Point3D{
			{X: 0.5, Y: 0.5},
			{X: 0.0, Y: 1.0},
			{X: 0.2999, Y: 0.1001},
		},
	}

	tests := []struct {
		name string
		id   int
		want image.Point
	}{
		{"center", 0, image.Point{X: 640, Y: 360}},
		{"bottom left corner", 1, image.Point{X: 0, Y: 720}},
		{"truncates toward zero", 2, image.Point{X: 383, Y: 72}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := hand.Pixel(tt.id, 1280, 720); got != tt.want {
				t.Errorf("Pixel(%d) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}

	t.Run("Pixels converts every point", func(t *testing.T) {
		pts := hand.Pixels(1280, 720)
		if len(pts) != len(hand.Points) {
			t.Fatalf("Pixels() returned %d points, want %d", len(pts), len(hand.Points))
		}
		if pts[0] != (image.Point{X: 640, Y: 360}) {
			t.Errorf("Pixels()[0] = %v", pts[0])
		}
	})
}

func TestHandLandmarks_Has(t *testing.T) {
	full := OpenPalmLandmarks()
	partial := PartialLandmarks(8)

	if !full.Has(IndexTip) {
		t.Error("full hand should have the index tip")
	}
	if partial.Has(IndexTip) {
		t.Error("8-point hand should not have the index tip")
	}
	if !partial.Has(ThumbTip) {
		t.Error("8-point hand should have the thumb tip")
	}
	if full.Has(-1) || full.Has(NumLandmarks) {
		t.Error("out of range ids should not be present")
	}
}

func TestHandConnections(t *testing.T) {
	for _, c := range HandConnections {
		for _, id := range c {
			if id < 0 || id >= NumLandmarks {
				t.Errorf("connection %v references invalid landmark %d", c, id)
			}
		}
	}
}

func TestMockDetector(t *testing.T) {
	t.Run("returns empty hands by default", func(t *testing.T) {
		m := NewMockDetector()
		hands, err := m.Detect(nil)
		if err != nil {
			t.Fatalf("Detect() error = %v", err)
		}
		if len(hands) != 0 {
			t.Errorf("expected no hands, got %d", len(hands))
		}
	})

	t.Run("returns configured hands", func(t *testing.T) {
		m := NewMockDetector()
		m.SetHands([]HandLandmarks{ClosedPinchLandmarks()})

		hands, err := m.Detect(nil)
		if err != nil {
			t.Fatalf("Detect() error = %v", err)
		}
		if len(hands) != 1 {
			t.Fatalf("expected 1 hand, got %d", len(hands))
		}
		if m.Calls() != 1 {
			t.Errorf("Calls() = %d, want 1", m.Calls())
		}
	})

	t.Run("returns configured error", func(t *testing.T) {
		m := NewMockDetector()
		wantErr := errors.New("detection failed")
		m.SetError(wantErr)

		_, err := m.Detect(nil)
		if !errors.Is(err, wantErr) {
			t.Errorf("Detect() error = %v, want %v", err, wantErr)
		}
	})

	t.Run("Close marks closed", func(t *testing.T) {
		m := NewMockDetector()
		if err := m.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
		if !m.Closed() {
			t.Error("Closed() should be true after Close()")
		}
	})

	t.Run("implements Detector interface", func(t *testing.T) {
		var _ Detector = NewMockDetector()
		var _ Detector = &MediaPipeDetector{}
	})
}

func TestFixtures(t *testing.T) {
	t.Run("closed pinch has coincident tips", func(t *testing.T) {
		h := ClosedPinchLandmarks()
		if h.Points[ThumbTip] != h.Points[IndexTip] {
			t.Errorf("thumb %v and index %v should coincide", h.Points[ThumbTip], h.Points[IndexTip])
		}
	})

	t.Run("partial hand is truncated", func(t *testing.T) {
		if got := len(PartialLandmarks(8).Points); got != 8 {
			t.Errorf("len = %d, want 8", got)
		}
		if got := len(PartialLandmarks(50).Points); got != NumLandmarks {
			t.Errorf("len = %d, want %d", got, NumLandmarks)
		}
		if got := len(PartialLandmarks(-3).Points); got != 0 {
			t.Errorf("len = %d, want 0", got)
		}
	})

	t.Run("fixtures do not share backing arrays", func(t *testing.T) {
		a := OpenPalmLandmarks()
		b := OpenPalmLandmarks()
		a.Points[Wrist].X = 99
		if b.Points[Wrist].X == 99 {
			t.Error("fixtures should be independent")
		}
	})
}

func TestParseResponse(t *testing.T) {
	t.Run("full and partial hands", func(t *testing.T) {
		line := []byte(`{"hands":[{"points":[{"x":0.1,"y":0.2,"z":0.3},{"x":0.4,"y":0.5,"z":0.6}],"handedness":"Left","score":0.9}]}` + "\n")

		hands, err := parseResponse(line)
		if err != nil {
			t.Fatalf("parseResponse() error = %v", err)
		}
		if len(hands) != 1 {
			t.Fatalf("expected 1 hand, got %d", len(hands))
		}
		h := hands[0]
		if len(h.Points) != 2 {
			t.Errorf("expected 2 points, got %d", len(h.Points))
		}
		if h.Handedness != "Left" || h.Score != 0.9 {
			t.Errorf("unexpected metadata: %q %f", h.Handedness, h.Score)
		}
		if h.Points[1] != (Point3D{X: 0.4, Y: 0.5, Z: 0.6}) {
			t.Errorf("unexpected point: %v", h.Points[1])
		}
	})

	t.Run("no hands", func(t *testing.T) {
		hands, err := parseResponse([]byte(`{"hands":[]}`))
		if err != nil {
			t.Fatalf("parseResponse() error = %v", err)
		}
		if len(hands) != 0 {
			t.Errorf("expected no hands, got %d", len(hands))
		}
	})

	t.Run("extra points are dropped", func(t *testing.T) {
		pts := make([]jsonPoint, NumLandmarks+4)
		h := jsonHand{Points: pts}.toHandLandmarks()
		if len(h.Points) != NumLandmarks {
			t.Errorf("expected %d points, got %d", NumLandmarks, len(h.Points))
		}
	})

	t.Run("invalid json", func(t *testing.T) {
		if _, err := parseResponse([]byte("not json")); err == nil {
			t.Error("expected error for invalid json")
		}
	})
}

func TestWriteFrame(t *testing.T) {
	var buf bytes.Buffer
	payload := []byte{0xff, 0xd8, 0xff, 0xe0}

	if err := writeFrame(&buf, payload); err != nil {
		t.Fatalf("writeFrame() error = %v", err)
	}

	out := buf.Bytes()
	if len(out) != 4+len(payload) {
		t.Fatalf("wrote %d bytes, want %d", len(out), 4+len(payload))
	}
	if n := binary.BigEndian.Uint32(out[:4]); n != uint32(len(payload)) {
		t.Errorf("length prefix = %d, want %d", n, len(payload))
	}
	if !bytes.Equal(out[4:], payload) {
		t.Errorf("payload = %x, want %x", out[4:], payload)
	}
}

func TestServiceArgs(t *testing.T) {
	args := serviceArgs(DefaultConfig())

	want := []string{
		"--max-hands", "1",
		"--min-detection-confidence", "0.7",
		"--min-tracking-confidence", "0.5",
		"--static-image-mode=false",
	}
	if len(args) != len(want) {
		t.Fatalf("serviceArgs() = %v, want %v", args, want)
	}
	for i := range want {
		if args[i] != want[i] {
			t.Errorf("serviceArgs()[%d] = %q, want %q", i, args[i], want[i])
		}
	}
}

func TestNewMediaPipeDetector(t *testing.T) {
	t.Run("missing script", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.ScriptPath = filepath.Join(t.TempDir(), "missing.py")

		if _, err := NewMediaPipeDetector(cfg); err == nil {
			t.Error("expected error for missing script")
		}
	})

	t.Run("explicit script and interpreter", func(t *testing.T) {
		script := filepath.Join(t.TempDir(), ServiceScript)
		if err := os.WriteFile(script, []byte("# service\n"), 0644); err != nil {
			t.Fatalf("write script: %v", err)
		}

		cfg := DefaultConfig()
		cfg.ScriptPath = script
		cfg.PythonPath = "/usr/bin/python3"

		d, err := NewMediaPipeDetector(cfg)
		if err != nil {
			t.Fatalf("NewMediaPipeDetector() error = %v", err)
		}
		if d.scriptPath != script || d.pythonPath != "/usr/bin/python3" {
			t.Errorf("unexpected paths: %q %q", d.scriptPath, d.pythonPath)
		}

		// Never started, so Close is a no-op
		if err := d.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
}

// stubService speaks the landmark protocol without MediaPipe. It rejects
// unknown flags and answers every JPEG with max-hands copies of one hand.
const stubService = `
import argparse, json, struct, sys

p = argparse.ArgumentParser()
p.add_argument("--max-hands", type=int, required=True)
p.add_argument("--min-detection-confidence", type=float, required=True)
p.add_argument("--min-tracking-confidence", type=float, required=True)
p.add_argument("--static-image-mode", choices=["true", "false"], required=True)
args = p.parse_args()

stdin = sys.stdin.buffer
while True:
    head = stdin.read(4)
    if len(head) < 4:
        break
    (n,) = struct.unpack(">I", head)
    data = stdin.read(n)
    if len(data) != n or data[:2] != b"\xff\xd8":
        sys.stdout.write(json.dumps({"hands": []}) + "\n")
        sys.stdout.flush()
        continue
    hand = {
        "points": [{"x": 0.25, "y": 0.5, "z": -0.01}] * 21,
        "handedness": "Right",
        "score": args.min_detection_confidence,
    }
    sys.stdout.write(json.dumps({"hands": [hand] * args.max_hands}) + "\n")
    sys.stdout.flush()
`

func TestMediaPipeDetector_ServiceRoundTrip(t *testing.T) {
	python, err := exec.LookPath("python3")
	if err != nil {
		t.Skip("python3 not available")
	}

	script := filepath.Join(t.TempDir(), ServiceScript)
	if err := os.WriteFile(script, []byte(stubService), 0644); err != nil {
		t.Fatalf("write script: %v", err)
	}

	cfg := DefaultConfig()
	cfg.MaxHands = 2
	cfg.ScriptPath = script
	cfg.PythonPath = python

	d, err := NewMediaPipeDetector(cfg)
	if err != nil {
		t.Fatalf("NewMediaPipeDetector() error = %v", err)
	}

	frame := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 480, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()

	// the service process is reused across frames
	for i := 0; i < 2; i++ {
		hands, err := d.Detect(&frame)
		if err != nil {
			t.Fatalf("Detect() #%d error = %v", i, err)
		}
		if len(hands) != 2 {
			t.Fatalf("Detect() #%d returned %d hands, want 2", i, len(hands))
		}

		h := hands[0]
		if len(h.Points) != NumLandmarks {
			t.Errorf("got %d points, want %d", len(h.Points), NumLandmarks)
		}
		if h.Handedness != "Right" || h.Score != 0.7 {
			t.Errorf("handedness/score = %q/%g, want Right/0.7", h.Handedness, h.Score)
		}
		if got := h.Pixel(IndexTip, 640, 480); got != (image.Point{X: 160, Y: 240}) {
			t.Errorf("Pixel(IndexTip) = %v, want (160,240)", got)
		}
	}

	if err := d.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestServiceScript_AcceptsServiceArgs(t *testing.T) {
	src, err := os.ReadFile(filepath.Join("..", "..", "scripts", ServiceScript))
	if err != nil {
		t.Fatalf("read shipped service script: %v", err)
	}

	for _, arg := range serviceArgs(DefaultConfig()) {
		if !strings.HasPrefix(arg, "--") {
			continue
		}
		flag, _, _ := strings.Cut(arg, "=")
		if !strings.Contains(string(src), `"`+flag+`"`) {
			t.Errorf("%s does not define %s", ServiceScript, flag)
		}
	}
}
