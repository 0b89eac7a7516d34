package object

import (
	"bytes"
	"errors"
	"testing"
)

func TestApplyDeltaInsertOnly(t *testing.T) {
	base := []byte("base")
	delta := deltaStream(4, 5, append([]byte{5}, []byte("hello")...)...)

	got, err := ApplyDelta(base, delta)
	if err != nil {
		t.Fatalf("ApplyDelta: %v", err)
	}
	if string(got) != "hello" {
		t.Errorf("result: got %q, want %q", got, "hello")
	}
}

func TestApplyDeltaCopyOnly(t *testing.T) {
	base := []byte("0123456789")
	// Copy 4 bytes from offset 3: cmd 0x91 = offset byte 0 + size byte 0.
	delta := deltaStream(10, 4, 0x91, 3, 4)

	got, err := ApplyDelta(base, delta)
	if err != nil {
		t.Fatalf("ApplyDelta: %v", err)
	}
	if string(got) != "3456" {
		t.Errorf("result: got %q, want %q", got, "3456")
	}
}

func TestApplyDeltaCopyThenInsert(t *testing.T) {
	base := []byte("hello world")
	var instr []byte
	instr = append(instr, 0x91, 0, 5) // copy "hello"
	instr = append(instr, 1, ',')     // insert ","
	instr = append(instr, 0x91, 5, 6) // copy " world"
	delta := deltaStream(len(base), 12, instr...)

	got, err := ApplyDelta(base, delta)
	if err != nil {
		t.Fatalf("ApplyDelta: %v", err)
	}
	if string(got) != "hello, world" {
		t.Errorf("result: got %q, want %q", got, "hello, world")
	}
}

func TestApplyDeltaDeterministic(t *testing.T) {
	base := []byte("determinism determinism")
	delta := deltaStream(len(base), 11, 0x91, 12, 11)

	first, err := ApplyDelta(base, delta)
	if err != nil {
		t.Fatalf("ApplyDelta: %v", err)
	}
	second, err := ApplyDelta(base, delta)
	if err != nil {
		t.Fatalf("ApplyDelta: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("delta resolution not deterministic")
	}
}

func TestApplyDeltaDefaultCopySize(t *testing.T) {
	// A copy instruction with no size bytes spans the fixed default of
	// 4096 bytes.
	base := bytes.Repeat([]byte{0x42}, 5000)
	delta := deltaStream(len(base), 4096, 0x80)

	got, err := ApplyDelta(base, delta)
	if err != nil {
		t.Fatalf("ApplyDelta: %v", err)
	}
	if len(got) != 4096 {
		t.Errorf("default copy span: got %d bytes, want 4096", len(got))
	}
}

func TestApplyDeltaMultiByteOffset(t *testing.T) {
	base := bytes.Repeat([]byte{0}, 300)
	base = append(base, []byte("target")...)
	// Offset 300 = 0x012c needs two offset bytes: cmd 0x93.
	delta := deltaStream(len(base), 6, 0x93, 0x2c, 0x01, 6)

	got, err := ApplyDelta(base, delta)
	if err != nil {
		t.Fatalf("ApplyDelta: %v", err)
	}
	if string(got) != "target" {
		t.Errorf("result: got %q, want %q", got, "target")
	}
}

func TestApplyDeltaSourceSizeMismatch(t *testing.T) {
	delta := deltaStream(99, 1, 1, 'x')
	if _, err := ApplyDelta([]byte("short"), delta); !errors.Is(err, ErrDeltaSizeMismatch) {
		t.Errorf("got %v, want ErrDeltaSizeMismatch", err)
	}
}

func TestApplyDeltaTargetSizeMismatch(t *testing.T) {
	base := []byte("base")
	delta := deltaStream(4, 99, 1, 'x') // produces 1 byte, declares 99
	if _, err := ApplyDelta(base, delta); !errors.Is(err, ErrDeltaSizeMismatch) {
		t.Errorf("got %v, want ErrDeltaSizeMismatch", err)
	}
}

func TestApplyDeltaCopyOutOfRange(t *testing.T) {
	base := []byte("0123456789")

	tests := []struct {
		name  string
		instr []byte
	}{
		{"length beyond end", []byte{0x91, 8, 5}},
		{"offset beyond end", []byte{0x91, 20, 1}},
		{"default span beyond end", []byte{0x80}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			delta := deltaStream(len(base), 5, tt.instr...)
			if _, err := ApplyDelta(base, delta); !errors.Is(err, ErrDeltaRange) {
				t.Errorf("got %v, want ErrDeltaRange", err)
			}
		})
	}
}

func TestApplyDeltaInvalidInstruction(t *testing.T) {
	base := []byte("base")
	delta := deltaStream(4, 1, 0) // instruction byte 0 is reserved
	if _, err := ApplyDelta(base, delta); err == nil {
		t.Error("ApplyDelta accepted instruction byte 0")
	}
}

func TestApplyDeltaTruncatedInsert(t *testing.T) {
	base := []byte("base")
	delta := deltaStream(4, 5, 5, 'a', 'b') // declares 5 literal bytes, has 2
	if _, err := ApplyDelta(base, delta); err == nil {
		t.Error("ApplyDelta accepted truncated insert")
	}
}
