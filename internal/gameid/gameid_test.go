package gameid

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/lox/blackjack/internal/randutil"
)

func TestGenerate(t *testing.T) {
	id := Generate()

	if len(id) != Length {
		t.Errorf("expected %d characters, got %d", Length, len(id))
	}
	if err := Validate(id); err != nil {
		t.Errorf("generated ID failed validation: %v", err)
	}
}

func TestGenerateUnique(t *testing.T) {
	ids := make(map[string]bool)

	for i := 0; i < 1000; i++ {
		id := Generate()
		if ids[id] {
			t.Errorf("duplicate ID generated: %s", id)
		}
		ids[id] = true
	}
}

func TestGenerateTimeSorted(t *testing.T) {
	ctx := context.Background()
	clock := quartz.NewMock(t)
	clock.Set(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)).MustWait(ctx)
	g := NewGenerator(clock, randutil.New(1))

	prev := g.Generate()
	for i := 0; i < 50; i++ {
		clock.Advance(time.Millisecond).MustWait(ctx)
		next := g.Generate()
		if strings.Compare(prev, next) >= 0 {
			t.Fatalf("ids not time sorted: %s >= %s", prev, next)
		}
		prev = next
	}
}

func TestGeneratorDeterministic(t *testing.T) {
	ctx := context.Background()
	clock := quartz.NewMock(t)
	clock.Set(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)).MustWait(ctx)

	a := NewGenerator(clock, randutil.New(42)).Generate()
	b := NewGenerator(clock, randutil.New(42)).Generate()
	if a != b {
		t.Errorf("same clock and seed produced %s and %s", a, b)
	}
}

func TestTimestampRoundTrip(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2025, 3, 1, 12, 34, 56, 789_000_000, time.UTC)
	clock := quartz.NewMock(t)
	clock.Set(at).MustWait(ctx)

	id := NewGenerator(clock, randutil.New(7)).Generate()
	got, err := Timestamp(id)
	if err != nil {
		t.Fatalf("Timestamp(%s): %v", id, err)
	}
	if !got.Equal(at) {
		t.Errorf("Timestamp = %v, want %v", got.UTC(), at)
	}
}

func TestEncodeDecodeVersionBits(t *testing.T) {
	id := NewGenerator(nil, randutil.New(9)).Generate()
	u, err := decode(id)
	if err != nil {
		t.Fatal(err)
	}
	if u[6]>>4 != 7 {
		t.Errorf("version nibble = %x, want 7", u[6]>>4)
	}
	if u[8]>>6 != 2 {
		t.Errorf("variant bits = %b, want 10", u[8]>>6)
	}
	if encode(u) != id {
		t.Errorf("re-encoding %s produced %s", id, encode(u))
	}
}

func TestEncodeKnownValues(t *testing.T) {
	var zero [16]byte
	if got := encode(zero); got != strings.Repeat("0", Length) {
		t.Errorf("encode(zero) = %s", got)
	}

	var ones [16]byte
	for i := range ones {
		ones[i] = 0xff
	}
	if got := encode(ones); got != "7"+strings.Repeat("z", Length-1) {
		t.Errorf("encode(ones) = %s", got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"valid", "01h455vb4pex5vsknk084sn02q", false},
		{"too short", "01h455vb4pex5vsknk084sn02", true},
		{"too long", "01h455vb4pex5vsknk084sn02qq", true},
		{"first char too high", "81h455vb4pex5vsknk084sn02q", true},
		{"excluded letter", "01h455vb4pex5vsknk084sn0iq", true},
		{"upper case", "01H455VB4PEX5VSKNK084SN02Q", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.id)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
			}
		})
	}
}
