package embed

import (
	"context"
	"math"
	"testing"
)

func TestHashProviderDeterministic(t *testing.T) {
	ctx := context.Background()
	p := NewHashProvider(64)

	a, err := p.Embed(ctx, "ocean acidification trends")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	b, err := p.Embed(ctx, "ocean acidification trends")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}

	if len(a) != 64 {
		t.Fatalf("len = %d, want 64", len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("non-deterministic at %d: %v vs %v", i, a[i], b[i])
		}
	}

	other, err := p.Embed(ctx, "medieval trade routes")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	same := true
	for i := range a {
		if a[i] != other[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("distinct texts produced identical vectors")
	}
}

func TestHashProviderUnitNorm(t *testing.T) {
	p := NewHashProvider(32)
	v, err := p.Embed(context.Background(), "some text")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}

	var norm float64
	for _, x := range v {
		norm += x * x
	}
	if math.Abs(math.Sqrt(norm)-1) > 1e-9 {
		t.Errorf("norm = %v, want 1", math.Sqrt(norm))
	}
}

func TestHashProviderEmptyText(t *testing.T) {
	p := NewHashProvider(16)
	v, err := p.Embed(context.Background(), "")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	for i, x := range v {
		if x != 0 {
			t.Fatalf("empty text produced non-zero at %d: %v", i, x)
		}
	}
}

func TestHashProviderDefaultDimension(t *testing.T) {
	p := NewHashProvider(0)
	if p.Dimension() != DefaultDimension {
		t.Errorf("Dimension() = %d, want %d", p.Dimension(), DefaultDimension)
	}
}
