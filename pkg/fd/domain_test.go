package fd

import (
	"testing"
)

func TestNewBitSetDomain(t *testing.T) {
	tests := []struct {
		name     string
		maxValue int
		wantSize int
	}{
		{"small domain", 5, 5},
		{"single value", 1, 1},
		{"large domain", 100, 100},
		{"zero", 0, 0},
		{"negative", -3, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			domain := NewBitSetDomain(tt.maxValue)
			if domain.Count() != tt.wantSize {
				t.Errorf("Count() = %d, want %d", domain.Count(), tt.wantSize)
			}
			for i := 1; i <= tt.maxValue; i++ {
				if !domain.Has(i) {
					t.Errorf("domain should contain %d", i)
				}
			}
			if domain.Has(0) {
				t.Error("domain should not contain 0")
			}
			if domain.Has(tt.maxValue + 1) {
				t.Errorf("domain should not contain %d", tt.maxValue+1)
			}
		})
	}
}

func TestNewBitSetDomainFromValues(t *testing.T) {
	tests := []struct {
		name     string
		maxValue int
		values   []int
		want     []int
	}{
		{"sparse", 20, []int{1, 5, 10, 15, 20}, []int{1, 5, 10, 15, 20}},
		{"single", 10, []int{7}, []int{7}},
		{"empty", 10, []int{}, []int{}},
		{"duplicates", 5, []int{1, 2, 2, 3, 3, 3}, []int{1, 2, 3}},
		{"outside range", 5, []int{-1, 0, 3, 6, 10}, []int{3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewBitSetDomainFromValues(tt.maxValue, tt.values).ToSlice()
			if len(got) != len(tt.want) {
				t.Fatalf("ToSlice() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("ToSlice() = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestBitSetDomain_Singleton(t *testing.T) {
	d := NewBitSetDomainFromValues(9, []int{4})
	if !d.IsSingleton() {
		t.Fatal("expected singleton")
	}
	if got := d.SingletonValue(); got != 4 {
		t.Errorf("SingletonValue() = %d, want 4", got)
	}

	defer func() {
		if recover() == nil {
			t.Error("SingletonValue on empty domain should panic")
		}
	}()
	NewBitSetDomainFromValues(9, nil).SingletonValue()
}

func TestBitSetDomain_IntersectAndEqual(t *testing.T) {
	a := NewBitSetDomainFromValues(9, []int{1, 2, 3, 4})
	b := NewBitSetDomainFromValues(9, []int{3, 4, 5})

	got := a.Intersect(b)
	if !got.Equal(NewBitSetDomainFromValues(9, []int{3, 4})) {
		t.Errorf("Intersect = %s, want {3..4}", got)
	}
	if a.Equal(b) {
		t.Error("different domains compared equal")
	}
	if got := a.Intersect(NewBitSetDomain(5)); got.Count() != 0 {
		t.Errorf("intersecting mismatched sizes should be empty, got %s", got)
	}
	if a.Equal(NewBitSetDomainFromValues(10, []int{1, 2, 3, 4})) {
		t.Error("domains with different max values compared equal")
	}
}

func TestBitSetDomain_String(t *testing.T) {
	tests := []struct {
		name   string
		domain *BitSetDomain
		want   string
	}{
		{"empty", NewBitSetDomainFromValues(5, nil), "{}"},
		{"single", NewBitSetDomainFromValues(5, []int{2}), "{2}"},
		{"run", NewBitSetDomain(100), "{1..100}"},
		{"sparse", NewBitSetDomainFromValues(9, []int{1, 3, 5}), "{1,3,5}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.domain.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}

	var even []int
	for i := 2; i <= 60; i += 2 {
		even = append(even, i)
	}
	got := NewBitSetDomainFromValues(60, even).String()
	want := "{2,4,6,8,10,12,14,16,18,20,22,24,26,28,30,32,34,36,38,40,...+10 more}"
	if got != want {
		t.Errorf("truncated String() = %q, want %q", got, want)
	}
}
