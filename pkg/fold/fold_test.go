package fold

import (
	"encoding/json"
	"fmt"
	"math"
	"testing"

	"github.com/matzehuels/stochfold/pkg/ensemble"
	"github.com/matzehuels/stochfold/pkg/errors"
	"github.com/matzehuels/stochfold/pkg/structure"
)

func mustPF(t *testing.T, c *Compound, err error) *Ensemble {
	t.Helper()
	if err != nil {
		t.Fatalf("new compound: %v", err)
	}
	ens, err := c.PF()
	if err != nil {
		t.Fatalf("PF: %v", err)
	}
	return ens
}

func relErr(a, b float64) float64 {
	return math.Abs(a-b) / math.Max(math.Abs(b), 1e-300)
}

func TestPFMatchesEnumeration(t *testing.T) {
	circular := DefaultModel()
	circular.Circular = true
	shortLoops := DefaultModel()
	shortLoops.MaxLoop = 2
	compat := DefaultModel()
	compat.MaxNonCompatible = 1

	tests := []struct {
		name  string
		rows  []string
		model Model
	}{
		{"hairpin", []string{"GGGAAAUCCC"}, DefaultModel()},
		{"two stems", []string{"GGACUUCGGUCCAGCAAAGCU"}, DefaultModel()},
		{"short loops", []string{"GGGAAGAAACCUCCC"}, shortLoops},
		{"circular", []string{"GGGAAAUCCCAGCUAAGC"}, circular},
		{"alignment", []string{"GGGAAAUCCC", "GGCAAAUGCC", "GAGA-AUCUC"}, DefaultModel()},
		{"alignment noncompat", []string{"GGGAAAUCCC", "GGCAAAUGCC", "AAGA-AUCUC"}, compat},
		{"alignment circular", []string{"GGGAAAUCCCAGCU", "GGCAAAUGCCAGCU"}, circular},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c *Compound
			var err error
			if len(tt.rows) == 1 {
				c, err = NewSingle(tt.rows[0], tt.model)
			} else {
				c, err = NewAlignment(tt.rows, tt.model)
			}
			ens := mustPF(t, c, err)

			var sum float64
			count := 0
			for _, w := range ens.Enumerate() {
				sum += w
				count++
			}
			if count < 2 {
				t.Fatalf("enumerated %d structures, want at least 2", count)
			}
			if relErr(sum, ens.Z()) > 1e-9 {
				t.Errorf("sum of weights = %g, Z = %g", sum, ens.Z())
			}
		})
	}
}

func TestPFLinearTables(t *testing.T) {
	c, err := NewSingle("GGGGAAACCCC", DefaultModel())
	ens := mustPF(t, c, err)

	if got := ens.Q5(0); got != 1 {
		t.Errorf("Q5(0) = %v, want 1", got)
	}
	if ens.Z() != ens.Q5(ens.Len()) {
		t.Errorf("Z = %v, want Q5(n) = %v", ens.Z(), ens.Q5(ens.Len()))
	}
	if got := ens.QB(1, 4); got != 0 {
		t.Errorf("QB(1,4) = %v, want 0 (hairpin too small)", got)
	}
	if ens.QB(1, 11) <= 0 {
		t.Error("QB(1,11) should be positive")
	}
	if got := ens.QB(0, 3); got != 0 {
		t.Errorf("QB out of range = %v, want 0", got)
	}
	if got := ens.QM2(1); got != 0 {
		t.Errorf("QM2 on linear ensemble = %v, want 0", got)
	}
	if !ens.Computed() || !ens.UniqueML() || ens.Circular() {
		t.Errorf("flags: computed=%v uniqueML=%v circular=%v", ens.Computed(), ens.UniqueML(), ens.Circular())
	}
	if ens.Kind() != ensemble.KindSingle {
		t.Errorf("Kind = %v, want single", ens.Kind())
	}
}

func TestPFWithoutUniqueML(t *testing.T) {
	md := DefaultModel()
	md.UniqueML = false
	c, err := NewSingle("GGGAAAUCCCAGCUAAGC", md)
	ens := mustPF(t, c, err)

	ref, err := NewSingle("GGGAAAUCCCAGCUAAGC", DefaultModel())
	want := mustPF(t, ref, err)

	if ens.UniqueML() {
		t.Error("UniqueML() = true, want false")
	}
	if ens.QM1(1, 10) != 0 {
		t.Error("QM1 should read as 0 without unique decomposition")
	}
	if relErr(ens.Z(), want.Z()) > 1e-12 {
		t.Errorf("Z = %g, want %g", ens.Z(), want.Z())
	}
}

func TestWeight(t *testing.T) {
	c, err := NewSingle("GGGAAAUCCC", DefaultModel())
	ens := mustPF(t, c, err)

	open := structure.Unstructured(10)
	w, err := ens.Weight(open)
	if err != nil {
		t.Fatalf("Weight: %v", err)
	}
	if w != 1 {
		t.Errorf("open chain weight = %v, want 1", w)
	}
	e, _ := ens.Energy(open)
	if e != 0 {
		t.Errorf("open chain energy = %v, want 0", e)
	}

	// GU-closed triloop 5.9, GC/CG stack -3.3, GC/UG stack -1.5.
	hp, _ := structure.Parse("(((...))).")
	e, err = ens.Energy(hp)
	if err != nil {
		t.Fatalf("Energy: %v", err)
	}
	if math.Abs(e-1.1) > 1e-9 {
		t.Errorf("hairpin energy = %v, want 1.1", e)
	}

	// A-A cannot pair.
	bad, _ := structure.Parse("...(...)..")
	if w, _ := ens.Weight(bad); w != 0 {
		t.Errorf("weight of impossible pair = %v, want 0", w)
	}
	if e, _ := ens.Energy(bad); !math.IsInf(e, 1) {
		t.Errorf("energy of impossible pair = %v, want +Inf", e)
	}
}

func TestWeightErrors(t *testing.T) {
	c, err := NewSingle("GGGAAAUCCC", DefaultModel())
	ens := mustPF(t, c, err)

	tests := []struct {
		name string
		s    structure.Structure
		code errors.Code
	}{
		{"length", structure.Unstructured(4), errors.ErrCodeInvalidInput},
		{"crossing", structure.New(10, []structure.Pair{{I: 1, J: 6}, {I: 3, J: 9}}), errors.ErrCodeInvalidFormat},
		{"range", structure.New(10, []structure.Pair{{I: 1, J: 11}}), errors.ErrCodeInvalidFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ens.Weight(tt.s)
			if !errors.Is(err, tt.code) {
				t.Errorf("Weight() error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestRestore(t *testing.T) {
	md := DefaultModel()
	md.Circular = true
	c, err := NewSingle("GGGAAAUCCCAGCUAAGC", md)
	ens := mustPF(t, c, err)

	data, err := json.Marshal(ens)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got, err := c.Restore(data)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if got.Fingerprint() != ens.Fingerprint() {
		t.Error("restored fingerprint differs")
	}
	if got.Z() != ens.Z() || got.QM2(3) != ens.QM2(3) {
		t.Error("restored tables differ")
	}

	other, _ := NewSingle("GGGAAAUCCCAGCUAAGG", md)
	if _, err := other.Restore(data); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("Restore into other compound error = %v, want INVALID_FORMAT", err)
	}
	if _, err := c.Restore([]byte("{")); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("Restore garbage error = %v, want INVALID_FORMAT", err)
	}
}

func TestKey(t *testing.T) {
	a, _ := NewSingle("GGGAAAUCCC", DefaultModel())
	b, _ := NewSingle("GGGAAAUCCC", DefaultModel())
	if a.Key() != b.Key() {
		t.Error("equal compounds should share a key")
	}

	warm := DefaultModel()
	warm.Temperature = 50
	c, _ := NewSingle("GGGAAAUCCC", warm)
	if a.Key() == c.Key() {
		t.Error("temperature should change the key")
	}
}

func TestNewErrors(t *testing.T) {
	bad := DefaultModel()
	bad.Temperature = -300

	tests := []struct {
		name string
		fn   func() error
		code errors.Code
	}{
		{"empty", func() error { _, err := NewSingle("", DefaultModel()); return err }, errors.ErrCodeInvalidSequence},
		{"alphabet", func() error { _, err := NewSingle("GGXCC", DefaultModel()); return err }, errors.ErrCodeInvalidSequence},
		{"temperature", func() error { _, err := NewSingle("GGGAAACCC", bad); return err }, errors.ErrCodeInvalidConfig},
		{"ragged", func() error { _, err := NewAlignment([]string{"GGG", "GG"}, DefaultModel()); return err }, errors.ErrCodeInvalidSequence},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.fn(); !errors.Is(err, tt.code) {
				t.Errorf("error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestKT(t *testing.T) {
	got := DefaultModel().KT()
	want := GasConstant * (37 + ZeroCelsius)
	if got != want {
		t.Errorf("KT() = %v, want %v", got, want)
	}
}

func ExampleCompound_PF() {
	c, err := NewSingle("GGGGAAACCCC", DefaultModel())
	if err != nil {
		panic(err)
	}
	ens, err := c.PF()
	if err != nil {
		panic(err)
	}
	mfe, _ := structure.Parse("((((...))))")
	w, _ := ens.Weight(mfe)
	fmt.Println(ens.Len(), ens.Probability(w) > 0.5)
	// Output: 11 true
}
