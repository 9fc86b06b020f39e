package fuzztests

import (
	"context"
	"testing"

	"phpc/internal/diag"
	"phpc/internal/dump"
	"phpc/internal/source"
	"phpc/internal/testkit"
	"phpc/internal/validate"
)

// FuzzLoadAndValidate: an accepted dump must satisfy the unit invariants and survive
// validation; every finding is a SEM3101 warning with its chain attached.
func FuzzLoadAndValidate(f *testing.F) {
	addCorpusSeeds(f)
	f.Fuzz(func(t *testing.T, input []byte) {
		if len(input) > maxFuzzInput {
			input = input[:maxFuzzInput]
		}
		u, err := dump.Parse(source.NewFileSet(), "fuzz.yaml", input)
		if err != nil {
			return
		}
		if err := testkit.CheckUnitInvariants(u); err != nil {
			t.Fatalf("invariant: %v", err)
		}
		bag := diag.NewBag(0)
		st, err := validate.Run(context.Background(), u, &diag.BagReporter{Bag: bag}, validate.Options{})
		if err != nil {
			t.Fatalf("validate: %v", err)
		}
		if st.Reported != bag.Len() {
			t.Fatalf("reported %d, bag has %d", st.Reported, bag.Len())
		}
		for _, d := range bag.Items() {
			if d.Code != diag.SemaDangerousIsset || len(d.Notes) == 0 {
				t.Fatalf("unexpected diagnostic %+v", d)
			}
		}
	})
}
