package dice

import (
	"testing"

	"github.com/sbstnppl/worldkeeper/pkg/entity"
)

func testEntity(t *testing.T, skills map[string]int) *entity.Entity {
	t.Helper()
	ent, err := entity.New(&entity.Spec{
		Key:    "mara",
		Name:   "Mara",
		Kind:   entity.KindPlayer,
		HP:     10,
		Skills: skills,
	})
	if err != nil {
		t.Fatalf("build entity: %v", err)
	}
	return ent
}

func TestRollerBounds(t *testing.T) {
	roller := NewRoller(42)
	ent := testEntity(t, map[string]int{"climbing": 3})

	for i := 0; i < 100; i++ {
		res := roller.Check(ent, "climbing", 10, false, false)
		if res.Roll < 1 || res.Roll > 20 {
			t.Fatalf("roll out of range: %d", res.Roll)
		}
		if res.Bonus != 3 {
			t.Fatalf("expected bonus 3, got %d", res.Bonus)
		}
		if res.Total != res.Roll+res.Bonus {
			t.Fatalf("total %d != roll %d + bonus %d", res.Total, res.Roll, res.Bonus)
		}
		if res.Success != (res.Total >= 10) {
			t.Fatalf("success flag inconsistent: %+v", res)
		}
	}
}

func TestRollerSeedReproducible(t *testing.T) {
	ent := testEntity(t, nil)

	a := NewRoller(7)
	b := NewRoller(7)
	for i := 0; i < 20; i++ {
		ra := a.Check(ent, "swimming", 12, false, false)
		rb := b.Check(ent, "swimming", 12, false, false)
		if ra != rb {
			t.Fatalf("same seed diverged at roll %d: %+v vs %+v", i, ra, rb)
		}
	}
}

func TestRollerAdvantageConsumesSecondDie(t *testing.T) {
	ent := testEntity(t, nil)

	// With the same seed, advantage keeps the higher of the two dice a
	// plain pair of checks would have rolled.
	plain := NewRoller(99)
	first := plain.Check(ent, "swimming", 10, false, false).Roll
	second := plain.Check(ent, "swimming", 10, false, false).Roll

	adv := NewRoller(99)
	got := adv.Check(ent, "swimming", 10, true, false).Roll
	want := first
	if second > first {
		want = second
	}
	if got != want {
		t.Errorf("advantage roll = %d, want max(%d, %d)", got, first, second)
	}

	dis := NewRoller(99)
	got = dis.Check(ent, "swimming", 10, false, true).Roll
	want = first
	if second < first {
		want = second
	}
	if got != want {
		t.Errorf("disadvantage roll = %d, want min(%d, %d)", got, first, second)
	}
}

func TestRollerAdvantageAndDisadvantageCancel(t *testing.T) {
	ent := testEntity(t, nil)

	plain := NewRoller(5)
	both := NewRoller(5)
	for i := 0; i < 10; i++ {
		p := plain.Check(ent, "swimming", 10, false, false)
		b := both.Check(ent, "swimming", 10, true, true)
		if p != b {
			t.Fatalf("advantage+disadvantage should roll once: %+v vs %+v", p, b)
		}
	}
}

func TestMockChecker(t *testing.T) {
	ent := testEntity(t, nil)
	mock := &MockChecker{
		Results: map[string]CheckResult{
			"climbing": {Roll: 18, Bonus: 2, Total: 20, Success: true},
		},
		Default: CheckResult{Roll: 1, Bonus: 0, Total: 1, Success: false},
	}

	res := mock.Check(ent, "climbing", 15, false, false)
	if !res.Success || res.Total != 20 {
		t.Errorf("unexpected scripted result: %+v", res)
	}
	res = mock.Check(ent, "swimming", 5, false, false)
	if res.Success {
		t.Errorf("default result should fail: %+v", res)
	}
	if len(mock.Calls) != 2 || mock.Calls[0] != "climbing" {
		t.Errorf("unexpected call log: %v", mock.Calls)
	}
}
