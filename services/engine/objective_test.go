package engine

import (
	"reflect"
	"testing"
)

func TestObjectiveAdvance(t *testing.T) {
	o := Objective{ID: 0, Type: ObjectiveCollect, Target: 3}

	o.Advance(2)
	if o.Progress != 2 || o.Completed {
		t.Fatalf("after +2: progress=%d completed=%v, want 2/false", o.Progress, o.Completed)
	}

	o.Advance(5)
	if o.Progress != 3 || !o.Completed {
		t.Fatalf("after +5: progress=%d completed=%v, want clamp to 3/true", o.Progress, o.Completed)
	}

	o.Advance(1)
	if o.Progress != 3 {
		t.Fatalf("completed objective advanced to %d", o.Progress)
	}

	o.Advance(-10)
	if o.Progress != 3 || !o.Completed {
		t.Fatal("negative advance mutated a completed objective")
	}
}

func TestNewObjectiveSetValidation(t *testing.T) {
	valid := func() []Objective {
		return []Objective{
			{ID: 0, Type: ObjectiveCollect, Target: 2, Required: true},
			{ID: 1, Type: ObjectiveHack, Target: 1, BonusBps: 500},
		}
	}

	tests := []struct {
		name   string
		mutate func([]Objective) []Objective
	}{
		{"empty", func(o []Objective) []Objective { return nil }},
		{"target zero", func(o []Objective) []Objective { o[0].Target = 0; return o }},
		{"progress past target", func(o []Objective) []Objective { o[0].Progress = 3; return o }},
		{"negative progress", func(o []Objective) []Objective { o[1].Progress = -1; return o }},
		{"bonus overflow", func(o []Objective) []Objective { o[1].BonusBps = 10001; return o }},
		{"id out of sequence", func(o []Objective) []Objective { o[1].ID = 5; return o }},
		{"unknown type", func(o []Objective) []Objective { o[0].Type = ObjectiveTime + 1; return o }},
		{"too many", func(o []Objective) []Objective {
			out := make([]Objective, MaxObjectives+1)
			for i := range out {
				out[i] = Objective{ID: uint8(i), Type: ObjectiveCollect, Target: 1}
			}
			return out
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewObjectiveSet(tt.mutate(valid())); err == nil {
				t.Fatal("NewObjectiveSet = nil error, want rejection")
			}
		})
	}

	if _, err := NewObjectiveSet(valid()); err != nil {
		t.Fatalf("valid set rejected: %v", err)
	}
}

func TestSetAdvanceAndRequiredComplete(t *testing.T) {
	set, err := NewObjectiveSet([]Objective{
		{ID: 0, Type: ObjectiveDefeat, Target: 2, Required: true},
		{ID: 1, Type: ObjectiveDefeat, Target: 1, BonusBps: 400},
		{ID: 2, Type: ObjectiveCollect, Target: 1, Required: true},
	})
	if err != nil {
		t.Fatalf("NewObjectiveSet: %v", err)
	}

	if set.RequiredComplete() {
		t.Fatal("fresh set reports required complete")
	}

	set.Advance(ObjectiveDefeat, 1)
	if set.Objectives[0].Progress != 1 || set.Objectives[1].Progress != 1 {
		t.Fatal("advance did not reach every matching objective")
	}
	if !set.Objectives[1].Completed {
		t.Fatal("bonus defeat objective should be done at 1/1")
	}

	set.Advance(ObjectiveDefeat, 1)
	set.Advance(ObjectiveCollect, 1)
	if !set.RequiredComplete() {
		t.Fatal("all required done, want RequiredComplete")
	}
	if got := set.CompletedBonusBps(); got != 400 {
		t.Fatalf("CompletedBonusBps = %d, want 400", got)
	}
}

func TestGenerateLegacyObjectives(t *testing.T) {
	m, err := GenerateMap(42, MapParams{
		Size:           10,
		MinCombatNodes: 2,
		LootChance:     60,
		TerminalChance: 50,
	})
	if err != nil {
		t.Fatalf("GenerateMap: %v", err)
	}

	set, err := GenerateLegacyObjectives(7, m, 3)
	if err != nil {
		t.Fatalf("GenerateLegacyObjectives: %v", err)
	}

	again, err := GenerateLegacyObjectives(7, m, 3)
	if err != nil {
		t.Fatalf("GenerateLegacyObjectives: %v", err)
	}
	if !reflect.DeepEqual(set, again) {
		t.Fatal("same seed produced different objective sets")
	}

	requiredCount := 0
	for _, o := range set.Objectives {
		if o.Required {
			requiredCount++
		}

		// every generated objective must be achievable on this map
		switch o.Type {
		case ObjectiveCollect:
			if o.Target > m.LootCount() {
				t.Errorf("collect target %d exceeds loot %d", o.Target, m.LootCount())
			}
		case ObjectiveDefeat, ObjectiveStealth:
			if o.Target > m.EnemyCount() {
				t.Errorf("%s target %d exceeds enemies %d", o.Type, o.Target, m.EnemyCount())
			}
		case ObjectiveHack:
			if o.Target > m.CountType(NodeTerminal) {
				t.Errorf("hack target %d exceeds terminals %d", o.Target, m.CountType(NodeTerminal))
			}
		case ObjectiveDiscover:
			if o.Target > m.Size()-1 {
				t.Errorf("discover target %d exceeds reachable %d", o.Target, m.Size()-1)
			}
		}
	}
	if requiredCount == 0 {
		t.Fatal("legacy generation produced no required objective")
	}
}

func TestGenerateLegacyObjectivesBareMap(t *testing.T) {
	m := corridor(t, 6)

	set, err := GenerateLegacyObjectives(1, m, 0)
	if err != nil {
		t.Fatalf("GenerateLegacyObjectives: %v", err)
	}

	foundRequiredDiscover := false
	for _, o := range set.Objectives {
		if o.Required && o.Type == ObjectiveDiscover {
			foundRequiredDiscover = true
		}
		if o.Type == ObjectiveCollect || o.Type == ObjectiveDefeat {
			t.Errorf("bare map produced %s objective", o.Type)
		}
	}
	if !foundRequiredDiscover {
		t.Fatal("bare map did not fall back to a required discover objective")
	}
}

func TestGenerateTemplateObjectives(t *testing.T) {
	m, err := GenerateMap(42, MapParams{Size: 8, MinCombatNodes: 1})
	if err != nil {
		t.Fatalf("GenerateMap: %v", err)
	}
	enemies := m.EnemyCount()

	recipes := []ObjectiveRecipe{
		{Type: ObjectiveDefeat, Weight: 1, TargetMin: 4, TargetMax: 6, Required: true},
		{Type: ObjectiveHack, Weight: 3, TargetMin: 1, TargetMax: 2, BonusBps: 600},
		{Type: ObjectiveDiscover, Weight: 1, TargetMin: 2, TargetMax: 4, BonusBps: 300},
	}

	set, err := GenerateTemplateObjectives(5, m, 2, recipes)
	if err != nil {
		t.Fatalf("GenerateTemplateObjectives: %v", err)
	}

	if set.Objectives[0].Type != ObjectiveDefeat || !set.Objectives[0].Required {
		t.Fatalf("first objective = %+v, want required defeat", set.Objectives[0])
	}
	if set.Objectives[0].Target > enemies {
		t.Fatalf("defeat target %d not clamped to %d enemies", set.Objectives[0].Target, enemies)
	}

	for _, o := range set.Objectives {
		if o.Type == ObjectiveHack {
			t.Error("hack objective generated for a map with no terminals")
		}
	}
}

func TestGenerateTemplateObjectivesDegradesImpossibleRequired(t *testing.T) {
	m := corridor(t, 6) // no enemies anywhere

	set, err := GenerateTemplateObjectives(9, m, 0, []ObjectiveRecipe{
		{Type: ObjectiveDefeat, Weight: 1, TargetMin: 2, TargetMax: 2, Required: true},
	})
	if err != nil {
		t.Fatalf("GenerateTemplateObjectives: %v", err)
	}

	if len(set.Objectives) != 1 {
		t.Fatalf("objective count = %d, want 1", len(set.Objectives))
	}
	o := set.Objectives[0]
	if o.Type != ObjectiveDiscover || !o.Required {
		t.Fatalf("impossible required recipe became %+v, want required discover", o)
	}
}

func TestGenerateTemplateObjectivesRejectsBadRecipes(t *testing.T) {
	m := corridor(t, 4)

	tests := []struct {
		name    string
		recipes []ObjectiveRecipe
	}{
		{"no recipes", nil},
		{"no required", []ObjectiveRecipe{{Type: ObjectiveHack, Weight: 1, TargetMin: 1, TargetMax: 1}}},
		{"required time", []ObjectiveRecipe{{Type: ObjectiveTime, Weight: 1, TargetMin: 100, TargetMax: 100, Required: true}}},
		{"zero weight", []ObjectiveRecipe{{Type: ObjectiveDefeat, Weight: 0, TargetMin: 1, TargetMax: 1, Required: true}}},
		{"inverted range", []ObjectiveRecipe{{Type: ObjectiveDefeat, Weight: 1, TargetMin: 3, TargetMax: 1, Required: true}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := GenerateTemplateObjectives(1, m, 0, tt.recipes); err == nil {
				t.Fatal("GenerateTemplateObjectives = nil error, want rejection")
			}
		})
	}
}
