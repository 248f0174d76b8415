package engine

import (
	"reflect"
	"testing"
)

// corridor builds a plain linear map for resolver tests: discovered empty
// entry, exit at the end, empty interior.
func corridor(t *testing.T, size int) *MissionMap {
	t.Helper()

	nodes := make([]MapNode, size)
	for i := range nodes {
		nodes[i] = MapNode{ID: uint8(i), Difficulty: MinDifficulty}
		if i > 0 {
			nodes[i].Links |= LinkBack
		}
		if i < size-1 {
			nodes[i].Links |= LinkFwd
		}
	}
	nodes[0].Discovered = true
	nodes[size-1].Type = NodeExit

	m, err := NewMissionMap(nodes)
	if err != nil {
		t.Fatalf("corridor(%d): %v", size, err)
	}
	return m
}

func TestGenerateMapTrainingLayout(t *testing.T) {
	m, err := GenerateMap(12345, MapParams{Size: 4, MinCombatNodes: 1, LootChance: 100})
	if err != nil {
		t.Fatalf("GenerateMap: %v", err)
	}

	if m.Size() != 4 {
		t.Fatalf("size = %d, want 4", m.Size())
	}

	entry := m.Node(0)
	if entry.Type != NodeEmpty || !entry.Discovered {
		t.Fatalf("entry = %s discovered=%v, want discovered empty", entry.Type, entry.Discovered)
	}
	if exit := m.Node(3); exit.Type != NodeExit {
		t.Fatalf("last node = %s, want exit", exit.Type)
	}

	if combats := m.CountType(NodeCombat); combats < 1 {
		t.Fatalf("combat nodes = %d, want >= 1", combats)
	}
	for i := uint8(1); i <= 2; i++ {
		n := m.Node(i)
		switch n.Type {
		case NodeCombat:
			if !n.HasEnemy {
				t.Errorf("combat node %d has no enemy", i)
			}
		case NodeLoot:
			if !n.HasLoot {
				t.Errorf("loot node %d has no loot", i)
			}
		default:
			t.Errorf("interior node %d = %s, want combat or loot", i, n.Type)
		}
	}
}

func TestGenerateMapDeterminism(t *testing.T) {
	p := MapParams{
		Size:           12,
		MinCombatNodes: 3,
		LootChance:     40,
		TerminalChance: 30,
		SecretChance:   20,
		EventChance:    25,
	}

	a, err := GenerateMap(99, p)
	if err != nil {
		t.Fatalf("GenerateMap: %v", err)
	}
	b, err := GenerateMap(99, p)
	if err != nil {
		t.Fatalf("GenerateMap: %v", err)
	}
	if !reflect.DeepEqual(a.Nodes, b.Nodes) {
		t.Fatal("same seed produced different maps")
	}

	c, err := GenerateMap(100, p)
	if err != nil {
		t.Fatalf("GenerateMap: %v", err)
	}
	if reflect.DeepEqual(a.Nodes, c.Nodes) {
		t.Fatal("different seeds produced identical maps")
	}
}

func TestGenerateMapGuaranteesCombatMinimum(t *testing.T) {
	for seed := int64(0); seed < 20; seed++ {
		m, err := GenerateMap(seed, MapParams{Size: 16, MinCombatNodes: 5, LootChance: 50})
		if err != nil {
			t.Fatalf("seed %d: %v", seed, err)
		}
		if combats := m.CountType(NodeCombat); combats < 5 {
			t.Fatalf("seed %d: combat nodes = %d, want >= 5", seed, combats)
		}
	}
}

func TestMapParamsValidate(t *testing.T) {
	tests := []struct {
		name string
		p    MapParams
	}{
		{"too small", MapParams{Size: 1}},
		{"too large", MapParams{Size: 17}},
		{"combat overflow", MapParams{Size: 4, MinCombatNodes: 3}},
		{"negative combat", MapParams{Size: 4, MinCombatNodes: -1}},
		{"chance above 100", MapParams{Size: 4, LootChance: 101}},
		{"negative chance", MapParams{Size: 4, SecretChance: -5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.p.Validate(); err == nil {
				t.Fatalf("Validate(%+v) = nil, want error", tt.p)
			}
		})
	}
}

func TestNewMissionMapInvariants(t *testing.T) {
	base := func() []MapNode {
		return []MapNode{
			{ID: 0, Type: NodeEmpty, Difficulty: 1, Discovered: true, Links: LinkFwd},
			{ID: 1, Type: NodeLoot, Difficulty: 5, HasLoot: true, Links: LinkBack | LinkFwd},
			{ID: 2, Type: NodeExit, Difficulty: 1, Links: LinkBack},
		}
	}

	tests := []struct {
		name   string
		mutate func(nodes []MapNode) []MapNode
	}{
		{"entry not discovered", func(n []MapNode) []MapNode { n[0].Discovered = false; return n }},
		{"entry not empty", func(n []MapNode) []MapNode { n[0].Type = NodeLoot; return n }},
		{"no exit", func(n []MapNode) []MapNode { n[2].Type = NodeEmpty; return n }},
		{"difficulty zero", func(n []MapNode) []MapNode { n[1].Difficulty = 0; return n }},
		{"difficulty too high", func(n []MapNode) []MapNode { n[1].Difficulty = 11; return n }},
		{"link mask overflow", func(n []MapNode) []MapNode { n[1].Links = 0x1F; return n }},
		{"id out of sequence", func(n []MapNode) []MapNode { n[1].ID = 7; return n }},
		{"single node", func(n []MapNode) []MapNode { return n[:1] }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewMissionMap(tt.mutate(base())); err == nil {
				t.Fatal("NewMissionMap = nil error, want rejection")
			}
		})
	}

	if _, err := NewMissionMap(base()); err != nil {
		t.Fatalf("valid map rejected: %v", err)
	}
}

func TestLinkedAndNeighbors(t *testing.T) {
	m := corridor(t, 4)

	tests := []struct {
		a, b uint8
		want bool
	}{
		{0, 1, true},
		{1, 0, true},
		{1, 2, true},
		{0, 2, false},
		{0, 0, false},
		{3, 4, false},
		{2, 3, true},
	}
	for _, tt := range tests {
		if got := m.Linked(tt.a, tt.b); got != tt.want {
			t.Errorf("Linked(%d,%d) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}

	if got := m.Neighbors(0); !reflect.DeepEqual(got, []uint8{1}) {
		t.Errorf("Neighbors(0) = %v, want [1]", got)
	}
	if got := m.Neighbors(1); !reflect.DeepEqual(got, []uint8{0, 2}) {
		t.Errorf("Neighbors(1) = %v, want [0 2]", got)
	}
	if got := m.Neighbors(9); got != nil {
		t.Errorf("Neighbors(9) = %v, want nil", got)
	}
}
