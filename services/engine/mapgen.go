package engine

import (
	"errors"
	"fmt"
)

type NodeType uint8

const (
	NodeEmpty NodeType = iota
	NodeLoot
	NodeCombat
	NodeTerminal
	NodeSecret
	NodeObjective
	NodeExit
	NodeEvent
)

func (t NodeType) String() string {
	switch t {
	case NodeEmpty:
		return "empty"
	case NodeLoot:
		return "loot"
	case NodeCombat:
		return "combat"
	case NodeTerminal:
		return "terminal"
	case NodeSecret:
		return "secret"
	case NodeObjective:
		return "objective"
	case NodeExit:
		return "exit"
	case NodeEvent:
		return "event"
	}
	return "unknown"
}

const (
	MinMapNodes = 2
	MaxMapNodes = 16

	MinDifficulty = 1
	MaxDifficulty = 10

	// Neighbor-connectivity mask bits. The corridor layout only ever sets
	// the first two; the mask stays within its 4-bit range regardless.
	LinkBack uint8 = 1 << 0
	LinkFwd  uint8 = 1 << 1

	maxLinkMask uint8 = 0x0F
)

type MapNode struct {
	ID         uint8    `json:"id"`
	Type       NodeType `json:"type"`
	Difficulty uint8    `json:"difficulty"`
	Discovered bool     `json:"discovered"`
	Completed  bool     `json:"completed"`
	HasLoot    bool     `json:"has_loot"`
	HasEnemy   bool     `json:"has_enemy"`
	Links      uint8    `json:"links"`
}

func (n *MapNode) Validate() error {
	if n.Type > NodeEvent {
		return fmt.Errorf("node %d: unknown type %d", n.ID, n.Type)
	}
	if n.Difficulty < MinDifficulty || n.Difficulty > MaxDifficulty {
		return fmt.Errorf("node %d: difficulty %d out of range [%d,%d]", n.ID, n.Difficulty, MinDifficulty, MaxDifficulty)
	}
	if n.Links > maxLinkMask {
		return fmt.Errorf("node %d: link mask %#x exceeds 4 bits", n.ID, n.Links)
	}
	return nil
}

type MissionMap struct {
	Nodes []MapNode `json:"nodes"`
}

// NewMissionMap validates the fixed layout invariants: 2-16 sequentially
// numbered nodes, a discovered Empty entry at node 0 and an Exit at the
// end. Violations are rejected here rather than truncated.
func NewMissionMap(nodes []MapNode) (*MissionMap, error) {
	if len(nodes) < MinMapNodes || len(nodes) > MaxMapNodes {
		return nil, fmt.Errorf("map has %d nodes, want %d-%d", len(nodes), MinMapNodes, MaxMapNodes)
	}

	for i := range nodes {
		if nodes[i].ID != uint8(i) {
			return nil, fmt.Errorf("node %d: id %d out of sequence", i, nodes[i].ID)
		}
		if err := nodes[i].Validate(); err != nil {
			return nil, err
		}
	}

	if nodes[0].Type != NodeEmpty || !nodes[0].Discovered {
		return nil, errors.New("node 0 must be a discovered empty entry")
	}
	if nodes[len(nodes)-1].Type != NodeExit {
		return nil, errors.New("last node must be the exit")
	}

	return &MissionMap{Nodes: nodes}, nil
}

// MapParams is the map-shaping slice of a mission variant. Chance fields
// are percentages rolled in order: loot, terminal, secret, event.
type MapParams struct {
	Size           int
	MinCombatNodes int
	LootChance     int
	TerminalChance int
	SecretChance   int
	EventChance    int
}

func (p MapParams) Validate() error {
	if p.Size < MinMapNodes || p.Size > MaxMapNodes {
		return fmt.Errorf("map size %d out of range [%d,%d]", p.Size, MinMapNodes, MaxMapNodes)
	}
	if p.MinCombatNodes < 0 || p.MinCombatNodes > p.Size-2 {
		return fmt.Errorf("min combat nodes %d out of range [0,%d]", p.MinCombatNodes, p.Size-2)
	}
	for _, c := range []int{p.LootChance, p.TerminalChance, p.SecretChance, p.EventChance} {
		if c < 0 || c > 100 {
			return fmt.Errorf("node chance %d out of range [0,100]", c)
		}
	}
	return nil
}

// GenerateMap lays out the linear corridor for one mission: a discovered
// entry, an exit, the variant's guaranteed combat nodes on random interior
// slots, and chance-rolled fill for the rest. The layout is a pure
// function of (seed, params).
func GenerateMap(seed int64, p MapParams) (*MissionMap, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	rng := rngFor(seed, "map", 0)

	nodes := make([]MapNode, p.Size)
	for i := range nodes {
		nodes[i] = MapNode{ID: uint8(i), Type: NodeEmpty, Difficulty: MinDifficulty}
		if i > 0 {
			nodes[i].Links |= LinkBack
		}
		if i < p.Size-1 {
			nodes[i].Links |= LinkFwd
		}
	}
	nodes[0].Discovered = true
	nodes[p.Size-1].Type = NodeExit

	interior := make([]int, 0, p.Size-2)
	for i := 1; i < p.Size-1; i++ {
		interior = append(interior, i)
	}
	rng.Shuffle(len(interior), func(i, j int) {
		interior[i], interior[j] = interior[j], interior[i]
	})

	for _, i := range interior[:p.MinCombatNodes] {
		nodes[i].Type = NodeCombat
		nodes[i].HasEnemy = true
		nodes[i].Difficulty = uint8(MinDifficulty + rng.Intn(MaxDifficulty))
	}

	for _, i := range interior[p.MinCombatNodes:] {
		nodes[i].Difficulty = uint8(MinDifficulty + rng.Intn(MaxDifficulty))
		switch {
		case rng.Intn(100) < p.LootChance:
			nodes[i].Type = NodeLoot
			nodes[i].HasLoot = true
		case rng.Intn(100) < p.TerminalChance:
			nodes[i].Type = NodeTerminal
		case rng.Intn(100) < p.SecretChance:
			// Secret caches double as loot once scanned out.
			nodes[i].Type = NodeSecret
			nodes[i].HasLoot = true
		case rng.Intn(100) < p.EventChance:
			nodes[i].Type = NodeEvent
		}
	}

	return NewMissionMap(nodes)
}

func (m *MissionMap) Size() int {
	return len(m.Nodes)
}

func (m *MissionMap) ExitID() uint8 {
	return uint8(len(m.Nodes) - 1)
}

// Node returns the addressed node, or nil when the id is out of range.
func (m *MissionMap) Node(id uint8) *MapNode {
	if int(id) >= len(m.Nodes) {
		return nil
	}
	return &m.Nodes[id]
}

// Linked reports whether b is reachable from a in one move.
func (m *MissionMap) Linked(a, b uint8) bool {
	na := m.Node(a)
	if na == nil || m.Node(b) == nil {
		return false
	}
	if b == a+1 && na.Links&LinkFwd != 0 {
		return true
	}
	if b+1 == a && na.Links&LinkBack != 0 {
		return true
	}
	return false
}

// Neighbors returns the ids reachable from the given node in one move.
func (m *MissionMap) Neighbors(id uint8) []uint8 {
	n := m.Node(id)
	if n == nil {
		return nil
	}

	var out []uint8
	if n.Links&LinkBack != 0 && id > 0 {
		out = append(out, id-1)
	}
	if n.Links&LinkFwd != 0 && int(id)+1 < len(m.Nodes) {
		out = append(out, id+1)
	}
	return out
}

func (m *MissionMap) CountType(t NodeType) int {
	count := 0
	for i := range m.Nodes {
		if m.Nodes[i].Type == t {
			count++
		}
	}
	return count
}

// LootCount is the number of nodes still carrying loot.
func (m *MissionMap) LootCount() int {
	count := 0
	for i := range m.Nodes {
		if m.Nodes[i].HasLoot {
			count++
		}
	}
	return count
}

// EnemyCount is the number of nodes still holding an enemy.
func (m *MissionMap) EnemyCount() int {
	count := 0
	for i := range m.Nodes {
		if m.Nodes[i].HasEnemy {
			count++
		}
	}
	return count
}

func (m *MissionMap) DiscoveredCount() int {
	count := 0
	for i := range m.Nodes {
		if m.Nodes[i].Discovered {
			count++
		}
	}
	return count
}
