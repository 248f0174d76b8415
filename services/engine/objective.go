package engine

import (
	"errors"
	"fmt"
)

type ObjectiveType uint8

const (
	ObjectiveCollect ObjectiveType = iota
	ObjectiveDefeat
	ObjectiveDiscover
	ObjectiveSurvive
	ObjectiveHack
	ObjectiveStealth
	ObjectiveTime
)

func (t ObjectiveType) String() string {
	switch t {
	case ObjectiveCollect:
		return "collect"
	case ObjectiveDefeat:
		return "defeat"
	case ObjectiveDiscover:
		return "discover"
	case ObjectiveSurvive:
		return "survive"
	case ObjectiveHack:
		return "hack"
	case ObjectiveStealth:
		return "stealth"
	case ObjectiveTime:
		return "time"
	}
	return "unknown"
}

const MaxObjectives = 8

type Objective struct {
	ID        uint8         `json:"id"`
	Type      ObjectiveType `json:"type"`
	Target    int           `json:"target"`
	Progress  int           `json:"progress"`
	Required  bool          `json:"required"`
	Completed bool          `json:"completed"`
	BonusBps  int           `json:"bonus_bps"`
}

// Advance adds progress. Progress is monotonic, clamps at the target and
// completion never regresses.
func (o *Objective) Advance(n int) {
	if o.Completed || n <= 0 {
		return
	}

	o.Progress += n
	if o.Progress >= o.Target {
		o.Progress = o.Target
		o.Completed = true
	}
}

type ObjectiveSet struct {
	Objectives []Objective `json:"objectives"`
}

// NewObjectiveSet validates the fixed set invariants: 1-8 sequentially
// numbered objectives, positive targets, progress within bounds and sane
// bonus ratios.
func NewObjectiveSet(objs []Objective) (*ObjectiveSet, error) {
	if len(objs) == 0 || len(objs) > MaxObjectives {
		return nil, fmt.Errorf("objective set has %d entries, want 1-%d", len(objs), MaxObjectives)
	}

	for i := range objs {
		o := &objs[i]
		if o.ID != uint8(i) {
			return nil, fmt.Errorf("objective %d: id %d out of sequence", i, o.ID)
		}
		if o.Type > ObjectiveTime {
			return nil, fmt.Errorf("objective %d: unknown type %d", i, o.Type)
		}
		if o.Target < 1 {
			return nil, fmt.Errorf("objective %d: target %d must be positive", i, o.Target)
		}
		if o.Progress < 0 || o.Progress > o.Target {
			return nil, fmt.Errorf("objective %d: progress %d out of range [0,%d]", i, o.Progress, o.Target)
		}
		if o.BonusBps < 0 || o.BonusBps > 10000 {
			return nil, fmt.Errorf("objective %d: bonus %d bps out of range", i, o.BonusBps)
		}
	}

	return &ObjectiveSet{Objectives: objs}, nil
}

// Advance pushes one unit of progress into every live objective of the
// given type.
func (s *ObjectiveSet) Advance(t ObjectiveType, n int) {
	for i := range s.Objectives {
		if s.Objectives[i].Type == t {
			s.Objectives[i].Advance(n)
		}
	}
}

// RequiredComplete reports whether every required objective is done.
func (s *ObjectiveSet) RequiredComplete() bool {
	for i := range s.Objectives {
		if s.Objectives[i].Required && !s.Objectives[i].Completed {
			return false
		}
	}
	return true
}

// CompletedBonusBps sums the bonus ratios of completed bonus objectives.
func (s *ObjectiveSet) CompletedBonusBps() int {
	total := 0
	for i := range s.Objectives {
		if !s.Objectives[i].Required && s.Objectives[i].Completed {
			total += s.Objectives[i].BonusBps
		}
	}
	return total
}

// ObjectiveRecipe is one weighted objective template from a
// template-mode variant.
type ObjectiveRecipe struct {
	Type      ObjectiveType
	Weight    int
	TargetMin int
	TargetMax int
	Required  bool
	BonusBps  int
}

func (r ObjectiveRecipe) Validate() error {
	if r.Type > ObjectiveTime {
		return fmt.Errorf("objective recipe: unknown type %d", r.Type)
	}
	if r.Type == ObjectiveTime && r.Required {
		return errors.New("objective recipe: time objectives cannot be required")
	}
	if r.TargetMin < 1 || r.TargetMax < r.TargetMin {
		return fmt.Errorf("objective recipe: target range [%d,%d] invalid", r.TargetMin, r.TargetMax)
	}
	if r.Weight < 1 {
		return fmt.Errorf("objective recipe: weight %d must be positive", r.Weight)
	}
	if r.BonusBps < 0 || r.BonusBps > 10000 {
		return fmt.Errorf("objective recipe: bonus %d bps out of range", r.BonusBps)
	}
	return nil
}

// capacity is the most progress the generated map can ever yield for an
// objective type; Time has no map-bound capacity.
func capacity(t ObjectiveType, m *MissionMap, maxEvents int) int {
	switch t {
	case ObjectiveCollect:
		return m.LootCount()
	case ObjectiveDefeat, ObjectiveStealth:
		return m.EnemyCount()
	case ObjectiveDiscover:
		return m.Size() - 1
	case ObjectiveSurvive:
		return maxEvents
	case ObjectiveHack:
		return m.CountType(NodeTerminal)
	}
	return 0
}

// GenerateLegacyObjectives derives the default objective set from what
// the map actually contains, so every required objective is achievable:
// a collect goal when loot exists, a defeat goal when enemies exist, and
// a discovery sweep as the fallback. Bonus goals are chance-rolled from
// the leftover node types.
func GenerateLegacyObjectives(seed int64, m *MissionMap, maxEvents int) (*ObjectiveSet, error) {
	rng := rngFor(seed, "objectives", 0)

	var objs []Objective
	add := func(t ObjectiveType, target int, required bool, bonusBps int) {
		objs = append(objs, Objective{
			ID:       uint8(len(objs)),
			Type:     t,
			Target:   target,
			Required: required,
			BonusBps: bonusBps,
		})
	}

	loot := m.LootCount()
	enemies := m.EnemyCount()
	terminals := m.CountType(NodeTerminal)

	if loot > 0 {
		add(ObjectiveCollect, 1+rng.Intn(minInt(3, loot)), true, 0)
	}
	if enemies > 0 {
		add(ObjectiveDefeat, 1+rng.Intn(minInt(3, enemies)), true, 0)
	}
	if len(objs) == 0 {
		add(ObjectiveDiscover, maxInt(1, m.Size()/2), true, 0)
	}

	if terminals > 0 && rng.Intn(100) < 60 {
		add(ObjectiveHack, 1+rng.Intn(terminals), false, 500+rng.Intn(1000))
	}
	if enemies > 0 && rng.Intn(100) < 40 {
		add(ObjectiveStealth, 1, false, 500+rng.Intn(500))
	}
	if maxEvents > 0 && m.CountType(NodeEvent) > 0 {
		add(ObjectiveSurvive, 1, false, 300+rng.Intn(500))
	}
	if rng.Intn(100) < 50 {
		add(ObjectiveDiscover, maxInt(1, (m.Size()-1)/2), false, 250+rng.Intn(500))
	}

	return NewObjectiveSet(objs)
}

// GenerateTemplateObjectives instantiates an admin-authored recipe list.
// Required recipes always materialize; bonus recipes are weight-sampled
// into the remaining slots. Targets clamp to what the map can yield, and
// a required recipe the map cannot satisfy at all degrades to a discovery
// sweep rather than bricking the session.
func GenerateTemplateObjectives(seed int64, m *MissionMap, maxEvents int, recipes []ObjectiveRecipe) (*ObjectiveSet, error) {
	if len(recipes) == 0 {
		return nil, errors.New("template variant has no objective recipes")
	}

	var required, bonus []ObjectiveRecipe
	for _, r := range recipes {
		if err := r.Validate(); err != nil {
			return nil, err
		}
		if r.Required {
			required = append(required, r)
		} else {
			bonus = append(bonus, r)
		}
	}
	if len(required) == 0 {
		return nil, errors.New("template variant needs at least one required recipe")
	}
	if len(required) > MaxObjectives {
		return nil, fmt.Errorf("template variant has %d required recipes, max %d", len(required), MaxObjectives)
	}

	rng := rngFor(seed, "objectives", 0)

	rollTarget := func(r ObjectiveRecipe) int {
		return r.TargetMin + rng.Intn(r.TargetMax-r.TargetMin+1)
	}

	var objs []Objective
	add := func(t ObjectiveType, target int, req bool, bonusBps int) {
		objs = append(objs, Objective{
			ID:       uint8(len(objs)),
			Type:     t,
			Target:   target,
			Required: req,
			BonusBps: bonusBps,
		})
	}

	for _, r := range required {
		target := rollTarget(r)
		if r.Type != ObjectiveTime {
			limit := capacity(r.Type, m, maxEvents)
			if limit == 0 {
				add(ObjectiveDiscover, maxInt(1, m.Size()/2), true, 0)
				continue
			}
			target = minInt(target, limit)
		}
		add(r.Type, target, true, r.BonusBps)
	}

	for len(bonus) > 0 && len(objs) < MaxObjectives {
		total := 0
		for _, r := range bonus {
			total += r.Weight
		}
		roll := rng.Intn(total)
		pick := 0
		for i, r := range bonus {
			roll -= r.Weight
			if roll < 0 {
				pick = i
				break
			}
		}

		r := bonus[pick]
		bonus = append(bonus[:pick], bonus[pick+1:]...)

		target := rollTarget(r)
		if r.Type != ObjectiveTime {
			limit := capacity(r.Type, m, maxEvents)
			if limit == 0 {
				continue
			}
			target = minInt(target, limit)
		}
		add(r.Type, target, false, r.BonusBps)
	}

	return NewObjectiveSet(objs)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
