package engine

// RewardParams is the economy slice of the game config.
type RewardParams struct {
	PerExtraParticipantBps int
	ColonyBonusBps         int
	StreakBonusPerDayBps   int
	MaxStreakBonusBps      int
	WeekendBonus           int64
	PerfectCompletionBps   int
	DiscoveryBonusBps      int
}

// RewardInput is everything the calculator reads about one finished
// mission.
type RewardInput struct {
	BaseReward              int64
	DifficultyMultiplierBps int
	Objectives              *ObjectiveSet
	Participants            int
	SharedColony            bool
	Streak                  int
	NowTick                 int64
	CombatsLost             int
	EventsFailed            int
	TicksUsed               int64
	MaxDurationTicks        int64
	DiscoveryBonus          bool
}

// RewardBreakdown itemizes the final payout so clients can show where
// every unit came from.
type RewardBreakdown struct {
	Base             int64 `json:"base"`
	ObjectiveBonus   int64 `json:"objective_bonus"`
	ParticipantBonus int64 `json:"participant_bonus"`
	ColonyBonus      int64 `json:"colony_bonus"`
	StreakBonus      int64 `json:"streak_bonus"`
	WeekendBonus     int64 `json:"weekend_bonus"`
	DiscoveryBonus   int64 `json:"discovery_bonus"`
	Rating           int   `json:"rating"`
	Perfect          bool  `json:"perfect"`
	PerfectBonus     int64 `json:"perfect_bonus"`
	Total            int64 `json:"total"`
}

func bpsOf(base int64, points int) int64 {
	return base * int64(points) / 10000
}

// Rating scores a run out of 100: -10 per lost combat, -5 per failed
// event, +10 for finishing under half the allowed duration, clamped to
// [10,100].
func Rating(combatsLost, eventsFailed int, ticksUsed, maxDuration int64) int {
	rating := 100 - 10*combatsLost - 5*eventsFailed
	if maxDuration > 0 && ticksUsed*2 < maxDuration {
		rating += 10
	}

	if rating > 100 {
		rating = 100
	}
	if rating < 10 {
		rating = 10
	}
	return rating
}

// DayOfWeek maps a tick to 0=Sunday..6=Saturday. Unix day zero was a
// Thursday.
func DayOfWeek(tick int64) int {
	d := (tick/86400 + 4) % 7
	if d < 0 {
		d += 7
	}
	return int(d)
}

func IsWeekend(tick int64) bool {
	d := DayOfWeek(tick)
	return d == 0 || d == 6
}

// ComputeReward runs the full bonus stack: base scaled by difficulty,
// additive bonuses each computed from the raw base, the whole subtotal
// scaled by performance rating, and the perfect-completion bonus on top.
func ComputeReward(in RewardInput, p RewardParams) RewardBreakdown {
	br := RewardBreakdown{
		Base: in.BaseReward * int64(in.DifficultyMultiplierBps) / 10000,
	}

	if in.Objectives != nil {
		br.ObjectiveBonus = bpsOf(in.BaseReward, in.Objectives.CompletedBonusBps())
	}

	if in.Participants > 1 {
		br.ParticipantBonus = bpsOf(in.BaseReward, p.PerExtraParticipantBps*(in.Participants-1))
		if in.SharedColony {
			br.ColonyBonus = bpsOf(in.BaseReward, p.ColonyBonusBps)
		}
	}

	if in.Streak > 0 {
		br.StreakBonus = bpsOf(in.BaseReward, p.StreakBonusPerDayBps*in.Streak)
		if limit := bpsOf(in.BaseReward, p.MaxStreakBonusBps); br.StreakBonus > limit {
			br.StreakBonus = limit
		}
	}

	if IsWeekend(in.NowTick) {
		br.WeekendBonus = p.WeekendBonus
	}

	if in.DiscoveryBonus {
		br.DiscoveryBonus = bpsOf(in.BaseReward, p.DiscoveryBonusBps)
	}

	br.Rating = Rating(in.CombatsLost, in.EventsFailed, in.TicksUsed, in.MaxDurationTicks)

	subtotal := br.Base + br.ObjectiveBonus + br.ParticipantBonus +
		br.ColonyBonus + br.StreakBonus + br.WeekendBonus + br.DiscoveryBonus
	total := subtotal * int64(br.Rating) / 100

	if in.CombatsLost == 0 && in.EventsFailed == 0 && br.Rating == 100 {
		br.Perfect = true
		br.PerfectBonus = bpsOf(in.BaseReward, p.PerfectCompletionBps)
		total += br.PerfectBonus
	}

	if total < 0 {
		total = 0
	}
	br.Total = total
	return br
}

// SplitShare divides a payout between the pass lender and the
// extracting delegatee.
func SplitShare(total int64, shareBps int) (lender, extractor int64) {
	if shareBps <= 0 {
		return 0, total
	}
	lender = total * int64(shareBps) / 10000
	return lender, total - lender
}
