package engine

import "testing"

func testRewardParams() RewardParams {
	return RewardParams{
		PerExtraParticipantBps: 500,
		ColonyBonusBps:         1000,
		StreakBonusPerDayBps:   100,
		MaxStreakBonusBps:      1000,
		WeekendBonus:           50,
		PerfectCompletionBps:   2000,
		DiscoveryBonusBps:      250,
	}
}

func TestRating(t *testing.T) {
	tests := []struct {
		name                      string
		combatsLost, eventsFailed int
		ticksUsed, maxDuration    int64
		want                      int
	}{
		{"clean slow run", 0, 0, 900, 1000, 100},
		{"clean fast run clamps at 100", 0, 0, 100, 1000, 100},
		{"one loss", 1, 0, 900, 1000, 90},
		{"one failed event", 0, 1, 900, 1000, 95},
		{"fast run offsets losses", 3, 2, 100, 1000, 70},
		{"floor clamp", 9, 9, 900, 1000, 10},
		{"zero duration disables speed bonus", 0, 0, 0, 0, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Rating(tt.combatsLost, tt.eventsFailed, tt.ticksUsed, tt.maxDuration)
			if got != tt.want {
				t.Fatalf("Rating = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestDayOfWeek(t *testing.T) {
	tests := []struct {
		tick    int64
		day     int
		weekend bool
	}{
		{0, 4, false},           // unix day zero, a Thursday
		{86399, 4, false},       // still Thursday
		{86400, 5, false},       // Friday
		{2 * 86400, 6, true},    // Saturday
		{3 * 86400, 0, true},    // Sunday
		{4 * 86400, 1, false},   // Monday
		{702 * 86400, 6, true},  // a Saturday years later
		{703 * 86400, 0, true},  // its Sunday
		{704 * 86400, 1, false}, // back to Monday
	}

	for _, tt := range tests {
		if got := DayOfWeek(tt.tick); got != tt.day {
			t.Errorf("DayOfWeek(%d) = %d, want %d", tt.tick, got, tt.day)
		}
		if got := IsWeekend(tt.tick); got != tt.weekend {
			t.Errorf("IsWeekend(%d) = %v, want %v", tt.tick, got, tt.weekend)
		}
	}
}

func TestComputeRewardPerfectBaseline(t *testing.T) {
	in := RewardInput{
		BaseReward:              1000,
		DifficultyMultiplierBps: 10000,
		Participants:            1,
		NowTick:                 86400, // Friday
		TicksUsed:               900,
		MaxDurationTicks:        1000,
	}

	br := ComputeReward(in, testRewardParams())

	if br.Base != 1000 {
		t.Fatalf("base = %d, want 1000", br.Base)
	}
	if br.Rating != 100 || !br.Perfect {
		t.Fatalf("rating=%d perfect=%v, want 100/true", br.Rating, br.Perfect)
	}
	if br.PerfectBonus != 200 {
		t.Fatalf("perfect bonus = %d, want 200", br.PerfectBonus)
	}
	if br.Total != 1200 {
		t.Fatalf("total = %d, want 1200", br.Total)
	}
}

func TestComputeRewardBonusStack(t *testing.T) {
	set, err := NewObjectiveSet([]Objective{
		{ID: 0, Type: ObjectiveCollect, Target: 1, Progress: 1, Required: true, Completed: true},
		{ID: 1, Type: ObjectiveHack, Target: 1, Progress: 1, Completed: true, BonusBps: 600},
	})
	if err != nil {
		t.Fatalf("NewObjectiveSet: %v", err)
	}

	in := RewardInput{
		BaseReward:              1000,
		DifficultyMultiplierBps: 15000,
		Objectives:              set,
		Participants:            3,
		SharedColony:            true,
		Streak:                  4,
		NowTick:                 2 * 86400, // Saturday
		CombatsLost:             1,
		TicksUsed:               900,
		MaxDurationTicks:        1000,
		DiscoveryBonus:          true,
	}

	br := ComputeReward(in, testRewardParams())

	if br.Base != 1500 {
		t.Fatalf("base = %d, want 1500", br.Base)
	}
	if br.ObjectiveBonus != 60 {
		t.Fatalf("objective bonus = %d, want 60", br.ObjectiveBonus)
	}
	if br.ParticipantBonus != 100 {
		t.Fatalf("participant bonus = %d, want 100", br.ParticipantBonus)
	}
	if br.ColonyBonus != 100 {
		t.Fatalf("colony bonus = %d, want 100", br.ColonyBonus)
	}
	if br.StreakBonus != 40 {
		t.Fatalf("streak bonus = %d, want 40", br.StreakBonus)
	}
	if br.WeekendBonus != 50 {
		t.Fatalf("weekend bonus = %d, want 50", br.WeekendBonus)
	}
	if br.DiscoveryBonus != 25 {
		t.Fatalf("discovery bonus = %d, want 25", br.DiscoveryBonus)
	}
	if br.Rating != 90 {
		t.Fatalf("rating = %d, want 90", br.Rating)
	}
	if br.Perfect {
		t.Fatal("run with a combat loss marked perfect")
	}

	// (1500+60+100+100+40+50+25) * 90 / 100
	if br.Total != 1687 {
		t.Fatalf("total = %d, want 1687", br.Total)
	}
}

func TestStreakBonusCap(t *testing.T) {
	in := RewardInput{
		BaseReward:              1000,
		DifficultyMultiplierBps: 10000,
		Participants:            1,
		Streak:                  50,
		NowTick:                 86400,
	}

	br := ComputeReward(in, testRewardParams())
	if br.StreakBonus != 100 {
		t.Fatalf("streak bonus = %d, want capped at 100", br.StreakBonus)
	}
}

func TestRewardRatingMonotonic(t *testing.T) {
	params := testRewardParams()
	base := RewardInput{
		BaseReward:              1000,
		DifficultyMultiplierBps: 10000,
		Participants:            2,
		NowTick:                 86400,
		TicksUsed:               900,
		MaxDurationTicks:        1000,
	}

	prev := int64(-1)
	for losses := 8; losses >= 0; losses-- {
		in := base
		in.CombatsLost = losses
		total := ComputeReward(in, params).Total
		if total < 0 {
			t.Fatalf("losses=%d: negative total %d", losses, total)
		}
		if prev >= 0 && total <= prev {
			t.Fatalf("losses=%d: total %d not above %d", losses, total, prev)
		}
		prev = total
	}
}

func TestPerfectBeatsImperfect(t *testing.T) {
	params := testRewardParams()
	in := RewardInput{
		BaseReward:              1000,
		DifficultyMultiplierBps: 10000,
		Participants:            1,
		NowTick:                 86400,
		TicksUsed:               900,
		MaxDurationTicks:        1000,
	}

	perfect := ComputeReward(in, params)

	in.EventsFailed = 1
	flawed := ComputeReward(in, params)

	if perfect.Total <= flawed.Total {
		t.Fatalf("perfect %d not above flawed %d", perfect.Total, flawed.Total)
	}
}

func TestSplitShare(t *testing.T) {
	tests := []struct {
		total            int64
		shareBps         int
		lender, receiver int64
	}{
		{1000, 2000, 200, 800},
		{1000, 0, 0, 1000},
		{999, 3333, 332, 667},
		{0, 5000, 0, 0},
	}

	for _, tt := range tests {
		lender, receiver := SplitShare(tt.total, tt.shareBps)
		if lender != tt.lender || receiver != tt.receiver {
			t.Errorf("SplitShare(%d, %d) = %d/%d, want %d/%d",
				tt.total, tt.shareBps, lender, receiver, tt.lender, tt.receiver)
		}
	}
}
