package services

import (
	"context"
	"errors"
	"strconv"

	appContext "github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/driftgate-labs/sortie_api/dto"
	"github.com/driftgate-labs/sortie_api/model"
	"github.com/driftgate-labs/sortie_api/shared"
)

// ProfileService aggregates lifetime mission stats and runs the reward
// leaderboard. The leaderboard lives in a Redis sorted set with the
// profiles table as fallback when Redis is cold.
type ProfileService struct {
	appContext.DefaultService

	sqlSvc      *PostgresService
	redisSvc    *RedisService
	resourceSvc *ResourceService
}

const PROFILE_SVC = "profile_svc"

const leaderboardKey = "leaderboard:lifetime_rewards"

func (svc ProfileService) Id() string {
	return PROFILE_SVC
}

func (svc *ProfileService) Configure(ctx *appContext.Context) error {
	svc.sqlSvc = ctx.Service(POSTGRES_SVC).(*PostgresService)
	svc.redisSvc = ctx.Service(REDIS_SVC).(*RedisService)
	svc.resourceSvc = ctx.Service(RESOURCE_SVC).(*ResourceService)
	return svc.DefaultService.Configure(ctx)
}

func (svc *ProfileService) Start() error {
	return nil
}

// ==================== QUERIES ====================

func (svc *ProfileService) GetProfile(userID string, nowTick int64) (*dto.ProfileResponse, error) {
	user, err := svc.sqlSvc.Users().GetUser(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError(err, "User not found")
		}
		return nil, shared.NewInternalError(svc.sqlSvc.HandleError(err), "Failed to load user")
	}

	profile, err := svc.sqlSvc.Profiles().GetProfile(userID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewInternalError(svc.sqlSvc.HandleError(err), "Failed to load profile")
		}
		profile = &model.UserProfile{UserID: userID, LastMissionDay: -1}
	}

	resp := &dto.ProfileResponse{
		UserID:            userID,
		Username:          user.Username,
		MissionsCompleted: profile.MissionsCompleted,
		MissionsFailed:    profile.MissionsFailed,
		MissionsExpired:   profile.MissionsExpired,
		PerfectMissions:   profile.PerfectMissions,
		CurrentStreak:     profile.CurrentStreak,
		LongestStreak:     profile.LongestStreak,
		LifetimeRewards:   profile.LifetimeRewards,
		TotalXPEarned:     profile.TotalXPEarned,
		Resources:         []dto.ResourceResponse{},
	}

	// A streak older than yesterday is already broken, show it that way.
	if profile.LastMissionDay < nowTick/86400-1 {
		resp.CurrentStreak = 0
	}

	if cfg, err := svc.sqlSvc.Variants().GetGameConfig(); err == nil {
		if until := profile.LastMissionEndTick + cfg.CooldownTicks; until > nowTick {
			resp.CooldownUntilTick = until
		}
	}

	if wallet, err := svc.sqlSvc.Profiles().GetWallet(userID); err == nil {
		resp.WalletBalance = wallet.Balance
		resp.EscrowBalance = wallet.EscrowBalance
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.NewInternalError(svc.sqlSvc.HandleError(err), "Failed to load wallet")
	}

	resources, err := svc.resourceSvc.GetResources(userID, nowTick)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("Failed to load resources for profile")
	} else {
		resp.Resources = resources
	}

	return resp, nil
}

func (svc *ProfileService) GetLeaderboard(limit int) (*dto.LeaderboardResponse, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	entries, err := svc.leaderboardFromRedis(limit)
	if err != nil || len(entries) == 0 {
		if err != nil {
			log.WithError(err).Warn("Redis leaderboard unavailable, falling back to database")
		}
		entries, err = svc.leaderboardFromDB(limit)
		if err != nil {
			return nil, shared.NewInternalError(svc.sqlSvc.HandleError(err), "Failed to load leaderboard")
		}
	}

	total, err := svc.sqlSvc.Profiles().CountProfiles()
	if err != nil {
		return nil, shared.NewInternalError(svc.sqlSvc.HandleError(err), "Failed to count profiles")
	}

	return &dto.LeaderboardResponse{
		Entries: entries,
		Total:   total,
	}, nil
}

func (svc *ProfileService) leaderboardFromRedis(limit int) ([]dto.LeaderboardEntryResponse, error) {
	members, err := svc.redisSvc.ZRevRangeWithScores(context.Background(), leaderboardKey, 0, int64(limit-1))
	if err != nil {
		return nil, err
	}

	entries := make([]dto.LeaderboardEntryResponse, 0, len(members))
	for i, m := range members {
		userID, _ := m.Member.(string)
		if userID == "" {
			continue
		}

		username := svc.lookupUsername(userID)
		entries = append(entries, dto.LeaderboardEntryResponse{
			Rank:            i + 1,
			UserID:          userID,
			Username:        username,
			LifetimeRewards: int64(m.Score),
		})
	}
	return entries, nil
}

func (svc *ProfileService) leaderboardFromDB(limit int) ([]dto.LeaderboardEntryResponse, error) {
	profiles, err := svc.sqlSvc.Profiles().GetTopProfiles(limit)
	if err != nil {
		return nil, err
	}

	entries := make([]dto.LeaderboardEntryResponse, len(profiles))
	for i, p := range profiles {
		entries[i] = dto.LeaderboardEntryResponse{
			Rank:            i + 1,
			UserID:          p.UserID,
			Username:        svc.lookupUsername(p.UserID),
			LifetimeRewards: p.LifetimeRewards,
		}
	}
	return entries, nil
}

func (svc *ProfileService) lookupUsername(userID string) string {
	user, err := svc.sqlSvc.Users().GetUser(userID)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("Failed to resolve leaderboard username")
		return ""
	}
	return user.Username
}

// ==================== MISSION SETTLEMENT ====================

// RecordCompletionTx folds a completed session into the profile and
// advances the daily streak. Returns the updated profile so callers can
// answer with the new streak.
func (svc *ProfileService) RecordCompletionTx(r *Repos, userID string, reward int64, xp int, perfect bool, nowTick int64) (*model.UserProfile, error) {
	profile, err := svc.getOrCreateProfile(r, userID)
	if err != nil {
		return nil, err
	}

	day := nowTick / 86400
	profile.CurrentStreak = profile.ProjectedStreak(day)
	profile.LastMissionDay = day
	profile.LastMissionEndTick = nowTick
	if profile.CurrentStreak > profile.LongestStreak {
		profile.LongestStreak = profile.CurrentStreak
	}

	profile.MissionsCompleted++
	if perfect {
		profile.PerfectMissions++
	}
	profile.LifetimeRewards += reward
	profile.TotalXPEarned += xp

	if err := r.Profiles.UpdateProfile(profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// RecordFailureTx counts a failed or expired session. An abandon zeroes
// the running streak; an expiry simply does not extend it.
func (svc *ProfileService) RecordFailureTx(r *Repos, userID, reason string, nowTick int64) error {
	profile, err := svc.getOrCreateProfile(r, userID)
	if err != nil {
		return err
	}

	if reason == shared.FailReasonExpired {
		profile.MissionsExpired++
	} else {
		profile.MissionsFailed++
	}
	if reason == shared.FailReasonAbandoned {
		profile.CurrentStreak = 0
	}
	profile.LastMissionEndTick = nowTick

	return r.Profiles.UpdateProfile(profile)
}

func (svc *ProfileService) getOrCreateProfile(r *Repos, userID string) (*model.UserProfile, error) {
	profile, err := r.Profiles.GetProfile(userID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	return r.Profiles.CreateProfile(&model.UserProfile{
		UserID:         userID,
		LastMissionDay: -1,
	})
}

// BumpLeaderboard mirrors a payout into the Redis sorted set. Best effort,
// the database remains authoritative.
func (svc *ProfileService) BumpLeaderboard(userID string, reward int64) {
	if reward <= 0 {
		return
	}

	if _, err := svc.redisSvc.ZIncrBy(context.Background(), leaderboardKey, float64(reward), userID); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"user_id": userID,
			"reward":  strconv.FormatInt(reward, 10),
		}).Warn("Failed to update leaderboard")
	}
}
