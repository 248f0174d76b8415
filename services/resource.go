package services

import (
	"errors"

	appContext "github.com/alphabatem/common/context"
	"gorm.io/gorm"

	"github.com/driftgate-labs/sortie_api/dto"
	"github.com/driftgate-labs/sortie_api/model"
	"github.com/driftgate-labs/sortie_api/shared"
)

// ResourceService owns mission resource stockpiles. Loot awards and decay
// both settle lazily, there is no background job touching these rows.
type ResourceService struct {
	appContext.DefaultService

	sqlSvc *PostgresService
}

const RESOURCE_SVC = "resource_svc"

func (svc ResourceService) Id() string {
	return RESOURCE_SVC
}

func (svc *ResourceService) Configure(ctx *appContext.Context) error {
	svc.sqlSvc = ctx.Service(POSTGRES_SVC).(*PostgresService)
	return svc.DefaultService.Configure(ctx)
}

func (svc *ResourceService) Start() error {
	return nil
}

// AwardTx settles pending decay on the stockpile, then adds amount.
func (svc *ResourceService) AwardTx(r *Repos, userID, resourceType string, amount int64, cfg *model.GameConfig, nowTick int64) error {
	if amount <= 0 {
		return nil
	}

	resource, err := r.Profiles.GetResource(userID, resourceType)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		_, err = r.Profiles.CreateResource(&model.UserResource{
			UserID:        userID,
			ResourceType:  resourceType,
			Amount:        amount,
			LastDecayTick: nowTick,
		})
		return err
	}

	resource.ApplyDecay(nowTick, cfg.ResourceDecayBps)
	resource.Amount += amount
	return r.Profiles.UpdateResource(resource)
}

// GetResources returns decay-adjusted stockpiles without materializing the
// decay.
func (svc *ResourceService) GetResources(userID string, nowTick int64) ([]dto.ResourceResponse, error) {
	cfg, err := svc.sqlSvc.Variants().GetGameConfig()
	if err != nil {
		return nil, shared.NewInternalError(svc.sqlSvc.HandleError(err), "Failed to load game config")
	}

	resources, err := svc.sqlSvc.Profiles().GetResources(userID)
	if err != nil {
		return nil, shared.NewInternalError(svc.sqlSvc.HandleError(err), "Failed to load resources")
	}

	responses := make([]dto.ResourceResponse, len(resources))
	for i := range resources {
		responses[i] = dto.ResourceResponse{
			Type:   resources[i].ResourceType,
			Amount: resources[i].DecayedAmount(nowTick, cfg.ResourceDecayBps),
		}
	}
	return responses, nil
}
