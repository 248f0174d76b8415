package services

import (
	"errors"
	"fmt"

	appContext "github.com/alphabatem/common/context"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/driftgate-labs/sortie_api/dto"
	"github.com/driftgate-labs/sortie_api/model"
	"github.com/driftgate-labs/sortie_api/services/engine"
	"github.com/driftgate-labs/sortie_api/shared"
)

// VariantService is the admin surface for mission variants, their objective
// templates and the singleton game config row. Player-facing variant reads
// go through MissionService.
type VariantService struct {
	appContext.DefaultService

	sqlSvc *PostgresService
}

const VARIANT_SVC = "variant_svc"

func (svc VariantService) Id() string {
	return VARIANT_SVC
}

func (svc *VariantService) Configure(ctx *appContext.Context) error {
	svc.sqlSvc = ctx.Service(POSTGRES_SVC).(*PostgresService)
	return svc.DefaultService.Configure(ctx)
}

func (svc *VariantService) Start() error {
	return nil
}

// ==================== VARIANTS ====================

func (svc *VariantService) ListVariantsAdmin() (*dto.AdminVariantListResponse, error) {
	variants, err := svc.sqlSvc.Variants().ListVariants(false)
	if err != nil {
		return nil, shared.NewInternalError(svc.sqlSvc.HandleError(err), "Failed to load variants")
	}

	responses := make([]dto.AdminVariantResponse, len(variants))
	for i := range variants {
		templates, err := svc.sqlSvc.Variants().GetObjectiveTemplates(variants[i].ID)
		if err != nil {
			return nil, shared.NewInternalError(svc.sqlSvc.HandleError(err), "Failed to load objective templates")
		}
		responses[i] = mapVariantToAdminResponse(&variants[i], templates)
	}

	return &dto.AdminVariantListResponse{
		Variants: responses,
		Total:    len(responses),
	}, nil
}

func (svc *VariantService) CreateVariant(req dto.CreateVariantRequest) (*dto.AdminVariantResponse, error) {
	variant := variantFromCreateRequest(req)

	if err := validateVariantShape(variant); err != nil {
		return nil, shared.NewBadRequestError(err, err.Error())
	}
	for i := range req.Templates {
		if err := validateTemplateShape(&req.Templates[i]); err != nil {
			return nil, shared.NewBadRequestError(err, err.Error())
		}
	}

	var templates []model.ObjectiveTemplate
	err := svc.sqlSvc.Transaction(func(r *Repos) error {
		if _, err := r.Variants.CreateVariant(variant); err != nil {
			return err
		}
		for i := range req.Templates {
			template := templateFromCreateRequest(variant.ID, &req.Templates[i])
			created, err := r.Variants.CreateObjectiveTemplate(template)
			if err != nil {
				return err
			}
			templates = append(templates, *created)
		}
		return nil
	})
	if err != nil {
		return nil, shared.NewInternalError(svc.sqlSvc.HandleError(err), "Failed to create variant")
	}

	log.WithFields(log.Fields{
		"variant_id": variant.ID,
		"map_size":   variant.MapSize,
		"templates":  len(templates),
	}).Info("Variant created")

	resp := mapVariantToAdminResponse(variant, templates)
	return &resp, nil
}

func (svc *VariantService) UpdateVariant(variantID string, req dto.UpdateVariantRequest) (*dto.AdminVariantResponse, error) {
	variant, err := svc.sqlSvc.Variants().GetVariant(variantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError(err, "Variant not found")
		}
		return nil, shared.NewInternalError(svc.sqlSvc.HandleError(err), "Failed to load variant")
	}

	applyVariantUpdate(variant, &req)

	if err := validateVariantShape(variant); err != nil {
		return nil, shared.NewBadRequestError(err, err.Error())
	}

	if err := svc.sqlSvc.Variants().UpdateVariant(variant); err != nil {
		return nil, shared.NewInternalError(svc.sqlSvc.HandleError(err), "Failed to update variant")
	}

	log.WithField("variant_id", variantID).Info("Variant updated")

	templates, err := svc.sqlSvc.Variants().GetObjectiveTemplates(variantID)
	if err != nil {
		return nil, shared.NewInternalError(svc.sqlSvc.HandleError(err), "Failed to load objective templates")
	}

	resp := mapVariantToAdminResponse(variant, templates)
	return &resp, nil
}

// ==================== OBJECTIVE TEMPLATES ====================

func (svc *VariantService) ListObjectiveTemplates(variantID string) ([]dto.ObjectiveTemplateResponse, error) {
	if _, err := svc.sqlSvc.Variants().GetVariant(variantID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError(err, "Variant not found")
		}
		return nil, shared.NewInternalError(svc.sqlSvc.HandleError(err), "Failed to load variant")
	}

	templates, err := svc.sqlSvc.Variants().GetObjectiveTemplates(variantID)
	if err != nil {
		return nil, shared.NewInternalError(svc.sqlSvc.HandleError(err), "Failed to load objective templates")
	}

	responses := make([]dto.ObjectiveTemplateResponse, len(templates))
	for i := range templates {
		responses[i] = mapTemplateToResponse(&templates[i])
	}
	return responses, nil
}

func (svc *VariantService) AddObjectiveTemplate(variantID string, req dto.CreateObjectiveTemplateRequest) (*dto.ObjectiveTemplateResponse, error) {
	if _, err := svc.sqlSvc.Variants().GetVariant(variantID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError(err, "Variant not found")
		}
		return nil, shared.NewInternalError(svc.sqlSvc.HandleError(err), "Failed to load variant")
	}

	if err := validateTemplateShape(&req); err != nil {
		return nil, shared.NewBadRequestError(err, err.Error())
	}

	template := templateFromCreateRequest(variantID, &req)
	created, err := svc.sqlSvc.Variants().CreateObjectiveTemplate(template)
	if err != nil {
		return nil, shared.NewInternalError(svc.sqlSvc.HandleError(err), "Failed to create objective template")
	}

	log.WithFields(log.Fields{
		"variant_id":  variantID,
		"template_id": created.ID,
		"type":        engine.ObjectiveType(created.ObjectiveType).String(),
	}).Info("Objective template created")

	resp := mapTemplateToResponse(created)
	return &resp, nil
}

// ==================== GAME CONFIG ====================

func (svc *VariantService) GetGameConfig() (*model.GameConfig, error) {
	config, err := svc.sqlSvc.Variants().GetGameConfig()
	if err != nil {
		return nil, shared.NewInternalError(svc.sqlSvc.HandleError(err), "Failed to load game config")
	}
	return config, nil
}

func (svc *VariantService) UpdateGameConfig(req dto.UpdateGameConfigRequest) (*model.GameConfig, error) {
	config, err := svc.sqlSvc.Variants().GetGameConfig()
	if err != nil {
		return nil, shared.NewInternalError(svc.sqlSvc.HandleError(err), "Failed to load game config")
	}

	applyGameConfigUpdate(config, &req)

	if err := svc.sqlSvc.Variants().SaveGameConfig(config); err != nil {
		return nil, shared.NewInternalError(svc.sqlSvc.HandleError(err), "Failed to save game config")
	}

	log.Info("Game config updated")
	return config, nil
}

// ==================== HELPERS ====================

func variantFromCreateRequest(req dto.CreateVariantRequest) *model.MissionVariant {
	variant := &model.MissionVariant{
		ID:          req.ID,
		Name:        req.Name,
		Description: req.Description,
		Enabled:     true,

		MinSquadSize: req.MinSquadSize,
		MaxSquadSize: req.MaxSquadSize,

		MapSize:            req.MapSize,
		MinCombatNodes:     req.MinCombatNodes,
		LootNodeChance:     req.LootNodeChance,
		TerminalNodeChance: req.TerminalNodeChance,
		SecretNodeChance:   req.SecretNodeChance,
		EventNodeChance:    req.EventNodeChance,

		BaseReward:              req.BaseReward,
		DifficultyMultiplierBps: req.DifficultyMultiplierBps,
		EntryFee:                req.EntryFee,

		MaxDurationTicks: req.MaxDurationTicks,
		EventFrequency:   req.EventFrequency,
		MaxEvents:        req.MaxEvents,
		MaxRests:         req.MaxRests,
		RestRestoreAmt:   req.RestRestoreAmt,
		MinChargePct:     req.MinChargePct,

		ObjectiveMode: req.ObjectiveMode,
	}

	if variant.ID == "" {
		id, _ := uuid.NewV7()
		variant.ID = id.String()
	}
	if req.Enabled != nil {
		variant.Enabled = *req.Enabled
	}
	if variant.MinSquadSize == 0 {
		variant.MinSquadSize = 1
	}
	if variant.MaxSquadSize == 0 {
		variant.MaxSquadSize = variant.MinSquadSize
	}
	if variant.DifficultyMultiplierBps == 0 {
		variant.DifficultyMultiplierBps = 10000
	}
	if variant.ObjectiveMode == "" {
		variant.ObjectiveMode = shared.ObjectiveModeLegacy
	}

	return variant
}

func applyVariantUpdate(variant *model.MissionVariant, req *dto.UpdateVariantRequest) {
	if req.Name != nil {
		variant.Name = *req.Name
	}
	if req.Description != nil {
		variant.Description = *req.Description
	}
	if req.Enabled != nil {
		variant.Enabled = *req.Enabled
	}
	if req.MinSquadSize != nil {
		variant.MinSquadSize = *req.MinSquadSize
	}
	if req.MaxSquadSize != nil {
		variant.MaxSquadSize = *req.MaxSquadSize
	}
	if req.MapSize != nil {
		variant.MapSize = *req.MapSize
	}
	if req.MinCombatNodes != nil {
		variant.MinCombatNodes = *req.MinCombatNodes
	}
	if req.LootNodeChance != nil {
		variant.LootNodeChance = *req.LootNodeChance
	}
	if req.TerminalNodeChance != nil {
		variant.TerminalNodeChance = *req.TerminalNodeChance
	}
	if req.SecretNodeChance != nil {
		variant.SecretNodeChance = *req.SecretNodeChance
	}
	if req.EventNodeChance != nil {
		variant.EventNodeChance = *req.EventNodeChance
	}
	if req.BaseReward != nil {
		variant.BaseReward = *req.BaseReward
	}
	if req.DifficultyMultiplierBps != nil {
		variant.DifficultyMultiplierBps = *req.DifficultyMultiplierBps
	}
	if req.EntryFee != nil {
		variant.EntryFee = *req.EntryFee
	}
	if req.MaxDurationTicks != nil {
		variant.MaxDurationTicks = *req.MaxDurationTicks
	}
	if req.EventFrequency != nil {
		variant.EventFrequency = *req.EventFrequency
	}
	if req.MaxEvents != nil {
		variant.MaxEvents = *req.MaxEvents
	}
	if req.MaxRests != nil {
		variant.MaxRests = *req.MaxRests
	}
	if req.RestRestoreAmt != nil {
		variant.RestRestoreAmt = *req.RestRestoreAmt
	}
	if req.MinChargePct != nil {
		variant.MinChargePct = *req.MinChargePct
	}
	if req.ObjectiveMode != nil {
		variant.ObjectiveMode = *req.ObjectiveMode
	}
}

func applyGameConfigUpdate(config *model.GameConfig, req *dto.UpdateGameConfigRequest) {
	if req.RevealDelayTicks != nil {
		config.RevealDelayTicks = *req.RevealDelayTicks
	}
	if req.RevealWindowTicks != nil {
		config.RevealWindowTicks = *req.RevealWindowTicks
	}
	if req.EventResponseTicks != nil {
		config.EventResponseTicks = *req.EventResponseTicks
	}
	if req.CooldownTicks != nil {
		config.CooldownTicks = *req.CooldownTicks
	}
	if req.PerExtraParticipantBps != nil {
		config.PerExtraParticipantBps = *req.PerExtraParticipantBps
	}
	if req.ColonyBonusBps != nil {
		config.ColonyBonusBps = *req.ColonyBonusBps
	}
	if req.StreakBonusPerDayBps != nil {
		config.StreakBonusPerDayBps = *req.StreakBonusPerDayBps
	}
	if req.MaxStreakBonusBps != nil {
		config.MaxStreakBonusBps = *req.MaxStreakBonusBps
	}
	if req.WeekendBonus != nil {
		config.WeekendBonus = *req.WeekendBonus
	}
	if req.PerfectCompletionBps != nil {
		config.PerfectCompletionBps = *req.PerfectCompletionBps
	}
	if req.DiscoveryBonusBps != nil {
		config.DiscoveryBonusBps = *req.DiscoveryBonusBps
	}
	if req.ChargeRegenPerDay != nil {
		config.ChargeRegenPerDay = *req.ChargeRegenPerDay
	}
	if req.ResourceDecayBps != nil {
		config.ResourceDecayBps = *req.ResourceDecayBps
	}
}

func validateVariantShape(variant *model.MissionVariant) error {
	if variant.MaxSquadSize < variant.MinSquadSize {
		return fmt.Errorf("max squad size %d below min squad size %d", variant.MaxSquadSize, variant.MinSquadSize)
	}
	if variant.MinCombatNodes > variant.MapSize-2 {
		return fmt.Errorf("min combat nodes %d does not fit a %d node map", variant.MinCombatNodes, variant.MapSize)
	}
	return nil
}

func validateTemplateShape(req *dto.CreateObjectiveTemplateRequest) error {
	objType := engine.ObjectiveType(req.ObjectiveType)
	if objType > engine.ObjectiveTime {
		return fmt.Errorf("unknown objective type %d", req.ObjectiveType)
	}
	if objType == engine.ObjectiveTime && req.Required {
		return errors.New("time objectives cannot be required")
	}
	if req.TargetMax != 0 && req.TargetMin != 0 && req.TargetMax < req.TargetMin {
		return fmt.Errorf("target max %d below target min %d", req.TargetMax, req.TargetMin)
	}
	return nil
}

func templateFromCreateRequest(variantID string, req *dto.CreateObjectiveTemplateRequest) *model.ObjectiveTemplate {
	template := &model.ObjectiveTemplate{
		VariantID:      variantID,
		ObjectiveType:  req.ObjectiveType,
		Weight:         req.Weight,
		TargetMin:      req.TargetMin,
		TargetMax:      req.TargetMax,
		Required:       req.Required,
		BonusRewardBps: req.BonusRewardBps,
	}

	if template.Weight == 0 {
		template.Weight = 1
	}
	if template.TargetMin == 0 {
		template.TargetMin = 1
	}
	if template.TargetMax < template.TargetMin {
		template.TargetMax = template.TargetMin
	}

	return template
}

func mapVariantToAdminResponse(variant *model.MissionVariant, templates []model.ObjectiveTemplate) dto.AdminVariantResponse {
	resp := dto.AdminVariantResponse{
		ID:          variant.ID,
		Name:        variant.Name,
		Description: variant.Description,
		Enabled:     variant.Enabled,

		MinSquadSize: variant.MinSquadSize,
		MaxSquadSize: variant.MaxSquadSize,

		MapSize:            variant.MapSize,
		MinCombatNodes:     variant.MinCombatNodes,
		LootNodeChance:     variant.LootNodeChance,
		TerminalNodeChance: variant.TerminalNodeChance,
		SecretNodeChance:   variant.SecretNodeChance,
		EventNodeChance:    variant.EventNodeChance,

		BaseReward:              variant.BaseReward,
		DifficultyMultiplierBps: variant.DifficultyMultiplierBps,
		EntryFee:                variant.EntryFee,

		MaxDurationTicks: variant.MaxDurationTicks,
		EventFrequency:   variant.EventFrequency,
		MaxEvents:        variant.MaxEvents,
		MaxRests:         variant.MaxRests,
		RestRestoreAmt:   variant.RestRestoreAmt,
		MinChargePct:     variant.MinChargePct,

		ObjectiveMode: variant.ObjectiveMode,

		CreatedAt: variant.CreatedAt,
		UpdatedAt: variant.UpdatedAt,
	}

	for i := range templates {
		resp.Templates = append(resp.Templates, mapTemplateToResponse(&templates[i]))
	}
	return resp
}

func mapTemplateToResponse(template *model.ObjectiveTemplate) dto.ObjectiveTemplateResponse {
	return dto.ObjectiveTemplateResponse{
		ID:             template.ID,
		VariantID:      template.VariantID,
		ObjectiveType:  template.ObjectiveType,
		TypeName:       engine.ObjectiveType(template.ObjectiveType).String(),
		Weight:         template.Weight,
		TargetMin:      template.TargetMin,
		TargetMax:      template.TargetMax,
		Required:       template.Required,
		BonusRewardBps: template.BonusRewardBps,
	}
}
