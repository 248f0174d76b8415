package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/driftgate-labs/sortie_api/dto"
	"github.com/driftgate-labs/sortie_api/shared"
)

type AdminHandler struct {
	userSvc    UserServiceInterface
	variantSvc VariantServiceInterface
}

func NewAdminHandler(userSvc UserServiceInterface, variantSvc VariantServiceInterface) *AdminHandler {
	return &AdminHandler{
		userSvc:    userSvc,
		variantSvc: variantSvc,
	}
}

// @Summary Get all users (Admin)
// @Description Get list of all users (admin only)
// @Tags admin
// @Produce json
// @Security Bearer
// @Param Authorization header string true "Admin Bearer Token" default(Bearer <admin_token>)
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Param search query string false "Search term"
// @Success 200 {object} shared.Response{data=dto.AdminUserListResponse}
// @Router /api/v1/admin/users [get]
func (h *AdminHandler) AdminGetUsers(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	search := c.Query("search")

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	users, err := h.userSvc.AdminListUsers(page, limit, search)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Users retrieved successfully", users)
}

// @Summary Update user (Admin)
// @Description Update a user's role or active flag (admin only)
// @Tags admin
// @Accept json
// @Produce json
// @Security Bearer
// @Param Authorization header string true "Admin Bearer Token" default(Bearer <admin_token>)
// @Param userId path string true "User ID"
// @Param updateRequest body dto.AdminUpdateUserRequest true "User update data"
// @Success 200 {object} shared.Response{data=dto.AdminUserInfo}
// @Router /api/v1/admin/users/{userId} [put]
func (h *AdminHandler) AdminUpdateUser(c *fiber.Ctx) error {
	userID := c.Params("userId")
	if userID == "" {
		return shared.ResponseJSON(c, http.StatusBadRequest, "User ID is required", nil)
	}

	var req dto.AdminUpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.ResponseJSON(c, http.StatusBadRequest, "Invalid request", err.Error())
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	user, err := h.userSvc.AdminUpdateUser(userID, req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "User updated successfully", user)
}

// @Summary List all variants (Admin)
// @Description List every mission variant including disabled ones (admin only)
// @Tags admin
// @Produce json
// @Security Bearer
// @Param Authorization header string true "Admin Bearer Token" default(Bearer <admin_token>)
// @Success 200 {object} shared.Response{data=dto.AdminVariantListResponse}
// @Router /api/v1/admin/variants [get]
func (h *AdminHandler) AdminListVariants(c *fiber.Ctx) error {
	variants, err := h.variantSvc.ListVariantsAdmin()
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", variants)
}

// @Summary Create variant (Admin)
// @Description Create a new mission variant, optionally with objective templates (admin only)
// @Tags admin
// @Accept json
// @Produce json
// @Security Bearer
// @Param Authorization header string true "Admin Bearer Token" default(Bearer <admin_token>)
// @Param createRequest body dto.CreateVariantRequest true "Variant definition"
// @Success 201 {object} shared.Response{data=dto.AdminVariantResponse}
// @Router /api/v1/admin/variants [post]
func (h *AdminHandler) CreateVariant(c *fiber.Ctx) error {
	var req dto.CreateVariantRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid variant data")
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	created, err := h.variantSvc.CreateVariant(req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusCreated, "Variant created successfully", created)
}

// @Summary Update variant (Admin)
// @Description Update tunable fields of a mission variant (admin only)
// @Tags admin
// @Accept json
// @Produce json
// @Security Bearer
// @Param Authorization header string true "Admin Bearer Token" default(Bearer <admin_token>)
// @Param variantId path string true "Variant ID"
// @Param updateRequest body dto.UpdateVariantRequest true "Fields to change"
// @Success 200 {object} shared.Response{data=dto.AdminVariantResponse}
// @Router /api/v1/admin/variants/{variantId} [put]
func (h *AdminHandler) UpdateVariant(c *fiber.Ctx) error {
	variantID := c.Params("variantId")

	var req dto.UpdateVariantRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request")
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	updated, err := h.variantSvc.UpdateVariant(variantID, req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Variant updated successfully", updated)
}

// @Summary List objective templates (Admin)
// @Description List the objective templates of a template-mode variant (admin only)
// @Tags admin
// @Produce json
// @Security Bearer
// @Param Authorization header string true "Admin Bearer Token" default(Bearer <admin_token>)
// @Param variantId path string true "Variant ID"
// @Success 200 {object} shared.Response{data=[]dto.ObjectiveTemplateResponse}
// @Router /api/v1/admin/variants/{variantId}/templates [get]
func (h *AdminHandler) ListObjectiveTemplates(c *fiber.Ctx) error {
	templates, err := h.variantSvc.ListObjectiveTemplates(c.Params("variantId"))
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", templates)
}

// @Summary Add objective template (Admin)
// @Description Add a weighted objective template to a variant (admin only)
// @Tags admin
// @Accept json
// @Produce json
// @Security Bearer
// @Param Authorization header string true "Admin Bearer Token" default(Bearer <admin_token>)
// @Param variantId path string true "Variant ID"
// @Param templateRequest body dto.CreateObjectiveTemplateRequest true "Template definition"
// @Success 201 {object} shared.Response{data=dto.ObjectiveTemplateResponse}
// @Router /api/v1/admin/variants/{variantId}/templates [post]
func (h *AdminHandler) AddObjectiveTemplate(c *fiber.Ctx) error {
	variantID := c.Params("variantId")

	var req dto.CreateObjectiveTemplateRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid template data")
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	created, err := h.variantSvc.AddObjectiveTemplate(variantID, req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusCreated, "Template created successfully", created)
}

// @Summary Get game config (Admin)
// @Description Get the live gameplay tunables (admin only)
// @Tags admin
// @Produce json
// @Security Bearer
// @Param Authorization header string true "Admin Bearer Token" default(Bearer <admin_token>)
// @Success 200 {object} shared.Response{data=model.GameConfig}
// @Router /api/v1/admin/config [get]
func (h *AdminHandler) GetGameConfig(c *fiber.Ctx) error {
	config, err := h.variantSvc.GetGameConfig()
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", config)
}

// @Summary Update game config (Admin)
// @Description Patch the gameplay tunables. Omitted fields keep their value (admin only)
// @Tags admin
// @Accept json
// @Produce json
// @Security Bearer
// @Param Authorization header string true "Admin Bearer Token" default(Bearer <admin_token>)
// @Param configRequest body dto.UpdateGameConfigRequest true "Fields to change"
// @Success 200 {object} shared.Response{data=model.GameConfig}
// @Router /api/v1/admin/config [put]
func (h *AdminHandler) UpdateGameConfig(c *fiber.Ctx) error {
	var req dto.UpdateGameConfigRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request")
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	config, err := h.variantSvc.UpdateGameConfig(req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Config updated successfully", config)
}
