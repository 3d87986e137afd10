package controller

import (
	"errors"

	"ai-coparenting-be/internal/dto"
	"ai-coparenting-be/internal/pkg/serverutils"
	"ai-coparenting-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IAuthoringController interface {
	RegisterRoutes(r fiber.Router)
	SendTurn(ctx *fiber.Ctx) error
	CancelSession(ctx *fiber.Ctx) error
	ShowSession(ctx *fiber.Ctx) error
	ListArtifacts(ctx *fiber.Ctx) error
	DeleteArtifact(ctx *fiber.Ctx) error
}

type authoringController struct {
	authoringService service.IAuthoringService
}

func NewAuthoringController(authoringService service.IAuthoringService) IAuthoringController {
	return &authoringController{
		authoringService: authoringService,
	}
}

func (c *authoringController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/authoring/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("turn", c.SendTurn)
	h.Post("cancel", c.CancelSession)
	h.Get("session", c.ShowSession)
	h.Get("artifacts", c.ListArtifacts)
	h.Delete("artifacts/:id", c.DeleteArtifact)
}

func (c *authoringController) SendTurn(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	var req dto.SendTurnRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	err := serverutils.ValidateRequest(req)
	if err != nil {
		return err
	}

	res, err := c.authoringService.SendTurn(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success process turn", res))
}

func (c *authoringController) CancelSession(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	var req dto.CancelSessionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	err := serverutils.ValidateRequest(req)
	if err != nil {
		return err
	}

	res, err := c.authoringService.CancelSession(userId, req.Kind)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success cancel session", res))
}

func (c *authoringController) ShowSession(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	kind := ctx.Query("kind", "letter")

	res, err := c.authoringService.GetSession(userId, kind)
	if err != nil {
		return err
	}
	if res == nil {
		return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, "No active session"))
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show session", res))
}

func (c *authoringController) ListArtifacts(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	kind := ctx.Query("kind")

	res, err := c.authoringService.ListArtifacts(ctx.Context(), userId, kind)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list artifacts", res))
}

func (c *authoringController) DeleteArtifact(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	idParam := ctx.Params("id")
	id, _ := uuid.Parse(idParam)

	err := c.authoringService.DeleteArtifact(ctx.Context(), userId, id)
	if err != nil {
		if errors.Is(err, service.ErrArtifactNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, "Artifact not found"))
		}
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete artifact", nil))
}
