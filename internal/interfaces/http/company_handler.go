package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stockledger-api/internal/application/dto"
	"github.com/jhoicas/stockledger-api/internal/application/usecase"
)

// CompanyHandler maneja empresas y membresías.
type CompanyHandler struct {
	uc     *usecase.CompanyUseCase
	events eventDispatcher
}

// NewCompanyHandler construye el handler.
func NewCompanyHandler(uc *usecase.CompanyUseCase, events eventDispatcher) *CompanyHandler {
	return &CompanyHandler{uc: uc, events: events}
}

// Create godoc
// @Summary      Crear empresa
// @Description  El usuario autenticado queda registrado como owner.
// @Tags         companies
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.CreateCompanyRequest  true  "Datos de la empresa"
// @Success      201   {object}  dto.CompanyResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/companies [post]
func (h *CompanyHandler) Create(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return unauthorized(c)
	}
	var in dto.CreateCompanyRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	out, err := h.uc.Create(c.UserContext(), userID, in)
	if err != nil {
		return respondError(c, err, "")
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetCurrent godoc
// @Summary      Empresa del token
// @Tags         companies
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.CompanyResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/company [get]
func (h *CompanyHandler) GetCurrent(c *fiber.Ctx) error {
	out, err := h.uc.GetByID(c.UserContext(), GetCompanyID(c))
	if err != nil {
		return respondError(c, err, "empresa no encontrada")
	}
	if out == nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "empresa no encontrada"})
	}
	return c.JSON(out)
}

// ListMembers godoc
// @Summary      Listar miembros de la empresa
// @Tags         companies
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.MembershipResponse
// @Router       /api/company/members [get]
func (h *CompanyHandler) ListMembers(c *fiber.Ctx) error {
	out, err := h.uc.ListMembers(c.UserContext(), GetCompanyID(c))
	if err != nil {
		return respondError(c, err, "")
	}
	return c.JSON(out)
}

// AddMember godoc
// @Summary      Agregar miembro
// @Description  Solo owner o admin. Notifica a los responsables de la empresa.
// @Tags         companies
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.AddMemberRequest  true  "Usuario y rol"
// @Success      201   {object}  dto.MembershipResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/company/members [post]
func (h *CompanyHandler) AddMember(c *fiber.Ctx) error {
	var in dto.AddMemberRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	out, ev, err := h.uc.AddMember(c.UserContext(), GetCompanyID(c), in)
	if err != nil {
		return respondError(c, err, "empresa no encontrada")
	}
	h.events.dispatch(c.UserContext(), ev)
	return c.Status(fiber.StatusCreated).JSON(out)
}
