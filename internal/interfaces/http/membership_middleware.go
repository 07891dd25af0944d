package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stockledger-api/internal/application/dto"
)

// membershipChecker contrato mínimo para confirmar que el usuario pertenece a la empresa.
// Lo implementa *usecase.CompanyUseCase.
type membershipChecker interface {
	IsMember(ctx context.Context, companyID, userID string) (bool, error)
}

// RequireMembership verifica contra la DB que el usuario del token sigue siendo miembro
// de la empresa del token. Debe usarse DESPUÉS de AuthMiddleware.
//
// Comportamiento:
//   - 403 Forbidden  → el usuario ya no pertenece a la empresa.
//   - 503 Service Unavailable → fallo de infraestructura al consultar la DB.
func RequireMembership(checker membershipChecker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		companyID, userID := GetCompanyID(c), GetUserID(c)
		if companyID == "" || userID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Code:    "UNAUTHORIZED",
				Message: "company_id no encontrado en el token",
			})
		}

		ok, err := checker.IsMember(c.UserContext(), companyID, userID)
		if err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{
				Code:    "MEMBERSHIP_CHECK_FAILED",
				Message: "no se pudo verificar la membresía, intente más tarde",
			})
		}
		if !ok {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Code:    "NOT_A_MEMBER",
				Message: "el usuario no pertenece a esta empresa",
			})
		}
		return c.Next()
	}
}
