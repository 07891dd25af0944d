package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apphttp "github.com/jhoicas/stockledger-api/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/stockledger-api/pkg/jwt"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const (
	testJWTSecret = "test-secret-key-for-unit-tests"
	testUserID    = "00000000-0000-0000-0000-000000000001"
	testCompanyID = "00000000-0000-0000-0000-000000000002"
	testIssuer    = "stockledger-test"
	testTTL       = time.Hour
)

// signToken firma un token de prueba y lo devuelve listo para el header Authorization.
func signToken(t *testing.T, userID, companyID, role string) string {
	t.Helper()
	tok, err := pkgjwt.Generate(testJWTSecret, pkgjwt.Identity{UserID: userID, CompanyID: companyID, Role: role}, testIssuer, testTTL)
	require.NoError(t, err, "debe generarse un token JWT válido")
	return "Bearer " + tok
}

// get lanza un GET con el header Authorization indicado (vacío = sin header).
func get(t *testing.T, app *fiber.App, path, authHeader string) (*http.Response, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

// roleApp ruta protegida por AuthMiddleware + RequireRole(allowed...).
func roleApp(allowed ...string) *fiber.App {
	app := fiber.New()
	app.Get("/protected",
		apphttp.AuthMiddleware(testJWTSecret),
		apphttp.RequireRole(allowed...),
		func(c *fiber.Ctx) error {
			return c.JSON(fiber.Map{"ok": true, "role": apphttp.GetRole(c)})
		},
	)
	return app
}

// fakeMembership membresías fijas por "empresa|usuario"; err simula la DB caída.
type fakeMembership struct {
	members map[string]bool
	err     error
}

func (f fakeMembership) IsMember(_ context.Context, companyID, userID string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.members[companyID+"|"+userID], nil
}

func membershipApp(checker fakeMembership) *fiber.App {
	app := fiber.New()
	app.Get("/company",
		apphttp.AuthMiddleware(testJWTSecret),
		apphttp.RequireMembership(checker),
		func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) },
	)
	return app
}

// ──────────────────────────────────────────────────────────────────────────────
// AuthMiddleware
// ──────────────────────────────────────────────────────────────────────────────

func TestAuthMiddleware_CargaIdentidadEnLocals(t *testing.T) {
	app := fiber.New()
	app.Get("/me", apphttp.AuthMiddleware(testJWTSecret), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"user_id":    apphttp.GetUserID(c),
			"company_id": apphttp.GetCompanyID(c),
			"role":       apphttp.GetRole(c),
		})
	})

	resp, body := get(t, app, "/me", signToken(t, testUserID, testCompanyID, "admin"))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got map[string]string
	require.NoError(t, json.Unmarshal([]byte(body), &got))
	assert.Equal(t, testUserID, got["user_id"])
	assert.Equal(t, testCompanyID, got["company_id"])
	assert.Equal(t, "admin", got["role"])
}

func TestAuthMiddleware_HeadersRechazados(t *testing.T) {
	expired, err := pkgjwt.Generate(testJWTSecret, pkgjwt.Identity{UserID: testUserID}, testIssuer, -time.Hour)
	require.NoError(t, err)
	foreign, err := pkgjwt.Generate("otro-secreto", pkgjwt.Identity{UserID: testUserID}, testIssuer, testTTL)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		code   string
	}{
		{"sin header", "", "MISSING_TOKEN"},
		{"esquema distinto de Bearer", "Basic dXNlcjpwYXNz", "INVALID_TOKEN"},
		{"bearer vacío", "Bearer   ", "MISSING_TOKEN"},
		{"token malformado", "Bearer token.invalido.aqui", "INVALID_TOKEN"},
		{"token expirado", "Bearer " + expired, "INVALID_TOKEN"},
		{"firmado con otro secreto", "Bearer " + foreign, "INVALID_TOKEN"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := get(t, roleApp("admin"), "/protected", tt.header)
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			assert.Contains(t, body, tt.code)
		})
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// RequireRole
// ──────────────────────────────────────────────────────────────────────────────

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		role    string
		status  int
		code    string
	}{
		{"owner en ruta de gestores", []string{"owner", "admin"}, "owner", http.StatusOK, ""},
		{"admin en ruta de gestores", []string{"owner", "admin"}, "admin", http.StatusOK, ""},
		{"employee en ruta de gestores", []string{"owner", "admin"}, "employee", http.StatusForbidden, "FORBIDDEN"},
		{"admin en ruta solo owner", []string{"owner"}, "admin", http.StatusForbidden, "FORBIDDEN"},
		{"token sin rol", []string{"admin"}, "", http.StatusUnauthorized, "MISSING_ROLE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := get(t, roleApp(tt.allowed...), "/protected", signToken(t, testUserID, testCompanyID, tt.role))
			assert.Equal(t, tt.status, resp.StatusCode)
			if tt.code != "" {
				assert.Contains(t, body, tt.code)
			} else {
				assert.Contains(t, body, `"role":"`+tt.role+`"`)
			}
		})
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// RequireMembership
// ──────────────────────────────────────────────────────────────────────────────

func TestRequireMembership(t *testing.T) {
	members := map[string]bool{testCompanyID + "|" + testUserID: true}

	tests := []struct {
		name    string
		checker fakeMembership
		company string
		status  int
		code    string
	}{
		{"miembro vigente", fakeMembership{members: members}, testCompanyID, http.StatusNoContent, ""},
		{"miembro de otra empresa", fakeMembership{members: members}, "otra-empresa", http.StatusForbidden, "NOT_A_MEMBER"},
		{"token sin empresa", fakeMembership{members: members}, "", http.StatusUnauthorized, "UNAUTHORIZED"},
		{"fallo al consultar", fakeMembership{err: errors.New("db caída")}, testCompanyID, http.StatusServiceUnavailable, "MEMBERSHIP_CHECK_FAILED"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := get(t, membershipApp(tt.checker), "/company", signToken(t, testUserID, tt.company, "employee"))
			assert.Equal(t, tt.status, resp.StatusCode)
			if tt.code != "" {
				assert.Contains(t, body, tt.code)
			}
		})
	}
}
