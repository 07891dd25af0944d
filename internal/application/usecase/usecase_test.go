package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stockledger-api/internal/application/dto"
	"github.com/jhoicas/stockledger-api/internal/application/ledger"
	"github.com/jhoicas/stockledger-api/internal/application/ports"
	"github.com/jhoicas/stockledger-api/internal/application/usecase"
	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/event"
	"github.com/jhoicas/stockledger-api/internal/infrastructure/cache"
	"github.com/jhoicas/stockledger-api/internal/infrastructure/memory"
	"github.com/jhoicas/stockledger-api/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const ownerID = "owner-1"

type fixture struct {
	companies *usecase.CompanyUseCase
	products  *usecase.ProductUseCase
	ledger    *ledger.Ledger
}

func newFixture() *fixture {
	store := memory.NewStore()
	companyRepo := memory.NewCompanyRepository(store)
	productRepo := memory.NewProductRepository(store)
	recordRepo := memory.NewStockRecordRepository(store)
	var c ports.CacheInvalidator = cache.NewLocalCache(100, 0)
	return &fixture{
		companies: usecase.NewCompanyUseCase(companyRepo, memory.NewMembershipRepository(store)),
		products:  usecase.NewProductUseCase(productRepo, recordRepo, companyRepo),
		ledger: ledger.NewLedger(memory.NewTxRunner(store), productRepo, recordRepo, c, nil,
			logger.Nop(), ledger.Config{}),
	}
}

func (f *fixture) company(t *testing.T) *dto.CompanyResponse {
	t.Helper()
	c, err := f.companies.Create(context.Background(), ownerID, dto.CreateCompanyRequest{Name: "Acme", Username: "ana"})
	require.NoError(t, err)
	return c
}

func validProduct() dto.CreateProductRequest {
	return dto.CreateProductRequest{Name: "Guantes", Category: "insumos", Unit: "count", PiecesPerBox: 12, StorageMonths: 6}
}

func ptrTo[T any](v T) *T { return &v }

// ──────────────────────────────────────────────────────────────────────────────
// Empresas y membresías
// ──────────────────────────────────────────────────────────────────────────────

func TestCompanyCreate_RegistraOwner(t *testing.T) {
	f := newFixture()
	c := f.company(t)

	members, err := f.companies.ListMembers(context.Background(), c.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, ownerID, members[0].UserID)
	assert.Equal(t, "owner", members[0].Role)

	ok, err := f.companies.IsMember(context.Background(), c.ID, ownerID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCompanyCreate_NombreNormalizadoYValidado(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	c, err := f.companies.Create(ctx, ownerID, dto.CreateCompanyRequest{Name: "  Acme  ", Username: "ana"})
	require.NoError(t, err)
	assert.Equal(t, "Acme", c.Name)
	assert.Equal(t, ownerID, c.OwnerID)

	_, err = f.companies.Create(ctx, ownerID, dto.CreateCompanyRequest{Name: "   "})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.companies.Create(ctx, "", dto.CreateCompanyRequest{Name: "Acme"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAddMember_DevuelveEventoMembershipCreated(t *testing.T) {
	f := newFixture()
	c := f.company(t)

	m, ev, err := f.companies.AddMember(context.Background(), c.ID,
		dto.AddMemberRequest{UserID: "u-2", Username: "beto", Role: "employee"})
	require.NoError(t, err)

	created, ok := ev.(event.MembershipCreated)
	require.True(t, ok, "el evento debe ser MembershipCreated")
	assert.Equal(t, m.ID, created.MembershipID)
	assert.Equal(t, "Acme", created.CompanyName)
	assert.Equal(t, "u-2", created.UserID)
}

func TestAddMember_DuplicadoYRolOwnerRechazados(t *testing.T) {
	f := newFixture()
	c := f.company(t)
	ctx := context.Background()

	_, _, err := f.companies.AddMember(ctx, c.ID, dto.AddMemberRequest{UserID: ownerID, Username: "ana", Role: "admin"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	_, _, err = f.companies.AddMember(ctx, c.ID, dto.AddMemberRequest{UserID: "u-3", Username: "x", Role: "owner"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, _, err = f.companies.AddMember(ctx, "no-existe", dto.AddMemberRequest{UserID: "u-3", Username: "x", Role: "admin"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// Catálogo de productos
// ──────────────────────────────────────────────────────────────────────────────

func TestProductCreate_StockCeroYEventoProductCreated(t *testing.T) {
	f := newFixture()
	c := f.company(t)

	p, ev, err := f.products.Create(context.Background(), c.ID, ownerID, validProduct())
	require.NoError(t, err)
	assert.Equal(t, int64(0), p.CurrentStock)

	created, ok := ev.(event.ProductCreated)
	require.True(t, ok)
	assert.Equal(t, p.ID, created.ProductID)
	assert.Equal(t, "Guantes", created.ProductName)
	assert.Equal(t, "Acme", created.CompanyName)
}

func TestProductCreate_UnidadInvalida(t *testing.T) {
	f := newFixture()
	c := f.company(t)
	in := validProduct()
	in.Unit = "litros"

	_, _, err := f.products.Create(context.Background(), c.ID, ownerID, in)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestProductGet_OtraEmpresaNoVisible(t *testing.T) {
	f := newFixture()
	c := f.company(t)
	p, _, err := f.products.Create(context.Background(), c.ID, ownerID, validProduct())
	require.NoError(t, err)

	out, err := f.products.GetByID(context.Background(), "otra-empresa", p.ID)
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestProductUpdate_PiecesPerBoxCongeladoConRegistros(t *testing.T) {
	f := newFixture()
	c := f.company(t)
	ctx := context.Background()
	p, _, err := f.products.Create(ctx, c.ID, ownerID, validProduct())
	require.NoError(t, err)

	// Sin registros se puede cambiar.
	out, err := f.products.Update(ctx, c.ID, p.ID, dto.UpdateProductRequest{PiecesPerBox: ptrTo(int64(10))})
	require.NoError(t, err)
	assert.Equal(t, int64(10), out.PiecesPerBox)

	_, err = f.ledger.RecordInbound(ctx, ledger.RecordInput{
		CompanyID: c.ID, ProductID: p.ID, RecordedBy: ownerID, BoxQuantity: 2, PieceQuantity: 3,
	})
	require.NoError(t, err)

	_, err = f.products.Update(ctx, c.ID, p.ID, dto.UpdateProductRequest{PiecesPerBox: ptrTo(int64(6))})
	assert.ErrorIs(t, err, domain.ErrConflict)

	out, err = f.products.Update(ctx, c.ID, p.ID, dto.UpdateProductRequest{Name: ptrTo("Guantes L")})
	require.NoError(t, err)
	assert.Equal(t, "Guantes L", out.Name)
	assert.Equal(t, int64(23), out.CurrentStock)
	assert.Equal(t, int64(2), out.BoxQuantity)
	assert.Equal(t, int64(3), out.PieceQuantity)
}
