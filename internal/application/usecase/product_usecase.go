package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/stockledger-api/internal/application/dto"
	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/event"
	"github.com/jhoicas/stockledger-api/internal/domain/inventory"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
)

// ProductUseCase casos de uso del catálogo. El stock se maneja solo vía el ledger.
type ProductUseCase struct {
	repo      repository.ProductRepository
	records   repository.StockRecordRepository
	companies repository.CompanyRepository
	now       func() time.Time
}

// NewProductUseCase construye el caso de uso.
func NewProductUseCase(
	repo repository.ProductRepository,
	records repository.StockRecordRepository,
	companies repository.CompanyRepository,
) *ProductUseCase {
	return &ProductUseCase{repo: repo, records: records, companies: companies, now: time.Now}
}

// Create crea un producto con stock 0 y devuelve el evento ProductCreated para despachar.
func (uc *ProductUseCase) Create(ctx context.Context, companyID, userID string, in dto.CreateProductRequest) (*dto.ProductResponse, event.Event, error) {
	if in.Name == "" || !entity.ValidUnit(in.Unit) || in.PiecesPerBox < 1 || in.StorageMonths < 1 {
		return nil, nil, domain.ErrInvalidInput
	}
	company, err := uc.companies.GetByID(ctx, companyID)
	if err != nil {
		return nil, nil, err
	}
	if company == nil {
		return nil, nil, domain.ErrNotFound
	}
	now := uc.now().UTC()
	product := &entity.Product{
		ID:            uuid.New().String(),
		CompanyID:     companyID,
		Name:          in.Name,
		Category:      in.Category,
		Unit:          in.Unit,
		PiecesPerBox:  in.PiecesPerBox,
		StorageMonths: in.StorageMonths,
		CreatedBy:     userID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := uc.repo.Create(ctx, product); err != nil {
		return nil, nil, err
	}
	ev := event.ProductCreated{
		ProductID:   product.ID,
		CompanyID:   companyID,
		CompanyName: company.Name,
		ProductName: product.Name,
		CreatedBy:   userID,
		OccurredAt:  now,
	}
	return toProductResponse(product), ev, nil
}

// GetByID obtiene un producto de la empresa. (nil, nil) si no existe o es de otra empresa.
func (uc *ProductUseCase) GetByID(ctx context.Context, companyID, id string) (*dto.ProductResponse, error) {
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil || product.CompanyID != companyID {
		return nil, nil
	}
	return toProductResponse(product), nil
}

// Update actualiza los datos de catálogo. pieces_per_box queda congelado en cuanto existe
// algún registro: cambiarlo reinterpretaría cantidades ya persistidas.
func (uc *ProductUseCase) Update(ctx context.Context, companyID, id string, in dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil || product.CompanyID != companyID {
		return nil, nil
	}
	if in.Name != nil {
		if *in.Name == "" {
			return nil, domain.ErrInvalidInput
		}
		product.Name = *in.Name
	}
	if in.Category != nil {
		product.Category = *in.Category
	}
	if in.Unit != nil {
		if !entity.ValidUnit(*in.Unit) {
			return nil, domain.ErrInvalidInput
		}
		product.Unit = *in.Unit
	}
	if in.StorageMonths != nil {
		if *in.StorageMonths < 1 {
			return nil, domain.ErrInvalidInput
		}
		product.StorageMonths = *in.StorageMonths
	}
	if in.PiecesPerBox != nil && *in.PiecesPerBox != product.PiecesPerBox {
		if *in.PiecesPerBox < 1 {
			return nil, domain.ErrInvalidInput
		}
		has, err := uc.records.HasRecords(ctx, id)
		if err != nil {
			return nil, err
		}
		if has {
			return nil, domain.ErrConflict
		}
		product.PiecesPerBox = *in.PiecesPerBox
	}
	product.UpdatedAt = uc.now().UTC()
	if err := uc.repo.Update(ctx, product); err != nil {
		return nil, err
	}
	return toProductResponse(product), nil
}

// List lista productos por empresa con paginación.
func (uc *ProductUseCase) List(ctx context.Context, companyID string, limit, offset int) (*dto.ProductListResponse, error) {
	list, err := uc.repo.ListByCompany(ctx, companyID, limit, offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ProductResponse, 0, len(list))
	for _, p := range list {
		items = append(items, *toProductResponse(p))
	}
	return &dto.ProductListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: limit, Offset: offset},
	}, nil
}

func toProductResponse(p *entity.Product) *dto.ProductResponse {
	if p == nil {
		return nil
	}
	box, piece := inventory.ToBoxPiece(p.CurrentStock, p.PiecesPerBox)
	return &dto.ProductResponse{
		ID:                 p.ID,
		CompanyID:          p.CompanyID,
		Name:               p.Name,
		Category:           p.Category,
		Unit:               p.Unit,
		PiecesPerBox:       p.PiecesPerBox,
		StorageMonths:      p.StorageMonths,
		CurrentStock:       p.CurrentStock,
		BoxQuantity:        box,
		PieceQuantity:      piece,
		AvgLast30DaysStock: p.AvgLast30DaysStock,
		Variation:          p.Variation,
		Version:            p.Version,
		CreatedBy:          p.CreatedBy,
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
}
