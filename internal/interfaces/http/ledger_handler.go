package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stockledger-api/internal/application/dto"
	"github.com/jhoicas/stockledger-api/internal/application/ledger"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
)

// LedgerHandler entradas, salidas y reversiones de stock (protegido).
type LedgerHandler struct {
	ledger *ledger.Ledger
}

// NewLedgerHandler construye el handler.
func NewLedgerHandler(l *ledger.Ledger) *LedgerHandler {
	return &LedgerHandler{ledger: l}
}

// RecordInbound godoc
// @Summary      Registrar entrada de stock
// @Description  Crea un lote nuevo; el vencimiento se calcula con storage_months del producto.
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.StockRecordRequest  true  "product_id, box_quantity, piece_quantity"
// @Success      201   {object}  dto.StockRecordResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/stock/in [post]
func (h *LedgerHandler) RecordInbound(c *fiber.Ctx) error {
	return h.record(c, h.ledger.RecordInbound)
}

// RecordOutbound godoc
// @Summary      Registrar salida de stock
// @Description  Consume los lotes más antiguos primero (FIFO). 409 INSUFFICIENT_STOCK si no alcanza.
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.StockRecordRequest  true  "product_id, box_quantity, piece_quantity"
// @Success      201   {object}  dto.StockRecordResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/stock/out [post]
func (h *LedgerHandler) RecordOutbound(c *fiber.Ctx) error {
	return h.record(c, h.ledger.RecordOutbound)
}

type recordOp func(ctx context.Context, in ledger.RecordInput) (*entity.StockRecord, error)

func (h *LedgerHandler) record(c *fiber.Ctx, op recordOp) error {
	companyID, userID := GetCompanyID(c), GetUserID(c)
	if companyID == "" || userID == "" {
		return unauthorized(c)
	}
	var in dto.StockRecordRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	rec, err := op(c.UserContext(), ledger.RecordInput{
		CompanyID:     companyID,
		ProductID:     in.ProductID,
		RecordedBy:    userID,
		BoxQuantity:   in.BoxQuantity,
		PieceQuantity: in.PieceQuantity,
		Note:          in.Note,
	})
	if err != nil {
		return respondError(c, err, "producto no encontrado")
	}
	return c.Status(fiber.StatusCreated).JSON(toRecordResponse(rec))
}

// ReverseRecord godoc
// @Summary      Revertir un registro
// @Description  Una salida devuelve sus piezas a los lotes de origen; una entrada solo si nadie la consumió.
// @Tags         stock
// @Security     Bearer
// @Param        id   path  string  true  "ID del registro"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/stock/records/{id} [delete]
func (h *LedgerHandler) ReverseRecord(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	id, ok := pathID(c)
	if !ok {
		return invalidID(c)
	}
	if err := h.ledger.ReverseRecord(c.UserContext(), companyID, id); err != nil {
		return respondError(c, err, "registro no encontrado")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// CurrentStock godoc
// @Summary      Stock vivo de un producto
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del producto"
// @Success      200  {object}  dto.StockLevelResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/products/{id}/stock [get]
func (h *LedgerHandler) CurrentStock(c *fiber.Ctx) error {
	productID, ok := pathID(c)
	if !ok {
		return invalidID(c)
	}
	level, err := h.ledger.CurrentStock(c.UserContext(), GetCompanyID(c), productID)
	if err != nil {
		return respondError(c, err, "producto no encontrado")
	}
	return c.JSON(dto.StockLevelResponse{
		ProductID:     productID,
		BoxQuantity:   level.BoxQuantity,
		PieceQuantity: level.PieceQuantity,
		TotalPieces:   level.TotalPieces,
	})
}

// CompanyStock godoc
// @Summary      Stock total de la empresa en piezas
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]int64
// @Router       /api/stock [get]
func (h *LedgerHandler) CompanyStock(c *fiber.Ctx) error {
	total, err := h.ledger.CompanyStock(c.UserContext(), GetCompanyID(c))
	if err != nil {
		return respondError(c, err, "")
	}
	return c.JSON(fiber.Map{"total_pieces": total})
}

// ListRecords godoc
// @Summary      Historial de registros de un producto
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        id      path   string  true   "ID del producto"
// @Param        limit   query  int     false  "Límite"  default(20)
// @Param        offset  query  int     false  "Offset"  default(0)
// @Success      200     {object}  dto.StockRecordListResponse
// @Router       /api/products/{id}/records [get]
func (h *LedgerHandler) ListRecords(c *fiber.Ctx) error {
	productID, ok := pathID(c)
	if !ok {
		return invalidID(c)
	}
	limit, offset := pageParams(c)
	list, err := h.ledger.ListRecords(c.UserContext(), GetCompanyID(c), productID, limit, offset)
	if err != nil {
		return respondError(c, err, "producto no encontrado")
	}
	items := make([]dto.StockRecordResponse, 0, len(list))
	for _, r := range list {
		items = append(items, toRecordResponse(r))
	}
	return c.JSON(dto.StockRecordListResponse{Items: items, Page: dto.PageResponse{Limit: limit, Offset: offset}})
}

func toRecordResponse(r *entity.StockRecord) dto.StockRecordResponse {
	return dto.StockRecordResponse{
		ID:               r.ID,
		ProductID:        r.ProductID,
		RecordType:       r.RecordType,
		BoxQuantity:      r.BoxQuantity,
		PieceQuantity:    r.PieceQuantity,
		TotalPieces:      r.TotalPieces,
		ConsumedQuantity: r.ConsumedQuantity,
		RecordedBy:       r.RecordedBy,
		RecordDate:       r.RecordDate,
		ExpirationDate:   r.ExpirationDate,
		Note:             r.Note,
	}
}
