package inventory

import (
	"fmt"
	"math"

	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
)

// ToTotalPieces convierte (cajas, piezas) al total canónico de piezas:
// box*piecesPerBox + piece. Cualquier valor negativo devuelve domain.ErrInvalidQuantity.
func ToTotalPieces(box, piece, piecesPerBox int64) (int64, error) {
	if box < 0 || piece < 0 || piecesPerBox < 0 {
		return 0, fmt.Errorf("%w: box=%d piece=%d pieces_per_box=%d", domain.ErrInvalidQuantity, box, piece, piecesPerBox)
	}
	if piecesPerBox > 0 && box > (math.MaxInt64-piece)/piecesPerBox {
		return 0, fmt.Errorf("%w: desbordamiento", domain.ErrInvalidQuantity)
	}
	return box*piecesPerBox + piece, nil
}

// ToBoxPiece descompone un total de piezas en (cajas, piezas) con división entera por piso.
// piecesPerBox se valida al crear el producto; si llega < 1 todo se expresa en piezas.
func ToBoxPiece(total, piecesPerBox int64) (box, piece int64) {
	if piecesPerBox < 1 {
		return 0, total
	}
	box = total / piecesPerBox
	piece = total % piecesPerBox
	if piece < 0 {
		box--
		piece += piecesPerBox
	}
	return box, piece
}

// Level arma un StockLevel a partir del total de piezas.
func Level(total, piecesPerBox int64) entity.StockLevel {
	box, piece := ToBoxPiece(total, piecesPerBox)
	return entity.StockLevel{BoxQuantity: box, PieceQuantity: piece, TotalPieces: total}
}
