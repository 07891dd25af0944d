package http

import (
	"context"

	"github.com/jhoicas/stockledger-api/internal/application/notify"
	"github.com/jhoicas/stockledger-api/internal/domain/event"
	"github.com/jhoicas/stockledger-api/pkg/logger"
)

// eventDispatcher despacha los eventos que devuelven los casos de uso una vez confirmada la escritura.
// Un fallo de despacho se registra y no afecta la respuesta.
type eventDispatcher struct {
	d   notify.Dispatcher
	log *logger.Logger
}

func (e eventDispatcher) dispatch(ctx context.Context, ev event.Event) {
	if e.d == nil || ev == nil {
		return
	}
	if err := e.d.Dispatch(ctx, ev); err != nil {
		e.log.Error().Err(err).
			Str("event", ev.Type()).
			Str("company_id", ev.Company()).
			Msg("no se pudo despachar la notificación")
	}
}
