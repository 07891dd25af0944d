// Package memory implementa todos los puertos de persistencia en memoria.
// Se usa cuando no hay base de datos configurada (APP_STORAGE=memory) y como doble en los tests.
// Las transacciones se serializan con un único mutex y trabajan sobre una copia del estado:
// Commit reemplaza el estado, Rollback simplemente descarta la copia.
package memory

import (
	"sync"

	"github.com/jhoicas/stockledger-api/internal/domain/entity"
)

type state struct {
	companies     map[string]*entity.Company
	memberships   map[string]*entity.Membership
	products      map[string]*entity.Product
	records       map[string]*entity.StockRecord
	allocations   map[string]*entity.Allocation
	snapshots     map[string]*entity.StockSnapshot // clave: product_id|fecha
	notifications map[string]*entity.Notification
	seq           int64
}

func newState() *state {
	return &state{
		companies:     map[string]*entity.Company{},
		memberships:   map[string]*entity.Membership{},
		products:      map[string]*entity.Product{},
		records:       map[string]*entity.StockRecord{},
		allocations:   map[string]*entity.Allocation{},
		snapshots:     map[string]*entity.StockSnapshot{},
		notifications: map[string]*entity.Notification{},
	}
}

func cloneMap[T any](m map[string]*T) map[string]*T {
	out := make(map[string]*T, len(m))
	for k, v := range m {
		c := *v
		out[k] = &c
	}
	return out
}

func (s *state) clone() *state {
	return &state{
		companies:     cloneMap(s.companies),
		memberships:   cloneMap(s.memberships),
		products:      cloneMap(s.products),
		records:       cloneMap(s.records),
		allocations:   cloneMap(s.allocations),
		snapshots:     cloneMap(s.snapshots),
		notifications: cloneMap(s.notifications),
		seq:           s.seq,
	}
}

// Store estado compartido por los repositorios en memoria.
type Store struct {
	mu   sync.Mutex
	data *state
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{data: newState()}
}

// with ejecuta fn sobre el estado de la transacción o, fuera de ella, sobre el estado global bajo el mutex.
func (s *Store) with(tx *state, fn func(st *state) error) error {
	if tx != nil {
		return fn(tx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.data)
}

func ptr[T any](v T) *T { return &v }
