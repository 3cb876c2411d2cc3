// Package memory implementa los puertos de persistencia en memoria con semántica optimista:
// las escrituras de una unidad se acumulan y se validan contra el estado confirmado al hacer
// commit, igual que una transacción SERIALIZABLE que falla por conflicto.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	appinv "github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

var _ appinv.TxRunner = (*Store)(nil)

// Store estado confirmado compartido.
type Store struct {
	mu        sync.RWMutex
	seq       int64
	ledger    []*entity.StockLedgerEntry
	positions map[entity.PositionKey]*entity.StockPosition
	movements map[string]*entity.Movement
	counters  map[string]int64
	stores    map[string]map[string]bool
	products  map[string]map[string]bool
}

// NewStore crea un almacenamiento vacío.
func NewStore() *Store {
	return &Store{
		positions: make(map[entity.PositionKey]*entity.StockPosition),
		movements: make(map[string]*entity.Movement),
		counters:  make(map[string]int64),
		stores:    make(map[string]map[string]bool),
		products:  make(map[string]map[string]bool),
	}
}

// Run ejecuta fn con repositorios atados a una unidad nueva. Commit si fn devuelve nil.
func (s *Store) Run(ctx context.Context, fn func(ctx context.Context, repos appinv.TxRepos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tx := newTx(s)
	if err := fn(ctx, tx.repos()); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.commit(tx)
}

// Ledger repositorio de lectura del libro (fuera de unidad).
func (s *Store) Ledger() *LedgerRepository { return &LedgerRepository{store: s} }

// Positions repositorio de la proyección (fuera de unidad).
func (s *Store) Positions() *PositionRepository { return &PositionRepository{store: s} }

// Movements repositorio de documentos (fuera de unidad).
func (s *Store) Movements() *MovementRepository { return &MovementRepository{store: s} }

func (s *Store) nextSeq() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	return s.seq
}

func (s *Store) commit(tx *memTx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for k, expected := range tx.positionBase {
		cur, ok := s.positions[k]
		var seq int64
		if ok {
			seq = cur.LastAppliedSequenceNo
		}
		if seq != expected {
			return fmt.Errorf("%w: posición %s/%s", domain.ErrConcurrentModification, k.StoreID, k.ProductID)
		}
	}
	for id, expected := range tx.movementBase {
		cur, ok := s.movements[id]
		if !ok || cur.Version != expected {
			return fmt.Errorf("%w: documento %s", domain.ErrConcurrentModification, id)
		}
	}
	for id := range tx.created {
		if _, ok := s.movements[id]; ok {
			return fmt.Errorf("%w: documento %s ya existe", domain.ErrConflict, id)
		}
	}

	s.ledger = append(s.ledger, tx.ledger...)
	sort.SliceStable(s.ledger, func(i, j int) bool { return s.ledger[i].SequenceNo < s.ledger[j].SequenceNo })
	for k, p := range tx.positions {
		s.positions[k] = p.Clone()
	}
	for id, m := range tx.movements {
		s.movements[id] = m.Clone()
	}
	return nil
}

func (s *Store) committedPosition(k entity.PositionKey) *entity.StockPosition {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.positions[k]; ok {
		return p.Clone()
	}
	return entity.NewStockPosition(k)
}

func (s *Store) committedMovement(id string) *entity.Movement {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if m, ok := s.movements[id]; ok {
		return m.Clone()
	}
	return nil
}

func (s *Store) committedLedger(match func(e *entity.StockLedgerEntry) bool) []*entity.StockLedgerEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*entity.StockLedgerEntry
	for _, e := range s.ledger {
		if match(e) {
			c := *e
			out = append(out, &c)
		}
	}
	return out
}
