package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	appinv "github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var (
	_ repository.LedgerRepository   = (*LedgerRepository)(nil)
	_ repository.PositionRepository = (*PositionRepository)(nil)
	_ repository.MovementRepository = (*MovementRepository)(nil)
)

// memTx escrituras pendientes de una unidad. No es seguro para uso concurrente.
type memTx struct {
	store        *Store
	ledger       []*entity.StockLedgerEntry
	positions    map[entity.PositionKey]*entity.StockPosition
	positionBase map[entity.PositionKey]int64
	movements    map[string]*entity.Movement
	movementBase map[string]int
	created      map[string]bool
}

func newTx(s *Store) *memTx {
	return &memTx{
		store:        s,
		positions:    make(map[entity.PositionKey]*entity.StockPosition),
		positionBase: make(map[entity.PositionKey]int64),
		movements:    make(map[string]*entity.Movement),
		movementBase: make(map[string]int),
		created:      make(map[string]bool),
	}
}

func (tx *memTx) repos() appinv.TxRepos {
	return appinv.TxRepos{
		Ledger:    &LedgerRepository{store: tx.store, tx: tx},
		Positions: &PositionRepository{store: tx.store, tx: tx},
		Movements: &MovementRepository{store: tx.store, tx: tx},
	}
}

// autocommit ejecuta una escritura suelta como unidad propia.
func autocommit(s *Store, fn func(tx *memTx) error) error {
	tx := newTx(s)
	if err := fn(tx); err != nil {
		return err
	}
	return s.commit(tx)
}

// LedgerRepository libro append-only en memoria.
type LedgerRepository struct {
	store *Store
	tx    *memTx
}

// Append numera los asientos al anexar. Un rollback deja huecos en la secuencia.
func (r *LedgerRepository) Append(ctx context.Context, entries []*entity.StockLedgerEntry) (entity.SequenceRange, error) {
	if len(entries) == 0 {
		return entity.SequenceRange{}, nil
	}
	if r.tx == nil {
		var rng entity.SequenceRange
		err := autocommit(r.store, func(tx *memTx) error {
			var err error
			rng, err = (&LedgerRepository{store: r.store, tx: tx}).Append(ctx, entries)
			return err
		})
		return rng, err
	}
	var rng entity.SequenceRange
	for i, e := range entries {
		if !e.Kind.IsValid() {
			return entity.SequenceRange{}, fmt.Errorf("%w: tipo de asiento %q", domain.ErrInvalidInput, e.Kind)
		}
		e.SequenceNo = r.store.nextSeq()
		if i == 0 {
			rng.From = e.SequenceNo
		}
		rng.To = e.SequenceNo
		c := *e
		r.tx.ledger = append(r.tx.ledger, &c)
	}
	return rng, nil
}

func (r *LedgerRepository) list(match func(e *entity.StockLedgerEntry) bool) []*entity.StockLedgerEntry {
	out := r.store.committedLedger(match)
	if r.tx != nil {
		for _, e := range r.tx.ledger {
			if match(e) {
				c := *e
				out = append(out, &c)
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SequenceNo < out[j].SequenceNo })
	return out
}

// ListByPosition asientos de una posición en orden de secuencia.
func (r *LedgerRepository) ListByPosition(_ context.Context, storeID, productID string, uptoSeq int64) ([]*entity.StockLedgerEntry, error) {
	return r.list(func(e *entity.StockLedgerEntry) bool {
		return e.StoreID == storeID && e.ProductID == productID && (uptoSeq <= 0 || e.SequenceNo <= uptoSeq)
	}), nil
}

// ListByProduct asientos de un producto en orden de fecha y secuencia.
func (r *LedgerRepository) ListByProduct(_ context.Context, f entity.KardexFilter) ([]*entity.StockLedgerEntry, error) {
	out := r.list(func(e *entity.StockLedgerEntry) bool {
		if e.ProductID != f.ProductID {
			return false
		}
		if f.StoreID != "" && e.StoreID != f.StoreID {
			return false
		}
		if f.From != nil && e.Timestamp.Before(*f.From) {
			return false
		}
		if f.To != nil && e.Timestamp.After(*f.To) {
			return false
		}
		return true
	})
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.Before(out[j].Timestamp)
		}
		return out[i].SequenceNo < out[j].SequenceNo
	})
	return out, nil
}

// BalanceBefore saldo del producto antes de la fecha.
func (r *LedgerRepository) BalanceBefore(_ context.Context, productID, storeID string, before time.Time) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, e := range r.list(func(e *entity.StockLedgerEntry) bool {
		return e.ProductID == productID && (storeID == "" || e.StoreID == storeID) && e.Timestamp.Before(before)
	}) {
		sum = sum.Add(e.QuantityDelta)
	}
	return sum, nil
}

// ListByDocument asientos de un documento.
func (r *LedgerRepository) ListByDocument(_ context.Context, documentID string) ([]*entity.StockLedgerEntry, error) {
	return r.list(func(e *entity.StockLedgerEntry) bool { return e.DocumentID == documentID }), nil
}

// PositionRepository proyección en memoria.
type PositionRepository struct {
	store *Store
	tx    *memTx
}

// Get devuelve la posición vista por la unidad (propias escrituras primero).
func (r *PositionRepository) Get(_ context.Context, storeID, productID string) (*entity.StockPosition, error) {
	k := entity.PositionKey{StoreID: storeID, ProductID: productID}
	if r.tx != nil {
		if p, ok := r.tx.positions[k]; ok {
			return p.Clone(), nil
		}
	}
	return r.store.committedPosition(k), nil
}

// Save registra la posición si la versión vista sigue siendo expectedSeq.
func (r *PositionRepository) Save(ctx context.Context, p *entity.StockPosition, expectedSeq int64) error {
	if r.tx == nil {
		return autocommit(r.store, func(tx *memTx) error {
			return (&PositionRepository{store: r.store, tx: tx}).Save(ctx, p, expectedSeq)
		})
	}
	k := p.Key()
	seen, err := r.Get(ctx, k.StoreID, k.ProductID)
	if err != nil {
		return err
	}
	if seen.LastAppliedSequenceNo != expectedSeq {
		return fmt.Errorf("%w: posición %s/%s", domain.ErrConcurrentModification, k.StoreID, k.ProductID)
	}
	if p.Available.IsNegative() || p.InTransit.IsNegative() {
		return fmt.Errorf("%w: posición %s/%s", domain.ErrInsufficientStock, k.StoreID, k.ProductID)
	}
	if _, ok := r.tx.positionBase[k]; !ok {
		r.tx.positionBase[k] = expectedSeq
	}
	r.tx.positions[k] = p.Clone()
	return nil
}

func (r *PositionRepository) all() []*entity.StockPosition {
	r.store.mu.RLock()
	merged := make(map[entity.PositionKey]*entity.StockPosition, len(r.store.positions))
	for k, p := range r.store.positions {
		merged[k] = p.Clone()
	}
	r.store.mu.RUnlock()
	if r.tx != nil {
		for k, p := range r.tx.positions {
			merged[k] = p.Clone()
		}
	}
	out := make([]*entity.StockPosition, 0, len(merged))
	for _, p := range merged {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StoreID != out[j].StoreID {
			return out[i].StoreID < out[j].StoreID
		}
		return out[i].ProductID < out[j].ProductID
	})
	return out
}

// ListByStore posiciones de una tienda ordenadas por producto.
func (r *PositionRepository) ListByStore(_ context.Context, storeID string, limit, offset int) ([]*entity.StockPosition, error) {
	var out []*entity.StockPosition
	for _, p := range r.all() {
		if p.StoreID == storeID {
			out = append(out, p)
		}
	}
	return paginate(out, limit, offset), nil
}

// ListByProduct posiciones de un producto en todas las tiendas.
func (r *PositionRepository) ListByProduct(_ context.Context, productID string) ([]*entity.StockPosition, error) {
	var out []*entity.StockPosition
	for _, p := range r.all() {
		if p.ProductID == productID {
			out = append(out, p)
		}
	}
	return out, nil
}

// MovementRepository documentos en memoria.
type MovementRepository struct {
	store *Store
	tx    *memTx
}

// Create registra un documento nuevo.
func (r *MovementRepository) Create(ctx context.Context, m *entity.Movement) error {
	if r.tx == nil {
		return autocommit(r.store, func(tx *memTx) error {
			return (&MovementRepository{store: r.store, tx: tx}).Create(ctx, m)
		})
	}
	if existing, _ := r.GetByID(ctx, m.ID); existing != nil {
		return fmt.Errorf("%w: documento %s ya existe", domain.ErrConflict, m.ID)
	}
	r.tx.created[m.ID] = true
	r.tx.movements[m.ID] = m.Clone()
	return nil
}

// GetByID devuelve nil, nil si no existe.
func (r *MovementRepository) GetByID(_ context.Context, id string) (*entity.Movement, error) {
	if r.tx != nil {
		if m, ok := r.tx.movements[id]; ok {
			return m.Clone(), nil
		}
	}
	return r.store.committedMovement(id), nil
}

// Update reemplaza el documento si la versión vista es expectedVersion.
func (r *MovementRepository) Update(ctx context.Context, m *entity.Movement, expectedVersion int) error {
	if r.tx == nil {
		return autocommit(r.store, func(tx *memTx) error {
			return (&MovementRepository{store: r.store, tx: tx}).Update(ctx, m, expectedVersion)
		})
	}
	cur, err := r.GetByID(ctx, m.ID)
	if err != nil {
		return err
	}
	if cur == nil {
		return domain.ErrNotFound
	}
	if cur.Version != expectedVersion {
		return fmt.Errorf("%w: documento %s", domain.ErrConcurrentModification, m.ID)
	}
	if _, ok := r.tx.movementBase[m.ID]; !ok && !r.tx.created[m.ID] {
		r.tx.movementBase[m.ID] = expectedVersion
	}
	r.tx.movements[m.ID] = m.Clone()
	return nil
}

// List filtra documentos por empresa, tipo, estado y tienda (más recientes primero).
func (r *MovementRepository) List(_ context.Context, f entity.MovementFilter) ([]*entity.Movement, error) {
	r.store.mu.RLock()
	var out []*entity.Movement
	for _, m := range r.store.movements {
		if m.CompanyID != f.CompanyID {
			continue
		}
		if f.Type != "" && m.Type != f.Type {
			continue
		}
		if f.State != "" && m.State != f.State {
			continue
		}
		if f.StoreID != "" && m.StoreID != f.StoreID && m.OriginStoreID != f.StoreID && m.DestinationStoreID != f.StoreID {
			continue
		}
		out = append(out, m.Clone())
	}
	r.store.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return paginate(out, f.Limit, f.Offset), nil
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
