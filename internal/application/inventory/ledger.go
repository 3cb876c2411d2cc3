package inventory

import (
	"context"
	"fmt"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

// PositionAudit resultado de comparar la proyección con el replay del libro.
type PositionAudit struct {
	Projected *entity.StockPosition
	Replayed  *entity.StockPosition
	Diff      inventory.PositionDiff
	Entries   int
}

// StockLedger expone el libro append-only: replay para auditoría/reparación.
// La escritura ocurre solo dentro del coordinador (appendAndProject).
type StockLedger struct {
	ledger    repository.LedgerRepository
	positions repository.PositionRepository
	owner     ownership
	coord     *Coordinator
}

// NewStockLedger construye el servicio del libro sobre repositorios de lectura (pool).
func NewStockLedger(
	ledger repository.LedgerRepository,
	positions repository.PositionRepository,
	stores repository.StoreRepository,
	products repository.ProductRepository,
	coord *Coordinator,
) *StockLedger {
	return &StockLedger{ledger: ledger, positions: positions, owner: ownership{stores: stores, products: products}, coord: coord}
}

func (l *StockLedger) authorize(ctx context.Context, companyID, storeID, productID string) error {
	if storeID == "" || productID == "" {
		return domain.ErrInvalidInput
	}
	return l.owner.check(ctx, companyID, storeID, productID)
}

// Replay recalcula la posición desde génesis hasta uptoSeq (<= 0 = todo el libro).
func (l *StockLedger) Replay(ctx context.Context, companyID, storeID, productID string, uptoSeq int64) (*entity.StockPosition, error) {
	if err := l.authorize(ctx, companyID, storeID, productID); err != nil {
		return nil, err
	}
	entries, err := l.ledger.ListByPosition(ctx, storeID, productID, uptoSeq)
	if err != nil {
		return nil, err
	}
	return inventory.Replay(entity.PositionKey{StoreID: storeID, ProductID: productID}, entries)
}

// Verify compara la proyección materializada con el replay completo.
func (l *StockLedger) Verify(ctx context.Context, companyID, storeID, productID string) (*PositionAudit, error) {
	if err := l.authorize(ctx, companyID, storeID, productID); err != nil {
		return nil, err
	}
	entries, err := l.ledger.ListByPosition(ctx, storeID, productID, 0)
	if err != nil {
		return nil, err
	}
	replayed, err := inventory.Replay(entity.PositionKey{StoreID: storeID, ProductID: productID}, entries)
	if err != nil {
		return nil, err
	}
	projected, err := l.positions.Get(ctx, storeID, productID)
	if err != nil {
		return nil, err
	}
	return &PositionAudit{
		Projected: projected,
		Replayed:  replayed,
		Diff:      inventory.Diff(projected, replayed),
		Entries:   len(entries),
	}, nil
}

// Rebuild reescribe la proyección con el resultado del replay dentro de una unidad atómica.
func (l *StockLedger) Rebuild(ctx context.Context, companyID, storeID, productID string) (*entity.StockPosition, error) {
	if err := l.authorize(ctx, companyID, storeID, productID); err != nil {
		return nil, err
	}
	var rebuilt *entity.StockPosition
	err := l.coord.Execute(ctx, "rebuild", func(ctx context.Context, repos TxRepos) error {
		current, err := repos.Positions.Get(ctx, storeID, productID)
		if err != nil {
			return err
		}
		entries, err := repos.Ledger.ListByPosition(ctx, storeID, productID, 0)
		if err != nil {
			return err
		}
		replayed, err := inventory.Replay(current.Key(), entries)
		if err != nil {
			return err
		}
		if err := repos.Positions.Save(ctx, replayed, current.LastAppliedSequenceNo); err != nil {
			return err
		}
		rebuilt = replayed
		return nil
	})
	return rebuilt, err
}

// loadPositions lee dentro de la transacción la posición de cada clave afectada.
// El LastAppliedSequenceNo leído es la versión esperada al guardar.
func loadPositions(ctx context.Context, repos TxRepos, entries []*entity.StockLedgerEntry) (map[entity.PositionKey]*entity.StockPosition, error) {
	snapshot := make(map[entity.PositionKey]*entity.StockPosition)
	for _, e := range entries {
		k := e.Key()
		if _, ok := snapshot[k]; ok {
			continue
		}
		pos, err := repos.Positions.Get(ctx, k.StoreID, k.ProductID)
		if err != nil {
			return nil, fmt.Errorf("leer posición %s/%s: %w", k.StoreID, k.ProductID, err)
		}
		snapshot[k] = pos
	}
	return snapshot, nil
}

// appendAndProject revalida stock contra lo leído, valora las salidas al costo promedio,
// anexa el lote al libro y avanza la proyección.
// Si alguna posición cambió desde la lectura, Save devuelve ErrConcurrentModification y toda la
// unidad se revierte.
func appendAndProject(ctx context.Context, repos TxRepos, entries []*entity.StockLedgerEntry) (entity.SequenceRange, error) {
	snapshot, err := loadPositions(ctx, repos, entries)
	if err != nil {
		return entity.SequenceRange{}, err
	}
	if err := inventory.ValidateStock(entries, snapshot); err != nil {
		return entity.SequenceRange{}, err
	}
	inventory.ValueOutflows(entries, snapshot)
	rng, err := repos.Ledger.Append(ctx, entries)
	if err != nil {
		return entity.SequenceRange{}, err
	}
	if err := project(ctx, repos, entries, snapshot); err != nil {
		return entity.SequenceRange{}, err
	}
	return rng, nil
}
