package inventory

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

// PivotResult posiciones de un producto por tienda.
type PivotResult struct {
	ProductID      string
	Positions      []*entity.StockPosition
	TotalAvailable decimal.Decimal
	TotalInTransit decimal.Decimal
}

// KardexResult kardex de un producto con saldo inicial y final.
type KardexResult struct {
	ProductID string
	StoreID   string
	Opening   decimal.Decimal
	Entries   []entity.KardexEntry
	Closing   decimal.Decimal
}

// StockProjector rutas de lectura sobre la proyección (inventario, pivot) y kardex.
// Toda lectura queda acotada a la empresa del llamador.
type StockProjector struct {
	positions repository.PositionRepository
	ledger    repository.LedgerRepository
	owner     ownership
}

// NewStockProjector construye el proyector sobre repositorios de lectura y los datos maestros.
func NewStockProjector(
	positions repository.PositionRepository,
	ledger repository.LedgerRepository,
	stores repository.StoreRepository,
	products repository.ProductRepository,
) *StockProjector {
	return &StockProjector{positions: positions, ledger: ledger, owner: ownership{stores: stores, products: products}}
}

// Position devuelve la posición materializada.
func (p *StockProjector) Position(ctx context.Context, companyID, storeID, productID string) (*entity.StockPosition, error) {
	if storeID == "" || productID == "" {
		return nil, domain.ErrInvalidInput
	}
	if err := p.owner.check(ctx, companyID, storeID, productID); err != nil {
		return nil, err
	}
	return p.positions.Get(ctx, storeID, productID)
}

// ListByStore listado de inventario de una tienda.
func (p *StockProjector) ListByStore(ctx context.Context, companyID, storeID string, limit, offset int) ([]*entity.StockPosition, error) {
	if storeID == "" {
		return nil, domain.ErrInvalidInput
	}
	if err := p.owner.check(ctx, companyID, storeID, ""); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return p.positions.ListByStore(ctx, storeID, limit, offset)
}

// Pivot stock de un producto en cada tienda, con totales.
func (p *StockProjector) Pivot(ctx context.Context, companyID, productID string) (*PivotResult, error) {
	if productID == "" {
		return nil, domain.ErrInvalidInput
	}
	if err := p.owner.check(ctx, companyID, "", productID); err != nil {
		return nil, err
	}
	list, err := p.positions.ListByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	res := &PivotResult{ProductID: productID, Positions: list, TotalAvailable: decimal.Zero, TotalInTransit: decimal.Zero}
	for _, pos := range list {
		res.TotalAvailable = res.TotalAvailable.Add(pos.Available)
		res.TotalInTransit = res.TotalInTransit.Add(pos.InTransit)
	}
	return res, nil
}

// Kardex recorre los asientos del producto en orden de fecha (desempate por secuencia)
// y calcula el saldo corrido. Con From, el saldo inicial es la suma previa a esa fecha.
func (p *StockProjector) Kardex(ctx context.Context, companyID string, filter entity.KardexFilter) (*KardexResult, error) {
	if filter.ProductID == "" {
		return nil, domain.ErrInvalidInput
	}
	if err := p.owner.check(ctx, companyID, filter.StoreID, filter.ProductID); err != nil {
		return nil, err
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, domain.ErrInvalidInput
	}
	opening := decimal.Zero
	if filter.From != nil {
		var err error
		opening, err = p.ledger.BalanceBefore(ctx, filter.ProductID, filter.StoreID, *filter.From)
		if err != nil {
			return nil, err
		}
	}
	entries, err := p.ledger.ListByProduct(ctx, filter)
	if err != nil {
		return nil, err
	}
	rows := inventory.BuildKardex(opening, entries)
	closing := opening
	if len(rows) > 0 {
		closing = rows[len(rows)-1].Stock
	}
	return &KardexResult{
		ProductID: filter.ProductID,
		StoreID:   filter.StoreID,
		Opening:   opening,
		Entries:   rows,
		Closing:   closing,
	}, nil
}

// project aplica los asientos ya numerados a cada posición leída y la guarda con
// comprobación de versión (LastAppliedSequenceNo leído).
func project(ctx context.Context, repos TxRepos, entries []*entity.StockLedgerEntry, snapshot map[entity.PositionKey]*entity.StockPosition) error {
	groups, order := inventory.GroupByPosition(entries)
	for _, k := range order {
		base, ok := snapshot[k]
		if !ok {
			base = entity.NewStockPosition(k)
		}
		next, err := inventory.Apply(base, groups[k])
		if err != nil {
			return err
		}
		if next.UpdatedAt.IsZero() {
			next.UpdatedAt = time.Now().UTC()
		}
		if err := repos.Positions.Save(ctx, next, base.LastAppliedSequenceNo); err != nil {
			return err
		}
	}
	return nil
}
