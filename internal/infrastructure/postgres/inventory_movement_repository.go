package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

const movementColumns = `id, company_id, code, type, state, store_id, origin_store_id, destination_store_id,
	total_amount, annotations, created_by, created_at, updated_at, posted_at, sent_at, received_at,
	cancelled_at, cancelled_by, version`

// MovementRepo documentos de inventario sobre PostgreSQL (usable con pool o tx).
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

// Create persiste cabecera y líneas.
func (r *MovementRepo) Create(ctx context.Context, m *entity.Movement) error {
	query := `
		INSERT INTO movements (` + movementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`
	_, err := r.q.Exec(ctx, query,
		m.ID, m.CompanyID, nullString(m.Code), string(m.Type), string(m.State),
		nullString(m.StoreID), nullString(m.OriginStoreID), nullString(m.DestinationStoreID),
		m.TotalAmount, m.Annotations, m.CreatedBy, m.CreatedAt, m.UpdatedAt,
		m.PostedAt, m.SentAt, m.ReceivedAt, m.CancelledAt, nullString(m.CancelledBy), m.Version,
	)
	if err != nil {
		return classifyError("create movement", err)
	}
	return r.insertLines(ctx, m)
}

// GetByID obtiene el documento con sus líneas. nil, nil si no existe.
func (r *MovementRepo) GetByID(ctx context.Context, id string) (*entity.Movement, error) {
	query := `SELECT ` + movementColumns + ` FROM movements WHERE id = $1`
	m, err := scanMovement(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, classifyError("get movement", err)
	}
	lines, err := r.linesFor(ctx, []string{m.ID})
	if err != nil {
		return nil, err
	}
	m.Lines = lines[m.ID]
	return m, nil
}

// Update reescribe cabecera y líneas si la versión almacenada es expectedVersion.
func (r *MovementRepo) Update(ctx context.Context, m *entity.Movement, expectedVersion int) error {
	query := `
		UPDATE movements SET
			code = $2, state = $3, store_id = $4, origin_store_id = $5, destination_store_id = $6,
			total_amount = $7, annotations = $8, updated_at = $9, posted_at = $10, sent_at = $11,
			received_at = $12, cancelled_at = $13, cancelled_by = $14, version = $15
		WHERE id = $1 AND version = $16`
	tag, err := r.q.Exec(ctx, query,
		m.ID, nullString(m.Code), string(m.State),
		nullString(m.StoreID), nullString(m.OriginStoreID), nullString(m.DestinationStoreID),
		m.TotalAmount, m.Annotations, m.UpdatedAt, m.PostedAt, m.SentAt, m.ReceivedAt,
		m.CancelledAt, nullString(m.CancelledBy), m.Version, expectedVersion,
	)
	if err != nil {
		return classifyError("update movement", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: documento %s (versión esperada %d)", domain.ErrConcurrentModification, m.ID, expectedVersion)
	}
	if _, err := r.q.Exec(ctx, `DELETE FROM movement_lines WHERE movement_id = $1`, m.ID); err != nil {
		return classifyError("replace movement lines", err)
	}
	return r.insertLines(ctx, m)
}

// List lista documentos de la empresa, más recientes primero.
func (r *MovementRepo) List(ctx context.Context, f entity.MovementFilter) ([]*entity.Movement, error) {
	query := `SELECT ` + movementColumns + ` FROM movements WHERE company_id = $1`
	args := []any{f.CompanyID}
	pos := 2
	if f.Type != "" {
		query += fmt.Sprintf(" AND type = $%d", pos)
		args = append(args, string(f.Type))
		pos++
	}
	if f.State != "" {
		query += fmt.Sprintf(" AND state = $%d", pos)
		args = append(args, string(f.State))
		pos++
	}
	if f.StoreID != "" {
		query += fmt.Sprintf(" AND (store_id = $%d OR origin_store_id = $%d OR destination_store_id = $%d)", pos, pos, pos)
		args = append(args, f.StoreID)
		pos++
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, f.Limit, f.Offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, classifyError("list movements", err)
	}
	var list []*entity.Movement
	var ids []string
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			rows.Close()
			return nil, classifyError("scan movement", err)
		}
		list = append(list, m)
		ids = append(ids, m.ID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, classifyError("list movements", err)
	}
	if len(ids) == 0 {
		return list, nil
	}
	lines, err := r.linesFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, m := range list {
		m.Lines = lines[m.ID]
	}
	return list, nil
}

func (r *MovementRepo) insertLines(ctx context.Context, m *entity.Movement) error {
	if len(m.Lines) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, l := range m.Lines {
		batch.Queue(`INSERT INTO movement_lines (movement_id, line_no, product_id, quantity, unit_value)
			VALUES ($1, $2, $3, $4, $5)`, m.ID, l.LineNo, l.ProductID, l.Quantity, l.UnitValue)
	}
	if err := r.q.SendBatch(ctx, batch).Close(); err != nil {
		return classifyError("insert movement lines", err)
	}
	return nil
}

func (r *MovementRepo) linesFor(ctx context.Context, ids []string) (map[string][]entity.MovementLine, error) {
	rows, err := r.q.Query(ctx, `
		SELECT movement_id, line_no, product_id, quantity, unit_value
		FROM movement_lines WHERE movement_id = ANY($1) ORDER BY movement_id, line_no`, ids)
	if err != nil {
		return nil, classifyError("list movement lines", err)
	}
	defer rows.Close()
	out := make(map[string][]entity.MovementLine, len(ids))
	for rows.Next() {
		var id string
		var l entity.MovementLine
		if err := rows.Scan(&id, &l.LineNo, &l.ProductID, &l.Quantity, &l.UnitValue); err != nil {
			return nil, classifyError("scan movement line", err)
		}
		out[id] = append(out[id], l)
	}
	return out, rows.Err()
}

func scanMovement(row pgx.Row) (*entity.Movement, error) {
	var m entity.Movement
	var code, storeID, originID, destinationID, cancelledBy *string
	var typ, state string
	if err := row.Scan(&m.ID, &m.CompanyID, &code, &typ, &state, &storeID, &originID, &destinationID,
		&m.TotalAmount, &m.Annotations, &m.CreatedBy, &m.CreatedAt, &m.UpdatedAt,
		&m.PostedAt, &m.SentAt, &m.ReceivedAt, &m.CancelledAt, &cancelledBy, &m.Version); err != nil {
		return nil, err
	}
	m.Code = derefString(code)
	m.Type = entity.MovementType(typ)
	m.State = entity.MovementState(state)
	m.StoreID = derefString(storeID)
	m.OriginStoreID = derefString(originID)
	m.DestinationStoreID = derefString(destinationID)
	m.CancelledBy = derefString(cancelledBy)
	return &m, nil
}
