package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/inventario-ledger/internal/domain"
)

// Códigos SQLSTATE que el motor de inventario distingue.
const (
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeQueryCanceled        = "57014"
	codeCheckViolation       = "23514"
	codeUniqueViolation      = "23505"
)

// classifyError traduce errores del driver a la taxonomía del dominio conservando el original.
func classifyError(op string, err error) error {
	if err == nil {
		return nil
	}
	if isClassified(err) {
		return err
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeSerializationFailure, codeDeadlockDetected:
			return fmt.Errorf("%s: %w: %w", op, domain.ErrConcurrentModification, err)
		case codeQueryCanceled:
			return fmt.Errorf("%s: %w: %w", op, domain.ErrStorageTimeout, err)
		case codeCheckViolation:
			return fmt.Errorf("%s: %w: %w", op, domain.ErrInsufficientStock, err)
		case codeUniqueViolation:
			return fmt.Errorf("%s: %w: %w", op, domain.ErrConflict, err)
		}
	}
	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) {
		return fmt.Errorf("%s: %w: %w", op, domain.ErrStorageTimeout, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isClassified(err error) bool {
	if domain.IsRetryable(err) || domain.IsValidation(err) {
		return true
	}
	for _, target := range []error{
		domain.ErrInsufficientStock, domain.ErrConflict, domain.ErrNotFound,
		domain.ErrInvalidStateTransition, domain.ErrForbidden, domain.ErrUnauthorized,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
