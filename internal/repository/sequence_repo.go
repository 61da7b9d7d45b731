package repository

import (
	"context"
	"fmt"
	"time"

	"finance-service/internal/domain"
	"finance-service/pkg/sequence"
)

// SequenceRepository issues reference numbers. Next is a single atomic
// read-modify-write on the counter row: the row lock taken here holds until
// the surrounding unit of work commits, so two concurrent issuances can never
// hand out the same number.
type SequenceRepository interface {
	Next(ctx context.Context, scope domain.SequenceScope) (string, error)
	// Seed creates the counter for a scope if it does not exist yet.
	Seed(ctx context.Context, scope domain.SequenceScope, initial string) error
	Get(ctx context.Context, scope domain.SequenceScope) (*domain.SequenceCounter, error)
}

type sequenceRepo struct {
	q Querier
}

func (r *sequenceRepo) Next(ctx context.Context, scope domain.SequenceScope) (string, error) {
	var last string
	err := r.q.QueryRow(ctx,
		`SELECT last_number FROM sequence_counters WHERE scope = $1 FOR UPDATE`, scope,
	).Scan(&last)
	if err != nil {
		return "", mapNoRows(err, "failed to load sequence counter")
	}

	next, err := sequence.Next(last)
	if err != nil {
		return "", err
	}

	_, err = r.q.Exec(ctx,
		`UPDATE sequence_counters SET last_number = $2, updated_at = $3 WHERE scope = $1`,
		scope, next, time.Now(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to advance sequence counter: %w", err)
	}
	return next, nil
}

func (r *sequenceRepo) Seed(ctx context.Context, scope domain.SequenceScope, initial string) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO sequence_counters (scope, last_number, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (scope) DO NOTHING`,
		scope, initial, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to seed sequence counter: %w", err)
	}
	return nil
}

func (r *sequenceRepo) Get(ctx context.Context, scope domain.SequenceScope) (*domain.SequenceCounter, error) {
	var c domain.SequenceCounter
	err := r.q.QueryRow(ctx,
		`SELECT scope, last_number, updated_at FROM sequence_counters WHERE scope = $1`, scope,
	).Scan(&c.Scope, &c.LastNumber, &c.UpdatedAt)
	if err != nil {
		return nil, mapNoRows(err, "failed to get sequence counter")
	}
	return &c, nil
}
