// BCOS - Healthcare Practice Analytics and Benchmarking
// Copyright 2026 insano70
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/insano70/bcos-sub005

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/insano70/bcos-sub005/internal/models"
)

// UpsertSizeBuckets replaces cohort assignments in one transaction. The
// sizing run recomputes every practice, so stale assignments for practices
// that dropped below the charge floor are removed first.
func (db *DB) UpsertSizeBuckets(ctx context.Context, assignments []models.SizeBucketAssignment) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin size bucket upsert: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM practice_size_buckets`); err != nil {
		return fmt.Errorf("clear size buckets: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO practice_size_buckets
			(practice_id, organization_id, bucket, monthly_charges_avg, percentile, calculated_at)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare size bucket insert: %w", err)
	}
	defer stmt.Close()

	for _, a := range assignments {
		var orgID interface{}
		if a.OrganizationID != nil {
			orgID = a.OrganizationID.String()
		}
		if _, err := stmt.ExecContext(ctx,
			a.PracticeID, orgID, string(a.Bucket),
			a.MonthlyChargesAvg, a.Percentile, a.CalculatedAt); err != nil {
			return fmt.Errorf("insert size bucket for practice %d: %w", a.PracticeID, err)
		}
	}
	return tx.Commit()
}

// GetSizeBuckets loads all cohort assignments keyed by practice.
func (db *DB) GetSizeBuckets(ctx context.Context) (map[int]models.SizeBucketAssignment, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT practice_id, organization_id, bucket, monthly_charges_avg, percentile, calculated_at
		FROM practice_size_buckets`)
	if err != nil {
		return nil, fmt.Errorf("query size buckets: %w", err)
	}
	defer rows.Close()

	assignments := make(map[int]models.SizeBucketAssignment)
	for rows.Next() {
		a, err := scanSizeBucket(rows)
		if err != nil {
			return nil, err
		}
		assignments[a.PracticeID] = *a
	}
	return assignments, rows.Err()
}

// GetSizeBucket loads one practice's assignment; (nil, nil) when the
// practice has no cohort (below the charge floor or never sized).
func (db *DB) GetSizeBucket(ctx context.Context, practiceID int) (*models.SizeBucketAssignment, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	a, err := scanSizeBucket(db.conn.QueryRowContext(ctx, `
		SELECT practice_id, organization_id, bucket, monthly_charges_avg, percentile, calculated_at
		FROM practice_size_buckets WHERE practice_id = ?`, practiceID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return a, err
}

func scanSizeBucket(row rowScanner) (*models.SizeBucketAssignment, error) {
	var a models.SizeBucketAssignment
	var orgStr sql.NullString
	var bucket string
	if err := row.Scan(&a.PracticeID, &orgStr, &bucket,
		&a.MonthlyChargesAvg, &a.Percentile, &a.CalculatedAt); err != nil {
		return nil, fmt.Errorf("scan size bucket: %w", err)
	}
	a.Bucket = models.SizeBucket(bucket)
	if orgStr.Valid && orgStr.String != "" {
		id, err := parseUUID(orgStr.String)
		if err != nil {
			return nil, fmt.Errorf("size bucket organization id %q: %w", orgStr.String, err)
		}
		a.OrganizationID = &id
	}
	return &a, nil
}

// AcquireLease takes the named advisory lease for the given holder.
// An unexpired lease held elsewhere returns ErrLeaseHeld; expired leases
// are stolen. Batch runs (sizing, trends, report cards) use this to stay
// single-flight across replicas sharing a warehouse file.
func (db *DB) AcquireLease(ctx context.Context, name, holder string, ttl time.Duration) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	now := time.Now().UTC()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin lease acquire: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var currentHolder string
	var expiresAt time.Time
	err = tx.QueryRowContext(ctx,
		`SELECT holder, expires_at FROM batch_leases WHERE lease_name = ?`, name,
	).Scan(&currentHolder, &expiresAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO batch_leases (lease_name, holder, acquired_at, expires_at)
			VALUES (?, ?, ?, ?)`, name, holder, now, now.Add(ttl)); err != nil {
			return fmt.Errorf("insert lease %s: %w", name, err)
		}
	case err != nil:
		return fmt.Errorf("query lease %s: %w", name, err)
	case currentHolder != holder && expiresAt.After(now):
		return ErrLeaseHeld
	default:
		if _, err := tx.ExecContext(ctx, `
			UPDATE batch_leases SET holder = ?, acquired_at = ?, expires_at = ?
			WHERE lease_name = ?`, holder, now, now.Add(ttl), name); err != nil {
			return fmt.Errorf("update lease %s: %w", name, err)
		}
	}
	return tx.Commit()
}

// ReleaseLease releases the lease if this holder still owns it. Releasing a
// lease stolen after expiry is a no-op.
func (db *DB) ReleaseLease(ctx context.Context, name, holder string) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if _, err := db.conn.ExecContext(ctx,
		`DELETE FROM batch_leases WHERE lease_name = ? AND holder = ?`, name, holder); err != nil {
		return fmt.Errorf("release lease %s: %w", name, err)
	}
	return nil
}
