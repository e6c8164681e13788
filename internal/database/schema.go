// BCOS - Healthcare Practice Analytics and Benchmarking
// Copyright 2026 insano70
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/insano70/bcos-sub005

package database

import (
	"context"
	"fmt"
)

// schemaStatements create the analytics core's own tables. Raw statistics
// tables referenced by data-source descriptors are created by the external
// ingestion pipeline; only practice_statistics (the canonical measure
// store), configuration, and result tables are owned here.
var schemaStatements = []string{
	`CREATE SEQUENCE IF NOT EXISTS seq_data_sources START 1`,
	`CREATE TABLE IF NOT EXISTS data_sources (
		id INTEGER PRIMARY KEY DEFAULT nextval('seq_data_sources'),
		name VARCHAR NOT NULL,
		schema_name VARCHAR NOT NULL DEFAULT 'main',
		table_name VARCHAR NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT true
	)`,

	`CREATE TABLE IF NOT EXISTS data_source_columns (
		data_source_id INTEGER NOT NULL,
		column_name VARCHAR NOT NULL,
		display_name VARCHAR,
		data_type VARCHAR,
		format_kind VARCHAR,
		icon_name VARCHAR,
		is_measure BOOLEAN NOT NULL DEFAULT false,
		is_date BOOLEAN NOT NULL DEFAULT false,
		is_time_period BOOLEAN NOT NULL DEFAULT false,
		is_practice BOOLEAN NOT NULL DEFAULT false,
		is_provider BOOLEAN NOT NULL DEFAULT false,
		is_filterable BOOLEAN NOT NULL DEFAULT false,
		is_displayable BOOLEAN NOT NULL DEFAULT true,
		display_order INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (data_source_id, column_name)
	)`,

	`CREATE TABLE IF NOT EXISTS organizations (
		id VARCHAR PRIMARY KEY,
		name VARCHAR NOT NULL,
		parent_id VARCHAR,
		practice_ids VARCHAR NOT NULL DEFAULT '[]',
		is_active BOOLEAN NOT NULL DEFAULT true
	)`,

	`CREATE SEQUENCE IF NOT EXISTS seq_measures START 1`,
	`CREATE TABLE IF NOT EXISTS measures (
		id INTEGER PRIMARY KEY DEFAULT nextval('seq_measures'),
		name VARCHAR NOT NULL UNIQUE,
		display_name VARCHAR,
		weight INTEGER NOT NULL DEFAULT 5,
		higher_is_better BOOLEAN NOT NULL DEFAULT true,
		format_kind VARCHAR NOT NULL DEFAULT 'number',
		data_source_id INTEGER NOT NULL,
		value_column VARCHAR,
		filter_criteria VARCHAR,
		is_active BOOLEAN NOT NULL DEFAULT true
	)`,

	`CREATE TABLE IF NOT EXISTS practice_statistics (
		practice_id INTEGER NOT NULL,
		organization_id VARCHAR,
		measure_name VARCHAR NOT NULL,
		period_date DATE NOT NULL,
		value DOUBLE NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_statistics_period
		ON practice_statistics (period_date, measure_name)`,
	`CREATE INDEX IF NOT EXISTS idx_statistics_practice
		ON practice_statistics (practice_id, measure_name)`,

	`CREATE TABLE IF NOT EXISTS practice_size_buckets (
		practice_id INTEGER PRIMARY KEY,
		organization_id VARCHAR,
		bucket VARCHAR NOT NULL,
		monthly_charges_avg DOUBLE NOT NULL,
		percentile DOUBLE NOT NULL,
		calculated_at TIMESTAMP NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS practice_trends (
		practice_id INTEGER NOT NULL,
		organization_id VARCHAR,
		measure_name VARCHAR NOT NULL,
		period VARCHAR NOT NULL,
		direction VARCHAR NOT NULL,
		percentage_change DOUBLE NOT NULL,
		calculated_at TIMESTAMP NOT NULL,
		PRIMARY KEY (practice_id, measure_name, period)
	)`,

	`CREATE SEQUENCE IF NOT EXISTS seq_report_cards START 1`,
	`CREATE TABLE IF NOT EXISTS report_card_results (
		result_id BIGINT PRIMARY KEY DEFAULT nextval('seq_report_cards'),
		practice_id INTEGER NOT NULL,
		organization_id VARCHAR,
		report_card_month DATE NOT NULL,
		generated_at TIMESTAMP NOT NULL,
		overall_score DOUBLE NOT NULL,
		size_bucket VARCHAR NOT NULL,
		percentile_rank DOUBLE NOT NULL,
		insights VARCHAR NOT NULL DEFAULT '[]',
		measure_scores VARCHAR NOT NULL DEFAULT '{}',
		UNIQUE (practice_id, report_card_month)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_report_cards_org
		ON report_card_results (organization_id, report_card_month)`,

	`CREATE SEQUENCE IF NOT EXISTS seq_chart_definitions START 1`,
	`CREATE TABLE IF NOT EXISTS chart_definitions (
		id INTEGER PRIMARY KEY DEFAULT nextval('seq_chart_definitions'),
		name VARCHAR NOT NULL,
		chart_type VARCHAR NOT NULL,
		data_source_id INTEGER NOT NULL,
		config VARCHAR NOT NULL DEFAULT '{}',
		is_active BOOLEAN NOT NULL DEFAULT true
	)`,

	`CREATE TABLE IF NOT EXISTS providers (
		provider_id VARCHAR PRIMARY KEY,
		name VARCHAR NOT NULL,
		color VARCHAR
	)`,

	// Advisory leases serialize batch runs (one sizing run at a time).
	`CREATE TABLE IF NOT EXISTS batch_leases (
		lease_name VARCHAR PRIMARY KEY,
		holder VARCHAR NOT NULL,
		acquired_at TIMESTAMP NOT NULL,
		expires_at TIMESTAMP NOT NULL
	)`,
}

// initializeSchema creates all owned tables and indexes. Statements are
// idempotent so startup after a crash is safe.
func (db *DB) initializeSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement failed: %w", err)
		}
	}
	return nil
}
