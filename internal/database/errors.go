// BCOS - Healthcare Practice Analytics and Benchmarking
// Copyright 2026 insano70
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/insano70/bcos-sub005

package database

import "errors"

// Sentinel errors surfaced by the data access layer. The API layer maps
// these onto stable error codes; callers compare with errors.Is.
var (
	// ErrReportCardNotFound is returned when no report card exists for the
	// requested organization or (practice, month).
	ErrReportCardNotFound = errors.New("report card not found")

	// ErrDataSourceNotFound is returned for an unknown or inactive
	// data-source id.
	ErrDataSourceNotFound = errors.New("data source not found")

	// ErrChartDefinitionNotFound is returned for an unknown chart
	// definition id.
	ErrChartDefinitionNotFound = errors.New("chart definition not found")

	// ErrMeasureNotFound is returned for an unknown measure.
	ErrMeasureNotFound = errors.New("measure not found")

	// ErrMeasureDuplicate is returned when creating a measure whose name
	// already exists.
	ErrMeasureDuplicate = errors.New("measure name already exists")

	// ErrOrganizationNotFound is returned for an unknown organization.
	ErrOrganizationNotFound = errors.New("organization not found")

	// ErrLeaseHeld is returned when a batch lease is already held by
	// another runner.
	ErrLeaseHeld = errors.New("batch lease already held")
)
