// BCOS - Healthcare Practice Analytics and Benchmarking
// Copyright 2026 insano70
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/insano70/bcos-sub005

/*
Package metrics provides Prometheus metrics collection and export.

The package instruments the analytics backend end to end:

  - HTTP request latency and throughput
  - DuckDB query performance
  - Chart orchestration outcomes, including fail-closed substitutions
  - Batch run durations (sizing, trend, report-card generation)
  - Cache hit/miss rates
  - Circuit breaker state transitions

Metrics are exposed at the /metrics endpoint in Prometheus text format.
All collectors are registered through promauto at package load; importing
the package is sufficient to wire them into the default registry.
*/
package metrics
