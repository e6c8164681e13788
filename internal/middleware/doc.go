// BCOS - Healthcare Practice Analytics and Benchmarking
// Copyright 2026 insano70
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/insano70/bcos-sub005

/*
Package middleware provides HTTP middleware for the analytics API.

The package implements infrastructure middleware in chi's
func(http.Handler) http.Handler shape so it composes with chi's router
groups alongside the CORS and rate-limit middleware from go-chi:

  - RequestID: UUID request tracking wired into the logging context
  - PrometheusMetrics: request/response instrumentation
  - Compression: gzip for clients that accept it

Authentication middleware lives in the api package because it needs the
JWT configuration and the tenant identity type.
*/
package middleware
