// BCOS - Healthcare Practice Analytics and Benchmarking
// Copyright 2026 insano70
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/insano70/bcos-sub005

/*
Package api implements the HTTP surface of the analytics backend.

Routing is chi with route groups: public health endpoints, a bearer-token
authenticated /api/v1 group for tenant-facing reads (charts, report cards),
and an admin subgroup for measure management and batch run triggers.

Every handler follows the same shape: decode, call the domain service, map
the error to a stable code, and respond with the JSON envelope. Tenant
identity comes exclusively from the verified JWT; handlers never read
tenant identifiers from the request body.
*/
package api
