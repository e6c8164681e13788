// BCOS - Healthcare Practice Analytics and Benchmarking
// Copyright 2026 insano70
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/insano70/bcos-sub005

// Package models defines the shared domain types for the analytics backend:
// tenant identities and access scopes, warehouse data-source descriptors,
// measure configurations, size-bucket assignments, trend rows, report-card
// results, and chart definitions.
//
// Types here are plain data carriers. Behavior lives in the owning packages
// (sizing, trends, reportcard, charts); the only logic kept in models is
// small derivations used across package boundaries, such as the letter-grade
// ladder and report-card month arithmetic.
package models
