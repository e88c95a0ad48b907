// Trackpool - Personalized Track Pool Builder
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackpool

// Package logging provides centralized zerolog-based structured logging for Trackpool.
//
// # Overview
//
// The package provides:
//   - A global zerolog logger configured once from main via Init
//   - JSON output for production and console output for development
//   - Context helpers that attach correlation, request and user IDs
//   - A slog adapter so sutureslog writes through zerolog
//
// # Quick Start
//
//	logging.Init(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	})
//
//	logging.Info().Msg("Server starting")
//	logging.Ctx(ctx).Warn().Err(err).Msg("Lookup failed")
//
// Components receive a zerolog.Logger and scope it:
//
//	logger := logging.Component("expand")
//
// Always terminate log chains with .Msg() or .Send(); an unterminated event is never written.
package logging
