// Trackpool - Personalized Track Pool Builder
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackpool

// Package config loads Trackpool configuration with koanf.
//
// Sources are layered, later ones win:
//
//  1. Struct defaults from defaultConfig
//  2. A YAML file from CONFIG_PATH or the first of DefaultConfigPaths that exists
//  3. Environment variables listed in envMappings
//
// Example config.yaml:
//
//	server:
//	  port: 8080
//	lastfm:
//	  api_key: your-key
//	  excluded_tags: ["seen live", "fm"]
//	expand:
//	  cap_per_call: 50
//	batch:
//	  page_size: 10
//	store:
//	  backend: badger
//	  path: /data/trackpool
//
// Comma-separated env values (CORS_ORIGINS, LASTFM_EXCLUDED_TAGS) are split into slices.
package config
