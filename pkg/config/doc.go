// Package config loads, validates and hot-reloads relay configuration.
//
// # Configuration Loading
//
// Values are applied in the following order (later overrides earlier):
//
//  1. Default values (defined in defaults.go)
//  2. Values from the YAML file, if one is given
//  3. Variables from a .env file in the working directory, if present
//  4. Environment variable overrides
//  5. Validation (fails fast if invalid)
//
// The upstream credentials keep their historical names:
//
//   - AI_API_URL overrides upstream.url
//   - AI_API_KEY overrides upstream.api_key
//   - AI_MODEL overrides upstream.model
//
// Everything else follows RELAY_SECTION_FIELD, for example
// RELAY_LIMITER_LIMIT or RELAY_SERVER_TRUST_FORWARDED_HEADERS.
//
// A missing upstream URL or key is not a load error. The relay starts and
// answers chat requests with a configuration error until they are set;
// Config.Warnings reports the gap at startup.
//
// # Example Configuration
//
//	server:
//	  listen_address: "0.0.0.0:8080"
//	  trust_forwarded_headers: true
//
//	upstream:
//	  url: "https://llm.internal/v1/chat/completions"
//	  model: "support-small"
//	  timeout: 30s
//
//	limiter:
//	  limit: 30
//	  window: 60s
//	  backend: redis
//	  redis:
//	    addr: "redis:6379"
//
//	logging:
//	  level: info
//	  format: json
//
// # Reloading
//
// Watcher watches the file and calls back with the new Config after each
// successful reload. Limiter policy and log level take effect immediately;
// listener, backend and upstream settings need a restart.
package config
