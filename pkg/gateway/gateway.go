// Package gateway provides the public API for embedding the edge gateway.
// This is the stable API for external consumers.
package gateway

import (
	"github.com/tjfontaine/edge-content-gateway/internal/core/ports"
	"github.com/tjfontaine/edge-content-gateway/internal/pkg/config"
	"github.com/tjfontaine/edge-content-gateway/internal/runtime"
)

// Gateway is the main entry point for running the edge gateway.
// See internal/runtime.Gateway for full documentation.
type Gateway = runtime.Gateway

// Option is a functional option for configuring a Gateway.
type Option = runtime.Option

// Config is the gateway configuration.
type Config = config.Config

// KeyValueStore is the storage contract shared by the limiter, the content
// cache and the event logs.
type KeyValueStore = ports.KeyValueStore

// ContentGenerator produces page text for an identity in a region.
type ContentGenerator = ports.ContentGenerator

// New creates a new Gateway with the given options.
// Example:
//
//	gw, err := gateway.New(
//	    gateway.WithConfigFile("config.yaml"),
//	    gateway.WithRedisStore("redis://localhost:6379/0"),
//	)
var New = runtime.New

// LoadConfig reads EDGE_CONFIG (or config.yaml) and the environment.
var LoadConfig = config.Load

// Configuration options
var (
	// Config sources
	WithConfig     = runtime.WithConfig
	WithConfigFile = runtime.WithConfigFile

	// Storage
	WithStore       = runtime.WithStore
	WithMemoryStore = runtime.WithMemoryStore
	WithRedisStore  = runtime.WithRedisStore
	WithSQLiteStore = runtime.WithSQLiteStore

	// Content
	WithGenerator = runtime.WithGenerator

	// Advanced options
	WithLogger          = runtime.WithLogger
	WithMetricsRegistry = runtime.WithMetricsRegistry
)
