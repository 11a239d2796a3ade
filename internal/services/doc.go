// Package services provides the centralized service registry for insightd.
//
// Registry pattern for accessing the core services (pipeline, cache,
// invalidation, telemetry). Use NewFromConfig() to build the full graph
// from configuration, or NewRegistry() to assemble one from instances, then
// accessor methods to retrieve individual services.
package services
