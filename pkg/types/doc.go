// Package types defines the Backend interface, configuration, entity states,
// and standard errors for the sdctrack storage core.
// See docs/ARCHITECTURE.md § Storage Core.
package types
