// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports): stores, indexes, external model
// collaborators and notification transports.
package driven
