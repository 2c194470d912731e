// Package domain contains the core entities of the risk pipeline:
// documents and their revisions, jurisdiction tags, risk assessments,
// index entries, and alert events. Entities are immutable records;
// every state transition produces a new record rather than mutating
// one in place.
package domain
