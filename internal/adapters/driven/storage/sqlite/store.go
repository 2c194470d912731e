package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/veridian-labs/reguard/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/veridian-labs/reguard/internal/core/domain"
	"github.com/veridian-labs/reguard/internal/core/ports/driven"
)

const defaultListLimit = 50

// Store is a unified SQLite-based storage that provides access to
// the document, assessment and alert store interfaces through wrapper
// types sharing one connection.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.reguard/data/reguard.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".reguard", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "reguard.db")

	// WAL mode for better concurrency under the pipeline's workers.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// DocumentStore returns a DocumentStore interface backed by this store.
func (s *Store) DocumentStore() driven.DocumentStore {
	return &documentStore{store: s}
}

// AssessmentStore returns an AssessmentStore interface backed by this store.
func (s *Store) AssessmentStore() driven.AssessmentStore {
	return &assessmentStore{store: s}
}

// AlertStore returns an AlertStore interface backed by this store.
func (s *Store) AlertStore() driven.AlertStore {
	return &alertStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Document Store ====================

// documentStore implements driven.DocumentStore.
type documentStore struct {
	store *Store
}

var _ driven.DocumentStore = (*documentStore)(nil)

// SaveDocument appends a document revision. Re-saving an existing
// (ID, Revision) pair is a no-op.
func (s *documentStore) SaveDocument(ctx context.Context, doc *domain.Document) error {
	metadataJSON, err := json.Marshal(doc.Metadata)
	if err != nil {
		return fmt.Errorf("marshalling metadata: %w", err)
	}

	ingested := doc.IngestedAt
	if ingested.IsZero() {
		ingested = time.Now().UTC()
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO documents (id, revision, source_uri, title, text, metadata, ingested_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id, revision) DO NOTHING
	`, doc.ID, doc.Revision, doc.SourceURI, doc.Title, doc.Text, string(metadataJSON), ingested)

	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// GetDocument retrieves a specific revision.
func (s *documentStore) GetDocument(ctx context.Context, id string, revision int) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, revision, source_uri, title, text, metadata, ingested_at
		FROM documents WHERE id = ? AND revision = ?
	`, id, revision)

	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return doc, nil
}

// LatestRevision returns the highest stored revision for an ID, or 0.
func (s *documentStore) LatestRevision(ctx context.Context, id string) (int, error) {
	var latest int
	row := s.store.db.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(revision), 0) FROM documents WHERE id = ?", id)
	if err := row.Scan(&latest); err != nil {
		return 0, fmt.Errorf("getting latest revision: %w", err)
	}
	return latest, nil
}

// ListDocuments returns the latest revision of each matching document,
// newest first. Tier and jurisdiction filters join against the latest
// assessment.
func (s *documentStore) ListDocuments(ctx context.Context, filter driven.DocumentFilter) ([]domain.Document, error) {
	query := `
		SELECT d.id, d.revision, d.source_uri, d.title, d.text, d.metadata, d.ingested_at
		FROM documents d
		INNER JOIN (
			SELECT id, MAX(revision) AS revision FROM documents GROUP BY id
		) latest ON d.id = latest.id AND d.revision = latest.revision
	`
	var conds []string
	var args []any

	if filter.MinTier != nil || filter.Jurisdiction != "" {
		query += `
		INNER JOIN (
			SELECT a.document_id, a.tier, a.jurisdictions
			FROM assessments a
			INNER JOIN (
				SELECT document_id, MAX(revision) AS revision
				FROM assessments GROUP BY document_id
			) la ON a.document_id = la.document_id AND a.revision = la.revision
		) assessment ON assessment.document_id = d.id
		`
		if filter.MinTier != nil {
			tiers := make([]string, 0, int(domain.TierHigh)+1)
			for tier := *filter.MinTier; tier <= domain.TierHigh; tier++ {
				tiers = append(tiers, "'"+tier.String()+"'")
			}
			conds = append(conds, "assessment.tier IN ("+strings.Join(tiers, ", ")+")")
		}
		if filter.Jurisdiction != "" {
			conds = append(conds, "assessment.jurisdictions LIKE ?")
			args = append(args, `%"`+string(filter.Jurisdiction)+`"%`)
		}
	}

	if filter.Contains != "" {
		conds = append(conds, "(d.title LIKE ? COLLATE NOCASE OR d.text LIKE ? COLLATE NOCASE)")
		needle := "%" + filter.Contains + "%"
		args = append(args, needle, needle)
	}
	if !filter.Since.IsZero() {
		conds = append(conds, "d.ingested_at >= ?")
		args = append(args, filter.Since)
	}

	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	query += " ORDER BY d.ingested_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document //nolint:prealloc // size unknown from query
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	return docs, nil
}

// CountDocuments returns the total number of stored revisions.
func (s *documentStore) CountDocuments(ctx context.Context) (int, error) {
	var count int
	row := s.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents")
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("counting documents: %w", err)
	}
	return count, nil
}

// scanner abstracts sql.Row and sql.Rows for shared scan helpers.
type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (*domain.Document, error) {
	var doc domain.Document
	var metadataJSON string
	var ingestedAt sql.NullTime
	if err := row.Scan(&doc.ID, &doc.Revision, &doc.SourceURI, &doc.Title,
		&doc.Text, &metadataJSON, &ingestedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}
	if metadataJSON != "" && metadataJSON != "null" {
		if err := json.Unmarshal([]byte(metadataJSON), &doc.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshaling metadata: %w", err)
		}
	}
	if ingestedAt.Valid {
		doc.IngestedAt = ingestedAt.Time
	}
	return &doc, nil
}

// ==================== Assessment Store ====================

// assessmentStore implements driven.AssessmentStore.
type assessmentStore struct {
	store *Store
}

var _ driven.AssessmentStore = (*assessmentStore)(nil)

// SaveAssessment appends an assessment. Re-saving an existing
// (DocumentID, Revision) pair is a no-op.
func (s *assessmentStore) SaveAssessment(ctx context.Context, a *domain.RiskAssessment) error {
	categoriesJSON, err := json.Marshal(a.Categories)
	if err != nil {
		return fmt.Errorf("marshalling categories: %w", err)
	}
	findingsJSON, err := json.Marshal(a.Findings)
	if err != nil {
		return fmt.Errorf("marshalling findings: %w", err)
	}
	jurisdictionsJSON, err := json.Marshal(a.Jurisdictions)
	if err != nil {
		return fmt.Errorf("marshalling jurisdictions: %w", err)
	}

	computed := a.ComputedAt
	if computed.IsZero() {
		computed = time.Now().UTC()
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO assessments (document_id, revision, score, tier, rationale, categories, findings, jurisdictions, computed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(document_id, revision) DO NOTHING
	`, a.DocumentID, a.Revision, a.Score, a.Tier.String(), a.Rationale,
		string(categoriesJSON), string(findingsJSON), string(jurisdictionsJSON), computed)

	if err != nil {
		return fmt.Errorf("saving assessment: %w", err)
	}
	return nil
}

// GetAssessment retrieves the assessment for a specific revision.
func (s *assessmentStore) GetAssessment(ctx context.Context, documentID string, revision int) (*domain.RiskAssessment, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT document_id, revision, score, tier, rationale, categories, findings, jurisdictions, computed_at
		FROM assessments WHERE document_id = ? AND revision = ?
	`, documentID, revision)
	return scanAssessment(row)
}

// LatestAssessment retrieves the assessment for the highest assessed
// revision of a document.
func (s *assessmentStore) LatestAssessment(ctx context.Context, documentID string) (*domain.RiskAssessment, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT document_id, revision, score, tier, rationale, categories, findings, jurisdictions, computed_at
		FROM assessments WHERE document_id = ?
		ORDER BY revision DESC LIMIT 1
	`, documentID)
	return scanAssessment(row)
}

func scanAssessment(row scanner) (*domain.RiskAssessment, error) {
	var a domain.RiskAssessment
	var tierLabel, categoriesJSON, findingsJSON, jurisdictionsJSON string
	var computedAt sql.NullTime
	if err := row.Scan(&a.DocumentID, &a.Revision, &a.Score, &tierLabel,
		&a.Rationale, &categoriesJSON, &findingsJSON, &jurisdictionsJSON, &computedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning assessment: %w", err)
	}

	tier, ok := domain.ParseTier(tierLabel)
	if !ok {
		return nil, fmt.Errorf("parsing tier %q: %w", tierLabel, domain.ErrInvalidInput)
	}
	a.Tier = tier

	if err := json.Unmarshal([]byte(categoriesJSON), &a.Categories); err != nil {
		return nil, fmt.Errorf("unmarshaling categories: %w", err)
	}
	if err := json.Unmarshal([]byte(findingsJSON), &a.Findings); err != nil {
		return nil, fmt.Errorf("unmarshaling findings: %w", err)
	}
	if err := json.Unmarshal([]byte(jurisdictionsJSON), &a.Jurisdictions); err != nil {
		return nil, fmt.Errorf("unmarshaling jurisdictions: %w", err)
	}
	if computedAt.Valid {
		a.ComputedAt = computedAt.Time
	}
	return &a, nil
}

// ==================== Alert Store ====================

// alertStore implements driven.AlertStore.
type alertStore struct {
	store *Store
}

var _ driven.AlertStore = (*alertStore)(nil)

// SaveEvent stores a new alert event.
func (s *alertStore) SaveEvent(ctx context.Context, event *domain.AlertEvent) error {
	jurisdictionsJSON, err := json.Marshal(event.Jurisdictions)
	if err != nil {
		return fmt.Errorf("marshalling jurisdictions: %w", err)
	}
	deliveriesJSON, err := json.Marshal(event.Deliveries)
	if err != nil {
		return fmt.Errorf("marshalling deliveries: %w", err)
	}

	created := event.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO alert_events (id, document_id, revision, tier, dedup_key, jurisdictions, message, deliveries, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, event.ID, event.DocumentID, event.Revision, event.Tier.String(), event.DedupKey,
		string(jurisdictionsJSON), event.Message, string(deliveriesJSON), created)

	if err != nil {
		return fmt.Errorf("saving alert event: %w", err)
	}
	return nil
}

// UpdateDeliveries replaces the delivery records of an existing event.
func (s *alertStore) UpdateDeliveries(ctx context.Context, eventID string, deliveries []domain.ChannelDelivery) error {
	deliveriesJSON, err := json.Marshal(deliveries)
	if err != nil {
		return fmt.Errorf("marshalling deliveries: %w", err)
	}

	result, err := s.store.db.ExecContext(ctx,
		"UPDATE alert_events SET deliveries = ? WHERE id = ?", string(deliveriesJSON), eventID)
	if err != nil {
		return fmt.Errorf("updating deliveries: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// LatestByDedupKey returns the most recent event for a dedup key.
func (s *alertStore) LatestByDedupKey(ctx context.Context, dedupKey string) (*domain.AlertEvent, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, document_id, revision, tier, dedup_key, jurisdictions, message, deliveries, created_at
		FROM alert_events WHERE dedup_key = ?
		ORDER BY created_at DESC, rowid DESC LIMIT 1
	`, dedupKey)
	return scanAlertEvent(row)
}

// ListEvents returns events newest first, up to limit (0 = all).
func (s *alertStore) ListEvents(ctx context.Context, limit int) ([]domain.AlertEvent, error) {
	query := `
		SELECT id, document_id, revision, tier, dedup_key, jurisdictions, message, deliveries, created_at
		FROM alert_events ORDER BY created_at DESC, rowid DESC
	`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying alert events: %w", err)
	}
	defer rows.Close()

	var events []domain.AlertEvent //nolint:prealloc // size unknown from query
	for rows.Next() {
		event, err := scanAlertEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating alert events: %w", err)
	}
	return events, nil
}

func scanAlertEvent(row scanner) (*domain.AlertEvent, error) {
	var event domain.AlertEvent
	var tierLabel, jurisdictionsJSON, deliveriesJSON string
	var createdAt sql.NullTime
	if err := row.Scan(&event.ID, &event.DocumentID, &event.Revision, &tierLabel,
		&event.DedupKey, &jurisdictionsJSON, &event.Message, &deliveriesJSON, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning alert event: %w", err)
	}

	tier, ok := domain.ParseTier(tierLabel)
	if !ok {
		return nil, fmt.Errorf("parsing tier %q: %w", tierLabel, domain.ErrInvalidInput)
	}
	event.Tier = tier

	if err := json.Unmarshal([]byte(jurisdictionsJSON), &event.Jurisdictions); err != nil {
		return nil, fmt.Errorf("unmarshaling jurisdictions: %w", err)
	}
	if err := json.Unmarshal([]byte(deliveriesJSON), &event.Deliveries); err != nil {
		return nil, fmt.Errorf("unmarshaling deliveries: %w", err)
	}
	if createdAt.Valid {
		event.CreatedAt = createdAt.Time
	}
	return &event, nil
}
