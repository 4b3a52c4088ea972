package service

import (
	"context"
	"errors"
	"log"
	"sort"
	"sync"
	"time"

	"lexguard-backend/models"
)

// conflictThreshold is the confidence above which a detected conflict
// blocks a document from entering the corpus as valid
const conflictThreshold = 0.6

// DependencyResolver answers whether one document depends on another.
// The production implementation queries the citation graph; tests plug
// in fakes.
type DependencyResolver interface {
	DependsOn(ctx context.Context, dependentID, dependencyID string) (bool, error)
}

// DocumentStore persists validity transitions and document snapshots.
// The hierarchy service owns the in-memory corpus; the store is glue to
// whatever holds the documents durably.
type DocumentStore interface {
	UpsertDocument(ctx context.Context, doc *models.LegalDocument) error
	UpdateValidity(ctx context.Context, id string, valid bool) error
}

// RevisionArchiver stores superseded document content before an update
// overwrites it
type RevisionArchiver interface {
	ArchiveRevision(ctx context.Context, documentID string, content string) error
}

// HierarchyService owns the document corpus snapshot. It registers
// documents, runs conflict checks against authoritative peers, and
// cascades invalidation to dependents. All writers are serialized per
// corpus; cascade reads a consistent snapshot while mutating entries.
type HierarchyService struct {
	mu        sync.RWMutex
	documents map[string]*models.LegalDocument

	analyzer TextAnalyzer
	resolver DependencyResolver
	notifier Notifier
	store    DocumentStore
	archiver RevisionArchiver
}

// HierarchyServiceOption is a functional option for HierarchyService
type HierarchyServiceOption func(*HierarchyService)

// HierarchyWithTextAnalyzer sets the conflict analyzer
func HierarchyWithTextAnalyzer(analyzer TextAnalyzer) HierarchyServiceOption {
	return func(s *HierarchyService) {
		s.analyzer = analyzer
	}
}

// HierarchyWithDependencyResolver sets the dependency resolver
func HierarchyWithDependencyResolver(resolver DependencyResolver) HierarchyServiceOption {
	return func(s *HierarchyService) {
		s.resolver = resolver
	}
}

// HierarchyWithNotifier sets the conflict/invalidation event sink
func HierarchyWithNotifier(notifier Notifier) HierarchyServiceOption {
	return func(s *HierarchyService) {
		s.notifier = notifier
	}
}

// HierarchyWithDocumentStore sets the persistence glue
func HierarchyWithDocumentStore(store DocumentStore) HierarchyServiceOption {
	return func(s *HierarchyService) {
		s.store = store
	}
}

// HierarchyWithRevisionArchiver sets the revision archive
func HierarchyWithRevisionArchiver(archiver RevisionArchiver) HierarchyServiceOption {
	return func(s *HierarchyService) {
		s.archiver = archiver
	}
}

// NewHierarchyService creates a new hierarchy service
func NewHierarchyService(opts ...HierarchyServiceOption) *HierarchyService {
	s := &HierarchyService{
		documents: make(map[string]*models.LegalDocument),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Seed loads already-persisted documents into the corpus without
// re-running conflict checks or cascades. Used at startup to restore
// the snapshot the store already validated.
func (s *HierarchyService) Seed(docs []*models.LegalDocument) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, doc := range docs {
		if doc == nil || doc.ID == "" {
			continue
		}
		copied := *doc
		s.documents[copied.ID] = &copied
	}
}

// AddDocument registers a document into the corpus. The document is
// checked against every valid document of equal or higher authority; a
// conflict above the threshold soft-invalidates it (still stored, never
// dropped). A valid registration cascades invalidation to dependents of
// lower authority. Detected conflicts are a normal outcome, reported in
// the returned ConflictReport, not an error. Re-registering a document
// with unchanged content is a no-op.
func (s *HierarchyService) AddDocument(ctx context.Context, doc *models.LegalDocument) (*models.ConflictReport, error) {
	if err := validateDocument(doc); err != nil {
		return nil, err
	}
	if s.analyzer == nil {
		return nil, errors.New("text analyzer not set")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.documents[doc.ID]; ok {
		if existing.Content == doc.Content {
			doc.IsValid = existing.IsValid
			return s.checkConflictsLocked(doc), nil
		}
		// Replacing an existing registration archives the superseded
		// revision, same as an update through UpdateDocument
		if s.archiver != nil {
			if err := s.archiver.ArchiveRevision(ctx, existing.ID, existing.Content); err != nil {
				log.Printf("Warning: Failed to archive revision of %s: %v", existing.ID, err)
			}
		}
	}

	report := s.checkConflictsLocked(doc)
	doc.LastModified = time.Now()

	if report.HasBlockingConflict(conflictThreshold) {
		doc.IsValid = false
		s.documents[doc.ID] = doc
		s.persist(ctx, doc)
		s.notifyConflict(ctx, doc, report)
		return report, nil
	}

	doc.IsValid = true
	s.documents[doc.ID] = doc
	s.persist(ctx, doc)

	if err := s.cascadeLocked(ctx, doc.ID, models.ChangeNew); err != nil {
		return report, err
	}
	return report, nil
}

// UpdateDocument replaces a registered document's content, re-runs the
// conflict check (so a revised document can regain validity), and
// cascades from the updated document
func (s *HierarchyService) UpdateDocument(ctx context.Context, id, newContent string) (*models.ConflictReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.documents[id]
	if !ok {
		return nil, ErrDocumentNotFound
	}

	if s.archiver != nil {
		if err := s.archiver.ArchiveRevision(ctx, doc.ID, doc.Content); err != nil {
			log.Printf("Warning: Failed to archive revision of %s: %v", doc.ID, err)
		}
	}

	doc.Content = newContent
	doc.LastModified = time.Now()

	report := s.checkConflictsLocked(doc)
	if report.HasBlockingConflict(conflictThreshold) {
		doc.IsValid = false
		s.persist(ctx, doc)
		s.notifyConflict(ctx, doc, report)
		return report, nil
	}

	doc.IsValid = true
	s.persist(ctx, doc)

	if err := s.cascadeLocked(ctx, doc.ID, models.ChangeAmendment); err != nil {
		return report, err
	}
	return report, nil
}

// CheckConflicts produces the conflict list for a candidate document
// without mutating the corpus. Usable independently for diagnostics.
func (s *HierarchyService) CheckConflicts(doc *models.LegalDocument) (*models.ConflictReport, error) {
	if err := validateDocument(doc); err != nil {
		return nil, err
	}
	if s.analyzer == nil {
		return nil, errors.New("text analyzer not set")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.checkConflictsLocked(doc), nil
}

// IsAdmissible is the simple boolean view of CheckConflicts for callers
// that do not need reasons
func (s *HierarchyService) IsAdmissible(doc *models.LegalDocument) (bool, error) {
	report, err := s.CheckConflicts(doc)
	if err != nil {
		return false, err
	}
	return !report.HasBlockingConflict(conflictThreshold), nil
}

// CascadeInvalidation invalidates every valid document of lower
// authority that depends on the changed document. Returns the ids that
// were invalidated.
func (s *HierarchyService) CascadeInvalidation(ctx context.Context, changedDocID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.documents[changedDocID]; !ok {
		return nil, ErrDocumentNotFound
	}
	return s.cascadeIDs(ctx, changedDocID, models.ChangeOther)
}

// GetDocument returns a registered document by id
func (s *HierarchyService) GetDocument(id string) (*models.LegalDocument, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.documents[id]
	if !ok {
		return nil, false
	}
	copied := *doc
	return &copied, true
}

// GetDocumentsByLevel returns all registered documents at a level
func (s *HierarchyService) GetDocumentsByLevel(level models.HierarchyLevel) []*models.LegalDocument {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var docs []*models.LegalDocument
	for _, doc := range s.documents {
		if doc.HierarchyLevel == level {
			copied := *doc
			docs = append(docs, &copied)
		}
	}
	sortDocuments(docs)
	return docs
}

// GetValidDocuments returns all documents currently marked valid
func (s *HierarchyService) GetValidDocuments() []*models.LegalDocument {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var docs []*models.LegalDocument
	for _, doc := range s.documents {
		if doc.IsValid {
			copied := *doc
			docs = append(docs, &copied)
		}
	}
	sortDocuments(docs)
	return docs
}

// GetAllDocuments returns every registered document
func (s *HierarchyService) GetAllDocuments() []*models.LegalDocument {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]*models.LegalDocument, 0, len(s.documents))
	for _, doc := range s.documents {
		copied := *doc
		docs = append(docs, &copied)
	}
	sortDocuments(docs)
	return docs
}

// checkConflictsLocked compares the candidate against every valid
// document whose level is equal or more authoritative. Caller holds at
// least the read lock.
func (s *HierarchyService) checkConflictsLocked(doc *models.LegalDocument) *models.ConflictReport {
	report := &models.ConflictReport{
		DocumentID: doc.ID,
		Conflicts:  make([]models.Conflict, 0),
		CheckedAt:  time.Now(),
	}

	for _, existing := range s.documents {
		if existing.ID == doc.ID || !existing.IsValid {
			continue
		}
		if !existing.HierarchyLevel.Outranks(doc.HierarchyLevel) {
			continue
		}

		analysis := s.analyzer.AnalyzeConflict(doc.Content, existing.Content)
		if !analysis.HasConflict {
			continue
		}

		report.Conflicts = append(report.Conflicts, models.Conflict{
			DocumentID1:  doc.ID,
			DocumentID2:  existing.ID,
			ConflictType: analysis.ConflictType,
			Confidence:   analysis.Confidence,
			Details:      analysis.Details,
			DetectedAt:   report.CheckedAt,
		})
	}

	sort.Slice(report.Conflicts, func(i, j int) bool {
		return report.Conflicts[i].DocumentID2 < report.Conflicts[j].DocumentID2
	})
	return report
}

// cascadeLocked runs cascade invalidation and logs instead of failing
// the registration when the resolver is not configured
func (s *HierarchyService) cascadeLocked(ctx context.Context, changedDocID string, change models.ChangeType) error {
	if s.resolver == nil {
		return nil
	}
	_, err := s.cascadeIDs(ctx, changedDocID, change)
	return err
}

// cascadeIDs walks the corpus snapshot once and invalidates every valid
// dependent of lower authority. Each document is considered at most
// once, so cyclic dependency graphs terminate. Caller holds the write
// lock.
func (s *HierarchyService) cascadeIDs(ctx context.Context, changedDocID string, change models.ChangeType) ([]string, error) {
	if s.resolver == nil {
		return nil, errors.New("dependency resolver not set")
	}

	changed := s.documents[changedDocID]
	invalidated := make([]string, 0)

	for _, doc := range s.documents {
		if doc.ID == changedDocID || !doc.IsValid {
			continue
		}
		if doc.HierarchyLevel <= changed.HierarchyLevel {
			continue
		}

		depends, err := s.resolver.DependsOn(ctx, doc.ID, changedDocID)
		if err != nil {
			return invalidated, err
		}
		if !depends {
			continue
		}

		doc.IsValid = false
		doc.LastModified = time.Now()
		s.persistValidity(ctx, doc.ID, false)
		s.notifyInvalidation(ctx, doc.ID, changedDocID, change)
		invalidated = append(invalidated, doc.ID)
	}

	sort.Strings(invalidated)
	return invalidated, nil
}

// persist writes the document snapshot through to the store; failures
// are logged, the in-memory corpus stays authoritative for this process
func (s *HierarchyService) persist(ctx context.Context, doc *models.LegalDocument) {
	if s.store == nil {
		return
	}
	if err := s.store.UpsertDocument(ctx, doc); err != nil {
		log.Printf("Warning: Failed to persist document %s: %v", doc.ID, err)
	}
}

func (s *HierarchyService) persistValidity(ctx context.Context, id string, valid bool) {
	if s.store == nil {
		return
	}
	if err := s.store.UpdateValidity(ctx, id, valid); err != nil {
		log.Printf("Warning: Failed to persist validity of %s: %v", id, err)
	}
}

// notifyConflict emits one event carrying the full conflicting set.
// Notification failures never block hierarchy mutations.
func (s *HierarchyService) notifyConflict(ctx context.Context, doc *models.LegalDocument, report *models.ConflictReport) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyConflict(ctx, report); err != nil {
		log.Printf("Warning: Failed to notify conflict for %s: %v", doc.ID, err)
	}
}

// notifyInvalidation emits one event per invalidated document
func (s *HierarchyService) notifyInvalidation(ctx context.Context, invalidatedID, causedBy string, change models.ChangeType) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyInvalidation(ctx, invalidatedID, causedBy, change); err != nil {
		log.Printf("Warning: Failed to notify invalidation of %s: %v", invalidatedID, err)
	}
}

// validateDocument rejects malformed documents before any mutation
func validateDocument(doc *models.LegalDocument) error {
	if doc == nil {
		return &ValidationError{Field: "document", Reason: "must not be nil"}
	}
	if doc.ID == "" {
		return &ValidationError{Field: "id", Reason: "must not be empty"}
	}
	if !doc.HierarchyLevel.IsValid() {
		return &ValidationError{Field: "hierarchy_level", Reason: "must be a declared level"}
	}
	return nil
}

func sortDocuments(docs []*models.LegalDocument) {
	sort.Slice(docs, func(i, j int) bool {
		if docs[i].HierarchyLevel != docs[j].HierarchyLevel {
			return docs[i].HierarchyLevel < docs[j].HierarchyLevel
		}
		return docs[i].ID < docs[j].ID
	})
}
