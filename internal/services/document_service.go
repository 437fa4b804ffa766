package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"forklifttracker/internal/models"
	"forklifttracker/internal/repositories"
	"forklifttracker/internal/storage"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	// MaxDocumentSize is the largest decoded document accepted.
	MaxDocumentSize = 10 << 20
	// DocumentURLExpiry is the lifetime of presigned document download links.
	DocumentURLExpiry = 15 * time.Minute
)

var documentExtensions = map[string]string{
	"application/pdf": ".pdf",
	"image/png":       ".png",
	"image/jpeg":      ".jpg",
	"image/gif":       ".gif",
	"image/webp":      ".webp",
	"image/svg+xml":   ".svg",
	"image/heic":      ".heic",
}

// DocumentEntry is one element of a documents_<N>h array: a data URL to
// upload, or the ID of a document to keep. Document objects as returned by
// the API are accepted too and count as their ID.
type DocumentEntry string

func (e *DocumentEntry) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*e = DocumentEntry(s)
		return nil
	}
	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("document entry must be a data URL, an id or a document object")
	}
	*e = DocumentEntry(obj.ID)
	return nil
}

// DecodedFile is a validated data URL payload.
type DecodedFile struct {
	ContentType string
	Data        []byte
}

func (d *DecodedFile) Ext() string {
	if ext, ok := documentExtensions[d.ContentType]; ok {
		return ext
	}
	return ".bin"
}

// ParseDataURL decodes data:<mime>;base64,<payload>. Only images and PDFs up
// to MaxDocumentSize are accepted.
func ParseDataURL(s string) (*DecodedFile, error) {
	if !strings.HasPrefix(s, "data:") {
		return nil, Invalid("Document must be a data URL")
	}
	meta, payload, ok := strings.Cut(strings.TrimPrefix(s, "data:"), ",")
	if !ok {
		return nil, Invalid("Malformed data URL")
	}

	params := strings.Split(meta, ";")
	contentType := strings.ToLower(strings.TrimSpace(params[0]))
	base64Encoded := false
	for _, p := range params[1:] {
		if strings.EqualFold(strings.TrimSpace(p), "base64") {
			base64Encoded = true
		}
	}
	if !base64Encoded {
		return nil, Invalid("Data URL must be base64 encoded")
	}
	if contentType != "application/pdf" && !strings.HasPrefix(contentType, "image/") {
		return nil, Invalid(fmt.Sprintf("Unsupported document type %q", contentType))
	}
	if base64.StdEncoding.DecodedLen(len(payload)) > MaxDocumentSize+2 {
		return nil, Invalid("Document exceeds 10 MiB")
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, Invalid("Data URL payload is not valid base64")
	}
	if len(data) > MaxDocumentSize {
		return nil, Invalid("Document exceeds 10 MiB")
	}
	if len(data) == 0 {
		return nil, Invalid("Document is empty")
	}

	return &DecodedFile{ContentType: contentType, Data: data}, nil
}

// IntervalPlan is the desired document set of one service interval.
type IntervalPlan struct {
	Hours   int
	Keep    map[uuid.UUID]bool
	Uploads []*DecodedFile
}

// DocumentPlan maps interval hours to the desired documents. Intervals not
// present are left untouched.
type DocumentPlan map[int]*IntervalPlan

// PlanDocuments validates every entry before anything is stored.
func PlanDocuments(entries map[int][]DocumentEntry) (DocumentPlan, error) {
	plan := DocumentPlan{}
	for hours, list := range entries {
		if !models.IsServiceInterval(hours) {
			return nil, Invalid(fmt.Sprintf("Unknown service interval %dh", hours))
		}
		ip := &IntervalPlan{Hours: hours, Keep: map[uuid.UUID]bool{}}
		for _, entry := range list {
			value := strings.TrimSpace(string(entry))
			if strings.HasPrefix(value, "data:") {
				file, err := ParseDataURL(value)
				if err != nil {
					return nil, err
				}
				ip.Uploads = append(ip.Uploads, file)
				continue
			}
			id, err := uuid.Parse(value)
			if err != nil {
				return nil, Invalid(fmt.Sprintf("documents_%dh entries must be data URLs or document ids", hours))
			}
			ip.Keep[id] = true
		}
		plan[hours] = ip
	}
	return plan, nil
}

// StagedDocuments are uploaded objects whose rows are not saved yet, plus the
// stored documents a plan drops.
type StagedDocuments struct {
	Added   []*models.ForkliftDocument
	Removed []*models.ForkliftDocument
}

// Changes returns the row edits to save with the forklift.
func (s *StagedDocuments) Changes() repositories.DocumentChanges {
	var changes repositories.DocumentChanges
	if s == nil {
		return changes
	}
	changes.Add = s.Added
	for _, doc := range s.Removed {
		changes.Remove = append(changes.Remove, doc.ID)
	}
	return changes
}

type DocumentService interface {
	// Stage uploads the new files of plan and works out which stored documents
	// it drops. No rows are written.
	Stage(ctx context.Context, f *models.Forklift, actorID uuid.UUID, plan DocumentPlan) (*StagedDocuments, error)
	// Commit removes dropped objects once the rows are saved.
	Commit(ctx context.Context, f *models.Forklift, actorID uuid.UUID, staged *StagedDocuments)
	// Discard removes the objects uploaded by Stage after a failed save.
	Discard(ctx context.Context, staged *StagedDocuments)
	// Attach loads the documents of each forklift. Download URLs are added when withURLs is set.
	Attach(ctx context.Context, forklifts []*models.Forklift, withURLs bool) error
	List(ctx context.Context, forkliftID uuid.UUID) ([]*models.ForkliftDocument, error)
	Get(ctx context.Context, forkliftID, documentID uuid.UUID) (*models.ForkliftDocument, error)
	Delete(ctx context.Context, doc *models.ForkliftDocument, actorID uuid.UUID) error
	// Purge removes every stored object of a forklift. Rows go with the forklift.
	Purge(ctx context.Context, forkliftID uuid.UUID)
}

type documentService struct {
	documentRepo repositories.DocumentRepository
	objects      storage.ObjectStorage
	audit        AuditLogsService
	now          func() time.Time
}

func NewDocumentService(documentRepo repositories.DocumentRepository, objects storage.ObjectStorage, audit AuditLogsService) DocumentService {
	return &documentService{
		documentRepo: documentRepo,
		objects:      objects,
		audit:        audit,
		now:          time.Now,
	}
}

func (s *documentService) Stage(ctx context.Context, f *models.Forklift, actorID uuid.UUID, plan DocumentPlan) (*StagedDocuments, error) {
	staged := &StagedDocuments{}
	if len(plan) == 0 {
		return staged, nil
	}

	existing, err := s.documentRepo.ListByForklift(ctx, f.ID)
	if err != nil {
		return nil, err
	}
	known := map[uuid.UUID]bool{}
	for _, doc := range existing {
		known[doc.ID] = true
		if ip, ok := plan[doc.IntervalHours]; ok && !ip.Keep[doc.ID] {
			staged.Removed = append(staged.Removed, doc)
		}
	}

	for _, hours := range models.ServiceIntervals {
		ip, ok := plan[hours]
		if !ok {
			continue
		}
		for id := range ip.Keep {
			if !known[id] {
				log.Ctx(ctx).Warn().Str("forklift_id", f.ID.String()).Str("document_id", id.String()).Msg("Ignoring unknown document id")
			}
		}
		for _, file := range ip.Uploads {
			doc, err := s.upload(ctx, f, actorID, hours, file)
			if err != nil {
				s.Discard(ctx, staged)
				return nil, err
			}
			staged.Added = append(staged.Added, doc)
		}
	}
	return staged, nil
}

func (s *documentService) upload(ctx context.Context, f *models.Forklift, actorID uuid.UUID, hours int, file *DecodedFile) (*models.ForkliftDocument, error) {
	doc := &models.ForkliftDocument{
		ID:            uuid.New(),
		ForkliftID:    f.ID,
		CompanyID:     f.CompanyID,
		IntervalHours: hours,
		ContentType:   file.ContentType,
		SizeBytes:     int64(len(file.Data)),
		UploadedBy:    actorID,
		CreatedAt:     s.now(),
	}
	doc.ObjectKey = storage.DocumentKey(f.ID, doc.ID, hours, file.Ext())
	doc.FileName = storage.FileName(doc.ObjectKey)

	if err := s.objects.Upload(ctx, doc.ObjectKey, bytes.NewReader(file.Data), doc.SizeBytes, doc.ContentType); err != nil {
		log.Ctx(ctx).Error().Err(err).Str("object", doc.ObjectKey).Msg("Failed to upload document")
		return nil, err
	}
	return doc, nil
}

func (s *documentService) Commit(ctx context.Context, f *models.Forklift, actorID uuid.UUID, staged *StagedDocuments) {
	if staged == nil {
		return
	}
	for _, doc := range staged.Added {
		s.audit.LogEntityCreate(ctx, f.CompanyID, "forklift_documents", doc.ID.String(), &actorID, CreateEntityValues(doc))
	}
	for _, doc := range staged.Removed {
		s.removeObject(ctx, doc.ObjectKey)
		s.audit.LogEntityDelete(ctx, f.CompanyID, "forklift_documents", doc.ID.String(), &actorID, CreateEntityValues(doc))
	}
}

func (s *documentService) Discard(ctx context.Context, staged *StagedDocuments) {
	if staged == nil {
		return
	}
	for _, doc := range staged.Added {
		s.removeObject(ctx, doc.ObjectKey)
	}
}

func (s *documentService) removeObject(ctx context.Context, key string) {
	if err := s.objects.Delete(ctx, key); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("object", key).Msg("Failed to remove stored document")
	}
}

func (s *documentService) Attach(ctx context.Context, forklifts []*models.Forklift, withURLs bool) error {
	if len(forklifts) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(forklifts))
	for _, f := range forklifts {
		ids = append(ids, f.ID)
	}
	docs, err := s.documentRepo.ListByForklifts(ctx, ids)
	if err != nil {
		return err
	}
	if withURLs {
		s.presign(ctx, docs)
	}

	byForklift := map[uuid.UUID][]*models.ForkliftDocument{}
	for _, d := range docs {
		byForklift[d.ForkliftID] = append(byForklift[d.ForkliftID], d)
	}
	for _, f := range forklifts {
		f.SetDocuments(byForklift[f.ID])
	}
	return nil
}

func (s *documentService) List(ctx context.Context, forkliftID uuid.UUID) ([]*models.ForkliftDocument, error) {
	docs, err := s.documentRepo.ListByForklift(ctx, forkliftID)
	if err != nil {
		return nil, err
	}
	if docs == nil {
		docs = []*models.ForkliftDocument{}
	}
	s.presign(ctx, docs)
	return docs, nil
}

func (s *documentService) Get(ctx context.Context, forkliftID, documentID uuid.UUID) (*models.ForkliftDocument, error) {
	doc, err := s.documentRepo.GetByID(ctx, forkliftID, documentID)
	if err != nil {
		if isNoRows(err) {
			return nil, NotFound("Document not found")
		}
		return nil, err
	}
	return doc, nil
}

// presign leaves URL empty when signing fails.
func (s *documentService) presign(ctx context.Context, docs []*models.ForkliftDocument) {
	for _, d := range docs {
		url, err := s.objects.PresignedURL(ctx, d.ObjectKey, DocumentURLExpiry)
		if err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("object", d.ObjectKey).Msg("Failed to presign document")
			continue
		}
		d.URL = url
	}
}

func (s *documentService) Delete(ctx context.Context, doc *models.ForkliftDocument, actorID uuid.UUID) error {
	if err := s.documentRepo.Delete(ctx, doc.ID); err != nil {
		if isNoRows(err) {
			return NotFound("Document not found")
		}
		return err
	}
	s.removeObject(ctx, doc.ObjectKey)
	s.audit.LogEntityDelete(ctx, doc.CompanyID, "forklift_documents", doc.ID.String(), &actorID, CreateEntityValues(doc))
	return nil
}

func (s *documentService) Purge(ctx context.Context, forkliftID uuid.UUID) {
	if err := s.objects.DeletePrefix(ctx, storage.ForkliftPrefix(forkliftID)); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("forklift_id", forkliftID.String()).Msg("Failed to remove stored objects")
	}
}
