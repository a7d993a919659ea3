package kyc

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/onmall/onmall-backend/internal/media"
	"github.com/onmall/onmall-backend/pkg/db/models"
	"github.com/onmall/onmall-backend/pkg/enums"
	pkgerrors "github.com/onmall/onmall-backend/pkg/errors"
)

type stubKYCRepo struct {
	byVendor map[uuid.UUID]*models.KYCRecord
	swapErr  error
}

func newStubKYCRepo() *stubKYCRepo {
	return &stubKYCRepo{byVendor: make(map[uuid.UUID]*models.KYCRecord)}
}

func (s *stubKYCRepo) FindRecordByVendor(ctx context.Context, vendorID uuid.UUID) (*models.KYCRecord, error) {
	record, ok := s.byVendor[vendorID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return record, nil
}

func (s *stubKYCRepo) FindRecordByID(ctx context.Context, id uuid.UUID) (*models.KYCRecord, error) {
	for _, record := range s.byVendor {
		if record.ID == id {
			return record, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubKYCRepo) CreateRecord(ctx context.Context, record *models.KYCRecord) error {
	record.ID = uuid.New()
	s.byVendor[record.VendorID] = record
	return nil
}

func (s *stubKYCRepo) UpdateStatus(ctx context.Context, recordID uuid.UUID, status enums.KYCStatus) error {
	record, err := s.FindRecordByID(ctx, recordID)
	if err != nil {
		return err
	}
	record.Status = status
	return nil
}

func (s *stubKYCRepo) FindDocumentByID(ctx context.Context, id uuid.UUID) (*models.KYCDocument, error) {
	for _, record := range s.byVendor {
		for i := range record.Documents {
			if record.Documents[i].ID == id {
				return &record.Documents[i], nil
			}
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubKYCRepo) FindDocumentByAssetID(ctx context.Context, assetID string) (*models.KYCDocument, error) {
	for _, record := range s.byVendor {
		for i := range record.Documents {
			if record.Documents[i].AssetID == assetID {
				return &record.Documents[i], nil
			}
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubKYCRepo) SwapDocument(ctx context.Context, recordID uuid.UUID, docType enums.DocumentType, meta DocumentMeta) (*models.KYCDocument, error) {
	if s.swapErr != nil {
		return nil, s.swapErr
	}
	record, err := s.FindRecordByID(ctx, recordID)
	if err != nil {
		return nil, err
	}
	for i := range record.Documents {
		if record.Documents[i].Type == docType {
			record.Documents[i].AssetID = meta.AssetID
			record.Documents[i].FileName = meta.FileName
			record.Documents[i].Format = meta.Format
			record.Documents[i].SizeBytes = meta.SizeBytes
			record.Status = enums.KYCStatusUnderReview
			return &record.Documents[i], nil
		}
	}
	record.Documents = append(record.Documents, models.KYCDocument{
		ID:          uuid.New(),
		KYCRecordID: recordID,
		Type:        docType,
		AssetID:     meta.AssetID,
		FileName:    meta.FileName,
		Format:      meta.Format,
		SizeBytes:   meta.SizeBytes,
		CreatedAt:   time.Now(),
	})
	record.Status = enums.KYCStatusUnderReview
	return &record.Documents[len(record.Documents)-1], nil
}

func (s *stubKYCRepo) DeleteDocument(ctx context.Context, id uuid.UUID) error {
	for _, record := range s.byVendor {
		for i := range record.Documents {
			if record.Documents[i].ID == id {
				record.Documents = append(record.Documents[:i], record.Documents[i+1:]...)
				return nil
			}
		}
	}
	return nil
}

type stubVendorLoader struct {
	vendors map[uuid.UUID]*models.Vendor
}

func (s *stubVendorLoader) FindByID(ctx context.Context, id uuid.UUID) (*models.Vendor, error) {
	vendor, ok := s.vendors[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return vendor, nil
}

type stubMediaBroker struct {
	uploads      int
	deleted      []string
	deleteErrFor map[string]error
	uploadErr    error
}

func (s *stubMediaBroker) Upload(ctx context.Context, input media.UploadInput) (*media.Asset, error) {
	if s.uploadErr != nil {
		return nil, s.uploadErr
	}
	s.uploads++
	return &media.Asset{
		AssetID:   fmt.Sprintf("kyc/doc-%d", s.uploads),
		FileName:  input.FileName,
		Format:    "pdf",
		SizeBytes: input.SizeBytes,
	}, nil
}

func (s *stubMediaBroker) SignedURL(assetID string, tier media.AccessTier) (*media.SignedLink, error) {
	return &media.SignedLink{
		URL:       fmt.Sprintf("https://res.test/%s?tier=%s", assetID, tier),
		ExpiresAt: time.Now().Add(time.Minute),
	}, nil
}

func (s *stubMediaBroker) DeleteAsset(ctx context.Context, assetID string) error {
	if err, ok := s.deleteErrFor[assetID]; ok {
		return err
	}
	s.deleted = append(s.deleted, assetID)
	return nil
}

type kycFixture struct {
	svc     Service
	repo    *stubKYCRepo
	vendors *stubVendorLoader
	broker  *stubMediaBroker

	owner    Actor
	admin    Actor
	stranger Actor
	vendorID uuid.UUID
}

func newKYCFixture(t *testing.T) *kycFixture {
	t.Helper()
	ownerID := uuid.New()
	vendorID := uuid.New()
	vendors := &stubVendorLoader{vendors: map[uuid.UUID]*models.Vendor{
		vendorID: {ID: vendorID, UserID: ownerID, ShopName: "corner-shop"},
	}}
	repo := newStubKYCRepo()
	broker := &stubMediaBroker{deleteErrFor: map[string]error{}}

	svc, err := NewService(repo, vendors, broker)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return &kycFixture{
		svc:      svc,
		repo:     repo,
		vendors:  vendors,
		broker:   broker,
		owner:    Actor{UserID: ownerID, Role: enums.UserRoleUser},
		admin:    Actor{UserID: uuid.New(), Role: enums.UserRoleAdmin},
		stranger: Actor{UserID: uuid.New(), Role: enums.UserRoleUser},
		vendorID: vendorID,
	}
}

func uploadInput(docType enums.DocumentType, name string) UploadDocumentInput {
	return UploadDocumentInput{
		Type:      docType,
		FileName:  name,
		MimeType:  "application/pdf",
		SizeBytes: 2048,
		Body:      strings.NewReader("doc-bytes"),
	}
}

func assertCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	typed := pkgerrors.As(err)
	if typed == nil {
		t.Fatalf("expected coded error %s, got %v", code, err)
	}
	if typed.Code() != code {
		t.Fatalf("expected code %s, got %s (%v)", code, typed.Code(), err)
	}
}

func TestUploadDocumentLazilyCreatesRecordUnderReview(t *testing.T) {
	f := newKYCFixture(t)

	doc, err := f.svc.UploadDocument(context.Background(), f.owner, f.vendorID, uploadInput(enums.DocumentTypeCNIC, "cnic.pdf"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if doc.Type != enums.DocumentTypeCNIC || doc.AssetID == "" {
		t.Fatalf("unexpected document %+v", doc)
	}

	record, ok := f.repo.byVendor[f.vendorID]
	if !ok {
		t.Fatal("expected record to be created lazily")
	}
	if record.Status != enums.KYCStatusUnderReview {
		t.Fatalf("expected UNDER_REVIEW, got %s", record.Status)
	}
	if len(record.Documents) != 1 {
		t.Fatalf("expected one document, got %d", len(record.Documents))
	}
}

func TestUploadDocumentForcesReviewFromApproved(t *testing.T) {
	f := newKYCFixture(t)
	ctx := context.Background()

	if _, err := f.svc.UploadDocument(ctx, f.owner, f.vendorID, uploadInput(enums.DocumentTypeCNIC, "cnic.pdf")); err != nil {
		t.Fatalf("first upload: %v", err)
	}
	f.repo.byVendor[f.vendorID].Status = enums.KYCStatusApproved

	if _, err := f.svc.UploadDocument(ctx, f.owner, f.vendorID, uploadInput(enums.DocumentTypePassport, "passport.pdf")); err != nil {
		t.Fatalf("second upload: %v", err)
	}
	if got := f.repo.byVendor[f.vendorID].Status; got != enums.KYCStatusUnderReview {
		t.Fatalf("approved record must drop back to UNDER_REVIEW, got %s", got)
	}
}

func TestUploadDocumentReplacesSameTypeSingleton(t *testing.T) {
	f := newKYCFixture(t)
	ctx := context.Background()

	first, err := f.svc.UploadDocument(ctx, f.owner, f.vendorID, uploadInput(enums.DocumentTypeCNIC, "cnic-v1.pdf"))
	if err != nil {
		t.Fatalf("cnic upload: %v", err)
	}
	if _, err := f.svc.UploadDocument(ctx, f.owner, f.vendorID, uploadInput(enums.DocumentTypePassport, "passport.pdf")); err != nil {
		t.Fatalf("passport upload: %v", err)
	}
	second, err := f.svc.UploadDocument(ctx, f.owner, f.vendorID, uploadInput(enums.DocumentTypeCNIC, "cnic-v2.pdf"))
	if err != nil {
		t.Fatalf("cnic replacement: %v", err)
	}

	record := f.repo.byVendor[f.vendorID]
	if len(record.Documents) != 2 {
		t.Fatalf("replacement must not add rows, got %d documents", len(record.Documents))
	}
	if second.AssetID == first.AssetID {
		t.Fatal("replacement must store a fresh asset")
	}
	replacedOld := false
	for _, id := range f.broker.deleted {
		if id == first.AssetID {
			replacedOld = true
		}
	}
	if !replacedOld {
		t.Fatalf("old asset %s must be deleted, deleted=%v", first.AssetID, f.broker.deleted)
	}
}

func TestUploadDocumentNewTypeDeletesNothing(t *testing.T) {
	f := newKYCFixture(t)
	ctx := context.Background()

	if _, err := f.svc.UploadDocument(ctx, f.owner, f.vendorID, uploadInput(enums.DocumentTypeCNIC, "cnic.pdf")); err != nil {
		t.Fatalf("cnic upload: %v", err)
	}
	if _, err := f.svc.UploadDocument(ctx, f.owner, f.vendorID, uploadInput(enums.DocumentTypePassport, "passport.pdf")); err != nil {
		t.Fatalf("passport upload: %v", err)
	}

	// A first document of a given type has no predecessor to remove.
	if len(f.broker.deleted) != 0 {
		t.Fatalf("uploads of distinct types must not delete assets, deleted=%v", f.broker.deleted)
	}
}

func TestUploadDocumentAbortsWhenOldAssetDeleteFails(t *testing.T) {
	f := newKYCFixture(t)
	ctx := context.Background()

	first, err := f.svc.UploadDocument(ctx, f.owner, f.vendorID, uploadInput(enums.DocumentTypeCNIC, "cnic-v1.pdf"))
	if err != nil {
		t.Fatalf("cnic upload: %v", err)
	}
	f.repo.byVendor[f.vendorID].Status = enums.KYCStatusApproved
	f.broker.deleteErrFor[first.AssetID] = fmt.Errorf("upstream 500")

	_, err = f.svc.UploadDocument(ctx, f.owner, f.vendorID, uploadInput(enums.DocumentTypeCNIC, "cnic-v2.pdf"))
	assertCode(t, err, pkgerrors.CodeDependency)

	record := f.repo.byVendor[f.vendorID]
	if record.Status != enums.KYCStatusApproved {
		t.Fatalf("aborted replacement must not touch status, got %s", record.Status)
	}
	if record.Documents[0].AssetID != first.AssetID {
		t.Fatal("aborted replacement must keep the old metadata")
	}
	// The fresh upload is discarded, not orphaned.
	discarded := false
	for _, id := range f.broker.deleted {
		if id != first.AssetID {
			discarded = true
		}
	}
	if !discarded {
		t.Fatalf("expected the fresh asset to be discarded, deleted=%v", f.broker.deleted)
	}
}

func TestUploadDocumentAuthorization(t *testing.T) {
	f := newKYCFixture(t)
	ctx := context.Background()

	_, err := f.svc.UploadDocument(ctx, Actor{}, f.vendorID, uploadInput(enums.DocumentTypeCNIC, "cnic.pdf"))
	assertCode(t, err, pkgerrors.CodeUnauthorized)

	_, err = f.svc.UploadDocument(ctx, f.stranger, f.vendorID, uploadInput(enums.DocumentTypeCNIC, "cnic.pdf"))
	assertCode(t, err, pkgerrors.CodeForbidden)

	// Admins review submissions, they do not make them.
	_, err = f.svc.UploadDocument(ctx, f.admin, f.vendorID, uploadInput(enums.DocumentTypeCNIC, "cnic.pdf"))
	assertCode(t, err, pkgerrors.CodeForbidden)

	_, err = f.svc.UploadDocument(ctx, f.owner, uuid.New(), uploadInput(enums.DocumentTypeCNIC, "cnic.pdf"))
	assertCode(t, err, pkgerrors.CodeNotFound)

	_, err = f.svc.UploadDocument(ctx, f.owner, f.vendorID, uploadInput(enums.DocumentType("BANK_STATEMENT"), "doc.pdf"))
	assertCode(t, err, pkgerrors.CodeValidation)

	if f.broker.uploads != 0 {
		t.Fatalf("rejected uploads must not reach storage, got %d", f.broker.uploads)
	}
}

func TestListDocumentsSynthesizesNotStarted(t *testing.T) {
	f := newKYCFixture(t)

	view, err := f.svc.ListDocuments(context.Background(), f.owner, f.vendorID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if view.Status != enums.KYCStatusNotStarted {
		t.Fatalf("expected NOT_STARTED, got %s", view.Status)
	}
	if len(view.Documents) != 0 {
		t.Fatalf("expected no documents, got %d", len(view.Documents))
	}
}

func TestListDocumentsMintsViewerLinks(t *testing.T) {
	f := newKYCFixture(t)
	ctx := context.Background()

	if _, err := f.svc.UploadDocument(ctx, f.owner, f.vendorID, uploadInput(enums.DocumentTypeCNIC, "cnic.pdf")); err != nil {
		t.Fatalf("upload: %v", err)
	}

	for _, actor := range []Actor{f.owner, f.admin} {
		view, err := f.svc.ListDocuments(ctx, actor, f.vendorID)
		if err != nil {
			t.Fatalf("list as %s: %v", actor.Role, err)
		}
		if len(view.Documents) != 1 {
			t.Fatalf("expected one document, got %d", len(view.Documents))
		}
		doc := view.Documents[0]
		if !strings.Contains(doc.SignedURL, "tier=viewer") {
			t.Fatalf("expected viewer-tier link, got %q", doc.SignedURL)
		}
		if doc.URLExpires == nil || !doc.URLExpires.After(time.Now()) {
			t.Fatal("expected a future expiry on the signed link")
		}
	}

	_, err := f.svc.ListDocuments(ctx, f.stranger, f.vendorID)
	assertCode(t, err, pkgerrors.CodeForbidden)
}

func TestDeleteDocumentGuardsCrossVendorIDs(t *testing.T) {
	f := newKYCFixture(t)
	ctx := context.Background()

	if _, err := f.svc.UploadDocument(ctx, f.owner, f.vendorID, uploadInput(enums.DocumentTypeCNIC, "cnic.pdf")); err != nil {
		t.Fatalf("upload: %v", err)
	}

	otherOwner := uuid.New()
	otherVendor := uuid.New()
	f.vendors.vendors[otherVendor] = &models.Vendor{ID: otherVendor, UserID: otherOwner, ShopName: "other-shop"}
	other := Actor{UserID: otherOwner, Role: enums.UserRoleUser}
	if _, err := f.svc.UploadDocument(ctx, other, otherVendor, uploadInput(enums.DocumentTypePassport, "passport.pdf")); err != nil {
		t.Fatalf("other upload: %v", err)
	}
	foreignDocID := f.repo.byVendor[otherVendor].Documents[0].ID

	// A real document id under the wrong vendor reads as absent.
	err := f.svc.DeleteDocument(ctx, f.owner, f.vendorID, foreignDocID)
	assertCode(t, err, pkgerrors.CodeNotFound)

	ownDocID := f.repo.byVendor[f.vendorID].Documents[0].ID
	ownAsset := f.repo.byVendor[f.vendorID].Documents[0].AssetID
	if err := f.svc.DeleteDocument(ctx, f.owner, f.vendorID, ownDocID); err != nil {
		t.Fatalf("delete own document: %v", err)
	}
	if len(f.repo.byVendor[f.vendorID].Documents) != 0 {
		t.Fatal("expected document row to be removed")
	}
	removed := false
	for _, id := range f.broker.deleted {
		if id == ownAsset {
			removed = true
		}
	}
	if !removed {
		t.Fatalf("expected asset %s to be deleted", ownAsset)
	}
}

func TestSignedURLModesAndAccess(t *testing.T) {
	f := newKYCFixture(t)
	ctx := context.Background()

	doc, err := f.svc.UploadDocument(ctx, f.owner, f.vendorID, uploadInput(enums.DocumentTypeCNIC, "cnic.pdf"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	link, err := f.svc.SignedURL(ctx, f.owner, doc.AssetID, "")
	if err != nil {
		t.Fatalf("self-service link: %v", err)
	}
	if !strings.Contains(link.URL, "tier=self_service") {
		t.Fatalf("expected self-service tier, got %q", link.URL)
	}

	link, err = f.svc.SignedURL(ctx, f.owner, doc.AssetID, ModePreviewImage)
	if err != nil {
		t.Fatalf("preview-image link: %v", err)
	}
	// Preview rendering keeps the self-service lifetime; only admins get
	// the short admin tier.
	if !strings.Contains(link.URL, "tier=self_preview") {
		t.Fatalf("expected self-service preview tier, got %q", link.URL)
	}

	_, err = f.svc.SignedURL(ctx, f.owner, doc.AssetID, "raw-download")
	assertCode(t, err, pkgerrors.CodeValidation)

	_, err = f.svc.SignedURL(ctx, f.stranger, doc.AssetID, "")
	assertCode(t, err, pkgerrors.CodeForbidden)

	_, err = f.svc.SignedURL(ctx, f.owner, "kyc/does-not-exist", "")
	assertCode(t, err, pkgerrors.CodeNotFound)
}

func TestPreviewIsAdminOnly(t *testing.T) {
	f := newKYCFixture(t)
	ctx := context.Background()

	doc, err := f.svc.UploadDocument(ctx, f.owner, f.vendorID, uploadInput(enums.DocumentTypeCNIC, "cnic.pdf"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	_, err = f.svc.Preview(ctx, f.owner, doc.AssetID)
	assertCode(t, err, pkgerrors.CodeForbidden)

	link, err := f.svc.Preview(ctx, f.admin, doc.AssetID)
	if err != nil {
		t.Fatalf("admin preview: %v", err)
	}
	if !strings.Contains(link.URL, "tier=admin_preview") {
		t.Fatalf("expected preview tier, got %q", link.URL)
	}
}

func TestSetStatusIsAdminOnly(t *testing.T) {
	f := newKYCFixture(t)
	ctx := context.Background()

	if _, err := f.svc.UploadDocument(ctx, f.owner, f.vendorID, uploadInput(enums.DocumentTypeCNIC, "cnic.pdf")); err != nil {
		t.Fatalf("upload: %v", err)
	}

	_, err := f.svc.SetStatus(ctx, f.owner, f.vendorID, enums.KYCStatusApproved)
	assertCode(t, err, pkgerrors.CodeForbidden)

	// The synthetic presentation value can never be persisted.
	_, err = f.svc.SetStatus(ctx, f.admin, f.vendorID, enums.KYCStatusNotStarted)
	assertCode(t, err, pkgerrors.CodeValidation)

	view, err := f.svc.SetStatus(ctx, f.admin, f.vendorID, enums.KYCStatusApproved)
	if err != nil {
		t.Fatalf("set status: %v", err)
	}
	if view.Status != enums.KYCStatusApproved {
		t.Fatalf("expected APPROVED, got %s", view.Status)
	}
	if f.repo.byVendor[f.vendorID].Status != enums.KYCStatusApproved {
		t.Fatal("expected persisted status change")
	}

	_, err = f.svc.SetStatus(ctx, f.admin, uuid.New(), enums.KYCStatusApproved)
	assertCode(t, err, pkgerrors.CodeNotFound)
}
