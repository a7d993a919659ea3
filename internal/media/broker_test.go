package media

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/onmall/onmall-backend/pkg/config"
	"github.com/onmall/onmall-backend/pkg/enums"
	pkgerrors "github.com/onmall/onmall-backend/pkg/errors"
	"github.com/onmall/onmall-backend/pkg/logger"
	"github.com/onmall/onmall-backend/pkg/storage/cloudinary"
)

type stubAssetClient struct {
	uploaded   []cloudinary.UploadParams
	uploadErr  error
	deleted    []string
	deleteErr  error
	signedArgs []signedCall
	signErr    error
}

type signedCall struct {
	publicID       string
	transformation string
	ttl            time.Duration
}

func (s *stubAssetClient) Upload(ctx context.Context, params cloudinary.UploadParams, logg *logger.Logger) (*cloudinary.UploadResult, error) {
	if s.uploadErr != nil {
		return nil, s.uploadErr
	}
	s.uploaded = append(s.uploaded, params)
	return &cloudinary.UploadResult{
		PublicID: params.Folder + "/" + params.PublicID,
		Format:   "png",
		Bytes:    128,
	}, nil
}

func (s *stubAssetClient) DeleteAsset(ctx context.Context, publicID string, logg *logger.Logger) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deleted = append(s.deleted, publicID)
	return nil
}

func (s *stubAssetClient) SignedURL(publicID string, transformation string, ttl time.Duration) (string, error) {
	if s.signErr != nil {
		return "", s.signErr
	}
	s.signedArgs = append(s.signedArgs, signedCall{publicID: publicID, transformation: transformation, ttl: ttl})
	return "https://res.cloudinary.test/signed/" + publicID, nil
}

func testMediaConfig() config.MediaConfig {
	return config.MediaConfig{
		MaxUploadMB:   10,
		SignedURLTTL:  10 * time.Minute,
		PreviewTTL:    5 * time.Minute,
		ViewerTTL:     time.Hour,
		KYCFolder:     "kyc",
		ProductFolder: "products",
	}
}

func newTestBroker(t *testing.T, client *stubAssetClient) Broker {
	t.Helper()
	b, err := NewBroker(client, testMediaConfig(), nil)
	if err != nil {
		t.Fatalf("new broker: %v", err)
	}
	return b
}

func TestUploadStoresKYCDocInKYCFolder(t *testing.T) {
	client := &stubAssetClient{}
	b := newTestBroker(t, client)

	asset, err := b.Upload(context.Background(), UploadInput{
		Kind:      enums.MediaKindKYCDoc,
		FileName:  "My CNIC.pdf",
		MimeType:  "application/pdf",
		SizeBytes: 1024,
		Body:      strings.NewReader("pdf-bytes"),
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	if len(client.uploaded) != 1 {
		t.Fatalf("expected one stored asset")
	}
	stored := client.uploaded[0]
	if stored.Folder != "kyc" {
		t.Fatalf("expected kyc folder, got %q", stored.Folder)
	}
	if !strings.HasPrefix(stored.PublicID, "My-CNIC-") {
		t.Fatalf("expected sanitized stem in public id, got %q", stored.PublicID)
	}
	if asset.AssetID == "" || asset.SizeBytes != 128 {
		t.Fatalf("unexpected asset %+v", asset)
	}
}

func TestUploadRejectsBadInput(t *testing.T) {
	client := &stubAssetClient{}
	b := newTestBroker(t, client)
	ctx := context.Background()

	valid := func() UploadInput {
		return UploadInput{
			Kind:      enums.MediaKindKYCDoc,
			FileName:  "doc.pdf",
			MimeType:  "application/pdf",
			SizeBytes: 100,
			Body:      strings.NewReader("x"),
		}
	}

	cases := []struct {
		name   string
		mutate func(*UploadInput)
	}{
		{"unknown kind", func(in *UploadInput) { in.Kind = "banner" }},
		{"empty file name", func(in *UploadInput) { in.FileName = "  " }},
		{"zero size", func(in *UploadInput) { in.SizeBytes = 0 }},
		{"oversized", func(in *UploadInput) { in.SizeBytes = 11 * 1024 * 1024 }},
		{"missing mime", func(in *UploadInput) { in.MimeType = "" }},
		{"mime not allowed for kind", func(in *UploadInput) { in.MimeType = "video/mp4" }},
		// Product media is image-only; the upload endpoint posts to the
		// image resource path.
		{"video rejected for products", func(in *UploadInput) {
			in.Kind = enums.MediaKindProduct
			in.FileName = "clip.mp4"
			in.MimeType = "video/mp4"
		}},
		{"webm rejected for products", func(in *UploadInput) {
			in.Kind = enums.MediaKindProduct
			in.FileName = "clip.webm"
			in.MimeType = "video/webm"
		}},
		{"nil body", func(in *UploadInput) { in.Body = nil }},
	}

	for _, tc := range cases {
		input := valid()
		tc.mutate(&input)
		_, err := b.Upload(ctx, input)
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("%s: expected validation error, got %v", tc.name, err)
		}
	}
	if len(client.uploaded) != 0 {
		t.Fatalf("invalid input must not reach storage")
	}
}

func TestSignedURLTiers(t *testing.T) {
	client := &stubAssetClient{}
	b := newTestBroker(t, client)

	cases := []struct {
		tier           AccessTier
		ttl            time.Duration
		transformation string
	}{
		{TierSelfService, 10 * time.Minute, ""},
		{TierSelfPreview, 10 * time.Minute, "pg_1,f_png"},
		{TierAdminPreview, 5 * time.Minute, "pg_1,f_png"},
		{TierViewer, time.Hour, ""},
	}

	for _, tc := range cases {
		link, err := b.SignedURL("kyc/doc-1", tc.tier)
		if err != nil {
			t.Fatalf("%s: %v", tc.tier, err)
		}
		if link.URL == "" {
			t.Fatalf("%s: empty url", tc.tier)
		}
		call := client.signedArgs[len(client.signedArgs)-1]
		if call.ttl != tc.ttl {
			t.Fatalf("%s: expected ttl %v, got %v", tc.tier, tc.ttl, call.ttl)
		}
		if call.transformation != tc.transformation {
			t.Fatalf("%s: expected transformation %q, got %q", tc.tier, tc.transformation, call.transformation)
		}
		remaining := time.Until(link.ExpiresAt)
		if remaining <= 0 || remaining > tc.ttl {
			t.Fatalf("%s: expiry out of range: %v", tc.tier, remaining)
		}
	}

	if _, err := b.SignedURL("kyc/doc-1", "backstage"); err == nil {
		t.Fatal("expected error for unknown tier")
	}
	if _, err := b.SignedURL(" ", TierViewer); err == nil {
		t.Fatal("expected error for blank asset id")
	}
}

func TestDeleteAssetDelegates(t *testing.T) {
	client := &stubAssetClient{}
	b := newTestBroker(t, client)

	if err := b.DeleteAsset(context.Background(), "kyc/doc-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(client.deleted) != 1 || client.deleted[0] != "kyc/doc-1" {
		t.Fatalf("unexpected delete calls %v", client.deleted)
	}
}
