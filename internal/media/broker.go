package media

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/onmall/onmall-backend/pkg/config"
	"github.com/onmall/onmall-backend/pkg/enums"
	pkgerrors "github.com/onmall/onmall-backend/pkg/errors"
	"github.com/onmall/onmall-backend/pkg/logger"
	"github.com/onmall/onmall-backend/pkg/storage/cloudinary"
)

// AccessTier controls how long a signed media URL stays valid and which
// rendering transformation is applied.
type AccessTier string

const (
	// TierSelfService is used by vendors reading their own documents.
	TierSelfService AccessTier = "self_service"
	// TierSelfPreview renders the first-page PNG at the self-service TTL.
	TierSelfPreview AccessTier = "self_preview"
	// TierAdminPreview renders a first-page PNG preview for review queues.
	TierAdminPreview AccessTier = "admin_preview"
	// TierViewer is the long-lived tier for full document review.
	TierViewer AccessTier = "viewer"
)

const previewTransformation = "pg_1,f_png"

type assetClient interface {
	Upload(ctx context.Context, params cloudinary.UploadParams, logg *logger.Logger) (*cloudinary.UploadResult, error)
	DeleteAsset(ctx context.Context, publicID string, logg *logger.Logger) error
	SignedURL(publicID string, transformation string, ttl time.Duration) (string, error)
}

// UploadInput models one incoming file.
type UploadInput struct {
	Kind      enums.MediaKind
	FileName  string
	MimeType  string
	SizeBytes int64
	Body      io.Reader
}

// Asset describes a stored upload.
type Asset struct {
	AssetID   string `json:"asset_id"`
	FileName  string `json:"file_name"`
	Format    string `json:"format"`
	SizeBytes int64  `json:"size_bytes"`
}

// SignedLink is a time-limited read URL for one asset.
type SignedLink struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Broker owns upload validation, storage hand-off, and signed read URLs.
// Assets are always stored as authenticated resources; nothing the broker
// produces is publicly readable without a token.
type Broker interface {
	Upload(ctx context.Context, input UploadInput) (*Asset, error)
	SignedURL(assetID string, tier AccessTier) (*SignedLink, error)
	DeleteAsset(ctx context.Context, assetID string) error
}

type broker struct {
	client         assetClient
	logg           *logger.Logger
	maxUploadBytes int64
	selfServiceTTL time.Duration
	previewTTL     time.Duration
	viewerTTL      time.Duration
	kycFolder      string
	productFolder  string
}

var mimeTypesByKind = map[enums.MediaKind][]string{
	enums.MediaKindProduct: {"image/png", "image/jpeg", "image/webp", "image/gif"},
	enums.MediaKindKYCDoc:  {"image/png", "image/jpeg", "application/pdf"},
	enums.MediaKindUser:    {"image/png", "image/jpeg", "image/webp"},
}

// NewBroker constructs the media broker from configuration.
func NewBroker(client assetClient, cfg config.MediaConfig, logg *logger.Logger) (Broker, error) {
	if client == nil {
		return nil, fmt.Errorf("asset client required")
	}
	if cfg.MaxUploadMB <= 0 {
		return nil, fmt.Errorf("max upload size must be positive")
	}
	if cfg.SignedURLTTL <= 0 || cfg.PreviewTTL <= 0 || cfg.ViewerTTL <= 0 {
		return nil, fmt.Errorf("signed url ttls must be positive")
	}
	return &broker{
		client:         client,
		logg:           logg,
		maxUploadBytes: int64(cfg.MaxUploadMB) * 1024 * 1024,
		selfServiceTTL: cfg.SignedURLTTL,
		previewTTL:     cfg.PreviewTTL,
		viewerTTL:      cfg.ViewerTTL,
		kycFolder:      cfg.KYCFolder,
		productFolder:  cfg.ProductFolder,
	}, nil
}

func (b *broker) Upload(ctx context.Context, input UploadInput) (*Asset, error) {
	if input.Kind == "" || !input.Kind.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid media kind")
	}
	if input.Body == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file body is required")
	}

	fileName := strings.TrimSpace(input.FileName)
	if fileName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file_name is required")
	}
	if input.SizeBytes <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "size_bytes must be positive")
	}
	if input.SizeBytes > b.maxUploadBytes {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("size_bytes must be <= %d bytes", b.maxUploadBytes))
	}

	mimeType := strings.TrimSpace(input.MimeType)
	if mimeType == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "mime_type is required")
	}
	if !isAllowedMime(input.Kind, mimeType) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "mime_type not allowed for media kind")
	}

	cleanName := sanitizeFileName(fileName)
	publicID := uuid.NewString()
	if cleanName != "" {
		// Keep a readable stem in the object key.
		publicID = fmt.Sprintf("%s-%s", strings.TrimSuffix(cleanName, path.Ext(cleanName)), publicID)
	}

	result, err := b.client.Upload(ctx, cloudinary.UploadParams{
		PublicID: publicID,
		Folder:   b.folderFor(input.Kind),
		FileName: fileName,
		MimeType: mimeType,
		Body:     io.LimitReader(input.Body, b.maxUploadBytes+1),
	}, b.logg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store asset")
	}

	size := result.Bytes
	if size == 0 {
		size = input.SizeBytes
	}

	return &Asset{
		AssetID:   result.PublicID,
		FileName:  fileName,
		Format:    result.Format,
		SizeBytes: size,
	}, nil
}

func (b *broker) SignedURL(assetID string, tier AccessTier) (*SignedLink, error) {
	if strings.TrimSpace(assetID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "asset id is required")
	}

	var ttl time.Duration
	transformation := ""
	switch tier {
	case TierSelfService:
		ttl = b.selfServiceTTL
	case TierSelfPreview:
		ttl = b.selfServiceTTL
		transformation = previewTransformation
	case TierAdminPreview:
		ttl = b.previewTTL
		transformation = previewTransformation
	case TierViewer:
		ttl = b.viewerTTL
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown access tier")
	}

	url, err := b.client.SignedURL(assetID, transformation, ttl)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sign read url")
	}
	return &SignedLink{
		URL:       url,
		ExpiresAt: time.Now().Add(ttl),
	}, nil
}

func (b *broker) DeleteAsset(ctx context.Context, assetID string) error {
	if strings.TrimSpace(assetID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "asset id is required")
	}
	if err := b.client.DeleteAsset(ctx, assetID, b.logg); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete asset")
	}
	return nil
}

func (b *broker) folderFor(kind enums.MediaKind) string {
	switch kind {
	case enums.MediaKindKYCDoc:
		return b.kycFolder
	case enums.MediaKindProduct:
		return b.productFolder
	default:
		return string(kind)
	}
}

func isAllowedMime(kind enums.MediaKind, mimeType string) bool {
	if allowed, ok := mimeTypesByKind[kind]; ok && len(allowed) > 0 {
		for _, candidate := range allowed {
			if strings.EqualFold(candidate, mimeType) {
				return true
			}
		}
		return false
	}
	return true
}

func sanitizeFileName(name string) string {
	if name == "" {
		return ""
	}
	clean := path.Base(strings.TrimSpace(name))
	if clean == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(clean))
	for _, r := range clean {
		switch {
		case r == '/' || r == '\\' || unicode.IsControl(r):
			continue
		case unicode.IsSpace(r):
			b.WriteRune('-')
		default:
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), "-_.")
}
