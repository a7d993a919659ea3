package cloudinary

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/onmall/onmall-backend/pkg/config"
	"github.com/onmall/onmall-backend/pkg/logger"
)

const (
	pingTimeout   = 5 * time.Second
	uploadTimeout = 60 * time.Second

	// deliveryType marks assets that require a signed token to read.
	deliveryType = "authenticated"
)

// Client talks to the Cloudinary upload and admin APIs over plain HTTP.
type Client struct {
	httpClient     *http.Client
	cloudName      string
	apiKey         string
	apiSecret      string
	uploadPrefix   string
	deliveryPrefix string
}

// Pinger exposes the health check surface.
type Pinger interface {
	Ping(ctx context.Context) error
}

// UploadParams describes one asset upload.
type UploadParams struct {
	PublicID string
	Folder   string
	FileName string
	MimeType string
	Body     io.Reader
}

// UploadResult is the subset of the upload response the platform keeps.
type UploadResult struct {
	PublicID string `json:"public_id"`
	Format   string `json:"format"`
	Bytes    int64  `json:"bytes"`
	Version  int64  `json:"version"`
}

func closeBody(ctx context.Context, logg *logger.Logger, body io.Closer, msg string) {
	if body == nil {
		return
	}
	if err := body.Close(); err != nil && logg != nil {
		logg.Warn(ctx, msg)
	}
}

// NewClient validates the configuration and verifies API reachability.
func NewClient(ctx context.Context, cfg config.CloudinaryConfig, logg *logger.Logger) (*Client, error) {
	if cfg.CloudName == "" {
		return nil, errors.New("cloudinary cloud name is required")
	}
	if cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, errors.New("cloudinary api credentials are required")
	}

	client := &Client{
		httpClient:     &http.Client{Timeout: uploadTimeout},
		cloudName:      cfg.CloudName,
		apiKey:         cfg.APIKey,
		apiSecret:      cfg.APISecret,
		uploadPrefix:   strings.TrimRight(cfg.UploadPrefix, "/"),
		deliveryPrefix: strings.TrimRight(cfg.DeliveryPrefix, "/"),
	}

	if err := client.Ping(ctx); err != nil {
		return nil, fmt.Errorf("cloudinary health check failed: %w", err)
	}

	if logg != nil {
		logg.Info(ctx, "cloudinary client initialized")
	}

	return client, nil
}

// Ping calls the admin usage endpoint with basic auth.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.httpClient == nil {
		return errors.New("cloudinary client not initialized")
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	u := fmt.Sprintf("%s/v1_1/%s/usage", c.uploadPrefix, url.PathEscape(c.cloudName))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.apiKey, c.apiSecret)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		if len(b) > 0 {
			return fmt.Errorf("cloudinary usage check failed: %s: %s", resp.Status, strings.TrimSpace(string(b)))
		}
		return fmt.Errorf("cloudinary usage check failed: %s", resp.Status)
	}

	return nil
}

// Upload stores the asset as an authenticated resource and returns the
// canonical public ID Cloudinary assigned.
func (c *Client) Upload(ctx context.Context, params UploadParams, logg *logger.Logger) (*UploadResult, error) {
	if params.Body == nil {
		return nil, errors.New("upload body is required")
	}
	if params.PublicID == "" {
		return nil, errors.New("public id is required")
	}

	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	publicID := params.PublicID
	if params.Folder != "" {
		publicID = params.Folder + "/" + params.PublicID
	}

	signed := map[string]string{
		"public_id": publicID,
		"timestamp": timestamp,
		"type":      deliveryType,
	}
	signature := c.signParams(signed)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key, value := range signed {
		if err := writer.WriteField(key, value); err != nil {
			return nil, fmt.Errorf("writing form field %s: %w", key, err)
		}
	}
	if err := writer.WriteField("api_key", c.apiKey); err != nil {
		return nil, fmt.Errorf("writing api key: %w", err)
	}
	if err := writer.WriteField("signature", signature); err != nil {
		return nil, fmt.Errorf("writing signature: %w", err)
	}

	part, err := writer.CreateFormFile("file", params.FileName)
	if err != nil {
		return nil, fmt.Errorf("creating file part: %w", err)
	}
	if _, err := io.Copy(part, params.Body); err != nil {
		return nil, fmt.Errorf("copying upload body: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("closing multipart writer: %w", err)
	}

	u := fmt.Sprintf("%s/v1_1/%s/image/upload", c.uploadPrefix, url.PathEscape(c.cloudName))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { closeBody(ctx, logg, resp.Body, "cloudinary: closing upload response body failed") }()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("cloudinary upload failed: %s: %s", resp.Status, strings.TrimSpace(string(b)))
	}

	var result UploadResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding upload response: %w", err)
	}
	if result.PublicID == "" {
		result.PublicID = publicID
	}
	return &result, nil
}

// DeleteAsset removes the asset. A "not found" result is treated as
// success so retried deletions stay idempotent.
func (c *Client) DeleteAsset(ctx context.Context, publicID string, logg *logger.Logger) error {
	if publicID == "" {
		return errors.New("public id is required")
	}

	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	signed := map[string]string{
		"public_id": publicID,
		"timestamp": timestamp,
		"type":      deliveryType,
	}
	signature := c.signParams(signed)

	form := url.Values{}
	for key, value := range signed {
		form.Set(key, value)
	}
	form.Set("api_key", c.apiKey)
	form.Set("signature", signature)

	u := fmt.Sprintf("%s/v1_1/%s/image/destroy", c.uploadPrefix, url.PathEscape(c.cloudName))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { closeBody(ctx, logg, resp.Body, "cloudinary: closing destroy response body failed") }()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("cloudinary destroy failed: %s: %s", resp.Status, strings.TrimSpace(string(b)))
	}

	var result struct {
		Result string `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decoding destroy response: %w", err)
	}
	switch result.Result {
	case "ok", "not found":
		return nil
	default:
		return fmt.Errorf("cloudinary destroy returned %q", result.Result)
	}
}

// SignedURL builds a token-protected delivery URL that expires at TTL.
// The optional transformation segment is inserted before the public ID.
func (c *Client) SignedURL(publicID string, transformation string, ttl time.Duration) (string, error) {
	if publicID == "" {
		return "", errors.New("public id is required")
	}
	if ttl <= 0 {
		return "", errors.New("ttl must be positive")
	}

	segments := []string{c.cloudName, "image", deliveryType}
	if transformation != "" {
		segments = append(segments, transformation)
	}
	segments = append(segments, publicID)
	path := "/" + strings.Join(segments, "/")

	expires := time.Now().Add(ttl).Unix()
	token := c.deliveryToken(path, expires)

	return fmt.Sprintf("%s%s?__cld_token__=exp=%d~hmac=%s", c.deliveryPrefix, path, expires, token), nil
}

// VerifyDeliveryToken reports whether the token matches the path and has
// not expired. The media broker uses it when replaying stored URLs.
func (c *Client) VerifyDeliveryToken(path string, expires int64, token string) bool {
	if time.Now().Unix() >= expires {
		return false
	}
	expected := c.deliveryToken(path, expires)
	return hmac.Equal([]byte(expected), []byte(token))
}

func (c *Client) deliveryToken(path string, expires int64) string {
	payload := fmt.Sprintf("exp=%d~url=%s", expires, path)
	mac := hmac.New(sha256.New, []byte(c.apiSecret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

// signParams produces the SHA1 signature the upload API expects: the
// sorted key=value pairs joined by "&" with the secret appended.
func (c *Client) signParams(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, key+"="+params[key])
	}
	payload := strings.Join(pairs, "&") + c.apiSecret

	sum := sha1.Sum([]byte(payload))
	return hex.EncodeToString(sum[:])
}
