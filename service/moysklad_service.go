package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"ms-loyalty/config"
	"ms-loyalty/models"
)

const positionsPageLimit = 100

// MoySkladService handles MoySklad JSON API operations
type MoySkladService struct {
	baseURL  string
	authMode string
	token    string
	login    string
	password string
	client   *http.Client
	logger   *zap.Logger

	mu            sync.Mutex
	metadataCache map[string]map[string]models.AttributeMetadata
}

// Ensure MoySkladService implements MoySkladServiceInterface
var _ MoySkladServiceInterface = (*MoySkladService)(nil)

// NewMoySkladService creates a new MoySkladService from the service configuration
func NewMoySkladService(cfg *config.Config, logger *zap.Logger) *MoySkladService {
	return &MoySkladService{
		baseURL:       strings.TrimRight(cfg.MoySklad.BaseURL, "/") + "/",
		authMode:      cfg.MoySklad.AuthMode,
		token:         cfg.MoySklad.Token,
		login:         cfg.MoySklad.Login,
		password:      cfg.MoySklad.Password,
		client:        &http.Client{Timeout: cfg.RequestTimeout()},
		logger:        logger,
		metadataCache: make(map[string]map[string]models.AttributeMetadata),
	}
}

// authHeader returns the Authorization header value for the configured mode
func (s *MoySkladService) authHeader() (string, error) {
	switch s.authMode {
	case config.AuthModeBearer:
		if s.token == "" {
			return "", fmt.Errorf("%w: MS_TOKEN is required for bearer auth", ErrMissingCredentials)
		}
		return "Bearer " + s.token, nil
	case config.AuthModeBasic:
		if s.login == "" {
			return "", fmt.Errorf("%w: MS_LOGIN is required for basic auth", ErrMissingCredentials)
		}
		raw := s.login + ":" + s.password
		return "Basic " + base64.StdEncoding.EncodeToString([]byte(raw)), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedAuth, s.authMode)
}

// resolveURL joins a relative path onto the base URL; absolute URLs are used as-is
func (s *MoySkladService) resolveURL(pathOrURL string, params url.Values) (string, error) {
	raw := pathOrURL
	if !strings.HasPrefix(pathOrURL, "http://") && !strings.HasPrefix(pathOrURL, "https://") {
		raw = s.baseURL + strings.TrimLeft(pathOrURL, "/")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", raw, err)
	}
	if len(params) > 0 {
		q := u.Query()
		for key, values := range params {
			for _, v := range values {
				q.Add(key, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// Request performs one API call. body is JSON-encoded when non-nil and the
// response is decoded into out when out is non-nil and the response has a body.
func (s *MoySkladService) Request(ctx context.Context, method, pathOrURL string, params url.Values, body any, out any) error {
	fullURL, err := s.resolveURL(pathOrURL, params)
	if err != nil {
		return err
	}
	auth, err := s.authHeader()
	if err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json;charset=utf-8")
	req.Header.Set("Content-Type", "application/json;charset=utf-8")
	req.Header.Set("Authorization", auth)

	s.logger.Debug("MS request", zap.String("method", method), zap.String("url", fullURL))

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("moysklad %s %s: %w", method, fullURL, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		s.logger.Error("❌ MS error",
			zap.Int("status", resp.StatusCode),
			zap.String("url", fullURL),
			zap.ByteString("body", data))
		return &APIError{Method: method, URL: fullURL, StatusCode: resp.StatusCode, Body: string(data)}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", fullURL, err)
	}
	return nil
}

func expandParams(expand string) url.Values {
	if expand == "" {
		return nil
	}
	return url.Values{"expand": {expand}}
}

// GetDocument fetches /entity/{docType}/{docID}
func (s *MoySkladService) GetDocument(ctx context.Context, docType, docID, expand string) (*models.Document, error) {
	var doc models.Document
	path := fmt.Sprintf("/entity/%s/%s", docType, docID)
	if err := s.Request(ctx, http.MethodGet, path, expandParams(expand), nil, &doc); err != nil {
		return nil, fmt.Errorf("failed to get %s %s: %w", docType, docID, err)
	}
	return &doc, nil
}

// GetAssortment fetches a product or variant by its href
func (s *MoySkladService) GetAssortment(ctx context.Context, href string) (*models.Assortment, error) {
	var assortment models.Assortment
	if err := s.Request(ctx, http.MethodGet, href, nil, nil, &assortment); err != nil {
		return nil, err
	}
	return &assortment, nil
}

// UpdateDocument sends a PUT to /entity/{docType}/{docID}
func (s *MoySkladService) UpdateDocument(ctx context.Context, docType, docID string, update *models.DocumentUpdate) error {
	path := fmt.Sprintf("/entity/%s/%s", docType, docID)
	if err := s.Request(ctx, http.MethodPut, path, nil, update, nil); err != nil {
		return fmt.Errorf("failed to update %s %s: %w", docType, docID, err)
	}
	return nil
}

// GetAllPositions fetches every position of a document, 100 rows per page,
// until meta.size rows have been read or a page comes back empty
func (s *MoySkladService) GetAllPositions(ctx context.Context, docType, docID, expand string) ([]models.Position, error) {
	path := fmt.Sprintf("/entity/%s/%s/positions", docType, docID)
	var all []models.Position

	for offset := 0; ; offset += positionsPageLimit {
		params := url.Values{
			"limit":  {strconv.Itoa(positionsPageLimit)},
			"offset": {strconv.Itoa(offset)},
		}
		if expand != "" {
			params.Set("expand", expand)
		}

		var page models.PositionsPage
		if err := s.Request(ctx, http.MethodGet, path, params, nil, &page); err != nil {
			return nil, fmt.Errorf("failed to get positions of %s %s: %w", docType, docID, err)
		}
		all = append(all, page.Rows...)

		if len(all) >= page.Meta.Size || len(page.Rows) == 0 {
			break
		}
	}
	return all, nil
}

// Metadata returns the attribute metadata of entity keyed by attribute name.
// Results are cached for the lifetime of the service.
func (s *MoySkladService) Metadata(ctx context.Context, entity string) (map[string]models.AttributeMetadata, error) {
	s.mu.Lock()
	cached, ok := s.metadataCache[entity]
	s.mu.Unlock()
	if ok {
		return cached, nil
	}

	var meta models.EntityMetadata
	if err := s.Request(ctx, http.MethodGet, fmt.Sprintf("/entity/%s/metadata", entity), nil, nil, &meta); err != nil {
		return nil, fmt.Errorf("failed to get %s metadata: %w", entity, err)
	}

	attrs, err := s.metadataAttributes(ctx, meta.Attributes)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]models.AttributeMetadata, len(attrs))
	for _, attr := range attrs {
		if attr.Name != "" {
			byName[attr.Name] = attr
		}
	}

	s.mu.Lock()
	s.metadataCache[entity] = byName
	s.mu.Unlock()
	return byName, nil
}

// metadataAttributes handles the three shapes of the attributes field: a
// plain list, a collection with rows, and a collection reference to follow
func (s *MoySkladService) metadataAttributes(ctx context.Context, raw json.RawMessage) ([]models.AttributeMetadata, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] == 'n' {
		return nil, nil
	}

	if raw[0] == '[' {
		var list []models.AttributeMetadata
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, fmt.Errorf("failed to decode attribute metadata: %w", err)
		}
		return list, nil
	}

	var collection struct {
		Meta models.Meta                `json:"meta"`
		Rows []models.AttributeMetadata `json:"rows"`
	}
	if err := json.Unmarshal(raw, &collection); err != nil {
		return nil, fmt.Errorf("failed to decode attribute metadata: %w", err)
	}
	if len(collection.Rows) > 0 || collection.Meta.Size == 0 || collection.Meta.Href == "" {
		return collection.Rows, nil
	}

	var fetched struct {
		Rows []models.AttributeMetadata `json:"rows"`
	}
	if err := s.Request(ctx, http.MethodGet, collection.Meta.Href, nil, nil, &fetched); err != nil {
		return nil, fmt.Errorf("failed to get attribute metadata collection: %w", err)
	}
	return fetched.Rows, nil
}

// AttributeMeta returns the metadata of one attribute, or nil when unknown
func (s *MoySkladService) AttributeMeta(ctx context.Context, entity, name string) (*models.AttributeMetadata, error) {
	if name == "" {
		return nil, nil
	}
	byName, err := s.Metadata(ctx, entity)
	if err != nil {
		return nil, err
	}
	attr, ok := byName[name]
	if !ok {
		return nil, nil
	}
	return &attr, nil
}

// MakeAttribute builds {"meta": ..., "value": value} for an attribute of entity
func (s *MoySkladService) MakeAttribute(ctx context.Context, entity, name string, value any) (*models.AttributeUpdate, error) {
	attr, err := s.AttributeMeta(ctx, entity, name)
	if err != nil {
		return nil, err
	}
	if attr == nil {
		return nil, fmt.Errorf("%w: %q for entity %q", ErrAttributeNotFound, name, entity)
	}
	return &models.AttributeUpdate{Meta: attr.Meta, Value: value}, nil
}
