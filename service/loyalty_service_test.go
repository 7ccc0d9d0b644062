package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ms-loyalty/config"
	"ms-loyalty/models"
)

const (
	variantHref = "https://api.moysklad.ru/api/remap/1.2/entity/variant/v1"
	productHref = "https://api.moysklad.ru/api/remap/1.2/entity/product/pr1"
)

const documentJSON = `{
	"id": "d1",
	"name": "00042",
	"agent": {
		"name": "ООО Ромашка",
		"tags": ["Оптовик"],
		"attributes": [
			{"name": "Программа лояльности", "value": true},
			{"name": "Скидка по ПЛ (%)", "value": 10}
		]
	},
	"attributes": []
}`

const positionsJSON = `[
	{
		"id": "p1",
		"quantity": 2,
		"price": 10000,
		"discount": 0,
		"vat": 20,
		"assortment": {"meta": {"href": "https://api.moysklad.ru/api/remap/1.2/entity/product/pr2", "type": "product"}, "pathName": "Одежда"}
	},
	{
		"id": "p2",
		"quantity": 1,
		"price": 5000,
		"discount": 0,
		"assortment": {"meta": {"href": "` + variantHref + `", "type": "variant"}}
	},
	{
		"id": "p3",
		"quantity": 3,
		"price": 5000,
		"discount": 0,
		"assortment": {"meta": {"href": "` + variantHref + `", "type": "variant"}}
	}
]`

var assortmentJSON = map[string]string{
	variantHref: `{"meta": {"href": "` + variantHref + `", "type": "variant"}, "product": {"meta": {"href": "` + productHref + `"}}}`,
	productHref: `{"meta": {"href": "` + productHref + `", "type": "product"}, "pathName": "Акция/Лето"}`,
}

type fakeMoySklad struct {
	mu              sync.Mutex
	documentJSON    string
	positionsJSON   string
	getErr          error
	updateErr       error
	attributes      map[string]json.RawMessage
	assortmentCalls map[string]int
	updates         []*models.DocumentUpdate
}

func newFakeMoySklad() *fakeMoySklad {
	return &fakeMoySklad{
		documentJSON:    documentJSON,
		positionsJSON:   positionsJSON,
		attributes:      map[string]json.RawMessage{},
		assortmentCalls: map[string]int{},
	}
}

func (f *fakeMoySklad) GetDocument(ctx context.Context, docType, docID, expand string) (*models.Document, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	var doc models.Document
	if err := json.Unmarshal([]byte(f.documentJSON), &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (f *fakeMoySklad) GetAllPositions(ctx context.Context, docType, docID, expand string) ([]models.Position, error) {
	var positions []models.Position
	if err := json.Unmarshal([]byte(f.positionsJSON), &positions); err != nil {
		return nil, err
	}
	return positions, nil
}

func (f *fakeMoySklad) GetAssortment(ctx context.Context, href string) (*models.Assortment, error) {
	f.mu.Lock()
	f.assortmentCalls[href]++
	f.mu.Unlock()

	raw, ok := assortmentJSON[href]
	if !ok {
		return nil, &APIError{Method: "GET", URL: href, StatusCode: 404}
	}
	var assortment models.Assortment
	if err := json.Unmarshal([]byte(raw), &assortment); err != nil {
		return nil, err
	}
	return &assortment, nil
}

func (f *fakeMoySklad) MakeAttribute(ctx context.Context, entity, name string, value any) (*models.AttributeUpdate, error) {
	meta, ok := f.attributes[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrAttributeNotFound, name)
	}
	return &models.AttributeUpdate{Meta: meta, Value: value}, nil
}

func (f *fakeMoySklad) UpdateDocument(ctx context.Context, docType, docID string, update *models.DocumentUpdate) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, update)
	return nil
}

type fakeRuns struct {
	mu   sync.Mutex
	runs []models.Run
	err  error
}

func (f *fakeRuns) Insert(ctx context.Context, run *models.Run) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs = append(f.runs, *run)
	return f.err
}

func (f *fakeRuns) List(ctx context.Context, filter models.RunFilter) ([]models.Run, error) {
	return f.runs, nil
}

func newTestLoyaltyService(client *fakeMoySklad, runs *fakeRuns, mutate func(*config.Config)) *LoyaltyService {
	cfg := config.Default()
	if mutate != nil {
		mutate(cfg)
	}
	return NewLoyaltyService(client, runs, cfg, zap.NewNop())
}

func TestProcessDocumentUpdates(t *testing.T) {
	client := newFakeMoySklad()
	runs := &fakeRuns{}
	svc := newTestLoyaltyService(client, runs, nil)

	result, err := svc.ProcessDocument(context.Background(), "demand", "d1")
	require.NoError(t, err)

	assert.True(t, result.Updated)
	assert.Equal(t, models.ReasonUpdated, result.Reason)
	assert.Equal(t, 1, result.Positions)
	assert.Equal(t, int64(2000), result.LoyaltyDiscountSum)

	require.Len(t, client.updates, 1)
	payload := client.updates[0].Positions
	require.Len(t, payload, 3, "full write mode sends every position")
	assert.Equal(t, 10.0, payload[0].Discount)
	assert.Equal(t, 0.0, payload[1].Discount, "promo folder resolved through the variant's product")
	assert.Equal(t, 0.0, payload[2].Discount)
	require.NotNil(t, payload[0].Vat)
	assert.Equal(t, 20, *payload[0].Vat)
	assert.Empty(t, client.updates[0].Attributes)

	assert.Equal(t, 1, client.assortmentCalls[variantHref], "variant fetched once per call")
	assert.Equal(t, 1, client.assortmentCalls[productHref])

	require.Len(t, runs.runs, 1)
	assert.Equal(t, models.ReasonUpdated, runs.runs[0].Reason)
	assert.True(t, runs.runs[0].Updated)
	assert.Equal(t, int64(2000), runs.runs[0].DiscountSum)
}

func TestProcessDocumentChangedWriteMode(t *testing.T) {
	client := newFakeMoySklad()
	svc := newTestLoyaltyService(client, &fakeRuns{}, func(cfg *config.Config) {
		cfg.Loyalty.WriteMode = "changed"
	})

	_, err := svc.ProcessDocument(context.Background(), "demand", "d1")
	require.NoError(t, err)

	require.Len(t, client.updates, 1)
	require.Len(t, client.updates[0].Positions, 1)
	assert.Equal(t, "p1", client.updates[0].Positions[0].ID)
}

func TestProcessDocumentNoChanges(t *testing.T) {
	client := newFakeMoySklad()
	var positions []map[string]any
	require.NoError(t, json.Unmarshal([]byte(positionsJSON), &positions))
	positions[0]["discount"] = 10
	raw, err := json.Marshal(positions)
	require.NoError(t, err)
	client.positionsJSON = string(raw)

	svc := newTestLoyaltyService(client, &fakeRuns{}, nil)
	result, err := svc.ProcessDocument(context.Background(), "demand", "d1")
	require.NoError(t, err)

	assert.False(t, result.Updated)
	assert.Equal(t, models.ReasonNoChanges, result.Reason)
	assert.Equal(t, int64(2000), result.LoyaltyDiscountSum)
	assert.Empty(t, client.updates)
}

func TestProcessDocumentDryRun(t *testing.T) {
	client := newFakeMoySklad()
	runs := &fakeRuns{}
	svc := newTestLoyaltyService(client, runs, func(cfg *config.Config) { cfg.DryRun = true })

	result, err := svc.ProcessDocument(context.Background(), "demand", "d1")
	require.NoError(t, err)

	assert.False(t, result.Updated)
	assert.Equal(t, models.ReasonDryRun, result.Reason)
	assert.Equal(t, 1, result.Positions)
	assert.Empty(t, client.updates)
	require.Len(t, runs.runs, 1)
	assert.True(t, runs.runs[0].DryRun)
}

func TestProcessDocumentDisabled(t *testing.T) {
	client := newFakeMoySklad()
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(documentJSON), &doc))
	doc["attributes"] = []map[string]any{{"name": "DisableLoyalty", "value": "yes"}}
	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	client.documentJSON = string(raw)

	svc := newTestLoyaltyService(client, &fakeRuns{}, nil)
	result, err := svc.ProcessDocument(context.Background(), "demand", "d1")
	require.NoError(t, err)

	assert.Equal(t, models.ReasonDisabled, result.Reason)
	assert.Zero(t, result.LoyaltyDiscountSum)
	assert.Empty(t, client.updates)
}

func TestProcessDocumentDiscountSumAttribute(t *testing.T) {
	client := newFakeMoySklad()
	client.attributes["Сумма скидки ПЛ"] = json.RawMessage(`{"href":"attr/1"}`)
	svc := newTestLoyaltyService(client, &fakeRuns{}, func(cfg *config.Config) {
		cfg.DiscountSumAttr = "Сумма скидки ПЛ"
	})

	_, err := svc.ProcessDocument(context.Background(), "demand", "d1")
	require.NoError(t, err)

	require.Len(t, client.updates, 1)
	require.Len(t, client.updates[0].Attributes, 1)
	assert.Equal(t, 20.0, client.updates[0].Attributes[0].Value)
}

func TestProcessDocumentMissingDiscountSumAttribute(t *testing.T) {
	client := newFakeMoySklad()
	svc := newTestLoyaltyService(client, &fakeRuns{}, func(cfg *config.Config) {
		cfg.DiscountSumAttr = "Нет такого"
	})

	result, err := svc.ProcessDocument(context.Background(), "demand", "d1")
	require.NoError(t, err)
	assert.True(t, result.Updated)
	require.Len(t, client.updates, 1)
	assert.Empty(t, client.updates[0].Attributes)
}

func TestProcessDocumentErrors(t *testing.T) {
	client := newFakeMoySklad()
	client.getErr = &APIError{Method: "GET", URL: "x", StatusCode: 500, Body: "boom"}
	runs := &fakeRuns{}
	svc := newTestLoyaltyService(client, runs, nil)

	result, err := svc.ProcessDocument(context.Background(), "demand", "d1")
	assert.Nil(t, result)
	var apiErr *APIError
	assert.True(t, errors.As(err, &apiErr))

	require.Len(t, runs.runs, 1)
	assert.Equal(t, models.ReasonError, runs.runs[0].Reason)
	assert.Contains(t, runs.runs[0].Error, "boom")
}

func TestProcessDocumentJournalFailureIsIgnored(t *testing.T) {
	client := newFakeMoySklad()
	svc := newTestLoyaltyService(client, &fakeRuns{err: errors.New("db down")}, nil)

	result, err := svc.ProcessDocument(context.Background(), "demand", "d1")
	require.NoError(t, err)
	assert.True(t, result.Updated)
}

func TestEnrichmentFailureKeepsPosition(t *testing.T) {
	client := newFakeMoySklad()
	client.positionsJSON = `[{"id": "p1", "quantity": 1, "price": 100, "discount": 0,
		"assortment": {"meta": {"href": "https://api.moysklad.ru/api/remap/1.2/entity/product/gone", "type": "product"}}}]`

	svc := newTestLoyaltyService(client, &fakeRuns{}, nil)
	result, err := svc.ProcessDocument(context.Background(), "demand", "d1")
	require.NoError(t, err)
	assert.Equal(t, models.ReasonUpdated, result.Reason)
	assert.Equal(t, int64(10), result.LoyaltyDiscountSum)
}
