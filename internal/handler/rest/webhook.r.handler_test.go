package hrest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"finance-service/internal/domain"
	"finance-service/internal/repository/memory"
	"finance-service/internal/usecase"
	"finance-service/pkg/security"
	"finance-service/pkg/utils"
)

const (
	testSecret    = "handler-test-secret"
	testSigHeader = "X-Razorpay-Signature"
)

type webhookFixture struct {
	handler    *WebhookHandler
	store      *memory.Store
	accounts   *usecase.AccountUsecase
	receivable *usecase.ReceivableUsecase
}

func newWebhookFixture(t *testing.T) *webhookFixture {
	t.Helper()
	store := memory.NewStore()
	ids := utils.NewIDGenerator()
	logger := zap.NewNop()

	ledger := usecase.NewLedgerUsecase(store, ids, logger)
	accounts := usecase.NewAccountUsecase(store, ids, logger)
	receivable := usecase.NewReceivableUsecase(store, ledger, ids, usecase.NopNotifier{}, logger)
	reconcile := usecase.NewReconcileUsecase(store, ledger, usecase.NopNotifier{}, testSecret, logger)

	ctx := context.Background()
	require.NoError(t, store.Sequences().Seed(ctx, domain.ScopeCollectionNumber, "KA-0000"))
	require.NoError(t, store.Sequences().Seed(ctx, domain.ScopeReceiptNumber, "RA-0000"))

	_, err := accounts.Create(ctx, usecase.CreateAccountInput{
		Name: "Main Bank", Type: domain.AccountBank, IsPrimary: true,
	})
	require.NoError(t, err)

	return &webhookFixture{
		handler:    NewWebhookHandler(reconcile, testSigHeader, logger),
		store:      store,
		accounts:   accounts,
		receivable: receivable,
	}
}

func (f *webhookFixture) deliver(t *testing.T, body []byte, signature string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/payments", bytes.NewReader(body))
	if signature != "" {
		req.Header.Set(testSigHeader, signature)
	}
	rr := httptest.NewRecorder()
	f.handler.HandleGatewayCallback(rr, req)
	return rr
}

func capturedBody(token string, amountMinor int64) []byte {
	return []byte(fmt.Sprintf(
		`{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_test","amount":%d,"notes":{"receipt_number":%q}}}}}`,
		amountMinor, token))
}

func decodeResult(t *testing.T, rr *httptest.ResponseRecorder) (success bool, applied bool) {
	t.Helper()
	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			Applied bool `json:"applied"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp.Success, resp.Data.Applied
}

func TestGatewayCallbackAppliesPayment(t *testing.T) {
	f := newWebhookFixture(t)
	rec, err := f.receivable.Create(context.Background(), usecase.CreateReceivableInput{
		Class: domain.ClassCollection, PayerID: "p1", PayerName: "Payer",
		Amount: decimal.RequireFromString("120"),
	})
	require.NoError(t, err)

	body := capturedBody(rec.ReceiptNumber, 12000)
	rr := f.deliver(t, body, security.SignPayload(body, testSecret))

	assert.Equal(t, http.StatusOK, rr.Code)
	success, applied := decodeResult(t, rr)
	assert.True(t, success)
	assert.True(t, applied)
}

func TestGatewayCallbackBadSignatureIs401(t *testing.T) {
	f := newWebhookFixture(t)
	body := capturedBody("KA-0001", 12000)

	rr := f.deliver(t, body, "deadbeef")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = f.deliver(t, body, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestGatewayCallbackMalformedBodyIs400(t *testing.T) {
	f := newWebhookFixture(t)
	body := []byte("{not json")

	rr := f.deliver(t, body, security.SignPayload(body, testSecret))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

// Disputes a retry can never fix are acknowledged so the gateway stops
// redelivering; the dispute lives in the logs for manual review.
func TestGatewayCallbackAmountMismatchIsAcknowledged(t *testing.T) {
	f := newWebhookFixture(t)
	rec, err := f.receivable.Create(context.Background(), usecase.CreateReceivableInput{
		Class: domain.ClassCollection, PayerID: "p1", PayerName: "Payer",
		Amount: decimal.RequireFromString("120"),
	})
	require.NoError(t, err)

	body := capturedBody(rec.ReceiptNumber, 9900)
	rr := f.deliver(t, body, security.SignPayload(body, testSecret))

	assert.Equal(t, http.StatusOK, rr.Code)
	_, applied := decodeResult(t, rr)
	assert.False(t, applied)

	got, err := f.receivable.Get(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusUnpaid, got.Status)
}

func TestGatewayCallbackUnknownTokenIsAcknowledged(t *testing.T) {
	f := newWebhookFixture(t)
	body := capturedBody("KA-9999", 12000)

	rr := f.deliver(t, body, security.SignPayload(body, testSecret))
	assert.Equal(t, http.StatusOK, rr.Code)
	success, applied := decodeResult(t, rr)
	assert.True(t, success)
	assert.False(t, applied)
}
