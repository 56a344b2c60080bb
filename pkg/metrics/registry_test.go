package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestHandlerServesRegisteredSeries(t *testing.T) {
	reg := NewRegistry()
	m := NewWalletMetrics(reg)
	m.IncTransfer("completed")

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "wealthguardian_wallet_transfers_total") {
		t.Fatalf("expected transfer counter in output")
	}
	if !strings.Contains(body, "go_goroutines") {
		t.Fatalf("expected runtime collector in output")
	}
}

func TestServeDisabledReturnsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, "", NewRegistry()) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected nil error, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
