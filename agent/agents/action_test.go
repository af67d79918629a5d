package agents

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	contractx "github.com/shopchat-ai/shopchat/agent/contract"
	"github.com/shopchat-ai/shopchat/pkg/woocommerce"
)

func TestActionCreateProduct(t *testing.T) {
	t.Parallel()

	var gotKey string
	var gotInput woocommerce.ProductInput
	agent := NewActionAgent(newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("Idempotency-Key")
		if err := json.NewDecoder(r.Body).Decode(&gotInput); err != nil {
			t.Errorf("decode body: %v", err)
		}
		_ = json.NewEncoder(w).Encode(woocommerce.Product{ID: 55, Name: "Lamp", Price: "40.00"})
	}))
	agent.newKey = func() string { return "fixed-key" }

	res, err := agent.Call(context.Background(), "create_product", map[string]any{
		"name":  "Lamp",
		"price": "40.00",
	})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if !strings.Contains(res.Text, "Lamp") || !strings.Contains(res.Text, "55") {
		t.Fatalf("unexpected reply: %q", res.Text)
	}
	if gotKey != "fixed-key" {
		t.Fatalf("idempotency key = %q, want fixed-key", gotKey)
	}
	if gotInput.Name != "Lamp" || gotInput.RegularPrice != "40.00" {
		t.Fatalf("unexpected input: %+v", gotInput)
	}
}

func TestActionCreateProductNumericPrice(t *testing.T) {
	t.Parallel()

	var gotInput woocommerce.ProductInput
	agent := NewActionAgent(newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotInput); err != nil {
			t.Errorf("decode body: %v", err)
		}
		_ = json.NewEncoder(w).Encode(woocommerce.Product{ID: 1, Name: "Mug"})
	}))

	// Oracles emit prices both ways; numbers are normalized to strings.
	_, err := agent.Call(context.Background(), "create_product", map[string]any{
		"name":  "Mug",
		"price": float64(9.5),
	})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if gotInput.RegularPrice != "9.5" {
		t.Fatalf("regular price = %q, want 9.5", gotInput.RegularPrice)
	}
}

func TestActionMissingRequiredParam(t *testing.T) {
	t.Parallel()

	agent := NewActionAgent(newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("backend must not be called")
	}))

	_, err := agent.Call(context.Background(), "create_product", map[string]any{"name": "Mug"})
	var agentErr *contractx.AgentError
	if !errors.As(err, &agentErr) || agentErr.Kind != "invalid_params" {
		t.Fatalf("err = %v, want invalid_params AgentError", err)
	}
}

func TestActionUpdateProductStockValidatesStatus(t *testing.T) {
	t.Parallel()

	agent := NewActionAgent(newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("backend must not be called")
	}))

	_, err := agent.Call(context.Background(), "update_product_stock", map[string]any{
		"product_id":   float64(3),
		"stock_status": "plenty",
	})
	var agentErr *contractx.AgentError
	if !errors.As(err, &agentErr) || agentErr.Kind != "invalid_params" {
		t.Fatalf("err = %v, want invalid_params AgentError", err)
	}
}

func TestActionUpdateOrderStatus(t *testing.T) {
	t.Parallel()

	var gotBody map[string]string
	agent := NewActionAgent(newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("method = %s, want PUT", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		_ = json.NewEncoder(w).Encode(woocommerce.Order{ID: 12, Status: "completed", Total: "80.00"})
	}))

	res, err := agent.Call(context.Background(), "update_order_status", map[string]any{
		"order_id": float64(12),
		"status":   "completed",
		"note":     "shipped early",
	})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if !strings.Contains(res.Text, "completed") {
		t.Fatalf("unexpected reply: %q", res.Text)
	}
	if gotBody["status"] != "completed" || gotBody["customer_note"] != "shipped early" {
		t.Fatalf("unexpected body: %v", gotBody)
	}
}

func TestActionProcessRefund(t *testing.T) {
	t.Parallel()

	var gotPath, gotKey string
	agent := NewActionAgent(newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("Idempotency-Key")
		_ = json.NewEncoder(w).Encode(woocommerce.Refund{ID: 4, Amount: "15.00"})
	}))
	agent.newKey = func() string { return "refund-key" }

	res, err := agent.Call(context.Background(), "process_refund", map[string]any{
		"order_id": float64(88),
		"amount":   "15.00",
	})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if !strings.Contains(res.Text, "15.00") {
		t.Fatalf("unexpected reply: %q", res.Text)
	}
	if gotPath != "/wp-json/wc/v3/orders/88/refunds" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotKey != "refund-key" {
		t.Fatalf("idempotency key = %q", gotKey)
	}
}

func TestActionBackendRejection(t *testing.T) {
	t.Parallel()

	agent := NewActionAgent(newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":"product_invalid_sku","message":"Duplicate SKU."}`))
	}))

	_, err := agent.Call(context.Background(), "create_product", map[string]any{
		"name":  "Mug",
		"price": "9.50",
	})
	var agentErr *contractx.AgentError
	if !errors.As(err, &agentErr) {
		t.Fatalf("expected *AgentError, got %T: %v", err, err)
	}
	if agentErr.Kind != "backend_rejected" || agentErr.Message != "Duplicate SKU." {
		t.Fatalf("unexpected error: %+v", agentErr)
	}
}

func TestActionFreshKeyPerCall(t *testing.T) {
	t.Parallel()

	keys := make(map[string]bool)
	agent := NewActionAgent(newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		keys[r.Header.Get("Idempotency-Key")] = true
		_ = json.NewEncoder(w).Encode(woocommerce.Product{ID: 1, Name: "Mug"})
	}))

	params := map[string]any{"name": "Mug", "price": "9.50"}
	for i := 0; i < 2; i++ {
		if _, err := agent.Call(context.Background(), "create_product", params); err != nil {
			t.Fatalf("Call: %v", err)
		}
	}
	if len(keys) != 2 {
		t.Fatalf("expected 2 distinct idempotency keys, got %d", len(keys))
	}
}
