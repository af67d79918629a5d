package agents

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	contractx "github.com/shopchat-ai/shopchat/agent/contract"
	"github.com/shopchat-ai/shopchat/pkg/woocommerce"
)

func newBackend(t *testing.T, handler http.HandlerFunc) *woocommerce.Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return woocommerce.MustNew(woocommerce.Config{
		StoreURL:       server.URL,
		ConsumerKey:    "ck",
		ConsumerSecret: "cs",
	})
}

func TestInfoListProducts(t *testing.T) {
	t.Parallel()

	agent := NewInfoAgent(newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]woocommerce.Product{
			{ID: 1, Name: "Mug", Price: "9.50", StockStatus: "instock"},
			{ID: 2, Name: "Shirt", Price: "25.00", StockStatus: "outofstock"},
		})
	}))

	res, err := agent.Call(context.Background(), "list_products", map[string]any{})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if !strings.Contains(res.Text, "Mug") || !strings.Contains(res.Text, "Shirt") {
		t.Fatalf("reply missing products: %q", res.Text)
	}
	products, ok := res.Payload.([]woocommerce.Product)
	if !ok || len(products) != 2 {
		t.Fatalf("unexpected payload: %#v", res.Payload)
	}
}

func TestInfoListProductsEmptyStore(t *testing.T) {
	t.Parallel()

	agent := NewInfoAgent(newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))

	res, err := agent.Call(context.Background(), "list_products", map[string]any{})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if !strings.Contains(res.Text, "no products") {
		t.Fatalf("unexpected reply: %q", res.Text)
	}
}

func TestInfoSalesReportValidatesPeriod(t *testing.T) {
	t.Parallel()

	agent := NewInfoAgent(newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("backend must not be called for an invalid period")
	}))

	_, err := agent.Call(context.Background(), "get_sales_report", map[string]any{"period": "decade"})
	var agentErr *contractx.AgentError
	if !errors.As(err, &agentErr) || agentErr.Kind != "invalid_params" {
		t.Fatalf("err = %v, want invalid_params AgentError", err)
	}
}

func TestInfoSalesReport(t *testing.T) {
	t.Parallel()

	agent := NewInfoAgent(newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("period"); got != "month" {
			t.Errorf("period = %q, want month", got)
		}
		_ = json.NewEncoder(w).Encode([]woocommerce.SalesReport{
			{TotalSales: "1200.00", TotalOrders: 14, TotalItems: 30},
		})
	}))

	res, err := agent.Call(context.Background(), "get_sales_report", map[string]any{"period": "month"})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if !strings.Contains(res.Text, "1200.00") || !strings.Contains(res.Text, "14") {
		t.Fatalf("unexpected reply: %q", res.Text)
	}
}

func TestInfoGetOrderNotFound(t *testing.T) {
	t.Parallel()

	agent := NewInfoAgent(newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"code":"woocommerce_rest_shop_order_invalid_id","message":"Invalid ID."}`))
	}))

	_, err := agent.Call(context.Background(), "get_order", map[string]any{"order_id": float64(999)})
	var agentErr *contractx.AgentError
	if !errors.As(err, &agentErr) {
		t.Fatalf("expected *AgentError, got %T: %v", err, err)
	}
	if agentErr.Kind != "not_found" {
		t.Fatalf("kind = %q, want not_found", agentErr.Kind)
	}
}

func TestInfoBackendUnreachable(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.NotFoundHandler())
	client := woocommerce.MustNew(woocommerce.Config{
		StoreURL:       server.URL,
		ConsumerKey:    "ck",
		ConsumerSecret: "cs",
	})
	server.Close()

	agent := NewInfoAgent(client)
	_, err := agent.Call(context.Background(), "list_products", map[string]any{})
	if !errors.Is(err, contractx.ErrBackend) {
		t.Fatalf("err = %v, want ErrBackend", err)
	}
}

func TestInfoGetCustomerOrders(t *testing.T) {
	t.Parallel()

	agent := NewInfoAgent(newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("customer"); got != "7" {
			t.Errorf("customer = %q, want 7", got)
		}
		_ = json.NewEncoder(w).Encode([]woocommerce.Order{
			{ID: 31, Status: "processing", Total: "49.00", CustomerID: 7},
		})
	}))

	res, err := agent.Call(context.Background(), "get_customer_orders", map[string]any{"customer_id": "7"})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if !strings.Contains(res.Text, "order 31") {
		t.Fatalf("unexpected reply: %q", res.Text)
	}
}

func TestInfoListShippingZones(t *testing.T) {
	t.Parallel()

	agent := NewInfoAgent(newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/wp-json/wc/v3/shipping/zones" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode([]woocommerce.ShippingZone{
			{ID: 1, Name: "Domestic"},
			{ID: 2, Name: "Europe"},
		})
	}))

	res, err := agent.Call(context.Background(), "list_shipping_zones", map[string]any{})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if !strings.Contains(res.Text, "Domestic") || !strings.Contains(res.Text, "Europe") {
		t.Fatalf("unexpected reply: %q", res.Text)
	}
}

func TestInfoUnknownMethod(t *testing.T) {
	t.Parallel()

	agent := NewInfoAgent(newBackend(t, func(w http.ResponseWriter, r *http.Request) {}))
	_, err := agent.Call(context.Background(), "teleport", map[string]any{})
	if !errors.Is(err, contractx.ErrUnknownMethod) {
		t.Fatalf("err = %v, want ErrUnknownMethod", err)
	}
}
