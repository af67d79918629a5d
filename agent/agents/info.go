package agents

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	contractx "github.com/shopchat-ai/shopchat/agent/contract"
	"github.com/shopchat-ai/shopchat/pkg/woocommerce"
)

// InfoAgent serves read-only store queries. Every method is idempotent and
// cacheable.
type InfoAgent struct {
	wc *woocommerce.Client
}

func NewInfoAgent(wc *woocommerce.Client) *InfoAgent {
	return &InfoAgent{wc: wc}
}

func (a *InfoAgent) ID() contractx.AgentID {
	return contractx.AgentInfo
}

func (a *InfoAgent) Methods() []contractx.MethodSpec {
	return []contractx.MethodSpec{
		{
			Name:      "list_products",
			Cacheable: true,
			CacheTTL:  2 * time.Minute,
			Optional:  []string{"page", "per_page"},
		},
		{
			Name:      "get_sales_report",
			Cacheable: true,
			CacheTTL:  5 * time.Minute,
			Optional:  []string{"period"},
		},
		{
			Name:      "list_coupons",
			Cacheable: true,
			CacheTTL:  2 * time.Minute,
			Optional:  []string{"page", "per_page"},
		},
		{
			Name:      "get_order",
			Cacheable: true,
			CacheTTL:  time.Minute,
			Required:  []string{"order_id"},
		},
		{
			Name:      "get_customer_orders",
			Cacheable: true,
			CacheTTL:  time.Minute,
			Required:  []string{"customer_id"},
			Optional:  []string{"page", "per_page"},
		},
		{
			Name:      "list_shipping_zones",
			Cacheable: true,
			CacheTTL:  5 * time.Minute,
		},
	}
}

func (a *InfoAgent) Call(ctx context.Context, method string, params map[string]any) (contractx.AgentResult, error) {
	switch method {
	case "list_products":
		return a.listProducts(ctx, params)
	case "get_sales_report":
		return a.getSalesReport(ctx, params)
	case "list_coupons":
		return a.listCoupons(ctx, params)
	case "get_order":
		return a.getOrder(ctx, params)
	case "get_customer_orders":
		return a.getCustomerOrders(ctx, params)
	case "list_shipping_zones":
		return a.listShippingZones(ctx)
	default:
		return contractx.AgentResult{}, fmt.Errorf("%w: info.%s", contractx.ErrUnknownMethod, method)
	}
}

func (a *InfoAgent) listProducts(ctx context.Context, params map[string]any) (contractx.AgentResult, error) {
	page := intParamDefault(params, "page", 1)
	perPage := intParamDefault(params, "per_page", 5)

	products, err := a.wc.ListProducts(ctx, page, perPage)
	if err != nil {
		return contractx.AgentResult{}, backendErr(err)
	}
	if len(products) == 0 {
		return contractx.AgentResult{Text: "The store has no products yet."}, nil
	}

	lines := []string{"Products in the store:"}
	for _, p := range products {
		lines = append(lines, fmt.Sprintf("- %s, price: %s, stock: %s", p.Name, p.Price, p.StockStatus))
	}
	return contractx.AgentResult{
		Text:    strings.Join(lines, "\n"),
		Payload: products,
	}, nil
}

func (a *InfoAgent) getSalesReport(ctx context.Context, params map[string]any) (contractx.AgentResult, error) {
	period := stringParamDefault(params, "period", "week")
	switch period {
	case "week", "month", "year":
	default:
		return contractx.AgentResult{}, invalidParam("period", "must be one of week, month, year")
	}

	reports, err := a.wc.GetSalesReport(ctx, period)
	if err != nil {
		return contractx.AgentResult{}, backendErr(err)
	}
	if len(reports) == 0 {
		return contractx.AgentResult{
			Text: fmt.Sprintf("No sales data for the last %s.", period),
		}, nil
	}

	report := reports[0]
	text := fmt.Sprintf(
		"Sales report for the last %s:\n- total sales: %s\n- orders: %d\n- items: %d",
		period, report.TotalSales, report.TotalOrders, report.TotalItems,
	)
	return contractx.AgentResult{Text: text, Payload: report}, nil
}

func (a *InfoAgent) listCoupons(ctx context.Context, params map[string]any) (contractx.AgentResult, error) {
	page := intParamDefault(params, "page", 1)
	perPage := intParamDefault(params, "per_page", 10)

	coupons, err := a.wc.ListCoupons(ctx, page, perPage)
	if err != nil {
		return contractx.AgentResult{}, backendErr(err)
	}
	if len(coupons) == 0 {
		return contractx.AgentResult{Text: "No active coupons right now."}, nil
	}

	lines := []string{"Active coupons:"}
	for _, c := range coupons {
		if c.DiscountType == "percent" {
			lines = append(lines, fmt.Sprintf("- %s: %s%% off", c.Code, c.Amount))
		} else {
			lines = append(lines, fmt.Sprintf("- %s: %s off (%s)", c.Code, c.Amount, c.DiscountType))
		}
	}
	return contractx.AgentResult{
		Text:    strings.Join(lines, "\n"),
		Payload: coupons,
	}, nil
}

func (a *InfoAgent) getOrder(ctx context.Context, params map[string]any) (contractx.AgentResult, error) {
	orderID, err := int64Param(params, "order_id")
	if err != nil {
		return contractx.AgentResult{}, err
	}

	order, err := a.wc.GetOrder(ctx, orderID)
	if err != nil {
		return contractx.AgentResult{}, backendErr(err)
	}
	text := fmt.Sprintf("Order %d: status=%s, total=%s", order.ID, order.Status, order.Total)
	return contractx.AgentResult{Text: text, Payload: order}, nil
}

func (a *InfoAgent) getCustomerOrders(ctx context.Context, params map[string]any) (contractx.AgentResult, error) {
	customerID, err := int64Param(params, "customer_id")
	if err != nil {
		return contractx.AgentResult{}, err
	}
	page := intParamDefault(params, "page", 1)
	perPage := intParamDefault(params, "per_page", 10)

	orders, err := a.wc.ListCustomerOrders(ctx, customerID, page, perPage)
	if err != nil {
		return contractx.AgentResult{}, backendErr(err)
	}
	if len(orders) == 0 {
		return contractx.AgentResult{
			Text: fmt.Sprintf("Customer %d has no orders.", customerID),
		}, nil
	}

	lines := []string{fmt.Sprintf("Orders for customer %d:", customerID)}
	for _, o := range orders {
		lines = append(lines, fmt.Sprintf("- order %d: status=%s, total=%s", o.ID, o.Status, o.Total))
	}
	return contractx.AgentResult{
		Text:    strings.Join(lines, "\n"),
		Payload: orders,
	}, nil
}

func (a *InfoAgent) listShippingZones(ctx context.Context) (contractx.AgentResult, error) {
	zones, err := a.wc.ListShippingZones(ctx)
	if err != nil {
		return contractx.AgentResult{}, backendErr(err)
	}
	if len(zones) == 0 {
		return contractx.AgentResult{Text: "No shipping zones are configured."}, nil
	}

	lines := []string{"Shipping zones:"}
	for _, z := range zones {
		lines = append(lines, fmt.Sprintf("- %s (id %d)", z.Name, z.ID))
	}
	return contractx.AgentResult{
		Text:    strings.Join(lines, "\n"),
		Payload: zones,
	}, nil
}

// backendErr maps client failures onto the error taxonomy: non-2xx responses
// are domain errors the user should see, anything else means the backend was
// unreachable.
func backendErr(err error) error {
	var apiErr *woocommerce.APIError
	if errors.As(err, &apiErr) {
		kind := "backend_rejected"
		if apiErr.Status == 404 {
			kind = "not_found"
		}
		return &contractx.AgentError{Kind: kind, Message: apiErr.Message}
	}
	return fmt.Errorf("%w: %v", contractx.ErrBackend, err)
}
