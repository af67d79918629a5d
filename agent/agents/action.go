package agents

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	contractx "github.com/shopchat-ai/shopchat/agent/contract"
	"github.com/shopchat-ai/shopchat/pkg/woocommerce"
)

// ActionAgent performs side-effecting calls against the commerce backend.
// None of its methods are cacheable, and the orchestrator never retries them;
// creates and refunds carry a fresh idempotency key per command so the
// backend can dedupe if a future retry policy is added upstream.
type ActionAgent struct {
	wc     *woocommerce.Client
	newKey func() string
}

func NewActionAgent(wc *woocommerce.Client) *ActionAgent {
	return &ActionAgent{
		wc:     wc,
		newKey: func() string { return uuid.NewString() },
	}
}

func (a *ActionAgent) ID() contractx.AgentID {
	return contractx.AgentAction
}

func (a *ActionAgent) Methods() []contractx.MethodSpec {
	return []contractx.MethodSpec{
		{
			Name:     "create_product",
			Required: []string{"name", "price"},
			Optional: []string{"description", "stock_status"},
		},
		{
			Name:     "update_product_price",
			Required: []string{"product_id", "price"},
		},
		{
			Name:     "update_product_stock",
			Required: []string{"product_id", "stock_status"},
		},
		{
			Name:     "delete_product",
			Required: []string{"product_id"},
		},
		{
			Name:     "create_coupon",
			Required: []string{"code", "discount_type", "amount"},
		},
		{
			Name:     "update_order_status",
			Required: []string{"order_id", "status"},
			Optional: []string{"note"},
		},
		{
			Name:     "process_refund",
			Required: []string{"order_id", "amount"},
			Optional: []string{"reason"},
		},
		{
			Name:     "create_shipping_zone",
			Required: []string{"name"},
		},
	}
}

func (a *ActionAgent) Call(ctx context.Context, method string, params map[string]any) (contractx.AgentResult, error) {
	switch method {
	case "create_product":
		return a.createProduct(ctx, params)
	case "update_product_price":
		return a.updateProductPrice(ctx, params)
	case "update_product_stock":
		return a.updateProductStock(ctx, params)
	case "delete_product":
		return a.deleteProduct(ctx, params)
	case "create_coupon":
		return a.createCoupon(ctx, params)
	case "update_order_status":
		return a.updateOrderStatus(ctx, params)
	case "process_refund":
		return a.processRefund(ctx, params)
	case "create_shipping_zone":
		return a.createShippingZone(ctx, params)
	default:
		return contractx.AgentResult{}, fmt.Errorf("%w: action.%s", contractx.ErrUnknownMethod, method)
	}
}

func (a *ActionAgent) createProduct(ctx context.Context, params map[string]any) (contractx.AgentResult, error) {
	name, err := stringParam(params, "name")
	if err != nil {
		return contractx.AgentResult{}, err
	}
	price, err := stringParam(params, "price")
	if err != nil {
		return contractx.AgentResult{}, err
	}

	in := woocommerce.ProductInput{
		Name:         name,
		RegularPrice: price,
		Description:  stringParamDefault(params, "description", ""),
		StockStatus:  stringParamDefault(params, "stock_status", ""),
	}

	key := a.newKey()
	product, err := a.wc.CreateProduct(ctx, in, key)
	if err != nil {
		return contractx.AgentResult{}, backendErr(err)
	}
	log.Info().Int64("product_id", product.ID).Str("idempotency_key", key).Msg("product created")

	return contractx.AgentResult{
		Text:    fmt.Sprintf("Created product %q (id %d) at price %s.", product.Name, product.ID, price),
		Payload: product,
	}, nil
}

func (a *ActionAgent) updateProductPrice(ctx context.Context, params map[string]any) (contractx.AgentResult, error) {
	productID, err := int64Param(params, "product_id")
	if err != nil {
		return contractx.AgentResult{}, err
	}
	price, err := stringParam(params, "price")
	if err != nil {
		return contractx.AgentResult{}, err
	}

	product, err := a.wc.UpdateProduct(ctx, productID, woocommerce.ProductInput{RegularPrice: price})
	if err != nil {
		return contractx.AgentResult{}, backendErr(err)
	}
	return contractx.AgentResult{
		Text:    fmt.Sprintf("Updated price of %q (id %d) to %s.", product.Name, product.ID, price),
		Payload: product,
	}, nil
}

func (a *ActionAgent) updateProductStock(ctx context.Context, params map[string]any) (contractx.AgentResult, error) {
	productID, err := int64Param(params, "product_id")
	if err != nil {
		return contractx.AgentResult{}, err
	}
	stockStatus, err := stringParam(params, "stock_status")
	if err != nil {
		return contractx.AgentResult{}, err
	}
	switch stockStatus {
	case "instock", "outofstock", "onbackorder":
	default:
		return contractx.AgentResult{}, invalidParam("stock_status", "must be one of instock, outofstock, onbackorder")
	}

	product, err := a.wc.UpdateProduct(ctx, productID, woocommerce.ProductInput{StockStatus: stockStatus})
	if err != nil {
		return contractx.AgentResult{}, backendErr(err)
	}
	return contractx.AgentResult{
		Text:    fmt.Sprintf("Updated stock of %q (id %d) to %s.", product.Name, product.ID, stockStatus),
		Payload: product,
	}, nil
}

func (a *ActionAgent) deleteProduct(ctx context.Context, params map[string]any) (contractx.AgentResult, error) {
	productID, err := int64Param(params, "product_id")
	if err != nil {
		return contractx.AgentResult{}, err
	}

	product, err := a.wc.DeleteProduct(ctx, productID)
	if err != nil {
		return contractx.AgentResult{}, backendErr(err)
	}
	return contractx.AgentResult{
		Text:    fmt.Sprintf("Deleted product %q (id %d).", product.Name, product.ID),
		Payload: product,
	}, nil
}

func (a *ActionAgent) createCoupon(ctx context.Context, params map[string]any) (contractx.AgentResult, error) {
	code, err := stringParam(params, "code")
	if err != nil {
		return contractx.AgentResult{}, err
	}
	discountType, err := stringParam(params, "discount_type")
	if err != nil {
		return contractx.AgentResult{}, err
	}
	amount, err := stringParam(params, "amount")
	if err != nil {
		return contractx.AgentResult{}, err
	}

	coupon, err := a.wc.CreateCoupon(ctx, woocommerce.CouponInput{
		Code:         code,
		DiscountType: discountType,
		Amount:       amount,
	}, a.newKey())
	if err != nil {
		return contractx.AgentResult{}, backendErr(err)
	}
	return contractx.AgentResult{
		Text:    fmt.Sprintf("Created coupon %q (%s %s).", coupon.Code, coupon.Amount, coupon.DiscountType),
		Payload: coupon,
	}, nil
}

func (a *ActionAgent) updateOrderStatus(ctx context.Context, params map[string]any) (contractx.AgentResult, error) {
	orderID, err := int64Param(params, "order_id")
	if err != nil {
		return contractx.AgentResult{}, err
	}
	status, err := stringParam(params, "status")
	if err != nil {
		return contractx.AgentResult{}, err
	}

	order, err := a.wc.UpdateOrderStatus(ctx, orderID, status, stringParamDefault(params, "note", ""))
	if err != nil {
		return contractx.AgentResult{}, backendErr(err)
	}
	return contractx.AgentResult{
		Text:    fmt.Sprintf("Order %d is now %s.", order.ID, order.Status),
		Payload: order,
	}, nil
}

func (a *ActionAgent) processRefund(ctx context.Context, params map[string]any) (contractx.AgentResult, error) {
	orderID, err := int64Param(params, "order_id")
	if err != nil {
		return contractx.AgentResult{}, err
	}
	amount, err := stringParam(params, "amount")
	if err != nil {
		return contractx.AgentResult{}, err
	}

	key := a.newKey()
	refund, err := a.wc.CreateRefund(ctx, orderID, amount, stringParamDefault(params, "reason", ""), key)
	if err != nil {
		return contractx.AgentResult{}, backendErr(err)
	}
	log.Info().Int64("order_id", orderID).Str("idempotency_key", key).Msg("refund processed")

	return contractx.AgentResult{
		Text:    fmt.Sprintf("Refunded %s on order %d.", refund.Amount, orderID),
		Payload: refund,
	}, nil
}

func (a *ActionAgent) createShippingZone(ctx context.Context, params map[string]any) (contractx.AgentResult, error) {
	name, err := stringParam(params, "name")
	if err != nil {
		return contractx.AgentResult{}, err
	}

	zone, err := a.wc.CreateShippingZone(ctx, name, a.newKey())
	if err != nil {
		return contractx.AgentResult{}, backendErr(err)
	}
	return contractx.AgentResult{
		Text:    fmt.Sprintf("Created shipping zone %q (id %d).", zone.Name, zone.ID),
		Payload: zone,
	}, nil
}
