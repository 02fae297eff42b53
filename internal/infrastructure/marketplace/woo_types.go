package marketplace

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/furlanettoeduardo/ERP-PRS-sub000/internal/domain/integration"
)

// wooProduct is a WooCommerce product. Prices arrive as strings on the wire.
type wooProduct struct {
	ID            int64  `json:"id"`
	SKU           string `json:"sku"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	RegularPrice  string `json:"regular_price"`
	Price         string `json:"price"`
	StockQuantity *int64 `json:"stock_quantity"`
	Status        string `json:"status"`
	Images        []struct {
		Src string `json:"src"`
	} `json:"images"`
	Categories []struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	} `json:"categories"`
	Attributes []struct {
		Name    string   `json:"name"`
		Options []string `json:"options"`
	} `json:"attributes"`
}

// wooCategory is a product category.
type wooCategory struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Parent int64  `json:"parent"`
}

// wooAttribute is a store-level product attribute definition.
type wooAttribute struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// wooCustomer is a store customer.
type wooCustomer struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Billing   struct {
		Phone string `json:"phone"`
	} `json:"billing"`
}

// wooOrder is a store order.
type wooOrder struct {
	ID          int64  `json:"id"`
	Status      string `json:"status"`
	Total       string `json:"total"`
	Currency    string `json:"currency"`
	DateCreated string `json:"date_created_gmt"`
	Billing     struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Email     string `json:"email"`
	} `json:"billing"`
	LineItems []struct {
		ProductID int64  `json:"product_id"`
		SKU       string `json:"sku"`
		Name      string `json:"name"`
		Quantity  int64  `json:"quantity"`
		Price     string `json:"price"`
	} `json:"line_items"`
}

// wooWebhook is a registered store webhook.
type wooWebhook struct {
	ID          int64  `json:"id"`
	Topic       string `json:"topic"`
	DeliveryURL string `json:"delivery_url"`
}

// wooError is the store's error body.
type wooError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// parseWooDecimal parses a string money field, zero on malformed input.
func parseWooDecimal(raw string) decimal.Decimal {
	if raw == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// toNormalized maps a product to the canonical shape.
func (p *wooProduct) toNormalized() integration.NormalizedProduct {
	price := parseWooDecimal(p.RegularPrice)
	if price.IsZero() {
		price = parseWooDecimal(p.Price)
	}
	out := integration.NormalizedProduct{
		ExternalID:  strconv.FormatInt(p.ID, 10),
		SKU:         p.SKU,
		Name:        p.Name,
		Description: p.Description,
		Price:       price,
		Active:      p.Status == "publish",
		Attributes:  map[string]string{},
		Metadata:    map[string]any{"status": p.Status},
	}
	if p.StockQuantity != nil {
		out.Stock = *p.StockQuantity
	}
	for _, img := range p.Images {
		out.Images = append(out.Images, img.Src)
	}
	for _, c := range p.Categories {
		out.Categories = append(out.Categories, strconv.FormatInt(c.ID, 10))
	}
	for _, attr := range p.Attributes {
		if len(attr.Options) > 0 {
			out.Attributes[attr.Name] = attr.Options[0]
		}
	}
	return out
}

// wooProductFromNormalized maps a canonical product to the write payload.
func wooProductFromNormalized(p *integration.NormalizedProduct) map[string]any {
	status := "draft"
	if p.Active {
		status = "publish"
	}
	payload := map[string]any{
		"sku":            p.SKU,
		"name":           p.Name,
		"description":    p.Description,
		"regular_price":  p.Price.String(),
		"manage_stock":   true,
		"stock_quantity": p.Stock,
		"status":         status,
	}
	if len(p.Images) > 0 {
		images := make([]map[string]string, len(p.Images))
		for i, src := range p.Images {
			images[i] = map[string]string{"src": src}
		}
		payload["images"] = images
	}
	if len(p.Categories) > 0 {
		categories := make([]map[string]int64, 0, len(p.Categories))
		for _, c := range p.Categories {
			if id, err := strconv.ParseInt(c, 10, 64); err == nil {
				categories = append(categories, map[string]int64{"id": id})
			}
		}
		payload["categories"] = categories
	}
	if len(p.Attributes) > 0 {
		attrs := make([]map[string]any, 0, len(p.Attributes))
		for name, value := range p.Attributes {
			attrs = append(attrs, map[string]any{"name": name, "options": []string{value}})
		}
		payload["attributes"] = attrs
	}
	return payload
}

// toNormalized maps a customer to the canonical shape.
func (c *wooCustomer) toNormalized() integration.NormalizedCustomer {
	name := c.FirstName
	if c.LastName != "" {
		if name != "" {
			name += " "
		}
		name += c.LastName
	}
	return integration.NormalizedCustomer{
		ExternalID: strconv.FormatInt(c.ID, 10),
		Name:       name,
		Email:      c.Email,
		Phone:      c.Billing.Phone,
	}
}

// toNormalized maps an order to the canonical shape.
func (o *wooOrder) toNormalized() integration.NormalizedOrder {
	placedAt, _ := time.Parse("2006-01-02T15:04:05", o.DateCreated)
	name := o.Billing.FirstName
	if o.Billing.LastName != "" {
		if name != "" {
			name += " "
		}
		name += o.Billing.LastName
	}
	order := integration.NormalizedOrder{
		ExternalID: strconv.FormatInt(o.ID, 10),
		Status:     o.Status,
		BuyerName:  name,
		BuyerEmail: o.Billing.Email,
		Total:      parseWooDecimal(o.Total),
		Currency:   o.Currency,
		PlacedAt:   placedAt,
	}
	for _, it := range o.LineItems {
		order.Items = append(order.Items, integration.NormalizedOrderItem{
			ExternalID: strconv.FormatInt(it.ProductID, 10),
			SKU:        it.SKU,
			Name:       it.Name,
			Quantity:   it.Quantity,
			UnitPrice:  parseWooDecimal(it.Price),
		})
	}
	return order
}
