package marketplace

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/furlanettoeduardo/ERP-PRS-sub000/internal/domain/integration"
)

// shopeeEnvelope is the uniform response wrapper of the partner API. A
// non-empty Error field means the call failed regardless of HTTP status.
type shopeeEnvelope struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
}

func (e *shopeeEnvelope) failed() bool {
	return e.Error != ""
}

func (e *shopeeEnvelope) envelope() *shopeeEnvelope {
	return e
}

// shopeeItem is one Shopee listing.
type shopeeItem struct {
	ItemID      int64           `json:"item_id"`
	ItemSKU     string          `json:"item_sku"`
	ItemName    string          `json:"item_name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int64           `json:"stock"`
	ItemStatus  string          `json:"item_status"`
	CategoryID  int64           `json:"category_id"`
	Images      []string        `json:"images"`
	Attributes  []shopeeAttr    `json:"attributes"`
	Models      []shopeeModel   `json:"models"`
}

type shopeeAttr struct {
	AttributeID    int64  `json:"attribute_id"`
	AttributeName  string `json:"attribute_name"`
	AttributeValue string `json:"attribute_value"`
}

type shopeeModel struct {
	ModelID  int64           `json:"model_id"`
	ModelSKU string          `json:"model_sku"`
	Price    decimal.Decimal `json:"price"`
	Stock    int64           `json:"stock"`
}

// shopeeItemList is the cursor-paginated listing response.
type shopeeItemList struct {
	shopeeEnvelope
	Response struct {
		Items       []shopeeItem `json:"item"`
		TotalCount  int64        `json:"total_count"`
		HasNextPage bool         `json:"has_next_page"`
		NextCursor  string       `json:"next_cursor"`
	} `json:"response"`
}

// shopeeItemDetail wraps a single-item response.
type shopeeItemDetail struct {
	shopeeEnvelope
	Response struct {
		Item shopeeItem `json:"item"`
	} `json:"response"`
}

// shopeeItemIDResponse carries the new listing ID after a create.
type shopeeItemIDResponse struct {
	shopeeEnvelope
	Response struct {
		ItemID int64 `json:"item_id"`
	} `json:"response"`
}

// shopeeCategoryList is the category tree response.
type shopeeCategoryList struct {
	shopeeEnvelope
	Response struct {
		Categories []struct {
			CategoryID       int64  `json:"category_id"`
			ParentCategoryID int64  `json:"parent_category_id"`
			CategoryName     string `json:"category_name"`
		} `json:"category_list"`
	} `json:"response"`
}

// shopeeAttributeList is the category attribute schema response.
type shopeeAttributeList struct {
	shopeeEnvelope
	Response struct {
		Attributes []struct {
			AttributeID   int64  `json:"attribute_id"`
			AttributeName string `json:"original_attribute_name"`
			InputType     string `json:"input_type"`
			Mandatory     bool   `json:"is_mandatory"`
			Values        []struct {
				Value string `json:"original_value_name"`
			} `json:"attribute_value_list"`
		} `json:"attribute_list"`
	} `json:"response"`
}

// shopeeOrder is one Shopee order.
type shopeeOrder struct {
	OrderSN     string          `json:"order_sn"`
	OrderStatus string          `json:"order_status"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Currency    string          `json:"currency"`
	CreateTime  int64           `json:"create_time"`
	BuyerUserID int64           `json:"buyer_user_id"`
	BuyerName   string          `json:"buyer_username"`
	ItemList    []struct {
		ItemID   int64           `json:"item_id"`
		ItemSKU  string          `json:"item_sku"`
		ItemName string          `json:"item_name"`
		Quantity int64           `json:"model_quantity_purchased"`
		Price    decimal.Decimal `json:"model_discounted_price"`
	} `json:"item_list"`
}

// shopeeOrderList is the cursor-paginated order response.
type shopeeOrderList struct {
	shopeeEnvelope
	Response struct {
		Orders      []shopeeOrder `json:"order_list"`
		HasNextPage bool          `json:"more"`
		NextCursor  string        `json:"next_cursor"`
	} `json:"response"`
}

// shopeeOrderDetail wraps a single-order response.
type shopeeOrderDetail struct {
	shopeeEnvelope
	Response struct {
		Orders []shopeeOrder `json:"order_list"`
	} `json:"response"`
}

// shopeeCustomerList is the cursor-paginated buyer response.
type shopeeCustomerList struct {
	shopeeEnvelope
	Response struct {
		Customers []struct {
			UserID   int64  `json:"user_id"`
			UserName string `json:"username"`
			Email    string `json:"email"`
			Phone    string `json:"phone"`
		} `json:"customer_list"`
		HasNextPage bool   `json:"has_next_page"`
		NextCursor  string `json:"next_cursor"`
	} `json:"response"`
}

// shopeePushConfig is the webhook registration response.
type shopeePushConfig struct {
	shopeeEnvelope
	Response struct {
		ConfigID    int64  `json:"config_id"`
		CallbackURL string `json:"callback_url"`
	} `json:"response"`
}

// toNormalized maps a listing to the canonical shape.
func (i *shopeeItem) toNormalized() integration.NormalizedProduct {
	p := integration.NormalizedProduct{
		ExternalID:  strconv.FormatInt(i.ItemID, 10),
		SKU:         i.ItemSKU,
		Name:        i.ItemName,
		Description: i.Description,
		Price:       i.Price,
		Stock:       i.Stock,
		Images:      i.Images,
		Active:      i.ItemStatus == "NORMAL",
		Attributes:  map[string]string{},
		Metadata: map[string]any{
			"item_status": i.ItemStatus,
			"category_id": i.CategoryID,
		},
	}
	if i.CategoryID > 0 {
		p.Categories = []string{strconv.FormatInt(i.CategoryID, 10)}
	}
	for _, attr := range i.Attributes {
		p.Attributes[strconv.FormatInt(attr.AttributeID, 10)] = attr.AttributeValue
	}
	for _, m := range i.Models {
		p.Variations = append(p.Variations, integration.NormalizedVariation{
			ExternalID: strconv.FormatInt(m.ModelID, 10),
			SKU:        m.ModelSKU,
			Price:      m.Price,
			Stock:      m.Stock,
		})
	}
	return p
}

// shopeeItemFromNormalized maps a canonical product to the write payload.
func shopeeItemFromNormalized(p *integration.NormalizedProduct) map[string]any {
	status := "UNLIST"
	if p.Active {
		status = "NORMAL"
	}
	payload := map[string]any{
		"item_sku":    p.SKU,
		"item_name":   p.Name,
		"description": p.Description,
		"price":       p.Price,
		"stock":       p.Stock,
		"item_status": status,
	}
	if len(p.Categories) > 0 {
		if id, err := strconv.ParseInt(p.Categories[0], 10, 64); err == nil {
			payload["category_id"] = id
		}
	}
	if len(p.Images) > 0 {
		payload["images"] = p.Images
	}
	if len(p.Attributes) > 0 {
		attrs := make([]map[string]any, 0, len(p.Attributes))
		for id, value := range p.Attributes {
			attr := map[string]any{"attribute_value": value}
			if parsed, err := strconv.ParseInt(id, 10, 64); err == nil {
				attr["attribute_id"] = parsed
			} else {
				attr["attribute_name"] = id
			}
			attrs = append(attrs, attr)
		}
		payload["attributes"] = attrs
	}
	return payload
}

// toNormalized maps an order to the canonical shape.
func (o *shopeeOrder) toNormalized() integration.NormalizedOrder {
	order := integration.NormalizedOrder{
		ExternalID: o.OrderSN,
		Status:     o.OrderStatus,
		BuyerName:  o.BuyerName,
		Total:      o.TotalAmount,
		Currency:   o.Currency,
		PlacedAt:   time.Unix(o.CreateTime, 0),
		Metadata:   map[string]any{"buyer_user_id": o.BuyerUserID},
	}
	for _, it := range o.ItemList {
		order.Items = append(order.Items, integration.NormalizedOrderItem{
			ExternalID: strconv.FormatInt(it.ItemID, 10),
			SKU:        it.ItemSKU,
			Name:       it.ItemName,
			Quantity:   it.Quantity,
			UnitPrice:  it.Price,
		})
	}
	return order
}
