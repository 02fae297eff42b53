package marketplace

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/furlanettoeduardo/ERP-PRS-sub000/internal/domain/integration"
)

// ---------------------------------------------------------------------------
// Wire types (selling-partner payloads)
// ---------------------------------------------------------------------------

type amazonTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

type amazonErrorResponse struct {
	Errors []struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details string `json:"details"`
	} `json:"errors"`
}

func (e *amazonErrorResponse) message() string {
	if len(e.Errors) == 0 {
		return ""
	}
	return e.Errors[0].Message
}

type amazonMoney struct {
	Amount       decimal.Decimal `json:"amount"`
	CurrencyCode string          `json:"currencyCode"`
}

// amazonSKUPage is the first leg of the two-phase listing fetch: a page of
// seller SKUs plus a continuation token.
type amazonSKUPage struct {
	SKUs       []string `json:"skus"`
	NextToken  string   `json:"nextToken"`
	TotalCount int64    `json:"totalCount"`
}

// amazonListing is one listing item as returned by the bulk details call.
type amazonListing struct {
	SKU         string            `json:"sku"`
	ASIN        string            `json:"asin"`
	ItemName    string            `json:"itemName"`
	Description string            `json:"description"`
	Price       amazonMoney       `json:"price"`
	Quantity    int64             `json:"fulfillableQuantity"`
	Status      string            `json:"status"`
	ImageURLs   []string          `json:"imageUrls"`
	ProductType string            `json:"productType"`
	Attributes  map[string]string `json:"attributes"`
}

type amazonListingBatch struct {
	Items []amazonListing `json:"items"`
}

type amazonListingSubmission struct {
	SKU          string `json:"sku"`
	Status       string `json:"status"`
	SubmissionID string `json:"submissionId"`
}

type amazonPatch struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	Value any    `json:"value"`
}

type amazonPatchRequest struct {
	ProductType string        `json:"productType"`
	Patches     []amazonPatch `json:"patches"`
}

type amazonProductType struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
}

type amazonProductTypeList struct {
	ProductTypes []amazonProductType `json:"productTypes"`
}

type amazonProductTypeDefinition struct {
	Name       string `json:"name"`
	Attributes []struct {
		Name     string   `json:"name"`
		Title    string   `json:"title"`
		Type     string   `json:"type"`
		Required bool     `json:"required"`
		Enum     []string `json:"enum"`
	} `json:"attributes"`
}

type amazonOrder struct {
	AmazonOrderID string      `json:"AmazonOrderId"`
	OrderStatus   string      `json:"OrderStatus"`
	PurchaseDate  time.Time   `json:"PurchaseDate"`
	OrderTotal    amazonMoney `json:"OrderTotal"`
	BuyerInfo     struct {
		BuyerEmail string `json:"BuyerEmail"`
		BuyerName  string `json:"BuyerName"`
	} `json:"BuyerInfo"`
}

type amazonOrderList struct {
	Payload struct {
		Orders    []amazonOrder `json:"Orders"`
		NextToken string        `json:"NextToken"`
	} `json:"payload"`
}

type amazonOrderResponse struct {
	Payload amazonOrder `json:"payload"`
}

type amazonOrderItem struct {
	OrderItemID string      `json:"OrderItemId"`
	SellerSKU   string      `json:"SellerSKU"`
	Title       string      `json:"Title"`
	Quantity    int64       `json:"QuantityOrdered"`
	ItemPrice   amazonMoney `json:"ItemPrice"`
}

type amazonOrderItemList struct {
	Payload struct {
		OrderItems []amazonOrderItem `json:"OrderItems"`
	} `json:"payload"`
}

type amazonSubscription struct {
	Payload struct {
		SubscriptionID string `json:"subscriptionId"`
		DestinationID  string `json:"destinationId"`
	} `json:"payload"`
}

// ---------------------------------------------------------------------------
// Canonical mapping
// ---------------------------------------------------------------------------

func (l *amazonListing) toNormalized() integration.NormalizedProduct {
	out := integration.NormalizedProduct{
		ExternalID:  l.SKU,
		SKU:         l.SKU,
		Name:        l.ItemName,
		Description: l.Description,
		Price:       l.Price.Amount,
		Stock:       l.Quantity,
		Images:      l.ImageURLs,
		Active:      l.Status == "ACTIVE",
		Attributes:  l.Attributes,
		Metadata: map[string]any{
			"asin":         l.ASIN,
			"product_type": l.ProductType,
		},
	}
	if l.ProductType != "" {
		out.Categories = []string{l.ProductType}
	}
	return out
}

func amazonListingFromNormalized(p *integration.NormalizedProduct) *amazonListing {
	status := "INACTIVE"
	if p.Active {
		status = "ACTIVE"
	}
	productType := "PRODUCT"
	if len(p.Categories) > 0 {
		productType = p.Categories[0]
	}
	return &amazonListing{
		SKU:         p.SKU,
		ItemName:    p.Name,
		Description: p.Description,
		Price:       amazonMoney{Amount: p.Price, CurrencyCode: "BRL"},
		Quantity:    p.Stock,
		Status:      status,
		ImageURLs:   p.Images,
		ProductType: productType,
		Attributes:  p.Attributes,
	}
}

func (o *amazonOrder) toNormalized(items []amazonOrderItem) integration.NormalizedOrder {
	out := integration.NormalizedOrder{
		ExternalID: o.AmazonOrderID,
		Status:     o.OrderStatus,
		BuyerName:  o.BuyerInfo.BuyerName,
		BuyerEmail: o.BuyerInfo.BuyerEmail,
		Total:      o.OrderTotal.Amount,
		Currency:   o.OrderTotal.CurrencyCode,
		PlacedAt:   o.PurchaseDate,
	}
	for _, it := range items {
		out.Items = append(out.Items, integration.NormalizedOrderItem{
			ExternalID: it.OrderItemID,
			SKU:        it.SellerSKU,
			Name:       it.Title,
			Quantity:   it.Quantity,
			UnitPrice:  it.ItemPrice.Amount,
		})
	}
	return out
}
