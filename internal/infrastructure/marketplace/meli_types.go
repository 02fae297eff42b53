package marketplace

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/furlanettoeduardo/ERP-PRS-sub000/internal/domain/integration"
)

// meliTokenResponse is the OAuth token endpoint payload.
type meliTokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	UserID       int64  `json:"user_id"`
	Scope        string `json:"scope"`
}

// meliErrorResponse is the uniform error body of the Mercado Livre API.
type meliErrorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
	Status  int    `json:"status"`
}

// meliPaging carries offset pagination state.
type meliPaging struct {
	Total  int64 `json:"total"`
	Offset int   `json:"offset"`
	Limit  int   `json:"limit"`
}

// meliItem is a Mercado Livre listing.
type meliItem struct {
	ID                string          `json:"id"`
	Title             string          `json:"title"`
	SellerCustomField string          `json:"seller_custom_field"`
	CategoryID        string          `json:"category_id"`
	Price             decimal.Decimal `json:"price"`
	AvailableQuantity int64           `json:"available_quantity"`
	Status            string          `json:"status"`
	Pictures          []meliPicture   `json:"pictures"`
	Attributes        []meliAttribute `json:"attributes"`
	Variations        []meliVariation `json:"variations"`
	Descriptions      []meliText      `json:"descriptions"`
}

type meliPicture struct {
	URL string `json:"url"`
}

type meliAttribute struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ValueName string `json:"value_name"`
}

type meliVariation struct {
	ID                int64           `json:"id"`
	SellerCustomField string          `json:"seller_custom_field"`
	Price             decimal.Decimal `json:"price"`
	AvailableQuantity int64           `json:"available_quantity"`
}

type meliText struct {
	PlainText string `json:"plain_text"`
}

// meliItemList is the offset-paginated listing response.
type meliItemList struct {
	Results []meliItem `json:"results"`
	Paging  meliPaging `json:"paging"`
}

// meliIDSearch resolves a seller SKU to listing IDs.
type meliIDSearch struct {
	Results []string   `json:"results"`
	Paging  meliPaging `json:"paging"`
}

// meliOrder is a Mercado Livre order.
type meliOrder struct {
	ID          int64           `json:"id"`
	Status      string          `json:"status"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	CurrencyID  string          `json:"currency_id"`
	DateCreated time.Time       `json:"date_created"`
	Buyer       meliBuyer       `json:"buyer"`
	OrderItems  []meliOrderItem `json:"order_items"`
}

type meliBuyer struct {
	ID        int64  `json:"id"`
	Nickname  string `json:"nickname"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     struct {
		Number string `json:"number"`
	} `json:"phone"`
}

type meliOrderItem struct {
	Item struct {
		ID                string `json:"id"`
		Title             string `json:"title"`
		SellerCustomField string `json:"seller_custom_field"`
	} `json:"item"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// meliOrderList is the offset-paginated order search response.
type meliOrderList struct {
	Results []meliOrder `json:"results"`
	Paging  meliPaging  `json:"paging"`
}

// meliBuyerList is the offset-paginated buyer listing.
type meliBuyerList struct {
	Results []meliBuyer `json:"results"`
	Paging  meliPaging  `json:"paging"`
}

// meliWebhook is a registered notification callback.
type meliWebhook struct {
	ID          string `json:"id"`
	CallbackURL string `json:"callback_url"`
	Topic       string `json:"topic"`
}

// meliCategory is a site category node.
type meliCategory struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Path []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"path_from_root"`
}

// meliCategoryAttribute describes one listing attribute of a category.
type meliCategoryAttribute struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Type   string          `json:"value_type"`
	Tags   map[string]bool `json:"tags"`
	Values []struct {
		Name string `json:"name"`
	} `json:"values"`
}

// toNormalized maps a listing to the canonical product shape.
func (i *meliItem) toNormalized() integration.NormalizedProduct {
	p := integration.NormalizedProduct{
		ExternalID: i.ID,
		SKU:        i.SellerCustomField,
		Name:       i.Title,
		Price:      i.Price,
		Stock:      i.AvailableQuantity,
		Active:     i.Status == "active",
		Attributes: map[string]string{},
		Metadata: map[string]any{
			"category_id": i.CategoryID,
			"status":      i.Status,
		},
	}
	if i.CategoryID != "" {
		p.Categories = []string{i.CategoryID}
	}
	if len(i.Descriptions) > 0 {
		p.Description = i.Descriptions[0].PlainText
	}
	for _, pic := range i.Pictures {
		p.Images = append(p.Images, pic.URL)
	}
	for _, attr := range i.Attributes {
		p.Attributes[attr.ID] = attr.ValueName
	}
	for _, v := range i.Variations {
		p.Variations = append(p.Variations, integration.NormalizedVariation{
			ExternalID: strconv.FormatInt(v.ID, 10),
			SKU:        v.SellerCustomField,
			Price:      v.Price,
			Stock:      v.AvailableQuantity,
		})
	}
	return p
}

// fromNormalized maps a canonical product to the listing write payload.
func meliItemFromNormalized(p *integration.NormalizedProduct) map[string]any {
	status := "paused"
	if p.Active {
		status = "active"
	}
	payload := map[string]any{
		"title":               p.Name,
		"seller_custom_field": p.SKU,
		"price":               p.Price,
		"available_quantity":  p.Stock,
		"status":              status,
		"currency_id":         "BRL",
	}
	if p.Description != "" {
		payload["description"] = map[string]any{"plain_text": p.Description}
	}
	if len(p.Categories) > 0 {
		payload["category_id"] = p.Categories[0]
	}
	if len(p.Images) > 0 {
		pictures := make([]map[string]string, len(p.Images))
		for i, url := range p.Images {
			pictures[i] = map[string]string{"source": url}
		}
		payload["pictures"] = pictures
	}
	if len(p.Attributes) > 0 {
		attrs := make([]map[string]string, 0, len(p.Attributes))
		for id, value := range p.Attributes {
			attrs = append(attrs, map[string]string{"id": id, "value_name": value})
		}
		payload["attributes"] = attrs
	}
	return payload
}

// toNormalizedOrder maps an order to the canonical shape.
func (o *meliOrder) toNormalized() integration.NormalizedOrder {
	order := integration.NormalizedOrder{
		ExternalID: strconv.FormatInt(o.ID, 10),
		Status:     o.Status,
		BuyerName:  o.Buyer.displayName(),
		BuyerEmail: o.Buyer.Email,
		Total:      o.TotalAmount,
		Currency:   o.CurrencyID,
		PlacedAt:   o.DateCreated,
		Metadata:   map[string]any{"buyer_id": o.Buyer.ID},
	}
	for _, it := range o.OrderItems {
		order.Items = append(order.Items, integration.NormalizedOrderItem{
			ExternalID: it.Item.ID,
			SKU:        it.Item.SellerCustomField,
			Name:       it.Item.Title,
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice,
		})
	}
	return order
}

func (b *meliBuyer) displayName() string {
	if b.FirstName == "" && b.LastName == "" {
		return b.Nickname
	}
	if b.FirstName == "" {
		return b.LastName
	}
	if b.LastName == "" {
		return b.FirstName
	}
	return b.FirstName + " " + b.LastName
}

// toNormalizedCustomer maps a buyer to the canonical customer shape.
func (b *meliBuyer) toNormalizedCustomer() integration.NormalizedCustomer {
	return integration.NormalizedCustomer{
		ExternalID: strconv.FormatInt(b.ID, 10),
		Name:       b.displayName(),
		Email:      b.Email,
		Phone:      b.Phone.Number,
		Metadata:   map[string]any{"nickname": b.Nickname},
	}
}
