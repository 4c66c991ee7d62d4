package backend

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"booknest/internal/model"
)

// FlexString accepts both JSON strings and numbers. Backend ids are not
// consistently typed across endpoints.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

func (f FlexString) String() string {
	return string(f)
}

type CartItem struct {
	BookID             int64    `json:"bookId"`
	BookTitle          string   `json:"bookTitle"`
	BookCoverImageURL  string   `json:"bookCoverImageUrl"`
	UnitPrice          float64  `json:"unitPrice"`
	Quantity           int      `json:"quantity"`
	LineTotal          float64  `json:"lineTotal"`
	DiscountPercentage *float64 `json:"discountPercentage"`
	OriginalPrice      *float64 `json:"originalPrice"`
}

// Line converts the wire item. A missing discount reads as 0 and a missing
// or zero original price falls back to the unit price.
func (i CartItem) Line() model.CartLine {
	line := model.CartLine{
		BookID:        i.BookID,
		Title:         i.BookTitle,
		CoverImageURL: i.BookCoverImageURL,
		UnitPrice:     i.UnitPrice,
		Quantity:      i.Quantity,
		LineTotal:     i.LineTotal,
		OriginalPrice: i.UnitPrice,
	}
	if i.DiscountPercentage != nil {
		line.DiscountPercent = *i.DiscountPercentage
	}
	if i.OriginalPrice != nil && *i.OriginalPrice != 0 {
		line.OriginalPrice = *i.OriginalPrice
	}
	return line
}

type Cart struct {
	Items     []CartItem `json:"items"`
	ItemCount int        `json:"itemCount"`
}

func (c Cart) Lines() []model.CartLine {
	lines := make([]model.CartLine, 0, len(c.Items))
	for _, item := range c.Items {
		lines = append(lines, item.Line())
	}
	return lines
}

type LoginData struct {
	Token        string     `json:"token"`
	RefreshToken string     `json:"refreshToken"`
	UserID       FlexString `json:"userId"`
	Role         string     `json:"role"`
}

type LoginResult struct {
	LoginData
	// Raw is the complete data object, persisted as the "user" blob.
	Raw json.RawMessage
}

type RegisterPayload struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type cartLineRequest struct {
	BookID   int64 `json:"bookId"`
	Quantity int   `json:"quantity,omitempty"`
}

type Order struct {
	ID           FlexString `json:"id"`
	OrderDate    string     `json:"orderDate"`
	UserID       FlexString `json:"userId"`
	UserFullName string     `json:"userFullName"`
	CustomerName string     `json:"customerName"`
	UserEmail    string     `json:"userEmail"`
	Email        string     `json:"email"`
	ClaimCode    string     `json:"claimCode"`
	TotalAmount  float64    `json:"totalAmount"`
	Status       string     `json:"status"`
}

var orderDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.9999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Normalize applies the contact fallbacks: userEmail then email, and
// userFullName then customerName then "Unknown Customer".
func (o Order) Normalize() model.Order {
	out := model.Order{
		ID:          o.ID.String(),
		UserID:      o.UserID.String(),
		ClaimCode:   o.ClaimCode,
		TotalAmount: o.TotalAmount,
		Status:      o.Status,
	}

	out.UserEmail = strings.TrimSpace(o.UserEmail)
	if out.UserEmail == "" {
		out.UserEmail = strings.TrimSpace(o.Email)
	}

	out.UserFullName = firstNonEmpty(o.UserFullName, o.CustomerName)
	if out.UserFullName == "" {
		out.UserFullName = "Unknown Customer"
	}

	for _, layout := range orderDateLayouts {
		if parsed, err := time.Parse(layout, o.OrderDate); err == nil {
			out.OrderDate = parsed
			break
		}
	}

	return out
}

type ProcessingNotification struct {
	OrderID      string `json:"orderId"`
	UserID       string `json:"userId"`
	ClaimCode    string `json:"claimCode"`
	UserEmail    string `json:"userEmail"`
	UserFullName string `json:"userFullName"`
}

// EmailReceipt is the raw outcome of an email endpoint; the caller decides
// whether the message counts as delivered.
type EmailReceipt struct {
	Success bool
	Message string
}

func (r EmailReceipt) Delivered() bool {
	if r.Success {
		return true
	}
	msg := strings.ToLower(r.Message)
	return strings.Contains(msg, "sent") || strings.Contains(msg, "success")
}

type booksPage struct {
	Metadata struct {
		TotalItems int `json:"totalItems"`
	} `json:"metadata"`
}

// countOf reads either a bare number or an array length.
func countOf(raw json.RawMessage) int {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0
	}
	if raw[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err == nil {
			return len(items)
		}
		return 0
	}
	if n, err := strconv.ParseFloat(string(raw), 64); err == nil {
		return int(n)
	}
	return 0
}
