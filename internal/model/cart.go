package model

type CartLine struct {
	BookID          int64   `json:"book_id"`
	Title           string  `json:"title"`
	CoverImageURL   string  `json:"cover_image_url,omitempty"`
	UnitPrice       float64 `json:"unit_price"`
	Quantity        int     `json:"quantity"`
	LineTotal       float64 `json:"line_total"`
	DiscountPercent float64 `json:"discount_percent"`
	OriginalPrice   float64 `json:"original_price"`
}

// EffectivePrice applies the line discount to the original price only when a
// discount is present; otherwise the unit price stands.
func (l CartLine) EffectivePrice() float64 {
	if l.DiscountPercent > 0 {
		return l.OriginalPrice * (1 - l.DiscountPercent/100)
	}
	return l.UnitPrice
}

func TotalPrice(lines []CartLine) float64 {
	total := 0.0
	for _, line := range lines {
		total += line.EffectivePrice() * float64(line.Quantity)
	}
	return total
}

func LineCount(lines []CartLine) int {
	count := 0
	for _, line := range lines {
		count += line.Quantity
	}
	return count
}

type CartState string

const (
	CartUnauthenticated CartState = "unauthenticated"
	CartLoading         CartState = "loading"
	CartReady           CartState = "ready"
	CartError           CartState = "error"
)

type CartSnapshot struct {
	Items      []CartLine `json:"items"`
	ItemCount  int        `json:"item_count"`
	LineCount  int        `json:"line_count"`
	TotalPrice float64    `json:"total_price"`
	IsLoading  bool       `json:"is_loading"`
	State      CartState  `json:"state"`
	LastError  string     `json:"last_error,omitempty"`
	Role       Role       `json:"role,omitempty"`
}
