package model

import "time"

const OrderStatusPending = "Pending"

type Order struct {
	ID           string    `json:"id"`
	OrderDate    time.Time `json:"order_date"`
	UserID       string    `json:"user_id"`
	UserFullName string    `json:"user_full_name"`
	UserEmail    string    `json:"user_email"`
	ClaimCode    string    `json:"claim_code"`
	TotalAmount  float64   `json:"total_amount"`
	Status       string    `json:"status"`
}

func (o Order) HasEmail() bool {
	return o.UserEmail != ""
}

type ProcessResult struct {
	OrderID    string `json:"order_id"`
	Message    string `json:"message"`
	EmailSent  bool   `json:"email_sent"`
	EmailError string `json:"email_error,omitempty"`
	Remaining  int    `json:"remaining"`
}

type DashboardStats struct {
	TotalBooks  int `json:"total_books"`
	BooksOnSale int `json:"books_on_sale"`
	TotalOrders int `json:"total_orders"`
}
