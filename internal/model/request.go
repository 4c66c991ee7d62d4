package model

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Email           string `json:"email"`
	Username        string `json:"username"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

type AddCartItemRequest struct {
	BookID   int64 `json:"book_id"`
	Quantity int   `json:"quantity"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

type LoginResponse struct {
	UserID   string `json:"user_id"`
	Role     Role   `json:"role"`
	Redirect string `json:"redirect"`
	Message  string `json:"message"`
}

type ViewActivation struct {
	View     string `json:"view"`
	Allowed  bool   `json:"allowed"`
	Redirect string `json:"redirect,omitempty"`
	Role     Role   `json:"role"`
}
