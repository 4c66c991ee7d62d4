package model

type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
	Meta    *Meta     `json:"meta,omitempty"`
}

type APIError struct {
	Code     string            `json:"code"`
	Message  string            `json:"message"`
	Details  string            `json:"details,omitempty"`
	Redirect string            `json:"redirect,omitempty"`
	Fields   map[string]string `json:"fields,omitempty"`
}

type Meta struct {
	Total int `json:"total"`
}
