package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"booknest/internal/backend"
	"booknest/internal/event"
	"booknest/internal/model"
)

type authAPI interface {
	Register(ctx context.Context, payload backend.RegisterPayload) (string, error)
	Login(ctx context.Context, email string, password string) (*backend.LoginResult, error)
}

type AuthService struct {
	api authAPI
	bus event.Bus
}

func NewAuthService(api authAPI, bus event.Bus) *AuthService {
	if bus == nil {
		bus = event.Nop{}
	}
	return &AuthService{api: api, bus: bus}
}

var registerMessages = messages{
	validation: "Invalid registration data. Please check your information.",
	conflict:   "User already exists with this email or username.",
	server:     "Server error occurred. Please try again later or contact support.",
	network:    "Unable to connect to the server. Please check your internet connection.",
	fallback:   "Registration failed. Please try again.",
}

var loginMessages = messages{
	fallback: "Login failed",
}

// Register validates the form locally and only then creates the account.
// Nothing is persisted in the session; the caller is sent to the login view.
func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (string, error) {
	fields := map[string]string{}

	email := strings.TrimSpace(req.Email)
	switch {
	case email == "":
		fields["email"] = "Email is required"
	case utf8Len(email) > maxEmailLength:
		fields["email"] = "Email cannot exceed 100 characters"
	case !validEmail(email):
		fields["email"] = "Please enter a valid email address"
	}

	username := strings.TrimSpace(req.Username)
	switch {
	case username == "":
		fields["username"] = "Username is required"
	case !validUsername(username):
		fields["username"] = "Username must be between 3 and 20 characters"
	}

	switch {
	case req.Password == "":
		fields["password"] = "Password is required"
	case !validPassword(req.Password):
		fields["password"] = "Password must be at least 8 characters long and include uppercase, lowercase, numbers, and special characters"
	}

	switch {
	case req.ConfirmPassword == "":
		fields["confirm_password"] = "Confirm Password is required"
	case req.Password != req.ConfirmPassword:
		fields["confirm_password"] = "Passwords do not match"
	}

	if len(fields) > 0 {
		return "", validationFailure(fields)
	}

	_, err := s.api.Register(ctx, backend.RegisterPayload{
		Email:    strings.ToLower(email),
		Username: username,
		Password: req.Password,
	})
	if err != nil {
		return "", classify(err, registerMessages)
	}

	slog.Info("account registered", "username", username)
	return "Registration successful! Please login with your credentials.", nil
}

// Login stores the five session keys and returns the landing view for the
// user's role.
func (s *AuthService) Login(ctx context.Context, scope SessionScope, req model.LoginRequest) (model.LoginResponse, error) {
	fields := map[string]string{}
	email := strings.TrimSpace(req.Email)
	switch {
	case email == "":
		fields["email"] = "Email is required"
	case !emailPattern.MatchString(email):
		fields["email"] = "Please enter a valid email address"
	}
	if req.Password == "" {
		fields["password"] = "Password is required"
	}
	if len(fields) > 0 {
		return model.LoginResponse{}, validationFailure(fields)
	}

	result, err := s.api.Login(ctx, email, req.Password)
	if err != nil {
		if backend.IsUnauthorized(err) {
			f := newFailure(KindInvalidCredentials, firstNonEmpty(backendMessage(err), "Invalid email or password."), nil)
			f.Status = http.StatusUnauthorized
			f.cause = err
			return model.LoginResponse{}, f
		}
		return model.LoginResponse{}, classify(err, loginMessages)
	}

	sess := model.Session{
		AuthToken:    result.Token,
		RefreshToken: result.RefreshToken,
		UserID:       result.UserID.String(),
		Role:         model.ParseRole(result.Role),
		User:         result.Raw,
	}
	if err := scope.Save(ctx, sess); err != nil {
		return model.LoginResponse{}, fmt.Errorf("persist session: %w", err)
	}

	if sess.Role == model.RoleUnknown {
		slog.Warn("login returned an unrecognised role", "session_id", scope.ID(), "role", result.Role)
	}
	s.bus.Publish(event.New(scope.ID(), event.TypeSessionStarted, map[string]any{"role": sess.Role}))

	return model.LoginResponse{
		UserID:   sess.UserID,
		Role:     sess.Role,
		Redirect: model.LandingRoute(sess.Role),
		Message:  welcomeMessage(sess.Role),
	}, nil
}

func (s *AuthService) Logout(ctx context.Context, scope SessionScope) error {
	if err := scope.Clear(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	s.bus.Publish(event.New(scope.ID(), event.TypeSessionEnded, nil))
	return nil
}

func (s *AuthService) Current(ctx context.Context, scope SessionScope) (model.Session, error) {
	sess, err := scope.Load(ctx)
	if err != nil {
		return model.Session{}, err
	}
	if err := requireAuthenticated(sess, "You must be logged in to access this feature."); err != nil {
		return model.Session{}, err
	}
	return sess, nil
}

// RequireRole is the role half of the session gate.
func RequireRole(sess model.Session, required model.Role) error {
	if !sess.Authenticated() {
		return newFailure(KindAuthRequired, "You must be logged in to access this feature.", model.ErrAuthRequired)
	}
	if sess.Role != required {
		return newFailure(KindRoleMismatch,
			fmt.Sprintf("This feature requires %s role. Your current role is %s.", required, sess.Role),
			model.ErrForbidden)
	}
	return nil
}

func welcomeMessage(role model.Role) string {
	switch role {
	case model.RoleAdmin:
		return "Welcome to the Admin Dashboard!"
	case model.RoleStaff:
		return "Welcome to the Staff Portal!"
	default:
		return "You've successfully logged in!"
	}
}
