package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/naveenspark/shopterm/pkg/domain"
)

// Config tunes the HTTP surface of the dev gateway.
type Config struct {
	// Secret signs access tokens. Must not be empty.
	Secret []byte

	// TokenTTL is the access token lifetime. Short TTLs are handy for
	// exercising client-side expiry handling.
	TokenTTL time.Duration

	// LoginRate and LoginBurst bound login attempts per email.
	LoginRate  rate.Limit
	LoginBurst int
}

func DefaultConfig(secret []byte) Config {
	return Config{
		Secret:     secret,
		TokenTTL:   time.Hour,
		LoginRate:  rate.Limit(5.0 / 60.0), // 5 attempts per minute
		LoginBurst: 5,
	}
}

type ctxKey int

const userKey ctxKey = 0

type registerRequest struct {
	Name     string      `json:"name" validate:"required,min=1,max=120"`
	Email    string      `json:"email" validate:"required,email"`
	Password string      `json:"password" validate:"required,min=8"`
	Role     domain.Role `json:"role" validate:"omitempty,oneof=CUSTOMER SELLER"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	ExpiresAt   int64       `json:"expires_at"`
	User        domain.User `json:"user"`
}

type createProductRequest struct {
	Name  string  `json:"name" validate:"required,min=1,max=200"`
	Price float64 `json:"price" validate:"required,gt=0"`
	Stock int     `json:"stock" validate:"gte=0"`
}

type createOrderRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
}

type orderResponse struct {
	Order            domain.Order `json:"order"`
	IdempotentReplay bool         `json:"idempotentReplay"`
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type server struct {
	g        *Gateway
	cfg      Config
	log      *zap.Logger
	validate *validator.Validate

	limMu    sync.Mutex
	limiters map[string]*rate.Limiter
}

// Handler returns the gateway's HTTP API. Mount it under the path
// prefix clients use as their base URL (conventionally /api).
func (g *Gateway) Handler(cfg Config) http.Handler {
	s := &server{
		g:        g,
		cfg:      cfg,
		log:      g.log,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		limiters: make(map[string]*rate.Limiter),
	}

	r := chi.NewRouter()
	r.Post("/users", s.handleRegister)
	r.Post("/users/login", s.handleLogin)
	r.Get("/products", s.handleListProducts)

	r.Group(func(r chi.Router) {
		r.Use(s.auth)
		r.Post("/products", s.requireRole(s.handleCreateProduct, domain.RoleSeller, domain.RoleAdmin))
		r.Get("/users", s.requireRole(s.handleListUsers, domain.RoleAdmin))
		r.Get("/orders", s.handleListOrders)
		r.Post("/orders", s.requireRole(s.handleCreateOrder, domain.RoleCustomer, domain.RoleAdmin))
		r.Patch("/orders/{id}/cancel", s.handleCancelOrder)
	})

	return r
}

func (s *server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Role == "" {
		req.Role = domain.RoleCustomer
	}

	user, err := s.g.register(req.Name, req.Email, req.Password, req.Role, false)
	switch {
	case err == errEmailTaken:
		s.writeError(w, http.StatusConflict, "EMAIL_TAKEN", err.Error())
	case err != nil:
		s.writeError(w, http.StatusBadRequest, "REGISTRATION_FAILED", err.Error())
	default:
		s.writeJSON(w, http.StatusCreated, user)
	}
}

func (s *server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !s.decode(w, r, &req) {
		return
	}
	if !s.loginLimiter(req.Email).Allow() {
		s.writeError(w, http.StatusTooManyRequests, "RATE_LIMITED", "too many login attempts, try again later")
		return
	}

	user, err := s.g.authenticate(req.Email, req.Password)
	if err != nil {
		s.writeError(w, http.StatusUnauthorized, "BAD_CREDENTIALS", errBadCredentials.Error())
		return
	}

	exp := time.Now().Add(s.cfg.TokenTTL)
	token, err := s.issueToken(user, exp)
	if err != nil {
		s.log.Error("token signing failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}

	s.writeJSON(w, http.StatusOK, loginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   exp.Unix(),
		User:        user,
	})
}

func (s *server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.g.listProducts())
}

func (s *server) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.writeJSON(w, http.StatusCreated, s.g.createProduct(req.Name, req.Price, req.Stock))
}

func (s *server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.g.listUsers())
}

func (s *server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.g.listOrders(callerFrom(r)))
}

func (s *server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if !s.decode(w, r, &req) {
		return
	}

	key := r.Header.Get("Idempotency-Key")
	order, replay, err := s.g.createOrder(callerFrom(r), req.ProductID, req.Quantity, key)
	switch err {
	case nil:
		status := http.StatusCreated
		if replay {
			status = http.StatusOK
		}
		s.writeJSON(w, status, orderResponse{Order: order, IdempotentReplay: replay})
	case errUnknownProduct:
		s.writeError(w, http.StatusNotFound, "PRODUCT_NOT_FOUND", err.Error())
	case errInsufficientStock:
		s.writeError(w, http.StatusConflict, "INSUFFICIENT_STOCK", err.Error())
	default:
		s.writeError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
	}
}

func (s *server) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	order, err := s.g.cancelOrder(callerFrom(r), chi.URLParam(r, "id"))
	switch err {
	case nil:
		s.writeJSON(w, http.StatusOK, order)
	case errUnknownOrder:
		s.writeError(w, http.StatusNotFound, "ORDER_NOT_FOUND", err.Error())
	case errNotOwner:
		s.writeError(w, http.StatusForbidden, "FORBIDDEN", err.Error())
	case errNotCancellable:
		s.writeError(w, http.StatusConflict, "NOT_CANCELLABLE", err.Error())
	default:
		s.writeError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
	}
}

// auth verifies the bearer token and resolves the account it names.
func (s *server) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if raw == "" || raw == r.Header.Get("Authorization") {
			s.writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing bearer token")
			return
		}

		claims := &jwt.RegisteredClaims{}
		tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return s.cfg.Secret, nil
		})
		if err != nil || !tok.Valid {
			s.writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or expired token")
			return
		}

		user, ok := s.g.userByID(claims.Subject)
		if !ok || !user.IsActive {
			s.writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "unknown account")
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, user)))
	})
}

func (s *server) requireRole(next http.HandlerFunc, roles ...domain.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := callerFrom(r)
		for _, role := range roles {
			if caller.Role == role {
				next(w, r)
				return
			}
		}
		s.writeError(w, http.StatusForbidden, "FORBIDDEN", "role "+string(caller.Role)+" may not perform this action")
	}
}

func callerFrom(r *http.Request) domain.User {
	user, _ := r.Context().Value(userKey).(domain.User)
	return user
}

func (s *server) issueToken(user domain.User, exp time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   user.ID,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.cfg.Secret)
}

func (s *server) loginLimiter(email string) *rate.Limiter {
	s.limMu.Lock()
	defer s.limMu.Unlock()
	lim, ok := s.limiters[email]
	if !ok {
		lim = rate.NewLimiter(s.cfg.LoginRate, s.cfg.LoginBurst)
		s.limiters[email] = lim
	}
	return lim
}

// decode parses and validates a JSON request body, answering 400 itself
// when the payload is unusable.
func (s *server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.writeError(w, http.StatusBadRequest, "BAD_REQUEST", "malformed JSON body")
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		s.writeError(w, http.StatusBadRequest, "VALIDATION_FAILED", validationMessage(err))
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid request"
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, strings.ToLower(fe.Field()))
	}
	return "invalid fields: " + strings.Join(fields, ", ")
}

func (s *server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("response encoding failed", zap.Error(err))
	}
}

func (s *server) writeError(w http.ResponseWriter, status int, code, message string) {
	s.writeJSON(w, status, errorBody{Error: code, Message: message})
}
