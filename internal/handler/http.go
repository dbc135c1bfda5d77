package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/harshita194/sweet-shop/internal/domain"
	"github.com/harshita194/sweet-shop/internal/handler/mw"
	"github.com/harshita194/sweet-shop/internal/usecase"
)

type Handler struct {
	service *usecase.Service
	auth    *mw.Auth
}

func NewHandler(service *usecase.Service, auth *mw.Auth) *Handler {
	return &Handler{service: service, auth: auth}
}

func (h *Handler) Register(r chi.Router) {
	r.Use(middleware.Logger)

	r.Get("/", h.root)

	r.Post("/auth/register", h.register)
	r.Post("/auth/login", h.login)

	r.Get("/sweets", h.listSweets)
	r.Get("/sweets/search", h.searchSweets)

	r.Group(func(r chi.Router) {
		r.Use(h.auth.Authenticate)

		r.Get("/auth/me", h.me)
		r.Post("/sweets", h.createSweet)
		r.Put("/sweets/{id}", h.updateSweet)
		r.Post("/sweets/{id}/purchase", h.purchase)

		r.Group(func(r chi.Router) {
			r.Use(h.auth.RequireAdmin)

			r.Delete("/sweets/{id}", h.deleteSweet)
			r.Post("/sweets/{id}/restock", h.restock)
			r.Get("/inventory", h.listInventory)
			r.Post("/inventory", h.upsertInventory)
		})
	})
}

func (h *Handler) root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Sweet Shop API is running"})
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Bad request")
		return
	}
	user, err := h.service.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	token, err := h.auth.GenerateToken(user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusCreated, authResponse{Token: token, User: user})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Bad request")
		return
	}
	user, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	token, err := h.auth.GenerateToken(user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, authResponse{Token: token, User: user})
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, mw.UserFromContext(r.Context()))
}

func (h *Handler) listSweets(w http.ResponseWriter, r *http.Request) {
	sweets, err := h.service.ListSweets(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if sweets == nil {
		sweets = []domain.Sweet{}
	}
	writeJSON(w, http.StatusOK, sweets)
}

func (h *Handler) searchSweets(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.SweetFilter{
		Name:     q.Get("name"),
		Category: q.Get("category"),
	}
	if v := q.Get("minPrice"); v != "" {
		p, err := strconv.ParseFloat(v, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid price filter")
			return
		}
		filter.MinPrice = &p
	}
	if v := q.Get("maxPrice"); v != "" {
		p, err := strconv.ParseFloat(v, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid price filter")
			return
		}
		filter.MaxPrice = &p
	}

	sweets, err := h.service.SearchSweets(r.Context(), filter)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if sweets == nil {
		sweets = []domain.Sweet{}
	}
	writeJSON(w, http.StatusOK, sweets)
}

type createSweetRequest struct {
	Name     string   `json:"name"`
	Category string   `json:"category"`
	Price    *float64 `json:"price"`
	Quantity *int     `json:"quantity"`
	Image    string   `json:"image"`
}

func (h *Handler) createSweet(w http.ResponseWriter, r *http.Request) {
	var req createSweetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Bad request")
		return
	}
	sweet, err := h.service.CreateSweet(r.Context(), usecase.CreateSweetInput{
		Name:     req.Name,
		Category: req.Category,
		Price:    req.Price,
		Quantity: req.Quantity,
		Image:    req.Image,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sweet)
}

type updateSweetRequest struct {
	Name     *string  `json:"name"`
	Category *string  `json:"category"`
	Price    *float64 `json:"price"`
	Quantity *int     `json:"quantity"`
	Image    *string  `json:"image"`
}

func (h *Handler) updateSweet(w http.ResponseWriter, r *http.Request) {
	var req updateSweetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Bad request")
		return
	}
	sweet, err := h.service.UpdateSweet(r.Context(), chi.URLParam(r, "id"), usecase.UpdateSweetInput{
		Name:     req.Name,
		Category: req.Category,
		Price:    req.Price,
		Quantity: req.Quantity,
		Image:    req.Image,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sweet)
}

func (h *Handler) deleteSweet(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteSweet(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Sweet deleted successfully"})
}

type purchaseRequest struct {
	Quantity *int `json:"quantity"`
}

type stockResponse struct {
	Message string        `json:"message"`
	Sweet   *domain.Sweet `json:"sweet"`
}

func (h *Handler) purchase(w http.ResponseWriter, r *http.Request) {
	var req purchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		writeError(w, http.StatusBadRequest, "Bad request")
		return
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}
	sweet, err := h.service.Purchase(r.Context(), chi.URLParam(r, "id"), quantity)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stockResponse{Message: "Purchase successful", Sweet: sweet})
}

type restockRequest struct {
	Quantity *int `json:"quantity"`
}

func (h *Handler) restock(w http.ResponseWriter, r *http.Request) {
	var req restockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		writeError(w, http.StatusBadRequest, "Bad request")
		return
	}
	sweet, err := h.service.Restock(r.Context(), chi.URLParam(r, "id"), req.Quantity)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stockResponse{Message: "Restock successful", Sweet: sweet})
}

func (h *Handler) listInventory(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.ListInventory(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if records == nil {
		records = []domain.InventoryRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

type inventoryRequest struct {
	SweetID  string `json:"sweetId"`
	Quantity *int   `json:"quantity"`
}

func (h *Handler) upsertInventory(w http.ResponseWriter, r *http.Request) {
	var req inventoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Bad request")
		return
	}
	record, err := h.service.UpsertInventory(r.Context(), req.SweetID, req.Quantity)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, record)
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	var stockErr *usecase.InsufficientStockError
	switch {
	case errors.As(err, &stockErr):
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"message":   "Insufficient quantity in stock",
			"available": stockErr.Available,
		})
	case errors.Is(err, usecase.ErrMissingFields),
		errors.Is(err, usecase.ErrNegativeValues),
		errors.Is(err, usecase.ErrInvalidQuantity):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, usecase.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, usecase.ErrSweetNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, usecase.ErrEmailTaken):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}
