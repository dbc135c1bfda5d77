package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"

	"github.com/harshita194/sweet-shop/internal/domain"
	"github.com/harshita194/sweet-shop/internal/handler/mw"
	"github.com/harshita194/sweet-shop/internal/usecase"
)

type memRepo struct {
	users        map[string]*domain.User
	usersByEmail map[string]*domain.User
	sweets       map[string]*domain.Sweet
	inventory    map[string]*domain.InventoryRecord
	nextID       int
}

func newMemRepo() *memRepo {
	return &memRepo{
		users:        make(map[string]*domain.User),
		usersByEmail: make(map[string]*domain.User),
		sweets:       make(map[string]*domain.Sweet),
		inventory:    make(map[string]*domain.InventoryRecord),
	}
}

func (m *memRepo) id() string {
	m.nextID++
	return "id-" + strconv.Itoa(m.nextID)
}

func (m *memRepo) CreateUser(ctx context.Context, name, email, passwordHash string, role domain.Role) (*domain.User, error) {
	u := &domain.User{ID: m.id(), Name: name, Email: email, PasswordHash: passwordHash, Role: role, CreatedAt: time.Now()}
	m.users[u.ID] = u
	m.usersByEmail[u.Email] = u
	return u, nil
}

func (m *memRepo) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return m.usersByEmail[email], nil
}

func (m *memRepo) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	return m.users[id], nil
}

func (m *memRepo) CreateSweet(ctx context.Context, name, category string, price float64, quantity int, image string) (*domain.Sweet, error) {
	s := &domain.Sweet{ID: m.id(), Name: name, Category: category, Price: price, Quantity: quantity, Image: image, CreatedAt: time.Now()}
	m.sweets[s.ID] = s
	return s, nil
}

func (m *memRepo) ListSweets(ctx context.Context) ([]domain.Sweet, error) {
	var res []domain.Sweet
	for _, s := range m.sweets {
		res = append(res, *s)
	}
	return res, nil
}

func (m *memRepo) SearchSweets(ctx context.Context, f domain.SweetFilter) ([]domain.Sweet, error) {
	var res []domain.Sweet
	for _, s := range m.sweets {
		if f.Name != "" && !strings.Contains(strings.ToLower(s.Name), strings.ToLower(f.Name)) {
			continue
		}
		if f.Category != "" && !strings.Contains(strings.ToLower(s.Category), strings.ToLower(f.Category)) {
			continue
		}
		if f.MinPrice != nil && s.Price < *f.MinPrice {
			continue
		}
		if f.MaxPrice != nil && s.Price > *f.MaxPrice {
			continue
		}
		res = append(res, *s)
	}
	return res, nil
}

func (m *memRepo) GetSweetByID(ctx context.Context, id string) (*domain.Sweet, error) {
	if s, ok := m.sweets[id]; ok {
		copied := *s
		return &copied, nil
	}
	return nil, nil
}

func (m *memRepo) UpdateSweet(ctx context.Context, s *domain.Sweet) error {
	stored, ok := m.sweets[s.ID]
	if !ok {
		return usecase.ErrSweetNotFound
	}
	*stored = *s
	return nil
}

func (m *memRepo) DecrementSweetQuantity(ctx context.Context, id string, n int) (*domain.Sweet, error) {
	s, ok := m.sweets[id]
	if !ok || s.Quantity < n {
		return nil, nil
	}
	s.Quantity -= n
	copied := *s
	return &copied, nil
}

func (m *memRepo) IncrementSweetQuantity(ctx context.Context, id string, n int) (*domain.Sweet, error) {
	s, ok := m.sweets[id]
	if !ok {
		return nil, nil
	}
	s.Quantity += n
	copied := *s
	return &copied, nil
}

func (m *memRepo) DeleteSweetTx(ctx context.Context, id string) (bool, error) {
	if _, ok := m.sweets[id]; !ok {
		return false, nil
	}
	delete(m.sweets, id)
	delete(m.inventory, id)
	return true, nil
}

func (m *memRepo) ListInventory(ctx context.Context) ([]domain.InventoryRecord, error) {
	var res []domain.InventoryRecord
	for sweetID, rec := range m.inventory {
		copied := *rec
		if s, ok := m.sweets[sweetID]; ok {
			sweet := *s
			copied.Sweet = &sweet
		}
		res = append(res, copied)
	}
	return res, nil
}

func (m *memRepo) SetInventory(ctx context.Context, sweetID string, quantity int) (*domain.InventoryRecord, error) {
	rec, ok := m.inventory[sweetID]
	if !ok {
		rec = &domain.InventoryRecord{ID: m.id(), SweetID: sweetID}
		m.inventory[sweetID] = rec
	}
	rec.Quantity = quantity
	rec.UpdatedAt = time.Now()
	copied := *rec
	return &copied, nil
}

func (m *memRepo) AddInventoryDelta(ctx context.Context, sweetID string, delta int) error {
	rec, ok := m.inventory[sweetID]
	if !ok {
		rec = &domain.InventoryRecord{ID: m.id(), SweetID: sweetID}
		m.inventory[sweetID] = rec
	}
	rec.Quantity += delta
	rec.UpdatedAt = time.Now()
	return nil
}

type testEnv struct {
	repo   *memRepo
	auth   *mw.Auth
	router chi.Router
}

func newTestEnv() *testEnv {
	repo := newMemRepo()
	svc := usecase.NewService(repo)
	auth := mw.New([]byte("test-secret"), svc)
	h := NewHandler(svc, auth)
	r := chi.NewRouter()
	h.Register(r)
	return &testEnv{repo: repo, auth: auth, router: r}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		assert.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) registerUser(t *testing.T, name, email string) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"name": name, "email": email, "password": "Secret123",
	})
	assert.Equal(t, http.StatusCreated, rec.Code)
	var resp struct {
		Token string `json:"token"`
	}
	assert.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp.Token
}

func (e *testEnv) createAdmin(t *testing.T, email string) string {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte("Secret123"), bcrypt.DefaultCost)
	assert.NoError(t, err)
	admin, err := e.repo.CreateUser(context.Background(), "Admin", email, string(hashed), domain.RoleAdmin)
	assert.NoError(t, err)
	token, err := e.auth.GenerateToken(admin.ID)
	assert.NoError(t, err)
	return token
}

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"name": "Harshita", "email": "test@example.com", "password": "Secret123",
	})
	assert.Equal(t, http.StatusCreated, rec.Code)
	var resp struct {
		Token string `json:"token"`
		User  map[string]interface{}
	}
	assert.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "test@example.com", resp.User["email"])
	assert.Equal(t, "user", resp.User["role"])
	assert.NotContains(t, resp.User, "passwordHash")

	rec = env.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"name": "Other", "email": "test@example.com", "password": "Another123",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"email": "incomplete@example.com",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/auth/login", "", map[string]string{
		"email": "test@example.com", "password": "Secret123",
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/auth/login", "", map[string]string{
		"email": "test@example.com", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMe(t *testing.T) {
	env := newTestEnv()
	token := env.registerUser(t, "Harshita", "me@example.com")

	rec := env.do(t, http.MethodGet, "/auth/me", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	var user map[string]interface{}
	assert.NoError(t, json.NewDecoder(rec.Body).Decode(&user))
	assert.Equal(t, "me@example.com", user["email"])

	rec = env.do(t, http.MethodGet, "/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodGet, "/auth/me", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// Admin-only routes must distinguish missing credentials (401) from valid
// but non-admin credentials (403), for the same request.
func TestAdminGate(t *testing.T) {
	env := newTestEnv()
	userToken := env.registerUser(t, "User", "user@example.com")
	adminToken := env.createAdmin(t, "admin@example.com")

	sweet, err := env.repo.CreateSweet(context.Background(), "Ladoo", "Indian", 50, 10, "")
	assert.NoError(t, err)

	rec := env.do(t, http.MethodDelete, "/sweets/"+sweet.ID, "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodDelete, "/sweets/"+sweet.ID, userToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodDelete, "/sweets/"+sweet.ID, adminToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodDelete, "/sweets/"+sweet.ID, adminToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodGet, "/inventory", userToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSweetLifecycle(t *testing.T) {
	env := newTestEnv()
	userToken := env.registerUser(t, "User", "user@example.com")
	adminToken := env.createAdmin(t, "admin@example.com")

	rec := env.do(t, http.MethodPost, "/sweets", userToken, map[string]interface{}{
		"name": "Rasgulla", "category": "Indian", "price": 30, "quantity": 15,
	})
	assert.Equal(t, http.StatusCreated, rec.Code)
	var sweet domain.Sweet
	assert.NoError(t, json.NewDecoder(rec.Body).Decode(&sweet))
	assert.NotEmpty(t, sweet.ID)

	rec = env.do(t, http.MethodGet, "/sweets", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	var sweets []domain.Sweet
	assert.NoError(t, json.NewDecoder(rec.Body).Decode(&sweets))
	assert.Len(t, sweets, 1)
	assert.Equal(t, "Rasgulla", sweets[0].Name)

	rec = env.do(t, http.MethodPost, "/sweets", userToken, map[string]interface{}{
		"name": "Broken", "category": "Indian", "price": -1, "quantity": 5,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPut, "/sweets/"+sweet.ID, userToken, map[string]interface{}{
		"quantity": 20,
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	var updated domain.Sweet
	assert.NoError(t, json.NewDecoder(rec.Body).Decode(&updated))
	assert.Equal(t, 20, updated.Quantity)

	rec = env.do(t, http.MethodGet, "/inventory", adminToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	var records []domain.InventoryRecord
	assert.NoError(t, json.NewDecoder(rec.Body).Decode(&records))
	assert.Len(t, records, 1)
	assert.Equal(t, sweet.ID, records[0].SweetID)
	assert.Equal(t, 5, records[0].Quantity, "ledger holds the update delta")
	assert.NotNil(t, records[0].Sweet)
	assert.Equal(t, "Rasgulla", records[0].Sweet.Name)
}

func TestPurchaseAndRestock(t *testing.T) {
	env := newTestEnv()
	userToken := env.registerUser(t, "User", "user@example.com")
	adminToken := env.createAdmin(t, "admin@example.com")

	sweet, err := env.repo.CreateSweet(context.Background(), "Barfi", "Indian", 40, 3, "")
	assert.NoError(t, err)

	// Default quantity is 1 when the body carries none.
	rec := env.do(t, http.MethodPost, "/sweets/"+sweet.ID+"/purchase", userToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Message string       `json:"message"`
		Sweet   domain.Sweet `json:"sweet"`
	}
	assert.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "Purchase successful", resp.Message)
	assert.Equal(t, 2, resp.Sweet.Quantity)

	rec = env.do(t, http.MethodPost, "/sweets/"+sweet.ID+"/purchase", userToken, map[string]int{"quantity": 5})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var stockResp struct {
		Message   string `json:"message"`
		Available int    `json:"available"`
	}
	assert.NoError(t, json.NewDecoder(rec.Body).Decode(&stockResp))
	assert.Equal(t, 2, stockResp.Available)

	rec = env.do(t, http.MethodPost, "/sweets/"+sweet.ID+"/restock", userToken, map[string]int{"quantity": 10})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPost, "/sweets/"+sweet.ID+"/restock", adminToken, map[string]int{"quantity": 10})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "Restock successful", resp.Message)
	assert.Equal(t, 12, resp.Sweet.Quantity)

	rec = env.do(t, http.MethodPost, "/sweets/"+sweet.ID+"/restock", adminToken, map[string]int{"quantity": 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/sweets/missing/purchase", userToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSearchEndpoint(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	_, _ = env.repo.CreateSweet(ctx, "Ladoo", "Indian", 50, 10, "")
	_, _ = env.repo.CreateSweet(ctx, "Barfi", "Indian", 40, 10, "")
	_, _ = env.repo.CreateSweet(ctx, "Choc", "Western", 100, 10, "")

	rec := env.do(t, http.MethodGet, "/sweets/search?category=Indian&minPrice=45&maxPrice=55", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	var sweets []domain.Sweet
	assert.NoError(t, json.NewDecoder(rec.Body).Decode(&sweets))
	assert.Len(t, sweets, 1)
	assert.Equal(t, "Ladoo", sweets[0].Name)

	rec = env.do(t, http.MethodGet, "/sweets/search?minPrice=abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInventoryUpsert(t *testing.T) {
	env := newTestEnv()
	adminToken := env.createAdmin(t, "admin@example.com")

	sweet, err := env.repo.CreateSweet(context.Background(), "Jalebi", "Indian", 55, 40, "")
	assert.NoError(t, err)

	rec := env.do(t, http.MethodPost, "/inventory", adminToken, map[string]interface{}{
		"sweetId": sweet.ID, "quantity": 40,
	})
	assert.Equal(t, http.StatusCreated, rec.Code)
	var record domain.InventoryRecord
	assert.NoError(t, json.NewDecoder(rec.Body).Decode(&record))
	assert.Equal(t, 40, record.Quantity)

	rec = env.do(t, http.MethodPost, "/inventory", adminToken, map[string]interface{}{
		"sweetId": sweet.ID, "quantity": 25,
	})
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.NoError(t, json.NewDecoder(rec.Body).Decode(&record))
	assert.Equal(t, 25, record.Quantity, "direct upsert overrides, it does not accumulate")

	rec = env.do(t, http.MethodPost, "/inventory", adminToken, map[string]interface{}{
		"quantity": 5,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
