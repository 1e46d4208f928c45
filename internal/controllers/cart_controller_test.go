package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/cartz/cartz-backend/internal/logger"
	"github.com/cartz/cartz-backend/internal/middleware"
	"github.com/cartz/cartz-backend/internal/models"
	"github.com/cartz/cartz-backend/internal/repository"
	"github.com/cartz/cartz-backend/internal/services"
)

func TestMain(m *testing.M) {
	logger.Initialize("development")
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type memCartRepo struct {
	carts map[string]*models.Cart
}

func (m *memCartRepo) GetCart(ctx context.Context, userID string) (*models.Cart, error) {
	return m.carts[userID], nil
}

func (m *memCartRepo) SaveCart(ctx context.Context, cart *models.Cart) error {
	m.carts[cart.UserID] = cart
	return nil
}

func (m *memCartRepo) DeleteCart(ctx context.Context, userID string) error {
	delete(m.carts, userID)
	return nil
}

type memProductRepo struct {
	products map[string]*models.Product
}

func (m *memProductRepo) FindByID(ctx context.Context, id string) (*models.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return p, nil
}

func (m *memProductRepo) List(ctx context.Context, params repository.ListProductsParams) ([]models.Product, int64, error) {
	return nil, 0, nil
}

func (m *memProductRepo) Create(ctx context.Context, p *models.Product) error { return nil }

func (m *memProductRepo) Update(ctx context.Context, id string, updates bson.M) error { return nil }

func (m *memProductRepo) Delete(ctx context.Context, id string) error { return nil }

func (m *memProductRepo) DecrementStock(ctx context.Context, id string, quantity int) error {
	p, ok := m.products[id]
	if !ok {
		return repository.ErrNotFound
	}
	if p.Stock < quantity {
		return repository.ErrInsufficientStock
	}
	p.Stock -= quantity
	return nil
}

func (m *memProductRepo) RestoreStock(ctx context.Context, id string, quantity int) error {
	if p, ok := m.products[id]; ok {
		p.Stock += quantity
	}
	return nil
}

func setupCartRouter(products ...*models.Product) *gin.Engine {
	prodRepo := &memProductRepo{products: map[string]*models.Product{}}
	for _, p := range products {
		prodRepo.products[p.ID] = p
	}
	svc := services.NewCartService(&memCartRepo{carts: map[string]*models.Cart{}}, prodRepo)
	controller := NewCartController(svc)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(middleware.UserContextKey, "u1")
		c.Set(middleware.RoleContextKey, models.RoleCustomer)
	})
	router.GET("/cart", controller.GetCart)
	router.POST("/cart/items", controller.AddItem)
	router.PUT("/cart/items/:itemId", controller.UpdateItem)
	router.DELETE("/cart/items/:itemId", controller.RemoveItem)
	router.GET("/checkout/session", controller.CheckoutSession)
	return router
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	var env envelope
	if err := json.Unmarshal(recorder.Body.Bytes(), &env); err != nil {
		t.Fatalf("unmarshal response %q: %v", recorder.Body.String(), err)
	}
	return recorder, env
}

func TestGetCartCreatesEmpty(t *testing.T) {
	router := setupCartRouter()

	recorder, env := doJSON(t, router, http.MethodGet, "/cart", nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", recorder.Code)
	}
	if !env.Success {
		t.Fatalf("expected success envelope, got %s", recorder.Body.String())
	}

	var cart models.Cart
	if err := json.Unmarshal(env.Data, &cart); err != nil {
		t.Fatalf("unmarshal cart: %v", err)
	}
	if len(cart.Items) != 0 || cart.TotalItems != 0 {
		t.Fatalf("expected empty cart, got %+v", cart)
	}
}

func TestAddItemEndToEnd(t *testing.T) {
	router := setupCartRouter(&models.Product{ID: "p1", Name: "Widget", Price: 12.50, Stock: 3, IsActive: true})

	recorder, env := doJSON(t, router, http.MethodPost, "/cart/items",
		models.AddCartItemRequest{ProductID: "p1", Quantity: 2})
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", recorder.Code, recorder.Body.String())
	}

	var cart models.Cart
	if err := json.Unmarshal(env.Data, &cart); err != nil {
		t.Fatalf("unmarshal cart: %v", err)
	}
	if len(cart.Items) != 1 || cart.Items[0].Quantity != 2 {
		t.Fatalf("unexpected cart: %+v", cart)
	}
	if cart.TotalPrice != 25.00 {
		t.Fatalf("totalPrice = %v, want 25.00", cart.TotalPrice)
	}
}

func TestAddItemUnknownProductReturns404(t *testing.T) {
	router := setupCartRouter()

	recorder, env := doJSON(t, router, http.MethodPost, "/cart/items",
		models.AddCartItemRequest{ProductID: "ghost", Quantity: 1})
	if recorder.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", recorder.Code)
	}
	if env.Success {
		t.Fatal("expected failure envelope")
	}
	if env.Message == "" {
		t.Fatal("expected an error message")
	}
}

func TestAddItemInvalidPayloadReturns400(t *testing.T) {
	router := setupCartRouter()

	// Missing productId fails binding.
	recorder, env := doJSON(t, router, http.MethodPost, "/cart/items",
		map[string]interface{}{"quantity": 1})
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", recorder.Code)
	}
	if env.Success {
		t.Fatal("expected failure envelope")
	}
}

func TestUpdateItemToZeroRemovesLine(t *testing.T) {
	router := setupCartRouter(&models.Product{ID: "p1", Name: "Widget", Price: 5, Stock: 10, IsActive: true})

	_, env := doJSON(t, router, http.MethodPost, "/cart/items",
		models.AddCartItemRequest{ProductID: "p1", Quantity: 2})
	var cart models.Cart
	if err := json.Unmarshal(env.Data, &cart); err != nil {
		t.Fatalf("unmarshal cart: %v", err)
	}

	recorder, env := doJSON(t, router, http.MethodPut, "/cart/items/"+cart.Items[0].ID,
		models.UpdateCartItemRequest{Quantity: 0})
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
	if err := json.Unmarshal(env.Data, &cart); err != nil {
		t.Fatalf("unmarshal cart: %v", err)
	}
	if len(cart.Items) != 0 {
		t.Fatalf("expected empty cart after zero-quantity update, got %+v", cart.Items)
	}
}

func TestCheckoutSessionRejectsBadMethod(t *testing.T) {
	router := setupCartRouter()

	recorder, env := doJSON(t, router, http.MethodGet, "/checkout/session?paymentMethod=bitcoin", nil)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", recorder.Code)
	}
	if env.Success {
		t.Fatal("expected failure envelope")
	}
}
