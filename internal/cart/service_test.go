package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/onmall/onmall-backend/internal/identity"
	"github.com/onmall/onmall-backend/pkg/db/models"
	"github.com/onmall/onmall-backend/pkg/enums"
	pkgerrors "github.com/onmall/onmall-backend/pkg/errors"
)

type stubCartRepo struct {
	carts map[string]*models.Cart

	upsertErr error
	findErr   error
}

func newStubCartRepo() *stubCartRepo {
	return &stubCartRepo{carts: make(map[string]*models.Cart)}
}

func ownerKey(owner identity.Identity) string {
	if userID, ok := owner.UserID(); ok {
		return "u:" + userID.String()
	}
	if guestID, ok := owner.GuestID(); ok {
		return "g:" + guestID
	}
	return ""
}

func (s *stubCartRepo) FindByOwner(ctx context.Context, owner identity.Identity) (*models.Cart, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	cart, ok := s.carts[ownerKey(owner)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return cart, nil
}

func (s *stubCartRepo) GetOrCreateByOwner(ctx context.Context, owner identity.Identity) (*models.Cart, error) {
	if cart, ok := s.carts[ownerKey(owner)]; ok {
		return cart, nil
	}
	cart := &models.Cart{ID: uuid.New()}
	if userID, ok := owner.UserID(); ok {
		cart.UserID = &userID
	}
	if guestID, ok := owner.GuestID(); ok {
		cart.GuestID = &guestID
	}
	s.carts[ownerKey(owner)] = cart
	return cart, nil
}

func (s *stubCartRepo) cartByID(cartID uuid.UUID) *models.Cart {
	for _, cart := range s.carts {
		if cart.ID == cartID {
			return cart
		}
	}
	return nil
}

func (s *stubCartRepo) UpsertItem(ctx context.Context, cartID, productID uuid.UUID, quantity int, unitPrice decimal.Decimal) error {
	if s.upsertErr != nil {
		return s.upsertErr
	}
	cart := s.cartByID(cartID)
	for i := range cart.Items {
		if cart.Items[i].ProductID == productID {
			cart.Items[i].Quantity += quantity
			return nil
		}
	}
	cart.Items = append(cart.Items, models.CartItem{
		ID:        uuid.New(),
		CartID:    cartID,
		ProductID: productID,
		Quantity:  quantity,
		UnitPrice: unitPrice,
	})
	return nil
}

func (s *stubCartRepo) SetItemQuantity(ctx context.Context, cartID, productID uuid.UUID, quantity int) (int64, error) {
	cart := s.cartByID(cartID)
	for i := range cart.Items {
		if cart.Items[i].ProductID == productID {
			cart.Items[i].Quantity = quantity
			return 1, nil
		}
	}
	return 0, nil
}

func (s *stubCartRepo) DeleteItem(ctx context.Context, cartID, productID uuid.UUID) error {
	cart := s.cartByID(cartID)
	kept := cart.Items[:0]
	for _, item := range cart.Items {
		if item.ProductID != productID {
			kept = append(kept, item)
		}
	}
	cart.Items = kept
	return nil
}

func (s *stubCartRepo) ClearItems(ctx context.Context, cartID uuid.UUID) error {
	cart := s.cartByID(cartID)
	cart.Items = nil
	return nil
}

type stubProductLoader struct {
	products map[uuid.UUID]*models.Product
}

func (s *stubProductLoader) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, ok := s.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return product, nil
}

func newTestService(t *testing.T, repo *stubCartRepo, products map[uuid.UUID]*models.Product) Service {
	t.Helper()
	svc, err := NewService(repo, &stubProductLoader{products: products})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func publishedProduct(price string, stock int) *models.Product {
	return &models.Product{
		ID:     uuid.New(),
		Title:  "Widget",
		Slug:   "widget",
		Price:  decimal.RequireFromString(price),
		Stock:  stock,
		Status: enums.ProductStatusPublished,
	}
}

func TestViewCarriesProductSummary(t *testing.T) {
	cartID := uuid.New()
	product := publishedProduct("5.00", 10)
	product.ImageAssetIDs = []string{"products/widget-front", "products/widget-back"}
	product.Vendor = &models.Vendor{ShopName: "corner-shop"}

	view := toView(&models.Cart{
		ID: cartID,
		Items: []models.CartItem{{
			ProductID: product.ID,
			Quantity:  2,
			UnitPrice: decimal.RequireFromString("5.00"),
			Product:   product,
		}},
	})

	if len(view.Items) != 1 {
		t.Fatalf("expected one line, got %d", len(view.Items))
	}
	line := view.Items[0]
	if line.Title != "Widget" || line.Slug != "widget" {
		t.Fatalf("unexpected summary %+v", line)
	}
	if len(line.Images) != 2 || line.Images[0] != "products/widget-front" {
		t.Fatalf("expected product images on the line, got %v", line.Images)
	}
	if line.ShopName != "corner-shop" {
		t.Fatalf("expected vendor shop name on the line, got %q", line.ShopName)
	}
}

func TestAddItemTwiceSumsQuantityAndKeepsSnapshot(t *testing.T) {
	repo := newStubCartRepo()
	product := publishedProduct("9.99", 100)
	svc := newTestService(t, repo, map[uuid.UUID]*models.Product{product.ID: product})

	owner := identity.ForUser(uuid.New())
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, owner, product.ID, 2); err != nil {
		t.Fatalf("first add: %v", err)
	}

	// Price change after the first add must not touch the stored snapshot.
	product.Price = decimal.RequireFromString("19.99")

	view, err := svc.AddItem(ctx, owner, product.ID, 3)
	if err != nil {
		t.Fatalf("second add: %v", err)
	}

	if len(view.Items) != 1 {
		t.Fatalf("expected a single line, got %d", len(view.Items))
	}
	if view.Items[0].Quantity != 5 {
		t.Fatalf("expected quantity 5, got %d", view.Items[0].Quantity)
	}
	if !view.Items[0].UnitPrice.Equal(decimal.RequireFromString("9.99")) {
		t.Fatalf("snapshot price overwritten: %s", view.Items[0].UnitPrice)
	}
}

func TestGuestAndUserCartsAreDistinct(t *testing.T) {
	repo := newStubCartRepo()
	product := publishedProduct("5.00", 10)
	svc := newTestService(t, repo, map[uuid.UUID]*models.Product{product.ID: product})

	ctx := context.Background()
	guest := identity.ForGuest("guest-abc")
	user := identity.ForUser(uuid.New())

	if _, err := svc.AddItem(ctx, guest, product.ID, 1); err != nil {
		t.Fatalf("guest add: %v", err)
	}

	userView, err := svc.GetCart(ctx, user)
	if err != nil {
		t.Fatalf("user get: %v", err)
	}
	if len(userView.Items) != 0 {
		t.Fatalf("user cart should be empty, got %d items", len(userView.Items))
	}

	guestView, err := svc.GetCart(ctx, guest)
	if err != nil {
		t.Fatalf("guest get: %v", err)
	}
	if len(guestView.Items) != 1 {
		t.Fatalf("guest cart should hold one line, got %d", len(guestView.Items))
	}
}

func TestCartTotalRoundsToTwoDecimals(t *testing.T) {
	repo := newStubCartRepo()
	first := publishedProduct("9.99", 100)
	second := publishedProduct("0.01", 100)
	svc := newTestService(t, repo, map[uuid.UUID]*models.Product{
		first.ID:  first,
		second.ID: second,
	})

	ctx := context.Background()
	owner := identity.ForGuest("guest-totals")

	if _, err := svc.AddItem(ctx, owner, first.ID, 3); err != nil {
		t.Fatalf("add first: %v", err)
	}
	view, err := svc.AddItem(ctx, owner, second.ID, 2)
	if err != nil {
		t.Fatalf("add second: %v", err)
	}

	if !view.Total.Equal(decimal.RequireFromString("29.99")) {
		t.Fatalf("expected total 29.99, got %s", view.Total)
	}
}

func TestAddItemAppliesDiscountedSnapshot(t *testing.T) {
	repo := newStubCartRepo()
	product := publishedProduct("100.00", 100)
	product.DiscountPercent = 25
	svc := newTestService(t, repo, map[uuid.UUID]*models.Product{product.ID: product})

	view, err := svc.AddItem(context.Background(), identity.ForGuest("g"), product.ID, 1)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if !view.Items[0].UnitPrice.Equal(decimal.RequireFromString("75.00")) {
		t.Fatalf("expected discounted snapshot 75.00, got %s", view.Items[0].UnitPrice)
	}
}

func TestGetCartNeverCreatesARow(t *testing.T) {
	repo := newStubCartRepo()
	svc := newTestService(t, repo, map[uuid.UUID]*models.Product{})

	view, err := svc.GetCart(context.Background(), identity.ForGuest("fresh-guest"))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if view.CartID != nil {
		t.Fatalf("empty view should not carry a cart id")
	}
	if len(repo.carts) != 0 {
		t.Fatalf("read path must not materialize carts")
	}
	if !view.Total.Equal(decimal.Zero) {
		t.Fatalf("expected zero total, got %s", view.Total)
	}
}

func TestAddItemValidation(t *testing.T) {
	repo := newStubCartRepo()
	product := publishedProduct("5.00", 2)
	draft := publishedProduct("5.00", 10)
	draft.Status = enums.ProductStatusDraft
	svc := newTestService(t, repo, map[uuid.UUID]*models.Product{
		product.ID: product,
		draft.ID:   draft,
	})

	ctx := context.Background()
	owner := identity.ForUser(uuid.New())

	if _, err := svc.AddItem(ctx, owner, product.ID, 0); pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for zero quantity, got %v", err)
	}
	if _, err := svc.AddItem(ctx, owner, uuid.New(), 1); pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found error for unknown product, got %v", err)
	}
	if _, err := svc.AddItem(ctx, owner, draft.ID, 1); pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict error for unpublished product, got %v", err)
	}
	if _, err := svc.AddItem(ctx, owner, product.ID, 5); pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict error for insufficient stock, got %v", err)
	}

	var nobody identity.Identity
	if _, err := svc.AddItem(ctx, nobody, product.ID, 1); pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized error for empty identity, got %v", err)
	}
}

func TestSetItemQuantityZeroRemovesLine(t *testing.T) {
	repo := newStubCartRepo()
	product := publishedProduct("5.00", 10)
	svc := newTestService(t, repo, map[uuid.UUID]*models.Product{product.ID: product})

	ctx := context.Background()
	owner := identity.ForGuest("guest-x")

	if _, err := svc.AddItem(ctx, owner, product.ID, 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	view, err := svc.SetItemQuantity(ctx, owner, product.ID, 0)
	if err != nil {
		t.Fatalf("set zero: %v", err)
	}
	if len(view.Items) != 0 {
		t.Fatalf("expected line removed, got %d items", len(view.Items))
	}
}

func TestSetItemQuantityMissingCartIsNoOp(t *testing.T) {
	repo := newStubCartRepo()
	svc := newTestService(t, repo, map[uuid.UUID]*models.Product{})

	view, err := svc.SetItemQuantity(context.Background(), identity.ForGuest("nobody"), uuid.New(), 3)
	if err != nil {
		t.Fatalf("expected graceful no-op, got %v", err)
	}
	if len(view.Items) != 0 || view.CartID != nil {
		t.Fatalf("expected empty view")
	}
}

func TestSetItemQuantityUnknownLineIsNoOp(t *testing.T) {
	repo := newStubCartRepo()
	product := publishedProduct("5.00", 10)
	svc := newTestService(t, repo, map[uuid.UUID]*models.Product{product.ID: product})

	ctx := context.Background()
	owner := identity.ForGuest("guest-y")
	if _, err := svc.AddItem(ctx, owner, product.ID, 1); err != nil {
		t.Fatalf("add: %v", err)
	}

	view, err := svc.SetItemQuantity(ctx, owner, uuid.New(), 2)
	if err != nil {
		t.Fatalf("expected unknown line to be ignored, got %v", err)
	}
	if len(view.Items) != 1 || view.Items[0].Quantity != 1 {
		t.Fatalf("expected existing line untouched, got %+v", view.Items)
	}
}

func TestClearEmptiesCartAndToleratesMissing(t *testing.T) {
	repo := newStubCartRepo()
	product := publishedProduct("5.00", 10)
	svc := newTestService(t, repo, map[uuid.UUID]*models.Product{product.ID: product})

	ctx := context.Background()
	owner := identity.ForUser(uuid.New())

	if _, err := svc.AddItem(ctx, owner, product.ID, 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := svc.Clear(ctx, owner); err != nil {
		t.Fatalf("clear: %v", err)
	}
	view, err := svc.GetCart(ctx, owner)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(view.Items) != 0 {
		t.Fatalf("expected empty cart after clear")
	}

	if err := svc.Clear(ctx, identity.ForGuest("never-shopped")); err != nil {
		t.Fatalf("clearing a missing cart should be a no-op: %v", err)
	}
}
