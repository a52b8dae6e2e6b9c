package features

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/cucumber/godog"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/01moynul/zemmon-store/internal/apperr"
	"github.com/01moynul/zemmon-store/internal/auth"
	"github.com/01moynul/zemmon-store/internal/cart"
	"github.com/01moynul/zemmon-store/internal/models"
	"github.com/01moynul/zemmon-store/internal/orders"
	"github.com/01moynul/zemmon-store/internal/store/memstore"
)

// fakeGateway answers Verify with whatever the scenario last configured.
type fakeGateway struct {
	verified models.PaymentStatus
}

func (g *fakeGateway) Initiate(_ context.Context, req models.PaymentRequest) (string, error) {
	return "https://checkout.test/" + req.Reference, nil
}

func (g *fakeGateway) Verify(context.Context, string) (models.PaymentStatus, error) {
	if g.verified == "" {
		return models.PaymentStatusPending, nil
	}
	return g.verified, nil
}

type storeTestContext struct {
	mem     *memstore.Store
	gateway *fakeGateway
	fee     decimal.Decimal

	carts  *cart.Service
	orders *orders.Service

	user  auth.Principal
	admin auth.Principal

	view  *models.CartView
	order *models.Order
	err   error
}

func (s *storeTestContext) reset() {
	s.mem = memstore.New()
	s.gateway = &fakeGateway{}
	s.fee = decimal.NewFromInt(10)
	s.user = auth.Principal{}
	s.admin = auth.Principal{ID: "root", Role: auth.RoleAdmin}
	s.view = nil
	s.order = nil
	s.err = nil
	s.build()
}

func (s *storeTestContext) build() {
	log := zap.NewNop()
	s.carts = cart.NewService(s.mem, s.mem, log)
	s.orders = orders.NewService(s.mem, s.mem, s.gateway, orders.Config{
		DeliveryFee: s.fee,
		Currency:    "ETB",
	}, log)
}

func (s *storeTestContext) theCatalogHasProduct(id, price, sizes string) error {
	p, err := decimal.NewFromString(price)
	if err != nil {
		return err
	}
	var list []string
	if sizes != "" {
		list = strings.Split(sizes, ",")
	}
	return s.mem.UpsertProduct(context.Background(), &models.Product{
		ID: id, Name: "Product " + id, Price: p, Sizes: list, Images: []string{id + ".jpg"},
	})
}

func (s *storeTestContext) theDeliveryFeeIs(fee string) error {
	d, err := decimal.NewFromString(fee)
	if err != nil {
		return err
	}
	s.fee = d
	s.build()
	return nil
}

func (s *storeTestContext) iAmSignedInAs(id string) error {
	s.user = auth.Principal{ID: id, Role: auth.RoleUser}
	return nil
}

func (s *storeTestContext) iAddProductToMyCart(productID, size string) error {
	s.view, s.err = s.carts.AddItem(context.Background(), s.user.ID, productID, size)
	return nil
}

func (s *storeTestContext) iSetTheQuantity(productID, size string, qty int) error {
	s.view, s.err = s.carts.SetQuantity(context.Background(), s.user.ID, productID, size, float64(qty))
	return s.err
}

func (s *storeTestContext) theLastRequestFailsWith(code string) error {
	if s.err == nil {
		return fmt.Errorf("expected %q error, got none", code)
	}
	var e *apperr.Error
	if !errors.As(s.err, &e) {
		return fmt.Errorf("expected %q error, got %v", code, s.err)
	}
	if e.Code != code {
		return fmt.Errorf("expected %q error, got %q (%v)", code, e.Code, s.err)
	}
	return nil
}

func (s *storeTestContext) currentCart() (*models.CartView, error) {
	return s.carts.GetCart(context.Background(), s.user.ID)
}

func (s *storeTestContext) myCartHasLines(n int) error {
	view, err := s.currentCart()
	if err != nil {
		return err
	}
	if len(view.Items) != n {
		return fmt.Errorf("expected %d cart lines, got %d", n, len(view.Items))
	}
	return nil
}

func (s *storeTestContext) myCartLineHasQuantity(productID, size string, qty int) error {
	view, err := s.currentCart()
	if err != nil {
		return err
	}
	key := models.NewLineKey(productID, size)
	for _, l := range view.Items {
		if l.Key() == key {
			if l.Quantity != qty {
				return fmt.Errorf("expected quantity %d, got %d", qty, l.Quantity)
			}
			return nil
		}
	}
	return fmt.Errorf("no cart line for %s", key)
}

func (s *storeTestContext) mySubtotalEqualsTheSumOfItsLines() error {
	view, err := s.currentCart()
	if err != nil {
		return err
	}
	sum := decimal.Zero
	for _, l := range view.Items {
		sum = sum.Add(l.LineTotal())
	}
	if !view.Subtotal.Equal(sum) {
		return fmt.Errorf("subtotal %s does not match lines %s", view.Subtotal, sum)
	}
	return nil
}

func (s *storeTestContext) myCartSubtotalIs(want string) error {
	view, err := s.currentCart()
	if err != nil {
		return err
	}
	return equalAmount("cart subtotal", view.Subtotal, want)
}

func (s *storeTestContext) iPlaceAnOrder(method string, qty int, productID, size, price string) error {
	p, err := decimal.NewFromString(price)
	if err != nil {
		return err
	}
	placed, err := s.orders.PlaceOrder(context.Background(), s.user, orders.PlaceOrderInput{
		DeliveryInfo:  deliveryInfo(),
		PaymentMethod: models.PaymentMethod(method),
		Items:         []orders.OrderLineInput{{ProductID: productID, Size: size, Quantity: qty, Price: p}},
	})
	if err != nil {
		return err
	}
	s.order = placed.Order
	return nil
}

func (s *storeTestContext) iPlaceAnOrderWithNoItems() error {
	_, s.err = s.orders.PlaceOrder(context.Background(), s.user, orders.PlaceOrderInput{
		DeliveryInfo:  deliveryInfo(),
		PaymentMethod: models.PaymentCashOnDelivery,
	})
	return nil
}

func (s *storeTestContext) userHasOrders(userID string, n int) error {
	list, err := s.orders.ListUserOrders(context.Background(), auth.Principal{ID: userID, Role: auth.RoleUser})
	if err != nil {
		return err
	}
	if len(list) != n {
		return fmt.Errorf("expected %d orders, got %d", n, len(list))
	}
	return nil
}

func (s *storeTestContext) userSetsTheOrderStatus(userID, status string) error {
	_, s.err = s.orders.UpdateOrderStatus(context.Background(), auth.Principal{ID: userID, Role: auth.RoleUser}, s.order.ID, models.OrderStatus(status))
	return nil
}

func (s *storeTestContext) theAdminSetsTheOrderStatus(status string) error {
	_, err := s.orders.UpdateOrderStatus(context.Background(), s.admin, s.order.ID, models.OrderStatus(status))
	return err
}

func (s *storeTestContext) theGatewayReportsThePaymentAs(status string) error {
	s.gateway.verified = models.PaymentStatus(status)
	return nil
}

func (s *storeTestContext) theGatewayCallsBackWithStatus(status string) error {
	_, err := s.orders.HandlePaymentCallback(context.Background(), s.order.ID, status)
	return err
}

func (s *storeTestContext) theOrderSubtotalIs(want string) error {
	return equalAmount("order subtotal", s.order.Subtotal, want)
}

func (s *storeTestContext) theOrderTotalIs(want string) error {
	return equalAmount("order total", s.order.Total, want)
}

func (s *storeTestContext) theOrderStatusIs(want string) error {
	status, err := s.orders.GetOrderStatus(context.Background(), s.user, s.order.ID)
	if err != nil {
		return err
	}
	if string(status) != want {
		return fmt.Errorf("expected status %q, got %q", want, status)
	}
	return nil
}

func equalAmount(what string, got decimal.Decimal, want string) error {
	w, err := decimal.NewFromString(want)
	if err != nil {
		return err
	}
	if !got.Equal(w) {
		return fmt.Errorf("expected %s %s, got %s", what, w, got)
	}
	return nil
}

func deliveryInfo() models.DeliveryInfo {
	return models.DeliveryInfo{
		FirstName: "Abebe", LastName: "Kebede", Email: "abebe@example.com",
		Address: "Bole Road 1", City: "Addis Ababa", State: "AA",
		ZipCode: "1000", Country: "Ethiopia", Phone: "+251911000000",
	}
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	sc := &storeTestContext{}

	ctx.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		sc.reset()
		return ctx, nil
	})

	// Given steps
	ctx.Step(`^the catalog has product "([^"]*)" priced ([\d.]+) in sizes "([^"]*)"$`, sc.theCatalogHasProduct)
	ctx.Step(`^the delivery fee is ([\d.]+)$`, sc.theDeliveryFeeIs)
	ctx.Step(`^I am signed in as "([^"]*)"$`, sc.iAmSignedInAs)
	ctx.Step(`^the gateway reports the payment as "([^"]*)"$`, sc.theGatewayReportsThePaymentAs)

	// When steps
	ctx.Step(`^I add product "([^"]*)" in size "([^"]*)" to my cart$`, sc.iAddProductToMyCart)
	ctx.Step(`^I set the quantity of product "([^"]*)" in size "([^"]*)" to (\d+)$`, sc.iSetTheQuantity)
	ctx.Step(`^I place a "([^"]*)" order for (\d+) of product "([^"]*)" in size "([^"]*)" at ([\d.]+)$`, sc.iPlaceAnOrder)
	ctx.Step(`^I place an order with no items$`, sc.iPlaceAnOrderWithNoItems)
	ctx.Step(`^"([^"]*)" sets the order status to "([^"]*)"$`, sc.userSetsTheOrderStatus)
	ctx.Step(`^the admin sets the order status to "([^"]*)"$`, sc.theAdminSetsTheOrderStatus)
	ctx.Step(`^the gateway calls back with status "([^"]*)"$`, sc.theGatewayCallsBackWithStatus)

	// Then steps
	ctx.Step(`^the last request fails with "([^"]*)"$`, sc.theLastRequestFailsWith)
	ctx.Step(`^my cart has (\d+) lines?$`, sc.myCartHasLines)
	ctx.Step(`^my cart line "([^"]*)" size "([^"]*)" has quantity (\d+)$`, sc.myCartLineHasQuantity)
	ctx.Step(`^my cart subtotal equals the sum of its lines$`, sc.mySubtotalEqualsTheSumOfItsLines)
	ctx.Step(`^my cart subtotal is ([\d.]+)$`, sc.myCartSubtotalIs)
	ctx.Step(`^"([^"]*)" has (\d+) orders$`, sc.userHasOrders)
	ctx.Step(`^the order subtotal is ([\d.]+)$`, sc.theOrderSubtotalIs)
	ctx.Step(`^the order total is ([\d.]+)$`, sc.theOrderTotalIs)
	ctx.Step(`^the order status is "([^"]*)"$`, sc.theOrderStatusIs)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"cart.feature", "orders.feature"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
