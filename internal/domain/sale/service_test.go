package sale

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukapos/dukapos/internal/domain/customer"
	"github.com/dukapos/dukapos/internal/domain/product"
)

// --- Mock implementations ---

type mockCustomerRepo struct {
	byID        map[int64]*customer.Customer
	points      map[int64]int64
	addPointErr error
}

func (m *mockCustomerRepo) GetByID(_ context.Context, id int64) (*customer.Customer, error) {
	c, ok := m.byID[id]
	if !ok {
		return nil, customer.ErrNotFound
	}
	return c, nil
}

func (m *mockCustomerRepo) List(_ context.Context) ([]customer.Customer, error) {
	return nil, nil
}

func (m *mockCustomerRepo) Create(_ context.Context, _ *customer.Customer) error {
	return nil
}

func (m *mockCustomerRepo) AddPoints(_ context.Context, id int64, points int64) error {
	if m.addPointErr != nil {
		return m.addPointErr
	}
	if m.points == nil {
		m.points = make(map[int64]int64)
	}
	m.points[id] += points
	return nil
}

// committedSale is one fully committed atomic unit in the fake store.
type committedSale struct {
	id       int64
	total    decimal.Decimal
	items    []LineItem
	payments []Status
	credit   decimal.Decimal
}

// fakeStore implements Store with staged writes: fn's effects only apply
// when it returns nil, mirroring transactional rollback.
type fakeStore struct {
	stock     map[int64]int
	nextTxID  int64
	committed []committedSale
	beginErr  error
}

func (s *fakeStore) ExecTx(_ context.Context, fn func(tx Tx) error) error {
	if s.beginErr != nil {
		return s.beginErr
	}
	s.nextTxID++
	staged := &stagedTx{
		store: s,
		sale:  committedSale{id: s.nextTxID, credit: decimal.Zero},
		stock: make(map[int64]int, len(s.stock)),
	}
	for id, n := range s.stock {
		staged.stock[id] = n
	}
	if err := fn(staged); err != nil {
		return err
	}
	s.stock = staged.stock
	s.committed = append(s.committed, staged.sale)
	return nil
}

type stagedTx struct {
	store *fakeStore
	sale  committedSale
	stock map[int64]int
}

func (t *stagedTx) InsertTransaction(_ context.Context, _ int64, total decimal.Decimal, _ Method) (int64, error) {
	t.sale.total = total
	return t.sale.id, nil
}

func (t *stagedTx) InsertItem(_ context.Context, _ int64, item LineItem) error {
	t.sale.items = append(t.sale.items, item)
	return nil
}

func (t *stagedTx) ProductStock(_ context.Context, productID int64) (int, error) {
	n, ok := t.stock[productID]
	if !ok {
		return 0, product.ErrNotFound
	}
	return n, nil
}

func (t *stagedTx) DecrementStock(_ context.Context, productID int64, quantity int) error {
	t.stock[productID] -= quantity
	return nil
}

func (t *stagedTx) InsertPayment(_ context.Context, _ int64, _ Method, status Status, _ string) error {
	t.sale.payments = append(t.sale.payments, status)
	return nil
}

func (t *stagedTx) AddCustomerCredit(_ context.Context, _ int64, amount decimal.Decimal) error {
	t.sale.credit = t.sale.credit.Add(amount)
	return nil
}

type mockNotifier struct {
	overpaid  []decimal.Decimal
	owed      []decimal.Decimal
	notifyErr error
}

func (m *mockNotifier) OverpaymentCredited(_ context.Context, _ *customer.Customer, amount decimal.Decimal) error {
	m.overpaid = append(m.overpaid, amount)
	return m.notifyErr
}

func (m *mockNotifier) BalanceOwed(_ context.Context, _ *customer.Customer, amount decimal.Decimal) error {
	m.owed = append(m.owed, amount)
	return m.notifyErr
}

// --- Helpers ---

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newCustomerRepo(customers ...*customer.Customer) *mockCustomerRepo {
	byID := make(map[int64]*customer.Customer, len(customers))
	for _, c := range customers {
		byID[c.ID] = c
	}
	return &mockCustomerRepo{byID: byID}
}

func validRequest() CreateSaleRequest {
	return CreateSaleRequest{
		Items: []LineItem{
			{ProductID: 5, Quantity: 2, UnitPrice: dec("50.00")},
		},
		TotalAmount:   dec("100.00"),
		PaymentMethod: MethodCash,
		AmountPaid:    dec("100.00"),
		CashierID:     1,
		CustomerID:    7,
	}
}

// --- Tests ---

func TestCreateSale_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*CreateSaleRequest)
	}{
		{"empty items", func(r *CreateSaleRequest) { r.Items = nil }},
		{"missing cashier", func(r *CreateSaleRequest) { r.CashierID = 0 }},
		{"missing customer", func(r *CreateSaleRequest) { r.CustomerID = 0 }},
		{"bad method", func(r *CreateSaleRequest) { r.PaymentMethod = "barter" }},
		{"zero total", func(r *CreateSaleRequest) { r.TotalAmount = decimal.Zero }},
		{"negative paid", func(r *CreateSaleRequest) { r.AmountPaid = dec("-1") }},
		{"zero quantity", func(r *CreateSaleRequest) { r.Items[0].Quantity = 0 }},
		{"negative price", func(r *CreateSaleRequest) { r.Items[0].UnitPrice = dec("-5") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{stock: map[int64]int{5: 10}}
			svc := NewService(newCustomerRepo(&customer.Customer{ID: 7}), store, nil, nil)

			req := validRequest()
			tt.mutate(&req)

			_, err := svc.CreateSale(context.Background(), req)

			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Empty(t, store.committed)
		})
	}
}

func TestCreateSale_UnknownCustomer(t *testing.T) {
	store := &fakeStore{stock: map[int64]int{5: 10}}
	svc := NewService(newCustomerRepo(), store, nil, nil)

	_, err := svc.CreateSale(context.Background(), validRequest())

	var nfErr *CustomerNotFoundError
	require.ErrorAs(t, err, &nfErr)
	assert.Equal(t, int64(7), nfErr.CustomerID)
	assert.Empty(t, store.committed)
}

func TestCreateSale_ExactPayment(t *testing.T) {
	store := &fakeStore{stock: map[int64]int{5: 10}}
	svc := NewService(newCustomerRepo(&customer.Customer{ID: 7}), store, nil, nil)

	res, err := svc.CreateSale(context.Background(), validRequest())

	require.NoError(t, err)
	assert.Equal(t, StatusSuccessful, res.PaymentStatus)
	assert.True(t, res.Overpaid.IsZero())
	assert.True(t, res.Remaining.IsZero())

	require.Len(t, store.committed, 1)
	sale := store.committed[0]
	assert.Equal(t, res.TransactionID, sale.id)
	assert.Len(t, sale.items, 1)
	assert.Equal(t, []Status{StatusSuccessful}, sale.payments)
	assert.True(t, sale.credit.IsZero())
	assert.Equal(t, 8, store.stock[5], "stock decremented by exactly the requested quantity")
}

func TestCreateSale_Overpayment(t *testing.T) {
	store := &fakeStore{stock: map[int64]int{5: 10}}
	notifier := &mockNotifier{}
	cust := &customer.Customer{ID: 7, Email: "jane@example.com"}
	svc := NewService(newCustomerRepo(cust), store, notifier, nil)

	req := validRequest()
	req.AmountPaid = dec("150.00")

	res, err := svc.CreateSale(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, StatusSuccessful, res.PaymentStatus)
	assert.True(t, dec("50.00").Equal(res.Overpaid))
	assert.True(t, res.Remaining.IsZero())

	require.Len(t, store.committed, 1)
	assert.True(t, dec("50.00").Equal(store.committed[0].credit), "overpayment credited inside the unit")

	require.Len(t, notifier.overpaid, 1)
	assert.True(t, dec("50.00").Equal(notifier.overpaid[0]))
	assert.Empty(t, notifier.owed)
}

func TestCreateSale_Underpayment(t *testing.T) {
	store := &fakeStore{stock: map[int64]int{5: 10}}
	notifier := &mockNotifier{}
	svc := NewService(newCustomerRepo(&customer.Customer{ID: 7}), store, notifier, nil)

	req := validRequest()
	req.AmountPaid = dec("70.00")

	res, err := svc.CreateSale(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, StatusPending, res.PaymentStatus)
	assert.True(t, dec("30.00").Equal(res.Remaining))
	assert.True(t, res.Overpaid.IsZero())

	require.Len(t, store.committed, 1)
	assert.Equal(t, []Status{StatusPending}, store.committed[0].payments)
	assert.True(t, store.committed[0].credit.IsZero(), "no credit accrues on underpayment")

	require.Len(t, notifier.owed, 1)
	assert.True(t, dec("30.00").Equal(notifier.owed[0]))
	assert.Empty(t, notifier.overpaid)
}

func TestCreateSale_InsufficientStock(t *testing.T) {
	store := &fakeStore{stock: map[int64]int{5: 2}}
	svc := NewService(newCustomerRepo(&customer.Customer{ID: 7}), store, nil, nil)

	req := validRequest()
	req.Items = []LineItem{{ProductID: 5, Quantity: 3, UnitPrice: dec("10.00")}}
	req.TotalAmount = dec("30.00")
	req.AmountPaid = dec("30.00")

	_, err := svc.CreateSale(context.Background(), req)

	var txErr *TransactionFailedError
	require.ErrorAs(t, err, &txErr)
	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, int64(5), stockErr.ProductID)
	assert.Equal(t, 2, stockErr.Stock)
	assert.Equal(t, 3, stockErr.Requested)

	assert.Empty(t, store.committed, "nothing persists")
	assert.Equal(t, 2, store.stock[5], "stock unchanged")
}

func TestCreateSale_InsufficientStockRollsBackEarlierLines(t *testing.T) {
	store := &fakeStore{stock: map[int64]int{1: 10, 2: 1}}
	svc := NewService(newCustomerRepo(&customer.Customer{ID: 7}), store, nil, nil)

	req := validRequest()
	req.Items = []LineItem{
		{ProductID: 1, Quantity: 4, UnitPrice: dec("10.00")},
		{ProductID: 2, Quantity: 5, UnitPrice: dec("10.00")},
	}
	req.TotalAmount = dec("90.00")
	req.AmountPaid = dec("90.00")

	_, err := svc.CreateSale(context.Background(), req)

	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, int64(2), stockErr.ProductID)

	assert.Equal(t, 10, store.stock[1], "earlier line's decrement rolled back")
	assert.Equal(t, 1, store.stock[2])
	assert.Empty(t, store.committed)
}

func TestCreateSale_UnknownProduct(t *testing.T) {
	store := &fakeStore{stock: map[int64]int{5: 10}}
	svc := NewService(newCustomerRepo(&customer.Customer{ID: 7}), store, nil, nil)

	req := validRequest()
	req.Items = append(req.Items, LineItem{ProductID: 99, Quantity: 1, UnitPrice: dec("1.00")})

	_, err := svc.CreateSale(context.Background(), req)

	var pErr *ProductNotFoundError
	require.ErrorAs(t, err, &pErr)
	assert.Equal(t, int64(99), pErr.ProductID)
	assert.Equal(t, 10, store.stock[5])
	assert.Empty(t, store.committed)
}

func TestCreateSale_PointsWithShopCard(t *testing.T) {
	store := &fakeStore{stock: map[int64]int{5: 10}}
	customers := newCustomerRepo(&customer.Customer{ID: 7, ShopCardNumber: "SC-001"})
	svc := NewService(customers, store, nil, nil)

	res, err := svc.CreateSale(context.Background(), validRequest())

	require.NoError(t, err)
	assert.Equal(t, int64(10), res.PointsEarned)
	assert.Equal(t, int64(10), customers.points[7])
}

func TestCreateSale_NoPointsWithoutShopCard(t *testing.T) {
	store := &fakeStore{stock: map[int64]int{5: 10}}
	customers := newCustomerRepo(&customer.Customer{ID: 7})
	svc := NewService(customers, store, nil, nil)

	res, err := svc.CreateSale(context.Background(), validRequest())

	require.NoError(t, err)
	assert.Equal(t, int64(0), res.PointsEarned)
	assert.Empty(t, customers.points)
}

func TestCreateSale_PointsFailureDoesNotFailSale(t *testing.T) {
	store := &fakeStore{stock: map[int64]int{5: 10}}
	customers := newCustomerRepo(&customer.Customer{ID: 7, ShopCardNumber: "SC-001"})
	customers.addPointErr = errors.New("points table offline")
	svc := NewService(customers, store, nil, nil)

	res, err := svc.CreateSale(context.Background(), validRequest())

	require.NoError(t, err, "sale is already committed when points fail")
	assert.Equal(t, int64(0), res.PointsEarned)
	assert.Len(t, store.committed, 1)
}

func TestCreateSale_NotifierFailureDoesNotFailSale(t *testing.T) {
	store := &fakeStore{stock: map[int64]int{5: 10}}
	notifier := &mockNotifier{notifyErr: errors.New("smtp down")}
	svc := NewService(newCustomerRepo(&customer.Customer{ID: 7}), store, notifier, nil)

	req := validRequest()
	req.AmountPaid = dec("150.00")

	res, err := svc.CreateSale(context.Background(), req)

	require.NoError(t, err)
	assert.True(t, dec("50.00").Equal(res.Overpaid))
	assert.Len(t, store.committed, 1)
}

func TestCreateSale_RepeatedReferenceRecordsTwoSales(t *testing.T) {
	store := &fakeStore{stock: map[int64]int{5: 10}}
	svc := NewService(newCustomerRepo(&customer.Customer{ID: 7}), store, nil, NewReferenceLog(1000, 0.01))

	req := validRequest()
	req.Reference = "POS-123"

	first, err := svc.CreateSale(context.Background(), req)
	require.NoError(t, err)
	second, err := svc.CreateSale(context.Background(), req)
	require.NoError(t, err)

	// No deduplication: the same reference yields two independent
	// transactions and two stock decrements.
	assert.NotEqual(t, first.TransactionID, second.TransactionID)
	assert.Len(t, store.committed, 2)
	assert.Equal(t, 6, store.stock[5])
}

func TestCreateSale_StoreFailure(t *testing.T) {
	store := &fakeStore{stock: map[int64]int{5: 10}, beginErr: errors.New("pool exhausted")}
	svc := NewService(newCustomerRepo(&customer.Customer{ID: 7}), store, nil, nil)

	_, err := svc.CreateSale(context.Background(), validRequest())

	var txErr *TransactionFailedError
	require.ErrorAs(t, err, &txErr)
	assert.Contains(t, err.Error(), "pool exhausted")
}
