package services

import (
	"fmt"
	"time"

	"pyme_pos_backend/internal/models"
	"pyme_pos_backend/internal/repositories"
)

// In-memory fakes. The transactional services only talk to repository
// interfaces and the TxManager, so the whole settlement flow runs against
// plain maps here. The fake executor is nil; fakes never touch it.

type fakeTxManager struct {
	beginErr error
	commits  int
}

func (m *fakeTxManager) WithinTransaction(fn func(tx repositories.SQLExecutor) error) error {
	if m.beginErr != nil {
		return m.beginErr
	}
	if err := fn(nil); err != nil {
		return err
	}
	m.commits++
	return nil
}

type fakeProductRepo struct {
	products map[int64]*models.Product
}

func newFakeProductRepo(products ...*models.Product) *fakeProductRepo {
	r := &fakeProductRepo{products: map[int64]*models.Product{}}
	for _, p := range products {
		r.products[p.ID] = p
	}
	return r
}

func (r *fakeProductRepo) CreateCategory(tenantID string, category *models.Category) (int64, error) {
	panic("not used in tests")
}

func (r *fakeProductRepo) GetCategories(tenantID string) ([]models.Category, error) {
	panic("not used in tests")
}

func (r *fakeProductRepo) CreateProduct(tenantID string, product *models.Product) (int64, error) {
	r.products[product.ID] = product
	return product.ID, nil
}

func (r *fakeProductRepo) GetProductByID(tenantID string, id int64) (*models.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, fmt.Errorf("%w: product with ID %d", repositories.ErrNotFound, id)
	}
	copied := *p
	return &copied, nil
}

func (r *fakeProductRepo) GetProductByIDForUpdate(executor repositories.SQLExecutor, tenantID string, id int64) (*models.Product, error) {
	return r.GetProductByID(tenantID, id)
}

func (r *fakeProductRepo) GetProducts(tenantID string, filters models.ProductFilters) ([]models.Product, int, error) {
	panic("not used in tests")
}

func (r *fakeProductRepo) GetLowStockProducts(tenantID string) ([]models.Product, error) {
	out := []models.Product{}
	for _, p := range r.products {
		if p.TrackInventory && p.IsLowStock() {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *fakeProductRepo) UpdateProduct(tenantID string, product *models.Product) error {
	panic("not used in tests")
}

func (r *fakeProductRepo) UpdateStock(executor repositories.SQLExecutor, tenantID string, productID int64, newStock int64) error {
	p, ok := r.products[productID]
	if !ok {
		return fmt.Errorf("%w: product with ID %d", repositories.ErrNotFound, productID)
	}
	p.CurrentStock = newStock
	return nil
}

func (r *fakeProductRepo) DeactivateProduct(tenantID string, id int64) error {
	panic("not used in tests")
}

type fakeMovementRepo struct {
	movements []models.StockMovement
	nextID    int64
}

func (r *fakeMovementRepo) CreateMovement(executor repositories.SQLExecutor, tenantID string, movement *models.StockMovement) (int64, error) {
	r.nextID++
	movement.ID = r.nextID
	movement.TenantID = tenantID
	r.movements = append(r.movements, *movement)
	return movement.ID, nil
}

func (r *fakeMovementRepo) GetMovements(tenantID string, productID *int64, movementType *string, page, pageSize int) ([]models.StockMovement, int, error) {
	return r.movements, len(r.movements), nil
}

type fakeSaleRepo struct {
	sales       map[string]*models.Sale
	items       map[string][]models.SaleItem
	lastInvoice string
	createErr   error
}

func newFakeSaleRepo() *fakeSaleRepo {
	return &fakeSaleRepo{sales: map[string]*models.Sale{}, items: map[string][]models.SaleItem{}}
}

func (r *fakeSaleRepo) CreateSale(executor repositories.SQLExecutor, tenantID string, sale *models.Sale) error {
	if r.createErr != nil {
		return r.createErr
	}
	sale.TenantID = tenantID
	copied := *sale
	r.sales[sale.ID] = &copied
	r.lastInvoice = sale.InvoiceNumber
	return nil
}

func (r *fakeSaleRepo) CreateSaleItem(executor repositories.SQLExecutor, tenantID string, item *models.SaleItem) (int64, error) {
	item.TenantID = tenantID
	item.ID = int64(len(r.items[item.SaleID]) + 1)
	r.items[item.SaleID] = append(r.items[item.SaleID], *item)
	return item.ID, nil
}

func (r *fakeSaleRepo) GetSaleByID(tenantID string, id string) (*models.Sale, error) {
	sale, ok := r.sales[id]
	if !ok {
		return nil, fmt.Errorf("%w: sale with ID %s", repositories.ErrNotFound, id)
	}
	copied := *sale
	copied.Items = r.items[id]
	return &copied, nil
}

func (r *fakeSaleRepo) GetSaleByIDForUpdate(executor repositories.SQLExecutor, tenantID string, id string) (*models.Sale, error) {
	sale, ok := r.sales[id]
	if !ok {
		return nil, fmt.Errorf("%w: sale with ID %s", repositories.ErrNotFound, id)
	}
	copied := *sale
	return &copied, nil
}

func (r *fakeSaleRepo) GetSaleItems(executor repositories.SQLExecutor, tenantID string, saleID string) ([]models.SaleItem, error) {
	return r.items[saleID], nil
}

func (r *fakeSaleRepo) GetSales(tenantID string, filters models.SaleFilters) ([]models.Sale, int, error) {
	out := []models.Sale{}
	for _, s := range r.sales {
		out = append(out, *s)
	}
	return out, len(out), nil
}

func (r *fakeSaleRepo) GetLastInvoiceNumber(executor repositories.SQLExecutor, tenantID string) (string, error) {
	return r.lastInvoice, nil
}

func (r *fakeSaleRepo) UpdateSaleStatus(executor repositories.SQLExecutor, tenantID string, id string, status string) error {
	sale, ok := r.sales[id]
	if !ok {
		return fmt.Errorf("%w: sale with ID %s", repositories.ErrNotFound, id)
	}
	sale.Status = status
	return nil
}

func (r *fakeSaleRepo) CashSalesTotalsByCurrency(tenantID string, from time.Time, to time.Time) (models.CashAmounts, error) {
	totals := models.CashAmounts{}
	for _, s := range r.sales {
		if s.PaymentMethod != models.PaymentMethodCash || s.Status == models.SaleStatusCancelled {
			continue
		}
		if s.SaleDate.Before(from) || !s.SaleDate.Before(to) {
			continue
		}
		switch s.CurrencyPaid {
		case models.CurrencyUSD:
			totals.USD = totals.USD.Add(s.PaidAmountOriginal)
		case models.CurrencyBRL:
			totals.BRL = totals.BRL.Add(s.PaidAmountOriginal)
		default:
			totals.PYG = totals.PYG.Add(s.PaidAmountOriginal)
		}
	}
	return totals, nil
}

type fakeCustomerRepo struct {
	customers map[int64]*models.Customer
	entries   []models.CustomerAccountEntry
	nextEntry int64
}

func newFakeCustomerRepo(customers ...*models.Customer) *fakeCustomerRepo {
	r := &fakeCustomerRepo{customers: map[int64]*models.Customer{}}
	for _, c := range customers {
		r.customers[c.ID] = c
	}
	return r
}

func (r *fakeCustomerRepo) CreateCustomer(tenantID string, customer *models.Customer) (int64, error) {
	r.customers[customer.ID] = customer
	return customer.ID, nil
}

func (r *fakeCustomerRepo) GetCustomerByID(tenantID string, id int64) (*models.Customer, error) {
	c, ok := r.customers[id]
	if !ok {
		return nil, fmt.Errorf("%w: customer with ID %d", repositories.ErrNotFound, id)
	}
	copied := *c
	return &copied, nil
}

func (r *fakeCustomerRepo) GetCustomers(tenantID string, search *string, page, pageSize int) ([]models.Customer, int, error) {
	panic("not used in tests")
}

func (r *fakeCustomerRepo) GetCustomersWithDebt(tenantID string) ([]models.Customer, error) {
	out := []models.Customer{}
	for _, c := range r.customers {
		if c.HasDebt() {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *fakeCustomerRepo) UpdateCustomer(tenantID string, customer *models.Customer) error {
	panic("not used in tests")
}

func (r *fakeCustomerRepo) DeactivateCustomer(tenantID string, id int64) error {
	panic("not used in tests")
}

func (r *fakeCustomerRepo) AdjustBalance(executor repositories.SQLExecutor, tenantID string, customerID int64, delta int64) error {
	c, ok := r.customers[customerID]
	if !ok {
		return fmt.Errorf("%w: customer with ID %d", repositories.ErrNotFound, customerID)
	}
	c.CurrentBalance += delta
	return nil
}

func (r *fakeCustomerRepo) CreateAccountEntry(executor repositories.SQLExecutor, tenantID string, entry *models.CustomerAccountEntry) (int64, error) {
	r.nextEntry++
	entry.ID = r.nextEntry
	entry.TenantID = tenantID
	r.entries = append(r.entries, *entry)
	return entry.ID, nil
}

func (r *fakeCustomerRepo) GetAccountEntries(tenantID string, customerID int64) ([]models.CustomerAccountEntry, error) {
	out := []models.CustomerAccountEntry{}
	for _, e := range r.entries {
		if e.CustomerID == customerID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeCustomerRepo) GetAccountEntryByID(tenantID string, id int64) (*models.CustomerAccountEntry, error) {
	for _, e := range r.entries {
		if e.ID == id {
			copied := e
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("%w: account entry with ID %d", repositories.ErrNotFound, id)
}

func (r *fakeCustomerRepo) SetPromisedDate(tenantID string, entryID int64, promised time.Time) error {
	for i := range r.entries {
		if r.entries[i].ID == entryID && r.entries[i].PaidDate == nil {
			p := promised
			r.entries[i].PromisedDate = &p
			return nil
		}
	}
	return fmt.Errorf("%w: unpaid account entry with ID %d", repositories.ErrNotFound, entryID)
}

func (r *fakeCustomerRepo) MarkEntryPaid(executor repositories.SQLExecutor, tenantID string, entryID int64, paidDate time.Time) error {
	for i := range r.entries {
		if r.entries[i].ID == entryID {
			p := paidDate
			r.entries[i].PaidDate = &p
			return nil
		}
	}
	return fmt.Errorf("%w: account entry with ID %d", repositories.ErrNotFound, entryID)
}

func (r *fakeCustomerRepo) GetOverdueEntries(tenantID string, asOf time.Time) ([]models.CustomerAccountEntry, error) {
	out := []models.CustomerAccountEntry{}
	for _, e := range r.entries {
		if e.IsOverdue(asOf) {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeSupplierRepo struct {
	suppliers map[string]*models.Supplier
	entries   map[string]*models.SupplierAccountEntry
	order     []string
}

func newFakeSupplierRepo(suppliers ...*models.Supplier) *fakeSupplierRepo {
	r := &fakeSupplierRepo{
		suppliers: map[string]*models.Supplier{},
		entries:   map[string]*models.SupplierAccountEntry{},
	}
	for _, s := range suppliers {
		r.suppliers[s.ID] = s
	}
	return r
}

func (r *fakeSupplierRepo) CreateSupplier(tenantID string, supplier *models.Supplier) error {
	r.suppliers[supplier.ID] = supplier
	return nil
}

func (r *fakeSupplierRepo) GetSupplierByID(tenantID string, id string) (*models.Supplier, error) {
	s, ok := r.suppliers[id]
	if !ok {
		return nil, fmt.Errorf("%w: supplier with ID %s", repositories.ErrNotFound, id)
	}
	copied := *s
	return &copied, nil
}

func (r *fakeSupplierRepo) GetSuppliers(tenantID string, search *string, page, pageSize int) ([]models.Supplier, int, error) {
	panic("not used in tests")
}

func (r *fakeSupplierRepo) UpdateSupplier(tenantID string, supplier *models.Supplier) error {
	panic("not used in tests")
}

func (r *fakeSupplierRepo) DeactivateSupplier(tenantID string, id string) error {
	panic("not used in tests")
}

func (r *fakeSupplierRepo) CreateAccountEntry(executor repositories.SQLExecutor, tenantID string, entry *models.SupplierAccountEntry) error {
	entry.TenantID = tenantID
	copied := *entry
	r.entries[entry.ID] = &copied
	r.order = append(r.order, entry.ID)
	return nil
}

func (r *fakeSupplierRepo) GetAccountEntries(tenantID string, supplierID string) ([]models.SupplierAccountEntry, error) {
	out := []models.SupplierAccountEntry{}
	for _, id := range r.order {
		e := r.entries[id]
		if e.SupplierID == supplierID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (r *fakeSupplierRepo) GetAccountEntryByID(tenantID string, id string) (*models.SupplierAccountEntry, error) {
	e, ok := r.entries[id]
	if !ok {
		return nil, fmt.Errorf("%w: supplier account entry with ID %s", repositories.ErrNotFound, id)
	}
	copied := *e
	return &copied, nil
}

func (r *fakeSupplierRepo) MarkEntryPaid(executor repositories.SQLExecutor, tenantID string, entryID string, paidDate time.Time) error {
	e, ok := r.entries[entryID]
	if !ok {
		return fmt.Errorf("%w: supplier account entry with ID %s", repositories.ErrNotFound, entryID)
	}
	p := paidDate
	e.PaidDate = &p
	return nil
}

func (r *fakeSupplierRepo) GetBalance(tenantID string, supplierID string) (int64, error) {
	var balance int64
	for _, e := range r.entries {
		if e.SupplierID != supplierID || e.IsInstallmentParent() && e.TotalInstallments > 1 {
			continue
		}
		balance += e.Amount
	}
	return balance, nil
}

func (r *fakeSupplierRepo) GetUnpaidPurchases(tenantID string, supplierID string) ([]models.SupplierAccountEntry, error) {
	out := []models.SupplierAccountEntry{}
	for _, id := range r.order {
		e := r.entries[id]
		if e.SupplierID != supplierID || e.TransactionType != models.AccountEntryPurchase {
			continue
		}
		if e.PaidDate != nil || (e.IsInstallmentParent() && e.TotalInstallments > 1) {
			continue
		}
		out = append(out, *e)
	}
	return out, nil
}

func (r *fakeSupplierRepo) GetPayableSummary(tenantID string, asOf time.Time) (*models.PayableSummary, error) {
	panic("not used in tests")
}

type fakeCashRegisterRepo struct {
	registers map[string]*models.CashRegister
}

func newFakeCashRegisterRepo() *fakeCashRegisterRepo {
	return &fakeCashRegisterRepo{registers: map[string]*models.CashRegister{}}
}

func (r *fakeCashRegisterRepo) CreateRegister(tenantID string, register *models.CashRegister) error {
	for _, existing := range r.registers {
		if existing.TenantID == tenantID && existing.Status == models.CashRegisterOpen {
			return fmt.Errorf("%w: uniq_cash_registers_open", repositories.ErrDuplicateKey)
		}
	}
	register.TenantID = tenantID
	register.Status = models.CashRegisterOpen
	register.OpenedAt = time.Now()
	copied := *register
	r.registers[register.ID] = &copied
	return nil
}

func (r *fakeCashRegisterRepo) GetOpenRegister(tenantID string) (*models.CashRegister, error) {
	for _, reg := range r.registers {
		if reg.TenantID == tenantID && reg.Status == models.CashRegisterOpen {
			copied := *reg
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("%w: open cash register", repositories.ErrNotFound)
}

func (r *fakeCashRegisterRepo) GetRegisterByID(tenantID string, id string) (*models.CashRegister, error) {
	reg, ok := r.registers[id]
	if !ok {
		return nil, fmt.Errorf("%w: cash register with ID %s", repositories.ErrNotFound, id)
	}
	copied := *reg
	return &copied, nil
}

func (r *fakeCashRegisterRepo) GetRegisters(tenantID string, page, pageSize int) ([]models.CashRegister, int, error) {
	out := []models.CashRegister{}
	for _, reg := range r.registers {
		out = append(out, *reg)
	}
	return out, len(out), nil
}

func (r *fakeCashRegisterRepo) CloseRegister(tenantID string, register *models.CashRegister) error {
	reg, ok := r.registers[register.ID]
	if !ok || reg.Status != models.CashRegisterOpen {
		return fmt.Errorf("%w: open cash register with ID %s", repositories.ErrNotFound, register.ID)
	}
	now := time.Now()
	reg.Status = models.CashRegisterClosed
	reg.ClosedAt = &now
	reg.ClosedBy = register.ClosedBy
	reg.Expected = register.Expected
	reg.Actual = register.Actual
	reg.Diff = register.Diff
	register.Status = models.CashRegisterClosed
	register.ClosedAt = &now
	return nil
}

type fakeQuoteRepo struct {
	quotes     map[string]*models.Quote
	quoteItems map[string][]models.QuoteItem
	orders     map[string]*models.Order
	orderItems map[string][]models.OrderItem
	lastQuote  string
	lastOrder  string
	nextItem   int64
}

func newFakeQuoteRepo() *fakeQuoteRepo {
	return &fakeQuoteRepo{
		quotes:     map[string]*models.Quote{},
		quoteItems: map[string][]models.QuoteItem{},
		orders:     map[string]*models.Order{},
		orderItems: map[string][]models.OrderItem{},
	}
}

func (r *fakeQuoteRepo) CreateQuote(executor repositories.SQLExecutor, tenantID string, quote *models.Quote) error {
	quote.TenantID = tenantID
	copied := *quote
	r.quotes[quote.ID] = &copied
	r.lastQuote = quote.QuoteNumber
	return nil
}

func (r *fakeQuoteRepo) CreateQuoteItem(executor repositories.SQLExecutor, tenantID string, item *models.QuoteItem) (int64, error) {
	r.nextItem++
	item.ID = r.nextItem
	item.TenantID = tenantID
	r.quoteItems[item.QuoteID] = append(r.quoteItems[item.QuoteID], *item)
	return item.ID, nil
}

func (r *fakeQuoteRepo) GetQuoteByID(tenantID string, id string) (*models.Quote, error) {
	q, ok := r.quotes[id]
	if !ok {
		return nil, fmt.Errorf("%w: quote with ID %s", repositories.ErrNotFound, id)
	}
	copied := *q
	copied.Items = r.quoteItems[id]
	return &copied, nil
}

func (r *fakeQuoteRepo) GetQuoteByIDForUpdate(executor repositories.SQLExecutor, tenantID string, id string) (*models.Quote, error) {
	return r.GetQuoteByID(tenantID, id)
}

func (r *fakeQuoteRepo) GetQuotes(tenantID string, status *string, page, pageSize int) ([]models.Quote, int, error) {
	out := []models.Quote{}
	for _, q := range r.quotes {
		if status == nil || q.Status == *status {
			out = append(out, *q)
		}
	}
	return out, len(out), nil
}

func (r *fakeQuoteRepo) GetLastQuoteNumber(executor repositories.SQLExecutor, tenantID string) (string, error) {
	return r.lastQuote, nil
}

func (r *fakeQuoteRepo) UpdateQuoteStatus(executor repositories.SQLExecutor, tenantID string, id string, status string) error {
	q, ok := r.quotes[id]
	if !ok {
		return fmt.Errorf("%w: quote with ID %s", repositories.ErrNotFound, id)
	}
	q.Status = status
	return nil
}

func (r *fakeQuoteRepo) CreateOrder(executor repositories.SQLExecutor, tenantID string, order *models.Order) error {
	order.TenantID = tenantID
	copied := *order
	r.orders[order.ID] = &copied
	r.lastOrder = order.OrderNumber
	return nil
}

func (r *fakeQuoteRepo) CreateOrderItem(executor repositories.SQLExecutor, tenantID string, item *models.OrderItem) (int64, error) {
	r.nextItem++
	item.ID = r.nextItem
	item.TenantID = tenantID
	r.orderItems[item.OrderID] = append(r.orderItems[item.OrderID], *item)
	return item.ID, nil
}

func (r *fakeQuoteRepo) GetOrderByID(tenantID string, id string) (*models.Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, fmt.Errorf("%w: order with ID %s", repositories.ErrNotFound, id)
	}
	copied := *o
	copied.Items = r.orderItems[id]
	return &copied, nil
}

func (r *fakeQuoteRepo) GetOrderByIDForUpdate(executor repositories.SQLExecutor, tenantID string, id string) (*models.Order, error) {
	return r.GetOrderByID(tenantID, id)
}

func (r *fakeQuoteRepo) GetOrderItems(executor repositories.SQLExecutor, tenantID string, orderID string) ([]models.OrderItem, error) {
	return r.orderItems[orderID], nil
}

func (r *fakeQuoteRepo) GetOrders(tenantID string, status *string, page, pageSize int) ([]models.Order, int, error) {
	out := []models.Order{}
	for _, o := range r.orders {
		if status == nil || o.Status == *status {
			out = append(out, *o)
		}
	}
	return out, len(out), nil
}

func (r *fakeQuoteRepo) GetLastOrderNumber(executor repositories.SQLExecutor, tenantID string) (string, error) {
	return r.lastOrder, nil
}

func (r *fakeQuoteRepo) UpdateOrderStatus(executor repositories.SQLExecutor, tenantID string, id string, status string) error {
	o, ok := r.orders[id]
	if !ok {
		return fmt.Errorf("%w: order with ID %s", repositories.ErrNotFound, id)
	}
	o.Status = status
	return nil
}

func (r *fakeQuoteRepo) SetOrderSale(executor repositories.SQLExecutor, tenantID string, orderID string, saleID string) error {
	o, ok := r.orders[orderID]
	if !ok {
		return fmt.Errorf("%w: order with ID %s", repositories.ErrNotFound, orderID)
	}
	s := saleID
	o.SaleID = &s
	return nil
}
