// Package repotest provides an in-memory implementation of the repository
// contracts for service and controller tests. Transactions are serialized and
// roll back by restoring a snapshot of the store.
package repotest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/alimikegami/e-commerce/storefront-service/internal/domain"
	"github.com/alimikegami/e-commerce/storefront-service/internal/repository"
	pkgdto "github.com/alimikegami/e-commerce/storefront-service/pkg/dto"
	"github.com/alimikegami/e-commerce/storefront-service/pkg/errs"
	"github.com/shopspring/decimal"
)

type state struct {
	seq        int64
	users      map[string]domain.User
	categories map[string]domain.Category
	products   map[string]domain.Product
	orders     map[string]domain.Order
	items      map[string][]domain.OrderItem
	inserted   map[string]int64
}

func newState() *state {
	return &state{
		users:      map[string]domain.User{},
		categories: map[string]domain.Category{},
		products:   map[string]domain.Product{},
		orders:     map[string]domain.Order{},
		items:      map[string][]domain.OrderItem{},
		inserted:   map[string]int64{},
	}
}

func (s *state) clone() *state {
	c := newState()
	c.seq = s.seq
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.categories {
		c.categories[k] = v
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.orders {
		c.orders[k] = v
	}
	for k, v := range s.items {
		c.items[k] = append([]domain.OrderItem(nil), v...)
	}
	for k, v := range s.inserted {
		c.inserted[k] = v
	}
	return c
}

func (s *state) touch(id string) {
	s.seq++
	s.inserted[id] = s.seq
}

// newestFirst orders ids the way "ORDER BY created_at DESC" would.
func (s *state) newestFirst(ids []string) {
	sort.Slice(ids, func(i, j int) bool {
		return s.inserted[ids[i]] > s.inserted[ids[j]]
	})
}

// Store is shared by the three repositories it hands out.
type Store struct {
	mu       sync.Mutex
	trx      sync.Mutex
	data     *state
	failures map[string]error
}

func NewStore() *Store {
	return &Store{
		data:     newState(),
		failures: map[string]error{},
	}
}

// FailOn makes the named repository method return err until cleared with a
// nil err.
func (s *Store) FailOn(method string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, method)
		return
	}
	s.failures[method] = err
}

func (s *Store) failure(method string) error {
	return s.failures[method]
}

func (s *Store) Users() repository.UserRepository {
	return &UserRepository{store: s}
}

func (s *Store) Catalog() repository.CatalogRepository {
	return &CatalogRepository{store: s}
}

func (s *Store) Orders() repository.OrderRepository {
	return &OrderRepository{store: s}
}

// Product returns the stored product for assertions.
func (s *Store) Product(id string) (domain.Product, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.data.products[id]
	return p, ok
}

func (s *Store) Category(id string) (domain.Category, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.data.categories[id]
	return c, ok
}

// SeedProduct stores p as is, bypassing the category count bookkeeping.
func (s *Store) SeedProduct(p domain.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.products[p.ID] = p
	s.data.touch(p.ID)
}

func (s *Store) SeedCategory(c domain.Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.categories[c.ID] = c
	s.data.touch(c.ID)
}

func (s *Store) OrderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data.orders)
}

func (s *Store) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, items := range s.data.items {
		n += len(items)
	}
	return n
}

func (s *Store) handleTrx(fn func() error) error {
	s.trx.Lock()
	defer s.trx.Unlock()

	s.mu.Lock()
	snapshot := s.data.clone()
	s.mu.Unlock()

	if err := fn(); err != nil {
		s.mu.Lock()
		s.data = snapshot
		s.mu.Unlock()
		return err
	}

	return nil
}

type UserRepository struct {
	store *Store
}

func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (res domain.User, err error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err := r.store.failure("GetUserByEmail"); err != nil {
		return res, err
	}

	for _, u := range r.store.data.users {
		if u.Email == email {
			return u, nil
		}
	}
	return domain.User{}, nil
}

func (r *UserRepository) GetUserByID(ctx context.Context, id string) (res domain.User, err error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err := r.store.failure("GetUserByID"); err != nil {
		return res, err
	}

	return r.store.data.users[id], nil
}

func (r *UserRepository) AddUser(ctx context.Context, data domain.User) (res domain.User, err error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err := r.store.failure("AddUser"); err != nil {
		return res, err
	}

	for _, u := range r.store.data.users {
		if u.Email == data.Email {
			return res, errs.ErrEmailAlreadyUsed
		}
	}

	timestamp := time.Now().UnixMilli()
	data.CreatedAt = timestamp
	data.UpdatedAt = timestamp
	r.store.data.users[data.ID] = data
	r.store.data.touch(data.ID)
	return data, nil
}

func (r *UserRepository) GetUsersByRole(ctx context.Context, role domain.Role) (data []domain.User, err error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var ids []string
	for id, u := range r.store.data.users {
		if u.Role == role {
			ids = append(ids, id)
		}
	}
	r.store.data.newestFirst(ids)

	data = []domain.User{}
	for _, id := range ids {
		data = append(data, r.store.data.users[id])
	}
	return data, nil
}

func (r *UserRepository) CountUsersByRole(ctx context.Context, role domain.Role) (count int64, err error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, u := range r.store.data.users {
		if u.Role == role {
			count++
		}
	}
	return count, nil
}

type CatalogRepository struct {
	store *Store
	inTx  bool
}

func (r *CatalogRepository) HandleTrx(ctx context.Context, fn func(ctx context.Context, repo repository.CatalogRepository) error) error {
	if r.inTx {
		return fn(ctx, r)
	}
	return r.store.handleTrx(func() error {
		return fn(ctx, &CatalogRepository{store: r.store, inTx: true})
	})
}

func (r *CatalogRepository) GetCategories(ctx context.Context) (data []domain.Category, err error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	data = []domain.Category{}
	for _, c := range r.store.data.categories {
		data = append(data, c)
	}
	sort.Slice(data, func(i, j int) bool { return data[i].Name < data[j].Name })
	return data, nil
}

func (r *CatalogRepository) GetCategoryByID(ctx context.Context, id string) (data domain.Category, err error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	c, ok := r.store.data.categories[id]
	if !ok {
		return data, errs.ErrNotFound
	}
	return c, nil
}

func (r *CatalogRepository) slugTaken(slug string, except string) bool {
	for id, c := range r.store.data.categories {
		if c.Slug == slug && id != except {
			return true
		}
	}
	return false
}

func (r *CatalogRepository) AddCategory(ctx context.Context, data domain.Category) (res domain.Category, err error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if r.slugTaken(data.Slug, "") {
		return res, errs.ErrDuplicateSlug
	}

	data.CreatedAt = time.Now().UnixMilli()
	r.store.data.categories[data.ID] = data
	r.store.data.touch(data.ID)
	return data, nil
}

func (r *CatalogRepository) UpdateCategory(ctx context.Context, data domain.Category) (err error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	existing, ok := r.store.data.categories[data.ID]
	if !ok {
		return errs.ErrNotFound
	}
	if r.slugTaken(data.Slug, data.ID) {
		return errs.ErrDuplicateSlug
	}

	existing.Name = data.Name
	existing.Slug = data.Slug
	r.store.data.categories[data.ID] = existing
	return nil
}

func (r *CatalogRepository) DeleteCategory(ctx context.Context, id string) (err error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.data.categories[id]; !ok {
		return errs.ErrNotFound
	}
	for _, p := range r.store.data.products {
		if p.CategoryID == id {
			return errs.ErrConflict
		}
	}

	delete(r.store.data.categories, id)
	return nil
}

func (r *CatalogRepository) AdjustCategoryProductCount(ctx context.Context, id string, delta int64) (err error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err := r.store.failure("AdjustCategoryProductCount"); err != nil {
		return err
	}

	c, ok := r.store.data.categories[id]
	if !ok {
		return nil
	}
	c.ProductCount += delta
	r.store.data.categories[id] = c
	return nil
}

func (r *CatalogRepository) ReconcileCategoryProductCounts(ctx context.Context) (updated int64, err error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	counts := map[string]int64{}
	for _, p := range r.store.data.products {
		counts[p.CategoryID]++
	}

	for id, c := range r.store.data.categories {
		if c.ProductCount != counts[id] {
			c.ProductCount = counts[id]
			r.store.data.categories[id] = c
			updated++
		}
	}
	return updated, nil
}

func (r *CatalogRepository) GetProducts(ctx context.Context, filter pkgdto.Filter) (data []domain.Product, err error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var ids []string
	for id, p := range r.store.data.products {
		if filter.CategoryID != "" && p.CategoryID != filter.CategoryID {
			continue
		}
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		ids = append(ids, id)
	}
	r.store.data.newestFirst(ids)

	data = []domain.Product{}
	for _, id := range ids {
		data = append(data, r.store.data.products[id])
	}
	return data, nil
}

func (r *CatalogRepository) GetProductByID(ctx context.Context, id string) (data domain.Product, err error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	p, ok := r.store.data.products[id]
	if !ok {
		return data, errs.ErrNotFound
	}
	return p, nil
}

// GetProductByIDForUpdate relies on handleTrx running one transaction at a
// time.
func (r *CatalogRepository) GetProductByIDForUpdate(ctx context.Context, id string) (data domain.Product, err error) {
	return r.GetProductByID(ctx, id)
}

func (r *CatalogRepository) CountProducts(ctx context.Context) (count int64, err error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return int64(len(r.store.data.products)), nil
}

func (r *CatalogRepository) AddProduct(ctx context.Context, data domain.Product) (res domain.Product, err error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.data.categories[data.CategoryID]; !ok {
		return res, errs.ErrUnknownCategory
	}

	timestamp := time.Now().UnixMilli()
	data.CreatedAt = timestamp
	data.UpdatedAt = timestamp
	r.store.data.products[data.ID] = data
	r.store.data.touch(data.ID)
	return data, nil
}

func (r *CatalogRepository) UpdateProduct(ctx context.Context, data domain.Product) (err error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	existing, ok := r.store.data.products[data.ID]
	if !ok {
		return errs.ErrNotFound
	}
	if _, ok := r.store.data.categories[data.CategoryID]; !ok {
		return errs.ErrUnknownCategory
	}

	data.CreatedAt = existing.CreatedAt
	data.UpdatedAt = time.Now().UnixMilli()
	r.store.data.products[data.ID] = data
	return nil
}

func (r *CatalogRepository) DeleteProduct(ctx context.Context, id string) (err error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.data.products[id]; !ok {
		return errs.ErrNotFound
	}
	delete(r.store.data.products, id)
	return nil
}

type OrderRepository struct {
	store *Store
	inTx  bool
}

func (r *OrderRepository) HandleTrx(ctx context.Context, fn func(ctx context.Context, repo repository.OrderRepository) error) error {
	if r.inTx {
		return fn(ctx, r)
	}
	return r.store.handleTrx(func() error {
		return fn(ctx, &OrderRepository{store: r.store, inTx: true})
	})
}

func (r *OrderRepository) AddOrder(ctx context.Context, data domain.Order) (res domain.Order, err error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err := r.store.failure("AddOrder"); err != nil {
		return res, err
	}

	if data.IdempotencyKey != nil {
		for _, o := range r.store.data.orders {
			if o.UserID == data.UserID && o.IdempotencyKey != nil && *o.IdempotencyKey == *data.IdempotencyKey {
				return res, errs.ErrConflict
			}
		}
	}

	timestamp := time.Now().UnixMilli()
	data.CreatedAt = timestamp
	data.UpdatedAt = timestamp
	data.Items = nil
	r.store.data.orders[data.ID] = data
	r.store.data.touch(data.ID)
	return data, nil
}

func (r *OrderRepository) AddOrderItems(ctx context.Context, data []domain.OrderItem) (err error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err := r.store.failure("AddOrderItems"); err != nil {
		return err
	}

	timestamp := time.Now().UnixMilli()
	for _, item := range data {
		if _, ok := r.store.data.orders[item.OrderID]; !ok {
			return fmt.Errorf("order %s: %w", item.OrderID, errs.ErrNotFound)
		}
		item.CreatedAt = timestamp
		r.store.data.items[item.OrderID] = append(r.store.data.items[item.OrderID], item)
	}
	return nil
}

func (r *OrderRepository) DecreaseProductStock(ctx context.Context, productID string, quantity int64) (price decimal.Decimal, err error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	p, ok := r.store.data.products[productID]
	if !ok {
		return price, fmt.Errorf("product %s: %w", productID, errs.ErrNotFound)
	}
	if p.Stock < quantity {
		return price, fmt.Errorf("product %s: %w", productID, errs.ErrInsufficientStock)
	}

	p.Stock -= quantity
	p.UpdatedAt = time.Now().UnixMilli()
	r.store.data.products[productID] = p
	return p.Price, nil
}

func (r *OrderRepository) IncreaseProductStock(ctx context.Context, productID string, quantity int64) (err error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	p, ok := r.store.data.products[productID]
	if !ok {
		return nil
	}
	p.Stock += quantity
	r.store.data.products[productID] = p
	return nil
}

func (r *OrderRepository) GetOrderByID(ctx context.Context, id string) (data domain.Order, err error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	o, ok := r.store.data.orders[id]
	if !ok {
		return data, errs.ErrNotFound
	}
	return o, nil
}

func (r *OrderRepository) GetOrderByIdempotencyKey(ctx context.Context, userID string, key string, since int64) (data domain.Order, err error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, o := range r.store.data.orders {
		if o.UserID == userID && o.IdempotencyKey != nil && *o.IdempotencyKey == key && o.CreatedAt >= since {
			return o, nil
		}
	}
	return data, errs.ErrNotFound
}

func (r *OrderRepository) GetOrders(ctx context.Context, filter pkgdto.Filter) (data []domain.Order, err error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var ids []string
	for id, o := range r.store.data.orders {
		if filter.UserID != "" && o.UserID != filter.UserID {
			continue
		}
		if filter.Status != "" && string(o.Status) != filter.Status {
			continue
		}
		ids = append(ids, id)
	}
	r.store.data.newestFirst(ids)

	data = []domain.Order{}
	for _, id := range ids {
		data = append(data, r.store.data.orders[id])
	}
	return data, nil
}

func (r *OrderRepository) GetOrderItems(ctx context.Context, orderID string) (data []domain.OrderItem, err error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	return append([]domain.OrderItem{}, r.store.data.items[orderID]...), nil
}

func (r *OrderRepository) UpdateOrderStatus(ctx context.Context, id string, from domain.OrderStatus, to domain.OrderStatus) (data domain.Order, err error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	o, ok := r.store.data.orders[id]
	if !ok || o.Status != from {
		return data, errs.ErrConflict
	}

	o.Status = to
	o.UpdatedAt = time.Now().UnixMilli()
	r.store.data.orders[id] = o
	return o, nil
}

func (r *OrderRepository) SumDeliveredRevenue(ctx context.Context) (total decimal.Decimal, err error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	total = decimal.Zero
	for _, o := range r.store.data.orders {
		if o.Status == domain.OrderStatusDelivered {
			total = total.Add(o.Total)
		}
	}
	return total, nil
}

func (r *OrderRepository) CountOrders(ctx context.Context) (count int64, err error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return int64(len(r.store.data.orders)), nil
}

func (r *OrderRepository) ClearIdempotencyKeys(ctx context.Context, before int64) (cleared int64, err error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for id, o := range r.store.data.orders {
		if o.IdempotencyKey != nil && o.CreatedAt < before {
			o.IdempotencyKey = nil
			r.store.data.orders[id] = o
			cleared++
		}
	}
	return cleared, nil
}
