package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/alimikegami/e-commerce/storefront-service/internal/domain"
	"github.com/alimikegami/e-commerce/storefront-service/internal/dto"
	"github.com/alimikegami/e-commerce/storefront-service/internal/repository"
	pkgdto "github.com/alimikegami/e-commerce/storefront-service/pkg/dto"
	"github.com/alimikegami/e-commerce/storefront-service/pkg/errs"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog/log"
)

type OrderServiceImpl struct {
	repository        repository.OrderRepository
	publisher         EventPublisher
	mailer            OrderMailer
	idempotencyKeyTTL time.Duration
}

func CreateOrderService(repository repository.OrderRepository, publisher EventPublisher, mailer OrderMailer, idempotencyKeyTTL time.Duration) OrderService {
	return &OrderServiceImpl{
		repository:        repository,
		publisher:         publisher,
		mailer:            mailer,
		idempotencyKeyTTL: idempotencyKeyTTL,
	}
}

// AddOrder places an order for req.UserID. Stock for every item is taken
// inside the same transaction that writes the order and its items, so either
// all of it happens or none of it does.
func (s *OrderServiceImpl) AddOrder(ctx context.Context, req dto.OrderRequest) (res dto.OrderResponse, err error) {
	order := domain.Order{
		UserID:    req.UserID,
		Email:     normalizeEmail(req.Order.Email),
		FirstName: req.Order.FirstName,
		LastName:  req.Order.LastName,
		Phone:     req.Order.Phone,
		Address:   req.Order.Address,
		City:      req.Order.City,
		State:     req.Order.State,
		ZipCode:   req.Order.ZipCode,
		Subtotal:  req.Order.Subtotal,
		Shipping:  req.Order.Shipping,
		Tax:       req.Order.Tax,
		Total:     req.Order.Total,
		Status:    domain.OrderStatusPending,
	}
	for _, item := range req.Items {
		order.Items = append(order.Items, domain.OrderItem{
			ProductID:    item.ProductID,
			ProductName:  item.ProductName,
			ProductImage: item.ProductImage,
			Price:        item.Price,
			Quantity:     item.Quantity,
		})
	}

	if !order.TotalsConsistent() {
		return res, errs.ErrInvalidOrderTotals
	}

	if req.IdempotencyKey != "" {
		existing, found, err := s.findByIdempotencyKey(ctx, req.UserID, req.IdempotencyKey)
		if err != nil {
			return res, err
		}
		if found {
			log.Ctx(ctx).Info().Str("component", "AddOrder").Str("order_id", existing.ID).Msg("replayed idempotent order")
			return s.withItems(ctx, existing)
		}

		key := req.IdempotencyKey
		order.IdempotencyKey = &key
	}

	id, err := uuid.NewV7()
	if err != nil {
		return res, fmt.Errorf("error generating order id: %v", err)
	}
	order.ID = id.String()
	order.OrderNumber = ulid.Make().String()

	err = s.repository.HandleTrx(ctx, func(ctx context.Context, repo repository.OrderRepository) error {
		created, err := repo.AddOrder(ctx, order)
		if err != nil {
			return err
		}

		items := make([]domain.OrderItem, len(order.Items))
		for _, i := range lockOrder(order.Items) {
			item := order.Items[i]
			price, err := repo.DecreaseProductStock(ctx, item.ProductID, item.Quantity)
			if err != nil {
				return err
			}

			if !price.Equal(item.Price) {
				return fmt.Errorf("product %s costs %s, got %s: %w", item.ProductID, price.StringFixed(2), item.Price.StringFixed(2), errs.ErrPriceMismatch)
			}

			itemID, err := uuid.NewV7()
			if err != nil {
				return fmt.Errorf("error generating order item id: %v", err)
			}

			item.ID = itemID.String()
			item.OrderID = created.ID
			items[i] = item
		}

		if err := repo.AddOrderItems(ctx, items); err != nil {
			return err
		}

		created.Items = items
		order = created
		return nil
	})

	if err != nil {
		// A concurrent request with the same key won the insert.
		if order.IdempotencyKey != nil && errors.Is(err, errs.ErrConflict) {
			existing, found, lookupErr := s.findByIdempotencyKey(ctx, req.UserID, req.IdempotencyKey)
			if lookupErr == nil && found {
				return s.withItems(ctx, existing)
			}
		}

		log.Ctx(ctx).Error().Err(err).Str("component", "AddOrder").Msg("")
		return res, err
	}

	res = toOrderResponse(order, order.Items)
	s.notifyOrderCreated(ctx, res)

	return res, nil
}

// findByIdempotencyKey returns a live order for the key. A key older than the
// TTL is released so it can be reused.
func (s *OrderServiceImpl) findByIdempotencyKey(ctx context.Context, userID string, key string) (order domain.Order, found bool, err error) {
	order, err = s.repository.GetOrderByIdempotencyKey(ctx, userID, key, 0)
	if errors.Is(err, errs.ErrNotFound) {
		return order, false, nil
	}
	if err != nil {
		return order, false, err
	}

	cutoff := time.Now().Add(-s.idempotencyKeyTTL).UnixMilli()
	if order.CreatedAt >= cutoff {
		return order, true, nil
	}

	if _, err = s.repository.ClearIdempotencyKeys(ctx, cutoff); err != nil {
		return order, false, err
	}

	return domain.Order{}, false, nil
}

func (s *OrderServiceImpl) notifyOrderCreated(ctx context.Context, order dto.OrderResponse) {
	if s.publisher != nil {
		err := s.publisher.Publish(ctx, order.ID, dto.KafkaMessage{
			EventType: dto.EventOrderCreated,
			Data:      order,
		})
		if err != nil {
			log.Ctx(ctx).Error().Err(err).Str("component", "notifyOrderCreated").Str("order_id", order.ID).Msg("failed to publish event")
		}
	}

	if s.mailer != nil {
		if err := s.mailer.SendOrderConfirmation(ctx, order); err != nil {
			log.Ctx(ctx).Error().Err(err).Str("component", "notifyOrderCreated").Str("order_id", order.ID).Msg("failed to send confirmation")
		}
	}
}

// GetOrders lists the caller's own orders, or every order for admins.
func (s *OrderServiceImpl) GetOrders(ctx context.Context, caller domain.User, filter pkgdto.Filter) (res []dto.OrderResponse, err error) {
	if filter.Status != "" && !domain.OrderStatus(filter.Status).Valid() {
		return nil, errs.ErrInvalidStatus
	}

	filter.UserID = ""
	if !caller.IsAdmin() {
		filter.UserID = caller.ID
	}

	orders, err := s.repository.GetOrders(ctx, filter)
	if err != nil {
		return
	}

	res = make([]dto.OrderResponse, 0, len(orders))
	for _, order := range orders {
		res = append(res, toOrderResponse(order, nil))
	}

	return
}

func (s *OrderServiceImpl) GetOrderByID(ctx context.Context, caller domain.User, id string) (res dto.OrderResponse, err error) {
	order, err := s.repository.GetOrderByID(ctx, id)
	if err != nil {
		return
	}

	if !caller.IsAdmin() && order.UserID != caller.ID {
		return res, errs.ErrForbidden
	}

	return s.withItems(ctx, order)
}

// UpdateOrderStatus moves an order along its lifecycle. Cancelling puts the
// ordered quantities back in stock within the same transaction.
func (s *OrderServiceImpl) UpdateOrderStatus(ctx context.Context, req dto.OrderStatusRequest) (res dto.OrderResponse, err error) {
	next := domain.OrderStatus(req.Status)
	if !next.Valid() {
		return res, errs.ErrInvalidStatus
	}

	var (
		updated domain.Order
		items   []domain.OrderItem
		from    domain.OrderStatus
	)

	err = s.repository.HandleTrx(ctx, func(ctx context.Context, repo repository.OrderRepository) error {
		current, err := repo.GetOrderByID(ctx, req.ID)
		if err != nil {
			return err
		}

		from = current.Status
		if !from.CanTransitionTo(next) {
			return fmt.Errorf("%s to %s: %w", from, next, errs.ErrInvalidStatusTransition)
		}

		updated, err = repo.UpdateOrderStatus(ctx, req.ID, from, next)
		if err != nil {
			return err
		}

		items, err = repo.GetOrderItems(ctx, req.ID)
		if err != nil {
			return err
		}

		if next != domain.OrderStatusCancelled {
			return nil
		}

		for _, i := range lockOrder(items) {
			item := items[i]
			if err := repo.IncreaseProductStock(ctx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return
	}

	if s.publisher != nil {
		err := s.publisher.Publish(ctx, updated.ID, dto.KafkaMessage{
			EventType: dto.EventOrderStatusUpdated,
			Data: dto.OrderStatusUpdate{
				ID:   updated.ID,
				From: string(from),
				To:   string(next),
			},
		})
		if err != nil {
			log.Ctx(ctx).Error().Err(err).Str("component", "UpdateOrderStatus").Str("order_id", updated.ID).Msg("failed to publish event")
		}
	}

	return toOrderResponse(updated, items), nil
}

func (s *OrderServiceImpl) PurgeExpiredIdempotencyKeys(ctx context.Context) (cleared int64, err error) {
	cutoff := time.Now().Add(-s.idempotencyKeyTTL).UnixMilli()

	cleared, err = s.repository.ClearIdempotencyKeys(ctx, cutoff)
	if err != nil {
		return
	}

	log.Ctx(ctx).Info().Str("component", "PurgeExpiredIdempotencyKeys").Int64("cleared", cleared).Msg("")
	return
}

func (s *OrderServiceImpl) withItems(ctx context.Context, order domain.Order) (res dto.OrderResponse, err error) {
	items, err := s.repository.GetOrderItems(ctx, order.ID)
	if err != nil {
		return
	}

	return toOrderResponse(order, items), nil
}

func toOrderResponse(order domain.Order, items []domain.OrderItem) dto.OrderResponse {
	res := dto.OrderResponse{
		ID:          order.ID,
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		Email:       order.Email,
		FirstName:   order.FirstName,
		LastName:    order.LastName,
		Phone:       order.Phone,
		Address:     order.Address,
		City:        order.City,
		State:       order.State,
		ZipCode:     order.ZipCode,
		Subtotal:    order.Subtotal,
		Shipping:    order.Shipping,
		Tax:         order.Tax,
		Total:       order.Total,
		Status:      string(order.Status),
		CreatedAt:   order.CreatedAt,
		UpdatedAt:   order.UpdatedAt,
	}

	for _, item := range items {
		res.Items = append(res.Items, dto.OrderItemResponse{
			ID:           item.ID,
			OrderID:      item.OrderID,
			ProductID:    item.ProductID,
			ProductName:  item.ProductName,
			ProductImage: item.ProductImage,
			Price:        item.Price,
			Quantity:     item.Quantity,
		})
	}

	return res
}

// lockOrder returns item indexes sorted by product id. Stock rows are always
// locked in this order so two carts sharing products cannot deadlock.
func lockOrder(items []domain.OrderItem) []int {
	order := make([]int, len(items))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return strings.Compare(items[a].ProductID, items[b].ProductID)
	})

	return order
}
