package recipients

import (
	"context"
	"errors"
	"fmt"

	"github.com/mealdash/notification-gateway/internal/model"
	"github.com/mealdash/notification-gateway/internal/repository"
)

var (
	// ErrOrderNotFound means the order id resolved against neither order table.
	ErrOrderNotFound = errors.New("order not found")
)

// OrderReader resolves an order id to its profile context. Implementations
// return repository.ErrNotFound when the id does not live in their table.
type OrderReader interface {
	GetContext(ctx context.Context, orderID int64) (*model.OrderContext, error)
}

// ProfileReader is the read-only profile collaborator.
type ProfileReader interface {
	Get(ctx context.Context, id int64) (*model.Profile, error)
	// ListNotifiableStaff returns admin, super-admin and helpdesk profiles
	// that have push notifications enabled.
	ListNotifiableStaff(ctx context.Context) ([]*model.Profile, error)
}

// adminCriticalEvents is the restricted subset that pages staff. Routine
// progress updates intentionally produce zero admin recipients.
var adminCriticalEvents = map[model.DeliveryEvent]bool{
	model.EventCompleted: true,
	model.EventDelayed:   true,
	model.EventFailed:    true,
}

// vendorEvents is the further-restricted subset with a vendor-facing message.
var vendorEvents = map[model.DeliveryEvent]bool{
	model.EventAssigned:  true,
	model.EventCompleted: true,
	model.EventFailed:    true,
}

// Resolver turns (order, recipient class, event) into the concrete target
// profiles plus the order context used in message bodies.
type Resolver struct {
	deliveryOrders OrderReader
	cateringOrders OrderReader
	profiles       ProfileReader
}

func NewResolver(deliveryOrders, cateringOrders OrderReader, profiles ProfileReader) *Resolver {
	return &Resolver{
		deliveryOrders: deliveryOrders,
		cateringOrders: cateringOrders,
		profiles:       profiles,
	}
}

// Resolve returns the order context and the profiles to notify. A nil/empty
// profile slice with a nil error means the event is simply not relevant to
// the class, which is a no-op for the caller, not a failure.
func (r *Resolver) Resolve(ctx context.Context, orderID int64, class model.RecipientClass, event model.DeliveryEvent) (*model.OrderContext, []*model.Profile, error) {
	order, err := r.lookupOrder(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}

	switch class {
	case model.RecipientCustomer:
		profile, err := r.profiles.Get(ctx, order.OwnerProfileID)
		if err != nil {
			return order, nil, fmt.Errorf("resolve order owner %d: %w", order.OwnerProfileID, err)
		}
		return order, []*model.Profile{profile}, nil

	case model.RecipientAdmin:
		if !adminCriticalEvents[event] {
			return order, nil, nil
		}
		staff, err := r.profiles.ListNotifiableStaff(ctx)
		if err != nil {
			return order, nil, fmt.Errorf("list staff profiles: %w", err)
		}
		return order, staff, nil

	case model.RecipientStore:
		if !vendorEvents[event] {
			return order, nil, nil
		}
		creator, err := r.profiles.Get(ctx, order.CreatedByProfileID)
		if err != nil {
			return order, nil, fmt.Errorf("resolve order creator %d: %w", order.CreatedByProfileID, err)
		}
		if creator.Role != model.RoleVendor || !creator.PushEnabled {
			return order, nil, nil
		}
		return order, []*model.Profile{creator}, nil
	}

	return order, nil, fmt.Errorf("unknown recipient class %q", class)
}

// lookupOrder tries the delivery order table first, then catering. An order
// id only ever resolves against one of the two.
func (r *Resolver) lookupOrder(ctx context.Context, orderID int64) (*model.OrderContext, error) {
	order, err := r.deliveryOrders.GetContext(ctx, orderID)
	if err == nil {
		return order, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("delivery order lookup %d: %w", orderID, err)
	}

	order, err = r.cateringOrders.GetContext(ctx, orderID)
	if err == nil {
		return order, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("catering order lookup %d: %w", orderID, err)
	}

	return nil, ErrOrderNotFound
}
