package port

import "github.com/MikeRez0/novacart/internal/core/domain"

// Notifier is fire-and-forget: it must not block checkout and reports nothing back.
//
//go:generate mockgen -source=notify.go -destination=mock/notify.go -package=mock
type Notifier interface {
	OrderPlaced(order *domain.Order, recipient domain.Recipient)
}
