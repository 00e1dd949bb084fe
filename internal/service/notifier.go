package service

// Notifier is the live-delivery capability consumed by the dispatchers. The
// hub implements it; tests substitute a recorder. Delivery is fire and
// forget: implementations never return errors and never block the caller
// beyond a bounded enqueue.
type Notifier interface {
	EmitToUser(userID string, event string, payload any)
}
