package health

import (
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// TypeHealthUpdated is the WebSocket message type for status changes.
const TypeHealthUpdated = "health:updated"

// Broadcaster defines the interface for sending WebSocket messages.
type Broadcaster interface {
	Broadcast(msgType string, payload interface{}) error
}

// Service manages the health state of all tracked items.
// All state is in-memory and resets on application restart.
type Service struct {
	items       map[HealthCategory]map[string]*HealthItem
	mu          sync.RWMutex
	broadcaster Broadcaster
	logger      zerolog.Logger
}

// NewService creates a new health service.
func NewService(logger zerolog.Logger) *Service {
	s := &Service{
		items:  make(map[HealthCategory]map[string]*HealthItem),
		logger: logger.With().Str("component", "health").Logger(),
	}

	for _, cat := range AllCategories() {
		s.items[cat] = make(map[string]*HealthItem)
	}

	return s
}

// SetBroadcaster sets the WebSocket broadcaster for real-time updates.
func (s *Service) SetBroadcaster(b Broadcaster) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.broadcaster = b
}

// RegisterItem starts tracking an item with OK status. Registering an
// existing item is a no-op.
func (s *Service) RegisterItem(category HealthCategory, id, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[category]; !ok {
		s.items[category] = make(map[string]*HealthItem)
	}
	if _, exists := s.items[category][id]; exists {
		return
	}

	s.items[category][id] = &HealthItem{
		ID:       id,
		Category: category,
		Name:     name,
		Status:   StatusOK,
	}
}

// SetError marks an item as failing.
func (s *Service) SetError(category HealthCategory, id, message string) {
	s.setStatus(category, id, StatusError, message)
}

// SetWarning marks an item as degraded.
func (s *Service) SetWarning(category HealthCategory, id, message string) {
	s.setStatus(category, id, StatusWarning, message)
}

// ClearStatus marks an item as OK.
func (s *Service) ClearStatus(category HealthCategory, id string) {
	s.setStatus(category, id, StatusOK, "")
}

// Report sets an item to OK when err is nil and to Error otherwise.
func (s *Service) Report(category HealthCategory, id string, err error) {
	if err != nil {
		s.SetError(category, id, err.Error())
		return
	}
	s.ClearStatus(category, id)
}

func (s *Service) setStatus(category HealthCategory, id string, status HealthStatus, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, exists := s.items[category][id]
	if !exists {
		s.logger.Warn().
			Str("category", string(category)).
			Str("id", id).
			Msg("Attempted to update status for unregistered item")
		return
	}

	// Only update if status changed
	if item.Status == status && item.Message == message {
		return
	}

	oldStatus := item.Status
	item.Status = status
	item.Message = message

	if status != StatusOK {
		now := time.Now()
		item.Timestamp = &now
	} else {
		item.Timestamp = nil
	}

	s.logger.Info().
		Str("category", string(category)).
		Str("id", id).
		Str("name", item.Name).
		Str("oldStatus", string(oldStatus)).
		Str("newStatus", string(status)).
		Str("message", message).
		Msg("Health status changed")

	s.broadcastUpdate(item)
}

// GetAll returns all health items grouped by category with the worst status
// across them.
func (s *Service) GetAll() *HealthResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()

	resp := &HealthResponse{
		Status:   StatusOK,
		Upstream: s.itemsToSlice(CategoryUpstream),
		Storage:  s.itemsToSlice(CategoryStorage),
		Trending: s.itemsToSlice(CategoryTrending),
	}

	for _, items := range s.items {
		for _, item := range items {
			switch {
			case item.Status == StatusError:
				resp.Status = StatusError
			case item.Status == StatusWarning && resp.Status == StatusOK:
				resp.Status = StatusWarning
			}
		}
	}

	return resp
}

// GetItem returns a single item by category and ID.
func (s *Service) GetItem(category HealthCategory, id string) *HealthItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if item, exists := s.items[category][id]; exists {
		copy := *item
		return &copy
	}
	return nil
}

// IsHealthy reports whether an item is registered and OK.
func (s *Service) IsHealthy(category HealthCategory, id string) bool {
	item := s.GetItem(category, id)
	return item != nil && item.Status == StatusOK
}

// itemsToSlice must be called with s.mu held.
func (s *Service) itemsToSlice(category HealthCategory) []HealthItem {
	items := make([]HealthItem, 0, len(s.items[category]))
	for _, item := range s.items[category] {
		items = append(items, *item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items
}

// broadcastUpdate must be called with s.mu held.
func (s *Service) broadcastUpdate(item *HealthItem) {
	if s.broadcaster == nil {
		return
	}

	payload := HealthUpdatePayload{
		Category:  item.Category,
		ID:        item.ID,
		Name:      item.Name,
		Status:    item.Status,
		Message:   item.Message,
		Timestamp: item.Timestamp,
	}

	if err := s.broadcaster.Broadcast(TypeHealthUpdated, payload); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to broadcast health update")
	}
}
