package checkout

import (
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/nurpe/contratpro/internal/model"
)

// CacheStore keeps checkout sessions in memory and forgets the ones left
// idle longer than the configured TTL.
type CacheStore struct {
	cache *cache.Cache
}

func NewCacheStore(ttl time.Duration) *CacheStore {
	return &CacheStore{cache: cache.New(ttl, ttl)}
}

func (s *CacheStore) Get(id uuid.UUID) (model.CheckoutSession, bool) {
	v, ok := s.cache.Get(id.String())
	if !ok {
		return model.CheckoutSession{}, false
	}
	return v.(model.CheckoutSession), true
}

func (s *CacheStore) Save(session model.CheckoutSession) {
	s.cache.SetDefault(session.ID.String(), session)
}

func (s *CacheStore) Delete(id uuid.UUID) {
	s.cache.Delete(id.String())
}
