package memory

import (
	"time"

	"ai-coparenting-be/pkg/workflow"

	"github.com/patrickmn/go-cache"
)

// SessionRepository keeps live authoring sessions in memory. Sessions
// idle for an hour expire on their own, which doubles as abandonment
// cleanup.
type SessionRepository struct {
	cache *cache.Cache
}

func NewSessionRepository() *SessionRepository {
	// Default expiration of 1 hour, purge sweep every 10 minutes
	c := cache.New(1*time.Hour, 10*time.Minute)
	return &SessionRepository{
		cache: c,
	}
}

func key(ownerID string, kind workflow.Kind) string {
	return ownerID + ":" + string(kind)
}

func (r *SessionRepository) Save(sess *workflow.Session) {
	r.cache.Set(key(sess.OwnerID, sess.Kind), sess, cache.DefaultExpiration)
}

func (r *SessionRepository) Get(ownerID string, kind workflow.Kind) (*workflow.Session, bool) {
	if x, found := r.cache.Get(key(ownerID, kind)); found {
		return x.(*workflow.Session), true
	}
	return nil, false
}

func (r *SessionRepository) Delete(ownerID string, kind workflow.Kind) {
	r.cache.Delete(key(ownerID, kind))
}
