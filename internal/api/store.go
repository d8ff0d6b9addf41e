package api

import (
	"container/list"
	"sync"

	"github.com/google/uuid"
)

// DefaultStoreCapacity bounds how many classifications are kept for lookup.
const DefaultStoreCapacity = 1024

// ResultStore keeps recent classifications addressable by id. When full the
// oldest entry is evicted.
type ResultStore struct {
	mu       sync.Mutex
	capacity int
	order    *list.List
	results  map[string]*list.Element
}

func NewResultStore(capacity int) *ResultStore {
	if capacity <= 0 {
		capacity = DefaultStoreCapacity
	}
	return &ResultStore{
		capacity: capacity,
		order:    list.New(),
		results:  make(map[string]*list.Element),
	}
}

func (s *ResultStore) Put(resp ClassificationResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if el, ok := s.results[resp.ID]; ok {
		el.Value = resp
		s.order.MoveToBack(el)
		return
	}
	s.results[resp.ID] = s.order.PushBack(resp)
	for s.order.Len() > s.capacity {
		oldest := s.order.Front()
		s.order.Remove(oldest)
		delete(s.results, oldest.Value.(ClassificationResponse).ID)
	}
}

func (s *ResultStore) Get(id string) (ClassificationResponse, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	el, ok := s.results[id]
	if !ok {
		return ClassificationResponse{}, false
	}
	return el.Value.(ClassificationResponse), true
}

func (s *ResultStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	el, ok := s.results[id]
	if !ok {
		return false
	}
	s.order.Remove(el)
	delete(s.results, id)
	return true
}

func (s *ResultStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.order.Len()
}

func newClassificationID() string {
	return "cls_" + uuid.NewString()
}
