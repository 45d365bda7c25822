package catalog

// Model is one entry of the `GET /v1/models` listing.
type Model struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	OwnedBy string `json:"owned_by"`
}

// Store exposes the static model list of one endpoint family.
type Store interface {
	List() []Model
	FindByID(id string) (Model, bool)
}

// MemoryStore implements Store with an in-memory slice.
type MemoryStore struct {
	items []Model
}

// NewMemoryStore returns a MemoryStore holding the given ids, all tagged
// with the same owner label.
func NewMemoryStore(ownedBy string, ids ...string) *MemoryStore {
	items := make([]Model, 0, len(ids))
	for _, id := range ids {
		items = append(items, Model{ID: id, Object: "model", OwnedBy: ownedBy})
	}
	return &MemoryStore{items: items}
}

// List returns a copy of the model list.
func (s *MemoryStore) List() []Model {
	return append([]Model(nil), s.items...)
}

// FindByID looks up a model by identifier.
func (s *MemoryStore) FindByID(id string) (Model, bool) {
	for _, item := range s.items {
		if item.ID == id {
			return item, true
		}
	}
	return Model{}, false
}
