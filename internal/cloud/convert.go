package cloud

import (
	"time"

	"github.com/N3z3d/prioris/internal/model"
)

// Wire representation of the Prioris API's list and item resources. Kept
// separate from the model types so the API can evolve its envelope without
// touching the engine.

type listDTO struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type itemDTO struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	ListID    string    `json:"list_id"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"created_at"`
}

// listsEnvelope wraps the collection response.
type listsEnvelope struct {
	Lists []listDTO `json:"lists"`
}

// itemsEnvelope wraps the collection response.
type itemsEnvelope struct {
	Items []itemDTO `json:"items"`
}

func listToDTO(l *model.List) listDTO {
	return listDTO{
		ID:          l.ID,
		Name:        l.Name,
		Type:        string(l.Type),
		Description: l.Description,
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
	}
}

func listFromDTO(d listDTO) *model.List {
	return &model.List{
		ID:          d.ID,
		Name:        d.Name,
		Type:        model.ListType(d.Type),
		Description: d.Description,
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}
}

func itemToDTO(i *model.Item) itemDTO {
	return itemDTO{
		ID:        i.ID,
		Title:     i.Title,
		ListID:    i.ListID,
		Completed: i.Completed,
		CreatedAt: i.CreatedAt,
	}
}

func itemFromDTO(d itemDTO) *model.Item {
	return &model.Item{
		ID:        d.ID,
		Title:     d.Title,
		ListID:    d.ListID,
		Completed: d.Completed,
		CreatedAt: d.CreatedAt.UTC(),
	}
}
