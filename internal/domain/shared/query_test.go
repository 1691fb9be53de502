package shared

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestFilterOffset(t *testing.T) {
	assert.Equal(t, 0, DefaultFilter().Offset())
	assert.Equal(t, 40, Filter{Page: 3, PageSize: 20}.Offset())
	assert.Equal(t, 0, Filter{Page: 0, PageSize: 20}.Offset())
	assert.Equal(t, 0, Filter{Page: 2}.Offset())
}

func TestNewPaginated(t *testing.T) {
	assert.Equal(t, 3, NewPaginated([]int{1}, 41, 3, 20).TotalPages)
	assert.Equal(t, 2, NewPaginated([]int{1}, 40, 2, 20).TotalPages)
	assert.Equal(t, 0, NewPaginated([]int{}, 0, 1, 20).TotalPages)
	assert.Equal(t, 0, NewPaginated([]int{}, 5, 1, 0).TotalPages)
}

func TestOwnedAggregateRoot_Events(t *testing.T) {
	owner := uuid.New()
	root := NewOwnedAggregateRoot(owner)
	assert.Equal(t, 1, root.Version)
	assert.Equal(t, owner, root.UserID)
	assert.Equal(t, root.CreatedAt, root.UpdatedAt)

	e := NewBaseDomainEvent("InvoiceIssued", "Invoice", root.ID, owner)
	root.AddDomainEvent(&e)
	assert.Len(t, root.GetDomainEvents(), 1)
	assert.Equal(t, owner, root.GetDomainEvents()[0].OwnerID())

	root.ClearDomainEvents()
	assert.Empty(t, root.GetDomainEvents())
}
