package systemdb

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestHashPayoutChangesWithStatus(t *testing.T) {
	p := &PayoutRequest{
		ID:           uuid.New(),
		ValueJSON:    []byte(`{"ada":1000000}`),
		PayoutStatus: PayoutPending,
	}
	h1 := HashPayout(p)

	p.PayoutStatus = PayoutUserApproved
	h2 := HashPayout(p)

	assert.NotEqual(t, h1, h2, "hash must change when the row's status changes")

	p.PayoutStatus = PayoutPending
	h3 := HashPayout(p)
	assert.Equal(t, h1, h3, "hash must be deterministic for identical row content")
}
