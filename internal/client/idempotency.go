package client

import "github.com/google/uuid"

// IdempotencyKey deduplicates a retried submission server-side. A key is
// minted at the moment the user-initiated submission is constructed, not at
// HTTP call time, so transparent transport retries of the same logical
// submission always carry the same key. Two distinct submissions never
// share one.
type IdempotencyKey string

func NewIdempotencyKey() IdempotencyKey {
	return IdempotencyKey(uuid.New().String())
}
