package util

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

func NewSubmissionID() string {
	// ULID is sortable, so the store stays roughly in arrival order
	t := time.Now().UTC()
	return "sub_" + ulid.MustNew(ulid.Timestamp(t), rand.Reader).String()
}

func NowUTC() time.Time {
	return time.Now().UTC()
}
