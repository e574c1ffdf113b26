package repositories

import "github.com/google/uuid"

func newThreadID() string {
	return uuid.NewString()
}
