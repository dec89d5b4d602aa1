// Copyright (c) 2024-2025 inhouse.gg. All Rights Reserved.
// This is licensed software from inhouse.gg, for limitations
// and restrictions contact your company contract manager.

package common

import (
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	ulid "github.com/oklog/ulid/v2"
)

// GenerateUUID generates uuid without hyphens.
func GenerateUUID() string {
	id, _ := uuid.NewRandom()
	return strings.ReplaceAll(id.String(), "-", "")
}

var (
	ulidEntropy = ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
	ulidMutex   = sync.Mutex{}
)

// GenerateULID generates a lexicographically sortable unique id, used for
// ready checks so ids order by creation time.
func GenerateULID() string {
	ulidMutex.Lock()
	defer ulidMutex.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), ulidEntropy).String()
}

// Contains return true if val exist in list, else return false.
func Contains[T comparable](list []T, val T) bool {
	for _, v := range list {
		if v == val {
			return true
		}
	}
	return false
}

// CoinFlip returns a fair random boolean from the given source.
func CoinFlip(rnd *rand.Rand) bool {
	return rnd.Intn(2) == 1
}
