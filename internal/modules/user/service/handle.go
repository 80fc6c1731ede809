package service

import (
	"fmt"
	"math/rand"
)

const (
	DefaultHandlePrefix = "AS_"
	handleMin           = 10000
	handleMax           = 99999
	maxHandleAttempts   = 5
)

// HandleGenerator produces candidate anonymous handles. Uniqueness is left to
// the store; callers retry on collision.
type HandleGenerator interface {
	Next() string
}

type randomHandles struct {
	prefix string
}

func NewRandomHandleGenerator(prefix string) HandleGenerator {
	if prefix == "" {
		prefix = DefaultHandlePrefix
	}
	return &randomHandles{prefix: prefix}
}

func (g *randomHandles) Next() string {
	return fmt.Sprintf("%s%d", g.prefix, handleMin+rand.Intn(handleMax-handleMin+1))
}
