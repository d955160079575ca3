package command

import "OrbitCS/entity"

// Core is the catalog slice the command handlers read from.
type Core interface {
	Get(key string) (*entity.Command, bool)
	Keys() []string
}
