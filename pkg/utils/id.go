package utils

import "github.com/segmentio/ksuid"

// NewID 27 位 base62，按时间有序
func NewID() string { return ksuid.New().String() }
