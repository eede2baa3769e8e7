package utils

import (
	"github.com/go-redis/redis/v7"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// GetRedis returns a *redis.Client instance. Callers must tolerate the
// server being absent; redis is a best-effort cache here.
func GetRedis(addr string) *redis.Client {
	if addr == "" {
		addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   0,
	})
	return client
}

// Database opens (and creates if needed) the sqlite database at fname.
func Database(fname string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(fname), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	return db, nil
}

// Strptr is a helper for the pointer-typed update request fields.
func Strptr(s string) *string {
	return &s
}

// Float64ptr is a helper for the pointer-typed update request fields.
func Float64ptr(f float64) *float64 {
	return &f
}
