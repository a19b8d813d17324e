package config

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type cache struct {
	mu     sync.Mutex
	values map[reflect.Type]any
}

var (
	store = &cache{values: make(map[reflect.Type]any)}

	dotenv sync.Once
)

// Load fills v from the environment. Each struct type is parsed once; a
// cached copy is returned afterwards.
func Load[T any](v *T) error {
	if v == nil {
		return ErrNilPointer
	}
	dotenv.Do(func() {
		// A missing .env is fine.
		_ = godotenv.Load()
	})

	key := typeOf[T]()
	store.mu.Lock()
	defer store.mu.Unlock()

	if cached, ok := store.values[key]; ok {
		*v = cached.(T)
		return nil
	}
	var parsed T
	if err := env.Parse(&parsed); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}
	store.values[key] = parsed
	*v = parsed
	return nil
}

// MustLoad is like Load but panics on error.
func MustLoad[T any](v *T) {
	if err := Load(v); err != nil {
		panic(fmt.Sprintf("failed to load required configuration: %v", err))
	}
}

// Reload parses v from the current environment and replaces the cached copy.
func Reload[T any](v *T) error {
	if v == nil {
		return ErrNilPointer
	}
	store.mu.Lock()
	delete(store.values, typeOf[T]())
	store.mu.Unlock()
	return Load(v)
}

// LoadEnv reads the given .env files into the process environment. Values
// from later files override earlier ones; variables already set in the
// process are overridden as well.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	if err := godotenv.Overload(paths...); err != nil {
		return errors.Join(ErrLoadingEnvFile, err)
	}
	return nil
}

func MustLoadEnv(paths ...string) {
	if err := LoadEnv(paths...); err != nil {
		panic(fmt.Sprintf("failed to load env files: %v", err))
	}
}

// ResetCache drops every cached configuration.
func ResetCache() {
	store.mu.Lock()
	clear(store.values)
	store.mu.Unlock()
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}
