package loaders

import "os"

// EnvLoader reads credentials from process environment variables. It is
// stateless and never fails; an unset variable is simply absent.
type EnvLoader struct{}

// NewEnvLoader creates an environment loader.
func NewEnvLoader() *EnvLoader {
	return &EnvLoader{}
}

// Name returns the loader name.
func (l *EnvLoader) Name() string {
	return "environment"
}

// Contains reports whether the variable is set, even if empty.
func (l *EnvLoader) Contains(key string) bool {
	_, ok := os.LookupEnv(key)
	return ok
}

// Get returns the variable's value.
func (l *EnvLoader) Get(key string) (string, bool) {
	return os.LookupEnv(key)
}
