package config

// ConfigBackend stores non-secret settings under their dotted key names.
// Lookups report ok=false for keys that were never written, so defaults and
// environment overrides can be layered on top.
type ConfigBackend interface {
	GetString(key string) (val string, ok bool, err error)
	GetInt(key string) (val int, ok bool, err error)
	SetString(key, val string) error
	SetInt(key string, val int) error
	Delete(key string) error
}
