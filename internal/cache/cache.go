package cache

// Cache persists port descriptors between invocations so ports added with
// `powerctl ports add` can be switched by name later. Power state is never
// stored.
type Cache[T any] interface {
	Insert(data ...T) error
	Delete(names ...string) error
	Get() ([]T, error)
}
