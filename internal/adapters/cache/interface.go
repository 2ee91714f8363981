package cache

type hitResult[T any] struct {
	data    T
	valid   bool
	claimed bool
}

// A keyed cache where the first caller for a missing key claims it and every other caller waits
// for the claimant to set or delete the entry
type Cache[T any] interface {
	getOrClaim(key string) hitResult[T]
	set(key string, data T)
	delete(key string)
	wait()
}
