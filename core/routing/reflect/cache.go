package reflect

import (
	"reflect"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/anoideaopen/dataportal/core/operation"
)

// cache memoizes values derived from a registry generation. Entries from an
// older generation are dropped on the next write.
type cache[K comparable, V any] struct {
	mu    sync.RWMutex
	gen   uint64
	items map[K]V
}

func newCache[K comparable, V any]() *cache[K, V] {
	return &cache[K, V]{items: make(map[K]V)}
}

func (c *cache[K, V]) get(gen uint64, key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var zero V
	if c.gen != gen {
		return zero, false
	}
	v, ok := c.items[key]
	return v, ok
}

func (c *cache[K, V]) put(gen uint64, key K, v V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gen != gen {
		c.gen = gen
		c.items = make(map[K]V)
	}
	c.items[key] = v
}

type candidateKey struct {
	typ  reflect.Type
	kind operation.Kind
}

type resolutionKey struct {
	typ      reflect.Type
	kind     operation.Kind
	criteria string
}

var (
	typeIDs    sync.Map // reflect.Type -> uint64
	nextTypeID atomic.Uint64
)

func typeID(t reflect.Type) uint64 {
	if id, ok := typeIDs.Load(t); ok {
		return id.(uint64) //nolint:forcetypeassert
	}
	id, _ := typeIDs.LoadOrStore(t, nextTypeID.Add(1))
	return id.(uint64) //nolint:forcetypeassert
}

// criteriaKey encodes the dynamic types of criteria. Resolution depends on
// nothing else from the criteria, so equal keys resolve identically.
func criteriaKey(criteria []any) string {
	var b strings.Builder
	for i, v := range criteria {
		if i > 0 {
			b.WriteByte(',')
		}
		if v == nil {
			b.WriteByte('-')
			continue
		}
		b.WriteString(strconv.FormatUint(typeID(reflect.TypeOf(v)), 36))
	}
	return b.String()
}
