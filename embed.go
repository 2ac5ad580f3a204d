package react

import (
	"errors"
	"fmt"

	"github.com/bennofs/hsqml-react/registry"
)

// ErrDuplicateKey marks an identity key used by two siblings of one
// composite embed: a fatal definition error, raised at composition time,
// before any native object exists for the colliding pair.
var ErrDuplicateKey = errors.New("react: duplicate embed key")

// cacheEntry is a structural placeholder for a previously produced object:
// the native handle and shape survive, no member values are retained here.
type cacheEntry struct {
	tag string
	obj *Object
}

// Cache holds the objects produced by the previous evaluation of an
// embedded slot: keyed entries, reusable across evaluations by identity
// (never by structural equality of contents), and the unkeyed objects,
// recorded only so the slot can tear them down when it re-evaluates.
type Cache struct {
	keyed   map[int]cacheEntry
	unkeyed []*Object
}

// Embed produces, against an incoming cache, an updated cache and a current
// value. Evaluation runs inside a derivation; embedded objects' own
// behaviors are sampled there, so their changes propagate upward without
// explicit wiring.
type Embed struct {
	keys map[int]bool

	eval func(reg registry.Registry, c Cache) (Cache, any)
}

// EmbedConst lifts a plain value; nothing is cached.
func EmbedConst(v any) *Embed {
	return &Embed{
		eval: func(registry.Registry, Cache) (Cache, any) {
			return Cache{}, v
		},
	}
}

// EmbedObject builds an object from the definition on every evaluation.
// Without a key nothing is reused: the previous instance's reactive side is
// torn down on the next evaluation and its native handle abandoned to the
// runtime's ownership rules. Use EmbedKeyed when reuse matters.
func EmbedObject(def ObjectDef) *Embed {
	return &Embed{
		eval: func(reg registry.Registry, _ Cache) (Cache, any) {
			obj := mustEmbed(reg, def)
			obj.touch()
			return Cache{unkeyed: []*Object{obj}}, obj.Handle()
		},
	}
}

// EmbedKeyed builds or reuses an object under the given identity key. A
// cache hit with a compatible shape is rebound in place, keeping the native
// handle; an incompatible shape or a refused rebinding falls through to a
// fresh object under the same key.
func EmbedKeyed(key int, def ObjectDef) *Embed {
	return &Embed{
		keys: map[int]bool{key: true},
		eval: func(reg registry.Registry, c Cache) (Cache, any) {
			// reuse only when the cached entry's type tag matches the new
			// definition's shape and every member accepts the rebinding
			if ent, ok := c.keyed[key]; ok && ent.tag == defTag(def) && ent.obj.Update(def) {
				ent.obj.touch()
				return Cache{keyed: map[int]cacheEntry{key: ent}}, ent.obj.Handle()
			}

			obj := mustEmbed(reg, def)
			obj.touch()
			return Cache{keyed: map[int]cacheEntry{key: {tag: obj.tag, obj: obj}}}, obj.Handle()
		},
	}
}

// EmbedAll composes children into one embed whose value is the slice of
// child values. Child caches merge by key-disjoint union; a key shared by
// two siblings panics here, while the same key across successive
// evaluations is exactly how reuse happens.
func EmbedAll(children ...*Embed) *Embed {
	keys := make(map[int]bool)
	for _, ch := range children {
		for k := range ch.keys {
			if keys[k] {
				panic(fmt.Errorf("%w: %d", ErrDuplicateKey, k))
			}
			keys[k] = true
		}
	}

	return &Embed{
		keys: keys,
		eval: func(reg registry.Registry, c Cache) (Cache, any) {
			out := Cache{keyed: map[int]cacheEntry{}}
			vals := make([]any, 0, len(children))

			for _, ch := range children {
				cc, v := ch.eval(reg, c)
				for k, ent := range cc.keyed {
					out.keyed[k] = ent
				}
				out.unkeyed = append(out.unkeyed, cc.unkeyed...)
				vals = append(vals, v)
			}

			return out, vals
		},
	}
}

// defTag probes a definition's shape without binding anything: recipes are
// not invoked, so this is safe before construction.
func defTag(def ObjectDef) string {
	return shapeTag(def(&Self{}))
}

// mustEmbed constructs an object inside an evaluation. Construction failures
// are structural errors and therefore fatal.
func mustEmbed(reg registry.Registry, def ObjectDef) *Object {
	obj, err := New(reg, def)
	if err != nil {
		panic(err)
	}
	return obj
}
