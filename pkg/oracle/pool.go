package oracle

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/pkg/errors"
)

// The configurator serves its route data as a flat pool: element 0 is
// the root, a non-negative integer anywhere in the tree is a reference
// to another pool element, and an object key of the form "_N" is a
// reference to the string at pool[N]. These negative sentinels encode
// null.
const (
	nullSentinelA = -5
	nullSentinelB = -7
)

type poolDecoder struct {
	pool  []interface{}
	cache map[int]interface{}
	done  map[int]bool
}

// DecodePool resolves a pooled payload into an ordinary tree of
// maps, slices and scalars.
func DecodePool(data []byte) (interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var pool []interface{}
	if err := dec.Decode(&pool); err != nil {
		return nil, errors.Wrap(err, "decoding pooled payload")
	}
	if len(pool) == 0 {
		return nil, errors.New("empty pooled payload")
	}
	d := poolDecoder{
		pool:  pool,
		cache: make(map[int]interface{}),
		done:  make(map[int]bool),
	}
	return d.index(0), nil
}

func (d *poolDecoder) index(i int) interface{} {
	if i < 0 {
		if i == nullSentinelA || i == nullSentinelB {
			return nil
		}
		return i
	}
	if i >= len(d.pool) {
		return i
	}
	if v, ok := d.cache[i]; ok || d.done[i] {
		return v
	}
	// Mark before descending so that cyclic references resolve to nil.
	d.done[i] = true
	v := d.value(d.pool[i])
	d.cache[i] = v
	return v
}

func (d *poolDecoder) value(v interface{}) interface{} {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return d.index(int(i))
		}
		f, _ := t.Float64()
		return f
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, each := range t {
			out[i] = d.value(each)
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, each := range t {
			key := k
			if ref, ok := poolKey(k); ok {
				key = fmt.Sprint(d.index(ref))
			}
			out[key] = d.value(each)
		}
		return out
	default:
		return v
	}
}

// poolKey returns the pool index of a key of the form "_N", N being
// a run of decimal digits.
func poolKey(k string) (int, bool) {
	if len(k) < 2 || k[0] != '_' {
		return 0, false
	}
	for _, r := range k[1:] {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	i, err := strconv.Atoi(k[1:])
	return i, err == nil
}

func field(v interface{}, path ...string) interface{} {
	for _, p := range path {
		m, ok := v.(map[string]interface{})
		if !ok {
			return nil
		}
		v = m[p]
	}
	return v
}

// optionIDs extracts the "id" of every object in a decoded list.
func optionIDs(v interface{}) []string {
	list, ok := v.([]interface{})
	if !ok {
		return nil
	}
	var ids []string
	for _, each := range list {
		if id, ok := field(each, "id").(string); ok && id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

func stringList(v interface{}) []string {
	list, ok := v.([]interface{})
	if !ok {
		return nil
	}
	var out []string
	for _, each := range list {
		if each == nil {
			continue
		}
		out = append(out, fmt.Sprint(each))
	}
	return out
}

// closureOf extracts the change set of a decoded feasibility route.
func closureOf(route string, decoded interface{}) (Closure, error) {
	data := field(decoded, route, "data")
	if data == nil {
		return Closure{}, errors.Errorf("payload has no %q route data", route)
	}
	cs := field(data, "changeSet")
	return Closure{
		Added:     optionIDs(field(cs, "engineAddedOptions")),
		Removed:   optionIDs(field(cs, "removedOptions")),
		UserAdded: optionIDs(field(cs, "userAddedOptions")),
		Feasible:  stringList(field(data, "feasibleOptions")),
	}, nil
}
