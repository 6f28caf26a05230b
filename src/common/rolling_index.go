package common

import "strconv"

// RollingIndex keeps the last items of an indexed sequence. It holds between
// size and 2*size items; when full, the older half is dropped.
type RollingIndex[T any] struct {
	name      string
	size      int
	lastIndex int
	items     []T
}

// NewRollingIndex ...
func NewRollingIndex[T any](name string, size int) *RollingIndex[T] {
	if size < 1 {
		size = 1
	}
	return &RollingIndex[T]{
		name:      name,
		size:      size,
		items:     make([]T, 0, 2*size),
		lastIndex: -1,
	}
}

// GetLastWindow returns the cached items and the index of the last one.
func (r *RollingIndex[T]) GetLastWindow() (lastWindow []T, lastIndex int) {
	return r.items, r.lastIndex
}

// Get returns the items that come after skipIndex. It fails with TooLate when
// some of them were already rolled out.
func (r *RollingIndex[T]) Get(skipIndex int) ([]T, error) {
	res := make([]T, 0)

	if skipIndex >= r.lastIndex {
		return res, nil
	}

	cachedItems := len(r.items)
	//assume there are no gaps between indexes
	oldestCachedIndex := r.lastIndex - cachedItems + 1
	if skipIndex+1 < oldestCachedIndex {
		return res, NewStoreErr(r.name, TooLate, strconv.Itoa(skipIndex))
	}

	//index of 'skipped' in RollingIndex
	start := skipIndex - oldestCachedIndex + 1

	return append(res, r.items[start:]...), nil
}

// GetItem ...
func (r *RollingIndex[T]) GetItem(index int) (T, error) {
	var zero T
	items := len(r.items)
	oldestCached := r.lastIndex - items + 1
	if index < oldestCached {
		return zero, NewStoreErr(r.name, TooLate, strconv.Itoa(index))
	}
	findex := index - oldestCached
	if findex >= items {
		return zero, NewStoreErr(r.name, KeyNotFound, strconv.Itoa(index))
	}
	return r.items[findex], nil
}

// Set adds the item at index lastIndex+1 or replaces a cached one.
func (r *RollingIndex[T]) Set(item T, index int) error {
	//only allow to setting items with index <= lastIndex + 1 so we may assume
	//there are no gaps between items
	if 0 <= r.lastIndex && index > r.lastIndex+1 {
		return NewStoreErr(r.name, SkippedIndex, strconv.Itoa(index))
	}

	//adding a new item
	if r.lastIndex < 0 || (index == r.lastIndex+1) {
		if len(r.items) >= 2*r.size {
			r.Roll()
		}
		r.items = append(r.items, item)
		r.lastIndex = index
		return nil
	}

	//replace an existing item. Make sure index is also greater or equal than
	//the oldest cached item's index
	cachedItems := len(r.items)
	oldestCachedIndex := r.lastIndex - cachedItems + 1

	if index < oldestCachedIndex {
		return NewStoreErr(r.name, TooLate, strconv.Itoa(index))
	}

	//replacing existing item
	position := index - oldestCachedIndex //position of 'index' in RollingIndex
	r.items[position] = item

	return nil
}

// Roll drops the older half of the items.
func (r *RollingIndex[T]) Roll() {
	newList := make([]T, 0, 2*r.size)
	newList = append(newList, r.items[r.size:]...)
	r.items = newList
}
