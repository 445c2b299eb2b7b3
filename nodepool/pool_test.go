package nodepool

import (
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/voxel/logging"
)

type testNode struct {
	value    int
	children [8]Handle
}

func newInitializedPool(t *testing.T, sizeHint int, opts ...Option) *Pool[testNode] {
	t.Helper()
	pool := New[testNode](logging.NewTestLogger(t), opts...)
	test.That(t, pool.Init(sizeHint), test.ShouldBeNil)
	return pool
}

func TestPoolLifecycle(t *testing.T) {
	logger := logging.NewTestLogger(t)

	t.Run("allocate before init", func(t *testing.T) {
		pool := New[testNode](logger)
		h, err := pool.Allocate()
		test.That(t, err, test.ShouldBeError, ErrNotInitialized)
		test.That(t, h, test.ShouldEqual, Nil)
		test.That(t, pool.Get(1), test.ShouldBeNil)
		test.That(t, pool.Shutdown(), test.ShouldBeError, ErrNotInitialized)
	})

	t.Run("double init", func(t *testing.T) {
		pool := New[testNode](logger)
		test.That(t, pool.Init(16), test.ShouldBeNil)
		test.That(t, pool.Init(16), test.ShouldBeError, ErrAlreadyInitialized)
		test.That(t, pool.Shutdown(), test.ShouldBeNil)
	})

	t.Run("negative hint", func(t *testing.T) {
		pool := New[testNode](logger)
		test.That(t, pool.Init(-1), test.ShouldNotBeNil)
		test.That(t, pool.Initialized(), test.ShouldBeFalse)
	})

	t.Run("init reserves first chunk", func(t *testing.T) {
		pool := newInitializedPool(t, 16)
		test.That(t, pool.Initialized(), test.ShouldBeTrue)
		test.That(t, pool.Capacity(), test.ShouldEqual, 16)
		test.That(t, pool.Used(), test.ShouldEqual, 0)
		test.That(t, pool.Free(), test.ShouldEqual, 16)
		test.That(t, pool.Chunks(), test.ShouldEqual, 1)
	})

	t.Run("zero hint uses default chunk size", func(t *testing.T) {
		pool := newInitializedPool(t, 0)
		test.That(t, pool.Capacity(), test.ShouldEqual, DefaultChunkSize)
	})

	t.Run("shutdown with live slots reports a leak", func(t *testing.T) {
		pool := newInitializedPool(t, 4)
		_, err := pool.Allocate()
		test.That(t, err, test.ShouldBeNil)
		err = pool.Shutdown()
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "1 live slots")
		test.That(t, pool.Capacity(), test.ShouldEqual, 0)
		test.That(t, pool.Generation(), test.ShouldEqual, uint64(1))

		_, err = pool.Allocate()
		test.That(t, err, test.ShouldBeError, ErrNotInitialized)

		test.That(t, pool.Init(4), test.ShouldBeNil)
		test.That(t, pool.Generation(), test.ShouldEqual, uint64(2))
		test.That(t, pool.Used(), test.ShouldEqual, 0)
		test.That(t, pool.Shutdown(), test.ShouldBeNil)
	})
}

func TestPoolAllocate(t *testing.T) {
	t.Run("handles are distinct and non nil", func(t *testing.T) {
		pool := newInitializedPool(t, 4)
		seen := map[Handle]bool{}
		for i := 0; i < 10; i++ {
			h, err := pool.Allocate()
			test.That(t, err, test.ShouldBeNil)
			test.That(t, h, test.ShouldNotEqual, Nil)
			test.That(t, seen[h], test.ShouldBeFalse)
			seen[h] = true
			pool.Get(h).value = i
		}
		test.That(t, pool.Used(), test.ShouldEqual, 10)
		test.That(t, pool.Chunks(), test.ShouldEqual, 3)
		test.That(t, pool.Capacity(), test.ShouldEqual, 12)

		for h := range seen {
			test.That(t, pool.Get(h), test.ShouldNotBeNil)
		}
	})

	t.Run("pointers stay valid across growth", func(t *testing.T) {
		pool := newInitializedPool(t, 2)
		h, err := pool.Allocate()
		test.That(t, err, test.ShouldBeNil)
		first := pool.Get(h)
		first.value = 42
		for i := 0; i < 20; i++ {
			_, err := pool.Allocate()
			test.That(t, err, test.ShouldBeNil)
		}
		test.That(t, pool.Get(h), test.ShouldEqual, first)
		test.That(t, first.value, test.ShouldEqual, 42)
	})

	t.Run("freed slots are reused and zeroed", func(t *testing.T) {
		pool := newInitializedPool(t, 4)
		h, err := pool.Allocate()
		test.That(t, err, test.ShouldBeNil)
		node := pool.Get(h)
		node.value = 7
		node.children[3] = 99

		test.That(t, pool.Deallocate(h), test.ShouldBeNil)
		test.That(t, pool.Get(h), test.ShouldBeNil)
		test.That(t, pool.Used(), test.ShouldEqual, 0)

		reused, err := pool.Allocate()
		test.That(t, err, test.ShouldBeNil)
		test.That(t, reused, test.ShouldEqual, h)
		test.That(t, *pool.Get(reused), test.ShouldResemble, testNode{})
	})

	t.Run("invalid deallocation", func(t *testing.T) {
		pool := newInitializedPool(t, 4)
		test.That(t, errors.Is(pool.Deallocate(Nil), ErrInvalidHandle), test.ShouldBeTrue)
		test.That(t, errors.Is(pool.Deallocate(3), ErrInvalidHandle), test.ShouldBeTrue)

		h, err := pool.Allocate()
		test.That(t, err, test.ShouldBeNil)
		test.That(t, pool.Deallocate(h), test.ShouldBeNil)
		test.That(t, errors.Is(pool.Deallocate(h), ErrInvalidHandle), test.ShouldBeTrue)
		test.That(t, pool.Used(), test.ShouldEqual, 0)
	})
}

func TestPoolExhaustion(t *testing.T) {
	pool := newInitializedPool(t, 4, WithMaxSlots(6))
	handles := make([]Handle, 0, 6)
	for i := 0; i < 6; i++ {
		h, err := pool.Allocate()
		test.That(t, err, test.ShouldBeNil)
		handles = append(handles, h)
	}
	test.That(t, pool.Capacity(), test.ShouldEqual, 6)
	test.That(t, pool.Utilization(), test.ShouldAlmostEqual, 1.0)

	h, err := pool.Allocate()
	test.That(t, err, test.ShouldBeError, ErrExhausted)
	test.That(t, h, test.ShouldEqual, Nil)

	test.That(t, pool.Deallocate(handles[2]), test.ShouldBeNil)
	h, err = pool.Allocate()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, h, test.ShouldEqual, handles[2])

	test.That(t, pool.Reserve(7), test.ShouldBeError, ErrExhausted)
}

func TestPoolReserve(t *testing.T) {
	pool := newInitializedPool(t, 8, WithChunkSize(4))
	test.That(t, pool.Capacity(), test.ShouldEqual, 4)
	test.That(t, pool.Reserve(10), test.ShouldBeNil)
	test.That(t, pool.Capacity(), test.ShouldEqual, 12)
	test.That(t, pool.Utilization(), test.ShouldEqual, 0.0)

	unused := New[testNode](logging.NewTestLogger(t))
	test.That(t, unused.Reserve(1), test.ShouldBeError, ErrNotInitialized)
	test.That(t, unused.Utilization(), test.ShouldEqual, 0.0)
}
