package rawmem_test

import (
	"context"
	"encoding/binary"
	"fmt"
	"log"

	"github.com/hupe1980/rawmem"
	"github.com/hupe1980/rawmem/arena"
	"github.com/hupe1980/rawmem/buddy"
	"github.com/hupe1980/rawmem/hashmap"
	"github.com/hupe1980/rawmem/pool"
)

// Example_hunk demonstrates carving long-lived structures and a scratch
// scope from one reservation.
func Example_hunk() {
	h, err := rawmem.Open(1 << 20)
	if err != nil {
		log.Fatal(err)
	}
	defer h.Close()

	ids, err := h.NewHashMap(8, 64)
	if err != nil {
		log.Fatal(err)
	}

	val := make([]byte, 8)
	binary.LittleEndian.PutUint64(val, 7)
	ids.Insert(hashmap.StringKey("player"), val)

	if err := h.ScratchBegin(); err != nil {
		log.Fatal(err)
	}
	tmp := h.ScratchPush(4096)
	fmt.Println("scratch bytes:", len(tmp))
	if err := h.ScratchEnd(); err != nil {
		log.Fatal(err)
	}

	fmt.Println("player:", binary.LittleEndian.Uint64(ids.Find(hashmap.StringKey("player"))))
	// Output:
	// scratch bytes: 4096
	// player: 7
}

// Example_workers demonstrates checking out a private scratch arena.
func Example_workers() {
	h, err := rawmem.Open(1<<20, rawmem.WithWorkers(2, 64<<10))
	if err != nil {
		log.Fatal(err)
	}
	defer h.Close()

	w, err := h.Workers().Acquire(context.Background())
	if err != nil {
		log.Fatal(err)
	}
	defer w.Release()

	if err := w.Begin(); err != nil {
		log.Fatal(err)
	}
	buf := w.Push(1000)
	fmt.Println("worker", w.ID(), "got", len(buf), "bytes, cursor at", w.Arena().Pos())
	if err := w.End(); err != nil {
		log.Fatal(err)
	}
	fmt.Println("cursor after end:", w.Arena().Pos())
	// Output:
	// worker 0 got 1000 bytes, cursor at 1008
	// cursor after end: 0
}

// Example_arena demonstrates the bump allocator on a plain buffer.
func Example_arena() {
	a := arena.New(make([]byte, 64))

	p := a.Push(10)
	fmt.Println(len(p), a.Pos())
	a.Pop(10)
	fmt.Println(a.Pos())
	// Output:
	// 10 16
	// 0
}

// Example_pool demonstrates fixed-size chunk allocation.
func Example_pool() {
	size, err := pool.BufferSize(8, 32)
	if err != nil {
		log.Fatal(err)
	}
	p, err := pool.New(make([]byte, size), 8, 32)
	if err != nil {
		log.Fatal(err)
	}

	c := p.Alloc()
	fmt.Println(len(c), p.InUse())
	p.Free(c)
	fmt.Println(p.InUse())
	// Output:
	// 32 1
	// 0
}

// Example_buddy demonstrates power-of-two block allocation with 64-byte
// minimum blocks.
func Example_buddy() {
	h, err := rawmem.Open(4096)
	if err != nil {
		log.Fatal(err)
	}
	defer h.Close()

	b, err := h.NewBuddy(1024, buddy.WithMinBlockSize(64))
	if err != nil {
		log.Fatal(err)
	}

	p := b.Alloc(100)
	fmt.Println(len(p), cap(p))
	if err := b.Release(p); err != nil {
		log.Fatal(err)
	}
	fmt.Println(b.Stats().LargestFree)
	// Output:
	// 100 128
	// 512
}
