// Package pool provides sync.Pool wrappers for reducing GC pressure.
package pool

import (
	"strconv"
	"strings"
	"sync"
)

// Pointer builds RFC 6901 JSON pointers ("/a/0/b~1c") while the walker
// descends into a document. Segments are pushed and popped as a stack, so a
// single Pointer follows a whole walk without reallocating.
type Pointer struct {
	buf   []byte
	marks []int
}

var pointerPool = sync.Pool{
	New: func() any {
		return &Pointer{
			buf:   make([]byte, 0, 256),
			marks: make([]int, 0, 32),
		}
	},
}

// AcquirePointer gets a Pointer from the pool.
// Call Release() when done to return it to the pool.
func AcquirePointer() *Pointer {
	p := pointerPool.Get().(*Pointer)
	p.Reset()
	return p
}

// Release returns the Pointer to the pool.
func (p *Pointer) Release() {
	if p == nil {
		return
	}
	// Don't return oversized buffers to the pool
	if cap(p.buf) <= 4096 && cap(p.marks) <= 512 {
		pointerPool.Put(p)
	}
}

// Reset points back at the document root.
func (p *Pointer) Reset() {
	p.buf = p.buf[:0]
	p.marks = p.marks[:0]
}

// Push appends a member name, escaping '~' and '/'.
func (p *Pointer) Push(token string) {
	p.marks = append(p.marks, len(p.buf))
	p.buf = append(p.buf, '/')
	p.buf = appendEscaped(p.buf, token)
}

// PushIndex appends an array index.
func (p *Pointer) PushIndex(index int) {
	p.marks = append(p.marks, len(p.buf))
	p.buf = append(p.buf, '/')
	p.buf = strconv.AppendInt(p.buf, int64(index), 10)
}

// Pop removes the last segment. Popping the root is a no-op.
func (p *Pointer) Pop() {
	if len(p.marks) == 0 {
		return
	}
	last := p.marks[len(p.marks)-1]
	p.marks = p.marks[:len(p.marks)-1]
	p.buf = p.buf[:last]
}

// String returns the pointer. The root is "".
func (p *Pointer) String() string {
	return string(p.buf)
}

func appendEscaped(buf []byte, token string) []byte {
	if !strings.ContainsAny(token, "~/") {
		return append(buf, token...)
	}
	for i := 0; i < len(token); i++ {
		switch c := token[i]; c {
		case '~':
			buf = append(buf, '~', '0')
		case '/':
			buf = append(buf, '~', '1')
		default:
			buf = append(buf, c)
		}
	}
	return buf
}

// AppendIndex appends an array index to an already rendered pointer.
func AppendIndex(base string, index int) string {
	return base + "/" + strconv.Itoa(index)
}
