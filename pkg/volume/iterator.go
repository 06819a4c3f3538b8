package volume

// Iterator walks the frames of a sequence in ascending order, realizing one
// frame per call to Next:
//
//	it := volume.IterFrames(seq)
//	for it.Next() {
//		f := it.Frame()
//		...
//	}
//	if err := it.Err(); err != nil {
//		...
//	}
//
// Stopping before the end is always allowed.
type Iterator struct {
	seq   *Sequence
	next  int
	index int
	cur   *Frame
	err   error
}

// IterFrames returns a new iterator positioned before the first frame of s.
// Every call returns an independent traversal.
func IterFrames(s *Sequence) *Iterator {
	return &Iterator{seq: s, index: -1}
}

// Next advances to the next frame. It returns false when the frames are
// exhausted or a frame failed to load; check Err to tell them apart.
func (it *Iterator) Next() bool {
	if it.err != nil || it.next >= it.seq.length {
		it.cur = nil
		return false
	}
	f, err := it.seq.backing.frame(it.next)
	if err != nil {
		it.err = err
		it.cur = nil
		return false
	}
	it.cur = f
	it.index = it.next
	it.next++
	return true
}

// Frame returns the current frame, or nil before the first call to Next
// and after the iterator is done.
func (it *Iterator) Frame() *Frame { return it.cur }

// Index returns the position of the current frame in the sequence.
func (it *Iterator) Index() int { return it.index }

// Err returns the error that stopped the iteration, if any.
func (it *Iterator) Err() error { return it.err }
