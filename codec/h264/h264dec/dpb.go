package h264dec

import (
	"sort"

	"github.com/ausocean/vidcore/common"
)

// refPicture is one coded picture (frame, or a single field) held in the DPB,
// per the reference-picture data model in section 3 of the core design.
type refPicture struct {
	frameNum         int
	frameNumWrap     int
	picNum           int
	longTermPicNum   int
	longTermFrameIdx int
	poc              common.POC
	structure        common.PicStruct
	marking          common.RefMarking
	outputNeeded     bool
}

// frameStore groups one or two field pictures (or a single frame picture)
// sharing the same frame_num, per the "at most two buffers whose structures
// union to frame" invariant in section 3.
type frameStore struct {
	frame      *refPicture
	topField   *refPicture
	bottomField *refPicture
}

func (fs *frameStore) isRef() bool {
	return fs.anyMarked(common.RefShortTerm) || fs.anyMarked(common.RefLongTerm)
}

func (fs *frameStore) anyMarked(m common.RefMarking) bool {
	for _, p := range fs.pics() {
		if p != nil && p.marking == m {
			return true
		}
	}
	return false
}

func (fs *frameStore) outputPending() bool {
	for _, p := range fs.pics() {
		if p != nil && p.outputNeeded {
			return true
		}
	}
	return false
}

func (fs *frameStore) pics() [3]*refPicture {
	return [3]*refPicture{fs.frame, fs.topField, fs.bottomField}
}

// minPOC returns the smallest POC among the pictures held by fs, used both
// for bumping order and for the non-reference immediate-output check in
// section 4.12.
func (fs *frameStore) minPOC() int {
	min := 1<<63 - 1
	for _, p := range fs.pics() {
		if p == nil {
			continue
		}
		if p.poc.Top < min {
			min = p.poc.Top
		}
		if p.poc.Bottom < min {
			min = p.poc.Bottom
		}
	}
	return min
}

// DPB is the H.264 decoded picture buffer described in section 4.12: a list
// of frame stores bounded by MaxDecFrameBuffering, with insertion, MMCO
// marking, sliding-window eviction, bumping and flush.
type DPB struct {
	MaxDecFrameBuffering int
	MaxNumRefFrames      int
	MaxLongTermFrameIdx  int // -1 means "no long-term frames allowed".

	stores []*frameStore
	// Output is appended to whenever a picture is bumped or flushed; the
	// driver (C14) drains it after each decode() call.
	Output []common.POC
}

// NewDPB returns an empty DPB sized per sps.
func NewDPB(sps *SPS) *DPB {
	maxRef := int(sps.MaxNumRefFrames)
	if maxRef < 1 {
		maxRef = 1
	}
	return &DPB{
		MaxDecFrameBuffering: maxRef,
		MaxNumRefFrames:      maxRef,
		MaxLongTermFrameIdx:  -1,
	}
}

// frameNumWrap computes FrameNumWrap for p relative to the current picture's
// frame_num, per equation 8-28: if p.frameNum > currFrameNum, p precedes a
// frame_num wraparound and loses MaxFrameNum from its value.
func frameNumWrap(frameNum, currFrameNum, maxFrameNum int) int {
	if frameNum > currFrameNum {
		return frameNum - maxFrameNum
	}
	return frameNum
}

// AddPicture implements the per-picture DPB update of section 4.12:
// 1. evict any frame store that is neither reference-marked nor output-pending,
// 2. if pic is a reference, bump until there is room, then insert,
// 3. if pic is non-reference with an output flag, output immediately when no
//    buffered picture has a smaller POC, else bump.
func (d *DPB) AddPicture(pic *refPicture, isRef, outputFlag bool) {
	d.evictIdle()

	if isRef {
		for len(d.stores) >= d.MaxDecFrameBuffering {
			if !d.bumpOne() {
				break
			}
		}
		d.stores = append(d.stores, &frameStore{frame: pic})
		return
	}

	if outputFlag {
		if !d.smallerPOCBuffered(pic) {
			d.Output = append(d.Output, pic.poc)
			return
		}
		d.bumpOne()
		d.Output = append(d.Output, pic.poc)
	}
}

func (d *DPB) smallerPOCBuffered(pic *refPicture) bool {
	cur := min(pic.poc.Top, pic.poc.Bottom)
	for _, fs := range d.stores {
		if fs.outputPending() && fs.minPOC() < cur {
			return true
		}
	}
	return false
}

func (d *DPB) evictIdle() {
	kept := d.stores[:0]
	for _, fs := range d.stores {
		if fs.isRef() || fs.outputPending() {
			kept = append(kept, fs)
		}
	}
	d.stores = kept
}

// bumpOne outputs the output-pending picture with the smallest POC across
// every frame store, per the "bump" operation in section 3. It reports
// whether a picture was output.
func (d *DPB) bumpOne() bool {
	best := -1
	bestPOC := 1 << 62
	for i, fs := range d.stores {
		if !fs.outputPending() {
			continue
		}
		if p := fs.minPOC(); p < bestPOC {
			bestPOC = p
			best = i
		}
	}
	if best < 0 {
		return false
	}
	fs := d.stores[best]
	for _, p := range fs.pics() {
		if p != nil && p.outputNeeded {
			d.Output = append(d.Output, p.poc)
			p.outputNeeded = false
		}
	}
	d.evictIdle()
	return true
}

// Flush implements flush(): bump until the DPB is empty of output-pending
// pictures, per the external-interface contract in section 6.
func (d *DPB) Flush() {
	for d.bumpOne() {
	}
	d.evictIdle()
}

// MarkReferences applies reference-picture marking for the current picture
// after it has been decoded, per section 4.12 and section 8.2.5 of H.264:
// IDR long-term marking, MMCO operations 1-6, or sliding-window marking when
// no adaptive marking is present. drain reports whether MMCO 5 fired, which
// per section 4.12 the driver should treat as a cue to emit in draining mode.
func (d *DPB) MarkReferences(cur *refPicture, isIDR bool, drpm *DecRefPicMarking, currFrameNum, maxFrameNum int) (drain bool) {
	if isIDR {
		cur.marking = common.RefShortTerm
		if drpm != nil && drpm.LongTermReferenceFlag {
			cur.marking = common.RefLongTerm
			cur.longTermFrameIdx = 0
			d.MaxLongTermFrameIdx = 0
		}
		return false
	}

	if drpm == nil || !drpm.AdaptiveRefPicMarkingModeFlag {
		cur.marking = common.RefShortTerm
		d.slidingWindow(currFrameNum, maxFrameNum)
		return false
	}

	cur.marking = common.RefShortTerm
	for _, e := range drpm.elements {
		switch e.MemoryManagementControlOperation {
		case 1:
			d.unmarkShortTerm(e.DifferenceOfPicNumsMinus1, currFrameNum, maxFrameNum)
		case 2:
			d.unmarkLongTerm(e.LongTermPicNum)
		case 3:
			d.assignLongTerm(e.DifferenceOfPicNumsMinus1, e.LongTermFrameIdx, currFrameNum, maxFrameNum)
		case 4:
			d.MaxLongTermFrameIdx = e.MaxLongTermFrameIdxPlus1 - 1
			d.evictLongTermAbove(d.MaxLongTermFrameIdx)
		case 5:
			d.clearAll()
			return true
		case 6:
			cur.marking = common.RefLongTerm
			cur.longTermFrameIdx = e.LongTermFrameIdx
		}
	}
	return false
}

// slidingWindow implements the sliding-window process of section 8.2.5.3:
// while the short-/long-term reference count is at least MaxNumRefFrames,
// unmark the short-term picture with the smallest FrameNumWrap.
func (d *DPB) slidingWindow(currFrameNum, maxFrameNum int) {
	for d.refCount() >= d.MaxNumRefFrames {
		var victim *refPicture
		var victimWrap = 1 << 62
		for _, fs := range d.stores {
			for _, p := range fs.pics() {
				if p == nil || p.marking != common.RefShortTerm {
					continue
				}
				w := frameNumWrap(p.frameNum, currFrameNum, maxFrameNum)
				if w < victimWrap {
					victimWrap = w
					victim = p
				}
			}
		}
		if victim == nil {
			return
		}
		victim.marking = common.RefUnused
	}
}

func (d *DPB) refCount() int {
	n := 0
	for _, fs := range d.stores {
		for _, p := range fs.pics() {
			if p != nil && p.marking != common.RefUnused {
				n++
			}
		}
	}
	return n
}

func (d *DPB) unmarkShortTerm(diffMinus1, currFrameNum, maxFrameNum int) {
	target := currFrameNum - (diffMinus1 + 1)
	for _, fs := range d.stores {
		for _, p := range fs.pics() {
			if p != nil && p.marking == common.RefShortTerm && frameNumWrap(p.frameNum, currFrameNum, maxFrameNum) == frameNumWrap(target, currFrameNum, maxFrameNum) {
				p.marking = common.RefUnused
			}
		}
	}
}

func (d *DPB) unmarkLongTerm(longTermPicNum int) {
	for _, fs := range d.stores {
		for _, p := range fs.pics() {
			if p != nil && p.marking == common.RefLongTerm && p.longTermPicNum == longTermPicNum {
				p.marking = common.RefUnused
			}
		}
	}
}

func (d *DPB) assignLongTerm(diffMinus1, idx, currFrameNum, maxFrameNum int) {
	target := frameNumWrap(currFrameNum-(diffMinus1+1), currFrameNum, maxFrameNum)
	for _, fs := range d.stores {
		for _, p := range fs.pics() {
			if p != nil && p.marking == common.RefLongTerm && p.longTermFrameIdx == idx {
				p.marking = common.RefUnused
			}
			if p != nil && p.marking == common.RefShortTerm && frameNumWrap(p.frameNum, currFrameNum, maxFrameNum) == target {
				p.marking = common.RefLongTerm
				p.longTermFrameIdx = idx
			}
		}
	}
}

func (d *DPB) evictLongTermAbove(maxIdx int) {
	for _, fs := range d.stores {
		for _, p := range fs.pics() {
			if p != nil && p.marking == common.RefLongTerm && p.longTermFrameIdx > maxIdx {
				p.marking = common.RefUnused
			}
		}
	}
}

func (d *DPB) clearAll() {
	for _, fs := range d.stores {
		for _, p := range fs.pics() {
			if p != nil {
				p.marking = common.RefUnused
			}
		}
	}
	d.evictIdle()
}

// RefLists builds L0/L1 for a P or B slice per section 8.2.4 of H.264 (frame
// pictures only; field-picture alternation per 8.2.4.2.5 is not implemented,
// matching this module's picture-descriptor scope). currPOC is the current
// picture's POC (min of top/bottom for a frame).
func (d *DPB) RefLists(sliceTypeB bool, currFrameNum, maxFrameNum, currPOC int) (l0, l1 []*refPicture) {
	var shortTerm, longTerm []*refPicture
	for _, fs := range d.stores {
		for _, p := range fs.pics() {
			if p == nil {
				continue
			}
			switch p.marking {
			case common.RefShortTerm:
				p.picNum = frameNumWrap(p.frameNum, currFrameNum, maxFrameNum)
				shortTerm = append(shortTerm, p)
			case common.RefLongTerm:
				longTerm = append(longTerm, p)
			}
		}
	}
	sort.Slice(longTerm, func(i, j int) bool { return longTerm[i].longTermFrameIdx < longTerm[j].longTermFrameIdx })

	if !sliceTypeB {
		sort.Slice(shortTerm, func(i, j int) bool { return shortTerm[i].picNum > shortTerm[j].picNum })
		l0 = append(append(l0, shortTerm...), longTerm...)
		return l0, nil
	}

	var before, after []*refPicture
	for _, p := range shortTerm {
		if min(p.poc.Top, p.poc.Bottom) < currPOC {
			before = append(before, p)
		} else {
			after = append(after, p)
		}
	}
	sort.Slice(before, func(i, j int) bool { return min(before[i].poc.Top, before[i].poc.Bottom) > min(before[j].poc.Top, before[j].poc.Bottom) })
	sort.Slice(after, func(i, j int) bool { return min(after[i].poc.Top, after[i].poc.Bottom) < min(after[j].poc.Top, after[j].poc.Bottom) })

	l0 = append(append(append(l0, before...), after...), longTerm...)
	l1 = append(append(append(l1, after...), before...), longTerm...)
	if len(l0) == len(l1) && len(l0) > 1 {
		l1[0], l1[1] = l1[1], l1[0]
	}
	return l0, l1
}
