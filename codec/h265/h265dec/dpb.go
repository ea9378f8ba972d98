package h265dec

import (
	"github.com/ausocean/vidcore/common"
)

// picture is one decoded picture held in the H.265 DPB, per the output-and-
// removal model of section 4.12 (section C.5 of ITU-T H.265).
type picture struct {
	poc          int
	marking      common.RefMarking
	outputNeeded bool
	picLatencyCount int
}

// DPB is the H.265 decoded picture buffer: bumping is driven by the active
// SPS's sps_max_num_reorder_pics, sps_max_latency_increase_plus1 and
// sps_max_dec_pic_buffering_minus1 for the highest temporal sub-layer in use,
// per section C.5.2.2.
type DPB struct {
	MaxDecPicBuffering int
	MaxNumReorderPics  int
	MaxLatencyIncrease int // 0 means "no latency constraint".

	pics []*picture
	// Output is appended to whenever a picture is bumped or flushed; the
	// driver drains it after each decode() call.
	Output []common.POC
}

// NewDPB returns an empty DPB sized from sps, using the highest sub-layer
// (HighestTid == sps.MaxSubLayersMinus1) per the usual single-layer decoding
// case this module targets.
func NewDPB(sps *SPS) *DPB {
	tid := sps.MaxSubLayersMinus1
	d := &DPB{
		MaxDecPicBuffering: sps.MaxDecPicBuffering[tid],
		MaxNumReorderPics:  sps.MaxNumReorderPics[tid],
	}
	if sps.MaxLatencyIncreasePlus1[tid] > 0 {
		d.MaxLatencyIncrease = sps.MaxLatencyIncreasePlus1[tid] - 1
	}
	if d.MaxDecPicBuffering < 1 {
		d.MaxDecPicBuffering = 1
	}
	return d
}

// AddPicture inserts a newly decoded picture and runs the "additional bumping"
// and "bumping" checks of section C.5.2.2: pictures are queued in decode
// order and output in POC order once the reorder/latency/buffering bound
// would otherwise be exceeded.
func (d *DPB) AddPicture(poc int, isRef, outputFlag bool) {
	for _, p := range d.pics {
		if p.outputNeeded {
			p.picLatencyCount++
		}
	}

	marking := common.RefUnused
	if isRef {
		marking = common.RefShortTerm
	}
	d.pics = append(d.pics, &picture{poc: poc, marking: marking, outputNeeded: outputFlag})

	for d.needsBump() {
		if !d.bumpOne() {
			break
		}
	}
	d.evictIdle()
}

func (d *DPB) needsBump() bool {
	if d.numOutputNeeded() > d.MaxNumReorderPics {
		return true
	}
	if d.MaxLatencyIncrease > 0 {
		for _, p := range d.pics {
			if p.outputNeeded && p.picLatencyCount >= d.MaxLatencyIncrease {
				return true
			}
		}
	}
	if len(d.pics) >= d.MaxDecPicBuffering+1 {
		return true
	}
	return false
}

func (d *DPB) numOutputNeeded() int {
	n := 0
	for _, p := range d.pics {
		if p.outputNeeded {
			n++
		}
	}
	return n
}

// bumpOne outputs the output-pending picture with the smallest POC, per the
// bumping process of section C.5.2.4.
func (d *DPB) bumpOne() bool {
	best := -1
	bestPOC := 1 << 62
	for i, p := range d.pics {
		if p.outputNeeded && p.poc < bestPOC {
			bestPOC = p.poc
			best = i
		}
	}
	if best < 0 {
		return false
	}
	p := d.pics[best]
	d.Output = append(d.Output, common.POC{Top: p.poc, Bottom: p.poc})
	p.outputNeeded = false
	return true
}

func (d *DPB) evictIdle() {
	kept := d.pics[:0]
	for _, p := range d.pics {
		if p.marking != common.RefUnused || p.outputNeeded {
			kept = append(kept, p)
		}
	}
	d.pics = kept
}

// MarkUnusedBeyond clears the reference marking of every picture whose POC is
// not in keepPOCs, implementing the RPS-driven removal of section 8.3.2:
// after deriving the current picture's reference picture sets, any DPB
// picture not present in any RPS subset is marked "unused for reference".
func (d *DPB) MarkUnusedBeyond(keepPOCs map[int]bool) {
	for _, p := range d.pics {
		if !keepPOCs[p.poc] {
			p.marking = common.RefUnused
		}
	}
	d.evictIdle()
}

// Flush implements flush(): bump until the DPB holds no output-pending
// picture, per the external-interface contract.
func (d *DPB) Flush() {
	for d.bumpOne() {
	}
	d.evictIdle()
}

// RefPOCs returns the POC of every picture currently marked as a reference,
// used to build the current picture's reference picture lists.
func (d *DPB) RefPOCs() []int {
	var out []int
	for _, p := range d.pics {
		if p.marking != common.RefUnused {
			out = append(out, p.poc)
		}
	}
	return out
}
