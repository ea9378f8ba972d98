/*
DESCRIPTION
  decode.go provides slice decoding functionality.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved. 

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/


// Package h264dec provides a decoder for h264 frames.
package h264dec

import (
	"errors"
	"fmt"
)

// decode derives a picture's order count and updates vid's per-stream state
// in preparation for the next picture, per section 8.2.1.
func decode(vid *VideoStream, ctx *SliceContext) error {
	var err error
	vid.topFieldOrderCnt, vid.bottomFieldOrderCnt, err = decodePicOrderCnt(vid, ctx)
	if err != nil {
		return fmt.Errorf("could not derive topFieldOrderCnt and bottomFieldOrderCnt, failed with error: %w", err)
	}

	mmco5 := ctx.DecRefPicMarking != nil && len(ctx.elements) > 0 && ctx.elements[0].MemoryManagementControlOperation == 5
	if mmco5 {
		tempPicOrderCnt := picOrderCnt(ctx, vid)
		vid.topFieldOrderCnt = vid.topFieldOrderCnt - tempPicOrderCnt
		vid.bottomFieldOrderCnt = vid.bottomFieldOrderCnt - tempPicOrderCnt
		vid.frameNumOffset = 0
	}

	vid.prevFrameNum = ctx.FrameNum
	vid.prevFrameNumOffset = vid.frameNumOffset
	vid.prevPicOrderCntLsb = ctx.PicOrderCntLsb
	if mmco5 {
		// The next picture sees frame_num 0, picOrderCntMsb 0 and, unless
		// this was a bottom field, the reset top field order count as lsb.
		vid.prevFrameNum = 0
		vid.picOrderCntMsb = 0
		vid.prevPicOrderCntLsb = 0
		if !ctx.BottomField {
			vid.prevPicOrderCntLsb = vid.topFieldOrderCnt
		}
	}
	return nil
}

// picOrderCnt returns the picture order count of the current picture, per
// section 8.2.1: the minimum of top and bottom field order counts for a
// frame or complementary field pair, or whichever of the two is set for a
// lone field.
func picOrderCnt(ctx *SliceContext, vid *VideoStream) int {
	switch {
	case !ctx.FieldPic:
		return min(vid.topFieldOrderCnt, vid.bottomFieldOrderCnt)
	case ctx.BottomField:
		return vid.bottomFieldOrderCnt
	default:
		return vid.topFieldOrderCnt
	}
}

// decodePicOrderCnt derives topFieldOrderCnt and bottomFieldOrderCnt based
// on the PicOrderCntType using the process defined in section 8.2.1 of the
// specifications.
func decodePicOrderCnt(vid *VideoStream, ctx *SliceContext) (topFieldOrderCnt, bottomFieldOrderCnt int, err error) {
	switch ctx.PicOrderCountType {
	case 0:
		topFieldOrderCnt, bottomFieldOrderCnt = decodePicOrderCntType0(vid, ctx)
	case 1:
		topFieldOrderCnt, bottomFieldOrderCnt = decodePicOrderCntType1(vid, ctx)
	case 2:
		topFieldOrderCnt, bottomFieldOrderCnt = decodePicOrderCntType2(vid, ctx)
	default:
		err = errors.New("invalid PicOrderCountType")
	}

	// TODO: check DiffPicOrderCnt( picA, picB ) once picOrderCnt( picX ) is
	// worked out.
	return
}

// picOrderCntType0 is used to return topFieldOrderCnt and bottomFieldOrderCnt
// when pic_order_cnt_type i.e vid.PicOrderCntType == 0, using the process
// defined in section 8.2.1.1 of the specifications. If topFieldOrderCnt or
// bottomFieldOrderCnt are -1 they are unset.
func decodePicOrderCntType0(vid *VideoStream, ctx *SliceContext) (topFieldOrderCnt, bottomFieldOrderCnt int) {
	prevPicOrderCntMsb, prevPicOrderCntLsb := 0, 0
	topFieldOrderCnt, bottomFieldOrderCnt = -1, -1

	// A reference picture with MMCO 5 resets picOrderCntMsb and
	// prevPicOrderCntLsb for the picture that follows it; decode() applies
	// that reset after the MMCO 5 picture, so here the non-IDR case simply
	// carries forward the previous picture's state rather than starting fresh.
	if vid.idrPicFlag {
		prevPicOrderCntMsb, prevPicOrderCntLsb = 0, 0
	} else {
		prevPicOrderCntMsb, prevPicOrderCntLsb = vid.picOrderCntMsb, vid.prevPicOrderCntLsb
	}

	vid.picOrderCntMsb = prevPicOrderCntMsb
	if ctx.PicOrderCntLsb < prevPicOrderCntLsb && (prevPicOrderCntLsb-ctx.PicOrderCntLsb) >= (vid.maxPicOrderCntLsb/2) {
		vid.picOrderCntMsb = prevPicOrderCntMsb + vid.maxPicOrderCntLsb
	} else if ctx.PicOrderCntLsb > prevPicOrderCntLsb && (ctx.PicOrderCntLsb-prevPicOrderCntLsb) > (vid.maxPicOrderCntLsb/2) {
		vid.picOrderCntMsb = prevPicOrderCntMsb - vid.maxPicOrderCntLsb
	}

	if !ctx.BottomField {
		topFieldOrderCnt = vid.picOrderCntMsb + ctx.PicOrderCntLsb
		if !ctx.FieldPic {
			bottomFieldOrderCnt = topFieldOrderCnt + ctx.DeltaPicOrderCntBottom
		}
	} else {
		bottomFieldOrderCnt = vid.picOrderCntMsb + ctx.PicOrderCntLsb
	}
	return
}

// picOrderCntType1 is used to return topFieldOrderCnt and bottomFieldOrderCnt
// when vic.PicOrderCntType == 1 according to logic defined in section 8.2.1.2
// of the specifications. If topFieldOrderCnt or bottomFieldOrderCnt are -1,
// then they are considered unset.
func decodePicOrderCntType1(vid *VideoStream, ctx *SliceContext) (topFieldOrderCnt, bottomFieldOrderCnt int) {
	topFieldOrderCnt, bottomFieldOrderCnt = -1, -1

	if vid.idrPicFlag {
		vid.frameNumOffset = 0
	} else if vid.prevFrameNum > ctx.FrameNum {
		vid.frameNumOffset = vid.prevFrameNumOffset + vid.maxFrameNum()
	} else {
		vid.frameNumOffset = vid.prevFrameNumOffset
	}

	absFrameNum := 0
	if ctx.NumRefFramesInPicOrderCntCycle != 0 {
		absFrameNum = vid.frameNumOffset + ctx.FrameNum
	}

	if ctx.RefIdc == 0 && absFrameNum > 0 {
		absFrameNum = absFrameNum - 1
	}

	var expectedPicOrderCnt int
	if absFrameNum > 0 {
		picOrderCntCycleCnt := (absFrameNum - 1) / int(ctx.NumRefFramesInPicOrderCntCycle)
		frameNumInPicOrderCntCycle := (absFrameNum - 1) % int(ctx.NumRefFramesInPicOrderCntCycle)
		expectedPicOrderCnt = picOrderCntCycleCnt * vid.expectedDeltaPerPicOrderCntCycle
		for i := 0; i <= frameNumInPicOrderCntCycle; i++ {
			expectedPicOrderCnt = expectedPicOrderCnt + ctx.OffsetForRefFrameList[i]
		}
	}

	if ctx.RefIdc == 0 {
		expectedPicOrderCnt = expectedPicOrderCnt + int(ctx.OffsetForNonRefPic)
	}

	if !ctx.FieldPic {
		topFieldOrderCnt = expectedPicOrderCnt + ctx.DeltaPicOrderCnt[0]
		bottomFieldOrderCnt = topFieldOrderCnt + int(ctx.OffsetForTopToBottomField) + ctx.DeltaPicOrderCnt[1]
	} else if ctx.BottomField {
		bottomFieldOrderCnt = expectedPicOrderCnt + int(ctx.OffsetForTopToBottomField) + ctx.DeltaPicOrderCnt[0]
	} else {
		topFieldOrderCnt = expectedPicOrderCnt + ctx.DeltaPicOrderCnt[0]
	}
	return
}

// picOrderCntType2 is used to return topFieldOrderCnt and bottomFieldOrderCnt
// when vic.PicOrderCntType == 2 according to logic defined in section 8.2.1.3
// of the specifications. If topFieldOrderCnt or bottomFieldOrderCnt are -1,
// then they are considered unset.
func decodePicOrderCntType2(vid *VideoStream, ctx *SliceContext) (topFieldOrderCnt, bottomFieldOrderCnt int) {
	topFieldOrderCnt, bottomFieldOrderCnt = -1, -1

	if vid.idrPicFlag {
		vid.frameNumOffset = 0
	} else if vid.prevFrameNum > ctx.FrameNum {
		vid.frameNumOffset = vid.prevFrameNumOffset + vid.maxFrameNum()
	} else {
		vid.frameNumOffset = vid.prevFrameNumOffset
	}

	var tempPicOrderCnt int
	switch {
	case vid.idrPicFlag:
		tempPicOrderCnt = 0
	case ctx.RefIdc == 0:
		tempPicOrderCnt = 2*(vid.frameNumOffset+ctx.FrameNum) - 1
	default:
		tempPicOrderCnt = 2 * (vid.frameNumOffset + ctx.FrameNum)
	}

	if !ctx.FieldPic {
		topFieldOrderCnt = tempPicOrderCnt
		bottomFieldOrderCnt = tempPicOrderCnt
	} else if ctx.BottomField {
		bottomFieldOrderCnt = tempPicOrderCnt
	} else {
		topFieldOrderCnt = tempPicOrderCnt
	}

	return
}
