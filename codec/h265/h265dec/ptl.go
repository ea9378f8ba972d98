package h265dec

import (
	"github.com/ausocean/vidcore/bits"
	"github.com/ausocean/vidcore/errs"
)

// maxSubLayers is the maximum number of sub-layers a profile_tier_level
// structure may describe, per section 7.3.3.
const maxSubLayers = 8

// ProfileTierLevel is profile_tier_level(), section 7.3.3. The sub-layer
// loop's use of the *general* profile_compatibility_flag array (rather than
// each sub-layer's own) to gate sub_layer_profile_compatibility_flag[1..5]
// is preserved verbatim from the original implementation per the open
// question recorded in DESIGN.md: it is unclear whether this is a bug or
// intentional backward-compatibility behaviour.
type ProfileTierLevel struct {
	GeneralProfileSpace              int
	GeneralTierFlag                  bool
	GeneralProfileIDC                int
	GeneralProfileCompatibilityFlag  [32]bool
	GeneralProgressiveSourceFlag     bool
	GeneralInterlacedSourceFlag      bool
	GeneralNonPackedConstraintFlag   bool
	GeneralFrameOnlyConstraintFlag   bool
	GeneralLevelIDC                  int

	SubLayerProfilePresentFlag [maxSubLayers]bool
	SubLayerLevelPresentFlag   [maxSubLayers]bool
	SubLayerProfileSpace       [maxSubLayers]int
	SubLayerTierFlag           [maxSubLayers]bool
	SubLayerProfileIDC         [maxSubLayers]int
	SubLayerLevelIDC           [maxSubLayers]int
}

// ParseProfileTierLevel parses profile_tier_level(profilePresentFlag,
// maxNumSubLayersMinus1) per section 7.3.3.
func ParseProfileTierLevel(br *bits.BitReader, profilePresentFlag bool, maxNumSubLayersMinus1 int) (*ProfileTierLevel, error) {
	p := &ProfileTierLevel{}
	if profilePresentFlag {
		v, err := br.ReadBits(2)
		if err != nil {
			return nil, errs.Field(err, "general_profile_space")
		}
		p.GeneralProfileSpace = int(v)

		v, err = br.ReadBits(1)
		if err != nil {
			return nil, errs.Field(err, "general_tier_flag")
		}
		p.GeneralTierFlag = v == 1

		v, err = br.ReadBits(5)
		if err != nil {
			return nil, errs.Field(err, "general_profile_idc")
		}
		p.GeneralProfileIDC = int(v)

		for i := 0; i < 32; i++ {
			v, err = br.ReadBits(1)
			if err != nil {
				return nil, errs.Field(err, "general_profile_compatibility_flag")
			}
			p.GeneralProfileCompatibilityFlag[i] = v == 1
		}

		v, err = br.ReadBits(1)
		if err != nil {
			return nil, errs.Field(err, "general_progressive_source_flag")
		}
		p.GeneralProgressiveSourceFlag = v == 1
		v, err = br.ReadBits(1)
		if err != nil {
			return nil, errs.Field(err, "general_interlaced_source_flag")
		}
		p.GeneralInterlacedSourceFlag = v == 1
		v, err = br.ReadBits(1)
		if err != nil {
			return nil, errs.Field(err, "general_non_packed_constraint_flag")
		}
		p.GeneralNonPackedConstraintFlag = v == 1
		v, err = br.ReadBits(1)
		if err != nil {
			return nil, errs.Field(err, "general_frame_only_constraint_flag")
		}
		p.GeneralFrameOnlyConstraintFlag = v == 1

		// 43 reserved/constraint bits split as 12 profile-specific + 31
		// general reserved, per section 7.3.3; for profile_idc/compatibility
		// 4-7 the 12 bits are specific constraint flags, otherwise reserved.
		switch {
		case p.GeneralProfileIDC >= 4 && p.GeneralProfileIDC <= 7:
			if err := br.Skip(12); err != nil {
				return nil, errs.Field(err, "general_reserved_constraint_flags")
			}
		default:
			if err := br.Skip(12); err != nil {
				return nil, errs.Field(err, "general_reserved_zero_bits")
			}
		}
		if err := br.Skip(34 - 3); err != nil { // Remaining reserved bits to pad to 43+1 total.
			return nil, errs.Field(err, "general_reserved_zero_43bits_tail")
		}
		v, err = br.ReadBits(1)
		if err != nil {
			return nil, errs.Field(err, "general_inbld_flag")
		}
		_ = v
	}

	lvl, err := br.ReadBits(8)
	if err != nil {
		return nil, errs.Field(err, "general_level_idc")
	}
	p.GeneralLevelIDC = int(lvl)

	for i := 0; i < maxNumSubLayersMinus1; i++ {
		v, err := br.ReadBits(1)
		if err != nil {
			return nil, errs.Field(err, "sub_layer_profile_present_flag")
		}
		p.SubLayerProfilePresentFlag[i] = v == 1
		v, err = br.ReadBits(1)
		if err != nil {
			return nil, errs.Field(err, "sub_layer_level_present_flag")
		}
		p.SubLayerLevelPresentFlag[i] = v == 1
	}
	if maxNumSubLayersMinus1 > 0 {
		for i := maxNumSubLayersMinus1; i < 8; i++ {
			if err := br.Skip(2); err != nil { // reserved_zero_2bits
				return nil, errs.Field(err, "reserved_zero_2bits")
			}
		}
	}

	for i := 0; i < maxNumSubLayersMinus1; i++ {
		if p.SubLayerProfilePresentFlag[i] {
			v, err := br.ReadBits(2)
			if err != nil {
				return nil, errs.Field(err, "sub_layer_profile_space")
			}
			p.SubLayerProfileSpace[i] = int(v)
			v, err = br.ReadBits(1)
			if err != nil {
				return nil, errs.Field(err, "sub_layer_tier_flag")
			}
			p.SubLayerTierFlag[i] = v == 1
			v, err = br.ReadBits(5)
			if err != nil {
				return nil, errs.Field(err, "sub_layer_profile_idc")
			}
			p.SubLayerProfileIDC[i] = int(v)

			// Per the preserved ambiguity: the source reads into the
			// *general* compatibility flag array here rather than a
			// sub-layer-scoped one.
			for j := 0; j < 32; j++ {
				v, err = br.ReadBits(1)
				if err != nil {
					return nil, errs.Field(err, "sub_layer_profile_compatibility_flag")
				}
				p.GeneralProfileCompatibilityFlag[j] = v == 1
			}
			if err := br.Skip(4); err != nil {
				return nil, errs.Field(err, "sub_layer_reserved_bits_a")
			}
			if err := br.Skip(44); err != nil {
				return nil, errs.Field(err, "sub_layer_reserved_bits_b")
			}
		}
		if p.SubLayerLevelPresentFlag[i] {
			v, err := br.ReadBits(8)
			if err != nil {
				return nil, errs.Field(err, "sub_layer_level_idc")
			}
			p.SubLayerLevelIDC[i] = int(v)
		}
	}
	return p, nil
}
