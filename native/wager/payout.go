package wager

import "github.com/holiman/uint256"

// PayoutScale is the fixed-point scale of the multiplier table: six decimal
// places of precision.
const PayoutScale uint64 = 1_000_000

// payoutMultipliers maps difference = outcome - guess to a scaled payout
// multiplier, modelling M(x) = 3.9*exp(-0.14*x) + 0.1. Entries are
// round(M(x) * PayoutScale) for x in 0..100. The curve is strictly
// non-increasing and never reaches zero, so every under-guess wins something.
var payoutMultipliers = [MaxOutcome + 1]uint64{
	4_000_000, 3_490_497, 3_047_557, 2_662_483, 2_327_715, 2_036_683, 1_783_671, 1_563_713,
	1_372_491, 1_206_251, 1_061_728, 936_086, 826_859, 731_900, 649_348, 577_580,
	515_188, 460_947, 413_792, 372_798, 337_159, 306_176, 279_241, 255_825,
	235_468, 217_770, 202_384, 189_008, 177_380, 167_271, 158_483, 150_842,
	144_200, 138_426, 133_406, 129_042, 125_248, 121_949, 119_082, 116_589,
	114_422, 112_538, 110_900, 109_476, 108_238, 107_162, 106_226, 105_413,
	104_705, 104_091, 103_556, 103_092, 102_688, 102_337, 102_031, 101_766,
	101_535, 101_335, 101_160, 101_009, 100_877, 100_762, 100_663, 100_576,
	100_501, 100_435, 100_379, 100_329, 100_286, 100_249, 100_216, 100_188,
	100_163, 100_142, 100_124, 100_107, 100_093, 100_081, 100_071, 100_061,
	100_053, 100_046, 100_040, 100_035, 100_030, 100_026, 100_023, 100_020,
	100_017, 100_015, 100_013, 100_011, 100_010, 100_009, 100_008, 100_007,
	100_006, 100_005, 100_004, 100_004, 100_003,
}

// Multiplier returns the scaled payout multiplier for the given difference
// between the outcome and the guess.
func Multiplier(difference uint8) (uint64, error) {
	if difference > MaxOutcome {
		return 0, ErrInvalidGuess
	}
	return payoutMultipliers[difference], nil
}

// PayoutAmount computes floor(amount * multiplier / PayoutScale) for a
// winning reveal. The product of two 64-bit operands is taken through a
// 256-bit intermediate so it can never wrap.
func PayoutAmount(amount uint64, difference uint8) (uint64, error) {
	multiplier, err := Multiplier(difference)
	if err != nil {
		return 0, err
	}
	product := new(uint256.Int).SetUint64(amount)
	product.Mul(product, new(uint256.Int).SetUint64(multiplier))
	product.Div(product, new(uint256.Int).SetUint64(PayoutScale))
	if !product.IsUint64() {
		return 0, ErrOverflow
	}
	return product.Uint64(), nil
}
