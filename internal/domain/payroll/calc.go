package payroll

import "github.com/shopspring/decimal"

// Multiplier is the per-unit cost factor for a production entry.
func Multiplier(size ContainerSize, process ProcessType) int64 {
	switch process {
	case ProcessBlown:
		switch size {
		case ContainerLarge:
			return 3
		case ContainerSmall:
			return 1
		}
	case ProcessRolled:
		switch size {
		case ContainerLarge:
			return 2
		case ContainerSmall:
			return 1
		}
	}
	return 0
}

// CalculateCost returns count * multiplier for the size/process pair. The
// product is taken in decimal so large counts cannot wrap.
func CalculateCost(count int, size ContainerSize, process ProcessType) decimal.Decimal {
	return decimal.NewFromInt(int64(count)).Mul(decimal.NewFromInt(Multiplier(size, process)))
}
