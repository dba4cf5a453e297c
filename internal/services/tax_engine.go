package services

import (
	"fmt"

	"github.com/shopspring/decimal"

	"pyme_pos_backend/internal/models"
)

// Paraguayan IVA works on tax-inclusive prices: the listed price already
// contains the tax, and invoices must show how much of it is tax. The
// decomposition below extracts base and tax from an inclusive total; it never
// adds tax on top.

// DecomposeTax splits a tax-inclusive total into its base and tax portions.
// For a zero rate the total is all base. Otherwise base is total / (1+rate)
// rounded half-up to a whole guaraní, and tax is the remainder, so
// base + tax == total always holds exactly.
func DecomposeTax(total int64, taxType models.TaxType) (base int64, tax int64) {
	rate := taxType.Rate()
	if rate.IsZero() {
		return total, 0
	}
	totalDec := decimal.NewFromInt(total)
	base = totalDec.Div(decimal.NewFromInt(1).Add(rate)).Round(0).IntPart()
	tax = total - base
	return base, tax
}

// LineAmounts is the result of pricing one sale or quote line. Subtotal is
// the post-discount gross and stays tax-inclusive; Base and Tax decompose it.
type LineAmounts struct {
	Gross    int64
	Discount int64
	Subtotal int64
	Base     int64
	Tax      int64
}

// PriceLine computes a line's amounts from its snapshotted inputs:
// gross = unitPrice * quantity, discount = round-half-up(gross * pct / 100),
// subtotal = gross - discount, then (base, tax) = DecomposeTax(subtotal).
func PriceLine(quantity int64, unitPrice int64, discountPercent decimal.Decimal, taxType models.TaxType) (LineAmounts, error) {
	if quantity <= 0 {
		return LineAmounts{}, fmt.Errorf("%w: quantity must be positive", ErrValidation)
	}
	if unitPrice < 0 {
		return LineAmounts{}, fmt.Errorf("%w: unit price cannot be negative", ErrValidation)
	}
	if discountPercent.IsNegative() || discountPercent.GreaterThan(decimal.NewFromInt(100)) {
		return LineAmounts{}, fmt.Errorf("%w: discount percent must be between 0 and 100", ErrValidation)
	}
	if !taxType.Valid() {
		return LineAmounts{}, fmt.Errorf("%w: unknown tax type %q", ErrValidation, taxType)
	}

	gross := unitPrice * quantity
	discount := decimal.NewFromInt(gross).
		Mul(discountPercent).
		Div(decimal.NewFromInt(100)).
		Round(0).IntPart()
	subtotal := gross - discount
	base, tax := DecomposeTax(subtotal, taxType)

	return LineAmounts{
		Gross:    gross,
		Discount: discount,
		Subtotal: subtotal,
		Base:     base,
		Tax:      tax,
	}, nil
}
