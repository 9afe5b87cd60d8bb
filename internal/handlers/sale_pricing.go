package handlers

type saleUpdateInput struct {
	Price       *float64
	SaleEnabled *bool
	SalePrice   *float64
}

type saleUpdateResult struct {
	Price          float64
	SaleEnabled    bool
	SalePrice      float64
	SetSaleEnabled bool
	SetSalePrice   bool
}

// saleValidationError carries both display languages so the admin console
// can show the side matching its locale.
type saleValidationError struct {
	reason   string
	reasonAr string
}

func (e saleValidationError) Error() string  { return e.reason }
func (e saleValidationError) Arabic() string { return e.reasonAr }

func isProductOnSale(price float64, saleEnabled bool, salePrice float64) bool {
	return saleEnabled && salePrice > 0 && salePrice < price
}

func effectiveProductPrice(price float64, saleEnabled bool, salePrice float64) float64 {
	if isProductOnSale(price, saleEnabled, salePrice) {
		return salePrice
	}
	return price
}

func validateSaleFields(price float64, saleEnabled bool, salePrice float64, salePriceSet bool) error {
	if !saleEnabled {
		return nil
	}
	if !salePriceSet {
		return saleValidationError{
			reason:   "salePrice is required when saleEnabled is true",
			reasonAr: "سعر الخصم مطلوب عند تفعيل الخصم",
		}
	}
	if salePrice <= 0 {
		return saleValidationError{
			reason:   "salePrice must be greater than 0",
			reasonAr: "سعر الخصم يجب أن يكون أكبر من صفر",
		}
	}
	if salePrice >= price {
		return saleValidationError{
			reason:   "salePrice must be less than price",
			reasonAr: "سعر الخصم يجب أن يكون أقل من السعر الأصلي",
		}
	}
	return nil
}

// resolveSaleUpdate merges a partial sale-field update onto the stored
// values, validating the combination that would result.
func resolveSaleUpdate(existingPrice float64, existingSaleEnabled bool, existingSalePrice float64, input saleUpdateInput) (saleUpdateResult, error) {
	result := saleUpdateResult{
		Price:       existingPrice,
		SaleEnabled: existingSaleEnabled,
		SalePrice:   existingSalePrice,
	}

	if input.Price != nil {
		result.Price = *input.Price
	}

	salePriceSet := existingSalePrice > 0

	if input.SaleEnabled != nil {
		result.SaleEnabled = *input.SaleEnabled
		result.SetSaleEnabled = true
		if !*input.SaleEnabled {
			result.SalePrice = 0
			result.SetSalePrice = true
			salePriceSet = false
		}
	}

	if input.SalePrice != nil {
		result.SalePrice = *input.SalePrice
		result.SetSalePrice = true
		salePriceSet = true
	}

	if err := validateSaleFields(result.Price, result.SaleEnabled, result.SalePrice, salePriceSet); err != nil {
		return saleUpdateResult{}, err
	}

	return result, nil
}
