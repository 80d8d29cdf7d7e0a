package validation

import (
	"fmt"
	"reflect"
	"strings"

	validatorv10 "github.com/go-playground/validator/v10"
)

// New returns a configured validator. Quantities above maxQuantity are rejected on
// CreateOrderRequest; maxQuantity <= 0 leaves only the lower bound.
func New(maxQuantity int) *validatorv10.Validate {
	v := validatorv10.New()
	// report fields by their JSON names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterStructValidation(createOrderStructValidation(maxQuantity), CreateOrderRequest{})
	return v
}

func createOrderStructValidation(maxQuantity int) validatorv10.StructLevelFunc {
	return func(sl validatorv10.StructLevel) {
		req := sl.Current().Interface().(CreateOrderRequest)
		if maxQuantity > 0 && req.Quantity > maxQuantity {
			sl.ReportError(req.Quantity, "quantity", "Quantity", "max_quantity", fmt.Sprintf("%d", maxQuantity))
		}
	}
}
