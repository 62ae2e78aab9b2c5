package validation

import (
	"errors"

	validatorv10 "github.com/go-playground/validator/v10"
)

// New returns a validator with the struct-level rules shared by transport and application input.
func New() *validatorv10.Validate {
	v := validatorv10.New()
	v.RegisterStructValidation(scheduleDeliveryStructValidation, ScheduleDeliveryPayload{})
	return v
}

// ScheduleDeliveryPayload is the shape checked for scheduleDelivery requests.
type ScheduleDeliveryPayload struct {
	TruckIDs []int64 `validate:"required,min=1,dive,gt=0"`
}

// scheduleDeliveryStructValidation rejects requests naming the same truck twice.
func scheduleDeliveryStructValidation(sl validatorv10.StructLevel) {
	req := sl.Current().Interface().(ScheduleDeliveryPayload)
	seen := make(map[int64]struct{}, len(req.TruckIDs))
	for _, id := range req.TruckIDs {
		if _, dup := seen[id]; dup {
			sl.ReportError(req.TruckIDs, "TruckIDs", "TruckIDs", "unique_trucks", "")
			return
		}
		seen[id] = struct{}{}
	}
}

// Fields flattens validation errors into field -> message pairs.
func Fields(err error) map[string]string {
	out := map[string]string{}
	var ve validatorv10.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			out[fe.Field()] = fe.Error()
		}
		return out
	}
	if err != nil {
		out["error"] = err.Error()
	}
	return out
}
