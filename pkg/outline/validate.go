package outline

import "fmt"

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string { return e.Field + ": " + e.Message }

type Result struct {
	IsValid bool         `json:"isValid"`
	Errors  []FieldError `json:"errors"`
}

// Check wraps Validate in the response shape used by the API.
func Check(o *Outline) Result {
	errs := Validate(o)
	if errs == nil {
		errs = []FieldError{}
	}
	return Result{IsValid: len(errs) == 0, Errors: errs}
}

// Validate reports every invariant violation in o. It never modifies o.
func Validate(o *Outline) []FieldError {
	if o == nil || len(o.Sections) == 0 {
		return []FieldError{{Field: "sections", Message: "outline must contain at least one section"}}
	}
	var errs []FieldError
	n := len(o.Sections)
	ids := map[string]int{}
	positions := map[int]int{}

	for i, s := range o.Sections {
		at := fmt.Sprintf("sections[%d]", i)

		switch prev, seen := ids[s.ID]; {
		case s.ID == "":
			errs = append(errs, FieldError{at + ".id", "id is required"})
		case seen:
			errs = append(errs, FieldError{at + ".id", fmt.Sprintf("duplicate id %q (also sections[%d])", s.ID, prev)})
		default:
			ids[s.ID] = i
		}

		if s.Position < 1 || s.Position > n {
			errs = append(errs, FieldError{at + ".position", fmt.Sprintf("position %d outside 1..%d", s.Position, n)})
		} else if prev, seen := positions[s.Position]; seen {
			errs = append(errs, FieldError{at + ".position", fmt.Sprintf("duplicate position %d (also sections[%d])", s.Position, prev)})
		} else {
			positions[s.Position] = i
		}

		if s.Duration <= 0 {
			errs = append(errs, FieldError{at + ".duration", "duration must be greater than 0"})
		}

		ti, ok := Lookup(s.Type)
		if !ok {
			errs = append(errs, FieldError{at + ".type", fmt.Sprintf("unknown section type %q", s.Type)})
			continue
		}
		present := s.Present()
		for _, f := range ti.Required {
			// duration has its own message above
			if f == "duration" || present[f] {
				continue
			}
			errs = append(errs, FieldError{at + "." + f, fmt.Sprintf("%s is required for %s sections", f, s.Type)})
		}
	}

	if sum := o.Sum(); o.TotalDuration != sum {
		errs = append(errs, FieldError{"totalDuration", fmt.Sprintf("totalDuration %d does not equal section sum %d", o.TotalDuration, sum)})
	}
	return errs
}
