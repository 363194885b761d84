package store

import (
	"fmt"

	"github.com/park285/guesswho/internal/domain"
)

func checkField(field domain.ResultField) error {
	switch field {
	case domain.FieldGuesser, domain.FieldAssigned:
		return nil
	default:
		return fmt.Errorf("unknown result field %q", field)
	}
}
