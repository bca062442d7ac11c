package usecase_test

import (
	"errors"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/actiontracker/pkg/usecase"
)

func TestErrors_ErrorsAreDistinct(t *testing.T) {
	sentinels := []error{
		usecase.ErrValidation,
		usecase.ErrUnauthenticated,
		usecase.ErrForbidden,
		usecase.ErrActionNotFound,
		usecase.ErrConflict,
		usecase.ErrUnavailable,
		usecase.ErrStorageUnavailable,
		usecase.ErrStorage,
	}

	for i, a := range sentinels {
		for j, b := range sentinels {
			if i == j {
				continue
			}
			gt.Bool(t, errors.Is(a, b)).Describef("%v vs %v", a, b).False()
		}
	}
}
