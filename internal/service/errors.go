package service

import (
	stderrors "errors"

	"BusTicketPlatform/internal/repository"
	"BusTicketPlatform/pkg/errors"
)

// lookupError переводит ошибку чтения из хранилища в ошибку сервиса:
// отсутствие записи становится ErrNotFound, любой другой отказ
// хранилища — ErrInternal.
func lookupError(err error, notFoundMsg string) error {
	if stderrors.Is(err, repository.ErrNotFound) {
		return errors.Wrap(err, errors.ErrNotFound, notFoundMsg)
	}
	return errors.Wrap(err, errors.ErrInternal, "internal error")
}
