package service

import (
	"errors"
	"fmt"

	"gmrstock/internal/apierror"
)

var (
	ErrLoteNoEncontrado    = errors.New("lote no encontrado")
	ErrComandaNoEncontrada = errors.New("comanda no encontrada")
)

func loteNoEncontrado(numero string) error {
	return apierror.Wrap(apierror.CodeNotFound, ErrLoteNoEncontrado, fmt.Sprintf("lote %s no encontrado", numero))
}

func comandaNoEncontrada(id string) error {
	return apierror.Wrap(apierror.CodeNotFound, ErrComandaNoEncontrada, fmt.Sprintf("comanda %s no encontrada", id))
}

func validacion(err error, msg string) error {
	return apierror.Wrap(apierror.CodeValidation, err, msg)
}

func conflicto(msg string) error {
	return apierror.NewError(apierror.CodeConflict, msg)
}

// dependencia marks a store failure that left nothing written.
func dependencia(err error, paso string) error {
	return apierror.Wrap(apierror.CodeDependency, err, paso)
}
