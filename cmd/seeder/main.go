package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cybercrush-seeder/internal/adapters/repo"
	"cybercrush-seeder/internal/domain"
)

// Коды завершения процесса.
const (
	exitOK            = 0
	exitFailure       = 1
	exitUsage         = 2
	exitInvalidInput  = 3
	exitDatabase      = 4
	exitRunInProgress = 5
)

// usageError - ошибка аргументов или чтения фикстур.
type usageError struct{ err error }

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "seeder:", describe(err))
		os.Exit(exitCode(err))
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "seeder",
		Short:         "Загрузка JSON-фикстур в базу CyberCrush",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err: err}
	})
	root.AddCommand(newLoadCmd(), newReportsCmd())
	return root
}

func exitCode(err error) int {
	var (
		usageErr *usageError
		cfgErr   *domain.ConfigurationError
		valErr   *domain.ValidationError
		refErr   *domain.ReferenceError
		capErr   *domain.CapacityError
		dbErr    *domain.DatabaseError
	)
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, domain.ErrRunInProgress):
		return exitRunInProgress
	case errors.As(err, &dbErr):
		return exitDatabase
	case errors.As(err, &valErr), errors.As(err, &refErr), errors.As(err, &capErr):
		return exitInvalidInput
	case errors.As(err, &cfgErr), errors.As(err, &usageErr), errors.Is(err, domain.ErrUsersFixtureRequired):
		return exitUsage
	default:
		return exitFailure
	}
}

func describe(err error) string {
	var dbErr *domain.DatabaseError
	if repo.IsUniqueViolation(err) && errors.As(err, &dbErr) {
		return fmt.Sprintf("%v (повторяющееся значение, ограничение %s)", err, dbErr.Constraint)
	}
	return err.Error()
}
