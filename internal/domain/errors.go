package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidDomain = errors.New("invalid domain")
	ErrEmptyValue    = errors.New("empty value")
	ErrRequired      = errors.New("required field missing")
	ErrDuplicate     = errors.New("duplicate value")

	ErrConfigReadFailed   = errors.New("config read failed")
	ErrConfigParseFailed  = errors.New("config parse failed")
	ErrConfigValidateFail = errors.New("config validation failed")
	ErrConfigNotFound     = errors.New("config not found")
	ErrConfigExists       = errors.New("config already exists")

	ErrCredentialFile = errors.New("credential file error")
	ErrMissingSecret  = errors.New("secret not available")
	ErrAlreadyRunning = errors.New("another run holds the lock")
	ErrLockFailed     = errors.New("run lock unavailable")

	ErrCommandFailed    = errors.New("external command failed")
	ErrCertObtainFailed = errors.New("certificate obtain failed")
	ErrCertRenewFailed  = errors.New("certificate renew failed")
	ErrCertInvalid      = errors.New("certificate invalid")
	ErrCertNotFound     = errors.New("certificate not found")

	ErrBackupFailed = errors.New("backup failed")
	ErrCopyFailed   = errors.New("copy failed")
	ErrUploadFailed = errors.New("upload failed")

	ErrZoneNotFound = errors.New("DNS zone not found")
	ErrDNSError     = errors.New("DNS operation failed")
)

func RequiredField(field string) error {
	return fmt.Errorf("%w: %s", ErrRequired, field)
}

func WrapOp(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}

func WrapEntity(entity, name string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s[%s]: %w", entity, name, err)
}
