package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	err := New("test error")
	assert.NotNil(t, err)
	assert.Equal(t, "test error", err.Error())

	err = Newf("formatted %s", "error")
	assert.NotNil(t, err)
	assert.Equal(t, "formatted error", err.Error())

	// Check that the error is an ApplicationError
	var appErr *ApplicationError
	assert.True(t, As(err, &appErr))
	assert.Equal(t, "formatted error", appErr.Error())
	assert.Equal(t, Unknown, appErr.Kind())
}

func TestWrapping(t *testing.T) {
	origErr := New("original error")
	wrappedErr := Wrap(origErr, "wrapped")
	assert.NotNil(t, wrappedErr)
	assert.Equal(t, "wrapped: original error", wrappedErr.Error())

	unwrappedErr := Unwrap(wrappedErr)
	assert.Equal(t, origErr, unwrappedErr)

	wrappedFormatted := Wrapf(origErr, "formatted %s", "wrapper")
	assert.Equal(t, "formatted wrapper: original error", wrappedFormatted.Error())

	// Wrapping nil returns nil
	assert.Nil(t, Wrap(nil, "wrapper"))
	assert.Nil(t, Wrapf(nil, "formatted %s", "wrapper"))

	deepWrapped := Wrap(wrappedErr, "deeper")
	assert.Equal(t, "deeper: wrapped: original error", deepWrapped.Error())
	assert.True(t, Is(wrappedErr, origErr))
	assert.True(t, Is(deepWrapped, origErr))
}

func TestFileError(t *testing.T) {
	fileErr := NewFileError("cannot access", "/path/to/file", FileAccessDenied, nil)
	assert.Equal(t, "cannot access: /path/to/file", fileErr.Error())
	assert.Equal(t, "/path/to/file", fileErr.Path())
	assert.Equal(t, FileAccessDenied, fileErr.Kind())

	origErr := fmt.Errorf("permission denied")
	fileErr = NewFileError("cannot access", "/path/to/file", FileAccessDenied, origErr)
	assert.Equal(t, "cannot access: /path/to/file: permission denied", fileErr.Error())
	assert.Equal(t, origErr, Unwrap(fileErr))

	assert.Equal(t, "file not found", ErrFileNotFound.Error())
	notFoundErr := NewFileError("file not found", "/missing/file", FileNotFound, nil)
	assert.True(t, IsFileNotFound(notFoundErr))
	assert.False(t, IsFileNotFound(fileErr))
}

func TestConfigError(t *testing.T) {
	configErr := NewConfigError("invalid value", "timeout", InvalidConfig, nil)
	assert.Equal(t, "invalid value: timeout", configErr.Error())
	assert.Equal(t, "timeout", configErr.Param())

	origErr := fmt.Errorf("value out of range")
	configErr = NewConfigError("invalid value", "timeout", InvalidConfig, origErr)
	assert.Equal(t, "invalid value: timeout: value out of range", configErr.Error())
	assert.Equal(t, origErr, Unwrap(configErr))

	assert.True(t, IsInvalidConfig(configErr))
	assert.False(t, IsInvalidConfig(New("some other error")))
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("a variable with this name already exists", "name", NameInUse)
	assert.Equal(t, "a variable with this name already exists", err.Error())
	assert.Equal(t, "name", err.Field())
	assert.Equal(t, NameInUse, err.Kind())
	assert.False(t, IsNotReady(err))

	notReady := NewValidationError("not ready", "", NotReady)
	assert.True(t, IsNotReady(notReady))
	assert.True(t, Is(notReady, ErrNotReady), "validation errors match by kind")
	assert.True(t, Is(fmt.Errorf("commit: %w", notReady), ErrNotReady))
	assert.False(t, Is(err, ErrNotReady))
}

func TestHandlerError(t *testing.T) {
	cause := errors.New("class not registered")
	err := NewHandlerError("the proxied handler could not be loaded", "file.save", HandlerLoadFailed, cause)
	assert.Equal(t, "the proxied handler could not be loaded: file.save: class not registered", err.Error())
	assert.Equal(t, "file.save", err.CommandID())
	assert.True(t, IsHandlerLoad(err))
	assert.True(t, Is(err, cause))
	assert.False(t, IsHandlerLoad(New("other")))
}

func TestContextError(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		err := NewContextError("")
		assert.Equal(t, "", err.Error())
		assert.Nil(t, err.Cause())
		assert.Equal(t, ContextFailure, err.Kind())
	})

	t.Run("message only", func(t *testing.T) {
		err := NewContextError("context is not active")
		assert.Equal(t, "context is not active", err.Error())
		assert.True(t, IsContextError(err))
	})

	t.Run("cause only", func(t *testing.T) {
		cause := errors.New("boom")
		err := WrapContextError(cause, "")
		assert.Equal(t, "boom", err.Error())
		assert.Equal(t, cause, err.Cause())
	})

	t.Run("message and cause", func(t *testing.T) {
		cause := errors.New("boom")
		err := WrapContextError(cause, "activation failed")
		assert.Equal(t, "activation failed: boom", err.Error())
		assert.True(t, Is(err, cause))
	})

	t.Run("not defined", func(t *testing.T) {
		err := NewNotDefinedError("no handler for edit.copy")
		assert.True(t, IsNotDefined(err))
		assert.True(t, IsNotDefined(Wrap(err, "execute")))
		assert.False(t, IsNotDefined(NewContextError("x")))
	})
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, Unknown, KindOf(errors.New("plain")))
	assert.Equal(t, PathMissing, KindOf(NewValidationError("path does not exist", "value", PathMissing)))
	assert.Equal(t, InvalidConfig, KindOf(Wrap(NewConfigError("bad", "x", InvalidConfig, nil), "load")))
	assert.Equal(t, "name_in_use", NameInUse.String())
	assert.Equal(t, "kind(999)", ErrorKind(999).String())
}

func TestErrorChains(t *testing.T) {
	baseErr := errors.New("base error")
	fileErr := NewFileError("file error", "/path/to/file", FileNotFound, baseErr)
	configErr := NewConfigError("config error", "variables.file", InvalidConfig, fileErr)

	assert.Equal(t, "config error: variables.file: file error: /path/to/file: base error", configErr.Error())
	assert.True(t, Is(configErr, baseErr))
	assert.True(t, Is(configErr, fileErr))

	var fe *FileError
	assert.True(t, As(configErr, &fe))
	assert.Equal(t, "/path/to/file", fe.Path())
	assert.True(t, IsFileNotFound(configErr))
	assert.True(t, IsInvalidConfig(configErr))
}
