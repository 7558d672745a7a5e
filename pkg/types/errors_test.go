package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_MessageAndUnwrap(t *testing.T) {
	cause := errors.New("access denied")
	err := &Error{Kind: ErrKindLaunchFailed, Msg: "spawn notepad.exe", Err: cause}

	assert.Equal(t, "spawn notepad.exe: access denied", err.Error())
	assert.ErrorIs(t, err, cause)

	var nilErr *Error
	assert.Equal(t, "<nil>", nilErr.Error())
}

func TestError_IsMatchesKind(t *testing.T) {
	err := fmt.Errorf("launch: %w", &Error{Kind: ErrKindNoVerbs, Msg: "The app ‘x’ has no verbs"})

	require.ErrorIs(t, err, ErrNoVerbs)
	assert.NotErrorIs(t, err, ErrLaunchFailed)

	var te *Error
	require.ErrorAs(t, err, &te)
	assert.Equal(t, ErrKindNoVerbs, te.Kind)
}

func TestErrKind_String(t *testing.T) {
	assert.Equal(t, "not-found", ErrKindNotFound.String())
	assert.Equal(t, "activation-failed", ErrKindActivationFailed.String())
	assert.Equal(t, "unknown", ErrKind(99).String())
}
