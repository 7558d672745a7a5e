package cmdline

import (
	"strings"

	"github.com/kballard/go-shellquote"

	"github.com/joshuapare/assockit/pkg/types"
)

// Argv splits an expanded command line into arguments. Backslashes are
// first turned into forward slashes because the shell-style splitter
// treats them as escapes; Windows accepts either separator.
func Argv(expanded string) ([]string, error) {
	line := strings.ReplaceAll(expanded, `\`, "/")
	argv, err := shellquote.Split(line)
	if err != nil {
		return nil, &types.Error{Kind: types.ErrKindInvalidArgument, Msg: "cannot parse command line " + Quote(line), Err: err}
	}
	if len(argv) == 0 {
		return nil, &types.Error{Kind: types.ErrKindInvalidArgument, Msg: "empty command line"}
	}
	return argv, nil
}
