package regtext

const (
	// Header5 opens a Unicode export from regedit.
	Header5 = "Windows Registry Editor Version 5.00"
	// Header4 opens an ANSI export from older regedit versions.
	Header4 = "REGEDIT4"

	keyOpenBracket     = "["
	keyCloseBracket    = "]"
	deleteKeyPrefix    = "-"
	defaultValuePrefix = "@"
	commentPrefix      = ";"
	deleteValueToken   = "-"
	continuation       = `\`

	quote = `"`

	dwordPrefix = "dword:"
	hexPrefix   = "hex"

	dwordHexLength = 8
)
