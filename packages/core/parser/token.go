package parser

type TokenKind int

const (
	TokenFlag TokenKind = iota
	TokenPositional
	TokenComment
)

func (k TokenKind) String() string {
	switch k {
	case TokenFlag:
		return "flag"
	case TokenPositional:
		return "positional"
	case TokenComment:
		return "comment"
	default:
		return "unknown"
	}
}

// Token is one element of a tokenized curl command. For flags Name holds the
// flag as written ("-H", "--header") and Value its argument when HasValue is
// set. Positional arguments and comments only use Value.
type Token struct {
	Kind     TokenKind
	Name     string
	Value    string
	HasValue bool
	Pos      int

	flag flagID
	raw  []span
}

// Supported reports whether the token is a flag the builder acts on.
func (t Token) Supported() bool {
	return t.Kind == TokenFlag && t.flag != flagIgnored
}

type flagID int

const (
	flagIgnored flagID = iota
	flagRequest
	flagHeader
	flagData
	flagUser
	flagLocation
	flagInsecure
	flagUserAgent
	flagReferer
	flagCookie
	flagURL
)

type flagDef struct {
	id         flagID
	takesValue bool
}

var longFlags = map[string]flagDef{
	"request":     {id: flagRequest, takesValue: true},
	"header":      {id: flagHeader, takesValue: true},
	"data":        {id: flagData, takesValue: true},
	"data-raw":    {id: flagData, takesValue: true},
	"data-ascii":  {id: flagData, takesValue: true},
	"data-binary": {id: flagData, takesValue: true},
	"user":        {id: flagUser, takesValue: true},
	"location":    {id: flagLocation},
	"insecure":    {id: flagInsecure},
	"insecive":    {id: flagInsecure},
	"user-agent":  {id: flagUserAgent, takesValue: true},
	"referer":     {id: flagReferer, takesValue: true},
	"cookie":      {id: flagCookie, takesValue: true},
	"url":         {id: flagURL, takesValue: true},
}

var shortFlags = map[byte]flagDef{
	'X': {id: flagRequest, takesValue: true},
	'H': {id: flagHeader, takesValue: true},
	'd': {id: flagData, takesValue: true},
	'u': {id: flagUser, takesValue: true},
	'L': {id: flagLocation},
	'k': {id: flagInsecure},
	'A': {id: flagUserAgent, takesValue: true},
	'e': {id: flagReferer, takesValue: true},
	'b': {id: flagCookie, takesValue: true},
}

// Unsupported curl options that take an argument. They are skipped together
// with their argument so the argument is never read as the URL.
var ignoredLongValueFlags = map[string]bool{
	"output":          true,
	"max-time":        true,
	"connect-timeout": true,
	"proxy":           true,
	"proxy-user":      true,
	"cacert":          true,
	"capath":          true,
	"cert":            true,
	"cert-type":       true,
	"key":             true,
	"max-redirs":      true,
	"retry":           true,
	"retry-delay":     true,
	"retry-max-time":  true,
	"dump-header":     true,
	"stderr":          true,
	"trace":           true,
	"trace-ascii":     true,
	"resolve":         true,
	"connect-to":      true,
	"interface":       true,
	"dns-servers":     true,
	"write-out":       true,
	"config":          true,
	"form":            true,
	"form-string":     true,
	"upload-file":     true,
	"data-urlencode":  true,
	"json":            true,
	"cookie-jar":      true,
	"range":           true,
	"limit-rate":      true,
	"oauth2-bearer":   true,
	"aws-sigv4":       true,
	"continue-at":     true,
	"quote":           true,
	"telnet-option":   true,
	"ftp-port":        true,
	"header-file":     true,
}

var ignoredShortValueFlags = map[byte]bool{
	'o': true,
	'm': true,
	'x': true,
	'U': true,
	'E': true,
	'D': true,
	'w': true,
	'K': true,
	'F': true,
	'T': true,
	'r': true,
	'c': true,
	'Y': true,
	'y': true,
	'z': true,
	'C': true,
	'Q': true,
	't': true,
	'P': true,
}

func lookupLong(name string) flagDef {
	if def, ok := longFlags[name]; ok {
		return def
	}
	return flagDef{id: flagIgnored, takesValue: ignoredLongValueFlags[name]}
}

func lookupShort(c byte) flagDef {
	if def, ok := shortFlags[c]; ok {
		return def
	}
	return flagDef{id: flagIgnored, takesValue: ignoredShortValueFlags[c]}
}
