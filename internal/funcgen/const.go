package funcgen

const (
	funcgenPkgPath = "github.com/mazrean/funcgen"
	diPkgPath      = "github.com/mazrean/funcgen/di"

	defaultMarkerType   = "Function"
	defaultTagKey       = "funcgen"
	defaultNamespaceArg = "servicePackage"
	defaultQueueArg     = "queue"

	defaultToken          = "Function"
	defaultSuffix         = "Service"
	defaultContractPrefix = "I"
	defaultQueue          = "myqueue-items"

	registrationName     = "DependencyInjection"
	defaultRegistration  = "registration"
	defaultRegisterFunc  = "AddSourceGenDI"
	generatedHeader      = "// Code generated by funcgen. DO NOT EDIT."
	generatedFileSuffix  = ".g.go"
	artifactKeySuffix    = ".g"
	minGoVersion         = "1.21"
	defaultRenderWorkers = 8
)

var goReservedKeywords = map[string]bool{
	"break": true, "default": true, "func": true, "interface": true, "select": true,
	"case": true, "defer": true, "go": true, "map": true, "struct": true,
	"chan": true, "else": true, "goto": true, "package": true, "switch": true,
	"const": true, "fallthrough": true, "if": true, "range": true, "type": true,
	"continue": true, "for": true, "import": true, "return": true, "var": true,
}
