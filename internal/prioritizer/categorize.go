package prioritizer

import (
	"strings"

	"github.com/cmccoy02/bridge-engine/domain"
)

// Fixed membership sets for package categorization. Anything that matches
// none of them is a utility package.
var coreFrameworks = map[string]bool{
	"react":         true,
	"react-dom":     true,
	"next":          true,
	"vue":           true,
	"nuxt":          true,
	"svelte":        true,
	"@angular/core": true,
	"angular":       true,
	"express":       true,
	"fastify":       true,
}

var buildTools = map[string]bool{
	"webpack":     true,
	"vite":        true,
	"rollup":      true,
	"esbuild":     true,
	"parcel":      true,
	"@babel/core": true,
	"babel":       true,
	"typescript":  true,
	"gulp":        true,
	"grunt":       true,
}

var testingTools = map[string]bool{
	"jest":                        true,
	"mocha":                       true,
	"vitest":                      true,
	"cypress":                     true,
	"playwright":                  true,
	"jasmine":                     true,
	"karma":                       true,
	"chai":                        true,
	"@testing-library/react":      true,
	"@testing-library/jest-dom":   true,
	"@testing-library/user-event": true,
}

const typeDefinitionsPrefix = "@types/"

// Categorize classifies a package name into one of the five fixed
// categories. Deterministic and total: unknown names are utilities.
func Categorize(name string) domain.PackageCategory {
	switch {
	case strings.HasPrefix(name, typeDefinitionsPrefix):
		return domain.CategoryTypeDefinitions
	case coreFrameworks[name]:
		return domain.CategoryCoreFramework
	case buildTools[name]:
		return domain.CategoryBuildTool
	case testingTools[name]:
		return domain.CategoryTesting
	default:
		return domain.CategoryUtility
	}
}
