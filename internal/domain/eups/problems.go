package eups

import (
	"fmt"
	"strings"

	"github.com/lsst/lsst/internal/domain/config"
)

// Problem is an inherited environment variable that would redirect EUPS.
type Problem struct {
	Name  string
	Value string
}

func (p Problem) String() string {
	return fmt.Sprintf("%s=%q", p.Name, p.Value)
}

// ProblemVariables returns the set variables that interfere with a fresh
// install. EUPS_PKGROOT is tolerated when preservePkgroot is set.
func ProblemVariables(lookup func(string) (string, bool), preservePkgroot bool) []Problem {
	names := []string{"EUPS_PATH", "EUPS_PKGROOT", "REPOSITORY_PATH"}

	var found []Problem
	for _, name := range names {
		if name == "EUPS_PKGROOT" && preservePkgroot {
			continue
		}
		if v, ok := lookup(name); ok {
			found = append(found, Problem{Name: name, Value: v})
		}
	}
	return found
}

// CheckProblemVariables fails when ProblemVariables finds anything.
func CheckProblemVariables(lookup func(string) (string, bool), preservePkgroot bool) error {
	problems := ProblemVariables(lookup, preservePkgroot)
	if len(problems) == 0 {
		return nil
	}

	var b strings.Builder
	b.WriteString("the following environment variables are defined that will affect the operation of the LSST build tooling:")
	names := make([]string, len(problems))
	for i, p := range problems {
		b.WriteString("\n  " + p.String())
		names[i] = p.Name
	}

	return config.NewUserError(config.ErrCodeProblemVariables, b.String()).
		WithSuggestion("Unset them before running this script: unset " + strings.Join(names, " "))
}
