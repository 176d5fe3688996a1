package orchestrator

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"
	log "github.com/sirupsen/logrus"
)

var templateVar = regexp.MustCompile(`\{\{(\w+)\}\}`)

// strictEquality maps the strict comparison spellings found in playlists
// onto the expression language's operators.
var strictEquality = strings.NewReplacer("===", "==", "!==", "!=")

// numberEnv names the values a stored number can hold that have no
// literal spelling in the expression language.
var numberEnv = map[string]any{
	"Infinity": math.Inf(1),
	"NaN":      math.NaN(),
}

// literal renders a stored value for substitution. Numbers outside the
// int64 range become float literals and non-finite numbers become
// Infinity or NaN. Anything else is substituted as stored.
func literal(val string) string {
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return val
	}
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "(-Infinity)"
	}
	if _, err := strconv.ParseInt(val, 10, 64); err == nil {
		return val
	}
	if strings.ContainsAny(val, ".eE") && !strings.ContainsAny(val, "xX_") {
		return val
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

// Evaluate substitutes {{name}} tokens with stored values and evaluates
// the result as a boolean expression. Undefined variables, compile or
// runtime errors and non-boolean results all evaluate to false.
func (v *Variables) Evaluate(condition string) bool {
	var missing []string
	substituted := templateVar.ReplaceAllStringFunc(condition, func(token string) string {
		name := templateVar.FindStringSubmatch(token)[1]
		val, ok := v.values[name]
		if !ok {
			missing = append(missing, name)
			return token
		}
		return literal(val)
	})
	if len(missing) > 0 {
		log.WithFields(log.Fields{
			"condition": condition,
			"undefined": missing,
		}).Warn("condition references undefined variables")
		return false
	}

	source := strictEquality.Replace(substituted)
	program, ok := v.programs[source]
	if !ok {
		var err error
		program, err = expr.Compile(source, expr.Env(numberEnv), expr.DisableAllBuiltins())
		if err != nil {
			log.WithFields(log.Fields{"condition": condition, "error": err}).Warn("condition does not compile")
			return false
		}
		v.programs[source] = program
	}

	out, err := expr.Run(program, numberEnv)
	if err != nil {
		log.WithFields(log.Fields{"condition": condition, "error": err}).Warn("condition failed")
		return false
	}
	result, ok := out.(bool)
	return ok && result
}
