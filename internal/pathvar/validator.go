package pathvar

import (
	"workbench/internal/errors"
	"workbench/internal/log"
)

// Validator combines the name and value checks into a Result
type Validator struct {
	Names  NamePolicy
	Syntax PathSyntax
	Probe  ExistenceProbe
	Logger log.Logging
}

// NewValidator returns a validator backed by the default oracles
func NewValidator() *Validator {
	return &Validator{
		Names:  DefaultNamePolicy{},
		Syntax: OSPathSyntax{},
		Probe:  FSProbe{},
		Logger: log.Default(),
	}
}

type check struct {
	severity Severity
	message  string
	ok       bool
	kind     errors.ErrorKind
}

// Validate computes the result for draft within session. It never fails:
// every problem is reported through the Result.
func (v *Validator) Validate(session Session, draft Draft) Result {
	name := v.checkName(session, draft)
	value := v.checkValue(session, draft)

	// Ties go to the name check
	worst := name
	if value.severity > name.severity {
		worst = value
	}
	return Result{
		Severity:      worst.severity,
		Message:       worst.message,
		CommitEnabled: name.ok && value.ok,
		Kind:          worst.kind,
	}
}

func (v *Validator) checkName(session Session, draft Draft) check {
	standard := check{severity: None, message: session.StandardMessage()}

	if draft.Name == "" {
		if draft.NameTouched {
			return check{severity: Error, message: MessageNameEmpty, kind: errors.EmptyName}
		}
		return standard
	}
	if err := v.Names.ValidateName(draft.Name); err != nil {
		return check{severity: Error, message: err.Error(), kind: errors.NameSyntax}
	}
	if session.nameInUse(draft.Name) {
		return check{severity: Error, message: MessageNameInUse, kind: errors.NameInUse}
	}
	standard.ok = true
	return standard
}

func (v *Validator) checkValue(session Session, draft Draft) check {
	standard := check{severity: None, message: session.StandardMessage()}

	if draft.Value == "" {
		if draft.ValueTouched {
			return check{severity: Error, message: MessageValueEmpty, kind: errors.EmptyValue}
		}
		return standard
	}
	if !v.Syntax.IsValidPath(draft.Value) {
		return check{severity: Error, message: MessagePathSyntax, kind: errors.PathSyntax}
	}
	if !v.Syntax.IsAbsolute(draft.Value) {
		return check{severity: Error, message: MessagePathRelative, kind: errors.PathRelative}
	}

	exists, err := v.Probe.Exists(draft.Value)
	if err != nil {
		// An unanswerable probe is shown like a missing path
		v.logger().WithError(err).Warn("Existence probe failed")
	}
	if err != nil || !exists {
		return check{severity: Warning, message: MessagePathMissing, ok: true, kind: errors.PathMissing}
	}
	standard.ok = true
	return standard
}

func (v *Validator) logger() log.Logging {
	if v.Logger == nil {
		return log.Default()
	}
	return v.Logger
}
