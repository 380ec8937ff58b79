// Package filter translates AIP-160 list filters into user listing options.
//
// Supported fields are status ("active", "inactive", "any"), role
// ("learner") and phase (integer). Only equality joined by AND is accepted,
// for example:
//
//	status = "inactive" AND role = "learner" AND phase = 3
package filter

import (
	"fmt"
	"strings"

	"go.einride.tech/aip/filtering"
	expr "google.golang.org/genproto/googleapis/api/expr/v1alpha1"

	"github.com/learnersguild/backoffice/internal/services/backoffice/domain"
)

const (
	fieldStatus = "status"
	fieldRole   = "role"
	fieldPhase  = "phase"
)

// UserDeclarations returns the field declarations for user filtering.
func UserDeclarations() (*filtering.Declarations, error) {
	return filtering.NewDeclarations(
		filtering.DeclareStandardFunctions(),
		filtering.DeclareIdent(fieldStatus, filtering.TypeString),
		filtering.DeclareIdent(fieldRole, filtering.TypeString),
		filtering.DeclareIdent(fieldPhase, filtering.TypeInt),
	)
}

// Apply parses filterStr and layers its constraints onto opts. An empty
// filter returns opts unchanged.
func Apply(filterStr string, opts domain.Options) (domain.Options, error) {
	if strings.TrimSpace(filterStr) == "" {
		return opts, nil
	}

	decls, err := UserDeclarations()
	if err != nil {
		return opts, fmt.Errorf("create declarations: %w", err)
	}

	parsed, err := filtering.ParseFilterString(filterStr, decls)
	if err != nil {
		return opts, fmt.Errorf("parse filter: %w", err)
	}
	if parsed.CheckedExpr == nil {
		return opts, nil
	}

	result := opts
	if err := translateExpr(parsed.CheckedExpr.Expr, &result); err != nil {
		return opts, err
	}
	return result, nil
}

func translateExpr(e *expr.Expr, opts *domain.Options) error {
	if e == nil {
		return nil
	}

	switch kind := e.ExprKind.(type) {
	case *expr.Expr_CallExpr:
		return translateCall(kind.CallExpr, opts)
	default:
		return fmt.Errorf("unsupported expression type: %T", kind)
	}
}

func translateCall(call *expr.Expr_Call, opts *domain.Options) error {
	switch call.Function {
	case "_&&_", "AND":
		for _, arg := range call.Args {
			if err := translateExpr(arg, opts); err != nil {
				return err
			}
		}
		return nil
	case "_==_", "=":
		return translateEquals(call.Args, opts)
	default:
		return fmt.Errorf("unsupported function: %s", call.Function)
	}
}

func translateEquals(args []*expr.Expr, opts *domain.Options) error {
	if len(args) != 2 {
		return fmt.Errorf("comparison requires 2 arguments")
	}

	field, err := extractFieldName(args[0])
	if err != nil {
		return err
	}
	value, err := extractConstValue(args[1])
	if err != nil {
		return err
	}

	switch field {
	case fieldStatus:
		status, ok := value.(string)
		if !ok {
			return fmt.Errorf("status must be a string")
		}
		activity, err := parseStatus(status)
		if err != nil {
			return err
		}
		opts.Activity = activity
	case fieldRole:
		role, ok := value.(string)
		if !ok {
			return fmt.Errorf("role must be a string")
		}
		if strings.TrimSpace(role) != domain.RoleLearner {
			return fmt.Errorf("unsupported role: %s", role)
		}
		opts.Learners = domain.Bool(true)
	case fieldPhase:
		phase, ok := value.(int64)
		if !ok {
			return fmt.Errorf("phase must be an integer")
		}
		opts.Phase = domain.Int(int(phase))
	default:
		return fmt.Errorf("unknown field: %s", field)
	}
	return nil
}

func parseStatus(value string) (domain.Activity, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "active":
		return domain.ActivityActive, nil
	case "inactive":
		return domain.ActivityInactive, nil
	case "any", "all":
		return domain.ActivityAny, nil
	default:
		return domain.ActivityDefault, fmt.Errorf("unsupported status: %s", value)
	}
}

func extractFieldName(e *expr.Expr) (string, error) {
	if e == nil {
		return "", fmt.Errorf("nil expression")
	}

	switch kind := e.ExprKind.(type) {
	case *expr.Expr_IdentExpr:
		return kind.IdentExpr.Name, nil
	default:
		return "", fmt.Errorf("expected identifier, got %T", kind)
	}
}

func extractConstValue(e *expr.Expr) (any, error) {
	if e == nil {
		return nil, fmt.Errorf("nil expression")
	}
	constExpr, ok := e.ExprKind.(*expr.Expr_ConstExpr)
	if !ok || constExpr.ConstExpr == nil {
		return nil, fmt.Errorf("expected constant, got %T", e.ExprKind)
	}

	switch kind := constExpr.ConstExpr.ConstantKind.(type) {
	case *expr.Constant_StringValue:
		return kind.StringValue, nil
	case *expr.Constant_Int64Value:
		return kind.Int64Value, nil
	default:
		return nil, fmt.Errorf("unsupported constant type: %T", kind)
	}
}
