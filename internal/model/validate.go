package model

import (
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/fluxsocial/socialdna/internal/errs"
)

// MaxFieldLength bounds every opaque identifier accepted from callers.
const MaxFieldLength = 256

const identifierRule = "required,max=256,printascii"

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// ValidateStruct checks struct tags on a model value and reports violations
// as InvalidArgument.
func ValidateStruct(op string, v any) error {
	if err := validatorInstance().Struct(v); err != nil {
		return errs.Wrap(errs.InvalidArgument, op, describe(err))
	}
	return nil
}

// ValidateIdentity rejects empty, oversized or non-printable identities.
func ValidateIdentity(op string, id Identity) error {
	if err := validatorInstance().Var(string(id), identifierRule); err != nil {
		return errs.Newf(errs.InvalidArgument, op, "malformed identity %q", id)
	}
	return nil
}

// ValidatePartition rejects empty, oversized or non-printable partition ids.
func ValidatePartition(op string, p PartitionID) error {
	if err := validatorInstance().Var(string(p), identifierRule); err != nil {
		return errs.Newf(errs.InvalidArgument, op, "malformed partition id %q", p)
	}
	return nil
}

// ValidateRef checks both halves of a GlobalEntryRef.
func ValidateRef(op string, r GlobalEntryRef) error {
	if err := validatorInstance().Struct(r); err != nil {
		return errs.Newf(errs.InvalidArgument, op, "malformed reference %s", r)
	}
	return nil
}

// ValidateRelation wraps Relation.Validate as InvalidArgument.
func ValidateRelation(op string, r Relation) error {
	if err := r.Validate(); err != nil {
		return errs.Wrap(errs.InvalidArgument, op, err)
	}
	return nil
}

// describe flattens validator field errors into one readable error.
func describe(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	if len(verrs) == 1 {
		return fmt.Errorf("field %s fails %q", fe.Namespace(), fe.Tag())
	}
	return fmt.Errorf("field %s fails %q (and %d more)", fe.Namespace(), fe.Tag(), len(verrs)-1)
}
