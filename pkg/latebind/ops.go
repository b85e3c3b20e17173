package latebind

import (
	"github.com/funvibe/latebind/pkg/dyn"
)

// One-shot helpers for callers without a stable call location. Each
// performs a single uncached dispatch; hot paths should hold a Site
// instead.

func (e *Engine) GetMember(recv interface{}, name string) (interface{}, error) {
	op, err := dyn.GetMember(name)
	if err != nil {
		return nil, err
	}
	return e.NewSite(op).Execute(recv)
}

func (e *Engine) SetMember(recv interface{}, name string, value interface{}) error {
	op, err := dyn.SetMember(name)
	if err != nil {
		return err
	}
	_, err = e.NewSite(op).Execute(recv, value)
	return err
}

func (e *Engine) InvokeMember(recv interface{}, name string, args ...interface{}) (interface{}, error) {
	op, err := dyn.InvokeMember(name, len(args))
	if err != nil {
		return nil, err
	}
	operands := append([]interface{}{recv}, args...)
	return e.NewSite(op).Execute(operands...)
}

func (e *Engine) Invoke(target interface{}, args ...interface{}) (interface{}, error) {
	op, err := dyn.Invoke(len(args))
	if err != nil {
		return nil, err
	}
	operands := append([]interface{}{target}, args...)
	return e.NewSite(op).Execute(operands...)
}

func (e *Engine) Convert(value interface{}, target dyn.Shape) (interface{}, error) {
	return e.NewSite(dyn.Convert(target)).Execute(value)
}

func (e *Engine) BinaryOp(left interface{}, operator string, right interface{}) (interface{}, error) {
	op, err := dyn.BinaryOp(operator)
	if err != nil {
		return nil, err
	}
	return e.NewSite(op).Execute(left, right)
}
