package vcenter

import (
	"errors"
	"reflect"

	"github.com/vmware/govmomi/task"
	"github.com/vmware/govmomi/vim25/soap"
	"github.com/vmware/govmomi/vim25/types"
)

// remoteFault digs the VIM fault out of an error returned by govmomi.
// Task failures carry it in task.Error; synchronous calls surface it as
// a VIM or SOAP fault.
func remoteFault(err error) types.BaseMethodFault {
	if err == nil {
		return nil
	}
	var terr task.Error
	if errors.As(err, &terr) {
		return terr.Fault()
	}
	if soap.IsVimFault(err) {
		return soap.ToVimFault(err)
	}
	if soap.IsSoapFault(err) {
		// VimFault() yields the fault by value; re-box it behind a pointer
		// so the generated Base* interfaces apply.
		return faultPointer(soap.ToSoapFault(err).VimFault())
	}
	return nil
}

func faultPointer(f any) types.BaseMethodFault {
	if f == nil {
		return nil
	}
	if bm, ok := f.(types.BaseMethodFault); ok {
		return bm
	}
	v := reflect.New(reflect.TypeOf(f))
	v.Elem().Set(reflect.ValueOf(f))
	if bm, ok := v.Interface().(types.BaseMethodFault); ok {
		return bm
	}
	return nil
}

// faultIs reports whether f is of want's kind or a subtype of it. The
// generated fault structs embed their VIM base classes, so walking
// embedded fields mirrors the server-side fault hierarchy: a tolerated
// RuntimeFault entry matches every runtime fault, an InvalidState entry
// matches InvalidPowerState, and so on.
func faultIs(f, want types.BaseMethodFault) bool {
	if f == nil || want == nil {
		return false
	}
	return embedsType(structType(f), structType(want))
}

func structType(f types.BaseMethodFault) reflect.Type {
	t := reflect.TypeOf(f)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

func embedsType(t, target reflect.Type) bool {
	if t == target {
		return true
	}
	if t.Kind() != reflect.Struct {
		return false
	}
	for i := 0; i < t.NumField(); i++ {
		if f := t.Field(i); f.Anonymous && embedsType(f.Type, target) {
			return true
		}
	}
	return false
}

// toleratedFault classifies an error against a tolerated-fault set,
// returning the extracted fault when it is downgradable.
func toleratedFault(err error, tolerated []types.BaseMethodFault) (types.BaseMethodFault, bool) {
	f := remoteFault(err)
	if f == nil {
		return nil, false
	}
	for _, want := range tolerated {
		if faultIs(f, want) {
			return f, true
		}
	}
	return f, false
}

// faultName returns the VIM type name of a fault for log output.
func faultName(f types.BaseMethodFault) string {
	if f == nil {
		return ""
	}
	return structType(f).Name()
}
