package telemetry

import (
	"go.opentelemetry.io/otel/attribute"

	"github.com/anoideaopen/dataportal/core/operation"
)

// Attribute keys recorded on data portal spans.
const (
	OperationKey = attribute.Key("dataportal.operation")
	TypeKey      = attribute.Key("dataportal.type")
	MethodKey    = attribute.Key("dataportal.method")
	CriteriaKey  = attribute.Key("dataportal.criteria")
	CallIDKey    = attribute.Key("dataportal.call_id")
	FactoryKey   = attribute.Key("dataportal.factory")
)

// Operation returns the operation kind attribute.
func Operation(k operation.Kind) attribute.KeyValue {
	return OperationKey.String(k.String())
}

// Type returns the target type attribute.
func Type(name string) attribute.KeyValue {
	return TypeKey.String(name)
}

// Method returns the resolved method attribute.
func Method(signature string) attribute.KeyValue {
	return MethodKey.String(signature)
}

// Criteria returns the criteria length attribute.
func Criteria(n int) attribute.KeyValue {
	return CriteriaKey.Int(n)
}

// CallID returns the dispatch call id attribute.
func CallID(id string) attribute.KeyValue {
	return CallIDKey.String(id)
}

// Factory returns the attribute telling whether a factory handled the call.
func Factory(b bool) attribute.KeyValue {
	return FactoryKey.Bool(b)
}
