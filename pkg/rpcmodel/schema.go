package rpcmodel

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"github.com/invopop/jsonschema"
)

// ErrInvalidDirection is returned for schema directions other than request
// and response.
var ErrInvalidDirection = errors.New("direction must be either request or response")

// Direction selects either the params or the result of a method.
type Direction string

const (
	DirectionRequest  Direction = "request"
	DirectionResponse Direction = "response"
)

func ParseDirection(str string) (Direction, error) {
	switch d := Direction(str); d {
	case DirectionRequest, DirectionResponse:
		return d, nil
	default:
		return "", fmt.Errorf("%w, got %q", ErrInvalidDirection, str)
	}
}

// Schema returns the JSON schema of the params or the result of the given
// method. Fields without omitempty are listed as required.
func Schema(method Method, direction Direction) (json.RawMessage, error) {
	if method < 0 || method >= numMethods {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, method)
	}

	var v interface{}
	switch direction {
	case DirectionRequest:
		v = method.NewRequest()
	case DirectionResponse:
		v = method.NewResponse()
	default:
		return nil, ErrInvalidDirection
	}

	r := &jsonschema.Reflector{
		Anonymous:      true,
		DoNotReference: true,
		ExpandedStruct: true,
	}
	schema := r.ReflectFromType(reflect.TypeOf(v).Elem())
	return json.Marshal(schema)
}
