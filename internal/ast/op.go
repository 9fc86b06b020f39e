package ast

import "fmt"

// Operation is the closed set of vertex kinds. Per-kind metadata lives in ops.yaml.
type Operation uint16

const (
	MetaOpBase Operation = iota
	MetaOpUnary
	MetaOpBinary
	MetaOpVarargs

	OpNone
	OpErr
	OpSeq
	OpVar
	OpIndex
	OpInstanceProp
	OpFuncCall
	OpSet
	OpSetValue
	OpReturn
	OpIf
	OpIsset
	OpUnset
	OpEq3
	OpNeq3
	OpNull
	OpFalse
	OpTrue
	OpIntConst
	OpFloatConst
	OpString
	OpArray
	OpTuple
	OpFuncParam
	OpFuncParamList
	OpFunction
	OpConvBool
	OpLogNot
	OpLogAnd
	OpLogOr

	OperationCount
)

var opNames = [OperationCount]string{
	MetaOpBase:      "meta_op_base",
	MetaOpUnary:     "meta_op_unary",
	MetaOpBinary:    "meta_op_binary",
	MetaOpVarargs:   "meta_op_varargs",
	OpNone:          "op_none",
	OpErr:           "op_err",
	OpSeq:           "op_seq",
	OpVar:           "op_var",
	OpIndex:         "op_index",
	OpInstanceProp:  "op_instance_prop",
	OpFuncCall:      "op_func_call",
	OpSet:           "op_set",
	OpSetValue:      "op_set_value",
	OpReturn:        "op_return",
	OpIf:            "op_if",
	OpIsset:         "op_isset",
	OpUnset:         "op_unset",
	OpEq3:           "op_eq3",
	OpNeq3:          "op_neq3",
	OpNull:          "op_null",
	OpFalse:         "op_false",
	OpTrue:          "op_true",
	OpIntConst:      "op_int_const",
	OpFloatConst:    "op_float_const",
	OpString:        "op_string",
	OpArray:         "op_array",
	OpTuple:         "op_tuple",
	OpFuncParam:     "op_func_param",
	OpFuncParamList: "op_func_param_list",
	OpFunction:      "op_function",
	OpConvBool:      "op_conv_bool",
	OpLogNot:        "op_log_not",
	OpLogAnd:        "op_log_and",
	OpLogOr:         "op_log_or",
}

func (op Operation) String() string {
	if op < OperationCount {
		return opNames[op]
	}
	return fmt.Sprintf("Operation(%d)", op)
}

// ParseOperation maps a catalog name such as "op_index" to its Operation.
func ParseOperation(name string) (Operation, bool) {
	for i, n := range opNames {
		if n == name {
			return Operation(i), true //nolint:gosec // bounded by OperationCount
		}
	}
	return 0, false
}

// IsMeta reports whether op only serves as a base for other kinds.
func (op Operation) IsMeta() bool {
	return op <= MetaOpVarargs
}

// RLValueType tells whether a vertex is used as an lvalue or an rvalue.
type RLValueType uint8

const (
	ValError RLValueType = iota
	ValNone
	ValL
	ValR
)

// ConstValueType records constant folding results.
type ConstValueType uint8

const (
	CnstError ConstValueType = iota
	CnstConstVal
	CnstNonconstVal
)

// OperationExtra refines an operation without introducing a new kind.
type OperationExtra uint8

const (
	OpExNone OperationExtra = iota
	OpExVarConst
	OpExVarSuperlocal
	OpExFuncGlobal
	OpExFuncMember
	OpExInternalFunc
)
